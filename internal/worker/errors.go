package worker

import "errors"

var (
	// ErrTaskNotFound — задачи нет в БД.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotQueued — задача уже взята, завершена или отозвана.
	ErrTaskNotQueued = errors.New("task is not queued")

	// ErrTimeLimit — run не уложился в hard time limit.
	ErrTimeLimit = errors.New("hard time limit exceeded")
)
