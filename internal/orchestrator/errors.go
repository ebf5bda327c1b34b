package orchestrator

import "errors"

// Причины прерывания run. Попадают в строку результата "failed: <reason>".
var (
	// ErrClassify — файл не прошёл классификацию.
	ErrClassify = errors.New("classify file")

	// ErrWorkflowNotFound — сервис не вернул workflow для файла.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrUnknownSteps — workflow содержит шаги вне registry (strict mode).
	ErrUnknownSteps = errors.New("workflow has unknown steps")

	// ErrSessionNotStarted — сервис не открыл сессию.
	ErrSessionNotStarted = errors.New("session not started")

	// ErrStepNotStarted — старт шага без history id, run останавливается.
	ErrStepNotStarted = errors.New("step not started")
)
