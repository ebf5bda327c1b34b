package repo

import "errors"

var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState — переход невозможен из текущего статуса.
	ErrInvalidState = errors.New("invalid state")
)
