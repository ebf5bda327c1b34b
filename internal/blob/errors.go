package blob

import "errors"

var (
	// ErrNotFound — объекта нет в хранилище.
	ErrNotFound = errors.New("object not found")

	// ErrEmptyKey — пустой ключ объекта.
	ErrEmptyKey = errors.New("object key must not be empty")

	// ErrEmptyBucket — не указан bucket.
	ErrEmptyBucket = errors.New("bucket must not be empty")

	// ErrInvalidKey — ключ содержит path traversal сегмент.
	ErrInvalidKey = errors.New("object key contains invalid path segment")

	// ErrUnknownBackend — неизвестный storage backend.
	ErrUnknownBackend = errors.New("unknown storage backend")
)
