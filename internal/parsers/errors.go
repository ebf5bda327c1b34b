package parsers

import "errors"

// Ошибки построения registry.
var (
	// ErrUnsupportedExtension — парсер зарегистрирован на расширение вне allow-list.
	ErrUnsupportedExtension = errors.New("parser extension not in supported types")

	// ErrDuplicateParser — два парсера на одну пару (категория, расширение).
	ErrDuplicateParser = errors.New("duplicate parser binding")

	// ErrMissingParser — поддерживаемое расширение без парсера ORDER.
	ErrMissingParser = errors.New("supported extension has no parser")
)

// Ошибки разбора.
var (
	// ErrNoParser — для пары (категория, расширение) нет парсера.
	ErrNoParser = errors.New("no parser for document")

	// ErrMalformed — содержимое не соответствует ожидаемому формату.
	ErrMalformed = errors.New("malformed document")
)
