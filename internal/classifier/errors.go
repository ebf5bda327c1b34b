package classifier

import "errors"

var (
	// ErrInvalidPath — у пути нет расширения или оно не поддерживается.
	ErrInvalidPath = errors.New("invalid file path")

	// ErrNotFound — файла нет в выбранном источнике.
	ErrNotFound = errors.New("file not found")

	// ErrUnsupportedSource — неизвестный или ненастроенный источник.
	ErrUnsupportedSource = errors.New("unsupported source")
)
