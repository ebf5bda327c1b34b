package domain

import (
	"time"
)

// DocumentCategory — логическая категория документа.
//
// Категория выводится только из структуры пути (сегмент "master_data")
// и определяет, каким парсером обрабатывается файл и в какой bucket
// он архивируется.
type DocumentCategory string

const (
	// CategoryOrder — заказы (PO), категория по умолчанию.
	CategoryOrder DocumentCategory = "ORDER"

	// CategoryMasterData — справочные данные.
	CategoryMasterData DocumentCategory = "MASTER_DATA"
)

// String возвращает строковое представление категории.
func (c DocumentCategory) String() string {
	return string(c)
}

// SourceType — откуда читается исходный файл.
// Передаётся явно, никогда не угадывается по пути.
type SourceType string

const (
	// SourceLocal — локальная файловая система.
	SourceLocal SourceType = "local"

	// SourceS3 — blob store (raw bucket).
	SourceS3 SourceType = "s3"
)

// ParseSourceType парсит строку в SourceType.
// Пустая строка трактуется как s3 — так файлы приходят через API.
func ParseSourceType(s string) (SourceType, bool) {
	switch s {
	case "", string(SourceS3):
		return SourceS3, true
	case string(SourceLocal):
		return SourceLocal, true
	default:
		return "", false
	}
}

// FileRecord — описание входного файла.
//
// Создаётся классификатором один раз на задачу и после этого не меняется.
type FileRecord struct {
	// OriginalPath — путь, с которым пришёл запрос.
	OriginalPath string `json:"file_path"`

	// ParentPath — родительский каталог, всегда с завершающим "/".
	ParentPath string `json:"file_path_parent"`

	// FileName — имя файла вместе с расширением.
	FileName string `json:"file_name"`

	// FileExtension — расширение в нижнем регистре, с точкой (".pdf").
	FileExtension string `json:"file_extension"`

	// ProcessedAt — время классификации (UTC).
	ProcessedAt time.Time `json:"proceed_at"`
}

// Stem возвращает имя файла без расширения.
func (r FileRecord) Stem() string {
	return r.FileName[:len(r.FileName)-len(r.FileExtension)]
}

// Map возвращает запись в виде map для записи в execution context.
func (r FileRecord) Map() map[string]any {
	return map[string]any{
		"file_path":        r.OriginalPath,
		"file_path_parent": r.ParentPath,
		"file_name":        r.FileName,
		"file_extension":   r.FileExtension,
		"proceed_at":       r.ProcessedAt.UTC().Format("2006-01-02 15:04:05"),
	}
}
