package parsers

import (
	"slices"

	"github.com/shaiso/Datahub/internal/domain"
)

// Options — параметры встроенных парсеров.
type Options struct {
	// MetadataSeparator — разделитель ключ/значение в таблицах (по умолчанию "：").
	MetadataSeparator string
}

// Builtin возвращает все встроенные парсеры.
func Builtin(opts Options) []Binding {
	excel := NewExcel(opts.MetadataSeparator)

	return []Binding{
		{Category: domain.CategoryOrder, Extension: ".pdf", Parser: ParserFunc(ParseOrderPDF)},
		{Category: domain.CategoryOrder, Extension: ".txt", Parser: ParserFunc(ParseOrderText)},
		{Category: domain.CategoryOrder, Extension: ".xlsx", Parser: excel},
		{Category: domain.CategoryOrder, Extension: ".xls", Parser: excel},
		{Category: domain.CategoryMasterData, Extension: ".txt", Parser: ParserFunc(ParseMasterText)},
	}
}

// Default строит registry из встроенных парсеров для расширений из
// supported. Расширение без встроенного парсера ORDER — ошибка старта.
func Default(supported []string, opts Options) (*Registry, error) {
	var bindings []Binding
	for _, b := range Builtin(opts) {
		if slices.Contains(supported, b.Extension) {
			bindings = append(bindings, b)
		}
	}
	return NewRegistry(supported, bindings...)
}
