package parsers

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/shaiso/Datahub/internal/domain"
)

// Document — входные данные парсера: файл уже прочитан классификатором.
type Document struct {
	Path     string
	Record   domain.FileRecord
	Category domain.DocumentCategory
	Size     int64
	Content  []byte
}

// Parser превращает содержимое файла в структурированную запись.
type Parser interface {
	Parse(ctx context.Context, doc Document) (any, error)
}

// ParserFunc — адаптер функции к интерфейсу Parser.
type ParserFunc func(ctx context.Context, doc Document) (any, error)

// Parse вызывает f(ctx, doc).
func (f ParserFunc) Parse(ctx context.Context, doc Document) (any, error) {
	return f(ctx, doc)
}

// Binding связывает пару (категория, расширение) с парсером.
type Binding struct {
	Category  domain.DocumentCategory
	Extension string
	Parser    Parser
}

type key struct {
	category  domain.DocumentCategory
	extension string
}

// Registry — карта (категория × расширение) → Parser.
// Строится при старте и дальше только читается.
type Registry struct {
	parsers map[key]Parser
}

// NewRegistry строит registry и проверяет его против allow-list расширений.
//
// Правила:
//   - расширение каждого binding входит в supported
//   - одна пара (категория, расширение) — один парсер
//   - у каждого поддерживаемого расширения есть парсер ORDER
//
// Комбинации MASTER_DATA объявляются явно; для необъявленных Lookup
// вернёт ErrNoParser.
func NewRegistry(supported []string, bindings ...Binding) (*Registry, error) {
	r := &Registry{parsers: make(map[key]Parser, len(bindings))}

	for _, b := range bindings {
		ext := strings.ToLower(b.Extension)
		if !slices.Contains(supported, ext) {
			return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedExtension, b.Category, ext)
		}
		if b.Parser == nil {
			return nil, fmt.Errorf("%w: %s/%s has nil parser", ErrNoParser, b.Category, ext)
		}
		k := key{category: b.Category, extension: ext}
		if _, ok := r.parsers[k]; ok {
			return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateParser, b.Category, ext)
		}
		r.parsers[k] = b.Parser
	}

	for _, ext := range supported {
		if _, ok := r.parsers[key{category: domain.CategoryOrder, extension: ext}]; !ok {
			return nil, fmt.Errorf("%w: %s/%s", ErrMissingParser, domain.CategoryOrder, ext)
		}
	}

	return r, nil
}

// Lookup возвращает парсер для пары (категория, расширение).
func (r *Registry) Lookup(category domain.DocumentCategory, ext string) (Parser, error) {
	p, ok := r.parsers[key{category: category, extension: strings.ToLower(ext)}]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoParser, category, ext)
	}
	return p, nil
}

// Parse находит парсер по документу и вызывает его.
func (r *Registry) Parse(ctx context.Context, doc Document) (any, error) {
	p, err := r.Lookup(doc.Category, doc.Record.FileExtension)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, doc)
}
