package parsers

import (
	"bytes"
	"context"
	"fmt"
	"strings"
)

const (
	// fullColon — разделитель ключ/значение в текстовых заказах.
	fullColon = "："

	// productHeaderPrefix — начало строки заголовка таблицы товаров.
	productHeaderPrefix = "料品代號"
)

// ParseOrderText разбирает текстовый заказ (ORDER .txt).
//
// Строки:
//   - пустые и начинающиеся с "---" пропускаются
//   - содержащие "PO" — пара ключ-значение через первый "-"
//   - с двумя и более "：" и табуляцией — несколько пар через табуляцию
//   - с одним "：" без табуляции — одна пара
//   - начинающиеся с "料品代號" — заголовок таблицы товаров
//   - остальные строки с табуляцией после заголовка — товары
//
// Товары дополняются пустыми значениями до длины заголовка и
// попадают в ключ "products".
func ParseOrderText(_ context.Context, doc Document) (any, error) {
	text := string(bytes.TrimPrefix(doc.Content, []byte("\ufeff")))

	out := make(map[string]any)
	var columns []string
	var products []map[string]string

	for n, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "---") {
			continue
		}

		if strings.Contains(line, "PO") {
			k, v, ok := strings.Cut(line, "-")
			if !ok {
				return nil, fmt.Errorf("%w: line %d: PO line without '-'", ErrMalformed, n+1)
			}
			out[strings.TrimSpace(k)] = strings.TrimSpace(v)
			continue
		}

		count := strings.Count(line, fullColon)
		hasTab := strings.Contains(line, "\t")

		switch {
		case count >= 2 && hasTab:
			for _, part := range strings.Split(line, "\t") {
				if k, v, ok := strings.Cut(part, fullColon); ok {
					out[strings.TrimSpace(k)] = strings.TrimSpace(v)
				}
			}
		case count == 1 && !hasTab:
			k, v, _ := strings.Cut(line, fullColon)
			out[strings.TrimSpace(k)] = strings.TrimSpace(v)
		case strings.HasPrefix(line, productHeaderPrefix):
			columns = columns[:0]
			for _, h := range strings.Split(line, "\t") {
				if h = strings.TrimSpace(h); h != "" {
					columns = append(columns, h)
				}
			}
		case len(columns) > 0 && hasTab:
			products = append(products, zipRow(columns, strings.Split(line, "\t")))
		}
	}

	if len(products) > 0 {
		out["products"] = products
	}
	return out, nil
}

// zipRow сопоставляет значения колонкам. Недостающие значения — "",
// лишние отбрасываются.
func zipRow(columns, values []string) map[string]string {
	row := make(map[string]string, len(columns))
	for i, c := range columns {
		v := ""
		if i < len(values) {
			v = strings.TrimSpace(values[i])
		}
		row[c] = v
	}
	return row
}
