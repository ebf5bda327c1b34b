package parsers

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var urlPrefix = regexp.MustCompile(`^https?://`)

// Excel разбирает табличные заказы (.xlsx, .xls).
//
// Строки всех листов читаются подряд, пустые отбрасываются. Строка с
// парами "ключ<sep>значение" идёт в metadata; строка без пар считается
// заголовком таблицы, если за ней идут строки той же ширины.
//
// Результат: {metadata, items}.
type Excel struct {
	sep     string
	inParen *regexp.Regexp
}

// NewExcel создаёт парсер с разделителем metadata.
func NewExcel(sep string) *Excel {
	if sep == "" {
		sep = fullColon
	}
	return &Excel{
		sep:     sep,
		inParen: regexp.MustCompile(`(.*)\(([^()]*?` + regexp.QuoteMeta(sep) + `[^()]*)\)`),
	}
}

// Parse реализует Parser.
func (e *Excel) Parse(ctx context.Context, doc Document) (any, error) {
	var (
		rows [][]string
		err  error
	)
	switch doc.Record.FileExtension {
	case ".xls":
		rows, err = readXLS(doc.Content)
	default:
		rows, err = readXLSX(doc.Content)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.parseRows(rows), nil
}

func (e *Excel) parseRows(rows [][]string) map[string]any {
	metadata := make(map[string]any)
	items := make([]map[string]string, 0)

	for i := 0; i < len(rows); {
		header := trimCells(rows[i])
		if kv := e.extractMetadata(header); len(kv) > 0 {
			maps.Copy(metadata, kv)
			i++
			continue
		}

		var block [][]string
		j := i + 1
		for j < len(rows) {
			current := trimCells(rows[j])
			if kv := e.extractMetadata(current); len(kv) > 0 {
				maps.Copy(metadata, kv)
				break
			}
			if len(current) != len(header) {
				break
			}
			block = append(block, current)
			j++
		}

		if len(block) == 0 {
			i++
			continue
		}
		for _, r := range block {
			items = append(items, zipRow(header, r))
		}
		i = j
	}

	return map[string]any{
		"metadata": metadata,
		"items":    items,
	}
}

// extractMetadata ищет пары ключ/значение в строке.
//
// Ячейка вида "Заголовок(ключ<sep>значение)" даёт "header" и пару из
// скобок. Обычная ячейка "ключ<sep>значение" даёт пару; пустое значение
// берётся из следующей непустой ячейки. URL не считаются парой при
// разделителе ":". Пустое значение сохраняется как nil.
func (e *Excel) extractMetadata(row []string) map[string]any {
	var cells []string
	for _, c := range row {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	out := make(map[string]any)
	if len(cells) == 0 {
		return out
	}

	handled := make(map[string]bool)
	for _, cell := range cells {
		m := e.inParen.FindStringSubmatch(cell)
		if m == nil {
			continue
		}
		out["header"] = cell
		if k, v, ok := strings.Cut(m[2], e.sep); ok {
			if k = strings.TrimSpace(k); k != "" {
				out[k] = nilIfEmpty(strings.TrimSpace(v))
			}
		}
		handled[cell] = true
	}

	for idx, cell := range cells {
		if handled[cell] || !strings.Contains(cell, e.sep) {
			continue
		}
		if e.sep == ":" && urlPrefix.MatchString(cell) {
			continue
		}
		k, v, _ := strings.Cut(cell, e.sep)
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if v == "" && idx+1 < len(cells) {
			v = cells[idx+1]
		}
		if k != "" {
			out[k] = nilIfEmpty(v)
		}
	}
	return out
}

func readXLSX(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var all [][]string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		all = append(all, rectangular(rows)...)
	}
	return dropEmpty(all), nil
}

func readXLS(content []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(content), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}

	var all [][]string
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, row.LastCol())
			for c := range cells {
				cells[c] = row.Col(c)
			}
			rows = append(rows, cells)
		}
		all = append(all, rectangular(rows)...)
	}
	return dropEmpty(all), nil
}

// rectangular дополняет строки листа до ширины самой длинной строки:
// ширина строки участвует в определении таблиц.
func rectangular(rows [][]string) [][]string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	for i, r := range rows {
		if len(r) < width {
			padded := make([]string, width)
			copy(padded, r)
			rows[i] = padded
		}
	}
	return rows
}

func dropEmpty(rows [][]string) [][]string {
	out := rows[:0]
	for _, r := range rows {
		for _, c := range r {
			if strings.TrimSpace(c) != "" {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func trimCells(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	return out
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
