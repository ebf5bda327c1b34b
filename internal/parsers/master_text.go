package parsers

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

const tableMarker = "# Table: "

// ParseMasterText разбирает справочник (MASTER_DATA .txt).
//
// Файл состоит из блоков "# Table: <name>": первая строка блока — имя
// таблицы, вторая — заголовки через "|", остальные — строки через "|".
//
// Результат: {original_file_path, headers, items, capacity}.
func ParseMasterText(ctx context.Context, doc Document) (any, error) {
	headers := make(map[string][]string)
	items := make(map[string][]map[string]string)

	for _, block := range strings.Split(strings.TrimSpace(string(doc.Content)), tableMarker) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if strings.TrimSpace(block) == "" {
			continue
		}

		lines := splitLines(strings.TrimSpace(block))
		if len(lines) < 2 {
			return nil, fmt.Errorf("%w: table %q has no header line", ErrMalformed, strings.TrimSpace(lines[0]))
		}

		name := strings.TrimSpace(lines[0])
		cols := strings.Split(lines[1], "|")
		headers[name] = cols

		rows := make([]map[string]string, 0, len(lines)-2)
		for _, line := range lines[2:] {
			values := strings.Split(line, "|")
			row := make(map[string]string, len(cols))
			for i := 0; i < len(cols) && i < len(values); i++ {
				row[cols[i]] = values[i]
			}
			rows = append(rows, row)
		}
		items[name] = rows
	}

	return map[string]any{
		"original_file_path": doc.Path,
		"headers":            headers,
		"items":              items,
		"capacity":           doc.Size,
	}, nil
}

func splitLines(s string) []string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	return lines
}
