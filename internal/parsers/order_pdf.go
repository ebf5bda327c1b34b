package parsers

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// pdfcpu не должен создавать конфиг в домашнем каталоге процесса.
	model.ConfigPath = "disable"
}

// Ключи полей заказа (шаблон PO в PDF).
const (
	fieldPONumber     = "訂購編號"
	fieldDeliverySite = "交貨地點"
	fieldDeliveryAddr = "交貨地址"
	fieldPhone        = "聯絡電話"
	fieldBuyer        = "採購主辦"
	fieldROCYear      = "民國年"
	fieldOrderDate    = "訂購日期"
	fieldNetTotal     = "未稅總金額"
	fieldItems        = "品項"
	fieldRemarks      = "備註"
)

// productFields — 9 строк блока товара, по порядку.
var productFields = [...]string{"項次", "料號", "品名及規格", "數量", "廠牌型號", "單價", "預交日期", "單位", "備註"}

var (
	rePONumber  = regexp.MustCompile(`訂購編號：([A-Za-z0-9-]+)`)
	reBuyer     = regexp.MustCompile(`採購主辦\s*:\s*([^(\n]+)\((\d+)\)`)
	reOrderDate = regexp.MustCompile(`\d{1,4}年\d{1,2}月\d{1,2}日`)
	reNetTotal  = regexp.MustCompile(`未稅[^金額\d]{0,50}?金額[^\d]{0,20}?\d+`)
	reItemNo    = regexp.MustCompile(`^\d{4}$`)
)

// ParseOrderPDF разбирает заказ в PDF постранично.
//
// pdfcpu проверяет структуру документа и считает страницы, текст строк
// извлекается через ledongthuc/pdf. Результат — срез записей, по одной
// на страницу, с полем page_number (с 1).
func ParseOrderPDF(ctx context.Context, doc Document) (any, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pages, err := api.PageCount(bytes.NewReader(doc.Content), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	r, err := pdf.NewReader(bytes.NewReader(doc.Content), int64(len(doc.Content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := make([]map[string]any, 0, pages)
	for n := 1; n <= pages; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var lines []string
		if n <= r.NumPage() {
			if lines, err = pageLines(r.Page(n)); err != nil {
				return nil, fmt.Errorf("page %d: %w", n, err)
			}
		}

		fields := extractOrderFields(lines)
		fields["page_number"] = n
		out = append(out, fields)
	}
	return out, nil
}

// pageLines возвращает непустые строки текста страницы сверху вниз.
func pageLines(p pdf.Page) ([]string, error) {
	if p.V.IsNull() {
		return nil, nil
	}
	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var b strings.Builder
		for _, t := range row.Content {
			b.WriteString(t.S)
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// extractOrderFields раскладывает строки страницы по полям заказа.
// Строка из 4 цифр открывает блок товара из 9 строк; всё
// нераспознанное попадает в примечания.
func extractOrderFields(lines []string) map[string]any {
	data := map[string]any{
		fieldPONumber:     nil,
		fieldDeliverySite: nil,
		fieldDeliveryAddr: nil,
		fieldPhone:        nil,
		fieldBuyer:        nil,
		fieldROCYear:      nil,
		fieldOrderDate:    nil,
		fieldNetTotal:     nil,
	}
	items := make([]map[string]string, 0)
	remarks := make([]string, 0)

	for i := 0; i < len(lines); {
		line := strings.TrimSpace(lines[i])

		switch {
		case strings.Contains(line, fieldPONumber):
			if m := rePONumber.FindStringSubmatch(line); m != nil {
				data[fieldPONumber] = m[1]
			}
		case strings.Contains(line, fieldDeliverySite):
			data[fieldDeliverySite] = afterColon(line)
		case strings.Contains(line, fieldDeliveryAddr):
			data[fieldDeliveryAddr] = afterColon(line)
		case strings.Contains(line, "TEL") || strings.Contains(line, fieldPhone):
			data[fieldPhone] = afterColon(line)
		case strings.Contains(line, fieldBuyer):
			if m := reBuyer.FindStringSubmatch(line); m != nil {
				data[fieldBuyer] = m[1]
				data[fieldROCYear] = m[2]
			}
			if d := reOrderDate.FindString(line); d != "" {
				data[fieldOrderDate] = d
			}
		case reNetTotal.MatchString(line):
			data[fieldNetTotal] = line
		case reItemNo.MatchString(line) && i+8 < len(lines):
			items = append(items, productBlock(lines[i:i+9]))
			i += 9
			continue
		default:
			remarks = append(remarks, line)
		}
		i++
	}

	data[fieldItems] = items
	data[fieldRemarks] = remarks
	return data
}

func productBlock(lines []string) map[string]string {
	p := make(map[string]string, len(productFields))
	for i, f := range productFields {
		p[f] = strings.TrimSpace(lines[i])
	}
	return p
}

// afterColon возвращает текст после первого ":" или всю строку.
func afterColon(line string) string {
	if _, v, ok := strings.Cut(line, ":"); ok {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(line)
}
