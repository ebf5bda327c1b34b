package parsers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/shaiso/Datahub/internal/domain"
)

var supported = []string{".pdf", ".txt", ".xlsx", ".xls"}

func orderDoc(name string, content []byte) Document {
	ext := name[strings.LastIndex(name, "."):]
	return Document{
		Path:     "orders/ACME/" + name,
		Record:   domain.FileRecord{OriginalPath: "orders/ACME/" + name, FileName: name, FileExtension: ext},
		Category: domain.CategoryOrder,
		Size:     int64(len(content)),
		Content:  content,
	}
}

// --- Registry Tests ---

func TestDefaultRegistry(t *testing.T) {
	r, err := Default(supported, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, ext := range supported {
		if _, err := r.Lookup(domain.CategoryOrder, ext); err != nil {
			t.Errorf("ORDER %s: %v", ext, err)
		}
	}
	if _, err := r.Lookup(domain.CategoryMasterData, ".txt"); err != nil {
		t.Errorf("MASTER_DATA .txt: %v", err)
	}
	if _, err := r.Lookup(domain.CategoryMasterData, ".pdf"); !errors.Is(err, ErrNoParser) {
		t.Errorf("expected ErrNoParser, got %v", err)
	}
	if _, err := r.Lookup(domain.CategoryOrder, ".PDF"); err != nil {
		t.Errorf("lookup should be case-insensitive: %v", err)
	}
}

func TestDefaultRegistry_Subset(t *testing.T) {
	r, err := Default([]string{".txt"}, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Lookup(domain.CategoryOrder, ".pdf"); !errors.Is(err, ErrNoParser) {
		t.Errorf("expected ErrNoParser for unsupported extension, got %v", err)
	}
}

func TestNewRegistry_Errors(t *testing.T) {
	noop := ParserFunc(func(context.Context, Document) (any, error) { return nil, nil })

	tests := []struct {
		name      string
		supported []string
		bindings  []Binding
		want      error
	}{
		{
			name:      "extension outside allow-list",
			supported: []string{".txt"},
			bindings: []Binding{
				{Category: domain.CategoryOrder, Extension: ".txt", Parser: noop},
				{Category: domain.CategoryOrder, Extension: ".csv", Parser: noop},
			},
			want: ErrUnsupportedExtension,
		},
		{
			name:      "duplicate",
			supported: []string{".txt"},
			bindings: []Binding{
				{Category: domain.CategoryOrder, Extension: ".txt", Parser: noop},
				{Category: domain.CategoryOrder, Extension: ".txt", Parser: noop},
			},
			want: ErrDuplicateParser,
		},
		{
			name:      "missing order parser",
			supported: []string{".txt", ".pdf"},
			bindings: []Binding{
				{Category: domain.CategoryOrder, Extension: ".txt", Parser: noop},
			},
			want: ErrMissingParser,
		},
		{
			name:      "nil parser",
			supported: []string{".txt"},
			bindings: []Binding{
				{Category: domain.CategoryOrder, Extension: ".txt"},
			},
			want: ErrNoParser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.supported, tt.bindings...)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRegistry_Parse(t *testing.T) {
	r, err := Default(supported, Options{})
	if err != nil {
		t.Fatal(err)
	}

	doc := orderDoc("po1.txt", []byte("訂單號碼：A1\n"))
	out, err := r.Parse(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(map[string]any)["訂單號碼"] != "A1" {
		t.Errorf("unexpected output: %v", out)
	}
}

// --- Order Text Tests ---

func TestParseOrderText(t *testing.T) {
	content := "\ufeff訂單號碼：A-001\n" +
		"--- header ---\n" +
		"PO - 4500012345\n" +
		"客戶：ACME\t日期：2024/01/02\n" +
		"\n" +
		"料品代號\t品名\t數量\n" +
		"P-1\tBolt\t10\n" +
		"P-2\tNut\n"

	out, err := ParseOrderText(context.Background(), orderDoc("po.txt", []byte(content)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := out.(map[string]any)

	want := map[string]string{
		"訂單號碼": "A-001",
		"PO":   "4500012345",
		"客戶":   "ACME",
		"日期":   "2024/01/02",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s: expected %q, got %v", k, v, m[k])
		}
	}

	products, ok := m["products"].([]map[string]string)
	if !ok || len(products) != 2 {
		t.Fatalf("expected 2 products, got %v", m["products"])
	}
	if products[0]["料品代號"] != "P-1" || products[0]["數量"] != "10" {
		t.Errorf("unexpected first product: %v", products[0])
	}
	if products[1]["數量"] != "" {
		t.Errorf("missing value should be padded with empty string, got %q", products[1]["數量"])
	}
}

func TestParseOrderText_NoProducts(t *testing.T) {
	out, err := ParseOrderText(context.Background(), orderDoc("po.txt", []byte("客戶：ACME\n")))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out.(map[string]any)["products"]; ok {
		t.Error("products key should be absent without a product table")
	}
}

func TestParseOrderText_MalformedPO(t *testing.T) {
	_, err := ParseOrderText(context.Background(), orderDoc("po.txt", []byte("PO 4500012345\n")))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

// --- Master Text Tests ---

func TestParseMasterText(t *testing.T) {
	content := "# Table: customers\n" +
		"id|name\n" +
		"1|ACME\n" +
		"2|Globex\n" +
		"# Table: units\n" +
		"code|label\n"

	doc := Document{
		Path:     "feeds/master_data/catalog.txt",
		Category: domain.CategoryMasterData,
		Size:     int64(len(content)),
		Content:  []byte(content),
	}

	out, err := ParseMasterText(context.Background(), doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := out.(map[string]any)

	if m["original_file_path"] != doc.Path {
		t.Errorf("unexpected original_file_path: %v", m["original_file_path"])
	}
	if m["capacity"] != doc.Size {
		t.Errorf("unexpected capacity: %v", m["capacity"])
	}

	headers := m["headers"].(map[string][]string)
	if len(headers["customers"]) != 2 || headers["customers"][1] != "name" {
		t.Errorf("unexpected headers: %v", headers)
	}

	items := m["items"].(map[string][]map[string]string)
	if len(items["customers"]) != 2 || items["customers"][1]["name"] != "Globex" {
		t.Errorf("unexpected customers: %v", items["customers"])
	}
	if len(items["units"]) != 0 {
		t.Errorf("expected no unit rows, got %v", items["units"])
	}
}

func TestParseMasterText_Malformed(t *testing.T) {
	doc := Document{Content: []byte("# Table: lonely\n")}
	if _, err := ParseMasterText(context.Background(), doc); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

// --- Excel Tests ---

func xlsxFixture(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExcel_Parse(t *testing.T) {
	content := xlsxFixture(t, [][]any{
		{"訂單(編號：PO-9)", "", ""},
		{"客戶：ACME", "", ""},
		{"交期：", "2024/03/01", ""},
		{"料號", "品名", "數量"},
		{"P-1", "Bolt", "10"},
		{"P-2", "Nut", "20"},
	})

	out, err := NewExcel("").Parse(context.Background(), orderDoc("po.xlsx", content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := out.(map[string]any)

	meta := m["metadata"].(map[string]any)
	if meta["編號"] != "PO-9" {
		t.Errorf("expected value from parentheses, got %v", meta["編號"])
	}
	if meta["header"] != "訂單(編號：PO-9)" {
		t.Errorf("unexpected header: %v", meta["header"])
	}
	if meta["客戶"] != "ACME" {
		t.Errorf("unexpected 客戶: %v", meta["客戶"])
	}
	if meta["交期"] != "2024/03/01" {
		t.Errorf("empty value should come from next cell, got %v", meta["交期"])
	}

	items := m["items"].([]map[string]string)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[1]["品名"] != "Nut" || items[1]["數量"] != "20" {
		t.Errorf("unexpected item: %v", items[1])
	}
}

func TestExcel_ASCIISeparatorSkipsURL(t *testing.T) {
	e := NewExcel(":")
	got := e.extractMetadata([]string{"https://example.com/a", "Buyer: Bob"})

	if _, ok := got["https"]; ok {
		t.Error("URL should not be treated as a pair")
	}
	if got["Buyer"] != "Bob" {
		t.Errorf("unexpected Buyer: %v", got["Buyer"])
	}
}

func TestExcel_Malformed(t *testing.T) {
	_, err := NewExcel("").Parse(context.Background(), orderDoc("po.xlsx", []byte("not a workbook")))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

// --- PDF Tests ---

func TestExtractOrderFields(t *testing.T) {
	lines := []string{
		"訂購編號：PO-2024-001",
		"交貨地點: 台北倉",
		"交貨地址: 台北市信義路1號",
		"TEL: 02-1234-5678",
		"採購主辦: 王小明(113) 2024年3月5日",
		"未稅 合計 金額 12000",
		"0001",
		"A-100",
		"螺絲 M3",
		"100",
		"ACME",
		"1.5",
		"2024/03/20",
		"PCS",
		"-",
		"謝謝",
	}

	got := extractOrderFields(lines)

	if got[fieldPONumber] != "PO-2024-001" {
		t.Errorf("unexpected PO number: %v", got[fieldPONumber])
	}
	if got[fieldDeliverySite] != "台北倉" {
		t.Errorf("unexpected delivery site: %v", got[fieldDeliverySite])
	}
	if got[fieldPhone] != "02-1234-5678" {
		t.Errorf("unexpected phone: %v", got[fieldPhone])
	}
	if got[fieldBuyer] != "王小明" || got[fieldROCYear] != "113" {
		t.Errorf("unexpected buyer/year: %v / %v", got[fieldBuyer], got[fieldROCYear])
	}
	if got[fieldOrderDate] != "2024年3月5日" {
		t.Errorf("unexpected order date: %v", got[fieldOrderDate])
	}
	if got[fieldNetTotal] != "未稅 合計 金額 12000" {
		t.Errorf("unexpected net total: %v", got[fieldNetTotal])
	}

	items := got[fieldItems].([]map[string]string)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0]["料號"] != "A-100" || items[0]["單位"] != "PCS" {
		t.Errorf("unexpected item: %v", items[0])
	}

	remarks := got[fieldRemarks].([]string)
	if len(remarks) != 1 || remarks[0] != "謝謝" {
		t.Errorf("unexpected remarks: %v", remarks)
	}
}

func TestExtractOrderFields_Empty(t *testing.T) {
	got := extractOrderFields(nil)
	if got[fieldPONumber] != nil {
		t.Errorf("expected nil PO number, got %v", got[fieldPONumber])
	}
	if items := got[fieldItems].([]map[string]string); len(items) != 0 {
		t.Errorf("expected no items, got %v", items)
	}
}

func TestParseOrderPDF_Malformed(t *testing.T) {
	_, err := ParseOrderPDF(context.Background(), orderDoc("po.pdf", []byte("%PDF-broken")))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}
