package classifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shaiso/Datahub/internal/blob"
	"github.com/shaiso/Datahub/internal/domain"
)

var supported = []string{".pdf", ".txt", ".xlsx", ".xls"}

// countingStore оборачивает blob.Store и считает вызовы.
type countingStore struct {
	blob.Store
	stats, gets int
}

func (s *countingStore) Stat(ctx context.Context, bucket, key string) (int64, error) {
	s.stats++
	return s.Store.Stat(ctx, bucket, key)
}

func (s *countingStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	s.gets++
	return s.Store.Get(ctx, bucket, key)
}

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

// --- CategoryOf Tests ---

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		path string
		want domain.DocumentCategory
	}{
		{"orders/ACME/po123.pdf", domain.CategoryOrder},
		{"feeds/master_data/catalog.txt", domain.CategoryMasterData},
		{"feeds/MASTER_DATA/catalog.txt", domain.CategoryMasterData},
		{"Master_Data/catalog.txt", domain.CategoryMasterData},
		{`C:\feeds\master_data\catalog.txt`, domain.CategoryMasterData},
		{"feeds/master_data_old/catalog.txt", domain.CategoryOrder},
		{"feeds/master_data.txt", domain.CategoryOrder},
		{"", domain.CategoryOrder},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := CategoryOf(tt.path); got != tt.want {
				t.Errorf("CategoryOf(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}

func TestCategoryOf_Deterministic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "feeds", "master_data", "catalog.txt")

	first := CategoryOf(path)
	writeFile(t, path, "# Table: a\nx|y\n")
	second := CategoryOf(path)
	writeFile(t, path, "completely different content")
	third := CategoryOf(path)

	if first != domain.CategoryMasterData || first != second || second != third {
		t.Errorf("CategoryOf not stable: %s, %s, %s", first, second, third)
	}
}

// --- Describe Tests ---

func TestDescribe_InvalidPath(t *testing.T) {
	c := New(Config{SupportedTypes: supported})

	for _, p := range []string{"", "orders/README", "orders/.env", "orders/po.", "orders/po.docx", "orders/"} {
		if _, err := c.Describe(p); !errors.Is(err, ErrInvalidPath) {
			t.Errorf("Describe(%q) error = %v, want ErrInvalidPath", p, err)
		}
	}
}

func TestDescribe_Record(t *testing.T) {
	c := New(Config{SupportedTypes: supported})

	rec, err := c.Describe("orders/ACME/PO123.PDF")
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}

	if rec.FileExtension != ".pdf" {
		t.Errorf("FileExtension = %q, want .pdf", rec.FileExtension)
	}
	if rec.FileName != "PO123.PDF" {
		t.Errorf("FileName = %q", rec.FileName)
	}
	if rec.ParentPath != "orders/ACME/" {
		t.Errorf("ParentPath = %q, want orders/ACME/", rec.ParentPath)
	}
	if rec.Stem() != "PO123" {
		t.Errorf("Stem() = %q", rec.Stem())
	}
	if rec.ProcessedAt.IsZero() {
		t.Error("ProcessedAt is zero")
	}
}

// --- Classify Tests ---

func TestClassify_LocalOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "orders", "ACME", "po123.pdf"), "%PDF-1.4")
	t.Chdir(dir)

	c := New(Config{SupportedTypes: supported})
	res, err := c.Classify(context.Background(), "orders/ACME/po123.pdf", domain.SourceLocal)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if res.Category != domain.CategoryOrder {
		t.Errorf("Category = %s, want ORDER", res.Category)
	}
	if res.Record.FileExtension != ".pdf" {
		t.Errorf("FileExtension = %q, want .pdf", res.Record.FileExtension)
	}
	if res.Size != 8 || string(res.Content) != "%PDF-1.4" {
		t.Errorf("Size/Content = %d/%q", res.Size, res.Content)
	}
}

func TestClassify_LocalNotFound(t *testing.T) {
	c := New(Config{SupportedTypes: supported})

	_, err := c.Classify(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), domain.SourceLocal)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Classify() error = %v, want ErrNotFound", err)
	}
}

func TestClassify_RemoteMasterData(t *testing.T) {
	ctx := context.Background()
	fs := blob.NewFS(t.TempDir(), nil)
	if err := fs.Put(ctx, "raw", "feeds/master_data/catalog.txt", []byte("anything"), "text/plain"); err != nil {
		t.Fatal(err)
	}
	store := &countingStore{Store: fs}

	c := New(Config{Store: store, RawBucket: "raw", SupportedTypes: supported})
	res, err := c.Classify(ctx, "feeds/master_data/catalog.txt", domain.SourceS3)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}

	if res.Category != domain.CategoryMasterData {
		t.Errorf("Category = %s, want MASTER_DATA", res.Category)
	}
	if store.stats != 1 || store.gets != 1 {
		t.Errorf("store calls: stat=%d get=%d, want 1/1", store.stats, store.gets)
	}
	if res.Size != 8 {
		t.Errorf("Size = %d, want 8", res.Size)
	}
}

func TestClassify_RemoteNotFound(t *testing.T) {
	store := &countingStore{Store: blob.NewFS(t.TempDir(), nil)}
	c := New(Config{Store: store, RawBucket: "raw", SupportedTypes: supported})

	_, err := c.Classify(context.Background(), "orders/po.pdf", domain.SourceS3)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Classify() error = %v, want ErrNotFound", err)
	}
	if store.gets != 0 {
		t.Errorf("Get called %d times after failed probe", store.gets)
	}
}

func TestClassify_InvalidPathSkipsStore(t *testing.T) {
	store := &countingStore{Store: blob.NewFS(t.TempDir(), nil)}
	c := New(Config{Store: store, RawBucket: "raw", SupportedTypes: supported})

	_, err := c.Classify(context.Background(), "orders/po.docx", domain.SourceS3)
	if !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Classify() error = %v, want ErrInvalidPath", err)
	}
	if store.stats+store.gets != 0 {
		t.Error("store touched for invalid path")
	}
}

func TestClassify_UnknownSource(t *testing.T) {
	c := New(Config{SupportedTypes: supported})

	_, err := c.Classify(context.Background(), "orders/po.pdf", domain.SourceType("ftp"))
	if !errors.Is(err, ErrUnsupportedSource) {
		t.Errorf("Classify() error = %v, want ErrUnsupportedSource", err)
	}
}
