package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shaiso/Datahub/internal/config"
)

// --- FS Tests ---

func TestFS_PutGetStat(t *testing.T) {
	ctx := context.Background()
	s := NewFS(t.TempDir(), nil)

	if err := s.Put(ctx, "raw", "orders/po.json", []byte(`{"a":1}`), ContentTypeJSON); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	size, err := s.Stat(ctx, "raw", "orders/po.json")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if size != 7 {
		t.Errorf("Stat() = %d, want 7", size)
	}

	data, err := s.Get(ctx, "raw", "orders/po.json")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Errorf("Get() = %s", data)
	}
}

func TestFS_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewFS(t.TempDir(), nil)

	if _, err := s.Stat(ctx, "raw", "missing.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Stat() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, "raw", "missing.pdf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	_, err := s.Copy(ctx, Object{Bucket: "raw", Key: "missing.pdf"}, Object{Bucket: "dst", Key: "x.pdf"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Copy() error = %v, want ErrNotFound", err)
	}
}

func TestFS_Copy(t *testing.T) {
	ctx := context.Background()
	s := NewFS(t.TempDir(), nil)

	if err := s.Put(ctx, "raw", "feeds/master_data/catalog.txt", []byte("hello"), "text/plain"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	src := Object{Bucket: "raw", Key: "feeds/master_data/catalog.txt"}
	dst := Object{Bucket: "master", Key: "master_data/catalog/catalog.txt"}
	res, err := s.Copy(ctx, src, dst)
	if err != nil {
		t.Fatalf("Copy() error = %v", err)
	}

	if res.Source != src || res.Destination != dst {
		t.Errorf("Copy() endpoints = %+v", res)
	}
	if res.Size != 5 {
		t.Errorf("Copy() size = %d, want 5", res.Size)
	}

	data, err := s.Get(ctx, "master", "master_data/catalog/catalog.txt")
	if err != nil || string(data) != "hello" {
		t.Errorf("Get(dst) = %q, %v", data, err)
	}
}

func TestFS_PutFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFS(filepath.Join(dir, "store"), nil)

	local := filepath.Join(dir, "po123.pdf")
	if err := os.WriteFile(local, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.PutFile(ctx, "converted", "orders/po123/po123.pdf", local); err != nil {
		t.Fatalf("PutFile() error = %v", err)
	}
	if size, err := s.Stat(ctx, "converted", "orders/po123/po123.pdf"); err != nil || size != 8 {
		t.Errorf("Stat() = %d, %v", size, err)
	}
}

// --- Key Validation Tests ---

func TestValidateKey(t *testing.T) {
	tests := []struct {
		bucket, key string
		want        error
	}{
		{"raw", "a/b.pdf", nil},
		{"", "a/b.pdf", ErrEmptyBucket},
		{"raw", "", ErrEmptyKey},
		{"raw", "../etc/passwd", ErrInvalidKey},
	}

	for _, tt := range tests {
		err := validateKey(tt.bucket, tt.key)
		if !errors.Is(err, tt.want) {
			t.Errorf("validateKey(%q, %q) = %v, want %v", tt.bucket, tt.key, err, tt.want)
		}
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(config.StorageConfig{Backend: "ftp"}, nil)
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open() error = %v, want ErrUnknownBackend", err)
	}
}

func TestOpen_FS(t *testing.T) {
	s, err := Open(config.StorageConfig{Backend: config.StorageFS, Root: t.TempDir()}, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, ok := s.(*FS); !ok {
		t.Errorf("Open() = %T, want *FS", s)
	}
}
