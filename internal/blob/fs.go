package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// FS — Store на локальном диске: <root>/<bucket>/<key>.
// Для локальной разработки и тестов.
type FS struct {
	root   string
	logger *slog.Logger
}

// NewFS создаёт FS store с корнем root.
func NewFS(root string, logger *slog.Logger) *FS {
	if logger == nil {
		logger = slog.Default()
	}
	return &FS{root: root, logger: logger}
}

func (s *FS) path(bucket, key string) string {
	return filepath.Join(s.root, bucket, filepath.FromSlash(key))
}

func (s *FS) Stat(_ context.Context, bucket, key string) (int64, error) {
	if err := validateKey(bucket, key); err != nil {
		return 0, err
	}

	info, err := os.Stat(s.path(bucket, key))
	if err != nil {
		return 0, s.wrap("stat", bucket, key, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
	}
	return info.Size(), nil
}

func (s *FS) Get(_ context.Context, bucket, key string) ([]byte, error) {
	if err := validateKey(bucket, key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(bucket, key))
	if err != nil {
		return nil, s.wrap("get", bucket, key, err)
	}
	return data, nil
}

func (s *FS) Put(_ context.Context, bucket, key string, data []byte, _ string) error {
	if err := validateKey(bucket, key); err != nil {
		return err
	}
	return s.write(bucket, key, data)
}

func (s *FS) PutFile(_ context.Context, bucket, key, path string) error {
	if err := validateKey(bucket, key); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return s.write(bucket, key, data)
}

func (s *FS) Copy(_ context.Context, src, dst Object) (CopyResult, error) {
	res := CopyResult{Source: src, Destination: dst}
	if err := validateKey(src.Bucket, src.Key); err != nil {
		return res, err
	}
	if err := validateKey(dst.Bucket, dst.Key); err != nil {
		return res, err
	}

	data, err := os.ReadFile(s.path(src.Bucket, src.Key))
	if err != nil {
		return res, s.wrap("copy", src.Bucket, src.Key, err)
	}
	if err := s.write(dst.Bucket, dst.Key, data); err != nil {
		return res, err
	}
	res.Size = int64(len(data))
	return res, nil
}

func (s *FS) write(bucket, key string, data []byte) error {
	p := s.path(bucket, key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *FS) wrap(op, bucket, key string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
	}
	return fmt.Errorf("%s %s/%s: %w", op, bucket, key, err)
}
