package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shaiso/Datahub/internal/config"
)

// Store — операции blob store, которые использует движок.
//
// Bucket передаётся явно в каждый вызов: движок работает с несколькими
// bucket'ами (raw, converted, master data, materialized).
type Store interface {
	// Stat возвращает размер объекта. ErrNotFound, если объекта нет.
	Stat(ctx context.Context, bucket, key string) (int64, error)

	// Get читает объект целиком в память. ErrNotFound, если объекта нет.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// Put записывает буфер в объект.
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) error

	// PutFile загружает локальный файл в объект.
	PutFile(ctx context.Context, bucket, key, path string) error

	// Copy копирует объект между bucket'ами на стороне хранилища.
	Copy(ctx context.Context, src, dst Object) (CopyResult, error)
}

// Object — адрес объекта в хранилище.
type Object struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// String возвращает адрес в виде bucket/key.
func (o Object) String() string {
	return o.Bucket + "/" + o.Key
}

// CopyResult — результат копирования, содержит оба конца.
type CopyResult struct {
	Source      Object `json:"source"`
	Destination Object `json:"destination"`
	Size        int64  `json:"size"`
}

// ContentTypeJSON — content type для JSON выходов шагов.
const ContentTypeJSON = "application/json"

// EncodeJSON сериализует значение с отступом в два пробела, не
// экранируя не-ASCII и HTML символы.
func EncodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Open создаёт Store для backend'а из конфигурации.
func Open(cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("system", "blob", "backend", cfg.Backend)

	switch cfg.Backend {
	case config.StorageS3:
		return NewS3(cfg, logger)
	case config.StorageAzure:
		return NewAzure(cfg, logger)
	case config.StorageFS:
		return NewFS(cfg.Root, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

func validateKey(bucket, key string) error {
	if bucket == "" {
		return ErrEmptyBucket
	}
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	return nil
}
