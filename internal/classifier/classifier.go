package classifier

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/shaiso/Datahub/internal/blob"
	"github.com/shaiso/Datahub/internal/domain"
)

// MasterDataSegment — сегмент пути, который делает файл справочными данными.
const MasterDataSegment = "master_data"

// Classifier определяет FileRecord и категорию документа и
// загружает содержимое файла из выбранного источника.
type Classifier struct {
	store     blob.Store
	rawBucket string
	supported map[string]struct{}
	logger    *slog.Logger
	now       func() time.Time
}

// Config — конфигурация Classifier.
type Config struct {
	// Store — blob store для источника s3.
	Store blob.Store
	// RawBucket — bucket с входящими файлами.
	RawBucket string
	// SupportedTypes — allow-list расширений (".pdf", ".txt", ...).
	SupportedTypes []string
	Logger         *slog.Logger
}

// New создаёт Classifier.
func New(cfg Config) *Classifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	supported := make(map[string]struct{}, len(cfg.SupportedTypes))
	for _, t := range cfg.SupportedTypes {
		supported[strings.ToLower(t)] = struct{}{}
	}

	return &Classifier{
		store:     cfg.Store,
		rawBucket: cfg.RawBucket,
		supported: supported,
		logger:    logger,
		now:       time.Now,
	}
}

// Result — итог классификации.
type Result struct {
	Record   domain.FileRecord
	Category domain.DocumentCategory
	Source   domain.SourceType
	Size     int64
	// Content — содержимое файла целиком.
	Content []byte
}

// Classify строит FileRecord, определяет категорию и читает файл.
//
// Для источника s3 выполняется один probe размера и одно полное чтение.
// Ошибки: ErrInvalidPath (нет расширения или оно не в allow-list),
// ErrNotFound (объекта нет), ErrUnsupportedSource.
func (c *Classifier) Classify(ctx context.Context, filePath string, source domain.SourceType) (*Result, error) {
	record, err := c.Describe(filePath)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Record:   record,
		Category: CategoryOf(filePath),
		Source:   source,
	}

	switch source {
	case domain.SourceLocal:
		res.Size, res.Content, err = readLocal(filePath)
	case domain.SourceS3:
		res.Size, res.Content, err = c.readRemote(ctx, filePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, source)
	}
	if err != nil {
		return nil, err
	}

	c.logger.Debug("file classified",
		"file_path", filePath,
		"source", source,
		"category", res.Category,
		"extension", record.FileExtension,
		"size", res.Size,
	)
	return res, nil
}

// Describe проверяет путь и строит FileRecord, не обращаясь к хранилищу.
func (c *Classifier) Describe(filePath string) (domain.FileRecord, error) {
	p := filepath.ToSlash(strings.TrimSpace(filePath))
	name := path.Base(p)
	if p == "" || name == "/" || name == "." {
		return domain.FileRecord{}, fmt.Errorf("%w: empty file name in %q", ErrInvalidPath, filePath)
	}

	ext := strings.ToLower(suffix(name))
	if ext == "" {
		return domain.FileRecord{}, fmt.Errorf("%w: %q has no extension", ErrInvalidPath, filePath)
	}
	if _, ok := c.supported[ext]; !ok {
		return domain.FileRecord{}, fmt.Errorf("%w: unsupported extension %s", ErrInvalidPath, ext)
	}

	return domain.FileRecord{
		OriginalPath:  filePath,
		ParentPath:    path.Dir(p) + "/",
		FileName:      name,
		FileExtension: ext,
		ProcessedAt:   c.now().UTC(),
	}, nil
}

// CategoryOf выводит категорию документа из пути.
//
// MASTER_DATA, если любой сегмент пути без учёта регистра равен
// "master_data"; иначе ORDER. Содержимое файла не читается.
func CategoryOf(filePath string) domain.DocumentCategory {
	segments := strings.FieldsFunc(filePath, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	for _, s := range segments {
		if strings.EqualFold(s, MasterDataSegment) {
			return domain.CategoryMasterData
		}
	}
	return domain.CategoryOrder
}

// suffix возвращает расширение последнего сегмента.
// Для ".env" и "name." расширения нет.
func suffix(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return name[i:]
}

func readLocal(filePath string) (int64, []byte, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil, fmt.Errorf("%w: %s", ErrNotFound, filePath)
		}
		return 0, nil, fmt.Errorf("stat %s: %w", filePath, err)
	}
	if info.IsDir() {
		return 0, nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, filePath)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s: %w", filePath, err)
	}
	return info.Size(), data, nil
}

func (c *Classifier) readRemote(ctx context.Context, key string) (int64, []byte, error) {
	if c.store == nil {
		return 0, nil, fmt.Errorf("%w: no blob store configured", ErrUnsupportedSource)
	}

	size, err := c.store.Stat(ctx, c.rawBucket, key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return 0, nil, fmt.Errorf("%w: %s/%s", ErrNotFound, c.rawBucket, key)
		}
		return 0, nil, fmt.Errorf("probe %s: %w", key, err)
	}

	data, err := c.store.Get(ctx, c.rawBucket, key)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return 0, nil, fmt.Errorf("%w: %s/%s", ErrNotFound, c.rawBucket, key)
		}
		return 0, nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	return size, data, nil
}
