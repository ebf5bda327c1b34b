package steps

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"reflect"
	"time"

	"github.com/shaiso/Datahub/internal/blob"
	"github.com/shaiso/Datahub/internal/config"
	"github.com/shaiso/Datahub/internal/domain"
	"github.com/shaiso/Datahub/internal/parsers"
)

// Publisher публикует результат run'а во внешнюю шину.
type Publisher interface {
	PublishData(ctx context.Context, runID, filePath string, category domain.DocumentCategory, data any) error
}

// Deps — сервисы, нужные стандартным capability.
type Deps struct {
	Store   blob.Store
	Parsers *parsers.Registry
	Buckets config.BucketsConfig
	Engine  config.EngineConfig

	// Publisher — может быть nil, тогда publish_data только логирует.
	Publisher Publisher

	Logger *slog.Logger

	// Now — часы для имён файлов; по умолчанию time.Now.
	Now func() time.Time
}

type builtin struct {
	Deps
}

// Builtin возвращает функции всех стандартных capability.
func Builtin(deps Deps) map[Capability]Func {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	b := &builtin{Deps: deps}

	return map[Capability]Func{
		CapExtractMetadata: b.extractMetadata,
		CapParseFileToJSON: b.parseFileToJSON,
		CapMapping:         b.mapping,
		CapValidation:      b.validation,
		CapWriteJSONToS3:   b.writeJSONToS3,
		CapWriteRawToS3:    b.writeRawToS3,
		CapPublishData:     b.publishData,
	}
}

func (b *builtin) logger(run *Run) *slog.Logger {
	return b.Logger.With("run_id", run.ID, "file", run.FilePath)
}

func (b *builtin) extractMetadata(_ context.Context, run *Run, _ []any) (any, error) {
	if run.Record.FileName == "" {
		return nil, fmt.Errorf("file record is not populated for %s", run.FilePath)
	}
	return run.Record.Map(), nil
}

func (b *builtin) parseFileToJSON(ctx context.Context, run *Run, _ []any) (any, error) {
	out, err := b.Parsers.Parse(ctx, parsers.Document{
		Path:     run.FilePath,
		Record:   run.Record,
		Category: run.Category,
		Size:     run.Size,
		Content:  run.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", run.FilePath, err)
	}

	if run.Category == domain.CategoryMasterData {
		b.storeProcessedMaster(ctx, run, out)
	}
	return out, nil
}

// storeProcessedMaster сохраняет копию разобранного справочника с
// меткой времени. Ошибка записи не влияет на результат шага.
func (b *builtin) storeProcessedMaster(ctx context.Context, run *Run, data any) {
	stem := run.Record.Stem()
	key := fmt.Sprintf("process_data/%s/%s_%s.json", stem, stem, b.Now().Format("2006-01-02_15:04:05"))

	body, err := blob.EncodeJSON(data)
	if err == nil {
		err = b.Store.Put(ctx, b.Buckets.MasterData, key, body, blob.ContentTypeJSON)
	}
	if err != nil {
		b.logger(run).Error("failed to store processed master data",
			"bucket", b.Buckets.MasterData,
			"key", key,
			"error", err,
		)
		return
	}
	b.logger(run).Info("processed master data stored", "bucket", b.Buckets.MasterData, "key", key)
}

func (b *builtin) mapping(_ context.Context, run *Run, args []any) (any, error) {
	return map[string]any{
		"document_type": run.Category.String(),
		"source_file":   run.FilePath,
		"records":       firstArg(args),
	}, nil
}

func (b *builtin) validation(_ context.Context, _ *Run, args []any) (any, error) {
	payload := firstArg(args)
	if isEmpty(payload) {
		return nil, ErrEmptyInput
	}
	return payload, nil
}

func (b *builtin) writeJSONToS3(ctx context.Context, run *Run, args []any) (any, error) {
	var bucket string
	switch run.Category {
	case domain.CategoryOrder:
		bucket = b.Buckets.Converted
	case domain.CategoryMasterData:
		bucket = b.Buckets.MasterData
	default:
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotSupported, run.Category)
	}

	data := firstArg(args)
	if isEmpty(data) {
		return nil, ErrEmptyInput
	}

	key := run.Record.Stem() + ".json"
	if prefix := b.Engine.ConvertedPrefix; prefix != "" {
		key = path.Join(prefix, key)
	}

	body, err := blob.EncodeJSON(data)
	if err == nil {
		err = b.Store.Put(ctx, bucket, key, body, blob.ContentTypeJSON)
	}
	if err != nil {
		b.logger(run).Error("json upload failed", "bucket", bucket, "key", key, "error", err)
		return map[string]any{
			"status":    "Failed",
			"error":     err.Error(),
			"file_info": run.Record.Map(),
		}, nil
	}

	b.logger(run).Info("json uploaded", "bucket", bucket, "key", key)
	return map[string]any{
		"json_data": data,
		"file_info": run.Record.Map(),
		"convert_file_info": map[string]any{
			"dest_bucket":      bucket,
			"dest_object_name": key,
		},
		"status": "Success",
	}, nil
}

func (b *builtin) writeRawToS3(ctx context.Context, run *Run, _ []any) (any, error) {
	if run.Category != domain.CategoryMasterData {
		return nil, fmt.Errorf("%w: %s", ErrCategoryNotSupported, run.Category)
	}

	dst := blob.Object{
		Bucket: b.Buckets.MasterData,
		Key:    path.Join(b.Engine.MasterArchivePrefix, run.Record.Stem(), run.Record.FileName),
	}

	if run.Source == domain.SourceLocal {
		if err := b.Store.PutFile(ctx, dst.Bucket, dst.Key, run.FilePath); err != nil {
			return nil, fmt.Errorf("upload raw %s: %w", run.FilePath, err)
		}
		return blob.CopyResult{
			Source:      blob.Object{Key: run.FilePath},
			Destination: dst,
			Size:        run.Size,
		}, nil
	}

	res, err := b.Store.Copy(ctx, blob.Object{Bucket: b.Buckets.Raw, Key: run.FilePath}, dst)
	if err != nil {
		return nil, fmt.Errorf("copy raw %s: %w", run.FilePath, err)
	}
	return res, nil
}

func (b *builtin) publishData(ctx context.Context, run *Run, args []any) (any, error) {
	payload := firstArg(args)
	if b.Publisher == nil {
		b.logger(run).Info("publisher not configured, skipping publish")
		return nil, nil
	}
	if err := b.Publisher.PublishData(ctx, run.ID, run.FilePath, run.Category, payload); err != nil {
		return nil, fmt.Errorf("publish data: %w", err)
	}
	return map[string]any{"published": true}, nil
}

// isEmpty — nil, пустая строка, пустой map или slice.
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.String, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
