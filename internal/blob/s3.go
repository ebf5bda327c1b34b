package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/shaiso/Datahub/internal/config"
)

// S3 — Store поверх S3-совместимого API (AWS S3, MinIO).
type S3 struct {
	client *minio.Client
	logger *slog.Logger
}

// NewS3 создаёт клиента. Соединение устанавливается при первом вызове.
func NewS3(cfg config.StorageConfig, logger *slog.Logger) (*S3, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.SSL(),
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &S3{client: client, logger: logger}, nil
}

func (s *S3) Stat(ctx context.Context, bucket, key string) (int64, error) {
	if err := validateKey(bucket, key); err != nil {
		return 0, err
	}

	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, s.wrap("stat", bucket, key, err)
	}
	return info.Size, nil
}

func (s *S3) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := validateKey(bucket, key); err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrap("get", bucket, key, err)
	}
	defer obj.Close()

	// ошибка "нет объекта" у minio приходит при первом чтении
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.wrap("get", bucket, key, err)
	}
	return data, nil
}

func (s *S3) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if err := validateKey(bucket, key); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return s.wrap("put", bucket, key, err)
	}
	return nil
}

func (s *S3) PutFile(ctx context.Context, bucket, key, path string) error {
	if err := validateKey(bucket, key); err != nil {
		return err
	}

	if _, err := s.client.FPutObject(ctx, bucket, key, path, minio.PutObjectOptions{}); err != nil {
		return s.wrap("put file", bucket, key, err)
	}
	return nil
}

func (s *S3) Copy(ctx context.Context, src, dst Object) (CopyResult, error) {
	res := CopyResult{Source: src, Destination: dst}
	if err := validateKey(src.Bucket, src.Key); err != nil {
		return res, err
	}
	if err := validateKey(dst.Bucket, dst.Key); err != nil {
		return res, err
	}

	info, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: dst.Bucket, Object: dst.Key},
		minio.CopySrcOptions{Bucket: src.Bucket, Object: src.Key},
	)
	if err != nil {
		return res, s.wrap("copy", src.Bucket, src.Key, err)
	}
	res.Size = info.Size

	s.logger.Debug("object copied", "source", src.String(), "destination", dst.String())
	return res, nil
}

func (s *S3) wrap(op, bucket, key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
	}
	return fmt.Errorf("%s %s/%s: %w", op, bucket, key, err)
}
