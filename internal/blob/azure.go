package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/shaiso/Datahub/internal/config"
)

// Azure — Store поверх Azure Blob Storage. Bucket = container.
type Azure struct {
	client *azblob.Client
	logger *slog.Logger
}

// NewAzure создаёт клиента из connection string.
func NewAzure(cfg config.StorageConfig, logger *slog.Logger) (*Azure, error) {
	client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create azure client: %w", err)
	}
	return &Azure{client: client, logger: logger}, nil
}

func (a *Azure) blobClient(bucket, key string) *blob.Client {
	return a.client.ServiceClient().NewContainerClient(bucket).NewBlobClient(key)
}

func (a *Azure) Stat(ctx context.Context, bucket, key string) (int64, error) {
	if err := validateKey(bucket, key); err != nil {
		return 0, err
	}

	props, err := a.blobClient(bucket, key).GetProperties(ctx, nil)
	if err != nil {
		return 0, a.wrap("stat", bucket, key, err)
	}
	if props.ContentLength == nil {
		return 0, nil
	}
	return *props.ContentLength, nil
}

func (a *Azure) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := validateKey(bucket, key); err != nil {
		return nil, err
	}

	resp, err := a.client.DownloadStream(ctx, bucket, key, nil)
	if err != nil {
		return nil, a.wrap("get", bucket, key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read blob %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func (a *Azure) Put(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if err := validateKey(bucket, key); err != nil {
		return err
	}

	opts := &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	}
	if _, err := a.client.UploadBuffer(ctx, bucket, key, data, opts); err != nil {
		return a.wrap("put", bucket, key, err)
	}
	return nil
}

func (a *Azure) PutFile(ctx context.Context, bucket, key, path string) error {
	if err := validateKey(bucket, key); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := a.client.UploadFile(ctx, bucket, key, f, nil); err != nil {
		return a.wrap("put file", bucket, key, err)
	}
	return nil
}

// Copy запускает server-side копирование внутри storage account.
func (a *Azure) Copy(ctx context.Context, src, dst Object) (CopyResult, error) {
	res := CopyResult{Source: src, Destination: dst}
	if err := validateKey(src.Bucket, src.Key); err != nil {
		return res, err
	}
	if err := validateKey(dst.Bucket, dst.Key); err != nil {
		return res, err
	}

	size, err := a.Stat(ctx, src.Bucket, src.Key)
	if err != nil {
		return res, err
	}

	srcURL := a.blobClient(src.Bucket, src.Key).URL()
	if _, err := a.blobClient(dst.Bucket, dst.Key).StartCopyFromURL(ctx, srcURL, nil); err != nil {
		return res, a.wrap("copy", src.Bucket, src.Key, err)
	}
	res.Size = size

	a.logger.Debug("blob copy started", "source", src.String(), "destination", dst.String())
	return res, nil
}

func (a *Azure) wrap(op, bucket, key string, err error) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, key)
	}
	return fmt.Errorf("%s %s/%s: %w", op, bucket, key, err)
}
