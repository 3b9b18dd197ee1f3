package state

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/storage"

	shared "github.com/0ladayo/strava-data-pipeline/pkg"
)

// BlobBackend keeps the document as a single object in a bucket.
type BlobBackend struct {
	Blobs  shared.BlobStore
	Bucket string
	Object string
}

func (b *BlobBackend) Location() string {
	return fmt.Sprintf("gs://%s/%s", b.Bucket, b.Object)
}

func (b *BlobBackend) Get(ctx context.Context) ([]byte, error) {
	data, err := b.Blobs.Read(ctx, b.Bucket, b.Object)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (b *BlobBackend) Put(ctx context.Context, data []byte) error {
	return b.Blobs.Write(ctx, b.Bucket, b.Object, data)
}
