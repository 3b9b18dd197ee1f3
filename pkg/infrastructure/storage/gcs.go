package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
)

var contentTypes = map[string]string{
	".parquet": "application/vnd.apache.parquet",
	".json":    "application/json",
}

// StorageAdapter provides blob storage operations using Google Cloud Storage
type StorageAdapter struct {
	Client *storage.Client
}

func (a *StorageAdapter) Write(ctx context.Context, bucketName, objectName string, data []byte) error {
	wc := a.Client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = ContentTypeFor(objectName)
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("write gs://%s/%s: %w", bucketName, objectName, err)
	}
	// The object is only committed once Close returns nil.
	if err := wc.Close(); err != nil {
		return fmt.Errorf("write gs://%s/%s: %w", bucketName, objectName, err)
	}
	return nil
}

// Read returns the object contents. A missing object yields an error
// matching storage.ErrObjectNotExist.
func (a *StorageAdapter) Read(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	rc, err := a.Client.Bucket(bucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", bucketName, objectName, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// ContentTypeFor picks the stored media type from the object extension.
func ContentTypeFor(objectName string) string {
	if ct, ok := contentTypes[path.Ext(objectName)]; ok {
		return ct
	}
	return "application/octet-stream"
}
