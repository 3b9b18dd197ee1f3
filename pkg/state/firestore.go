package state

import (
	"context"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	fsstorage "github.com/0ladayo/strava-data-pipeline/pkg/storage/firestore"
)

// FirestoreBackend keeps the document in a Firestore document. Each save
// replaces the whole document.
type FirestoreBackend struct {
	Doc *fsstorage.DocumentRef[fsstorage.RawDocument]
}

func (b *FirestoreBackend) Location() string {
	return fmt.Sprintf("firestore://%s", b.Doc.Path())
}

func (b *FirestoreBackend) Get(ctx context.Context) ([]byte, error) {
	doc, err := b.Doc.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.Bytes(), nil
}

func (b *FirestoreBackend) Put(ctx context.Context, data []byte) error {
	return b.Doc.Replace(ctx, fsstorage.NewRawDocument(data))
}
