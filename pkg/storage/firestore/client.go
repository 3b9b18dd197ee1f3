package firestore

import (
	"cloud.google.com/go/firestore"

	"github.com/0ladayo/strava-data-pipeline/pkg/types"
)

type Client struct {
	fs *firestore.Client
}

func NewClient(client *firestore.Client) *Client {
	return &Client{fs: client}
}

func (c *Client) Close() error {
	return c.fs.Close()
}

// Executions holds one audit record per function invocation.
func (c *Client) Executions(collection string) *Collection[types.ExecutionRecord] {
	return &Collection[types.ExecutionRecord]{
		Ref:           c.fs.Collection(collection),
		ToFirestore:   ExecutionToFirestore,
		FromFirestore: FirestoreToExecution,
	}
}

// Documents holds opaque JSON documents such as the authorization state.
func (c *Client) Documents(collection string) *Collection[RawDocument] {
	return &Collection[RawDocument]{
		Ref:           c.fs.Collection(collection),
		ToFirestore:   RawDocumentToFirestore,
		FromFirestore: FirestoreToRawDocument,
	}
}
