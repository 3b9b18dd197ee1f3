package state

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	shared "github.com/0ladayo/strava-data-pipeline/pkg"
	fsstorage "github.com/0ladayo/strava-data-pipeline/pkg/storage/firestore"
)

// Clients are the handles a DSN may need. A nil handle makes its scheme
// unavailable.
type Clients struct {
	Blobs     shared.BlobStore
	Firestore *fsstorage.Client
}

// BuildBackendFromDSN picks a backend by scheme:
//
//	gs://<bucket>/<object>
//	firestore://<collection>/<document>
//	memory://
func BuildBackendFromDSN(dsn string, c Clients) (Backend, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("empty state dsn")
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse state dsn: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "gs", "gcs":
		object := strings.TrimPrefix(parsed.Path, "/")
		if parsed.Host == "" || object == "" {
			return nil, fmt.Errorf("state dsn %q must name a bucket and an object", dsn)
		}
		if c.Blobs == nil {
			return nil, fmt.Errorf("state dsn %q needs a blob store", dsn)
		}
		return &BlobBackend{Blobs: c.Blobs, Bucket: parsed.Host, Object: object}, nil
	case "firestore":
		doc := strings.Trim(parsed.Path, "/")
		if parsed.Host == "" || doc == "" || strings.Contains(doc, "/") {
			return nil, fmt.Errorf("state dsn %q must be firestore://<collection>/<document>", dsn)
		}
		if c.Firestore == nil {
			return nil, fmt.Errorf("state dsn %q needs a firestore client", dsn)
		}
		return &FirestoreBackend{Doc: c.Firestore.Documents(parsed.Host).Doc(doc)}, nil
	case "memory", "mem":
		return NewMemoryBackend(nil), nil
	default:
		return nil, fmt.Errorf("unsupported state dsn scheme %q", parsed.Scheme)
	}
}

// DefaultDSN is the location used when no explicit DSN is configured.
func DefaultDSN(bucket, object string) string {
	if object == "" {
		object = shared.DefaultStateObject
	}
	return fmt.Sprintf("gs://%s/%s", bucket, object)
}
