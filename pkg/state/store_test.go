package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0ladayo/strava-data-pipeline/pkg/pipelineerr"
	"github.com/0ladayo/strava-data-pipeline/pkg/testing/mocks"
)

const seeded = `{
  "access_token": "tok",
  "athlete_id": 42,
  "expires_at": "1704067200",
  "last_activity_dt": "2024-01-01T00:00:00Z"
}`

func TestDocumentStore_LoadSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryBackend([]byte(seeded))
	store := NewDocumentStore(mem)

	st, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", st.AccessToken)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), st.LastActivityDT)

	require.NoError(t, store.Save(ctx, st))
	assert.Equal(t, seeded, string(mem.Bytes()))
	assert.Equal(t, 1, mem.Puts())
}

func TestDocumentStore_MissingDocumentIsConfigurationError(t *testing.T) {
	_, err := NewDocumentStore(NewMemoryBackend(nil)).Load(context.Background())
	require.Error(t, err)
	assert.True(t, pipelineerr.IsKind(err, pipelineerr.KindConfiguration))
}

func TestDocumentStore_InvalidDocumentIsConfigurationError(t *testing.T) {
	_, err := NewDocumentStore(NewMemoryBackend([]byte(`{"access_token": 1}`))).Load(context.Background())
	require.Error(t, err)
	assert.True(t, pipelineerr.IsKind(err, pipelineerr.KindConfiguration))
}

func TestDocumentStore_SaveFailureIsConnectivityError(t *testing.T) {
	mem := NewMemoryBackend([]byte(seeded))
	mem.PutErr = errors.New("unavailable")
	store := NewDocumentStore(mem)

	st, err := store.Load(context.Background())
	require.NoError(t, err)
	err = store.Save(context.Background(), st)
	require.Error(t, err)
	assert.True(t, pipelineerr.IsKind(err, pipelineerr.KindConnectivity))
	assert.Equal(t, 0, mem.Puts())
}

func TestBlobBackend(t *testing.T) {
	var wrote []byte
	blobs := &mocks.MockBlobStore{
		ReadFunc: func(ctx context.Context, bucket, object string) ([]byte, error) {
			assert.Equal(t, "auth-bucket", bucket)
			assert.Equal(t, "state.json", object)
			return nil, storage.ErrObjectNotExist
		},
		WriteFunc: func(ctx context.Context, bucket, object string, data []byte) error {
			wrote = data
			return nil
		},
	}
	b := &BlobBackend{Blobs: blobs, Bucket: "auth-bucket", Object: "state.json"}

	_, err := b.Get(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := Exists(context.Background(), b)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Put(context.Background(), []byte("{}")))
	assert.Equal(t, "{}", string(wrote))
	assert.Equal(t, "gs://auth-bucket/state.json", b.Location())
}

func TestBuildBackendFromDSN(t *testing.T) {
	blobs := &mocks.MockBlobStore{}

	b, err := BuildBackendFromDSN("gs://bucket/path/state.json", Clients{Blobs: blobs})
	require.NoError(t, err)
	blob, ok := b.(*BlobBackend)
	require.True(t, ok)
	assert.Equal(t, "bucket", blob.Bucket)
	assert.Equal(t, "path/state.json", blob.Object)

	b, err = BuildBackendFromDSN("memory://", Clients{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, b)

	for _, dsn := range []string{
		"",
		"gs://bucket",
		"gs://bucket/state.json",
		"firestore://state",
		"firestore://state/auth",
		"s3://bucket/state.json",
	} {
		t.Run(dsn, func(t *testing.T) {
			_, err := BuildBackendFromDSN(dsn, Clients{})
			assert.Error(t, err)
		})
	}
}

func TestDefaultDSN(t *testing.T) {
	assert.Equal(t, "gs://auth/state.json", DefaultDSN("auth", ""))
	assert.Equal(t, "gs://auth/custom.json", DefaultDSN("auth", "custom.json"))
}
