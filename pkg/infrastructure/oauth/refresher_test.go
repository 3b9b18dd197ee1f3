package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/0ladayo/strava-data-pipeline/pkg/domain/authstate"
	"github.com/0ladayo/strava-data-pipeline/pkg/pipelineerr"
	"github.com/0ladayo/strava-data-pipeline/pkg/state"
)

const expiresAt = 1704067200 // 2024-01-01T00:00:00Z

const doc = `{
  "access_token": "old-token",
  "expires_at": "1704067200",
  "last_activity_dt": "2024-01-01T00:00:00Z"
}`

type tokenServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newTokenServer(t *testing.T, status int) *tokenServer {
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh-me", r.PostForm.Get("refresh_token"))
		assert.Equal(t, "client-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "client-secret", r.PostForm.Get("client_secret"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"message":"Bad Request"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token_type":    "Bearer",
			"access_token":  "new-token",
			"refresh_token": "refresh-me",
			"expires_at":    expiresAt + 21600,
			"expires_in":    21600,
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func setup(t *testing.T, ts *tokenServer, now time.Time) (*Refresher, *state.MemoryBackend, *authstate.State) {
	t.Helper()
	mem := state.NewMemoryBackend([]byte(doc))
	store := state.NewDocumentStore(mem)
	st, err := store.Load(context.Background())
	require.NoError(t, err)

	r := &Refresher{
		OAuth:        NewConfig("client-id", "client-secret", ts.URL),
		RefreshToken: "refresh-me",
		Store:        store,
		HTTPClient:   ts.Client(),
		Now:          func() time.Time { return now },
	}
	return r, mem, st
}

func TestAccessToken_NotExpiredAtBoundary(t *testing.T) {
	ts := newTokenServer(t, http.StatusOK)
	r, mem, st := setup(t, ts, time.Unix(expiresAt, 0))

	tok, err := r.AccessToken(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, "old-token", tok)
	assert.Equal(t, int32(0), ts.calls.Load(), "no exchange")
	assert.Equal(t, 0, mem.Puts(), "no write")
}

func TestAccessToken_ExpiredRefreshesOnce(t *testing.T) {
	ts := newTokenServer(t, http.StatusOK)
	r, mem, st := setup(t, ts, time.Unix(expiresAt+1, 0))

	tok, err := r.AccessToken(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, "new-token", tok)
	assert.Equal(t, int32(1), ts.calls.Load())
	assert.Equal(t, 1, mem.Puts())
	assert.Equal(t, time.Unix(expiresAt+21600, 0).UTC(), st.ExpiresAt)

	saved, err := authstate.Decode(mem.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "new-token", saved.AccessToken)
	assert.Equal(t, st.ExpiresAt, saved.ExpiresAt)
	assert.Equal(t, st.LastActivityDT, saved.LastActivityDT)

	// The refreshed token is now valid: a second call neither exchanges nor writes.
	_, err = r.AccessToken(context.Background(), st)
	require.NoError(t, err)
	assert.Equal(t, int32(1), ts.calls.Load())
	assert.Equal(t, 1, mem.Puts())
}

func TestAccessToken_ExchangeFailure(t *testing.T) {
	ts := newTokenServer(t, http.StatusBadRequest)
	r, mem, st := setup(t, ts, time.Unix(expiresAt+60, 0))

	_, err := r.AccessToken(context.Background(), st)
	require.Error(t, err)
	assert.True(t, pipelineerr.IsKind(err, pipelineerr.KindConnectivity))
	assert.Equal(t, "old-token", st.AccessToken)
	assert.Equal(t, doc, string(mem.Bytes()))
}

func TestAccessToken_PersistFailure(t *testing.T) {
	ts := newTokenServer(t, http.StatusOK)
	r, mem, st := setup(t, ts, time.Unix(expiresAt+60, 0))
	mem.PutErr = errors.New("permission denied")

	_, err := r.AccessToken(context.Background(), st)
	require.Error(t, err)
	assert.True(t, pipelineerr.IsKind(err, pipelineerr.KindConnectivity))
	assert.Equal(t, "old-token", st.AccessToken, "caller state not updated")
	assert.Equal(t, time.Unix(expiresAt, 0).UTC(), st.ExpiresAt)
	assert.Equal(t, doc, string(mem.Bytes()))
}

func TestAccessToken_ResponseWithoutExpiry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token_type":   "Bearer",
			"access_token": "new-token",
		})
	}))
	t.Cleanup(srv.Close)
	r, mem, st := setup(t, &tokenServer{Server: srv}, time.Unix(expiresAt+60, 0))

	_, err := r.AccessToken(context.Background(), st)
	require.Error(t, err)
	assert.True(t, pipelineerr.IsKind(err, pipelineerr.KindConnectivity))
	assert.Contains(t, err.Error(), "expires_in")
	assert.Equal(t, "old-token", st.AccessToken)
	assert.Equal(t, time.Unix(expiresAt, 0).UTC(), st.ExpiresAt)
	assert.Equal(t, 0, mem.Puts(), "no write")
}

func TestExpiry(t *testing.T) {
	base := &oauth2.Token{AccessToken: "a"}

	_, ok := expiry(base)
	assert.False(t, ok)

	rel := &oauth2.Token{AccessToken: "a", Expiry: time.Unix(expiresAt, 0)}
	got, ok := expiry(rel)
	assert.True(t, ok)
	assert.Equal(t, time.Unix(expiresAt, 0).UTC(), got)

	abs := base.WithExtra(map[string]any{"expires_at": float64(expiresAt + 10)})
	got, ok = expiry(abs)
	assert.True(t, ok)
	assert.Equal(t, time.Unix(expiresAt+10, 0).UTC(), got)

	str := base.WithExtra(map[string]any{"expires_at": "1704067210"})
	got, ok = expiry(str)
	assert.True(t, ok)
	assert.Equal(t, time.Unix(expiresAt+10, 0).UTC(), got)
}
