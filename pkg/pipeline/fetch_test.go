package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httputil "github.com/0ladayo/strava-data-pipeline/pkg/infrastructure/http"
	"github.com/0ladayo/strava-data-pipeline/pkg/pipelineerr"
)

func TestFetch_LogsRateLimitedUpstream(t *testing.T) {
	var buf bytes.Buffer
	f := &Fetcher{
		Source: &fakeSource{err: fmt.Errorf("list activities page 1: %w", &httputil.HTTPError{
			StatusCode:     429,
			Status:         "Too Many Requests",
			URL:            "https://www.strava.com/api/v3/athlete/activities",
			RateLimitUsage: "600,30000",
		})},
		Logger: slog.New(slog.NewJSONHandler(&buf, nil)),
	}

	_, err := f.Fetch(context.Background(), "tok", time.Now())
	require.Error(t, err)
	assert.True(t, pipelineerr.IsKind(err, pipelineerr.KindConnectivity))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "upstream request failed", entry["msg"])
	assert.Equal(t, float64(429), entry["status"])
	assert.Equal(t, "600,30000", entry["rate_limit_usage"])
	assert.Equal(t, true, entry["retryable"])
}

func TestFetch_NonHTTPErrorIsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	f := &Fetcher{
		Source: &fakeSource{err: fmt.Errorf("dial tcp: connection refused")},
		Logger: slog.New(slog.NewJSONHandler(&buf, nil)),
	}

	_, err := f.Fetch(context.Background(), "tok", time.Now())
	require.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestFetch_NilLogger(t *testing.T) {
	f := &Fetcher{Source: &fakeSource{err: &httputil.HTTPError{StatusCode: 500, Status: "Internal Server Error"}}}

	_, err := f.Fetch(context.Background(), "tok", time.Now())
	require.Error(t, err)
	assert.True(t, pipelineerr.IsKind(err, pipelineerr.KindConnectivity))
}
