// Package pipeline sequences the extract and load stages.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/0ladayo/strava-data-pipeline/pkg/domain/activity"
	"github.com/0ladayo/strava-data-pipeline/pkg/domain/authstate"
	httputil "github.com/0ladayo/strava-data-pipeline/pkg/infrastructure/http"
	"github.com/0ladayo/strava-data-pipeline/pkg/pipelineerr"
)

// ActivitySource lists upstream activities created after a point in time.
type ActivitySource interface {
	ActivitiesAfter(ctx context.Context, accessToken string, after time.Time) ([]activity.Attributes, error)
}

// TokenProvider hands out a valid access token for st.
type TokenProvider interface {
	AccessToken(ctx context.Context, st *authstate.State) (string, error)
}

// Fetcher pulls and normalizes every activity after a watermark.
type Fetcher struct {
	Source ActivitySource
	// Logger receives upstream HTTP failure details. Optional.
	Logger *slog.Logger
}

// Fetch returns the normalized activities created strictly after after, in
// upstream order. Any malformed activity fails the whole fetch.
func (f *Fetcher) Fetch(ctx context.Context, accessToken string, after time.Time) ([]activity.Record, error) {
	raw, err := f.Source.ActivitiesAfter(ctx, accessToken, after)
	if err != nil {
		f.logUpstream(ctx, err)
		return nil, pipelineerr.Connectivity("fetch activities", "strava", err)
	}
	records, err := activity.NormalizeBatch(raw)
	if err != nil {
		return nil, pipelineerr.Connectivity("fetch activities", "strava", err)
	}
	return records, nil
}

// logUpstream records the status and rate limit usage of a failed upstream
// call so 429s can be told apart from hard failures.
func (f *Fetcher) logUpstream(ctx context.Context, err error) {
	var he *httputil.HTTPError
	if f.Logger == nil || !errors.As(err, &he) {
		return
	}
	f.Logger.WarnContext(ctx, "upstream request failed",
		"status", he.StatusCode,
		"url", he.URL,
		"rate_limit_usage", he.RateLimitUsage,
		"retryable", httputil.IsRetryable(err),
	)
}
