package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	shared "github.com/0ladayo/strava-data-pipeline/pkg"
	"github.com/0ladayo/strava-data-pipeline/pkg/domain/activity"
	"github.com/0ladayo/strava-data-pipeline/pkg/domain/authstate"
	"github.com/0ladayo/strava-data-pipeline/pkg/domain/columnar"
	"github.com/0ladayo/strava-data-pipeline/pkg/domain/watermark"
	"github.com/0ladayo/strava-data-pipeline/pkg/pipelineerr"
	"github.com/0ladayo/strava-data-pipeline/pkg/state"
)

const (
	StatusSuccess = "SUCCESS"
	StatusSkipped = "SKIPPED"

	MsgNoNewActivities     = "No new activities found"
	MsgNothingAfterDedupe  = "No new activities to load after filtering"
	MsgExtractSucceeded    = "Function executed successfully."
	MsgNothingToAppend     = "No new data to append after deduplication."
	msgAppendedRowsPattern = "Successfully appended %d new rows to %s"
)

// ExtractResult reports what one extract run did.
type ExtractResult struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Fetched   int       `json:"fetched"`
	Written   int       `json:"written"`
	Object    string    `json:"object,omitempty"`
	Watermark time.Time `json:"watermark"`
}

// Extractor runs the extract stage: refresh the token if needed, fetch
// activities after the watermark, drop those already in the warehouse,
// write the rest as one Parquet object and advance the watermark.
//
// Concurrent runs against the same state are not coordinated; the stage
// assumes at most one invocation at a time.
type Extractor struct {
	State     state.Store
	Tokens    TokenProvider
	Fetcher   *Fetcher
	Warehouse shared.Warehouse
	Blobs     shared.BlobStore
	Bucket    string
	Logger    *slog.Logger
}

func (x *Extractor) Run(ctx context.Context) (*ExtractResult, error) {
	logger := x.logger()

	st, err := x.State.Load(ctx)
	if err != nil {
		return nil, err
	}
	result := &ExtractResult{Watermark: st.LastActivityDT}

	token, err := x.Tokens.AccessToken(ctx, st)
	if err != nil {
		return nil, err
	}

	fetched, err := x.Fetcher.Fetch(ctx, token, st.LastActivityDT)
	if err != nil {
		return nil, err
	}
	result.Fetched = len(fetched)
	logger.Info("Fetched activities", "count", len(fetched), "after", authstate.FormatTimestamp(st.LastActivityDT))
	if len(fetched) == 0 {
		return x.skip(result, MsgNoNewActivities), nil
	}

	existing, err := x.Warehouse.ExistingIDs(ctx)
	if err != nil {
		return nil, pipelineerr.Connectivity("query existing ids", x.Warehouse.Table(), err)
	}
	fresh := activity.Deduplicate(fetched, existing)
	logger.Info("Deduplicated against warehouse", "fetched", len(fetched), "new", len(fresh))
	if len(fresh) == 0 {
		return x.skip(result, MsgNothingAfterDedupe), nil
	}

	latest, _ := watermark.Latest(fresh)
	object := watermark.Filename(latest)
	if err := x.write(ctx, object, fresh); err != nil {
		return nil, err
	}
	result.Written = len(fresh)
	result.Object = fmt.Sprintf("gs://%s/%s", x.Bucket, object)
	logger.Info("Wrote activities", "object", result.Object, "count", len(fresh))

	advancer := &watermark.Advancer{Store: x.State}
	moved, err := advancer.Advance(ctx, st, fresh)
	if err != nil {
		return nil, err
	}
	if moved {
		logger.Info("Advanced watermark", "last_activity_dt", authstate.FormatTimestamp(st.LastActivityDT))
	}
	result.Watermark = st.LastActivityDT
	result.Status = StatusSuccess
	result.Message = MsgExtractSucceeded
	return result, nil
}

func (x *Extractor) write(ctx context.Context, object string, records []activity.Record) error {
	data, err := columnar.Encode(records)
	if err != nil {
		return pipelineerr.Validation("encode activities", object, err)
	}
	if err := x.Blobs.Write(ctx, x.Bucket, object, data); err != nil {
		return pipelineerr.Connectivity("write activities", fmt.Sprintf("gs://%s/%s", x.Bucket, object), err)
	}
	return nil
}

func (x *Extractor) skip(r *ExtractResult, msg string) *ExtractResult {
	x.logger().Info(msg)
	r.Status = StatusSkipped
	r.Message = msg
	return r
}

func (x *Extractor) logger() *slog.Logger {
	if x.Logger == nil {
		return slog.Default()
	}
	return x.Logger
}
