package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	shared "github.com/0ladayo/strava-data-pipeline/pkg"
	"github.com/0ladayo/strava-data-pipeline/pkg/domain/activity"
	"github.com/0ladayo/strava-data-pipeline/pkg/domain/columnar"
	"github.com/0ladayo/strava-data-pipeline/pkg/pipelineerr"
)

var counts = message.NewPrinter(language.English)

// LoadResult reports what one load run did.
type LoadResult struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Object   string `json:"object"`
	Read     int    `json:"read"`
	Appended int    `json:"appended"`
}

// Loader runs the load stage: read one Parquet object, drop activities the
// warehouse already holds and append the rest. It never touches the
// authorization state.
type Loader struct {
	Blobs     shared.BlobStore
	Warehouse shared.Warehouse
	Logger    *slog.Logger
}

func (l *Loader) Run(ctx context.Context, bucket, name string) (*LoadResult, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	object := fmt.Sprintf("gs://%s/%s", bucket, name)
	result := &LoadResult{Object: object}

	data, err := l.Blobs.Read(ctx, bucket, name)
	if err != nil {
		return nil, pipelineerr.Connectivity("read activities", object, err)
	}
	records, err := columnar.Decode(data)
	if err != nil {
		return nil, pipelineerr.Validation("decode activities", object, err)
	}
	result.Read = len(records)

	existing, err := l.Warehouse.ExistingIDs(ctx)
	if err != nil {
		return nil, pipelineerr.Connectivity("query existing ids", l.Warehouse.Table(), err)
	}
	fresh := activity.Deduplicate(records, existing)
	logger.Info("Deduplicated against warehouse", "object", object, "read", len(records), "new", len(fresh))

	if len(fresh) == 0 {
		logger.Info(MsgNothingToAppend)
		result.Status = StatusSkipped
		result.Message = MsgNothingToAppend
		return result, nil
	}

	n, err := l.Warehouse.Append(ctx, fresh)
	if err != nil {
		return nil, pipelineerr.Connectivity("append activities", l.Warehouse.Table(), err)
	}
	result.Appended = n
	result.Status = StatusSuccess
	result.Message = counts.Sprintf(msgAppendedRowsPattern, n, l.Warehouse.Table())
	logger.Info(result.Message)
	return result, nil
}
