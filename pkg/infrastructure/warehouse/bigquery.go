package warehouse

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"

	"github.com/0ladayo/strava-data-pipeline/pkg/domain/activity"
	"github.com/0ladayo/strava-data-pipeline/pkg/domain/columnar"
)

// BigQueryWarehouse appends activities to a BigQuery table through Parquet
// load jobs.
type BigQueryWarehouse struct {
	Client    *bigquery.Client
	ProjectID string
	DatasetID string
	TableID   string
}

func (w *BigQueryWarehouse) Table() string {
	return fmt.Sprintf("%s.%s.%s", w.ProjectID, w.DatasetID, w.TableID)
}

// ExistingIDs reads the whole id column. A table that does not exist yet
// holds no ids.
func (w *BigQueryWarehouse) ExistingIDs(ctx context.Context) (activity.IDSet, error) {
	q := w.Client.Query(fmt.Sprintf("SELECT id FROM `%s`", w.Table()))
	it, err := q.Read(ctx)
	if isNotFound(err) {
		return activity.IDSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query existing ids: %w", err)
	}

	ids := activity.IDSet{}
	for {
		var row struct {
			ID int64 `bigquery:"id"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read existing ids: %w", err)
		}
		ids[row.ID] = struct{}{}
	}
	return ids, nil
}

// Append loads records with WRITE_APPEND and waits for the job to finish.
func (w *BigQueryWarehouse) Append(ctx context.Context, records []activity.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	data, err := columnar.Encode(records)
	if err != nil {
		return 0, err
	}

	src := bigquery.NewReaderSource(bytes.NewReader(data))
	src.SourceFormat = bigquery.Parquet

	loader := w.Client.Dataset(w.DatasetID).Table(w.TableID).LoaderFrom(src)
	loader.WriteDisposition = bigquery.WriteAppend
	loader.CreateDisposition = bigquery.CreateIfNeeded

	job, err := loader.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("start load job: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("wait for load job %s: %w", job.ID(), err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("load job %s: %w", job.ID(), err)
	}
	return len(records), nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}
