// Package warehouse implements the append-only activity table on BigQuery or
// Postgres.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"cloud.google.com/go/bigquery"

	shared "github.com/0ladayo/strava-data-pipeline/pkg"
	"github.com/0ladayo/strava-data-pipeline/pkg/pipelineerr"
)

// Options select and address the destination table. A non-empty DSN selects
// Postgres; otherwise BigQuery is used.
type Options struct {
	DSN       string
	Table     string
	ProjectID string
	DatasetID string
	TableID   string
}

// Open connects to the configured warehouse.
func Open(ctx context.Context, opts Options) (shared.Warehouse, error) {
	if strings.TrimSpace(opts.DSN) != "" {
		table := opts.Table
		if table == "" {
			table = shared.DefaultWarehouseTable
		}
		db, err := sql.Open("postgres", opts.DSN)
		if err != nil {
			return nil, pipelineerr.Configuration("open warehouse", "WAREHOUSE_DSN", err)
		}
		return &PostgresWarehouse{DB: db, TableName: table}, nil
	}

	if opts.ProjectID == "" || opts.DatasetID == "" || opts.TableID == "" {
		return nil, pipelineerr.Configuration("open warehouse", "BIGQUERY_DATASET_ID/BIGQUERY_TABLE_ID",
			errors.New("BigQuery table is not fully qualified"))
	}
	client, err := bigquery.NewClient(ctx, opts.ProjectID)
	if err != nil {
		return nil, pipelineerr.Connectivity("open warehouse", "bigquery", err)
	}
	return &BigQueryWarehouse{
		Client:    client,
		ProjectID: opts.ProjectID,
		DatasetID: opts.DatasetID,
		TableID:   opts.TableID,
	}, nil
}
