package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/0ladayo/strava-data-pipeline/pkg/domain/activity"
)

const undefinedTable = "42P01"

// PostgresWarehouse appends activities to a Postgres table with COPY.
type PostgresWarehouse struct {
	DB *sql.DB
	// TableName is either "table" or "schema.table".
	TableName string
}

func (w *PostgresWarehouse) Table() string {
	return w.TableName
}

func (w *PostgresWarehouse) quotedTable() string {
	parts := strings.Split(w.TableName, ".")
	for i, p := range parts {
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

func (w *PostgresWarehouse) copyIn() string {
	if schema, table, ok := strings.Cut(w.TableName, "."); ok {
		return pq.CopyInSchema(schema, table, activity.Columns...)
	}
	return pq.CopyIn(w.TableName, activity.Columns...)
}

// ExistingIDs reads the whole id column. A missing table holds no ids.
func (w *PostgresWarehouse) ExistingIDs(ctx context.Context) (activity.IDSet, error) {
	rows, err := w.DB.QueryContext(ctx, "SELECT id FROM "+w.quotedTable())
	if isUndefinedTable(err) {
		return activity.IDSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query existing ids: %w", err)
	}
	defer rows.Close()

	ids := activity.IDSet{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read existing ids: %w", err)
	}
	return ids, nil
}

// Append copies records in one transaction; either all rows land or none.
func (w *PostgresWarehouse) Append(ctx context.Context, records []activity.Record) (n int, err error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := w.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, w.copyIn())
	if err != nil {
		return 0, fmt.Errorf("prepare copy: %w", err)
	}
	for i := range records {
		if _, err = stmt.ExecContext(ctx, records[i].Values()...); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("copy activity %d: %w", records[i].ID, err)
		}
	}
	if _, err = stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return 0, fmt.Errorf("flush copy: %w", err)
	}
	if err = stmt.Close(); err != nil {
		return 0, fmt.Errorf("close copy: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == undefinedTable
}
