// Package columnar encodes activity batches as Parquet files.
package columnar

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/0ladayo/strava-data-pipeline/pkg/domain/activity"
)

// Encode writes records as a Snappy-compressed Parquet file.
func Encode(records []activity.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := parquet.Write(&buf, records, parquet.Compression(&parquet.Snappy)); err != nil {
		return nil, fmt.Errorf("encode parquet: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads every record of a Parquet file produced by Encode.
func Decode(data []byte) ([]activity.Record, error) {
	records, err := parquet.Read[activity.Record](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("decode parquet: %w", err)
	}
	for i := range records {
		records[i].StartDatetime = records[i].StartDatetime.UTC()
		records[i].EndDatetime = records[i].EndDatetime.UTC()
	}
	return records, nil
}
