// Package activity turns upstream activity objects into flat records and
// filters them against identifiers that are already persisted.
package activity

import "time"

// Record is one normalized activity. Pointer fields are optional and stay nil
// when the upstream object does not carry them.
type Record struct {
	ID             int64     `parquet:"id" json:"id"`
	Distance       float64   `parquet:"distance" json:"distance"`
	Time           int64     `parquet:"time" json:"time"`
	ElevationHigh  *float64  `parquet:"elevation_high" json:"elevation_high"`
	ElevationLow   *float64  `parquet:"elevation_low" json:"elevation_low"`
	ElevationGain  float64   `parquet:"elevation_gain" json:"elevation_gain"`
	AverageSpeed   float64   `parquet:"average_speed" json:"average_speed"`
	MaximumSpeed   float64   `parquet:"maximum_speed" json:"maximum_speed"`
	StartLatitude  *float64  `parquet:"start_latitude" json:"start_latitude"`
	StartLongitude *float64  `parquet:"start_longitude" json:"start_longitude"`
	EndLatitude    *float64  `parquet:"end_latitude" json:"end_latitude"`
	EndLongitude   *float64  `parquet:"end_longitude" json:"end_longitude"`
	AverageCadence *float64  `parquet:"average_cadence" json:"average_cadence"`
	StartDatetime  time.Time `parquet:"start_datetime,timestamp(microsecond)" json:"start_datetime"`
	EndDatetime    time.Time `parquet:"end_datetime,timestamp(microsecond)" json:"end_datetime"`
}

// Columns lists the destination column names in record field order.
var Columns = []string{
	"id", "distance", "time",
	"elevation_high", "elevation_low", "elevation_gain",
	"average_speed", "maximum_speed",
	"start_latitude", "start_longitude", "end_latitude", "end_longitude",
	"average_cadence", "start_datetime", "end_datetime",
}

// Values returns the record's column values in Columns order, with nil for
// absent optional fields.
func (r *Record) Values() []any {
	return []any{
		r.ID, r.Distance, r.Time,
		nullable(r.ElevationHigh), nullable(r.ElevationLow), r.ElevationGain,
		r.AverageSpeed, r.MaximumSpeed,
		nullable(r.StartLatitude), nullable(r.StartLongitude),
		nullable(r.EndLatitude), nullable(r.EndLongitude),
		nullable(r.AverageCadence), r.StartDatetime.UTC(), r.EndDatetime.UTC(),
	}
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// IDSet is the set of activity identifiers already present in a destination.
type IDSet map[int64]struct{}

// NewIDSet builds a set from a list of identifiers.
func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}
