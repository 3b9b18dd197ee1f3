package activity

import (
	"fmt"
	"time"

	"github.com/0ladayo/strava-data-pipeline/pkg/pipelineerr"
)

// Normalize extracts the fixed field set from one upstream activity.
func Normalize(rec Attributes) (Record, error) {
	x := &extractor{rec: rec}

	r := Record{
		ID:             x.integer("id", "", true),
		Distance:       deref(x.number("distance", "", true)),
		Time:           x.integer("elapsed_time", "", true),
		ElevationHigh:  x.number("elev_high", "", false),
		ElevationLow:   x.number("elev_low", "", false),
		ElevationGain:  deref(x.number("total_elevation_gain", "", true)),
		AverageSpeed:   deref(x.number("average_speed", "", true)),
		MaximumSpeed:   deref(x.number("max_speed", "", true)),
		StartLatitude:  x.number("start_latlng", "lat", false),
		StartLongitude: x.number("start_latlng", "lon", false),
		EndLatitude:    x.number("end_latlng", "lat", false),
		EndLongitude:   x.number("end_latlng", "lon", false),
		AverageCadence: x.number("average_cadence", "", false),
		StartDatetime:  x.timestamp("start_date", true),
	}
	if x.err != nil {
		return Record{}, x.err
	}

	// Both operands are required, so the end is always derivable here.
	r.EndDatetime = r.StartDatetime.Add(time.Duration(r.Time) * time.Second)
	return r, nil
}

// NormalizeBatch normalizes every activity in upstream order. The first
// failure aborts the batch and no records are returned.
func NormalizeBatch(recs []Attributes) ([]Record, error) {
	out := make([]Record, 0, len(recs))
	for _, rec := range recs {
		r, err := Normalize(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// extractor keeps the first lookup or conversion error so Normalize can read
// every field in one expression and check once.
type extractor struct {
	rec Attributes
	err error
}

func (x *extractor) lookup(field, nested string, required bool) (any, bool) {
	if x.err != nil {
		return nil, false
	}
	v, ok, err := Get(x.rec, field, nested, required)
	if err != nil {
		x.err = err
		return nil, false
	}
	return v, ok
}

func (x *extractor) convertErr(field string, err error) {
	x.err = pipelineerr.Validation(
		"normalize activity",
		"activity "+x.rec.Identity(),
		fmt.Errorf("field %q: %w", field, err),
	)
}

func (x *extractor) number(field, nested string, required bool) *float64 {
	v, ok := x.lookup(field, nested, required)
	if !ok {
		return nil
	}
	f, err := toFloat(v)
	if err != nil {
		x.convertErr(field, err)
		return nil
	}
	return &f
}

func (x *extractor) integer(field, nested string, required bool) int64 {
	v, ok := x.lookup(field, nested, required)
	if !ok {
		return 0
	}
	i, err := toInt(v)
	if err != nil {
		x.convertErr(field, err)
		return 0
	}
	return i
}

func (x *extractor) timestamp(field string, required bool) time.Time {
	v, ok := x.lookup(field, "", required)
	if !ok {
		return time.Time{}
	}
	t, err := toTime(v)
	if err != nil {
		x.convertErr(field, err)
		return time.Time{}
	}
	return t
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
