package activity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/0ladayo/strava-data-pipeline/pkg/domain/authstate"
	"github.com/0ladayo/strava-data-pipeline/pkg/pipelineerr"
)

// Attributes is an upstream activity object decoded from JSON. Numbers are
// kept as json.Number so large identifiers do not lose precision.
type Attributes map[string]any

// Identity returns a printable identifier for error messages.
func (a Attributes) Identity() string {
	if v, ok := a["id"]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return "<unknown>"
}

// Get resolves field on rec and, when nested is non-empty, nested on the
// resolved value. Nested lookups work on objects and on [lat, lng] pairs
// (nested "lat" or "lon"); an empty pair counts as absent.
//
// A missing required value is a validation error naming the record and the
// field. A missing optional value returns ok == false and a nil error.
func Get(rec Attributes, field, nested string, required bool) (v any, ok bool, err error) {
	outer, present := rec[field]
	if !present || outer == nil {
		return missing(rec, field, required)
	}
	if nested == "" {
		return outer, true, nil
	}

	inner, present := lookupNested(outer, nested)
	if !present || inner == nil {
		return missing(rec, field+"."+nested, required)
	}
	return inner, true, nil
}

func missing(rec Attributes, path string, required bool) (any, bool, error) {
	if !required {
		return nil, false, nil
	}
	return nil, false, pipelineerr.Validation(
		"normalize activity",
		"activity "+rec.Identity(),
		fmt.Errorf("required field %q is missing or null", path),
	)
}

func lookupNested(outer any, nested string) (any, bool) {
	switch o := outer.(type) {
	case map[string]any:
		v, ok := o[nested]
		return v, ok
	case Attributes:
		v, ok := o[nested]
		return v, ok
	case []any:
		idx := -1
		switch nested {
		case "lat", "latitude":
			idx = 0
		case "lon", "lng", "longitude":
			idx = 1
		}
		if idx < 0 || len(o) != 2 {
			return nil, false
		}
		return o[idx], true
	default:
		return nil, false
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case json.Number:
		return n.Float64()
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, err
		}
		return int64(f), nil
	case float64:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func toTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case string:
		return authstate.ParseTimestamp(t)
	case time.Time:
		return t.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("expected a timestamp, got %T", v)
	}
}
