// Package watermark derives the extraction high-water mark from a written
// batch and persists it.
package watermark

import (
	"context"
	"strings"
	"time"

	"github.com/0ladayo/strava-data-pipeline/pkg/domain/activity"
	"github.com/0ladayo/strava-data-pipeline/pkg/domain/authstate"
	"github.com/0ladayo/strava-data-pipeline/pkg/state"
)

const filenameLayout = "2006-01-02_15-04-05"

// Latest returns the maximum end time in batch. ok is false for an empty batch.
func Latest(batch []activity.Record) (t time.Time, ok bool) {
	for _, r := range batch {
		if !ok || r.EndDatetime.After(t) {
			t, ok = r.EndDatetime, true
		}
	}
	return t.UTC(), ok
}

// Filename names the columnar file for a batch whose latest end time is t.
func Filename(t time.Time) string {
	return "activity_" + t.UTC().Format(filenameLayout) + ".parquet"
}

// ParseFilename reverses Filename. ok is false for any other object name.
func ParseFilename(name string) (t time.Time, ok bool) {
	stamp, found := strings.CutPrefix(name, "activity_")
	if !found {
		return time.Time{}, false
	}
	if stamp, found = strings.CutSuffix(stamp, ".parquet"); !found {
		return time.Time{}, false
	}
	t, err := time.Parse(filenameLayout, stamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Advancer moves the persisted watermark forward.
type Advancer struct {
	Store state.Store
}

// Advance sets the watermark to the latest end time of batch, which must
// already be durably written. The watermark never moves backward: an empty
// batch or a mark at or before the current one writes nothing. st is updated
// only after the save succeeds. It reports whether the watermark moved.
func (a *Advancer) Advance(ctx context.Context, st *authstate.State, batch []activity.Record) (bool, error) {
	mark, ok := Latest(batch)
	if !ok {
		return false, nil
	}
	// Stored at second precision.
	mark = mark.Truncate(time.Second)
	if !mark.After(st.LastActivityDT) {
		return false, nil
	}

	next := st.Clone()
	next.LastActivityDT = mark
	if err := a.Store.Save(ctx, next); err != nil {
		return false, err
	}
	*st = *next
	return true, nil
}
