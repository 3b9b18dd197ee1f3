package load

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0ladayo/strava-data-pipeline/pkg/bootstrap"
	"github.com/0ladayo/strava-data-pipeline/pkg/domain/activity"
	"github.com/0ladayo/strava-data-pipeline/pkg/domain/columnar"
	"github.com/0ladayo/strava-data-pipeline/pkg/framework"
	"github.com/0ladayo/strava-data-pipeline/pkg/pipelineerr"
	"github.com/0ladayo/strava-data-pipeline/pkg/testing/mocks"
	"github.com/0ladayo/strava-data-pipeline/pkg/types"
)

type fixture struct {
	svc      *bootstrap.Service
	blobs    *mocks.MemoryBlobStore
	appended []activity.Record
	statuses []types.ExecutionStatus
	appends  int
}

func newFixture(existing ...int64) *fixture {
	f := &fixture{blobs: mocks.NewMemoryBlobStore()}
	f.svc = &bootstrap.Service{
		DB: &mocks.MockDatabase{
			UpdateExecutionFunc: func(ctx context.Context, id string, data map[string]interface{}) error {
				if s, ok := data["status"].(int32); ok {
					f.statuses = append(f.statuses, types.ExecutionStatus(s))
				}
				return nil
			},
		},
		Store:  f.blobs,
		Config: &bootstrap.Config{},
	}
	f.svc.SetWarehouse(&mocks.MockWarehouse{
		ExistingIDsFunc: func(ctx context.Context) (activity.IDSet, error) {
			return activity.NewIDSet(existing...), nil
		},
		AppendFunc: func(ctx context.Context, records []activity.Record) (int, error) {
			f.appends++
			f.appended = append(f.appended, records...)
			return len(records), nil
		},
	})
	return f
}

func (f *fixture) put(t *testing.T, name string, ids ...int64) {
	t.Helper()
	start := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	records := make([]activity.Record, 0, len(ids))
	for _, id := range ids {
		records = append(records, activity.Record{ID: id, Time: 60, StartDatetime: start, EndDatetime: start.Add(time.Minute)})
	}
	data, err := columnar.Encode(records)
	require.NoError(t, err)
	require.NoError(t, f.blobs.Write(context.Background(), "activities", name, data))
}

func (f *fixture) run(t *testing.T, name string) error {
	t.Helper()
	e := event.New()
	e.SetID("evt-1")
	e.SetType("google.cloud.storage.object.v1.finalized")
	e.SetSource("//storage.googleapis.com/projects/_/buckets/activities")
	require.NoError(t, e.SetData(event.ApplicationJSON, types.StorageObjectData{Bucket: "activities", Name: name}))
	return framework.WrapCloudEvent("load-activities", f.svc, loadHandler)(context.Background(), e)
}

func TestLoadActivities_AppendsNewRows(t *testing.T) {
	f := newFixture(2)
	f.put(t, "activity_2024-01-02_08-01-00.parquet", 1, 2, 3)

	require.NoError(t, f.run(t, "activity_2024-01-02_08-01-00.parquet"))

	require.Len(t, f.appended, 2)
	assert.Equal(t, int64(1), f.appended[0].ID)
	assert.Equal(t, int64(3), f.appended[1].ID)
	assert.Equal(t, []types.ExecutionStatus{types.ExecutionStatusStarted, types.ExecutionStatusSuccess}, f.statuses)
}

func TestLoadActivities_AllDuplicates(t *testing.T) {
	f := newFixture(1, 2)
	f.put(t, "activity_2024-01-02_08-01-00.parquet", 1, 2)

	require.NoError(t, f.run(t, "activity_2024-01-02_08-01-00.parquet"))

	assert.Zero(t, f.appends)
	assert.Equal(t, []types.ExecutionStatus{types.ExecutionStatusStarted, types.ExecutionStatusSkipped}, f.statuses)
}

func TestLoadActivities_IgnoresOtherObjects(t *testing.T) {
	for _, name := range []string{"state.json", "activity_latest.parquet", "exports/report.csv"} {
		t.Run(name, func(t *testing.T) {
			f := newFixture()
			require.NoError(t, f.run(t, name))
			assert.Zero(t, f.appends)
			assert.Equal(t, []types.ExecutionStatus{types.ExecutionStatusStarted, types.ExecutionStatusSkipped}, f.statuses)
		})
	}
}

func TestLoadActivities_MissingObject(t *testing.T) {
	f := newFixture()

	err := f.run(t, "activity_2024-01-02_08-01-00.parquet")
	require.Error(t, err)
	assert.True(t, pipelineerr.IsKind(err, pipelineerr.KindConnectivity))
	assert.Equal(t, []types.ExecutionStatus{types.ExecutionStatusStarted, types.ExecutionStatusFailed}, f.statuses)
}

func TestLoadActivities_WarehouseFailure(t *testing.T) {
	f := newFixture()
	f.put(t, "activity_2024-01-02_08-01-00.parquet", 1)
	f.svc.SetWarehouse(&mocks.MockWarehouse{
		AppendFunc: func(ctx context.Context, records []activity.Record) (int, error) {
			return 0, errors.New("quota exceeded")
		},
	})

	err := f.run(t, "activity_2024-01-02_08-01-00.parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}
