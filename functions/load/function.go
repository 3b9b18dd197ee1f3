package load

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	shared "github.com/0ladayo/strava-data-pipeline/pkg"
	"github.com/0ladayo/strava-data-pipeline/pkg/bootstrap"
	"github.com/0ladayo/strava-data-pipeline/pkg/domain/authstate"
	"github.com/0ladayo/strava-data-pipeline/pkg/domain/watermark"
	"github.com/0ladayo/strava-data-pipeline/pkg/framework"
	"github.com/0ladayo/strava-data-pipeline/pkg/pipeline"
	"github.com/0ladayo/strava-data-pipeline/pkg/pipelineerr"
	"github.com/0ladayo/strava-data-pipeline/pkg/types"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.CloudEvent("LoadActivities", LoadActivities)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	if svc != nil {
		return svc, nil
	}
	svcOnce.Do(func() {
		baseSvc, err := bootstrap.NewService(ctx, shared.ServiceLoad)
		if err != nil {
			slog.Error("Failed to initialize service", "error", err)
			svcErr = err
			return
		}
		svc = baseSvc
	})
	return svc, svcErr
}

// LoadActivities is the entry point, triggered when an object is finalized
// in the activity bucket.
func LoadActivities(ctx context.Context, e cloudevents.Event) error {
	svc, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %w", err)
	}
	return framework.WrapCloudEvent(shared.ServiceLoad, svc, loadHandler)(ctx, e)
}

func loadHandler(ctx context.Context, e cloudevents.Event, fwCtx *framework.FrameworkContext) (interface{}, error) {
	var obj types.StorageObjectData
	if err := e.DataAs(&obj); err != nil {
		return nil, pipelineerr.Validation("decode storage event", e.ID(), err)
	}
	if obj.Bucket == "" || obj.Name == "" {
		return nil, pipelineerr.Validation("decode storage event", e.ID(), fmt.Errorf("bucket and object name are required"))
	}

	// Only extract output is loaded; anything else in the bucket is ignored.
	mark, ok := watermark.ParseFilename(path.Base(obj.Name))
	if !ok {
		fwCtx.Logger.Info("Ignoring object", "bucket", obj.Bucket, "name", obj.Name)
		return map[string]interface{}{
			"status":  pipeline.StatusSkipped,
			"message": fmt.Sprintf("Ignored gs://%s/%s", obj.Bucket, obj.Name),
		}, nil
	}

	wh, err := fwCtx.Service.Warehouse(ctx)
	if err != nil {
		return nil, err
	}
	l := &pipeline.Loader{
		Blobs:     fwCtx.Service.Store,
		Warehouse: wh,
		Logger:    fwCtx.Logger.With("component", "load"),
	}
	res, err := l.Run(ctx, obj.Bucket, obj.Name)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"status":    res.Status,
		"message":   res.Message,
		"object":    res.Object,
		"read":      res.Read,
		"appended":  res.Appended,
		"watermark": authstate.FormatTimestamp(mark),
	}, nil
}
