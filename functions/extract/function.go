package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	shared "github.com/0ladayo/strava-data-pipeline/pkg"
	"github.com/0ladayo/strava-data-pipeline/pkg/bootstrap"
	"github.com/0ladayo/strava-data-pipeline/pkg/framework"
	"github.com/0ladayo/strava-data-pipeline/pkg/infrastructure/oauth"
	"github.com/0ladayo/strava-data-pipeline/pkg/infrastructure/secrets"
	"github.com/0ladayo/strava-data-pipeline/pkg/integrations/strava"
	"github.com/0ladayo/strava-data-pipeline/pkg/pipeline"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.CloudEvent("ExtractActivities", ExtractActivities)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	if svc != nil {
		return svc, nil
	}
	svcOnce.Do(func() {
		baseSvc, err := bootstrap.NewService(ctx, shared.ServiceExtract)
		if err != nil {
			slog.Error("Failed to initialize service", "error", err)
			svcErr = err
			return
		}
		svc = baseSvc
	})
	return svc, svcErr
}

// ExtractActivities is the entry point. It runs on every activity change
// published by the webhook.
func ExtractActivities(ctx context.Context, e cloudevents.Event) error {
	svc, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %w", err)
	}
	return framework.WrapCloudEvent(shared.ServiceExtract, svc, extractHandler)(ctx, e)
}

func extractHandler(ctx context.Context, e cloudevents.Event, fwCtx *framework.FrameworkContext) (interface{}, error) {
	var change struct {
		ObjectType string `json:"object_type"`
		AspectType string `json:"aspect_type"`
		ObjectID   int64  `json:"object_id"`
	}
	if err := e.DataAs(&change); err == nil && change.ObjectType != "" {
		fwCtx.Logger.Info("Activity change received", "object_type", change.ObjectType, "aspect_type", change.AspectType, "object_id", change.ObjectID)
	}

	x, err := newExtractor(ctx, fwCtx)
	if err != nil {
		return nil, err
	}
	res, err := x.Run(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"status":    res.Status,
		"message":   res.Message,
		"fetched":   res.Fetched,
		"written":   res.Written,
		"object":    res.Object,
		"watermark": res.Watermark,
	}, nil
}

// newExtractor validates configuration and secrets before any upstream call.
func newExtractor(ctx context.Context, fwCtx *framework.FrameworkContext) (*pipeline.Extractor, error) {
	s := fwCtx.Service
	cfg := s.Config
	if err := cfg.Require(bootstrap.EnvProjectID, bootstrap.EnvSecretID, bootstrap.EnvActivityBucket); err != nil {
		return nil, err
	}

	bundle, err := secrets.LoadBundle(ctx, s.Secrets, cfg.ProjectID, cfg.SecretID)
	if err != nil {
		return nil, err
	}
	creds, err := bundle.RequiredAll(secrets.KeyClientID, secrets.KeyClientSecret, secrets.KeyRefreshToken)
	if err != nil {
		return nil, err
	}

	store, err := s.StateStore()
	if err != nil {
		return nil, err
	}
	wh, err := s.Warehouse(ctx)
	if err != nil {
		return nil, err
	}

	logger := fwCtx.Logger.With("component", "extract")
	return &pipeline.Extractor{
		State: store,
		Tokens: &oauth.Refresher{
			OAuth:        oauth.NewConfig(creds[0], creds[1], cfg.StravaTokenURL),
			RefreshToken: creds[2],
			Store:        store,
		},
		Fetcher: &pipeline.Fetcher{
			Source: strava.NewClient(cfg.StravaAPIBaseURL, nil),
			Logger: logger,
		},
		Warehouse: wh,
		Blobs:     s.Store,
		Bucket:    cfg.ActivityBucket,
		Logger:    logger,
	}, nil
}
