package webhook

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	shared "github.com/0ladayo/strava-data-pipeline/pkg"
	"github.com/0ladayo/strava-data-pipeline/pkg/bootstrap"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
	router  http.Handler
)

func init() {
	functions.HTTP("StravaWebhook", StravaWebhook)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	if svc != nil {
		return svc, nil
	}
	svcOnce.Do(func() {
		baseSvc, err := bootstrap.NewService(ctx, shared.ServiceWebhook)
		if err != nil {
			slog.Error("Failed to initialize service", "error", err)
			svcErr = err
			return
		}
		svc = baseSvc
		router = NewHandler(svc, bootstrap.NewLogger(shared.ServiceWebhook)).Routes()
	})
	return svc, svcErr
}

// StravaWebhook is the HTTP entry point for Strava push subscriptions.
func StravaWebhook(w http.ResponseWriter, r *http.Request) {
	if _, err := initService(r.Context()); err != nil {
		slog.Error("Service init failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	router.ServeHTTP(w, r)
}
