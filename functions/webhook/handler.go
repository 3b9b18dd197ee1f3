package webhook

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	shared "github.com/0ladayo/strava-data-pipeline/pkg"
	"github.com/0ladayo/strava-data-pipeline/pkg/bootstrap"
	infrapubsub "github.com/0ladayo/strava-data-pipeline/pkg/infrastructure/pubsub"
	"github.com/0ladayo/strava-data-pipeline/pkg/infrastructure/secrets"
)

// maxBodyBytes bounds a push event body; Strava sends well under 1KiB.
const maxBodyBytes = 64 << 10

// ChangeEvent is the part of a Strava push event forwarded to the extract
// stage.
type ChangeEvent struct {
	ObjectType string `json:"object_type,omitempty"`
	AspectType string `json:"aspect_type,omitempty"`
	ObjectID   int64  `json:"object_id,omitempty"`
	OwnerID    int64  `json:"owner_id,omitempty"`
	EventTime  int64  `json:"event_time,omitempty"`
}

// Handler serves the subscription handshake and forwards push events.
type Handler struct {
	Secrets   shared.SecretStore
	Publisher shared.Publisher
	Config    *bootstrap.Config
	Logger    *slog.Logger
}

// NewHandler builds a Handler from the service dependencies.
func NewHandler(svc *bootstrap.Service, logger *slog.Logger) *Handler {
	return &Handler{
		Secrets:   svc.Secrets,
		Publisher: svc.Pub,
		Config:    svc.Config,
		Logger:    logger,
	}
}

// Routes mounts the handler on every path, since the function URL is the
// callback registered with Strava.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/*", h.verify)
	r.Post("/*", h.receive)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	})
	return r
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// verify answers the subscription validation request.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Config.Require(bootstrap.EnvProjectID, bootstrap.EnvSecretID); err != nil {
		h.logger().Error("Webhook misconfigured", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	bundle, err := secrets.LoadBundle(ctx, h.Secrets, h.Config.ProjectID, h.Config.SecretID)
	if err != nil {
		h.logger().Error("Failed to load secrets", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	want, err := bundle.Required(secrets.KeyStravaVerifyToken)
	if err != nil {
		h.logger().Error("Verify token not configured", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	got := q.Get("hub.verify_token")
	if q.Get("hub.mode") != "subscribe" || subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		h.logger().Warn("Subscription verification rejected", "mode", q.Get("hub.mode"))
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"hub.challenge": q.Get("hub.challenge")})
}

// receive publishes one change event per push. The body is forwarded on a
// best-effort basis; an unreadable body still triggers an extract run.
func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var change ChangeEvent
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &change); err != nil {
			h.logger().Warn("Push event body is not valid JSON", "error", err)
		}
	}

	h.logger().Info("Webhook received. Publishing message to Pub/Sub...", "object_type", change.ObjectType, "aspect_type", change.AspectType, "object_id", change.ObjectID)

	e, err := infrapubsub.NewCloudEvent(shared.WebhookSource, shared.ActivityEventType, change)
	if err != nil {
		h.logger().Error("Failed to build event", "error", err)
		http.Error(w, "Error publishing message", http.StatusInternalServerError)
		return
	}
	msgID, err := h.Publisher.PublishCloudEvent(ctx, h.Config.TopicID, e)
	if err != nil {
		h.logger().Error("Failed to publish", "topic", h.Config.TopicID, "error", err)
		http.Error(w, "Error publishing message", http.StatusInternalServerError)
		return
	}

	h.logger().Info("Message published", "topic", h.Config.TopicID, "message_id", msgID)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, "OK")
}
