package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"

	shared "github.com/0ladayo/strava-data-pipeline/pkg"
	"github.com/0ladayo/strava-data-pipeline/pkg/infrastructure/database"
	infrapubsub "github.com/0ladayo/strava-data-pipeline/pkg/infrastructure/pubsub"
	"github.com/0ladayo/strava-data-pipeline/pkg/infrastructure/secrets"
	infrasentry "github.com/0ladayo/strava-data-pipeline/pkg/infrastructure/sentry"
	infrastorage "github.com/0ladayo/strava-data-pipeline/pkg/infrastructure/storage"
	"github.com/0ladayo/strava-data-pipeline/pkg/infrastructure/warehouse"
	"github.com/0ladayo/strava-data-pipeline/pkg/state"
	fsstorage "github.com/0ladayo/strava-data-pipeline/pkg/storage/firestore"
)

// Service holds initialized dependencies
type Service struct {
	DB        shared.Database
	Store     shared.BlobStore
	Pub       shared.Publisher
	Secrets   shared.SecretStore
	Firestore *fsstorage.Client
	Config    *Config

	stateStore state.Store

	warehouseOnce sync.Once
	warehouse     shared.Warehouse
	warehouseErr  error
}

// NewService initializes all standard dependencies for serviceName.
func NewService(ctx context.Context, serviceName string) (*Service, error) {
	InitLogger()
	cfg := LoadConfig()
	logger := slog.Default().With("service", serviceName)

	logger.Info("Initializing service", "project_id", cfg.ProjectID)

	if err := infrasentry.Init(infrasentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		ServerName:  serviceName,
	}, logger); err != nil {
		return nil, err
	}

	svc := &Service{
		Secrets: &secrets.SecretsAdapter{},
		Config:  cfg,
	}

	// Firestore
	if cfg.UsesFirestore() {
		fsClient, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			logger.Error("Firestore init failed", "error", err)
			return nil, fmt.Errorf("firestore init: %w", err)
		}
		svc.Firestore = fsstorage.NewClient(fsClient)
		if cfg.ExecutionLog == "firestore" {
			svc.DB = database.NewFirestoreAdapter(fsClient)
		}
	}
	if svc.DB == nil {
		svc.DB = &database.LogDatabase{Logger: logger}
	}

	// Pub/Sub
	if cfg.EnablePublish {
		psClient, err := pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			logger.Error("PubSub init failed", "error", err)
			return nil, fmt.Errorf("pubsub init: %w", err)
		}
		svc.Pub = &infrapubsub.PubSubAdapter{Client: psClient}
		logger.Info("Pub/Sub: REAL (ENABLE_PUBLISH=true)")
	} else {
		svc.Pub = &infrapubsub.LogPublisher{Logger: logger}
		logger.Info("Pub/Sub: MOCK (LogPublisher)")
	}

	// Storage
	gcsClient, err := storage.NewClient(ctx)
	if err != nil {
		logger.Error("Storage init failed", "error", err)
		return nil, fmt.Errorf("storage init: %w", err)
	}
	svc.Store = &infrastorage.StorageAdapter{Client: gcsClient}

	return svc, nil
}

// StateStore opens the configured authorization state store.
func (s *Service) StateStore() (state.Store, error) {
	if s.stateStore != nil {
		return s.stateStore, nil
	}
	dsn, err := s.Config.StateLocation()
	if err != nil {
		return nil, err
	}
	backend, err := state.BuildBackendFromDSN(dsn, state.Clients{Blobs: s.Store, Firestore: s.Firestore})
	if err != nil {
		return nil, err
	}
	return state.NewDocumentStore(backend), nil
}

// Warehouse opens the configured destination table once per instance.
func (s *Service) Warehouse(ctx context.Context) (shared.Warehouse, error) {
	s.warehouseOnce.Do(func() {
		if s.warehouse != nil {
			return
		}
		s.warehouse, s.warehouseErr = warehouse.Open(ctx, warehouse.Options{
			DSN:       s.Config.WarehouseDSN,
			Table:     s.Config.WarehouseTable,
			ProjectID: s.Config.ProjectID,
			DatasetID: s.Config.DatasetID,
			TableID:   s.Config.TableID,
		})
	})
	return s.warehouse, s.warehouseErr
}

// SetStateStore installs st in place of the configured state store.
func (s *Service) SetStateStore(st state.Store) {
	s.stateStore = st
}

// SetWarehouse installs w in place of the configured warehouse.
func (s *Service) SetWarehouse(w shared.Warehouse) {
	s.warehouse = w
}
