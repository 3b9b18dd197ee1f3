package bootstrap

import (
	"fmt"
	"os"
	"strings"

	shared "github.com/0ladayo/strava-data-pipeline/pkg"
	"github.com/0ladayo/strava-data-pipeline/pkg/pipelineerr"
	"github.com/0ladayo/strava-data-pipeline/pkg/state"
)

// Environment variable names.
const (
	EnvProjectID      = "GCP_PROJECT_ID"
	EnvSecretID       = "SECRET_MANAGER_ID"
	EnvActivityBucket = "STRAVA_ACTIVITY_BUCKET"
	EnvStateBucket    = "STATE_AUTH_BUCKET"
	EnvStateObject    = "STATE_OBJECT"
	EnvStateDSN       = "STATE_DSN"
	EnvDatasetID      = "BIGQUERY_DATASET_ID"
	EnvTableID        = "BIGQUERY_TABLE_ID"
	EnvWarehouseDSN   = "WAREHOUSE_DSN"
	EnvWarehouseTable = "WAREHOUSE_TABLE"
	EnvTopicID        = "TOPIC_ID"
)

// Config holds standard configuration for all services
type Config struct {
	ProjectID      string
	SecretID       string
	ActivityBucket string
	StateBucket    string
	StateObject    string
	StateDSN       string
	DatasetID      string
	TableID        string
	WarehouseDSN   string
	WarehouseTable string
	TopicID        string
	EnablePublish  bool
	ExecutionLog   string

	SentryDSN   string
	Environment string
	Release     string

	StravaAPIBaseURL string
	StravaTokenURL   string
}

// LoadConfig reads configuration from environment variables
func LoadConfig() *Config {
	projectID := os.Getenv(EnvProjectID)
	if projectID == "" {
		projectID = os.Getenv("GOOGLE_CLOUD_PROJECT")
	}

	c := &Config{
		ProjectID:        projectID,
		SecretID:         os.Getenv(EnvSecretID),
		ActivityBucket:   os.Getenv(EnvActivityBucket),
		StateBucket:      os.Getenv(EnvStateBucket),
		StateObject:      envOr(EnvStateObject, shared.DefaultStateObject),
		StateDSN:         os.Getenv(EnvStateDSN),
		DatasetID:        os.Getenv(EnvDatasetID),
		TableID:          os.Getenv(EnvTableID),
		WarehouseDSN:     os.Getenv(EnvWarehouseDSN),
		WarehouseTable:   envOr(EnvWarehouseTable, shared.DefaultWarehouseTable),
		TopicID:          envOr(EnvTopicID, shared.TopicActivityChanged),
		EnablePublish:    os.Getenv("ENABLE_PUBLISH") == "true",
		ExecutionLog:     strings.ToLower(os.Getenv("EXECUTION_LOG")),
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		Environment:      envOr("ENVIRONMENT", "production"),
		Release:          os.Getenv("RELEASE"),
		StravaAPIBaseURL: envOr("STRAVA_API_BASE_URL", shared.StravaAPIBaseURL),
		StravaTokenURL:   envOr("STRAVA_TOKEN_URL", shared.StravaTokenURL),
	}
	return c
}

func envOr(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

// Require reports every named variable that is unset as one configuration error.
func (c *Config) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if strings.TrimSpace(c.value(n)) == "" {
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return pipelineerr.Configuration("load config", "environment",
		fmt.Errorf("missing required variables: %s", strings.Join(missing, ", ")))
}

func (c *Config) value(name string) string {
	switch name {
	case EnvProjectID:
		return c.ProjectID
	case EnvSecretID:
		return c.SecretID
	case EnvActivityBucket:
		return c.ActivityBucket
	case EnvStateBucket:
		return c.StateBucket
	case EnvStateObject:
		return c.StateObject
	case EnvStateDSN:
		return c.StateDSN
	case EnvDatasetID:
		return c.DatasetID
	case EnvTableID:
		return c.TableID
	case EnvWarehouseDSN:
		return c.WarehouseDSN
	case EnvWarehouseTable:
		return c.WarehouseTable
	case EnvTopicID:
		return c.TopicID
	default:
		return os.Getenv(name)
	}
}

// StateLocation is STATE_DSN, or the state object in STATE_AUTH_BUCKET.
func (c *Config) StateLocation() (string, error) {
	if c.StateDSN != "" {
		return c.StateDSN, nil
	}
	if c.StateBucket == "" {
		return "", pipelineerr.Configuration("load config", "environment",
			fmt.Errorf("one of %s or %s must be set", EnvStateDSN, EnvStateBucket))
	}
	return state.DefaultDSN(c.StateBucket, c.StateObject), nil
}

// UsesFirestore reports whether any configured component needs Firestore.
func (c *Config) UsesFirestore() bool {
	return c.ExecutionLog == "firestore" || strings.HasPrefix(c.StateDSN, "firestore://")
}
