package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	shared "github.com/0ladayo/strava-data-pipeline/pkg"
	"github.com/0ladayo/strava-data-pipeline/pkg/pipelineerr"
)

// Keys held in the pipeline secret.
const (
	KeyClientID          = "client_id"
	KeyClientSecret      = "client_secret"
	KeyRefreshToken      = "refresh_token"
	KeyStravaVerifyToken = "strava_verify_token"
)

// SecretsAdapter reads secrets from Secret Manager. The client is created on
// first use when not supplied.
type SecretsAdapter struct {
	Client *secretmanager.Client

	once    sync.Once
	initErr error
}

// GetSecret returns the latest version of the named secret.
func (a *SecretsAdapter) GetSecret(ctx context.Context, projectID, name string) (string, error) {
	a.once.Do(func() {
		if a.Client == nil {
			a.Client, a.initErr = secretmanager.NewClient(ctx)
		}
	})
	if a.initErr != nil {
		return "", fmt.Errorf("secretmanager init: %w", a.initErr)
	}

	resp, err := a.Client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, name),
	})
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", name, err)
	}
	return string(resp.GetPayload().GetData()), nil
}

// Close releases the client, if one was created.
func (a *SecretsAdapter) Close() error {
	if a.Client == nil {
		return nil
	}
	return a.Client.Close()
}

// Bundle is the decoded JSON object stored in one secret.
type Bundle struct {
	name   string
	values map[string]string
}

// LoadBundle fetches secret name and decodes it as a flat JSON object.
func LoadBundle(ctx context.Context, store shared.SecretStore, projectID, name string) (*Bundle, error) {
	if name == "" {
		return nil, pipelineerr.Configuration("load secrets", "SECRET_MANAGER_ID", errors.New("secret id is not set"))
	}
	raw, err := store.GetSecret(ctx, projectID, name)
	if err != nil {
		return nil, pipelineerr.Connectivity("load secrets", name, err)
	}

	// Numbers stay json.Number so large client ids keep their digits.
	var values map[string]any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&values); err != nil {
		return nil, pipelineerr.Configuration("load secrets", name, fmt.Errorf("payload is not a JSON object: %w", err))
	}

	b := &Bundle{name: name, values: make(map[string]string, len(values))}
	for k, v := range values {
		switch val := v.(type) {
		case string:
			b.values[k] = val
		case json.Number:
			b.values[k] = val.String()
		case bool:
			b.values[k] = strconv.FormatBool(val)
		case nil:
		default:
			return nil, pipelineerr.Configuration("load secrets", name, fmt.Errorf("key %q must be a string or a number", k))
		}
	}
	return b, nil
}

// NewBundle builds a bundle from values, for local runs and tests.
func NewBundle(name string, values map[string]string) *Bundle {
	return &Bundle{name: name, values: values}
}

// Required returns the value of key, or a configuration error when it is
// missing or blank.
func (b *Bundle) Required(key string) (string, error) {
	v := strings.TrimSpace(b.values[key])
	if v == "" {
		return "", pipelineerr.Configuration("load secrets", b.name, fmt.Errorf("required key %q is missing", key))
	}
	return v, nil
}

// RequiredAll returns the values of keys in order, failing on the first
// missing one.
func (b *Bundle) RequiredAll(keys ...string) ([]string, error) {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := b.Required(k)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
