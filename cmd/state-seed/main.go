// Command state-seed writes the initial authorization state document that
// the extract function reads on every run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/joho/godotenv"

	"github.com/0ladayo/strava-data-pipeline/pkg/bootstrap"
	"github.com/0ladayo/strava-data-pipeline/pkg/domain/authstate"
	infrastorage "github.com/0ladayo/strava-data-pipeline/pkg/infrastructure/storage"
	"github.com/0ladayo/strava-data-pipeline/pkg/state"
	fsstorage "github.com/0ladayo/strava-data-pipeline/pkg/storage/firestore"
)

func main() {
	_ = godotenv.Load()
	cfg := bootstrap.LoadConfig()
	defaultDSN, _ := cfg.StateLocation()

	dsn := flag.String("dsn", defaultDSN, "State location: gs://bucket/object or firestore://collection/doc")
	watermark := flag.String("watermark", "", "Initial last_activity_dt (RFC 3339); activities after it are extracted")
	accessToken := flag.String("access-token", "", "Current access token; empty forces a refresh on the first run")
	expiresAt := flag.String("expires-at", "0", "Access token expiry as epoch seconds or RFC 3339")
	force := flag.Bool("force", false, "Overwrite an existing document")
	flag.Parse()

	if *dsn == "" || *watermark == "" {
		flag.Usage()
		os.Exit(1)
	}

	st, err := buildState(*watermark, *accessToken, *expiresAt)
	if err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	ctx := context.Background()
	backend, cleanup, err := openBackend(ctx, cfg.ProjectID, *dsn)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *dsn, err)
	}
	defer cleanup()

	exists, err := state.Exists(ctx, backend)
	if err != nil {
		log.Fatalf("Failed to check %s: %v", backend.Location(), err)
	}
	if exists && !*force {
		log.Fatalf("%s already exists; pass -force to overwrite it", backend.Location())
	}

	if err := state.NewDocumentStore(backend).Save(ctx, st); err != nil {
		log.Fatalf("Failed to write state: %v", err)
	}
	fmt.Printf("Wrote %s (last_activity_dt=%s)\n", backend.Location(), authstate.FormatTimestamp(st.LastActivityDT))
}

func buildState(watermark, accessToken, expiresAt string) (*authstate.State, error) {
	dt, err := authstate.ParseTimestamp(watermark)
	if err != nil {
		return nil, fmt.Errorf("-watermark: %w", err)
	}
	exp, err := parseExpiry(expiresAt)
	if err != nil {
		return nil, fmt.Errorf("-expires-at: %w", err)
	}
	return &authstate.State{AccessToken: accessToken, ExpiresAt: exp, LastActivityDT: dt}, nil
}

func parseExpiry(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return authstate.ParseTimestamp(v)
}

// openBackend creates only the client the DSN scheme needs.
func openBackend(ctx context.Context, projectID, dsn string) (state.Backend, func(), error) {
	noop := func() {}
	var clients state.Clients

	switch {
	case strings.HasPrefix(dsn, "gs://"), strings.HasPrefix(dsn, "gcs://"):
		gcs, err := storage.NewClient(ctx)
		if err != nil {
			return nil, noop, err
		}
		clients.Blobs = &infrastorage.StorageAdapter{Client: gcs}
		noop = func() { gcs.Close() }
	case strings.HasPrefix(dsn, "firestore://"):
		if projectID == "" {
			return nil, noop, errors.New(bootstrap.EnvProjectID + " is required for firestore:// locations")
		}
		fs, err := firestore.NewClient(ctx, projectID)
		if err != nil {
			return nil, noop, err
		}
		clients.Firestore = fsstorage.NewClient(fs)
		noop = func() { fs.Close() }
	}

	backend, err := state.BuildBackendFromDSN(dsn, clients)
	if err != nil {
		noop()
		return nil, func() {}, err
	}
	return backend, noop, nil
}
