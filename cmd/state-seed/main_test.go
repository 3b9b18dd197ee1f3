package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0ladayo/strava-data-pipeline/pkg/domain/authstate"
)

func TestBuildState(t *testing.T) {
	st, err := buildState("2024-01-01T00:00:00", "tok", "1700000000")
	require.NoError(t, err)
	assert.Equal(t, "tok", st.AccessToken)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), st.ExpiresAt)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), st.LastActivityDT)

	data, err := st.Encode()
	require.NoError(t, err)
	back, err := authstate.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, st.LastActivityDT, back.LastActivityDT)
}

func TestBuildState_RFC3339Expiry(t *testing.T) {
	st, err := buildState("2024-01-01T00:00:00Z", "", "2024-06-01T12:00:00+01:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC), st.ExpiresAt)
	assert.True(t, st.Expired(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)))
}

func TestBuildState_Invalid(t *testing.T) {
	_, err := buildState("yesterday", "", "0")
	assert.ErrorContains(t, err, "-watermark")

	_, err = buildState("2024-01-01T00:00:00Z", "", "soon")
	assert.ErrorContains(t, err, "-expires-at")
}

func TestOpenBackend_Memory(t *testing.T) {
	b, cleanup, err := openBackend(context.Background(), "", "memory://")
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, "memory://", b.Location())

	_, _, err = openBackend(context.Background(), "", "firestore://state/auth")
	assert.Error(t, err)
}
