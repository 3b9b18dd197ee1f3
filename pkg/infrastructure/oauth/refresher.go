package oauth

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/0ladayo/strava-data-pipeline/pkg/domain/authstate"
	"github.com/0ladayo/strava-data-pipeline/pkg/pipelineerr"
	"github.com/0ladayo/strava-data-pipeline/pkg/state"
)

// NewConfig returns the OAuth client configuration for the Strava token
// endpoint. Strava expects the client credentials in the form body.
func NewConfig(clientID, clientSecret, tokenURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// Refresher hands out a valid access token, exchanging the refresh token
// when the stored one has expired.
// It is safe for concurrent use within one process.
type Refresher struct {
	OAuth        *oauth2.Config
	RefreshToken string
	Store        state.Store

	// HTTPClient is used for the token exchange. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Now defaults to time.Now.
	Now func() time.Time

	mu sync.Mutex
}

// AccessToken returns the access token held in st, refreshing it first if it
// has expired. A refreshed token and its expiry are saved to the store before
// st is updated, so st never holds a token the store does not.
func (r *Refresher) AccessToken(ctx context.Context, st *authstate.State) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !st.Expired(r.now()) {
		return st.AccessToken, nil
	}

	tok, expiresAt, err := r.exchange(ctx)
	if err != nil {
		return "", pipelineerr.Connectivity("refresh access token", r.OAuth.Endpoint.TokenURL, err)
	}

	next := st.Clone()
	next.AccessToken = tok.AccessToken
	next.ExpiresAt = expiresAt
	if err := r.Store.Save(ctx, next); err != nil {
		return "", pipelineerr.Connectivity("persist refreshed token", r.Store.Location(), err)
	}
	*st = *next
	return st.AccessToken, nil
}

func (r *Refresher) exchange(ctx context.Context) (*oauth2.Token, time.Time, error) {
	if r.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, r.HTTPClient)
	}
	src := r.OAuth.TokenSource(ctx, &oauth2.Token{RefreshToken: r.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, time.Time{}, err
	}
	if tok.AccessToken == "" {
		return nil, time.Time{}, errors.New("token response has no access_token")
	}
	// A zero expiry would read as expired and force a refresh on every run.
	exp, ok := expiry(tok)
	if !ok {
		return nil, time.Time{}, errors.New("token response has neither expires_at nor expires_in")
	}
	return tok, exp, nil
}

func (r *Refresher) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// expiry prefers the absolute expires_at Strava returns over the relative
// expires_in that oauth2 turns into tok.Expiry.
func expiry(tok *oauth2.Token) (time.Time, bool) {
	switch v := tok.Extra("expires_at").(type) {
	case float64:
		if v > 0 {
			return time.Unix(int64(v), 0).UTC(), true
		}
	case string:
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil && secs > 0 {
			return time.Unix(secs, 0).UTC(), true
		}
	}
	if tok.Expiry.IsZero() {
		return time.Time{}, false
	}
	return tok.Expiry.UTC(), true
}
