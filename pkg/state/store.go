// Package state persists the authorization document. The document is always
// read and written whole; backends only move bytes.
package state

import (
	"context"
	"errors"

	"github.com/0ladayo/strava-data-pipeline/pkg/domain/authstate"
	"github.com/0ladayo/strava-data-pipeline/pkg/pipelineerr"
)

// ErrNotFound is returned by a Backend when no document exists yet.
var ErrNotFound = errors.New("state document not found")

// Store loads and saves the authorization state.
type Store interface {
	Load(ctx context.Context) (*authstate.State, error)
	Save(ctx context.Context, st *authstate.State) error
	Location() string
}

// Backend reads and writes the raw document bytes.
type Backend interface {
	Get(ctx context.Context) ([]byte, error)
	Put(ctx context.Context, data []byte) error
	Location() string
}

// DocumentStore is a Store that encodes the state onto a Backend.
type DocumentStore struct {
	Backend Backend
}

// NewDocumentStore wraps b.
func NewDocumentStore(b Backend) *DocumentStore {
	return &DocumentStore{Backend: b}
}

func (s *DocumentStore) Location() string {
	return s.Backend.Location()
}

// Load reads and validates the document. A missing or invalid document is a
// configuration error; a failed read is a connectivity error.
func (s *DocumentStore) Load(ctx context.Context) (*authstate.State, error) {
	data, err := s.Backend.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		return nil, pipelineerr.Configuration("load state", s.Location(),
			errors.New("state document does not exist, seed it with state-seed"))
	}
	if err != nil {
		return nil, pipelineerr.Connectivity("load state", s.Location(), err)
	}

	st, err := authstate.Decode(data)
	if err != nil {
		return nil, pipelineerr.Configuration("load state", s.Location(), err)
	}
	return st, nil
}

// Save writes the whole document.
func (s *DocumentStore) Save(ctx context.Context, st *authstate.State) error {
	data, err := st.Encode()
	if err != nil {
		return pipelineerr.Validation("save state", s.Location(), err)
	}
	if err := s.Backend.Put(ctx, data); err != nil {
		return pipelineerr.Connectivity("save state", s.Location(), err)
	}
	return nil
}

// Exists reports whether a document is present on b.
func Exists(ctx context.Context, b Backend) (bool, error) {
	_, err := b.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
