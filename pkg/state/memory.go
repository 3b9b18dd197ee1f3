package state

import (
	"bytes"
	"context"
	"sync"
)

// MemoryBackend keeps the document in process. Puts counts successful writes.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte
	puts int

	// PutErr, when set, is returned by Put without storing anything.
	PutErr error
}

// NewMemoryBackend returns a backend seeded with data, or empty when data is nil.
func NewMemoryBackend(data []byte) *MemoryBackend {
	return &MemoryBackend{data: bytes.Clone(data)}
}

func (m *MemoryBackend) Location() string {
	return "memory://"
}

func (m *MemoryBackend) Get(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNotFound
	}
	return bytes.Clone(m.data), nil
}

func (m *MemoryBackend) Put(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PutErr != nil {
		return m.PutErr
	}
	m.data = bytes.Clone(data)
	m.puts++
	return nil
}

// Bytes returns the stored document.
func (m *MemoryBackend) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return bytes.Clone(m.data)
}

// Puts returns the number of successful writes.
func (m *MemoryBackend) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}
