package store

import (
	"context"
	"sync"

	"github.com/novacarriers/claimdesk/internal/model"
)

// MemoryBackend keeps the encoded snapshot in process memory. Every Load
// decodes a fresh copy, so callers never share state with the backend.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Load(_ context.Context) (*model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := decodeSnapshot(m.data)
	if err != nil {
		return model.NewSnapshot(), nil
	}
	return snap, nil
}

func (m *MemoryBackend) Save(_ context.Context, snap *model.Snapshot) error {
	b, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = b
	m.mu.Unlock()
	return nil
}
