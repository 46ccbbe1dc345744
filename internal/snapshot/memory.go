package snapshot

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/nordrein/webshop/internal/cart"
)

// MemoryStore keeps snapshots in a process-local map. It backs local
// development runs without Redis and the cart store's tests. Snapshots are
// stored as serialized bytes so a round-trip behaves like the real store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Load(ctx context.Context, sessionID string) (*cart.Snapshot, error) {
	m.mu.RLock()
	raw, ok := m.data[sessionID]
	m.mu.RUnlock()

	if !ok {
		return nil, cart.ErrSnapshotNotFound
	}

	var snap cart.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (m *MemoryStore) Save(ctx context.Context, sessionID string, snap *cart.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.data[sessionID] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.data, sessionID)
	m.mu.Unlock()
	return nil
}

// Len reports how many sessions have a stored snapshot.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
