package memory

import (
	"context" // standard Go package for request-scoped context (timeouts, cancellation)
	"sync"    // standard Go package for concurrency primitives like Mutex

	interfaces "github.com/sheikh-saqib/customer-debt-ledger/internal/interfaces"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/models"
)

// MemorySnapshotStore is an in-memory implementation of interfaces.SnapshotStore.
// It keeps a private copy of the last saved snapshot and is safe for concurrent use.
type MemorySnapshotStore struct {
	mu       sync.Mutex      // protects snapshot and saved
	snapshot models.Snapshot // last saved snapshot
	saved    bool            // false until the first Save
}

// NewMemorySnapshotStore creates an empty store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

// NewMemorySnapshotStoreWith creates a store that already holds snapshot.
func NewMemorySnapshotStoreWith(snapshot models.Snapshot) *MemorySnapshotStore {
	return &MemorySnapshotStore{snapshot: snapshot.Clone(), saved: true}
}

// Load returns a copy so callers can't modify the stored state.
func (m *MemorySnapshotStore) Load(ctx context.Context) (models.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.saved {
		return models.Snapshot{}, false, nil
	}
	return m.snapshot.Clone(), true, nil
}

// Save replaces the stored snapshot. It always succeeds in memory.
func (m *MemorySnapshotStore) Save(ctx context.Context, snapshot models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snapshot = snapshot.Clone()
	m.saved = true
	return nil
}

// Compile-time check: ensure MemorySnapshotStore implements SnapshotStore interface
var _ interfaces.SnapshotStore = (*MemorySnapshotStore)(nil)
