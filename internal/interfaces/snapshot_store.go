package interfaces

import (
	"context"

	"github.com/sheikh-saqib/customer-debt-ledger/internal/models"
)

// SnapshotStore persists the whole ledger state as one document.
//
//go:generate mockgen -destination=mocks/mock_snapshot_store.go -package=mocks -source=snapshot_store.go SnapshotStore
type SnapshotStore interface {
	// Load returns the stored snapshot, or ok == false when nothing has been
	// saved yet.
	Load(ctx context.Context) (snapshot models.Snapshot, ok bool, err error)
	Save(ctx context.Context, snapshot models.Snapshot) error
}
