// Package file stores the ledger snapshot as a pretty-printed JSON document
// on local disk.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	interfaces "github.com/sheikh-saqib/customer-debt-ledger/internal/interfaces"
	"github.com/sheikh-saqib/customer-debt-ledger/internal/models"
)

type FileSnapshotStore struct {
	mu   sync.Mutex
	path string
}

// NewFileSnapshotStore creates the parent directory of path if needed. The
// file itself is created on the first Save.
func NewFileSnapshotStore(path string) (*FileSnapshotStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir for %s: %w", path, err)
	}
	return &FileSnapshotStore{path: path}, nil
}

func (s *FileSnapshotStore) Path() string { return s.path }

func (s *FileSnapshotStore) Load(ctx context.Context) (models.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.Snapshot{}, false, nil
	}
	if err != nil {
		return models.Snapshot{}, false, fmt.Errorf("read snapshot %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return models.Snapshot{}, false, nil
	}

	var snap models.Snapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return models.Snapshot{}, false, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	return snap, true, nil
}

// Save writes to a temporary file in the same directory and renames it over
// the target, so a crash mid-write never leaves a truncated document.
func (s *FileSnapshotStore) Save(ctx context.Context, snapshot models.Snapshot) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot %s: %w", s.path, err)
	}
	return nil
}

var _ interfaces.SnapshotStore = (*FileSnapshotStore)(nil)
