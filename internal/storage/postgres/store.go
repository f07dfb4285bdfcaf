package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	interfaces "github.com/sheikh-saqib/customer-debt-ledger/internal/interfaces" // interface SnapshotStore
	"github.com/sheikh-saqib/customer-debt-ledger/internal/models"
)

// snapshotRowID is the primary key of the single row holding the ledger.
const snapshotRowID = 1

// pgUndefinedTable is the SQLSTATE returned when ledger_snapshots is missing.
const pgUndefinedTable = "42P01"

type PostgresSnapshotStore struct {
	db *sql.DB
}

func NewPostgresSnapshotStore(db *sql.DB) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{
		db: db,
	}
}

func (p *PostgresSnapshotStore) EnsureSchema(ctx context.Context) error {
	const query = `CREATE TABLE IF NOT EXISTS ledger_snapshots (
		id integer PRIMARY KEY,
		document jsonb NOT NULL,
		updated_at timestamptz NOT NULL DEFAULT now()
	)`

	_, err := p.db.ExecContext(ctx, query)
	return err
}

func (p *PostgresSnapshotStore) Load(ctx context.Context) (models.Snapshot, bool, error) {
	const query = `SELECT document FROM ledger_snapshots WHERE id = $1`

	var document []byte
	err := p.db.QueryRowContext(ctx, query, snapshotRowID).Scan(&document)

	if err == sql.ErrNoRows {
		return models.Snapshot{}, false, nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUndefinedTable {
		return models.Snapshot{}, false, nil
	}
	if err != nil {
		return models.Snapshot{}, false, err
	}

	var snap models.Snapshot
	if err := json.Unmarshal(document, &snap); err != nil {
		return models.Snapshot{}, false, fmt.Errorf("decode snapshot document: %w", err)
	}
	return snap, true, nil
}

func (p *PostgresSnapshotStore) Save(ctx context.Context, snapshot models.Snapshot) (err error) {
	document, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot document: %w", err)
	}

	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	const query = `INSERT INTO ledger_snapshots (id, document, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`

	_, err = dbTx.ExecContext(ctx, query, snapshotRowID, document)
	if err != nil {
		return err
	}
	return dbTx.Commit()
}

var _ interfaces.SnapshotStore = (*PostgresSnapshotStore)(nil)
