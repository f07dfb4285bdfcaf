package events

import (
	"time"
)

// ChangeKind names the committed mutation a LedgerChanged event reports.
type ChangeKind string

const (
	CustomerAdded        ChangeKind = "customer_added"
	CustomerDeleted      ChangeKind = "customer_deleted"
	DebtRecorded         ChangeKind = "debt_recorded"
	PaymentRecorded      ChangeKind = "payment_recorded"
	BoxesAdded           ChangeKind = "boxes_added"
	BoxesPaid            ChangeKind = "boxes_paid"
	TransactionDeleted   ChangeKind = "transaction_deleted"
	ExchangeRatesUpdated ChangeKind = "exchange_rates_updated"
	SnapshotRestored     ChangeKind = "snapshot_restored"
	LedgerReset          ChangeKind = "ledger_reset"
)

type LedgerChanged struct {
	Kind          ChangeKind `json:"kind"`
	CustomerID    string     `json:"customer_id,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	OccurredAt    time.Time  `json:"occurred_at"`
}
