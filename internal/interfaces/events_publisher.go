package interfaces

import (
	"context"

	"github.com/sheikh-saqib/customer-debt-ledger/internal/models/events"
)

//go:generate mockgen -destination=mocks/mock_events_publisher.go -package=mocks -source=events_publisher.go EventPublisher
type EventPublisher interface {
	Publish(ctx context.Context, event events.LedgerChanged) error
}
