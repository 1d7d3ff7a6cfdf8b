package ports

import (
	"context"

	"shopsync/internal/domain"
)

// EventPublisher fans sync and webhook events out to external consumers.
// Publish failures are logged by callers but never fail the operation that
// raised the event.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.SyncEvent) error
}
