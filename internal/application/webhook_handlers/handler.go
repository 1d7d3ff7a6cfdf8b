// Package webhook_handlers routes inbound webhook events by topic and
// applies them to the local mirror through the entity mappers.
package webhook_handlers

import (
	"context"

	"shopsync/internal/domain"
)

// Handler processes webhook events for the topics it claims.
type Handler interface {
	// CanHandle returns true if this handler can process the given topic
	CanHandle(topic string) bool
	// Handle processes one webhook event for the resolved instance
	Handle(ctx context.Context, inst *domain.Instance, event *domain.WebhookEvent) error
}
