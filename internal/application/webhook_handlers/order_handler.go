package webhook_handlers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"shopsync/internal/application/mapping"
	"shopsync/internal/domain"
	"shopsync/internal/ports"
)

// OrderHandler handles order-related webhook events. The mapper enforces the
// usual protections: confirmed orders are untouched, lines never recreated.
type OrderHandler struct {
	store  ports.Store
	logger zerolog.Logger
}

// NewOrderHandler creates a new order webhook handler
func NewOrderHandler(store ports.Store, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		store:  store,
		logger: logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *OrderHandler) CanHandle(topic string) bool {
	return topic == "orders/create" ||
		topic == "orders/updated" ||
		topic == "orders/paid" ||
		topic == "orders/fulfilled" ||
		topic == "orders/cancelled"
}

// Handle processes an order webhook event
func (h *OrderHandler) Handle(ctx context.Context, inst *domain.Instance, event *domain.WebhookEvent) error {
	mapper := mapping.OrderMapper{}
	outcome, err := mapper.Apply(ctx, h.store, inst, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to apply order webhook: %w", err)
	}
	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.ShopDomain).
		Str("orderId", outcome.ExternalID).
		Str("outcome", string(outcome.Outcome)).
		Msg("Processed order webhook event")
	return nil
}
