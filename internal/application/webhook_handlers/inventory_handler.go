package webhook_handlers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"shopsync/internal/application/mapping"
	"shopsync/internal/domain"
	"shopsync/internal/ports"
)

// InventoryHandler handles inventory level webhook events. Levels for
// locations the catalog does not know yet are skipped; the next location
// sync picks them up.
type InventoryHandler struct {
	store  ports.Store
	logger zerolog.Logger
}

// NewInventoryHandler creates a new inventory webhook handler
func NewInventoryHandler(store ports.Store, logger zerolog.Logger) *InventoryHandler {
	return &InventoryHandler{
		store:  store,
		logger: logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *InventoryHandler) CanHandle(topic string) bool {
	return topic == "inventory_levels/update"
}

// Handle processes an inventory level webhook event
func (h *InventoryHandler) Handle(ctx context.Context, inst *domain.Instance, event *domain.WebhookEvent) error {
	outcome, err := mapping.ApplyInventoryLevel(ctx, h.store, inst, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to apply inventory webhook: %w", err)
	}
	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.ShopDomain).
		Str("inventoryItemId", outcome.ExternalID).
		Str("outcome", string(outcome.Outcome)).
		Msg("Processed inventory webhook event")
	return nil
}
