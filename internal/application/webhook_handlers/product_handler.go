package webhook_handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"shopsync/internal/application/mapping"
	"shopsync/internal/domain"
	"shopsync/internal/ports"
)

// ProductHandler handles product-related webhook events. Deletes are soft:
// the local record is deactivated, never removed.
type ProductHandler struct {
	store  ports.Store
	logger zerolog.Logger
}

// NewProductHandler creates a new product webhook handler
func NewProductHandler(store ports.Store, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		store:  store,
		logger: logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *ProductHandler) CanHandle(topic string) bool {
	return topic == "products/create" ||
		topic == "products/update" ||
		topic == "products/delete"
}

// Handle processes a product webhook event
func (h *ProductHandler) Handle(ctx context.Context, inst *domain.Instance, event *domain.WebhookEvent) error {
	if event.Topic == "products/delete" {
		return h.deactivate(ctx, inst, event)
	}

	mapper := mapping.ProductMapper{}
	outcome, err := mapper.Apply(ctx, h.store, inst, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to apply product webhook: %w", err)
	}
	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.ShopDomain).
		Str("productId", outcome.ExternalID).
		Str("outcome", string(outcome.Outcome)).
		Msg("Processed product webhook event")
	return nil
}

func (h *ProductHandler) deactivate(ctx context.Context, inst *domain.Instance, event *domain.WebhookEvent) error {
	var ref struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(event.Payload, &ref); err != nil {
		return fmt.Errorf("failed to parse product webhook payload: %w", err)
	}
	extID := ref.ID.String()

	product, err := h.store.FindProductByExternalID(ctx, inst.ID, extID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			h.logger.Debug().Str("productId", extID).Msg("Delete webhook for unknown product, ignoring")
			return nil
		}
		return err
	}
	product.Active = false
	if err := h.store.SaveProduct(ctx, product); err != nil {
		return fmt.Errorf("failed to deactivate product %s: %w", extID, err)
	}
	h.logger.Info().
		Str("shop", event.ShopDomain).
		Str("productId", extID).
		Msg("Product deactivated by delete webhook")
	return nil
}
