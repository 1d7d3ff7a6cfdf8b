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

// CustomerHandler handles customer-related webhook events.
type CustomerHandler struct {
	store  ports.Store
	logger zerolog.Logger
}

// NewCustomerHandler creates a new customer webhook handler
func NewCustomerHandler(store ports.Store, logger zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{
		store:  store,
		logger: logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *CustomerHandler) CanHandle(topic string) bool {
	return topic == "customers/create" ||
		topic == "customers/update" ||
		topic == "customers/delete"
}

// Handle processes a customer webhook event
func (h *CustomerHandler) Handle(ctx context.Context, inst *domain.Instance, event *domain.WebhookEvent) error {
	if event.Topic == "customers/delete" {
		return h.deactivate(ctx, inst, event)
	}

	mapper := mapping.CustomerMapper{}
	outcome, err := mapper.Apply(ctx, h.store, inst, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to apply customer webhook: %w", err)
	}
	h.logger.Info().
		Str("topic", event.Topic).
		Str("shop", event.ShopDomain).
		Str("customerId", outcome.ExternalID).
		Str("outcome", string(outcome.Outcome)).
		Msg("Processed customer webhook event")
	return nil
}

func (h *CustomerHandler) deactivate(ctx context.Context, inst *domain.Instance, event *domain.WebhookEvent) error {
	var ref struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(event.Payload, &ref); err != nil {
		return fmt.Errorf("failed to parse customer webhook payload: %w", err)
	}
	extID := ref.ID.String()

	customer, err := h.store.FindCustomerByExternalID(ctx, inst.ID, extID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			h.logger.Debug().Str("customerId", extID).Msg("Delete webhook for unknown customer, ignoring")
			return nil
		}
		return err
	}
	customer.Active = false
	if err := h.store.SaveCustomer(ctx, customer); err != nil {
		return fmt.Errorf("failed to deactivate customer %s: %w", extID, err)
	}
	h.logger.Info().
		Str("shop", event.ShopDomain).
		Str("customerId", extID).
		Msg("Customer deactivated by delete webhook")
	return nil
}
