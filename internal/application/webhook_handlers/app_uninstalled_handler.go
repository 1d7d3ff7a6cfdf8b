package webhook_handlers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"shopsync/internal/domain"
	"shopsync/internal/ports"
)

// AppUninstalledHandler deactivates an instance when the app is removed
// from the store. Imported data stays in place for later inspection.
type AppUninstalledHandler struct {
	store  ports.Store
	logger zerolog.Logger
}

// NewAppUninstalledHandler creates a new app uninstall webhook handler
func NewAppUninstalledHandler(store ports.Store, logger zerolog.Logger) *AppUninstalledHandler {
	return &AppUninstalledHandler{
		store:  store,
		logger: logger,
	}
}

// CanHandle returns true if this handler can process the given topic
func (h *AppUninstalledHandler) CanHandle(topic string) bool {
	return topic == "app/uninstalled"
}

// Handle processes an app uninstall webhook event
func (h *AppUninstalledHandler) Handle(ctx context.Context, inst *domain.Instance, event *domain.WebhookEvent) error {
	inst.Active = false
	if err := h.store.SaveInstance(ctx, inst); err != nil {
		return fmt.Errorf("failed to deactivate instance %d: %w", inst.ID, err)
	}
	h.logger.Warn().
		Str("shop", event.ShopDomain).
		Uint("instanceId", inst.ID).
		Msg("App uninstalled, instance deactivated")
	return nil
}
