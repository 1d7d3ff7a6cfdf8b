package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopsync/internal/application/webhook_handlers"
	"shopsync/internal/domain"
	"shopsync/internal/infrastructure/metrics"
	"shopsync/internal/ports"
)

// ErrUnknownWebhookSignature marks a webhook whose HMAC did not verify.
// The transport layer turns it into an authentication failure; every other
// processing problem is acknowledged so the upstream does not retry forever.
var ErrUnknownWebhookSignature = errors.New("webhook signature verification failed")

// WebhookService resolves inbound webhooks to an instance, verifies them
// and dispatches to the first handler claiming the topic.
type WebhookService struct {
	store     ports.Store
	verifier  ports.WebhookVerifier
	publisher ports.EventPublisher
	metrics   *metrics.Recorder
	handlers  []webhook_handlers.Handler
	logger    zerolog.Logger
}

func NewWebhookService(
	store ports.Store,
	verifier ports.WebhookVerifier,
	publisher ports.EventPublisher,
	recorder *metrics.Recorder,
	handlers []webhook_handlers.Handler,
	logger zerolog.Logger,
) *WebhookService {
	return &WebhookService{
		store:     store,
		verifier:  verifier,
		publisher: publisher,
		metrics:   recorder,
		handlers:  handlers,
		logger:    logger.With().Str("component", "webhooks").Logger(),
	}
}

// Process handles one inbound webhook. Unknown shops and unclaimed topics
// are no-ops; handler failures are logged and absorbed. Only a bad
// signature propagates, so the caller can refuse it.
func (s *WebhookService) Process(ctx context.Context, topic, shopDomain, signature string, body []byte) error {
	inst, err := s.store.FindInstanceByDomain(ctx, shopDomain)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			s.logger.Warn().Str("shop", shopDomain).Str("topic", topic).Msg("Webhook from unknown shop, ignoring")
			s.metrics.ObserveWebhook(topic, "unknown_shop")
			return nil
		}
		return fmt.Errorf("failed to resolve webhook shop: %w", err)
	}

	if !s.verifier.Verify(inst.WebhookSecret, body, signature) {
		s.logger.Warn().Str("shop", shopDomain).Str("topic", topic).Msg("Webhook signature rejected")
		s.metrics.ObserveWebhook(topic, "rejected")
		return ErrUnknownWebhookSignature
	}

	event := &domain.WebhookEvent{
		Topic:      topic,
		ShopDomain: shopDomain,
		Payload:    body,
		ReceivedAt: time.Now().UTC(),
	}

	handled := false
	for _, h := range s.handlers {
		if !h.CanHandle(topic) {
			continue
		}
		handled = true
		if err := h.Handle(ctx, inst, event); err != nil {
			s.logger.Error().Err(err).Str("shop", shopDomain).Str("topic", topic).Msg("Webhook handler failed")
			s.metrics.ObserveWebhook(topic, "failed")
			return nil
		}
		break
	}
	if !handled {
		s.logger.Debug().Str("topic", topic).Msg("No handler for webhook topic, ignoring")
		s.metrics.ObserveWebhook(topic, "unhandled")
		return nil
	}
	s.metrics.ObserveWebhook(topic, "processed")

	syncEvent := domain.SyncEvent{
		ID:         uuid.NewString(),
		InstanceID: inst.ID,
		SyncType:   domain.SyncTypeWebhook,
		Direction:  domain.DirectionImport,
		Status:     domain.SyncStatusSuccess,
		Message:    topic,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, syncEvent); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish webhook event")
	}
	return nil
}
