package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"shopsync/internal/domain"
)

// EventChannel is the Redis channel sync events are published on.
const EventChannel = "shopsync:events"

// RedisPublisher broadcasts sync events over Redis pub/sub so other
// services can react to imports, exports and webhooks.
type RedisPublisher struct {
	client *redis.Client
	logger zerolog.Logger
}

func NewRedisPublisher(client *redis.Client, logger zerolog.Logger) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

// Publish sends the event as JSON. A nil client makes the publisher a no-op
// so deployments without Redis keep working.
func (p *RedisPublisher) Publish(ctx context.Context, event domain.SyncEvent) error {
	if p.client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal sync event: %w", err)
	}
	if err := p.client.Publish(ctx, EventChannel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish sync event: %w", err)
	}
	p.logger.Debug().
		Str("syncType", string(event.SyncType)).
		Str("status", string(event.Status)).
		Uint("instanceId", event.InstanceID).
		Msg("Published sync event")
	return nil
}
