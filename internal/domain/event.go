package domain

import "time"

// SyncEvent is published after every sync operation and every processed
// webhook so external consumers can react to data changes.
type SyncEvent struct {
	ID         string     `json:"id"`
	InstanceID uint       `json:"instance_id"`
	SyncType   SyncType   `json:"sync_type"`
	Direction  Direction  `json:"direction"`
	Status     SyncStatus `json:"status"`
	Message    string     `json:"message,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// WebhookEvent is a parsed inbound webhook before dispatch.
type WebhookEvent struct {
	Topic      string
	ShopDomain string
	Payload    []byte
	ReceivedAt time.Time
}
