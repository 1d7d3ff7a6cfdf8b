package domain

import (
	"fmt"
	"strings"
	"time"
)

// SyncType identifies which entity family a sync operation covered.
type SyncType string

const (
	SyncTypeProduct     SyncType = "product"
	SyncTypeCustomer    SyncType = "customer"
	SyncTypeOrder       SyncType = "order"
	SyncTypeCollection  SyncType = "collection"
	SyncTypeInventory   SyncType = "inventory"
	SyncTypeLocation    SyncType = "location"
	SyncTypeGiftCard    SyncType = "gift_card"
	SyncTypeDiscount    SyncType = "discount"
	SyncTypeTransaction SyncType = "transaction"
	SyncTypeWebhook     SyncType = "webhook"
)

// Direction of a sync operation relative to the local database.
type Direction string

const (
	DirectionImport Direction = "import"
	DirectionExport Direction = "export"
)

// SyncStatus is the aggregate outcome of an operation or scheduled run.
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusPartial SyncStatus = "partial"
	SyncStatusFailed  SyncStatus = "failed"
)

// SyncLog is one immutable append record per sync operation. It is never
// updated after creation; a retry creates a new attempt.
type SyncLog struct {
	ID         uint `gorm:"primaryKey"`
	InstanceID uint `gorm:"not null;index"`

	Reference string     `gorm:"size:64;not null"`
	SyncType  SyncType   `gorm:"size:32;not null"`
	Direction Direction  `gorm:"size:16;not null"`
	Status    SyncStatus `gorm:"size:16;not null;default:'success'"`

	CreatedCount int `gorm:"not null;default:0"`
	UpdatedCount int `gorm:"not null;default:0"`
	FailedCount  int `gorm:"not null;default:0"`

	Message      string  `gorm:"type:text"`
	ErrorDetails string  `gorm:"type:text"`
	Duration     float64 `gorm:"not null;default:0"`

	CreatedAt time.Time
}

// SyncStat is one aggregated row of an instance's sync history, grouped by
// entity family and direction.
type SyncStat struct {
	SyncType  SyncType  `json:"sync_type"`
	Direction Direction `json:"direction"`
	Runs      int       `json:"runs"`
	Created   int       `json:"created"`
	Updated   int       `json:"updated"`
	Failed    int       `json:"failed"`
}

// maxSummaryErrors bounds how many error messages a summary exposes to
// callers; the full list still reaches the log's error details.
const maxSummaryErrors = 5

// SyncSummary aggregates record outcomes across all batches of one
// operation.
type SyncSummary struct {
	Fetched int
	Created int
	Updated int
	Failed  int
	Errors  []string
}

// Add folds a batch result into the summary.
func (s *SyncSummary) Add(b BatchResult) {
	s.Created += b.Created
	s.Updated += b.Updated
	s.Failed += b.Failed
	s.Errors = append(s.Errors, b.Errors...)
}

// Merge folds another summary into this one. Fetched counts are not merged;
// callers track them at the fetch site.
func (s *SyncSummary) Merge(other SyncSummary) {
	s.Created += other.Created
	s.Updated += other.Updated
	s.Failed += other.Failed
	s.Errors = append(s.Errors, other.Errors...)
}

// Status derives the aggregate status: failed when nothing succeeded,
// partial when some records failed, success otherwise.
func (s *SyncSummary) Status() SyncStatus {
	switch {
	case s.Failed > 0 && s.Created == 0 && s.Updated == 0:
		return SyncStatusFailed
	case s.Failed > 0 || len(s.Errors) > 0:
		return SyncStatusPartial
	default:
		return SyncStatusSuccess
	}
}

// Message renders the human-readable outcome: counts plus the first few
// error messages. Callers are never left without feedback.
func (s *SyncSummary) Message() string {
	msg := fmt.Sprintf("Fetched: %d, Created: %d, Updated: %d, Failed: %d",
		s.Fetched, s.Created, s.Updated, s.Failed)
	if len(s.Errors) == 0 {
		return msg
	}
	shown := s.Errors
	if len(shown) > maxSummaryErrors {
		shown = shown[:maxSummaryErrors]
	}
	return msg + "\nErrors:\n" + strings.Join(shown, "\n")
}
