package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentTransaction is an append-mostly mirror of an upstream payment
// transaction, linked to the local Order and Customer where resolvable.
type PaymentTransaction struct {
	ID         uint   `gorm:"primaryKey"`
	InstanceID uint   `gorm:"not null;uniqueIndex:idx_transaction_instance_external,priority:1"`
	ExternalID string `gorm:"size:32;not null;uniqueIndex:idx_transaction_instance_external,priority:2"`

	Reference       string `gorm:"size:64;not null"`
	OrderExternalID string `gorm:"size:32;index"`
	OrderID         *uint  `gorm:"index"`
	CustomerID      *uint  `gorm:"index"`

	Amount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CurrencyCode string          `gorm:"size:8"`

	Gateway       string `gorm:"size:64"`
	PaymentMethod string `gorm:"size:64"`
	Status        string `gorm:"size:32;not null;default:'pending'"`
	Kind          string `gorm:"size:32;default:'sale'"`

	AuthorizationCode string `gorm:"size:64"`
	Message           string `gorm:"type:text"`
	Test              bool   `gorm:"not null;default:false"`

	ProcessedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
