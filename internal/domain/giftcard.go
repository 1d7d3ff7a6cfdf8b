package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// GiftCardStatus is derived on import: a card with a disabled timestamp is
// disabled, otherwise enabled.
type GiftCardStatus string

const (
	GiftCardStatusEnabled  GiftCardStatus = "enabled"
	GiftCardStatusDisabled GiftCardStatus = "disabled"
	GiftCardStatusExpired  GiftCardStatus = "expired"
)

// GiftCard is an append-mostly mirror of an upstream gift card, linked to a
// Customer when the owner resolves locally.
type GiftCard struct {
	ID         uint   `gorm:"primaryKey"`
	InstanceID uint   `gorm:"not null;uniqueIndex:idx_giftcard_instance_external,priority:1"`
	ExternalID string `gorm:"size:32;not null;uniqueIndex:idx_giftcard_instance_external,priority:2"`

	Code           string `gorm:"size:64;not null"`
	LastCharacters string `gorm:"size:8"`

	CustomerID *uint `gorm:"index"`

	InitialValue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Balance      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CurrencyCode string          `gorm:"size:8"`

	Status    GiftCardStatus `gorm:"size:16;not null;default:'enabled'"`
	Note      string         `gorm:"type:text"`
	ExpiresOn *time.Time

	ShopifyCreatedAt *time.Time
	ShopifyUpdatedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
