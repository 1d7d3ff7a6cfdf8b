package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Discount mirrors an upstream price rule plus its first discount code.
// Entitled product and collection ids are kept as comma-joined text rather
// than join tables; consumers split on demand.
type Discount struct {
	ID         uint   `gorm:"primaryKey"`
	InstanceID uint   `gorm:"not null;uniqueIndex:idx_discount_instance_external,priority:1"`
	ExternalID string `gorm:"size:32;not null;uniqueIndex:idx_discount_instance_external,priority:2"`

	Title string `gorm:"size:255;not null"`
	Code  string `gorm:"size:128"`

	// Value is always stored non-negative; upstream reports percentage
	// rules with a negative sign which is flipped on import.
	Value            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ValueType        string          `gorm:"size:16;default:'percentage'"`
	TargetType       string          `gorm:"size:16;default:'line_item'"`
	TargetSelection  string          `gorm:"size:16;default:'all'"`
	AllocationMethod string          `gorm:"size:16;default:'across'"`

	UsageLimit      int  `gorm:"not null;default:0"`
	UsageCount      int  `gorm:"not null;default:0"`
	OncePerCustomer bool `gorm:"not null;default:false"`

	PrerequisiteSubtotal decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PrerequisiteQuantity int             `gorm:"not null;default:0"`

	EntitledProductIDs    string `gorm:"type:text"`
	EntitledCollectionIDs string `gorm:"type:text"`

	CurrencyCode string `gorm:"size:8"`
	Active       bool   `gorm:"not null;default:true"`

	StartsAt *time.Time
	EndsAt   *time.Time

	ShopifyCreatedAt *time.Time
	ShopifyUpdatedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
