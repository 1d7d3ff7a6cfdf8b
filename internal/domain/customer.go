package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomerState mirrors the upstream account state.
type CustomerState string

const (
	CustomerStateDisabled CustomerState = "disabled"
	CustomerStateInvited  CustomerState = "invited"
	CustomerStateEnabled  CustomerState = "enabled"
	CustomerStateDeclined CustomerState = "declined"
)

// Customer mirrors an upstream customer. Email is a soft dedup key: an
// unlinked local record with a matching email is adopted on import instead
// of creating a duplicate. Spend and order counters come from upstream and
// are never recomputed locally.
type Customer struct {
	ID uint `gorm:"primaryKey"`
	// ExternalID is empty for records created locally and still pending
	// export, so the pair is indexed but not unique.
	InstanceID uint   `gorm:"not null;index:idx_customer_instance_external,priority:1"`
	ExternalID string `gorm:"size:32;not null;index:idx_customer_instance_external,priority:2"`

	Name  string `gorm:"size:255;not null"`
	Email string `gorm:"size:255;index"`
	Phone string `gorm:"size:64"`

	Street       string `gorm:"size:255"`
	Street2      string `gorm:"size:255"`
	City         string `gorm:"size:128"`
	Zip          string `gorm:"size:32"`
	CountryCode  string `gorm:"size:8"`
	ProvinceCode string `gorm:"size:8"`

	VerifiedEmail    bool            `gorm:"not null;default:false"`
	AcceptsMarketing bool            `gorm:"not null;default:false"`
	OrdersCount      int             `gorm:"not null;default:0"`
	TotalSpent       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	State            CustomerState   `gorm:"size:16;default:'disabled'"`
	Active           bool            `gorm:"not null;default:true"`

	ShopifyCreatedAt *time.Time
	ShopifyUpdatedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
