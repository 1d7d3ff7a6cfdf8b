package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinancialStatus mirrors the upstream payment state of an order.
type FinancialStatus string

const (
	FinancialStatusPending           FinancialStatus = "pending"
	FinancialStatusAuthorized        FinancialStatus = "authorized"
	FinancialStatusPartiallyPaid     FinancialStatus = "partially_paid"
	FinancialStatusPaid              FinancialStatus = "paid"
	FinancialStatusPartiallyRefunded FinancialStatus = "partially_refunded"
	FinancialStatusRefunded          FinancialStatus = "refunded"
	FinancialStatusVoided            FinancialStatus = "voided"
)

// FulfillmentStatus mirrors the upstream shipping state of an order.
type FulfillmentStatus string

const (
	FulfillmentStatusFulfilled   FulfillmentStatus = "fulfilled"
	FulfillmentStatusPartial     FulfillmentStatus = "partial"
	FulfillmentStatusUnfulfilled FulfillmentStatus = "unfulfilled"
)

// OrderState is the local lifecycle of a mirrored order. Once an order has
// progressed past OrderStateSent, re-imports must not overwrite it.
type OrderState string

const (
	OrderStateDraft     OrderState = "draft"
	OrderStateSent      OrderState = "sent"
	OrderStateConfirmed OrderState = "confirmed"
)

// Editable reports whether a re-import may still overwrite this state.
func (s OrderState) Editable() bool {
	return s == OrderStateDraft || s == OrderStateSent
}

// Order mirrors an upstream order. Lines are created exactly once, on first
// materialisation; later re-imports of the same external id never recreate
// them.
type Order struct {
	ID         uint   `gorm:"primaryKey"`
	InstanceID uint   `gorm:"not null;uniqueIndex:idx_order_instance_external,priority:1"`
	ExternalID string `gorm:"size:32;not null;uniqueIndex:idx_order_instance_external,priority:2"`

	Number            string            `gorm:"size:32"`
	Name              string            `gorm:"size:64"`
	State             OrderState        `gorm:"size:16;not null;default:'draft'"`
	FinancialStatus   FinancialStatus   `gorm:"size:32;default:'pending'"`
	FulfillmentStatus FulfillmentStatus `gorm:"size:16;default:'unfulfilled'"`

	CustomerID *uint `gorm:"index"`

	TotalTax      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalShipping decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CurrencyCode  string          `gorm:"size:8"`
	Note          string          `gorm:"type:text"`
	CancelReason  string          `gorm:"size:64"`

	Lines []OrderLine `gorm:"constraint:OnDelete:CASCADE"`

	ShopifyCreatedAt   *time.Time
	ShopifyUpdatedAt   *time.Time
	ShopifyClosedAt    *time.Time
	ShopifyCancelledAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderLine is one sold item of an Order, resolved to a local Product when
// possible.
type OrderLine struct {
	ID      uint `gorm:"primaryKey"`
	OrderID uint `gorm:"not null;index"`

	ProductID *uint  `gorm:"index"`
	Title     string `gorm:"size:255;not null"`
	SKU       string `gorm:"size:64"`

	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
