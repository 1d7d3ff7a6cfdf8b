package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultAPIVersion is the Shopify Admin API version used when an
	// instance does not pin one explicitly.
	DefaultAPIVersion = "2024-01"

	platformDomainSuffix = ".myshopify.com"
)

// Instance holds per-store credentials and connection settings. Every sync
// operation is scoped to exactly one instance; synced entities reference it
// and are removed by an explicit cascade when the instance is deleted.
type Instance struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:128;not null"`
	ShopURL   string `gorm:"size:255;not null"`
	APIKey    string `gorm:"size:255"`
	APISecret string `gorm:"size:255"`
	// AccessToken authenticates every Admin API call.
	AccessToken   string `gorm:"size:255;not null"`
	APIVersion    string `gorm:"size:16;not null;default:'2024-01'"`
	WebhookSecret string `gorm:"size:255"`
	CurrencyCode  string `gorm:"size:8"`
	Active        bool   `gorm:"not null;default:true"`

	LastProductSync  *time.Time
	LastCustomerSync *time.Time
	LastOrderSync    *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ShopName returns the bare store name with any accidental platform domain
// suffix stripped. Stripping is idempotent: a value already clean, or one
// with the suffix repeated, normalises to the same result.
func (i *Instance) ShopName() string {
	return strings.TrimSpace(strings.ReplaceAll(i.ShopURL, platformDomainSuffix, ""))
}

// ShopDomain returns the full myshopify domain of the store, used to match
// inbound webhooks to an instance.
func (i *Instance) ShopDomain() string {
	return i.ShopName() + platformDomainSuffix
}

// BaseURL returns the Admin API root for this instance, e.g.
// https://mystore.myshopify.com/admin/api/2024-01.
func (i *Instance) BaseURL() string {
	version := i.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	return fmt.Sprintf("https://%s%s/admin/api/%s", i.ShopName(), platformDomainSuffix, version)
}

// Headers returns the fixed header pair sent on every Admin API request.
func (i *Instance) Headers() map[string]string {
	return map[string]string{
		"Content-Type":           "application/json",
		"X-Shopify-Access-Token": i.AccessToken,
	}
}
