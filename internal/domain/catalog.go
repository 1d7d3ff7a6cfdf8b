package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus mirrors the upstream product lifecycle state.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusArchived ProductStatus = "archived"
)

// Product is a locally mirrored catalog entry. Identity is the
// (instance, external id) pair; the local primary key never leaves the
// database.
type Product struct {
	ID uint `gorm:"primaryKey"`
	// ExternalID is empty for records created locally and still pending
	// export, so the pair is indexed but not unique.
	InstanceID uint   `gorm:"not null;index:idx_product_instance_external,priority:1"`
	ExternalID string `gorm:"size:32;not null;index:idx_product_instance_external,priority:2"`

	Title       string          `gorm:"size:255;not null"`
	BodyHTML    string          `gorm:"type:text"`
	Status      ProductStatus   `gorm:"size:16;not null;default:'active'"`
	ProductType string          `gorm:"size:128"`
	Vendor      string          `gorm:"size:128"`
	Tags        string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SKU         string          `gorm:"size:64;index"`
	// Active is the soft-delete flag: delete webhooks deactivate, never remove.
	Active bool `gorm:"not null;default:true"`

	PublishedAt      *time.Time
	ShopifyCreatedAt *time.Time
	ShopifyUpdatedAt *time.Time

	Variants []Variant `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InventoryPolicy controls selling when a variant is out of stock.
type InventoryPolicy string

const (
	InventoryPolicyDeny     InventoryPolicy = "deny"
	InventoryPolicyContinue InventoryPolicy = "continue"
)

// Variant belongs to exactly one Product.
type Variant struct {
	ID         uint   `gorm:"primaryKey"`
	ProductID  uint   `gorm:"not null;index"`
	InstanceID uint   `gorm:"not null;uniqueIndex:idx_variant_instance_external,priority:1"`
	ExternalID string `gorm:"size:32;not null;uniqueIndex:idx_variant_instance_external,priority:2"`

	// InventoryItemID links inventory levels back to this variant.
	InventoryItemID  string          `gorm:"size:32;index"`
	Title            string          `gorm:"size:255"`
	SKU              string          `gorm:"size:64;index"`
	Barcode          string          `gorm:"size:64"`
	Position         int             `gorm:"not null;default:1"`
	Price            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Weight           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	WeightUnit       string          `gorm:"size:8;default:'g'"`
	InventoryPolicy  InventoryPolicy `gorm:"size:16;default:'deny'"`
	Taxable          bool            `gorm:"not null;default:true"`
	RequiresShipping bool            `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CollectionType distinguishes rule-driven from hand-curated collections.
type CollectionType string

const (
	CollectionTypeSmart  CollectionType = "smart"
	CollectionTypeCustom CollectionType = "custom"
)

// Collection groups products; membership comes from a secondary
// products-in-collection fetch keyed by the collection's external id.
type Collection struct {
	ID         uint   `gorm:"primaryKey"`
	InstanceID uint   `gorm:"not null;uniqueIndex:idx_collection_instance_external,priority:1"`
	ExternalID string `gorm:"size:32;not null;uniqueIndex:idx_collection_instance_external,priority:2"`

	Title     string         `gorm:"size:255;not null"`
	Type      CollectionType `gorm:"size:16;not null;default:'custom'"`
	BodyHTML  string         `gorm:"type:text"`
	Published bool           `gorm:"not null;default:true"`
	SortOrder string         `gorm:"size:32;default:'manual'"`
	ImageURL  string         `gorm:"size:512"`

	Products []Product `gorm:"many2many:collection_products"`

	ShopifyCreatedAt *time.Time
	ShopifyUpdatedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
