package domain

import "time"

// InventoryLocation mirrors an upstream stock location.
type InventoryLocation struct {
	ID         uint   `gorm:"primaryKey"`
	InstanceID uint   `gorm:"not null;uniqueIndex:idx_location_instance_external,priority:1"`
	ExternalID string `gorm:"size:32;not null;uniqueIndex:idx_location_instance_external,priority:2"`

	Name     string `gorm:"size:255;not null"`
	Address  string `gorm:"size:255"`
	City     string `gorm:"size:128"`
	Province string `gorm:"size:128"`
	Country  string `gorm:"size:128"`
	Zip      string `gorm:"size:32"`
	Active   bool   `gorm:"not null;default:true"`

	Lines []InventoryLine `gorm:"constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// InventoryLine is one inventory level at a location, keyed by the upstream
// inventory-item id and resolved to a Variant when the catalog has one.
type InventoryLine struct {
	ID                  uint `gorm:"primaryKey"`
	InventoryLocationID uint `gorm:"not null;index"`

	InventoryItemID string `gorm:"size:32;not null;index"`
	VariantID       *uint  `gorm:"index"`
	Available       int    `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
