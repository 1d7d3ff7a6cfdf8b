package domain

import "time"

// Schedule configures automatic recurring imports for one instance. The
// IsRunning flag is persisted the moment a run starts so that overlapping
// triggers from other processes are refused as well.
type Schedule struct {
	ID         uint `gorm:"primaryKey"`
	InstanceID uint `gorm:"not null;uniqueIndex"`

	Enabled         bool `gorm:"not null;default:false"`
	IntervalMinutes int  `gorm:"not null;default:60"`

	SyncProducts    bool `gorm:"not null;default:true"`
	SyncCustomers   bool `gorm:"not null;default:true"`
	SyncOrders      bool `gorm:"not null;default:true"`
	SyncCollections bool `gorm:"not null;default:false"`
	SyncInventory   bool `gorm:"not null;default:false"`
	SyncLocations   bool `gorm:"not null;default:false"`
	SyncGiftCards   bool `gorm:"not null;default:false"`
	SyncDiscounts   bool `gorm:"not null;default:false"`

	IsRunning   bool `gorm:"not null;default:false"`
	LastRunAt   *time.Time
	NextRunAt   *time.Time
	LastStatus  SyncStatus `gorm:"size:16"`
	LastMessage string     `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Due reports whether the schedule should fire at the given instant.
func (s *Schedule) Due(now time.Time) bool {
	if !s.Enabled {
		return false
	}
	if s.NextRunAt == nil {
		return true
	}
	return !now.Before(*s.NextRunAt)
}

// Interval returns the configured interval, floored at one minute.
func (s *Schedule) Interval() time.Duration {
	if s.IntervalMinutes < 1 {
		return time.Minute
	}
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// EnabledSyncTypes lists the sync types this schedule runs, in the order
// they execute. Catalog data is imported before documents that reference it.
func (s *Schedule) EnabledSyncTypes() []SyncType {
	var types []SyncType
	if s.SyncProducts {
		types = append(types, SyncTypeProduct)
	}
	if s.SyncCollections {
		types = append(types, SyncTypeCollection)
	}
	if s.SyncCustomers {
		types = append(types, SyncTypeCustomer)
	}
	if s.SyncOrders {
		types = append(types, SyncTypeOrder)
	}
	if s.SyncLocations {
		types = append(types, SyncTypeLocation)
	}
	if s.SyncInventory {
		types = append(types, SyncTypeInventory)
	}
	if s.SyncGiftCards {
		types = append(types, SyncTypeGiftCard)
	}
	if s.SyncDiscounts {
		types = append(types, SyncTypeDiscount)
	}
	return types
}
