package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"shopsync/internal/domain"
	"shopsync/internal/ports"
)

// GormStore implements ports.Store on a relational database through gorm.
// Postgres in production, sqlite in tests.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates or updates the schema for every synced entity.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(
		&domain.Instance{},
		&domain.Product{},
		&domain.Variant{},
		&domain.Collection{},
		&domain.Customer{},
		&domain.Order{},
		&domain.OrderLine{},
		&domain.Discount{},
		&domain.GiftCard{},
		&domain.InventoryLocation{},
		&domain.InventoryLine{},
		&domain.PaymentTransaction{},
		&domain.Schedule{},
		&domain.SyncLog{},
	)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.ErrNotFound
	}
	return err
}

// WithTx runs fn against a store bound to one transaction.
func (s *GormStore) WithTx(ctx context.Context, fn func(tx ports.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// Instance operations

func (s *GormStore) FindInstance(ctx context.Context, id uint) (*domain.Instance, error) {
	var inst domain.Instance
	if err := s.db.WithContext(ctx).First(&inst, id).Error; err != nil {
		return nil, translate(err)
	}
	return &inst, nil
}

func (s *GormStore) FindInstanceByDomain(ctx context.Context, shopDomain string) (*domain.Instance, error) {
	name := strings.TrimSuffix(strings.TrimSpace(shopDomain), ".myshopify.com")
	var inst domain.Instance
	err := s.db.WithContext(ctx).
		Where("shop_url IN ?", []string{name, name + ".myshopify.com"}).
		First(&inst).Error
	if err != nil {
		return nil, translate(err)
	}
	return &inst, nil
}

func (s *GormStore) ListActiveInstances(ctx context.Context) ([]*domain.Instance, error) {
	var instances []*domain.Instance
	if err := s.db.WithContext(ctx).Where("active = ?", true).Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}

func (s *GormStore) SaveInstance(ctx context.Context, inst *domain.Instance) error {
	return s.db.WithContext(ctx).Save(inst).Error
}

// DeleteInstanceData removes the instance with everything imported for it.
// Children go first so foreign keys never dangle mid-way.
func (s *GormStore) DeleteInstanceData(ctx context.Context, instanceID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := func(model any) error {
			return tx.Where("instance_id = ?", instanceID).Delete(model).Error
		}
		if err := tx.Where("order_id IN (?)",
			tx.Model(&domain.Order{}).Select("id").Where("instance_id = ?", instanceID),
		).Delete(&domain.OrderLine{}).Error; err != nil {
			return err
		}
		if err := tx.Where("inventory_location_id IN (?)",
			tx.Model(&domain.InventoryLocation{}).Select("id").Where("instance_id = ?", instanceID),
		).Delete(&domain.InventoryLine{}).Error; err != nil {
			return err
		}
		if err := tx.Exec(
			"DELETE FROM collection_products WHERE collection_id IN (SELECT id FROM collections WHERE instance_id = ?)",
			instanceID,
		).Error; err != nil {
			return err
		}
		for _, model := range []any{
			&domain.PaymentTransaction{},
			&domain.GiftCard{},
			&domain.Discount{},
			&domain.Order{},
			&domain.InventoryLocation{},
			&domain.Collection{},
			&domain.Variant{},
			&domain.Product{},
			&domain.Customer{},
			&domain.Schedule{},
			&domain.SyncLog{},
		} {
			if err := del(model); err != nil {
				return err
			}
		}
		return tx.Delete(&domain.Instance{}, instanceID).Error
	})
}

// Product operations

func (s *GormStore) FindProductByExternalID(ctx context.Context, instanceID uint, externalID string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.WithContext(ctx).
		Preload("Variants").
		Where("instance_id = ? AND external_id = ?", instanceID, externalID).
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) FindProductBySKU(ctx context.Context, instanceID uint, sku string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.WithContext(ctx).
		Where("instance_id = ? AND sku = ?", instanceID, sku).
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) SaveProduct(ctx context.Context, p *domain.Product) error {
	return s.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(p).Error
}

func (s *GormStore) ListProductsPendingExport(ctx context.Context, instanceID uint) ([]*domain.Product, error) {
	var products []*domain.Product
	err := s.db.WithContext(ctx).
		Preload("Variants").
		Where("instance_id = ? AND active = ?", instanceID, true).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (s *GormStore) FindVariantByInventoryItemID(ctx context.Context, instanceID uint, inventoryItemID string) (*domain.Variant, error) {
	var v domain.Variant
	err := s.db.WithContext(ctx).
		Where("instance_id = ? AND inventory_item_id = ?", instanceID, inventoryItemID).
		First(&v).Error
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// Collection operations

func (s *GormStore) FindCollectionByExternalID(ctx context.Context, instanceID uint, externalID string) (*domain.Collection, error) {
	var c domain.Collection
	err := s.db.WithContext(ctx).
		Where("instance_id = ? AND external_id = ?", instanceID, externalID).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) SaveCollection(ctx context.Context, c *domain.Collection) error {
	return s.db.WithContext(ctx).Omit("Products").Save(c).Error
}

func (s *GormStore) ReplaceCollectionProducts(ctx context.Context, collectionID uint, productIDs []uint) error {
	collection := domain.Collection{ID: collectionID}
	var products []domain.Product
	if len(productIDs) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error; err != nil {
			return err
		}
	}
	if err := s.db.WithContext(ctx).Model(&collection).Association("Products").Replace(&products); err != nil {
		return fmt.Errorf("failed to replace collection products: %w", err)
	}
	return nil
}

// Customer operations

func (s *GormStore) FindCustomerByExternalID(ctx context.Context, instanceID uint, externalID string) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.WithContext(ctx).
		Where("instance_id = ? AND external_id = ?", instanceID, externalID).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) FindCustomerByEmail(ctx context.Context, instanceID uint, email string) (*domain.Customer, error) {
	var c domain.Customer
	err := s.db.WithContext(ctx).
		Where("instance_id = ? AND email = ?", instanceID, email).
		First(&c).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) SaveCustomer(ctx context.Context, c *domain.Customer) error {
	return s.db.WithContext(ctx).Save(c).Error
}

func (s *GormStore) ListCustomersPendingExport(ctx context.Context, instanceID uint) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	err := s.db.WithContext(ctx).
		Where("instance_id = ? AND active = ?", instanceID, true).
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

// Order operations

func (s *GormStore) FindOrderByExternalID(ctx context.Context, instanceID uint, externalID string) (*domain.Order, error) {
	var o domain.Order
	err := s.db.WithContext(ctx).
		Preload("Lines").
		Where("instance_id = ? AND external_id = ?", instanceID, externalID).
		First(&o).Error
	if err != nil {
		return nil, translate(err)
	}
	return &o, nil
}

func (s *GormStore) SaveOrder(ctx context.Context, o *domain.Order) error {
	return s.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(o).Error
}

// Discount operations

func (s *GormStore) FindDiscountByExternalID(ctx context.Context, instanceID uint, externalID string) (*domain.Discount, error) {
	var d domain.Discount
	err := s.db.WithContext(ctx).
		Where("instance_id = ? AND external_id = ?", instanceID, externalID).
		First(&d).Error
	if err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (s *GormStore) SaveDiscount(ctx context.Context, d *domain.Discount) error {
	return s.db.WithContext(ctx).Save(d).Error
}

// Gift card operations

func (s *GormStore) FindGiftCardByExternalID(ctx context.Context, instanceID uint, externalID string) (*domain.GiftCard, error) {
	var g domain.GiftCard
	err := s.db.WithContext(ctx).
		Where("instance_id = ? AND external_id = ?", instanceID, externalID).
		First(&g).Error
	if err != nil {
		return nil, translate(err)
	}
	return &g, nil
}

func (s *GormStore) SaveGiftCard(ctx context.Context, g *domain.GiftCard) error {
	return s.db.WithContext(ctx).Save(g).Error
}

// Inventory operations

func (s *GormStore) FindLocationByExternalID(ctx context.Context, instanceID uint, externalID string) (*domain.InventoryLocation, error) {
	var l domain.InventoryLocation
	err := s.db.WithContext(ctx).
		Where("instance_id = ? AND external_id = ?", instanceID, externalID).
		First(&l).Error
	if err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (s *GormStore) SaveLocation(ctx context.Context, l *domain.InventoryLocation) error {
	return s.db.WithContext(ctx).Omit("Lines").Save(l).Error
}

func (s *GormStore) ListLocations(ctx context.Context, instanceID uint) ([]*domain.InventoryLocation, error) {
	var locations []*domain.InventoryLocation
	err := s.db.WithContext(ctx).
		Where("instance_id = ? AND active = ?", instanceID, true).
		Find(&locations).Error
	if err != nil {
		return nil, err
	}
	return locations, nil
}

func (s *GormStore) UpsertInventoryLine(ctx context.Context, line *domain.InventoryLine) (bool, error) {
	var existing domain.InventoryLine
	err := s.db.WithContext(ctx).
		Where("inventory_location_id = ? AND inventory_item_id = ?", line.InventoryLocationID, line.InventoryItemID).
		First(&existing).Error
	switch {
	case err == nil:
		line.ID = existing.ID
		line.CreatedAt = existing.CreatedAt
		return false, s.db.WithContext(ctx).Save(line).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return true, s.db.WithContext(ctx).Create(line).Error
	default:
		return false, err
	}
}

// Payment transaction operations

func (s *GormStore) FindTransactionByExternalID(ctx context.Context, instanceID uint, externalID string) (*domain.PaymentTransaction, error) {
	var t domain.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("instance_id = ? AND external_id = ?", instanceID, externalID).
		First(&t).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (s *GormStore) SaveTransaction(ctx context.Context, t *domain.PaymentTransaction) error {
	return s.db.WithContext(ctx).Save(t).Error
}

// Schedule operations

func (s *GormStore) FindSchedule(ctx context.Context, id uint) (*domain.Schedule, error) {
	var sched domain.Schedule
	if err := s.db.WithContext(ctx).First(&sched, id).Error; err != nil {
		return nil, translate(err)
	}
	return &sched, nil
}

func (s *GormStore) ListDueSchedules(ctx context.Context, now time.Time) ([]*domain.Schedule, error) {
	var schedules []*domain.Schedule
	err := s.db.WithContext(ctx).
		Where("enabled = ? AND is_running = ?", true, false).
		Where("next_run_at IS NULL OR next_run_at <= ?", now).
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

func (s *GormStore) SaveSchedule(ctx context.Context, sched *domain.Schedule) error {
	return s.db.WithContext(ctx).Save(sched).Error
}

func (s *GormStore) SetScheduleRunning(ctx context.Context, id uint, running bool) error {
	return s.db.WithContext(ctx).
		Model(&domain.Schedule{}).
		Where("id = ?", id).
		Update("is_running", running).Error
}

func (s *GormStore) ResetRunningSchedules(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&domain.Schedule{}).
		Where("is_running = ?", true).
		Update("is_running", false)
	return res.RowsAffected, res.Error
}

// Sync log operations

func (s *GormStore) AppendSyncLog(ctx context.Context, entry *domain.SyncLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormStore) ListSyncLogs(ctx context.Context, instanceID uint, limit int) ([]*domain.SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []*domain.SyncLog
	err := s.db.WithContext(ctx).
		Where("instance_id = ?", instanceID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *GormStore) SyncLogStats(ctx context.Context, instanceID uint) ([]domain.SyncStat, error) {
	var stats []domain.SyncStat
	err := s.db.WithContext(ctx).
		Model(&domain.SyncLog{}).
		Select("sync_type, direction, COUNT(*) AS runs, SUM(created_count) AS created, SUM(updated_count) AS updated, SUM(failed_count) AS failed").
		Where("instance_id = ?", instanceID).
		Group("sync_type, direction").
		Order("sync_type, direction").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
