package ports

import (
	"context"
	"errors"
	"time"

	"shopsync/internal/domain"
)

// ErrNotFound is returned by lookups when no row matches. Callers branch on
// it with errors.Is to decide between create and update.
var ErrNotFound = errors.New("not found")

// Store defines the interface for relational persistence. Implementations
// translate their driver's not-found error into ErrNotFound.
type Store interface {
	// WithTx runs fn inside a transaction; fn receives a Store bound to it.
	// Any error from fn rolls the transaction back.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// Instance operations
	FindInstance(ctx context.Context, id uint) (*domain.Instance, error)
	FindInstanceByDomain(ctx context.Context, shopDomain string) (*domain.Instance, error)
	ListActiveInstances(ctx context.Context) ([]*domain.Instance, error)
	SaveInstance(ctx context.Context, inst *domain.Instance) error
	// DeleteInstanceData removes the instance and every record imported for
	// it, in dependency order.
	DeleteInstanceData(ctx context.Context, instanceID uint) error

	// Product operations
	FindProductByExternalID(ctx context.Context, instanceID uint, externalID string) (*domain.Product, error)
	FindProductBySKU(ctx context.Context, instanceID uint, sku string) (*domain.Product, error)
	SaveProduct(ctx context.Context, p *domain.Product) error
	ListProductsPendingExport(ctx context.Context, instanceID uint) ([]*domain.Product, error)
	FindVariantByInventoryItemID(ctx context.Context, instanceID uint, inventoryItemID string) (*domain.Variant, error)

	// Collection operations
	FindCollectionByExternalID(ctx context.Context, instanceID uint, externalID string) (*domain.Collection, error)
	SaveCollection(ctx context.Context, c *domain.Collection) error
	ReplaceCollectionProducts(ctx context.Context, collectionID uint, productIDs []uint) error

	// Customer operations
	FindCustomerByExternalID(ctx context.Context, instanceID uint, externalID string) (*domain.Customer, error)
	FindCustomerByEmail(ctx context.Context, instanceID uint, email string) (*domain.Customer, error)
	SaveCustomer(ctx context.Context, c *domain.Customer) error
	ListCustomersPendingExport(ctx context.Context, instanceID uint) ([]*domain.Customer, error)

	// Order operations
	FindOrderByExternalID(ctx context.Context, instanceID uint, externalID string) (*domain.Order, error)
	SaveOrder(ctx context.Context, o *domain.Order) error

	// Discount operations
	FindDiscountByExternalID(ctx context.Context, instanceID uint, externalID string) (*domain.Discount, error)
	SaveDiscount(ctx context.Context, d *domain.Discount) error

	// Gift card operations
	FindGiftCardByExternalID(ctx context.Context, instanceID uint, externalID string) (*domain.GiftCard, error)
	SaveGiftCard(ctx context.Context, g *domain.GiftCard) error

	// Inventory operations
	FindLocationByExternalID(ctx context.Context, instanceID uint, externalID string) (*domain.InventoryLocation, error)
	SaveLocation(ctx context.Context, l *domain.InventoryLocation) error
	ListLocations(ctx context.Context, instanceID uint) ([]*domain.InventoryLocation, error)
	// UpsertInventoryLine writes one level row and reports whether it was
	// newly created.
	UpsertInventoryLine(ctx context.Context, line *domain.InventoryLine) (bool, error)

	// Payment transaction operations
	FindTransactionByExternalID(ctx context.Context, instanceID uint, externalID string) (*domain.PaymentTransaction, error)
	SaveTransaction(ctx context.Context, t *domain.PaymentTransaction) error

	// Schedule operations
	FindSchedule(ctx context.Context, id uint) (*domain.Schedule, error)
	ListDueSchedules(ctx context.Context, now time.Time) ([]*domain.Schedule, error)
	SaveSchedule(ctx context.Context, s *domain.Schedule) error
	// SetScheduleRunning persists the running flag in its own transaction so
	// other processes observe it immediately.
	SetScheduleRunning(ctx context.Context, id uint, running bool) error
	// ResetRunningSchedules clears running flags left behind by a crashed
	// process. Called once at startup; returns how many were cleared.
	ResetRunningSchedules(ctx context.Context) (int64, error)

	// Sync log operations
	AppendSyncLog(ctx context.Context, entry *domain.SyncLog) error
	ListSyncLogs(ctx context.Context, instanceID uint, limit int) ([]*domain.SyncLog, error)
	// SyncLogStats aggregates the instance's log history per sync type and
	// direction.
	SyncLogStats(ctx context.Context, instanceID uint) ([]domain.SyncStat, error)
}
