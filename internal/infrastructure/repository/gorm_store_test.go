package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shopsync/internal/domain"
	"shopsync/internal/ports"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := NewGormStore(db)
	require.NoError(t, store.AutoMigrate())
	return store
}

func seedInstance(t *testing.T, store *GormStore) *domain.Instance {
	t.Helper()
	inst := &domain.Instance{Name: "Test", ShopURL: "teststore", AccessToken: "shpat_x", APIVersion: "2024-01", Active: true}
	require.NoError(t, store.SaveInstance(context.Background(), inst))
	return inst
}

func TestFindReturnsErrNotFound(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)

	_, err := store.FindProductByExternalID(context.Background(), inst.ID, "123")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	_, err = store.FindInstanceByDomain(context.Background(), "nobody.myshopify.com")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestFindInstanceByDomainMatchesBareAndFullURL(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)

	found, err := store.FindInstanceByDomain(context.Background(), "teststore.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, inst.ID, found.ID)

	inst.ShopURL = "teststore.myshopify.com"
	require.NoError(t, store.SaveInstance(context.Background(), inst))
	found, err = store.FindInstanceByDomain(context.Background(), "teststore.myshopify.com")
	require.NoError(t, err)
	assert.Equal(t, inst.ID, found.ID)
}

func TestSaveProductUpsertsWithVariants(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	p := &domain.Product{
		InstanceID: inst.ID,
		ExternalID: "100",
		Title:      "Widget",
		Active:     true,
		Variants: []domain.Variant{
			{InstanceID: inst.ID, ExternalID: "200", SKU: "W-1", InventoryItemID: "900"},
		},
	}
	require.NoError(t, store.SaveProduct(ctx, p))

	loaded, err := store.FindProductByExternalID(ctx, inst.ID, "100")
	require.NoError(t, err)
	require.Len(t, loaded.Variants, 1)

	loaded.Title = "Widget v2"
	loaded.Variants[0].SKU = "W-2"
	require.NoError(t, store.SaveProduct(ctx, loaded))

	again, err := store.FindProductByExternalID(ctx, inst.ID, "100")
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", again.Title)
	require.Len(t, again.Variants, 1)
	assert.Equal(t, "W-2", again.Variants[0].SKU)

	variant, err := store.FindVariantByInventoryItemID(ctx, inst.ID, "900")
	require.NoError(t, err)
	assert.Equal(t, "200", variant.ExternalID)
}

func TestUpsertInventoryLine(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	loc := &domain.InventoryLocation{InstanceID: inst.ID, ExternalID: "loc1", Name: "Main", Active: true}
	require.NoError(t, store.SaveLocation(ctx, loc))

	created, err := store.UpsertInventoryLine(ctx, &domain.InventoryLine{
		InventoryLocationID: loc.ID, InventoryItemID: "inv1", Available: 5,
	})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = store.UpsertInventoryLine(ctx, &domain.InventoryLine{
		InventoryLocationID: loc.ID, InventoryItemID: "inv1", Available: 9,
	})
	require.NoError(t, err)
	assert.False(t, created)

	var lines []domain.InventoryLine
	require.NoError(t, store.db.Where("inventory_location_id = ?", loc.ID).Find(&lines).Error)
	require.Len(t, lines, 1)
	assert.Equal(t, 9, lines[0].Available)
}

func TestReplaceCollectionProducts(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	c := &domain.Collection{InstanceID: inst.ID, ExternalID: "c1", Title: "Featured", Type: domain.CollectionTypeCustom}
	require.NoError(t, store.SaveCollection(ctx, c))
	p1 := &domain.Product{InstanceID: inst.ID, ExternalID: "p1", Title: "A", Active: true}
	p2 := &domain.Product{InstanceID: inst.ID, ExternalID: "p2", Title: "B", Active: true}
	require.NoError(t, store.SaveProduct(ctx, p1))
	require.NoError(t, store.SaveProduct(ctx, p2))

	require.NoError(t, store.ReplaceCollectionProducts(ctx, c.ID, []uint{p1.ID, p2.ID}))
	require.NoError(t, store.ReplaceCollectionProducts(ctx, c.ID, []uint{p2.ID}))

	var linked []domain.Product
	require.NoError(t, store.db.Model(&domain.Collection{ID: c.ID}).Association("Products").Find(&linked))
	require.Len(t, linked, 1)
	assert.Equal(t, "p2", linked[0].ExternalID)
}

func TestScheduleRunningFlagLifecycle(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	sched := &domain.Schedule{InstanceID: inst.ID, Enabled: true, IntervalMinutes: 30}
	require.NoError(t, store.SaveSchedule(ctx, sched))

	due, err := store.ListDueSchedules(ctx, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.NoError(t, store.SetScheduleRunning(ctx, sched.ID, true))
	due, err = store.ListDueSchedules(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, due, "running schedule must not be listed as due")

	cleared, err := store.ResetRunningSchedules(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cleared)

	loaded, err := store.FindSchedule(ctx, sched.ID)
	require.NoError(t, err)
	assert.False(t, loaded.IsRunning)
}

func TestWithTxRollsBack(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx ports.Store) error {
		if err := tx.SaveProduct(ctx, &domain.Product{InstanceID: inst.ID, ExternalID: "rb", Title: "X", Active: true}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.Error(t, err)

	_, err = store.FindProductByExternalID(ctx, inst.ID, "rb")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestDeleteInstanceDataCascades(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	p := &domain.Product{InstanceID: inst.ID, ExternalID: "p1", Title: "A", Active: true,
		Variants: []domain.Variant{{InstanceID: inst.ID, ExternalID: "v1"}}}
	require.NoError(t, store.SaveProduct(ctx, p))
	cust := &domain.Customer{InstanceID: inst.ID, ExternalID: "c1", Name: "Jo", Active: true}
	require.NoError(t, store.SaveCustomer(ctx, cust))
	order := &domain.Order{InstanceID: inst.ID, ExternalID: "o1", State: domain.OrderStateDraft,
		Lines: []domain.OrderLine{{Title: "A"}}}
	require.NoError(t, store.SaveOrder(ctx, order))
	require.NoError(t, store.AppendSyncLog(ctx, &domain.SyncLog{
		InstanceID: inst.ID, Reference: "ref", SyncType: domain.SyncTypeProduct,
		Direction: domain.DirectionImport, Status: domain.SyncStatusSuccess,
	}))

	require.NoError(t, store.DeleteInstanceData(ctx, inst.ID))

	for _, model := range []any{
		&domain.Product{}, &domain.Variant{}, &domain.Customer{},
		&domain.Order{}, &domain.OrderLine{}, &domain.SyncLog{},
	} {
		var count int64
		require.NoError(t, store.db.Model(model).Count(&count).Error)
		assert.Zero(t, count)
	}
	_, err := store.FindInstance(ctx, inst.ID)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestListSyncLogsOrderedAndLimited(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.AppendSyncLog(ctx, &domain.SyncLog{
			InstanceID: inst.ID, Reference: "r", SyncType: domain.SyncTypeProduct,
			Direction: domain.DirectionImport, Status: domain.SyncStatusSuccess,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		}))
	}
	logs, err := store.ListSyncLogs(ctx, inst.ID, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.True(t, logs[0].CreatedAt.After(logs[1].CreatedAt) || logs[0].CreatedAt.Equal(logs[1].CreatedAt))
}

func TestSyncLogStatsGroupsByTypeAndDirection(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	for _, entry := range []*domain.SyncLog{
		{InstanceID: inst.ID, Reference: "a", SyncType: domain.SyncTypeProduct,
			Direction: domain.DirectionImport, Status: domain.SyncStatusSuccess, CreatedCount: 3},
		{InstanceID: inst.ID, Reference: "b", SyncType: domain.SyncTypeProduct,
			Direction: domain.DirectionImport, Status: domain.SyncStatusPartial, UpdatedCount: 2, FailedCount: 1},
		{InstanceID: inst.ID, Reference: "c", SyncType: domain.SyncTypeOrder,
			Direction: domain.DirectionImport, Status: domain.SyncStatusSuccess, CreatedCount: 5},
	} {
		require.NoError(t, store.AppendSyncLog(ctx, entry))
	}

	stats, err := store.SyncLogStats(ctx, inst.ID)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byType := map[domain.SyncType]domain.SyncStat{}
	for _, s := range stats {
		byType[s.SyncType] = s
	}
	assert.Equal(t, 2, byType[domain.SyncTypeProduct].Runs)
	assert.Equal(t, 3, byType[domain.SyncTypeProduct].Created)
	assert.Equal(t, 2, byType[domain.SyncTypeProduct].Updated)
	assert.Equal(t, 1, byType[domain.SyncTypeProduct].Failed)
	assert.Equal(t, 1, byType[domain.SyncTypeOrder].Runs)
	assert.Equal(t, 5, byType[domain.SyncTypeOrder].Created)
}
