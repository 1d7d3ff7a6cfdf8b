package mapping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shopsync/internal/domain"
	"shopsync/internal/infrastructure/repository"
)

func newTestStore(t *testing.T) *repository.GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	store := repository.NewGormStore(db)
	require.NoError(t, store.AutoMigrate())
	return store
}

func seedInstance(t *testing.T, store *repository.GormStore) *domain.Instance {
	t.Helper()
	inst := &domain.Instance{Name: "Test", ShopURL: "teststore", AccessToken: "shpat_x", CurrencyCode: "EUR", Active: true}
	require.NoError(t, store.SaveInstance(t.Context(), inst))
	return inst
}

func TestParseTimeStripsOffset(t *testing.T) {
	in := "2024-03-01T10:30:00+02:00"
	got := parseTime(&in)
	require.NotNil(t, got)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 10, got.Hour())
	assert.Equal(t, 30, got.Minute())
}

func TestParseTimeBadInputYieldsNil(t *testing.T) {
	bad := "yesterday-ish"
	assert.Nil(t, parseTime(&bad))
	assert.Nil(t, parseTime(nil))
	empty := ""
	assert.Nil(t, parseTime(&empty))
}

func TestTrackerRecordsDefaults(t *testing.T) {
	var tr tracker
	assert.Equal(t, "fallback", tr.str(nil, "title", "fallback"))
	assert.Equal(t, 3, tr.integer(nil, "qty", 3))
	assert.True(t, tr.boolean(nil, "taxable", true))
	assert.True(t, tr.money(nil, "price").IsZero())
	bad := "not-a-number"
	assert.True(t, tr.money(&bad, "weight").IsZero())
	assert.Equal(t, []string{"title", "qty", "taxable", "price", "weight"}, tr.fields)
}
