package application

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shopsync/internal/domain"
	"shopsync/internal/infrastructure/metrics"
	"shopsync/internal/infrastructure/pubsub"
	"shopsync/internal/infrastructure/repository"
	"shopsync/internal/ports"
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
	inst := &domain.Instance{
		Name:          "Test",
		ShopURL:       "teststore",
		AccessToken:   "shpat_x",
		WebhookSecret: "hush",
		CurrencyCode:  "EUR",
		Active:        true,
	}
	require.NoError(t, store.SaveInstance(context.Background(), inst))
	return inst
}

// fakeFetcher serves canned pages per path and records which paths were hit.
// pages holds a single page per path; paged holds multi-page sequences, and
// tailErrs simulates a fetch failure after the listed pages were delivered.
type fakeFetcher struct {
	pages    map[string][]json.RawMessage
	paged    map[string][][]json.RawMessage
	one      map[string]json.RawMessage
	errs     map[string]error
	tailErrs map[string]error
	calls    []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages:    make(map[string][]json.RawMessage),
		paged:    make(map[string][][]json.RawMessage),
		one:      make(map[string]json.RawMessage),
		errs:     make(map[string]error),
		tailErrs: make(map[string]error),
	}
}

func (f *fakeFetcher) FetchPages(_ context.Context, _ *domain.Instance, path, _ string, _ map[string]string, fn func(page []json.RawMessage) error) error {
	f.calls = append(f.calls, path)
	if err, ok := f.errs[path]; ok {
		return err
	}
	sequence := f.paged[path]
	if sequence == nil && len(f.pages[path]) > 0 {
		sequence = [][]json.RawMessage{f.pages[path]}
	}
	for _, page := range sequence {
		if err := fn(page); err != nil {
			return err
		}
	}
	return f.tailErrs[path]
}

func (f *fakeFetcher) FetchAll(ctx context.Context, inst *domain.Instance, path, envelope string, params map[string]string) ([]json.RawMessage, error) {
	var records []json.RawMessage
	err := f.FetchPages(ctx, inst, path, envelope, params, func(page []json.RawMessage) error {
		records = append(records, page...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (f *fakeFetcher) FetchOne(_ context.Context, _ *domain.Instance, path, _ string) (json.RawMessage, error) {
	f.calls = append(f.calls, path)
	if err, ok := f.errs[path]; ok {
		return nil, err
	}
	return f.one[path], nil
}

func newTestImporter(t *testing.T, store ports.Store, fetcher *fakeFetcher) *ImportService {
	t.Helper()
	recorder := metrics.NewRecorder(prometheus.NewRegistry())
	publisher := pubsub.NewRedisPublisher(nil, zerolog.Nop())
	return NewImportService(store, fetcher, publisher, recorder, 2, 250, zerolog.Nop())
}
