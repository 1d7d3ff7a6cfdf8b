package application

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopsync/internal/infrastructure/metrics"
	"shopsync/internal/infrastructure/pubsub"
	"shopsync/internal/infrastructure/repository"
)

func TestOperationRunVerifiesConnectionFirst(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	fetcher := newFakeFetcher()
	fetcher.errs["/shop.json"] = assert.AnError
	importer := newTestImporter(t, store, fetcher)
	svc := newTestOperationService(t, store, importer)

	_, err := svc.Run(context.Background(), inst.ID, OpImportProducts, nil)
	require.Error(t, err)
	assert.NotContains(t, fetcher.calls, "/products.json")
}

func TestOperationRunDispatches(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	fetcher := newFakeFetcher()
	fetcher.one["/shop.json"] = json.RawMessage(`{"currency": "EUR"}`)
	fetcher.pages["/products.json"] = []json.RawMessage{
		json.RawMessage(`{"id": 1, "title": "One"}`),
	}
	importer := newTestImporter(t, store, fetcher)
	svc := newTestOperationService(t, store, importer)

	summary, err := svc.Run(context.Background(), inst.ID, OpImportProducts, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
}

func TestOperationRunRefusedWhileGuardHeld(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	importer := newTestImporter(t, store, newFakeFetcher())

	guard := NewRunGuard()
	require.True(t, guard.TryAcquire(inst.ID))

	recorder := metrics.NewRecorder(prometheus.NewRegistry())
	publisher := pubsub.NewRedisPublisher(nil, zerolog.Nop())
	exporter := NewExportService(store, &fakeExporter{}, publisher, recorder, zerolog.Nop())
	svc := NewOperationService(store, importer, exporter, guard, recorder, zerolog.Nop())

	_, err := svc.Run(context.Background(), inst.ID, OpImportProducts, nil)
	require.ErrorIs(t, err, ErrSyncInProgress)
}

func TestOperationRunUnknownOperation(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	fetcher := newFakeFetcher()
	fetcher.one["/shop.json"] = json.RawMessage(`{"currency": "EUR"}`)
	importer := newTestImporter(t, store, fetcher)
	svc := newTestOperationService(t, store, importer)

	_, err := svc.Run(context.Background(), inst.ID, Operation("reticulate_splines"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")
}

func newTestOperationService(t *testing.T, store *repository.GormStore, importer *ImportService) *OperationService {
	t.Helper()
	recorder := metrics.NewRecorder(prometheus.NewRegistry())
	publisher := pubsub.NewRedisPublisher(nil, zerolog.Nop())
	exporter := NewExportService(store, &fakeExporter{}, publisher, recorder, zerolog.Nop())
	return NewOperationService(store, importer, exporter, NewRunGuard(), recorder, zerolog.Nop())
}
