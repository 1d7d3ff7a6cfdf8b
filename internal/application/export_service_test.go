package application

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopsync/internal/domain"
	"shopsync/internal/infrastructure/metrics"
	"shopsync/internal/infrastructure/pubsub"
	"shopsync/internal/infrastructure/repository"
)

// fakeExporter hands out sequential external ids and records updates.
type fakeExporter struct {
	nextID  int
	created []uint
	updated []string
	err     error
}

func (f *fakeExporter) CreateProduct(_ context.Context, _ *domain.Instance, p *domain.Product) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.nextID++
	f.created = append(f.created, p.ID)
	return "900" + string(rune('0'+f.nextID)), nil
}

func (f *fakeExporter) UpdateProduct(_ context.Context, _ *domain.Instance, p *domain.Product) error {
	if f.err != nil {
		return f.err
	}
	f.updated = append(f.updated, p.ExternalID)
	return nil
}

func (f *fakeExporter) CreateCustomer(_ context.Context, _ *domain.Instance, c *domain.Customer) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.nextID++
	f.created = append(f.created, c.ID)
	return "800" + string(rune('0'+f.nextID)), nil
}

func (f *fakeExporter) UpdateCustomer(_ context.Context, _ *domain.Instance, c *domain.Customer) error {
	if f.err != nil {
		return f.err
	}
	f.updated = append(f.updated, c.ExternalID)
	return nil
}

func newTestExportService(t *testing.T, store *repository.GormStore, exporter *fakeExporter) *ExportService {
	t.Helper()
	recorder := metrics.NewRecorder(prometheus.NewRegistry())
	publisher := pubsub.NewRedisPublisher(nil, zerolog.Nop())
	return NewExportService(store, exporter, publisher, recorder, zerolog.Nop())
}

func TestExportProductsCreatesAndWritesBackExternalID(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	local := &domain.Product{InstanceID: inst.ID, Title: "Local only", Active: true}
	require.NoError(t, store.SaveProduct(ctx, local))

	exporter := &fakeExporter{}
	svc := newTestExportService(t, store, exporter)

	summary, err := svc.ExportProducts(ctx, inst)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 0, summary.Failed)

	synced, err := store.FindProductByExternalID(ctx, inst.ID, "9001")
	require.NoError(t, err)
	assert.Equal(t, local.ID, synced.ID)
}

func TestExportProductsUpdatesExisting(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	known := &domain.Product{InstanceID: inst.ID, ExternalID: "100", Title: "Known", Active: true}
	require.NoError(t, store.SaveProduct(ctx, known))

	exporter := &fakeExporter{}
	svc := newTestExportService(t, store, exporter)

	summary, err := svc.ExportProducts(ctx, inst)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, []string{"100"}, exporter.updated)
}

func TestExportProductsFailureIsCounted(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	local := &domain.Product{InstanceID: inst.ID, Title: "Local only", Active: true}
	require.NoError(t, store.SaveProduct(ctx, local))

	exporter := &fakeExporter{err: assert.AnError}
	svc := newTestExportService(t, store, exporter)

	summary, err := svc.ExportProducts(ctx, inst)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, domain.SyncStatusFailed, summary.Status())
}

func TestExportCustomers(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	fresh := &domain.Customer{InstanceID: inst.ID, Name: "Ada", Email: "ada@example.com", Active: true}
	require.NoError(t, store.SaveCustomer(ctx, fresh))
	known := &domain.Customer{InstanceID: inst.ID, ExternalID: "500", Name: "Grace", Email: "grace@example.com", Active: true}
	require.NoError(t, store.SaveCustomer(ctx, known))

	exporter := &fakeExporter{}
	svc := newTestExportService(t, store, exporter)

	summary, err := svc.ExportCustomers(ctx, inst)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Updated)

	logs, err := store.ListSyncLogs(ctx, inst.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.DirectionExport, logs[0].Direction)
}
