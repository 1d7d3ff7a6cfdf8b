package application

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopsync/internal/domain"
	"shopsync/internal/infrastructure/metrics"
	"shopsync/internal/infrastructure/repository"
)

func newTestScheduler(t *testing.T, store *repository.GormStore, importer *ImportService, guard *RunGuard) *SchedulerService {
	t.Helper()
	recorder := metrics.NewRecorder(prometheus.NewRegistry())
	return NewSchedulerService(store, importer, guard, recorder, time.Minute, zerolog.Nop())
}

func seedSchedule(t *testing.T, store *repository.GormStore, instanceID uint) *domain.Schedule {
	t.Helper()
	schedule := &domain.Schedule{
		InstanceID:      instanceID,
		Enabled:         true,
		IntervalMinutes: 30,
		SyncProducts:    true,
	}
	require.NoError(t, store.SaveSchedule(context.Background(), schedule))
	return schedule
}

func TestRunScheduleRecordsOutcome(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	schedule := seedSchedule(t, store, inst.ID)

	fetcher := newFakeFetcher()
	fetcher.pages["/products.json"] = []json.RawMessage{
		json.RawMessage(`{"id": 1, "title": "One"}`),
	}
	importer := newTestImporter(t, store, fetcher)
	scheduler := newTestScheduler(t, store, importer, NewRunGuard())
	ctx := context.Background()

	status, message, err := scheduler.RunSchedule(ctx, schedule)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusSuccess, status)
	assert.NotEmpty(t, message)

	stored, err := store.FindSchedule(ctx, schedule.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsRunning)
	require.NotNil(t, stored.LastRunAt)
	require.NotNil(t, stored.NextRunAt)
	assert.Equal(t, domain.SyncStatusSuccess, stored.LastStatus)
	assert.WithinDuration(t, stored.LastRunAt.Add(30*time.Minute), *stored.NextRunAt, time.Second)
}

func TestRunScheduleRefusedByGuard(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	schedule := seedSchedule(t, store, inst.ID)

	guard := NewRunGuard()
	require.True(t, guard.TryAcquire(inst.ID))

	scheduler := newTestScheduler(t, store, newTestImporter(t, store, newFakeFetcher()), guard)

	status, message, err := scheduler.RunSchedule(context.Background(), schedule)
	require.NoError(t, err)
	assert.Empty(t, status)
	assert.Equal(t, "sync already in progress", message)
}

func TestRunScheduleRefusedByPersistedFlag(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	schedule := seedSchedule(t, store, inst.ID)
	ctx := context.Background()
	require.NoError(t, store.SetScheduleRunning(ctx, schedule.ID, true))

	scheduler := newTestScheduler(t, store, newTestImporter(t, store, newFakeFetcher()), NewRunGuard())

	status, message, err := scheduler.RunSchedule(ctx, schedule)
	require.NoError(t, err)
	assert.Empty(t, status)
	assert.Equal(t, "sync already in progress", message)
}

func TestResetStaleRuns(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	schedule := seedSchedule(t, store, inst.ID)
	ctx := context.Background()
	require.NoError(t, store.SetScheduleRunning(ctx, schedule.ID, true))

	scheduler := newTestScheduler(t, store, newTestImporter(t, store, newFakeFetcher()), NewRunGuard())
	require.NoError(t, scheduler.ResetStaleRuns(ctx))

	stored, err := store.FindSchedule(ctx, schedule.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsRunning)
}

func TestRunSchedulePartialWhenOneSyncFails(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	schedule := seedSchedule(t, store, inst.ID)
	schedule.SyncCustomers = true
	require.NoError(t, store.SaveSchedule(context.Background(), schedule))

	fetcher := newFakeFetcher()
	fetcher.pages["/products.json"] = []json.RawMessage{
		json.RawMessage(`{"id": 1, "title": "One"}`),
	}
	fetcher.errs["/customers.json"] = assert.AnError
	importer := newTestImporter(t, store, fetcher)
	scheduler := newTestScheduler(t, store, importer, NewRunGuard())

	status, _, err := scheduler.RunSchedule(context.Background(), schedule)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusPartial, status)
}
