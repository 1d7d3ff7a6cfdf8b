package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"shopsync/internal/domain"
	"shopsync/internal/infrastructure/metrics"
	"shopsync/internal/ports"
)

// SchedulerService fires due schedules on a fixed tick. A schedule run is
// guarded twice: an in-process guard against racing goroutines and the
// persisted running flag against other processes. A refused run is skipped
// and logged, never queued.
type SchedulerService struct {
	store    ports.Store
	importer *ImportService
	guard    *RunGuard
	metrics  *metrics.Recorder
	logger   zerolog.Logger
	tick     time.Duration
}

func NewSchedulerService(
	store ports.Store,
	importer *ImportService,
	guard *RunGuard,
	recorder *metrics.Recorder,
	tick time.Duration,
	logger zerolog.Logger,
) *SchedulerService {
	return &SchedulerService{
		store:    store,
		importer: importer,
		guard:    guard,
		metrics:  recorder,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		tick:     tick,
	}
}

// ResetStaleRuns clears running flags left behind by an unclean shutdown.
// Must run before the first tick.
func (s *SchedulerService) ResetStaleRuns(ctx context.Context) error {
	cleared, err := s.store.ResetRunningSchedules(ctx)
	if err != nil {
		return fmt.Errorf("failed to reset stale schedule flags: %w", err)
	}
	if cleared > 0 {
		s.logger.Warn().Int64("cleared", cleared).Msg("Reset stale running flags from previous run")
	}
	return nil
}

// Start blocks, firing due schedules every tick until the context ends.
func (s *SchedulerService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	s.logger.Info().Dur("tick", s.tick).Msg("Scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduler stopped")
			return
		case now := <-ticker.C:
			s.runDue(ctx, now.UTC())
		}
	}
}

func (s *SchedulerService) runDue(ctx context.Context, now time.Time) {
	due, err := s.store.ListDueSchedules(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list due schedules")
		return
	}
	for _, schedule := range due {
		if _, _, err := s.RunSchedule(ctx, schedule); err != nil {
			s.logger.Error().Err(err).Uint("scheduleId", schedule.ID).Msg("Schedule run failed")
		}
	}
}

// RunSchedule executes every enabled sync of the schedule sequentially and
// records the aggregate outcome. Individual sync failures are collected;
// they never abort the remaining syncs.
func (s *SchedulerService) RunSchedule(ctx context.Context, schedule *domain.Schedule) (domain.SyncStatus, string, error) {
	if !s.guard.TryAcquire(schedule.InstanceID) {
		s.metrics.ObserveGuardRejection()
		s.logger.Info().Uint("instanceId", schedule.InstanceID).Msg("Sync already in progress, skipping run")
		return "", "sync already in progress", nil
	}
	defer s.guard.Release(schedule.InstanceID)

	current, err := s.store.FindSchedule(ctx, schedule.ID)
	if err != nil {
		return "", "", fmt.Errorf("failed to load schedule %d: %w", schedule.ID, err)
	}
	if current.IsRunning {
		s.metrics.ObserveGuardRejection()
		s.logger.Info().Uint("scheduleId", schedule.ID).Msg("Schedule marked running elsewhere, skipping run")
		return "", "sync already in progress", nil
	}
	if err := s.store.SetScheduleRunning(ctx, schedule.ID, true); err != nil {
		return "", "", fmt.Errorf("failed to mark schedule running: %w", err)
	}
	defer func() {
		if err := s.store.SetScheduleRunning(ctx, schedule.ID, false); err != nil {
			s.logger.Error().Err(err).Uint("scheduleId", schedule.ID).Msg("Failed to clear running flag")
		}
	}()

	inst, err := s.store.FindInstance(ctx, schedule.InstanceID)
	if err != nil {
		return "", "", fmt.Errorf("failed to load instance %d: %w", schedule.InstanceID, err)
	}

	var total domain.SyncSummary
	for _, syncType := range current.EnabledSyncTypes() {
		summary, err := s.runSync(ctx, inst, syncType)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("syncType", string(syncType)).
				Uint("instanceId", inst.ID).
				Msg("Scheduled sync failed")
		}
		total.Fetched += summary.Fetched
		total.Merge(summary)
	}

	status := total.Status()
	message := total.Message()
	now := time.Now().UTC()
	next := now.Add(current.Interval())
	current.LastRunAt = &now
	current.NextRunAt = &next
	current.LastStatus = status
	current.LastMessage = message
	if err := s.store.SaveSchedule(ctx, current); err != nil {
		return status, message, fmt.Errorf("failed to record schedule outcome: %w", err)
	}
	return status, message, nil
}

func (s *SchedulerService) runSync(ctx context.Context, inst *domain.Instance, syncType domain.SyncType) (domain.SyncSummary, error) {
	switch syncType {
	case domain.SyncTypeProduct:
		return s.importer.ImportProducts(ctx, inst)
	case domain.SyncTypeCollection:
		return s.importer.ImportCollections(ctx, inst)
	case domain.SyncTypeCustomer:
		return s.importer.ImportCustomers(ctx, inst)
	case domain.SyncTypeOrder:
		return s.importer.ImportOrders(ctx, inst)
	case domain.SyncTypeLocation:
		return s.importer.ImportLocations(ctx, inst)
	case domain.SyncTypeInventory:
		return s.importer.ImportInventory(ctx, inst)
	case domain.SyncTypeGiftCard:
		return s.importer.ImportGiftCards(ctx, inst)
	case domain.SyncTypeDiscount:
		return s.importer.ImportDiscounts(ctx, inst)
	default:
		return domain.SyncSummary{}, fmt.Errorf("unknown sync type %q", syncType)
	}
}
