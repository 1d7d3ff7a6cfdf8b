package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopsync/internal/domain"
	"shopsync/internal/infrastructure/metrics"
	"shopsync/internal/ports"
)

// ExportService pushes locally created or edited records upstream. Newly
// created records get their assigned external id written back so the next
// import recognises them.
type ExportService struct {
	store     ports.Store
	exporter  ports.Exporter
	publisher ports.EventPublisher
	metrics   *metrics.Recorder
	logger    zerolog.Logger
}

func NewExportService(
	store ports.Store,
	exporter ports.Exporter,
	publisher ports.EventPublisher,
	recorder *metrics.Recorder,
	logger zerolog.Logger,
) *ExportService {
	return &ExportService{
		store:     store,
		exporter:  exporter,
		publisher: publisher,
		metrics:   recorder,
		logger:    logger.With().Str("component", "exporter").Logger(),
	}
}

// ExportProducts pushes products pending export. Records without an
// external id are created upstream, the rest updated in place.
func (s *ExportService) ExportProducts(ctx context.Context, inst *domain.Instance) (domain.SyncSummary, error) {
	started := time.Now()
	var summary domain.SyncSummary

	products, err := s.store.ListProductsPendingExport(ctx, inst.ID)
	if err != nil {
		summary = domain.SyncSummary{Failed: 1, Errors: []string{err.Error()}}
		s.finish(ctx, inst, domain.SyncTypeProduct, &summary, started)
		return summary, err
	}
	summary.Fetched = len(products)

	for _, p := range products {
		if p.ExternalID == "" {
			extID, err := s.exporter.CreateProduct(ctx, inst, p)
			if err != nil {
				summary.Failed++
				summary.Errors = append(summary.Errors, fmt.Sprintf("product %d: %v", p.ID, err))
				continue
			}
			p.ExternalID = extID
			if err := s.store.SaveProduct(ctx, p); err != nil {
				summary.Failed++
				summary.Errors = append(summary.Errors, fmt.Sprintf("product %d: failed to store external id: %v", p.ID, err))
				continue
			}
			summary.Created++
			continue
		}
		if err := s.exporter.UpdateProduct(ctx, inst, p); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("product %s: %v", p.ExternalID, err))
			continue
		}
		summary.Updated++
	}

	s.finish(ctx, inst, domain.SyncTypeProduct, &summary, started)
	return summary, nil
}

// ExportCustomers pushes customers pending export.
func (s *ExportService) ExportCustomers(ctx context.Context, inst *domain.Instance) (domain.SyncSummary, error) {
	started := time.Now()
	var summary domain.SyncSummary

	customers, err := s.store.ListCustomersPendingExport(ctx, inst.ID)
	if err != nil {
		summary = domain.SyncSummary{Failed: 1, Errors: []string{err.Error()}}
		s.finish(ctx, inst, domain.SyncTypeCustomer, &summary, started)
		return summary, err
	}
	summary.Fetched = len(customers)

	for _, c := range customers {
		if c.ExternalID == "" {
			extID, err := s.exporter.CreateCustomer(ctx, inst, c)
			if err != nil {
				summary.Failed++
				summary.Errors = append(summary.Errors, fmt.Sprintf("customer %d: %v", c.ID, err))
				continue
			}
			c.ExternalID = extID
			if err := s.store.SaveCustomer(ctx, c); err != nil {
				summary.Failed++
				summary.Errors = append(summary.Errors, fmt.Sprintf("customer %d: failed to store external id: %v", c.ID, err))
				continue
			}
			summary.Created++
			continue
		}
		if err := s.exporter.UpdateCustomer(ctx, inst, c); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("customer %s: %v", c.ExternalID, err))
			continue
		}
		summary.Updated++
	}

	s.finish(ctx, inst, domain.SyncTypeCustomer, &summary, started)
	return summary, nil
}

func (s *ExportService) finish(ctx context.Context, inst *domain.Instance, syncType domain.SyncType, summary *domain.SyncSummary, started time.Time) {
	duration := time.Since(started)
	entry := &domain.SyncLog{
		InstanceID:   inst.ID,
		Reference:    strings.ToUpper(string(syncType)) + "/" + uuid.NewString(),
		SyncType:     syncType,
		Direction:    domain.DirectionExport,
		Status:       summary.Status(),
		CreatedCount: summary.Created,
		UpdatedCount: summary.Updated,
		FailedCount:  summary.Failed,
		Message:      summary.Message(),
		ErrorDetails: strings.Join(summary.Errors, "\n"),
		Duration:     duration.Seconds(),
	}
	if err := s.store.AppendSyncLog(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("syncType", string(syncType)).Msg("Failed to append sync log")
	}
	s.metrics.ObserveSync(syncType, domain.DirectionExport, summary, duration.Seconds())

	event := domain.SyncEvent{
		ID:         entry.Reference,
		InstanceID: inst.ID,
		SyncType:   syncType,
		Direction:  domain.DirectionExport,
		Status:     summary.Status(),
		Message:    summary.Message(),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to publish sync event")
	}

	s.logger.Info().
		Str("shop", inst.ShopName()).
		Str("syncType", string(syncType)).
		Str("status", string(summary.Status())).
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("failed", summary.Failed).
		Dur("duration", duration).
		Msg("Export finished")
}
