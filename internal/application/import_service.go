package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"shopsync/internal/application/mapping"
	"shopsync/internal/domain"
	"shopsync/internal/infrastructure/metrics"
	"shopsync/internal/ports"
)

// applyFunc maps one raw record inside a batch transaction.
type applyFunc func(ctx context.Context, tx ports.Store, raw json.RawMessage) (domain.RecordOutcome, error)

// ImportService pulls entities from the Admin API and mirrors them locally.
// Pages are re-chunked into fixed-size batches, each committed in its own
// transaction; a failed batch rolls back alone and the run continues.
type ImportService struct {
	store     ports.Store
	fetcher   ports.Fetcher
	publisher ports.EventPublisher
	metrics   *metrics.Recorder
	logger    zerolog.Logger
	batchSize int
	pageSize  int
}

func NewImportService(
	store ports.Store,
	fetcher ports.Fetcher,
	publisher ports.EventPublisher,
	recorder *metrics.Recorder,
	batchSize, pageSize int,
	logger zerolog.Logger,
) *ImportService {
	return &ImportService{
		store:     store,
		fetcher:   fetcher,
		publisher: publisher,
		metrics:   recorder,
		logger:    logger.With().Str("component", "importer").Logger(),
		batchSize: batchSize,
		pageSize:  pageSize,
	}
}

// TestConnection verifies credentials with a lightweight shop fetch and
// stores the shop's currency on the instance.
func (s *ImportService) TestConnection(ctx context.Context, inst *domain.Instance) error {
	raw, err := s.fetcher.FetchOne(ctx, inst, "/shop.json", "shop")
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	var shop struct {
		Currency *string `json:"currency"`
	}
	if err := json.Unmarshal(raw, &shop); err != nil {
		return fmt.Errorf("failed to decode shop: %w", err)
	}
	if shop.Currency != nil && *shop.Currency != inst.CurrencyCode {
		inst.CurrencyCode = *shop.Currency
		if err := s.store.SaveInstance(ctx, inst); err != nil {
			return fmt.Errorf("failed to store shop currency: %w", err)
		}
	}
	return nil
}

func (s *ImportService) listParams() map[string]string {
	return map[string]string{"limit": fmt.Sprintf("%d", s.pageSize)}
}

// runBatches chunks records and applies each chunk in one transaction.
// Record-level errors become skips; a transaction error fails only that
// batch.
func (s *ImportService) runBatches(ctx context.Context, records []json.RawMessage, apply applyFunc) domain.SyncSummary {
	summary := domain.SyncSummary{Fetched: len(records)}
	for start := 0; start < len(records); start += s.batchSize {
		end := start + s.batchSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		var batch domain.BatchResult
		err := s.store.WithTx(ctx, func(tx ports.Store) error {
			for _, raw := range chunk {
				outcome, err := apply(ctx, tx, raw)
				if err != nil {
					outcome = domain.Skipped("", err.Error())
				}
				batch.Record(outcome)
			}
			return nil
		})
		if err != nil {
			batch = domain.BatchResult{
				Failed: len(chunk),
				Errors: []string{fmt.Sprintf("batch of %d rolled back: %v", len(chunk), err)},
			}
		}
		summary.Add(batch)
	}
	return summary
}

// finish writes the sync log, updates metrics and publishes the event.
// Logging failures are reported but never mask the sync outcome.
func (s *ImportService) finish(ctx context.Context, inst *domain.Instance, syncType domain.SyncType, direction domain.Direction, summary *domain.SyncSummary, started time.Time) {
	duration := time.Since(started)
	entry := &domain.SyncLog{
		InstanceID:   inst.ID,
		Reference:    strings.ToUpper(string(syncType)) + "/" + uuid.NewString(),
		SyncType:     syncType,
		Direction:    direction,
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
	s.metrics.ObserveSync(syncType, direction, summary, duration.Seconds())

	event := domain.SyncEvent{
		ID:         entry.Reference,
		InstanceID: inst.ID,
		SyncType:   syncType,
		Direction:  direction,
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
		Int("fetched", summary.Fetched).
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("failed", summary.Failed).
		Dur("duration", duration).
		Msg("Sync finished")
}

// failedFetch produces the summary for a run that never got records.
func failedFetch(err error) domain.SyncSummary {
	return domain.SyncSummary{Errors: []string{err.Error()}, Failed: 1}
}

// recordFetchError folds a pagination failure into the summary. Batches
// committed before the failure keep their counts, so the run degrades to
// partial instead of losing everything.
func recordFetchError(summary *domain.SyncSummary, err error) {
	summary.Failed++
	summary.Errors = append(summary.Errors, err.Error())
}

// importPaged streams pages from a list endpoint and commits each page's
// batches before the next page is requested. The raw records are collected
// for callers that need a secondary pass; on a fetch error they hold what
// arrived before it.
func (s *ImportService) importPaged(ctx context.Context, inst *domain.Instance, path, envelope string, params map[string]string, apply applyFunc) (domain.SyncSummary, []json.RawMessage, error) {
	var summary domain.SyncSummary
	var records []json.RawMessage
	err := s.fetcher.FetchPages(ctx, inst, path, envelope, params, func(page []json.RawMessage) error {
		records = append(records, page...)
		part := s.runBatches(ctx, page, apply)
		summary.Fetched += part.Fetched
		summary.Merge(part)
		return nil
	})
	return summary, records, err
}

// ImportProducts mirrors the product catalog.
func (s *ImportService) ImportProducts(ctx context.Context, inst *domain.Instance) (domain.SyncSummary, error) {
	started := time.Now()
	mapper := mapping.ProductMapper{}
	summary, _, err := s.importPaged(ctx, inst, "/products.json", "products", s.listParams(), func(ctx context.Context, tx ports.Store, raw json.RawMessage) (domain.RecordOutcome, error) {
		return mapper.Apply(ctx, tx, inst, raw)
	})
	if err != nil {
		recordFetchError(&summary, err)
		s.finish(ctx, inst, domain.SyncTypeProduct, domain.DirectionImport, &summary, started)
		return summary, err
	}

	now := time.Now().UTC()
	inst.LastProductSync = &now
	if err := s.store.SaveInstance(ctx, inst); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record product sync timestamp")
	}
	s.finish(ctx, inst, domain.SyncTypeProduct, domain.DirectionImport, &summary, started)
	return summary, nil
}

// ImportCustomers mirrors customers.
func (s *ImportService) ImportCustomers(ctx context.Context, inst *domain.Instance) (domain.SyncSummary, error) {
	started := time.Now()
	mapper := mapping.CustomerMapper{}
	summary, _, err := s.importPaged(ctx, inst, "/customers.json", "customers", s.listParams(), func(ctx context.Context, tx ports.Store, raw json.RawMessage) (domain.RecordOutcome, error) {
		return mapper.Apply(ctx, tx, inst, raw)
	})
	if err != nil {
		recordFetchError(&summary, err)
		s.finish(ctx, inst, domain.SyncTypeCustomer, domain.DirectionImport, &summary, started)
		return summary, err
	}

	now := time.Now().UTC()
	inst.LastCustomerSync = &now
	if err := s.store.SaveInstance(ctx, inst); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record customer sync timestamp")
	}
	s.finish(ctx, inst, domain.SyncTypeCustomer, domain.DirectionImport, &summary, started)
	return summary, nil
}

// ImportOrders mirrors orders created since the last order sync, then pulls
// each order's payment transactions. Transaction fetches fail soft.
func (s *ImportService) ImportOrders(ctx context.Context, inst *domain.Instance) (domain.SyncSummary, error) {
	started := time.Now()
	params := s.listParams()
	params["status"] = "any"
	if inst.LastOrderSync != nil {
		params["created_at_min"] = inst.LastOrderSync.Format(time.RFC3339)
	}
	mapper := mapping.OrderMapper{}
	summary, records, err := s.importPaged(ctx, inst, "/orders.json", "orders", params, func(ctx context.Context, tx ports.Store, raw json.RawMessage) (domain.RecordOutcome, error) {
		return mapper.Apply(ctx, tx, inst, raw)
	})
	if err != nil {
		recordFetchError(&summary, err)
		s.finish(ctx, inst, domain.SyncTypeOrder, domain.DirectionImport, &summary, started)
		return summary, err
	}

	s.importOrderTransactions(ctx, inst, records, &summary)

	now := time.Now().UTC()
	inst.LastOrderSync = &now
	if err := s.store.SaveInstance(ctx, inst); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record order sync timestamp")
	}
	s.finish(ctx, inst, domain.SyncTypeOrder, domain.DirectionImport, &summary, started)
	return summary, nil
}

func (s *ImportService) importOrderTransactions(ctx context.Context, inst *domain.Instance, orders []json.RawMessage, summary *domain.SyncSummary) {
	mapper := mapping.TransactionMapper{}
	for _, raw := range orders {
		var ref struct {
			ID json.Number `json:"id"`
		}
		if err := json.Unmarshal(raw, &ref); err != nil || ref.ID.String() == "" {
			continue
		}
		orderExtID := ref.ID.String()
		path := fmt.Sprintf("/orders/%s/transactions.json", orderExtID)
		txns, err := s.fetcher.FetchAll(ctx, inst, path, "transactions", nil)
		if err != nil {
			s.logger.Warn().Err(err).Str("order", orderExtID).Msg("Failed to fetch order transactions")
			summary.Errors = append(summary.Errors, fmt.Sprintf("transactions for order %s: %v", orderExtID, err))
			continue
		}
		batch := s.runBatches(ctx, txns, func(ctx context.Context, tx ports.Store, raw json.RawMessage) (domain.RecordOutcome, error) {
			return mapper.Apply(ctx, tx, inst, raw)
		})
		summary.Errors = append(summary.Errors, batch.Errors...)
	}
}

// ImportCollections mirrors custom and smart collections, then links
// membership through each collection's products endpoint. A failed
// membership fetch degrades that collection only.
func (s *ImportService) ImportCollections(ctx context.Context, inst *domain.Instance) (domain.SyncSummary, error) {
	started := time.Now()
	var summary domain.SyncSummary

	kinds := []struct {
		path     string
		envelope string
		typ      domain.CollectionType
	}{
		{"/custom_collections.json", "custom_collections", domain.CollectionTypeCustom},
		{"/smart_collections.json", "smart_collections", domain.CollectionTypeSmart},
	}

	var all []json.RawMessage
	for _, k := range kinds {
		mapper := mapping.CollectionMapper{Type: k.typ}
		part, records, err := s.importPaged(ctx, inst, k.path, k.envelope, s.listParams(), func(ctx context.Context, tx ports.Store, raw json.RawMessage) (domain.RecordOutcome, error) {
			return mapper.Apply(ctx, tx, inst, raw)
		})
		summary.Fetched += part.Fetched
		summary.Merge(part)
		if err != nil {
			recordFetchError(&summary, fmt.Errorf("%s: %w", k.envelope, err))
			continue
		}
		all = append(all, records...)
	}

	for _, raw := range all {
		if err := s.linkCollectionProducts(ctx, inst, raw); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to link collection products")
			summary.Errors = append(summary.Errors, err.Error())
		}
	}

	s.finish(ctx, inst, domain.SyncTypeCollection, domain.DirectionImport, &summary, started)
	return summary, nil
}

func (s *ImportService) linkCollectionProducts(ctx context.Context, inst *domain.Instance, raw json.RawMessage) error {
	var ref struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(raw, &ref); err != nil || ref.ID.String() == "" {
		return nil
	}
	extID := ref.ID.String()

	collection, err := s.store.FindCollectionByExternalID(ctx, inst.ID, extID)
	if err != nil {
		return fmt.Errorf("collection %s not found locally: %w", extID, err)
	}

	path := fmt.Sprintf("/collections/%s/products.json", extID)
	records, err := s.fetcher.FetchAll(ctx, inst, path, "products", s.listParams())
	if err != nil {
		return fmt.Errorf("failed to fetch products of collection %s: %w", extID, err)
	}

	var productIDs []uint
	for _, pr := range records {
		var pref struct {
			ID json.Number `json:"id"`
		}
		if err := json.Unmarshal(pr, &pref); err != nil || pref.ID.String() == "" {
			continue
		}
		product, err := s.store.FindProductByExternalID(ctx, inst.ID, pref.ID.String())
		if err != nil {
			continue
		}
		productIDs = append(productIDs, product.ID)
	}
	return s.store.ReplaceCollectionProducts(ctx, collection.ID, productIDs)
}

// ImportLocations mirrors stock locations.
func (s *ImportService) ImportLocations(ctx context.Context, inst *domain.Instance) (domain.SyncSummary, error) {
	started := time.Now()
	mapper := mapping.LocationMapper{}
	summary, _, err := s.importPaged(ctx, inst, "/locations.json", "locations", nil, func(ctx context.Context, tx ports.Store, raw json.RawMessage) (domain.RecordOutcome, error) {
		return mapper.Apply(ctx, tx, inst, raw)
	})
	if err != nil {
		recordFetchError(&summary, err)
		s.finish(ctx, inst, domain.SyncTypeLocation, domain.DirectionImport, &summary, started)
		return summary, err
	}
	s.finish(ctx, inst, domain.SyncTypeLocation, domain.DirectionImport, &summary, started)
	return summary, nil
}

// ImportInventory mirrors inventory levels for every known location.
func (s *ImportService) ImportInventory(ctx context.Context, inst *domain.Instance) (domain.SyncSummary, error) {
	started := time.Now()
	var summary domain.SyncSummary

	locations, err := s.store.ListLocations(ctx, inst.ID)
	if err != nil {
		summary = failedFetch(err)
		s.finish(ctx, inst, domain.SyncTypeInventory, domain.DirectionImport, &summary, started)
		return summary, err
	}

	for _, loc := range locations {
		params := s.listParams()
		params["location_ids"] = loc.ExternalID
		part, _, err := s.importPaged(ctx, inst, "/inventory_levels.json", "inventory_levels", params, func(ctx context.Context, tx ports.Store, raw json.RawMessage) (domain.RecordOutcome, error) {
			return mapping.ApplyInventoryLevel(ctx, tx, inst, raw)
		})
		summary.Fetched += part.Fetched
		summary.Merge(part)
		if err != nil {
			recordFetchError(&summary, fmt.Errorf("location %s: %w", loc.ExternalID, err))
		}
	}

	s.finish(ctx, inst, domain.SyncTypeInventory, domain.DirectionImport, &summary, started)
	return summary, nil
}

// ImportGiftCards mirrors gift cards.
func (s *ImportService) ImportGiftCards(ctx context.Context, inst *domain.Instance) (domain.SyncSummary, error) {
	started := time.Now()
	mapper := mapping.GiftCardMapper{}
	summary, _, err := s.importPaged(ctx, inst, "/gift_cards.json", "gift_cards", s.listParams(), func(ctx context.Context, tx ports.Store, raw json.RawMessage) (domain.RecordOutcome, error) {
		return mapper.Apply(ctx, tx, inst, raw)
	})
	if err != nil {
		recordFetchError(&summary, err)
		s.finish(ctx, inst, domain.SyncTypeGiftCard, domain.DirectionImport, &summary, started)
		return summary, err
	}
	s.finish(ctx, inst, domain.SyncTypeGiftCard, domain.DirectionImport, &summary, started)
	return summary, nil
}

// ImportDiscounts mirrors price rules, then attaches each rule's first
// discount code. Code fetches fail soft.
func (s *ImportService) ImportDiscounts(ctx context.Context, inst *domain.Instance) (domain.SyncSummary, error) {
	started := time.Now()
	mapper := mapping.DiscountMapper{}
	summary, records, err := s.importPaged(ctx, inst, "/price_rules.json", "price_rules", s.listParams(), func(ctx context.Context, tx ports.Store, raw json.RawMessage) (domain.RecordOutcome, error) {
		return mapper.Apply(ctx, tx, inst, raw)
	})
	if err != nil {
		recordFetchError(&summary, err)
		s.finish(ctx, inst, domain.SyncTypeDiscount, domain.DirectionImport, &summary, started)
		return summary, err
	}

	for _, raw := range records {
		var ref struct {
			ID json.Number `json:"id"`
		}
		if err := json.Unmarshal(raw, &ref); err != nil || ref.ID.String() == "" {
			continue
		}
		ruleExtID := ref.ID.String()
		path := fmt.Sprintf("/price_rules/%s/discount_codes.json", ruleExtID)
		codes, err := s.fetcher.FetchAll(ctx, inst, path, "discount_codes", nil)
		if err != nil {
			s.logger.Warn().Err(err).Str("priceRule", ruleExtID).Msg("Failed to fetch discount codes")
			summary.Errors = append(summary.Errors, fmt.Sprintf("discount codes for rule %s: %v", ruleExtID, err))
			continue
		}
		if len(codes) == 0 {
			continue
		}
		if err := mapping.ApplyDiscountCode(ctx, s.store, inst, ruleExtID, codes[0]); err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("discount code for rule %s: %v", ruleExtID, err))
		}
	}

	s.finish(ctx, inst, domain.SyncTypeDiscount, domain.DirectionImport, &summary, started)
	return summary, nil
}
