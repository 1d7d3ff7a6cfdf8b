package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopsync/internal/domain"
	"shopsync/internal/ports"
)

type rawPriceRule struct {
	ID                    *json.Number  `json:"id"`
	Title                 *string       `json:"title"`
	ValueType             *string       `json:"value_type"`
	Value                 *string       `json:"value"`
	TargetType            *string       `json:"target_type"`
	TargetSelection       *string       `json:"target_selection"`
	AllocationMethod      *string       `json:"allocation_method"`
	UsageLimit            *int          `json:"usage_limit"`
	OncePerCustomer       *bool         `json:"once_per_customer"`
	EntitledProductIDs    []json.Number `json:"entitled_product_ids"`
	EntitledCollectionIDs []json.Number `json:"entitled_collection_ids"`
	PrerequisiteSubtotal  *struct {
		GreaterThanOrEqualTo *string `json:"greater_than_or_equal_to"`
	} `json:"prerequisite_subtotal_range"`
	PrerequisiteQuantity *struct {
		GreaterThanOrEqualTo *int `json:"greater_than_or_equal_to"`
	} `json:"prerequisite_quantity_range"`
	StartsAt  *string `json:"starts_at"`
	EndsAt    *string `json:"ends_at"`
	CreatedAt *string `json:"created_at"`
	UpdatedAt *string `json:"updated_at"`
}

// DiscountMapper upserts price rules. Upstream reports percentage values as
// negatives; the stored value is always the absolute magnitude.
type DiscountMapper struct{}

func (DiscountMapper) Apply(ctx context.Context, store ports.Store, inst *domain.Instance, raw json.RawMessage) (domain.RecordOutcome, error) {
	var src rawPriceRule
	if err := decode(raw, &src); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to decode price rule: %w", err)
	}
	extID := externalID(src.ID)
	if extID == "" {
		return domain.RecordOutcome{}, errors.New("price rule payload missing id")
	}

	existing, err := store.FindDiscountByExternalID(ctx, inst.ID, extID)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return domain.RecordOutcome{}, err
	}

	var t tracker
	target := existing
	creating := target == nil
	if creating {
		target = &domain.Discount{InstanceID: inst.ID, ExternalID: extID}
	}

	target.Title = t.str(src.Title, "title", "Discount "+extID)
	target.Value = t.money(src.Value, "value").Abs()
	target.ValueType = t.str(src.ValueType, "value_type", "percentage")
	target.TargetType = t.str(src.TargetType, "target_type", "line_item")
	target.TargetSelection = t.str(src.TargetSelection, "target_selection", "all")
	target.AllocationMethod = t.str(src.AllocationMethod, "allocation_method", "across")
	target.UsageLimit = t.integer(src.UsageLimit, "usage_limit", 0)
	target.OncePerCustomer = t.boolean(src.OncePerCustomer, "once_per_customer", false)
	target.EntitledProductIDs = joinIDs(src.EntitledProductIDs)
	target.EntitledCollectionIDs = joinIDs(src.EntitledCollectionIDs)
	target.CurrencyCode = inst.CurrencyCode
	target.Active = true
	target.StartsAt = parseTime(src.StartsAt)
	target.EndsAt = parseTime(src.EndsAt)
	target.ShopifyCreatedAt = parseTime(src.CreatedAt)
	target.ShopifyUpdatedAt = parseTime(src.UpdatedAt)

	if src.PrerequisiteSubtotal != nil {
		target.PrerequisiteSubtotal = t.money(src.PrerequisiteSubtotal.GreaterThanOrEqualTo, "prerequisite_subtotal")
	}
	if src.PrerequisiteQuantity != nil {
		target.PrerequisiteQuantity = t.integer(src.PrerequisiteQuantity.GreaterThanOrEqualTo, "prerequisite_quantity", 0)
	}

	if err := store.SaveDiscount(ctx, target); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to save discount %s: %w", extID, err)
	}
	if creating {
		return domain.Created(extID, t.fields), nil
	}
	return domain.Updated(extID, t.fields), nil
}

type rawDiscountCode struct {
	Code       *string      `json:"code"`
	UsageCount *int         `json:"usage_count"`
	ID         *json.Number `json:"id"`
}

// ApplyDiscountCode attaches the first discount code of a price rule to the
// already imported Discount. Used by the importer's secondary fetch.
func ApplyDiscountCode(ctx context.Context, store ports.Store, inst *domain.Instance, priceRuleExtID string, raw json.RawMessage) error {
	var src rawDiscountCode
	if err := decode(raw, &src); err != nil {
		return fmt.Errorf("failed to decode discount code: %w", err)
	}
	target, err := store.FindDiscountByExternalID(ctx, inst.ID, priceRuleExtID)
	if err != nil {
		return err
	}
	if src.Code != nil {
		target.Code = *src.Code
	}
	if src.UsageCount != nil {
		target.UsageCount = *src.UsageCount
	}
	return store.SaveDiscount(ctx, target)
}
