package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopsync/internal/domain"
	"shopsync/internal/ports"
)

type rawVariant struct {
	ID               *json.Number `json:"id"`
	InventoryItemID  *json.Number `json:"inventory_item_id"`
	Title            *string      `json:"title"`
	Sku              *string      `json:"sku"`
	Barcode          *string      `json:"barcode"`
	Position         *int         `json:"position"`
	Price            *string      `json:"price"`
	Weight           *string      `json:"weight"`
	WeightUnit       *string      `json:"weight_unit"`
	InventoryPolicy  *string      `json:"inventory_policy"`
	Taxable          *bool        `json:"taxable"`
	RequiresShipping *bool        `json:"requires_shipping"`
}

type rawProduct struct {
	ID          *json.Number `json:"id"`
	Title       *string      `json:"title"`
	BodyHTML    *string      `json:"body_html"`
	Status      *string      `json:"status"`
	ProductType *string      `json:"product_type"`
	Vendor      *string      `json:"vendor"`
	Tags        *string      `json:"tags"`
	PublishedAt *string      `json:"published_at"`
	CreatedAt   *string      `json:"created_at"`
	UpdatedAt   *string      `json:"updated_at"`
	Variants    []rawVariant `json:"variants"`
}

// ProductMapper upserts products and their variants.
type ProductMapper struct{}

func (ProductMapper) Apply(ctx context.Context, store ports.Store, inst *domain.Instance, raw json.RawMessage) (domain.RecordOutcome, error) {
	var src rawProduct
	if err := decode(raw, &src); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to decode product: %w", err)
	}
	extID := externalID(src.ID)
	if extID == "" {
		return domain.RecordOutcome{}, errors.New("product payload missing id")
	}

	existing, err := store.FindProductByExternalID(ctx, inst.ID, extID)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return domain.RecordOutcome{}, err
	}

	var t tracker
	target := existing
	creating := target == nil
	if creating {
		target = &domain.Product{InstanceID: inst.ID, ExternalID: extID}
	}

	target.Title = t.str(src.Title, "title", "Untitled product")
	target.BodyHTML = t.str(src.BodyHTML, "body_html", "")
	target.Status = domain.ProductStatus(t.str(src.Status, "status", string(domain.ProductStatusActive)))
	target.ProductType = t.str(src.ProductType, "product_type", "")
	target.Vendor = t.str(src.Vendor, "vendor", "")
	target.Tags = t.str(src.Tags, "tags", "")
	target.Active = true
	target.PublishedAt = parseTime(src.PublishedAt)
	target.ShopifyCreatedAt = parseTime(src.CreatedAt)
	target.ShopifyUpdatedAt = parseTime(src.UpdatedAt)

	applyVariants(&t, target, inst.ID, src.Variants)
	if len(target.Variants) > 0 {
		target.Price = target.Variants[0].Price
		target.SKU = target.Variants[0].SKU
	}

	if err := store.SaveProduct(ctx, target); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to save product %s: %w", extID, err)
	}
	if creating {
		return domain.Created(extID, t.fields), nil
	}
	return domain.Updated(extID, t.fields), nil
}

// applyVariants merges incoming variants into the product, matching by
// external id so local rows are updated in place rather than duplicated.
func applyVariants(t *tracker, p *domain.Product, instanceID uint, incoming []rawVariant) {
	byExt := make(map[string]*domain.Variant, len(p.Variants))
	for i := range p.Variants {
		byExt[p.Variants[i].ExternalID] = &p.Variants[i]
	}

	for _, rv := range incoming {
		extID := externalID(rv.ID)
		if extID == "" {
			continue
		}
		v, ok := byExt[extID]
		if !ok {
			p.Variants = append(p.Variants, domain.Variant{InstanceID: instanceID, ExternalID: extID})
			v = &p.Variants[len(p.Variants)-1]
		}
		v.InventoryItemID = externalID(rv.InventoryItemID)
		v.Title = t.str(rv.Title, "variant.title", "")
		v.SKU = t.str(rv.Sku, "variant.sku", "")
		v.Barcode = t.str(rv.Barcode, "variant.barcode", "")
		v.Position = t.integer(rv.Position, "variant.position", 1)
		v.Price = t.money(rv.Price, "variant.price")
		v.Weight = t.money(rv.Weight, "variant.weight")
		v.WeightUnit = t.str(rv.WeightUnit, "variant.weight_unit", "g")
		v.InventoryPolicy = domain.InventoryPolicy(t.str(rv.InventoryPolicy, "variant.inventory_policy", string(domain.InventoryPolicyDeny)))
		v.Taxable = t.boolean(rv.Taxable, "variant.taxable", true)
		v.RequiresShipping = t.boolean(rv.RequiresShipping, "variant.requires_shipping", true)
	}
}
