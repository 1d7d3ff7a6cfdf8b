package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopsync/internal/domain"
	"shopsync/internal/ports"
)

type rawOrderLine struct {
	ID        *json.Number `json:"id"`
	ProductID *json.Number `json:"product_id"`
	Title     *string      `json:"title"`
	Sku       *string      `json:"sku"`
	Quantity  *int         `json:"quantity"`
	Price     *string      `json:"price"`
}

type rawOrder struct {
	ID                *json.Number   `json:"id"`
	OrderNumber       *json.Number   `json:"order_number"`
	Name              *string        `json:"name"`
	FinancialStatus   *string        `json:"financial_status"`
	FulfillmentStatus *string        `json:"fulfillment_status"`
	Currency          *string        `json:"currency"`
	TotalTax          *string        `json:"total_tax"`
	Note              *string        `json:"note"`
	CancelReason      *string        `json:"cancel_reason"`
	Customer          *rawCustomer   `json:"customer"`
	LineItems         []rawOrderLine `json:"line_items"`
	ShippingLines     []struct {
		Price *string `json:"price"`
	} `json:"shipping_lines"`
	CreatedAt   *string `json:"created_at"`
	UpdatedAt   *string `json:"updated_at"`
	ClosedAt    *string `json:"closed_at"`
	CancelledAt *string `json:"cancelled_at"`
}

// OrderMapper upserts orders. Lines are materialised exactly once, on
// first import; an order that has progressed past the sent state is left
// untouched by re-imports.
type OrderMapper struct{}

func (OrderMapper) Apply(ctx context.Context, store ports.Store, inst *domain.Instance, raw json.RawMessage) (domain.RecordOutcome, error) {
	var src rawOrder
	if err := decode(raw, &src); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to decode order: %w", err)
	}
	extID := externalID(src.ID)
	if extID == "" {
		return domain.RecordOutcome{}, errors.New("order payload missing id")
	}

	existing, err := store.FindOrderByExternalID(ctx, inst.ID, extID)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return domain.RecordOutcome{}, err
	}
	if existing != nil && !existing.State.Editable() {
		return domain.Skipped(extID, ""), nil
	}

	var t tracker
	target := existing
	creating := target == nil
	if creating {
		target = &domain.Order{InstanceID: inst.ID, ExternalID: extID, State: domain.OrderStateDraft}
	}

	if src.OrderNumber != nil {
		target.Number = src.OrderNumber.String()
	} else {
		t.mark("order_number")
	}
	target.Name = t.str(src.Name, "name", "#"+extID)
	target.FinancialStatus = domain.FinancialStatus(t.str(src.FinancialStatus, "financial_status", string(domain.FinancialStatusPending)))
	target.FulfillmentStatus = domain.FulfillmentStatus(t.str(src.FulfillmentStatus, "fulfillment_status", string(domain.FulfillmentStatusUnfulfilled)))
	target.CurrencyCode = t.str(src.Currency, "currency", inst.CurrencyCode)
	target.TotalTax = t.money(src.TotalTax, "total_tax")
	target.Note = t.str(src.Note, "note", "")
	target.CancelReason = t.str(src.CancelReason, "cancel_reason", "")
	target.ShopifyCreatedAt = parseTime(src.CreatedAt)
	target.ShopifyUpdatedAt = parseTime(src.UpdatedAt)
	target.ShopifyClosedAt = parseTime(src.ClosedAt)
	target.ShopifyCancelledAt = parseTime(src.CancelledAt)

	target.TotalShipping = decimalZero()
	for _, sl := range src.ShippingLines {
		target.TotalShipping = target.TotalShipping.Add(t.money(sl.Price, "shipping_lines.price"))
	}

	if src.Customer != nil {
		customerID, err := resolveOrderCustomer(ctx, store, inst, src.Customer, &t)
		if err != nil {
			return domain.RecordOutcome{}, err
		}
		target.CustomerID = customerID
	} else {
		t.mark("customer")
	}

	if creating {
		lines, err := buildOrderLines(ctx, store, inst, src.LineItems, &t)
		if err != nil {
			return domain.RecordOutcome{}, err
		}
		target.Lines = lines
	}

	if err := store.SaveOrder(ctx, target); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to save order %s: %w", extID, err)
	}
	if creating {
		return domain.Created(extID, t.fields), nil
	}
	return domain.Updated(extID, t.fields), nil
}

// resolveOrderCustomer finds or creates the buyer: by external id, then by
// email with external id backfill, then a minimal new record.
func resolveOrderCustomer(ctx context.Context, store ports.Store, inst *domain.Instance, src *rawCustomer, t *tracker) (*uint, error) {
	extID := externalID(src.ID)
	if extID == "" {
		t.mark("customer.id")
		return nil, nil
	}
	email := ""
	if src.Email != nil {
		email = *src.Email
	}

	existing, err := resolveCustomer(ctx, store, inst.ID, extID, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.ExternalID != extID {
			existing.ExternalID = extID
			if err := store.SaveCustomer(ctx, existing); err != nil {
				return nil, fmt.Errorf("failed to adopt customer %s: %w", extID, err)
			}
		}
		return &existing.ID, nil
	}

	name := ""
	if src.FirstName != nil || src.LastName != nil {
		first, last := "", ""
		if src.FirstName != nil {
			first = *src.FirstName
		}
		if src.LastName != nil {
			last = *src.LastName
		}
		name = trimJoin(first, last)
	}
	if name == "" {
		name = email
	}
	if name == "" {
		name = "Customer " + extID
	}
	created := &domain.Customer{
		InstanceID: inst.ID,
		ExternalID: extID,
		Name:       name,
		Email:      email,
		State:      domain.CustomerStateEnabled,
		Active:     true,
	}
	if err := store.SaveCustomer(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to create customer %s: %w", extID, err)
	}
	return &created.ID, nil
}

// buildOrderLines resolves each line's product: external id first, SKU
// second, and as a last resort a minimal product created on the fly.
func buildOrderLines(ctx context.Context, store ports.Store, inst *domain.Instance, items []rawOrderLine, t *tracker) ([]domain.OrderLine, error) {
	lines := make([]domain.OrderLine, 0, len(items))
	for _, item := range items {
		var tl tracker
		title := tl.str(item.Title, "line.title", "Unknown item")
		sku := tl.str(item.Sku, "line.sku", "")
		qty := tl.integer(item.Quantity, "line.quantity", 1)

		productID, err := resolveLineProduct(ctx, store, inst, externalID(item.ProductID), sku, title)
		if err != nil {
			return nil, err
		}

		lines = append(lines, domain.OrderLine{
			ProductID: productID,
			Title:     title,
			SKU:       sku,
			Quantity:  intDecimal(qty),
			UnitPrice: tl.money(item.Price, "line.price"),
		})
		t.fields = append(t.fields, tl.fields...)
	}
	return lines, nil
}

func resolveLineProduct(ctx context.Context, store ports.Store, inst *domain.Instance, extID, sku, title string) (*uint, error) {
	if extID != "" {
		p, err := store.FindProductByExternalID(ctx, inst.ID, extID)
		if err == nil {
			return &p.ID, nil
		}
		if !errors.Is(err, ports.ErrNotFound) {
			return nil, err
		}
	}
	if sku != "" {
		p, err := store.FindProductBySKU(ctx, inst.ID, sku)
		if err == nil {
			return &p.ID, nil
		}
		if !errors.Is(err, ports.ErrNotFound) {
			return nil, err
		}
	}
	if extID == "" {
		// Custom line item with no catalog identity, leave unresolved.
		return nil, nil
	}
	created := &domain.Product{
		InstanceID: inst.ID,
		ExternalID: extID,
		Title:      title,
		SKU:        sku,
		Status:     domain.ProductStatusActive,
		Active:     true,
	}
	if err := store.SaveProduct(ctx, created); err != nil {
		return nil, fmt.Errorf("failed to create product %s for order line: %w", extID, err)
	}
	return &created.ID, nil
}
