package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopsync/internal/domain"
	"shopsync/internal/ports"
)

type rawLocation struct {
	ID       *json.Number `json:"id"`
	Name     *string      `json:"name"`
	Address1 *string      `json:"address1"`
	City     *string      `json:"city"`
	Province *string      `json:"province"`
	Country  *string      `json:"country"`
	Zip      *string      `json:"zip"`
	Active   *bool        `json:"active"`
}

// LocationMapper upserts inventory locations.
type LocationMapper struct{}

func (LocationMapper) Apply(ctx context.Context, store ports.Store, inst *domain.Instance, raw json.RawMessage) (domain.RecordOutcome, error) {
	var src rawLocation
	if err := decode(raw, &src); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to decode location: %w", err)
	}
	extID := externalID(src.ID)
	if extID == "" {
		return domain.RecordOutcome{}, errors.New("location payload missing id")
	}

	existing, err := store.FindLocationByExternalID(ctx, inst.ID, extID)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return domain.RecordOutcome{}, err
	}

	var t tracker
	target := existing
	creating := target == nil
	if creating {
		target = &domain.InventoryLocation{InstanceID: inst.ID, ExternalID: extID}
	}

	target.Name = t.str(src.Name, "name", "Location "+extID)
	target.Address = t.str(src.Address1, "address1", "")
	target.City = t.str(src.City, "city", "")
	target.Province = t.str(src.Province, "province", "")
	target.Country = t.str(src.Country, "country", "")
	target.Zip = t.str(src.Zip, "zip", "")
	target.Active = t.boolean(src.Active, "active", true)

	if err := store.SaveLocation(ctx, target); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to save location %s: %w", extID, err)
	}
	if creating {
		return domain.Created(extID, t.fields), nil
	}
	return domain.Updated(extID, t.fields), nil
}

type rawInventoryLevel struct {
	InventoryItemID *json.Number `json:"inventory_item_id"`
	LocationID      *json.Number `json:"location_id"`
	Available       *int         `json:"available"`
}

// ApplyInventoryLevel upserts one inventory level under its location,
// resolving the variant through the inventory item id when the catalog
// knows it.
func ApplyInventoryLevel(ctx context.Context, store ports.Store, inst *domain.Instance, raw json.RawMessage) (domain.RecordOutcome, error) {
	var src rawInventoryLevel
	if err := decode(raw, &src); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to decode inventory level: %w", err)
	}
	itemID := externalID(src.InventoryItemID)
	locExtID := externalID(src.LocationID)
	if itemID == "" || locExtID == "" {
		return domain.RecordOutcome{}, errors.New("inventory level payload missing ids")
	}

	loc, err := store.FindLocationByExternalID(ctx, inst.ID, locExtID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domain.Skipped(itemID, "unknown location "+locExtID), nil
		}
		return domain.RecordOutcome{}, err
	}

	var t tracker
	line := &domain.InventoryLine{
		InventoryLocationID: loc.ID,
		InventoryItemID:     itemID,
		Available:           t.integer(src.Available, "available", 0),
	}
	variant, err := store.FindVariantByInventoryItemID(ctx, inst.ID, itemID)
	if err == nil {
		line.VariantID = &variant.ID
	} else if !errors.Is(err, ports.ErrNotFound) {
		return domain.RecordOutcome{}, err
	}

	created, err := store.UpsertInventoryLine(ctx, line)
	if err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to save inventory level %s: %w", itemID, err)
	}
	if created {
		return domain.Created(itemID, t.fields), nil
	}
	return domain.Updated(itemID, t.fields), nil
}
