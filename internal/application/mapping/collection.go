package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopsync/internal/domain"
	"shopsync/internal/ports"
)

type rawCollection struct {
	ID          *json.Number `json:"id"`
	Title       *string      `json:"title"`
	BodyHTML    *string      `json:"body_html"`
	PublishedAt *string      `json:"published_at"`
	SortOrder   *string      `json:"sort_order"`
	Image       *struct {
		Src *string `json:"src"`
	} `json:"image"`
	UpdatedAt *string `json:"updated_at"`
}

// CollectionMapper upserts one collection of a known type. Membership is
// linked afterwards by the importer's secondary products fetch.
type CollectionMapper struct {
	Type domain.CollectionType
}

func (m CollectionMapper) Apply(ctx context.Context, store ports.Store, inst *domain.Instance, raw json.RawMessage) (domain.RecordOutcome, error) {
	var src rawCollection
	if err := decode(raw, &src); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to decode collection: %w", err)
	}
	extID := externalID(src.ID)
	if extID == "" {
		return domain.RecordOutcome{}, errors.New("collection payload missing id")
	}

	existing, err := store.FindCollectionByExternalID(ctx, inst.ID, extID)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return domain.RecordOutcome{}, err
	}

	var t tracker
	target := existing
	creating := target == nil
	if creating {
		target = &domain.Collection{InstanceID: inst.ID, ExternalID: extID}
	}

	target.Title = t.str(src.Title, "title", "Untitled collection")
	target.Type = m.Type
	target.BodyHTML = t.str(src.BodyHTML, "body_html", "")
	target.SortOrder = t.str(src.SortOrder, "sort_order", "manual")
	target.Published = parseTime(src.PublishedAt) != nil
	target.ShopifyUpdatedAt = parseTime(src.UpdatedAt)
	if src.Image != nil {
		target.ImageURL = t.str(src.Image.Src, "image.src", "")
	} else {
		t.mark("image")
	}

	if err := store.SaveCollection(ctx, target); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to save collection %s: %w", extID, err)
	}
	if creating {
		return domain.Created(extID, t.fields), nil
	}
	return domain.Updated(extID, t.fields), nil
}
