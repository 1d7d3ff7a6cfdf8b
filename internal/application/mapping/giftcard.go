package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopsync/internal/domain"
	"shopsync/internal/ports"
)

type rawGiftCard struct {
	ID             *json.Number `json:"id"`
	Code           *string      `json:"code"`
	LastCharacters *string      `json:"last_characters"`
	CustomerID     *json.Number `json:"customer_id"`
	InitialValue   *string      `json:"initial_value"`
	Balance        *string      `json:"balance"`
	Currency       *string      `json:"currency"`
	Note           *string      `json:"note"`
	DisabledAt     *string      `json:"disabled_at"`
	ExpiresOn      *string      `json:"expires_on"`
	CreatedAt      *string      `json:"created_at"`
	UpdatedAt      *string      `json:"updated_at"`
}

// GiftCardMapper upserts gift cards. Status derives from the disabled
// timestamp; the full code is only present on creation payloads, so an
// existing code is never blanked by a masked re-import.
type GiftCardMapper struct{}

func (GiftCardMapper) Apply(ctx context.Context, store ports.Store, inst *domain.Instance, raw json.RawMessage) (domain.RecordOutcome, error) {
	var src rawGiftCard
	if err := decode(raw, &src); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to decode gift card: %w", err)
	}
	extID := externalID(src.ID)
	if extID == "" {
		return domain.RecordOutcome{}, errors.New("gift card payload missing id")
	}

	existing, err := store.FindGiftCardByExternalID(ctx, inst.ID, extID)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return domain.RecordOutcome{}, err
	}

	var t tracker
	target := existing
	creating := target == nil
	if creating {
		target = &domain.GiftCard{InstanceID: inst.ID, ExternalID: extID}
	}

	if code := t.str(src.Code, "code", ""); code != "" || target.Code == "" {
		target.Code = code
	}
	target.LastCharacters = t.str(src.LastCharacters, "last_characters", "")
	target.InitialValue = t.money(src.InitialValue, "initial_value")
	target.Balance = t.money(src.Balance, "balance")
	target.CurrencyCode = t.str(src.Currency, "currency", inst.CurrencyCode)
	target.Note = t.str(src.Note, "note", "")
	target.ExpiresOn = parseTime(src.ExpiresOn)
	target.ShopifyCreatedAt = parseTime(src.CreatedAt)
	target.ShopifyUpdatedAt = parseTime(src.UpdatedAt)

	if parseTime(src.DisabledAt) != nil {
		target.Status = domain.GiftCardStatusDisabled
	} else {
		target.Status = domain.GiftCardStatusEnabled
	}

	if custExt := externalID(src.CustomerID); custExt != "" {
		owner, err := store.FindCustomerByExternalID(ctx, inst.ID, custExt)
		if err == nil {
			target.CustomerID = &owner.ID
		} else if !errors.Is(err, ports.ErrNotFound) {
			return domain.RecordOutcome{}, err
		}
	}

	if err := store.SaveGiftCard(ctx, target); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to save gift card %s: %w", extID, err)
	}
	if creating {
		return domain.Created(extID, t.fields), nil
	}
	return domain.Updated(extID, t.fields), nil
}
