package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"shopsync/internal/domain"
	"shopsync/internal/ports"
)

type rawAddress struct {
	Address1     *string `json:"address1"`
	Address2     *string `json:"address2"`
	City         *string `json:"city"`
	Zip          *string `json:"zip"`
	CountryCode  *string `json:"country_code"`
	ProvinceCode *string `json:"province_code"`
	Phone        *string `json:"phone"`
}

type rawCustomer struct {
	ID               *json.Number `json:"id"`
	FirstName        *string      `json:"first_name"`
	LastName         *string      `json:"last_name"`
	Email            *string      `json:"email"`
	Phone            *string      `json:"phone"`
	VerifiedEmail    *bool        `json:"verified_email"`
	AcceptsMarketing *bool        `json:"accepts_marketing"`
	OrdersCount      *int         `json:"orders_count"`
	TotalSpent       *string      `json:"total_spent"`
	State            *string      `json:"state"`
	DefaultAddress   *rawAddress  `json:"default_address"`
	CreatedAt        *string      `json:"created_at"`
	UpdatedAt        *string      `json:"updated_at"`
}

// CustomerMapper upserts customers. Resolution order: external id, then
// email, then create. A match by email adopts the row and backfills the
// external id, so records created by hand or by order import converge.
type CustomerMapper struct{}

func (CustomerMapper) Apply(ctx context.Context, store ports.Store, inst *domain.Instance, raw json.RawMessage) (domain.RecordOutcome, error) {
	var src rawCustomer
	if err := decode(raw, &src); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to decode customer: %w", err)
	}
	extID := externalID(src.ID)
	if extID == "" {
		return domain.RecordOutcome{}, errors.New("customer payload missing id")
	}

	var t tracker
	email := t.str(src.Email, "email", "")

	target, err := resolveCustomer(ctx, store, inst.ID, extID, email)
	if err != nil {
		return domain.RecordOutcome{}, err
	}
	creating := target == nil
	if creating {
		target = &domain.Customer{InstanceID: inst.ID}
	}
	target.ExternalID = extID

	name := strings.TrimSpace(t.str(src.FirstName, "first_name", "") + " " + t.str(src.LastName, "last_name", ""))
	if name == "" {
		name = email
	}
	if name == "" {
		name = "Customer " + extID
	}
	target.Name = name
	target.Email = email
	target.Phone = t.str(src.Phone, "phone", "")
	target.VerifiedEmail = t.boolean(src.VerifiedEmail, "verified_email", false)
	target.AcceptsMarketing = t.boolean(src.AcceptsMarketing, "accepts_marketing", false)
	target.OrdersCount = t.integer(src.OrdersCount, "orders_count", 0)
	target.TotalSpent = t.money(src.TotalSpent, "total_spent")
	target.State = domain.CustomerState(t.str(src.State, "state", string(domain.CustomerStateEnabled)))
	target.Active = true
	target.ShopifyCreatedAt = parseTime(src.CreatedAt)
	target.ShopifyUpdatedAt = parseTime(src.UpdatedAt)

	if addr := src.DefaultAddress; addr != nil {
		target.Street = t.str(addr.Address1, "address1", "")
		target.Street2 = t.str(addr.Address2, "address2", "")
		target.City = t.str(addr.City, "city", "")
		target.Zip = t.str(addr.Zip, "zip", "")
		target.CountryCode = t.str(addr.CountryCode, "country_code", "")
		target.ProvinceCode = t.str(addr.ProvinceCode, "province_code", "")
		if target.Phone == "" && addr.Phone != nil {
			target.Phone = *addr.Phone
		}
	} else {
		t.mark("default_address")
	}

	if err := store.SaveCustomer(ctx, target); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to save customer %s: %w", extID, err)
	}
	if creating {
		return domain.Created(extID, t.fields), nil
	}
	return domain.Updated(extID, t.fields), nil
}

func resolveCustomer(ctx context.Context, store ports.Store, instanceID uint, extID, email string) (*domain.Customer, error) {
	byExt, err := store.FindCustomerByExternalID(ctx, instanceID, extID)
	if err == nil {
		return byExt, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return nil, err
	}
	if email == "" {
		return nil, nil
	}
	byEmail, err := store.FindCustomerByEmail(ctx, instanceID, email)
	if err == nil {
		return byEmail, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return nil, err
	}
	return nil, nil
}
