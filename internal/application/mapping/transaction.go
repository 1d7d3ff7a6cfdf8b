package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopsync/internal/domain"
	"shopsync/internal/ports"
)

type rawTransaction struct {
	ID             *json.Number `json:"id"`
	OrderID        *json.Number `json:"order_id"`
	Amount         *string      `json:"amount"`
	Currency       *string      `json:"currency"`
	Gateway        *string      `json:"gateway"`
	Status         *string      `json:"status"`
	Kind           *string      `json:"kind"`
	Authorization  *string      `json:"authorization"`
	Message        *string      `json:"message"`
	Test           *bool        `json:"test"`
	ProcessedAt    *string      `json:"processed_at"`
	PaymentDetails *struct {
		CreditCardCompany *string `json:"credit_card_company"`
	} `json:"payment_details"`
}

// TransactionMapper upserts payment transactions fetched per order, linking
// them to the local order and its customer.
type TransactionMapper struct{}

func (TransactionMapper) Apply(ctx context.Context, store ports.Store, inst *domain.Instance, raw json.RawMessage) (domain.RecordOutcome, error) {
	var src rawTransaction
	if err := decode(raw, &src); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to decode transaction: %w", err)
	}
	extID := externalID(src.ID)
	if extID == "" {
		return domain.RecordOutcome{}, errors.New("transaction payload missing id")
	}

	existing, err := store.FindTransactionByExternalID(ctx, inst.ID, extID)
	if err != nil && !errors.Is(err, ports.ErrNotFound) {
		return domain.RecordOutcome{}, err
	}

	var t tracker
	target := existing
	creating := target == nil
	if creating {
		target = &domain.PaymentTransaction{InstanceID: inst.ID, ExternalID: extID}
	}

	target.Reference = "TXN-" + extID
	target.OrderExternalID = externalID(src.OrderID)
	target.Amount = t.money(src.Amount, "amount")
	target.CurrencyCode = t.str(src.Currency, "currency", inst.CurrencyCode)
	target.Gateway = t.str(src.Gateway, "gateway", "")
	target.Status = t.str(src.Status, "status", "pending")
	target.Kind = t.str(src.Kind, "kind", "sale")
	target.AuthorizationCode = t.str(src.Authorization, "authorization", "")
	target.Message = t.str(src.Message, "message", "")
	target.Test = t.boolean(src.Test, "test", false)
	target.ProcessedAt = parseTime(src.ProcessedAt)
	if src.PaymentDetails != nil {
		target.PaymentMethod = t.str(src.PaymentDetails.CreditCardCompany, "payment_details", "")
	}

	if target.OrderExternalID != "" {
		order, err := store.FindOrderByExternalID(ctx, inst.ID, target.OrderExternalID)
		if err == nil {
			target.OrderID = &order.ID
			target.CustomerID = order.CustomerID
		} else if !errors.Is(err, ports.ErrNotFound) {
			return domain.RecordOutcome{}, err
		}
	}

	if err := store.SaveTransaction(ctx, target); err != nil {
		return domain.RecordOutcome{}, fmt.Errorf("failed to save transaction %s: %w", extID, err)
	}
	if creating {
		return domain.Created(extID, t.fields), nil
	}
	return domain.Updated(extID, t.fields), nil
}
