package mapping

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopsync/internal/domain"
)

func TestCustomerMapperCreates(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	raw := json.RawMessage(`{"id": 500, "first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com",
		"default_address": {"address1": "1 Byron St", "city": "London", "country_code": "GB"}}`)
	outcome, err := CustomerMapper{}.Apply(ctx, store, inst, raw)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCreated, outcome.Outcome)

	c, err := store.FindCustomerByExternalID(ctx, inst.ID, "500")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", c.Name)
	assert.Equal(t, "1 Byron St", c.Street)
	assert.Equal(t, "GB", c.CountryCode)
}

func TestCustomerMapperAdoptsByEmail(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	local := &domain.Customer{InstanceID: inst.ID, ExternalID: "", Name: "Ada", Email: "ada@example.com", Active: true}
	require.NoError(t, store.SaveCustomer(ctx, local))

	raw := json.RawMessage(`{"id": 500, "first_name": "Ada", "last_name": "Lovelace", "email": "ada@example.com"}`)
	outcome, err := CustomerMapper{}.Apply(ctx, store, inst, raw)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUpdated, outcome.Outcome)

	adopted, err := store.FindCustomerByExternalID(ctx, inst.ID, "500")
	require.NoError(t, err)
	assert.Equal(t, local.ID, adopted.ID, "email match must adopt the local row, not create a new one")
}

func TestCustomerMapperNameFallsBackToEmail(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	raw := json.RawMessage(`{"id": 501, "email": "anon@example.com"}`)
	_, err := CustomerMapper{}.Apply(ctx, store, inst, raw)
	require.NoError(t, err)

	c, err := store.FindCustomerByExternalID(ctx, inst.ID, "501")
	require.NoError(t, err)
	assert.Equal(t, "anon@example.com", c.Name)
}
