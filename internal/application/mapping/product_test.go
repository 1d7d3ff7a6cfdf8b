package mapping

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopsync/internal/domain"
)

func TestProductMapperCreatesWithDefaults(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	raw := json.RawMessage(`{"id": 100, "title": "Widget"}`)
	outcome, err := ProductMapper{}.Apply(ctx, store, inst, raw)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeCreated, outcome.Outcome)
	assert.Contains(t, outcome.Defaulted, "status")
	assert.Contains(t, outcome.Defaulted, "vendor")

	p, err := store.FindProductByExternalID(ctx, inst.ID, "100")
	require.NoError(t, err)
	assert.Equal(t, "Widget", p.Title)
	assert.Equal(t, domain.ProductStatusActive, p.Status)
	assert.True(t, p.Active)
}

func TestProductMapperUpdatesExisting(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	first := json.RawMessage(`{"id": 100, "title": "Widget", "variants": [{"id": 200, "sku": "W-1", "price": "10.00"}]}`)
	_, err := ProductMapper{}.Apply(ctx, store, inst, first)
	require.NoError(t, err)

	second := json.RawMessage(`{"id": 100, "title": "Widget v2", "variants": [{"id": 200, "sku": "W-1", "price": "12.50"}]}`)
	outcome, err := ProductMapper{}.Apply(ctx, store, inst, second)
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeUpdated, outcome.Outcome)

	p, err := store.FindProductByExternalID(ctx, inst.ID, "100")
	require.NoError(t, err)
	assert.Equal(t, "Widget v2", p.Title)
	require.Len(t, p.Variants, 1, "re-import must not duplicate variants")
	assert.Equal(t, "12.5", p.Variants[0].Price.String())
	assert.Equal(t, "12.5", p.Price.String())
}

func TestProductMapperMissingIDFails(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)

	_, err := ProductMapper{}.Apply(context.Background(), store, inst, json.RawMessage(`{"title": "No id"}`))
	require.Error(t, err)
}

func TestProductMapperMergesNewVariant(t *testing.T) {
	store := newTestStore(t)
	inst := seedInstance(t, store)
	ctx := context.Background()

	first := json.RawMessage(`{"id": 100, "title": "Widget", "variants": [{"id": 200, "sku": "W-1", "price": "10.00"}]}`)
	_, err := ProductMapper{}.Apply(ctx, store, inst, first)
	require.NoError(t, err)

	second := json.RawMessage(`{"id": 100, "title": "Widget", "variants": [
		{"id": 200, "sku": "W-1", "price": "10.00"},
		{"id": 201, "sku": "W-2", "price": "11.00"}
	]}`)
	_, err = ProductMapper{}.Apply(ctx, store, inst, second)
	require.NoError(t, err)

	p, err := store.FindProductByExternalID(ctx, inst.ID, "100")
	require.NoError(t, err)
	assert.Len(t, p.Variants, 2)
}
