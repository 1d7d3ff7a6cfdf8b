package ports

import (
	"context"
	"encoding/json"

	"shopsync/internal/domain"
)

// Fetcher reads records from the upstream REST API, following cursor
// pagination until the resource is exhausted.
type Fetcher interface {
	// FetchPages walks a list endpoint page by page, handing each page to fn
	// before requesting the next. The envelope key names the JSON array
	// wrapping the records, e.g. "products". Pages delivered before a fetch
	// error stay delivered; fn errors stop pagination.
	FetchPages(ctx context.Context, inst *domain.Instance, path, envelope string, params map[string]string, fn func(page []json.RawMessage) error) error
	// FetchAll drains every page of a list endpoint into one slice. Meant
	// for short secondary lists; bulk imports consume FetchPages.
	FetchAll(ctx context.Context, inst *domain.Instance, path, envelope string, params map[string]string) ([]json.RawMessage, error)
	// FetchOne reads a single-object endpoint, e.g. "/shop.json".
	FetchOne(ctx context.Context, inst *domain.Instance, path, envelope string) (json.RawMessage, error)
}

// Exporter pushes local records to the upstream store and reports the
// external id assigned to newly created ones.
type Exporter interface {
	CreateProduct(ctx context.Context, inst *domain.Instance, p *domain.Product) (string, error)
	UpdateProduct(ctx context.Context, inst *domain.Instance, p *domain.Product) error
	CreateCustomer(ctx context.Context, inst *domain.Instance, c *domain.Customer) (string, error)
	UpdateCustomer(ctx context.Context, inst *domain.Instance, c *domain.Customer) error
}

// WebhookVerifier authenticates inbound webhook payloads.
type WebhookVerifier interface {
	Verify(secret string, body []byte, signature string) bool
}
