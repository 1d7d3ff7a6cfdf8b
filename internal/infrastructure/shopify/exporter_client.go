package shopify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/rs/zerolog"

	"shopsync/internal/domain"
)

// ExporterClient pushes local records to the Admin API through the
// go-shopify library, one client per instance.
type ExporterClient struct {
	logger zerolog.Logger
}

func NewExporterClient(logger zerolog.Logger) *ExporterClient {
	return &ExporterClient{
		logger: logger.With().Str("component", "shopify_exporter").Logger(),
	}
}

func (c *ExporterClient) clientFor(inst *domain.Instance) (*goshopify.Client, error) {
	app := goshopify.App{
		ApiKey:    inst.APIKey,
		ApiSecret: inst.APISecret,
	}
	client, err := goshopify.NewClient(app, inst.ShopName(), inst.AccessToken,
		goshopify.WithVersion(inst.APIVersion))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func toShopifyProduct(p *domain.Product) goshopify.Product {
	price := p.Price
	out := goshopify.Product{
		Title:       p.Title,
		BodyHTML:    p.BodyHTML,
		ProductType: p.ProductType,
		Vendor:      p.Vendor,
		Tags:        p.Tags,
		Status:      goshopify.ProductStatus(p.Status),
	}
	if len(p.Variants) == 0 {
		out.Variants = []goshopify.Variant{{Sku: p.SKU, Price: &price}}
		return out
	}
	for _, v := range p.Variants {
		vp := v.Price
		sv := goshopify.Variant{
			Sku:     v.SKU,
			Barcode: v.Barcode,
			Price:   &vp,
		}
		if v.ExternalID != "" {
			if id, err := strconv.ParseUint(v.ExternalID, 10, 64); err == nil {
				sv.Id = id
			}
		}
		out.Variants = append(out.Variants, sv)
	}
	return out
}

func toShopifyCustomer(c *domain.Customer) goshopify.Customer {
	first, last := splitName(c.Name)
	return goshopify.Customer{
		FirstName: first,
		LastName:  last,
		Email:     c.Email,
		Phone:     c.Phone,
	}
}

func splitName(name string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(name), " ", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], ""
}

func (c *ExporterClient) CreateProduct(ctx context.Context, inst *domain.Instance, p *domain.Product) (string, error) {
	client, err := c.clientFor(inst)
	if err != nil {
		return "", err
	}
	created, err := client.Product.Create(ctx, toShopifyProduct(p))
	if err != nil {
		return "", fmt.Errorf("failed to create product: %w", err)
	}
	return strconv.FormatUint(created.Id, 10), nil
}

func (c *ExporterClient) UpdateProduct(ctx context.Context, inst *domain.Instance, p *domain.Product) error {
	client, err := c.clientFor(inst)
	if err != nil {
		return err
	}
	id, err := strconv.ParseUint(p.ExternalID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid external id %q: %w", p.ExternalID, err)
	}
	sp := toShopifyProduct(p)
	sp.Id = id
	if _, err := client.Product.Update(ctx, sp); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (c *ExporterClient) CreateCustomer(ctx context.Context, inst *domain.Instance, cust *domain.Customer) (string, error) {
	client, err := c.clientFor(inst)
	if err != nil {
		return "", err
	}
	created, err := client.Customer.Create(ctx, toShopifyCustomer(cust))
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}
	return strconv.FormatUint(created.Id, 10), nil
}

func (c *ExporterClient) UpdateCustomer(ctx context.Context, inst *domain.Instance, cust *domain.Customer) error {
	client, err := c.clientFor(inst)
	if err != nil {
		return err
	}
	id, err := strconv.ParseUint(cust.ExternalID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid external id %q: %w", cust.ExternalID, err)
	}
	sc := toShopifyCustomer(cust)
	sc.Id = id
	if _, err := client.Customer.Update(ctx, sc); err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	return nil
}
