package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstanceShopName(t *testing.T) {
	tests := []struct {
		name    string
		shopURL string
		want    string
	}{
		{"bare name", "mystore", "mystore"},
		{"full domain", "mystore.myshopify.com", "mystore"},
		{"suffix repeated", "mystore.myshopify.com.myshopify.com", "mystore"},
		{"surrounding whitespace", "  mystore.myshopify.com ", "mystore"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := Instance{ShopURL: tt.shopURL}
			assert.Equal(t, tt.want, inst.ShopName())
		})
	}
}

func TestInstanceShopNameIdempotent(t *testing.T) {
	inst := Instance{ShopURL: "mystore.myshopify.com"}
	once := inst.ShopName()
	inst.ShopURL = once
	assert.Equal(t, once, inst.ShopName())
}

func TestInstanceBaseURL(t *testing.T) {
	inst := Instance{ShopURL: "mystore", APIVersion: "2024-01"}
	assert.Equal(t, "https://mystore.myshopify.com/admin/api/2024-01", inst.BaseURL())
}

func TestInstanceBaseURLDefaultsVersion(t *testing.T) {
	inst := Instance{ShopURL: "mystore.myshopify.com"}
	assert.Equal(t, "https://mystore.myshopify.com/admin/api/"+DefaultAPIVersion, inst.BaseURL())
}

func TestInstanceHeaders(t *testing.T) {
	inst := Instance{AccessToken: "shpat_abc"}
	headers := inst.Headers()
	assert.Equal(t, "application/json", headers["Content-Type"])
	assert.Equal(t, "shpat_abc", headers["X-Shopify-Access-Token"])
}
