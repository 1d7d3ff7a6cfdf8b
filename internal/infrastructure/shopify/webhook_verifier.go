package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// HmacVerifier checks the X-Shopify-Hmac-SHA256 signature of inbound
// webhook payloads.
type HmacVerifier struct{}

func NewHmacVerifier() *HmacVerifier {
	return &HmacVerifier{}
}

// Verify recomputes the base64-encoded HMAC-SHA256 of the body and compares
// it in constant time. An empty secret disables verification.
func (v *HmacVerifier) Verify(secret string, body []byte, signature string) bool {
	if secret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
