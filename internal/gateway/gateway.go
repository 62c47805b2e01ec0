// Package gateway talks to the hosted payment provider and verifies the
// signatures it attaches to callbacks and webhooks.
package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// OrderRequest describes a remote order to mint. Amount is in the smallest
// currency unit (paise for INR).
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Order is the provider's handle for a pending charge.
type Order struct {
	ID       string            `json:"id"`
	Entity   string            `json:"entity"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Status   string            `json:"status"`
	Notes    map[string]string `json:"notes"`
}

// Client mints remote orders.
type Client interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
}

// Sign returns the hex encoded HMAC-SHA256 of payload under secret.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature is the hex HMAC-SHA256 of
// payload under secret. The comparison runs in constant time.
func VerifySignature(secret string, payload []byte, signature string) bool {
	expected := Sign(secret, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// CallbackPayload is the string the provider signs for a checkout callback.
func CallbackPayload(gatewayOrderID, gatewayPaymentID string) []byte {
	return []byte(gatewayOrderID + "|" + gatewayPaymentID)
}
