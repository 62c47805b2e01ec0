package gateway

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayClient implements Client with the Razorpay SDK.
type RazorpayClient struct {
	client *razorpay.Client
}

// NewRazorpayClient creates a client authenticated with the key pair.
func NewRazorpayClient(keyID, keySecret string) *RazorpayClient {
	return &RazorpayClient{client: razorpay.NewClient(keyID, keySecret)}
}

// CreateOrder mints a remote order. The SDK does not take a context, so ctx
// is only checked before the call.
func (c *RazorpayClient) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	body, err := c.client.Order.Create(map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order create failed: %w", err)
	}
	return orderFromMap(body), nil
}

func orderFromMap(m map[string]interface{}) *Order {
	order := &Order{
		ID:       stringField(m, "id"),
		Entity:   stringField(m, "entity"),
		Currency: stringField(m, "currency"),
		Receipt:  stringField(m, "receipt"),
		Status:   stringField(m, "status"),
		Notes:    map[string]string{},
	}
	// JSON numbers decode as float64.
	if amount, ok := m["amount"].(float64); ok {
		order.Amount = int64(amount)
	}
	if notes, ok := m["notes"].(map[string]interface{}); ok {
		for k, v := range notes {
			order.Notes[k] = fmt.Sprint(v)
		}
	}
	return order
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
