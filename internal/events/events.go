// Package events defines the status-change notifications pushed to
// connected clients.
package events

import (
	"context"
	"time"
)

// Type names an event the way clients subscribe to it.
type Type string

const (
	NewOrder            Type = "newOrder"
	OrderStatusUpdate   Type = "orderStatusUpdate"
	PaymentStatusUpdate Type = "paymentStatusUpdate"
	ProductApproved     Type = "productApproved"
)

// Event is one notification. Zero ids are omitted on the wire.
type Event struct {
	Type       Type                   `json:"type"`
	OrderID    uint                   `json:"order_id,omitempty"`
	ProductID  uint                   `json:"product_id,omitempty"`
	Status     string                 `json:"status,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// New stamps an event with the current time.
func New(t Type) Event {
	return Event{Type: t, OccurredAt: time.Now().UTC()}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
