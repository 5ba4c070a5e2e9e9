// Package events publishes order lifecycle events to an AMQP broker. The
// publisher is fire-and-forget from the checkout's perspective: a publish
// failure is logged, never surfaced to the customer.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sheks-house/storefront/internal/domain/order"
)

// Publisher emits order events. Use Nop when no broker is configured.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, o *order.Order) error
}

// Envelope wraps every event payload with identity and timing metadata.
type Envelope struct {
	Event      string            `json:"event"`
	EventID    string            `json:"event_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Payload    OrderPlacedPayload `json:"payload"`
}

// OrderPlacedPayload is the order.placed event payload.
type OrderPlacedPayload struct {
	OrderID     string            `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	UserID      string            `json:"user_id"`
	Total       decimal.Decimal   `json:"total"`
	CouponCode  string            `json:"coupon_code,omitempty"`
	Items       []OrderPlacedItem `json:"items"`
}

// OrderPlacedItem is one purchased line in the event payload.
type OrderPlacedItem struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Nop is a Publisher that drops every event. Used when SHEK_AMQP_URL is not
// configured.
type Nop struct{}

// PublishOrderPlaced implements Publisher.
func (Nop) PublishOrderPlaced(context.Context, *order.Order) error { return nil }
