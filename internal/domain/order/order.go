package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status values for an order's lifecycle.
const (
	StatusPaid      = "paid"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

// Order represents a captured customer order with its pricing breakdown and a
// snapshot of the purchased lines.
type Order struct {
	ID         string
	Number     string
	UserID     string
	Status     string
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Taxes      decimal.Decimal
	Total      decimal.Decimal
	CouponCode string
	Delivery   Delivery
	Items      []Item
	CreatedAt  time.Time
}

// Item is a purchased line with the price at the moment of purchase. Later
// catalog edits never change past orders.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Delivery holds the recipient and address captured at checkout.
type Delivery struct {
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists the order with its items and deducts the purchased
	// quantities from product stock, all atomically.
	Create(ctx context.Context, o *Order) error
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}
