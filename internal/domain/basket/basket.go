// Package basket keeps one authoritative list of basket lines per user in the
// database, fronted by an invalidate-on-write cache. The server rows are the
// single source of truth; the cache is strictly read-through.
package basket

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrLineNotFound is returned when a removal targets a line that does not
	// exist.
	ErrLineNotFound = errors.New("item not found in basket")
	// ErrNegativeQuantity is returned when a quantity update is negative; the
	// existing line is left untouched.
	ErrNegativeQuantity = errors.New("quantity cannot be negative")
	// ErrInvalidQuantity is returned when an add requests a non-positive
	// quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// InsufficientStockError indicates a quantity change would exceed the
// product's available stock. Available is how many units can still be added.
type InsufficientStockError struct {
	ProductID string
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("only %d items available", e.Available)
}

// Line is one basket entry enriched with the referenced product's current
// name, price, stock, and primary image for rendering.
type Line struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	ImageURL  string          `json:"image_url"`
}

// Repository defines persistence operations for basket lines. At most one row
// exists per (user, product) pair.
type Repository interface {
	List(ctx context.Context, userID string) ([]Line, error)
	// Quantity returns the current quantity for a line, or 0 when absent.
	Quantity(ctx context.Context, userID, productID string) (int, error)
	// Upsert adds qty to an existing line or creates it.
	Upsert(ctx context.Context, userID, productID string, qty int) error
	SetQuantity(ctx context.Context, userID, productID string, qty int) error
	// Delete removes a line, returning ErrLineNotFound when no row matched.
	Delete(ctx context.Context, userID, productID string) error
	DeleteAll(ctx context.Context, userID string) error
}

// Cache mirrors a user's basket lines for cheap reads. Implementations must
// treat misses as normal (return ErrCacheMiss) and never serve writes.
type Cache interface {
	Get(ctx context.Context, userID string) ([]Line, error)
	Set(ctx context.Context, userID string, lines []Line) error
	Delete(ctx context.Context, userID string) error
}

// ErrCacheMiss is returned by Cache.Get when the user's basket is not cached.
var ErrCacheMiss = errors.New("basket cache miss")
