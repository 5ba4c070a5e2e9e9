// Package coupon validates promo codes against a cart and computes the
// resulting discount. The validator only reads coupon rules; usage is
// recorded separately after an order is captured.
package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercentage applies a percentage of the cart subtotal, optionally
	// capped at the rule's MaxDiscount.
	TypePercentage Type = "percentage"
	// TypeFixedAmount applies a fixed monetary discount clamped to the cart
	// subtotal.
	TypeFixedAmount Type = "fixed_amount"
)

var (
	// ErrNotFound is returned when a code is unknown, inactive, or outside
	// its validity window.
	ErrNotFound = errors.New("invalid or expired promo code")
	// ErrUsageLimitReached is returned when a coupon has exhausted its total
	// allowed uses.
	ErrUsageLimitReached = errors.New("promo code usage limit reached")
	// ErrNewCustomersOnly is returned when a first-order-only coupon is used
	// by a customer with prior orders.
	ErrNewCustomersOnly = errors.New("promo code reserved for new customers")
)

// BelowMinimumError indicates the cart subtotal does not meet the coupon's
// minimum purchase amount.
type BelowMinimumError struct {
	Required decimal.Decimal
}

func (e *BelowMinimumError) Error() string {
	return fmt.Sprintf("minimum purchase of %s required", e.Required.StringFixed(2))
}

// BelowMinItemsError indicates the cart does not contain enough items.
type BelowMinItemsError struct {
	Required int
}

func (e *BelowMinItemsError) Error() string {
	return fmt.Sprintf("minimum %d items required in basket", e.Required)
}

// UserLimitError indicates the requesting user has already used the coupon
// the maximum allowed number of times.
type UserLimitError struct {
	Used int
	Max  int
}

func (e *UserLimitError) Error() string {
	if e.Max == 1 {
		return "promo code already used"
	}
	return fmt.Sprintf("promo code usage limit reached (%d/%d)", e.Used, e.Max)
}

// UnsupportedTypeError indicates a stored rule uses a discount type the
// validator cannot compute.
type UnsupportedTypeError struct {
	Type Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported discount type %q", e.Type)
}

// Rule defines a coupon's discount behaviour and eligibility constraints.
type Rule struct {
	ID               string
	Code             string
	Name             string
	Type             Type
	Value            decimal.Decimal
	MinPurchase      decimal.Decimal
	MinItems         int
	MaxDiscount      *decimal.Decimal
	Description      string
	Active           bool
	StartDate        *time.Time
	EndDate          *time.Time
	MaxTotalUses     int // 0 = unlimited
	MaxUsesPerUser   int // 0 = unlimited
	CurrentUses      int
	NewCustomersOnly bool
}

// Applied holds the outcome of a successful validation. It is ephemeral:
// clients re-validate whenever the cart changes.
type Applied struct {
	CouponID    string
	Code        string
	Type        Type
	Value       decimal.Decimal
	Amount      decimal.Decimal
	Description string
}

// Usage records one redemption of a coupon against an order.
type Usage struct {
	CouponID        string
	UserID          string
	OrderID         string
	OriginalAmount  decimal.Decimal
	DiscountApplied decimal.Decimal
	FinalAmount     decimal.Decimal
}

// Repository provides lookup and usage tracking for coupon rules.
type Repository interface {
	// FindByCode matches codes case-insensitively.
	FindByCode(ctx context.Context, code string) (*Rule, error)
	CountUsageByUser(ctx context.Context, couponID, userID string) (int, error)
	// RecordUsage inserts a usage row and increments the rule's use counter.
	RecordUsage(ctx context.Context, u Usage) error
}

// OrderCounter reports how many orders a user has placed. Used for
// new-customers-only eligibility.
type OrderCounter interface {
	CountByUser(ctx context.Context, userID string) (int, error)
}
