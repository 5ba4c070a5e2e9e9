// Package checkout sequences payment capture: basket load, stock re-check,
// server-side total recomputation, coupon re-validation, provider capture,
// order persistence, and basket cleanup.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheks-house/storefront/internal/domain/basket"
	"github.com/sheks-house/storefront/internal/domain/coupon"
	"github.com/sheks-house/storefront/internal/domain/order"
	"github.com/sheks-house/storefront/internal/domain/pricing"
	"github.com/sheks-house/storefront/internal/domain/product"
	"github.com/sheks-house/storefront/internal/events"
	"github.com/sheks-house/storefront/internal/payment"
)

// Client totals are recomputed server-side; a drift above this many cents
// means the client rendered stale prices and must refresh.
const amountToleranceCents = 100

var (
	// ErrEmptyBasket is returned when checkout starts with no basket lines.
	ErrEmptyBasket = errors.New("basket is empty")
	// ErrAmountMismatch is returned when the client-submitted amount differs
	// from the server-computed total beyond the allowed tolerance.
	ErrAmountMismatch = errors.New("amount mismatch, refresh your basket")
)

// StockError reports a line whose quantity exceeds current stock at capture
// time.
type StockError struct {
	ProductName string
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s, only %d available", e.ProductName, e.Available)
}

// Request is a capture attempt from the client's payment step.
type Request struct {
	UserID          string
	AmountCents     int64
	Currency        string
	PaymentMethodID string
	IdempotencyKey  string
	Delivery        order.Delivery
	PromoCode       string
}

// Result is a completed checkout. CouponDropped is set when the submitted
// promo code no longer validated against the recomputed subtotal and the
// order proceeded without a discount.
type Result struct {
	Order         *order.Order
	Totals        pricing.Totals
	CouponDropped bool
	DeliveryFrom  time.Time
	DeliveryTo    time.Time
}

// Service orchestrates the capture sequence.
type Service struct {
	baskets  *basket.Service
	products product.Repository
	coupons  *coupon.Service
	orders   order.Repository
	payments payment.Provider
	events   events.Publisher
	now      func() time.Time
}

// NewService creates a checkout Service with the required collaborators.
func NewService(
	baskets *basket.Service,
	products product.Repository,
	coupons *coupon.Service,
	orders order.Repository,
	payments payment.Provider,
	publisher events.Publisher,
) *Service {
	return &Service{
		baskets:  baskets,
		products: products,
		coupons:  coupons,
		orders:   orders,
		payments: payments,
		events:   publisher,
		now:      time.Now,
	}
}

// PlaceOrder runs the full capture sequence. The basket rows and catalog
// prices in the database are authoritative: client-submitted subtotal and
// discount are never trusted, only the final amount is compared against the
// recomputed total.
func (s *Service) PlaceOrder(ctx context.Context, req Request) (*Result, error) {
	lines, err := s.baskets.Load(ctx, req.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "load basket")
	}
	if len(lines) == 0 {
		return nil, ErrEmptyBasket
	}

	// The basket may come from the cache, which can hold prices and stock
	// from before a catalog change. Re-read the catalog rows and charge from
	// those; the cached copies are only good for quantities. A product
	// withdrawn since it was added is dropped from the order.
	ids := make([]string, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}
	catalog, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "load catalog rows")
	}
	current := make(map[string]product.Product, len(catalog))
	for _, p := range catalog {
		current[p.ID] = p
	}
	// Loaded lines may be shared with concurrent readers, so build a copy.
	fresh := make([]basket.Line, 0, len(lines))
	for _, line := range lines {
		p, ok := current[line.ProductID]
		if !ok {
			zctx.From(ctx).Warn("Basket line dropped, product withdrawn",
				zap.String("product_id", line.ProductID))
			continue
		}
		line.Name = p.Name
		line.Price = p.Price
		line.Stock = p.Stock
		fresh = append(fresh, line)
	}
	lines = fresh
	if len(lines) == 0 {
		return nil, ErrEmptyBasket
	}

	for _, line := range lines {
		if line.Quantity > line.Stock {
			return nil, &StockError{ProductName: line.Name, Available: line.Stock}
		}
	}

	prices := make(map[string]decimal.Decimal, len(lines))
	priceLines := make([]pricing.Line, len(lines))
	itemCount := 0
	for i, line := range lines {
		prices[line.ProductID] = line.Price
		priceLines[i] = pricing.Line{ProductID: line.ProductID, Quantity: line.Quantity}
		itemCount += line.Quantity
	}

	base, _ := pricing.Compute(priceLines, prices, decimal.Zero)

	// Re-validate the promo code against the server-side subtotal. A stale
	// code is dropped rather than failing the purchase.
	var applied *coupon.Applied
	couponDropped := false
	if req.PromoCode != "" {
		applied, err = s.coupons.Validate(ctx, req.PromoCode, base.Subtotal, itemCount, req.UserID)
		if err != nil {
			if isEligibilityError(err) {
				zctx.From(ctx).Info("Promo code dropped at checkout",
					zap.String("code", req.PromoCode), zap.Error(err))
				couponDropped = true
				applied = nil
			} else {
				return nil, errors.Wrap(err, "validate promo code")
			}
		}
	}

	discount := decimal.Zero
	couponCode := ""
	if applied != nil {
		discount = applied.Amount
		couponCode = applied.Code
	}

	totals, _ := pricing.Compute(priceLines, prices, discount)

	serverCents := totals.TotalCents()
	if diff := serverCents - req.AmountCents; diff > amountToleranceCents || diff < -amountToleranceCents {
		return nil, ErrAmountMismatch
	}

	now := s.now()
	o := &order.Order{
		ID:         uuid.New().String(),
		Number:     NewOrderNumber(now),
		UserID:     req.UserID,
		Status:     order.StatusPaid,
		Subtotal:   totals.Subtotal.Round(2),
		Discount:   totals.Discount.Round(2),
		Taxes:      totals.Taxes.Round(2),
		Total:      totals.Total.Round(2),
		CouponCode: couponCode,
		Delivery:   req.Delivery,
		CreatedAt:  now,
	}
	o.Items = make([]order.Item, len(lines))
	for i, line := range lines {
		o.Items[i] = order.Item{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Quantity:  line.Quantity,
		}
	}

	// Charge with the server-computed amount, not the client's.
	if _, err := s.payments.Capture(ctx, payment.Charge{
		AmountCents:     serverCents,
		Currency:        req.Currency,
		PaymentMethodID: req.PaymentMethodID,
		IdempotencyKey:  req.IdempotencyKey,
		Description:     "Shek's House order " + o.Number,
		ReceiptEmail:    req.Delivery.Email,
	}); err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "persist order")
	}

	// Post-capture steps must not fail the order: the charge already went
	// through. Failures are logged and the response still succeeds.
	if applied != nil {
		if err := s.coupons.RecordUsage(ctx, coupon.Usage{
			CouponID:        applied.CouponID,
			UserID:          req.UserID,
			OrderID:         o.ID,
			OriginalAmount:  o.Subtotal,
			DiscountApplied: o.Discount,
			FinalAmount:     o.Total,
		}); err != nil {
			zctx.From(ctx).Error("Coupon usage recording failed",
				zap.String("order_id", o.ID), zap.Error(err))
		}
	}

	if err := s.baskets.Clear(ctx, req.UserID); err != nil {
		zctx.From(ctx).Error("Basket clear failed",
			zap.String("order_id", o.ID), zap.Error(err))
	}

	if err := s.events.PublishOrderPlaced(ctx, o); err != nil {
		zctx.From(ctx).Error("Order event publish failed",
			zap.String("order_id", o.ID), zap.Error(err))
	}

	from, to := EstimateDelivery(now)
	return &Result{
		Order:         o,
		Totals:        totals,
		CouponDropped: couponDropped,
		DeliveryFrom:  from,
		DeliveryTo:    to,
	}, nil
}

// isEligibilityError reports whether a coupon validation failure is a
// business rejection (drop the code and continue) rather than an
// infrastructure error (abort the checkout).
func isEligibilityError(err error) bool {
	if errors.Is(err, coupon.ErrNotFound) ||
		errors.Is(err, coupon.ErrUsageLimitReached) ||
		errors.Is(err, coupon.ErrNewCustomersOnly) {
		return true
	}
	var (
		belowMin   *coupon.BelowMinimumError
		belowItems *coupon.BelowMinItemsError
		userLimit  *coupon.UserLimitError
		unsupErr   *coupon.UnsupportedTypeError
	)
	return errors.As(err, &belowMin) ||
		errors.As(err, &belowItems) ||
		errors.As(err, &userLimit) ||
		errors.As(err, &unsupErr)
}
