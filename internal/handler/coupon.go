package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/sheks-house/storefront/internal/auth"
	"github.com/sheks-house/storefront/internal/domain/basket"
	"github.com/sheks-house/storefront/internal/domain/coupon"
	"github.com/sheks-house/storefront/internal/domain/pricing"
)

type couponView struct {
	Code        string  `json:"code"`
	Type        string  `json:"type"`
	Value       float64 `json:"value"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// validateCoupon checks a promo code against the caller's current basket.
// Ineligibility is not a transport failure: the response is 200 with
// valid=false and a human-readable reason.
func (h *Handler) validateCoupon(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		respondError(w, r, http.StatusBadRequest, "validation_error", "code is required")
		return
	}

	lines, err := h.baskets.Load(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not load basket")
		return
	}
	subtotal, itemCount := basketSubtotal(lines)

	applied, err := h.coupons.Validate(r.Context(), req.Code, subtotal, itemCount, claims.UserID)
	if err != nil {
		if isCouponRejection(err) {
			respondJSON(w, r, http.StatusOK, map[string]any{
				"valid": false,
				"error": couponRejectionMessage(err),
			})
			return
		}
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not validate coupon")
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{
		"valid": true,
		"coupon": couponView{
			Code:        applied.Code,
			Type:        string(applied.Type),
			Value:       applied.Value.InexactFloat64(),
			Amount:      applied.Amount.Round(2).InexactFloat64(),
			Description: applied.Description,
		},
	})
}

// applyCoupon records a redemption against an order. Checkout does this
// server-side already; the endpoint exists for flows that settle the order
// out of band.
func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req struct {
		Code    string `json:"code"`
		OrderID string `json:"order_id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		respondError(w, r, http.StatusBadRequest, "validation_error", "code is required")
		return
	}

	lines, err := h.baskets.Load(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not load basket")
		return
	}
	subtotal, itemCount := basketSubtotal(lines)

	applied, err := h.coupons.Validate(r.Context(), req.Code, subtotal, itemCount, claims.UserID)
	if err != nil {
		if isCouponRejection(err) {
			respondJSON(w, r, http.StatusOK, map[string]any{
				"valid": false,
				"error": couponRejectionMessage(err),
			})
			return
		}
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not validate coupon")
		return
	}

	usage := coupon.Usage{
		CouponID:        applied.CouponID,
		UserID:          claims.UserID,
		OrderID:         req.OrderID,
		OriginalAmount:  subtotal,
		DiscountApplied: applied.Amount,
		FinalAmount:     subtotal.Sub(applied.Amount),
	}
	if err := h.coupons.RecordUsage(r.Context(), usage); err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not apply coupon")
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{
		"valid":    true,
		"applied":  true,
		"discount": applied.Amount.Round(2).InexactFloat64(),
	})
}

func basketSubtotal(lines []basket.Line) (decimal.Decimal, int) {
	priceLines := make([]pricing.Line, 0, len(lines))
	prices := make(map[string]decimal.Decimal, len(lines))
	itemCount := 0
	for _, l := range lines {
		priceLines = append(priceLines, pricing.Line{ProductID: l.ProductID, Quantity: l.Quantity})
		prices[l.ProductID] = l.Price
		itemCount += l.Quantity
	}
	totals, _ := pricing.Compute(priceLines, prices, decimal.Zero)
	return totals.Subtotal, itemCount
}

// isCouponRejection reports whether err is an eligibility outcome rather
// than an infrastructure failure.
func isCouponRejection(err error) bool {
	var (
		belowMin    *coupon.BelowMinimumError
		belowItems  *coupon.BelowMinItemsError
		userLimit   *coupon.UserLimitError
		unsupported *coupon.UnsupportedTypeError
	)
	return errors.Is(err, coupon.ErrNotFound) ||
		errors.Is(err, coupon.ErrUsageLimitReached) ||
		errors.Is(err, coupon.ErrNewCustomersOnly) ||
		errors.As(err, &belowMin) ||
		errors.As(err, &belowItems) ||
		errors.As(err, &userLimit) ||
		errors.As(err, &unsupported)
}

func couponRejectionMessage(err error) string {
	if errors.Is(err, coupon.ErrNotFound) {
		return "Invalid or expired coupon code"
	}
	return err.Error()
}
