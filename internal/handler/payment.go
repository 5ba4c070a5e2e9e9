package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/sheks-house/storefront/internal/auth"
	"github.com/sheks-house/storefront/internal/domain/checkout"
	"github.com/sheks-house/storefront/internal/domain/order"
	"github.com/sheks-house/storefront/internal/payment"
)

type paymentRequest struct {
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	PaymentMethodID string `json:"paymentMethodId"`
	PromoCode       string `json:"promoCode"`
	Delivery        struct {
		Name       string `json:"name"`
		Surname    string `json:"surname"`
		Address    string `json:"address"`
		City       string `json:"city"`
		PostalCode string `json:"postalCode"`
		Phone      string `json:"phone"`
		Email      string `json:"email"`
	} `json:"delivery"`
}

type orderView struct {
	Success       bool    `json:"success"`
	OrderID       string  `json:"orderId"`
	OrderNumber   string  `json:"orderNumber"`
	Status        string  `json:"status"`
	Subtotal      float64 `json:"subtotal"`
	Discount      float64 `json:"discount"`
	Taxes         float64 `json:"taxes"`
	Total         float64 `json:"total"`
	CouponCode    string  `json:"couponCode,omitempty"`
	CouponDropped bool    `json:"couponDropped,omitempty"`
	DeliveryFrom  string  `json:"deliveryFrom"`
	DeliveryTo    string  `json:"deliveryTo"`
}

func (h *Handler) payment(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}
	if req.PaymentMethodID == "" {
		respondError(w, r, http.StatusBadRequest, "validation_error", "paymentMethodId is required")
		return
	}
	if req.Delivery.Name == "" || req.Delivery.Address == "" || req.Delivery.City == "" {
		respondError(w, r, http.StatusBadRequest, "validation_error", "delivery name, address and city are required")
		return
	}

	result, err := h.checkout.PlaceOrder(r.Context(), checkout.Request{
		UserID:          claims.UserID,
		AmountCents:     req.Amount,
		Currency:        req.Currency,
		PaymentMethodID: req.PaymentMethodID,
		IdempotencyKey:  r.Header.Get("Idempotency-Key"),
		PromoCode:       req.PromoCode,
		Delivery: order.Delivery{
			Name:       req.Delivery.Name,
			Surname:    req.Delivery.Surname,
			Address:    req.Delivery.Address,
			City:       req.Delivery.City,
			PostalCode: req.Delivery.PostalCode,
			Phone:      req.Delivery.Phone,
			Email:      req.Delivery.Email,
		},
	})
	if err != nil {
		h.paymentError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusOK, orderView{
		Success:       true,
		OrderID:       result.Order.Number,
		OrderNumber:   result.Order.Number,
		Status:        result.Order.Status,
		Subtotal:      result.Totals.Subtotal.Round(2).InexactFloat64(),
		Discount:      result.Totals.Discount.Round(2).InexactFloat64(),
		Taxes:         result.Totals.Taxes.Round(2).InexactFloat64(),
		Total:         result.Totals.Total.Round(2).InexactFloat64(),
		CouponCode:    result.Order.CouponCode,
		CouponDropped: result.CouponDropped,
		DeliveryFrom:  result.DeliveryFrom.Format(time.DateOnly),
		DeliveryTo:    result.DeliveryTo.Format(time.DateOnly),
	})
}

func (h *Handler) paymentError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		declined *payment.DeclinedError
		stock    *checkout.StockError
	)
	switch {
	case errors.Is(err, checkout.ErrEmptyBasket):
		respondError(w, r, http.StatusBadRequest, "validation_error", "basket is empty")
	case errors.Is(err, checkout.ErrAmountMismatch):
		respondError(w, r, http.StatusBadRequest, "validation_error", "payment amount does not match order total")
	case errors.As(err, &stock):
		respondError(w, r, http.StatusBadRequest, "insufficient_stock", stock.Error())
	case errors.As(err, &declined):
		respondError(w, r, http.StatusPaymentRequired, "payment_declined", declined.Message)
	default:
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not process payment")
	}
}
