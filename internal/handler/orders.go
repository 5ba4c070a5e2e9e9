package handler

import (
	"net/http"
	"time"

	"github.com/sheks-house/storefront/internal/auth"
	"github.com/sheks-house/storefront/internal/domain/order"
)

type orderItemView struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type orderHistoryView struct {
	OrderNumber string          `json:"orderNumber"`
	Status      string          `json:"status"`
	Subtotal    float64         `json:"subtotal"`
	Discount    float64         `json:"discount"`
	Taxes       float64         `json:"taxes"`
	Total       float64         `json:"total"`
	CouponCode  string          `json:"couponCode,omitempty"`
	Items       []orderItemView `json:"items"`
	CreatedAt   string          `json:"createdAt"`
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	orders, err := h.orders.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not list orders")
		return
	}

	views := make([]orderHistoryView, 0, len(orders))
	for i := range orders {
		views = append(views, viewOrderHistory(&orders[i]))
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"orders": views})
}

func viewOrderHistory(o *order.Order) orderHistoryView {
	items := make([]orderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemView{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price.Round(2).InexactFloat64(),
			Quantity:  it.Quantity,
		})
	}
	return orderHistoryView{
		OrderNumber: o.Number,
		Status:      o.Status,
		Subtotal:    o.Subtotal.Round(2).InexactFloat64(),
		Discount:    o.Discount.Round(2).InexactFloat64(),
		Taxes:       o.Taxes.Round(2).InexactFloat64(),
		Total:       o.Total.Round(2).InexactFloat64(),
		CouponCode:  o.CouponCode,
		Items:       items,
		CreatedAt:   o.CreatedAt.Format(time.RFC3339),
	}
}
