package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/sheks-house/storefront/internal/auth"
	"github.com/sheks-house/storefront/internal/domain/basket"
	"github.com/sheks-house/storefront/internal/domain/product"
)

type basketLineView struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Stock     int     `json:"stock"`
	ImageURL  string  `json:"imageUrl"`
}

func viewBasket(lines []basket.Line) []basketLineView {
	views := make([]basketLineView, 0, len(lines))
	for _, l := range lines {
		views = append(views, basketLineView{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price.Round(2).InexactFloat64(),
			Quantity:  l.Quantity,
			Stock:     l.Stock,
			ImageURL:  l.ImageURL,
		})
	}
	return views
}

func (h *Handler) getBasket(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	lines, err := h.baskets.Load(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not load basket")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"items": viewBasket(lines)})
}

func (h *Handler) addToBasket(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}
	if req.ProductID == "" {
		respondError(w, r, http.StatusBadRequest, "validation_error", "productId is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if err := h.baskets.Add(r.Context(), claims.UserID, req.ProductID, req.Quantity); err != nil {
		h.basketError(w, r, err)
		return
	}

	lines, err := h.baskets.Load(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not load basket")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"success": true, "items": viewBasket(lines)})
}

func (h *Handler) updateBasket(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "validation_error", "invalid request body")
		return
	}
	if req.ProductID == "" {
		respondError(w, r, http.StatusBadRequest, "validation_error", "product_id is required")
		return
	}

	if err := h.baskets.SetQuantity(r.Context(), claims.UserID, req.ProductID, req.Quantity); err != nil {
		h.basketError(w, r, err)
		return
	}

	lines, err := h.baskets.Load(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not load basket")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"success": true, "items": viewBasket(lines)})
}

func (h *Handler) removeFromBasket(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	productID := r.URL.Query().Get("product_id")
	if productID == "" {
		respondError(w, r, http.StatusBadRequest, "validation_error", "product_id is required")
		return
	}

	if err := h.baskets.Remove(r.Context(), claims.UserID, productID); err != nil {
		h.basketError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"success": true, "removed": productID})
}

// basketCount serves the header badge. Auth is optional: an anonymous caller
// may pass ?user_id instead of a bearer token.
func (h *Handler) basketCount(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		userID = claims.UserID
	}
	if userID == "" {
		respondJSON(w, r, http.StatusOK, map[string]int{"itemCount": 0})
		return
	}

	count, err := h.baskets.Count(r.Context(), userID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not count basket")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]int{"itemCount": count})
}

func (h *Handler) basketError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *basket.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		respondError(w, r, http.StatusBadRequest, "insufficient_stock", stockErr.Error())
	case errors.Is(err, basket.ErrLineNotFound):
		respondError(w, r, http.StatusNotFound, "not_found", "item not found in basket")
	case errors.Is(err, product.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, basket.ErrNegativeQuantity), errors.Is(err, basket.ErrInvalidQuantity):
		respondError(w, r, http.StatusBadRequest, "validation_error", err.Error())
	default:
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not update basket")
	}
}
