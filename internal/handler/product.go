package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/sheks-house/storefront/internal/domain/product"
)

type productView struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
}

func viewProduct(p *product.Product) productView {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.Round(2).InexactFloat64(),
		Stock:       p.Stock,
		Category:    p.Category,
		Images:      images,
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not list products")
		return
	}

	views := make([]productView, 0, len(products))
	for i := range products {
		views = append(views, viewProduct(&products[i]))
	}
	respondJSON(w, r, http.StatusOK, views)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, product.ErrNotFound) {
		respondError(w, r, http.StatusNotFound, "not_found", "product not found")
		return
	}
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "could not load product")
		return
	}
	respondJSON(w, r, http.StatusOK, viewProduct(p))
}

func (h *Handler) stripeConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{
		"publishableKey": h.stripePublishableKey,
	})
}
