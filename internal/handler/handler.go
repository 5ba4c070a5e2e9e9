package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sheks-house/storefront/internal/auth"
	"github.com/sheks-house/storefront/internal/domain/basket"
	"github.com/sheks-house/storefront/internal/domain/checkout"
	"github.com/sheks-house/storefront/internal/domain/coupon"
	"github.com/sheks-house/storefront/internal/domain/order"
	"github.com/sheks-house/storefront/internal/domain/product"
	"github.com/sheks-house/storefront/internal/domain/user"
)

// Handler exposes the storefront API over HTTP.
type Handler struct {
	products product.Repository
	baskets  *basket.Service
	coupons  *coupon.Service
	checkout *checkout.Service
	users    user.Repository
	orders   order.Repository
	tokens   *auth.Tokens
	authmw   *auth.Middleware

	stripePublishableKey string
}

// Config collects the Handler's collaborators.
type Config struct {
	Products product.Repository
	Baskets  *basket.Service
	Coupons  *coupon.Service
	Checkout *checkout.Service
	Users    user.Repository
	Orders   order.Repository
	Tokens   *auth.Tokens

	StripePublishableKey string
}

// New creates a Handler from its collaborators.
func New(cfg Config) *Handler {
	return &Handler{
		products:             cfg.Products,
		baskets:              cfg.Baskets,
		coupons:              cfg.Coupons,
		checkout:             cfg.Checkout,
		users:                cfg.Users,
		orders:               cfg.Orders,
		tokens:               cfg.Tokens,
		authmw:               auth.NewMiddleware(cfg.Tokens),
		stripePublishableKey: cfg.StripePublishableKey,
	}
}

// Routes builds the API router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Post("/users/register", h.register)
		r.Post("/users/login", h.login)

		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Get("/stripe-config", h.stripeConfig)

		r.With(h.authmw.Optional).Get("/basket/count", h.basketCount)

		r.Group(func(r chi.Router) {
			r.Use(h.authmw.Require)

			r.Get("/basket", h.getBasket)
			r.Post("/basket", h.addToBasket)
			r.Put("/basket", h.updateBasket)
			r.Delete("/basket", h.removeFromBasket)

			r.Post("/coupons/validate", h.validateCoupon)
			r.Post("/coupons/apply", h.applyCoupon)

			r.Post("/payment", h.payment)
			r.Get("/orders", h.listOrders)
		})
	})

	return r
}
