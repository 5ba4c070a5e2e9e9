package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheks-house/storefront/internal/auth"
	"github.com/sheks-house/storefront/internal/cache"
	"github.com/sheks-house/storefront/internal/domain/basket"
	"github.com/sheks-house/storefront/internal/domain/checkout"
	"github.com/sheks-house/storefront/internal/domain/coupon"
	"github.com/sheks-house/storefront/internal/domain/order"
	"github.com/sheks-house/storefront/internal/domain/product"
	"github.com/sheks-house/storefront/internal/domain/user"
	"github.com/sheks-house/storefront/internal/events"
	"github.com/sheks-house/storefront/internal/payment"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID map[string]*product.Product
}

func (m *mockProductRepo) List(_ context.Context, category string) ([]product.Product, error) {
	var out []product.Product
	for _, p := range m.byID {
		if category == "" || p.Category == category {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

type mockBasketRepo struct {
	products *mockProductRepo
	lines    map[string]map[string]int // userID -> productID -> qty
}

func newMockBasketRepo(products *mockProductRepo) *mockBasketRepo {
	return &mockBasketRepo{products: products, lines: make(map[string]map[string]int)}
}

func (m *mockBasketRepo) user(userID string) map[string]int {
	if m.lines[userID] == nil {
		m.lines[userID] = make(map[string]int)
	}
	return m.lines[userID]
}

func (m *mockBasketRepo) List(_ context.Context, userID string) ([]basket.Line, error) {
	var out []basket.Line
	for id, qty := range m.user(userID) {
		p := m.products.byID[id]
		out = append(out, basket.Line{
			ProductID: id,
			Quantity:  qty,
			Name:      p.Name,
			Price:     p.Price,
			Stock:     p.Stock,
		})
	}
	return out, nil
}

func (m *mockBasketRepo) Quantity(_ context.Context, userID, productID string) (int, error) {
	return m.user(userID)[productID], nil
}

func (m *mockBasketRepo) Upsert(_ context.Context, userID, productID string, qty int) error {
	m.user(userID)[productID] += qty
	return nil
}

func (m *mockBasketRepo) SetQuantity(_ context.Context, userID, productID string, qty int) error {
	m.user(userID)[productID] = qty
	return nil
}

func (m *mockBasketRepo) Delete(_ context.Context, userID, productID string) error {
	if _, ok := m.user(userID)[productID]; !ok {
		return basket.ErrLineNotFound
	}
	delete(m.user(userID), productID)
	return nil
}

func (m *mockBasketRepo) DeleteAll(_ context.Context, userID string) error {
	m.lines[userID] = make(map[string]int)
	return nil
}

type mockCouponRepo struct {
	rules  map[string]*coupon.Rule // uppercase code -> rule
	usages []coupon.Usage
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*coupon.Rule, error) {
	r, ok := m.rules[strings.ToUpper(code)]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return r, nil
}

func (m *mockCouponRepo) CountUsageByUser(_ context.Context, couponID, userID string) (int, error) {
	count := 0
	for _, u := range m.usages {
		if u.CouponID == couponID && u.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *mockCouponRepo) RecordUsage(_ context.Context, u coupon.Usage) error {
	m.usages = append(m.usages, u)
	return nil
}

type mockOrderRepo struct {
	orders []order.Order
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	m.orders = append(m.orders, *o)
	return nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]order.Order, error) {
	var out []order.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) CountByUser(_ context.Context, userID string) (int, error) {
	count := 0
	for _, o := range m.orders {
		if o.UserID == userID {
			count++
		}
	}
	return count, nil
}

type mockUserRepo struct {
	byEmail map[string]*user.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byEmail: make(map[string]*user.User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *user.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return user.ErrEmailTaken
	}
	m.byEmail[u.Email] = u
	return nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

type mockProvider struct {
	err      error
	captured []payment.Charge
}

func (m *mockProvider) Capture(_ context.Context, c payment.Charge) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.captured = append(m.captured, c)
	return "pi_test_123", nil
}

// --- Fixture ---

type fixture struct {
	router   http.Handler
	tokens   *auth.Tokens
	baskets  *mockBasketRepo
	coupons  *mockCouponRepo
	orders   *mockOrderRepo
	provider *mockProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	products := &mockProductRepo{byID: map[string]*product.Product{
		"p1": {ID: "p1", Name: "Ceramic Vase", Price: decimal.NewFromInt(50), Stock: 10, Category: "decor"},
		"p2": {ID: "p2", Name: "Linen Throw", Price: decimal.RequireFromString("25.50"), Stock: 2, Category: "textiles"},
	}}
	basketRepo := newMockBasketRepo(products)
	basketSvc := basket.NewService(basketRepo, products, cache.Nop{})

	maxDiscount := decimal.NewFromInt(30)
	couponRepo := &mockCouponRepo{rules: map[string]*coupon.Rule{
		"SHEK20": {
			ID:          "c1",
			Code:        "SHEK20",
			Type:        coupon.TypePercentage,
			Value:       decimal.NewFromInt(20),
			MinPurchase: decimal.NewFromInt(50),
			MaxDiscount: &maxDiscount,
			Description: "20% off orders over $50",
			Active:      true,
		},
	}}
	orderRepo := &mockOrderRepo{}
	couponSvc := coupon.NewService(couponRepo, orderRepo)
	provider := &mockProvider{}
	checkoutSvc := checkout.NewService(basketSvc, products, couponSvc, orderRepo, provider, events.Nop{})

	tokens := auth.NewTokens([]byte("test-secret"))
	h := New(Config{
		Products:             products,
		Baskets:              basketSvc,
		Coupons:              couponSvc,
		Checkout:             checkoutSvc,
		Users:                newMockUserRepo(),
		Orders:               orderRepo,
		Tokens:               tokens,
		StripePublishableKey: "pk_test_abc",
	})

	return &fixture{
		router:   h.Routes(),
		tokens:   tokens,
		baskets:  basketRepo,
		coupons:  couponRepo,
		orders:   orderRepo,
		provider: provider,
	}
}

func (f *fixture) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := f.tokens.Issue(userID, userID+"@example.com", user.RoleCustomer)
	require.NoError(t, err)
	return token
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// --- Tests ---

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"email":    "anna@example.com",
		"password": "supersecret",
		"name":     "Anna",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["token"])

	rec = f.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"email":    "anna@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.NotEmpty(t, body["token"])
}

func TestLogin_WrongPassword(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"email":    "anna@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"email":    "anna@example.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeBody(t, rec)["error"])
}

func TestLogin_UnknownEmailSameResponse(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/users/login", "", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever123",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeBody(t, rec)["error"])
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)

	body := map[string]string{"email": "anna@example.com", "password": "supersecret"}
	rec := f.do(t, http.MethodPost, "/api/users/register", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/users/register", "", body)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_RejectsShortPassword(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/users/register", "", map[string]string{
		"email":    "anna@example.com",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeBody(t, rec)["error"])
}

func TestBasket_RequiresAuth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/basket", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "auth_required", decodeBody(t, rec)["error"])
}

func TestBasket_AddAndGet(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u1")

	rec := f.do(t, http.MethodPost, "/api/basket", token, map[string]any{
		"productId": "p1",
		"quantity":  2,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])

	rec = f.do(t, http.MethodGet, "/api/basket", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	items := decodeBody(t, rec)["items"].([]any)
	require.Len(t, items, 1)
	line := items[0].(map[string]any)
	assert.Equal(t, "p1", line["productId"])
	assert.Equal(t, float64(2), line["quantity"])
	assert.Equal(t, float64(50), line["price"])

	rec = f.do(t, http.MethodDelete, "/api/basket?product_id=p1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "p1", body["removed"])
}

func TestBasket_AddDefaultsToOne(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u1")

	rec := f.do(t, http.MethodPost, "/api/basket", token, map[string]any{"productId": "p1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.baskets.lines["u1"]["p1"])
}

func TestBasket_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u1")

	// p2 has stock 2.
	rec := f.do(t, http.MethodPost, "/api/basket", token, map[string]any{
		"productId": "p2",
		"quantity":  3,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "insufficient_stock", decodeBody(t, rec)["error"])
}

func TestBasket_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u1")

	rec := f.do(t, http.MethodPost, "/api/basket", token, map[string]any{
		"productId": "missing",
		"quantity":  1,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBasket_UpdateZeroRemovesLine(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u1")

	rec := f.do(t, http.MethodPost, "/api/basket", token, map[string]any{"productId": "p1", "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/basket", token, map[string]any{"product_id": "p1", "quantity": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["success"])
	assert.Empty(t, f.baskets.lines["u1"])
}

func TestBasket_NegativeQuantityRejected(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u1")

	rec := f.do(t, http.MethodPut, "/api/basket", token, map[string]any{"product_id": "p1", "quantity": -1})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeBody(t, rec)["error"])
}

func TestBasket_RemoveMissingLine(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u1")

	rec := f.do(t, http.MethodDelete, "/api/basket?product_id=p1", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBasketCount(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u1")

	rec := f.do(t, http.MethodPost, "/api/basket", token, map[string]any{"productId": "p1", "quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("authenticated", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/basket/count", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(3), decodeBody(t, rec)["itemCount"])
	})

	t.Run("anonymous with user_id", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/basket/count?user_id=u1", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(3), decodeBody(t, rec)["itemCount"])
	})

	t.Run("anonymous without user_id", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/basket/count", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(0), decodeBody(t, rec)["itemCount"])
	})
}

func TestProducts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var products []productView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	assert.Len(t, products, 2)

	rec = f.do(t, http.MethodGet, "/api/products?category=decor", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "p1", products[0].ID)

	rec = f.do(t, http.MethodGet, "/api/products/p2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Linen Throw", decodeBody(t, rec)["name"])

	rec = f.do(t, http.MethodGet, "/api/products/nope", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStripeConfig(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/stripe-config", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pk_test_abc", decodeBody(t, rec)["publishableKey"])
}

func TestCouponValidate(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u1")

	// $100 basket qualifies for SHEK20.
	rec := f.do(t, http.MethodPost, "/api/basket", token, map[string]any{"productId": "p1", "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("valid code", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/coupons/validate", token, map[string]string{"code": "shek20"})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		require.Equal(t, true, body["valid"])
		c := body["coupon"].(map[string]any)
		assert.Equal(t, "SHEK20", c["code"])
		assert.Equal(t, float64(20), c["amount"])
	})

	t.Run("unknown code", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/coupons/validate", token, map[string]string{"code": "NOPE"})
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, false, body["valid"])
		assert.Equal(t, "Invalid or expired coupon code", body["error"])
	})

	t.Run("requires auth", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/coupons/validate", "", map[string]string{"code": "SHEK20"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("validation never records usage", func(t *testing.T) {
		assert.Empty(t, f.coupons.usages)
	})
}

func TestCouponValidate_BelowMinimum(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u1")

	// $25.50 basket is below the $50 minimum.
	rec := f.do(t, http.MethodPost, "/api/basket", token, map[string]any{"productId": "p2", "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/coupons/validate", token, map[string]string{"code": "SHEK20"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.Contains(t, body["error"], "50")
}

func paymentBody(amount int64, promo string) map[string]any {
	return map[string]any{
		"amount":          amount,
		"currency":        "cad",
		"paymentMethodId": "pm_card_visa",
		"promoCode":       promo,
		"delivery": map[string]string{
			"name":       "Anna",
			"surname":    "Tremblay",
			"address":    "12 Rue Saint-Paul",
			"city":       "Montreal",
			"postalCode": "H2Y 1G6",
		},
	}
}

func TestPayment_Success(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u1")

	rec := f.do(t, http.MethodPost, "/api/basket", token, map[string]any{"productId": "p1", "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)

	// subtotal 100.00, taxes 14.98, total 114.98
	rec = f.do(t, http.MethodPost, "/api/payment", token, paymentBody(11498, ""))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.True(t, strings.HasPrefix(body["orderNumber"].(string), "#SH-"))
	assert.Equal(t, body["orderNumber"], body["orderId"])
	assert.Equal(t, float64(100), body["subtotal"])
	assert.Equal(t, 114.98, body["total"])
	assert.NotEmpty(t, body["deliveryFrom"])
	assert.NotEmpty(t, body["deliveryTo"])

	require.Len(t, f.orders.orders, 1)
	assert.Empty(t, f.baskets.lines["u1"], "basket is cleared after capture")
	require.Len(t, f.provider.captured, 1)
	assert.Equal(t, int64(11498), f.provider.captured[0].AmountCents)
}

func TestPayment_WithCoupon(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u1")

	rec := f.do(t, http.MethodPost, "/api/basket", token, map[string]any{"productId": "p1", "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)

	// subtotal 100, discount 20, taxes 11.98, total 91.98
	rec = f.do(t, http.MethodPost, "/api/payment", token, paymentBody(9198, "SHEK20"))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, float64(20), body["discount"])
	assert.Equal(t, 91.98, body["total"])
	assert.Equal(t, "SHEK20", body["couponCode"])
	require.Len(t, f.coupons.usages, 1)
}

func TestPayment_AmountMismatch(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u1")

	rec := f.do(t, http.MethodPost, "/api/basket", token, map[string]any{"productId": "p1", "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/payment", token, paymentBody(5000, ""))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeBody(t, rec)["error"])
	assert.Empty(t, f.orders.orders)
}

func TestPayment_Declined(t *testing.T) {
	f := newFixture(t)
	f.provider.err = &payment.DeclinedError{Message: "Your card was declined."}
	token := f.token(t, "u1")

	rec := f.do(t, http.MethodPost, "/api/basket", token, map[string]any{"productId": "p1", "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/payment", token, paymentBody(11498, ""))
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "payment_declined", body["error"])
	assert.Equal(t, "Your card was declined.", body["message"])
	assert.Empty(t, f.orders.orders)
	assert.NotEmpty(t, f.baskets.lines["u1"], "basket is kept after a decline")
}

func TestPayment_EmptyBasket(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u1")

	rec := f.do(t, http.MethodPost, "/api/payment", token, paymentBody(1000, ""))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, "u1")

	rec := f.do(t, http.MethodPost, "/api/basket", token, map[string]any{"productId": "p1", "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/payment", token, paymentBody(5749, ""))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/orders", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	orders := decodeBody(t, rec)["orders"].([]any)
	require.Len(t, orders, 1)
	o := orders[0].(map[string]any)
	assert.Equal(t, "paid", o["status"])

	// Other users see nothing.
	rec = f.do(t, http.MethodGet, "/api/orders", f.token(t, "u2"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody(t, rec)["orders"])
}
