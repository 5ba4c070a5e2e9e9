package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_IssueAndVerify(t *testing.T) {
	tokens := NewTokens([]byte("test-secret"))

	signed, err := tokens.Issue("u1", "a@example.com", "customer")
	require.NoError(t, err)

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.Equal(t, "customer", claims.Role)
}

func TestTokens_WrongSecret(t *testing.T) {
	signed, err := NewTokens([]byte("secret-a")).Issue("u1", "a@example.com", "customer")
	require.NoError(t, err)

	_, err = NewTokens([]byte("secret-b")).Verify(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_Expired(t *testing.T) {
	tokens := NewTokens([]byte("test-secret"))
	tokens.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }

	signed, err := tokens.Issue("u1", "a@example.com", "customer")
	require.NoError(t, err)

	_, err = NewTokens([]byte("test-secret")).Verify(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware_Require(t *testing.T) {
	tokens := NewTokens([]byte("test-secret"))
	mw := NewMiddleware(tokens)

	var gotClaims *Claims
	handler := mw.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"auth_required"}`, w.Body.String())
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		signed, err := tokens.Issue("u1", "a@example.com", "customer")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, gotClaims)
		assert.Equal(t, "u1", gotClaims.UserID)
	})
}

func TestMiddleware_RequireAdmin(t *testing.T) {
	tokens := NewTokens([]byte("test-secret"))
	mw := NewMiddleware(tokens)

	handler := mw.RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	customerToken, err := tokens.Issue("u1", "a@example.com", "customer")
	require.NoError(t, err)
	adminToken, err := tokens.Issue("u2", "admin@example.com", "admin")
	require.NoError(t, err)

	t.Run("customer is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+customerToken)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"forbidden"}`, w.Body.String())
	})

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
