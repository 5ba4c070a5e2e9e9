// Package auth issues and verifies the JWT bearer tokens that protect the
// basket, coupon, and payment endpoints.
package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-faster/errors"
)

// TokenTTL is how long an issued token stays valid. There is no refresh
// flow: an expired token forces a fresh login.
const TokenTTL = 24 * time.Hour

// ErrInvalidToken is returned when a token fails parsing, signature
// verification, or has expired.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the JWT claims embedded in every issued token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// Tokens signs and verifies HS256 tokens with a shared secret.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

// NewTokens creates a token signer/verifier with the given HMAC secret.
func NewTokens(secret []byte) *Tokens {
	return &Tokens{secret: secret, now: time.Now}
}

// Issue signs a token for the given account.
func (t *Tokens) Issue(userID, email, role string) (string, error) {
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  t.now().Unix(),
			ExpiresAt: t.now().Add(TokenTTL).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Verify parses and validates a token string, returning its claims.
func (t *Tokens) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
