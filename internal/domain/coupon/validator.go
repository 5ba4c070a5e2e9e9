package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Validator validates a promo code against a cart and returns the computed
// discount.
type Validator interface {
	Validate(ctx context.Context, code string, cartTotal decimal.Decimal, itemCount int, userID string) (*Applied, error)
}

// Service implements Validator by looking up rules from a Repository and
// applying eligibility checks in order: existence and validity window, total
// usage limit, per-user limit, new-customer restriction, then the discount
// computation itself.
type Service struct {
	repo   Repository
	orders OrderCounter
	now    func() time.Time
}

var _ Validator = (*Service)(nil)

// NewService creates a coupon Service backed by the given repositories.
func NewService(repo Repository, orders OrderCounter) *Service {
	return &Service{repo: repo, orders: orders, now: time.Now}
}

// NormalizeCode uppercases a code and strips all whitespace, matching how
// codes are stored.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

// Validate checks a code against the cart subtotal and item count for the
// given user. Eligibility failures come back as the package's typed errors;
// anything else is an infrastructure failure.
func (s *Service) Validate(ctx context.Context, code string, cartTotal decimal.Decimal, itemCount int, userID string) (*Applied, error) {
	clean := NormalizeCode(code)
	if clean == "" {
		return nil, ErrNotFound
	}

	rule, err := s.repo.FindByCode(ctx, clean)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	now := s.now()
	if !rule.Active {
		return nil, ErrNotFound
	}
	if rule.StartDate != nil && now.Before(*rule.StartDate) {
		return nil, ErrNotFound
	}
	if rule.EndDate != nil && now.After(*rule.EndDate) {
		return nil, ErrNotFound
	}

	if rule.MaxTotalUses > 0 && rule.CurrentUses >= rule.MaxTotalUses {
		return nil, ErrUsageLimitReached
	}

	if rule.MaxUsesPerUser > 0 {
		used, err := s.repo.CountUsageByUser(ctx, rule.ID, userID)
		if err != nil {
			return nil, errors.Wrap(err, "count coupon usage")
		}
		if used >= rule.MaxUsesPerUser {
			return nil, &UserLimitError{Used: used, Max: rule.MaxUsesPerUser}
		}
	}

	if rule.NewCustomersOnly {
		orders, err := s.orders.CountByUser(ctx, userID)
		if err != nil {
			return nil, errors.Wrap(err, "count user orders")
		}
		if orders > 0 {
			return nil, ErrNewCustomersOnly
		}
	}

	return Apply(rule, cartTotal, itemCount)
}

// RecordUsage stages a redemption after the order has been captured. It is
// deliberately not part of Validate: validation must stay side-effect free so
// clients can re-validate on every cart change.
func (s *Service) RecordUsage(ctx context.Context, u Usage) error {
	if err := s.repo.RecordUsage(ctx, u); err != nil {
		return errors.Wrap(err, "record coupon usage")
	}
	return nil
}
