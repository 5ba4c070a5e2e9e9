package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCouponRepo struct {
	rule      *Rule
	err       error
	userUses  int
	usagesErr error
	recorded  []Usage
}

func (m *mockCouponRepo) FindByCode(_ context.Context, _ string) (*Rule, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rule, nil
}

func (m *mockCouponRepo) CountUsageByUser(_ context.Context, _, _ string) (int, error) {
	return m.userUses, m.usagesErr
}

func (m *mockCouponRepo) RecordUsage(_ context.Context, u Usage) error {
	m.recorded = append(m.recorded, u)
	return nil
}

type mockOrderCounter struct {
	count int
	err   error
}

func (m *mockOrderCounter) CountByUser(_ context.Context, _ string) (int, error) {
	return m.count, m.err
}

func newTestService(repo *mockCouponRepo, orders *mockOrderCounter, now time.Time) *Service {
	s := NewService(repo, orders)
	s.now = func() time.Time { return now }
	return s
}

func TestService_Validate(t *testing.T) {
	fixedNow := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := fixedNow.Add(-48 * time.Hour)
	future := fixedNow.Add(48 * time.Hour)

	activeRule := func() *Rule {
		return &Rule{
			ID: "c1", Code: "SHEK20", Type: TypePercentage,
			Value: dec("20"), MinPurchase: dec("50"),
			MaxDiscount: decPtr("100"), Active: true,
		}
	}

	tests := []struct {
		name       string
		repo       *mockCouponRepo
		orders     *mockOrderCounter
		code       string
		cartTotal  decimal.Decimal
		itemCount  int
		wantAmount decimal.Decimal
		wantErr    error
	}{
		{
			name:       "valid percentage coupon",
			repo:       &mockCouponRepo{rule: activeRule()},
			code:       "SHEK20",
			cartTotal:  dec("100.00"),
			itemCount:  2,
			wantAmount: dec("20.00"),
		},
		{
			name:       "code normalized before lookup",
			repo:       &mockCouponRepo{rule: activeRule()},
			code:       "  shek 20 ",
			cartTotal:  dec("100.00"),
			itemCount:  2,
			wantAmount: dec("20.00"),
		},
		{
			name:      "unknown code",
			repo:      &mockCouponRepo{err: ErrNotFound},
			code:      "BOGUS",
			cartTotal: dec("100.00"),
			itemCount: 1,
			wantErr:   ErrNotFound,
		},
		{
			name:      "empty code",
			repo:      &mockCouponRepo{rule: activeRule()},
			code:      "   ",
			cartTotal: dec("100.00"),
			itemCount: 1,
			wantErr:   ErrNotFound,
		},
		{
			name: "inactive coupon",
			repo: &mockCouponRepo{rule: &Rule{
				ID: "c1", Code: "OLD", Type: TypePercentage, Value: dec("10"),
			}},
			code:      "OLD",
			cartTotal: dec("100.00"),
			itemCount: 1,
			wantErr:   ErrNotFound,
		},
		{
			name: "not yet started",
			repo: &mockCouponRepo{rule: &Rule{
				ID: "c1", Code: "SOON", Type: TypePercentage, Value: dec("10"),
				Active: true, StartDate: &future,
			}},
			code:      "SOON",
			cartTotal: dec("100.00"),
			itemCount: 1,
			wantErr:   ErrNotFound,
		},
		{
			name: "expired",
			repo: &mockCouponRepo{rule: &Rule{
				ID: "c1", Code: "GONE", Type: TypePercentage, Value: dec("10"),
				Active: true, EndDate: &past,
			}},
			code:      "GONE",
			cartTotal: dec("100.00"),
			itemCount: 1,
			wantErr:   ErrNotFound,
		},
		{
			name: "total usage limit reached",
			repo: &mockCouponRepo{rule: &Rule{
				ID: "c1", Code: "CAPPED", Type: TypePercentage, Value: dec("10"),
				Active: true, MaxTotalUses: 100, CurrentUses: 100,
			}},
			code:      "CAPPED",
			cartTotal: dec("100.00"),
			itemCount: 1,
			wantErr:   ErrUsageLimitReached,
		},
		{
			name: "per-user limit reached",
			repo: &mockCouponRepo{
				rule: &Rule{
					ID: "c1", Code: "ONCE", Type: TypePercentage, Value: dec("10"),
					Active: true, MaxUsesPerUser: 1,
				},
				userUses: 1,
			},
			code:      "ONCE",
			cartTotal: dec("100.00"),
			itemCount: 1,
			wantErr:   &UserLimitError{Used: 1, Max: 1},
		},
		{
			name: "new customers only rejects returning customer",
			repo: &mockCouponRepo{rule: &Rule{
				ID: "c1", Code: "WELCOME", Type: TypePercentage, Value: dec("10"),
				Active: true, NewCustomersOnly: true,
			}},
			orders:    &mockOrderCounter{count: 2},
			code:      "WELCOME",
			cartTotal: dec("100.00"),
			itemCount: 1,
			wantErr:   ErrNewCustomersOnly,
		},
		{
			name: "new customers only accepts first order",
			repo: &mockCouponRepo{rule: &Rule{
				ID: "c1", Code: "WELCOME", Type: TypePercentage, Value: dec("10"),
				Active: true, NewCustomersOnly: true,
			}},
			orders:     &mockOrderCounter{count: 0},
			code:       "WELCOME",
			cartTotal:  dec("100.00"),
			itemCount:  1,
			wantAmount: dec("10.00"),
		},
		{
			name:      "below minimum purchase",
			repo:      &mockCouponRepo{rule: activeRule()},
			code:      "SHEK20",
			cartTotal: dec("20.00"),
			itemCount: 1,
			wantErr:   &BelowMinimumError{Required: dec("50")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := tt.orders
			if orders == nil {
				orders = &mockOrderCounter{}
			}
			svc := newTestService(tt.repo, orders, fixedNow)

			applied, err := svc.Validate(context.Background(), tt.code, tt.cartTotal, tt.itemCount, "u1")

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr.Error(), err.Error())
				assert.Empty(t, tt.repo.recorded, "validation must not record usage")
				return
			}

			require.NoError(t, err)
			assert.True(t, applied.Amount.Equal(tt.wantAmount),
				"amount = %s, want %s", applied.Amount, tt.wantAmount)
			assert.Empty(t, tt.repo.recorded, "validation must not record usage")
		})
	}
}

func TestService_RecordUsage(t *testing.T) {
	repo := &mockCouponRepo{}
	svc := NewService(repo, &mockOrderCounter{})

	u := Usage{
		CouponID: "c1", UserID: "u1", OrderID: "o1",
		OriginalAmount:  dec("100.00"),
		DiscountApplied: dec("20.00"),
		FinalAmount:     dec("91.98"),
	}
	require.NoError(t, svc.RecordUsage(context.Background(), u))
	require.Len(t, repo.recorded, 1)
	assert.Equal(t, "o1", repo.recorded[0].OrderID)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "SHEK20", NormalizeCode(" shek 20\t"))
	assert.Equal(t, "", NormalizeCode("   "))
}
