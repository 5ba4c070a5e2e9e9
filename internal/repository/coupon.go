package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sheks-house/storefront/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT coupon_id, code, name, discount_type, discount_value,
			min_purchase_amount, min_items, max_discount_amount, description,
			active, start_date, end_date, max_total_uses, max_uses_per_user,
			current_uses, new_customers_only
		FROM coupons WHERE UPPER(code) = UPPER($1)`

	countUsageByUserSQL = `SELECT COUNT(*) FROM coupon_usage
		WHERE coupon_id = $1 AND user_id = $2`

	insertUsageSQL = `INSERT INTO coupon_usage
			(usage_id, coupon_id, user_id, order_id, original_amount, discount_applied, final_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	incrementUsesSQL = `UPDATE coupons SET current_uses = current_uses + 1
		WHERE coupon_id = $1`

	upsertCouponSQL = `INSERT INTO coupons (coupon_id, code, name, discount_type, discount_value,
			min_purchase_amount, min_items, max_discount_amount, description, active,
			max_uses_per_user, new_customers_only)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			discount_value = EXCLUDED.discount_value,
			min_purchase_amount = EXCLUDED.min_purchase_amount,
			min_items = EXCLUDED.min_items,
			max_discount_amount = EXCLUDED.max_discount_amount,
			description = EXCLUDED.description,
			active = EXCLUDED.active`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its code, case-insensitively.
// Returns coupon.ErrNotFound when no rule exists; activity and date window
// checks stay in the domain layer so they share one clock.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Rule, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}

	rule, err := pgx.CollectExactlyOneRow(rows, scanCouponRule)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon by code %q: %w", code, err)
	}
	return &rule, nil
}

// CountUsageByUser returns how many times a user has redeemed a coupon.
func (r *CouponRepository) CountUsageByUser(ctx context.Context, couponID, userID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, countUsageByUserSQL, couponID, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting coupon usage: %w", err)
	}
	return count, nil
}

// RecordUsage inserts a usage row and bumps the coupon's use counter in one
// transaction.
func (r *CouponRepository) RecordUsage(ctx context.Context, u coupon.Usage) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("recording coupon usage: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, insertUsageSQL,
		uuid.New().String(), u.CouponID, u.UserID, u.OrderID,
		u.OriginalAmount, u.DiscountApplied, u.FinalAmount); err != nil {
		return fmt.Errorf("inserting coupon usage: %w", err)
	}

	if _, err := tx.Exec(ctx, incrementUsesSQL, u.CouponID); err != nil {
		return fmt.Errorf("incrementing coupon uses: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("recording coupon usage: %w", err)
	}
	return nil
}

// Upsert inserts or updates a coupon rule. Used by the seed and ingest tools.
func (r *CouponRepository) Upsert(ctx context.Context, rule *coupon.Rule) error {
	id := rule.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := r.pool.Exec(ctx, upsertCouponSQL,
		id, rule.Code, rule.Name, string(rule.Type), rule.Value,
		rule.MinPurchase, rule.MinItems, rule.MaxDiscount, rule.Description,
		rule.Active, rule.MaxUsesPerUser, rule.NewCustomersOnly)
	if err != nil {
		return fmt.Errorf("upserting coupon %q: %w", rule.Code, err)
	}
	return nil
}

func scanCouponRule(row pgx.CollectableRow) (coupon.Rule, error) {
	var (
		rule         coupon.Rule
		discountType string
		maxDiscount  *decimal.Decimal
		startDate    *time.Time
		endDate      *time.Time
		maxTotalUses *int32
		minItems     int32
		maxPerUser   int32
		currentUses  int32
	)
	err := row.Scan(
		&rule.ID, &rule.Code, &rule.Name, &discountType, &rule.Value,
		&rule.MinPurchase, &minItems, &maxDiscount, &rule.Description,
		&rule.Active, &startDate, &endDate, &maxTotalUses, &maxPerUser,
		&currentUses, &rule.NewCustomersOnly,
	)
	rule.Type = coupon.Type(discountType)
	rule.MinItems = int(minItems)
	rule.MaxDiscount = maxDiscount
	rule.StartDate = startDate
	rule.EndDate = endDate
	if maxTotalUses != nil {
		rule.MaxTotalUses = int(*maxTotalUses)
	}
	rule.MaxUsesPerUser = int(maxPerUser)
	rule.CurrentUses = int(currentUses)
	return rule, err
}
