package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sheks-house/storefront/internal/domain/basket"
)

const (
	listBasketSQL = `SELECT b.product_id, b.quantity, p.name, p.price, p.stock,
			COALESCE(p.images->>0, '') AS image_url
		FROM basket_lines b
		JOIN products p ON p.product_id = b.product_id
		WHERE b.user_id = $1
		ORDER BY b.added_at`

	basketQuantitySQL = `SELECT quantity FROM basket_lines
		WHERE user_id = $1 AND product_id = $2`

	upsertBasketSQL = `INSERT INTO basket_lines (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = basket_lines.quantity + EXCLUDED.quantity`

	setBasketQuantitySQL = `UPDATE basket_lines SET quantity = $3
		WHERE user_id = $1 AND product_id = $2`

	deleteBasketLineSQL = `DELETE FROM basket_lines
		WHERE user_id = $1 AND product_id = $2`

	deleteBasketSQL = `DELETE FROM basket_lines WHERE user_id = $1`
)

var _ basket.Repository = (*BasketRepository)(nil)

// BasketRepository implements basket.Repository backed by PostgreSQL. The
// (user_id, product_id) primary key guarantees at most one row per pair.
type BasketRepository struct {
	pool *pgxpool.Pool
}

// NewBasketRepository returns a BasketRepository that uses the given pool.
func NewBasketRepository(pool *pgxpool.Pool) *BasketRepository {
	return &BasketRepository{pool: pool}
}

// List returns the user's lines joined with current product data.
func (r *BasketRepository) List(ctx context.Context, userID string) ([]basket.Line, error) {
	rows, err := r.pool.Query(ctx, listBasketSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing basket for user %q: %w", userID, err)
	}

	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (basket.Line, error) {
		var l basket.Line
		err := row.Scan(&l.ProductID, &l.Quantity, &l.Name, &l.Price, &l.Stock, &l.ImageURL)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing basket for user %q: %w", userID, err)
	}
	return lines, nil
}

// Quantity returns the current quantity for a line, or 0 when the line does
// not exist.
func (r *BasketRepository) Quantity(ctx context.Context, userID, productID string) (int, error) {
	var qty int
	err := r.pool.QueryRow(ctx, basketQuantitySQL, userID, productID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading basket quantity: %w", err)
	}
	return qty, nil
}

// Upsert adds qty to an existing line or creates one.
func (r *BasketRepository) Upsert(ctx context.Context, userID, productID string, qty int) error {
	if _, err := r.pool.Exec(ctx, upsertBasketSQL, userID, productID, qty); err != nil {
		return fmt.Errorf("upserting basket line: %w", err)
	}
	return nil
}

// SetQuantity replaces a line's quantity.
func (r *BasketRepository) SetQuantity(ctx context.Context, userID, productID string, qty int) error {
	if _, err := r.pool.Exec(ctx, setBasketQuantitySQL, userID, productID, qty); err != nil {
		return fmt.Errorf("setting basket quantity: %w", err)
	}
	return nil
}

// Delete removes a line. Returns basket.ErrLineNotFound when no row matched.
func (r *BasketRepository) Delete(ctx context.Context, userID, productID string) error {
	tag, err := r.pool.Exec(ctx, deleteBasketLineSQL, userID, productID)
	if err != nil {
		return fmt.Errorf("deleting basket line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return basket.ErrLineNotFound
	}
	return nil
}

// DeleteAll clears every line for the user.
func (r *BasketRepository) DeleteAll(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, deleteBasketSQL, userID); err != nil {
		return fmt.Errorf("clearing basket for user %q: %w", userID, err)
	}
	return nil
}
