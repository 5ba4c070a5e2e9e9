package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sheks-house/storefront/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders
			(order_id, order_number, user_id, status, subtotal, discount, taxes, total, coupon_code, delivery, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, name, price, quantity)
		VALUES ($1, $2, $3, $4, $5)`

	deductStockSQL = `UPDATE products SET stock = GREATEST(stock - $2, 0)
		WHERE product_id = $1`

	listOrdersSQL = `SELECT order_id, order_number, user_id, status, subtotal, discount,
			taxes, total, coupon_code, delivery, created_at
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	listOrderItemsSQL = `SELECT product_id, name, price, quantity
		FROM order_items WHERE order_id = $1`

	countOrdersSQL = `SELECT COUNT(*) FROM orders WHERE user_id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists an order and its items and deducts the purchased
// quantities from product stock, all in one transaction. The deduction is
// clamped at zero: checkout verified stock moments ago, so hitting the floor
// means a concurrent purchase won the race and the shortfall is an
// oversell to resolve in fulfilment, not a reason to void a captured charge.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	delivery, err := json.Marshal(o.Delivery)
	if err != nil {
		return fmt.Errorf("marshaling delivery info: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, insertOrderSQL,
		o.ID, o.Number, o.UserID, o.Status, o.Subtotal, o.Discount,
		o.Taxes, o.Total, o.CouponCode, delivery, o.CreatedAt); err != nil {
		return fmt.Errorf("inserting order %q: %w", o.ID, err)
	}

	for _, item := range o.Items {
		if _, err := tx.Exec(ctx, insertOrderItemSQL,
			o.ID, item.ProductID, item.Name, item.Price, item.Quantity); err != nil {
			return fmt.Errorf("inserting order item %q: %w", item.ProductID, err)
		}
		if _, err := tx.Exec(ctx, deductStockSQL, item.ProductID, item.Quantity); err != nil {
			return fmt.Errorf("deducting stock for %q: %w", item.ProductID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// ListByUser returns the user's orders, newest first, with their items.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}

	for i := range orders {
		itemRows, err := r.pool.Query(ctx, listOrderItemsSQL, orders[i].ID)
		if err != nil {
			return nil, fmt.Errorf("listing items for order %q: %w", orders[i].ID, err)
		}
		items, err := pgx.CollectRows(itemRows, func(row pgx.CollectableRow) (order.Item, error) {
			var it order.Item
			err := row.Scan(&it.ProductID, &it.Name, &it.Price, &it.Quantity)
			return it, err
		})
		if err != nil {
			return nil, fmt.Errorf("listing items for order %q: %w", orders[i].ID, err)
		}
		orders[i].Items = items
	}
	return orders, nil
}

// CountByUser returns how many orders the user has placed. Used for
// new-customers-only coupon eligibility.
func (r *OrderRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, countOrdersSQL, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting orders for user %q: %w", userID, err)
	}
	return count, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o        order.Order
		delivery []byte
	)
	err := row.Scan(&o.ID, &o.Number, &o.UserID, &o.Status, &o.Subtotal,
		&o.Discount, &o.Taxes, &o.Total, &o.CouponCode, &delivery, &o.CreatedAt)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(delivery, &o.Delivery); err != nil {
		return o, fmt.Errorf("unmarshaling delivery info: %w", err)
	}
	return o, nil
}
