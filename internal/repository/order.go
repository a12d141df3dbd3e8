package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitrina/storefront/internal/domain/order"
)

const (
	// Conditional decrement: only succeeds when enough stock remains at
	// commit time. Zero rows affected means a concurrent order drained the
	// stock since the validation read.
	decrementStockSQL = `UPDATE products SET stock_count = stock_count - $1
		WHERE id = $2 AND shop_id = $3 AND stock_count >= $1`

	restoreStockSQL = `UPDATE products SET stock_count = stock_count + $1
		WHERE id = $2 AND shop_id = $3`

	stockSnapshotSQL = `SELECT name, stock_count FROM products WHERE id = $1 AND shop_id = $2`

	incrementCouponUsesSQL = `UPDATE coupons SET used_count = used_count + 1 WHERE id = $1`

	insertOrderSQL = `INSERT INTO orders (id, shop_id, customer_name, customer_phone,
		customer_city, customer_addr, items, total_amount, discount_amount,
		coupon_id, coupon_code, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	getOrderByIDSQL = `SELECT id, shop_id, customer_name, customer_phone, customer_city,
		customer_addr, items, total_amount, discount_amount, coupon_id, coupon_code,
		status, created_at
		FROM orders WHERE id = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`

	// Conditional flip: only the request that actually transitions the order
	// out of a non-cancelled state gets to restore stock. A concurrent cancel
	// that lost the race affects zero rows.
	cancelOrderSQL = `UPDATE orders SET status = 'cancelled' WHERE id = $1 AND status <> 'cancelled'`

	getOrderStatusSQL = `SELECT status FROM orders WHERE id = $1`
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

// Create commits the order in a single transaction: per-item conditional
// stock decrements, the coupon usage increment when a coupon was applied,
// and the order row insert. Any failure rolls back everything, so a rejected
// order leaves no trace.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, it := range o.Items {
		tag, err := tx.Exec(ctx, decrementStockSQL, it.Quantity, it.ProductID, o.ShopID)
		if err != nil {
			return fmt.Errorf("decrement stock for %q: %w", it.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return r.stockConflict(ctx, tx, o.ShopID, it)
		}
	}

	if o.CouponID != "" {
		if _, err := tx.Exec(ctx, incrementCouponUsesSQL, o.CouponID); err != nil {
			return fmt.Errorf("increment coupon uses: %w", err)
		}
	}

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshaling order items: %w", err)
	}

	var couponID *string
	if o.CouponID != "" {
		couponID = &o.CouponID
	}

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.ShopID,
		o.Customer.Name, o.Customer.Phone, o.Customer.City, o.Customer.Address,
		itemsJSON, o.TotalAmount, o.DiscountAmount,
		couponID, o.CouponCode, string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	return tx.Commit(ctx)
}

// stockConflict builds the InsufficientStockError for a failed conditional
// decrement, reading the current stock inside the doomed transaction for an
// accurate message. The read is best effort: a deleted product reports as
// zero available.
func (r *OrderRepository) stockConflict(ctx context.Context, tx pgx.Tx, shopID string, it order.Item) error {
	stockErr := &order.InsufficientStockError{
		ProductID: it.ProductID,
		Name:      it.Name,
		Requested: it.Quantity,
	}

	var (
		name  string
		stock int
	)
	if err := tx.QueryRow(ctx, stockSnapshotSQL, it.ProductID, shopID).Scan(&name, &stock); err == nil {
		stockErr.Name = name
		stockErr.Available = stock
	}
	return stockErr
}

// GetByID returns the order with the given ID, including its frozen items
// snapshot.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// UpdateStatus writes the new status with no side effects.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating status for order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Cancel flips the status to cancelled and restores stock for every item in
// the frozen snapshot, in one transaction. The flip is conditional on the
// order not already being cancelled, so two concurrent cancel requests that
// both read a non-cancelled status still restore stock exactly once: the
// loser's transaction rolls back and reports success as a no-op. Products
// deleted since placement are skipped silently; their quantities have nowhere
// to go back to.
func (r *OrderRepository) Cancel(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, cancelOrderSQL, o.ID)
	if err != nil {
		return fmt.Errorf("cancelling order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		// Either the order is gone or another cancel got there first.
		var status string
		if err := tx.QueryRow(ctx, getOrderStatusSQL, o.ID).Scan(&status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return order.ErrNotFound
			}
			return fmt.Errorf("checking status for order %q: %w", o.ID, err)
		}
		return nil
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, restoreStockSQL, it.Quantity, it.ProductID, o.ShopID); err != nil {
			return fmt.Errorf("restore stock for %q: %w", it.ProductID, err)
		}
	}

	return tx.Commit(ctx)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		itemsJSON []byte
		couponID  *string
		status    string
	)
	err := row.Scan(
		&o.ID, &o.ShopID,
		&o.Customer.Name, &o.Customer.Phone, &o.Customer.City, &o.Customer.Address,
		&itemsJSON, &o.TotalAmount, &o.DiscountAmount,
		&couponID, &o.CouponCode, &status, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}

	if couponID != nil {
		o.CouponID = *couponID
	}
	o.Status = order.Status(status)

	// Item.UnmarshalJSON tolerates the legacy "qty" field spelling found in
	// historical order rows.
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return o, fmt.Errorf("unmarshaling items for order %q: %w", o.ID, err)
	}
	return o, nil
}
