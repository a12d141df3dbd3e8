package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vitrina/storefront/internal/domain/coupon"
)

const getCouponByCodeSQL = `SELECT id, shop_id, code, discount_type, value, active, used_count
	FROM coupons WHERE shop_id = $1 AND UPPER(code) = UPPER($2)`

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by shop and code (case-insensitive).
// Returns coupon.ErrNotFound when no matching coupon exists; inactive
// coupons are returned as-is so the resolver can degrade gracefully.
func (r *CouponRepository) FindByCode(ctx context.Context, shopID, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, shopID, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}
	return &c, nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c            coupon.Coupon
		discountType string
		value        decimal.Decimal
		usedCount    int32
	)
	err := row.Scan(&c.ID, &c.ShopID, &c.Code, &discountType, &value, &c.Active, &usedCount)
	c.DiscountType = coupon.DiscountType(discountType)
	c.Value = value
	c.UsedCount = int(usedCount)
	return c, err
}
