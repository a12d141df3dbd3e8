// Package coupon holds per-shop discount codes and their application rules.
package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercent applies a percentage of the subtotal.
	DiscountPercent DiscountType = "percent"
	// DiscountFixed subtracts a fixed amount; the order total, not the
	// discount, is clamped at zero.
	DiscountFixed DiscountType = "fixed"
)

// ErrNotFound is returned when no coupon matches a (shop, code) pair.
var ErrNotFound = errors.New("coupon not found")

// Coupon is a discount code scoped to one shop. UsedCount is incremented by
// the order store exactly once per committed order that referenced the coupon.
type Coupon struct {
	ID           string
	ShopID       string
	Code         string
	DiscountType DiscountType
	Value        decimal.Decimal
	Active       bool
	UsedCount    int
}

// Repository provides coupon lookup. Usage counting happens inside the order
// commit transaction, not through this interface.
type Repository interface {
	// FindByCode returns the coupon for (shopID, code), matching the code
	// case-insensitively. Returns ErrNotFound when no such coupon exists.
	// Deactivated coupons come back as-is; the caller decides what an
	// inactive coupon means.
	FindByCode(ctx context.Context, shopID, code string) (*Coupon, error)
}
