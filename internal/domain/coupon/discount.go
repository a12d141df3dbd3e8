package coupon

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Apply calculates the discount amount for the coupon against the subtotal.
// The result is never negative and is rounded to 2 decimal places. A fixed
// discount may exceed the subtotal; the checkout clamps the order total at
// zero, the recorded discount stays at the coupon's face value. Unknown
// discount types yield zero rather than failing checkout.
func Apply(c *Coupon, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercent:
		amount = subtotal.Mul(c.Value).Div(hundred)
	case DiscountFixed:
		amount = c.Value
	default:
		return decimal.Zero
	}

	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Round(2)
}
