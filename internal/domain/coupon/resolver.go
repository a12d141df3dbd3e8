package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Applied is the outcome of resolving a coupon code against a subtotal.
// The zero value means "no discount": checkout proceeds at full price.
type Applied struct {
	// CouponID is set only when a real coupon was applied; the order store
	// uses it to bump the usage counter inside the commit transaction.
	CouponID string
	Code     string
	Amount   decimal.Decimal
}

// Resolver turns an optional coupon code into an applied discount.
type Resolver interface {
	Resolve(ctx context.Context, shopID, code string, subtotal decimal.Decimal) (Applied, error)
}

// RepoResolver resolves codes against a Repository. A missing or inactive
// coupon degrades to a zero discount instead of failing the order: a customer
// pasting an expired code still gets their food, just without the discount.
// Only storage failures propagate as errors.
type RepoResolver struct {
	repo Repository
}

// NewRepoResolver creates a RepoResolver backed by the given Repository.
func NewRepoResolver(repo Repository) *RepoResolver {
	return &RepoResolver{repo: repo}
}

// Resolve looks up (shopID, code) and computes the discount amount.
func (r *RepoResolver) Resolve(ctx context.Context, shopID, code string, subtotal decimal.Decimal) (Applied, error) {
	if code == "" {
		return Applied{Amount: decimal.Zero}, nil
	}

	c, err := r.repo.FindByCode(ctx, shopID, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			zctx.From(ctx).Debug("Coupon rejected, proceeding without discount",
				zap.String("shop_id", shopID),
				zap.String("code", code),
			)
			return Applied{Amount: decimal.Zero}, nil
		}
		return Applied{}, errors.Wrap(err, "lookup coupon")
	}
	if !c.Active {
		return Applied{Amount: decimal.Zero}, nil
	}

	return Applied{
		CouponID: c.ID,
		Code:     c.Code,
		Amount:   Apply(c, subtotal),
	}, nil
}
