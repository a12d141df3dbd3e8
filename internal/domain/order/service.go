package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vitrina/storefront/internal/domain/coupon"
	"github.com/vitrina/storefront/internal/domain/product"
	"github.com/vitrina/storefront/internal/domain/shop"
)

// PlaceOrderRequest holds the input for placing an order. Everything here is
// untrusted boundary data except that the handler has already range-checked
// the field types.
type PlaceOrderRequest struct {
	ShopSlug   string
	Customer   Customer
	Lines      []CartLine
	CouponCode string
	// IdempotencyKey deduplicates retried submissions when an idempotency
	// store is configured. Empty means no deduplication.
	IdempotencyKey string
}

// Service is the single entry point for order placement and status updates.
type Service struct {
	shops    shop.Repository
	products product.Repository
	coupons  coupon.Resolver
	orders   Repository

	idem   IdempotencyStore
	events Publisher
	now    func() time.Time
	loc    *time.Location
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithIdempotencyStore enables duplicate-submission protection.
func WithIdempotencyStore(s IdempotencyStore) Option {
	return func(svc *Service) { svc.idem = s }
}

// WithPublisher enables order lifecycle event publishing.
func WithPublisher(p Publisher) Option {
	return func(svc *Service) { svc.events = p }
}

// WithClock overrides the time source. Used by tests and the availability
// gate, which evaluates shop hours at the injected instant.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) { svc.now = now }
}

// NewService creates the order Service. loc is the fixed reference timezone
// that shop opening hours are interpreted in.
func NewService(
	shops shop.Repository,
	products product.Repository,
	coupons coupon.Resolver,
	orders Repository,
	loc *time.Location,
	opts ...Option,
) *Service {
	svc := &Service{
		shops:    shops,
		products: products,
		coupons:  coupons,
		orders:   orders,
		now:      time.Now,
		loc:      loc,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// PlaceOrder runs the checkout pipeline: availability gate, cart re-pricing
// against the live catalog, coupon application, and the atomic commit that
// decrements stock and inserts the order. On any failure no partial state
// survives: the commit transaction is all-or-nothing and everything before it
// only reads.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if s.idem != nil && req.IdempotencyKey != "" {
		first, err := s.idem.Begin(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, errors.Wrap(err, "idempotency check")
		}
		if !first {
			return nil, ErrDuplicateRequest
		}
	}

	sh, err := s.shops.GetBySlug(ctx, req.ShopSlug)
	if err != nil {
		return nil, errors.Wrap(err, "get shop")
	}
	if !sh.AcceptingOrders(s.now().In(s.loc)) {
		return nil, ErrShopClosed
	}

	if len(req.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	ids := make([]string, 0, len(req.Lines))
	seen := make(map[string]struct{}, len(req.Lines))
	for _, line := range req.Lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}

	snapshot, err := s.products.GetByIDs(ctx, sh.ID, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}

	items, subtotal, err := repriceCart(req.Lines, snapshot)
	if err != nil {
		return nil, err
	}

	applied, err := s.coupons.Resolve(ctx, sh.ID, req.CouponCode, subtotal)
	if err != nil {
		return nil, errors.Wrap(err, "resolve coupon")
	}

	total := subtotal.Sub(applied.Amount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	o := &Order{
		ID:             uuid.New().String(),
		ShopID:         sh.ID,
		Customer:       req.Customer,
		Items:          items,
		TotalAmount:    total.Round(2),
		DiscountAmount: applied.Amount.Round(2),
		CouponID:       applied.CouponID,
		CouponCode:     applied.Code,
		Status:         StatusPlaced,
		CreatedAt:      s.now(),
	}

	// The repository re-checks stock with a conditional decrement inside the
	// commit transaction, so a concurrent checkout that drained stock since
	// the snapshot read surfaces here as *InsufficientStockError.
	if err := s.orders.Create(ctx, o); err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			return nil, err
		}
		return nil, errors.Wrap(err, "create order")
	}

	s.publish(ctx, func(p Publisher) error { return p.OrderPlaced(ctx, o) })

	return o, nil
}

// UpdateStatus transitions an order to a new status on behalf of the shop
// identified by callerShopID. Transitioning to cancelled restores the frozen
// item quantities to stock; re-cancelling an already-cancelled order is a
// no-op so stock is never restored twice.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, next Status, callerShopID string) error {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return errors.Wrap(err, "get order")
	}
	if o.ShopID != callerShopID {
		return ErrUnauthorized
	}

	if next == StatusCancelled && o.Status == StatusCancelled {
		return nil
	}
	if !CanTransition(o.Status, next) {
		return &InvalidTransitionError{From: o.Status, To: next}
	}

	previous := o.Status
	if next == StatusCancelled {
		if err := s.orders.Cancel(ctx, o); err != nil {
			return errors.Wrap(err, "cancel order")
		}
	} else {
		if err := s.orders.UpdateStatus(ctx, o.ID, next); err != nil {
			return errors.Wrap(err, "update order status")
		}
	}
	o.Status = next

	s.publish(ctx, func(p Publisher) error { return p.OrderStatusChanged(ctx, o, previous) })

	return nil
}

// publish emits an event when a publisher is configured. Event delivery is
// best effort: a broker outage must not fail a committed order.
func (s *Service) publish(ctx context.Context, fn func(Publisher) error) {
	if s.events == nil {
		return
	}
	if err := fn(s.events); err != nil {
		zctx.From(ctx).Warn("Order event publish failed", zap.Error(err))
	}
}
