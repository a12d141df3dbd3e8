// Package order implements the checkout pipeline: cart re-pricing against the
// authoritative catalog, coupon application, the atomic order commit with
// conditional stock decrements, and the cancellation path that restores stock.
package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// CartLine is one untrusted line of a submitted cart. It never carries a
// price; prices are always re-resolved from the catalog at commit time.
type CartLine struct {
	ProductID string
	Quantity  int
}

// Customer holds the buyer's contact details. Opaque to this core; it is
// recorded on the order and forwarded to the WhatsApp handoff.
type Customer struct {
	Name    string
	Phone   string
	City    string
	Address string
}

// Item is one line of an order's frozen snapshot: the product's name and
// price as they were at commit time. Later catalog edits never touch it.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// UnmarshalJSON accepts both "quantity" and the legacy "qty" field spelling.
// Early order records were written with "qty"; the cancellation path has to
// restock those correctly, so the shim stays until the historical rows are
// migrated.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProductID string          `json:"productId"`
		Name      string          `json:"name"`
		Price     decimal.Decimal `json:"price"`
		Quantity  *int            `json:"quantity"`
		Qty       *int            `json:"qty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	it.ProductID = raw.ProductID
	it.Name = raw.Name
	it.Price = raw.Price
	switch {
	case raw.Quantity != nil:
		it.Quantity = *raw.Quantity
	case raw.Qty != nil:
		it.Quantity = *raw.Qty
	default:
		it.Quantity = 0
	}
	return nil
}

// Order is an immutable record of a committed checkout. Only Status changes
// after creation, via Service.UpdateStatus.
type Order struct {
	ID             string
	ShopID         string
	Customer       Customer
	Items          []Item
	TotalAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
	// CouponID is empty when no coupon was applied.
	CouponID   string
	CouponCode string
	Status     Status
	CreatedAt  time.Time
}

// Repository defines persistence for orders. Create and Cancel are each one
// all-or-nothing unit: stock movements and the order row commit together or
// not at all.
type Repository interface {
	// Create persists the order and, in the same transaction, conditionally
	// decrements stock for every item ("decrement by N only if stock >= N")
	// and increments the coupon usage counter when CouponID is set. A failed
	// conditional decrement aborts the whole transaction with
	// *InsufficientStockError.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// UpdateStatus performs a plain status write with no side effects.
	UpdateStatus(ctx context.Context, id string, status Status) error
	// Cancel sets the status to cancelled and restores each item's quantity
	// to product stock (silently skipping products deleted since placement),
	// in one transaction. Implementations must make the restore conditional
	// on the order not already being cancelled, so concurrent cancels restock
	// at most once; the losing call returns nil without side effects.
	Cancel(ctx context.Context, o *Order) error
}

// IdempotencyStore guards against duplicate checkout submissions. Begin
// reports true when the key was claimed for the first time.
type IdempotencyStore interface {
	Begin(ctx context.Context, key string) (bool, error)
}

// Publisher emits order lifecycle events for downstream consumers (the
// notification composer, analytics). Publish failures are logged, never
// surfaced to the customer.
type Publisher interface {
	OrderPlaced(ctx context.Context, o *Order) error
	OrderStatusChanged(ctx context.Context, o *Order, previous Status) error
}

// Sentinel errors for the checkout and status-update entry points.
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrShopClosed       = errors.New("shop is not accepting orders right now")
	ErrDuplicateRequest = errors.New("duplicate order request")
	ErrNotFound         = errors.New("order not found")
	ErrUnauthorized     = errors.New("caller does not own this order")
)
