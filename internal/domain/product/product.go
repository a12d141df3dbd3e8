// Package product holds the catalog item record and its read repository.
package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item belonging to exactly one shop. Price is the
// authoritative unit price; carts never carry prices of their own.
type Product struct {
	ID         string
	ShopID     string
	Name       string
	Price      decimal.Decimal
	StockCount int
}

// Repository defines read operations for the catalog. Stock mutations are
// deliberately absent: decrements and restocks only happen inside the order
// store's commit and cancel transactions, so stock can never drift from the
// orders that moved it.
type Repository interface {
	ListByShop(ctx context.Context, shopID string) ([]Product, error)
	GetByIDs(ctx context.Context, shopID string, ids []string) ([]Product, error)
}
