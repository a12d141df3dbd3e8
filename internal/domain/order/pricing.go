package order

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vitrina/storefront/internal/domain/product"
)

// ProductsNotFoundError indicates the cart referenced products that are not
// in this shop's catalog (removed, or belonging to another shop). It is a
// batch failure: all missing IDs are reported at once.
type ProductsNotFoundError struct {
	IDs []string
}

func (e *ProductsNotFoundError) Error() string {
	return fmt.Sprintf("products not found: %s", strings.Join(e.IDs, ", "))
}

// ProductUnavailableError indicates a single cart line references a product
// that could not be resolved.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %s is unavailable", e.ProductID)
}

// InvalidQuantityError indicates a cart line with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InsufficientStockError indicates a requested quantity exceeds the current
// stock. It names the product so the customer can fix their cart.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %q: requested %d, available %d",
		e.Name, e.Requested, e.Available)
}

// repriceCart walks the submitted lines against the authoritative catalog
// snapshot and builds the frozen order items. Client-supplied data is limited
// to product IDs and quantities; names and prices always come from the
// snapshot. Read-only: no stock is touched here, the commit transaction
// re-checks stock with a conditional decrement anyway.
func repriceCart(lines []CartLine, snapshot []product.Product) ([]Item, decimal.Decimal, error) {
	if len(lines) == 0 {
		return nil, decimal.Zero, ErrEmptyCart
	}

	byID := make(map[string]product.Product, len(snapshot))
	for _, p := range snapshot {
		byID[p.ID] = p
	}

	// Batch check first: report every unknown product in one round trip.
	var missing []string
	for _, line := range lines {
		if _, ok := byID[line.ProductID]; !ok {
			missing = append(missing, line.ProductID)
		}
	}
	if len(missing) > 0 {
		return nil, decimal.Zero, &ProductsNotFoundError{IDs: missing}
	}

	items := make([]Item, 0, len(lines))
	subtotal := decimal.Zero
	for _, line := range lines {
		p, ok := byID[line.ProductID]
		if !ok {
			return nil, decimal.Zero, &ProductUnavailableError{ProductID: line.ProductID}
		}
		if line.Quantity <= 0 {
			return nil, decimal.Zero, &InvalidQuantityError{ProductID: line.ProductID}
		}
		if line.Quantity > p.StockCount {
			return nil, decimal.Zero, &InsufficientStockError{
				ProductID: p.ID,
				Name:      p.Name,
				Requested: line.Quantity,
				Available: p.StockCount,
			}
		}

		items = append(items, Item{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  line.Quantity,
		})
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return items, subtotal, nil
}
