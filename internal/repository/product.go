package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vitrina/storefront/internal/domain/product"
)

const (
	listProductsByShopSQL = `SELECT id, shop_id, name, price, stock_count
		FROM products WHERE shop_id = $1 ORDER BY name`

	getProductsByIDsSQL = `SELECT id, shop_id, name, price, stock_count
		FROM products WHERE shop_id = $1 AND id = ANY($2)`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
// It is read-only: stock writes belong to the order commit and cancel
// transactions in OrderRepository.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// ListByShop returns the shop's full catalog ordered by product name.
func (r *ProductRepository) ListByShop(ctx context.Context, shopID string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsByShopSQL, shopID)
	if err != nil {
		return nil, fmt.Errorf("listing products for shop %q: %w", shopID, err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByIDs returns the shop's products matching any of the given IDs.
// IDs that do not exist (or belong to another shop) are simply absent from
// the result; callers diff against their request.
func (r *ProductRepository) GetByIDs(ctx context.Context, shopID string, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, shopID, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.ShopID, &p.Name, &price, &p.StockCount)
	p.Price = price
	return p, err
}
