package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitrina/storefront/internal/domain/shop"
)

const getShopBySlugSQL = `SELECT id, slug, name, whatsapp_number, is_open, auto_close, opening_time, closing_time
	FROM shops WHERE slug = $1`

var _ shop.Repository = (*ShopRepository)(nil)

// ShopRepository implements shop.Repository backed by PostgreSQL.
type ShopRepository struct {
	pool *pgxpool.Pool
}

// NewShopRepository returns a ShopRepository that uses the given pool.
func NewShopRepository(pool *pgxpool.Pool) *ShopRepository {
	return &ShopRepository{pool: pool}
}

// GetBySlug returns the shop with the given public slug.
func (r *ShopRepository) GetBySlug(ctx context.Context, slug string) (*shop.Shop, error) {
	rows, err := r.pool.Query(ctx, getShopBySlugSQL, slug)
	if err != nil {
		return nil, fmt.Errorf("getting shop %q: %w", slug, err)
	}

	s, err := pgx.CollectExactlyOneRow(rows, scanShop)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shop.ErrNotFound
		}
		return nil, fmt.Errorf("getting shop %q: %w", slug, err)
	}
	return &s, nil
}

func scanShop(row pgx.CollectableRow) (shop.Shop, error) {
	var s shop.Shop
	err := row.Scan(
		&s.ID, &s.Slug, &s.Name, &s.WhatsAppNumber,
		&s.IsOpen, &s.AutoClose, &s.OpeningTime, &s.ClosingTime,
	)
	return s, err
}
