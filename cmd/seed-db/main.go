// Command seed-db applies migrations and loads a demo shop with a small
// catalog and a couple of coupons, for local development.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vitrina/storefront/internal/repository"
)

const demoShopID = "shop-demo"

type seedProduct struct {
	id    string
	name  string
	price string
	stock int
}

var demoProducts = []seedProduct{
	{id: "prod-kebab", name: "Chicken Kebab Plate", price: "28.00", stock: 40},
	{id: "prod-shawarma", name: "Beef Shawarma Wrap", price: "18.50", stock: 60},
	{id: "prod-falafel", name: "Falafel Box (12 pc)", price: "12.00", stock: 80},
	{id: "prod-hummus", name: "Hummus & Bread", price: "9.00", stock: 50},
	{id: "prod-juice", name: "Fresh Orange Juice", price: "7.50", stock: 100},
}

type seedCoupon struct {
	id           string
	code         string
	discountType string
	value        string
	active       bool
}

var demoCoupons = []seedCoupon{
	{id: "coup-welcome", code: "WELCOME10", discountType: "percent", value: "10", active: true},
	{id: "coup-fiveoff", code: "FIVEOFF", discountType: "fixed", value: "5", active: true},
	{id: "coup-expired", code: "EXPIRED1", discountType: "percent", value: "50", active: false},
}

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedShop(ctx, pool); err != nil {
		return errors.Wrap(err, "seed shop")
	}
	if err := seedProducts(ctx, pool); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	return nil
}

func seedShop(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO shops (id, slug, name, whatsapp_number, is_open, auto_close, opening_time, closing_time)
		VALUES ($1, $2, $3, $4, TRUE, TRUE, '09:00', '23:00')
		ON CONFLICT (id) DO NOTHING`,
		demoShopID, "demo-grill", "Demo Grill House", "+966500000000",
	)
	if err != nil {
		return err
	}
	slog.Info("seeded shop", slog.String("slug", "demo-grill"))
	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) error {
	for _, p := range demoProducts {
		price, err := decimal.NewFromString(p.price)
		if err != nil {
			return errors.Wrapf(err, "parse price for %s", p.id)
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO products (id, shop_id, name, price, stock_count)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING`,
			p.id, demoShopID, p.name, price, p.stock,
		)
		if err != nil {
			return errors.Wrapf(err, "insert product %s", p.id)
		}
	}
	slog.Info("seeded products", slog.Int("count", len(demoProducts)))
	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	for _, c := range demoCoupons {
		value, err := decimal.NewFromString(c.value)
		if err != nil {
			return errors.Wrapf(err, "parse value for %s", c.code)
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO coupons (id, shop_id, code, discount_type, value, active)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING`,
			c.id, demoShopID, c.code, c.discountType, value, c.active,
		)
		if err != nil {
			return errors.Wrapf(err, "insert coupon %s", c.code)
		}
	}
	slog.Info("seeded coupons", slog.Int("count", len(demoCoupons)))
	return nil
}
