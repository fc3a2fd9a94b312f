package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anuragm04/storefront/internal/catalog/domain"
	"github.com/anuragm04/storefront/pkg/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price_cents BIGINT NOT NULL CHECK (price_cents >= 0),
		stock INT NOT NULL CHECK (stock >= 0),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`)
	return err
}

func (r *Repository) Get(ctx context.Context, productID string) (domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, price_cents, stock, created_at, updated_at FROM products WHERE id=$1`,
		productID).
		Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, apperr.ProductNotFound(productID)
		}
		return domain.Product{}, fmt.Errorf("get product %s: %w", productID, err)
	}
	return p, nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, price_cents, stock, created_at, updated_at FROM products ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *Repository) Create(ctx context.Context, p domain.Product) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO products (id, name, price_cents, stock, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.Name, p.PriceCents, p.Stock, p.CreatedAt, p.UpdatedAt)
	return err
}

// DecrementStock is a single conditional UPDATE so the stock check and the
// write cannot race: the row is only touched when stock still covers the
// quantity.
func (r *Repository) DecrementStock(ctx context.Context, productID string, quantity int) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = $3 WHERE id = $1 AND stock >= $2`,
		productID, quantity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("decrement stock %s: %w", productID, err)
	}
	if ct.RowsAffected() > 0 {
		return nil
	}

	// No row updated: missing product or not enough stock.
	var name string
	err = r.pool.QueryRow(ctx, `SELECT name FROM products WHERE id=$1`, productID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ProductNotFound(productID)
	}
	if err != nil {
		return fmt.Errorf("decrement stock %s: %w", productID, err)
	}
	return apperr.InsufficientStock(name)
}
