package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/anuragm04/storefront/internal/order/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderLog persists orders as an append-only table pair (orders plus
// order_items) and stages an OrderPlaced outbox row in the same transaction,
// so the event is published iff the order committed.
type OrderLog struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewOrderLog(log *slog.Logger, pool *pgxpool.Pool) *OrderLog {
	return &OrderLog{log: log, pool: pool}
}

func (l *OrderLog) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT UNIQUE NOT NULL,
			user_id TEXT NOT NULL,
			username TEXT NOT NULL,
			total_cents BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			order_id TEXT NOT NULL REFERENCES orders(id),
			position INT NOT NULL,
			product_id TEXT NOT NULL,
			product_name TEXT NOT NULL,
			quantity INT NOT NULL,
			price_cents BIGINT NOT NULL,
			total_cents BIGINT NOT NULL,
			PRIMARY KEY (order_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS outbox (
			id BIGSERIAL PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			type TEXT NOT NULL,
			payload JSONB NOT NULL,
			headers JSONB,
			status TEXT NOT NULL DEFAULT 'pending',
			relay_id TEXT,
			lease_until TIMESTAMPTZ,
			retry_count INT NOT NULL DEFAULT 0,
			last_error TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := l.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure order schema: %w", err)
		}
	}
	return nil
}

// Append writes the order, its lines and the OrderPlaced outbox row in one
// transaction. Rows are never updated afterwards.
func (l *OrderLog) Append(ctx context.Context, o domain.Order) (string, error) {
	payload, err := json.Marshal(domain.OrderPlaced{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Username:   o.Username,
		TotalCents: o.TotalCents,
		Lines:      o.Lines,
	})
	if err != nil {
		return "", fmt.Errorf("marshal order event: %w", err)
	}

	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("begin append: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx,
		`INSERT INTO orders (id, user_id, username, total_cents, created_at) VALUES ($1,$2,$3,$4,$5)`,
		o.ID, o.UserID, o.Username, o.TotalCents, o.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for i, line := range o.Lines {
		batch.Queue(`INSERT INTO order_items (order_id, position, product_id, product_name, quantity, price_cents, total_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			o.ID, i, line.ProductID, line.ProductName, line.Quantity, line.PriceCents, line.TotalCents)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return "", fmt.Errorf("insert order items: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, status) VALUES ($1,$2,$3,$4,'pending')`,
		"order", o.ID, "OrderPlaced", payload)
	if err != nil {
		return "", fmt.Errorf("insert outbox row: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit append: %w", err)
	}
	return o.ID, nil
}

// List returns every order in append order, lines in their checkout order.
func (l *OrderLog) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, user_id, username, total_cents, created_at FROM orders ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	index := make(map[string]int)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Username, &o.TotalCents, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		index[o.ID] = len(orders)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	itemRows, err := l.pool.Query(ctx,
		`SELECT order_id, product_id, product_name, quantity, price_cents, total_cents
		 FROM order_items ORDER BY order_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID string
		var line domain.OrderLine
		if err := itemRows.Scan(&orderID, &line.ProductID, &line.ProductName, &line.Quantity, &line.PriceCents, &line.TotalCents); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			orders[i].Lines = append(orders[i].Lines, line)
		}
	}
	return orders, itemRows.Err()
}
