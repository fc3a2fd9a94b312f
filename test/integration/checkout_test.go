package integration

import (
	"context"
	"log/slog"
	"os"
	"testing"

	cartapp "github.com/anuragm04/storefront/internal/cart/application"
	cartmemory "github.com/anuragm04/storefront/internal/cart/infrastructure/memory"
	catalogdom "github.com/anuragm04/storefront/internal/catalog/domain"
	catalogpg "github.com/anuragm04/storefront/internal/catalog/infrastructure/postgres"
	orderpg "github.com/anuragm04/storefront/internal/order/infrastructure/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCheckout_Postgres runs the full checkout path against a real Postgres:
// conditional stock decrement, transactional order append with its outbox row,
// and order log read-back.
func TestCheckout_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	env, err := Setup(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { env.Teardown(ctx) })

	pool, err := pgxpool.New(ctx, env.PGURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	catalog := catalogpg.NewRepository(log, pool)
	require.NoError(t, catalog.EnsureSchema(ctx))
	orderLog := orderpg.NewOrderLog(log, pool)
	require.NoError(t, orderLog.EnsureSchema(ctx))

	require.NoError(t, catalog.Create(ctx, catalogdom.NewProduct("p-1", "Laptop", 99999, 10)))

	svc := cartapp.NewService(log, cartmemory.NewStore(), catalog, orderLog)

	_, err = svc.Add(ctx, "user-7", "p-1", 2)
	require.NoError(t, err)

	order, err := svc.Checkout(ctx, "user-7", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(199998), order.TotalCents)

	p, err := catalog.Get(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)

	orders, err := orderLog.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
	require.Len(t, orders[0].Lines, 1)
	assert.Equal(t, "Laptop", orders[0].Lines[0].ProductName)

	var outboxCount int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM outbox WHERE aggregate_id=$1 AND type='OrderPlaced'`, order.ID).
		Scan(&outboxCount))
	assert.Equal(t, 1, outboxCount)
}
