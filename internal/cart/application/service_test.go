package application_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/anuragm04/storefront/internal/cart/application"
	cartmemory "github.com/anuragm04/storefront/internal/cart/infrastructure/memory"
	catalogdom "github.com/anuragm04/storefront/internal/catalog/domain"
	catalogmemory "github.com/anuragm04/storefront/internal/catalog/infrastructure/memory"
	orderdom "github.com/anuragm04/storefront/internal/order/domain"
	"github.com/anuragm04/storefront/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOrderLog is an in-memory append-only log with failure injection.
type fakeOrderLog struct {
	orders  []orderdom.Order
	failure error
}

func (l *fakeOrderLog) Append(_ context.Context, o orderdom.Order) (string, error) {
	if l.failure != nil {
		return "", l.failure
	}
	l.orders = append(l.orders, o)
	return o.ID, nil
}

func (l *fakeOrderLog) List(_ context.Context) ([]orderdom.Order, error) {
	return l.orders, nil
}

type fixture struct {
	svc     *application.Service
	catalog *catalogmemory.Repository
	orders  *fakeOrderLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	catalog := catalogmemory.NewRepository()
	orders := &fakeOrderLog{}
	svc := application.NewService(log, cartmemory.NewStore(), catalog, orders)
	return &fixture{svc: svc, catalog: catalog, orders: orders}
}

func (f *fixture) addProduct(t *testing.T, id, name string, priceCents int64, stock int) {
	t.Helper()
	require.NoError(t, f.catalog.Create(context.Background(), catalogdom.NewProduct(id, name, priceCents, stock)))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.catalog.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestAdd_NewLine(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p-1", "Laptop", 99999, 10)
	ctx := context.Background()

	cart, err := f.svc.Add(ctx, "user-7", "p-1", 2)

	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	// Stock is checked, never held, by add.
	assert.Equal(t, 10, f.stock(t, "p-1"))
}

func TestAdd_SameProductAccumulates(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p-1", "Laptop", 99999, 10)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "user-7", "p-1", 2)
	require.NoError(t, err)
	cart, err := f.svc.Add(ctx, "user-7", "p-1", 3)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 5, cart.Lines[0].Quantity)
}

func TestAdd_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "user-7", "nope", 1)

	require.ErrorIs(t, err, apperr.ErrProductNotFound)
}

func TestAdd_InvalidQuantity(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p-1", "Laptop", 99999, 10)
	ctx := context.Background()

	for _, quantity := range []int{0, -3} {
		_, err := f.svc.Add(ctx, "user-7", "p-1", quantity)
		require.ErrorIs(t, err, apperr.ErrInvalidQuantity, "quantity %d", quantity)
	}
}

func TestAdd_InsufficientStockLeavesCartUnchanged(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p-1", "Laptop", 99999, 10)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "user-7", "p-1", 20)
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)

	cart, err := f.svc.Get(ctx, "user-7")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, "user-7", "alice")

	require.ErrorIs(t, err, apperr.ErrEmptyCart)
}

func TestCheckout_HappyPath(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p-1", "Laptop", 99999, 10)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "user-7", "p-1", 2)
	require.NoError(t, err)

	order, err := f.svc.Checkout(ctx, "user-7", "alice")
	require.NoError(t, err)

	require.Len(t, order.Lines, 1)
	line := order.Lines[0]
	assert.Equal(t, "p-1", line.ProductID)
	assert.Equal(t, "Laptop", line.ProductName)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, int64(99999), line.PriceCents)
	assert.Equal(t, int64(199998), line.TotalCents)
	assert.Equal(t, int64(199998), order.TotalCents)
	assert.Equal(t, "user-7", order.UserID)
	assert.Equal(t, "alice", order.Username)
	assert.False(t, order.CreatedAt.IsZero())

	assert.Equal(t, 8, f.stock(t, "p-1"))
	require.Len(t, f.orders.orders, 1)

	cart, err := f.svc.Get(ctx, "user-7")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCheckout_SecondCheckoutIsEmptyCart(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p-1", "Laptop", 99999, 10)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "user-7", "p-1", 2)
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, "user-7", "alice")
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, "user-7", "alice")
	require.ErrorIs(t, err, apperr.ErrEmptyCart)
}

func TestCheckout_MultipleLinesTotalAndOrder(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p-1", "Laptop", 99999, 10)
	f.addProduct(t, "p-2", "Headphones", 9999, 30)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "user-7", "p-2", 3)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, "user-7", "p-1", 1)
	require.NoError(t, err)

	order, err := f.svc.Checkout(ctx, "user-7", "alice")
	require.NoError(t, err)

	// Lines stay in cart insertion order.
	require.Len(t, order.Lines, 2)
	assert.Equal(t, "p-2", order.Lines[0].ProductID)
	assert.Equal(t, "p-1", order.Lines[1].ProductID)
	assert.Equal(t, int64(3*9999+99999), order.TotalCents)
	assert.Equal(t, 27, f.stock(t, "p-2"))
	assert.Equal(t, 9, f.stock(t, "p-1"))
}

func TestCheckout_DeletedProductLineIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p-1", "Laptop", 99999, 10)
	f.addProduct(t, "p-2", "Headphones", 9999, 30)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "user-7", "p-1", 1)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, "user-7", "p-2", 2)
	require.NoError(t, err)

	require.NoError(t, f.catalog.Delete(ctx, "p-1"))

	order, err := f.svc.Checkout(ctx, "user-7", "alice")
	require.NoError(t, err)

	require.Len(t, order.Lines, 1)
	assert.Equal(t, "p-2", order.Lines[0].ProductID)
	assert.Equal(t, int64(2*9999), order.TotalCents)
	assert.Equal(t, 28, f.stock(t, "p-2"))
}

func TestCheckout_AllLinesSkippedStillPlacesEmptyOrder(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p-1", "Laptop", 99999, 10)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "user-7", "p-1", 1)
	require.NoError(t, err)
	require.NoError(t, f.catalog.Delete(ctx, "p-1"))

	order, err := f.svc.Checkout(ctx, "user-7", "alice")
	require.NoError(t, err)

	assert.Empty(t, order.Lines)
	assert.Equal(t, int64(0), order.TotalCents)
	require.Len(t, f.orders.orders, 1)

	cart, err := f.svc.Get(ctx, "user-7")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}

func TestCheckout_InsufficientStockAbortsWholeCheckout(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p-1", "Laptop", 99999, 10)
	f.addProduct(t, "p-2", "Headphones", 9999, 1)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "user-7", "p-1", 1)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, "user-7", "p-2", 1)
	require.NoError(t, err)

	// Deplete p-2 behind the cart's back.
	require.NoError(t, f.catalog.DecrementStock(ctx, "p-2", 1))

	_, err = f.svc.Checkout(ctx, "user-7", "alice")
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Headphones")

	// Nothing committed: stock intact, no order appended, cart retained.
	assert.Equal(t, 10, f.stock(t, "p-1"))
	assert.Empty(t, f.orders.orders)
	cart, err := f.svc.Get(ctx, "user-7")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)
}

func TestCheckout_PersistenceFailureKeepsCartAndStock(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p-1", "Laptop", 99999, 10)
	f.orders.failure = errors.New("disk full")
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "user-7", "p-1", 2)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, "user-7", "alice")
	require.ErrorIs(t, err, apperr.ErrPersistence)

	assert.Equal(t, 10, f.stock(t, "p-1"))
	cart, err := f.svc.Get(ctx, "user-7")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)

	// A retry after the log recovers succeeds with the same cart.
	f.orders.failure = nil
	order, err := f.svc.Checkout(ctx, "user-7", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(199998), order.TotalCents)
	assert.Equal(t, 8, f.stock(t, "p-1"))
}

// contendedCatalog delegates to the memory repository but can lose every
// decrement, as if concurrent checkouts drained the stock between the
// engine's check and its commit.
type contendedCatalog struct {
	*catalogmemory.Repository
	loseDecrements bool
}

func (c *contendedCatalog) DecrementStock(ctx context.Context, productID string, quantity int) error {
	if c.loseDecrements {
		return apperr.InsufficientStock("Laptop")
	}
	return c.Repository.DecrementStock(ctx, productID, quantity)
}

func TestCheckout_LostDecrementErrorNamesLoggedOrder(t *testing.T) {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	catalog := &contendedCatalog{Repository: catalogmemory.NewRepository()}
	orders := &fakeOrderLog{}
	svc := application.NewService(log, cartmemory.NewStore(), catalog, orders)
	ctx := context.Background()

	require.NoError(t, catalog.Create(ctx, catalogdom.NewProduct("p-1", "Laptop", 99999, 10)))
	_, err := svc.Add(ctx, "user-7", "p-1", 2)
	require.NoError(t, err)

	catalog.loseDecrements = true
	_, err = svc.Checkout(ctx, "user-7", "alice")

	require.ErrorIs(t, err, apperr.ErrInsufficientStock)

	// The order made it into the log before the decrement lost the race;
	// the error carries its id so the caller reconciles instead of retrying.
	require.Len(t, orders.orders, 1)
	assert.Contains(t, err.Error(), orders.orders[0].ID)
}

func TestCheckout_CartsAreIsolatedPerUser(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p-1", "Laptop", 99999, 10)
	ctx := context.Background()

	_, err := f.svc.Add(ctx, "user-7", "p-1", 2)
	require.NoError(t, err)
	_, err = f.svc.Add(ctx, "user-8", "p-1", 3)
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, "user-7", "alice")
	require.NoError(t, err)

	cart, err := f.svc.Get(ctx, "user-8")
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	assert.Equal(t, 3, cart.Lines[0].Quantity)
	assert.Equal(t, 8, f.stock(t, "p-1"))
}
