package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	cartdom "github.com/anuragm04/storefront/internal/cart/domain"
	orderdom "github.com/anuragm04/storefront/internal/order/domain"
	"github.com/anuragm04/storefront/pkg/apperr"
	"github.com/google/uuid"
)

// Service is the cart and checkout engine. It holds no state of its own:
// carts live in a CartStore, stock in the Catalog, completed orders in the
// OrderLog.
type Service struct {
	log     *slog.Logger
	carts   CartStore
	catalog Catalog
	orders  OrderLog
}

func NewService(log *slog.Logger, carts CartStore, catalog Catalog, orders OrderLog) *Service {
	return &Service{log: log, carts: carts, catalog: catalog, orders: orders}
}

// Add puts quantity units of a product into the user's cart and returns the
// full updated cart. Stock is only checked here, never reserved: the quantity
// must be coverable by current stock but nothing is decremented until
// checkout.
func (s *Service) Add(ctx context.Context, userID, productID string, quantity int) (cartdom.Cart, error) {
	if quantity <= 0 {
		return cartdom.Cart{}, apperr.InvalidQuantity(quantity)
	}

	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return cartdom.Cart{}, err
	}
	if product.Stock < quantity {
		return cartdom.Cart{}, apperr.InsufficientStock(product.Name)
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return cartdom.Cart{}, fmt.Errorf("load cart for %s: %w", userID, err)
	}
	cart.AddLine(productID, quantity)
	if err := s.carts.Save(ctx, cart); err != nil {
		return cartdom.Cart{}, fmt.Errorf("save cart for %s: %w", userID, err)
	}
	return cart, nil
}

// Get returns the user's current cart, empty if nothing was ever added.
func (s *Service) Get(ctx context.Context, userID string) (cartdom.Cart, error) {
	return s.carts.Get(ctx, userID)
}

// Checkout converts the user's cart into an immutable order.
//
// Lines are walked in insertion order. A line whose product has disappeared
// from the catalog is skipped and the rest of the checkout proceeds; this
// mirrors long-standing behavior callers depend on, so it is logged rather
// than surfaced. A line whose product lacks stock aborts the whole checkout
// before anything is persisted. The order is appended to the log first; only
// then are the staged stock decrements committed, so a persistence failure
// leaves both stock and cart untouched and the user can retry.
func (s *Service) Checkout(ctx context.Context, userID, username string) (orderdom.Order, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return orderdom.Order{}, fmt.Errorf("load cart for %s: %w", userID, err)
	}
	if cart.IsEmpty() {
		return orderdom.Order{}, apperr.EmptyCart()
	}

	type decrement struct {
		productID string
		quantity  int
	}

	var (
		lines      []orderdom.OrderLine
		decrements []decrement
	)
	for _, line := range cart.Lines {
		product, err := s.catalog.Get(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, apperr.ErrProductNotFound) {
				s.log.Warn("skipping cart line, product gone from catalog",
					"user_id", userID, "product_id", line.ProductID)
				continue
			}
			return orderdom.Order{}, fmt.Errorf("fetch product %s: %w", line.ProductID, err)
		}
		if product.Stock < line.Quantity {
			return orderdom.Order{}, apperr.InsufficientStock(product.Name)
		}

		lineTotal := int64(line.Quantity) * product.PriceCents
		lines = append(lines, orderdom.OrderLine{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			PriceCents:  product.PriceCents,
			TotalCents:  lineTotal,
		})
		decrements = append(decrements, decrement{productID: product.ID, quantity: line.Quantity})
	}

	order := orderdom.NewOrder(uuid.NewString(), userID, username, lines)

	if _, err := s.orders.Append(ctx, order); err != nil {
		return orderdom.Order{}, apperr.Persistence(err)
	}

	for _, d := range decrements {
		if err := s.catalog.DecrementStock(ctx, d.productID, d.quantity); err != nil {
			// The conditional decrement lost a race with a concurrent
			// checkout. The order is already logged, so the error names it:
			// the caller must reconcile against that order id, not retry
			// blindly and place a second one.
			s.log.Error("stock decrement failed after order append",
				"order_id", order.ID, "product_id", d.productID, "err", err)
			return orderdom.Order{}, fmt.Errorf("order %s logged but stock decrement for %s failed: %w",
				order.ID, d.productID, err)
		}
	}

	if err := s.carts.Clear(ctx, userID); err != nil {
		return orderdom.Order{}, fmt.Errorf("clear cart for %s: %w", userID, err)
	}

	s.log.Info("order placed",
		"order_id", order.ID, "user_id", userID, "lines", len(order.Lines), "total_cents", order.TotalCents)
	return order, nil
}

// Orders returns every persisted order in append order.
func (s *Service) Orders(ctx context.Context) ([]orderdom.Order, error) {
	return s.orders.List(ctx)
}
