package application

import (
	"context"

	cartdom "github.com/anuragm04/storefront/internal/cart/domain"
	catalogdom "github.com/anuragm04/storefront/internal/catalog/domain"
	orderdom "github.com/anuragm04/storefront/internal/order/domain"
)

// CartStore keeps one cart per user. Implementations must return an empty
// cart, not an error, for users that have never added anything.
type CartStore interface {
	Get(ctx context.Context, userID string) (cartdom.Cart, error)
	Save(ctx context.Context, cart cartdom.Cart) error
	Clear(ctx context.Context, userID string) error
}

// Catalog is the collaborator owning products and stock. DecrementStock is
// atomic and conditional; see catalog/application.ProductRepository.
type Catalog interface {
	Get(ctx context.Context, productID string) (catalogdom.Product, error)
	DecrementStock(ctx context.Context, productID string, quantity int) error
}

// OrderLog is an append-only durable record of completed orders. Append never
// loses prior entries; List returns all entries in append order.
type OrderLog interface {
	Append(ctx context.Context, order orderdom.Order) (string, error)
	List(ctx context.Context) ([]orderdom.Order, error)
}
