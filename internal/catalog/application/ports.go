package application

import (
	"context"

	"github.com/anuragm04/storefront/internal/catalog/domain"
)

// ProductRepository owns product records and their stock levels.
//
// DecrementStock must be a single atomic conditional decrement: it succeeds
// only if the current stock covers the quantity, and reports
// apperr.ErrInsufficientStock otherwise. Callers must never implement the
// check as a separate read followed by a write.
type ProductRepository interface {
	Get(ctx context.Context, productID string) (domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Create(ctx context.Context, p domain.Product) error
	DecrementStock(ctx context.Context, productID string, quantity int) error
}
