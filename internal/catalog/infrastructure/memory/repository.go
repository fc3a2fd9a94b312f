package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/anuragm04/storefront/internal/catalog/domain"
	"github.com/anuragm04/storefront/pkg/apperr"
)

// Repository is an in-memory ProductRepository. The mutex makes each
// operation atomic, so DecrementStock is a true conditional decrement with no
// window between the stock check and the write.
type Repository struct {
	mu       sync.Mutex
	products map[string]domain.Product
	order    []string
}

func NewRepository() *Repository {
	return &Repository{products: make(map[string]domain.Product)}
}

func (r *Repository) Get(_ context.Context, productID string) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return domain.Product{}, apperr.ProductNotFound(productID)
	}
	return p, nil
}

func (r *Repository) List(_ context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Product, 0, len(r.products))
	for _, id := range r.order {
		if p, ok := r.products[id]; ok {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *Repository) Create(_ context.Context, p domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.products[p.ID]; !exists {
		r.order = append(r.order, p.ID)
	}
	r.products[p.ID] = p
	return nil
}

func (r *Repository) Delete(_ context.Context, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[productID]; !ok {
		return apperr.ProductNotFound(productID)
	}
	delete(r.products, productID)
	return nil
}

func (r *Repository) DecrementStock(_ context.Context, productID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return apperr.ProductNotFound(productID)
	}
	if p.Stock < quantity {
		return apperr.InsufficientStock(p.Name)
	}
	p.Stock -= quantity
	r.products[productID] = p
	return nil
}
