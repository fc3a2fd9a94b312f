package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/anuragm04/storefront/internal/catalog/domain"
	"github.com/anuragm04/storefront/pkg/apperr"
	"github.com/google/uuid"
)

type Service struct {
	log  *slog.Logger
	repo ProductRepository
}

func NewService(log *slog.Logger, repo ProductRepository) *Service {
	return &Service{log: log, repo: repo}
}

func (s *Service) Get(ctx context.Context, productID string) (domain.Product, error) {
	return s.repo.Get(ctx, productID)
}

func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, name string, priceCents int64, stock int) (domain.Product, error) {
	if name == "" {
		return domain.Product{}, apperr.InvalidInput("product name is required")
	}
	if priceCents < 0 {
		return domain.Product{}, apperr.InvalidInput("price must not be negative")
	}
	if stock < 0 {
		return domain.Product{}, apperr.InvalidInput("stock must not be negative")
	}

	p := domain.NewProduct(uuid.NewString(), name, priceCents, stock)
	if err := s.repo.Create(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("create product: %w", err)
	}
	s.log.Info("product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

// Seed inserts sample products when the catalog is empty. Used at startup so
// a fresh instance is immediately usable.
func (s *Service) Seed(ctx context.Context, products []domain.Product) error {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("seed: list products: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, p := range products {
		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("seed: create %s: %w", p.Name, err)
		}
	}
	s.log.Info("catalog seeded", "count", len(products))
	return nil
}
