package domain

import "time"

// Product is a catalog entry. Price is stored in cents; Stock is the number
// of units currently available for sale.
type Product struct {
	ID         string
	Name       string
	PriceCents int64
	Stock      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewProduct(id, name string, priceCents int64, stock int) Product {
	now := time.Now().UTC()
	return Product{
		ID:         id,
		Name:       name,
		PriceCents: priceCents,
		Stock:      stock,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
