package domain

import "time"

// OrderLine snapshots a product at the moment of checkout. Name and price are
// copied so later catalog edits do not rewrite order history.
type OrderLine struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	PriceCents  int64  `json:"price_cents"`
	TotalCents  int64  `json:"total_cents"`
}

// Order is an immutable record of a completed checkout. Orders are only ever
// appended to the order log, never updated or deleted.
type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Username   string      `json:"username"`
	Lines      []OrderLine `json:"lines"`
	TotalCents int64       `json:"total_cents"`
	CreatedAt  time.Time   `json:"created_at"`
}

func NewOrder(id, userID, username string, lines []OrderLine) Order {
	var total int64
	for _, line := range lines {
		total += line.TotalCents
	}
	return Order{
		ID:         id,
		UserID:     userID,
		Username:   username,
		Lines:      lines,
		TotalCents: total,
		CreatedAt:  time.Now().UTC(),
	}
}
