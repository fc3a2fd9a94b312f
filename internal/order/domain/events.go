package domain

type OrderPlaced struct {
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	Username   string      `json:"username"`
	TotalCents int64       `json:"total_cents"`
	Lines      []OrderLine `json:"lines"`
}
