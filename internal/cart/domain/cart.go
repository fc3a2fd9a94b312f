package domain

// CartLine is one requested product in a cart.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// Cart holds the lines a user intends to buy, in insertion order. Nothing in
// the cart is committed against stock until checkout.
type Cart struct {
	UserID string     `json:"user_id"`
	Lines  []CartLine `json:"lines"`
}

func NewCart(userID string) Cart {
	return Cart{UserID: userID}
}

// AddLine merges a quantity into the cart. If the product already has a line
// its quantity is increased, otherwise a new line is appended at the end.
// At most one line per product ever exists.
func (c *Cart) AddLine(productID string, quantity int) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity += quantity
			return
		}
	}
	c.Lines = append(c.Lines, CartLine{ProductID: productID, Quantity: quantity})
}

// Clear empties the cart in place. The cart itself stays registered for the
// user so it can cycle back to populated on the next add.
func (c *Cart) Clear() {
	c.Lines = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
