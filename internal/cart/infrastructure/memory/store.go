package memory

import (
	"context"
	"sync"

	"github.com/anuragm04/storefront/internal/cart/domain"
)

// Store is a process-local CartStore: one cart per user in a mutex-guarded
// map. Carts do not survive a restart. Lines are copied on the way in and
// out so callers cannot mutate stored state through a shared slice.
type Store struct {
	mu    sync.Mutex
	carts map[string]domain.Cart
}

func NewStore() *Store {
	return &Store{carts: make(map[string]domain.Cart)}
}

func (s *Store) Get(_ context.Context, userID string) (domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[userID]
	if !ok {
		return domain.NewCart(userID), nil
	}
	return copyCart(cart), nil
}

func (s *Store) Save(_ context.Context, cart domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cart.UserID] = copyCart(cart)
	return nil
}

// Clear empties the user's cart but keeps the entry, matching the cart
// lifecycle: populated carts cycle back to empty, they are not deleted.
func (s *Store) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[userID] = domain.NewCart(userID)
	return nil
}

func copyCart(cart domain.Cart) domain.Cart {
	out := domain.Cart{UserID: cart.UserID}
	if len(cart.Lines) > 0 {
		out.Lines = make([]domain.CartLine, len(cart.Lines))
		copy(out.Lines, cart.Lines)
	}
	return out
}
