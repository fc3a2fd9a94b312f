package memory

import (
	"context"
	"sync"
	"time"

	"github.com/anuragm04/storefront/internal/identity/application"
	"github.com/anuragm04/storefront/internal/identity/domain"
)

// Repository is an in-memory UserRepository, used in tests.
type Repository struct {
	mu         sync.Mutex
	byUsername map[string]domain.User
	byEmail    map[string]domain.User
}

func NewRepository() *Repository {
	return &Repository{
		byUsername: make(map[string]domain.User),
		byEmail:    make(map[string]domain.User),
	}
}

func (r *Repository) GetByUsername(_ context.Context, username string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byUsername[username]
	if !ok {
		return domain.User{}, application.ErrUserNotFound
	}
	return u, nil
}

func (r *Repository) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, application.ErrUserNotFound
	}
	return u, nil
}

func (r *Repository) Create(_ context.Context, u domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	r.byUsername[u.Username] = u
	r.byEmail[u.Email] = u
	return nil
}
