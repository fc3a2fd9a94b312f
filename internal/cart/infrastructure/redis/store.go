package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anuragm04/storefront/internal/cart/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cart:"

// Store is a Redis-backed CartStore, one JSON value per user key. It exists
// so cart state can outlive a single process; swap it in via config when the
// service runs with more than one instance.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Get(ctx context.Context, userID string) (domain.Cart, error) {
	data, err := s.client.Get(ctx, keyPrefix+userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NewCart(userID), nil
		}
		return domain.Cart{}, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return domain.Cart{}, fmt.Errorf("unmarshal cart: %w", err)
	}
	return cart, nil
}

func (s *Store) Save(ctx context.Context, cart domain.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+cart.UserID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, userID string) error {
	return s.Save(ctx, domain.NewCart(userID))
}
