package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// State is the outcome of claiming an idempotency key.
type State int

const (
	// StateFresh means the key was unused; the caller owns it and must
	// Record a result or Release it.
	StateFresh State = iota
	// StateRecorded means the key already has a result from a completed
	// operation.
	StateRecorded
	// StateInProgress means another caller claimed the key but has not
	// recorded a result yet. The operation must not run again; the caller
	// retries later.
	StateInProgress
)

// pendingMarker is stored at claim time so a claimed-but-unfinished key is
// distinguishable from one carrying a recorded result.
const pendingMarker = "__pending__"

// Store remembers the result of operations keyed by a caller-chosen
// idempotency key. A replayed key returns the recorded result instead of
// re-running the operation.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func key(userID, idemKey string) string {
	return fmt.Sprintf("idem:%s:%s", userID, idemKey)
}

// Claim reserves the key for this caller. StateFresh grants ownership;
// StateRecorded carries the previously recorded result; StateInProgress
// means a concurrent claim holds the key without a result yet.
func (s *Store) Claim(ctx context.Context, userID, idemKey string) (string, State, error) {
	ok, err := s.rdb.SetNX(ctx, key(userID, idemKey), pendingMarker, s.ttl).Result()
	if err != nil {
		return "", StateInProgress, fmt.Errorf("idempotency claim: %w", err)
	}
	if ok {
		return "", StateFresh, nil
	}
	prev, err := s.rdb.Get(ctx, key(userID, idemKey)).Result()
	if errors.Is(err, redis.Nil) {
		// The key expired between SetNX and Get. Let the caller retry.
		return "", StateInProgress, nil
	}
	if err != nil {
		return "", StateInProgress, fmt.Errorf("idempotency lookup: %w", err)
	}
	if prev == pendingMarker {
		return "", StateInProgress, nil
	}
	return prev, StateRecorded, nil
}

// Record stores the operation result against a claimed key.
func (s *Store) Record(ctx context.Context, userID, idemKey, result string) error {
	if err := s.rdb.Set(ctx, key(userID, idemKey), result, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency record: %w", err)
	}
	return nil
}

// Release frees a claimed key after a failed operation so the caller can
// retry with the same key.
func (s *Store) Release(ctx context.Context, userID, idemKey string) error {
	return s.rdb.Del(ctx, key(userID, idemKey)).Err()
}
