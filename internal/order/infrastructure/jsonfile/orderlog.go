package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/anuragm04/storefront/internal/order/domain"
)

// OrderLog persists orders as a single JSON array file. Append rewrites the
// file with the new order at the end through a temp-file rename, so a crash
// mid-write never loses previously appended entries. A missing or corrupt
// file reads as an empty log.
type OrderLog struct {
	mu   sync.Mutex
	path string
}

func NewOrderLog(path string) *OrderLog {
	return &OrderLog{path: path}
}

func (l *OrderLog) Append(_ context.Context, order domain.Order) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	orders, err := l.load()
	if err != nil {
		return "", err
	}
	orders = append(orders, order)

	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal order log: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write order log: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return "", fmt.Errorf("replace order log: %w", err)
	}
	return order.ID, nil
}

func (l *OrderLog) List(_ context.Context) ([]domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

func (l *OrderLog) load() ([]domain.Order, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read order log: %w", err)
	}

	var orders []domain.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		// An unreadable log starts over rather than blocking checkouts.
		return nil, nil
	}
	return orders, nil
}

// EnsureDir creates the directory holding the log file.
func (l *OrderLog) EnsureDir() error {
	dir := filepath.Dir(l.path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
