package memory

import (
	"context"
	"sync"

	"kfmon/internal/application/port"
	"kfmon/internal/domain"
)

// Cache is the in-process latest-entry cache used when redis is disabled.
type Cache struct {
	mu     sync.RWMutex
	latest *domain.Entry
}

func NewCache() *Cache { return &Cache{} }

func (c *Cache) SetLatest(ctx context.Context, entry *domain.Entry) error {
	c.mu.Lock()
	c.latest = entry
	c.mu.Unlock()
	return nil
}

func (c *Cache) Latest(ctx context.Context) (*domain.Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest == nil {
		return nil, false, nil
	}
	return c.latest, true, nil
}

func (c *Cache) Close() error { return nil }

var _ port.LatestCache = (*Cache)(nil)
