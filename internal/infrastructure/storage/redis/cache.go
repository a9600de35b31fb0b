package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"kfmon/internal/application/port"
	"kfmon/internal/domain"
)

// Cache stores the latest entry in redis so the dashboard's "current state"
// panels survive process restarts without touching the history logs. The key
// is overwritten wholesale on every tick.
type Cache struct {
	rdb       *redis.Client
	keyLatest string
	ttl       time.Duration
}

func New(rdb *redis.Client, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = "kfmon"
	}
	return &Cache{
		rdb:       rdb,
		keyLatest: prefix + ":latest",
		ttl:       ttl,
	}
}

type latestPayload struct {
	Timestamp time.Time                `json:"timestamp"`
	Equity    float64                  `json:"equity"`
	Positions []domain.Position        `json:"positions"`
	Signals   map[string]domain.Signal `json:"signals"`
}

func (c *Cache) SetLatest(ctx context.Context, entry *domain.Entry) error {
	b, err := json.Marshal(latestPayload{
		Timestamp: entry.Timestamp,
		Equity:    entry.Equity,
		Positions: entry.Positions,
		Signals:   entry.Signals,
	})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.keyLatest, b, c.ttl).Err()
}

func (c *Cache) Latest(ctx context.Context) (*domain.Entry, bool, error) {
	b, err := c.rdb.Get(ctx, c.keyLatest).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var p latestPayload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, false, err
	}
	e := domain.NewEntry(p.Timestamp)
	e.Equity = p.Equity
	if p.Positions != nil {
		e.Positions = p.Positions
	}
	if p.Signals != nil {
		e.Signals = p.Signals
	}
	return e, true, nil
}

func (c *Cache) Close() error { return c.rdb.Close() }

var _ port.LatestCache = (*Cache)(nil)
