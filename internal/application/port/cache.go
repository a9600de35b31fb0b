package port

import (
	"context"

	"kfmon/internal/domain"
)

// LatestCache holds the most recent entry for zero-history "current state"
// display. It is overwritten wholesale on every tick and carries no
// retention policy.
type LatestCache interface {
	SetLatest(ctx context.Context, entry *domain.Entry) error
	Latest(ctx context.Context) (*domain.Entry, bool, error)
	Close() error
}

// EntrySink receives each entry after it has been collected. Implementations
// must not block the collector.
type EntrySink interface {
	Publish(entry *domain.Entry)
}
