package port

import (
	"context"

	"kfmon/internal/domain"
)

// AccountSource is the remote trading API. Calls may fail or hang; callers
// bound them with a context deadline.
type AccountSource interface {
	// MarginEquity returns the account's margin equity.
	MarginEquity(ctx context.Context) (float64, error)
	// OpenPositions returns the currently open positions.
	OpenPositions(ctx context.Context) ([]domain.Position, error)
}

// SignalSource is the read-only externally computed signal table.
type SignalSource interface {
	Signals(ctx context.Context) ([]domain.SourceSignal, error)
}
