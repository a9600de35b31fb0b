package port

import (
	"context"
	"time"

	"kfmon/internal/domain"
)

// EquityRow is one persisted equity sample. Ts is unix milliseconds UTC.
type EquityRow struct {
	Ts     int64
	Equity float64
}

// PositionRow is one persisted open-position sample.
type PositionRow struct {
	Ts     int64
	Symbol string
	Size   float64
	Side   string
}

// SignalRow is one persisted per-asset signal sample after timeframe
// tie-breaking.
type SignalRow struct {
	Ts        int64
	Asset     string
	Timeframe string
	Value     int
	UpdatedAt int64
}

// RangeRows holds the three logs' rows for one range query, each ordered by
// ascending timestamp. Slices are empty, never nil, for an empty range.
type RangeRows struct {
	Equity    []EquityRow
	Positions []PositionRow
	Signals   []SignalRow
}

// Store is the append-only telemetry store. Append is atomic per entry:
// readers never observe a partially written tick. Prune removes rows
// strictly older than now minus retention across all three logs.
type Store interface {
	Append(ctx context.Context, entry *domain.Entry) error
	Prune(ctx context.Context, retention time.Duration) error
	QueryRange(ctx context.Context, start, end time.Time) (*RangeRows, error)
	Close() error
}
