package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"kfmon/internal/application/port"
	"kfmon/internal/domain"
)

// Store is an in-memory port.Store. It backs tests and cache-less runs; it
// offers the same per-entry atomicity as the durable store but no
// persistence across restarts.
type Store struct {
	mu        sync.RWMutex
	equity    []port.EquityRow
	positions []port.PositionRow
	signals   []port.SignalRow
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		equity:    []port.EquityRow{},
		positions: []port.PositionRow{},
		signals:   []port.SignalRow{},
		now:       time.Now,
	}
}

func (s *Store) Append(ctx context.Context, entry *domain.Entry) error {
	ts := entry.Timestamp.UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.equity = append(s.equity, port.EquityRow{Ts: ts, Equity: entry.Equity})
	for _, p := range entry.Positions {
		s.positions = append(s.positions, port.PositionRow{Ts: ts, Symbol: p.Symbol, Size: p.Size, Side: p.Side})
	}
	assets := make([]string, 0, len(entry.Signals))
	for asset := range entry.Signals {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	for _, asset := range assets {
		sig := entry.Signals[asset]
		s.signals = append(s.signals, port.SignalRow{
			Ts:        ts,
			Asset:     asset,
			Timeframe: sig.Timeframe,
			Value:     sig.Value,
			UpdatedAt: sig.UpdatedAt.UnixMilli(),
		})
	}
	return nil
}

func (s *Store) Prune(ctx context.Context, retention time.Duration) error {
	cutoff := s.now().Add(-retention).UnixMilli()

	s.mu.Lock()
	defer s.mu.Unlock()

	equity := make([]port.EquityRow, 0, len(s.equity))
	for _, r := range s.equity {
		if r.Ts >= cutoff {
			equity = append(equity, r)
		}
	}
	s.equity = equity

	positions := make([]port.PositionRow, 0, len(s.positions))
	for _, r := range s.positions {
		if r.Ts >= cutoff {
			positions = append(positions, r)
		}
	}
	s.positions = positions

	signals := make([]port.SignalRow, 0, len(s.signals))
	for _, r := range s.signals {
		if r.Ts >= cutoff {
			signals = append(signals, r)
		}
	}
	s.signals = signals
	return nil
}

func (s *Store) QueryRange(ctx context.Context, start, end time.Time) (*port.RangeRows, error) {
	lo, hi := start.UnixMilli(), end.UnixMilli()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := &port.RangeRows{
		Equity:    []port.EquityRow{},
		Positions: []port.PositionRow{},
		Signals:   []port.SignalRow{},
	}
	for _, r := range s.equity {
		if r.Ts >= lo && r.Ts <= hi {
			out.Equity = append(out.Equity, r)
		}
	}
	for _, r := range s.positions {
		if r.Ts >= lo && r.Ts <= hi {
			out.Positions = append(out.Positions, r)
		}
	}
	for _, r := range s.signals {
		if r.Ts >= lo && r.Ts <= hi {
			out.Signals = append(out.Signals, r)
		}
	}
	sort.SliceStable(out.Equity, func(i, j int) bool { return out.Equity[i].Ts < out.Equity[j].Ts })
	sort.SliceStable(out.Positions, func(i, j int) bool { return out.Positions[i].Ts < out.Positions[j].Ts })
	sort.SliceStable(out.Signals, func(i, j int) bool { return out.Signals[i].Ts < out.Signals[j].Ts })
	return out, nil
}

func (s *Store) Close() error { return nil }

var _ port.Store = (*Store)(nil)
