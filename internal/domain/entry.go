package domain

import (
	"strings"
	"time"
)

// Position is one open position as reported by the exchange. Symbol is in
// the exchange namespace (e.g. "PF_XBTUSD"), not the signal-source namespace.
type Position struct {
	Symbol string
	Size   float64
	Side   string
}

// Signal is the signal-source record kept for one asset after timeframe
// tie-breaking. The asset identifier is the map key in Entry.Signals.
type Signal struct {
	Timeframe string
	Value     int
	UpdatedAt time.Time
}

// SourceSignal is one raw row from the signal source, before tie-breaking.
type SourceSignal struct {
	Asset     string
	Timeframe string
	Value     int
	UpdatedAt time.Time
}

// Degradation records which sources fell back to defaults while building an
// entry. It is logged per tick and never persisted.
type Degradation struct {
	Equity    bool
	Positions bool
	Signals   bool
}

func (d Degradation) Any() bool { return d.Equity || d.Positions || d.Signals }

// Entry is one timestamped observation of equity, open positions and signals.
// Any field may hold its zero default when the corresponding source failed;
// the entry is still valid and still stored.
type Entry struct {
	Timestamp time.Time
	Equity    float64
	Positions []Position
	Signals   map[string]Signal
	Degraded  Degradation
}

func NewEntry(ts time.Time) *Entry {
	return &Entry{
		Timestamp: ts.UTC(),
		Positions: []Position{},
		Signals:   map[string]Signal{},
	}
}

// NormalizePositions drops entries with an empty symbol and deduplicates by
// symbol, keeping the first occurrence.
func NormalizePositions(in []Position) []Position {
	out := make([]Position, 0, len(in))
	seen := map[string]struct{}{}
	for _, p := range in {
		sym := strings.TrimSpace(p.Symbol)
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		p.Symbol = sym
		out = append(out, p)
	}
	return out
}

// BuildSignalSet collapses raw signal rows to one record per asset. The first
// row seen for an asset is a placeholder; a row on the preferred timeframe
// unconditionally overwrites whatever is held, so the result does not depend
// on row order.
func BuildSignalSet(rows []SourceSignal, preferredTF string) map[string]Signal {
	set := make(map[string]Signal, len(rows))
	for _, r := range rows {
		asset := strings.TrimSpace(r.Asset)
		if asset == "" {
			continue
		}
		if _, ok := set[asset]; ok && r.Timeframe != preferredTF {
			continue
		}
		set[asset] = Signal{Timeframe: r.Timeframe, Value: r.Value, UpdatedAt: r.UpdatedAt}
	}
	return set
}
