package render

import (
	"context"
	"sort"
	"time"

	"kfmon/internal/application/port"
	"kfmon/internal/domain"
)

// Engine turns raw range-query rows into per-series aligned sequences ready
// for tabular or chart rendering. It is the only reader of the telemetry
// store.
type Engine struct {
	store    port.Store
	resolver *domain.Resolver
}

func New(store port.Store, resolver *domain.Resolver) *Engine {
	return &Engine{store: store, resolver: resolver}
}

// signalTimeline indexes the signal log by tick: a sorted list of distinct
// timestamps, each carrying the full signal set recorded at that tick.
type signalTimeline struct {
	ts   []int64
	sets map[int64]map[string]domain.Signal
}

func buildTimeline(rows []port.SignalRow) *signalTimeline {
	tl := &signalTimeline{sets: map[int64]map[string]domain.Signal{}}
	for _, r := range rows {
		set, ok := tl.sets[r.Ts]
		if !ok {
			set = map[string]domain.Signal{}
			tl.sets[r.Ts] = set
			tl.ts = append(tl.ts, r.Ts)
		}
		set[r.Asset] = domain.Signal{
			Timeframe: r.Timeframe,
			Value:     r.Value,
			UpdatedAt: time.UnixMilli(r.UpdatedAt).UTC(),
		}
	}
	// rows arrive ts-ascending from the store, but don't rely on it
	sort.Slice(tl.ts, func(i, j int) bool { return tl.ts[i] < tl.ts[j] })
	return tl
}

// at returns the signal set recorded at ts, or at the nearest preceding
// tick when there is no exact match. Nil when ts is before all signals.
func (tl *signalTimeline) at(ts int64) map[string]domain.Signal {
	i := sort.Search(len(tl.ts), func(i int) bool { return tl.ts[i] > ts })
	if i == 0 {
		return nil
	}
	return tl.sets[tl.ts[i-1]]
}

// RenderRange aligns the three streams over [start, end] on a shared time
// axis. Series are sparse; a store read failure is surfaced to the caller.
func (e *Engine) RenderRange(ctx context.Context, start, end time.Time) (*domain.RangeView, error) {
	rows, err := e.store.QueryRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	view := &domain.RangeView{
		Start:   start.UTC(),
		End:     end.UTC(),
		Equity:  make([]domain.Point, 0, len(rows.Equity)),
		Symbols: map[string]*domain.SymbolSeries{},
	}

	for _, r := range rows.Equity {
		view.Equity = append(view.Equity, domain.Point{
			Ts:    time.UnixMilli(r.Ts).UTC(),
			Value: r.Equity,
		})
	}

	timeline := buildTimeline(rows.Signals)

	for _, r := range rows.Positions {
		series, ok := view.Symbols[r.Symbol]
		if !ok {
			series = &domain.SymbolSeries{Size: []domain.Point{}, Signal: []domain.SignalPoint{}}
			view.Symbols[r.Symbol] = series
		}
		ts := time.UnixMilli(r.Ts).UTC()
		size := r.Size
		if r.Side == "short" && size > 0 {
			size = -size
		}
		series.Size = append(series.Size, domain.Point{Ts: ts, Value: size})
		series.Signal = append(series.Signal, domain.SignalPoint{
			Ts:    ts,
			Value: e.resolver.Resolve(r.Symbol, timeline.at(r.Ts)),
		})
	}

	return view, nil
}
