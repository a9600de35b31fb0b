package domain

import "time"

// Point is one (timestamp, value) sample of an aligned series. Series are
// sparse: consumers must not assume fixed-interval spacing.
type Point struct {
	Ts    time.Time `json:"ts"`
	Value float64   `json:"value"`
}

// SignalPoint is one (timestamp, signal value) sample, time-aligned with a
// position size series. The value holds until the next point (step-function
// semantics).
type SignalPoint struct {
	Ts    time.Time `json:"ts"`
	Value int       `json:"value"`
}

// SymbolSeries is the per-symbol output of a range render: the position size
// over time and the resolved signal value on the same time axis.
type SymbolSeries struct {
	Size   []Point       `json:"size"`
	Signal []SignalPoint `json:"signal"`
}

// AllZeroSize reports whether every size sample is zero. Eliding such
// symbols is a presentation choice left to the rendering layer.
func (s *SymbolSeries) AllZeroSize() bool {
	for _, p := range s.Size {
		if p.Value != 0 {
			return false
		}
	}
	return true
}

// RangeView is the aligned result of one range query, ready for tabular or
// chart consumption.
type RangeView struct {
	Start   time.Time                `json:"start"`
	End     time.Time                `json:"end"`
	Equity  []Point                  `json:"equity"`
	Symbols map[string]*SymbolSeries `json:"symbols"`
}
