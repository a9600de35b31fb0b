package web

import (
	"encoding/json"
	"html/template"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"kfmon/internal/application/port"
	"kfmon/internal/application/service/render"
	"kfmon/internal/domain"
)

const (
	defaultWindow = 24 * time.Hour
	maxWindow     = 168 * time.Hour
)

// Server renders the operator dashboard. It only sees the aggregation
// engine's aligned output and the latest-entry cache, never raw store rows.
type Server struct {
	engine   *render.Engine
	cache    port.LatestCache
	hub      *Hub
	resolver *domain.Resolver
	tmpl     *template.Template
	now      func() time.Time
}

func NewServer(engine *render.Engine, cache port.LatestCache, hub *Hub, resolver *domain.Resolver) *Server {
	return &Server{
		engine:   engine,
		cache:    cache,
		hub:      hub,
		resolver: resolver,
		tmpl:     template.Must(template.New("index").Parse(indexTemplate)),
		now:      time.Now,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/range", s.handleRange)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/ws", s.hub.serveWS)
	return mux
}

func windowParam(r *http.Request) time.Duration {
	v := r.URL.Query().Get("window")
	if v == "" {
		return defaultWindow
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultWindow
	}
	if d > maxWindow {
		return maxWindow
	}
	return d
}

type positionRow struct {
	Symbol string
	Size   float64
	Side   string
	Signal int
}

type signalRow struct {
	Asset     string
	Timeframe string
	Value     int
	UpdatedAt time.Time
}

type symbolRow struct {
	Symbol     string
	LastSize   float64
	LastSignal int
	Points     int
}

type equitySummary struct {
	Last   float64
	Min    float64
	Max    float64
	Points int
}

type latestView struct {
	Timestamp time.Time
	Equity    float64
	Positions []positionRow
	Signals   []signalRow
}

type indexView struct {
	Generated time.Time
	Window    string
	Err       string
	Latest    *latestView
	Equity    *equitySummary
	Symbols   []symbolRow
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	window := windowParam(r)
	end := s.now()
	data := indexView{Generated: end.UTC(), Window: window.String()}

	view, err := s.engine.RenderRange(r.Context(), end.Add(-window), end)
	if err != nil {
		log.Error().Err(err).Msg("range render failed")
		data.Err = "telemetry store unavailable - no data"
	} else {
		data.Equity = summarizeEquity(view.Equity)
		data.Symbols = summarizeSymbols(view.Symbols)
	}

	data.Latest = s.latestView(r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		log.Error().Err(err).Msg("template render failed")
	}
}

func (s *Server) latestView(r *http.Request) *latestView {
	if s.cache == nil {
		return nil
	}
	entry, ok, err := s.cache.Latest(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("latest cache read failed")
		return nil
	}
	if !ok {
		return nil
	}

	lv := &latestView{Timestamp: entry.Timestamp, Equity: entry.Equity}
	for _, p := range entry.Positions {
		lv.Positions = append(lv.Positions, positionRow{
			Symbol: p.Symbol,
			Size:   p.Size,
			Side:   p.Side,
			Signal: s.resolver.Resolve(p.Symbol, entry.Signals),
		})
	}
	assets := make([]string, 0, len(entry.Signals))
	for asset := range entry.Signals {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	for _, asset := range assets {
		sig := entry.Signals[asset]
		lv.Signals = append(lv.Signals, signalRow{
			Asset:     asset,
			Timeframe: sig.Timeframe,
			Value:     sig.Value,
			UpdatedAt: sig.UpdatedAt,
		})
	}
	return lv
}

func summarizeEquity(points []domain.Point) *equitySummary {
	if len(points) == 0 {
		return &equitySummary{}
	}
	sum := &equitySummary{
		Last:   points[len(points)-1].Value,
		Min:    points[0].Value,
		Max:    points[0].Value,
		Points: len(points),
	}
	for _, p := range points {
		if p.Value < sum.Min {
			sum.Min = p.Value
		}
		if p.Value > sum.Max {
			sum.Max = p.Value
		}
	}
	return sum
}

// summarizeSymbols elides symbols whose size never left zero over the
// window. That filtering is a presentation choice, not a store guarantee.
func summarizeSymbols(symbols map[string]*domain.SymbolSeries) []symbolRow {
	out := make([]symbolRow, 0, len(symbols))
	for sym, series := range symbols {
		if series.AllZeroSize() {
			continue
		}
		row := symbolRow{Symbol: sym, Points: len(series.Size)}
		if n := len(series.Size); n > 0 {
			row.LastSize = series.Size[n-1].Value
		}
		if n := len(series.Signal); n > 0 {
			row.LastSignal = series.Signal[n-1].Value
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	window := windowParam(r)
	end := s.now()

	view, err := s.engine.RenderRange(r.Context(), end.Add(-window), end)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		log.Error().Err(err).Msg("range render failed")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "telemetry store unavailable"})
		return
	}
	json.NewEncoder(w).Encode(view)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
