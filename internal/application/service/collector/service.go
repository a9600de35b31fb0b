package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"kfmon/internal/application/port"
	"kfmon/internal/domain"
)

// Deps wires the collector to its collaborators. Account, Signals, Cache
// and Sink may be nil; a nil source simply degrades its portion of every
// entry.
type Deps struct {
	Store   port.Store
	Account port.AccountSource
	Signals port.SignalSource
	Cache   port.LatestCache
	Sink    port.EntrySink

	Interval           time.Duration
	FetchTimeout       time.Duration
	Retention          time.Duration
	PreferredTimeframe string
}

// Service is the single sequential stream of collection ticks. Ticks never
// overlap: the next tick starts only after the previous one's append and
// prune complete.
type Service struct {
	deps Deps
	now  func() time.Time
}

func New(deps Deps) *Service {
	return &Service{deps: deps, now: time.Now}
}

// Run executes ticks on a fixed wall-clock interval until ctx is cancelled.
// The tick duration is subtracted from the sleep so the average period stays
// close to the interval; a tick that overruns starts the next one
// immediately. No backlog is queued.
func (s *Service) Run(ctx context.Context) error {
	log.Info().
		Dur("interval", s.deps.Interval).
		Dur("retention", s.deps.Retention).
		Msg("collector started")

	for {
		tickStart := s.now()
		s.CollectOnce(ctx)

		elapsed := s.now().Sub(tickStart)
		sleep := s.deps.Interval - elapsed
		if sleep < 0 {
			sleep = 0
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// CollectOnce runs a single fetch-normalize-append-prune tick. Every failure
// is contained in the tick: failed sources default their entry field, store
// errors are logged, and the entry is always returned.
func (s *Service) CollectOnce(ctx context.Context) *domain.Entry {
	entry := domain.NewEntry(s.now())

	if s.deps.Account == nil {
		entry.Degraded.Equity = true
		entry.Degraded.Positions = true
	} else {
		s.fetchEquity(ctx, entry)
		s.fetchPositions(ctx, entry)
	}

	if s.deps.Signals == nil {
		entry.Degraded.Signals = true
	} else {
		s.fetchSignals(ctx, entry)
	}

	if entry.Degraded.Any() {
		log.Warn().
			Bool("equity", entry.Degraded.Equity).
			Bool("positions", entry.Degraded.Positions).
			Bool("signals", entry.Degraded.Signals).
			Msg("tick degraded to defaults")
	}

	if err := s.deps.Store.Append(ctx, entry); err != nil {
		log.Error().Err(err).Msg("append failed, entry not persisted")
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.SetLatest(ctx, entry); err != nil {
			log.Warn().Err(err).Msg("latest cache update failed")
		}
	}
	if s.deps.Sink != nil {
		s.deps.Sink.Publish(entry)
	}

	if err := s.deps.Store.Prune(ctx, s.deps.Retention); err != nil {
		log.Error().Err(err).Msg("prune failed")
	}

	log.Debug().
		Time("ts", entry.Timestamp).
		Float64("equity", entry.Equity).
		Int("positions", len(entry.Positions)).
		Int("signals", len(entry.Signals)).
		Msg("tick collected")

	return entry
}

func (s *Service) fetchEquity(ctx context.Context, entry *domain.Entry) {
	fctx, cancel := context.WithTimeout(ctx, s.deps.FetchTimeout)
	defer cancel()

	equity, err := s.deps.Account.MarginEquity(fctx)
	if err != nil {
		entry.Degraded.Equity = true
		log.Warn().Err(err).Msg("equity fetch failed")
		return
	}
	entry.Equity = equity
}

func (s *Service) fetchPositions(ctx context.Context, entry *domain.Entry) {
	fctx, cancel := context.WithTimeout(ctx, s.deps.FetchTimeout)
	defer cancel()

	positions, err := s.deps.Account.OpenPositions(fctx)
	if err != nil {
		entry.Degraded.Positions = true
		log.Warn().Err(err).Msg("positions fetch failed")
		return
	}
	entry.Positions = domain.NormalizePositions(positions)
}

func (s *Service) fetchSignals(ctx context.Context, entry *domain.Entry) {
	fctx, cancel := context.WithTimeout(ctx, s.deps.FetchTimeout)
	defer cancel()

	rows, err := s.deps.Signals.Signals(fctx)
	if err != nil {
		entry.Degraded.Signals = true
		log.Warn().Err(err).Msg("signals fetch failed")
		return
	}
	entry.Signals = domain.BuildSignalSet(rows, s.deps.PreferredTimeframe)
}
