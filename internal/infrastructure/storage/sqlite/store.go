package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"kfmon/internal/application/port"
	"kfmon/internal/domain"
)

// Store is the durable telemetry store: three append-only logs keyed by
// timestamp, pruned wholesale by age.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (creating if needed) the store at path and idempotently ensures
// the schema. Safe to call on every process start.
func New(path string) (*Store, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("telemetry store init: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS equity_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_ms INTEGER NOT NULL,
  equity REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_equity_ts ON equity_log(ts_ms);

CREATE TABLE IF NOT EXISTS position_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_ms INTEGER NOT NULL,
  symbol TEXT NOT NULL,
  size REAL NOT NULL,
  side TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_position_ts ON position_log(ts_ms);
CREATE INDEX IF NOT EXISTS idx_position_symbol ON position_log(symbol);

CREATE TABLE IF NOT EXISTS signal_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts_ms INTEGER NOT NULL,
  asset TEXT NOT NULL,
  timeframe TEXT NOT NULL,
  value INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signal_ts ON signal_log(ts_ms);
CREATE INDEX IF NOT EXISTS idx_signal_asset ON signal_log(asset);
`)
	return err
}

// Append writes the entry's equity row plus one row per position and per
// signal asset, all attributed to the entry's timestamp, in a single
// transaction. Either the whole tick is visible or none of it is.
func (s *Store) Append(ctx context.Context, entry *domain.Entry) error {
	ts := entry.Timestamp.UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO equity_log(ts_ms, equity) VALUES(?, ?)`,
		ts, entry.Equity); err != nil {
		return err
	}

	for _, p := range entry.Positions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO position_log(ts_ms, symbol, size, side) VALUES(?, ?, ?, ?)`,
			ts, p.Symbol, p.Size, p.Side); err != nil {
			return err
		}
	}

	for asset, sig := range entry.Signals {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO signal_log(ts_ms, asset, timeframe, value, updated_at) VALUES(?, ?, ?, ?, ?)`,
			ts, asset, sig.Timeframe, sig.Value, sig.UpdatedAt.UnixMilli()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Prune deletes rows strictly older than now minus retention across the
// three logs. One short transaction; safe to run concurrently with Append
// and QueryRange.
func (s *Store) Prune(ctx context.Context, retention time.Duration) error {
	cutoff := s.now().Add(-retention).UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"equity_log", "position_log", "signal_log"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE ts_ms < ?`, table), cutoff); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// QueryRange returns all rows with start <= ts <= end for each log, ordered
// by ascending timestamp. Empty ranges yield empty slices.
func (s *Store) QueryRange(ctx context.Context, start, end time.Time) (*port.RangeRows, error) {
	lo, hi := start.UnixMilli(), end.UnixMilli()
	out := &port.RangeRows{
		Equity:    []port.EquityRow{},
		Positions: []port.PositionRow{},
		Signals:   []port.SignalRow{},
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT ts_ms, equity FROM equity_log WHERE ts_ms BETWEEN ? AND ? ORDER BY ts_ms ASC`, lo, hi)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var r port.EquityRow
		if err := rows.Scan(&r.Ts, &r.Equity); err != nil {
			rows.Close()
			return nil, err
		}
		out.Equity = append(out.Equity, r)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT ts_ms, symbol, size, side FROM position_log WHERE ts_ms BETWEEN ? AND ? ORDER BY ts_ms ASC, symbol ASC`, lo, hi)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var r port.PositionRow
		if err := rows.Scan(&r.Ts, &r.Symbol, &r.Size, &r.Side); err != nil {
			rows.Close()
			return nil, err
		}
		out.Positions = append(out.Positions, r)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT ts_ms, asset, timeframe, value, updated_at FROM signal_log WHERE ts_ms BETWEEN ? AND ? ORDER BY ts_ms ASC, asset ASC`, lo, hi)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var r port.SignalRow
		if err := rows.Scan(&r.Ts, &r.Asset, &r.Timeframe, &r.Value, &r.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		out.Signals = append(out.Signals, r)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	return out, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}

var _ port.Store = (*Store)(nil)
