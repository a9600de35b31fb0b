package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"kfmon/internal/application/port"
	"kfmon/internal/domain"
)

// Source reads externally computed trading signals from the live_matrix
// table. It is read-only: the table is owned by the signal pipeline.
type Source struct {
	db    *sql.DB
	table string
}

func New(dsn string) (*Source, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	return &Source{db: db, table: "live_matrix"}, nil
}

func (s *Source) Close() error { return s.db.Close() }

// Signals returns all current rows. Row order is whatever the database
// yields; the caller's timeframe tie-breaking must not depend on it.
func (s *Source) Signals(ctx context.Context) ([]domain.SourceSignal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT asset, tf, signal_val, updated_at FROM `+s.table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SourceSignal
	for rows.Next() {
		var (
			asset, tf string
			val       int
			updatedAt time.Time
		)
		if err := rows.Scan(&asset, &tf, &val, &updatedAt); err != nil {
			return nil, err
		}
		out = append(out, domain.SourceSignal{
			Asset:     asset,
			Timeframe: tf,
			Value:     val,
			UpdatedAt: updatedAt.UTC(),
		})
	}
	return out, rows.Err()
}

var _ port.SignalSource = (*Source)(nil)
