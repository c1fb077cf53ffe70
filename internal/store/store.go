package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wattnudge/wattnudge/internal/engine"
	_ "modernc.org/sqlite"
)

// Store caches fetched feed data in SQLite so stale-value fallbacks
// survive restarts.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the cache database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS price_days (
		date TEXT PRIMARY KEY,
		records TEXT NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS weather_cache (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		snapshot TEXT NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS rate_cache (
		code TEXT PRIMARY KEY,
		rate REAL NOT NULL,
		fetched_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveSeries caches one trading day's normalized series under its
// calendar date.
func (s *Store) SaveSeries(ctx context.Context, date time.Time, series engine.DailySeries) error {
	recordsJSON, err := json.Marshal(series)
	if err != nil {
		return err
	}

	query := `INSERT OR REPLACE INTO price_days (date, records, fetched_at) VALUES (?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query, date.Format("2006-01-02"), string(recordsJSON), time.Now())
	return err
}

// GetSeries loads a cached series for a calendar date. sql.ErrNoRows when
// the date was never cached.
func (s *Store) GetSeries(ctx context.Context, date time.Time) (engine.DailySeries, error) {
	var recordsJSON string
	query := `SELECT records FROM price_days WHERE date = ?`
	err := s.db.QueryRowContext(ctx, query, date.Format("2006-01-02")).Scan(&recordsJSON)
	if err != nil {
		return engine.DailySeries{}, err
	}

	var series engine.DailySeries
	if err := json.Unmarshal([]byte(recordsJSON), &series); err != nil {
		return engine.DailySeries{}, err
	}
	return series, nil
}

// PruneSeries drops cached days older than the given date.
func (s *Store) PruneSeries(ctx context.Context, before time.Time) error {
	query := `DELETE FROM price_days WHERE date < ?`
	_, err := s.db.ExecContext(ctx, query, before.Format("2006-01-02"))
	return err
}

// SaveSnapshot caches the latest reduced sun snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snap engine.SunSnapshot) error {
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	query := `INSERT OR REPLACE INTO weather_cache (id, snapshot, fetched_at) VALUES (1, ?, ?)`
	_, err = s.db.ExecContext(ctx, query, string(snapJSON), time.Now())
	return err
}

// GetSnapshot loads the cached sun snapshot, if any.
func (s *Store) GetSnapshot(ctx context.Context) (engine.SunSnapshot, error) {
	var snapJSON string
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM weather_cache WHERE id = 1`).Scan(&snapJSON)
	if err != nil {
		return engine.SunSnapshot{}, err
	}

	var snap engine.SunSnapshot
	if err := json.Unmarshal([]byte(snapJSON), &snap); err != nil {
		return engine.SunSnapshot{}, err
	}
	return snap, nil
}

// SaveRate persists a last-known exchange rate.
func (s *Store) SaveRate(ctx context.Context, code string, rate float64, at time.Time) error {
	query := `INSERT OR REPLACE INTO rate_cache (code, rate, fetched_at) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, code, rate, at)
	return err
}

// LoadRate returns the persisted rate for a currency code.
func (s *Store) LoadRate(ctx context.Context, code string) (float64, time.Time, error) {
	var rate float64
	var at time.Time
	query := `SELECT rate, fetched_at FROM rate_cache WHERE code = ?`
	err := s.db.QueryRowContext(ctx, query, code).Scan(&rate, &at)
	if err != nil {
		return 0, time.Time{}, err
	}
	return rate, at, nil
}
