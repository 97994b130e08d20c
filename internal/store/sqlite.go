package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"eventstats/internal/logger"
	"eventstats/pkg/models"
)

// ErrNotFound reports that a breakdown query matched no events. It is an
// outcome, not a query-engine fault.
var ErrNotFound = errors.New("no events found for indicated timeframe")

// ErrBadDimension reports an unsupported breakdown dimension.
var ErrBadDimension = errors.New("unsupported breakdown dimension")

// dimensions whitelists the queryable columns. Interpolating the column
// name into SQL is safe only through this map.
var dimensions = map[string]string{
	"browser": "browser",
	"os":      "os",
	"device":  "device",
}

// Store persists enriched records in the events_log SQLite table.
type Store struct {
	db *sql.DB

	// Serializes ingestion runs. Readers are isolated by the replace
	// transaction and never take this lock.
	writeMu sync.Mutex
}

// Open opens (or creates) the SQLite database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Replace swaps the full contents of events_log for the given record set
// in one transaction. Concurrent readers see either the previous table or
// the new one, never a partial load.
func (s *Store) Replace(ctx context.Context, records []models.EnrichedRecord) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin replace transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS events_log"); err != nil {
		return fmt.Errorf("failed to drop events_log: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `CREATE TABLE events_log (
		raw_event TEXT NOT NULL UNIQUE,
		timestamp DATETIME,
		user_id TEXT,
		url TEXT,
		device TEXT,
		os TEXT,
		browser TEXT,
		country TEXT,
		city TEXT
	)`); err != nil {
		return fmt.Errorf("failed to create events_log: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO events_log (raw_event, timestamp, user_id, url, device, os, browser, country, city) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.RawKey, r.Timestamp, r.UserID, r.URL, r.Device, r.OS, r.Browser, r.Country, r.City); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.RawKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit replace: %w", err)
	}

	logger.Infof("events_log replaced with %d records", len(records))
	return nil
}

// Breakdown returns the percentage distribution of the given dimension
// over events_log. When both bounds are given (as "2006-01-02 15:04:05"
// strings) the set is restricted to timestamps strictly inside the
// interval. A filter that matches nothing yields ErrNotFound; any query
// execution failure is returned as an error for the caller to surface as
// a server fault.
func (s *Store) Breakdown(ctx context.Context, dimension, start, end string) ([]models.BreakdownRow, error) {
	column, ok := dimensions[dimension]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBadDimension, dimension)
	}

	query := fmt.Sprintf(
		"SELECT %s, COUNT(*) AS n FROM events_log GROUP BY %s ORDER BY n DESC, %s ASC",
		column, column, column)
	args := []any{}
	if start != "" && end != "" {
		query = fmt.Sprintf(
			"SELECT %s, COUNT(*) AS n FROM events_log WHERE timestamp > ? AND timestamp < ? GROUP BY %s ORDER BY n DESC, %s ASC",
			column, column, column)
		args = []any{start, end}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events_log: %w", err)
	}
	defer rows.Close()

	type group struct {
		label string
		count int
	}
	var groups []group
	total := 0
	for rows.Next() {
		var g group
		if err := rows.Scan(&g.label, &g.count); err != nil {
			return nil, fmt.Errorf("failed to scan breakdown row: %w", err)
		}
		groups = append(groups, g)
		total += g.count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read breakdown rows: %w", err)
	}

	if len(groups) == 0 {
		return nil, ErrNotFound
	}

	out := make([]models.BreakdownRow, 0, len(groups))
	for _, g := range groups {
		out = append(out, models.BreakdownRow{
			Label:      g.label,
			Percentage: fmt.Sprintf("%.2f%%", float64(g.count)/float64(total)*100),
		})
	}
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
