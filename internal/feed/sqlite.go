package feed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"macroalloc/internal/series"
)

const schema = `
CREATE TABLE IF NOT EXISTS observations (
	series_key  TEXT    NOT NULL,
	observed_at INTEGER NOT NULL,
	value       REAL    NOT NULL,
	recorded_at INTEGER NOT NULL,
	PRIMARY KEY (series_key, observed_at)
);
`

var ErrUndated = errors.New("observation has no date")

// SQLiteStore persists observations written by the data layer and serves the
// most recent ones back as snapshots.
type SQLiteStore struct {
	db       *sql.DB
	lookback int
}

// OpenSQLite opens (creating if needed) the store at path. A path starting
// with "file:" is passed through untouched, which is how tests get an
// in-memory database.
func OpenSQLite(ctx context.Context, path string, lookback int) (*SQLiteStore, error) {
	if !strings.HasPrefix(path, "file:") {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		path = absPath
	}
	if lookback < 2 {
		lookback = 2
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open series database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate series database: %w", err)
	}
	return &SQLiteStore{db: db, lookback: lookback}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Record upserts one observation.
func (s *SQLiteStore) Record(ctx context.Context, key string, p series.Point) error {
	return record(ctx, s.db, key, p)
}

// Import records every point of data in a single transaction.
func (s *SQLiteStore) Import(ctx context.Context, data series.Data) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	count := 0
	for key, snapshot := range data {
		for _, p := range snapshot {
			if err := record(ctx, tx, key, p); err != nil {
				return 0, err
			}
			count++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return count, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func record(ctx context.Context, db execer, key string, p series.Point) error {
	if key == "" {
		return errors.New("series key is required")
	}
	if p.Time.IsZero() {
		return fmt.Errorf("series %s: %w", key, ErrUndated)
	}
	if err := (series.Snapshot{p}).Validate(); err != nil {
		return fmt.Errorf("series %s: %w", key, err)
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO observations (series_key, observed_at, value, recorded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (series_key, observed_at) DO UPDATE SET
			value = excluded.value,
			recorded_at = excluded.recorded_at`,
		key, p.Time.UTC().Unix(), p.Value, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("record %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Snapshot(ctx context.Context, keys []string) (series.Data, error) {
	data := make(series.Data, len(keys))
	for _, key := range keys {
		snapshot, err := s.History(ctx, key, s.lookback)
		if err != nil {
			return nil, err
		}
		if len(snapshot) > 0 {
			data[key] = snapshot
		}
	}
	return data, nil
}

// History returns up to limit of the latest observations of key, oldest first.
func (s *SQLiteStore) History(ctx context.Context, key string, limit int) (series.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT observed_at, value FROM observations
		WHERE series_key = ?
		ORDER BY observed_at DESC
		LIMIT ?`, key, limit)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", key, err)
	}
	defer rows.Close()

	var snapshot series.Snapshot
	for rows.Next() {
		var observedAt int64
		var value float64
		if err := rows.Scan(&observedAt, &value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", key, err)
		}
		snapshot = append(snapshot, series.Point{Time: time.Unix(observedAt, 0).UTC(), Value: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", key, err)
	}
	for i, j := 0, len(snapshot)-1; i < j; i, j = i+1, j-1 {
		snapshot[i], snapshot[j] = snapshot[j], snapshot[i]
	}
	return snapshot, nil
}

// Keys lists every series with at least one observation.
func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT series_key FROM observations ORDER BY series_key`)
	if err != nil {
		return nil, fmt.Errorf("query series keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan series key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
