// # internal/data/history/store.go
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// Snapshot is one recorded analysis run.
type Snapshot struct {
	RunID       string
	Timestamp   time.Time
	Cwd         string
	TotalFiles  int
	UnusedCount int
	Warnings    int
	DurationMS  int64
}

// Store persists analysis snapshots so unused-file counts can be tracked
// over time.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func ensureSchema(db *sql.DB) error {
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  run_id TEXT NOT NULL PRIMARY KEY,
  ts_utc TEXT NOT NULL,
  cwd TEXT NOT NULL,
  total_files INTEGER NOT NULL,
  unused_count INTEGER NOT NULL,
  warning_count INTEGER NOT NULL DEFAULT 0,
  duration_ms INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(ts_utc);
CREATE INDEX IF NOT EXISTS idx_runs_cwd ON runs(cwd);
`)
	return err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveSnapshot(snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}

	_, err := s.db.Exec(`
INSERT INTO runs (run_id, ts_utc, cwd, total_files, unused_count, warning_count, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snapshot.RunID,
		snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
		snapshot.Cwd,
		snapshot.TotalFiles,
		snapshot.UnusedCount,
		snapshot.Warnings,
		snapshot.DurationMS,
	)
	return err
}

// Recent returns up to limit snapshots for cwd, newest first.
func (s *Store) Recent(cwd string, limit int) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(`
SELECT run_id, ts_utc, cwd, total_files, unused_count, warning_count, duration_ms
FROM runs WHERE cwd = ? ORDER BY ts_utc DESC LIMIT ?`, cwd, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var ts string
		if err := rows.Scan(&snap.RunID, &ts, &snap.Cwd, &snap.TotalFiles,
			&snap.UnusedCount, &snap.Warnings, &snap.DurationMS); err != nil {
			return nil, err
		}
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			snap.Timestamp = parsed
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Trend reports the unused-count delta between the two most recent runs for
// cwd; ok is false with fewer than two runs.
func (s *Store) Trend(cwd string) (delta int, ok bool, err error) {
	recent, err := s.Recent(cwd, 2)
	if err != nil {
		return 0, false, err
	}
	if len(recent) < 2 {
		return 0, false, nil
	}
	return recent[0].UnusedCount - recent[1].UnusedCount, true, nil
}
