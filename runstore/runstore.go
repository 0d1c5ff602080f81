// Package runstore keeps a local SQLite history of run summaries, so
// degraded-mode runs (static fallback, dropped records) can be spotted
// after the fact without trawling logs.
package runstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"newsharvest/pipeline"
	"newsharvest/scraper"
)

// ErrRunNotFound is returned when a run id has no recorded summary.
var ErrRunNotFound = errors.New("run not found")

// Store persists run summaries using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a run store with the given database path.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the runs table if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		status TEXT NOT NULL,
		attempted INTEGER NOT NULL,
		extracted INTEGER NOT NULL,
		dropped INTEGER NOT NULL,
		selector_source TEXT NOT NULL,
		sink_errors INTEGER NOT NULL DEFAULT 0,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one run summary.
func (s *Store) Record(summary *pipeline.Summary) error {
	query := `
	INSERT INTO runs (
		run_id, url, status, attempted, extracted, dropped,
		selector_source, sink_errors, started_at, finished_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.Exec(query,
		summary.RunID.String(),
		summary.URL,
		summary.Status,
		summary.Attempted,
		summary.Extracted,
		summary.Dropped,
		string(summary.SelectorSource),
		summary.SinkErrors,
		summary.StartedAt.Format(time.RFC3339Nano),
		summary.FinishedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Get retrieves one run summary by id.
func (s *Store) Get(runID uuid.UUID) (*pipeline.Summary, error) {
	query := `
	SELECT run_id, url, status, attempted, extracted, dropped,
	       selector_source, sink_errors, started_at, finished_at
	FROM runs WHERE run_id = ?`

	row := s.db.QueryRow(query, runID.String())
	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return summary, nil
}

// List returns the most recent run summaries, newest first.
func (s *Store) List(limit int) ([]*pipeline.Summary, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT run_id, url, status, attempted, extracted, dropped,
	       selector_source, sink_errors, started_at, finished_at
	FROM runs ORDER BY started_at DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	summaries := []*pipeline.Summary{}
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner) (*pipeline.Summary, error) {
	var (
		summary    pipeline.Summary
		runID      string
		source     string
		startedAt  string
		finishedAt string
	)

	err := sc.Scan(
		&runID,
		&summary.URL,
		&summary.Status,
		&summary.Attempted,
		&summary.Extracted,
		&summary.Dropped,
		&source,
		&summary.SinkErrors,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	if summary.RunID, err = uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	summary.SelectorSource = scraper.Source(source)
	if summary.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("invalid started_at %q: %w", startedAt, err)
	}
	if summary.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
		return nil, fmt.Errorf("invalid finished_at %q: %w", finishedAt, err)
	}

	return &summary, nil
}
