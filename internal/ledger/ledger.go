package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run statuses. A run starts as StatusRunning and ends as either
// StatusCompleted or StatusFailed; stage rows additionally use StatusSkipped.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusSkipped   = "skipped"
)

// Store records packaging runs in SQLite. A nil *Store is valid and turns
// every method into a no-op, which is how the pipeline runs with history
// disabled.
type Store struct {
	db   *sql.DB
	path string
}

// Run is one packaging attempt for a story.
type Run struct {
	ID        string
	Slug      string
	Title     string
	Status    string
	CoverPath string
	Error     string
	StartedAt time.Time
	EndedAt   time.Time
}

// StageEvent is a single recorded stage of a run, in execution order.
type StageEvent struct {
	RunID    string
	Stage    string
	Status   string
	Detail   string
	Duration time.Duration
	At       time.Time
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StartRun records a new running attempt and returns its identifier.
func (s *Store) StartRun(ctx context.Context, slug, title string) (string, error) {
	if s == nil {
		return "", nil
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, slug, title, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, slug, title, StatusRunning, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// FinishRun closes out a run with its final status.
func (s *Store) FinishRun(ctx context.Context, runID, status, coverPath, errMsg string) error {
	if s == nil || runID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, cover_path = ?, error_message = ?, ended_at = ? WHERE id = ?`,
		status, nullableString(coverPath), nullableString(errMsg),
		time.Now().UTC().Format(time.RFC3339Nano), runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecordStage appends one stage outcome to a run.
func (s *Store) RecordStage(ctx context.Context, runID, stageName, status, detail string, duration time.Duration) error {
	if s == nil || runID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_stages (run_id, stage, status, detail, duration_ms, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		runID, stageName, status, nullableString(detail),
		duration.Milliseconds(), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record stage: %w", err)
	}
	return nil
}

// RecentRuns returns runs newest first, by insertion order. An empty slug
// matches every story.
func (s *Store) RecentRuns(ctx context.Context, slug string, limit int) ([]Run, error) {
	if s == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, slug, title, status, cover_path, error_message, started_at, ended_at
              FROM runs`
	args := []any{}
	if slug != "" {
		query += ` WHERE slug = ?`
		args = append(args, slug)
	}
	query += ` ORDER BY rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// StagesForRun returns a run's stage events in execution order.
func (s *Store) StagesForRun(ctx context.Context, runID string) ([]StageEvent, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, stage, status, detail, duration_ms, created_at
         FROM run_stages WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query stages: %w", err)
	}
	defer rows.Close()

	var events []StageEvent
	for rows.Next() {
		var (
			event      StageEvent
			detail     sql.NullString
			durationMS int64
			createdAt  string
		)
		if err := rows.Scan(&event.RunID, &event.Stage, &event.Status, &detail, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		event.Detail = detail.String
		event.Duration = time.Duration(durationMS) * time.Millisecond
		event.At = parseTime(createdAt)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stages: %w", err)
	}
	return events, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run       Run
		coverPath sql.NullString
		errMsg    sql.NullString
		startedAt string
		endedAt   sql.NullString
	)
	if err := rows.Scan(&run.ID, &run.Slug, &run.Title, &run.Status, &coverPath, &errMsg, &startedAt, &endedAt); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.CoverPath = coverPath.String
	run.Error = errMsg.String
	run.StartedAt = parseTime(startedAt)
	if endedAt.Valid {
		run.EndedAt = parseTime(endedAt.String)
	}
	return run, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
