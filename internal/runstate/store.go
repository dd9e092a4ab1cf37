package runstate

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"scribe/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; users clear the run database after schema changes.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store persists per-run item outcomes backed by SQLite. It is reporting
// state only: resume decisions always come from the plaintext ledger, so a
// lost or damaged run database never changes what gets fetched.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// Open initializes or connects to the run database at the configured path.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.RunDBPath())
}

// OpenPath initializes or connects to the run database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
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

	store := &Store{db: db, path: dbPath}
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

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// BeginRun inserts a new run row and returns its identifier.
func (s *Store) BeginRun(ctx context.Context, posture string) (string, error) {
	id := uuid.NewString()
	err := s.execWithRetry(ctx,
		"INSERT INTO runs (id, started_at, posture) VALUES (?, ?, ?)",
		id, time.Now().UTC().Format(time.RFC3339), posture,
	)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// RecordItem stores the final outcome of one item within a run.
func (s *Store) RecordItem(ctx context.Context, runID string, item Item) error {
	err := s.execWithRetry(ctx,
		`INSERT INTO run_items (run_id, collection, item_id, title, status, failure, languages, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, item.Collection, item.ItemID, item.Title, string(item.Status),
		item.Failure, joinLanguages(item.Languages), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record item %s: %w", item.ItemID, err)
	}
	return nil
}

// FinishRun stamps the run with its end time and final counters.
func (s *Store) FinishRun(ctx context.Context, runID string, run Run) error {
	err := s.execWithRetry(ctx,
		`UPDATE runs SET finished_at = ?, processed = ?, skipped = ?, failed = ?, no_variant = ?, rate_limit_events = ?
		 WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339),
		run.Processed, run.Skipped, run.Failed, run.NoVariant, run.RateLimitEvents,
		runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// LatestRun returns the most recently started run, or ok=false when the
// database holds no runs yet.
func (s *Store) LatestRun(ctx context.Context) (Run, bool, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at, COALESCE(finished_at, ''), posture, processed, skipped, failed, no_variant, rate_limit_events
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, fmt.Errorf("load latest run: %w", err)
	}
	return run, true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var started, finished string
	if err := row.Scan(&run.ID, &started, &finished, &run.Posture,
		&run.Processed, &run.Skipped, &run.Failed, &run.NoVariant, &run.RateLimitEvents); err != nil {
		return Run{}, err
	}
	if t, err := time.Parse(time.RFC3339, started); err == nil {
		run.StartedAt = t
	}
	if finished != "" {
		if t, err := time.Parse(time.RFC3339, finished); err == nil {
			run.FinishedAt = t
			run.Finished = true
		}
	}
	return run, nil
}

// Items returns all item outcomes for a run, optionally filtered by status.
func (s *Store) Items(ctx context.Context, runID string, statuses ...ItemStatus) ([]Item, error) {
	ctx = ensureContext(ctx)

	query := `SELECT collection, item_id, title, status, failure, languages, updated_at
		 FROM run_items WHERE run_id = ?`
	args := []any{runID}
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		query += " AND status IN (" + strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY collection, item_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query run items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var status, langs, updated string
		if err := rows.Scan(&item.Collection, &item.ItemID, &item.Title, &status, &item.Failure, &langs, &updated); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		item.Status = ItemStatus(status)
		item.Languages = splitLanguages(langs)
		if t, err := time.Parse(time.RFC3339, updated); err == nil {
			item.UpdatedAt = t
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run items: %w", err)
	}
	return items, nil
}

// Prune removes finished runs older than the cutoff, cascading their items.
func (s *Store) Prune(ctx context.Context, before time.Time) error {
	return s.execWithRetry(ctx,
		"DELETE FROM runs WHERE finished_at IS NOT NULL AND finished_at < ?",
		before.UTC().Format(time.RFC3339),
	)
}
