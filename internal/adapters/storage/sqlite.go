// Package storage provides SQLite implementations of the storage ports.
package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/xvierd/tally/internal/ports"
	"modernc.org/sqlite"
)

const (
	busyTimeoutMS  = 2000
	maxBusyRetries = 5
	busyBaseDelay  = 50 * time.Millisecond
	busyMaxDelay   = 500 * time.Millisecond
)

// foldFunc names the SQL function that lowercases text with Go's Unicode
// rules. SQLite's LOWER and NOCASE only fold ASCII.
const foldFunc = "fold"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, func(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		switch v := args[0].(type) {
		case string:
			return foldKey(v), nil
		case []byte:
			return foldKey(string(v)), nil
		default:
			return v, nil
		}
	})
}

// foldKey is the case-insensitive lookup key of a tag or project name.
func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// dbtx is the subset of *sql.DB and *sql.Tx the repositories need, so the
// same repository code runs inside or outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// repositories binds every repository to one dbtx.
type repositories struct {
	tasks    *taskRepository
	sessions *sessionRepository
	activity *activityRepository
	catalog  *catalogRepository
}

func newRepositories(db dbtx) *repositories {
	return &repositories{
		tasks:    &taskRepository{db: db},
		sessions: &sessionRepository{db: db},
		activity: &activityRepository{db: db},
		catalog:  &catalogRepository{db: db},
	}
}

func (r *repositories) Tasks() ports.TaskRepository { return r.tasks }
func (r *repositories) Sessions() ports.SessionRepository { return r.sessions }
func (r *repositories) Activity() ports.ActivityRepository { return r.activity }
func (r *repositories) Catalog() ports.CatalogRepository { return r.catalog }

// sqliteStorage implements the ports.Storage interface using SQLite.
type sqliteStorage struct {
	*repositories
	db     *sql.DB
	logger *slog.Logger
}

// Ensure sqliteStorage implements ports.Storage.
var _ ports.Storage = (*sqliteStorage)(nil)

// Option configures the storage.
type Option func(*sqliteStorage)

// WithLogger sets the logger used for busy retries.
func WithLogger(logger *slog.Logger) Option {
	return func(s *sqliteStorage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a new SQLite storage instance.
func New(dbPath string, opts ...Option) (ports.Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection: SQLite has a single writer, and an in-memory database
	// only exists on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMS),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", p, err)
		}
	}

	storage := &sqliteStorage{
		repositories: newRepositories(db),
		db:           db,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(storage)
	}

	if err := storage.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return storage, nil
}

// NewMemory creates a new in-memory SQLite storage instance for testing.
func NewMemory(opts ...Option) (ports.Storage, error) {
	return New(":memory:", opts...)
}

// WithinTx runs fn inside a transaction, retrying the whole unit a bounded
// number of times when SQLite reports the database busy or locked.
func (s *sqliteStorage) WithinTx(ctx context.Context, fn func(tx ports.Repositories) error) error {
	attempt := 0
	return retryOnBusy(ctx, maxBusyRetries, func() error {
		if attempt > 0 {
			s.logger.Warn("retrying busy transaction", "attempt", attempt)
		}
		attempt++
		return s.runTx(ctx, fn)
	})
}

func (s *sqliteStorage) runTx(ctx context.Context, fn func(tx ports.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(newRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *sqliteStorage) Close() error {
	return s.db.Close()
}

// Migrate creates the database schema.
func (s *sqliteStorage) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		name_key TEXT NOT NULL UNIQUE,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS priorities (
		id INTEGER PRIMARY KEY,
		label TEXT NOT NULL UNIQUE,
		weight INTEGER NOT NULL
	);

	INSERT OR IGNORE INTO priorities (id, label, weight) VALUES
		(1, 'low', 1), (2, 'medium', 2), (3, 'high', 3), (4, 'urgent', 4);

	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL CHECK (length(trim(title)) > 0),
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL CHECK (status IN ('todo', 'in progress', 'done', 'archived')),
		project_id INTEGER REFERENCES projects(id) ON DELETE SET NULL,
		priority_id INTEGER REFERENCES priorities(id) ON DELETE SET NULL,
		eta_sec INTEGER,
		due_at INTEGER,
		started_at INTEGER,
		ended_at INTEGER,
		archived_at INTEGER,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
	CREATE INDEX IF NOT EXISTS idx_tasks_updated ON tasks(updated_at);
	CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);

	CREATE TABLE IF NOT EXISTS tags (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		name_key TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS task_tags (
		task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (task_id, tag_id)
	);

	CREATE INDEX IF NOT EXISTS idx_task_tags_tag ON task_tags(tag_id);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		kind TEXT NOT NULL DEFAULT 'focus' CHECK (kind IN ('focus', 'break')),
		started_at INTEGER NOT NULL,
		ended_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_task ON sessions(task_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);

	-- At most one open focus session across all tasks.
	CREATE UNIQUE INDEX IF NOT EXISTS ux_sessions_open_focus
		ON sessions(kind) WHERE ended_at IS NULL AND kind = 'focus';

	CREATE TABLE IF NOT EXISTS session_pauses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		started_at INTEGER NOT NULL,
		ended_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_pauses_session ON session_pauses(session_id);

	CREATE UNIQUE INDEX IF NOT EXISTS ux_pauses_open
		ON session_pauses(session_id) WHERE ended_at IS NULL;

	CREATE TABLE IF NOT EXISTS activity_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER NOT NULL,
		delta INTEGER NOT NULL CHECK (delta IN (-1, 1))
	);

	CREATE INDEX IF NOT EXISTS idx_activity_ts ON activity_events(ts);

	CREATE TABLE IF NOT EXISTS clock_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at INTEGER NOT NULL,
		kind TEXT NOT NULL CHECK (kind IN ('in', 'out'))
	);

	CREATE INDEX IF NOT EXISTS idx_clock_at ON clock_events(at);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// retryOnBusy retries f when SQLite returns BUSY or LOCKED, with exponential
// backoff (50ms doubling, capped at 500ms) and jitter.
func retryOnBusy(ctx context.Context, maxRetries int, f func() error) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = f()
		if err == nil || !isBusyError(err) || attempt == maxRetries {
			return err
		}

		delay := busyBaseDelay << uint(attempt)
		if delay > busyMaxDelay {
			delay = busyMaxDelay
		}
		delay = delay - delay/4 + time.Duration(rand.Int64N(int64(delay/2)))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}

// isBusyError checks for SQLITE_BUSY (5) or SQLITE_LOCKED (6), including
// their extended codes.
func isBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code() & 0xff
	return code == 5 || code == 6
}

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == 2067 // SQLITE_CONSTRAINT_UNIQUE
}

// Timestamps are stored as unix milliseconds so range predicates compare
// numerically regardless of zone.

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func fromNullMillis(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromMillis(n.Int64)
	return &t
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func fromNullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}
