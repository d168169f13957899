// Package ports defines the interfaces (driven and driving ports)
// for tally following hexagonal architecture principles.
// These interfaces define the contracts between the domain layer and
// external infrastructure.
package ports

import (
	"context"
	"time"

	"github.com/xvierd/tally/internal/domain"
)

// TaskRepository defines the interface for task persistence.
// This is a driven port (implemented by adapters).
type TaskRepository interface {
	// Create inserts a task with its tag set and assigns its ID.
	Create(ctx context.Context, task *domain.Task) error

	// Update writes every field of an existing task and replaces its tags.
	Update(ctx context.Context, task *domain.Task) error

	// FindByID retrieves a task by its identifier.
	FindByID(ctx context.Context, id int64) (*domain.Task, error)

	// Delete removes a task and, by cascade, its sessions, pauses and tag links.
	Delete(ctx context.Context, id int64) error

	// List returns one page of tasks matching q and the total match count.
	List(ctx context.Context, q domain.TaskQuery) (*domain.TaskPage, error)

	// Match returns every task matching q's filters, ignoring paging.
	Match(ctx context.Context, q domain.TaskQuery) ([]*domain.Task, error)

	// FindByTitle fuzzy-matches titles, best match first.
	FindByTitle(ctx context.Context, query string, limit int) ([]*domain.Task, error)
}

// SessionQuery selects focus sessions. TaskIDs nil means all tasks; From/To
// keep only sessions overlapping [From, To), open sessions included.
type SessionQuery struct {
	TaskIDs []int64
	From    *time.Time
	To      *time.Time
}

// SessionRepository defines the interface for session and pause persistence.
// This is a driven port (implemented by adapters).
type SessionRepository interface {
	// Create inserts a session and assigns its ID.
	Create(ctx context.Context, session *domain.Session) error

	// Close sets the end of an open session.
	Close(ctx context.Context, sessionID int64, at time.Time) error

	// OpenPause starts a pause on a session.
	OpenPause(ctx context.Context, sessionID int64, at time.Time) (*domain.Pause, error)

	// ClosePause ends an open pause.
	ClosePause(ctx context.Context, pauseID int64, at time.Time) error

	// FindOpenFocus returns every open focus session with its pauses.
	FindOpenFocus(ctx context.Context) ([]*domain.Session, error)

	// FindOpenFocusByTask returns the task's open focus session, or nil.
	FindOpenFocusByTask(ctx context.Context, taskID int64) (*domain.Session, error)

	// Find returns focus sessions with their pauses.
	Find(ctx context.Context, q SessionQuery) ([]*domain.Session, error)
}

// ActivityRepository stores the global activity and clock streams.
type ActivityRepository interface {
	AddEvent(ctx context.Context, event *domain.ActivityEvent) error
	Events(ctx context.Context, from, to time.Time) ([]domain.ActivityEvent, error)
	AddClock(ctx context.Context, event *domain.ClockEvent) error
	ClockEvents(ctx context.Context, from, to time.Time) ([]domain.ClockEvent, error)
}

// CatalogRepository serves the lookup tables: tags, projects, priorities.
type CatalogRepository interface {
	// ListTags returns popular tags when prefix is empty, otherwise tags
	// starting with prefix case-insensitively, sorted by name.
	ListTags(ctx context.Context, prefix string, limit int) ([]domain.TagCount, error)

	ListProjects(ctx context.Context) ([]domain.Project, error)
	FindProject(ctx context.Context, id int64) (*domain.Project, error)

	// EnsureProject returns the project named name, creating it if needed.
	EnsureProject(ctx context.Context, name string) (*domain.Project, error)

	ListPriorities(ctx context.Context) ([]domain.Priority, error)
}

// Repositories groups the repositories bound to one connection or
// transaction.
type Repositories interface {
	Tasks() TaskRepository
	Sessions() SessionRepository
	Activity() ActivityRepository
	Catalog() CatalogRepository
}

// Storage is the combined repository interface.
// This is a driven port (implemented by adapters).
type Storage interface {
	Repositories

	// WithinTx runs fn against repositories bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(tx Repositories) error) error

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate() error
}
