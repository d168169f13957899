package ports

import (
	"context"
	"time"

	"github.com/xvierd/tally/internal/domain"
)

// MCPHandler defines the interface for MCP server operations.
// This is a driving port (called by the application layer).
type MCPHandler interface {
	// Start begins serving MCP requests.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the server.
	Stop() error

	// IsRunning returns true if the server is active.
	IsRunning() bool
}

// TaskFields carries the fields of a create or partial update. Nil pointers
// leave a field untouched on update.
type TaskFields struct {
	Title        *string
	Description  *string
	Status       *domain.TaskStatus
	ProjectID    *int64
	ProjectName  *string
	ClearProject bool
	PriorityID   *int64
	EtaSec       *int64
	DueAt        *time.Time
	ClearDue     bool
	Tags         []string
	SetTags      bool
}

// Tracker is everything the command surfaces (CLI and MCP) may ask of the
// application. This is a driven port (implemented by services layer).
type Tracker interface {
	CreateTask(ctx context.Context, fields TaskFields) (*domain.Task, error)
	UpdateTask(ctx context.Context, id int64, fields TaskFields) (*domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	ListTasks(ctx context.Context, q domain.TaskQuery) (*domain.TaskPage, error)
	FindTasks(ctx context.Context, query string, limit int) ([]*domain.Task, error)
	ListTags(ctx context.Context, prefix string, limit int) ([]domain.TagCount, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	ListPriorities(ctx context.Context) ([]domain.Priority, error)

	StartTask(ctx context.Context, id int64) (*domain.Task, error)
	PauseTask(ctx context.Context, id int64) (*domain.Task, error)
	StopTask(ctx context.Context, id int64) (*domain.Task, error)
	Current(ctx context.Context) (*domain.CurrentSession, error)

	ReportList(ctx context.Context, q domain.ReportQuery) (*domain.ReportPage, error)
	DailySummary(ctx context.Context, days int) ([]domain.DaySummary, error)
	// IdleDay measures the local day containing day; zero means today.
	IdleDay(ctx context.Context, day time.Time) (*domain.IdleReport, error)

	// Location is the zone reports and date-only inputs are read in.
	Location() *time.Location

	RecordActivity(ctx context.Context, delta int) error
	RecordClock(ctx context.Context, kind domain.ClockKind) error
}
