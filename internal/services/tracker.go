package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/ports"
)

// Tracker implements ports.Tracker by delegating to the task, ledger, idle
// and report services. It is what the CLI and the MCP server talk to.
type Tracker struct {
	Tasks   *TaskService
	Ledger  *LedgerService
	Idle    *IdleService
	Reports *ReportService
}

// NewTracker wires the services around one storage.
func NewTracker(storage ports.Storage) *Tracker {
	idle := NewIdleService(storage)
	return &Tracker{
		Tasks:   NewTaskService(storage),
		Ledger:  NewLedgerService(storage),
		Idle:    idle,
		Reports: NewReportService(storage, idle),
	}
}

// SetLogger sets the logger of every service.
func (t *Tracker) SetLogger(logger *slog.Logger) {
	t.Tasks.SetLogger(logger)
	t.Ledger.SetLogger(logger)
	t.Idle.SetLogger(logger)
	t.Reports.SetLogger(logger)
}

// SetNowFunc sets the clock of every service.
func (t *Tracker) SetNowFunc(fn func() time.Time) {
	t.Tasks.SetNowFunc(fn)
	t.Ledger.SetNowFunc(fn)
	t.Idle.SetNowFunc(fn)
	t.Reports.SetNowFunc(fn)
}

// SetNotifier sets the ledger's notifier.
func (t *Tracker) SetNotifier(notifier ports.Notifier) {
	t.Ledger.SetNotifier(notifier)
}

// SetReportSettings sets the timezone, idle policy and paging defaults.
func (t *Tracker) SetReportSettings(settings ReportSettings) {
	t.Idle.SetSettings(settings)
}

// CreateTask implements ports.Tracker.
func (t *Tracker) CreateTask(ctx context.Context, fields ports.TaskFields) (*domain.Task, error) {
	return t.Tasks.CreateTask(ctx, fields)
}

// UpdateTask implements ports.Tracker.
func (t *Tracker) UpdateTask(ctx context.Context, id int64, fields ports.TaskFields) (*domain.Task, error) {
	return t.Tasks.UpdateTask(ctx, id, fields)
}

// DeleteTask implements ports.Tracker.
func (t *Tracker) DeleteTask(ctx context.Context, id int64) error {
	return t.Tasks.DeleteTask(ctx, id)
}

// GetTask implements ports.Tracker.
func (t *Tracker) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	return t.Tasks.GetTask(ctx, id)
}

// ListTasks implements ports.Tracker.
func (t *Tracker) ListTasks(ctx context.Context, q domain.TaskQuery) (*domain.TaskPage, error) {
	return t.Tasks.ListTasks(ctx, q)
}

// ListTags implements ports.Tracker.
func (t *Tracker) ListTags(ctx context.Context, prefix string, limit int) ([]domain.TagCount, error) {
	return t.Tasks.ListTags(ctx, prefix, limit)
}

// FindTasks implements ports.Tracker.
func (t *Tracker) FindTasks(ctx context.Context, query string, limit int) ([]*domain.Task, error) {
	return t.Tasks.FindByTitle(ctx, query, limit)
}

// ListProjects implements ports.Tracker.
func (t *Tracker) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return t.Tasks.ListProjects(ctx)
}

// ListPriorities implements ports.Tracker.
func (t *Tracker) ListPriorities(ctx context.Context) ([]domain.Priority, error) {
	return t.Tasks.ListPriorities(ctx)
}

// StartTask implements ports.Tracker.
func (t *Tracker) StartTask(ctx context.Context, id int64) (*domain.Task, error) {
	return t.Ledger.Start(ctx, id)
}

// PauseTask implements ports.Tracker.
func (t *Tracker) PauseTask(ctx context.Context, id int64) (*domain.Task, error) {
	return t.Ledger.Pause(ctx, id)
}

// StopTask implements ports.Tracker.
func (t *Tracker) StopTask(ctx context.Context, id int64) (*domain.Task, error) {
	return t.Ledger.Stop(ctx, id)
}

// Current implements ports.Tracker.
func (t *Tracker) Current(ctx context.Context) (*domain.CurrentSession, error) {
	return t.Ledger.Current(ctx)
}

// ReportList implements ports.Tracker.
func (t *Tracker) ReportList(ctx context.Context, q domain.ReportQuery) (*domain.ReportPage, error) {
	return t.Reports.List(ctx, q)
}

// DailySummary implements ports.Tracker.
func (t *Tracker) DailySummary(ctx context.Context, days int) ([]domain.DaySummary, error) {
	return t.Reports.DailySummary(ctx, days)
}

// IdleDay implements ports.Tracker. A zero day means today.
func (t *Tracker) IdleDay(ctx context.Context, day time.Time) (*domain.IdleReport, error) {
	if day.IsZero() {
		day = t.Idle.clock()
	}
	return t.Idle.Day(ctx, day)
}

// Location implements ports.Tracker.
func (t *Tracker) Location() *time.Location {
	return t.Idle.Settings().Location
}

// RecordActivity implements ports.Tracker.
func (t *Tracker) RecordActivity(ctx context.Context, delta int) error {
	return t.Idle.RecordActivity(ctx, delta)
}

// RecordClock implements ports.Tracker.
func (t *Tracker) RecordClock(ctx context.Context, kind domain.ClockKind) error {
	return t.Idle.RecordClock(ctx, kind)
}

// Ensure Tracker implements ports.Tracker.
var _ ports.Tracker = (*Tracker)(nil)
