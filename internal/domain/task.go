// Package domain contains the core business entities for tally.
// These entities represent the fundamental concepts of the time tracking
// system and are independent of any external frameworks or infrastructure.
package domain

import (
	"sort"
	"strings"
	"time"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in progress"
	StatusDone       TaskStatus = "done"
	StatusArchived   TaskStatus = "archived"
)

// ParseTaskStatus validates a status string.
func ParseTaskStatus(s string) (TaskStatus, error) {
	st := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusTodo, StatusInProgress, StatusDone, StatusArchived:
		return st, nil
	case "in_progress", "in-progress":
		return StatusInProgress, nil
	}
	return "", Invalid("status", "unknown status %q", s)
}

// IsClosed reports whether the ledger refuses to start or pause the task.
func (s TaskStatus) IsClosed() bool {
	return s == StatusDone || s == StatusArchived
}

// Task represents a unit of work to be tracked.
type Task struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         TaskStatus `json:"status"`
	ProjectID      *int64     `json:"project_id,omitempty"`
	ProjectName    string     `json:"project,omitempty"`
	PriorityID     *int64     `json:"priority_id,omitempty"`
	PriorityWeight int        `json:"priority_weight,omitempty"`
	EtaSec         *int64     `json:"eta_sec,omitempty"`
	DueAt          *time.Time `json:"due_at,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	ArchivedAt     *time.Time `json:"archived_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Tags           []string   `json:"tags"`
}

// NewTask creates a new todo task with the given title.
func NewTask(title string, now time.Time) (*Task, error) {
	title = strings.TrimSpace(title)
	if err := validateTaskTitle(title); err != nil {
		return nil, err
	}

	return &Task{
		Title:     title,
		Status:    StatusTodo,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// validateTaskTitle ensures the title is not empty.
func validateTaskTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTaskTitle
	}
	return nil
}

// MarkInProgress records that a focus session is open for the task.
// StartedAt is a first-start marker and is only set once.
func (t *Task) MarkInProgress(now time.Time) {
	t.Status = StatusInProgress
	if t.StartedAt == nil {
		t.StartedAt = &now
	}
	t.UpdatedAt = now
}

// MarkDone closes the task. EndedAt is only set once.
func (t *Task) MarkDone(now time.Time) {
	t.Status = StatusDone
	if t.EndedAt == nil {
		t.EndedAt = &now
	}
	t.UpdatedAt = now
}

// MarkYielded returns a task whose session was auto-stopped to the todo state.
func (t *Task) MarkYielded(now time.Time) {
	t.Status = StatusTodo
	t.UpdatedAt = now
}

// SetStatus applies an explicit status change from an update.
func (t *Task) SetStatus(status TaskStatus, now time.Time) {
	if status == t.Status {
		return
	}
	t.Status = status
	switch status {
	case StatusArchived:
		t.ArchivedAt = &now
	case StatusDone:
		if t.EndedAt == nil {
			t.EndedAt = &now
		}
	default:
		t.ArchivedAt = nil
	}
	t.UpdatedAt = now
}

// SetTags replaces the tag set.
func (t *Task) SetTags(tags []string) {
	t.Tags = NormalizeTags(tags)
}

// HasTag reports whether the task carries tag, ignoring case.
func (t *Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if strings.EqualFold(existing, tag) {
			return true
		}
	}
	return false
}

// IsActive returns true if the task is currently being worked on.
func (t *Task) IsActive() bool {
	return t.Status == StatusInProgress
}

// NormalizeTags trims names, drops blanks and collapses case-insensitive
// duplicates keeping the first spelling. The result is sorted.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// Project groups tasks.
type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Priority is a seeded lookup used for ordering tasks.
type Priority struct {
	ID     int64  `json:"id"`
	Label  string `json:"label"`
	Weight int    `json:"weight"`
}

// TagCount is a tag with the number of tasks carrying it.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
