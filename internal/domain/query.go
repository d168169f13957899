package domain

import (
	"strings"
	"time"
)

// SortDir is an ordering direction.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// ParseSortDir accepts asc/desc in any case; anything else is ascending.
func ParseSortDir(s string) SortDir {
	if strings.EqualFold(strings.TrimSpace(s), string(SortDesc)) {
		return SortDesc
	}
	return SortAsc
}

// TagMode controls how multiple tag filters combine.
type TagMode string

const (
	TagModeAny TagMode = "any"
	TagModeAll TagMode = "all"
)

// TaskSortKey is a column listTasks can order by.
type TaskSortKey string

const (
	TaskSortCreated  TaskSortKey = "created_at"
	TaskSortUpdated  TaskSortKey = "updated_at"
	TaskSortDue      TaskSortKey = "due_at"
	TaskSortTitle    TaskSortKey = "title"
	TaskSortStatus   TaskSortKey = "status"
	TaskSortPriority TaskSortKey = "priority_weight"
	TaskSortStarted  TaskSortKey = "started_at"
	TaskSortEnded    TaskSortKey = "ended_at"
)

const (
	DefaultTaskLimit = 50
	MaxTaskLimit     = 500
)

// TaskQuery holds the filters, ordering and paging for listing tasks.
// Zero values mean "no filter".
type TaskQuery struct {
	Statuses    []TaskStatus
	ProjectID   *int64
	NoProject   bool
	PriorityID  *int64
	Search      string
	Tags        []string
	TagMode     TagMode
	DueFrom     *time.Time
	DueTo       *time.Time
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	HasSessions *bool

	// WindowStart/WindowEnd restrict the set to tasks that have focus time
	// overlapping the window or were created or are due inside it. Now is
	// the provisional end of open sessions.
	WindowStart *time.Time
	WindowEnd   *time.Time
	Now         time.Time

	SortBy  TaskSortKey
	SortDir SortDir
	Limit   int
	Offset  int
}

// Normalize validates the query and fills in defaults.
func (q *TaskQuery) Normalize() error {
	if q.ProjectID != nil {
		if err := ValidateID(*q.ProjectID); err != nil {
			return Invalid("project_id", "must be a positive integer")
		}
		if q.NoProject {
			return Invalid("project_id", "cannot be combined with no_project")
		}
	}
	if q.PriorityID != nil && *q.PriorityID <= 0 {
		return Invalid("priority_id", "must be a positive integer")
	}
	switch q.TagMode {
	case "":
		q.TagMode = TagModeAny
	case TagModeAny, TagModeAll:
	default:
		return Invalid("tag_mode", "must be any or all, got %q", q.TagMode)
	}
	q.Tags = NormalizeTags(q.Tags)
	q.Search = strings.TrimSpace(q.Search)

	switch q.SortBy {
	case "":
		q.SortBy = TaskSortCreated
		if q.SortDir == "" {
			q.SortDir = SortDesc
		}
	case TaskSortCreated, TaskSortUpdated, TaskSortDue, TaskSortTitle,
		TaskSortStatus, TaskSortPriority, TaskSortStarted, TaskSortEnded:
	default:
		return Invalid("sort", "unknown sort key %q", q.SortBy)
	}
	if q.SortDir == "" {
		q.SortDir = SortAsc
	}

	if q.Limit <= 0 {
		q.Limit = DefaultTaskLimit
	}
	if q.Limit > MaxTaskLimit {
		q.Limit = MaxTaskLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return nil
}

// TaskPage is one page of listTasks.
type TaskPage struct {
	Items []*Task `json:"items"`
	Total int     `json:"total"`
}

// ParseDate accepts RFC 3339 timestamps or YYYY-MM-DD dates in loc.
func ParseDate(field, s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return &t, nil
	}
	return nil, Invalid(field, "malformed date %q", s)
}
