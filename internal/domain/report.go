package domain

import (
	"strings"
	"time"
)

// Period is a reporting granularity.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// ParsePeriod validates a period name. Empty means day.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll:
		return p, nil
	}
	return "", Invalid("period", "must be day, week, month, year or all, got %q", s)
}

// ReportSortKey is a column a report can be ordered by.
type ReportSortKey string

const (
	ReportSortTitle     ReportSortKey = "title"
	ReportSortStatus    ReportSortKey = "status"
	ReportSortDue       ReportSortKey = "due_at"
	ReportSortProject   ReportSortKey = "project"
	ReportSortEffective ReportSortKey = "effective_sec"
	ReportSortUpdated   ReportSortKey = "updated_at"
	ReportSortPriority  ReportSortKey = "priority"
)

const (
	DefaultReportPageSize = 10
	MaxReportPageSize     = 100
)

// ReportFilter is the set of optional predicates shared by the row, count
// and totals of a report.
type ReportFilter struct {
	Search    string
	Status    *TaskStatus
	ProjectID *int64
	NoProject bool
	Tag       string
}

// TaskQuery translates the filter into the task store's query shape.
// Archived tasks are excluded unless explicitly asked for.
func (f ReportFilter) TaskQuery() TaskQuery {
	q := TaskQuery{
		ProjectID: f.ProjectID,
		NoProject: f.NoProject,
		Search:    f.Search,
	}
	if f.Status != nil {
		q.Statuses = []TaskStatus{*f.Status}
	} else {
		q.Statuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone}
	}
	if tag := strings.TrimSpace(f.Tag); tag != "" {
		q.Tags = []string{tag}
	}
	return q
}

// ReportQuery asks for one page of a period report.
type ReportQuery struct {
	Period   Period
	Date     time.Time // anchor inside the period; zero means now
	Filter   ReportFilter
	SortBy   ReportSortKey
	SortDir  SortDir
	Page     int
	PageSize int
}

// Normalize validates the query and applies defaults. defaultPageSize is
// used when PageSize is unset.
func (q *ReportQuery) Normalize(defaultPageSize int) error {
	if q.Period == "" {
		q.Period = PeriodDay
	}
	if _, err := ParsePeriod(string(q.Period)); err != nil {
		return err
	}
	if q.Filter.ProjectID != nil {
		if *q.Filter.ProjectID <= 0 {
			return Invalid("project_id", "must be a positive integer")
		}
		if q.Filter.NoProject {
			return Invalid("project_id", "cannot be combined with no_project")
		}
	}
	q.Filter.Search = strings.TrimSpace(q.Filter.Search)
	q.Filter.Tag = strings.TrimSpace(q.Filter.Tag)

	switch q.SortBy {
	case "":
		q.SortBy = ReportSortUpdated
	case ReportSortTitle, ReportSortStatus, ReportSortDue, ReportSortProject,
		ReportSortEffective, ReportSortUpdated, ReportSortPriority:
	default:
		return Invalid("sort", "unknown sort key %q", q.SortBy)
	}
	if q.SortDir != SortDesc {
		q.SortDir = SortAsc
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if defaultPageSize <= 0 {
		defaultPageSize = DefaultReportPageSize
	}
	if q.PageSize <= 0 {
		q.PageSize = defaultPageSize
	}
	if q.PageSize > MaxReportPageSize {
		q.PageSize = MaxReportPageSize
	}
	return nil
}

// ReportRow is a task with its time for the report window.
type ReportRow struct {
	Task         *Task `json:"task"`
	EffectiveSec int64 `json:"effective_sec"`
	PausedSec    int64 `json:"paused_sec"`
	TotalSec     int64 `json:"total_sec"`
}

// ReportTotals summarizes the whole filtered set, not just the page.
type ReportTotals struct {
	WorkedSec    int64 `json:"total_worked_sec" yaml:"worked_sec"`
	PausedSec    int64 `json:"total_paused_sec" yaml:"paused_sec"`
	IdleSec      int64 `json:"total_idle_sec" yaml:"idle_sec"`
	ActiveSec    int64 `json:"total_active_sec" yaml:"active_sec"`
	IdleMeasured bool  `json:"idle_measured" yaml:"idle_measured"`
}

// ReportPage is the answer to a ReportQuery.
type ReportPage struct {
	Period      Period       `json:"period"`
	WindowStart *time.Time   `json:"window_start,omitempty"`
	WindowEnd   *time.Time   `json:"window_end,omitempty"`
	Rows        []ReportRow  `json:"rows"`
	TotalCount  int          `json:"total_count"`
	Totals      ReportTotals `json:"totals"`
	Page        int          `json:"page"`
	PageSize    int          `json:"page_size"`
}

// DaySummary is the focus time of one local calendar day.
type DaySummary struct {
	Day       string `json:"day"`
	WorkedSec int64  `json:"effective_sec"`
	PausedSec int64  `json:"paused_sec"`
	TotalSec  int64  `json:"total_sec"`
}

// IdleReport is the idle/active split of one window.
type IdleReport struct {
	Mode        IdleMode   `json:"mode"`
	WindowStart *time.Time `json:"window_start,omitempty"`
	WindowEnd   *time.Time `json:"window_end,omitempty"`
	IdleSec     int64      `json:"idle_sec"`
	ActiveSec   int64      `json:"active_sec"`
}
