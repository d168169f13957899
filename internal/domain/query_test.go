package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQuery_Normalize(t *testing.T) {
	q := TaskQuery{Tags: []string{"Go", "go"}, Search: "  parser ", Limit: 10_000, Offset: -3}
	require.NoError(t, q.Normalize())
	assert.Equal(t, TaskSortCreated, q.SortBy)
	assert.Equal(t, SortDesc, q.SortDir)
	assert.Equal(t, TagModeAny, q.TagMode)
	assert.Equal(t, []string{"Go"}, q.Tags)
	assert.Equal(t, "parser", q.Search)
	assert.Equal(t, MaxTaskLimit, q.Limit)
	assert.Zero(t, q.Offset)

	q = TaskQuery{SortBy: TaskSortTitle}
	require.NoError(t, q.Normalize())
	assert.Equal(t, SortAsc, q.SortDir)
	assert.Equal(t, DefaultTaskLimit, q.Limit)

	id := int64(3)
	bad := []TaskQuery{
		{SortBy: "color"},
		{TagMode: "some"},
		{ProjectID: &id, NoProject: true},
		{PriorityID: new(int64)},
	}
	for _, q := range bad {
		assert.ErrorIs(t, q.Normalize(), ErrValidation)
	}
}

func TestReportQuery_Normalize(t *testing.T) {
	q := ReportQuery{}
	require.NoError(t, q.Normalize(0))
	assert.Equal(t, PeriodDay, q.Period)
	assert.Equal(t, ReportSortUpdated, q.SortBy)
	assert.Equal(t, SortAsc, q.SortDir)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultReportPageSize, q.PageSize)

	q = ReportQuery{PageSize: 1000}
	require.NoError(t, q.Normalize(25))
	assert.Equal(t, MaxReportPageSize, q.PageSize)

	q = ReportQuery{}
	require.NoError(t, q.Normalize(25))
	assert.Equal(t, 25, q.PageSize)

	assert.ErrorIs(t, (&ReportQuery{Period: "decade"}).Normalize(0), ErrValidation)
	assert.ErrorIs(t, (&ReportQuery{SortBy: "mood"}).Normalize(0), ErrValidation)
}

func TestReportFilter_TaskQuery(t *testing.T) {
	q := ReportFilter{Tag: " client "}.TaskQuery()
	assert.Equal(t, []TaskStatus{StatusTodo, StatusInProgress, StatusDone}, q.Statuses)
	assert.Equal(t, []string{"client"}, q.Tags)

	archived := StatusArchived
	q = ReportFilter{Status: &archived}.TaskQuery()
	assert.Equal(t, []TaskStatus{StatusArchived}, q.Statuses)
}

func TestParseDate(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	got, err := ParseDate("date", "", berlin)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ParseDate("date", "2026-03-10", berlin)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)))

	got, err = ParseDate("date", "2026-03-10T12:00:00Z", berlin)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)))

	_, err = ParseDate("due_at", "next tuesday", berlin)
	assert.ErrorIs(t, err, &Error{Code: "INVALID_DUE_AT"})

	p, err := ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, PeriodDay, p)
	assert.Equal(t, SortDesc, ParseSortDir("DESC"))
	assert.Equal(t, SortAsc, ParseSortDir("sideways"))
}
