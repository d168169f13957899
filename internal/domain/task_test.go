package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestNewTask(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		wantTitle string
		wantErr   error
	}{
		{name: "valid task", title: "Implement feature X", wantTitle: "Implement feature X"},
		{name: "title with spaces", title: "   Valid Title   ", wantTitle: "Valid Title"},
		{name: "empty title", title: "", wantErr: ErrEmptyTaskTitle},
		{name: "whitespace only", title: " \t ", wantErr: ErrEmptyTaskTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task, err := NewTask(tt.title, t0)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, task)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTitle, task.Title)
			assert.Equal(t, StatusTodo, task.Status)
			assert.NotNil(t, task.Tags)
			assert.Equal(t, t0, task.CreatedAt)
			assert.Equal(t, t0, task.UpdatedAt)
		})
	}
}

func TestParseTaskStatus(t *testing.T) {
	tests := []struct {
		in   string
		want TaskStatus
		ok   bool
	}{
		{"todo", StatusTodo, true},
		{" Done ", StatusDone, true},
		{"in progress", StatusInProgress, true},
		{"in_progress", StatusInProgress, true},
		{"ARCHIVED", StatusArchived, true},
		{"someday", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTaskStatus(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, StatusDone.IsClosed())
	assert.True(t, StatusArchived.IsClosed())
	assert.False(t, StatusInProgress.IsClosed())
}

func TestTask_Lifecycle(t *testing.T) {
	task, err := NewTask("Ship", t0)
	require.NoError(t, err)

	task.MarkInProgress(t0.Add(time.Minute))
	assert.True(t, task.IsActive())
	require.NotNil(t, task.StartedAt)

	// The first start is kept on resume.
	task.MarkYielded(t0.Add(2 * time.Minute))
	task.MarkInProgress(t0.Add(3 * time.Minute))
	assert.Equal(t, t0.Add(time.Minute), *task.StartedAt)

	task.MarkDone(t0.Add(4 * time.Minute))
	assert.Equal(t, StatusDone, task.Status)
	assert.Equal(t, t0.Add(4*time.Minute), *task.EndedAt)
	assert.Equal(t, t0.Add(4*time.Minute), task.UpdatedAt)

	task.MarkDone(t0.Add(5 * time.Minute))
	assert.Equal(t, t0.Add(4*time.Minute), *task.EndedAt)
}

func TestTask_SetStatus(t *testing.T) {
	task, err := NewTask("Ship", t0)
	require.NoError(t, err)

	task.SetStatus(StatusTodo, t0.Add(time.Hour))
	assert.Equal(t, t0, task.UpdatedAt, "same status is a no-op")

	task.SetStatus(StatusArchived, t0.Add(time.Hour))
	require.NotNil(t, task.ArchivedAt)
	assert.Equal(t, t0.Add(time.Hour), task.UpdatedAt)

	task.SetStatus(StatusTodo, t0.Add(2*time.Hour))
	assert.Nil(t, task.ArchivedAt)

	task.SetStatus(StatusDone, t0.Add(3*time.Hour))
	require.NotNil(t, task.EndedAt)
	assert.Equal(t, t0.Add(3*time.Hour), *task.EndedAt)
}

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"blanks dropped", []string{" ", "", "go"}, []string{"go"}},
		{"case duplicates keep first", []string{"Go", "go", "GO"}, []string{"Go"}},
		{"sorted ignoring case", []string{"beta", "Alpha", " gamma "}, []string{"Alpha", "beta", "gamma"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTags(tt.in))
		})
	}

	task := &Task{}
	task.SetTags([]string{"Client", "client", "urgent"})
	assert.Equal(t, []string{"Client", "urgent"}, task.Tags)
	assert.True(t, task.HasTag("CLIENT"))
	assert.False(t, task.HasTag("home"))
}
