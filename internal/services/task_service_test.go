package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/ports"
)

func TestTaskService_CreateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("tags round-trip as a set", func(t *testing.T) {
		created, err := f.tracker.CreateTask(ctx, ports.TaskFields{
			Title: ptr("A"),
			Tags:  []string{"x", "y", "x"},
		})
		require.NoError(t, err)

		got := f.get(t, created.ID)
		assert.ElementsMatch(t, []string{"x", "y"}, got.Tags)
		assert.Equal(t, domain.StatusTodo, got.Status)
		assert.True(t, f.clock.now.Equal(got.CreatedAt))
	})

	t.Run("all fields", func(t *testing.T) {
		due := time.Date(2026, 3, 12, 17, 0, 0, 0, time.UTC)
		created, err := f.tracker.CreateTask(ctx, ports.TaskFields{
			Title:       ptr("  Ship release  "),
			Description: ptr("notes"),
			ProjectName: ptr("Acme"),
			PriorityID:  ptr(int64(4)),
			EtaSec:      ptr(int64(3600)),
			DueAt:       &due,
		})
		require.NoError(t, err)

		got := f.get(t, created.ID)
		assert.Equal(t, "Ship release", got.Title)
		assert.Equal(t, "Acme", got.ProjectName)
		assert.Equal(t, 4, got.PriorityWeight)
		assert.Equal(t, int64(3600), *got.EtaSec)
		assert.True(t, due.Equal(*got.DueAt))
	})

	tests := []struct {
		name   string
		fields ports.TaskFields
		want   error
	}{
		{"missing title", ports.TaskFields{}, domain.ErrEmptyTaskTitle},
		{"blank title", ports.TaskFields{Title: ptr("   ")}, domain.ErrEmptyTaskTitle},
		{"in progress", ports.TaskFields{Title: ptr("x"), Status: ptr(domain.StatusInProgress)}, domain.ErrValidation},
		{"unknown status", ports.TaskFields{Title: ptr("x"), Status: ptr(domain.TaskStatus("later"))}, domain.ErrValidation},
		{"unknown project", ports.TaskFields{Title: ptr("x"), ProjectID: ptr(int64(42))}, domain.ErrProjectNotFound},
		{"bad project id", ports.TaskFields{Title: ptr("x"), ProjectID: ptr(int64(-1))}, domain.ErrValidation},
		{"unknown priority", ports.TaskFields{Title: ptr("x"), PriorityID: ptr(int64(9))}, domain.ErrValidation},
		{"negative eta", ports.TaskFields{Title: ptr("x"), EtaSec: ptr(int64(-5))}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tracker.CreateTask(ctx, tt.fields)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTaskService_UpdateTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.task(t, "Draft", "writing")

	f.clock.Advance(time.Minute)
	updated, err := f.tracker.UpdateTask(ctx, task.ID, ports.TaskFields{Description: ptr("first pass")})
	require.NoError(t, err)
	assert.Equal(t, "Draft", updated.Title)
	assert.Equal(t, "first pass", updated.Description)
	assert.Equal(t, []string{"writing"}, updated.Tags, "unset tags are left alone")
	assert.True(t, f.clock.now.Equal(updated.UpdatedAt))

	updated, err = f.tracker.UpdateTask(ctx, task.ID, ports.TaskFields{ProjectName: ptr("Blog"), SetTags: true})
	require.NoError(t, err)
	assert.Equal(t, "Blog", updated.ProjectName)
	assert.Empty(t, updated.Tags)

	updated, err = f.tracker.UpdateTask(ctx, task.ID, ports.TaskFields{ClearProject: true, Status: ptr(domain.StatusArchived)})
	require.NoError(t, err)
	assert.Nil(t, updated.ProjectID)
	assert.Equal(t, domain.StatusArchived, updated.Status)
	assert.NotNil(t, updated.ArchivedAt)

	_, err = f.tracker.UpdateTask(ctx, 999, ports.TaskFields{Title: ptr("ghost")})
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = f.tracker.UpdateTask(ctx, task.ID, ports.TaskFields{Title: ptr("")})
	assert.ErrorIs(t, err, domain.ErrEmptyTaskTitle)
}

func TestTaskService_DeleteTask(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.task(t, "Delete Me")

	_, err := f.tracker.StartTask(ctx, task.ID)
	require.NoError(t, err)
	require.NoError(t, f.tracker.DeleteTask(ctx, task.ID))

	_, err = f.tracker.GetTask(ctx, task.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.Empty(t, f.openSessions(t))

	assert.ErrorIs(t, f.tracker.DeleteTask(ctx, task.ID), domain.ErrNotFound)
	assert.ErrorIs(t, f.tracker.DeleteTask(ctx, 0), domain.ErrInvalidTaskID)
}

func TestTaskService_ListTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i, title := range []string{"one", "two", "three"} {
		f.clock.Advance(time.Duration(i+1) * time.Minute)
		f.task(t, title, "batch")
	}

	page, err := f.tracker.ListTasks(ctx, domain.TaskQuery{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "three", page.Items[0].Title, "newest first by default")

	page, err = f.tracker.ListTasks(ctx, domain.TaskQuery{Search: "nothing matches"})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Zero(t, page.Total)

	_, err = f.tracker.ListTasks(ctx, domain.TaskQuery{SortBy: "color"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTaskService_Catalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.task(t, "Refactor parser", "go", "parser")
	f.task(t, "Write docs", "go")

	found, err := f.tracker.Tasks.FindByTitle(ctx, "parser", 5)
	require.NoError(t, err)
	require.NotEmpty(t, found)
	assert.Equal(t, "Refactor parser", found[0].Title)

	_, err = f.tracker.Tasks.FindByTitle(ctx, " ", 5)
	assert.ErrorIs(t, err, domain.ErrValidation)

	tags, err := f.tracker.ListTags(ctx, "", 10)
	require.NoError(t, err)
	require.NotEmpty(t, tags)
	assert.Equal(t, domain.TagCount{Name: "go", Count: 2}, tags[0])

	tags, err = f.tracker.ListTags(ctx, "PA", 10)
	require.NoError(t, err)
	assert.Equal(t, []domain.TagCount{{Name: "parser", Count: 1}}, tags)

	project, err := f.tracker.Tasks.EnsureProject(ctx, "Acme")
	require.NoError(t, err)
	projects, err := f.tracker.Tasks.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Project{*project}, projects)

	priorities, err := f.tracker.Tasks.ListPriorities(ctx)
	require.NoError(t, err)
	assert.Len(t, priorities, 4)
}
