package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xvierd/tally/internal/adapters/storage"
	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/ports"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordingNotifier struct {
	titles   []string
	messages []string
}

func (n *recordingNotifier) Notify(title, message string) error {
	n.titles = append(n.titles, title)
	n.messages = append(n.messages, message)
	return nil
}

type fixture struct {
	store    ports.Storage
	tracker  *Tracker
	clock    *testClock
	notifier *recordingNotifier
}

// newFixture builds a tracker over in-memory storage with a simulated clock
// starting Tuesday 2026-03-10 09:00 UTC.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := storage.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	clock := &testClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}

	tracker := NewTracker(store)
	tracker.SetNowFunc(clock.Now)
	tracker.SetNotifier(notifier)
	settings := DefaultReportSettings()
	settings.Location = time.UTC
	tracker.SetReportSettings(settings)

	return &fixture{store: store, tracker: tracker, clock: clock, notifier: notifier}
}

func (f *fixture) task(t *testing.T, title string, tags ...string) *domain.Task {
	t.Helper()
	task, err := f.tracker.CreateTask(context.Background(), ports.TaskFields{Title: &title, Tags: tags})
	require.NoError(t, err)
	return task
}

func (f *fixture) get(t *testing.T, id int64) *domain.Task {
	t.Helper()
	task, err := f.tracker.GetTask(context.Background(), id)
	require.NoError(t, err)
	return task
}

func (f *fixture) openSessions(t *testing.T) []*domain.Session {
	t.Helper()
	open, err := f.store.Sessions().FindOpenFocus(context.Background())
	require.NoError(t, err)
	return open
}

func ptr[T any](v T) *T { return &v }
