package ports_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/tally/internal/adapters/notification"
	"github.com/xvierd/tally/internal/adapters/storage"
	"github.com/xvierd/tally/internal/config"
	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/ports"
	"github.com/xvierd/tally/internal/services"
)

// Adapters satisfy the ports they are wired to.
var (
	_ ports.Tracker  = (*services.Tracker)(nil)
	_ ports.Notifier = (*notification.Notifier)(nil)
)

func TestStorage_WithinTxRollsBack(t *testing.T) {
	store, err := storage.NewMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	boom := errors.New("boom")

	err = store.WithinTx(ctx, func(tx ports.Repositories) error {
		task, err := domain.NewTask("rolled back", now)
		require.NoError(t, err)
		require.NoError(t, tx.Tasks().Create(ctx, task))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	q := domain.TaskQuery{Limit: 10}
	require.NoError(t, q.Normalize())
	page, err := store.Tasks().List(ctx, q)
	require.NoError(t, err)
	assert.Zero(t, page.Total)

	err = store.WithinTx(ctx, func(tx ports.Repositories) error {
		task, err := domain.NewTask("kept", now)
		if err != nil {
			return err
		}
		return tx.Tasks().Create(ctx, task)
	})
	require.NoError(t, err)

	page, err = store.Tasks().List(ctx, q)
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "kept", page.Items[0].Title)
}

func TestNotifier_DisabledIsSilent(t *testing.T) {
	var n ports.Notifier = notification.New(&config.NotificationConfig{Enabled: false})
	assert.NoError(t, n.Notify("title", "message"))
}
