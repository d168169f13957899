package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/timecalc"
)

func TestIdleService_RecordValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.tracker.RecordActivity(ctx, 0), domain.ErrValidation)
	assert.ErrorIs(t, f.tracker.RecordActivity(ctx, 2), domain.ErrValidation)
	assert.NoError(t, f.tracker.RecordActivity(ctx, -1))

	assert.ErrorIs(t, f.tracker.RecordClock(ctx, "lunch"), domain.ErrValidation)
	assert.NoError(t, f.tracker.RecordClock(ctx, "IN"))

	clock, err := f.store.Activity().ClockEvents(ctx, f.clock.now.Add(-time.Minute), f.clock.now)
	require.NoError(t, err)
	require.Len(t, clock, 1)
	assert.Equal(t, domain.ClockIn, clock[0].Kind)
}

func TestIdleService_Day(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	tests := []struct {
		name       string
		mode       domain.IdleMode
		events     map[time.Time]int
		clock      map[time.Time]domain.ClockKind
		now        time.Time
		wantIdle   int64
		wantActive int64
		measured   bool
	}{
		{
			name:     "auto without activity",
			mode:     domain.IdleModeAuto,
			now:      at(18, 0),
			measured: false,
		},
		{
			name:       "auto from first to last event",
			mode:       domain.IdleModeAuto,
			events:     map[time.Time]int{at(10, 0): 1, at(11, 0): -1, at(13, 0): 1, at(14, 0): -1},
			now:        at(18, 0),
			wantIdle:   2 * 3600,
			wantActive: 2 * 3600,
			measured:   true,
		},
		{
			name:       "clocked in and out",
			mode:       domain.IdleModeClocked,
			events:     map[time.Time]int{at(9, 0): 1, at(15, 0): -1},
			clock:      map[time.Time]domain.ClockKind{at(8, 30): domain.ClockIn, at(16, 0): domain.ClockOut},
			now:        at(18, 0),
			wantIdle:   90 * 60,
			wantActive: 6 * 3600,
			measured:   true,
		},
		{
			name:     "clocked without markers",
			mode:     domain.IdleModeClocked,
			events:   map[time.Time]int{at(9, 0): 1},
			now:      at(18, 0),
			measured: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.clock.now = tt.now

			settings := DefaultReportSettings()
			settings.Location = time.UTC
			settings.IdleMode = tt.mode
			f.tracker.SetReportSettings(settings)

			for ts, delta := range tt.events {
				require.NoError(t, f.tracker.Idle.RecordActivityAt(ctx, ts, delta))
			}
			for ts, kind := range tt.clock {
				require.NoError(t, f.tracker.Idle.Clock(ctx, ts, kind))
			}

			report, err := f.tracker.Idle.Day(ctx, at(12, 0))
			require.NoError(t, err)
			assert.Equal(t, tt.mode, report.Mode)
			assert.Equal(t, tt.measured, report.WindowStart != nil)
			assert.Equal(t, tt.wantIdle, report.IdleSec)
			assert.Equal(t, tt.wantActive, report.ActiveSec)
		})
	}
}

func TestIdleService_Window(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)

	require.NoError(t, f.tracker.Idle.RecordActivityAt(ctx, start.Add(24*time.Hour), 1))
	require.NoError(t, f.tracker.Idle.RecordActivityAt(ctx, start.Add(26*time.Hour), -1))

	report, err := f.tracker.Idle.Window(ctx, timecalc.Interval{Start: start, End: start.AddDate(0, 0, 7)})
	require.NoError(t, err)
	assert.Equal(t, int64(2*3600), report.ActiveSec)
	assert.Equal(t, int64(7*24*3600-2*3600), report.IdleSec)
}

func TestIdleService_SettingsDefaultLocation(t *testing.T) {
	f := newFixture(t)
	f.tracker.SetReportSettings(ReportSettings{IdleMode: domain.IdleModeFixed})
	assert.Equal(t, time.Local, f.tracker.Idle.Settings().Location)
}
