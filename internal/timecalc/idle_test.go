package timecalc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/timecalc"
)

func ev(ts time.Time, delta int) domain.ActivityEvent {
	return domain.ActivityEvent{TS: ts, Delta: delta}
}

func clock(ts time.Time, kind domain.ClockKind) domain.ClockEvent {
	return domain.ClockEvent{At: ts, Kind: kind}
}

func TestIdleActive(t *testing.T) {
	window := timecalc.Interval{Start: at(8, 0), End: at(17, 0)}

	tests := []struct {
		name       string
		events     []domain.ActivityEvent
		wantIdle   time.Duration
		wantActive time.Duration
	}{
		{
			name:     "no events is all idle",
			wantIdle: 9 * time.Hour,
		},
		{
			name:       "one active stretch",
			events:     []domain.ActivityEvent{ev(at(9, 0), 1), ev(at(12, 0), -1)},
			wantIdle:   6 * time.Hour,
			wantActive: 3 * time.Hour,
		},
		{
			name: "nested activity stays active",
			events: []domain.ActivityEvent{
				ev(at(9, 0), 1), ev(at(10, 0), 1), ev(at(11, 0), -1), ev(at(12, 0), -1),
			},
			wantIdle:   6 * time.Hour,
			wantActive: 3 * time.Hour,
		},
		{
			name:       "still active at window end",
			events:     []domain.ActivityEvent{ev(at(16, 0), 1)},
			wantIdle:   8 * time.Hour,
			wantActive: time.Hour,
		},
		{
			name:       "events outside window are ignored",
			events:     []domain.ActivityEvent{ev(at(6, 0), 1), ev(at(7, 0), -1), ev(at(10, 0), 1), ev(at(11, 0), -1)},
			wantIdle:   8 * time.Hour,
			wantActive: time.Hour,
		},
		{
			name:       "unordered input",
			events:     []domain.ActivityEvent{ev(at(12, 0), -1), ev(at(9, 0), 1)},
			wantIdle:   6 * time.Hour,
			wantActive: 3 * time.Hour,
		},
		{
			name:       "negative running sum is neither",
			events:     []domain.ActivityEvent{ev(at(9, 0), -1), ev(at(10, 0), 1)},
			wantIdle:   8 * time.Hour,
			wantActive: 0,
		},
		{
			// The sum restarts at zero at window start, so the stretch that
			// opened at 07:00 is not carried in and its close goes negative.
			name:       "activity opened before the window is not carried in",
			events:     []domain.ActivityEvent{ev(at(7, 0), 1), ev(at(8, 30), -1)},
			wantIdle:   30 * time.Minute,
			wantActive: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idle, active := timecalc.IdleActive(tt.events, window)
			assert.Equal(t, tt.wantIdle, idle)
			assert.Equal(t, tt.wantActive, active)
		})
	}
}

func TestIdleActive_EmptyWindow(t *testing.T) {
	idle, active := timecalc.IdleActive([]domain.ActivityEvent{ev(at(9, 0), 1)}, timecalc.Interval{Start: at(9, 0), End: at(9, 0)})
	assert.Zero(t, idle)
	assert.Zero(t, active)
}

func TestApplyGrace(t *testing.T) {
	assert.Equal(t, 50*time.Minute, timecalc.ApplyGrace(time.Hour, 10))
	assert.Equal(t, time.Duration(0), timecalc.ApplyGrace(5*time.Minute, 10))
	assert.Equal(t, time.Hour, timecalc.ApplyGrace(time.Hour, 0))
}

func TestDayPolicy_Fixed(t *testing.T) {
	p := timecalc.DayPolicy{Mode: domain.IdleModeFixed, WorkStart: "08:00", WorkEnd: "17:00"}

	w, err := p.Window(at(12, 0), timecalc.DayData{}, at(12, 0))
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, at(8, 0), w.Start)
	assert.Equal(t, at(17, 0), w.End)
}

func TestDayPolicy_Auto(t *testing.T) {
	p := timecalc.DayPolicy{Mode: domain.IdleModeAuto, WorkStart: "08:00", WorkEnd: "17:00"}

	t.Run("first to last event", func(t *testing.T) {
		data := timecalc.DayData{Events: []domain.ActivityEvent{ev(at(9, 30), 1), ev(at(15, 0), -1)}}
		w, err := p.Window(base, data, at(20, 0))
		require.NoError(t, err)
		require.NotNil(t, w)
		assert.Equal(t, at(9, 30), w.Start)
		assert.Equal(t, at(15, 0), w.End)
	})

	t.Run("ongoing activity ends at now", func(t *testing.T) {
		data := timecalc.DayData{Events: []domain.ActivityEvent{ev(at(9, 30), 1)}}
		w, err := p.Window(base, data, at(11, 0))
		require.NoError(t, err)
		require.NotNil(t, w)
		assert.Equal(t, at(11, 0), w.End)
	})

	t.Run("clamped to work end", func(t *testing.T) {
		data := timecalc.DayData{Events: []domain.ActivityEvent{ev(at(7, 0), 1), ev(at(19, 0), -1)}}
		w, err := p.Window(base, data, at(20, 0))
		require.NoError(t, err)
		require.NotNil(t, w)
		assert.Equal(t, at(7, 0), w.Start, "search range reaches before the schedule")
		assert.Equal(t, at(17, 0), w.End)
	})

	t.Run("no events", func(t *testing.T) {
		w, err := p.Window(base, timecalc.DayData{}, at(20, 0))
		require.NoError(t, err)
		assert.Nil(t, w)
	})

	t.Run("activity only after work end", func(t *testing.T) {
		data := timecalc.DayData{Events: []domain.ActivityEvent{ev(at(18, 0), 1), ev(at(19, 0), -1)}}
		w, err := p.Window(base, data, at(20, 0))
		require.NoError(t, err)
		assert.Nil(t, w)
	})
}

func TestDayPolicy_Clocked(t *testing.T) {
	p := timecalc.DayPolicy{Mode: domain.IdleModeClocked, WorkStart: "08:00", WorkEnd: "17:00"}

	t.Run("in and out", func(t *testing.T) {
		data := timecalc.DayData{Clock: []domain.ClockEvent{
			clock(at(8, 40), domain.ClockIn),
			clock(at(12, 0), domain.ClockOut),
			clock(at(13, 0), domain.ClockIn),
			clock(at(16, 30), domain.ClockOut),
		}}
		w, err := p.Window(base, data, at(20, 0))
		require.NoError(t, err)
		require.NotNil(t, w)
		assert.Equal(t, at(8, 40), w.Start)
		assert.Equal(t, at(16, 30), w.End)
	})

	t.Run("missing out ends at now", func(t *testing.T) {
		data := timecalc.DayData{Clock: []domain.ClockEvent{clock(at(9, 0), domain.ClockIn)}}
		w, err := p.Window(base, data, at(10, 15))
		require.NoError(t, err)
		require.NotNil(t, w)
		assert.Equal(t, at(10, 15), w.End)
	})

	t.Run("now after work end is clamped", func(t *testing.T) {
		data := timecalc.DayData{Clock: []domain.ClockEvent{clock(at(9, 0), domain.ClockIn)}}
		w, err := p.Window(base, data, at(22, 0))
		require.NoError(t, err)
		require.NotNil(t, w)
		assert.Equal(t, at(17, 0), w.End)
	})

	t.Run("no clock in", func(t *testing.T) {
		data := timecalc.DayData{Clock: []domain.ClockEvent{clock(at(12, 0), domain.ClockOut)}}
		w, err := p.Window(base, data, at(20, 0))
		require.NoError(t, err)
		assert.Nil(t, w)
	})
}

func TestDayPolicy_InvalidHours(t *testing.T) {
	p := timecalc.DayPolicy{Mode: domain.IdleModeFixed, WorkStart: "8am", WorkEnd: "17:00"}
	_, err := p.Window(base, timecalc.DayData{}, base)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDayPolicy_OvernightSchedule(t *testing.T) {
	p := timecalc.DayPolicy{Mode: domain.IdleModeFixed, WorkStart: "22:00", WorkEnd: "06:00"}
	sched, err := p.Schedule(base)
	require.NoError(t, err)
	assert.Equal(t, 8*time.Hour, sched.Duration())
}
