package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewFocusSession(t *testing.T) {
	s := NewFocusSession(7, t0)

	assert.Equal(t, int64(7), s.TaskID)
	assert.Equal(t, SessionKindFocus, s.Kind)
	assert.Equal(t, t0, s.StartedAt)
	assert.True(t, s.IsOpen())
	assert.False(t, s.IsPaused())
	assert.Nil(t, s.OpenPause())
}

func TestStateOf(t *testing.T) {
	end := t0.Add(time.Hour)

	closed := NewFocusSession(1, t0)
	closed.EndedAt = &end

	paused := NewFocusSession(1, t0)
	paused.Pauses = []Pause{
		{StartedAt: t0.Add(5 * time.Minute), EndedAt: ptrTime(t0.Add(10 * time.Minute))},
		{StartedAt: t0.Add(20 * time.Minute)},
	}

	resumed := NewFocusSession(1, t0)
	resumed.Pauses = []Pause{{StartedAt: t0.Add(5 * time.Minute), EndedAt: ptrTime(t0.Add(10 * time.Minute))}}

	tests := []struct {
		name    string
		session *Session
		want    LedgerState
	}{
		{"no session", nil, LedgerIdle},
		{"closed", closed, LedgerIdle},
		{"running", NewFocusSession(1, t0), LedgerRunning},
		{"paused", paused, LedgerPaused},
		{"resumed", resumed, LedgerRunning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StateOf(tt.session))
		})
	}

	assert.Equal(t, t0.Add(20*time.Minute), paused.OpenPause().StartedAt)
}

func TestNewActivityEvent(t *testing.T) {
	for _, delta := range []int{1, -1} {
		e, err := NewActivityEvent(t0, delta)
		assert.NoError(t, err)
		assert.Equal(t, delta, e.Delta)
	}
	for _, delta := range []int{0, 2, -3} {
		_, err := NewActivityEvent(t0, delta)
		assert.ErrorIs(t, err, ErrValidation)
	}

	kind, err := ParseClockKind(" OUT ")
	assert.NoError(t, err)
	assert.Equal(t, ClockOut, kind)
	_, err = ParseClockKind("break")
	assert.ErrorIs(t, err, ErrValidation)

	mode, err := ParseIdleMode("Clocked")
	assert.NoError(t, err)
	assert.Equal(t, IdleModeClocked, mode)
	_, err = ParseIdleMode("")
	assert.ErrorIs(t, err, ErrValidation)
}

func ptrTime(t time.Time) *time.Time { return &t }
