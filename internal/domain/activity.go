package domain

import (
	"strings"
	"time"
)

// ActivityEvent marks a transition into (+1) or out of (-1) active
// wall-clock time. The stream is global, not tied to any task.
type ActivityEvent struct {
	ID    int64     `json:"id"`
	TS    time.Time `json:"ts"`
	Delta int       `json:"delta"`
}

// NewActivityEvent validates the delta.
func NewActivityEvent(ts time.Time, delta int) (*ActivityEvent, error) {
	if delta != 1 && delta != -1 {
		return nil, Invalid("delta", "must be +1 or -1, got %d", delta)
	}
	return &ActivityEvent{TS: ts, Delta: delta}, nil
}

// ClockKind is a manual clock-in or clock-out marker.
type ClockKind string

const (
	ClockIn  ClockKind = "in"
	ClockOut ClockKind = "out"
)

// ParseClockKind validates a clock kind.
func ParseClockKind(s string) (ClockKind, error) {
	switch k := ClockKind(strings.ToLower(strings.TrimSpace(s))); k {
	case ClockIn, ClockOut:
		return k, nil
	}
	return "", Invalid("kind", "must be %q or %q, got %q", ClockIn, ClockOut, s)
}

// ClockEvent is a manual clock marker used by the clocked idle policy.
type ClockEvent struct {
	ID   int64     `json:"id"`
	At   time.Time `json:"at"`
	Kind ClockKind `json:"kind"`
}

// IdleMode selects how the day window for idle/active is derived.
type IdleMode string

const (
	IdleModeFixed   IdleMode = "fixed"
	IdleModeAuto    IdleMode = "auto"
	IdleModeClocked IdleMode = "clocked"
)

// ParseIdleMode validates an idle mode.
func ParseIdleMode(s string) (IdleMode, error) {
	switch m := IdleMode(strings.ToLower(strings.TrimSpace(s))); m {
	case IdleModeFixed, IdleModeAuto, IdleModeClocked:
		return m, nil
	}
	return "", Invalid("idle_mode", "must be fixed, auto or clocked, got %q", s)
}
