package domain

import (
	"time"
)

// SessionKind distinguishes focus time from breaks.
type SessionKind string

const (
	SessionKindFocus SessionKind = "focus"
	SessionKindBreak SessionKind = "break"
)

// Session is a contiguous interval of work on a task. EndedAt is nil while
// the session is open.
type Session struct {
	ID        int64       `json:"id"`
	TaskID    int64       `json:"task_id"`
	Kind      SessionKind `json:"kind"`
	StartedAt time.Time   `json:"started_at"`
	EndedAt   *time.Time  `json:"ended_at,omitempty"`
	Pauses    []Pause     `json:"pauses,omitempty"`
}

// Pause is a sub-interval of a session during which no work accrues.
type Pause struct {
	ID        int64      `json:"id"`
	SessionID int64      `json:"session_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// NewFocusSession opens a focus session for a task.
func NewFocusSession(taskID int64, now time.Time) *Session {
	return &Session{
		TaskID:    taskID,
		Kind:      SessionKindFocus,
		StartedAt: now,
	}
}

// IsOpen reports whether the session is still running or paused.
func (s *Session) IsOpen() bool {
	return s.EndedAt == nil
}

// OpenPause returns the open pause, or nil when the session is not paused.
func (s *Session) OpenPause() *Pause {
	for i := range s.Pauses {
		if s.Pauses[i].EndedAt == nil {
			return &s.Pauses[i]
		}
	}
	return nil
}

// IsPaused reports whether the session has an open pause.
func (s *Session) IsPaused() bool {
	return s.OpenPause() != nil
}

// LedgerState is the per-task state of the session ledger.
type LedgerState string

const (
	LedgerIdle    LedgerState = "idle"
	LedgerRunning LedgerState = "running"
	LedgerPaused  LedgerState = "paused"
)

// StateOf derives the ledger state from a task's open session.
func StateOf(open *Session) LedgerState {
	switch {
	case open == nil || !open.IsOpen():
		return LedgerIdle
	case open.IsPaused():
		return LedgerPaused
	default:
		return LedgerRunning
	}
}

// CurrentSession describes the open focus session, if any.
type CurrentSession struct {
	Task         *Task       `json:"task"`
	Session      *Session    `json:"session"`
	State        LedgerState `json:"state"`
	EffectiveSec int64       `json:"effective_sec"`
	PausedSec    int64       `json:"paused_sec"`
}
