// Package timecalc holds the pure time arithmetic behind tally's reports:
// closed-open interval overlap, session and pause accounting, local period
// windows and the idle/active classification of the activity stream.
// Nothing in here touches storage or the wall clock; callers pass "now".
package timecalc

import (
	"math"
	"time"
)

// Interval is the closed-open span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration is the length of the interval, or zero when End is not after Start.
func (i Interval) Duration() time.Duration {
	if !i.End.After(i.Start) {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Empty reports whether the interval has no length.
func (i Interval) Empty() bool {
	return i.Duration() == 0
}

// Contains reports whether t lies in [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Intersect clamps a to every other interval. ok is false when the result is
// empty.
func Intersect(a Interval, others ...Interval) (Interval, bool) {
	out := a
	for _, o := range others {
		if o.Start.After(out.Start) {
			out.Start = o.Start
		}
		if o.End.Before(out.End) {
			out.End = o.End
		}
	}
	return out, !out.Empty()
}

// Overlap is the non-negative length of the intersection of all intervals.
func Overlap(a Interval, others ...Interval) time.Duration {
	in, ok := Intersect(a, others...)
	if !ok {
		return 0
	}
	return in.Duration()
}

// EndOr resolves an optional end to now for open records.
func EndOr(end *time.Time, now time.Time) time.Time {
	if end == nil {
		return now
	}
	return *end
}

// Seconds converts d to whole seconds, rounding half away from zero.
// Negative durations from clock skew clamp to 0.
func Seconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(math.Round(d.Seconds()))
}
