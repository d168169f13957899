package timecalc

import (
	"time"

	"github.com/xvierd/tally/internal/domain"
)

// Times is the split of a session (or a sum of sessions) into worked and
// paused time. Total is always Worked + Paused.
type Times struct {
	Worked time.Duration
	Paused time.Duration
	Total  time.Duration
}

// Add sums two splits.
func (t Times) Add(o Times) Times {
	return Times{
		Worked: t.Worked + o.Worked,
		Paused: t.Paused + o.Paused,
		Total:  t.Total + o.Total,
	}
}

// Seconds rounds each part to whole seconds.
func (t Times) Seconds() (worked, paused, total int64) {
	return Seconds(t.Worked), Seconds(t.Paused), Seconds(t.Total)
}

// SessionTimes computes the worked and paused time of one session.
//
// Open sessions and pauses end at now. With a window, the session is clipped
// to it and each pause is clipped to the session and the window, so a pause
// outside the window contributes nothing. Paused time is capped at the
// session's own clipped length, so Worked is never negative.
func SessionTimes(s *domain.Session, now time.Time, window *Interval) Times {
	span := Interval{Start: s.StartedAt, End: EndOr(s.EndedAt, now)}
	if window != nil {
		var ok bool
		if span, ok = Intersect(span, *window); !ok {
			return Times{}
		}
	}
	total := span.Duration()
	if total == 0 {
		return Times{}
	}

	var paused time.Duration
	for _, p := range s.Pauses {
		pause := Interval{Start: p.StartedAt, End: EndOr(p.EndedAt, now)}
		paused += Overlap(pause, span)
	}
	if paused > total {
		paused = total
	}

	return Times{Worked: total - paused, Paused: paused, Total: total}
}

// Aggregate sums SessionTimes over sessions.
func Aggregate(sessions []*domain.Session, now time.Time, window *Interval) Times {
	var sum Times
	for _, s := range sessions {
		sum = sum.Add(SessionTimes(s, now, window))
	}
	return sum
}

// ByTask sums SessionTimes per task id.
func ByTask(sessions []*domain.Session, now time.Time, window *Interval) map[int64]Times {
	out := make(map[int64]Times)
	for _, s := range sessions {
		t := SessionTimes(s, now, window)
		if t.Total == 0 {
			continue
		}
		out[s.TaskID] = out[s.TaskID].Add(t)
	}
	return out
}
