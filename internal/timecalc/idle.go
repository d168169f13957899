package timecalc

import (
	"sort"
	"time"

	"github.com/xvierd/tally/internal/domain"
)

// searchSlack widens the scheduled hours when auto and clocked look for the
// first event of the day.
const searchSlack = 12 * time.Hour

// IdleActive splits window into idle and active time from the activity
// stream. Only events inside [Start, End] count, and the running sum starts
// at zero at window start. A gap is active while the sum is positive, idle
// while it is zero; a negative sum from an unbalanced stream is neither.
func IdleActive(events []domain.ActivityEvent, window Interval) (idle, active time.Duration) {
	if window.Empty() {
		return 0, 0
	}

	in := make([]domain.ActivityEvent, 0, len(events))
	for _, e := range events {
		if e.TS.Before(window.Start) || e.TS.After(window.End) {
			continue
		}
		in = append(in, e)
	}
	sortEvents(in)

	classify := func(sum int, gap time.Duration) {
		switch {
		case gap <= 0:
		case sum > 0:
			active += gap
		case sum == 0:
			idle += gap
		}
	}

	prev, sum := window.Start, 0
	for _, e := range in {
		classify(sum, e.TS.Sub(prev))
		sum += e.Delta
		prev = e.TS
	}
	classify(sum, window.End.Sub(prev))

	return idle, active
}

// ApplyGrace subtracts graceMin minutes from idle, floored at zero.
func ApplyGrace(idle time.Duration, graceMin int) time.Duration {
	if graceMin <= 0 {
		return idle
	}
	idle -= time.Duration(graceMin) * time.Minute
	if idle < 0 {
		return 0
	}
	return idle
}

// DayPolicy derives the measured window of a single day.
type DayPolicy struct {
	Mode      domain.IdleMode
	WorkStart string
	WorkEnd   string
}

// DayData is the raw input of the auto and clocked policies.
type DayData struct {
	Events []domain.ActivityEvent
	Clock  []domain.ClockEvent
}

// Schedule is [WorkStart, WorkEnd) on day's local date. An end at or before
// the start rolls over to the next day.
func (p DayPolicy) Schedule(day time.Time) (Interval, error) {
	start, err := At(day, p.WorkStart)
	if err != nil {
		return Interval{}, err
	}
	end, err := At(day, p.WorkEnd)
	if err != nil {
		return Interval{}, err
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return Interval{Start: start, End: end}, nil
}

// SearchRange is the schedule widened by twelve hours on both sides.
func (p DayPolicy) SearchRange(day time.Time) (Interval, error) {
	sched, err := p.Schedule(day)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: sched.Start.Add(-searchSlack), End: sched.End.Add(searchSlack)}, nil
}

// Window returns the day's measured window, or nil when the policy finds
// nothing to measure.
func (p DayPolicy) Window(day time.Time, data DayData, now time.Time) (*Interval, error) {
	sched, err := p.Schedule(day)
	if err != nil {
		return nil, err
	}

	switch p.Mode {
	case domain.IdleModeFixed, "":
		return &sched, nil
	case domain.IdleModeAuto:
		return autoWindow(sched, data.Events, now), nil
	case domain.IdleModeClocked:
		return clockedWindow(sched, data.Clock, now), nil
	default:
		return nil, domain.Invalid("idle_mode", "unknown mode %q", p.Mode)
	}
}

func autoWindow(sched Interval, events []domain.ActivityEvent, now time.Time) *Interval {
	search := Interval{Start: sched.Start.Add(-searchSlack), End: sched.End.Add(searchSlack)}

	var in []domain.ActivityEvent
	for _, e := range events {
		if !e.TS.Before(search.Start) && !e.TS.After(search.End) {
			in = append(in, e)
		}
	}
	if len(in) == 0 {
		return nil
	}
	sortEvents(in)

	sum := 0
	for _, e := range in {
		sum += e.Delta
	}
	end := in[len(in)-1].TS
	if sum > 0 {
		end = now
	}
	return clampWindow(in[0].TS, end, sched.End)
}

func clockedWindow(sched Interval, clock []domain.ClockEvent, now time.Time) *Interval {
	search := Interval{Start: sched.Start.Add(-searchSlack), End: sched.End.Add(searchSlack)}

	var start *time.Time
	for i := range clock {
		c := clock[i]
		if c.Kind != domain.ClockIn || c.At.Before(search.Start) || c.At.After(search.End) {
			continue
		}
		if start == nil || c.At.Before(*start) {
			at := c.At
			start = &at
		}
	}
	if start == nil {
		return nil
	}

	var end *time.Time
	for i := range clock {
		c := clock[i]
		if c.Kind != domain.ClockOut || !c.At.After(*start) || c.At.After(search.End) {
			continue
		}
		if end == nil || c.At.After(*end) {
			at := c.At
			end = &at
		}
	}
	if end == nil {
		end = &now
	}
	return clampWindow(*start, *end, sched.End)
}

func clampWindow(start, end, limit time.Time) *Interval {
	if end.After(limit) {
		end = limit
	}
	if !end.After(start) {
		return nil
	}
	return &Interval{Start: start, End: end}
}

func sortEvents(events []domain.ActivityEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].TS.Before(events[j].TS)
	})
}
