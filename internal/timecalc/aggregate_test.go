package timecalc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/timecalc"
)

var base = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

func at(hh, mm int) time.Time {
	return base.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
}

func ptr(t time.Time) *time.Time { return &t }

func session(start, end time.Time, pauses ...domain.Pause) *domain.Session {
	s := &domain.Session{TaskID: 1, Kind: domain.SessionKindFocus, StartedAt: start, Pauses: pauses}
	if !end.IsZero() {
		s.EndedAt = ptr(end)
	}
	return s
}

func pause(start, end time.Time) domain.Pause {
	p := domain.Pause{StartedAt: start}
	if !end.IsZero() {
		p.EndedAt = ptr(end)
	}
	return p
}

func TestSessionTimes_PauseBeforeWindow(t *testing.T) {
	s := session(at(10, 0), at(12, 0), pause(at(10, 30), at(10, 45)))
	window := timecalc.Interval{Start: at(11, 0), End: at(12, 0)}

	got := timecalc.SessionTimes(s, at(13, 0), &window)

	worked, paused, total := got.Seconds()
	assert.Equal(t, int64(3600), total)
	assert.Equal(t, int64(0), paused)
	assert.Equal(t, int64(3600), worked)
}

func TestSessionTimes_AllTime(t *testing.T) {
	s := session(at(10, 0), at(12, 0), pause(at(10, 30), at(10, 45)))

	worked, paused, total := timecalc.SessionTimes(s, at(13, 0), nil).Seconds()

	assert.Equal(t, int64(7200), total)
	assert.Equal(t, int64(900), paused)
	assert.Equal(t, int64(6300), worked)
}

func TestSessionTimes_OpenRecordsUseNow(t *testing.T) {
	s := session(at(9, 0), time.Time{}, pause(at(9, 10), at(9, 20)), pause(at(9, 50), time.Time{}))

	worked, paused, total := timecalc.SessionTimes(s, at(10, 0), nil).Seconds()

	assert.Equal(t, int64(3600), total)
	assert.Equal(t, int64(1200), paused)
	assert.Equal(t, int64(2400), worked)
}

func TestSessionTimes_NeverNegative(t *testing.T) {
	tests := []struct {
		name string
		s    *domain.Session
		now  time.Time
	}{
		{
			name: "pause longer than session",
			s:    session(at(10, 0), at(10, 30), pause(at(9, 0), at(11, 0))),
			now:  at(12, 0),
		},
		{
			name: "overlapping pauses from bad data",
			s:    session(at(10, 0), at(10, 30), pause(at(10, 0), at(10, 30)), pause(at(10, 10), at(10, 20))),
			now:  at(12, 0),
		},
		{
			name: "end before start",
			s:    session(at(10, 0), at(9, 0)),
			now:  at(12, 0),
		},
		{
			name: "open session started in the future",
			s:    session(at(15, 0), time.Time{}),
			now:  at(12, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timecalc.SessionTimes(tt.s, tt.now, nil)
			assert.GreaterOrEqual(t, got.Worked, time.Duration(0))
			assert.LessOrEqual(t, got.Paused, got.Total)
		})
	}
}

func TestSessionTimes_NoOverlap(t *testing.T) {
	s := session(at(8, 0), at(9, 0))
	window := timecalc.Interval{Start: at(10, 0), End: at(11, 0)}

	assert.Equal(t, timecalc.Times{}, timecalc.SessionTimes(s, at(12, 0), &window))
}

func TestAggregate_WindowAdditivity(t *testing.T) {
	sessions := []*domain.Session{
		session(at(8, 15), at(11, 40), pause(at(9, 55), at(10, 20))),
		session(at(13, 0), at(17, 5), pause(at(14, 0), at(14, 1)), pause(at(16, 50), at(17, 30))),
		session(at(23, 0), time.Time{}, pause(at(23, 30), time.Time{})),
	}
	now := base.Add(25 * time.Hour)
	full := timecalc.DayWindow(base)

	whole := timecalc.Aggregate(sessions, now, &full)

	var parts timecalc.Times
	for h := 0; h < 24; h += 3 {
		w := timecalc.Interval{Start: at(h, 0), End: at(h+3, 0)}
		parts = parts.Add(timecalc.Aggregate(sessions, now, &w))
	}

	assert.Equal(t, whole.Worked, parts.Worked)
	assert.Equal(t, whole.Paused, parts.Paused)
}

func TestByTask(t *testing.T) {
	a := session(at(9, 0), at(10, 0))
	b := session(at(10, 0), at(10, 30))
	b.TaskID = 2
	c := session(at(11, 0), at(11, 15))

	got := timecalc.ByTask([]*domain.Session{a, b, c}, at(12, 0), nil)

	require.Len(t, got, 2)
	assert.Equal(t, 75*time.Minute, got[1].Worked)
	assert.Equal(t, 30*time.Minute, got[2].Worked)
}

func TestSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int64
	}{
		{0, 0},
		{-5 * time.Second, 0},
		{1499 * time.Millisecond, 1},
		{1500 * time.Millisecond, 2},
		{2500 * time.Millisecond, 3},
		{59*time.Second + 999*time.Millisecond, 60},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, timecalc.Seconds(tt.in), "Seconds(%v)", tt.in)
	}
}

func TestIntersect(t *testing.T) {
	a := timecalc.Interval{Start: at(10, 0), End: at(12, 0)}

	in, ok := timecalc.Intersect(a, timecalc.Interval{Start: at(11, 0), End: at(13, 0)})
	require.True(t, ok)
	assert.Equal(t, at(11, 0), in.Start)
	assert.Equal(t, at(12, 0), in.End)

	_, ok = timecalc.Intersect(a, timecalc.Interval{Start: at(12, 0), End: at(13, 0)})
	assert.False(t, ok, "touching intervals do not overlap")

	assert.Equal(t, time.Duration(0), timecalc.Overlap(a, timecalc.Interval{Start: at(6, 0), End: at(7, 0)}))
}
