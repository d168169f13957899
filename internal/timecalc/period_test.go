package timecalc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/timecalc"
)

func TestWeekWindow(t *testing.T) {
	// 2026-02-27 is a Friday.
	fri := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	w := timecalc.WeekWindow(fri)

	assert.Equal(t, time.Monday, w.Start.Weekday())
	assert.Equal(t, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), w.End)

	sun := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, w, timecalc.WeekWindow(sun), "Sunday belongs to the preceding Monday's week")
}

func TestPeriodWindow(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// 23:30 UTC on March 31 is already April 1 in Berlin.
	anchor := time.Date(2026, 3, 31, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		period domain.Period
		start  time.Time
		end    time.Time
	}{
		{domain.PeriodDay, time.Date(2026, 4, 1, 0, 0, 0, 0, berlin), time.Date(2026, 4, 2, 0, 0, 0, 0, berlin)},
		{domain.PeriodWeek, time.Date(2026, 3, 30, 0, 0, 0, 0, berlin), time.Date(2026, 4, 6, 0, 0, 0, 0, berlin)},
		{domain.PeriodMonth, time.Date(2026, 4, 1, 0, 0, 0, 0, berlin), time.Date(2026, 5, 1, 0, 0, 0, 0, berlin)},
		{domain.PeriodYear, time.Date(2026, 1, 1, 0, 0, 0, 0, berlin), time.Date(2027, 1, 1, 0, 0, 0, 0, berlin)},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			w := timecalc.PeriodWindow(tt.period, anchor, berlin)
			require.NotNil(t, w)
			assert.True(t, tt.start.Equal(w.Start), "start = %v, want %v", w.Start, tt.start)
			assert.True(t, tt.end.Equal(w.End), "end = %v, want %v", w.End, tt.end)
		})
	}

	assert.Nil(t, timecalc.PeriodWindow(domain.PeriodAll, anchor, berlin))
}

func TestDayWindow_DST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// Clocks move forward on 2026-03-29.
	w := timecalc.DayWindow(time.Date(2026, 3, 29, 12, 0, 0, 0, berlin))
	assert.Equal(t, 23*time.Hour, w.Duration())
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		h, m    int
		wantErr bool
	}{
		{"08:00", 8, 0, false},
		{"8:05", 8, 5, false},
		{"23:59", 23, 59, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"noon", 0, 0, true},
		{"12:5", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := timecalc.ParseClock(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.h, h)
			assert.Equal(t, tt.m, m)
		})
	}
}

func TestLoadLocation(t *testing.T) {
	loc, err := timecalc.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	_, err = timecalc.LoadLocation("Mars/Olympus")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int64
		want    string
	}{
		{0, "0s"},
		{45, "45s"},
		{60, "1m"},
		{3600, "1h 0m"},
		{5400, "1h 30m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, timecalc.FormatDuration(tt.seconds))
	}
	assert.Equal(t, "01:01:01", timecalc.FormatHHMMSS(3661))
}
