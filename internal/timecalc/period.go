package timecalc

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	// Embedded zone database so IANA names resolve on hosts without one.
	_ "time/tzdata"

	"github.com/xvierd/tally/internal/domain"
)

// StartOfDay returns local midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayWindow is [midnight, next midnight) of t's local day. Using calendar
// arithmetic keeps DST days at 23 or 25 hours.
func DayWindow(t time.Time) Interval {
	start := StartOfDay(t)
	return Interval{Start: start, End: start.AddDate(0, 0, 1)}
}

// WeekWindow is the Monday-to-Monday week containing t.
func WeekWindow(t time.Time) Interval {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	monday := StartOfDay(t).AddDate(0, 0, -(wd - 1))
	return Interval{Start: monday, End: monday.AddDate(0, 0, 7)}
}

// MonthWindow is the calendar month containing t.
func MonthWindow(t time.Time) Interval {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Interval{Start: start, End: start.AddDate(0, 1, 0)}
}

// YearWindow is the calendar year containing t.
func YearWindow(t time.Time) Interval {
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	return Interval{Start: start, End: start.AddDate(1, 0, 0)}
}

// PeriodWindow returns the local window of period around anchor, or nil for
// the all-time period.
func PeriodWindow(p domain.Period, anchor time.Time, loc *time.Location) *Interval {
	if loc != nil {
		anchor = anchor.In(loc)
	}
	var w Interval
	switch p {
	case domain.PeriodDay:
		w = DayWindow(anchor)
	case domain.PeriodWeek:
		w = WeekWindow(anchor)
	case domain.PeriodMonth:
		w = MonthWindow(anchor)
	case domain.PeriodYear:
		w = YearWindow(anchor)
	default:
		return nil
	}
	return &w
}

// ParseClock parses an "HH:MM" time of day.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || len(parts[0]) == 0 || len(parts[1]) != 2 {
		return 0, 0, domain.Invalid("time", "expected HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, domain.Invalid("time", "hour out of range in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, domain.Invalid("time", "minute out of range in %q", s)
	}
	return hour, minute, nil
}

// At returns the instant hh:mm on day's local calendar date.
func At(day time.Time, hhmm string) (time.Time, error) {
	h, m, err := ParseClock(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location()), nil
}

// LoadLocation resolves an IANA zone name; empty means the local zone.
func LoadLocation(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, domain.Invalid("timezone", "unknown zone %q", name)
	}
	return loc, nil
}

// DayKey formats t's local date as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatDuration formats seconds as "1h 40m", "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatHHMMSS formats seconds as HH:MM:SS.
func FormatHHMMSS(seconds int64) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
