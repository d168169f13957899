package services

import (
	"context"
	"sync"
	"time"

	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/ports"
	"github.com/xvierd/tally/internal/timecalc"
)

// ReportSettings drive local-day windows and the idle/active policy.
type ReportSettings struct {
	Location        *time.Location
	IdleMode        domain.IdleMode
	WorkStart       string
	WorkEnd         string
	IdleGraceMin    int
	DefaultPageSize int
}

// DefaultReportSettings returns a 09:00-17:00 fixed day in local time.
func DefaultReportSettings() ReportSettings {
	return ReportSettings{
		Location:        time.Local,
		IdleMode:        domain.IdleModeFixed,
		WorkStart:       "09:00",
		WorkEnd:         "17:00",
		DefaultPageSize: domain.DefaultReportPageSize,
	}
}

func (r ReportSettings) policy() timecalc.DayPolicy {
	return timecalc.DayPolicy{Mode: r.IdleMode, WorkStart: r.WorkStart, WorkEnd: r.WorkEnd}
}

// IdleService records the activity and clock streams and measures idle
// versus active time.
type IdleService struct {
	base

	mu       sync.RWMutex
	settings ReportSettings
}

// NewIdleService creates a new idle service.
func NewIdleService(storage ports.Storage) *IdleService {
	return &IdleService{base: newBase(storage), settings: DefaultReportSettings()}
}

// SetSettings swaps the report settings. Safe to call while serving.
func (s *IdleService) SetSettings(settings ReportSettings) {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}

// Settings returns the current report settings.
func (s *IdleService) Settings() ReportSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// RecordActivity appends an activity transition at the current time.
func (s *IdleService) RecordActivity(ctx context.Context, delta int) error {
	return s.RecordActivityAt(ctx, s.clock(), delta)
}

// RecordActivityAt appends an activity transition: +1 when activity starts,
// -1 when it ends.
func (s *IdleService) RecordActivityAt(ctx context.Context, ts time.Time, delta int) error {
	event, err := domain.NewActivityEvent(ts.UTC().Truncate(time.Millisecond), delta)
	if err != nil {
		return err
	}
	if err := s.storage.Activity().AddEvent(ctx, event); err != nil {
		return s.fail(s.opLogger("record_activity"), "record activity", err)
	}
	return nil
}

// RecordClock appends a clock marker at the current time.
func (s *IdleService) RecordClock(ctx context.Context, kind domain.ClockKind) error {
	return s.Clock(ctx, s.clock(), kind)
}

// Clock appends a clock-in or clock-out marker.
func (s *IdleService) Clock(ctx context.Context, at time.Time, kind domain.ClockKind) error {
	kind, err := domain.ParseClockKind(string(kind))
	if err != nil {
		return err
	}
	log := s.opLogger("clock", "kind", kind)

	event := &domain.ClockEvent{At: at.UTC().Truncate(time.Millisecond), Kind: kind}
	if err := s.storage.Activity().AddClock(ctx, event); err != nil {
		return s.fail(log, "record clock event", err)
	}
	log.Info("clock recorded", "at", event.At)
	return nil
}

// Day measures idle and active time for the local day containing day, using
// the configured policy and grace. A policy with nothing to measure yields
// zero totals.
func (s *IdleService) Day(ctx context.Context, day time.Time) (*domain.IdleReport, error) {
	settings := s.Settings()
	day = day.In(settings.Location)
	policy := settings.policy()
	report := &domain.IdleReport{Mode: settings.IdleMode}

	search, err := policy.SearchRange(day)
	if err != nil {
		return nil, err
	}

	var data timecalc.DayData
	err = s.storage.WithinTx(ctx, func(tx ports.Repositories) error {
		var err error
		if data.Events, err = tx.Activity().Events(ctx, search.Start, search.End); err != nil {
			return err
		}
		if settings.IdleMode == domain.IdleModeClocked {
			data.Clock, err = tx.Activity().ClockEvents(ctx, search.Start, search.End)
		}
		return err
	})
	if err != nil {
		return nil, s.fail(s.opLogger("idle_day"), "load activity", err)
	}

	window, err := policy.Window(day, data, s.clock())
	if err != nil {
		return nil, err
	}
	if window == nil {
		return report, nil
	}

	idle, active := timecalc.IdleActive(data.Events, *window)
	idle = timecalc.ApplyGrace(idle, settings.IdleGraceMin)

	report.WindowStart, report.WindowEnd = &window.Start, &window.End
	report.IdleSec = timecalc.Seconds(idle)
	report.ActiveSec = timecalc.Seconds(active)
	return report, nil
}

// Window measures idle and active time over a plain window, without a day
// policy or grace.
func (s *IdleService) Window(ctx context.Context, window timecalc.Interval) (*domain.IdleReport, error) {
	events, err := s.storage.Activity().Events(ctx, window.Start, window.End)
	if err != nil {
		return nil, s.fail(s.opLogger("idle_window"), "load activity", err)
	}

	idle, active := timecalc.IdleActive(events, window)
	return &domain.IdleReport{
		Mode:        s.Settings().IdleMode,
		WindowStart: &window.Start,
		WindowEnd:   &window.End,
		IdleSec:     timecalc.Seconds(idle),
		ActiveSec:   timecalc.Seconds(active),
	}, nil
}
