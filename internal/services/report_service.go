package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/ports"
	"github.com/xvierd/tally/internal/timecalc"
)

// MaxSummaryDays bounds DailySummary.
const MaxSummaryDays = 366

// ReportService answers period reports over tasks and their focus time.
type ReportService struct {
	base
	idle *IdleService
}

// NewReportService creates a new report service. idle supplies the report
// settings and the idle/active totals.
func NewReportService(storage ports.Storage, idle *IdleService) *ReportService {
	return &ReportService{base: newBase(storage), idle: idle}
}

// List returns one page of a period report.
//
// Rows, count and totals come from the same filtered task set. For a
// windowed period a task is in the set when it matches the filter and has
// focus time in the window, or was created or is due inside it. Row times
// are clipped to the window.
func (s *ReportService) List(ctx context.Context, q domain.ReportQuery) (*domain.ReportPage, error) {
	settings := s.idle.Settings()
	if err := q.Normalize(settings.DefaultPageSize); err != nil {
		return nil, err
	}
	log := s.opLogger("report", "period", q.Period)
	now := s.clock()

	anchor := q.Date
	if anchor.IsZero() {
		anchor = now
	}
	window := timecalc.PeriodWindow(q.Period, anchor, settings.Location)

	tq := q.Filter.TaskQuery()
	tq.Now = now
	if window != nil {
		tq.WindowStart, tq.WindowEnd = &window.Start, &window.End
	}
	if err := tq.Normalize(); err != nil {
		return nil, err
	}

	var rows []domain.ReportRow
	err := s.storage.WithinTx(ctx, func(tx ports.Repositories) error {
		tasks, err := tx.Tasks().Match(ctx, tq)
		if err != nil {
			return err
		}

		ids := make([]int64, len(tasks))
		for i, t := range tasks {
			ids[i] = t.ID
		}
		sq := ports.SessionQuery{TaskIDs: ids}
		if window != nil {
			sq.From, sq.To = &window.Start, &window.End
		}
		sessions, err := tx.Sessions().Find(ctx, sq)
		if err != nil {
			return err
		}

		byTask := timecalc.ByTask(sessions, now, window)
		rows = make([]domain.ReportRow, len(tasks))
		for i, t := range tasks {
			worked, paused, total := byTask[t.ID].Seconds()
			rows[i] = domain.ReportRow{Task: t, EffectiveSec: worked, PausedSec: paused, TotalSec: total}
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(log, "build report", err)
	}

	page := &domain.ReportPage{
		Period:     q.Period,
		TotalCount: len(rows),
		Page:       q.Page,
		PageSize:   q.PageSize,
		Rows:       []domain.ReportRow{},
	}
	for _, r := range rows {
		page.Totals.WorkedSec += r.EffectiveSec
		page.Totals.PausedSec += r.PausedSec
	}

	if window != nil {
		page.WindowStart, page.WindowEnd = &window.Start, &window.End
		s.measureIdle(ctx, log, q.Period, anchor, *window, &page.Totals)
	}

	sortRows(rows, q.SortBy, q.SortDir)
	if from := (q.Page - 1) * q.PageSize; from < len(rows) {
		to := from + q.PageSize
		if to > len(rows) {
			to = len(rows)
		}
		page.Rows = rows[from:to]
	}

	log.Debug("report built", "rows", page.TotalCount, "worked_sec", page.Totals.WorkedSec)
	return page, nil
}

// measureIdle fills the idle/active totals. It is best effort: a failure is
// logged and leaves the totals at zero.
func (s *ReportService) measureIdle(ctx context.Context, log *slog.Logger, period domain.Period, anchor time.Time, window timecalc.Interval, totals *domain.ReportTotals) {
	var report *domain.IdleReport
	var err error
	if period == domain.PeriodDay {
		report, err = s.idle.Day(ctx, anchor)
	} else {
		report, err = s.idle.Window(ctx, window)
	}
	if err != nil {
		log.Warn("idle totals unavailable", "error", err)
		return
	}
	totals.IdleSec = report.IdleSec
	totals.ActiveSec = report.ActiveSec
	totals.IdleMeasured = report.WindowStart != nil
}

// sortRows orders rows by key and direction. Missing due dates and projects
// sort last in both directions; ties fall back to the task id.
func sortRows(rows []domain.ReportRow, key domain.ReportSortKey, dir domain.SortDir) {
	desc := dir == domain.SortDesc
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Task, rows[j].Task

		var c int
		switch key {
		case domain.ReportSortTitle:
			c = strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		case domain.ReportSortStatus:
			c = strings.Compare(string(a.Status), string(b.Status))
		case domain.ReportSortDue:
			if n, ok := nullsLast(a.DueAt == nil, b.DueAt == nil); ok {
				return n
			}
			if a.DueAt != nil {
				c = a.DueAt.Compare(*b.DueAt)
			}
		case domain.ReportSortProject:
			if n, ok := nullsLast(a.ProjectName == "", b.ProjectName == ""); ok {
				return n
			}
			c = strings.Compare(strings.ToLower(a.ProjectName), strings.ToLower(b.ProjectName))
		case domain.ReportSortEffective:
			c = compareInt64(rows[i].EffectiveSec, rows[j].EffectiveSec)
		case domain.ReportSortPriority:
			c = compareInt64(int64(a.PriorityWeight), int64(b.PriorityWeight))
		default:
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		}

		if c == 0 {
			return a.ID < b.ID
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// nullsLast orders a missing value after a present one. ok is false when
// both or neither are missing.
func nullsLast(aMissing, bMissing bool) (less, ok bool) {
	if aMissing == bMissing {
		return false, false
	}
	return bMissing, true
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// DailySummary returns worked, paused and total focus time for each of the
// last days local days, oldest first, across all tasks.
func (s *ReportService) DailySummary(ctx context.Context, days int) ([]domain.DaySummary, error) {
	if days <= 0 {
		days = 7
	}
	if days > MaxSummaryDays {
		return nil, domain.Invalid("days", "must be at most %d", MaxSummaryDays)
	}
	settings := s.idle.Settings()
	log := s.opLogger("daily_summary", "days", days)
	now := s.clock()

	today := timecalc.DayWindow(now.In(settings.Location))
	span := timecalc.Interval{Start: today.Start.AddDate(0, 0, -(days - 1)), End: today.End}

	sessions, err := s.storage.Sessions().Find(ctx, ports.SessionQuery{From: &span.Start, To: &span.End})
	if err != nil {
		return nil, s.fail(log, "summarize days", err)
	}

	out := make([]domain.DaySummary, 0, days)
	for day := span.Start; day.Before(span.End); day = day.AddDate(0, 0, 1) {
		w := timecalc.DayWindow(day)
		worked, paused, total := timecalc.Aggregate(sessions, now, &w).Seconds()
		out = append(out, domain.DaySummary{
			Day:       timecalc.DayKey(day),
			WorkedSec: worked,
			PausedSec: paused,
			TotalSec:  total,
		})
	}
	return out, nil
}
