package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/xvierd/tally/internal/domain"
)

// activityRepository implements ports.ActivityRepository using SQLite.
type activityRepository struct {
	db dbtx
}

// AddEvent appends to the activity stream.
func (r *activityRepository) AddEvent(ctx context.Context, event *domain.ActivityEvent) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_events (ts, delta) VALUES (?, ?)`,
		toMillis(event.TS), event.Delta,
	)
	if err != nil {
		return fmt.Errorf("failed to save activity event: %w", err)
	}
	event.ID, _ = res.LastInsertId()
	return nil
}

// Events returns activity events with from <= ts <= to, oldest first.
func (r *activityRepository) Events(ctx context.Context, from, to time.Time) ([]domain.ActivityEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, ts, delta FROM activity_events WHERE ts >= ? AND ts <= ? ORDER BY ts, id`,
		toMillis(from), toMillis(to),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []domain.ActivityEvent
	for rows.Next() {
		var e domain.ActivityEvent
		var ts int64
		if err := rows.Scan(&e.ID, &ts, &e.Delta); err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}
		e.TS = fromMillis(ts)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity events: %w", err)
	}
	return events, nil
}

// AddClock records a clock-in or clock-out marker.
func (r *activityRepository) AddClock(ctx context.Context, event *domain.ClockEvent) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO clock_events (at, kind) VALUES (?, ?)`,
		toMillis(event.At), string(event.Kind),
	)
	if err != nil {
		return fmt.Errorf("failed to save clock event: %w", err)
	}
	event.ID, _ = res.LastInsertId()
	return nil
}

// ClockEvents returns clock markers with from <= at <= to, oldest first.
func (r *activityRepository) ClockEvents(ctx context.Context, from, to time.Time) ([]domain.ClockEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, at, kind FROM clock_events WHERE at >= ? AND at <= ? ORDER BY at, id`,
		toMillis(from), toMillis(to),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query clock events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []domain.ClockEvent
	for rows.Next() {
		var e domain.ClockEvent
		var at int64
		var kind string
		if err := rows.Scan(&e.ID, &at, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan clock event: %w", err)
		}
		e.At = fromMillis(at)
		e.Kind = domain.ClockKind(kind)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clock events: %w", err)
	}
	return events, nil
}
