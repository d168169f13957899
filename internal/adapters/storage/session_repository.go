package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/ports"
)

// sessionRepository implements ports.SessionRepository using SQLite.
type sessionRepository struct {
	db dbtx
}

// Create inserts a session and assigns its ID. A second open focus session
// violates ux_sessions_open_focus and is reported as a conflict.
func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if session.Kind == "" {
		session.Kind = domain.SessionKindFocus
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (task_id, kind, started_at, ended_at) VALUES (?, ?, ?, ?)`,
		session.TaskID,
		string(session.Kind),
		toMillis(session.StartedAt),
		nullMillis(session.EndedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrAnotherTaskRunning
		}
		return fmt.Errorf("failed to save session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read session id: %w", err)
	}
	session.ID = id
	return nil
}

// Close sets the end of an open session.
func (r *sessionRepository) Close(ctx context.Context, sessionID int64, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		toMillis(at), sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("session %d is not open: %w", sessionID, domain.ErrNotFound)
	}
	return nil
}

// OpenPause starts a pause on a session.
func (r *sessionRepository) OpenPause(ctx context.Context, sessionID int64, at time.Time) (*domain.Pause, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO session_pauses (session_id, started_at) VALUES (?, ?)`,
		sessionID, toMillis(at),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, &domain.Error{Kind: domain.KindConflict, Code: "ALREADY_PAUSED", Message: "session is already paused"}
		}
		return nil, fmt.Errorf("failed to open pause: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read pause id: %w", err)
	}
	return &domain.Pause{ID: id, SessionID: sessionID, StartedAt: at}, nil
}

// ClosePause ends an open pause.
func (r *sessionRepository) ClosePause(ctx context.Context, pauseID int64, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE session_pauses SET ended_at = ? WHERE id = ? AND ended_at IS NULL`,
		toMillis(at), pauseID,
	)
	if err != nil {
		return fmt.Errorf("failed to close pause: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("pause %d is not open: %w", pauseID, domain.ErrNotFound)
	}
	return nil
}

// FindOpenFocus returns every open focus session with its pauses.
func (r *sessionRepository) FindOpenFocus(ctx context.Context) ([]*domain.Session, error) {
	return r.find(ctx,
		`SELECT id, task_id, kind, started_at, ended_at FROM sessions
		 WHERE kind = 'focus' AND ended_at IS NULL ORDER BY started_at`)
}

// FindOpenFocusByTask returns the task's open focus session, or nil.
func (r *sessionRepository) FindOpenFocusByTask(ctx context.Context, taskID int64) (*domain.Session, error) {
	sessions, err := r.find(ctx,
		`SELECT id, task_id, kind, started_at, ended_at FROM sessions
		 WHERE task_id = ? AND kind = 'focus' AND ended_at IS NULL
		 ORDER BY started_at DESC LIMIT 1`, taskID)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, nil
	}
	return sessions[0], nil
}

// Find returns focus sessions with their pauses, ordered by start. Task IDs
// are queried in chunks to stay under SQLite's variable limit.
func (r *sessionRepository) Find(ctx context.Context, q ports.SessionQuery) ([]*domain.Session, error) {
	conds := []string{`kind = 'focus'`}
	var args []interface{}

	if q.To != nil {
		conds = append(conds, `started_at < ?`)
		args = append(args, toMillis(*q.To))
	}
	if q.From != nil {
		conds = append(conds, `(ended_at IS NULL OR ended_at > ?)`)
		args = append(args, toMillis(*q.From))
	}

	const order = ` ORDER BY started_at, id`
	if q.TaskIDs == nil {
		query := `SELECT id, task_id, kind, started_at, ended_at FROM sessions WHERE ` +
			strings.Join(conds, " AND ") + order
		return r.find(ctx, query, args...)
	}
	if len(q.TaskIDs) == 0 {
		return nil, nil
	}

	seen := make(map[int64]bool, len(q.TaskIDs))
	taskIDs := make([]int64, 0, len(q.TaskIDs))
	for _, id := range q.TaskIDs {
		if !seen[id] {
			seen[id] = true
			taskIDs = append(taskIDs, id)
		}
	}

	const chunk = 500
	var sessions []*domain.Session
	for startIdx := 0; startIdx < len(taskIDs); startIdx += chunk {
		end := startIdx + chunk
		if end > len(taskIDs) {
			end = len(taskIDs)
		}
		part := taskIDs[startIdx:end]

		partArgs := make([]interface{}, 0, len(args)+len(part))
		partArgs = append(partArgs, args...)
		for _, id := range part {
			partArgs = append(partArgs, id)
		}
		query := `SELECT id, task_id, kind, started_at, ended_at FROM sessions WHERE ` +
			strings.Join(conds, " AND ") + ` AND task_id IN (` + placeholders(len(part)) + `)` + order

		found, err := r.find(ctx, query, partArgs...)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, found...)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].StartedAt.Equal(sessions[j].StartedAt) {
			return sessions[i].StartedAt.Before(sessions[j].StartedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions, nil
}

// find scans sessions, closes the rows and then attaches pauses.
func (r *sessionRepository) find(ctx context.Context, query string, args ...interface{}) ([]*domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}

	sessions, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadPauses(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepository) loadPauses(ctx context.Context, sessions []*domain.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	byID := make(map[int64]*domain.Session, len(sessions))
	ids := make([]interface{}, 0, len(sessions))
	for _, s := range sessions {
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	const chunk = 500
	for startIdx := 0; startIdx < len(ids); startIdx += chunk {
		end := startIdx + chunk
		if end > len(ids) {
			end = len(ids)
		}
		part := ids[startIdx:end]

		rows, err := r.db.QueryContext(ctx, `
			SELECT id, session_id, started_at, ended_at FROM session_pauses
			WHERE session_id IN (`+placeholders(len(part))+`)
			ORDER BY started_at, id`, part...)
		if err != nil {
			return fmt.Errorf("failed to query pauses: %w", err)
		}

		for rows.Next() {
			var p domain.Pause
			var startedAt int64
			var endedAt sql.NullInt64
			if err := rows.Scan(&p.ID, &p.SessionID, &startedAt, &endedAt); err != nil {
				_ = rows.Close()
				return fmt.Errorf("failed to scan pause: %w", err)
			}
			p.StartedAt = fromMillis(startedAt)
			p.EndedAt = fromNullMillis(endedAt)
			if s, ok := byID[p.SessionID]; ok {
				s.Pauses = append(s.Pauses, p)
			}
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return fmt.Errorf("failed to iterate pauses: %w", err)
		}
	}
	return nil
}

func scanSessions(rows *sql.Rows) ([]*domain.Session, error) {
	defer func() { _ = rows.Close() }()

	var sessions []*domain.Session
	for rows.Next() {
		var s domain.Session
		var kind string
		var startedAt int64
		var endedAt sql.NullInt64
		if err := rows.Scan(&s.ID, &s.TaskID, &kind, &startedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		s.Kind = domain.SessionKind(kind)
		s.StartedAt = fromMillis(startedAt)
		s.EndedAt = fromNullMillis(endedAt)
		sessions = append(sessions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}
