package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/ports"
	"github.com/xvierd/tally/internal/timecalc"
)

// LedgerService records focus sessions: start, pause and stop.
// Every operation runs in a single storage transaction.
type LedgerService struct {
	base
	notifier ports.Notifier
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(storage ports.Storage) *LedgerService {
	return &LedgerService{base: newBase(storage)}
}

// SetNotifier sets the notifier told about auto-stopped and stopped tasks.
func (s *LedgerService) SetNotifier(notifier ports.Notifier) {
	s.notifier = notifier
}

// Start begins or resumes focus on a task.
//
// When the task already has an open session, its open pause is closed.
// Otherwise every other open focus session must be paused: paused ones are
// closed and their tasks go back to todo, a running one fails the call with
// ErrAnotherTaskRunning and nothing changes.
func (s *LedgerService) Start(ctx context.Context, taskID int64) (*domain.Task, error) {
	if err := domain.ValidateID(taskID); err != nil {
		return nil, err
	}
	log := s.opLogger("start", "task_id", taskID)
	now := s.clock()

	var task *domain.Task
	var yielded []*domain.Task
	err := s.storage.WithinTx(ctx, func(tx ports.Repositories) error {
		yielded = nil

		t, err := tx.Tasks().FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if t.Status.IsClosed() {
			return domain.ErrTaskClosed
		}

		own, err := tx.Sessions().FindOpenFocusByTask(ctx, taskID)
		if err != nil {
			return err
		}
		if own != nil {
			if p := own.OpenPause(); p != nil {
				if err := tx.Sessions().ClosePause(ctx, p.ID, now); err != nil {
					return err
				}
			}
		} else {
			open, err := tx.Sessions().FindOpenFocus(ctx)
			if err != nil {
				return err
			}
			for _, other := range open {
				if !other.IsPaused() {
					return domain.ErrAnotherTaskRunning
				}
			}
			for _, other := range open {
				yieldedTask, err := yield(ctx, tx, other, now)
				if err != nil {
					return err
				}
				yielded = append(yielded, yieldedTask)
			}
			if err := tx.Sessions().Create(ctx, domain.NewFocusSession(taskID, now)); err != nil {
				return err
			}
		}

		t.MarkInProgress(now)
		if err := tx.Tasks().Update(ctx, t); err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, s.fail(log, "start task", err)
	}

	for _, y := range yielded {
		log.Info("auto-stopped paused task", "yielded_task_id", y.ID)
		s.notify(log, "Task stopped", fmt.Sprintf("%q was paused and has been stopped", y.Title))
	}
	log.Info("task started")
	return task, nil
}

// yield closes a paused session of another task and returns that task to todo.
func yield(ctx context.Context, tx ports.Repositories, session *domain.Session, now time.Time) (*domain.Task, error) {
	if err := closeSession(ctx, tx, session, now); err != nil {
		return nil, err
	}

	t, err := tx.Tasks().FindByID(ctx, session.TaskID)
	if err != nil {
		return nil, err
	}
	if t.Status == domain.StatusInProgress {
		t.MarkYielded(now)
		if err := tx.Tasks().Update(ctx, t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Pause toggles the pause of the task's open session: an open pause is
// closed (resume), otherwise a pause is opened. Idle tasks are left as is.
func (s *LedgerService) Pause(ctx context.Context, taskID int64) (*domain.Task, error) {
	if err := domain.ValidateID(taskID); err != nil {
		return nil, err
	}
	log := s.opLogger("pause", "task_id", taskID)
	now := s.clock()

	var task *domain.Task
	var paused bool
	err := s.storage.WithinTx(ctx, func(tx ports.Repositories) error {
		t, err := tx.Tasks().FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		if t.Status.IsClosed() {
			return domain.ErrTaskClosed
		}
		task = t

		own, err := tx.Sessions().FindOpenFocusByTask(ctx, taskID)
		if err != nil || own == nil {
			return err
		}

		if p := own.OpenPause(); p != nil {
			paused = false
			if err := tx.Sessions().ClosePause(ctx, p.ID, now); err != nil {
				return err
			}
		} else {
			paused = true
			if _, err := tx.Sessions().OpenPause(ctx, own.ID, now); err != nil {
				return err
			}
		}

		t.UpdatedAt = now
		return tx.Tasks().Update(ctx, t)
	})
	if err != nil {
		return nil, s.fail(log, "pause task", err)
	}

	log.Info("pause toggled", "paused", paused)
	return task, nil
}

// Stop closes the task's open session, if any, and marks the task done.
// Stopping a done task again changes nothing.
func (s *LedgerService) Stop(ctx context.Context, taskID int64) (*domain.Task, error) {
	if err := domain.ValidateID(taskID); err != nil {
		return nil, err
	}
	log := s.opLogger("stop", "task_id", taskID)
	now := s.clock()

	var task *domain.Task
	var closed *domain.Session
	err := s.storage.WithinTx(ctx, func(tx ports.Repositories) error {
		closed = nil

		t, err := tx.Tasks().FindByID(ctx, taskID)
		if err != nil {
			return err
		}
		task = t

		own, err := tx.Sessions().FindOpenFocusByTask(ctx, taskID)
		if err != nil {
			return err
		}
		if own != nil {
			if err := closeSession(ctx, tx, own, now); err != nil {
				return err
			}
			closed = own
		}

		if closed == nil && t.Status.IsClosed() {
			return nil
		}
		if t.Status != domain.StatusArchived {
			t.MarkDone(now)
		}
		return tx.Tasks().Update(ctx, t)
	})
	if err != nil {
		return nil, s.fail(log, "stop task", err)
	}

	if closed != nil {
		worked, _, _ := timecalc.SessionTimes(closed, now, nil).Seconds()
		log.Info("task stopped", "session_id", closed.ID, "effective_sec", worked)
		s.notify(log, "Task done", fmt.Sprintf("%s: %s of focus", task.Title, timecalc.FormatDuration(worked)))
	}
	return task, nil
}

// Current returns the open focus session with its task, or nil when no task
// is running or paused.
func (s *LedgerService) Current(ctx context.Context) (*domain.CurrentSession, error) {
	log := s.opLogger("current")
	now := s.clock()

	var current *domain.CurrentSession
	err := s.storage.WithinTx(ctx, func(tx ports.Repositories) error {
		open, err := tx.Sessions().FindOpenFocus(ctx)
		if err != nil || len(open) == 0 {
			current = nil
			return err
		}

		session := open[0]
		task, err := tx.Tasks().FindByID(ctx, session.TaskID)
		if err != nil {
			return err
		}

		worked, paused, _ := timecalc.SessionTimes(session, now, nil).Seconds()
		current = &domain.CurrentSession{
			Task:         task,
			Session:      session,
			State:        domain.StateOf(session),
			EffectiveSec: worked,
			PausedSec:    paused,
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(log, "get current session", err)
	}
	return current, nil
}

// closeSession closes the open pause, then the session itself, and mirrors
// the end times on the in-memory session.
func closeSession(ctx context.Context, tx ports.Repositories, session *domain.Session, now time.Time) error {
	if p := session.OpenPause(); p != nil {
		if err := tx.Sessions().ClosePause(ctx, p.ID, now); err != nil {
			return err
		}
		end := now
		p.EndedAt = &end
	}
	if err := tx.Sessions().Close(ctx, session.ID, now); err != nil {
		return err
	}
	end := now
	session.EndedAt = &end
	return nil
}

func (s *LedgerService) notify(log *slog.Logger, title, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(title, message); err != nil {
		log.Warn("notification failed", "error", err)
	}
}
