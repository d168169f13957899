// Package services implements the application layer (use cases)
// following hexagonal architecture principles.
package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xvierd/tally/internal/domain"
	"github.com/xvierd/tally/internal/ports"
)

// base carries what every service needs: storage, a clock and a logger.
type base struct {
	storage ports.Storage
	logger  *slog.Logger
	now     func() time.Time
}

func newBase(storage ports.Storage) base {
	return base{
		storage: storage,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
}

// SetNowFunc replaces the clock. Used by tests to simulate elapsed time.
func (b *base) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		b.now = fn
	}
}

// SetLogger sets the structured logger.
func (b *base) SetLogger(logger *slog.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// clock returns now in UTC at the millisecond precision the store keeps.
func (b *base) clock() time.Time {
	return b.now().UTC().Truncate(time.Millisecond)
}

// opLogger tags the log lines of one operation with a fresh trace id.
func (b *base) opLogger(op string, args ...any) *slog.Logger {
	return b.logger.With(append([]any{"op", op, "trace_id", domain.NewTraceID()}, args...)...)
}

// fail wraps err with the failed action. Untyped errors become a generic
// storage failure and their cause is logged.
func (b *base) fail(log *slog.Logger, action string, err error) error {
	wrapped := fmt.Errorf("failed to %s: %w", action, err)
	if domain.KindOf(err) == domain.KindStorage {
		log.Error("operation failed", "error", wrapped)
		return domain.StorageFailure(wrapped)
	}
	log.Debug("operation rejected", "error", err)
	return wrapped
}
