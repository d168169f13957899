package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures for callers that need to decide how to react.
type ErrorKind int

const (
	KindConflict ErrorKind = iota + 1
	KindNotFound
	KindValidation
	KindStorage
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindStorage:
		return "storage"
	default:
		return "unknown"
	}
}

// Error is a typed domain failure. Code is a stable machine-readable
// identifier, Message is safe to show to a user.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches by code, or by kind when the target carries no code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == "" {
		return t.Kind == e.Kind
	}
	return t.Code == e.Code
}

// Kind sentinels, usable with errors.Is to test the category of any error.
var (
	ErrConflict   = &Error{Kind: KindConflict, Message: "conflict"}
	ErrNotFound   = &Error{Kind: KindNotFound, Message: "not found"}
	ErrValidation = &Error{Kind: KindValidation, Message: "invalid input"}
	ErrStorage    = &Error{Kind: KindStorage, Message: "operation failed, please retry"}
)

// Common domain errors.
var (
	ErrAnotherTaskRunning = &Error{Kind: KindConflict, Code: "ANOTHER_TASK_RUNNING", Message: "another task is running; pause or stop it first"}
	ErrTaskClosed         = &Error{Kind: KindConflict, Code: "TASK_CLOSED", Message: "task is done or archived; reopen it first"}
	ErrTaskNotFound       = &Error{Kind: KindNotFound, Code: "TASK_NOT_FOUND", Message: "task not found"}
	ErrProjectNotFound    = &Error{Kind: KindNotFound, Code: "PROJECT_NOT_FOUND", Message: "project not found"}
	ErrEmptyTaskTitle     = &Error{Kind: KindValidation, Code: "EMPTY_TITLE", Message: "task title cannot be empty"}
	ErrInvalidTaskID      = &Error{Kind: KindValidation, Code: "INVALID_ID", Message: "id must be a positive integer"}
)

// Invalid builds a validation error for a single field.
func Invalid(field, format string, args ...interface{}) error {
	return &Error{
		Kind:    KindValidation,
		Code:    "INVALID_" + strings.ToUpper(field),
		Message: field + ": " + fmt.Sprintf(format, args...),
	}
}

// StorageFailure wraps a persistence error. The cause stays reachable via
// errors.Unwrap for logging but is not part of the message.
func StorageFailure(err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindStorage, Code: "STORAGE", Message: ErrStorage.Message, cause: err}
}

// KindOf reports the kind of err, treating untyped errors as storage failures.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindStorage
}

// UserMessage returns the text a caller may show for err.
func UserMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ErrStorage.Message
}

// ValidateID rejects non-positive identifiers.
func ValidateID(id int64) error {
	if id <= 0 {
		return ErrInvalidTaskID
	}
	return nil
}
