package domain

import "github.com/google/uuid"

// NewTraceID creates an identifier that ties together the log lines of one
// operation.
func NewTraceID() string {
	return uuid.New().String()
}
