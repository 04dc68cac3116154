package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrorLog validation errors
var (
	ErrErrorLogIDEmpty      = errors.New("error log ID cannot be empty")
	ErrErrorLogUserIDEmpty  = errors.New("error log user ID cannot be empty")
	ErrErrorLogMessageEmpty = errors.New("error log message cannot be empty")
)

// ErrorLog is a persisted record of a failure encountered while serving a
// user, keyed by that user. Messages are redacted before they get here.
type ErrorLog struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Message   string    `json:"error_message"`
	CreatedAt time.Time `json:"error_time"`
}

// NewErrorLog creates an ErrorLog entry for the given user and message.
func NewErrorLog(userID uuid.UUID, message string) (*ErrorLog, error) {
	entry := &ErrorLog{
		ID:        uuid.New(),
		UserID:    userID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the ErrorLog has valid data.
func (e *ErrorLog) Validate() error {
	if e.ID == uuid.Nil {
		return ErrErrorLogIDEmpty
	}

	if e.UserID == uuid.Nil {
		return ErrErrorLogUserIDEmpty
	}

	if e.Message == "" {
		return ErrErrorLogMessageEmpty
	}

	return nil
}
