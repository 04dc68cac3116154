package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cardsmith/cardsmith-api/internal/domain"
	"github.com/cardsmith/cardsmith-api/internal/platform/logger"
	"github.com/cardsmith/cardsmith-api/internal/redact"
	"github.com/cardsmith/cardsmith-api/internal/store"
)

// ErrorLogService records failures a user may want to review later,
// such as generation calls that never produced flashcards.
type ErrorLogService interface {
	// LogError persists the error for the given user. Persistence is
	// best-effort: a failure to write the log entry is itself logged and
	// swallowed, never surfaced to the caller.
	LogError(ctx context.Context, userID uuid.UUID, cause error)
}

// errorLogServiceImpl implements the ErrorLogService interface.
type errorLogServiceImpl struct {
	errorLogStore store.ErrorLogStore
	logger        *slog.Logger
}

// NewErrorLogService creates a new ErrorLogService.
// It returns an error if the store dependency is nil.
func NewErrorLogService(
	errorLogStore store.ErrorLogStore,
	logger *slog.Logger,
) (ErrorLogService, error) {
	if errorLogStore == nil {
		return nil, domain.NewValidationError("errorLogStore", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &errorLogServiceImpl{
		errorLogStore: errorLogStore,
		logger:        logger.With(slog.String("component", "error_log_service")),
	}, nil
}

// LogError implements ErrorLogService.LogError
func (s *errorLogServiceImpl) LogError(ctx context.Context, userID uuid.UUID, cause error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if cause == nil {
		return
	}

	entry, err := domain.NewErrorLog(userID, redact.Error(cause))
	if err != nil {
		log.Warn("failed to build error log entry",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return
	}

	if err := s.errorLogStore.Create(ctx, entry); err != nil {
		log.Warn("failed to persist error log entry",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("cause", redact.Error(cause)))
	}
}
