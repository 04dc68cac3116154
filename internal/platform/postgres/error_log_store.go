package postgres

import (
	"context"
	"log/slog"

	"github.com/cardsmith/cardsmith-api/internal/domain"
	"github.com/cardsmith/cardsmith-api/internal/platform/logger"
	"github.com/cardsmith/cardsmith-api/internal/redact"
	"github.com/cardsmith/cardsmith-api/internal/store"
)

// PostgresErrorLogStore implements the store.ErrorLogStore interface
// using a PostgreSQL database as the storage backend.
type PostgresErrorLogStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresErrorLogStore creates a new PostgreSQL implementation of the
// ErrorLogStore interface. If logger is nil, a default logger will be used.
func NewPostgresErrorLogStore(db store.DBTX, logger *slog.Logger) *PostgresErrorLogStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresErrorLogStore{
		db:     db,
		logger: logger.With(slog.String("component", "error_log_store")),
	}
}

// Ensure PostgresErrorLogStore implements store.ErrorLogStore interface
var _ store.ErrorLogStore = (*PostgresErrorLogStore)(nil)

// Create implements store.ErrorLogStore.Create
func (s *PostgresErrorLogStore) Create(ctx context.Context, entry *domain.ErrorLog) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("error log validation failed during create",
			slog.String("error", err.Error()),
			slog.String("error_log_id", entry.ID.String()))
		return err
	}

	query := `
		INSERT INTO error_logs (id, user_id, error_message, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.Message,
		entry.CreatedAt,
	)

	if err != nil {
		log.Error("failed to persist error log",
			slog.String("error", redact.Error(err)),
			slog.String("error_log_id", entry.ID.String()),
			slog.String("user_id", entry.UserID.String()))
		return err
	}

	log.Debug("error log persisted",
		slog.String("error_log_id", entry.ID.String()),
		slog.String("user_id", entry.UserID.String()))
	return nil
}
