package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cardsmith/cardsmith-api/internal/domain"
	"github.com/cardsmith/cardsmith-api/internal/platform/logger"
	"github.com/cardsmith/cardsmith-api/internal/redact"
	"github.com/cardsmith/cardsmith-api/internal/store"
)

// PostgresGenerationStore implements the store.GenerationStore interface
// using a PostgreSQL database as the storage backend.
type PostgresGenerationStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGenerationStore creates a new PostgreSQL implementation of the
// GenerationStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresGenerationStore(db store.DBTX, logger *slog.Logger) *PostgresGenerationStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresGenerationStore{
		db:     db,
		logger: logger.With(slog.String("component", "generation_store")),
	}
}

// Ensure PostgresGenerationStore implements store.GenerationStore interface
var _ store.GenerationStore = (*PostgresGenerationStore)(nil)

// WithTx implements store.GenerationStore.WithTx
func (s *PostgresGenerationStore) WithTx(tx *sql.Tx) store.GenerationStore {
	return &PostgresGenerationStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.GenerationStore.Create
// All fields, including the unset accepted counts, are written in one insert.
// Returns store.ErrInvalidEntity if the user does not exist.
func (s *PostgresGenerationStore) Create(ctx context.Context, gen *domain.Generation) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := gen.Validate(); err != nil {
		log.Warn("generation validation failed during create",
			slog.String("error", err.Error()),
			slog.String("generation_id", gen.ID.String()))
		return err
	}

	query := `
		INSERT INTO generations (
			id, user_id, source_text_hash, source_text_length, generated_count,
			model_used, generation_time_ms, accepted_unedited_count,
			accepted_edited_count, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		gen.ID,
		gen.UserID,
		gen.SourceTextHash,
		gen.SourceTextLength,
		gen.GeneratedCount,
		gen.ModelUsed,
		gen.GenerationTimeMs,
		gen.AcceptedUneditedCount,
		gen.AcceptedEditedCount,
		gen.CreatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during generation creation",
				slog.String("error", err.Error()),
				slog.String("generation_id", gen.ID.String()),
				slog.String("user_id", gen.UserID.String()))
			return fmt.Errorf("%w: user with ID %s not found",
				store.ErrInvalidEntity, gen.UserID)
		}

		log.Error("failed to create generation record",
			slog.String("error", redact.Error(err)),
			slog.String("generation_id", gen.ID.String()),
			slog.String("user_id", gen.UserID.String()))
		return err
	}

	log.Info("generation record created",
		slog.String("generation_id", gen.ID.String()),
		slog.String("user_id", gen.UserID.String()),
		slog.Int("generated_count", gen.GeneratedCount),
		slog.String("model_used", gen.ModelUsed))
	return nil
}

// GetByID implements store.GenerationStore.GetByID
// The caller is responsible for checking the record's owner against the
// authenticated user. Returns store.ErrGenerationNotFound if the record
// does not exist.
func (s *PostgresGenerationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Generation, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, source_text_hash, source_text_length, generated_count,
		       model_used, generation_time_ms, accepted_unedited_count,
		       accepted_edited_count, created_at
		FROM generations
		WHERE id = $1
	`

	var gen domain.Generation
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&gen.ID,
		&gen.UserID,
		&gen.SourceTextHash,
		&gen.SourceTextLength,
		&gen.GeneratedCount,
		&gen.ModelUsed,
		&gen.GenerationTimeMs,
		&gen.AcceptedUneditedCount,
		&gen.AcceptedEditedCount,
		&gen.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("generation not found", slog.String("generation_id", id.String()))
			return nil, store.ErrGenerationNotFound
		}
		log.Error("failed to get generation by ID",
			slog.String("error", redact.Error(err)),
			slog.String("generation_id", id.String()))
		return nil, err
	}

	return &gen, nil
}

// UpdateAcceptedCounts implements store.GenerationStore.UpdateAcceptedCounts
// Both columns are overwritten with the given values; the row keeps only the
// most recent bulk-save outcome. Returns store.ErrGenerationNotFound if no
// such record exists for that user.
func (s *PostgresGenerationStore) UpdateAcceptedCounts(
	ctx context.Context,
	id, userID uuid.UUID,
	unedited, edited int,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE generations
		SET accepted_unedited_count = $1, accepted_edited_count = $2
		WHERE id = $3 AND user_id = $4
	`
	result, err := s.db.ExecContext(ctx, query, unedited, edited, id, userID)
	if err != nil {
		log.Error("failed to update accepted counts",
			slog.String("error", redact.Error(err)),
			slog.String("generation_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("generation_id", id.String()))
		return err
	}
	if rowsAffected == 0 {
		log.Debug("generation not found for accepted-count update",
			slog.String("generation_id", id.String()),
			slog.String("user_id", userID.String()))
		return store.ErrGenerationNotFound
	}

	log.Info("generation accepted counts updated",
		slog.String("generation_id", id.String()),
		slog.Int("accepted_unedited", unedited),
		slog.Int("accepted_edited", edited))
	return nil
}
