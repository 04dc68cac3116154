package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cardsmith/cardsmith-api/internal/domain"
	"github.com/cardsmith/cardsmith-api/internal/platform/logger"
	"github.com/cardsmith/cardsmith-api/internal/redact"
	"github.com/cardsmith/cardsmith-api/internal/store"
)

// flashcardColumns is the column list shared by every flashcard SELECT.
const flashcardColumns = "id, user_id, front, back, source, generation_id, created_at, updated_at"

// PostgresFlashcardStore implements the store.FlashcardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresFlashcardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresFlashcardStore creates a new PostgreSQL implementation of the
// FlashcardStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresFlashcardStore(db store.DBTX, logger *slog.Logger) *PostgresFlashcardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresFlashcardStore{
		db:     db,
		logger: logger.With(slog.String("component", "flashcard_store")),
	}
}

// Ensure PostgresFlashcardStore implements store.FlashcardStore interface
var _ store.FlashcardStore = (*PostgresFlashcardStore)(nil)

// WithTx implements store.FlashcardStore.WithTx
// It returns a store that runs its statements on the given transaction.
func (s *PostgresFlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return &PostgresFlashcardStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.FlashcardStore.Create
// Returns store.ErrInvalidEntity if the user or generation the card
// references does not exist (foreign key violation).
func (s *PostgresFlashcardStore) Create(ctx context.Context, card *domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("flashcard validation failed during create",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return err
	}

	query := `
		INSERT INTO flashcards (id, user_id, front, back, source, generation_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		card.ID,
		card.UserID,
		card.Front,
		card.Back,
		card.Source,
		card.GenerationID,
		card.CreatedAt,
		card.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during flashcard creation",
				slog.String("error", err.Error()),
				slog.String("flashcard_id", card.ID.String()),
				slog.String("user_id", card.UserID.String()))
			return fmt.Errorf("%w: referenced user or generation not found",
				store.ErrInvalidEntity)
		}

		log.Error("failed to create flashcard",
			slog.String("error", redact.Error(err)),
			slog.String("flashcard_id", card.ID.String()),
			slog.String("user_id", card.UserID.String()))
		return err
	}

	log.Info("flashcard created successfully",
		slog.String("flashcard_id", card.ID.String()),
		slog.String("user_id", card.UserID.String()),
		slog.String("source", string(card.Source)))
	return nil
}

// CreateMultiple implements store.FlashcardStore.CreateMultiple
// Every card is validated before the first insert so a bad card fails the
// batch without touching the database. Run it inside a transaction (WithTx)
// for atomicity across the batch.
func (s *PostgresFlashcardStore) CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			log.Warn("flashcard validation failed during batch create",
				slog.String("error", err.Error()),
				slog.String("flashcard_id", card.ID.String()))
			return err
		}
	}

	query := `
		INSERT INTO flashcards (id, user_id, front, back, source, generation_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, card := range cards {
		_, err := s.db.ExecContext(
			ctx,
			query,
			card.ID,
			card.UserID,
			card.Front,
			card.Back,
			card.Source,
			card.GenerationID,
			card.CreatedAt,
			card.UpdatedAt,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: referenced user or generation not found",
					store.ErrInvalidEntity)
			}
			log.Error("failed to create flashcard in batch",
				slog.String("error", redact.Error(err)),
				slog.String("flashcard_id", card.ID.String()))
			return err
		}
	}

	log.Info("flashcards created successfully",
		slog.Int("count", len(cards)))
	return nil
}

// List implements store.FlashcardStore.List
// It returns one page of the user's flashcards plus the total count of rows
// matching the filter. Sort columns come from a fixed allow list; anything
// else is rejected as store.ErrInvalidEntity.
func (s *PostgresFlashcardStore) List(
	ctx context.Context,
	userID uuid.UUID,
	params store.ListFlashcardsParams,
) ([]*domain.Flashcard, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	orderBy, err := sortColumn(params.SortBy)
	if err != nil {
		return nil, 0, err
	}
	direction := "ASC"
	if params.Descending {
		direction = "DESC"
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = store.DefaultPageSize
	}
	if pageSize > store.MaxPageSize {
		pageSize = store.MaxPageSize
	}
	offset := (page - 1) * pageSize

	where := []string{"user_id = $1"}
	args := []any{userID}

	if params.Source != "" {
		args = append(args, params.Source)
		where = append(where, fmt.Sprintf("source = $%d", len(args)))
	}
	if params.Search != "" {
		args = append(args, "%"+escapeLike(params.Search)+"%")
		where = append(where, fmt.Sprintf("front ILIKE $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	countQuery := "SELECT COUNT(*) FROM flashcards WHERE " + whereClause

	var total int
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Error("failed to count flashcards",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()))
		return nil, 0, err
	}

	// Ties on the sort column get a stable order via the ID column.
	listQuery := fmt.Sprintf(
		"SELECT %s FROM flashcards WHERE %s ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d",
		flashcardColumns, whereClause, orderBy, direction, len(args)+1, len(args)+2,
	)
	args = append(args, pageSize, offset)

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		log.Error("failed to list flashcards",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()))
		return nil, 0, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	cards := []*domain.Flashcard{}
	for rows.Next() {
		card, err := scanFlashcard(rows)
		if err != nil {
			log.Error("failed to scan flashcard row",
				slog.String("error", redact.Error(err)))
			return nil, 0, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", redact.Error(err)))
		return nil, 0, err
	}

	log.Debug("listed flashcards",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(cards)),
		slog.Int("total", total))
	return cards, total, nil
}

// GetByID implements store.FlashcardStore.GetByID
// Returns store.ErrFlashcardNotFound if no such card exists for that user.
func (s *PostgresFlashcardStore) GetByID(
	ctx context.Context,
	id, userID uuid.UUID,
) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(
		"SELECT %s FROM flashcards WHERE id = $1 AND user_id = $2",
		flashcardColumns,
	)

	card, err := scanFlashcard(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("flashcard not found",
				slog.String("flashcard_id", id.String()),
				slog.String("user_id", userID.String()))
			return nil, store.ErrFlashcardNotFound
		}
		log.Error("failed to get flashcard by ID",
			slog.String("error", redact.Error(err)),
			slog.String("flashcard_id", id.String()))
		return nil, err
	}

	return card, nil
}

// Update implements store.FlashcardStore.Update
// It persists the card's front/back texts, source and updated_at timestamp.
// Returns store.ErrFlashcardNotFound if no such card exists for that user.
func (s *PostgresFlashcardStore) Update(ctx context.Context, card *domain.Flashcard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("flashcard validation failed during update",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return err
	}

	card.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE flashcards
		SET front = $1, back = $2, source = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		card.Front,
		card.Back,
		card.Source,
		card.UpdatedAt,
		card.ID,
		card.UserID,
	)
	if err != nil {
		log.Error("failed to update flashcard",
			slog.String("error", redact.Error(err)),
			slog.String("flashcard_id", card.ID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", card.ID.String()))
		return err
	}
	if rowsAffected == 0 {
		log.Debug("flashcard not found for update",
			slog.String("flashcard_id", card.ID.String()),
			slog.String("user_id", card.UserID.String()))
		return store.ErrFlashcardNotFound
	}

	log.Info("flashcard updated successfully",
		slog.String("flashcard_id", card.ID.String()),
		slog.String("source", string(card.Source)))
	return nil
}

// Delete implements store.FlashcardStore.Delete
// Returns store.ErrFlashcardNotFound if no such card exists for that user.
func (s *PostgresFlashcardStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM flashcards WHERE id = $1 AND user_id = $2`

	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		log.Error("failed to delete flashcard",
			slog.String("error", redact.Error(err)),
			slog.String("flashcard_id", id.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", id.String()))
		return err
	}
	if rowsAffected == 0 {
		log.Debug("flashcard not found for ownership-scoped delete",
			slog.String("flashcard_id", id.String()),
			slog.String("user_id", userID.String()))
		return store.ErrFlashcardNotFound
	}

	log.Info("flashcard deleted successfully",
		slog.String("flashcard_id", id.String()))
	return nil
}

// DeleteMultiple implements store.FlashcardStore.DeleteMultiple
// It removes the given cards owned by the user and reports how many rows
// were actually deleted. Unknown or foreign IDs are skipped silently.
func (s *PostgresFlashcardStore) DeleteMultiple(
	ctx context.Context,
	userID uuid.UUID,
	ids []uuid.UUID,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(ids) == 0 {
		return 0, nil
	}

	query := `DELETE FROM flashcards WHERE user_id = $1 AND id = ANY($2)`

	result, err := s.db.ExecContext(ctx, query, userID, ids)
	if err != nil {
		log.Error("failed to delete flashcards",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()),
			slog.Int("requested", len(ids)))
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, err
	}

	log.Info("flashcards deleted",
		slog.String("user_id", userID.String()),
		slog.Int("requested", len(ids)),
		slog.Int("deleted", int(rowsAffected)))
	return int(rowsAffected), nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlashcard(row rowScanner) (*domain.Flashcard, error) {
	var card domain.Flashcard
	var source string

	err := row.Scan(
		&card.ID,
		&card.UserID,
		&card.Front,
		&card.Back,
		&source,
		&card.GenerationID,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.Source = domain.Source(source)
	return &card, nil
}

// sortColumn maps a caller-supplied sort key to a known column name.
// The identifier is interpolated into SQL, so only allow-listed values
// may pass.
func sortColumn(sortBy string) (string, error) {
	switch sortBy {
	case "", store.SortByCreatedAt:
		return "created_at", nil
	case store.SortByUpdatedAt:
		return "updated_at", nil
	case store.SortBySource:
		return "source", nil
	default:
		return "", fmt.Errorf("%w: unknown sort column %q", store.ErrInvalidEntity, sortBy)
	}
}

// escapeLike escapes LIKE metacharacters in a user-supplied search term.
func escapeLike(term string) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, `%`, `\%`)
	term = strings.ReplaceAll(term, `_`, `\_`)
	return term
}
