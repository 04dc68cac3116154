package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/cardsmith/cardsmith-api/internal/domain"
)

// Sort columns accepted by FlashcardStore.List.
const (
	SortByCreatedAt = "created_at"
	SortByUpdatedAt = "updated_at"
	SortBySource    = "source"
)

// Page size bounds for FlashcardStore.List. Implementations fall back to
// DefaultPageSize when the caller passes zero.
const (
	MinPageSize     = 10
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListFlashcardsParams describes pagination, sorting and filtering for
// FlashcardStore.List. Callers are expected to pass validated values;
// implementations treat unknown sort columns as an ErrInvalidEntity.
type ListFlashcardsParams struct {
	// Page is 1-based.
	Page     int
	PageSize int

	// SortBy is one of the SortBy* constants.
	SortBy string
	// Descending reverses the sort order.
	Descending bool

	// Source filters by flashcard source when non-empty.
	Source domain.Source
	// Search filters on the front text when non-empty.
	Search string
}

// FlashcardStore defines the interface for flashcard data persistence.
// Every read and write is scoped by the owning user's ID; implementations
// must never return or touch another user's rows.
type FlashcardStore interface {
	// Create saves a single flashcard.
	// Returns validation errors if the card data is invalid.
	Create(ctx context.Context, card *domain.Flashcard) error

	// CreateMultiple saves multiple flashcards. Run it inside a transaction
	// (via WithTx and store.RunInTransaction) so a batch insert is atomic.
	CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error

	// List returns one page of the user's flashcards plus the total count
	// of rows matching the filter.
	List(
		ctx context.Context,
		userID uuid.UUID,
		params ListFlashcardsParams,
	) ([]*domain.Flashcard, int, error)

	// GetByID retrieves a flashcard by ID, scoped to the owning user.
	// Returns ErrFlashcardNotFound if no such row exists for that user.
	GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Flashcard, error)

	// Update persists changed front/back texts and the updated_at timestamp.
	// Returns ErrFlashcardNotFound if no such row exists for that user.
	Update(ctx context.Context, card *domain.Flashcard) error

	// Delete removes a flashcard owned by the user.
	// Returns ErrFlashcardNotFound if no such row exists for that user.
	Delete(ctx context.Context, id, userID uuid.UUID) error

	// DeleteMultiple removes the given flashcards owned by the user and
	// reports how many rows were actually deleted. IDs that do not exist
	// (or belong to someone else) are skipped, not errors.
	DeleteMultiple(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error)

	// WithTx returns a FlashcardStore bound to the given transaction.
	WithTx(tx *sql.Tx) FlashcardStore
}
