package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/cardsmith/cardsmith-api/internal/domain"
)

// GenerationStore defines the interface for generation audit records.
type GenerationStore interface {
	// Create writes the audit row for one generation call. All fields are
	// written in a single insert; no partially populated rows are visible.
	Create(ctx context.Context, gen *domain.Generation) error

	// GetByID retrieves a generation record by ID.
	// Returns ErrGenerationNotFound if it does not exist. The caller is
	// responsible for checking ownership against the authenticated user.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Generation, error)

	// UpdateAcceptedCounts overwrites the accepted_unedited_count and
	// accepted_edited_count columns for the user's generation record.
	// Counts reflect the latest bulk-save call, not a running total.
	// Returns ErrGenerationNotFound if no such row exists for that user.
	UpdateAcceptedCounts(
		ctx context.Context,
		id, userID uuid.UUID,
		unedited, edited int,
	) error

	// WithTx returns a GenerationStore bound to the given transaction.
	WithTx(tx *sql.Tx) GenerationStore
}
