package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/cardsmith/cardsmith-api/internal/domain"
	"github.com/cardsmith/cardsmith-api/internal/platform/logger"
	"github.com/cardsmith/cardsmith-api/internal/store"
)

// FlashcardServiceError is a custom error type for flashcard service errors.
type FlashcardServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for FlashcardServiceError.
func (e *FlashcardServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("flashcard service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("flashcard service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *FlashcardServiceError) Unwrap() error {
	return e.Err
}

// NewFlashcardServiceError creates a new FlashcardServiceError.
func NewFlashcardServiceError(operation, message string, err error) *FlashcardServiceError {
	return &FlashcardServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// ProposalAcceptance is one accepted proposal in a bulk save. The original
// texts are the proposal as the model produced it; the front/back pair is
// what the user is saving, possibly after editing.
type ProposalAcceptance struct {
	Front         string
	Back          string
	OriginalFront string
	OriginalBack  string
}

// edited reports whether the user changed the proposal before accepting it.
func (p ProposalAcceptance) edited() bool {
	return p.Front != p.OriginalFront || p.Back != p.OriginalBack
}

// SaveProposalsResult reports what a bulk save wrote.
type SaveProposalsResult struct {
	Flashcards    []*domain.Flashcard
	UneditedCount int
	EditedCount   int
}

// FlashcardService provides flashcard CRUD and the bulk promotion of
// generation proposals into stored flashcards.
type FlashcardService interface {
	// List returns one page of the user's flashcards plus the total count
	// of cards matching the filter.
	List(
		ctx context.Context,
		userID uuid.UUID,
		params store.ListFlashcardsParams,
	) ([]*domain.Flashcard, int, error)

	// Get retrieves one of the user's flashcards.
	Get(ctx context.Context, userID, cardID uuid.UUID) (*domain.Flashcard, error)

	// CreateManual creates a flashcard the user typed in themselves.
	CreateManual(ctx context.Context, userID uuid.UUID, front, back string) (*domain.Flashcard, error)

	// Update changes the front and/or back texts of one of the user's
	// flashcards. Nil means keep the current text.
	Update(ctx context.Context, userID, cardID uuid.UUID, front, back *string) (*domain.Flashcard, error)

	// Delete removes one of the user's flashcards.
	Delete(ctx context.Context, userID, cardID uuid.UUID) error

	// DeleteMultiple removes the given flashcards and reports how many
	// were actually deleted.
	DeleteMultiple(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error)

	// SaveProposals promotes accepted generation proposals to flashcards in
	// a single transaction and overwrites the generation's accepted counts.
	// Cards saved verbatim get source ai-full; cards the user edited first
	// get source ai-edited.
	// Returns ErrNotOwned if the generation belongs to another user.
	SaveProposals(
		ctx context.Context,
		userID, generationID uuid.UUID,
		proposals []ProposalAcceptance,
	) (*SaveProposalsResult, error)
}

// flashcardServiceImpl implements the FlashcardService interface.
type flashcardServiceImpl struct {
	db              *sql.DB
	flashcardStore  store.FlashcardStore
	generationStore store.GenerationStore
	logger          *slog.Logger
	runInTx         func(ctx context.Context, db *sql.DB, fn store.TxFn) error // Injectable for testing
}

// NewFlashcardService creates a new FlashcardService.
// The *sql.DB is needed to open the transaction that makes a bulk save atomic.
// It returns an error if any of the required dependencies are nil.
func NewFlashcardService(
	db *sql.DB,
	flashcardStore store.FlashcardStore,
	generationStore store.GenerationStore,
	logger *slog.Logger,
) (FlashcardService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if flashcardStore == nil {
		return nil, domain.NewValidationError("flashcardStore", "cannot be nil", domain.ErrValidation)
	}
	if generationStore == nil {
		return nil, domain.NewValidationError("generationStore", "cannot be nil", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &flashcardServiceImpl{
		db:              db,
		flashcardStore:  flashcardStore,
		generationStore: generationStore,
		logger:          logger.With(slog.String("component", "flashcard_service")),
		runInTx:         store.RunInTransaction,
	}, nil
}

// List implements FlashcardService.List
func (s *flashcardServiceImpl) List(
	ctx context.Context,
	userID uuid.UUID,
	params store.ListFlashcardsParams,
) ([]*domain.Flashcard, int, error) {
	cards, total, err := s.flashcardStore.List(ctx, userID, params)
	if err != nil {
		return nil, 0, NewFlashcardServiceError("list", "failed to list flashcards", err)
	}
	return cards, total, nil
}

// Get implements FlashcardService.Get
func (s *flashcardServiceImpl) Get(
	ctx context.Context,
	userID, cardID uuid.UUID,
) (*domain.Flashcard, error) {
	card, err := s.flashcardStore.GetByID(ctx, cardID, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewFlashcardServiceError("get", "failed to retrieve flashcard", err)
	}
	return card, nil
}

// CreateManual implements FlashcardService.CreateManual
func (s *flashcardServiceImpl) CreateManual(
	ctx context.Context,
	userID uuid.UUID,
	front, back string,
) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := domain.NewFlashcard(userID, front, back, domain.SourceManual, nil)
	if err != nil {
		return nil, err
	}

	if err := s.flashcardStore.Create(ctx, card); err != nil {
		log.Error("failed to create manual flashcard",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewFlashcardServiceError("create_manual", "failed to save flashcard", err)
	}

	return card, nil
}

// Update implements FlashcardService.Update
func (s *flashcardServiceImpl) Update(
	ctx context.Context,
	userID, cardID uuid.UUID,
	front, back *string,
) (*domain.Flashcard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.flashcardStore.GetByID(ctx, cardID, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewFlashcardServiceError("update", "failed to retrieve flashcard", err)
	}

	if err := card.UpdateTexts(front, back); err != nil {
		return nil, err
	}

	if err := s.flashcardStore.Update(ctx, card); err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		log.Error("failed to update flashcard",
			slog.String("error", err.Error()),
			slog.String("flashcard_id", cardID.String()))
		return nil, NewFlashcardServiceError("update", "failed to save flashcard", err)
	}

	return card, nil
}

// Delete implements FlashcardService.Delete
func (s *flashcardServiceImpl) Delete(ctx context.Context, userID, cardID uuid.UUID) error {
	err := s.flashcardStore.Delete(ctx, cardID, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return err
		}
		return NewFlashcardServiceError("delete", "failed to delete flashcard", err)
	}
	return nil
}

// DeleteMultiple implements FlashcardService.DeleteMultiple
func (s *flashcardServiceImpl) DeleteMultiple(
	ctx context.Context,
	userID uuid.UUID,
	ids []uuid.UUID,
) (int, error) {
	deleted, err := s.flashcardStore.DeleteMultiple(ctx, userID, ids)
	if err != nil {
		return 0, NewFlashcardServiceError("delete_multiple", "failed to delete flashcards", err)
	}
	return deleted, nil
}

// SaveProposals implements FlashcardService.SaveProposals
// The card inserts and the accepted-count update happen in one transaction,
// so a failed save leaves neither cards nor counts behind.
func (s *flashcardServiceImpl) SaveProposals(
	ctx context.Context,
	userID, generationID uuid.UUID,
	proposals []ProposalAcceptance,
) (*SaveProposalsResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(proposals) == 0 {
		return nil, ErrNoProposals
	}

	gen, err := s.generationStore.GetByID(ctx, generationID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewFlashcardServiceError("save_proposals", "failed to load generation", err)
	}
	if gen.UserID != userID {
		log.Warn("bulk save rejected: generation owned by another user",
			slog.String("generation_id", generationID.String()),
			slog.String("user_id", userID.String()))
		return nil, ErrNotOwned
	}

	result := &SaveProposalsResult{
		Flashcards: make([]*domain.Flashcard, 0, len(proposals)),
	}
	for _, p := range proposals {
		source := domain.SourceAIFull
		if p.edited() {
			source = domain.SourceAIEdited
			result.EditedCount++
		} else {
			result.UneditedCount++
		}

		card, err := domain.NewFlashcard(userID, p.Front, p.Back, source, &generationID)
		if err != nil {
			return nil, err
		}
		result.Flashcards = append(result.Flashcards, card)
	}

	err = s.runInTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.flashcardStore.WithTx(tx).CreateMultiple(ctx, result.Flashcards); err != nil {
			log.Error("failed to save accepted flashcards",
				slog.String("error", err.Error()),
				slog.String("generation_id", generationID.String()))
			return NewFlashcardServiceError("save_proposals", "failed to save flashcards", err)
		}

		// The counts describe this save only; a repeated save for the same
		// generation replaces them rather than accumulating.
		err := s.generationStore.WithTx(tx).UpdateAcceptedCounts(
			ctx, generationID, userID, result.UneditedCount, result.EditedCount,
		)
		if err != nil {
			log.Error("failed to update accepted counts",
				slog.String("error", err.Error()),
				slog.String("generation_id", generationID.String()))
			return NewFlashcardServiceError("save_proposals", "failed to update accepted counts", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("proposals saved as flashcards",
		slog.String("generation_id", generationID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("unedited", result.UneditedCount),
		slog.Int("edited", result.EditedCount))

	return result, nil
}
