package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardsmith/cardsmith-api/internal/domain"
	"github.com/cardsmith/cardsmith-api/internal/store"
)

func newTestFlashcardService(
	cardStore *mockFlashcardStore,
	genStore *mockGenerationStore,
) *flashcardServiceImpl {
	return &flashcardServiceImpl{
		flashcardStore:  cardStore,
		generationStore: genStore,
		logger:          slog.Default(),
		runInTx:         stubRunInTx,
	}
}

// seedGeneration stores a generation owned by userID and returns it.
func seedGeneration(t *testing.T, genStore *mockGenerationStore, userID uuid.UUID) *domain.Generation {
	t.Helper()

	gen, err := domain.NewGeneration(userID, "abcd1234", 1500, 12, "openai/gpt-4.1", 200)
	require.NoError(t, err)
	require.NoError(t, genStore.Create(context.Background(), gen))
	return gen
}

func TestCreateManual(t *testing.T) {
	t.Parallel()

	cardStore := &mockFlashcardStore{}
	svc := newTestFlashcardService(cardStore, newMockGenerationStore())
	userID := uuid.New()

	card, err := svc.CreateManual(context.Background(), userID, "Front text", "Back text")
	require.NoError(t, err)

	assert.Equal(t, domain.SourceManual, card.Source)
	assert.Nil(t, card.GenerationID)
	assert.Len(t, cardStore.cards, 1)

	_, err = svc.CreateManual(context.Background(), userID, "", "Back text")
	assert.Error(t, err, "empty front is rejected")
}

func TestUpdatePartialTexts(t *testing.T) {
	t.Parallel()

	cardStore := &mockFlashcardStore{}
	svc := newTestFlashcardService(cardStore, newMockGenerationStore())
	userID := uuid.New()

	card, err := svc.CreateManual(context.Background(), userID, "Front", "Back")
	require.NoError(t, err)

	newFront := "New front"
	updated, err := svc.Update(context.Background(), userID, card.ID, &newFront, nil)
	require.NoError(t, err)

	assert.Equal(t, "New front", updated.Front)
	assert.Equal(t, "Back", updated.Back, "nil keeps the current text")

	stored, err := cardStore.GetByID(context.Background(), card.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "New front", stored.Front)
}

func TestUpdateNotFound(t *testing.T) {
	t.Parallel()

	svc := newTestFlashcardService(&mockFlashcardStore{}, newMockGenerationStore())

	front := "x"
	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), &front, nil)
	assert.ErrorIs(t, err, store.ErrFlashcardNotFound)
}

func TestUpdateScopedToOwner(t *testing.T) {
	t.Parallel()

	cardStore := &mockFlashcardStore{}
	svc := newTestFlashcardService(cardStore, newMockGenerationStore())
	owner := uuid.New()

	card, err := svc.CreateManual(context.Background(), owner, "Front", "Back")
	require.NoError(t, err)

	front := "hijacked"
	_, err = svc.Update(context.Background(), uuid.New(), card.ID, &front, nil)
	assert.ErrorIs(t, err, store.ErrFlashcardNotFound,
		"another user's card looks like it does not exist")
}

func TestDeleteMultipleSkipsForeignCards(t *testing.T) {
	t.Parallel()

	cardStore := &mockFlashcardStore{}
	svc := newTestFlashcardService(cardStore, newMockGenerationStore())
	owner := uuid.New()
	other := uuid.New()

	mine, err := svc.CreateManual(context.Background(), owner, "Mine", "Card")
	require.NoError(t, err)
	theirs, err := svc.CreateManual(context.Background(), other, "Theirs", "Card")
	require.NoError(t, err)

	deleted, err := svc.DeleteMultiple(
		context.Background(), owner, []uuid.UUID{mine.ID, theirs.ID, uuid.New()})
	require.NoError(t, err)

	assert.Equal(t, 1, deleted)
	assert.Len(t, cardStore.cards, 1, "the other user's card survives")
}

func TestSaveProposalsClassifiesSources(t *testing.T) {
	t.Parallel()

	cardStore := &mockFlashcardStore{}
	genStore := newMockGenerationStore()
	svc := newTestFlashcardService(cardStore, genStore)
	userID := uuid.New()
	gen := seedGeneration(t, genStore, userID)

	result, err := svc.SaveProposals(context.Background(), userID, gen.ID, []ProposalAcceptance{
		{
			Front:         "Unchanged front",
			Back:          "Unchanged back",
			OriginalFront: "Unchanged front",
			OriginalBack:  "Unchanged back",
		},
		{
			Front:         "Edited front",
			Back:          "Original back",
			OriginalFront: "Original front",
			OriginalBack:  "Original back",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.UneditedCount)
	assert.Equal(t, 1, result.EditedCount)
	require.Len(t, result.Flashcards, 2)
	assert.Equal(t, domain.SourceAIFull, result.Flashcards[0].Source)
	assert.Equal(t, domain.SourceAIEdited, result.Flashcards[1].Source)

	for _, card := range result.Flashcards {
		require.NotNil(t, card.GenerationID)
		assert.Equal(t, gen.ID, *card.GenerationID)
		assert.Equal(t, userID, card.UserID)
	}

	stored, err := genStore.GetByID(context.Background(), gen.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AcceptedUneditedCount)
	require.NotNil(t, stored.AcceptedEditedCount)
	assert.Equal(t, 1, *stored.AcceptedUneditedCount)
	assert.Equal(t, 1, *stored.AcceptedEditedCount)
}

// A second save for the same generation replaces the accepted counts
// instead of accumulating them.
func TestSaveProposalsOverwritesAcceptedCounts(t *testing.T) {
	t.Parallel()

	genStore := newMockGenerationStore()
	svc := newTestFlashcardService(&mockFlashcardStore{}, genStore)
	userID := uuid.New()
	gen := seedGeneration(t, genStore, userID)

	batch := []ProposalAcceptance{
		{Front: "A", Back: "B", OriginalFront: "A", OriginalBack: "B"},
		{Front: "C", Back: "D", OriginalFront: "C", OriginalBack: "D"},
	}
	_, err := svc.SaveProposals(context.Background(), userID, gen.ID, batch)
	require.NoError(t, err)

	_, err = svc.SaveProposals(context.Background(), userID, gen.ID, batch[:1])
	require.NoError(t, err)

	stored, err := genStore.GetByID(context.Background(), gen.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *stored.AcceptedUneditedCount, "second save overwrites, last write wins")
	assert.Equal(t, 0, *stored.AcceptedEditedCount)
}

func TestSaveProposalsRejectsForeignGeneration(t *testing.T) {
	t.Parallel()

	cardStore := &mockFlashcardStore{}
	genStore := newMockGenerationStore()
	svc := newTestFlashcardService(cardStore, genStore)
	gen := seedGeneration(t, genStore, uuid.New())

	_, err := svc.SaveProposals(context.Background(), uuid.New(), gen.ID, []ProposalAcceptance{
		{Front: "A", Back: "B", OriginalFront: "A", OriginalBack: "B"},
	})
	assert.ErrorIs(t, err, ErrNotOwned)
	assert.Empty(t, cardStore.cards)
	assert.Equal(t, 0, genStore.updateCalls)
}

func TestSaveProposalsUnknownGeneration(t *testing.T) {
	t.Parallel()

	svc := newTestFlashcardService(&mockFlashcardStore{}, newMockGenerationStore())

	_, err := svc.SaveProposals(context.Background(), uuid.New(), uuid.New(), []ProposalAcceptance{
		{Front: "A", Back: "B", OriginalFront: "A", OriginalBack: "B"},
	})
	assert.ErrorIs(t, err, store.ErrGenerationNotFound)
}

func TestSaveProposalsEmptyBatch(t *testing.T) {
	t.Parallel()

	svc := newTestFlashcardService(&mockFlashcardStore{}, newMockGenerationStore())

	_, err := svc.SaveProposals(context.Background(), uuid.New(), uuid.New(), nil)
	assert.ErrorIs(t, err, ErrNoProposals)
}

func TestSaveProposalsInsertFailureSkipsCountUpdate(t *testing.T) {
	t.Parallel()

	cardStore := &mockFlashcardStore{createErr: errors.New("insert failed")}
	genStore := newMockGenerationStore()
	svc := newTestFlashcardService(cardStore, genStore)
	userID := uuid.New()
	gen := seedGeneration(t, genStore, userID)

	_, err := svc.SaveProposals(context.Background(), userID, gen.ID, []ProposalAcceptance{
		{Front: "A", Back: "B", OriginalFront: "A", OriginalBack: "B"},
	})
	require.Error(t, err)

	var svcErr *FlashcardServiceError
	assert.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 0, genStore.updateCalls,
		"the count update never runs when the insert fails")
}
