package service

import (
	"context"
	"database/sql"
	"sync"

	"github.com/google/uuid"

	"github.com/cardsmith/cardsmith-api/internal/domain"
	"github.com/cardsmith/cardsmith-api/internal/platform/openrouter"
	"github.com/cardsmith/cardsmith-api/internal/store"
)

// mockCompletionClient counts calls and serves a canned payload or error.
type mockCompletionClient struct {
	mu       sync.Mutex
	calls    int
	lastReq  openrouter.Request
	payload  *proposalsPayload
	err      error
}

func (m *mockCompletionClient) CompleteJSON(
	ctx context.Context,
	req openrouter.Request,
	out any,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastReq = req

	if m.err != nil {
		return m.err
	}
	if m.payload != nil {
		*(out.(*proposalsPayload)) = *m.payload
	}
	return nil
}

// mockGenerationStore keeps generations in a map keyed by ID.
type mockGenerationStore struct {
	mu          sync.Mutex
	generations map[uuid.UUID]*domain.Generation
	createErr   error
	updateErr   error
	updateCalls int
}

func newMockGenerationStore() *mockGenerationStore {
	return &mockGenerationStore{generations: make(map[uuid.UUID]*domain.Generation)}
}

func (m *mockGenerationStore) Create(ctx context.Context, gen *domain.Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	copied := *gen
	m.generations[gen.ID] = &copied
	return nil
}

func (m *mockGenerationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	gen, ok := m.generations[id]
	if !ok {
		return nil, store.ErrGenerationNotFound
	}
	copied := *gen
	return &copied, nil
}

func (m *mockGenerationStore) UpdateAcceptedCounts(
	ctx context.Context,
	id, userID uuid.UUID,
	unedited, edited int,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	gen, ok := m.generations[id]
	if !ok || gen.UserID != userID {
		return store.ErrGenerationNotFound
	}
	gen.AcceptedUneditedCount = &unedited
	gen.AcceptedEditedCount = &edited
	return nil
}

func (m *mockGenerationStore) WithTx(tx *sql.Tx) store.GenerationStore {
	return m
}

// mockFlashcardStore keeps flashcards in a slice.
type mockFlashcardStore struct {
	mu        sync.Mutex
	cards     []*domain.Flashcard
	createErr error
}

func (m *mockFlashcardStore) Create(ctx context.Context, card *domain.Flashcard) error {
	return m.CreateMultiple(ctx, []*domain.Flashcard{card})
}

func (m *mockFlashcardStore) CreateMultiple(ctx context.Context, cards []*domain.Flashcard) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	m.cards = append(m.cards, cards...)
	return nil
}

func (m *mockFlashcardStore) List(
	ctx context.Context,
	userID uuid.UUID,
	params store.ListFlashcardsParams,
) ([]*domain.Flashcard, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var owned []*domain.Flashcard
	for _, card := range m.cards {
		if card.UserID == userID {
			owned = append(owned, card)
		}
	}
	return owned, len(owned), nil
}

func (m *mockFlashcardStore) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Flashcard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, card := range m.cards {
		if card.ID == id && card.UserID == userID {
			copied := *card
			return &copied, nil
		}
	}
	return nil, store.ErrFlashcardNotFound
}

func (m *mockFlashcardStore) Update(ctx context.Context, card *domain.Flashcard) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.cards {
		if existing.ID == card.ID && existing.UserID == card.UserID {
			copied := *card
			m.cards[i] = &copied
			return nil
		}
	}
	return store.ErrFlashcardNotFound
}

func (m *mockFlashcardStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, card := range m.cards {
		if card.ID == id && card.UserID == userID {
			m.cards = append(m.cards[:i], m.cards[i+1:]...)
			return nil
		}
	}
	return store.ErrFlashcardNotFound
}

func (m *mockFlashcardStore) DeleteMultiple(
	ctx context.Context,
	userID uuid.UUID,
	ids []uuid.UUID,
) (int, error) {
	deleted := 0
	for _, id := range ids {
		if err := m.Delete(ctx, id, userID); err == nil {
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockFlashcardStore) WithTx(tx *sql.Tx) store.FlashcardStore {
	return m
}

// mockErrorLogService records every logged cause.
type mockErrorLogService struct {
	mu     sync.Mutex
	causes []error
}

func (m *mockErrorLogService) LogError(ctx context.Context, userID uuid.UUID, cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.causes = append(m.causes, cause)
}

func (m *mockErrorLogService) logged() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.causes)
}

// stubRunInTx runs the transaction function directly with a nil transaction.
// The mock stores ignore WithTx, so no real database is needed.
func stubRunInTx(ctx context.Context, db *sql.DB, fn store.TxFn) error {
	return fn(ctx, nil)
}
