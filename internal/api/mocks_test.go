package api

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/cardsmith/cardsmith-api/internal/domain"
	"github.com/cardsmith/cardsmith-api/internal/service"
	"github.com/cardsmith/cardsmith-api/internal/service/auth"
	"github.com/cardsmith/cardsmith-api/internal/store"
)

// mockUserStore is an in-memory store.UserStore for handler tests.
type mockUserStore struct {
	mu        sync.Mutex
	usersByID map[uuid.UUID]*domain.User
	createErr error
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{usersByID: make(map[uuid.UUID]*domain.User)}
}

func (m *mockUserStore) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.usersByID {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	user.HashedPassword = "hashed:" + user.Password
	user.Password = ""
	clone := *user
	m.usersByID[user.ID] = &clone
	return nil
}

func (m *mockUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.usersByID[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *mockUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.usersByID {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, store.ErrUserNotFound
}

// mockJWTService issues predictable tokens keyed by the user ID.
type mockJWTService struct {
	generateErr        error
	generateRefreshErr error
	validateErr        error
	validateRefreshErr error
	refreshClaims      *auth.Claims
}

func (m *mockJWTService) GenerateToken(_ context.Context, userID uuid.UUID) (string, error) {
	if m.generateErr != nil {
		return "", m.generateErr
	}
	return "access-" + userID.String(), nil
}

func (m *mockJWTService) ValidateToken(_ context.Context, _ string) (*auth.Claims, error) {
	if m.validateErr != nil {
		return nil, m.validateErr
	}
	return &auth.Claims{}, nil
}

func (m *mockJWTService) GenerateRefreshToken(_ context.Context, userID uuid.UUID) (string, error) {
	if m.generateRefreshErr != nil {
		return "", m.generateRefreshErr
	}
	return "refresh-" + userID.String(), nil
}

func (m *mockJWTService) ValidateRefreshToken(_ context.Context, _ string) (*auth.Claims, error) {
	if m.validateRefreshErr != nil {
		return nil, m.validateRefreshErr
	}
	if m.refreshClaims != nil {
		return m.refreshClaims, nil
	}
	return &auth.Claims{}, nil
}

// mockPasswordVerifier accepts passwords matching the "hashed:" prefix
// convention used by mockUserStore.
type mockPasswordVerifier struct{}

func (mockPasswordVerifier) Compare(hashedPassword, password string) error {
	if hashedPassword == "hashed:"+password {
		return nil
	}
	return errors.New("crypto/bcrypt: hashedPassword is not the hash of the given password")
}

// mockGenerationService returns a canned result or error.
type mockGenerationService struct {
	mu         sync.Mutex
	result     *service.GenerationResult
	err        error
	calls      int
	lastUserID uuid.UUID
	lastText   string
	lastModel  string
}

func (m *mockGenerationService) GenerateFlashcards(
	_ context.Context,
	userID uuid.UUID,
	sourceText, model string,
) (*service.GenerationResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastUserID = userID
	m.lastText = sourceText
	m.lastModel = model
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// mockFlashcardService records arguments and returns canned values.
type mockFlashcardService struct {
	mu sync.Mutex

	listCards  []*domain.Flashcard
	listTotal  int
	listParams store.ListFlashcardsParams
	listErr    error

	card    *domain.Flashcard
	cardErr error

	deleted   int
	deleteErr error

	saveResult       *service.SaveProposalsResult
	saveErr          error
	lastGenerationID uuid.UUID
	lastAcceptances  []service.ProposalAcceptance
}

func (m *mockFlashcardService) List(
	_ context.Context,
	_ uuid.UUID,
	params store.ListFlashcardsParams,
) ([]*domain.Flashcard, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listParams = params
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listCards, m.listTotal, nil
}

func (m *mockFlashcardService) Get(_ context.Context, _, _ uuid.UUID) (*domain.Flashcard, error) {
	if m.cardErr != nil {
		return nil, m.cardErr
	}
	return m.card, nil
}

func (m *mockFlashcardService) CreateManual(
	_ context.Context,
	userID uuid.UUID,
	front, back string,
) (*domain.Flashcard, error) {
	if m.cardErr != nil {
		return nil, m.cardErr
	}
	return domain.NewFlashcard(userID, front, back, domain.SourceManual, nil)
}

func (m *mockFlashcardService) Update(
	_ context.Context,
	_, _ uuid.UUID,
	front, back *string,
) (*domain.Flashcard, error) {
	if m.cardErr != nil {
		return nil, m.cardErr
	}
	card := *m.card
	if front != nil {
		card.Front = *front
	}
	if back != nil {
		card.Back = *back
	}
	return &card, nil
}

func (m *mockFlashcardService) Delete(_ context.Context, _, _ uuid.UUID) error {
	return m.deleteErr
}

func (m *mockFlashcardService) DeleteMultiple(
	_ context.Context,
	_ uuid.UUID,
	_ []uuid.UUID,
) (int, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	return m.deleted, nil
}

func (m *mockFlashcardService) SaveProposals(
	_ context.Context,
	_, generationID uuid.UUID,
	proposals []service.ProposalAcceptance,
) (*service.SaveProposalsResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastGenerationID = generationID
	m.lastAcceptances = proposals
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	return m.saveResult, nil
}

// Compile-time interface checks for the mocks.
var (
	_ store.UserStore           = (*mockUserStore)(nil)
	_ auth.JWTService           = (*mockJWTService)(nil)
	_ auth.PasswordVerifier     = mockPasswordVerifier{}
	_ service.GenerationService = (*mockGenerationService)(nil)
	_ service.FlashcardService  = (*mockFlashcardService)(nil)
)
