package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/cardsmith/cardsmith-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID uuid.UUID `json:"user_id"`

	// AccessToken is the JWT token used for API authorization
	AccessToken string `json:"token"`

	// RefreshToken is the JWT token used to obtain new access tokens
	RefreshToken string `json:"refresh_token,omitempty"`
}

// RefreshTokenRequest defines the payload for the token refresh endpoint.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshTokenResponse defines the successful response for the token refresh endpoint.
type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// GenerateRequest defines the payload for the proposal generation endpoint.
// The length bounds mirror the domain's source text limits.
type GenerateRequest struct {
	SourceText string `json:"source_text" validate:"required,min=1000,max=10000"`
	Model      string `json:"model"       validate:"omitempty,min=1,max=200"`
}

// ProposalDTO is one unsaved flashcard candidate in a generation response.
type ProposalDTO struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// GenerationMetadata describes how a batch of proposals was produced.
type GenerationMetadata struct {
	Model            string `json:"model"`
	GenerationTimeMs int64  `json:"generation_time_ms"`
}

// GenerateResponse defines the successful response for the generation endpoint.
type GenerateResponse struct {
	GenerationID uuid.UUID          `json:"generation_id"`
	Flashcards   []ProposalDTO      `json:"flashcards"`
	Metadata     GenerationMetadata `json:"metadata"`
}

// AcceptedProposal is one proposal the user is promoting to a flashcard.
// The original texts let the server classify the card as edited or not.
type AcceptedProposal struct {
	Front         string `json:"front"          validate:"required,max=200"`
	Back          string `json:"back"           validate:"required,max=500"`
	OriginalFront string `json:"original_front" validate:"required"`
	OriginalBack  string `json:"original_back"  validate:"required"`
}

// BulkSaveRequest defines the payload for the bulk proposal-acceptance endpoint.
type BulkSaveRequest struct {
	GenerationID uuid.UUID          `json:"generation_id" validate:"required"`
	Flashcards   []AcceptedProposal `json:"flashcards"    validate:"required,min=1,max=20,dive"`
}

// BulkSaveResponse defines the successful response for the bulk save endpoint.
type BulkSaveResponse struct {
	Flashcards    []FlashcardResponse `json:"flashcards"`
	UneditedCount int                 `json:"unedited_count"`
	EditedCount   int                 `json:"edited_count"`
}

// CreateFlashcardRequest defines the payload for creating a manual flashcard.
type CreateFlashcardRequest struct {
	Front string `json:"front" validate:"required,max=200"`
	Back  string `json:"back"  validate:"required,max=500"`
}

// UpdateFlashcardRequest defines the payload for editing a flashcard.
// Omitted fields keep their current value.
type UpdateFlashcardRequest struct {
	Front *string `json:"front" validate:"omitempty,min=1,max=200"`
	Back  *string `json:"back"  validate:"omitempty,min=1,max=500"`
}

// BulkDeleteRequest defines the payload for deleting several flashcards.
type BulkDeleteRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

// BulkDeleteResponse reports how many flashcards a bulk delete removed.
type BulkDeleteResponse struct {
	DeletedCount int `json:"deleted_count"`
}

// FlashcardResponse represents one flashcard in API responses.
type FlashcardResponse struct {
	ID           uuid.UUID  `json:"id"`
	Front        string     `json:"front"`
	Back         string     `json:"back"`
	Source       string     `json:"source"`
	GenerationID *uuid.UUID `json:"generation_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FlashcardListResponse is one page of flashcards plus pagination metadata.
type FlashcardListResponse struct {
	Flashcards []FlashcardResponse `json:"flashcards"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalCount int                 `json:"total_count"`
}

// flashcardToResponse converts a domain.Flashcard to its DTO.
func flashcardToResponse(card *domain.Flashcard) FlashcardResponse {
	return FlashcardResponse{
		ID:           card.ID,
		Front:        card.Front,
		Back:         card.Back,
		Source:       string(card.Source),
		GenerationID: card.GenerationID,
		CreatedAt:    card.CreatedAt,
		UpdatedAt:    card.UpdatedAt,
	}
}

// flashcardsToResponses converts a slice of flashcards, never returning nil.
func flashcardsToResponses(cards []*domain.Flashcard) []FlashcardResponse {
	responses := make([]FlashcardResponse, 0, len(cards))
	for _, card := range cards {
		responses = append(responses, flashcardToResponse(card))
	}
	return responses
}
