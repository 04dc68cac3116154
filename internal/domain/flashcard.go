package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Source identifies how a flashcard came into existence.
type Source string

// Possible flashcard sources.
const (
	// SourceManual marks a flashcard typed in by the user.
	SourceManual Source = "manual"

	// SourceAIFull marks an AI-generated flashcard accepted without edits.
	SourceAIFull Source = "ai-full"

	// SourceAIEdited marks an AI-generated flashcard the user edited
	// before accepting.
	SourceAIEdited Source = "ai-edited"
)

// Valid reports whether s is one of the recognized sources.
func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceAIFull, SourceAIEdited:
		return true
	}
	return false
}

// Character limits shared by generation prompts, request validation and
// entity validation. Keep these in one place; the reference application
// drifted by duplicating them per form.
const (
	FlashcardFrontMaxLen = 200
	FlashcardBackMaxLen  = 500
)

// Flashcard-specific validation errors
var (
	ErrFlashcardIDEmpty     = errors.New("flashcard ID cannot be empty")
	ErrFlashcardUserIDEmpty = errors.New("flashcard user ID cannot be empty")
	ErrFlashcardFrontEmpty  = errors.New("flashcard front cannot be empty")
	ErrFlashcardBackEmpty   = errors.New("flashcard back cannot be empty")
	ErrFlashcardFrontTooLong = errors.New(
		"flashcard front exceeds maximum length",
	)
	ErrFlashcardBackTooLong = errors.New(
		"flashcard back exceeds maximum length",
	)
	ErrFlashcardSourceInvalid = errors.New("invalid flashcard source")
	ErrFlashcardGenerationID  = errors.New(
		"AI-sourced flashcards require a generation ID",
	)
)

// Flashcard represents a single persisted study card owned by a user.
// AI-sourced cards keep a reference to the generation call that produced them.
type Flashcard struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Front        string     `json:"front"`
	Back         string     `json:"back"`
	Source       Source     `json:"source"`
	GenerationID *uuid.UUID `json:"generation_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewFlashcard creates a new Flashcard with the given owner, texts and source.
// generationID must be non-nil for AI sources and nil for manual cards.
// Returns an error if validation fails.
func NewFlashcard(
	userID uuid.UUID,
	front, back string,
	source Source,
	generationID *uuid.UUID,
) (*Flashcard, error) {
	card := &Flashcard{
		ID:           uuid.New(),
		UserID:       userID,
		Front:        front,
		Back:         back,
		Source:       source,
		GenerationID: generationID,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Flashcard has valid data.
// Returns an error if any field fails validation.
func (f *Flashcard) Validate() error {
	if f.ID == uuid.Nil {
		return ErrFlashcardIDEmpty
	}

	if f.UserID == uuid.Nil {
		return ErrFlashcardUserIDEmpty
	}

	if f.Front == "" {
		return ErrFlashcardFrontEmpty
	}

	if len(f.Front) > FlashcardFrontMaxLen {
		return ErrFlashcardFrontTooLong
	}

	if f.Back == "" {
		return ErrFlashcardBackEmpty
	}

	if len(f.Back) > FlashcardBackMaxLen {
		return ErrFlashcardBackTooLong
	}

	switch f.Source {
	case SourceManual:
		// Manual cards never reference a generation.
	case SourceAIFull, SourceAIEdited:
		if f.GenerationID == nil || *f.GenerationID == uuid.Nil {
			return ErrFlashcardGenerationID
		}
	default:
		return ErrFlashcardSourceInvalid
	}

	return nil
}

// UpdateTexts replaces the card's front and/or back text and bumps the
// UpdatedAt timestamp. Nil arguments leave the corresponding field untouched.
// Returns an error if the resulting card is invalid.
func (f *Flashcard) UpdateTexts(front, back *string) error {
	origFront, origBack := f.Front, f.Back

	if front != nil {
		f.Front = *front
	}
	if back != nil {
		f.Back = *back
	}

	if err := f.Validate(); err != nil {
		f.Front, f.Back = origFront, origBack
		return err
	}

	f.UpdatedAt = time.Now().UTC()
	return nil
}

// Proposal is an unsaved candidate flashcard returned by a generation call.
// Proposals are ephemeral: they live in the generation response and in
// client-side editing state until the user promotes a subset to Flashcards.
type Proposal struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}
