package domain

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Source text length bounds enforced before any generation call is made.
const (
	SourceTextMinLen = 1000
	SourceTextMaxLen = 10000
)

// Generation-specific validation errors
var (
	ErrGenerationIDEmpty     = errors.New("generation ID cannot be empty")
	ErrGenerationUserIDEmpty = errors.New("generation user ID cannot be empty")
	ErrGenerationHashEmpty   = errors.New("generation source text hash cannot be empty")
	ErrGenerationModelEmpty  = errors.New("generation model cannot be empty")
	ErrGenerationCountRange  = errors.New("generation card count out of range")
	ErrSourceTextLength      = errors.New(
		"source text length must be between 1000 and 10000 characters",
	)
)

// Generation is the audit record for one flashcard generation call.
// It is written exactly once per successful call; the accepted counts are
// filled in later when the user promotes proposals to flashcards.
type Generation struct {
	ID                    uuid.UUID `json:"id"`
	UserID                uuid.UUID `json:"user_id"`
	SourceTextHash        string    `json:"source_text_hash"`
	SourceTextLength      int       `json:"source_text_length"`
	GeneratedCount        int       `json:"generated_count"`
	ModelUsed             string    `json:"model_used"`
	GenerationTimeMs      int64     `json:"generation_time_ms"`
	AcceptedUneditedCount *int      `json:"accepted_unedited_count"`
	AcceptedEditedCount   *int      `json:"accepted_edited_count"`
	CreatedAt             time.Time `json:"created_at"`
}

// NewGeneration creates the audit record for a completed generation call.
// Accepted counts start unset; they are written by the bulk-save flow.
// Returns an error if validation fails.
func NewGeneration(
	userID uuid.UUID,
	sourceTextHash string,
	sourceTextLength int,
	generatedCount int,
	modelUsed string,
	generationTimeMs int64,
) (*Generation, error) {
	gen := &Generation{
		ID:               uuid.New(),
		UserID:           userID,
		SourceTextHash:   sourceTextHash,
		SourceTextLength: sourceTextLength,
		GeneratedCount:   generatedCount,
		ModelUsed:        modelUsed,
		GenerationTimeMs: generationTimeMs,
		CreatedAt:        time.Now().UTC(),
	}

	if err := gen.Validate(); err != nil {
		return nil, err
	}

	return gen, nil
}

// Validate checks if the Generation has valid data.
// Returns an error if any field fails validation.
func (g *Generation) Validate() error {
	if g.ID == uuid.Nil {
		return ErrGenerationIDEmpty
	}

	if g.UserID == uuid.Nil {
		return ErrGenerationUserIDEmpty
	}

	if g.SourceTextHash == "" {
		return ErrGenerationHashEmpty
	}

	if g.SourceTextLength < SourceTextMinLen || g.SourceTextLength > SourceTextMaxLen {
		return ErrSourceTextLength
	}

	if g.GeneratedCount < 0 {
		return ErrGenerationCountRange
	}

	if g.ModelUsed == "" {
		return ErrGenerationModelEmpty
	}

	return nil
}

// ValidateSourceText checks the length precondition for generation input.
// It runs before hashing or any network call.
func ValidateSourceText(sourceText string) error {
	// Characters, not bytes: multi-byte text must be measured the way the
	// user sees it.
	if l := utf8.RuneCountInString(sourceText); l < SourceTextMinLen || l > SourceTextMaxLen {
		return NewValidationError(
			"source_text",
			"must be between 1000 and 10000 characters",
			ErrValidation,
		)
	}
	return nil
}
