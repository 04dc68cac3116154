package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/cardsmith/cardsmith-api/internal/api/shared"
	"github.com/cardsmith/cardsmith-api/internal/service"
)

// GenerationHandler handles flashcard generation API requests.
type GenerationHandler struct {
	generationService service.GenerationService
	validator         *validator.Validate
}

// NewGenerationHandler creates a new GenerationHandler.
func NewGenerationHandler(generationService service.GenerationService) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		validator:         validator.New(),
	}
}

// Generate handles POST /generations. It sends the source text to the
// configured language model and returns the proposed flashcards without
// persisting them as cards. Only the generation audit record is stored.
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := handleUserID(w, r)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	result, err := h.generationService.GenerateFlashcards(r.Context(), userID, req.SourceText, req.Model)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	flashcards := make([]ProposalDTO, len(result.Proposals))
	for i, p := range result.Proposals {
		flashcards[i] = ProposalDTO{Front: p.Front, Back: p.Back}
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, GenerateResponse{
		GenerationID: result.Generation.ID,
		Flashcards:   flashcards,
		Metadata: GenerationMetadata{
			Model:            result.Generation.ModelUsed,
			GenerationTimeMs: result.Generation.GenerationTimeMs,
		},
	})
}
