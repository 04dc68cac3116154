package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cardsmith/cardsmith-api/internal/api/shared"
	"github.com/cardsmith/cardsmith-api/internal/domain"
	"github.com/cardsmith/cardsmith-api/internal/service"
	"github.com/cardsmith/cardsmith-api/internal/store"
)

// FlashcardHandler handles flashcard API requests.
type FlashcardHandler struct {
	flashcardService service.FlashcardService
	validator        *validator.Validate
}

// NewFlashcardHandler creates a new FlashcardHandler.
func NewFlashcardHandler(flashcardService service.FlashcardService) *FlashcardHandler {
	return &FlashcardHandler{
		flashcardService: flashcardService,
		validator:        validator.New(),
	}
}

// List handles GET /flashcards. Pagination, sorting and filtering are
// driven by query parameters; unknown sort columns are rejected.
func (h *FlashcardHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := handleUserID(w, r)
	if !ok {
		return
	}

	params, err := parseListParams(r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	cards, total, err := h.flashcardService.List(r.Context(), userID, params)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = store.DefaultPageSize
	}

	shared.RespondWithJSON(w, r, http.StatusOK, FlashcardListResponse{
		Flashcards: flashcardsToResponses(cards),
		Page:       page,
		PageSize:   pageSize,
		TotalCount: total,
	})
}

// Get handles GET /flashcards/{id}.
func (h *FlashcardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	card, err := h.flashcardService.Get(r.Context(), userID, cardID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, flashcardToResponse(card))
}

// Create handles POST /flashcards. Cards created here carry the manual
// source; AI proposals go through BulkSave instead.
func (h *FlashcardHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := handleUserID(w, r)
	if !ok {
		return
	}

	var req CreateFlashcardRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	card, err := h.flashcardService.CreateManual(r.Context(), userID, req.Front, req.Back)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, flashcardToResponse(card))
}

// Update handles PUT /flashcards/{id}. Omitted fields keep their
// current values.
func (h *FlashcardHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	var req UpdateFlashcardRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	if req.Front == nil && req.Back == nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "At least one of front or back must be provided")
		return
	}

	card, err := h.flashcardService.Update(r.Context(), userID, cardID, req.Front, req.Back)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, flashcardToResponse(card))
}

// Delete handles DELETE /flashcards/{id}.
func (h *FlashcardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := handleUserIDAndPathUUID(w, r, "id", nil)
	if !ok {
		return
	}

	if err := h.flashcardService.Delete(r.Context(), userID, cardID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BulkDelete handles POST /flashcards/bulk-delete. Cards belonging to
// other users are silently skipped; the response reports how many were
// actually deleted.
func (h *FlashcardHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := handleUserID(w, r)
	if !ok {
		return
	}

	var req BulkDeleteRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	deleted, err := h.flashcardService.DeleteMultiple(r.Context(), userID, req.IDs)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, BulkDeleteResponse{DeletedCount: deleted})
}

// BulkSave handles POST /flashcards/bulk. It promotes accepted generation
// proposals into persisted flashcards in a single transaction.
func (h *FlashcardHandler) BulkSave(w http.ResponseWriter, r *http.Request) {
	userID, ok := handleUserID(w, r)
	if !ok {
		return
	}

	var req BulkSaveRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	acceptances := make([]service.ProposalAcceptance, len(req.Flashcards))
	for i, p := range req.Flashcards {
		acceptances[i] = service.ProposalAcceptance{
			Front:         p.Front,
			Back:          p.Back,
			OriginalFront: p.OriginalFront,
			OriginalBack:  p.OriginalBack,
		}
	}

	result, err := h.flashcardService.SaveProposals(r.Context(), userID, req.GenerationID, acceptances)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, BulkSaveResponse{
		Flashcards:    flashcardsToResponses(result.Flashcards),
		UneditedCount: result.UneditedCount,
		EditedCount:   result.EditedCount,
	})
}

// parseListParams translates list query parameters into store params.
func parseListParams(r *http.Request) (store.ListFlashcardsParams, error) {
	q := r.URL.Query()
	params := store.ListFlashcardsParams{
		SortBy: q.Get("sort_by"),
		Search: q.Get("search"),
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return params, domain.NewValidationError("page", "must be a positive integer", domain.ErrValidation)
		}
		params.Page = page
	}

	if raw := q.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < store.MinPageSize || size > store.MaxPageSize {
			return params, domain.NewValidationError("page_size",
				fmt.Sprintf("must be an integer between %d and %d", store.MinPageSize, store.MaxPageSize),
				domain.ErrValidation)
		}
		params.PageSize = size
	}

	switch order := strings.ToLower(q.Get("order")); order {
	case "", "asc":
	case "desc":
		params.Descending = true
	default:
		return params, domain.NewValidationError("order", "must be asc or desc", domain.ErrValidation)
	}

	if raw := q.Get("source"); raw != "" {
		source := domain.Source(raw)
		if !source.Valid() {
			return params, domain.NewValidationError("source", "is not a recognized source", domain.ErrValidation)
		}
		params.Source = source
	}

	return params, nil
}
