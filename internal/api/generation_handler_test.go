package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardsmith/cardsmith-api/internal/api/shared"
	"github.com/cardsmith/cardsmith-api/internal/domain"
	"github.com/cardsmith/cardsmith-api/internal/platform/openrouter"
	"github.com/cardsmith/cardsmith-api/internal/service"
)

// authedRequest builds a request whose context carries the user ID the way
// the authentication middleware does.
func authedRequest(t *testing.T, userID uuid.UUID, method, path string, body any) *http.Request {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
	return req.WithContext(ctx)
}

func generationResult(userID uuid.UUID, count int) *service.GenerationResult {
	gen, _ := domain.NewGeneration(userID, strings.Repeat("ab", 32), 2000, count, "openai/gpt-4.1", 420)
	proposals := make([]domain.Proposal, count)
	for i := range proposals {
		proposals[i] = domain.Proposal{Front: "Q", Back: "A"}
	}
	return &service.GenerationResult{Generation: gen, Proposals: proposals}
}

func TestGenerateSuccess(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := &mockGenerationService{result: generationResult(userID, 12)}
	handler := NewGenerationHandler(svc)

	req := authedRequest(t, userID, http.MethodPost, "/api/generations", GenerateRequest{
		SourceText: strings.Repeat("source text. ", 100),
		Model:      "anthropic/claude-sonnet-4",
	})
	rr := httptest.NewRecorder()
	handler.Generate(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	resp := decodeBody[GenerateResponse](t, rr)
	assert.Equal(t, svc.result.Generation.ID, resp.GenerationID)
	assert.Len(t, resp.Flashcards, 12)
	assert.Equal(t, "openai/gpt-4.1", resp.Metadata.Model)
	assert.Equal(t, int64(420), resp.Metadata.GenerationTimeMs)

	assert.Equal(t, userID, svc.lastUserID)
	assert.Equal(t, "anthropic/claude-sonnet-4", svc.lastModel)

	// The wire shape nests model and timing under metadata and names the
	// array flashcards.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	assert.Contains(t, raw, "flashcards")
	assert.Contains(t, raw, "metadata")
	assert.NotContains(t, raw, "proposals")
}

func TestGenerateSourceTextTooShort(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := &mockGenerationService{}
	handler := NewGenerationHandler(svc)

	req := authedRequest(t, userID, http.MethodPost, "/api/generations", GenerateRequest{
		SourceText: "way too short",
	})
	rr := httptest.NewRecorder()
	handler.Generate(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Zero(t, svc.calls, "validation failures must not reach the model")
}

func TestGenerateMissingUser(t *testing.T) {
	t.Parallel()

	handler := NewGenerationHandler(&mockGenerationService{})

	req := httptest.NewRequest(http.MethodPost, "/api/generations", bytes.NewReader(nil))
	rr := httptest.NewRecorder()
	handler.Generate(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGenerateUpstreamErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "rate limited",
			err:        service.NewGenerationServiceError("generate", "completion failed", openrouter.ErrRateLimited),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "connection failure",
			err:        service.NewGenerationServiceError("generate", "completion failed", openrouter.ErrConnection),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "malformed model output",
			err:        service.NewGenerationServiceError("generate", "completion failed", openrouter.ErrResponseParsing),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "schema violation",
			err:        service.NewGenerationServiceError("generate", "completion failed", openrouter.ErrSchemaValidation),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "client disconnected",
			err:        service.NewGenerationServiceError("generate", "completion failed", openrouter.ErrCancelled),
			wantStatus: statusClientClosedRequest,
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			handler := NewGenerationHandler(&mockGenerationService{err: tc.err})

			req := authedRequest(t, uuid.New(), http.MethodPost, "/api/generations", GenerateRequest{
				SourceText: strings.Repeat("source text. ", 100),
			})
			rr := httptest.NewRecorder()
			handler.Generate(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.NotContains(t, rr.Body.String(), "boom", "internal error details must not leak")
		})
	}
}
