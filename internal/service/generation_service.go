package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cardsmith/cardsmith-api/internal/domain"
	"github.com/cardsmith/cardsmith-api/internal/platform/logger"
	"github.com/cardsmith/cardsmith-api/internal/platform/openrouter"
	"github.com/cardsmith/cardsmith-api/internal/store"
)

// Bounds on how many proposals one generation call may return. The response
// schema enforces them remotely and locally; the count is rechecked after
// decoding so a misbehaving model cannot slip an out-of-range batch through.
const (
	MinProposals = 10
	MaxProposals = 20
)

const generationSystemPrompt = `You are an expert flashcard author. ` +
	`Given a passage of study material, produce between 10 and 20 flashcards covering its key facts and concepts. ` +
	`Each card has a concise question or prompt on the front (at most 200 characters) ` +
	`and a clear, self-contained answer on the back (at most 500 characters). ` +
	`Cards must be understandable without the source text. ` +
	`Respond with JSON only.`

const generationUserPromptFormat = "Create flashcards from the following text:\n\n%s"

// proposalsSchema is sent to the completion API as a strict response format
// and used to validate the decoded answer before it reaches the caller.
var proposalsSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"flashcards": {
			"type": "array",
			"minItems": 10,
			"maxItems": 20,
			"items": {
				"type": "object",
				"properties": {
					"front": {"type": "string", "minLength": 1, "maxLength": 200},
					"back": {"type": "string", "minLength": 1, "maxLength": 500}
				},
				"required": ["front", "back"],
				"additionalProperties": false
			}
		}
	},
	"required": ["flashcards"],
	"additionalProperties": false
}`)

// proposalsPayload is the decoded completion answer.
type proposalsPayload struct {
	Flashcards []domain.Proposal `json:"flashcards"`
}

// GenerationServiceError is a custom error type for generation service errors.
type GenerationServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for GenerationServiceError.
func (e *GenerationServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("generation service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *GenerationServiceError) Unwrap() error {
	return e.Err
}

// NewGenerationServiceError creates a new GenerationServiceError.
func NewGenerationServiceError(operation, message string, err error) *GenerationServiceError {
	return &GenerationServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// CompletionClient is the boundary to the LLM completion API. It is satisfied
// by openrouter.Client.
type CompletionClient interface {
	// CompleteJSON sends the completion request and decodes the model's
	// schema-validated JSON answer into out.
	CompleteJSON(ctx context.Context, req openrouter.Request, out any) error
}

// GenerationResult bundles the audit record and the proposals of one
// successful generation call.
type GenerationResult struct {
	Generation *domain.Generation
	Proposals  []domain.Proposal
}

// GenerationService orchestrates flashcard generation: it validates the
// source text, calls the completion API, and writes the audit record.
type GenerationService interface {
	// GenerateFlashcards produces flashcard proposals from the source text.
	// model may be empty, in which case the configured default is used.
	// The source text length is checked before any network call; a failed
	// call is recorded in the user's error log and returned.
	GenerateFlashcards(
		ctx context.Context,
		userID uuid.UUID,
		sourceText, model string,
	) (*GenerationResult, error)
}

// generationServiceImpl implements the GenerationService interface.
type generationServiceImpl struct {
	client          CompletionClient
	generationStore store.GenerationStore
	errorLogService ErrorLogService
	defaultModel    string
	logger          *slog.Logger
	timeFunc        func() time.Time // Injectable for testing
}

// NewGenerationService creates a new GenerationService.
// It returns an error if any of the required dependencies are missing.
func NewGenerationService(
	client CompletionClient,
	generationStore store.GenerationStore,
	errorLogService ErrorLogService,
	defaultModel string,
	logger *slog.Logger,
) (GenerationService, error) {
	if client == nil {
		return nil, domain.NewValidationError("client", "cannot be nil", domain.ErrValidation)
	}
	if generationStore == nil {
		return nil, domain.NewValidationError("generationStore", "cannot be nil", domain.ErrValidation)
	}
	if errorLogService == nil {
		return nil, domain.NewValidationError("errorLogService", "cannot be nil", domain.ErrValidation)
	}
	if defaultModel == "" {
		return nil, domain.NewValidationError("defaultModel", "cannot be empty", domain.ErrValidation)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &generationServiceImpl{
		client:          client,
		generationStore: generationStore,
		errorLogService: errorLogService,
		defaultModel:    defaultModel,
		logger:          logger.With(slog.String("component", "generation_service")),
		timeFunc:        time.Now,
	}, nil
}

// GenerateFlashcards implements GenerationService.GenerateFlashcards
func (s *generationServiceImpl) GenerateFlashcards(
	ctx context.Context,
	userID uuid.UUID,
	sourceText, model string,
) (*GenerationResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Length check comes first so an invalid text never costs a network call.
	if err := domain.ValidateSourceText(sourceText); err != nil {
		log.Debug("source text rejected",
			slog.Int("length", utf8.RuneCountInString(sourceText)),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	if model == "" {
		model = s.defaultModel
	}

	hash := sha256.Sum256([]byte(sourceText))
	sourceTextHash := hex.EncodeToString(hash[:])

	log.Info("starting flashcard generation",
		slog.String("user_id", userID.String()),
		slog.String("model", model),
		slog.Int("source_length", utf8.RuneCountInString(sourceText)),
		slog.String("source_hash", sourceTextHash))

	started := s.timeFunc()

	var payload proposalsPayload
	err := s.client.CompleteJSON(ctx, openrouter.Request{
		Model:        model,
		SystemPrompt: generationSystemPrompt,
		UserPrompt:   fmt.Sprintf(generationUserPromptFormat, sourceText),
		SchemaName:   "flashcard_proposals",
		Schema:       proposalsSchema,
	}, &payload)

	elapsed := s.timeFunc().Sub(started)

	if err != nil {
		log.Error("flashcard generation failed",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("model", model),
			slog.Duration("elapsed", elapsed))
		s.errorLogService.LogError(ctx, userID, err)
		return nil, NewGenerationServiceError("generate", "completion call failed", err)
	}

	if n := len(payload.Flashcards); n < MinProposals || n > MaxProposals {
		err := fmt.Errorf("model returned %d flashcards, want %d to %d",
			n, MinProposals, MaxProposals)
		log.Error("flashcard generation returned out-of-range count",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		s.errorLogService.LogError(ctx, userID, err)
		return nil, NewGenerationServiceError("generate", "unexpected proposal count", err)
	}

	gen, err := domain.NewGeneration(
		userID,
		sourceTextHash,
		utf8.RuneCountInString(sourceText),
		len(payload.Flashcards),
		model,
		elapsed.Milliseconds(),
	)
	if err != nil {
		s.errorLogService.LogError(ctx, userID, err)
		return nil, NewGenerationServiceError("generate", "failed to build audit record", err)
	}

	if err := s.generationStore.Create(ctx, gen); err != nil {
		log.Error("failed to persist generation record",
			slog.String("error", err.Error()),
			slog.String("generation_id", gen.ID.String()))
		s.errorLogService.LogError(ctx, userID, err)
		return nil, NewGenerationServiceError("generate", "failed to save audit record", err)
	}

	log.Info("flashcard generation completed",
		slog.String("generation_id", gen.ID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("proposal_count", len(payload.Flashcards)),
		slog.Int64("elapsed_ms", elapsed.Milliseconds()))

	return &GenerationResult{
		Generation: gen,
		Proposals:  payload.Flashcards,
	}, nil
}
