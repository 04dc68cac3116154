package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// Defaults applied by NewClient when the corresponding Config field is zero.
const (
	DefaultBaseURL    = "https://openrouter.ai/api/v1"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3

	defaultBackoffBase = 500 * time.Millisecond
)

// ModelParams holds optional sampling parameters merged into the request
// payload. Nil fields are omitted from the wire format.
type ModelParams struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
	TopK        *int
}

// Request describes one completion call. It is immutable once built; every
// retry attempt reuses the identical serialized body.
type Request struct {
	// Model is the completion model identifier, e.g. "openai/gpt-4.1".
	Model string

	// SystemPrompt and UserPrompt become the two chat messages.
	SystemPrompt string
	UserPrompt   string

	// SchemaName names the response schema in the request payload.
	SchemaName string

	// Schema is the JSON-schema document the response content must satisfy.
	// It is both sent to the API as a strict response-format directive and
	// enforced locally before any result is returned.
	Schema json.RawMessage

	// Params optionally tunes sampling.
	Params *ModelParams
}

// Config holds the settings for constructing a Client.
type Config struct {
	// APIKey is required. Its absence is a configuration error raised at
	// construction, not per call.
	APIKey string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Timeout bounds each individual attempt, not the whole call.
	// Defaults to DefaultTimeout.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt for
	// rate-limit and connectivity failures. Defaults to DefaultMaxRetries.
	MaxRetries int

	// BackoffBase is the base of the exponential backoff between retries.
	// Defaults to 500ms; tests shrink it.
	BackoffBase time.Duration

	// HTTPClient optionally overrides the transport.
	HTTPClient *http.Client
}

// Client calls the OpenRouter chat-completion endpoint. It holds no mutable
// cross-call state; the credential is fixed at construction.
type Client struct {
	apiKey      string
	baseURL     string
	timeout     time.Duration
	maxRetries  int
	backoffBase time.Duration
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a Client from the given configuration.
// Returns ErrConfiguration if no API key is set.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrConfiguration
	}

	if logger == nil {
		logger = slog.Default()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}

	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &Client{
		apiKey:      cfg.APIKey,
		baseURL:     baseURL,
		timeout:     timeout,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		httpClient:  httpClient,
		logger:      logger.With(slog.String("component", "openrouter_client")),
	}, nil
}

// Wire types for the chat-completions endpoint.

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type responseFormat struct {
	Type       string           `json:"type"`
	JSONSchema jsonSchemaFormat `json:"json_schema"`
}

type chatPayload struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Temperature    *float64       `json:"temperature,omitempty"`
	MaxTokens      *int           `json:"max_tokens,omitempty"`
	TopP           *float64       `json:"top_p,omitempty"`
	TopK           *int           `json:"top_k,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// CompleteJSON sends the completion request and decodes the model's JSON
// answer into out after validating it against req.Schema.
//
// Rate-limit (429) and connectivity/timeout failures are retried up to the
// configured budget with exponential backoff; a Retry-After header overrides
// the computed backoff for 429 responses. Non-2xx statuses, malformed
// responses and schema failures are terminal and never retried. No result is
// ever produced from content that failed schema validation.
func (c *Client) CompleteJSON(ctx context.Context, req Request, out any) error {
	if req.Model == "" {
		return fmt.Errorf("openrouter: request model cannot be empty")
	}
	if len(req.Schema) == 0 {
		return fmt.Errorf("openrouter: request schema cannot be empty")
	}

	body, err := json.Marshal(c.buildPayload(req))
	if err != nil {
		return fmt.Errorf("openrouter: marshal request payload: %w", err)
	}

	content, err := c.sendWithRetry(ctx, body)
	if err != nil {
		return err
	}

	return c.validateAndDecode(content, req.Schema, out)
}

// buildPayload assembles the wire payload from the request.
func (c *Client) buildPayload(req Request) chatPayload {
	payload := chatPayload{
		Model: req.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		ResponseFormat: responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchemaFormat{
				Name:   req.SchemaName,
				Strict: true,
				Schema: req.Schema,
			},
		},
	}

	if p := req.Params; p != nil {
		payload.Temperature = p.Temperature
		payload.MaxTokens = p.MaxTokens
		payload.TopP = p.TopP
		payload.TopK = p.TopK
	}

	return payload
}

// sendWithRetry runs attempts until success, a terminal failure, or an
// exhausted retry budget. Every attempt sends the identical body.
func (c *Client) sendWithRetry(ctx context.Context, body []byte) (string, error) {
	for attempt := 0; ; attempt++ {
		c.logger.DebugContext(ctx, "calling completion API",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", c.maxRetries+1))

		content, err := c.send(ctx, body)
		if err == nil {
			return content, nil
		}

		var rlErr *RateLimitError
		switch {
		case errors.As(err, &rlErr):
			if attempt >= c.maxRetries {
				return "", rlErr
			}
			delay := c.retryDelay(attempt, rlErr.RetryAfter)
			c.logger.WarnContext(ctx, "rate limited, backing off",
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay))
			if err := c.sleep(ctx, delay); err != nil {
				return "", err
			}

		case errors.Is(err, ErrConnection):
			if attempt >= c.maxRetries {
				return "", err
			}
			delay := c.retryDelay(attempt, 0)
			c.logger.WarnContext(ctx, "connection failure, backing off",
				slog.Int("attempt", attempt+1),
				slog.Duration("delay", delay),
				slog.String("error", err.Error()))
			if err := c.sleep(ctx, delay); err != nil {
				return "", err
			}

		default:
			// Cancellation, status, parsing: terminal, bubble unchanged.
			return "", err
		}
	}
}

// send performs a single attempt, bounded by the per-attempt timeout, and
// extracts the textual content of the first completion choice.
func (c *Client) send(ctx context.Context, body []byte) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(
		attemptCtx,
		http.MethodPost,
		c.baseURL+"/chat/completions",
		bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("openrouter: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Caller-initiated cancellation is distinct from the per-attempt
		// timeout, which counts as a transient connectivity failure.
		if ctx.Err() == context.Canceled {
			return "", fmt.Errorf("%w: %v", ErrCancelled, err)
		}
		return "", fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: %v", ErrResponseParsing, err)
	}

	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == nil {
		return "", fmt.Errorf("%w: unexpected response shape", ErrResponseParsing)
	}

	return *decoded.Choices[0].Message.Content, nil
}

// validateAndDecode checks the content against the caller's schema and only
// then decodes it into out.
func (c *Client) validateAndDecode(content string, schema json.RawMessage, out any) error {
	var parsed any
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return fmt.Errorf("%w: invalid JSON in completion content: %v", ErrResponseParsing, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewGoLoader(parsed),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaValidation, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return &SchemaValidationError{Problems: problems}
	}

	if out != nil {
		if err := json.Unmarshal([]byte(content), out); err != nil {
			return fmt.Errorf("%w: decode validated content: %v", ErrResponseParsing, err)
		}
	}

	return nil
}

// retryDelay computes the wait before the next attempt. A server-supplied
// retry-after hint overrides the exponential backoff; otherwise the delay is
// backoffBase doubled per attempt.
func (c *Client) retryDelay(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}
	return c.backoffBase << uint(attempt)
}

// sleep waits for the given duration unless the context ends first.
func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		if ctx.Err() == context.Canceled {
			return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		}
		return fmt.Errorf("%w: %v", ErrConnection, ctx.Err())
	}
}

// parseRetryAfter interprets a Retry-After header value in seconds.
// Malformed or absent values yield zero.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
