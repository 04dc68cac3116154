// Package openrouter implements the client for the OpenRouter
// chat-completion API. It turns a structured completion request into a
// schema-validated, decoded JSON result, absorbing the external API's
// instability: bounded per-attempt timeouts, retries with exponential
// backoff for rate limits and connectivity failures, and a typed error
// taxonomy so callers can tell temporary failures from terminal ones.
package openrouter
