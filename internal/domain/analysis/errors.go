package analysis

import "errors"

var (
	// ErrNotConfigured is returned before any model call when no API key is set.
	ErrNotConfigured = errors.New("analysis model is not configured")
	// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	// ErrEmptyResponse is returned by a model client when the completion has no choices.
	ErrEmptyResponse = errors.New("model returned no choices")
)
