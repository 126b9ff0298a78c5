package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse marks a completion that could not be decoded into
	// the expected shape.
	ErrMalformedResponse = errors.New("malformed completion response")
	ErrEmptyCompletion   = errors.New("empty completion")
	ErrMissingAPIKey     = errors.New("completion provider has no API key")
)

// APIError is a non-2xx answer from the completion provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("completion api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("completion api returned status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *APIError) Retryable() bool {
	return shouldRetry(e.StatusCode)
}
