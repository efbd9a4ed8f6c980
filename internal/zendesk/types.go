// Package zendesk provides a client for the Zendesk Help Center API.
// This package centralizes all help center API interactions for the application.
package zendesk

import (
	"fmt"
	"time"
)

// APIError represents an error from the help center API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("help center API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("help center rate limit exceeded, retry after %v", e.RetryAfter)
}
