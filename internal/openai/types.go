// Package openai provides a client for the OpenAI Files and Vector Stores APIs.
// This package centralizes all vector store interactions for the application.
package openai

import (
	"fmt"
	"time"
)

// APIError represents an error from the OpenAI API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("OpenAI API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("OpenAI rate limit exceeded, retry after %v", e.RetryAfter)
}
