package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals a malformed request (bad range, out-of-bounds size, unknown enum value).
	ErrValidation = errors.New("validation error")
	// ErrTransport signals a search backend that stayed unreachable after retries.
	ErrTransport = errors.New("search backend unavailable")
	// ErrRequest signals a query rejected by the search backend (malformed DSL, unknown index).
	ErrRequest = errors.New("search request rejected")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrMissingEmbedding signals a reference document without a stored embedding.
	ErrMissingEmbedding = errors.New("document has no embedding")
	// ErrLLM signals a failed or malformed LLM classification.
	ErrLLM = errors.New("llm classification failed")
	// ErrDatabase signals a relational store failure.
	ErrDatabase = errors.New("database error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// ValidationError names the offending request field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a validation error for a field.
func NewValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
