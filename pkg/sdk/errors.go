package estatesearch

import "github.com/kailas-cloud/estatesearch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation             = domain.ErrValidation
	ErrTransport              = domain.ErrTransport
	ErrRequest                = domain.ErrRequest
	ErrNotFound               = domain.ErrNotFound
	ErrMissingEmbedding       = domain.ErrMissingEmbedding
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
)
