package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kailas-cloud/estatesearch/internal/domain"
)

// Error types returned in the "type" field of an error payload.
const (
	ErrTypeBadRequest       = "bad_request"
	ErrTypeValidation       = "validation_error"
	ErrTypeNotFound         = "not_found"
	ErrTypeMissingEmbedding = "missing_embedding"
	ErrTypeRequest          = "request_error"
	ErrTypeTransport        = "transport_error"
	ErrTypeEmbedding        = "embedding_provider_error"
	ErrTypeUnauthorized     = "unauthorized"
	ErrTypeInternal         = "internal_error"
)

// ErrorBody is the error object of an error payload. Query echoes the original request parameters.
type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Query   any    `json:"query,omitempty"`
}

// ErrorResponse is the JSON payload written for every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, query any) bool

var errorHandlers = []errorHandler{
	validationHandler,
	sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrTypeNotFound),
	sentinelHandler(domain.ErrMissingEmbedding, http.StatusUnprocessableEntity, ErrTypeMissingEmbedding),
	sentinelHandler(domain.ErrRequest, http.StatusBadRequest, ErrTypeRequest),
	sentinelHandler(domain.ErrTransport, http.StatusServiceUnavailable, ErrTypeTransport),
	sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, ErrTypeEmbedding),
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string, query any) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{
		Type:    errType,
		Message: message,
		Query:   query,
	}})
}

// validationHandler exposes the offending field and reason; they never carry internals.
func validationHandler(w http.ResponseWriter, err error, query any) bool {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ErrTypeValidation, ve.Error(), query)
		return true
	}
	if errors.Is(err, domain.ErrValidation) {
		writeError(w, http.StatusBadRequest, ErrTypeValidation, domain.ErrValidation.Error(), query)
		return true
	}
	return false
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The client sees the sentinel message only.
func sentinelHandler(sentinel error, status int, errType string) errorHandler {
	return func(w http.ResponseWriter, err error, query any) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, errType, sentinel.Error(), query)
		return true
	}
}
