package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveAuth(keys []string, method, path, authHeader string) *httptest.ResponseRecorder {
	handler := BearerAuthMiddleware(keys)(okHandler())
	req := httptest.NewRequest(method, path, http.NoBody)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	assert.Equal(t, http.StatusOK, serveAuth(nil, "POST", "/api/v1/properties/search", "").Code)
	assert.Equal(t, http.StatusOK, serveAuth([]string{"", ""}, "POST", "/api/v1/properties/search", "").Code)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		message string
	}{
		{name: "missing header", message: "missing authorization header"},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", message: "authorization header must use Bearer scheme"},
		{name: "invalid token", header: "Bearer wrong", message: "invalid api key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveAuth([]string{"secret"}, "POST", "/api/v1/wikipedia/search", tt.header)
			require.Equal(t, http.StatusUnauthorized, rr.Code)

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, ErrTypeUnauthorized, resp.Error.Type)
			assert.Equal(t, tt.message, resp.Error.Message)
		})
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	rr := serveAuth([]string{"a", "secret"}, "POST", "/api/v1/properties/search", "Bearer secret")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthMiddleware_ExemptPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		rr := serveAuth([]string{"secret"}, "GET", path, "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}
}

func TestAuthMiddleware_PreflightPassesThrough(t *testing.T) {
	rr := serveAuth([]string{"secret"}, "OPTIONS", "/api/v1/properties/search", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthMiddleware_SchemeCaseInsensitive(t *testing.T) {
	rr := serveAuth([]string{"secret"}, "POST", "/api/v1/properties/search", "bearer secret")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthMiddleware_ChallengeHeader(t *testing.T) {
	rr := serveAuth([]string{"secret"}, "POST", "/api/v1/properties/search", "Bearer nope")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, `Bearer realm="estatesearch"`, rr.Header().Get("WWW-Authenticate"))
}

func TestAPIKeySet(t *testing.T) {
	set := newAPIKeySet([]string{" alpha ", "", "beta"})
	require.Len(t, set, 2)
	assert.True(t, set.contains("alpha"))
	assert.True(t, set.contains("beta"))
	assert.False(t, set.contains("alph"))
	assert.False(t, set.contains(""))
}
