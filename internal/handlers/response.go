package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"learner-feature/internal/apperr"
	"learner-feature/internal/contextutil"
)

const (
	maxBodyBytes = 1 << 20
	defaultOwner = "demo-user"
)

// Response is the JSON envelope returned by every API endpoint.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(Response{Success: true, Data: data}); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(Response{
		Error:   message,
		Details: details,
	})
}

// statusFor maps an error from the service layer to an HTTP status and a
// caller-safe message. Unclassified errors keep defaultMsg and no details.
func statusFor(err error, defaultMsg string) (int, string, string) {
	var validationErr *apperr.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, "Invalid request", validationErr.Error()
	}

	var authErr *apperr.AuthError
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case apperr.KeyMissing, apperr.KeyNotFound:
			return http.StatusUnauthorized, authErr.Error(), string(authErr.Kind)
		default:
			return http.StatusForbidden, authErr.Error(), string(authErr.Kind)
		}
	}

	// Ownership mismatches look like missing keys so existence is not leaked.
	if errors.Is(err, apperr.ErrNotAuthorized) || errors.Is(err, apperr.ErrNotFound) {
		return http.StatusNotFound, "Resource not found", ""
	}

	if errors.Is(err, apperr.ErrNoEmbeddings) {
		return http.StatusUnprocessableEntity, "No content could be embedded", err.Error()
	}

	var provErr *apperr.ProviderError
	if errors.As(err, &provErr) {
		return http.StatusBadGateway, "External service error", provErr.Error()
	}

	if errors.Is(err, apperr.ErrIndexUnavailable) {
		return http.StatusServiceUnavailable, "Vector index unavailable", ""
	}

	return http.StatusInternalServerError, defaultMsg, ""
}

// handleServiceError logs err and writes the mapped error response.
func handleServiceError(ctx context.Context, w http.ResponseWriter, err error, defaultMsg string) {
	status, message, details := statusFor(err, defaultMsg)
	logger := contextutil.LoggerFromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "service error", "error", err, "status", status)
	} else {
		logger.WarnContext(ctx, "request rejected", "error", err, "status", status)
	}
	writeError(w, status, message, details)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

// tokenFrom reads the API key from x-api-key or a bearer Authorization header.
func tokenFrom(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get("x-api-key")); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// originFrom prefers the Origin header and falls back to Referer.
func originFrom(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}
	return r.Header.Get("Referer")
}

func ownerFrom(r *http.Request) string {
	if owner := strings.TrimSpace(r.Header.Get("X-User-ID")); owner != "" {
		return owner
	}
	if owner := strings.TrimSpace(r.URL.Query().Get("userId")); owner != "" {
		return owner
	}
	return defaultOwner
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
