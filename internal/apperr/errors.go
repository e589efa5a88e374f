// Package apperr defines the error taxonomy shared by the registry, the
// ingestion pipeline and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrNotAuthorized indicates an ownership mismatch on a key mutation.
	// Handlers report it as not found so key existence is not leaked.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrTextTooShort indicates that normalized text is below the embedding minimum.
	ErrTextTooShort = errors.New("text too short to embed")

	// ErrIndexUnavailable indicates that no vector index could serve the call.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrNoEmbeddings indicates that content was submitted but none of it embedded.
	ErrNoEmbeddings = errors.New("no embeddings were generated")
)

// ValidationError represents a validation error with field information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AuthKind enumerates the ways key validation can fail.
type AuthKind string

const (
	KeyMissing        AuthKind = "key_missing"
	KeyNotFound       AuthKind = "key_not_found"
	KeyDisabled       AuthKind = "key_disabled"
	DomainNotAllowed  AuthKind = "domain_not_allowed"
	RateLimitExceeded AuthKind = "rate_limit_exceeded"
	FeatureNotGranted AuthKind = "feature_not_granted"
)

// AuthError is returned when a presented key fails validation.
// Two AuthErrors match under errors.Is when their kinds are equal.
type AuthError struct {
	Kind    AuthKind
	Message string
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

// Is reports whether target is an AuthError of the same kind.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

// Sentinel auth errors for errors.Is comparisons.
var (
	ErrKeyMissing        = &AuthError{Kind: KeyMissing, Message: "API key required"}
	ErrKeyNotFound       = &AuthError{Kind: KeyNotFound, Message: "invalid API key"}
	ErrKeyDisabled       = &AuthError{Kind: KeyDisabled, Message: "API key is disabled"}
	ErrDomainNotAllowed  = &AuthError{Kind: DomainNotAllowed, Message: "domain not allowed"}
	ErrRateLimitExceeded = &AuthError{Kind: RateLimitExceeded, Message: "rate limit exceeded"}
	ErrFeatureNotGranted = &AuthError{Kind: FeatureNotGranted, Message: "feature not enabled for this API key"}
)

// FeatureNotGrantedError returns an AuthError naming the missing feature.
func FeatureNotGrantedError(feature string) *AuthError {
	return &AuthError{Kind: FeatureNotGranted, Message: fmt.Sprintf("feature '%s' not enabled for this API key", feature)}
}

// ProviderError wraps a failed call to an external embedding or completion provider.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
