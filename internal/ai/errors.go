package ai

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies a ProviderError
type ErrorType string

const (
	ErrTypeProvider         ErrorType = "provider"
	ErrTypeConfiguration    ErrorType = "configuration"
	ErrTypeAuthentication   ErrorType = "authentication"
	ErrTypeRateLimit        ErrorType = "rate_limit"
	ErrTypeNetwork          ErrorType = "network"
	ErrTypeTimeout          ErrorType = "timeout"
	ErrTypeValidation       ErrorType = "validation"
	ErrTypeRegistration     ErrorType = "registration"
	ErrTypeNotFound         ErrorType = "not_found"
	ErrTypeModelUnavailable ErrorType = "model_unavailable" // model not pulled or not offered
	ErrTypeInternal         ErrorType = "internal"
)

// ProviderError represents errors specific to embedding and completion providers
type ProviderError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Provider   string    `json:"provider,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Cause      error     `json:"-"`
	Retryable  bool      `json:"retryable"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, from a Retry-After header
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	var parts []string

	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider=%s", e.Provider))
	}

	parts = append(parts, fmt.Sprintf("type=%s", e.Type))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("cause=%s", e.Cause.Error()))
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is matches any ProviderError of the same type
func (e *ProviderError) Is(target error) bool {
	if pe, ok := target.(*ProviderError); ok {
		return e.Type == pe.Type
	}
	return false
}

// IsRetryable returns whether the error is retryable
func (e *ProviderError) IsRetryable() bool {
	return e.Retryable
}

// ValidationError represents input validation errors
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ConfigurationError represents configuration-related errors
type ConfigurationError struct {
	Provider string `json:"provider"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for provider '%s', field '%s': %s",
		e.Provider, e.Field, e.Message)
}

// NewProviderError creates a new provider error
func NewProviderError(errType ErrorType, message, provider string) *ProviderError {
	return &ProviderError{
		Type:      errType,
		Message:   message,
		Provider:  provider,
		Retryable: isRetryableError(errType),
	}
}

// NewProviderErrorWithCause creates a provider error with an underlying cause
func NewProviderErrorWithCause(errType ErrorType, message, provider string, cause error) *ProviderError {
	return &ProviderError{
		Type:      errType,
		Message:   message,
		Provider:  provider,
		Cause:     cause,
		Retryable: isRetryableError(errType),
	}
}

// NewValidationError creates a validation error
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(provider, field, message string) *ConfigurationError {
	return &ConfigurationError{
		Provider: provider,
		Field:    field,
		Message:  message,
	}
}

func isRetryableError(errType ErrorType) bool {
	switch errType {
	case ErrTypeRateLimit, ErrTypeTimeout, ErrTypeNetwork:
		return true
	default:
		return false
	}
}

// providerErrorType reports the type of the first ProviderError in err's chain
func providerErrorType(err error) (ErrorType, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Type, true
	}
	return "", false
}

// IsRetryableError checks if an error is retryable
func IsRetryableError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.IsRetryable()
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	t, ok := providerErrorType(err)
	return ok && t == ErrTypeRateLimit
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	if t, ok := providerErrorType(err); ok {
		return t == ErrTypeConfiguration
	}
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	if t, ok := providerErrorType(err); ok {
		return t == ErrTypeValidation
	}
	var ve *ValidationError
	return errors.As(err, &ve)
}
