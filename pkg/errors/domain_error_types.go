package errors

import (
	"errors"
	"fmt"
	"strings"
)

// DomainErrorType represents the category of domain error
type DomainErrorType string

const (
	// DomainValidationError indicates a field or cross-field constraint failure
	DomainValidationError DomainErrorType = "VALIDATION_ERROR"

	// DomainSecurityError indicates a classification policy violation
	DomainSecurityError DomainErrorType = "SECURITY_POLICY_ERROR"

	// DomainNotFoundError indicates a resource was not found
	DomainNotFoundError DomainErrorType = "NOT_FOUND"

	// DomainConflictError indicates a conflict with existing state
	DomainConflictError DomainErrorType = "CONFLICT"

	// DomainInfrastructureError indicates an infrastructure-level failure
	DomainInfrastructureError DomainErrorType = "INFRASTRUCTURE_ERROR"
)

// Codes attached to aggregated validation failures.
const (
	CodeFieldConstraint    = "FIELD_CONSTRAINT_VIOLATION"
	CodeEmbeddingDimension = "EMBEDDING_DIMENSION_MISMATCH"
	CodeEmbeddingTooShort  = "EMBEDDING_TOO_SHORT"
	CodeRestrictedArtifact = "RESTRICTED_REQUIRES_ARTIFACT"
	CodeDigestFormat       = "DIGEST_FORMAT_INVALID"
	CodeEdgeLimit          = "EDGE_LIMIT_EXCEEDED"
)

// DomainError represents a domain-specific error with rich context
type DomainError struct {
	Type       DomainErrorType        `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StatusCode int                    `json:"status_code"`
}

// NewDomainError creates a new domain error
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	return &DomainError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		Details:    make(map[string]interface{}),
		StatusCode: domainErrorTypeToStatusCode(errorType),
	}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// WithCause adds a cause to the error
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	e.Details[key] = value
	return e
}

// Is checks if the error is of a specific type
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

func domainErrorTypeToStatusCode(errorType DomainErrorType) int {
	switch errorType {
	case DomainValidationError:
		return 400
	case DomainSecurityError:
		return 422
	case DomainNotFoundError:
		return 404
	case DomainConflictError:
		return 409
	default:
		return 500
	}
}

// ValidationErrors aggregates every violation found while constructing a
// single value. Each entry is a DomainError whose Cause is the typed
// violation, so errors.As reaches FieldConstraintError,
// EmbeddingDimensionError and SecurityGateError through the aggregate.
type ValidationErrors struct {
	Errors []*DomainError `json:"errors"`
}

// NewValidationErrors creates a new validation errors collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]*DomainError, 0),
	}
}

// Add records a typed violation.
func (v *ValidationErrors) Add(err error) {
	if err == nil {
		return
	}

	var nested *ValidationErrors
	if errors.As(err, &nested) {
		v.Errors = append(v.Errors, nested.Errors...)
		return
	}

	v.Errors = append(v.Errors, toDomainError(err))
}

// AddError adds a pre-existing domain error
func (v *ValidationErrors) AddError(err *DomainError) {
	v.Errors = append(v.Errors, err)
}

// HasErrors returns true if there are validation errors
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// ErrorOrNil returns v when it holds violations and nil otherwise.
func (v *ValidationErrors) ErrorOrNil() error {
	if v == nil || !v.HasErrors() {
		return nil
	}
	return v
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}

	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return fmt.Sprintf("Validation failed: %s", strings.Join(messages, "; "))
}

// Unwrap exposes the individual violations to errors.Is and errors.As.
func (v *ValidationErrors) Unwrap() []error {
	errs := make([]error, len(v.Errors))
	for i, err := range v.Errors {
		errs[i] = err
	}
	return errs
}

// OnlySecurity reports whether every violation is a security gate failure.
func (v *ValidationErrors) OnlySecurity() bool {
	if !v.HasErrors() {
		return false
	}
	for _, err := range v.Errors {
		if err.Type != DomainSecurityError {
			return false
		}
	}
	return true
}

// ToMap converts validation errors to a map keyed by field path
func (v *ValidationErrors) ToMap() map[string][]string {
	result := make(map[string][]string)

	for _, err := range v.Errors {
		field, ok := err.Details["field"].(string)
		if !ok {
			field = "general"
		}
		result[field] = append(result[field], err.Message)
	}

	return result
}

func toDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}

	var (
		fieldErr     *FieldConstraintError
		dimensionErr *EmbeddingDimensionError
		gateErr      *SecurityGateError
	)
	switch {
	case errors.As(err, &fieldErr):
		return NewDomainError(DomainValidationError, fieldErr.code(), fieldErr.Error()).
			WithDetail("field", fieldErr.Field).
			WithDetail("constraint", fieldErr.Constraint).
			WithCause(err)
	case errors.As(err, &dimensionErr):
		code := CodeEmbeddingDimension
		if !dimensionErr.KnownModel {
			code = CodeEmbeddingTooShort
		}
		return NewDomainError(DomainValidationError, code, dimensionErr.Error()).
			WithDetail("field", "embedding").
			WithDetail("model", dimensionErr.Model).
			WithDetail("expected", dimensionErr.Expected).
			WithDetail("actual", dimensionErr.Actual).
			WithCause(err)
	case errors.As(err, &gateErr):
		return NewDomainError(DomainSecurityError, CodeRestrictedArtifact, gateErr.Error()).
			WithDetail("field", "artifact").
			WithCause(err)
	default:
		return NewDomainError(DomainValidationError, CodeFieldConstraint, err.Error()).
			WithCause(err)
	}
}
