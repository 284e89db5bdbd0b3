package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func handle(t *testing.T, h *ErrorHandler, err error) (int, ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/nodes", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()

	h.Handle(rec, req, err)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	return rec.Code, body
}

func TestErrorHandler_Handle(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)

	mixed := NewValidationErrors()
	mixed.Add(&SecurityGateError{})
	mixed.Add(&EmbeddingDimensionError{Model: "bge-m3-v1.5", Expected: 1024, Actual: 10, KnownModel: true})

	gateOnly := NewValidationErrors()
	gateOnly.Add(&SecurityGateError{})

	tests := []struct {
		name     string
		err      error
		status   int
		errType  string
		code     string
		hasField string
	}{
		{
			name:     "aggregate of violations",
			err:      mixed,
			status:   http.StatusBadRequest,
			errType:  string(DomainValidationError),
			code:     CodeRestrictedArtifact,
			hasField: "embedding",
		},
		{
			name:     "security gate alone",
			err:      gateOnly,
			status:   http.StatusUnprocessableEntity,
			errType:  string(DomainSecurityError),
			code:     CodeRestrictedArtifact,
			hasField: "artifact",
		},
		{
			name:     "lone field violation",
			err:      fmt.Errorf("create: %w", &FieldConstraintError{Field: "id", Constraint: "required"}),
			status:   http.StatusBadRequest,
			errType:  string(DomainValidationError),
			code:     CodeFieldConstraint,
			hasField: "id",
		},
		{
			name:    "not found",
			err:     NewNotFoundError("memory node"),
			status:  http.StatusNotFound,
			errType: string(ErrorTypeNotFound),
		},
		{
			name:    "conflict",
			err:     NewConflictError("memory node exists"),
			status:  http.StatusConflict,
			errType: string(ErrorTypeConflict),
		},
		{
			name:    "unknown error",
			err:     errors.New("disk on fire"),
			status:  http.StatusInternalServerError,
			errType: string(ErrorTypeInternal),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := handle(t, h, tt.err)

			assert.Equal(t, tt.status, status)
			assert.True(t, body.Error)
			assert.Equal(t, tt.errType, body.Type)
			assert.Equal(t, "req-1", body.RequestID)
			if tt.code != "" {
				assert.Equal(t, tt.code, body.Code)
			}
			if tt.hasField != "" {
				assert.Contains(t, body.Fields, tt.hasField)
			}
		})
	}
}

func TestErrorHandler_HidesInternalMessageOutsideDebug(t *testing.T) {
	err := errors.New("connection refused to 10.0.0.4")

	_, body := handle(t, NewErrorHandler(zap.NewNop(), false), err)
	assert.Equal(t, "An internal error occurred", body.Message)

	_, body = handle(t, NewErrorHandler(zap.NewNop(), true), err)
	assert.Equal(t, err.Error(), body.Message)
}

func TestErrorHandler_MiddlewareRecoversPanics(t *testing.T) {
	h := NewErrorHandler(zap.NewNop(), false)
	panicky := h.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	panicky.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestValidationErrors_FlattensNested(t *testing.T) {
	inner := NewValidationErrors()
	inner.Add(&FieldConstraintError{Field: "content_summary", Constraint: "min", Param: "10", Value: 3, LengthOnly: true})

	outer := NewValidationErrors()
	outer.Add(inner)
	outer.Add(nil)
	outer.Add(&FieldConstraintError{Field: "provenance.contributors[0].contribution_hash", Constraint: "hexadecimal", Value: 64, LengthOnly: true})

	require.Len(t, outer.Errors, 2)
	assert.False(t, outer.OnlySecurity())
	assert.Equal(t, CodeDigestFormat, outer.Errors[1].Code)
	assert.Equal(t, "content_summary: length must be at least 10 (got length 3)", outer.Errors[0].Message)
	assert.Nil(t, NewValidationErrors().ErrorOrNil())
}
