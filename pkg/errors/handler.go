package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error     bool                   `json:"error"`
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Fields    map[string][]string    `json:"fields,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// ErrorHandler maps errors to HTTP responses
type ErrorHandler struct {
	logger *zap.Logger
	debug  bool
}

// NewErrorHandler creates a new error handler. In debug mode internal
// messages and stack traces are returned to the client.
func NewErrorHandler(logger *zap.Logger, debug bool) *ErrorHandler {
	return &ErrorHandler{logger: logger, debug: debug}
}

// Resolve maps err to a status and response body without writing
// anything. Node rejections are 400, or 422 when the security gate is the
// only failure.
func Resolve(err error, debug bool) (int, ErrorResponse) {
	var (
		verrs     *ValidationErrors
		domainErr *DomainError
		fieldErr  *FieldConstraintError
	)

	// a lone field violation is reported like an aggregate of one
	if !errors.As(err, &verrs) && errors.As(err, &fieldErr) {
		verrs = NewValidationErrors()
		verrs.Add(fieldErr)
	}

	switch {
	case verrs != nil && verrs.HasErrors():
		resp := ErrorResponse{
			Error:   true,
			Type:    string(DomainValidationError),
			Message: verrs.Error(),
			Code:    verrs.Errors[0].Code,
			Fields:  verrs.ToMap(),
		}
		if verrs.OnlySecurity() {
			resp.Type = string(DomainSecurityError)
			return http.StatusUnprocessableEntity, resp
		}
		return http.StatusBadRequest, resp

	case errors.As(err, &domainErr):
		return domainErr.StatusCode, ErrorResponse{
			Error:   true,
			Type:    string(domainErr.Type),
			Message: domainErr.Message,
			Code:    domainErr.Code,
			Details: domainErr.Details,
		}

	case GetAppError(err) != nil:
		appErr := GetAppError(err)
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		resp := ErrorResponse{
			Error:   true,
			Type:    string(appErr.Type),
			Message: appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		}
		if debug && appErr.StackTrace != "" {
			details := make(map[string]interface{}, len(resp.Details)+1)
			for k, v := range resp.Details {
				details[k] = v
			}
			details["stack_trace"] = appErr.StackTrace
			resp.Details = details
		}
		return status, resp
	}

	resp := ErrorResponse{
		Error:   true,
		Type:    string(ErrorTypeInternal),
		Message: "An internal error occurred",
	}
	if debug {
		resp.Message = err.Error()
	}
	return http.StatusInternalServerError, resp
}

// Handle writes the response for err and logs it at a level matching the
// status.
func (h *ErrorHandler) Handle(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	status, resp := Resolve(err, h.debug)
	resp.RequestID = r.Header.Get("X-Request-ID")

	fields := []zap.Field{
		zap.String("type", resp.Type),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("request_id", resp.RequestID),
	}
	if resp.Code != "" {
		fields = append(fields, zap.String("code", resp.Code))
	}

	level := zapcore.InfoLevel
	switch {
	case status >= 500:
		level = zapcore.ErrorLevel
		fields = append(fields, zap.Error(err))
	case status >= 400:
		level = zapcore.WarnLevel
	}
	if len(resp.Fields) > 0 {
		fields = append(fields, zap.Int("violations", len(resp.Fields)))
	}
	h.logger.Log(level, "Request failed", fields...)

	h.sendJSON(w, status, resp)
}

func (h *ErrorHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode error response", zap.Error(err))
	}
}

// Middleware returns an HTTP middleware that converts panics into 500s
func (h *ErrorHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.Handle(w, r, NewInternalError(fmt.Sprintf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
