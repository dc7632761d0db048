// Package http serves the budget ledger as a JSON API.
//
// This file implements the Builder Pattern for constructing JSON responses
// and maps ledger errors onto status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budget/internal/core"
	"budget/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
	cookies    []*http.Cookie
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Cookie(c *http.Cookie) *JSONResponseBuilder {
	b.cookies = append(b.cookies, c)
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	for _, c := range b.cookies {
		http.SetCookie(w, c)
	}

	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(payload, '\n'))
}

// OK writes v with status 200.
func OK(w http.ResponseWriter, v any) {
	NewJSONResponse().Body(v).Write(w)
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a response carrying {"error": message}.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

// TooManyRequestsError creates a 429 response with Retry-After.
func TooManyRequestsError(retryAfter string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Header("Retry-After", retryAfter)
}

// StatusFor maps a ledger error kind onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrBadFormat),
		errors.Is(err, core.ErrSumMismatch),
		errors.Is(err, core.ErrNotPositive):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorTypeFor names the log category of an error status.
func errorTypeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return log.ErrorTypeValidation
	case http.StatusUnauthorized:
		return log.ErrorTypeAuth
	case http.StatusNotFound:
		return log.ErrorTypeNotFound
	case http.StatusConflict:
		return log.ErrorTypeConflict
	default:
		return log.ErrorTypeInternal
	}
}

// writeError renders err with its mapped status. Internal errors are logged
// and replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := StatusFor(err)
	logger := log.FromContext(r.Context())

	message := err.Error()
	if status == http.StatusInternalServerError {
		fields := log.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent(), r.Referer()).
			WithErrorType(errorTypeFor(status))
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, logger.Component(), op, fields)
		message = "internal error"
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			log.FieldError, err,
			log.FieldOperation, op,
			log.FieldStatusCode, status,
			log.FieldErrorType, errorTypeFor(status))
	}

	ErrorResponse(status, message).Write(w)
}
