// Package middleware provides HTTP middleware and response helpers for
// the API server.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/embedworks/embedd/application/service"
	"github.com/embedworks/embedd/domain/embedding"
)

// Error type identifiers carried in the error envelope. They follow
// the OpenAI error body convention so existing clients can switch on
// them.
const (
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeInference      = "inference_error"
	ErrorTypeConfiguration  = "configuration_error"
	ErrorTypeTimeout        = "timeout_error"
	ErrorTypeInternal       = "internal_error"
)

// DecodeError reports a request body that failed decoding or schema
// validation. The pipeline is never invoked for such requests.
type DecodeError struct {
	message string
}

// NewDecodeError creates a DecodeError with a client-safe message.
func NewDecodeError(message string) *DecodeError {
	return &DecodeError{message: message}
}

// Message returns the client-safe description.
func (e *DecodeError) Message() string { return e.message }

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode request: %s", e.message)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to an HTTP status and writes the JSON error
// envelope. Internal detail is logged, never sent to the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	status, kind, message := classify(err)

	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}

	WriteJSON(w, status, errorBody{Error: errorDetail{
		Message: message,
		Type:    kind,
	}})
}

// classify maps pipeline errors onto status codes and client-safe
// messages.
func classify(err error) (status int, kind, message string) {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return http.StatusBadRequest, ErrorTypeInvalidRequest, decodeErr.Message()
	}

	if errors.Is(err, service.ErrEmptyInput) {
		return http.StatusBadRequest, ErrorTypeInvalidRequest, "input must contain at least one text"
	}

	var dimErr *embedding.DimensionError
	if errors.As(err, &dimErr) {
		return http.StatusInternalServerError, ErrorTypeConfiguration,
			fmt.Sprintf("model output has %d dimensions but the server is configured for %d", dimErr.Got, dimErr.Want)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, ErrorTypeTimeout, "embedding generation timed out"
	}

	if errors.Is(err, service.ErrInference) {
		return http.StatusBadGateway, ErrorTypeInference, "embedding inference failed"
	}

	return http.StatusInternalServerError, ErrorTypeInternal, "internal server error"
}
