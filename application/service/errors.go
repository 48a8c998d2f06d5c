package service

import (
	"errors"
	"fmt"
)

// ErrEmptyInput indicates a request with no texts to embed. The
// provider is never invoked for such a request.
var ErrEmptyInput = errors.New("embeddings: input must contain at least one text")

// ErrInference tags provider failures on well-formed input so callers
// can match them with errors.Is.
var ErrInference = errors.New("embeddings: inference failed")

// InferenceError wraps a provider failure during embedding generation.
// It fails the request, never the process.
type InferenceError struct {
	cause error
}

// NewInferenceError wraps cause as an InferenceError.
func NewInferenceError(cause error) *InferenceError {
	return &InferenceError{cause: cause}
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("%v: %v", ErrInference, e.cause)
}

// Unwrap supports errors.Is against both ErrInference and the cause.
func (e *InferenceError) Unwrap() []error {
	return []error{ErrInference, e.cause}
}
