// Package provider contains embedding model integrations.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnsupportedOperation indicates the provider does not implement the
// requested capability.
var ErrUnsupportedOperation = errors.New("provider: unsupported operation")

// Embedder generates embedding vectors for batches of text.
type Embedder interface {
	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, req EmbeddingRequest) (EmbeddingResponse, error)

	// Close releases provider resources.
	Close() error
}

// EmbeddingRequest is a batch of texts to embed.
type EmbeddingRequest struct {
	texts []string
}

// NewEmbeddingRequest creates an EmbeddingRequest for the given texts.
func NewEmbeddingRequest(texts []string) EmbeddingRequest {
	copied := make([]string, len(texts))
	copy(copied, texts)
	return EmbeddingRequest{texts: copied}
}

// Texts returns the texts to embed, in request order.
func (r EmbeddingRequest) Texts() []string {
	copied := make([]string, len(r.texts))
	copy(copied, r.texts)
	return copied
}

// Usage reports token accounting for a provider call.
type Usage struct {
	promptTokens     int
	completionTokens int
	totalTokens      int
}

// NewUsage creates a Usage record.
func NewUsage(prompt, completion, total int) Usage {
	return Usage{
		promptTokens:     prompt,
		completionTokens: completion,
		totalTokens:      total,
	}
}

// PromptTokens returns the prompt token count.
func (u Usage) PromptTokens() int { return u.promptTokens }

// CompletionTokens returns the completion token count.
func (u Usage) CompletionTokens() int { return u.completionTokens }

// TotalTokens returns the total token count.
func (u Usage) TotalTokens() int { return u.totalTokens }

// EmbeddingResponse holds one vector per requested text.
type EmbeddingResponse struct {
	embeddings [][]float64
	usage      Usage
}

// NewEmbeddingResponse creates an EmbeddingResponse.
func NewEmbeddingResponse(embeddings [][]float64, usage Usage) EmbeddingResponse {
	return EmbeddingResponse{embeddings: embeddings, usage: usage}
}

// Embeddings returns the vectors in request order.
func (r EmbeddingResponse) Embeddings() [][]float64 {
	return r.embeddings
}

// Usage returns the token accounting for the call.
func (r EmbeddingResponse) Usage() Usage {
	return r.usage
}

// ProviderError wraps a failure from an embedding backend with the
// operation that failed and the upstream status code, if any.
type ProviderError struct {
	operation  string
	statusCode int
	message    string
	cause      error
}

// NewProviderError creates a ProviderError.
func NewProviderError(operation string, statusCode int, message string, cause error) *ProviderError {
	return &ProviderError{
		operation:  operation,
		statusCode: statusCode,
		message:    message,
		cause:      cause,
	}
}

// Operation returns the operation that failed.
func (e *ProviderError) Operation() string { return e.operation }

// StatusCode returns the upstream HTTP status code, or 0 if none.
func (e *ProviderError) StatusCode() int { return e.statusCode }

// Message returns the failure description.
func (e *ProviderError) Message() string { return e.message }

func (e *ProviderError) Error() string {
	if e.statusCode > 0 {
		return fmt.Sprintf("provider %s failed (status %d): %s", e.operation, e.statusCode, e.message)
	}
	return fmt.Sprintf("provider %s failed: %s", e.operation, e.message)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error { return e.cause }
