// Package dto defines the wire types for the v1 API.
package dto

import (
	"encoding/json"
	"errors"
)

// ErrInvalidInput indicates an input field that is neither a string
// nor an array of strings.
var ErrInvalidInput = errors.New("input must be a string or an array of strings")

// EmbeddingsRequest mirrors the OpenAI embeddings request body. Model
// is echoed back verbatim and never validated against a model list;
// User is accepted for compatibility and otherwise unused.
type EmbeddingsRequest struct {
	Model string          `json:"model"`
	Input json.RawMessage `json:"input"`
	User  string          `json:"user,omitempty"`
}

// Inputs decodes the polymorphic input field: a single string or an
// array of strings, per the OpenAI wire format.
func (r EmbeddingsRequest) Inputs() ([]string, error) {
	if len(r.Input) == 0 || string(r.Input) == "null" {
		return nil, errors.New("input is required")
	}

	var single string
	if err := json.Unmarshal(r.Input, &single); err == nil {
		return []string{single}, nil
	}

	var many []string
	if err := json.Unmarshal(r.Input, &many); err == nil {
		return many, nil
	}

	return nil, ErrInvalidInput
}

// Embedding is one entry of the response data array.
type Embedding struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// Usage reports token accounting. The server does not tokenize, so
// both counts are always zero.
type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// EmbeddingsResponse is the OpenAI-compatible response envelope.
type EmbeddingsResponse struct {
	Object string      `json:"object"`
	Data   []Embedding `json:"data"`
	Model  string      `json:"model"`
	Usage  Usage       `json:"usage"`
}

// NewEmbeddingsResponse assembles the response envelope: one data
// entry per vector with its zero-based batch position, the model name
// echoed verbatim.
func NewEmbeddingsResponse(vectors [][]float64, model string) EmbeddingsResponse {
	data := make([]Embedding, len(vectors))
	for i, vec := range vectors {
		data[i] = Embedding{
			Object:    "embedding",
			Index:     i,
			Embedding: vec,
		}
	}

	return EmbeddingsResponse{
		Object: "list",
		Data:   data,
		Model:  model,
	}
}
