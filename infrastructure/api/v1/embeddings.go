// Package v1 implements the OpenAI-compatible v1 API endpoints.
package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/embedworks/embedd/application/service"
	"github.com/embedworks/embedd/infrastructure/api/middleware"
	"github.com/embedworks/embedd/infrastructure/api/v1/dto"
)

// EmbeddingsRouter handles POST /v1/embeddings.
type EmbeddingsRouter struct {
	embeddings *service.Embeddings
	logger     *slog.Logger
}

// NewEmbeddingsRouter creates an EmbeddingsRouter.
func NewEmbeddingsRouter(embeddings *service.Embeddings, logger *slog.Logger) *EmbeddingsRouter {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingsRouter{
		embeddings: embeddings,
		logger:     logger,
	}
}

// Routes returns the chi router for the embeddings endpoint.
func (r *EmbeddingsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Create)

	return router
}

// Create handles POST /v1/embeddings: decode, embed, normalize, and
// wrap the result in the OpenAI response envelope. Requests that fail
// decoding never reach the embedding provider.
func (r *EmbeddingsRouter) Create(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.EmbeddingsRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewDecodeError("request body is not valid JSON"), r.logger)
		return
	}

	inputs, err := body.Inputs()
	if err != nil {
		middleware.WriteError(w, req, middleware.NewDecodeError(err.Error()), r.logger)
		return
	}
	if len(inputs) == 0 {
		middleware.WriteError(w, req, middleware.NewDecodeError("input must contain at least one text"), r.logger)
		return
	}

	vectors, err := r.embeddings.Generate(ctx, inputs)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.NewEmbeddingsResponse(vectors, body.Model))
}
