package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/embedworks/embedd/infrastructure/api/middleware"
	"github.com/embedworks/embedd/infrastructure/api/v1/dto"
)

// ModelsRouter handles GET /v1/models.
type ModelsRouter struct {
	modelName string
}

// NewModelsRouter creates a ModelsRouter advertising the configured
// model.
func NewModelsRouter(modelName string) *ModelsRouter {
	return &ModelsRouter{modelName: modelName}
}

// Routes returns the chi router for the models endpoint.
func (r *ModelsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)

	return router
}

// List handles GET /v1/models.
func (r *ModelsRouter) List(w http.ResponseWriter, req *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, dto.NewModelsResponse(r.modelName))
}
