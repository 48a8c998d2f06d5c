package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/embedworks/embedd"
	apimiddleware "github.com/embedworks/embedd/infrastructure/api/middleware"
	v1 "github.com/embedworks/embedd/infrastructure/api/v1"
)

// APIServer exposes an embedd Client over HTTP.
type APIServer struct {
	client *embedd.Client
	server *Server
	router chi.Router
	logger *slog.Logger
}

// NewAPIServer creates an APIServer wired to the given client.
func NewAPIServer(client *embedd.Client) *APIServer {
	return &APIServer{
		client: client,
		logger: client.Logger(),
	}
}

// Router returns the chi router for customization before starting.
func (a *APIServer) Router() chi.Router {
	if a.router == nil {
		a.router = chi.NewRouter()
	}
	return a.router
}

// MountRoutes wires up all routes on the router.
func (a *APIServer) MountRoutes() {
	a.mountRoutes(a.Router())
}

func (a *APIServer) mountRoutes(router chi.Router) {
	router.Use(apimiddleware.Logging(a.logger))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// Liveness probes. The root body is part of the wire contract.
	router.Get("/", a.hello)
	router.Get("/healthz", a.health)

	embeddingsRouter := v1.NewEmbeddingsRouter(a.client.Embeddings, a.logger)
	modelsRouter := v1.NewModelsRouter(a.client.ModelName())

	router.Route("/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(a.client.RequestTimeout()))
		r.Mount("/embeddings", embeddingsRouter.Routes())
		r.Mount("/models", modelsRouter.Routes())
	})
}

func (a *APIServer) hello(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Hello, World!"))
}

func (a *APIServer) health(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"model":  a.client.ModelName(),
	})
}

// ListenAndServe starts the HTTP server on the given address and
// blocks until it stops.
func (a *APIServer) ListenAndServe(addr string) error {
	server := NewServer(addr, a.logger)
	a.server = &server

	if a.router != nil {
		server.Router().Mount("/", a.router)
	} else {
		a.mountRoutes(server.Router())
	}

	return server.Start()
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}

// Handler returns the full route tree as an http.Handler for use with
// custom servers and tests.
func (a *APIServer) Handler() http.Handler {
	if a.router == nil {
		a.Router()
		a.MountRoutes()
	}
	return a.router
}
