package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/steepan/devops-project/internal/logger"
)

// NewRouter registers the service routes and middleware stack.
// access may be nil, in which case only slog records are emitted.
func NewRouter(handler *Handler, access *logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware(access))
	r.Use(middleware.GetHead)

	r.NotFound(handler.handleNotFound)
	r.MethodNotAllowed(handler.handleMethodNotAllowed)

	r.Get("/", handler.HandleHome)
	r.Get("/health", handler.HandleHealth)

	return r
}
