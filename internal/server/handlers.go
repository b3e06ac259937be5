package server

import (
	"io"
	"net/http"
)

const version = "1.0.0"

// DefaultGreeting is the body served at the root path
const DefaultGreeting = "Hello from Steepan's DevOps Project Test.....!"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	greeting string
}

// NewHandler creates a new handler serving the given greeting.
// An empty greeting falls back to DefaultGreeting.
func NewHandler(greeting string) *Handler {
	if greeting == "" {
		greeting = DefaultGreeting
	}
	return &Handler{greeting: greeting}
}

// Greeting returns the body served at "/"
func (h *Handler) Greeting() string {
	return h.greeting
}

// HandleHome serves the greeting at the root path
func (h *Handler) HandleHome(w http.ResponseWriter, r *http.Request) {
	// Only handle exact root path
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, h.greeting); err != nil {
		httpLogger().WarnContext(r.Context(), "write greeting failed",
			"operation", "home",
			"request_id", requestIDFromContext(r.Context()),
			"error", err.Error(),
		)
	}
}

// HandleHealth handles the health check endpoint
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: version,
	})
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

func (h *Handler) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}
