// Package api exposes the document pipeline over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/expenselens/backend/internal/config"
	"github.com/expenselens/backend/internal/model"
	"github.com/expenselens/backend/internal/service"
)

// Server is the HTTP API server.
type Server struct {
	cfg       config.ServerConfig
	documents *service.DocumentService
}

// NewServer creates the API server around the document service.
func NewServer(cfg config.ServerConfig, documents *service.DocumentService) *Server {
	return &Server{cfg: cfg, documents: documents}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/documents", s.handleListDocuments)
		r.Post("/documents", s.handleIngest)
		r.Post("/documents/async", s.handleIngestAsync)
		r.Get("/documents/jobs/{jobID}", s.handleGetJob)
		r.Get("/documents/{id}", s.handleGetDocument)
		r.Delete("/documents/{id}", s.handleDeleteDocument)
		r.Post("/documents/{id}/resolve", s.handleResolve)
		r.Post("/documents/{id}/payment", s.handleSetPaid)
		r.Get("/recurring", s.handleRecurring)
	})

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeServiceError maps domain errors onto HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var answerErr *model.ReviewAnswerError
	switch {
	case errors.Is(err, model.ErrDocumentNotFound):
		writeError(w, http.StatusNotFound, "document not found")
	case errors.Is(err, model.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "document was modified concurrently, re-fetch and retry")
	case errors.As(err, &answerErr):
		writeError(w, http.StatusUnprocessableEntity, answerErr.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
