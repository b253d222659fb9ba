package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/liftplan/internal/jobs"
	"github.com/claude/liftplan/internal/models"
	"github.com/claude/liftplan/internal/pipeline"
	"github.com/claude/liftplan/internal/storage"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db     *storage.DB
	jobs   *jobs.Manager
	pipe   *pipeline.Pipeline
	tm     models.TimeModel
	log    *slog.Logger
	apiKey string
	router chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, mgr *jobs.Manager, pipe *pipeline.Pipeline, tm models.TimeModel, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		db:     db,
		jobs:   mgr,
		pipe:   pipe,
		tm:     tm,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	// Mutating endpoints (API key required)
	s.router.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/api/v1/programs/generate", s.handleGenerate)
		r.Post("/api/v1/jobs/{id}/cancel", s.handleCancelJob)
	})

	// Polling and read endpoints
	s.router.Get("/api/v1/jobs/{id}", s.handleGetJob)
	s.router.Get("/api/v1/programs/{id}", s.handleGetProgram)
	s.router.Get("/api/v1/programs", s.handleListPrograms)
	s.router.Get("/api/v1/exercises", s.handleListExercises)
	s.router.Post("/api/v1/sessions/estimate", s.handleEstimateSession)
}

// Mount attaches an extra handler subtree, used for the MCP transport.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}
