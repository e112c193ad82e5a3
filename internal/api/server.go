package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/answer"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/auth"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/config"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/pipeline"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/session"
)

// Server is the HTTP API for document Q&A with page citations.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	answers      *answer.Service
	sessions     *session.Manager
	users        auth.Provider
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, answers *answer.Service, sessions *session.Manager, users auth.Provider, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		answers:      answers,
		sessions:     sessions,
		users:        users,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Post("/api/login", s.handleLogin)

	// Session-authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(SessionAuth(s.sessions))

		r.Post("/api/logout", s.handleLogout)
		r.Get("/api/account", s.handleAccount)

		r.Post("/api/documents", s.handleUpload)
		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/jobs/{jobID}", s.handleJobStatus)
		r.Delete("/api/documents/jobs/{jobID}", s.handleJobCancel)
		r.Get("/api/documents/{name}", s.handleDocumentDetail)
		r.Delete("/api/documents/{name}", s.handleDeleteDocument)

		r.Post("/api/ask", s.handleAsk)
		r.Get("/api/history", s.handleHistory)
		r.Delete("/api/history", s.handleClearHistory)
		r.Get("/api/history/export", s.handleExportHistory)

		r.Get("/api/stats", s.handleStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
