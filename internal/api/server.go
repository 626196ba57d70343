package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/slidestream/internal/config"
	"github.com/dgallion1/slidestream/internal/session"
	"github.com/dgallion1/slidestream/internal/stats"
)

// Server is the HTTP API over parse sessions.
type Server struct {
	router chi.Router
	store  *session.Store
	timing *stats.Set
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server. timing may be nil, in
// which case the parse stats endpoint reports unavailable.
func NewServer(store *session.Store, timing *stats.Set, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		store:  store,
		timing: timing,
		log:    log,
		cfg:    cfg,
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

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/sessions", s.handleCreateSession)
		r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/chunks", s.handleChunk)
			r.Post("/stream", s.handleStream)
			r.Post("/finalize", s.handleFinalize)
			r.Post("/reset", s.handleReset)
			r.Post("/clear-live", s.handleClearLive)
			r.Get("/slides", s.handleSlides)
			r.Get("/markdown", s.handleMarkdown)
			r.Get("/preview", s.handlePreview)
		})

		r.Get("/api/stats/parse", s.handleParseStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.store.Len(),
	})
}
