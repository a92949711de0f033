package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docsect/internal/config"
	"github.com/dgallion1/docsect/internal/index"
	"github.com/dgallion1/docsect/internal/outline"
	"github.com/dgallion1/docsect/internal/section"
	"github.com/dgallion1/docsect/internal/stats"
	"github.com/dgallion1/docsect/internal/vault"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for docsect.
type Server struct {
	router   chi.Router
	sections *section.Service
	store    vault.Store
	cache    *outline.Cache
	indexer  *index.Indexer
	stats    *stats.Recorder
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(sections *section.Service, store vault.Store, cache *outline.Cache, indexer *index.Indexer, rec *stats.Recorder, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sections: sections,
		store:    store,
		cache:    cache,
		indexer:  indexer,
		stats:    rec,
		log:      log,
		cfg:      cfg,
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

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.DocsectAPIKey, s.log))

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/sections", s.handleSections)
		r.Post("/api/index", s.handleReindex)
		r.Get("/api/stats/extract", s.handleExtractStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"indexed": s.cache.Len(),
	})
}
