// Package api exposes the index and ledger operations over HTTP for agents
// that prefer a service surface to the CLI.
package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/mdledger/internal/config"
	"github.com/dgallion1/mdledger/internal/index"
	"github.com/dgallion1/mdledger/internal/ledger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for mdledger.
type Server struct {
	router  chi.Router
	indexer *index.Indexer
	ledger  *ledger.Service
	log     *slog.Logger
	cfg     config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(ix *index.Indexer, led *ledger.Service, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		indexer: ix,
		ledger:  led,
		log:     log,
		cfg:     cfg,
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

	// API endpoints; authenticated only when a key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/index", s.handleIndex)
		r.Get("/api/headers", s.handleHeaders)
		r.Get("/api/sections", s.handleFindSection)
		r.Get("/api/sections/content", s.handleSectionContent)
		r.Get("/api/content", s.handleFindContent)

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/rows", s.handleQueryRows)
		r.Post("/api/rows/{rowID}", s.handleUpdateRow)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
