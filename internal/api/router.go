package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/svipsc/ranking/internal/models"
	"github.com/svipsc/ranking/internal/rankings"
	"github.com/svipsc/ranking/internal/site"
)

// Options configures the HTTP server
type Options struct {
	Registry       *models.Registry
	Source         rankings.Source
	Logger         *zap.Logger
	DataDir        string // served under /data/ when set
	AllowedOrigins []string
}

// Server holds the HTTP server dependencies
type Server struct {
	overview *site.Overview
	ranking  *site.Ranking
	renderer *site.Renderer
	logger   *zap.Logger
	opts     Options
	router   chi.Router
}

// New creates a new HTTP server
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Registry == nil {
		opts.Registry = models.DefaultRegistry()
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("api: a ranking source is required")
	}

	renderer, err := site.NewRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		overview: site.NewOverview(opts.Registry, opts.Source, opts.Logger),
		ranking:  site.NewRanking(opts.Registry, opts.Source, opts.Logger),
		renderer: renderer,
		logger:   opts.Logger,
		opts:     opts,
		router:   chi.NewRouter(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	// Pages
	s.router.Get("/", s.handleOverview)
	s.router.Get("/ranking", s.handleRanking)

	// Old static-site paths
	s.router.Get("/index.html", legacyRedirect("/"))
	s.router.Get("/ranking.html", legacyRedirect("/ranking"))

	s.router.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))

		r.Get("/divisions", s.handleGetDivisions)
		r.Get("/divisions/{division}/rankings", s.handleGetRankings)
	})

	// Raw ranking files
	if s.opts.DataDir != "" {
		FileServer(s.router, "/data", http.Dir(s.opts.DataDir))
	}

	// Health check
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// --- Response helpers ---

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
