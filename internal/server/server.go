// Package server exposes the geomarketing maps and statistics over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/alpenmark/geomarket/internal/config"
	"github.com/alpenmark/geomarket/internal/maprender"
	"github.com/alpenmark/geomarket/internal/store"
)

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	store store.Store
	cache *maprender.RenderCache
	cfg   config.Config
}

// New creates a Server. The render cache is sized from the server config.
func New(st store.Store, cfg config.Config) *Server {
	entries := cfg.Server.MapCacheEntries
	if entries <= 0 {
		entries = 16
	}
	ttl := time.Duration(cfg.Server.MapCacheTTLMins) * time.Minute
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &Server{
		store: st,
		cache: maprender.NewRenderCache(entries, ttl),
		cfg:   cfg,
	}
}

// Cache exposes the render cache so imports can invalidate it.
func (s *Server) Cache() *maprender.RenderCache { return s.cache }

// Router assembles the chi router with middleware and all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := s.cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	if s.cfg.Server.RateLimitRPS > 0 {
		r.Use(rateLimiter(s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst))
	}

	r.Get("/", s.handleIndex)
	r.Get("/get_map", s.handleGetMap)
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/statistics", s.handleStatistics)
		r.Get("/statistics/export", s.handleStatisticsExport)
		r.Get("/segments", s.handleSegments)
		r.Get("/municipalities/{bfs}", s.handleMunicipality)
		r.Get("/import/status", s.handleImportStatus)
		r.Get("/cache/stats", s.handleCacheStats)
	})

	return r
}
