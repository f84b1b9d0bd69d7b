// Package api provides the local HTTP adapter for the fitquest engine.
// Every user-scoped route lives under /api/users/{userID}.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fitquest/fitquest/internal/app/gamification"
	"github.com/fitquest/fitquest/internal/health"
)

// Version is reported by /api/version.
var Version = "dev"

// Server is the fitquest HTTP API server.
type Server struct {
	registry       *gamification.Registry
	health         *health.Checker
	corsOrigins    []string
	metricsEnabled bool
	now            func() time.Time
}

// NewServer creates a new API server over the per-user engine registry.
func NewServer(reg *gamification.Registry) *Server {
	return &Server{
		registry:    reg,
		corsOrigins: []string{"*"},
		now:         time.Now,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHealth makes /health report the checker's latest results.
func (s *Server) SetHealth(c *health.Checker) { s.health = c }

// SetCORSOrigins sets the allowed origins. Empty keeps the default ("*").
func (s *Server) SetCORSOrigins(origins []string) {
	if len(origins) > 0 {
		s.corsOrigins = origins
	}
}

// SetClock overrides the clock used for streak days.
func (s *Server) SetClock(now func() time.Time) { s.now = now }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": Version,
		})
	})

	r.Get("/api/catalog", s.handleCatalog)

	r.Route("/api/users/{userID}", func(r chi.Router) {
		r.Post("/xp", s.handleAwardXP)
		r.Get("/history", s.handleHistory)
		r.Get("/profile", s.handleProfile)
		r.Get("/level", s.handleLevel)

		r.Get("/streaks", s.handleStreaks)
		r.Post("/streaks/{category}", s.handleUpdateStreak)

		r.Get("/badges", s.handleBadges)

		r.Get("/loot", s.handleLoot)
		r.Post("/loot/{lootID}/use", s.handleUseLoot)

		r.Get("/feedback", s.handlePeekFeedback)
		r.Get("/feedback/pending", s.handlePendingFeedback)
		r.Post("/feedback/dismiss", s.handleDismissFeedback)

		r.Get("/challenges", s.handleChallenges)
		r.Post("/challenges", s.handleGenerateChallenges)
		r.Post("/challenges/progress", s.handleChallengeProgress)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.health.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": s.health.Statuses(),
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response: {"error": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// corsMiddleware adds CORS headers for the configured origins.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := s.allowedOrigin(r.Header.Get("Origin")); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowedOrigin(origin string) string {
	for _, o := range s.corsOrigins {
		if o == "*" {
			return "*"
		}
		if o == origin {
			return origin
		}
	}
	return ""
}
