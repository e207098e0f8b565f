package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupHTTPRoutes configures all HTTP handlers
func (s *Server) setupHTTPRoutes() {
	s.mux.HandleFunc("/health", s.corsMiddleware(s.HandleHealth))
	s.mux.HandleFunc("/metrics", s.corsMiddleware(s.handleMetrics()))
	s.mux.HandleFunc("/api/process", s.corsMiddleware(s.HandleProcess))
	s.mux.HandleFunc("/api/route", s.corsMiddleware(s.HandleRoute))
	s.mux.HandleFunc("/api/status", s.corsMiddleware(s.HandleStatus))
	s.mux.HandleFunc("/api/domains/{id}", s.corsMiddleware(s.HandleDomain))
	s.mux.HandleFunc("/api/domains", s.corsMiddleware(s.HandleDomains))
	s.mux.HandleFunc("/api/stats", s.corsMiddleware(s.HandleStats))
	s.mux.HandleFunc("/api/snapshots", s.corsMiddleware(s.HandleSnapshots))
	s.mux.HandleFunc("/ws/events", s.corsMiddleware(s.HandleEventsWebSocket))
}

// handleMetrics serves the Prometheus registry backing the monitor.
func (s *Server) handleMetrics() http.HandlerFunc {
	gatherer := s.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	h := promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	return func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	}
}

// corsMiddleware adds CORS headers to HTTP responses using configured allowed origins.
// Uses the same origin validation as WebSocket connections (server.allowed_origins config).
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// If origin is present and allowed by config, set CORS headers
		if origin != "" && s.checkOrigin(r) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}
