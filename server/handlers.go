package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/powerautomation/domainmcp/internal/version"
	"github.com/powerautomation/domainmcp/monitor"
)

// HandleHealth reports liveness plus basic host state.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.Get()

	health := map[string]interface{}{
		"status":        "ok",
		"version":       versionInfo.Version,
		"commit":        versionInfo.CommitHash,
		"build_time":    versionInfo.BuildTime,
		"clients":       s.ClientCount(),
		"total_domains": len(s.registry.Domains()),
	}

	writeJSON(w, http.StatusOK, health)
}

// HandleProcess routes a request and executes the matched domain handlers.
func (s *Server) HandleProcess(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req processRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	if strings.TrimSpace(req.RequestText) == "" {
		writeError(w, http.StatusBadRequest, "request_text is required")
		return
	}

	results, err := s.registry.Process(r.Context(), req.RequestText, req.Context, req.MaxDomains)
	if err != nil {
		s.logger.Warnw("Process request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, processResponse{
		Results: results,
		Count:   len(results),
	})
}

// HandleRoute scores a request against the registry without executing
// any handler.
func (s *Server) HandleRoute(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req routeRequest
	if err := readJSON(w, r, &req); err != nil {
		return
	}
	if strings.TrimSpace(req.RequestText) == "" {
		writeError(w, http.StatusBadRequest, "request_text is required")
		return
	}

	matches := s.registry.Route(req.RequestText, req.MaxDomains)

	writeJSON(w, http.StatusOK, routeResponse{
		Matches: matches,
		Count:   len(matches),
	})
}

// HandleStatus reports per-domain health, configuration, and performance.
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	writeJSON(w, http.StatusOK, s.registry.Status(r.Context()))
}

// HandleDomains lists registered domains in registration order.
func (s *Server) HandleDomains(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	infos := s.registry.Domains()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"domains": infos,
		"count":   len(infos),
	})
}

// HandleDomain returns one domain's registration info and performance.
func (s *Server) HandleDomain(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	id := r.PathValue("id")
	info, ok := s.registry.Domain(id)
	if !ok {
		writeError(w, http.StatusNotFound, "domain not found: "+id)
		return
	}

	resp := domainResponse{Info: info}
	if stats, ok := s.registry.Monitor().DomainStatistics(id); ok {
		resp.Performance = &stats
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleStats aggregates monitor, cache, and system statistics.
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	resp := statsResponse{
		Overall: s.registry.Monitor().OverallStatistics(),
		Cache:   s.registry.CacheStats(),
	}

	system, err := monitor.CollectSystemMetrics()
	if err != nil {
		s.logger.Debugw("Failed to collect system metrics", "error", err)
	} else {
		resp.System = system
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleSnapshots lists persisted registry snapshots, newest first.
// ?limit= caps the page size (default 20).
func (s *Server) HandleSnapshots(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	if s.snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshot store not configured")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	snapshots, err := s.snapshots.List(limit)
	if err != nil {
		s.logger.Warnw("Failed to list snapshots", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

// HandleEventsWebSocket upgrades the connection and subscribes the client
// to processed-request events.
func (s *Server) HandleEventsWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.getEventsUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Errorw("WebSocket upgrade failed", "error", err)
		return
	}

	client := newClient(s, conn, r.RemoteAddr)

	// Send version info BEFORE starting writePump (avoid concurrent writes)
	versionInfo := version.Get()
	greeting := versionMessage{
		Type:      "version",
		Version:   versionInfo.Version,
		Commit:    versionInfo.Short(),
		BuildTime: versionInfo.BuildTime,
	}
	if err := conn.WriteJSON(greeting); err != nil {
		s.logger.Debugw("Failed to send version info",
			"client_id", client.id,
			"error", err,
		)
	}

	select {
	case s.register <- client:
	case <-s.ctx.Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
