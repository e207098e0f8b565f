package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/powerautomation/domainmcp/errors"
)

// Start runs the hub, the snapshot loop, and the HTTP listener. It blocks
// until the listener stops; a graceful Stop returns nil.
func (s *Server) Start(port int) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run()
	}()

	s.startSnapshotLoop()

	actualPort, err := findAvailablePort(port)
	if err != nil {
		return errors.Wrap(err, "failed to find available port")
	}

	if actualPort != port {
		s.logger.Infow("Port in use, using alternative",
			"requested_port", port,
			"actual_port", actualPort,
		)
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", actualPort),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Infow("Server ready",
		"url", fmt.Sprintf("http://localhost:%d", actualPort),
		"port", actualPort,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "http server failed")
	}
	return nil
}

// startSnapshotLoop periodically persists registry status to the snapshot
// store. Disabled when no store is configured or the interval is zero.
func (s *Server) startSnapshotLoop() {
	if s.snapshots == nil {
		s.logger.Debugw("Snapshot loop disabled, no store configured")
		return
	}
	interval := s.cfg.GetSnapshotInterval()
	if interval <= 0 {
		s.logger.Debugw("Snapshot loop disabled by configuration")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				s.logger.Debugw("Snapshot loop stopping due to context cancellation")
				return
			case <-ticker.C:
				s.saveSnapshot()
			}
		}
	}()

	s.logger.Infow("Snapshot loop started", "interval", interval)
}

// saveSnapshot persists one status/statistics pair and prunes old rows.
func (s *Server) saveSnapshot() {
	status := s.registry.Status(s.ctx)
	stats := s.registry.Monitor().OverallStatistics()

	id, err := s.snapshots.Save(status, stats)
	if err != nil {
		s.logger.Warnw("Failed to save registry snapshot", "error", err)
		return
	}

	if keep := s.cfg.GetSnapshotKeep(); keep > 0 {
		if _, err := s.snapshots.Prune(keep); err != nil {
			s.logger.Warnw("Failed to prune snapshots", "error", err)
		}
	}

	s.logger.Debugw("Registry snapshot saved", "snapshot_id", id)
}

// Stop gracefully shuts down the server and cleans up resources
func (s *Server) Stop() error {
	s.logger.Infow("Initiating server shutdown")

	// Stop accepting new requests and drain in-flight ones.
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warnw("HTTP server shutdown error", "error", err)
		}
	}

	// Close client connections BEFORE cancelling the context so readPumps
	// unblock cleanly.
	s.mu.Lock()
	clientsToClose := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clientsToClose = append(clientsToClose, client)
		delete(s.clients, client)
	}
	s.mu.Unlock()

	if len(clientsToClose) > 0 {
		s.logger.Infow("Closing client connections", "count", len(clientsToClose))
		for _, client := range clientsToClose {
			client.conn.Close()
		}
	}

	// Cancel context to stop the hub, snapshot loop, and write pumps.
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Infow("All goroutines stopped cleanly")
	case <-time.After(ShutdownTimeout):
		s.logger.Warnw("Goroutine shutdown timed out, forcing exit",
			"timeout", ShutdownTimeout,
		)
	}

	s.logger.Infow("Server shutdown complete",
		"broadcast_drops", s.broadcastDrops.Load(),
	)

	return nil
}
