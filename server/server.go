// Package server hosts the domain registry over HTTP: a JSON API for
// routing and processing, Prometheus metrics, persisted status snapshots,
// and a WebSocket stream of processed-request events.
package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/powerautomation/domainmcp/config"
	"github.com/powerautomation/domainmcp/errors"
	"github.com/powerautomation/domainmcp/registry"
	"github.com/powerautomation/domainmcp/store"
)

// Server hosts a registry over HTTP and WebSocket.
type Server struct {
	cfg       *config.Config
	registry  *registry.Registry
	snapshots *store.SnapshotStore // nil disables snapshots
	gatherer  prometheus.Gatherer
	logger    *zap.SugaredLogger

	mux *http.ServeMux

	clients    map[*Client]bool
	broadcast  chan eventMessage
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex

	// HTTP server with timeouts
	httpServer *http.Server

	// Lifecycle management
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	broadcastDrops atomic.Int64
}

// New wires a server around an assembled registry. The snapshot store may
// be nil; the gatherer may be nil when metrics are not registered.
func New(cfg *config.Config, reg *registry.Registry, snapshots *store.SnapshotStore, gatherer prometheus.Gatherer, logger *zap.SugaredLogger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if reg == nil {
		return nil, errors.New("registry cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:        cfg,
		registry:   reg,
		snapshots:  snapshots,
		gatherer:   gatherer,
		logger:     logger,
		mux:        http.NewServeMux(),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan eventMessage, MaxBroadcastQueueSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}

	s.setupHTTPRoutes()

	// Every processed request becomes a WebSocket event.
	reg.SetEventSink(s.BroadcastEvent)

	return s, nil
}

// BroadcastEvent queues a processed-request event for all connected
// clients. Never blocks the caller; the event is dropped when the hub
// cannot keep up.
func (s *Server) BroadcastEvent(ev registry.Event) {
	msg := eventMessage{Type: "request_processed", Event: ev}

	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
	default:
		s.broadcastDrops.Add(1)
		s.logger.Warnw("Broadcast queue full, dropping event",
			"request_id", ev.RequestID,
			"total_drops", s.broadcastDrops.Load(),
		)
	}
}

// Run starts the hub event loop. The hub goroutine is the only writer to
// client send channels, so closes never race with sends.
func (s *Server) Run() {
	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debugw("Server hub stopping due to context cancellation")
			return
		case client := <-s.register:
			s.handleClientRegister(client)
		case client := <-s.unregister:
			s.handleClientUnregister(client)
		case msg := <-s.broadcast:
			s.handleBroadcast(msg)
		}
	}
}

// handleClientRegister handles a new client connection
func (s *Server) handleClientRegister(client *Client) {
	s.mu.Lock()

	if len(s.clients) >= MaxClients {
		s.mu.Unlock()
		s.logger.Warnw("Max clients reached, rejecting connection",
			"client_id", client.id,
			"max_clients", MaxClients,
		)
		client.close()
		return
	}

	s.clients[client] = true
	totalClients := len(s.clients)
	s.mu.Unlock()

	s.logger.Infow("Client connected",
		"client_id", client.id,
		"total_clients", totalClients,
	)
}

// handleClientUnregister handles a client disconnection
func (s *Server) handleClientUnregister(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		totalClients := len(s.clients)
		s.mu.Unlock()

		client.close()

		s.logger.Infow("Client disconnected",
			"client_id", client.id,
			"total_clients", totalClients,
		)
	} else {
		s.mu.Unlock()
	}
}

// handleBroadcast fans an event out to every connected client. Clients
// whose queues are full are removed rather than allowed to stall the hub.
func (s *Server) handleBroadcast(msg eventMessage) {
	s.mu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- msg:
		default:
			s.broadcastDrops.Add(1)
			s.removeSlowClient(client)
		}
	}
}

// removeSlowClient removes a client that cannot keep up with broadcasts.
// Only called from the hub goroutine, so closing directly is safe.
func (s *Server) removeSlowClient(client *Client) {
	s.mu.Lock()
	if _, ok := s.clients[client]; ok {
		delete(s.clients, client)
		s.mu.Unlock()
	} else {
		s.mu.Unlock()
		return // Already removed
	}

	client.close()

	s.logger.Warnw("Client send channel full, removing client",
		"client_id", client.id,
		"total_drops", s.broadcastDrops.Load(),
	)
}

// ClientCount reports the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}
