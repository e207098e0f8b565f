package server

import (
	"time"

	"github.com/powerautomation/domainmcp/domains"
	"github.com/powerautomation/domainmcp/monitor"
	"github.com/powerautomation/domainmcp/registry"
)

const (
	// MaxClients is the maximum number of concurrent WebSocket clients
	MaxClients = 100
	// MaxClientMessageQueueSize is the size of per-client message queues
	MaxClientMessageQueueSize = 256
	// MaxBroadcastQueueSize is the size of the hub's inbound event queue
	MaxBroadcastQueueSize = 64
	// ShutdownTimeout is how long to wait for goroutines during Stop
	ShutdownTimeout = 10 * time.Second
)

// processRequest is the body of POST /api/process
type processRequest struct {
	RequestText string         `json:"request_text"`
	Context     map[string]any `json:"context,omitempty"`
	MaxDomains  int            `json:"max_domains,omitempty"`
}

// processResponse is the reply to POST /api/process
type processResponse struct {
	Results []*domains.DomainResult `json:"results"`
	Count   int                     `json:"count"`
}

// routeRequest is the body of POST /api/route
type routeRequest struct {
	RequestText string `json:"request_text"`
	MaxDomains  int    `json:"max_domains,omitempty"`
}

// routeResponse is the reply to POST /api/route
type routeResponse struct {
	Matches []domains.DomainMatch `json:"matches"`
	Count   int                   `json:"count"`
}

// domainResponse is the reply to GET /api/domains/{id}; Performance is nil
// until the domain has served a request
type domainResponse struct {
	Info        domains.DomainInfo   `json:"info"`
	Performance *monitor.DomainStats `json:"performance,omitempty"`
}

// statsResponse is the reply to GET /api/stats
type statsResponse struct {
	Overall monitor.OverallStats   `json:"overall"`
	Cache   any                    `json:"cache"`
	System  *monitor.SystemMetrics `json:"system,omitempty"`
}

// eventMessage wraps a processed-request event for the WebSocket stream
type eventMessage struct {
	Type string `json:"type"` // "request_processed"
	registry.Event
}

// versionMessage greets a newly connected WebSocket client
type versionMessage struct {
	Type      string `json:"type"` // "version"
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}
