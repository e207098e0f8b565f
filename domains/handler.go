package domains

import "context"

// Handler is the contract every domain MCP server implements. The registry
// routes requests to handlers; the dispatcher invokes them with a deadline
// derived from the domain's MaxProcessingTime.
//
// Implementations must be safe for concurrent use: the dispatcher may run
// ProcessDomainRequest from multiple goroutines at once.
type Handler interface {
	// ProcessDomainRequest handles one routed request. confidence is the
	// routing score that selected this domain, passed through so handlers
	// can modulate their behavior (e.g. hedge low-confidence answers).
	ProcessDomainRequest(ctx context.Context, requestText string, domainContext map[string]any, confidence float64) (*DomainResult, error)

	// Health reports whether the handler can currently serve requests.
	// nil means healthy. The registry treats errors and panics as
	// unhealthy without propagating them.
	Health(ctx context.Context) error

	// Metrics returns the handler-owned rolling performance counters.
	// The dispatcher updates them after every invocation.
	Metrics() *HandlerMetrics
}
