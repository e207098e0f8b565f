// Package domains defines the data model and handler contract shared by the
// routing engine, dispatcher, cache, and registry.
package domains

import (
	"time"

	"github.com/powerautomation/domainmcp/errors"
)

// DomainInfo is the static registration record for a domain MCP server.
// ID is unique and immutable once registered; everything else describes
// how requests are routed to and executed by the domain's handler.
type DomainInfo struct {
	ID           string   `json:"domain_id" toml:"domain_id"`
	Name         string   `json:"domain_name" toml:"domain_name"`
	Capabilities []string `json:"capabilities" toml:"capabilities"`

	// ConfidenceThreshold is the minimum relevance score, in [0,1], a
	// request must reach before this domain is considered a match.
	ConfidenceThreshold float64 `json:"confidence_threshold" toml:"confidence_threshold"`

	// Keywords weigh heaviest in routing; Description contributes at a
	// reduced weight and feeds the relevance model.
	Keywords    []string `json:"keywords" toml:"keywords"`
	Description string   `json:"description" toml:"description"`

	// MaxProcessingTime bounds a single handler invocation. The dispatcher
	// cancels and fails the task when it is exceeded. Zero means no limit.
	MaxProcessingTime time.Duration `json:"max_processing_time" toml:"max_processing_time"`

	// CacheEnabled opts this domain's results into the shared result cache.
	CacheEnabled bool `json:"cache_enabled" toml:"cache_enabled"`

	// MaxRequestsPerMinute caps dispatches to this domain's handler.
	// Zero means unlimited.
	MaxRequestsPerMinute int `json:"max_requests_per_minute,omitempty" toml:"max_requests_per_minute"`

	// PlatformConstraint is an optional semver range the registry's
	// platform version must satisfy, e.g. ">= 1.0.0". Empty skips the check.
	PlatformConstraint string `json:"platform,omitempty" toml:"platform"`

	// ResultType labels results produced by this domain when the handler
	// does not set one itself.
	ResultType string `json:"result_type,omitempty" toml:"result_type"`
}

// Validate checks the registration record for structural problems.
// Routing quality concerns (empty keywords, vague descriptions) are not
// errors; they just route poorly.
func (d DomainInfo) Validate() error {
	if d.ID == "" {
		return errors.NewInvalidDomain("domain_id is required")
	}
	if d.Name == "" {
		return errors.NewInvalidDomain("domain_name is required for %q", d.ID)
	}
	if d.ConfidenceThreshold < 0 || d.ConfidenceThreshold > 1 {
		return errors.NewInvalidDomain("confidence_threshold %.3f for %q outside [0,1]", d.ConfidenceThreshold, d.ID)
	}
	if d.MaxProcessingTime < 0 {
		return errors.NewInvalidDomain("max_processing_time for %q is negative", d.ID)
	}
	if d.MaxRequestsPerMinute < 0 {
		return errors.NewInvalidDomain("max_requests_per_minute for %q is negative", d.ID)
	}
	return nil
}

// DomainMatch is a transient routing decision: this domain, with this
// handler, matched a request at this confidence. Matches are ranked by
// confidence and never persisted.
type DomainMatch struct {
	DomainID     string   `json:"domain_id"`
	Confidence   float64  `json:"confidence"`
	MatchReasons []string `json:"match_reasons,omitempty"`

	Handler Handler    `json:"-"`
	Info    DomainInfo `json:"-"`
}

// DomainResult is one handler's output for one request. Results are
// immutable after creation and cached keyed by (domain_id, request_hash).
type DomainResult struct {
	DomainID   string  `json:"domain_id"`
	ResultType string  `json:"result_type,omitempty"`
	Content    any     `json:"content"`
	Confidence float64 `json:"confidence"`

	// ProcessingTime is wall-clock seconds, stamped by the dispatcher.
	ProcessingTime float64 `json:"processing_time"`

	Recommendations []string       `json:"recommendations,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}
