// Package discovery loads domain registrations from TOML manifest files and
// adapts their handler commands into the Handler interface. A manifest named
// <anything>.domain.toml describes one domain; discovery paths are scanned at
// startup and optionally watched for new manifests.
package discovery

import (
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/powerautomation/domainmcp/domains"
	"github.com/powerautomation/domainmcp/errors"
)

// ManifestSuffix is the file name suffix discovery scans for.
const ManifestSuffix = ".domain.toml"

// Manifest is one domain registration file.
type Manifest struct {
	// DomainID is the unique registry key
	DomainID string `toml:"domain_id"`

	// DomainName is the human-readable name
	DomainName string `toml:"domain_name"`

	// Capabilities feed the routing profile and the status report
	Capabilities []string `toml:"capabilities"`

	// ConfidenceThreshold is the minimum relevance score to route here
	ConfidenceThreshold float64 `toml:"confidence_threshold"`

	// Keywords carry full weight in keyword scoring
	Keywords []string `toml:"keywords"`

	// Description feeds the routing profile at reduced weight
	Description string `toml:"description"`

	// MaxProcessingTimeSecs bounds one invocation; 0 = no limit
	MaxProcessingTimeSecs int `toml:"max_processing_time_secs"`

	// CacheEnabled opts this domain into the result cache
	CacheEnabled bool `toml:"cache_enabled"`

	// Platform is an optional semver constraint on the platform version
	Platform string `toml:"platform"`

	// MaxRequestsPerMinute rate-limits dispatches; 0 = unlimited
	MaxRequestsPerMinute int `toml:"max_requests_per_minute"`

	Handler HandlerSpec `toml:"handler"`

	// Path is where the manifest was loaded from (not part of the file)
	Path string `toml:"-"`
}

// HandlerSpec describes the command implementing the domain.
type HandlerSpec struct {
	// Command is the handler argv, shell-quoted as one string
	Command string `toml:"command"`

	// ResultType tags results that don't declare their own
	ResultType string `toml:"result_type"`

	// HealthCommand, when set, replaces the executable-bit health check
	HealthCommand string `toml:"health_command"`

	// TimeoutSecs bounds the handler process itself; 0 = rely on
	// max_processing_time_secs
	TimeoutSecs int `toml:"timeout_secs"`
}

// Validate checks the manifest is complete enough to register.
func (m *Manifest) Validate() error {
	if m.DomainID == "" {
		return errors.New("manifest missing domain_id")
	}
	if m.DomainName == "" {
		return errors.Newf("manifest %q missing domain_name", m.DomainID)
	}
	if m.ConfidenceThreshold < 0 || m.ConfidenceThreshold > 1 {
		return errors.Newf("manifest %q confidence_threshold must be in [0,1], got %f",
			m.DomainID, m.ConfidenceThreshold)
	}
	if m.MaxProcessingTimeSecs < 0 {
		return errors.Newf("manifest %q max_processing_time_secs must be >= 0", m.DomainID)
	}
	if m.MaxRequestsPerMinute < 0 {
		return errors.Newf("manifest %q max_requests_per_minute must be >= 0", m.DomainID)
	}
	if m.Handler.Command == "" {
		return errors.Newf("manifest %q missing handler.command", m.DomainID)
	}
	if _, err := shellquote.Split(m.Handler.Command); err != nil {
		return errors.Wrapf(err, "manifest %q handler.command is not parseable", m.DomainID)
	}
	if m.Handler.HealthCommand != "" {
		if _, err := shellquote.Split(m.Handler.HealthCommand); err != nil {
			return errors.Wrapf(err, "manifest %q handler.health_command is not parseable", m.DomainID)
		}
	}
	if m.Handler.TimeoutSecs < 0 {
		return errors.Newf("manifest %q handler.timeout_secs must be >= 0", m.DomainID)
	}
	return nil
}

// DomainInfo converts the manifest into the registry's registration record.
func (m *Manifest) DomainInfo() domains.DomainInfo {
	return domains.DomainInfo{
		ID:                   m.DomainID,
		Name:                 m.DomainName,
		Capabilities:         m.Capabilities,
		ConfidenceThreshold:  m.ConfidenceThreshold,
		Keywords:             m.Keywords,
		Description:          m.Description,
		MaxProcessingTime:    time.Duration(m.MaxProcessingTimeSecs) * time.Second,
		CacheEnabled:         m.CacheEnabled,
		PlatformConstraint:   m.Platform,
		MaxRequestsPerMinute: m.MaxRequestsPerMinute,
		ResultType:           m.Handler.ResultType,
	}
}
