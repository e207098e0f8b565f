package config

import "time"

// Config represents the core domainmcp configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
}

// ServerConfig configures the domainmcp HTTP host
type ServerConfig struct {
	Port                    *int     `mapstructure:"port"` // Server port: nil = default 8448, 0 is invalid (omit for default)
	AllowedOrigins          []string `mapstructure:"allowed_origins"`
	SnapshotIntervalSeconds int      `mapstructure:"snapshot_interval_seconds"` // 0 = no periodic snapshots
}

// DatabaseConfig configures the SQLite snapshot store
type DatabaseConfig struct {
	Path         string `mapstructure:"path"`
	SnapshotKeep int    `mapstructure:"snapshot_keep"` // Snapshots retained by pruning (default: 100)
}

// RegistryConfig configures the domain registry core
type RegistryConfig struct {
	MaxDomains      int    `mapstructure:"max_domains"`      // Default domains routed per request (default: 3)
	MaxConcurrent   int    `mapstructure:"max_concurrent"`   // Parallel handler invocations per request (default: 5)
	PlatformVersion string `mapstructure:"platform_version"` // Version domains validate their platform constraint against
}

// CacheConfig configures the result cache backend
type CacheConfig struct {
	Backend    string `mapstructure:"backend"`     // "memory" or "redis"
	TTLSeconds int    `mapstructure:"ttl_seconds"` // Result lifetime (default: 3600)
	RedisAddr  string `mapstructure:"redis_addr"`
}

// DiscoveryConfig configures manifest-based domain discovery
type DiscoveryConfig struct {
	Paths         []string `mapstructure:"paths"`          // Directories scanned for *.domain.toml manifests
	AutoDiscovery bool     `mapstructure:"auto_discovery"` // Watch the paths and register new manifests live
}

// MonitorConfig configures performance accounting
type MonitorConfig struct {
	WindowSize int `mapstructure:"window_size"` // Samples kept per domain (default: 512)
}

// Server port constants
const (
	DefaultServerPort = 8448 // Development port (easy to type, above privileged range)
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// GetServerPort returns the configured server port or the default
func (c *Config) GetServerPort() int {
	if c.Server.Port == nil || *c.Server.Port == 0 {
		return DefaultServerPort
	}
	return *c.Server.Port
}

// GetAllowedOrigins returns the allowed CORS origins
func (c *Config) GetAllowedOrigins() []string {
	if len(c.Server.AllowedOrigins) == 0 {
		return []string{
			"http://localhost",
			"https://localhost",
			"http://127.0.0.1",
			"https://127.0.0.1",
		}
	}
	return c.Server.AllowedOrigins
}

// GetSnapshotInterval returns the snapshot loop interval; 0 disables the loop
func (c *Config) GetSnapshotInterval() time.Duration {
	if c.Server.SnapshotIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Server.SnapshotIntervalSeconds) * time.Second
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return "domainmcp.db" // Fallback default
	}
	return c.Database.Path
}

// GetSnapshotKeep returns how many snapshots pruning retains
func (c *Config) GetSnapshotKeep() int {
	if c.Database.SnapshotKeep <= 0 {
		return 100
	}
	return c.Database.SnapshotKeep
}

// GetCacheTTL returns the result cache TTL
func (c *Config) GetCacheTTL() time.Duration {
	if c.Cache.TTLSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// GetMonitorWindowSize returns the per-domain sample window
func (c *Config) GetMonitorWindowSize() int {
	if c.Monitor.WindowSize <= 0 {
		return 512
	}
	return c.Monitor.WindowSize
}
