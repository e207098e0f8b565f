package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.allowed_origins", []string{
		"http://localhost",
		"https://localhost",
		"http://127.0.0.1",
		"https://127.0.0.1",
	})
	v.SetDefault("server.snapshot_interval_seconds", 300) // Snapshot registry status every 5 minutes

	// Database defaults
	v.SetDefault("database.path", "domainmcp.db")
	v.SetDefault("database.snapshot_keep", 100)

	// Registry defaults
	v.SetDefault("registry.max_domains", 3)    // Top-N domains per request
	v.SetDefault("registry.max_concurrent", 5) // Parallel handler invocations
	v.SetDefault("registry.platform_version", "")

	// Cache defaults
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl_seconds", 3600) // Results live one hour
	v.SetDefault("cache.redis_addr", "localhost:6379")

	// Discovery defaults
	v.SetDefault("discovery.paths", []string{"~/.domainmcp/domains"})
	v.SetDefault("discovery.auto_discovery", false)

	// Monitor defaults
	v.SetDefault("monitor.window_size", 512) // Samples kept per domain
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	// Database path
	v.BindEnv("database.path", "DOMAINMCP_DATABASE_PATH")

	// Cache backend selection
	v.BindEnv("cache.backend", "DOMAINMCP_CACHE_BACKEND")
	v.BindEnv("cache.redis_addr", "DOMAINMCP_CACHE_REDIS_ADDR")
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Database: %s, Cache: {Backend: %s}, Discovery: {Paths: %v}}",
		c.GetDatabasePath(), c.Cache.Backend, c.Discovery.Paths)
}
