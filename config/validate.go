package config

import "github.com/powerautomation/domainmcp/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Server port: 0 is invalid (omit for default), negative is invalid
	if c.Server.Port != nil && *c.Server.Port == 0 {
		return errors.New("server.port cannot be 0 (omit for default port 8448)")
	}
	if c.Server.Port != nil && *c.Server.Port < 0 {
		return errors.Newf("server.port must be positive, got %d", *c.Server.Port)
	}

	// Snapshot interval: 0 = no periodic snapshots, negative = invalid
	if c.Server.SnapshotIntervalSeconds < 0 {
		return errors.Newf("server.snapshot_interval_seconds must be >= 0, got %d", c.Server.SnapshotIntervalSeconds)
	}
	if c.Database.SnapshotKeep < 0 {
		return errors.Newf("database.snapshot_keep must be >= 0, got %d", c.Database.SnapshotKeep)
	}

	// Registry bounds: 0 = use default, negative = invalid
	if c.Registry.MaxDomains < 0 {
		return errors.Newf("registry.max_domains must be >= 0, got %d", c.Registry.MaxDomains)
	}
	if c.Registry.MaxConcurrent < 0 {
		return errors.Newf("registry.max_concurrent must be >= 0, got %d", c.Registry.MaxConcurrent)
	}

	// Cache backend must be one we can construct
	switch c.Cache.Backend {
	case "", "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr cannot be empty when backend is redis")
		}
	default:
		return errors.Newf("cache.backend must be \"memory\" or \"redis\", got %q", c.Cache.Backend)
	}
	if c.Cache.TTLSeconds < 0 {
		return errors.Newf("cache.ttl_seconds must be >= 0, got %d", c.Cache.TTLSeconds)
	}

	if c.Monitor.WindowSize < 0 {
		return errors.Newf("monitor.window_size must be >= 0, got %d", c.Monitor.WindowSize)
	}

	return nil
}
