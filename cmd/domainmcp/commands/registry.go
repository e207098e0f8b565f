package commands

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/powerautomation/domainmcp/cache"
	"github.com/powerautomation/domainmcp/config"
	"github.com/powerautomation/domainmcp/discovery"
	"github.com/powerautomation/domainmcp/errors"
	"github.com/powerautomation/domainmcp/monitor"
	"github.com/powerautomation/domainmcp/registry"
)

// loadConfig loads and validates the effective configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// buildCache constructs the configured result cache backend.
func buildCache(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (cache.ResultCache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.GetCacheTTL(), log)
	default:
		return cache.NewMemoryCache(cfg.GetCacheTTL()), nil
	}
}

// assembleRegistry builds a registry from config and populates it from the
// discovery paths. registerer receives the monitor's Prometheus collectors;
// nil disables export.
func assembleRegistry(ctx context.Context, cfg *config.Config, registerer prometheus.Registerer, log *zap.SugaredLogger) (*registry.Registry, error) {
	resultCache, err := buildCache(ctx, cfg, log)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build result cache")
	}

	mon := monitor.New(monitor.Config{
		WindowSize: cfg.GetMonitorWindowSize(),
		Registerer: registerer,
	}, log)

	reg := registry.New(registry.Config{
		DiscoveryPaths:  cfg.Discovery.Paths,
		AutoDiscovery:   cfg.Discovery.AutoDiscovery,
		MaxDomains:      cfg.Registry.MaxDomains,
		MaxConcurrent:   cfg.Registry.MaxConcurrent,
		CacheTTL:        cfg.GetCacheTTL(),
		PlatformVersion: cfg.Registry.PlatformVersion,
	}, resultCache, mon, log)

	manifests := discovery.Scan(cfg.Discovery.Paths, log)
	registered := discovery.RegisterManifests(manifests, reg.RegisterDomain, log)
	log.Infow("Domain discovery complete",
		"manifests", len(manifests),
		"registered", registered,
		"paths", cfg.Discovery.Paths,
	)

	return reg, nil
}
