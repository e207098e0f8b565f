package commands

import (
	"fmt"
	"strings"

	"github.com/powerautomation/domainmcp/config"
	"github.com/powerautomation/domainmcp/internal/version"
	"github.com/powerautomation/domainmcp/logger"
)

// printStartupBanner prints the user-friendly startup message
func printStartupBanner(verbosity int, cfg *config.Config, domainCount int) {
	// ANSI escape codes
	cyan := "\033[36m"
	green := "\033[32m"
	yellow := "\033[33m"
	blue := "\033[34m"
	bold := "\033[1m"
	reset := "\033[0m"

	versionInfo := version.Get()

	fmt.Printf("\n%s%s", cyan, bold)
	fmt.Printf("   ╔═══════════════════════════════════════════╗\n")
	fmt.Printf("   ║                                           ║\n")
	fmt.Printf("   ║    ██████   ███    ███   ██████  ██████   ║\n")
	fmt.Printf("   ║    ██   ██  ████  ████  ██       ██   ██  ║\n")
	fmt.Printf("   ║    ██   ██  ██ ████ ██  ██       ██████   ║\n")
	fmt.Printf("   ║    ██   ██  ██  ██  ██  ██       ██       ║\n")
	fmt.Printf("   ║    ██████   ██      ██   ██████  ██       ║\n")
	fmt.Printf("   ║                                           ║\n")
	fmt.Printf("   ║     domain registry · router · host       ║\n")
	fmt.Printf("   ║                                           ║\n")
	fmt.Printf("   ╚═══════════════════════════════════════════╝%s\n\n", reset)

	fmt.Printf("%s%s┌─ domainmcp Info ────────────────────────────────────┐%s\n", green, bold, reset)
	fmt.Printf("%s│%s Version:   %s (commit %s)\n", green, reset, versionInfo.Version, versionInfo.Short())
	fmt.Printf("%s│%s Built:     %s\n", green, reset, versionInfo.BuildTime)
	fmt.Printf("%s│%s Verbosity: %s\n", green, reset, logger.LevelName(verbosity))
	fmt.Printf("%s│%s Port:      %d\n", green, reset, cfg.GetServerPort())
	fmt.Printf("%s│%s Domains:   %d registered\n", green, reset, domainCount)
	fmt.Printf("%s│%s Cache:     %s\n", green, reset, cacheLabel(cfg))
	fmt.Printf("%s│%s Database:  %s\n", green, reset, cfg.GetDatabasePath())
	fmt.Printf("%s│%s Discovery: %s\n", green, reset, strings.Join(cfg.Discovery.Paths, ", "))
	fmt.Printf("%s└─────────────────────────────────────────────────────┘%s\n", green, reset)

	fmt.Printf("\n%s%s✨ POST /api/process to route and execute requests%s\n", yellow, bold, reset)
	fmt.Printf("%s💡 Press Ctrl+C to stop%s\n\n", blue, reset)
}

func cacheLabel(cfg *config.Config) string {
	if cfg.Cache.Backend == "redis" {
		return fmt.Sprintf("redis (%s)", cfg.Cache.RedisAddr)
	}
	return "memory"
}
