package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/powerautomation/domainmcp/config"
	"github.com/powerautomation/domainmcp/discovery"
	"github.com/powerautomation/domainmcp/errors"
	"github.com/powerautomation/domainmcp/internal/util"
	"github.com/powerautomation/domainmcp/logger"
	"github.com/powerautomation/domainmcp/server"
	"github.com/powerautomation/domainmcp/store"
)

// ServeCmd starts the domainmcp host
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the domainmcp HTTP/WebSocket host",
	Long: `Start the full domainmcp host: discover domain manifests, assemble the
registry, and serve the JSON API, Prometheus metrics, and the WebSocket
event stream. Registry status snapshots are persisted to SQLite on a
configurable interval.`,
	RunE: runServe,
}

var (
	servePort   int
	serveDBPath string
)

func init() {
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides config)")
	ServeCmd.Flags().StringVar(&serveDBPath, "db-path", "", "Snapshot database path (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Default to Info for the long-running host so startup is visible
	verbosity, _ := cmd.Flags().GetCount("verbose")
	if verbosity == 0 {
		verbosity = 1
		if err := logger.InitializeWithLevel(false, logger.VerbosityToLevel(verbosity)); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}
	log := logger.Logger

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = util.Ptr(servePort)
	}
	if serveDBPath != "" {
		cfg.Database.Path = serveDBPath
	}

	// Snapshot store
	db, err := store.Open(cfg.GetDatabasePath(), log)
	if err != nil {
		return errors.Wrap(err, "failed to open snapshot database")
	}
	defer db.Close()

	snapshots := store.New(db, log)
	if err := snapshots.Init(); err != nil {
		return errors.Wrap(err, "failed to initialize snapshot store")
	}

	// Registry with Prometheus export wired to /metrics
	promRegistry := prometheus.NewRegistry()
	reg, err := assembleRegistry(cmd.Context(), cfg, promRegistry, log)
	if err != nil {
		return err
	}
	defer reg.Close()

	// Live manifest discovery
	if cfg.Discovery.AutoDiscovery {
		watcher, err := discovery.NewWatcher(cfg.Discovery.Paths, reg.RegisterDomain, log)
		if err != nil {
			log.Warnw("Failed to start discovery watcher", "error", err)
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	// Config file watcher: settings apply on restart, but surfacing the
	// change beats silently running stale config
	if userConfig := config.GetUserConfigPath(); userConfig != "" {
		if _, statErr := os.Stat(userConfig); statErr == nil {
			cw, err := config.NewConfigWatcher(userConfig)
			if err != nil {
				log.Debugw("Config watcher unavailable", "error", err)
			} else {
				cw.OnReload(func(newCfg *config.Config) error {
					log.Warnw("Configuration file changed; restart the server to apply it",
						"path", userConfig)
					return nil
				})
				cw.Start()
				config.SetGlobalWatcher(cw)
				defer cw.Stop()
			}
		}
	}

	srv, err := server.New(cfg, reg, snapshots, promRegistry, log)
	if err != nil {
		return errors.Wrap(err, "failed to create server")
	}

	printStartupBanner(verbosity, cfg, len(reg.Domains()))

	// Start server in background
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(cfg.GetServerPort())
	}()

	// Wait for shutdown signal (Ctrl+C)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		// Server failed to start or stopped unexpectedly
		return errors.Wrap(err, "server failed to start")
	case <-sigChan:
		// First Ctrl+C - graceful shutdown
		pterm.Info.Println("\nShutting down gracefully (press Ctrl+C again to force)...")

		shutdownDone := make(chan error, 1)
		go func() {
			shutdownDone <- srv.Stop()
		}()

		// Wait for either shutdown completion or second Ctrl+C
		select {
		case err := <-shutdownDone:
			if err != nil {
				return fmt.Errorf("shutdown error: %w", err)
			}
			pterm.Success.Println("Server stopped cleanly")
			return nil
		case <-sigChan:
			// Second Ctrl+C - force immediate exit
			pterm.Warning.Println("\nForce shutdown - exiting immediately")
			os.Exit(1)
			return nil // unreachable
		}
	}
}
