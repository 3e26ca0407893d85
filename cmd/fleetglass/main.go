package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fleetglass/fleetglass/pkg/config"
	"github.com/fleetglass/fleetglass/pkg/hook"
	"github.com/fleetglass/fleetglass/pkg/kubeconfig"
	"github.com/fleetglass/fleetglass/pkg/log"
	"github.com/fleetglass/fleetglass/pkg/session"
	"github.com/fleetglass/fleetglass/pkg/store"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fleetglass",
	Short: "Fleetglass - fleet dashboard sync daemon",
	Long: `Fleetglass keeps a local, always-warm cache of fleet state for
Kubernetes dashboard views: pods, deployments, clusters, GPU inventory,
operators and more, fetched through a chain of sources with graceful
fallback and served to views without flicker.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Fleetglass version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync daemon",
	Long: `Run the sync daemon: warm the cache from persisted snapshots, start
per-family polling and serve cache state, metrics and control endpoints
over HTTP.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("config", "", "Path to YAML config file")
	serveCmd.Flags().Bool("demo", false, "Start in demo mode with canned data")
	serveCmd.Flags().Bool("no-persist", false, "Disable the on-disk snapshot store")
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	demoFlag, _ := cmd.Flags().GetBool("demo")
	noPersist, _ := cmd.Flags().GetBool("no-persist")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	log.Init(log.Config{Level: log.Level(cfg.Log.Level), JSONOutput: cfg.Log.JSON})
	logger := log.WithComponent("main")
	logger.Info().Str("version", Version).Str("listen", cfg.ListenAddr).Msg("Fleetglass starting")

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %v", err)
	}

	var st store.Store
	if !noPersist {
		bolt, err := store.NewBoltStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open snapshot store: %v", err)
		}
		defer bolt.Close()
		st = bolt
	}

	sess, err := session.NewManager(filepath.Join(cfg.DataDir, "token"))
	if err != nil {
		return fmt.Errorf("failed to load session: %v", err)
	}

	engine := hook.NewEngine(cfg, st, sess)
	engine.Start()
	defer engine.Stop()

	if demoFlag {
		engine.SetDemoMode(true)
	}

	if cfg.KubeconfigPath != "" {
		watcher, err := kubeconfig.NewWatcher(cfg.KubeconfigPath, func() {
			engine.RefetchAll("")
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Kubeconfig watch disabled")
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	srv := newServer(cfg, engine, sess)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %v", err)
		}
	}

	return srv.Shutdown()
}
