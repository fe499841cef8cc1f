package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"caretrust-hq/minerva/pkg/audit"
	"caretrust-hq/minerva/pkg/audit/retention"
	auditstorage "caretrust-hq/minerva/pkg/audit/storage"
	"caretrust-hq/minerva/pkg/bias"
	biasstorage "caretrust-hq/minerva/pkg/bias/storage"
	"caretrust-hq/minerva/pkg/cli"
	"caretrust-hq/minerva/pkg/config"
	"caretrust-hq/minerva/pkg/fallback"
	"caretrust-hq/minerva/pkg/governance"
	"caretrust-hq/minerva/pkg/rbac"
	"caretrust-hq/minerva/pkg/riskgate"
	"caretrust-hq/minerva/pkg/server"
	"caretrust-hq/minerva/pkg/telemetry/health"
	"caretrust-hq/minerva/pkg/telemetry/logging"
	"caretrust-hq/minerva/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Minerva governance server",
	Long: `Start the governance server with the specified configuration.

The server exposes the administrative API for action submission,
approval workflows, escalations, audit statistics, and configuration,
plus health probes and Prometheus metrics.

Examples:
  # Start with default config
  minerva run

  # Start with custom config
  minerva run --config /etc/minerva/config.yaml

  # Override listen address
  minerva run --listen 0.0.0.0:8080

  # Validate config without starting the server
  minerva run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}

	logger, err := logging.New(logging.FromTelemetry(cfg.Telemetry.Logging))
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Audit trail
	var store audit.Store
	switch cfg.Audit.Backend {
	case "sqlite":
		store, err = auditstorage.NewSQLiteStore(&auditstorage.SQLiteConfig{
			Path:         cfg.Audit.SQLite.Path,
			MaxOpenConns: cfg.Audit.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Audit.SQLite.MaxIdleConns,
			WALMode:      cfg.Audit.SQLite.WALMode,
			BusyTimeout:  cfg.Audit.SQLite.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to open audit database: %w", err)
		}
	case "memory":
		store = auditstorage.NewMemoryStore()
	default:
		return fmt.Errorf("unsupported audit backend: %s", cfg.Audit.Backend)
	}

	auditManager := audit.NewManager(store, audit.ManagerConfig{
		MaxExportSize: cfg.Audit.Export.MaxExportSize,
	}, logger)
	defer auditManager.Close()
	fmt.Printf("✓ Audit trail initialized (%s backend)\n", cfg.Audit.Backend)

	// Retention pruning
	var retentionScheduler *retention.Scheduler
	if cfg.Audit.Retention.PruneSchedule != "" {
		pruner := retention.NewPruner(store, retention.Config{
			RetentionDays: cfg.Audit.Retention.Days,
			PruneSchedule: cfg.Audit.Retention.PruneSchedule,
		})
		retentionScheduler = retention.NewScheduler(pruner)
		if err := retentionScheduler.Start(ctx); err != nil {
			slog.Warn("failed to start retention scheduler", "error", err)
			retentionScheduler = nil
		} else {
			defer retentionScheduler.Stop()
			if next := retentionScheduler.NextRun(); next != nil {
				slog.Debug("audit retention scheduler started", "next_run", next)
			}
		}
	}

	// Access control and risk gates
	rbacManager := rbac.NewManager(rbac.DefaultPermissions(), logger)
	gate := riskgate.NewManager(logger)

	if cfg.Rules.FilePath != "" {
		if err := gate.ApplyRulesFile(cfg.Rules.FilePath); err != nil {
			return cli.NewConfigError("rules.file_path", err.Error())
		}
		fmt.Printf("✓ Governance rules loaded from %s\n", cfg.Rules.FilePath)

		if cfg.Rules.Watch {
			watcherConfig := config.DefaultFileWatcherConfig()
			watcherConfig.Path = cfg.Rules.FilePath
			watcher, err := config.NewFileWatcher(watcherConfig, logger)
			if err != nil {
				slog.Warn("failed to create rules watcher", "error", err)
			} else {
				go func() {
					err := watcher.Watch(ctx, func() error {
						return gate.ApplyRulesFile(cfg.Rules.FilePath)
					})
					if err != nil {
						slog.Warn("rules watcher stopped", "error", err)
					}
				}()
				defer watcher.Stop()
			}
		}
	}

	fallbackManager := fallback.NewManager(cfg.Governance.ConfidenceThreshold, logger)

	// Bias monitoring
	var monitor *bias.Monitor
	var biasScheduler *bias.Scheduler
	if cfg.Governance.BiasMonitoringEnabled {
		var biasStore bias.Store
		if cfg.Bias.Storage.Backend == "sqlite" {
			biasStore, err = biasstorage.NewSQLiteStore(cfg.Bias.Storage.SQLitePath)
			if err != nil {
				return fmt.Errorf("failed to open bias database: %w", err)
			}
		}

		monitor = bias.NewMonitor(bias.MonitorConfig{
			DisparateImpactThreshold: cfg.Bias.DisparateImpactThreshold,
			MinSamples:               cfg.Bias.MinSamples,
			MinGroupSamples:          cfg.Bias.MinGroupSamples,
			Dimensions:               cfg.Bias.Dimensions,
		}, biasStore, logger)
		defer monitor.Close()

		if biasStore != nil {
			if err := monitor.WarmStart(ctx); err != nil {
				slog.Warn("bias warm start failed", "error", err)
			}
		}

		if cfg.Bias.AnalysisSchedule != "" {
			biasScheduler = bias.NewScheduler(monitor, cfg.Bias.AnalysisSchedule)
			if err := biasScheduler.Start(ctx); err != nil {
				slog.Warn("failed to start bias analysis scheduler", "error", err)
				biasScheduler = nil
			} else {
				defer biasScheduler.Stop()
			}
		}

		fmt.Println("✓ Bias monitor initialized")
	}

	// Metrics
	var collector *metrics.Collector
	var metricsHandler http.Handler
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
		metricsHandler = collector.Handler()
	}

	// Governance engine
	engine, err := governance.NewEngine(config.NewManager(cfg), governance.Dependencies{
		RBAC:     rbacManager,
		Gate:     gate,
		Audit:    auditManager,
		Fallback: fallbackManager,
		Bias:     monitor,
		Metrics:  collector,
	}, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Println("✓ Governance engine initialized")

	// Health probes
	checker := health.New(0)
	checker.RegisterCheck("audit_store", func(ctx context.Context) error {
		_, err := auditManager.Statistics(ctx)
		return err
	})
	if retentionScheduler != nil {
		checker.RegisterCheck("retention_scheduler", func(ctx context.Context) error {
			if !retentionScheduler.IsRunning() {
				return fmt.Errorf("retention scheduler is not running")
			}
			return nil
		})
	}
	if biasScheduler != nil {
		checker.RegisterCheck("bias_scheduler", func(ctx context.Context) error {
			if !biasScheduler.IsRunning() {
				return fmt.Errorf("bias analysis scheduler is not running")
			}
			return nil
		})
	}

	// Administrative server
	serverConfig := server.Config{
		ListenAddress:   cfg.Server.ListenAddress,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		HealthRateLimit: cfg.Server.HealthRateLimit,
		Version:         Version,
		Commit:          GitCommit,
		BuildTime:       BuildDate,
	}
	if cfg.Telemetry.Metrics.Enabled {
		serverConfig.MetricsPath = cfg.Telemetry.Metrics.Path
	}

	srv, err := server.New(serverConfig, engine, checker, metricsHandler, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errChan <- err
		}
	}()

	// Optional standalone metrics listener for deployments that keep the
	// exposition port off the API network.
	if metricsHandler != nil && cfg.Telemetry.Metrics.ListenAddress != "" &&
		cfg.Telemetry.Metrics.ListenAddress != cfg.Server.ListenAddress {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Telemetry.Metrics.Path, metricsHandler)
		metricsServer := &http.Server{
			Addr:    cfg.Telemetry.Metrics.ListenAddress,
			Handler: metricsMux,
		}
		go func() {
			slog.Info("metrics listener starting", "address", cfg.Telemetry.Metrics.ListenAddress)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Warn("metrics listener failed", "error", err)
			}
		}()
		defer metricsServer.Close()
	}

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}

		fmt.Println("✓ Server stopped")
		return nil
	}
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Minerva v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	slog.Debug("audit backend", "backend", cfg.Audit.Backend)
	if cfg.Governance.BiasMonitoringEnabled {
		slog.Debug("bias monitoring enabled",
			"threshold", cfg.Bias.DisparateImpactThreshold,
			"schedule", cfg.Bias.AnalysisSchedule,
		)
	}
	if cfg.Rules.FilePath != "" {
		slog.Debug("rules file configured", "path", cfg.Rules.FilePath, "watch", cfg.Rules.Watch)
	}
}
