// File: cmd/watcher/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smartdevs17/uptime-watcher/internal/config"
	"github.com/smartdevs17/uptime-watcher/internal/logstore"
	"github.com/smartdevs17/uptime-watcher/internal/metrics"
	"github.com/smartdevs17/uptime-watcher/internal/monitor"
	"github.com/smartdevs17/uptime-watcher/internal/notification"
	"github.com/smartdevs17/uptime-watcher/internal/probe"
	"github.com/smartdevs17/uptime-watcher/internal/report"
	"github.com/smartdevs17/uptime-watcher/internal/server"
	"github.com/smartdevs17/uptime-watcher/internal/storage"
	"github.com/smartdevs17/uptime-watcher/pkg/utils"
)

// AppVersion contains the application version
const AppVersion = "1.0.0"

// Application represents the main application
type Application struct {
	config       *config.Config
	store        *logstore.Store
	monitor      *monitor.Monitor
	notification *notification.Manager
	storage      storage.Storage
	server       *server.HTTPServer
	metrics      *metrics.Manager
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewApplication creates a new application instance
func NewApplication(cfg *config.Config) (*Application, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &Application{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
	}

	if err := app.initializeLogger(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := app.initializeComponents(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}

	return app, nil
}

// initializeLogger initializes the application logger
func (app *Application) initializeLogger() error {
	logCfg := app.config.Logging
	return utils.InitLogger(logCfg.Level, logCfg.Format, logCfg.Output, logCfg.File)
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	logger := utils.GetLogger()

	app.store = logstore.NewStore(app.config.Monitor.LogRoot)
	app.metrics = metrics.NewManager()

	if app.config.Notifications.Enabled {
		app.notification = notification.NewManager(&app.config.Notifications, app.config.Monitor.Recipients)
	}

	if app.config.Storage.Enabled {
		store, err := storage.NewStorage(&app.config.Storage)
		if err != nil {
			return fmt.Errorf("failed to create incident store: %w", err)
		}
		if err := store.Connect(); err != nil {
			return fmt.Errorf("failed to connect incident store: %w", err)
		}
		if err := store.Migrate(); err != nil {
			return fmt.Errorf("failed to migrate incident store: %w", err)
		}
		app.storage = store
	}

	prober := probe.NewHTTPProber(app.config.Monitor.RequestTimeout)

	var notifier notification.Notifier
	if app.notification != nil {
		notifier = app.notification
	}

	app.monitor = monitor.New(
		&app.config.Monitor,
		prober,
		app.store,
		notifier,
		app.storage,
		app.metrics,
	)

	if app.config.Server.Enabled {
		serverCfg := &server.ServerConfig{
			Port:          app.config.Server.Port,
			Host:          app.config.Server.Host,
			ReadTimeout:   app.config.Server.ReadTimeout,
			WriteTimeout:  app.config.Server.WriteTimeout,
			EnableMetrics: app.config.Server.EnableMetrics,
			EnableHealth:  app.config.Server.EnableHealth,
		}
		reporter := report.NewReporter(app.store)
		app.server = server.NewHTTPServer(serverCfg, app.monitor, reporter, app.storage, notifier, app.metrics)
	}

	logger.Info("All components initialized")
	return nil
}

// Run starts the application and blocks until shutdown or a fatal
// monitor error.
func (app *Application) Run() error {
	logger := utils.GetLogger()

	if app.notification != nil {
		if err := app.notification.Start(app.ctx); err != nil {
			return fmt.Errorf("failed to start notification manager: %w", err)
		}
	}

	if app.server != nil {
		if err := app.server.Start(); err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	monitorErr := make(chan error, 1)
	go func() {
		monitorErr <- app.monitor.Run(app.ctx)
	}()

	select {
	case sig := <-signalChan:
		logger.WithField("signal", sig.String()).Info("Received shutdown signal")
		app.cancel()

		// The loop writes its final log entry on the way out; give it
		// a bounded grace period.
		select {
		case err := <-monitorErr:
			app.stop()
			return err
		case <-time.After(10 * time.Second):
			app.stop()
			return fmt.Errorf("monitor did not stop within grace period")
		}

	case err := <-monitorErr:
		// Log-write failures are the only fatal loop errors
		app.cancel()
		app.stop()
		return err
	}
}

// stop shuts down the auxiliary components
func (app *Application) stop() {
	logger := utils.GetLogger()

	if app.server != nil {
		if err := app.server.Stop(); err != nil {
			logger.WithField("error", err).Error("Failed to stop HTTP server")
		}
	}

	if app.notification != nil {
		if err := app.notification.Stop(); err != nil {
			logger.WithField("error", err).Error("Failed to stop notification manager")
		}
	}

	if app.storage != nil {
		if err := app.storage.Close(); err != nil {
			logger.WithField("error", err).Error("Failed to close incident store")
		}
	}
}

// CLI Commands

// rootCmd runs the monitor loop when called without subcommands
var rootCmd = &cobra.Command{
	Use:     "watcher",
	Short:   "Single-target website availability monitor",
	Long:    `Periodically checks one URL, keeps a dated availability log trail, and sends DOWN/RECOVERED notifications across a consecutive-failure threshold.`,
	Version: AppVersion,
	RunE:    runWatcher,
}

// runWatcher is the main command to run the monitor
func runWatcher(cmd *cobra.Command, args []string) error {
	cfg, err := loadAndValidateConfig()
	if err != nil {
		return err
	}

	app, err := NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return app.Run()
}

// reportCmd computes uptime statistics from the log trail
var reportCmd = &cobra.Command{
	Use:   "report [monitor-name]",
	Short: "Compute uptime statistics for a monitor",
	Long:  `Scans the monitor's dated log files and reports total checks, successes, failures and the resulting uptime percentage. Prompts for a monitor name when none is given; use --list to see available names.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

// runReport executes the uptime report
func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	store := logstore.NewStore(cfg.Monitor.LogRoot)
	reporter := report.NewReporter(store)

	if listOnly, _ := cmd.Flags().GetBool("list"); listOnly {
		return printMonitorList(reporter)
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	} else {
		name, err = promptMonitorName(reporter)
		if err != nil {
			return err
		}
	}

	stats, err := reporter.Report(name)
	if err != nil {
		if utils.IsNotFound(err) {
			return fmt.Errorf("no logs found for monitor %q (use --list to see available monitors)", name)
		}
		return err
	}

	if !stats.HasData() {
		fmt.Printf("Monitor %q has no recorded checks yet.\n", name)
		return nil
	}

	fmt.Printf("Uptime report for %q\n", stats.Monitor)
	fmt.Printf("  Total checks:  %d\n", stats.TotalChecks)
	fmt.Printf("  Successful:    %d\n", stats.SuccessChecks)
	fmt.Printf("  Failed:        %d\n", stats.FailedChecks)
	fmt.Printf("  Uptime:        %.2f%%\n", stats.UptimePercent)
	fmt.Printf("  Files scanned: %d\n", stats.FilesScanned)
	return nil
}

// printMonitorList prints the monitor names found under the log root
func printMonitorList(reporter *report.Reporter) error {
	names, err := reporter.ListMonitors()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No monitors found under the log root.")
		return nil
	}
	fmt.Println("Available monitors:")
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

// promptMonitorName asks interactively for a monitor name
func promptMonitorName(reporter *report.Reporter) (string, error) {
	if err := printMonitorList(reporter); err != nil {
		return "", err
	}

	fmt.Print("Monitor name: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read monitor name: %w", err)
	}

	name := strings.TrimSpace(line)
	if name == "" {
		return "", fmt.Errorf("monitor name is required")
	}
	return name, nil
}

// configCmd groups configuration management commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

// validateConfigCmd validates the configuration
var validateConfigCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadAndValidateConfig()
		if err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		fmt.Println("Configuration is valid!")
		fmt.Printf("Monitor:   %s\n", cfg.Monitor.Name)
		fmt.Printf("URL:       %s\n", cfg.Monitor.URL)
		fmt.Printf("Interval:  %s\n", cfg.Monitor.CheckInterval)
		fmt.Printf("Threshold: %d\n", cfg.Monitor.FailureThreshold)
		fmt.Printf("Log root:  %s\n", cfg.Monitor.LogRoot)
		return nil
	},
}

// versionCmd prints the version number
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("uptime-watcher %s\n", AppVersion)
	},
}

// loadAndValidateConfig loads the config and fails fast on invalid input
func loadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// init initializes the CLI commands
func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	reportCmd.Flags().Bool("list", false, "list available monitor names and exit")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	configCmd.AddCommand(validateConfigCmd)
}

// main is the entry point
func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
