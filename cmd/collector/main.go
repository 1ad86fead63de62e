package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"syslog-collector/internal/api"
	"syslog-collector/internal/gate"
	"syslog-collector/internal/listener"
	"syslog-collector/internal/metrics"
	"syslog-collector/internal/parser"
	"syslog-collector/internal/pipeline"
	"syslog-collector/internal/query"
	"syslog-collector/internal/storage"
	"syslog-collector/internal/supervisor"
	"syslog-collector/internal/utils"

	"github.com/spf13/cobra"
)

var configFile string

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "collector",
		Short: "Firewall syslog collector",
		Long: `collector ingests firewall traffic logs over UDP, parses vendor
key=value syslog payloads into structured records, and serves filtered and
aggregated views over the ingested data.`,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "configs/collector.yaml", "Configuration file path (YAML)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newSeedTemplateCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() *utils.CollectorConfig {
	config, err := utils.LoadCollectorConfig(configFile)
	if err != nil {
		fmt.Printf("Failed to load config %s: %v\n", configFile, err)
		fmt.Println("Using default configuration...")
		config = utils.GetDefaultCollectorConfig()
	}
	return config
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the UDP listener and query API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	config := loadConfig()
	logger := utils.NewLogger(config.Logging.Level, config.Logging.Format)

	store, err := storage.Open(config.Storage.Path, logger)
	if err != nil {
		return fmt.Errorf("storage init failed: %w", err)
	}
	defer store.Close()

	exporter := metrics.NewExporter(config.Metrics.Port, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.Metrics.Enabled {
		go func() {
			if err := exporter.Start(ctx); err != nil {
				logger.Errorf("Metrics exporter error: %v", err)
			}
		}()
	}

	parsers := parser.DefaultRegistry()
	if _, ok := parsers.Lookup(config.Listener.Vendor); !ok {
		return fmt.Errorf("no parser for vendor %q (supported: %s)",
			config.Listener.Vendor, strings.Join(parsers.Vendors(), ", "))
	}

	deviceGate := gate.New(store, logger)
	processor := pipeline.NewProcessor(
		deviceGate,
		parsers,
		store,
		exporter.GetMetrics(),
		logger,
		config.Listener.Vendor,
		time.Duration(config.Listener.WriteTimeoutSeconds)*time.Second,
	)
	udpListener := listener.New(config.Listener.Host, config.Listener.Port, config.Listener.Workers, processor, logger)

	engine := query.NewEngine(
		store,
		logger,
		config.API.RecordPageSize,
		config.API.AggregatePageSize,
		time.Duration(config.API.QueryTimeoutSeconds)*time.Second,
	)
	sup := supervisor.NewPidfileSupervisor(config.Supervisor.PidFile, config.Supervisor.Command, logger)
	server := api.NewServer(config.API.Port, api.NewHandlers(engine, store, sup, logger), logger)

	// Record our own pid so an external control surface can verify liveness.
	if err := sup.WritePid(os.Getpid()); err != nil {
		logger.Warnf("Could not write pidfile: %v", err)
	}
	if err := store.MarkServiceStarted(os.Getpid()); err != nil {
		logger.Warnf("Could not update service status: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	go func() {
		if err := server.Start(ctx); err != nil {
			logger.Errorf("API server failed: %v", err)
			cancel()
		}
	}()

	// Bind failure here is fatal; anything after that only stops on cancel.
	err = udpListener.ListenAndServe(ctx)

	if markErr := store.MarkServiceStopped(); markErr != nil {
		logger.Warnf("Could not update service status: %v", markErr)
	}
	if clearErr := sup.ClearPid(); clearErr != nil {
		logger.Warnf("Could not remove pidfile: %v", clearErr)
	}

	return err
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the listener process is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			logger := utils.NewLogger(config.Logging.Level, config.Logging.Format)

			sup := supervisor.NewPidfileSupervisor(config.Supervisor.PidFile, config.Supervisor.Command, logger)
			if sup.IsRunning() {
				fmt.Printf("Syslog collector running, pid %d\n", sup.PID())
			} else {
				fmt.Println("Syslog collector not running")
			}
			return nil
		},
	}
}

func newSeedTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-template",
		Short: "Create or refresh the default Fortinet parser template",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			logger := utils.NewLogger(config.Logging.Level, config.Logging.Format)

			store, err := storage.Open(config.Storage.Path, logger)
			if err != nil {
				return fmt.Errorf("storage init failed: %w", err)
			}
			defer store.Close()

			created, err := store.SeedFortinetTemplate(context.Background())
			if err != nil {
				return err
			}
			if created {
				fmt.Println("Created Fortinet parser template")
			} else {
				fmt.Println("Updated Fortinet parser template")
			}
			return nil
		},
	}
}
