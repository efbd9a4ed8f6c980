// -----------------------------------------------------------------------
// Last Modified: Wednesday, 19th November 2025 9:40:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/helpsync/internal/app"
	"github.com/ternarybob/helpsync/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	runOnce      = flag.Bool("once", false, "Run a single sync and exit")
	storeName    = flag.String("store", "", "Vector store name (overrides config)")
	lookback     = flag.Duration("lookback", 0, "Staleness window, e.g. 48h (overrides config)")
	maxPerRun    = flag.Int("max", 0, "Max articles per run (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	// Handle version flag
	if *showVersion || *showVersionV {
		fmt.Printf("Helpsync version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Local .env keeps API keys out of config files
	_ = godotenv.Load()

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("helpsync.toml"); err == nil {
			configFiles = append(configFiles, "helpsync.toml")
		} else if _, err := os.Stat("config/helpsync.toml"); err == nil {
			configFiles = append(configFiles, "config/helpsync.toml")
		}
	}

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		// Use temporary logger for startup errors
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *storeName, *lookback, *maxPerRun)

	if err := config.Validate(); err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	common.InstallCrashHandler("")
	defer common.RecoverWithCrashFile()

	logger.Info().
		Strs("config_files", configFiles).
		Str("environment", config.Environment).
		Str("source", config.Source.BaseURL).
		Str("vector_store", config.Index.VectorStoreName).
		Msg("Application configuration loaded")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	// A single run covers both the -once flag and a disabled schedule.
	if *runOnce || !config.Schedule.Enabled {
		runSingle(application)
		return
	}

	if err := application.StartScheduler(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start scheduler")
		os.Exit(1)
	}

	logger.Info().
		Str("schedule", config.Schedule.Cron).
		Msg("Scheduler ready - Press Ctrl+C to stop")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Interrupt signal received, shutting down")
}

// runSingle executes one sync run and terminates the process with an exit
// code reflecting the run status.
func runSingle(application *app.App) {
	timeout := application.Config.Schedule.RunTimeout.Std()
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	report := application.RunOnce(ctx)

	if err := application.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close application cleanly")
	}

	if !report.Succeeded() {
		os.Exit(1)
	}
	os.Exit(0)
}
