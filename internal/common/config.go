package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that TOML files set with strings like "30s".
// The TOML library has no native duration support.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText renders the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Schedule    ScheduleConfig `toml:"schedule"`
	Source      SourceConfig   `toml:"source"`
	Index       IndexConfig    `toml:"index"`
	Storage     StorageConfig  `toml:"storage"`
	Sync        SyncConfig     `toml:"sync"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ScheduleConfig controls the cron trigger for unattended runs
type ScheduleConfig struct {
	Enabled    bool     `toml:"enabled"`                  // Run on a schedule (false = single run via -once)
	Cron       string   `toml:"cron" validate:"required"` // Cron schedule with seconds field, e.g. "0 30 2 * * *"
	RunTimeout Duration `toml:"run_timeout"`              // Upper bound for a single sync run
}

// SourceConfig contains help center API configuration
type SourceConfig struct {
	BaseURL        string   `toml:"base_url" validate:"required,url"` // Help center base URL, e.g. "https://support.optisigns.com"
	Locale         string   `toml:"locale" validate:"required"`       // Help center locale segment (default: "en-us")
	Email          string   `toml:"email"`                            // API auth email (optional, anonymous access works for public centers)
	APIToken       string   `toml:"api_token"`                        // API token paired with email
	UserAgent      string   `toml:"user_agent"`
	PageSize       int      `toml:"page_size" validate:"min=1,max=100"` // Articles per page (API caps at 100)
	RateLimit      Duration `toml:"rate_limit"`                         // Minimum time between API requests
	RequestTimeout Duration `toml:"request_timeout"`                    // HTTP request timeout
}

// IndexConfig contains vector store API configuration
type IndexConfig struct {
	APIKey          string   `toml:"api_key"`                               // API key (prefer OPENAI_API_KEY env over config file)
	BaseURL         string   `toml:"base_url" validate:"required,url"`      // API base URL
	VectorStoreName string   `toml:"vector_store_name" validate:"required"` // Exact vector store name to resolve or create
	RateLimit       Duration `toml:"rate_limit"`                            // Minimum time between API requests
	RequestTimeout  Duration `toml:"request_timeout"`                       // HTTP request timeout (uploads included)
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

// SyncConfig controls admission and reconciliation behavior
type SyncConfig struct {
	Lookback        Duration `toml:"lookback"`                           // Staleness window for non-first runs (default: 24h)
	MaxPerRun       int      `toml:"max_per_run" validate:"min=1"`       // Per-run article cap
	RunHistoryLimit int      `toml:"run_history_limit" validate:"min=1"` // Run reports to retain in storage
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in helpsync.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Schedule: ScheduleConfig{
			Enabled:    true,
			Cron:       "0 30 2 * * *", // Daily at 02:30
			RunTimeout: Duration(10 * time.Minute),
		},
		Source: SourceConfig{
			BaseURL:        "https://optisignshelp.zendesk.com",
			Locale:         "en-us",
			UserAgent:      "helpsync/" + Version,
			PageSize:       100, // API maximum per page
			RateLimit:      Duration(250 * time.Millisecond),
			RequestTimeout: Duration(30 * time.Second),
		},
		Index: IndexConfig{
			APIKey:          "", // User must provide API key (OPENAI_API_KEY or config)
			BaseURL:         "https://api.openai.com/v1",
			VectorStoreName: "optisign-help-center",
			RateLimit:       Duration(200 * time.Millisecond),
			RequestTimeout:  Duration(120 * time.Second), // Uploads of large articles need headroom
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Sync: SyncConfig{
			Lookback:        Duration(24 * time.Hour),
			MaxPerRun:       40,
			RunHistoryLimit: 50,
		},
		Logging: LoggingConfig{
			Level:      "info",                     // Info level for production (debug|info|warn|error)
			Format:     "text",                     // Human-readable text format (text|json)
			Output:     []string{"stdout", "file"}, // Log to both console and file
			TimeFormat: "15:04:05.000",
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
// Priority system: CLI flags > Environment variables > Config file > Defaults
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env -> CLI
// Later files override earlier files.
// Example: LoadFromFiles("base.toml", "override.toml") - override.toml settings take precedence over base.toml
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: HELPSYNC_ENV, fallback: GO_ENV)
	if env := os.Getenv("HELPSYNC_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Schedule configuration
	if enabled := os.Getenv("HELPSYNC_SCHEDULE_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Schedule.Enabled = e
		}
	}
	if cronExpr := os.Getenv("HELPSYNC_SCHEDULE_CRON"); cronExpr != "" {
		config.Schedule.Cron = cronExpr
	}
	if runTimeout := os.Getenv("HELPSYNC_SCHEDULE_RUN_TIMEOUT"); runTimeout != "" {
		if rt, err := time.ParseDuration(runTimeout); err == nil {
			config.Schedule.RunTimeout = Duration(rt)
		}
	}

	// Source configuration
	if baseURL := os.Getenv("HELPSYNC_SOURCE_BASE_URL"); baseURL != "" {
		config.Source.BaseURL = baseURL
	}
	if locale := os.Getenv("HELPSYNC_SOURCE_LOCALE"); locale != "" {
		config.Source.Locale = locale
	}
	if email := os.Getenv("HELPSYNC_SOURCE_EMAIL"); email != "" {
		config.Source.Email = email
	}
	if token := os.Getenv("HELPSYNC_SOURCE_API_TOKEN"); token != "" {
		config.Source.APIToken = token
	}
	if userAgent := os.Getenv("HELPSYNC_SOURCE_USER_AGENT"); userAgent != "" {
		config.Source.UserAgent = userAgent
	}
	if pageSize := os.Getenv("HELPSYNC_SOURCE_PAGE_SIZE"); pageSize != "" {
		if ps, err := strconv.Atoi(pageSize); err == nil {
			config.Source.PageSize = ps
		}
	}
	if rateLimit := os.Getenv("HELPSYNC_SOURCE_RATE_LIMIT"); rateLimit != "" {
		if rl, err := time.ParseDuration(rateLimit); err == nil {
			config.Source.RateLimit = Duration(rl)
		}
	}
	if requestTimeout := os.Getenv("HELPSYNC_SOURCE_REQUEST_TIMEOUT"); requestTimeout != "" {
		if rt, err := time.ParseDuration(requestTimeout); err == nil {
			config.Source.RequestTimeout = Duration(rt)
		}
	}

	// Index configuration
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		config.Index.APIKey = apiKey
	}
	if apiKey := os.Getenv("HELPSYNC_INDEX_API_KEY"); apiKey != "" {
		config.Index.APIKey = apiKey // HELPSYNC_ prefix takes priority
	}
	if baseURL := os.Getenv("HELPSYNC_INDEX_BASE_URL"); baseURL != "" {
		config.Index.BaseURL = baseURL
	}
	if storeName := os.Getenv("HELPSYNC_INDEX_VECTOR_STORE_NAME"); storeName != "" {
		config.Index.VectorStoreName = storeName
	}
	if rateLimit := os.Getenv("HELPSYNC_INDEX_RATE_LIMIT"); rateLimit != "" {
		if rl, err := time.ParseDuration(rateLimit); err == nil {
			config.Index.RateLimit = Duration(rl)
		}
	}
	if requestTimeout := os.Getenv("HELPSYNC_INDEX_REQUEST_TIMEOUT"); requestTimeout != "" {
		if rt, err := time.ParseDuration(requestTimeout); err == nil {
			config.Index.RequestTimeout = Duration(rt)
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("HELPSYNC_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if reset := os.Getenv("HELPSYNC_BADGER_RESET_ON_STARTUP"); reset != "" {
		if r, err := strconv.ParseBool(reset); err == nil {
			config.Storage.Badger.ResetOnStartup = r
		}
	}

	// Sync configuration
	if lookback := os.Getenv("HELPSYNC_SYNC_LOOKBACK"); lookback != "" {
		if lb, err := time.ParseDuration(lookback); err == nil {
			config.Sync.Lookback = Duration(lb)
		}
	}
	if maxPerRun := os.Getenv("HELPSYNC_SYNC_MAX_PER_RUN"); maxPerRun != "" {
		if mpr, err := strconv.Atoi(maxPerRun); err == nil {
			config.Sync.MaxPerRun = mpr
		}
	}
	if historyLimit := os.Getenv("HELPSYNC_SYNC_RUN_HISTORY_LIMIT"); historyLimit != "" {
		if hl, err := strconv.Atoi(historyLimit); err == nil {
			config.Sync.RunHistoryLimit = hl
		}
	}

	// Logging configuration
	if level := os.Getenv("HELPSYNC_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("HELPSYNC_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("HELPSYNC_LOG_OUTPUT"); output != "" {
		// Split comma-separated output types
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
	if timeFormat := os.Getenv("HELPSYNC_LOG_TIME_FORMAT"); timeFormat != "" {
		config.Logging.TimeFormat = timeFormat
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, storeName string, lookback time.Duration, maxPerRun int) {
	// Command-line flags have highest priority
	if storeName != "" {
		config.Index.VectorStoreName = storeName
	}
	if lookback > 0 {
		config.Sync.Lookback = Duration(lookback)
	}
	if maxPerRun > 0 {
		config.Sync.MaxPerRun = maxPerRun
	}
}

// Validate checks the configuration using go-playground/validator tags.
// Returns an error if any required fields are missing or invalid.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Sync.Lookback <= 0 {
		return fmt.Errorf("invalid configuration: sync.lookback must be positive, got %s", c.Sync.Lookback.Std())
	}
	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
