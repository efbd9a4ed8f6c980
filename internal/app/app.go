// -----------------------------------------------------------------------
// Last Modified: Wednesday, 19th November 2025 9:12:40 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/helpsync/internal/common"
	"github.com/ternarybob/helpsync/internal/interfaces"
	"github.com/ternarybob/helpsync/internal/models"
	"github.com/ternarybob/helpsync/internal/openai"
	syncsvc "github.com/ternarybob/helpsync/internal/services/sync"
	"github.com/ternarybob/helpsync/internal/storage/badger"
	"github.com/ternarybob/helpsync/internal/zendesk"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	Source interfaces.ArticleSource
	Index  interfaces.IndexStore

	Coordinator *syncsvc.Coordinator
	Scheduler   *syncsvc.Scheduler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	if cfg.Index.APIKey == "" {
		return nil, fmt.Errorf("index API key is required (set OPENAI_API_KEY or index.api_key)")
	}

	app := &App{
		Config: cfg,
		Logger: logger,
	}

	storageManager, err := badger.NewManager(logger, &cfg.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	app.StorageManager = storageManager

	sourceClient := zendesk.NewClient(cfg.Source.BaseURL,
		zendesk.WithLocale(cfg.Source.Locale),
		zendesk.WithCredentials(cfg.Source.Email, cfg.Source.APIToken),
		zendesk.WithUserAgent(cfg.Source.UserAgent),
		zendesk.WithPageSize(cfg.Source.PageSize),
		zendesk.WithRateLimit(cfg.Source.RateLimit.Std()),
		zendesk.WithHTTPClient(&http.Client{Timeout: cfg.Source.RequestTimeout.Std()}),
		zendesk.WithLogger(logger),
	)
	app.Source = zendesk.NewSource(sourceClient, logger)

	indexClient := openai.NewClient(cfg.Index.APIKey,
		openai.WithBaseURL(cfg.Index.BaseURL),
		openai.WithRateLimit(cfg.Index.RateLimit.Std()),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Index.RequestTimeout.Std()}),
		openai.WithLogger(logger),
	)
	app.Index = openai.NewStore(indexClient, logger)

	reporters := []interfaces.RunReporter{
		syncsvc.NewLogReporter(logger),
		syncsvc.NewStorageReporter(storageManager.RunStorage(), cfg.Sync.RunHistoryLimit, logger),
	}

	app.Coordinator = syncsvc.NewCoordinator(
		app.Source,
		storageManager.ArticleStorage(),
		app.Index,
		reporters,
		syncsvc.Options{
			CollectionName: cfg.Index.VectorStoreName,
			Lookback:       cfg.Sync.Lookback.Std(),
			MaxPerRun:      cfg.Sync.MaxPerRun,
		},
		logger,
	)

	app.Scheduler = syncsvc.NewScheduler(app.Coordinator, cfg.Schedule.RunTimeout.Std(), logger)

	logger.Info().
		Str("source", cfg.Source.BaseURL).
		Str("vector_store", cfg.Index.VectorStoreName).
		Msg("Application initialization complete")

	return app, nil
}

// RunOnce executes a single sync run and returns its report.
func (a *App) RunOnce(ctx context.Context) *models.RunReport {
	return a.Coordinator.RunOnce(ctx)
}

// StartScheduler begins scheduled execution using the configured cron
// expression.
func (a *App) StartScheduler() error {
	return a.Scheduler.Start(a.Config.Schedule.Cron)
}

// Close stops the scheduler and releases storage. Safe to call once at
// shutdown; scheduler stop waits for any in-flight run.
func (a *App) Close() error {
	if a.Scheduler != nil && a.Scheduler.IsRunning() {
		a.Scheduler.Stop()
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
