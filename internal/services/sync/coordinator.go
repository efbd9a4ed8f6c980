// Package sync drives complete synchronization runs: fetch articles from the
// source, classify them against stored state, reconcile the index store, and
// report the outcome.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/helpsync/internal/common"
	"github.com/ternarybob/helpsync/internal/interfaces"
	"github.com/ternarybob/helpsync/internal/models"
	"github.com/ternarybob/helpsync/internal/services/content"
	"github.com/ternarybob/helpsync/internal/services/delta"
	"github.com/ternarybob/helpsync/internal/services/reconcile"
)

// RunState identifies the pipeline stage a run is currently in.
type RunState string

const (
	StateIdle        RunState = "idle"
	StateFetching    RunState = "fetching"
	StateClassifying RunState = "classifying"
	StateReconciling RunState = "reconciling"
	StatePersisting  RunState = "persisting"
)

// Options configure run behavior.
type Options struct {
	CollectionName string        // Vector store name to resolve or create each run
	Lookback       time.Duration // Staleness window for non-first runs
	MaxPerRun      int           // Admission cap per run
}

// workItem pairs a normalized document with its classification for the
// reconcile stage. Classification happens for every admitted article before
// any reconciliation starts.
type workItem struct {
	document       *models.ArticleDocument
	classification models.Classification
	prior          *models.ArticleRecord
}

// Coordinator sequences the stages of a sync run. Stages run strictly one
// after another; a fetch or collection-resolution failure aborts the run,
// while per-item failures are counted and skipped.
type Coordinator struct {
	source     interfaces.ArticleSource
	storage    interfaces.ArticleStorage
	index      interfaces.IndexStore
	reporters  []interfaces.RunReporter
	normalizer *content.Normalizer
	classifier *delta.Classifier
	reconciler *reconcile.Reconciler
	logger     arbor.ILogger
	opts       Options

	state      RunState
	lastReport *models.RunReport
}

// NewCoordinator creates a coordinator over the given collaborators. The
// reporters all receive the final report of every run, in order.
func NewCoordinator(source interfaces.ArticleSource, storage interfaces.ArticleStorage, index interfaces.IndexStore, reporters []interfaces.RunReporter, opts Options, logger arbor.ILogger) *Coordinator {
	return &Coordinator{
		source:     source,
		storage:    storage,
		index:      index,
		reporters:  reporters,
		normalizer: content.NewNormalizer(logger),
		classifier: delta.NewClassifier(),
		reconciler: reconcile.NewReconciler(index, storage, logger),
		logger:     logger,
		opts:       opts,
		state:      StateIdle,
	}
}

// State returns the stage the coordinator is currently executing.
func (c *Coordinator) State() RunState {
	return c.state
}

// LastReport returns the report of the most recently completed run, or nil
// if no run has completed yet.
func (c *Coordinator) LastReport() *models.RunReport {
	return c.lastReport
}

// RunOnce executes a single synchronization run and returns its report. The
// report is always non-nil and is delivered to every configured reporter
// before returning, whatever the outcome. Callers decide exit behavior from
// the report status; per-item errors leave the status at succeeded.
func (c *Coordinator) RunOnce(ctx context.Context) *models.RunReport {
	runID := common.NewRunID()
	logger := c.logger.WithCorrelationId(runID)

	report := &models.RunReport{
		RunID:     runID,
		Status:    models.RunStatusSucceeded,
		StartedAt: time.Now().UTC(),
	}

	logger.Info().Str("run_id", runID).Msg("Sync run started")

	if err := c.run(ctx, logger, report); err != nil {
		report.Status = models.RunStatusFailed
		report.Error = err.Error()
	}

	report.CompletedAt = time.Now().UTC()
	report.Duration = report.CompletedAt.Sub(report.StartedAt)

	c.state = StatePersisting
	c.emit(ctx, report)
	c.state = StateIdle
	c.lastReport = report

	if report.Succeeded() {
		logger.Info().
			Int("fetched", report.Stats.Fetched).
			Int("new", report.Stats.NewUploaded).
			Int("updated", report.Stats.UpdatedUploaded).
			Int("skipped", report.Stats.SkippedUnchanged).
			Int("errors", report.Stats.Errors).
			Dur("duration", report.Duration).
			Msg("Sync run completed")
	} else {
		logger.Error().
			Str("error", report.Error).
			Dur("duration", report.Duration).
			Msg("Sync run failed")
	}

	return report
}

// run walks the pipeline stages and returns the first stage-fatal error.
// Per-item problems are counted in the report stats and logged, never
// returned.
func (c *Coordinator) run(ctx context.Context, logger arbor.ILogger, report *models.RunReport) error {
	count, err := c.storage.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count stored records: %w", err)
	}
	firstRun := count == 0
	report.FirstRun = firstRun

	// First runs index the full backlog; later runs only look back far
	// enough to cover missed schedules.
	var cutoff time.Time
	if !firstRun {
		cutoff = time.Now().UTC().Add(-c.opts.Lookback)
	}

	c.state = StateFetching
	logger.Info().
		Bool("first_run", firstRun).
		Str("cutoff", formatCutoff(cutoff)).
		Int("max_per_run", c.opts.MaxPerRun).
		Msg("Fetching updated articles")

	articles, err := c.source.FetchUpdated(ctx, cutoff, c.opts.MaxPerRun)
	if err != nil {
		return fmt.Errorf("failed to fetch articles: %w", err)
	}
	report.Stats.Fetched = len(articles)

	c.state = StateClassifying
	records, err := c.storage.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load article records: %w", err)
	}

	items := make([]workItem, 0, len(articles))
	for _, article := range articles {
		document, err := c.normalizer.Normalize(article)
		if err != nil {
			report.Stats.Errors++
			logger.Warn().
				Int64("article_id", article.ID).
				Err(err).
				Msg("Failed to normalize article, skipping")
			continue
		}

		prior := records[article.ID]
		items = append(items, workItem{
			document:       document,
			classification: c.classifier.Classify(document, prior, firstRun),
			prior:          prior,
		})
	}

	c.state = StateReconciling
	collectionID, err := c.index.ResolveCollection(ctx, c.opts.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to resolve collection %q: %w", c.opts.CollectionName, err)
	}

	for _, item := range items {
		if err := c.reconciler.Reconcile(ctx, collectionID, item.document, item.classification, item.prior); err != nil {
			report.Stats.Errors++
			logger.Warn().
				Int64("article_id", item.document.ArticleID).
				Err(err).
				Msg("Failed to reconcile article, continuing")
			continue
		}

		switch item.classification {
		case models.ClassificationUnseen:
			report.Stats.NewUploaded++
		case models.ClassificationChanged:
			report.Stats.UpdatedUploaded++
		case models.ClassificationUnchanged:
			report.Stats.SkippedUnchanged++
		}
	}

	return nil
}

// emit delivers the report to each reporter in order. The RunReporter
// contract requires implementations to swallow their own failures, so
// delivery never changes the run outcome.
func (c *Coordinator) emit(ctx context.Context, report *models.RunReport) {
	for _, reporter := range c.reporters {
		reporter.Report(ctx, report)
	}
}

func formatCutoff(cutoff time.Time) string {
	if cutoff.IsZero() {
		return "none"
	}
	return cutoff.Format(time.RFC3339)
}
