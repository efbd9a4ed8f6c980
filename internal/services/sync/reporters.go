package sync

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/helpsync/internal/interfaces"
	"github.com/ternarybob/helpsync/internal/models"
)

// LogReporter writes the final run report to the application log, one line
// per run.
type LogReporter struct {
	logger arbor.ILogger
}

// NewLogReporter creates a reporter that emits run outcomes to the log.
func NewLogReporter(logger arbor.ILogger) *LogReporter {
	return &LogReporter{logger: logger}
}

// Report logs the run outcome at info level, or error level for failed runs.
func (r *LogReporter) Report(ctx context.Context, report *models.RunReport) {
	event := r.logger.Info()
	if !report.Succeeded() {
		event = r.logger.Error()
	}

	event.
		Str("run_id", report.RunID).
		Str("status", string(report.Status)).
		Bool("first_run", report.FirstRun).
		Str("stats", report.Stats.Summary()).
		Dur("duration", report.Duration).
		Msg("Run report")
}

// StorageReporter persists run reports as browsable history, trimming old
// entries past the retention limit. Storage problems are logged and
// swallowed; history keeping must never affect a run's outcome.
type StorageReporter struct {
	storage interfaces.RunStorage
	keep    int
	logger  arbor.ILogger
}

// NewStorageReporter creates a reporter that saves reports to run storage,
// keeping at most keep entries. A non-positive keep disables pruning.
func NewStorageReporter(storage interfaces.RunStorage, keep int, logger arbor.ILogger) *StorageReporter {
	return &StorageReporter{
		storage: storage,
		keep:    keep,
		logger:  logger,
	}
}

// Report saves the run report and prunes history past the retention limit.
func (r *StorageReporter) Report(ctx context.Context, report *models.RunReport) {
	if err := r.storage.Save(ctx, report); err != nil {
		r.logger.Warn().
			Err(err).
			Str("run_id", report.RunID).
			Msg("Failed to save run report")
		return
	}

	if r.keep <= 0 {
		return
	}

	if err := r.storage.Prune(ctx, r.keep); err != nil {
		r.logger.Warn().
			Err(err).
			Msg("Failed to prune run history")
	}
}

var _ interfaces.RunReporter = (*LogReporter)(nil)
var _ interfaces.RunReporter = (*StorageReporter)(nil)
