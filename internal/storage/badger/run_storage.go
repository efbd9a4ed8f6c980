package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/helpsync/internal/interfaces"
	"github.com/ternarybob/helpsync/internal/models"
)

// RunStorage implements the RunStorage interface for Badger. Reports are
// keyed by run ID and ordered by start time.
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

func (s *RunStorage) Save(ctx context.Context, report *models.RunReport) error {
	if report == nil || report.RunID == "" {
		return fmt.Errorf("run ID is required")
	}

	if err := s.db.Store().Upsert(report.RunID, report); err != nil {
		return fmt.Errorf("failed to save run report %s: %w", report.RunID, err)
	}
	return nil
}

func (s *RunStorage) List(ctx context.Context, limit int) ([]*models.RunReport, error) {
	query := badgerhold.Where("RunID").Ne("").SortBy("StartedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reports []models.RunReport
	if err := s.db.Store().Find(&reports, query); err != nil {
		return nil, fmt.Errorf("failed to list run reports: %w", err)
	}

	result := make([]*models.RunReport, len(reports))
	for i := range reports {
		result[i] = &reports[i]
	}
	return result, nil
}

func (s *RunStorage) Prune(ctx context.Context, keep int) error {
	if keep <= 0 {
		return nil
	}

	var stale []models.RunReport
	query := badgerhold.Where("RunID").Ne("").SortBy("StartedAt").Reverse().Skip(keep)
	if err := s.db.Store().Find(&stale, query); err != nil {
		return fmt.Errorf("failed to find run reports to prune: %w", err)
	}

	for i := range stale {
		if err := s.db.Store().Delete(stale[i].RunID, &models.RunReport{}); err != nil {
			return fmt.Errorf("failed to delete run report %s: %w", stale[i].RunID, err)
		}
	}

	if len(stale) > 0 {
		s.logger.Debug().Int("pruned", len(stale)).Msg("Pruned old run reports")
	}
	return nil
}
