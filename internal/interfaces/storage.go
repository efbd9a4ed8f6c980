// -----------------------------------------------------------------------
// Last Modified: Thursday, 14th November 2025 12:00:00 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/helpsync/internal/models"
)

// ErrRecordNotFound is returned when an article record does not exist in storage
var ErrRecordNotFound = errors.New("record not found")

// ArticleStorage persists per-article sync state between runs
type ArticleStorage interface {
	// Get retrieves the record for an article, returns ErrRecordNotFound if absent
	Get(ctx context.Context, articleID int64) (*models.ArticleRecord, error)

	// GetAll returns all records keyed by article ID
	GetAll(ctx context.Context) (map[int64]*models.ArticleRecord, error)

	// Upsert inserts or replaces the record for an article
	Upsert(ctx context.Context, record *models.ArticleRecord) error

	// Count returns the number of stored records
	Count(ctx context.Context) (int, error)
}

// StorageManager owns the database connection and its typed storages
type StorageManager interface {
	// ArticleStorage returns the article record storage
	ArticleStorage() ArticleStorage

	// RunStorage returns the run report storage
	RunStorage() RunStorage

	// Close closes the underlying database connection
	Close() error
}

// RunStorage persists run reports for history and diagnostics
type RunStorage interface {
	// Save stores a completed run report
	Save(ctx context.Context, report *models.RunReport) error

	// List returns the most recent run reports, newest first, up to limit
	List(ctx context.Context, limit int) ([]*models.RunReport, error)

	// Prune deletes all but the keep most recent run reports
	Prune(ctx context.Context, keep int) error
}
