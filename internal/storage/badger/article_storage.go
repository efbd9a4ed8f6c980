package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/helpsync/internal/interfaces"
	"github.com/ternarybob/helpsync/internal/models"
)

// ArticleStorage implements the ArticleStorage interface for Badger. Records
// are keyed by the source article ID.
type ArticleStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewArticleStorage creates a new ArticleStorage instance
func NewArticleStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ArticleStorage {
	return &ArticleStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ArticleStorage) Get(ctx context.Context, articleID int64) (*models.ArticleRecord, error) {
	var record models.ArticleRecord
	if err := s.db.Store().Get(articleID, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get article record %d: %w", articleID, err)
	}
	return &record, nil
}

func (s *ArticleStorage) GetAll(ctx context.Context) (map[int64]*models.ArticleRecord, error) {
	var records []models.ArticleRecord
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to list article records: %w", err)
	}

	result := make(map[int64]*models.ArticleRecord, len(records))
	for i := range records {
		result[records[i].ArticleID] = &records[i]
	}
	return result, nil
}

func (s *ArticleStorage) Upsert(ctx context.Context, record *models.ArticleRecord) error {
	if record == nil || record.ArticleID == 0 {
		return fmt.Errorf("article ID is required")
	}

	if err := s.db.Store().Upsert(record.ArticleID, record); err != nil {
		return fmt.Errorf("failed to save article record %d: %w", record.ArticleID, err)
	}
	return nil
}

func (s *ArticleStorage) Count(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ArticleRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count article records: %w", err)
	}
	return int(count), nil
}
