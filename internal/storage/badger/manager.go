package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/helpsync/internal/common"
	"github.com/ternarybob/helpsync/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db      *BadgerDB
	article interfaces.ArticleStorage
	run     interfaces.RunStorage
	logger  arbor.ILogger
}

// NewManager opens the database and wires the typed storages over it
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:      db,
		article: NewArticleStorage(db, logger),
		run:     NewRunStorage(db, logger),
		logger:  logger,
	}

	logger.Info().Str("path", config.Path).Msg("Badger storage initialized")

	return manager, nil
}

// ArticleStorage returns the article record storage
func (m *Manager) ArticleStorage() interfaces.ArticleStorage {
	return m.article
}

// RunStorage returns the run report storage
func (m *Manager) RunStorage() interfaces.RunStorage {
	return m.run
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
