package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/helpsync/internal/models"
)

// ArticleSource fetches published help-center articles from the upstream API
type ArticleSource interface {
	// FetchUpdated returns published articles updated at or after cutoff,
	// newest first, up to limit. A zero cutoff disables the staleness filter.
	FetchUpdated(ctx context.Context, cutoff time.Time, limit int) ([]*models.Article, error)
}
