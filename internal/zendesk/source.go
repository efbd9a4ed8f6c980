package zendesk

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/helpsync/internal/interfaces"
	"github.com/ternarybob/helpsync/internal/models"
)

// maxListPages bounds pagination against a misbehaving API.
const maxListPages = 50

// Source adapts the help center client to the article source contract,
// applying the admission filter: drafts are excluded, items at or older than
// the cutoff terminate the fetch, and at most limit articles are admitted.
//
// Early termination relies on the listing being ordered newest-updated-first:
// once one item is at or older than the cutoff, all remaining items are too.
type Source struct {
	client *Client
	logger arbor.ILogger
}

var _ interfaces.ArticleSource = (*Source)(nil)

// NewSource creates an article source backed by the help center API.
func NewSource(client *Client, logger arbor.ILogger) *Source {
	return &Source{
		client: client,
		logger: logger,
	}
}

// FetchUpdated returns published articles strictly newer than cutoff, newest
// first, up to limit. A zero cutoff disables the staleness filter (first run).
// Fetching stops as soon as the cutoff or the limit is reached; later pages
// are never requested.
func (s *Source) FetchUpdated(ctx context.Context, cutoff time.Time, limit int) ([]*models.Article, error) {
	admitted := []*models.Article{}
	skippedDrafts := 0

	for page := 1; page <= maxListPages; page++ {
		resp, err := s.client.ListArticles(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("failed to list articles (page %d): %w", page, err)
		}

		s.logger.Debug().
			Int("page", page).
			Int("articles", len(resp.Articles)).
			Msg("Fetched article page")

		for _, article := range resp.Articles {
			if !cutoff.IsZero() && !article.UpdatedAt.After(cutoff) {
				s.logger.Debug().
					Int64("article_id", article.ID).
					Str("updated_at", article.UpdatedAt.Format(time.RFC3339)).
					Str("cutoff", cutoff.Format(time.RFC3339)).
					Msg("Reached cutoff, stopping fetch")
				s.logSummary(len(admitted), skippedDrafts)
				return admitted, nil
			}

			if article.Draft {
				skippedDrafts++
				continue
			}

			admitted = append(admitted, toModel(article))
			if limit > 0 && len(admitted) >= limit {
				s.logger.Debug().
					Int("limit", limit).
					Msg("Article limit reached, stopping fetch")
				s.logSummary(len(admitted), skippedDrafts)
				return admitted, nil
			}
		}

		if !resp.HasNextPage() || len(resp.Articles) == 0 {
			break
		}
	}

	s.logSummary(len(admitted), skippedDrafts)
	return admitted, nil
}

func (s *Source) logSummary(admitted, skippedDrafts int) {
	s.logger.Debug().
		Int("admitted", admitted).
		Int("skipped_drafts", skippedDrafts).
		Msg("Article fetch complete")
}

// toModel converts an API article to the internal model.
func toModel(a *Article) *models.Article {
	return &models.Article{
		ID:        a.ID,
		Title:     a.Title,
		URL:       a.HTMLURL,
		BodyHTML:  a.Body,
		Draft:     a.Draft,
		UpdatedAt: a.UpdatedAt,
	}
}
