// Package reconcile applies classified documents to the index store and keeps
// the persisted article records in step with what is actually live remotely.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/helpsync/internal/interfaces"
	"github.com/ternarybob/helpsync/internal/models"
)

// ItemError is a per-article reconciliation failure. The coordinator counts
// these and moves on to the next article; they never abort a run.
type ItemError struct {
	ArticleID int64
	Stage     string
	Err       error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("reconcile failed for article %d during %s: %v", e.ArticleID, e.Stage, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// Reconciler pushes documents into a collection and records each successful
// push. The article record is written only after both upload and attach
// succeed, so an interrupted run leaves the article looking changed and the
// next run repeats the upload instead of losing it.
type Reconciler struct {
	index   interfaces.IndexStore
	storage interfaces.ArticleStorage
	logger  arbor.ILogger
}

// NewReconciler creates a reconciler backed by the given index store and
// article storage.
func NewReconciler(index interfaces.IndexStore, storage interfaces.ArticleStorage, logger arbor.ILogger) *Reconciler {
	return &Reconciler{
		index:   index,
		storage: storage,
		logger:  logger,
	}
}

// Reconcile applies one classified document to the collection.
//
// Unchanged documents are a no-op. Changed documents have their previous
// remote file detached and deleted before the new upload; cleanup failures
// are logged and skipped, since an orphaned remote file costs storage, not
// correctness, and the record will point at the replacement either way.
func (r *Reconciler) Reconcile(ctx context.Context, collectionID string, document *models.ArticleDocument, classification models.Classification, prior *models.ArticleRecord) error {
	if classification == models.ClassificationUnchanged {
		r.logger.Debug().
			Int64("article_id", document.ArticleID).
			Msg("Article unchanged, skipping")
		return nil
	}

	if classification == models.ClassificationChanged && prior.HasRemoteFile() {
		r.removeStale(ctx, collectionID, document.ArticleID, prior.RemoteFileID)
	}

	fileID, err := r.index.UploadDocument(ctx, document.Filename(), []byte(document.Markdown))
	if err != nil {
		return &ItemError{ArticleID: document.ArticleID, Stage: "upload", Err: err}
	}

	if err := r.index.AttachDocument(ctx, collectionID, fileID); err != nil {
		return &ItemError{ArticleID: document.ArticleID, Stage: "attach", Err: err}
	}

	now := time.Now().UTC()
	record := &models.ArticleRecord{
		ArticleID:       document.ArticleID,
		Title:           document.Title,
		Slug:            document.Slug,
		SourceUpdatedAt: document.SourceUpdatedAt,
		CreatedAt:       now,
		UpdatedAt:       now,
		Fingerprint:     document.Fingerprint,
		RemoteFileID:    fileID,
	}
	if prior != nil {
		record.CreatedAt = prior.CreatedAt
	}

	if err := r.storage.Upsert(ctx, record); err != nil {
		return &ItemError{ArticleID: document.ArticleID, Stage: "persist", Err: err}
	}

	r.logger.Debug().
		Int64("article_id", document.ArticleID).
		Str("file_id", fileID).
		Str("classification", string(classification)).
		Msg("Article reconciled")

	return nil
}

// removeStale detaches and deletes the previously uploaded file. Both calls
// are attempted even when the first fails, and neither is retried.
func (r *Reconciler) removeStale(ctx context.Context, collectionID string, articleID int64, fileID string) {
	if err := r.index.DetachDocument(ctx, collectionID, fileID); err != nil {
		r.logger.Warn().
			Int64("article_id", articleID).
			Str("file_id", fileID).
			Err(err).
			Msg("Failed to detach stale file, continuing")
	}
	if err := r.index.DeleteDocument(ctx, fileID); err != nil {
		r.logger.Warn().
			Int64("article_id", articleID).
			Str("file_id", fileID).
			Err(err).
			Msg("Failed to delete stale file, continuing")
	}
}
