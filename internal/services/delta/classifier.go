// Package delta decides, per article, whether the index store needs work.
package delta

import (
	"github.com/ternarybob/helpsync/internal/models"
)

// Classifier assigns each normalized document a classification by comparing
// its fingerprint against the persisted record. Classifications are ephemeral
// and recomputed every run.
type Classifier struct{}

// NewClassifier creates a delta classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify applies the decision rules in order:
//
//  1. First run (empty metadata store): unseen.
//  2. No prior record: unseen.
//  3. Record has no stored fingerprint: changed, forcing a re-upload that
//     backfills the missing fingerprint.
//  4. Stored fingerprint equals the document fingerprint: unchanged.
//  5. Otherwise: changed.
//
// Rule 3 deliberately treats an absent fingerprint as "changed" rather than
// "unchanged": re-uploading once is cheap, while trusting a record we cannot
// verify risks serving stale content indefinitely.
func (c *Classifier) Classify(document *models.ArticleDocument, record *models.ArticleRecord, firstRun bool) models.Classification {
	if firstRun {
		return models.ClassificationUnseen
	}
	if record == nil {
		return models.ClassificationUnseen
	}
	if !record.HasFingerprint() {
		return models.ClassificationChanged
	}
	if record.Fingerprint == document.Fingerprint {
		return models.ClassificationUnchanged
	}
	return models.ClassificationChanged
}
