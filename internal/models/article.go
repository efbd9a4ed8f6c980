package models

import (
	"fmt"
	"time"
)

// Classification is the per-run delta state assigned to a fetched article.
// It is recomputed every run from the persisted ArticleRecord and never stored.
type Classification string

const (
	// ClassificationUnseen indicates no record exists for the article yet
	ClassificationUnseen Classification = "unseen"
	// ClassificationUnchanged indicates the stored fingerprint matches the fetched content
	ClassificationUnchanged Classification = "unchanged"
	// ClassificationChanged indicates the fetched content differs from the stored fingerprint
	ClassificationChanged Classification = "changed"
)

func (c Classification) String() string {
	return string(c)
}

// Article represents a single help-center article as returned by the source
// API. Articles are built fresh each run, never mutated, and discarded when
// the run completes.
type Article struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"` // Canonical public URL of the article
	BodyHTML  string    `json:"body_html"`
	Draft     bool      `json:"draft"`
	UpdatedAt time.Time `json:"updated_at"` // Source-side last update timestamp
}

// ArticleDocument is the normalized upload artifact derived from an Article.
// Markdown holds the exact bytes destined for the index store; Fingerprint is
// computed over those bytes and nothing else, so two documents with equal
// Markdown always carry equal fingerprints.
type ArticleDocument struct {
	ArticleID       int64     `json:"article_id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	URL             string    `json:"url"`
	SourceUpdatedAt time.Time `json:"source_updated_at"`
	Markdown        string    `json:"markdown"`
	Fingerprint     string    `json:"fingerprint"` // SHA-256 hex over Markdown
}

// Filename is the upload name for the document. The article ID suffix keeps
// names unique when two articles share a title.
func (d *ArticleDocument) Filename() string {
	return fmt.Sprintf("%s-%d.md", d.Slug, d.ArticleID)
}

// ArticleRecord is the persisted sync state for one article, keyed by the
// source article ID. A record is created the first time an article is seen
// and updated in place after every successful reconciliation. Records are
// never deleted, even when the article disappears at the source.
type ArticleRecord struct {
	ArticleID       int64     `json:"article_id"`
	Title           string    `json:"title"`
	Slug            string    `json:"slug"`
	SourceUpdatedAt time.Time `json:"source_updated_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Fingerprint is the content hash as of the last successful upload.
	// Empty means no upload has completed for this article yet (or the
	// record predates fingerprint tracking and must be backfilled).
	Fingerprint string `json:"fingerprint,omitempty"`

	// RemoteFileID points at the document currently live in the index
	// store. Empty means no live document is recorded.
	RemoteFileID string `json:"remote_file_id,omitempty"`
}

// HasFingerprint reports whether the record carries a content fingerprint.
func (r *ArticleRecord) HasFingerprint() bool {
	return r != nil && r.Fingerprint != ""
}

// HasRemoteFile reports whether the record points at a live remote document.
func (r *ArticleRecord) HasRemoteFile() bool {
	return r != nil && r.RemoteFileID != ""
}
