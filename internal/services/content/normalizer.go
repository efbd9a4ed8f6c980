// Package content normalizes raw article HTML into the exact markdown
// artifact uploaded to the index store.
package content

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/helpsync/internal/models"
)

var (
	whitespaceRuns = regexp.MustCompile(`\s+`)
	slugStrip      = regexp.MustCompile(`[^a-z0-9]+`)
)

// boilerplateSelectors are removed from the article body before conversion.
var boilerplateSelectors = []string{
	"nav, header, footer, aside, script, style, noscript",
	"[class*=ad], [class*=advertisement], [class*=banner], [class*=promo], [class*=sidebar], [class*=related]",
}

// Normalizer converts article HTML into a deterministic markdown document.
//
// The fingerprint is computed over exactly the bytes that get uploaded,
// header included. Every downstream delta decision trusts this equivalence:
// equal fingerprints mean the uploaded artifact is byte-identical.
type Normalizer struct {
	logger arbor.ILogger
}

// NewNormalizer creates a content normalizer.
func NewNormalizer(logger arbor.ILogger) *Normalizer {
	return &Normalizer{
		logger: logger,
	}
}

// Normalize produces the upload document for an article: boilerplate markup
// stripped, body converted to markdown, whitespace runs collapsed to single
// spaces, and a title/source header prepended. Two fetches of logically
// identical content yield byte-identical markdown.
func (n *Normalizer) Normalize(article *models.Article) (*models.ArticleDocument, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.BodyHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse article %d HTML: %w", article.ID, err)
	}

	for _, selector := range boilerplateSelectors {
		doc.Find(selector).Remove()
	}

	// goquery wraps fragments in html/body
	cleanedHTML, err := doc.Find("body").Html()
	if err != nil {
		return nil, fmt.Errorf("failed to extract cleaned HTML for article %d: %w", article.ID, err)
	}

	converter := md.NewConverter(article.URL, true, nil)
	markdown, err := converter.ConvertString(cleanedHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to convert article %d to markdown: %w", article.ID, err)
	}

	body := collapseWhitespace(markdown)

	// Header mirrors the uploaded artifact exactly; a title or URL change
	// therefore changes the fingerprint
	text := fmt.Sprintf("# %s\n**Source:** %s\n\n%s", article.Title, article.URL, body)

	document := &models.ArticleDocument{
		ArticleID:       article.ID,
		Title:           article.Title,
		Slug:            Slugify(article.Title),
		URL:             article.URL,
		SourceUpdatedAt: article.UpdatedAt,
		Markdown:        text,
		Fingerprint:     Fingerprint(text),
	}

	n.logger.Debug().
		Int64("article_id", article.ID).
		Str("slug", document.Slug).
		Int("bytes", len(text)).
		Str("fingerprint", document.Fingerprint[:12]).
		Msg("Normalized article")

	return document, nil
}

// collapseWhitespace reduces every whitespace run to a single space and trims
// the ends, so formatting noise never shows up as a content change.
func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(s, " "))
}

// Slugify derives a URL-safe slug from an article title.
func Slugify(title string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

// Fingerprint returns the SHA-256 hex digest of the text's UTF-8 bytes.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
