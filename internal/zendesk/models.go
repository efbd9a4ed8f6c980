package zendesk

import "time"

// Article is a help center article as returned by the API.
type Article struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`      // API resource URL
	HTMLURL    string    `json:"html_url"` // Public page URL
	Title      string    `json:"title"`
	Body       string    `json:"body"` // Article body HTML
	Locale     string    `json:"locale"`
	SectionID  int64     `json:"section_id"`
	Draft      bool      `json:"draft"`
	Promoted   bool      `json:"promoted"`
	Outdated   bool      `json:"outdated"`
	LabelNames []string  `json:"label_names"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ArticlesResponse is a single page of the article listing.
type ArticlesResponse struct {
	Articles     []*Article `json:"articles"`
	Page         int        `json:"page"`
	PerPage      int        `json:"per_page"`
	PageCount    int        `json:"page_count"`
	Count        int        `json:"count"`
	NextPage     *string    `json:"next_page"`
	PreviousPage *string    `json:"previous_page"`
}

// HasNextPage reports whether another page follows this one.
func (r *ArticlesResponse) HasNextPage() bool {
	return r != nil && r.NextPage != nil && *r.NextPage != ""
}
