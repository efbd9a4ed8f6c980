package zendesk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/helpsync/internal/common"
)

// fastRetryPolicy keeps test retries from sleeping for real
func fastRetryPolicy() *common.RetryPolicy {
	policy := common.NewRetryPolicy()
	policy.InitialBackoff = time.Millisecond
	policy.MaxBackoff = 2 * time.Millisecond
	return policy
}

func newTestClient(serverURL string, opts ...ClientOption) *Client {
	base := []ClientOption{
		WithLogger(arbor.NewLogger()),
		WithRateLimit(time.Millisecond),
		WithRetryPolicy(fastRetryPolicy()),
	}
	return NewClient(serverURL, append(base, opts...)...)
}

func TestClient_ListArticles(t *testing.T) {
	updated := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/help_center/en-us/articles.json", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "30", r.URL.Query().Get("per_page"))
		assert.Equal(t, "updated_at", r.URL.Query().Get("sort_by"))
		assert.Equal(t, "desc", r.URL.Query().Get("sort_order"))

		json.NewEncoder(w).Encode(&ArticlesResponse{
			Articles: []*Article{
				{ID: 42, Title: "Getting Started", HTMLURL: "https://help.example.com/articles/42", Body: "<p>Hello</p>", UpdatedAt: updated},
			},
			Page:  2,
			Count: 1,
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithPageSize(30))

	resp, err := client.ListArticles(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, resp.Articles, 1)
	assert.Equal(t, int64(42), resp.Articles[0].ID)
	assert.Equal(t, "Getting Started", resp.Articles[0].Title)
	assert.True(t, resp.Articles[0].UpdatedAt.Equal(updated))
	assert.False(t, resp.HasNextPage())
}

func TestClient_ListArticles_Credentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "agent@example.com/token", user)
		assert.Equal(t, "secret", pass)

		json.NewEncoder(w).Encode(&ArticlesResponse{})
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithCredentials("agent@example.com", "secret"))

	_, err := client.ListArticles(context.Background(), 1)
	require.NoError(t, err)
}

func TestClient_ListArticles_Locale(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/help_center/de/articles.json", r.URL.Path)
		json.NewEncoder(w).Encode(&ArticlesResponse{})
	}))
	defer server.Close()

	client := newTestClient(server.URL, WithLocale("de"))

	_, err := client.ListArticles(context.Background(), 1)
	require.NoError(t, err)
}

func TestClient_ListArticles_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such help center", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.ListArticles(context.Background(), 1)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected *APIError, got %T", err)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Endpoint, "/help_center/")
}

func TestClient_ListArticles_RetriesServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(&ArticlesResponse{})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.ListArticles(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}
