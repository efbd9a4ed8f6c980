package zendesk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/helpsync/internal/common"
)

const (
	// DefaultLocale is the help center locale segment used when none is configured.
	DefaultLocale = "en-us"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultPageSize is the default articles per page (API maximum is 100).
	DefaultPageSize = 100

	// DefaultRateInterval is the default minimum time between API requests.
	DefaultRateInterval = 250 * time.Millisecond

	// apiPrefix is prepended to every endpoint path.
	apiPrefix = "/api/v2"
)

// Client is a Zendesk Help Center API client.
type Client struct {
	baseURL    string
	locale     string
	email      string
	apiToken   string
	userAgent  string
	pageSize   int
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	retry      *common.RetryPolicy
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithLocale sets the help center locale segment (e.g. "en-us").
func WithLocale(locale string) ClientOption {
	return func(c *Client) {
		if locale != "" {
			c.locale = locale
		}
	}
}

// WithCredentials sets API token authentication.
// Anonymous access works for public help centers; credentials raise rate limits.
func WithCredentials(email, apiToken string) ClientOption {
	return func(c *Client) {
		c.email = email
		c.apiToken = apiToken
	}
}

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithPageSize sets the articles per page for list requests.
func WithPageSize(pageSize int) ClientOption {
	return func(c *Client) {
		if pageSize > 0 {
			c.pageSize = pageSize
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the minimum time between API requests.
func WithRateLimit(minInterval time.Duration) ClientOption {
	return func(c *Client) {
		if minInterval > 0 {
			c.limiter = rate.NewLimiter(rate.Every(minInterval), 1)
		}
	}
}

// WithRetryPolicy sets a custom retry policy.
func WithRetryPolicy(policy *common.RetryPolicy) ClientOption {
	return func(c *Client) {
		if policy != nil {
			c.retry = policy
		}
	}
}

// NewClient creates a new help center API client for the given base URL
// (e.g. "https://support.optisigns.com").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  baseURL,
		locale:   DefaultLocale,
		pageSize: DefaultPageSize,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(DefaultRateInterval), 1),
		retry:   common.NewRetryPolicy(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET request to the API with rate limiting and retries.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	// Build URL
	reqURL := fmt.Sprintf("%s%s%s", c.baseURL, apiPrefix, path)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	// Log request
	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+apiPrefix+path).
			Msg("Help center API request")
	}

	_, err := c.retry.ExecuteWithRetry(ctx, c.logger, func() (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return 0, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}
		if c.email != "" && c.apiToken != "" {
			req.SetBasicAuth(c.email+"/token", c.apiToken)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return 0, fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return resp.StatusCode, &APIError{
				StatusCode: resp.StatusCode,
				Message:    string(body),
				Endpoint:   path,
			}
		}

		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}

		return resp.StatusCode, nil
	})

	return err
}

// ListArticles retrieves one page of articles ordered newest-updated-first.
// Page numbering starts at 1.
func (c *Client) ListArticles(ctx context.Context, page int) (*ArticlesResponse, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(c.pageSize))
	params.Set("sort_by", "updated_at")
	params.Set("sort_order", "desc")

	var result ArticlesResponse
	path := fmt.Sprintf("/help_center/%s/articles.json", c.locale)
	if err := c.get(ctx, path, params, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
