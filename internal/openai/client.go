package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/helpsync/internal/common"
)

const (
	// DefaultBaseURL is the base URL for the OpenAI API.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultTimeout is the default HTTP timeout. Uploads of large articles
	// need more headroom than plain JSON calls.
	DefaultTimeout = 120 * time.Second

	// DefaultRateInterval is the default minimum time between API requests.
	DefaultRateInterval = 200 * time.Millisecond

	// filePurpose is the purpose assigned to uploaded files so they can be
	// attached to vector stores.
	filePurpose = "assistants"

	// listPageLimit is the page size for listing requests.
	listPageLimit = 100
)

// Client is an OpenAI Files and Vector Stores API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	retry      *common.RetryPolicy
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
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

// NewClient creates a new OpenAI API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
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

// do performs a request with rate limiting and retries. The body is retained
// as bytes so each retry attempt sends a fresh reader.
func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	reqURL := c.baseURL + path

	// Log request
	if c.logger != nil {
		c.logger.Debug().
			Str("method", method).
			Str("url", reqURL).
			Msg("OpenAI API request")
	}

	_, err := c.retry.ExecuteWithRetry(ctx, c.logger, func() (int, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
		if err != nil {
			return 0, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("OpenAI-Beta", "assistants=v2")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return 0, fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return resp.StatusCode, c.apiError(resp, path)
		}

		if result != nil {
			if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
				return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
			}
		}

		return resp.StatusCode, nil
	})

	return err
}

// postJSON performs a POST request with a JSON payload.
func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, "application/json", body, result)
}

// apiError extracts the error message from an API error response.
func (c *Client) apiError(resp *http.Response, path string) *APIError {
	body, _ := io.ReadAll(resp.Body)

	message := string(body)
	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		message = envelope.Error.Message
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Endpoint:   path,
	}
}

// FindVectorStoreByName returns the vector store with the exact given name,
// or nil if none exists. The listing is paginated; all pages are scanned.
func (c *Client) FindVectorStoreByName(ctx context.Context, name string) (*VectorStore, error) {
	after := ""
	for {
		params := url.Values{}
		params.Set("limit", fmt.Sprintf("%d", listPageLimit))
		if after != "" {
			params.Set("after", after)
		}

		var page VectorStoreList
		if err := c.do(ctx, http.MethodGet, "/vector_stores?"+params.Encode(), "", nil, &page); err != nil {
			return nil, err
		}

		for _, store := range page.Data {
			if store.Name == name {
				return store, nil
			}
		}

		if !page.HasMore || page.LastID == "" {
			return nil, nil
		}
		after = page.LastID
	}
}

// CreateVectorStore creates a new vector store with the given name.
func (c *Client) CreateVectorStore(ctx context.Context, name string) (*VectorStore, error) {
	payload := map[string]string{"name": name}

	var result VectorStore
	if err := c.postJSON(ctx, "/vector_stores", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UploadFile uploads content as a file usable by vector stores.
func (c *Client) UploadFile(ctx context.Context, filename string, content []byte) (*File, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("purpose", filePurpose); err != nil {
		return nil, fmt.Errorf("failed to write purpose field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("failed to write file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	var result File
	if err := c.do(ctx, http.MethodPost, "/files", writer.FormDataContentType(), buf.Bytes(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateVectorStoreFile attaches an uploaded file to a vector store.
func (c *Client) CreateVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (*VectorStoreFile, error) {
	payload := map[string]string{"file_id": fileID}

	var result VectorStoreFile
	path := fmt.Sprintf("/vector_stores/%s/files", vectorStoreID)
	if err := c.postJSON(ctx, path, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteVectorStoreFile removes a file from a vector store without deleting
// the underlying file.
func (c *Client) DeleteVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) error {
	path := fmt.Sprintf("/vector_stores/%s/files/%s", vectorStoreID, fileID)
	return c.do(ctx, http.MethodDelete, path, "", nil, &Deleted{})
}

// DeleteFile permanently deletes an uploaded file.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	return c.do(ctx, http.MethodDelete, "/files/"+fileID, "", nil, &Deleted{})
}
