// Package sanity writes articles through the Sanity mutations API.
package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/article-ingest/internal/models"
	"github.com/article-ingest/internal/store"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultAPIVersion is the dated API version used when none is configured.
	DefaultAPIVersion = "2023-10-01"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 25
)

// Client is a Sanity mutations API client.
type Client struct {
	baseURL    string
	dataset    string
	apiVersion string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL, e.g. a test server.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithAPIVersion sets the dated API version.
func WithAPIVersion(version string) ClientOption {
	return func(c *Client) {
		if version != "" {
			c.apiVersion = version
		}
	}
}

// WithHTTPClient sets a custom HTTP client. A nil client is ignored.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout sets the HTTP timeout. The client is copied first so a
// shared client passed to WithHTTPClient is left unchanged.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout <= 0 {
			return
		}
		hc := &http.Client{}
		if c.httpClient != nil {
			copied := *c.httpClient
			hc = &copied
		}
		hc.Timeout = timeout
		c.httpClient = hc
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithLogger sets a logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log.With().Str("component", "sanity").Logger()
	}
}

// NewClient creates a client for one project dataset.
func NewClient(projectID, dataset, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    fmt.Sprintf("https://%s.api.sanity.io", projectID),
		dataset:    dataset,
		apiVersion: DefaultAPIVersion,
		token:      token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		log:     zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CreateOrReplace implements store.Store.
func (c *Client) CreateOrReplace(ctx context.Context, doc *models.Article) (*models.Article, error) {
	return c.mutateDocument(ctx, store.OpCreateOrReplace, doc)
}

// Create implements store.Store.
func (c *Client) Create(ctx context.Context, doc *models.Article) (*models.Article, error) {
	return c.mutateDocument(ctx, store.OpCreate, doc)
}

// Delete implements store.Store.
func (c *Client) Delete(ctx context.Context, q store.Query) error {
	mutation := map[string]interface{}{
		store.OpDelete: deleteByQuery{Query: q.GROQ(), Params: q.Params()},
	}
	_, err := c.mutate(ctx, store.OpDelete, mutation)
	return err
}

func (c *Client) mutateDocument(ctx context.Context, op string, doc *models.Article) (*models.Article, error) {
	resp, err := c.mutate(ctx, op, map[string]interface{}{op: doc})
	if err != nil {
		return nil, err
	}

	if len(resp.Results) == 0 {
		return nil, store.NewWriteError(op, http.StatusOK, "response contained no results", nil)
	}

	result := resp.Results[0]
	if len(result.Document) > 0 {
		var written models.Article
		if err := json.Unmarshal(result.Document, &written); err != nil {
			return nil, store.NewWriteError(op, http.StatusOK, "failed to decode returned document", err)
		}
		return &written, nil
	}

	written := *doc
	written.ID = result.ID
	return &written, nil
}

// mutate sends one mutation and decodes the response.
func (c *Client) mutate(ctx context.Context, op string, mutation map[string]interface{}) (*mutateResponse, error) {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, store.NewWriteError(op, 0, "rate limiter", err)
	}

	payload, err := json.Marshal(mutateRequest{Mutations: []map[string]interface{}{mutation}})
	if err != nil {
		return nil, store.NewWriteError(op, 0, "failed to encode mutation", err)
	}

	params := url.Values{}
	params.Set("returnIds", "true")
	params.Set("returnDocuments", "true")
	params.Set("visibility", "sync")
	reqURL := fmt.Sprintf("%s/v%s/data/mutate/%s?%s", c.baseURL, c.apiVersion, url.PathEscape(c.dataset), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, store.NewWriteError(op, 0, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	c.log.Debug().
		Str("op", op).
		Str("dataset", c.dataset).
		Int("bytes", len(payload)).
		Msg("Sanity mutation")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, store.NewWriteError(op, 0, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, store.NewWriteError(op, resp.StatusCode, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, store.NewWriteError(op, resp.StatusCode, errorMessage(body), nil)
	}

	var decoded mutateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, store.NewWriteError(op, resp.StatusCode, "failed to decode response", err)
	}
	return &decoded, nil
}

// errorMessage extracts a readable message from a Sanity error body, which
// comes either as {"error": {"description": ...}} or as
// {"error": "...", "message": "..."}.
func errorMessage(body []byte) string {
	var nested struct {
		Error struct {
			Description string `json:"description"`
			Type        string `json:"type"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &nested) == nil && nested.Error.Description != "" {
		return nested.Error.Description
	}

	var flat struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &flat) == nil {
		switch {
		case flat.Message != "":
			return flat.Message
		case flat.Error != "":
			return flat.Error
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
