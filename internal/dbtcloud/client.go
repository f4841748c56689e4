// Package dbtcloud is a client for the dbt Cloud Admin and Discovery APIs.
// It fetches run artifacts (manifest.json, run_results.json), run steps,
// run and job listings, and environment-scoped model metadata.
package dbtcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the dbt Cloud multi-tenant instance.
const DefaultBaseURL = "https://cloud.getdbt.com"

// maxErrorBody caps how much of an error response body is kept on APIError.
const maxErrorBody = 500

// Config holds client configuration.
type Config struct {
	// BaseURL is the dbt Cloud instance URL (defaults to DefaultBaseURL)
	BaseURL string
	// APIKey is the service or user token used for authentication
	APIKey string
	// AccountID identifies the dbt Cloud account
	AccountID int64
	// Timeout bounds each HTTP call (defaults to 30s)
	Timeout time.Duration
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Client issues authenticated requests against one dbt Cloud account.
// It holds no mutable state beyond the underlying http.Client and is safe
// for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	accountID  int64
	logger     *slog.Logger
}

// NewClient creates a client for the given account.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		accountID:  cfg.AccountID,
		logger:     logger,
	}
}

// APIError is returned for any non-2xx response. Body is truncated.
type APIError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dbt Cloud API returned %d for %s: %s", e.StatusCode, e.URL, e.Body)
}

// accountURL builds an Admin API v2 URL under the configured account.
func (c *Client) accountURL(path string, params url.Values) string {
	u := fmt.Sprintf("%s/api/v2/accounts/%d/%s", c.baseURL, c.accountID, path)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// getJSON issues a GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("GET", "url", u)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: string(body), URL: u}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", u, err)
	}
	return nil
}
