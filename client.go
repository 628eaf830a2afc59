// ABOUTME: Core HTTP client for the Priori chat REST API.
// ABOUTME: Handles base URL resolution, bearer auth, JSON codec, and error mapping.

package priorichat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultBaseURL is the production Priori API endpoint.
const DefaultBaseURL = "https://api.prioros.com/v3/"

// maxErrorBody caps how much of an error response body is read when
// building an APIError.
const maxErrorBody = 64 * 1024

// Client is a Priori API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu            sync.RWMutex
	authHeader    string
	customHeaders map[string]string
}

// New creates a Client for the production API authenticating with the
// given API token.
func New(apiToken string) *Client {
	return NewWithBaseURL(apiToken, DefaultBaseURL)
}

// NewWithBaseURL creates a Client against a specific API endpoint. An
// empty baseURL falls back to DefaultBaseURL.
func NewWithBaseURL(apiToken, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default().With("component", "priorichat"),
		authHeader: apiToken,
	}
}

// SetAuthHeader replaces the bearer token used for subsequent requests.
func (c *Client) SetAuthHeader(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authHeader = token
}

// SetHeaders replaces the custom headers attached to every request. The
// map is copied; passing nil clears all custom headers.
func (c *Client) SetHeaders(headers map[string]string) {
	copied := make(map[string]string, len(headers))
	for k, v := range headers {
		copied[k] = v
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.customHeaders = copied
}

// SetHTTPClient replaces the underlying HTTP client. Useful for custom
// timeouts or transports. Call before issuing requests.
func (c *Client) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// SetLogger replaces the client's logger. Pass nil for the default.
func (c *Client) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	c.logger = logger.With("component", "priorichat")
}

// endpoint joins the base URL with an API path and optional query string.
func (c *Client) endpoint(path string, query url.Values) string {
	u := strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do issues a JSON request and decodes the response into out. A non-2xx
// status is returned as *APIError. Pass nil out to discard the body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.endpoint(path, query)

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s request: %w", method, endpoint, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("build %s %s request: %w", method, endpoint, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	req.Header.Set("Authorization", "Bearer "+c.authHeader)
	for k, v := range c.customHeaders {
		req.Header.Set(k, v)
	}
	c.mu.RUnlock()

	c.logger.Debug("api request", "method", method, "url", endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return newAPIError(resp, method, endpoint)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, endpoint, err)
	}
	return nil
}

// newAPIError builds an APIError from an error response, folding in the
// server's JSON error payload when one is present.
func newAPIError(resp *http.Response, method, endpoint string) *APIError {
	apiErr := &APIError{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Method:     method,
		URL:        endpoint,
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}

	var payload map[string]any
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Payload = payload
		apiErr.Message = serverMessage(payload)
	}
	return apiErr
}
