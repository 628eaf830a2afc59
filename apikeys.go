// ABOUTME: API key management endpoints of the Priori API.
// ABOUTME: List, create, and deactivate account API keys.

package priorichat

import (
	"context"
	"net/http"
	"net/url"
)

// ListAPIKeysResponse is the response to ListAPIKeys.
type ListAPIKeysResponse struct {
	APIKeys []APIKeyInfo `json:"api_keys"`
}

// CreateAPIKeyRequest names a new API key.
type CreateAPIKeyRequest struct {
	Name string `json:"name"`
}

// CreateAPIKeyResponse carries the plaintext key. The key is returned only
// once, at creation time.
type CreateAPIKeyResponse struct {
	APIKey  string     `json:"api_key"`
	KeyInfo APIKeyInfo `json:"key_info"`
}

// DeactivateAPIKeyResponse is the response to DeactivateAPIKey.
type DeactivateAPIKeyResponse struct {
	Message string `json:"message"`
}

// ListAPIKeys lists the account's API keys.
func (c *Client) ListAPIKeys(ctx context.Context) (*ListAPIKeysResponse, error) {
	var resp ListAPIKeysResponse
	if err := c.do(ctx, http.MethodGet, "/api/api-keys", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateAPIKey creates a new API key and returns its plaintext value.
func (c *Client) CreateAPIKey(ctx context.Context, req *CreateAPIKeyRequest) (*CreateAPIKeyResponse, error) {
	var resp CreateAPIKeyResponse
	if err := c.do(ctx, http.MethodPost, "/api/api-keys", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeactivateAPIKey permanently deactivates an API key.
func (c *Client) DeactivateAPIKey(ctx context.Context, keyID string) (*DeactivateAPIKeyResponse, error) {
	var resp DeactivateAPIKeyResponse
	if err := c.do(ctx, http.MethodDelete, "/api/api-keys/"+url.PathEscape(keyID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
