// ABOUTME: Client configuration endpoints of the Priori API.
// ABOUTME: Fetch and update account-level bot behavior settings.

package priorichat

import (
	"context"
	"net/http"
)

// GetClientConfigResponse is the response to GetClientConfig.
type GetClientConfigResponse struct {
	Config ClientConfig `json:"config"`
}

// UpdateClientConfigResponse is the response to UpdateClientConfig.
type UpdateClientConfigResponse struct {
	Config ClientConfig `json:"config"`
}

// GetClientConfig fetches the account's client configuration.
func (c *Client) GetClientConfig(ctx context.Context) (*GetClientConfigResponse, error) {
	var resp GetClientConfigResponse
	if err := c.do(ctx, http.MethodGet, "/api/config", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateClientConfig replaces the account's client configuration.
func (c *Client) UpdateClientConfig(ctx context.Context, cfg *ClientConfig) (*UpdateClientConfigResponse, error) {
	var resp UpdateClientConfigResponse
	if err := c.do(ctx, http.MethodPut, "/api/config", nil, cfg, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
