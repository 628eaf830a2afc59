// ABOUTME: Bot management endpoints of the Priori API.
// ABOUTME: Create, list, fetch, rename, and delete bots.

package priorichat

import (
	"context"
	"net/http"
	"net/url"
)

// CreateBotRequest names a new bot.
type CreateBotRequest struct {
	Name string `json:"name"`
}

// CreateBotResponse is the response to CreateBot.
type CreateBotResponse struct {
	Bot Bot `json:"bot"`
}

// ListBotsResponse is the response to ListBots.
type ListBotsResponse struct {
	Bots []Bot `json:"bots"`
}

// GetBotResponse is the response to GetBot.
type GetBotResponse struct {
	Bot Bot `json:"bot"`
}

// UpdateBotRequest renames an existing bot.
type UpdateBotRequest struct {
	Name string `json:"name"`
}

// UpdateBotResponse is the response to UpdateBot.
type UpdateBotResponse struct {
	Bot Bot `json:"bot"`
}

// CreateBot registers a new bot.
func (c *Client) CreateBot(ctx context.Context, req *CreateBotRequest) (*CreateBotResponse, error) {
	var resp CreateBotResponse
	if err := c.do(ctx, http.MethodPost, "/api/bots", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListBots lists all bots on the account.
func (c *Client) ListBots(ctx context.Context) (*ListBotsResponse, error) {
	var resp ListBotsResponse
	if err := c.do(ctx, http.MethodGet, "/api/bots", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetBot fetches one bot by ID.
func (c *Client) GetBot(ctx context.Context, botID string) (*GetBotResponse, error) {
	var resp GetBotResponse
	if err := c.do(ctx, http.MethodGet, "/api/bots/"+url.PathEscape(botID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateBot renames a bot.
func (c *Client) UpdateBot(ctx context.Context, botID string, req *UpdateBotRequest) (*UpdateBotResponse, error) {
	var resp UpdateBotResponse
	if err := c.do(ctx, http.MethodPut, "/api/bots/"+url.PathEscape(botID), nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteBot removes a bot.
func (c *Client) DeleteBot(ctx context.Context, botID string) error {
	return c.do(ctx, http.MethodDelete, "/api/bots/"+url.PathEscape(botID), nil, nil, nil)
}
