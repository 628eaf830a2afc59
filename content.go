// ABOUTME: Media content endpoints of the Priori API.
// ABOUTME: List, upload-by-URL, and delete bot content.

package priorichat

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/go-querystring/query"
)

// ListContentOptions filters ListContent. BotID is required by the API.
type ListContentOptions struct {
	BotID     string `url:"bot_id"`
	Search    string `url:"search,omitempty"`
	MediaType string `url:"media_type,omitempty"`
	Limit     int    `url:"limit,omitempty"`
}

// ListContentResponse is the response to ListContent.
type ListContentResponse struct {
	Content []Content `json:"content"`
}

// UploadContentRequest uploads media to a bot from a source URL.
type UploadContentRequest struct {
	BotID    string `json:"bot_id"`
	ImageURL string `json:"image_url"`
}

// UploadContentResponse is the response to UploadContent.
type UploadContentResponse struct {
	Content Content `json:"content"`
}

// DeleteContentResponse is the response to DeleteContent.
type DeleteContentResponse struct {
	Message string `json:"message"`
}

// ListContent lists a bot's stored content, optionally filtered by search
// text and media type.
func (c *Client) ListContent(ctx context.Context, opts *ListContentOptions) (*ListContentResponse, error) {
	if opts == nil {
		return nil, fmt.Errorf("list content: options required")
	}
	values, err := query.Values(opts)
	if err != nil {
		return nil, fmt.Errorf("list content: encode filters: %w", err)
	}

	var resp ListContentResponse
	if err := c.do(ctx, http.MethodGet, "/api/content", values, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadContent fetches the image at the given URL into the bot's content
// library.
func (c *Client) UploadContent(ctx context.Context, req *UploadContentRequest) (*UploadContentResponse, error) {
	var resp UploadContentResponse
	if err := c.do(ctx, http.MethodPost, "/api/content", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteContent removes a content item by ID.
func (c *Client) DeleteContent(ctx context.Context, contentID string) (*DeleteContentResponse, error) {
	var resp DeleteContentResponse
	if err := c.do(ctx, http.MethodDelete, "/api/content/"+url.PathEscape(contentID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
