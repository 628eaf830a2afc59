// ABOUTME: Conversation and message endpoints of the Priori API.
// ABOUTME: Create, list, and fetch conversations; append messages; fetch memories.

package priorichat

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/go-querystring/query"
)

// Bool returns a pointer to v, for optional request fields.
func Bool(v bool) *bool { return &v }

// InitialMessage seeds a conversation created with history.
type InitialMessage struct {
	Text          string         `json:"text"`
	FromBot       bool           `json:"from_bot"`
	ID            string         `json:"id,omitempty"`
	AttachedMedia *AttachedMedia `json:"-"`
}

// CreateConversationOptions configures CreateConversation.
// CreateUserIfNotExists defaults to the server's behavior (create) when nil.
type CreateConversationOptions struct {
	BotID                 string           `json:"bot_id"`
	UserID                string           `json:"user_id"`
	CreateUserIfNotExists *bool            `json:"create_user_if_not_exists,omitempty"`
	WithMessages          []InitialMessage `json:"-"`
}

type createConversationBody struct {
	BotID                 string        `json:"bot_id"`
	UserID                string        `json:"user_id"`
	CreateUserIfNotExists *bool         `json:"create_user_if_not_exists,omitempty"`
	WithMessages          []wireMessage `json:"with_messages,omitempty"`
}

type wireMessage struct {
	Text          string   `json:"text"`
	FromBot       bool     `json:"from_bot"`
	ID            string   `json:"id,omitempty"`
	AttachedMedia *Content `json:"attached_media,omitempty"`
}

// CreateConversationResponse is the response to CreateConversation.
type CreateConversationResponse struct {
	Conversation ConversationData `json:"conversation"`
}

// ListConversationsOptions filters ListConversations. Zero-valued fields
// are omitted from the query.
type ListConversationsOptions struct {
	BotID              string `url:"bot_id,omitempty"`
	UserID             string `url:"user_id,omitempty"`
	ConversationID     string `url:"conversation_id,omitempty"`
	MinMessages        int    `url:"min_messages,omitempty"`
	MaxMessages        int    `url:"max_messages,omitempty"`
	MessageContent     string `url:"message_content,omitempty"`
	MinLastMessageDate int64  `url:"min_last_message_date,omitempty"`
	MaxLastMessageDate int64  `url:"max_last_message_date,omitempty"`
}

// ListConversationsResponse is the response to ListConversations.
type ListConversationsResponse struct {
	Conversations []ConversationHeader `json:"conversations"`
}

// GetConversationResponse is the full state of one conversation, with its
// messages in server order.
type GetConversationResponse struct {
	BotID    string    `json:"bot_id"`
	UserID   string    `json:"user_id"`
	Messages []Message `json:"messages"`
}

// GetMemoriesResponse holds the memories extracted for a conversation.
type GetMemoriesResponse struct {
	BotMemories  []MemoryResponse `json:"bot_memories"`
	UserMemories []MemoryResponse `json:"user_memories"`
}

// MessageInput is an outgoing message. Messages sent through the SDK are
// always user-originated; the from_bot flag is set by the client.
type MessageInput struct {
	Text          string
	AttachedMedia *AttachedMedia
}

type sendMessageBody struct {
	Message wireMessage `json:"message"`
}

// contentFromMedia widens an AttachedMedia reference into the Content wire
// shape the messages endpoint expects. The content_id is left empty for
// URL-only references, matching the upload-by-URL flow.
func contentFromMedia(media *AttachedMedia) *Content {
	if media == nil {
		return nil
	}
	return &Content{URL: media.URL}
}

// CreateConversation creates a conversation between a user and a bot,
// optionally seeding it with messages.
func (c *Client) CreateConversation(ctx context.Context, opts *CreateConversationOptions) (*CreateConversationResponse, error) {
	if opts == nil {
		return nil, fmt.Errorf("create conversation: options required")
	}

	body := createConversationBody{
		BotID:                 opts.BotID,
		UserID:                opts.UserID,
		CreateUserIfNotExists: opts.CreateUserIfNotExists,
	}
	for _, msg := range opts.WithMessages {
		body.WithMessages = append(body.WithMessages, wireMessage{
			Text:          msg.Text,
			FromBot:       msg.FromBot,
			ID:            msg.ID,
			AttachedMedia: contentFromMedia(msg.AttachedMedia),
		})
	}

	var resp CreateConversationResponse
	if err := c.do(ctx, http.MethodPost, "/api/conversations", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListConversations lists conversations matching the given filters. A nil
// opts lists everything.
func (c *Client) ListConversations(ctx context.Context, opts *ListConversationsOptions) (*ListConversationsResponse, error) {
	var values url.Values
	if opts != nil {
		encoded, err := query.Values(opts)
		if err != nil {
			return nil, fmt.Errorf("list conversations: encode filters: %w", err)
		}
		values = encoded
	}

	var resp ListConversationsResponse
	if err := c.do(ctx, http.MethodGet, "/api/conversations", values, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetConversation fetches one conversation by ID, including all of its
// messages in order.
func (c *Client) GetConversation(ctx context.Context, id string) (*GetConversationResponse, error) {
	var resp GetConversationResponse
	if err := c.do(ctx, http.MethodGet, "/api/conversations/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendMessage appends a user message to a conversation.
func (c *Client) SendMessage(ctx context.Context, conversationID string, msg *MessageInput) error {
	if msg == nil {
		return fmt.Errorf("send message: message required")
	}
	body := sendMessageBody{
		Message: wireMessage{
			Text:          msg.Text,
			FromBot:       false,
			AttachedMedia: contentFromMedia(msg.AttachedMedia),
		},
	}
	return c.do(ctx, http.MethodPost, "/api/conversations/"+url.PathEscape(conversationID)+"/messages", nil, body, nil)
}

// GetConversationMemories fetches the bot and user memories extracted for
// a conversation.
func (c *Client) GetConversationMemories(ctx context.Context, conversationID string) (*GetMemoriesResponse, error) {
	var resp GetMemoriesResponse
	if err := c.do(ctx, http.MethodGet, "/api/conversations/"+url.PathEscape(conversationID)+"/memories", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
