// ABOUTME: Wire types shared across the Priori API surface.
// ABOUTME: Mirrors the platform's JSON shapes for messages, conversations, bots, and content.

package priorichat

// Bot is a conversational bot registered on the platform.
type Bot struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Content is a stored media item owned by a bot. Messages reference content
// by URL when media is attached.
type Content struct {
	ContentID string `json:"content_id"`
	URL       string `json:"url"`
}

// AttachedMedia references media to attach to an outgoing message.
type AttachedMedia struct {
	URL string `json:"url"`
}

// Message is one turn in a conversation. ID is server-assigned for
// persisted messages; optimistic local messages carry a placeholder ID
// with a "temp-" prefix until the next poll observes the server copy.
type Message struct {
	ID            string   `json:"id,omitempty"`
	Text          string   `json:"text"`
	FromBot       bool     `json:"from_bot"`
	AttachedMedia *Content `json:"attached_media,omitempty"`
	SentAt        int64    `json:"sent_at,omitempty"` // Unix seconds
}

// SearchedMessage is a message matched by a message_content filter, with
// the match offsets inside the text.
type SearchedMessage struct {
	MessageText string `json:"message_text"`
	FromBot     bool   `json:"from_bot"`
	MatchStart  int    `json:"match_start"`
	MatchEnd    int    `json:"match_end"`
	SentAt      int64  `json:"sent_at"`
}

// ConversationHeader is a conversation summary returned by list queries.
type ConversationHeader struct {
	ID              string           `json:"id"`
	BotID           string           `json:"bot_id"`
	UserID          string           `json:"user_id"`
	MessageCount    int              `json:"message_count"`
	LastMessage     *Message         `json:"last_message,omitempty"`
	SearchedMessage *SearchedMessage `json:"searched_message,omitempty"`
}

// ConversationData is the full conversation record, including its messages
// in order.
type ConversationData struct {
	ID       string    `json:"id"`
	BotID    string    `json:"bot_id"`
	UserID   string    `json:"user_id,omitempty"`
	Messages []Message `json:"messages"`
}

// MemoryResponse is one extracted memory attached to a conversation.
type MemoryResponse struct {
	Text string `json:"text"`
}

// APIKeyInfo describes an API key without its secret.
type APIKeyInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// ClientConfig holds account-level settings applied to all of the
// account's bots.
type ClientConfig struct {
	SystemPrompt    string `json:"system_prompt,omitempty"`
	MemoriesEnabled bool   `json:"memories_enabled"`
	ResponseDelayMs int    `json:"response_delay_ms,omitempty"`
}
