// ABOUTME: Polling-based conversation session on top of the Priori REST API.
// ABOUTME: Resolves a conversation, delivers new messages via callbacks, and echoes sends optimistically.

package priorichat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultPollingInterval is how often a Conversation re-fetches its remote
// state when no interval is configured.
const DefaultPollingInterval = 500 * time.Millisecond

// conversationAPI is the slice of the Priori API a Conversation consumes.
// *Client satisfies it; tests substitute an in-memory fake.
type conversationAPI interface {
	ListConversations(ctx context.Context, opts *ListConversationsOptions) (*ListConversationsResponse, error)
	CreateConversation(ctx context.Context, opts *CreateConversationOptions) (*CreateConversationResponse, error)
	GetConversation(ctx context.Context, id string) (*GetConversationResponse, error)
	SendMessage(ctx context.Context, conversationID string, msg *MessageInput) error
	GetConversationMemories(ctx context.Context, conversationID string) (*GetMemoriesResponse, error)
}

// ConversationOptions selects which conversation a session binds to.
// A non-empty ConversationID binds directly; otherwise UserID and BotID are
// both required and the session binds to that pair's first existing
// conversation, creating one (and the user) if none exists.
type ConversationOptions struct {
	ConversationID string
	UserID         string
	BotID          string

	// PollingInterval is the delay between poll cycles, measured from the
	// end of the previous cycle. Defaults to DefaultPollingInterval.
	PollingInterval time.Duration
}

// ConversationCallbacks holds the optional event handlers for a session.
// They are captured at creation and cannot be changed afterwards.
//
// OnInitialData fires exactly once, with the conversation state loaded
// during creation, before any OnNewMessage. OnNewMessage fires once per
// newly observed message, in arrival order; for a local send it fires
// immediately with the optimistic copy, before the network round-trip.
// OnError receives resolution, poll, and send failures.
//
// Callbacks for polled messages run on the session's polling goroutine and
// must not block for long; a blocked callback delays subsequent polls.
type ConversationCallbacks struct {
	OnInitialData func(data *GetConversationResponse)
	OnNewMessage  func(msg Message)
	OnError       func(err error)
}

// Conversation is a live session bound to one remote conversation. It owns
// a single polling loop, a watermark of messages already delivered, and
// the callback set registered at creation.
type Conversation struct {
	api       conversationAPI
	logger    *slog.Logger
	callbacks ConversationCallbacks

	// conversationID is assigned once during resolution and immutable
	// afterwards.
	conversationID string

	mu          sync.Mutex
	interval    time.Duration
	watermark   int  // count of messages already observed and dispatched
	initialized bool // gates SendMessage and GetMemories
	active      bool // cleared by Disconnect; stale poll results are discarded
	cancel      context.CancelFunc
}

// Conversation creates a session for the selected conversation and starts
// polling it. It returns the session together with the conversation state
// fetched during initialization. On failure no session is returned and no
// polling is started; the error is also reported to OnError when the
// failure involved the remote service.
func (c *Client) Conversation(ctx context.Context, opts ConversationOptions, callbacks ConversationCallbacks) (*Conversation, *GetConversationResponse, error) {
	return newConversation(ctx, c, c.logger, opts, callbacks)
}

// newConversation builds and initializes a session over any
// conversationAPI implementation.
func newConversation(ctx context.Context, api conversationAPI, logger *slog.Logger, opts ConversationOptions, callbacks ConversationCallbacks) (*Conversation, *GetConversationResponse, error) {
	if logger == nil {
		logger = slog.Default()
	}
	interval := opts.PollingInterval
	if interval <= 0 {
		interval = DefaultPollingInterval
	}

	conv := &Conversation{
		api:       api,
		logger:    logger.With("component", "conversation"),
		callbacks: callbacks,
		interval:  interval,
	}

	initial, err := conv.initialize(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	return conv, initial, nil
}

// initialize resolves the conversation ID, performs the initial fetch,
// fires OnInitialData, and starts the polling loop, in that order.
func (conv *Conversation) initialize(ctx context.Context, opts ConversationOptions) (*GetConversationResponse, error) {
	id, err := conv.resolve(ctx, opts)
	if err != nil {
		// Local precondition failures stay local; OnError is reserved for
		// remote failures.
		if !errors.Is(err, ErrMissingOptions) {
			conv.reportError(err)
		}
		return nil, err
	}
	conv.conversationID = id

	initial, err := conv.api.GetConversation(ctx, id)
	if err != nil {
		err = fmt.Errorf("fetch conversation %s: %w", id, err)
		conv.reportError(err)
		return nil, err
	}

	conv.mu.Lock()
	conv.watermark = len(initial.Messages)
	conv.initialized = true
	conv.active = true
	conv.mu.Unlock()

	if conv.callbacks.OnInitialData != nil {
		conv.callbacks.OnInitialData(initial)
	}

	conv.startPolling()

	conv.logger.Debug("conversation initialized",
		"conversation_id", id,
		"message_count", len(initial.Messages))
	return initial, nil
}

// resolve determines the conversation ID to bind to. An explicit ID wins
// without a network call; otherwise the (user, bot) pair is looked up and
// the first existing conversation is reused, or a new one is created with
// the user created on demand.
func (conv *Conversation) resolve(ctx context.Context, opts ConversationOptions) (string, error) {
	if opts.ConversationID != "" {
		return opts.ConversationID, nil
	}
	if opts.UserID == "" || opts.BotID == "" {
		return "", ErrMissingOptions
	}

	existing, err := conv.api.ListConversations(ctx, &ListConversationsOptions{
		UserID: opts.UserID,
		BotID:  opts.BotID,
	})
	if err != nil {
		return "", fmt.Errorf("list conversations for user %s: %w", opts.UserID, err)
	}
	if len(existing.Conversations) > 0 {
		return existing.Conversations[0].ID, nil
	}

	created, err := conv.api.CreateConversation(ctx, &CreateConversationOptions{
		UserID:                opts.UserID,
		BotID:                 opts.BotID,
		CreateUserIfNotExists: Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("create conversation for user %s: %w", opts.UserID, err)
	}
	return created.Conversation.ID, nil
}

// SendMessage appends a user message to the conversation. The message is
// echoed to OnNewMessage with a temp- placeholder ID before the network
// round-trip, so callers can render it immediately. On success the
// watermark advances past the sent message so the next poll does not
// re-deliver it. On failure the error is reported and returned, and the
// already-echoed message is left standing; the next successful poll
// reflects the server's actual state.
func (conv *Conversation) SendMessage(ctx context.Context, text string, media *AttachedMedia) error {
	conv.mu.Lock()
	initialized := conv.initialized
	conv.mu.Unlock()
	if !initialized {
		return ErrNotInitialized
	}

	if conv.callbacks.OnNewMessage != nil {
		conv.callbacks.OnNewMessage(Message{
			ID:            tempMessageID(),
			Text:          text,
			FromBot:       false,
			AttachedMedia: contentFromMedia(media),
			SentAt:        time.Now().Unix(),
		})
	}

	err := conv.api.SendMessage(ctx, conv.conversationID, &MessageInput{
		Text:          text,
		AttachedMedia: media,
	})
	if err != nil {
		err = fmt.Errorf("send message to conversation %s: %w", conv.conversationID, err)
		conv.reportError(err)
		return err
	}

	conv.mu.Lock()
	conv.watermark++
	conv.mu.Unlock()
	return nil
}

// GetMemories fetches the bot and user memories for this conversation.
func (conv *Conversation) GetMemories(ctx context.Context) (*GetMemoriesResponse, error) {
	conv.mu.Lock()
	initialized := conv.initialized
	conv.mu.Unlock()
	if !initialized {
		return nil, ErrNotInitialized
	}
	return conv.api.GetConversationMemories(ctx, conv.conversationID)
}

// ID returns the bound conversation ID.
func (conv *Conversation) ID() string {
	return conv.conversationID
}

// Initialized reports whether the session completed initialization.
func (conv *Conversation) Initialized() bool {
	conv.mu.Lock()
	defer conv.mu.Unlock()
	return conv.initialized
}

// Disconnect stops polling and marks the session inactive. It is
// idempotent: calling it repeatedly, or before polling ever started, is
// safe. A poll fetch already in flight is not interrupted, but its results
// are discarded rather than dispatched.
func (conv *Conversation) Disconnect() {
	conv.mu.Lock()
	conv.active = false
	cancel := conv.cancel
	conv.cancel = nil
	conv.mu.Unlock()

	if cancel != nil {
		cancel()
		conv.logger.Debug("conversation disconnected", "conversation_id", conv.conversationID)
	}
}

// SetPollingInterval changes the polling interval and, if the session is
// polling, restarts the loop so the new interval takes effect
// immediately. Non-positive intervals are ignored.
func (conv *Conversation) SetPollingInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	conv.mu.Lock()
	conv.interval = d
	restart := conv.initialized && conv.cancel != nil
	conv.mu.Unlock()

	if restart {
		conv.startPolling()
	}
}

// reportError delivers an error to OnError when a handler is registered.
func (conv *Conversation) reportError(err error) {
	if conv.callbacks.OnError != nil {
		conv.callbacks.OnError(err)
	}
}

// tempMessageID generates the placeholder ID carried by an optimistic
// message until the server-assigned copy is observed.
func tempMessageID() string {
	return fmt.Sprintf("temp-%d", time.Now().UnixMilli())
}
