// ABOUTME: In-memory conversationAPI fake for session tests.
// ABOUTME: Allows Conversation tests to run without an HTTP server.

package priorichat

import (
	"context"
	"sync"
)

// mockAPI is an in-memory conversationAPI implementation for testing.
type mockAPI struct {
	mu sync.Mutex

	headers  []ConversationHeader     // returned by ListConversations
	created  *ConversationData        // returned by CreateConversation
	state    *GetConversationResponse // returned by GetConversation
	memories *GetMemoriesResponse

	listErr    error
	createErr  error
	getErr     error
	getErrOnce bool // when set, getErr is consumed by a single call
	sendErr    error

	// getGate, when non-nil, blocks GetConversation until closed. Used to
	// hold a poll fetch in flight across a Disconnect.
	getGate chan struct{}

	listCalls   int
	createCalls int
	getCalls    int
	sendCalls   int

	lastCreate *CreateConversationOptions
	lastSent   *MessageInput
	lastSentID string
}

func newMockAPI(messages ...Message) *mockAPI {
	return &mockAPI{
		state: &GetConversationResponse{
			BotID:    "bot-1",
			UserID:   "user-1",
			Messages: messages,
		},
	}
}

// setMessages replaces the conversation state seen by subsequent fetches.
func (m *mockAPI) setMessages(messages []Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Messages = messages
}

// failNextGet makes the next GetConversation call return err.
func (m *mockAPI) failNextGet(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
	m.getErrOnce = true
}

// gateGets makes GetConversation block until the returned function is
// called.
func (m *mockAPI) gateGets() func() {
	gate := make(chan struct{})
	m.mu.Lock()
	m.getGate = gate
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		m.getGate = nil
		m.mu.Unlock()
		close(gate)
	}
}

func (m *mockAPI) counts() (list, create, get, send int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls, m.createCalls, m.getCalls, m.sendCalls
}

func (m *mockAPI) ListConversations(ctx context.Context, opts *ListConversationsOptions) (*ListConversationsResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return &ListConversationsResponse{Conversations: m.headers}, nil
}

func (m *mockAPI) CreateConversation(ctx context.Context, opts *CreateConversationOptions) (*CreateConversationResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	m.lastCreate = opts
	if m.createErr != nil {
		return nil, m.createErr
	}
	created := *m.created
	return &CreateConversationResponse{Conversation: created}, nil
}

func (m *mockAPI) GetConversation(ctx context.Context, id string) (*GetConversationResponse, error) {
	m.mu.Lock()
	m.getCalls++
	gate := m.getGate
	if m.getErr != nil {
		err := m.getErr
		if m.getErrOnce {
			m.getErr = nil
			m.getErrOnce = false
		}
		m.mu.Unlock()
		return nil, err
	}
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Return a copy so callers cannot observe later mutations.
	resp := *m.state
	resp.Messages = append([]Message(nil), m.state.Messages...)
	return &resp, nil
}

func (m *mockAPI) SendMessage(ctx context.Context, conversationID string, msg *MessageInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCalls++
	m.lastSent = msg
	m.lastSentID = conversationID
	if m.sendErr != nil {
		return m.sendErr
	}
	return nil
}

func (m *mockAPI) GetConversationMemories(ctx context.Context, conversationID string) (*GetMemoriesResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.memories == nil {
		return &GetMemoriesResponse{}, nil
	}
	return m.memories, nil
}
