// ABOUTME: Tests for the polling Conversation session layer.
// ABOUTME: Covers resolution, initial data, delta delivery, optimistic send, and disconnect.

package priorichat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testInterval keeps poll cycles fast enough for the channel-based
// assertions below.
const testInterval = 10 * time.Millisecond

// recorder captures callback invocations on channels so tests can assert
// on delivery order and absence.
type recorder struct {
	initial  chan *GetConversationResponse
	messages chan Message
	errs     chan error
}

func newRecorder() *recorder {
	return &recorder{
		initial:  make(chan *GetConversationResponse, 16),
		messages: make(chan Message, 16),
		errs:     make(chan error, 16),
	}
}

func (r *recorder) callbacks() ConversationCallbacks {
	return ConversationCallbacks{
		OnInitialData: func(data *GetConversationResponse) { r.initial <- data },
		OnNewMessage:  func(msg Message) { r.messages <- msg },
		OnError:       func(err error) { r.errs <- err },
	}
}

// nextMessage waits for one OnNewMessage invocation.
func (r *recorder) nextMessage(t *testing.T) Message {
	t.Helper()
	select {
	case msg := <-r.messages:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message callback")
		return Message{}
	}
}

// expectNoMessages asserts that no OnNewMessage fires within the window.
func (r *recorder) expectNoMessages(t *testing.T, window time.Duration) {
	t.Helper()
	select {
	case msg := <-r.messages:
		t.Fatalf("unexpected message callback: %q", msg.Text)
	case <-time.After(window):
	}
}

func (r *recorder) nextError(t *testing.T) error {
	t.Helper()
	select {
	case err := <-r.errs:
		return err
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for error callback")
		return nil
	}
}

func makeMessages(texts ...string) []Message {
	msgs := make([]Message, len(texts))
	for i, text := range texts {
		msgs[i] = Message{ID: "msg-" + text, Text: text, FromBot: true, SentAt: 1700000000 + int64(i)}
	}
	return msgs
}

func startSession(t *testing.T, api *mockAPI, opts ConversationOptions) (*Conversation, *GetConversationResponse, *recorder) {
	t.Helper()
	rec := newRecorder()
	if opts.PollingInterval == 0 {
		opts.PollingInterval = testInterval
	}
	conv, initial, err := newConversation(t.Context(), api, nil, opts, rec.callbacks())
	require.NoError(t, err)
	t.Cleanup(conv.Disconnect)
	return conv, initial, rec
}

func TestConversation_InitialDataFiresOnceBeforePolling(t *testing.T) {
	api := newMockAPI(makeMessages("m1", "m2")...)

	conv, initial, rec := startSession(t, api, ConversationOptions{ConversationID: "C1"})

	assert.Equal(t, "C1", conv.ID())
	assert.True(t, conv.Initialized())
	require.Len(t, initial.Messages, 2)

	select {
	case data := <-rec.initial:
		assert.Len(t, data.Messages, 2)
	case <-time.After(time.Second):
		t.Fatal("initial data callback never fired")
	}

	// Binding by explicit ID makes no resolution calls.
	list, create, _, _ := api.counts()
	assert.Zero(t, list)
	assert.Zero(t, create)

	// The initial two messages are never re-delivered as new.
	rec.expectNoMessages(t, 5*testInterval)
}

func TestConversation_PollDeliversDeltaInOrder(t *testing.T) {
	api := newMockAPI(makeMessages("m1", "m2")...)
	_, _, rec := startSession(t, api, ConversationOptions{ConversationID: "C1"})

	api.setMessages(makeMessages("m1", "m2", "m3", "m4"))

	first := rec.nextMessage(t)
	second := rec.nextMessage(t)
	assert.Equal(t, "m3", first.Text)
	assert.Equal(t, "m4", second.Text)
	assert.True(t, first.FromBot)

	// Exactly two deliveries: the first two messages stay below the
	// watermark on every subsequent tick.
	rec.expectNoMessages(t, 5*testInterval)
}

func TestConversation_ServerTimestampCarriedThrough(t *testing.T) {
	api := newMockAPI(makeMessages("m1")...)
	_, _, rec := startSession(t, api, ConversationOptions{ConversationID: "C1"})

	api.setMessages([]Message{
		{ID: "msg-m1", Text: "m1", FromBot: true, SentAt: 1700000000},
		{ID: "msg-m2", Text: "m2", FromBot: true, SentAt: 1700000555},
	})

	msg := rec.nextMessage(t)
	assert.Equal(t, int64(1700000555), msg.SentAt)
}

func TestConversation_ShrinkIsIgnored(t *testing.T) {
	api := newMockAPI(makeMessages("m1", "m2")...)
	_, _, rec := startSession(t, api, ConversationOptions{ConversationID: "C1"})

	// Server-side shrink: shorter list than the watermark. No callbacks,
	// no error.
	api.setMessages(makeMessages("m1"))
	rec.expectNoMessages(t, 5*testInterval)

	// Regrow past the watermark: only the tail past the watermark is new.
	api.setMessages(makeMessages("m1", "m2", "m3"))
	msg := rec.nextMessage(t)
	assert.Equal(t, "m3", msg.Text)
}

func TestConversation_ResolveReusesExistingConversation(t *testing.T) {
	api := newMockAPI(makeMessages("m1")...)
	api.headers = []ConversationHeader{
		{ID: "C-first", BotID: "bot-1", UserID: "user-1"},
		{ID: "C-second", BotID: "bot-1", UserID: "user-1"},
	}

	conv, _, _ := startSession(t, api, ConversationOptions{UserID: "user-1", BotID: "bot-1"})

	assert.Equal(t, "C-first", conv.ID())
	list, create, _, _ := api.counts()
	assert.Equal(t, 1, list)
	assert.Zero(t, create)
}

func TestConversation_ResolveCreatesWhenNoneExist(t *testing.T) {
	api := newMockAPI(makeMessages("m1")...)
	api.created = &ConversationData{ID: "C-new", BotID: "bot-1", UserID: "user-1"}

	conv, initial, rec := startSession(t, api, ConversationOptions{UserID: "user-1", BotID: "bot-1"})

	assert.Equal(t, "C-new", conv.ID())
	require.NotNil(t, api.lastCreate)
	assert.Equal(t, "user-1", api.lastCreate.UserID)
	assert.Equal(t, "bot-1", api.lastCreate.BotID)
	require.NotNil(t, api.lastCreate.CreateUserIfNotExists)
	assert.True(t, *api.lastCreate.CreateUserIfNotExists)

	// Then proceeds exactly like an explicit-ID session.
	assert.Len(t, initial.Messages, 1)
	select {
	case <-rec.initial:
	case <-time.After(time.Second):
		t.Fatal("initial data callback never fired")
	}
}

func TestConversation_MissingOptions(t *testing.T) {
	api := newMockAPI()
	rec := newRecorder()

	_, _, err := newConversation(t.Context(), api, nil, ConversationOptions{UserID: "user-1"}, rec.callbacks())
	require.ErrorIs(t, err, ErrMissingOptions)

	list, create, get, _ := api.counts()
	assert.Zero(t, list+create+get, "no network call expected")
}

func TestConversation_ResolutionFailure(t *testing.T) {
	api := newMockAPI()
	api.listErr = errors.New("service unavailable")
	rec := newRecorder()

	conv, _, err := newConversation(t.Context(), api, nil, ConversationOptions{UserID: "u1", BotID: "b1"}, rec.callbacks())
	require.Error(t, err)
	assert.Nil(t, conv)

	reported := rec.nextError(t)
	assert.ErrorContains(t, reported, "service unavailable")

	// Construction failed before the initial fetch; nothing polls.
	_, _, get, _ := api.counts()
	assert.Zero(t, get)
}

func TestConversation_InitialFetchFailure(t *testing.T) {
	api := newMockAPI()
	api.getErr = errors.New("boom")
	rec := newRecorder()

	conv, _, err := newConversation(t.Context(), api, nil, ConversationOptions{ConversationID: "C1"}, rec.callbacks())
	require.Error(t, err)
	assert.Nil(t, conv)
	assert.ErrorContains(t, rec.nextError(t), "boom")
}

func TestConversation_PollErrorReportedAndLoopContinues(t *testing.T) {
	api := newMockAPI(makeMessages("m1")...)
	_, _, rec := startSession(t, api, ConversationOptions{ConversationID: "C1"})

	api.failNextGet(errors.New("transient network error"))
	assert.ErrorContains(t, rec.nextError(t), "transient network error")

	// The failed tick did not advance the watermark or kill the loop.
	api.setMessages(makeMessages("m1", "m2"))
	msg := rec.nextMessage(t)
	assert.Equal(t, "m2", msg.Text)
}

func TestConversation_SendOptimisticEcho(t *testing.T) {
	api := newMockAPI(makeMessages("m1", "m2")...)
	conv, _, rec := startSession(t, api, ConversationOptions{ConversationID: "C1"})

	require.NoError(t, conv.SendMessage(t.Context(), "hi", nil))

	echo := rec.nextMessage(t)
	assert.Equal(t, "hi", echo.Text)
	assert.False(t, echo.FromBot)
	assert.True(t, strings.HasPrefix(echo.ID, "temp-"), "echo ID %q should carry the temp- prefix", echo.ID)
	assert.NotZero(t, echo.SentAt)

	require.NotNil(t, api.lastSent)
	assert.Equal(t, "hi", api.lastSent.Text)
	assert.Equal(t, "C1", api.lastSentID)

	// The server now reports the sent message; the advanced watermark
	// keeps it from being re-delivered as new.
	api.setMessages([]Message{
		{ID: "msg-m1", Text: "m1", FromBot: true},
		{ID: "msg-m2", Text: "m2", FromBot: true},
		{ID: "srv-1", Text: "hi", FromBot: false},
	})
	rec.expectNoMessages(t, 5*testInterval)
}

func TestConversation_SendWithMedia(t *testing.T) {
	api := newMockAPI()
	conv, _, rec := startSession(t, api, ConversationOptions{ConversationID: "C1"})

	media := &AttachedMedia{URL: "https://example.com/cat.jpg"}
	require.NoError(t, conv.SendMessage(t.Context(), "look", media))

	echo := rec.nextMessage(t)
	require.NotNil(t, echo.AttachedMedia)
	assert.Equal(t, "https://example.com/cat.jpg", echo.AttachedMedia.URL)

	require.NotNil(t, api.lastSent)
	require.NotNil(t, api.lastSent.AttachedMedia)
	assert.Equal(t, "https://example.com/cat.jpg", api.lastSent.AttachedMedia.URL)
}

func TestConversation_SendNotInitialized(t *testing.T) {
	api := newMockAPI()
	conv := &Conversation{api: api}

	err := conv.SendMessage(t.Context(), "hi", nil)
	require.ErrorIs(t, err, ErrNotInitialized)

	_, _, _, send := api.counts()
	assert.Zero(t, send, "no network call expected")
}

func TestConversation_SendFailureLeavesEchoStanding(t *testing.T) {
	api := newMockAPI(makeMessages("m1")...)
	conv, _, rec := startSession(t, api, ConversationOptions{ConversationID: "C1"})

	api.sendErr = errors.New("append rejected")
	err := conv.SendMessage(t.Context(), "hi", nil)
	require.ErrorContains(t, err, "append rejected")

	// The optimistic echo fired before the failure and is not retracted.
	echo := rec.nextMessage(t)
	assert.Equal(t, "hi", echo.Text)
	assert.ErrorContains(t, rec.nextError(t), "append rejected")

	// The watermark did not advance: the next server message past index 1
	// is still delivered.
	api.sendErr = nil
	api.setMessages(makeMessages("m1", "m2"))
	msg := rec.nextMessage(t)
	assert.Equal(t, "m2", msg.Text)
}

func TestConversation_GetMemories(t *testing.T) {
	api := newMockAPI()
	api.memories = &GetMemoriesResponse{
		BotMemories:  []MemoryResponse{{Text: "likes trains"}},
		UserMemories: []MemoryResponse{{Text: "asked about tickets"}},
	}
	conv, _, _ := startSession(t, api, ConversationOptions{ConversationID: "C1"})

	memories, err := conv.GetMemories(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "likes trains", memories.BotMemories[0].Text)
	assert.Equal(t, "asked about tickets", memories.UserMemories[0].Text)
}

func TestConversation_GetMemoriesNotInitialized(t *testing.T) {
	conv := &Conversation{api: newMockAPI()}
	_, err := conv.GetMemories(t.Context())
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestConversation_DisconnectIsIdempotent(t *testing.T) {
	api := newMockAPI(makeMessages("m1")...)
	conv, _, rec := startSession(t, api, ConversationOptions{ConversationID: "C1"})

	conv.Disconnect()
	conv.Disconnect()

	// No further deliveries after disconnect.
	api.setMessages(makeMessages("m1", "m2"))
	rec.expectNoMessages(t, 5*testInterval)

	// Disconnect on a session that never polled is also safe.
	var idle Conversation
	idle.Disconnect()
	idle.Disconnect()
}

func TestConversation_StaleTickDiscardedAfterDisconnect(t *testing.T) {
	api := newMockAPI(makeMessages("m1")...)
	conv, _, rec := startSession(t, api, ConversationOptions{ConversationID: "C1"})

	// Hold the next poll fetch in flight, grow the conversation, then
	// disconnect while the fetch is still pending.
	release := api.gateGets()
	api.setMessages(makeMessages("m1", "m2"))

	require.Eventually(t, func() bool {
		_, _, get, _ := api.counts()
		return get >= 2 // initial fetch + the gated tick
	}, time.Second, time.Millisecond)

	conv.Disconnect()
	release()

	// The in-flight tick completed after disconnect; its results are
	// discarded, not dispatched.
	rec.expectNoMessages(t, 5*testInterval)
}

func TestConversation_SetPollingIntervalRestartsLoop(t *testing.T) {
	api := newMockAPI(makeMessages("m1")...)
	conv, _, rec := startSession(t, api, ConversationOptions{
		ConversationID:  "C1",
		PollingInterval: time.Hour, // effectively never on its own
	})

	api.setMessages(makeMessages("m1", "m2"))
	conv.SetPollingInterval(testInterval)

	msg := rec.nextMessage(t)
	assert.Equal(t, "m2", msg.Text)
}

func TestConversation_NoCallbacksRegistered(t *testing.T) {
	api := newMockAPI(makeMessages("m1")...)

	conv, initial, err := newConversation(t.Context(), api, nil, ConversationOptions{
		ConversationID:  "C1",
		PollingInterval: testInterval,
	}, ConversationCallbacks{})
	require.NoError(t, err)
	defer conv.Disconnect()
	assert.Len(t, initial.Messages, 1)

	// New messages and poll errors are silently dropped without handlers.
	api.setMessages(makeMessages("m1", "m2"))
	api.failNextGet(errors.New("ignored"))

	require.Eventually(t, func() bool {
		_, _, get, _ := api.counts()
		return get >= 4
	}, time.Second, time.Millisecond)

	require.NoError(t, conv.SendMessage(t.Context(), "hi", nil))
}

func TestConversation_ContextCancelDuringResolution(t *testing.T) {
	api := newMockAPI()
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	// The mock ignores ctx, so resolution succeeds; real transports would
	// fail. Either way construction must not panic or leak a session with
	// a dead context: polling runs on its own loop context.
	conv, _, err := newConversation(ctx, api, nil, ConversationOptions{
		ConversationID:  "C1",
		PollingInterval: testInterval,
	}, ConversationCallbacks{})
	if err == nil {
		defer conv.Disconnect()
		api.setMessages(makeMessages("m1"))
		require.Eventually(t, func() bool {
			_, _, get, _ := api.counts()
			return get >= 2
		}, time.Second, time.Millisecond, "polling should run despite the cancelled construction context")
	}
}
