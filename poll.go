// ABOUTME: Polling loop and message diff/dispatch for Conversation sessions.
// ABOUTME: Re-fetches conversation state on an interval and delivers the delta in order.

package priorichat

import (
	"context"
	"time"
)

// startPolling launches the polling goroutine. Any loop already running is
// cancelled first, so a session never has more than one active loop.
func (conv *Conversation) startPolling() {
	ctx, cancel := context.WithCancel(context.Background())

	conv.mu.Lock()
	if !conv.active {
		// Lost a race with Disconnect; do not resurrect the loop.
		conv.mu.Unlock()
		cancel()
		return
	}
	if conv.cancel != nil {
		conv.cancel()
	}
	conv.cancel = cancel
	conv.mu.Unlock()

	go conv.pollLoop(ctx)
}

// pollLoop runs ticks until the loop context is cancelled. Each wait is
// measured from the end of the previous tick, so a slow fetch stretches
// the cycle instead of stacking ticks; ticks never overlap.
func (conv *Conversation) pollLoop(ctx context.Context) {
	timer := time.NewTimer(conv.pollInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		conv.tick(ctx)
		timer.Reset(conv.pollInterval())
	}
}

func (conv *Conversation) pollInterval() time.Duration {
	conv.mu.Lock()
	defer conv.mu.Unlock()
	return conv.interval
}

// tick fetches the current conversation state and dispatches any messages
// past the watermark. A fetch error is reported to OnError and swallowed;
// the loop continues on the next tick. Errors from a fetch that was
// cancelled by Disconnect are not reported.
func (conv *Conversation) tick(ctx context.Context) {
	data, err := conv.api.GetConversation(ctx, conv.conversationID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		conv.logger.Warn("poll fetch failed",
			"conversation_id", conv.conversationID,
			"error", err)
		conv.reportError(err)
		return
	}

	conv.dispatchNew(data.Messages)
}

// dispatchNew compares the fetched message list against the watermark and
// delivers the tail past it, in order. The watermark advances to the full
// list length before any callback runs, so a re-entrant or concurrent
// reader never sees the same message twice. A list no longer than the
// watermark (including a server-side shrink) produces no callbacks.
// Results arriving after Disconnect are discarded.
func (conv *Conversation) dispatchNew(messages []Message) {
	conv.mu.Lock()
	if !conv.active || len(messages) <= conv.watermark {
		conv.mu.Unlock()
		return
	}
	delta := messages[conv.watermark:]
	conv.watermark = len(messages)
	conv.mu.Unlock()

	if conv.callbacks.OnNewMessage == nil {
		return
	}

	now := time.Now().Unix()
	for _, msg := range delta {
		if msg.SentAt == 0 {
			msg.SentAt = now
		}
		conv.callbacks.OnNewMessage(msg)
	}
}
