// ABOUTME: Error types for the Priori chat SDK.
// ABOUTME: Defines APIError for remote failures and package sentinel errors.

package priorichat

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is returned by Conversation operations that require a
// bound, initialized session (SendMessage, GetMemories) when the session
// failed to initialize.
var ErrNotInitialized = errors.New("conversation not initialized")

// ErrMissingOptions is returned when ConversationOptions carries neither a
// conversation ID nor a (user ID, bot ID) pair.
var ErrMissingOptions = errors.New("conversation options require conversation_id or user_id and bot_id")

// APIError represents a non-2xx response from the Priori API. The server's
// error payload, when present, is decoded into Payload and folded into the
// error message.
type APIError struct {
	Status     int
	StatusText string
	Method     string
	URL        string
	Message    string         // server-reported message, if any
	Payload    map[string]any // decoded JSON error body, if any
}

// Error formats the failure as "[status statusText] METHOD url: message".
func (e *APIError) Error() string {
	s := fmt.Sprintf("[%d %s] %s %s", e.Status, e.StatusText, e.Method, e.URL)
	if e.Message != "" {
		s += ": " + e.Message
	}
	return s
}

// serverMessage extracts the human-readable message from a decoded error
// payload. The API reports errors under "message" or, on some routes,
// "error".
func serverMessage(payload map[string]any) string {
	for _, key := range []string{"message", "error"} {
		if v, ok := payload[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
