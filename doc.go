// Package priorichat is a Go client for the Priori conversational-bot
// platform.
//
// # Overview
//
// The package has two layers. Client wraps the platform's REST API with
// typed request and response shapes: conversations, messages, bots,
// content, API keys, and client configuration. Conversation sits on top of
// Client and turns the stateless request/response API into a live session
// with incremental message delivery, an optimistic local echo on send, and
// callback-driven notification.
//
// # Client
//
// A Client is created with an API token and authenticates every request
// with a bearer Authorization header:
//
//	client := priorichat.New("your-api-key")
//	resp, err := client.ListBots(ctx)
//
// Remote failures are returned as *APIError, which carries the HTTP status,
// method, URL, and the decoded error payload:
//
//	var apiErr *priorichat.APIError
//	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
//		// ...
//	}
//
// # Conversation
//
// Conversation binds to a single remote conversation, either by explicit
// ID or by (user, bot) pair, and polls it on a fixed interval. Newly
// arrived messages are delivered to the OnNewMessage callback in order:
//
//	conv, initial, err := client.Conversation(ctx,
//		priorichat.ConversationOptions{UserID: "user-123", BotID: botID},
//		priorichat.ConversationCallbacks{
//			OnNewMessage: func(msg priorichat.Message) {
//				if msg.FromBot {
//					fmt.Println("bot:", msg.Text)
//				}
//			},
//		})
//	if err != nil {
//		// ...
//	}
//	defer conv.Disconnect()
//
//	_ = initial.Messages // history loaded before polling started
//	err = conv.SendMessage(ctx, "hello", nil)
//
// Callbacks for polled messages run on the session's polling goroutine;
// the initial-data callback and the optimistic echo for a local send run
// on the calling goroutine. OnInitialData always fires before the first
// OnNewMessage, and a given message is delivered at most once.
package priorichat
