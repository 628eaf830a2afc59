// ABOUTME: One-shot message sender for a Priori conversation.
// ABOUTME: Creates or reuses a conversation, appends one message, and exits.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	priorichat "github.com/MaxZabarka/priori-chat-sdk"
	"github.com/MaxZabarka/priori-chat-sdk/internal/cliconfig"
)

func main() {
	botID := flag.String("bot", "", "Bot ID (overrides config)")
	userID := flag.String("user", "", "User ID the message is sent as")
	conversationID := flag.String("conversation", "", "Send into an existing conversation ID")
	text := flag.String("text", "", "Message text to send")
	mediaURL := flag.String("media", "", "Optional media URL to attach")
	server := flag.String("server", "", "API base URL (overrides config)")
	flag.Parse()

	if *text == "" {
		fmt.Fprintln(os.Stderr, "Usage: priori-send -text <message> [-conversation ID | -bot ID -user ID]")
		os.Exit(1)
	}

	cfg, err := cliconfig.Load(cliconfig.Path())
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.BaseURL = *server
	}
	if *botID != "" {
		cfg.BotID = *botID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, cfg, *conversationID, *userID, *text, *mediaURL); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *cliconfig.Config, conversationID, userID, text, mediaURL string) error {
	client := priorichat.NewWithBaseURL(cfg.APIKey, cfg.BaseURL)

	if conversationID == "" {
		if cfg.BotID == "" || userID == "" {
			return fmt.Errorf("a conversation ID, or both a bot ID and a user ID, is required")
		}

		created, err := client.CreateConversation(ctx, &priorichat.CreateConversationOptions{
			BotID:                 cfg.BotID,
			UserID:                userID,
			CreateUserIfNotExists: priorichat.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("creating conversation: %w", err)
		}
		conversationID = created.Conversation.ID
		fmt.Printf("Created conversation %s\n", conversationID)
	}

	msg := &priorichat.MessageInput{Text: text}
	if mediaURL != "" {
		msg.AttachedMedia = &priorichat.AttachedMedia{URL: mediaURL}
	}

	if err := client.SendMessage(ctx, conversationID, msg); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	green := color.New(color.FgGreen)
	green.Printf("Message sent to %s\n", conversationID)
	return nil
}
