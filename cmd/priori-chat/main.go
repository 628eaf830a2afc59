// ABOUTME: Interactive terminal chat against a Priori bot.
// ABOUTME: Binds a polling conversation session and relays stdin messages to it.

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"golang.org/x/term"

	priorichat "github.com/MaxZabarka/priori-chat-sdk"
	"github.com/MaxZabarka/priori-chat-sdk/internal/cliconfig"
)

func main() {
	botID := flag.String("bot", "", "Bot ID to chat with (overrides config)")
	userID := flag.String("user", "", "User ID to chat as (random if empty)")
	conversationID := flag.String("conversation", "", "Bind to an existing conversation ID instead of user/bot")
	server := flag.String("server", "", "API base URL (overrides config)")
	interval := flag.Duration("interval", 0, "Polling interval (overrides config)")
	flag.Parse()

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
	if *interval > 0 {
		cfg.PollingInterval = *interval
	}

	if cfg.APIKey == "" {
		cfg.APIKey, err = promptAPIKey()
		if err != nil {
			color.Red("Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *conversationID == "" && cfg.BotID == "" {
		color.Red("Error: a bot ID (-bot or config) or a conversation ID (-conversation) is required\n")
		os.Exit(1)
	}

	user := *userID
	if user == "" {
		user = "user-" + uuid.New().String()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *conversationID, user); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nGoodbye!")
}

// promptAPIKey reads the API key without echo when no configuration
// supplied one.
func promptAPIKey() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no API key configured (set PRIORI_API_KEY or api_key in %s)", cliconfig.Path())
	}
	fmt.Print("API key: ")
	key, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading API key: %w", err)
	}
	return strings.TrimSpace(string(key)), nil
}

func run(ctx context.Context, cfg *cliconfig.Config, conversationID, user string) error {
	client := priorichat.NewWithBaseURL(cfg.APIKey, cfg.BaseURL)

	bot := color.New(color.FgGreen)
	dim := color.New(color.Faint)

	opts := priorichat.ConversationOptions{
		ConversationID:  conversationID,
		UserID:          user,
		BotID:           cfg.BotID,
		PollingInterval: cfg.PollingInterval,
	}

	conv, initial, err := client.Conversation(ctx, opts, priorichat.ConversationCallbacks{
		OnNewMessage: func(msg priorichat.Message) {
			if msg.FromBot {
				fmt.Print("\r\033[K")
				bot.Printf("bot> %s\n", msg.Text)
				fmt.Print("> ")
			}
		},
		OnError: func(err error) {
			fmt.Print("\r\033[K")
			color.Red("[error] %v\n", err)
			fmt.Print("> ")
		},
	})
	if err != nil {
		return fmt.Errorf("connecting conversation: %w", err)
	}
	defer conv.Disconnect()

	fmt.Printf("Connected. Conversation ID: %s\n", conv.ID())
	dim.Printf("Loaded %d previous messages\n", len(initial.Messages))
	for _, msg := range initial.Messages {
		if strings.TrimSpace(msg.Text) == "" {
			continue
		}
		if msg.FromBot {
			bot.Printf("bot> %s\n", msg.Text)
		} else {
			fmt.Printf("you> %s\n", msg.Text)
		}
	}
	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	return chatLoop(ctx, conv)
}

func chatLoop(ctx context.Context, conv *priorichat.Conversation) error {
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")

		// Read input with context awareness
		inputCh := make(chan string, 1)
		errCh := make(chan error, 1)

		go func() {
			if scanner.Scan() {
				inputCh <- scanner.Text()
			} else {
				if err := scanner.Err(); err != nil {
					errCh <- err
				} else {
					errCh <- io.EOF
				}
			}
		}()

		var input string
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		case input = <-inputCh:
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "/quit" || input == "/exit" || input == "/q" {
			return nil
		}

		if input == "/memories" {
			if err := printMemories(ctx, conv); err != nil {
				fmt.Printf("[error] %v\n", err)
			}
			fmt.Println()
			continue
		}

		if input == "/id" {
			fmt.Println(conv.ID())
			fmt.Println()
			continue
		}

		if input == "/help" {
			printHelp()
			fmt.Println()
			continue
		}

		sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := conv.SendMessage(sendCtx, input, nil)
		cancel()
		if err != nil {
			fmt.Printf("[error] %v\n", err)
		}
	}
}

func printMemories(ctx context.Context, conv *priorichat.Conversation) error {
	memories, err := conv.GetMemories(ctx)
	if err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	cyan.Printf("Bot memories (%d):\n", len(memories.BotMemories))
	for _, m := range memories.BotMemories {
		fmt.Printf("  - %s\n", m.Text)
	}
	cyan.Printf("User memories (%d):\n", len(memories.UserMemories))
	for _, m := range memories.UserMemories {
		fmt.Printf("  - %s\n", m.Text)
	}
	return nil
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /memories   Show bot and user memories for this conversation")
	fmt.Println("  /id         Print the conversation ID")
	fmt.Println("  /quit       Exit")
	fmt.Println("Anything else is sent to the bot.")
}
