package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saucier-dev/saucier/internal/service"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Hold a multi-turn conversation with the cooking assistant",
	Long: `Start an interactive conversation. The full transcript is carried
across turns, so follow-up questions can refer to earlier ones.

Pass --session to resume a previous conversation by its ID.

Type "exit" or press Ctrl+D to quit.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSessionID, "session", "s", "", "resume an existing session by ID")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	emb, model, err := getLLM()
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	chatSvc := service.NewChatService(stores.Sessions, emb, model, service.ChatOptions{
		SystemPrompt: cfg.ChatSystemPrompt,
		EmbedScope:   cfg.ChatEmbedScope,
	})

	sessionID := chatSessionID
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Chat with the cooking assistant. Type \"exit\" to quit.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if message == "" {
			continue
		}
		if message == "exit" || message == "quit" {
			break
		}

		reply, err := chatSvc.Converse(ctx, sessionID, message)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		sessionID = reply.SessionID

		fmt.Printf("\n%s\n\n", reply.AssistantMessage)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if sessionID != "" {
		fmt.Printf("\nSession: %s (resume with --session %s)\n", sessionID, sessionID)
	}
	return nil
}
