package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saucier-dev/saucier/internal/service"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the cooking assistant a single question",
	Long: `Ask a single-turn question and get an LLM answer.

Answers to semantically similar questions are cached; asking roughly the
same thing twice returns the stored answer without calling the model.

Examples:
  saucier ask "How do I keep risotto creamy?"
  saucier ask "What can I substitute for buttermilk?"`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	emb, model, err := getLLM()
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	answerSvc := service.NewAnswerService(stores.Exchanges, emb, model, service.AnswerOptions{
		MaxDistance: cfg.AnswerMaxDistance,
	})

	answer, err := answerSvc.Answer(ctx, args[0])
	if err != nil {
		return fmt.Errorf("answer: %w", err)
	}

	if answer.FromCache {
		fmt.Println("(cached)")
	}
	fmt.Println(answer.AssistantMessage)
	return nil
}
