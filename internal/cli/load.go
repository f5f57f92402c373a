package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/saucier-dev/saucier/internal/models"
	"github.com/saucier-dev/saucier/internal/service"
)

var (
	loadConcurrency int
	loadRateLimit   float64
)

var loadCmd = &cobra.Command{
	Use:   "load <file.json>",
	Short: "Load recipes from a JSON file into the search index",
	Long: `Load a JSON array of recipes, embedding each one and upserting it
into the vector store. Work is parallelized and rate limited to stay
within the embedding provider's limits.

Examples:
  saucier load recipes.json
  saucier load recipes.json --concurrency 8 --rate 20`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().IntVar(&loadConcurrency, "concurrency", 0, "parallel embed workers (0 = config default)")
	loadCmd.Flags().Float64Var(&loadRateLimit, "rate", 0, "embedding calls per second (0 = config default)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read recipes file: %w", err)
	}
	var recipes []models.Recipe
	if err := json.Unmarshal(raw, &recipes); err != nil {
		return fmt.Errorf("parse recipes file: %w", err)
	}
	if len(recipes) == 0 {
		fmt.Println("No recipes in file.")
		return nil
	}

	emb, _, err := getLLM()
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	concurrency := cfg.IngestConcurrency
	if loadConcurrency > 0 {
		concurrency = loadConcurrency
	}
	rateLimit := cfg.IngestRateLimit
	if loadRateLimit > 0 {
		rateLimit = loadRateLimit
	}

	ingestSvc := service.NewIngestService(stores.Recipes, emb, service.IngestOptions{
		Concurrency: concurrency,
		RateLimit:   rateLimit,
	})

	if err := RunLoadProgress(ctx, ingestSvc, recipes); err != nil {
		return err
	}

	fmt.Printf("Loaded %d recipes.\n", len(recipes))
	return nil
}
