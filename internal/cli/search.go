package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saucier-dev/saucier/internal/vectorstore"
)

var searchApproach string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search recipes by semantic similarity",
	Long: `Search recipes using vector similarity over the configured store.

The range approach returns only recipes within the distance threshold;
the nearest approach always returns the closest matches regardless of
distance. Repeated similar queries are answered from the semantic cache.

Examples:
  saucier search "quick weeknight pasta"
  saucier search "chocolate dessert" --approach nearest`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchApproach, "approach", "a", "range", "similarity approach (range or nearest)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := cmd.Context()

	strategy, err := vectorstore.ParseStrategy(searchApproach)
	if err != nil {
		return err
	}

	searchSvc, err := getSearchService(true)
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	results, err := searchSvc.Search(ctx, query, strategy)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	if results[0].FromCache {
		fmt.Printf("Found %d results (cached):\n\n", len(results))
	} else {
		fmt.Printf("Found %d results:\n\n", len(results))
	}
	for i, match := range results {
		fmt.Printf("%d. %s (distance %.4f)\n", i+1, match.Recipe.Name, match.Score)
		if match.Recipe.Description != "" {
			desc := match.Recipe.Description
			if len(desc) > 100 {
				desc = desc[:100] + "..."
			}
			fmt.Printf("   %s\n", desc)
		}
		if verbose {
			fmt.Printf("   Key: %s  Ingredients: %d  Steps: %d\n",
				match.Recipe.Key, len(match.Recipe.Ingredients), len(match.Recipe.Steps))
		}
		fmt.Println()
	}

	return nil
}
