package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saucier-dev/saucier/internal/vectorstore"
)

var getCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Fetch a single recipe by key",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	searchSvc, err := getSearchService(false)
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	recipe, err := searchSvc.Get(cmd.Context(), args[0])
	if errors.Is(err, vectorstore.ErrNotFound) {
		fmt.Printf("No recipe with key %q.\n", args[0])
		return nil
	}
	if err != nil {
		return fmt.Errorf("get recipe: %w", err)
	}

	fmt.Printf("%s\n", recipe.Name)
	if recipe.Description != "" {
		fmt.Printf("\n%s\n", recipe.Description)
	}
	if recipe.TotalTimeMinutes > 0 {
		fmt.Printf("\nTotal time: %d minutes\n", recipe.TotalTimeMinutes)
	}
	if len(recipe.Ingredients) > 0 {
		fmt.Println("\nIngredients:")
		for _, ing := range recipe.Ingredients {
			fmt.Printf("  - %s\n", ing)
		}
	}
	if len(recipe.Steps) > 0 {
		fmt.Println("\nSteps:")
		for i, step := range recipe.Steps {
			fmt.Printf("  %d. %s\n", i+1, strings.TrimSpace(step))
		}
	}
	return nil
}
