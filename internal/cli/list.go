package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored recipes",
	RunE:  runList,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 10, "max recipes to list")
}

func runList(cmd *cobra.Command, args []string) error {
	searchSvc, err := getSearchService(false)
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	recipes, err := searchSvc.List(cmd.Context(), listLimit)
	if err != nil {
		return fmt.Errorf("list recipes: %w", err)
	}

	if len(recipes) == 0 {
		fmt.Println("No recipes stored.")
		return nil
	}

	for _, recipe := range recipes {
		fmt.Printf("%-40s %s\n", recipe.Key, recipe.Name)
	}
	return nil
}
