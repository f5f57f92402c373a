package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count stored recipes",
	RunE:  runCount,
}

func runCount(cmd *cobra.Command, args []string) error {
	searchSvc, err := getSearchService(false)
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	count, err := searchSvc.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("count recipes: %w", err)
	}

	fmt.Println(count)
	return nil
}
