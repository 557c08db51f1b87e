package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd is the entry point for all subcommands.
var RootCmd = &cobra.Command{
	Use:   "mealplan-optimizer",
	Short: "Optimize weekly meal plans from a candidate recipe pool",
	Long: "Assigns recipes to meal slots over a multi-day horizon under nutritional,\n" +
		"variety, and repetition constraints, using an exact MILP solve with a\n" +
		"genetic fallback.",
}

func exitErr(action string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", action, err)
	os.Exit(1)
}
