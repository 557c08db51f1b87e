package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"mealplan-optimizer/internal/config"
	"mealplan-optimizer/internal/database"
	"mealplan-optimizer/internal/metrics"
)

func init() {
	usageCmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show solve metrics for the last N days",
		Run:   runMetrics,
	}
	usageCmd.Flags().IntP("days", "d", 7, "Number of days to include")

	cleanupCmd := &cobra.Command{
		Use:   "metrics-cleanup",
		Short: "Remove old solve metric records",
		Run:   runMetricsCleanup,
	}
	cleanupCmd.Flags().Int("days", 30, "Keep records for the last N days")

	RootCmd.AddCommand(usageCmd, cleanupCmd)
}

func openMetricsStore() (*database.DB, *metrics.Store, error) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.NewDB(cfg.MetricsDBPath)
	if err != nil {
		return nil, nil, err
	}
	return db, metrics.NewStore(db.SQL), nil
}

func runMetrics(cmd *cobra.Command, args []string) {
	days, _ := cmd.Flags().GetInt("days")

	db, store, err := openMetricsStore()
	if err != nil {
		exitErr("open metrics store", err)
	}
	defer db.Close()

	usage, err := store.GetDailyUsage(days)
	if err != nil {
		exitErr("query metrics", err)
	}
	if len(usage) == 0 {
		fmt.Println("No solve metrics recorded.")
		return
	}

	fmt.Printf("%-12s %8s %8s %8s %12s\n", "DATE", "SOLVES", "EXACT", "GENETIC", "AVG MS")
	for _, u := range usage {
		fmt.Printf("%-12s %8d %8d %8d %12.1f\n", u.Date, u.Solves, u.ExactRuns, u.GeneticRuns, u.AvgLatencyMS)
	}
}

func runMetricsCleanup(cmd *cobra.Command, args []string) {
	days, _ := cmd.Flags().GetInt("days")

	db, store, err := openMetricsStore()
	if err != nil {
		exitErr("open metrics store", err)
	}
	defer db.Close()

	affected, err := store.Cleanup(days)
	if err != nil {
		exitErr("cleanup", err)
	}
	fmt.Printf("Removed %d old metric records.\n", affected)
}
