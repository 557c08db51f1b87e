package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mealplan-optimizer/internal/config"
	"mealplan-optimizer/internal/database"
	"mealplan-optimizer/internal/metrics"
	"mealplan-optimizer/internal/planner"
	"mealplan-optimizer/internal/shared"
	"mealplan-optimizer/internal/storage"
)

func init() {
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve one meal-plan optimization request",
		Long: "Loads a candidate pool and a request file (horizon, constraints, weights),\n" +
			"runs the optimizer, and prints the resulting plan as JSON.",
		Run: runSolve,
	}

	cmd.Flags().StringP("pool", "p", "", "Candidate pool JSON file (default from MEALPLAN_POOL_PATH)")
	cmd.Flags().StringP("request", "r", "request.json", "Request JSON file")
	cmd.Flags().Duration("time-limit", 0, "Override the exact solver's wall-clock limit")
	cmd.Flags().Int64("seed", 0, "Fix the genetic fallback's RNG seed")
	cmd.Flags().Bool("no-metrics", false, "Skip recording solve metrics")

	RootCmd.AddCommand(cmd)
}

func runSolve(cmd *cobra.Command, args []string) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		exitErr("load configuration", err)
	}

	poolPath, _ := cmd.Flags().GetString("pool")
	if poolPath == "" {
		poolPath = cfg.PoolPath
	}
	requestPath, _ := cmd.Flags().GetString("request")
	timeLimit, _ := cmd.Flags().GetDuration("time-limit")
	seed, _ := cmd.Flags().GetInt64("seed")
	noMetrics, _ := cmd.Flags().GetBool("no-metrics")

	pool, err := storage.LoadPoolFile(poolPath)
	if err != nil {
		exitErr("load pool", err)
	}

	data, err := os.ReadFile(requestPath)
	if err != nil {
		exitErr("read request", err)
	}
	var req planner.Request
	if err := json.Unmarshal(data, &req); err != nil {
		exitErr("parse request", err)
	}

	opts := plannerOptions(cfg)
	if timeLimit > 0 {
		opts.SolveTimeLimit = timeLimit
	}
	if seed != 0 {
		opts.Seed = seed
	}

	logger, err := zap.NewProduction()
	if err != nil {
		exitErr("initialize logger", err)
	}
	defer logger.Sync()

	p := planner.NewPlanner(pool, opts, logger)
	plan, metas, planErr := p.Plan(cmd.Context(), req)

	if !noMetrics {
		recordMetas(cfg.MetricsDBPath, req.HorizonDays, metas, logger)
	}

	if planErr != nil {
		exitErr("solve", planErr)
	}

	out, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		exitErr("encode plan", err)
	}
	fmt.Println(string(out))
}

func plannerOptions(cfg *config.Config) planner.Options {
	opts := planner.DefaultOptions()
	opts.SolveTimeLimit = cfg.SolveTimeLimit
	opts.ConsecutivePenalty = cfg.ConsecutivePenalty
	opts.PopulationSize = cfg.PopulationSize
	opts.Generations = cfg.Generations
	opts.MutationRate = cfg.MutationRate
	opts.CrossoverRate = cfg.CrossoverRate
	opts.Seed = cfg.GASeed
	return opts
}

// recordMetas persists stage metadata best-effort: a metrics failure
// must never fail the solve.
func recordMetas(dbPath string, horizon int, metas []shared.SolveMeta, logger *zap.Logger) {
	if len(metas) == 0 {
		return
	}
	db, err := database.NewDB(dbPath)
	if err != nil {
		logger.Warn("metrics store unavailable", zap.Error(err))
		return
	}
	defer db.Close()

	store := metrics.NewStore(db.SQL)
	for _, meta := range metas {
		if err := store.RecordMeta(horizon, meta); err != nil {
			logger.Warn("failed to record solve metric", zap.Error(err))
		}
	}
}
