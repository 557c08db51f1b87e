package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the configuration for the application. Required paths
// come from the environment; numeric knobs fall back to defaults.
type Config struct {
	PoolPath      string
	MetricsDBPath string

	SolveTimeLimit     time.Duration
	ConsecutivePenalty float64

	// Genetic fallback tuning.
	PopulationSize int
	Generations    int
	MutationRate   float64
	CrossoverRate  float64
	GASeed         int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	cfg := &Config{
		PoolPath:           "data/pool.json",
		MetricsDBPath:      "data/metrics.db",
		SolveTimeLimit:     20 * time.Second,
		ConsecutivePenalty: 1.0,
		PopulationSize:     80,
		Generations:        250,
		MutationRate:       0.25,
		CrossoverRate:      0.8,
	}

	if v := os.Getenv("MEALPLAN_POOL_PATH"); v != "" {
		cfg.PoolPath = v
	}
	if v := os.Getenv("MEALPLAN_METRICS_DB"); v != "" {
		cfg.MetricsDBPath = v
	}
	if v := os.Getenv("MEALPLAN_SOLVE_TIME_LIMIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("MEALPLAN_SOLVE_TIME_LIMIT is not a valid duration: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("MEALPLAN_SOLVE_TIME_LIMIT must be positive")
		}
		cfg.SolveTimeLimit = d
	}
	if v := os.Getenv("MEALPLAN_CONSECUTIVE_PENALTY"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return nil, fmt.Errorf("MEALPLAN_CONSECUTIVE_PENALTY must be a non-negative number")
		}
		cfg.ConsecutivePenalty = f
	}
	if v := os.Getenv("MEALPLAN_GA_POPULATION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 2 {
			return nil, fmt.Errorf("MEALPLAN_GA_POPULATION must be an integer >= 2")
		}
		cfg.PopulationSize = n
	}
	if v := os.Getenv("MEALPLAN_GA_GENERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("MEALPLAN_GA_GENERATIONS must be a positive integer")
		}
		cfg.Generations = n
	}
	if v := os.Getenv("MEALPLAN_GA_MUTATION_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return nil, fmt.Errorf("MEALPLAN_GA_MUTATION_RATE must be in [0,1]")
		}
		cfg.MutationRate = f
	}
	if v := os.Getenv("MEALPLAN_GA_CROSSOVER_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 {
			return nil, fmt.Errorf("MEALPLAN_GA_CROSSOVER_RATE must be in [0,1]")
		}
		cfg.CrossoverRate = f
	}
	if v := os.Getenv("MEALPLAN_GA_SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("MEALPLAN_GA_SEED must be an integer: %w", err)
		}
		cfg.GASeed = n
	}

	return cfg, nil
}
