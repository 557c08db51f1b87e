package planner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mealplan-optimizer/internal/recipe"
	"mealplan-optimizer/internal/shared"
)

// Options tunes both optimizer stages.
type Options struct {
	// SolveTimeLimit bounds the exact solver's wall-clock time. The
	// solve is never invoked without a limit.
	SolveTimeLimit time.Duration
	// ConsecutivePenalty is the objective cost of assigning the same
	// recipe to the same slot on consecutive days.
	ConsecutivePenalty float64

	// Genetic fallback tuning.
	PopulationSize int
	Generations    int
	MutationRate   float64
	CrossoverRate  float64
	// PlateauWindow stops the genetic search after this many
	// generations without improvement.
	PlateauWindow int
	// MaxSoftViolation is the ceiling on a fallback plan's summed
	// relative bound violation; above it the fallback counts as
	// exhausted.
	MaxSoftViolation float64
	// Seed fixes the genetic RNG for reproducible runs; 0 means seed
	// from the clock.
	Seed int64
}

// DefaultOptions returns the tuning used when the caller has no
// opinion.
func DefaultOptions() Options {
	return Options{
		SolveTimeLimit:     20 * time.Second,
		ConsecutivePenalty: 1.0,
		PopulationSize:     80,
		Generations:        250,
		MutationRate:       0.25,
		CrossoverRate:      0.8,
		PlateauWindow:      40,
		MaxSoftViolation:   5.0,
	}
}

// Request carries one optimization call's inputs.
type Request struct {
	HorizonDays int              `json:"horizon_days"`
	Constraints ConstraintSet    `json:"constraints"`
	Weights     ObjectiveWeights `json:"weights"`
}

// Planner runs the exact optimizer and falls back to the genetic
// search when the exact path reports infeasible or runs out of time.
// A Planner is safe for concurrent Plan calls: each call builds its
// own model and shares no mutable state.
type Planner struct {
	pool []recipe.Recipe
	opts Options
	log  *zap.Logger
}

// NewPlanner creates a Planner over an immutable candidate pool.
func NewPlanner(pool []recipe.Recipe, opts Options, log *zap.Logger) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{pool: pool, opts: opts, log: log}
}

// Plan runs one optimization call: validate, attempt the exact MILP,
// fall back to the genetic search on infeasibility or timeout, and
// assemble whichever assignment exists. The returned metadata lists
// every stage that ran, in order.
func (p *Planner) Plan(ctx context.Context, req Request) (*MealPlan, []shared.SolveMeta, error) {
	if req.HorizonDays < 1 || req.HorizonDays > 14 {
		return nil, nil, &ConfigurationError{Field: "HorizonDays", Reason: "must be between 1 and 14"}
	}
	if err := req.Constraints.Validate(); err != nil {
		return nil, nil, err
	}
	if err := req.Weights.Validate(); err != nil {
		return nil, nil, err
	}
	if err := recipe.ValidatePool(p.pool); err != nil {
		return nil, nil, &ConfigurationError{Field: "pool", Reason: err.Error()}
	}

	// Eligibility is day-invariant, so an empty set for a slot type
	// means every day's slot of that type is structurally unfillable.
	slots := req.Constraints.SlotTypes()
	eligBySlot := make([][]recipe.Recipe, len(slots))
	for si, slot := range slots {
		eligBySlot[si] = EligibleRecipes(p.pool, slot, req.Constraints)
		if len(eligBySlot[si]) == 0 {
			return nil, nil, &StructuralInfeasibilityError{Day: 0, Slot: slot}
		}
	}

	var metas []shared.SolveMeta

	exact, err := p.runExact(ctx, req, eligBySlot)
	if err != nil {
		return nil, metas, err
	}
	metas = append(metas, exact.Meta)
	if exact.Status.Succeeded() {
		plan, err := assemblePlan(exact.Assignment, p.pool, req.HorizonDays, req.Constraints, StrategyExact)
		if err != nil {
			return nil, metas, err
		}
		if len(plan.Warnings) > 0 {
			// The exact path accepted an assignment its own hard
			// constraints forbid; the recheck caught a solver or
			// formulation bug.
			return nil, metas, fmt.Errorf("exact plan failed conformance recheck: %+v", plan.Warnings)
		}
		p.log.Info("exact plan assembled",
			zap.String("status", exact.Meta.Status),
			zap.Int("nodes", exact.Meta.Nodes),
			zap.Duration("latency", exact.Meta.Latency))
		return plan, metas, nil
	}

	p.log.Warn("exact solve failed, falling back to genetic search",
		zap.String("status", exact.Meta.Status),
		zap.Duration("latency", exact.Meta.Latency))

	asg, gaMeta, err := p.runFallback(ctx, req, eligBySlot)
	metas = append(metas, gaMeta)
	if err != nil {
		return nil, metas, err
	}
	plan, err := assemblePlan(asg, p.pool, req.HorizonDays, req.Constraints, StrategyGenetic)
	if err != nil {
		return nil, metas, err
	}
	p.log.Info("fallback plan assembled",
		zap.Int("generations", gaMeta.Generations),
		zap.Int("warnings", len(plan.Warnings)),
		zap.Duration("latency", gaMeta.Latency))
	return plan, metas, nil
}
