package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplan-optimizer/internal/recipe"
)

// weekPool returns a pool where any breakfast+lunch+dinner combination
// lands inside 1800-2200 kcal and 120-160g protein, so a seven-day
// plan exists with no repeat-cap or consecutive-day pressure.
func weekPool() []recipe.Recipe {
	return []recipe.Recipe{
		makeRecipe("oatmeal", recipe.MealBreakfast, 580, 40),
		makeRecipe("shakshuka", recipe.MealBreakfast, 600, 42),
		makeRecipe("pancakes", recipe.MealBreakfast, 620, 44),
		makeRecipe("frittata", recipe.MealBreakfast, 640, 46),
		makeRecipe("grain-bowl", recipe.MealLunch, 680, 44),
		makeRecipe("chicken-wrap", recipe.MealLunch, 700, 46),
		makeRecipe("poke-bowl", recipe.MealLunch, 720, 48),
		makeRecipe("lentil-soup", recipe.MealLunch, 740, 50),
		makeRecipe("salmon-rice", recipe.MealDinner, 560, 40),
		makeRecipe("beef-stew", recipe.MealDinner, 590, 42),
		makeRecipe("tofu-curry", recipe.MealDinner, 620, 44),
		makeRecipe("pasta-bake", recipe.MealDinner, 650, 46),
	}
}

func weekRequest() Request {
	return Request{
		HorizonDays: 7,
		Constraints: ConstraintSet{
			CaloriesMin: 1800, CaloriesMax: 2200,
			ProteinMin: 120, ProteinMax: 160,
			MealsPerDay: 3, MaxWeeklyRepeats: 2,
		},
		Weights: validWeights(),
	}
}

// checkHardConstraints recomputes every bound from the pool, never
// trusting the plan's own totals.
func checkHardConstraints(t *testing.T, plan *MealPlan, pool []recipe.Recipe, req Request) {
	t.Helper()
	byID := make(map[string]recipe.Recipe, len(pool))
	for _, r := range pool {
		byID[r.ID] = r
	}
	cs := req.Constraints
	counts := make(map[string]int)
	require.Len(t, plan.Days, req.HorizonDays)
	for day, meals := range plan.Days {
		require.Len(t, meals, cs.MealsPerDay, "day %d", day)
		var calories, protein float64
		for _, slot := range cs.SlotTypes() {
			id := meals[slot]
			require.NotEmpty(t, id, "day %d slot %s", day, slot)
			r, ok := byID[id]
			require.True(t, ok, "day %d slot %s references unknown recipe %q", day, slot, id)
			assert.True(t, r.EligibleFor(slot), "recipe %q not eligible for slot %s", id, slot)
			calories += r.Macros.Calories
			protein += r.Macros.ProteinG
			counts[id]++
		}
		assert.GreaterOrEqual(t, calories, cs.CaloriesMin, "day %d calories", day)
		assert.LessOrEqual(t, calories, cs.CaloriesMax, "day %d calories", day)
		assert.GreaterOrEqual(t, protein, cs.ProteinMin, "day %d protein", day)
		assert.LessOrEqual(t, protein, cs.ProteinMax, "day %d protein", day)
	}
	for id, n := range counts {
		assert.LessOrEqual(t, n, cs.MaxWeeklyRepeats, "recipe %q over repeat cap", id)
	}
}

func consecutiveRepeats(plan *MealPlan, slots []recipe.MealType) int {
	n := 0
	for day := 1; day < len(plan.Days); day++ {
		for _, slot := range slots {
			if plan.Days[day][slot] == plan.Days[day-1][slot] {
				n++
			}
		}
	}
	return n
}

func TestPlanSevenDayExactScenario(t *testing.T) {
	pool := weekPool()
	req := weekRequest()
	p := NewPlanner(pool, exactOptions(), nil)

	plan, metas, err := p.Plan(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.Equal(t, StrategyExact, plan.Strategy)
	assert.Empty(t, plan.Warnings)
	assert.Equal(t, 7, plan.Horizon)
	assert.NotEqual(t, "", plan.ID.String())

	require.Len(t, metas, 1)
	assert.Equal(t, string(StrategyExact), metas[0].Stage)
	assert.Contains(t, []string{"optimal", "feasible"}, metas[0].Status)

	checkHardConstraints(t, plan, pool, req)

	// Four choices per slot and a cap of two leave ample room to avoid
	// back-to-back repeats, so a proven optimum never pays the penalty.
	if metas[0].Status == "optimal" {
		assert.Zero(t, consecutiveRepeats(plan, req.Constraints.SlotTypes()))
	}

	require.Len(t, plan.Totals, 7)
	for day, totals := range plan.Totals {
		assert.Greater(t, totals.Calories, 0.0, "day %d", day)
		assert.Greater(t, totals.ProteinG, 0.0, "day %d", day)
	}
}

func TestPlanStructuralInfeasibility(t *testing.T) {
	pool := weekPool()
	// Drop every dinner option.
	var noDinner []recipe.Recipe
	for _, r := range pool {
		if !r.EligibleFor(recipe.MealDinner) {
			noDinner = append(noDinner, r)
		}
	}
	p := NewPlanner(noDinner, exactOptions(), nil)

	plan, metas, err := p.Plan(context.Background(), weekRequest())
	require.Error(t, err)
	assert.Nil(t, plan)
	assert.Empty(t, metas, "structural check must reject before any solver runs")

	var structural *StructuralInfeasibilityError
	require.ErrorAs(t, err, &structural)
	assert.Equal(t, 0, structural.Day)
	assert.Equal(t, recipe.MealDinner, structural.Slot)
	assert.Contains(t, err.Error(), "dinner")
}

func TestPlanFallsBackWhenExactInfeasible(t *testing.T) {
	// Eligible recipes exist for every slot but no combination reaches
	// the protein floor, so the exact stage reports infeasible and the
	// genetic stage must deliver a best-effort plan with warnings.
	pool := []recipe.Recipe{
		makeRecipe("toast", recipe.MealBreakfast, 500, 20),
		makeRecipe("granola", recipe.MealBreakfast, 520, 25),
		makeRecipe("salad", recipe.MealLunch, 600, 25),
		makeRecipe("panini", recipe.MealLunch, 620, 30),
	}
	req := Request{
		HorizonDays: 3,
		Constraints: ConstraintSet{
			CaloriesMin: 900, CaloriesMax: 1400,
			ProteinMin: 300, ProteinMax: 400,
			MealsPerDay: 2, MaxWeeklyRepeats: 3,
		},
		Weights: validWeights(),
	}
	opts := exactOptions()
	opts.Generations = 60
	p := NewPlanner(pool, opts, nil)

	plan, metas, err := p.Plan(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, plan)

	require.Len(t, metas, 2)
	assert.Equal(t, string(StrategyExact), metas[0].Stage)
	assert.Equal(t, "infeasible", metas[0].Status)
	assert.Equal(t, string(StrategyGenetic), metas[1].Stage)
	assert.Equal(t, "accepted", metas[1].Status)

	assert.Equal(t, StrategyGenetic, plan.Strategy)
	assert.NotEmpty(t, plan.Warnings, "unreachable protein floor must surface as warnings")
	require.Len(t, plan.Days, 3)
	for day, meals := range plan.Days {
		for _, slot := range req.Constraints.SlotTypes() {
			assert.NotEmpty(t, meals[slot], "day %d slot %s", day, slot)
		}
	}
}

func TestPlanRejectsBadInput(t *testing.T) {
	p := NewPlanner(weekPool(), exactOptions(), nil)

	t.Run("horizon too short", func(t *testing.T) {
		req := weekRequest()
		req.HorizonDays = 0
		_, _, err := p.Plan(context.Background(), req)
		var cfg *ConfigurationError
		require.ErrorAs(t, err, &cfg)
		assert.Equal(t, "HorizonDays", cfg.Field)
	})

	t.Run("horizon too long", func(t *testing.T) {
		req := weekRequest()
		req.HorizonDays = 15
		_, _, err := p.Plan(context.Background(), req)
		var cfg *ConfigurationError
		require.ErrorAs(t, err, &cfg)
		assert.Equal(t, "HorizonDays", cfg.Field)
	})

	t.Run("weights off balance", func(t *testing.T) {
		req := weekRequest()
		req.Weights.MacroDeviation = 0.1
		_, _, err := p.Plan(context.Background(), req)
		var cfg *ConfigurationError
		require.ErrorAs(t, err, &cfg)
	})

	t.Run("inverted calorie bounds", func(t *testing.T) {
		req := weekRequest()
		req.Constraints.CaloriesMin = 2500
		_, _, err := p.Plan(context.Background(), req)
		var cfg *ConfigurationError
		require.ErrorAs(t, err, &cfg)
	})
}

func TestPlanDeterministicAcrossRuns(t *testing.T) {
	pool := weekPool()
	req := weekRequest()

	planA, metasA, err := NewPlanner(pool, exactOptions(), nil).Plan(context.Background(), req)
	require.NoError(t, err)
	planB, metasB, err := NewPlanner(pool, exactOptions(), nil).Plan(context.Background(), req)
	require.NoError(t, err)

	checkHardConstraints(t, planA, pool, req)
	checkHardConstraints(t, planB, pool, req)

	// Identical inputs yield identical assignments unless a wall-clock
	// cutoff ended one run early.
	if metasA[0].Status == "optimal" && metasB[0].Status == "optimal" {
		assert.Equal(t, planA.Days, planB.Days)
		assert.InDelta(t, metasA[0].Objective, metasB[0].Objective, 1e-9)
	}
}
