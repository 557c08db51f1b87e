package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplan-optimizer/internal/recipe"
)

func assemblerPool() []recipe.Recipe {
	return []recipe.Recipe{
		{
			ID:        "oats",
			Macros:    recipe.Macros{Calories: 600, ProteinG: 40, CarbsG: 80, FatG: 15, FiberG: 8, SodiumMg: 200},
			MealTimes: []recipe.MealType{recipe.MealBreakfast},
		},
		{
			ID:        "bowl",
			Macros:    recipe.Macros{Calories: 700, ProteinG: 45, CarbsG: 70, FatG: 20, FiberG: 10, SodiumMg: 500},
			MealTimes: []recipe.MealType{recipe.MealLunch},
		},
		{
			ID:        "stew",
			Macros:    recipe.Macros{Calories: 650, ProteinG: 42, CarbsG: 50, FatG: 25, FiberG: 9, SodiumMg: 600},
			MealTimes: []recipe.MealType{recipe.MealDinner},
		},
	}
}

func TestAssemblePlanRecomputesTotals(t *testing.T) {
	asg := Assignment{
		0: {recipe.MealBreakfast: "oats", recipe.MealLunch: "bowl", recipe.MealDinner: "stew"},
	}
	cs := validConstraints()

	plan, err := assemblePlan(asg, assemblerPool(), 1, cs, StrategyExact)
	require.NoError(t, err)

	require.Len(t, plan.Totals, 1)
	assert.Equal(t, 1950.0, plan.Totals[0].Calories)
	assert.Equal(t, 127.0, plan.Totals[0].ProteinG)
	assert.Equal(t, 200.0, plan.Totals[0].CarbsG)
	assert.Equal(t, 60.0, plan.Totals[0].FatG)
	assert.Equal(t, 27.0, plan.Totals[0].FiberG)
	assert.Equal(t, 1300.0, plan.Totals[0].SodiumMg)

	assert.Empty(t, plan.Warnings, "totals inside bounds must not warn")
	assert.Equal(t, map[string]int{"oats": 1, "bowl": 1, "stew": 1}, plan.RecipeCounts)
	assert.Equal(t, StrategyExact, plan.Strategy)
}

func TestAssemblePlanWarnsOnBoundViolations(t *testing.T) {
	asg := Assignment{
		0: {recipe.MealBreakfast: "oats", recipe.MealLunch: "bowl", recipe.MealDinner: "stew"},
	}
	cs := validConstraints()
	cs.CaloriesMin = 2000 // realized 1950 falls short
	cs.ProteinMax = 125   // realized 127 exceeds

	plan, err := assemblePlan(asg, assemblerPool(), 1, cs, StrategyGenetic)
	require.NoError(t, err)
	require.Len(t, plan.Warnings, 2)

	byNutrient := map[string]Warning{}
	for _, w := range plan.Warnings {
		byNutrient[w.Nutrient] = w
	}
	assert.Equal(t, 2000.0, byNutrient["calories"].Limit)
	assert.Equal(t, 1950.0, byNutrient["calories"].Actual)
	assert.Equal(t, 125.0, byNutrient["protein_g"].Limit)
	assert.Equal(t, 127.0, byNutrient["protein_g"].Actual)
}

func TestAssemblePlanWarnsOnRepeatCapExcess(t *testing.T) {
	asg := Assignment{
		0: {recipe.MealBreakfast: "oats", recipe.MealLunch: "bowl", recipe.MealDinner: "stew"},
		1: {recipe.MealBreakfast: "oats", recipe.MealLunch: "bowl", recipe.MealDinner: "stew"},
		2: {recipe.MealBreakfast: "oats", recipe.MealLunch: "bowl", recipe.MealDinner: "stew"},
	}
	cs := validConstraints()
	cs.CaloriesMin = 1000
	cs.ProteinMax = 200

	plan, err := assemblePlan(asg, assemblerPool(), 3, cs, StrategyGenetic)
	require.NoError(t, err)

	var repeatWarnings int
	for _, w := range plan.Warnings {
		if w.RecipeID != "" {
			repeatWarnings++
			assert.Equal(t, 2.0, w.Limit)
			assert.Equal(t, 3.0, w.Actual)
		}
	}
	assert.Equal(t, 3, repeatWarnings)
}

func TestAssemblePlanRejectsUnfilledSlot(t *testing.T) {
	asg := Assignment{
		0: {recipe.MealBreakfast: "oats", recipe.MealLunch: "bowl"},
	}
	_, err := assemblePlan(asg, assemblerPool(), 1, validConstraints(), StrategyExact)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unfilled")
}

func TestAssemblePlanRejectsUnknownRecipe(t *testing.T) {
	asg := Assignment{
		0: {recipe.MealBreakfast: "ghost", recipe.MealLunch: "bowl", recipe.MealDinner: "stew"},
	}
	_, err := assemblePlan(asg, assemblerPool(), 1, validConstraints(), StrategyExact)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown recipe")
}
