package planner

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"mealplan-optimizer/internal/recipe"
)

// Assignment is an optimizer's raw output: day index -> slot -> recipe
// ID. Both optimizers produce this shape so the assembler does not care
// which path ran.
type Assignment map[int]map[recipe.MealType]string

// assemblePlan normalizes a raw assignment into a MealPlan. Daily
// totals are recomputed directly from the pool rather than trusted from
// solver bookkeeping, which makes the assembler the single source of
// truth for whether the plan actually satisfies its stated bounds; any
// violation found here becomes a Warning on the plan.
func assemblePlan(
	asg Assignment,
	pool []recipe.Recipe,
	horizon int,
	cs ConstraintSet,
	strategy Strategy,
) (*MealPlan, error) {
	byID := make(map[string]recipe.Recipe, len(pool))
	for _, r := range pool {
		byID[r.ID] = r
	}
	slots := cs.SlotTypes()

	plan := &MealPlan{
		ID:           uuid.New(),
		Horizon:      horizon,
		Days:         make([]DayMeals, horizon),
		Totals:       make([]NutrientTotals, horizon),
		Strategy:     strategy,
		RecipeCounts: make(map[string]int),
	}

	for day := 0; day < horizon; day++ {
		meals := make(DayMeals, len(slots))
		var totals NutrientTotals
		for _, slot := range slots {
			id, ok := asg[day][slot]
			if !ok || id == "" {
				return nil, fmt.Errorf("assignment leaves day %d slot %s unfilled", day, slot)
			}
			r, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("assignment references unknown recipe %s", id)
			}
			meals[slot] = id
			plan.RecipeCounts[id]++
			totals.Calories += r.Macros.Calories
			totals.ProteinG += r.Macros.ProteinG
			totals.CarbsG += r.Macros.CarbsG
			totals.FatG += r.Macros.FatG
			totals.FiberG += r.Macros.FiberG
			totals.SodiumMg += r.Macros.SodiumMg
		}
		plan.Days[day] = meals
		plan.Totals[day] = totals
		plan.Warnings = append(plan.Warnings, checkDayBounds(day, totals, cs)...)
	}

	for id, n := range plan.RecipeCounts {
		if n > cs.MaxWeeklyRepeats {
			plan.Warnings = append(plan.Warnings, Warning{
				RecipeID: id,
				Limit:    float64(cs.MaxWeeklyRepeats),
				Actual:   float64(n),
				Detail:   "recipe exceeds the weekly repeat cap",
			})
		}
	}

	return plan, nil
}

// checkDayBounds re-checks every enabled hard bound against the
// recomputed totals for one day.
func checkDayBounds(day int, t NutrientTotals, cs ConstraintSet) []Warning {
	var ws []Warning
	check := func(nutrient string, val, min, max float64) {
		if val < min {
			ws = append(ws, Warning{
				Day: day, Nutrient: nutrient, Limit: min, Actual: round1(val),
				Detail: "daily total below minimum",
			})
		}
		if max > 0 && val > max {
			ws = append(ws, Warning{
				Day: day, Nutrient: nutrient, Limit: max, Actual: round1(val),
				Detail: "daily total above maximum",
			})
		}
	}
	check("calories", t.Calories, cs.CaloriesMin, cs.CaloriesMax)
	check("protein_g", t.ProteinG, cs.ProteinMin, cs.ProteinMax)
	if cs.CarbsBounded() {
		check("carbs_g", t.CarbsG, cs.CarbsMin, cs.CarbsMax)
	}
	if cs.FatBounded() {
		check("fat_g", t.FatG, cs.FatMin, cs.FatMax)
	}
	if cs.FiberMinG > 0 {
		check("fiber_g", t.FiberG, cs.FiberMinG, 0)
	}
	return ws
}

// round1 applies display-level rounding only; no rounding happens
// inside the solve itself.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
