package planner

import (
	"github.com/google/uuid"

	"mealplan-optimizer/internal/recipe"
)

// Strategy identifies which optimizer produced a plan.
type Strategy string

const (
	StrategyExact   Strategy = "exact"
	StrategyGenetic Strategy = "genetic"
)

// DayMeals maps each of a day's slots to the assigned recipe ID.
type DayMeals map[recipe.MealType]string

// NutrientTotals holds the realized nutrient sums for one day,
// recomputed from the chosen recipes.
type NutrientTotals struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	FiberG   float64 `json:"fiber_g"`
	SodiumMg float64 `json:"sodium_mg"`
}

// Warning reports a soft-constraint violation in a fallback-produced
// plan. Warnings accompany a usable plan; they are never errors.
type Warning struct {
	Day      int     `json:"day"`
	Nutrient string  `json:"nutrient,omitempty"`
	RecipeID string  `json:"recipe_id,omitempty"`
	Limit    float64 `json:"limit,omitempty"`
	Actual   float64 `json:"actual,omitempty"`
	Detail   string  `json:"detail"`
}

// MealPlan is the assembled result of one optimization call. It is
// never mutated after assembly; ownership passes to the caller.
type MealPlan struct {
	ID       uuid.UUID        `json:"id"`
	Horizon  int              `json:"horizon_days"`
	Days     []DayMeals       `json:"days"`
	Totals   []NutrientTotals `json:"daily_totals"`
	Strategy Strategy         `json:"strategy"`
	Warnings []Warning        `json:"warnings,omitempty"`
	// RecipeCounts tallies assignments per recipe across the horizon,
	// for diagnostics.
	RecipeCounts map[string]int `json:"recipe_counts"`
}
