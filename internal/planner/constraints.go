package planner

import (
	"errors"
	"math"

	"github.com/go-playground/validator/v10"

	"mealplan-optimizer/internal/recipe"
)

// WeightSumTolerance is how far the four objective weights may deviate
// from summing to 1.0.
const WeightSumTolerance = 0.01

var structValidator = validator.New()

// ConstraintSet is the feasibility envelope for a plan. Calories and
// protein bounds are always enforced; carbs and fat bounds apply only
// when their Max is positive; fiber has only a minimum.
type ConstraintSet struct {
	CaloriesMin float64 `json:"calories_min" validate:"gte=0"`
	CaloriesMax float64 `json:"calories_max" validate:"gt=0"`
	ProteinMin  float64 `json:"protein_min" validate:"gte=0"`
	ProteinMax  float64 `json:"protein_max" validate:"gt=0"`
	CarbsMin    float64 `json:"carbs_min" validate:"gte=0"`
	CarbsMax    float64 `json:"carbs_max" validate:"gte=0"`
	FatMin      float64 `json:"fat_min" validate:"gte=0"`
	FatMax      float64 `json:"fat_max" validate:"gte=0"`
	FiberMinG   float64 `json:"fiber_min_g" validate:"gte=0"`

	MealsPerDay      int `json:"meals_per_day" validate:"min=1,max=6"`
	MaxWeeklyRepeats int `json:"max_weekly_repeats" validate:"min=1"`
	// MaxPrepTimeMinutes excludes recipes above the ceiling; 0 means no
	// ceiling.
	MaxPrepTimeMinutes int `json:"max_prep_time_minutes" validate:"gte=0"`

	ExcludedDietTags  []string `json:"excluded_diet_tags,omitempty"`
	ExcludedAllergens []string `json:"excluded_allergens,omitempty"`
}

// Validate checks the constraint set. A violated bound relationship is
// a caller mistake, so it is a *ConfigurationError, never a solver
// failure. Pure: no side effects.
func (cs ConstraintSet) Validate() error {
	if err := structValidator.Struct(cs); err != nil {
		var invalid validator.ValidationErrors
		field := "constraints"
		if errors.As(err, &invalid) && len(invalid) > 0 {
			field = invalid[0].Field()
		}
		return &ConfigurationError{Field: field, Reason: err.Error()}
	}
	if cs.CaloriesMax < cs.CaloriesMin {
		return &ConfigurationError{Field: "CaloriesMax", Reason: "must be >= CaloriesMin"}
	}
	if cs.ProteinMax < cs.ProteinMin {
		return &ConfigurationError{Field: "ProteinMax", Reason: "must be >= ProteinMin"}
	}
	if cs.CarbsMax > 0 && cs.CarbsMax < cs.CarbsMin {
		return &ConfigurationError{Field: "CarbsMax", Reason: "must be >= CarbsMin when enabled"}
	}
	if cs.FatMax > 0 && cs.FatMax < cs.FatMin {
		return &ConfigurationError{Field: "FatMax", Reason: "must be >= FatMin when enabled"}
	}
	return nil
}

// CarbsBounded reports whether the carbohydrate bound pair is enabled.
func (cs ConstraintSet) CarbsBounded() bool { return cs.CarbsMax > 0 }

// FatBounded reports whether the fat bound pair is enabled.
func (cs ConstraintSet) FatBounded() bool { return cs.FatMax > 0 }

// SlotTypes returns the meal types of a day's slots, in order.
func (cs ConstraintSet) SlotTypes() []recipe.MealType {
	return recipe.SlotOrder[:cs.MealsPerDay]
}

func (cs ConstraintSet) excludedTags() map[string]struct{} {
	tags := make(map[string]struct{}, len(cs.ExcludedDietTags)+len(cs.ExcludedAllergens))
	for _, t := range cs.ExcludedDietTags {
		tags[t] = struct{}{}
	}
	for _, t := range cs.ExcludedAllergens {
		tags[t] = struct{}{}
	}
	return tags
}

// EligibleRecipes returns the subsequence of pool that may fill a slot
// of the given meal type: tag-eligible, not excluded, and within the
// prep-time ceiling. Input order is preserved so variable creation
// downstream is deterministic.
func EligibleRecipes(pool []recipe.Recipe, mt recipe.MealType, cs ConstraintSet) []recipe.Recipe {
	excluded := cs.excludedTags()
	var out []recipe.Recipe
	for _, r := range pool {
		if !r.EligibleFor(mt) {
			continue
		}
		if cs.MaxPrepTimeMinutes > 0 && r.PrepTimeMinutes > cs.MaxPrepTimeMinutes {
			continue
		}
		if r.HasAnyTag(excluded) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ObjectiveWeights bias search and ranking; they never relax hard
// constraints.
type ObjectiveWeights struct {
	MacroDeviation float64 `json:"macro_deviation" validate:"gte=0"`
	InventoryUsage float64 `json:"inventory_usage" validate:"gte=0"`
	Variety        float64 `json:"variety" validate:"gte=0"`
	GoalAlignment  float64 `json:"goal_alignment" validate:"gte=0"`
}

// Validate checks non-negativity and that the weights sum to 1 within
// WeightSumTolerance.
func (w ObjectiveWeights) Validate() error {
	if err := structValidator.Struct(w); err != nil {
		return &ConfigurationError{Field: "weights", Reason: err.Error()}
	}
	sum := w.MacroDeviation + w.InventoryUsage + w.Variety + w.GoalAlignment
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return &ConfigurationError{
			Field:  "weights",
			Reason: "must sum to 1.0 within tolerance",
		}
	}
	return nil
}
