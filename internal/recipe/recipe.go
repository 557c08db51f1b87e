package recipe

import (
	"fmt"
)

// MealType identifies the meal-time a slot is bound to.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
	MealBrunch    MealType = "brunch"
	MealSupper    MealType = "supper"
)

// SlotOrder is the canonical slot ordering: a day with N meals uses the
// first N entries.
var SlotOrder = []MealType{
	MealBreakfast,
	MealLunch,
	MealDinner,
	MealSnack,
	MealBrunch,
	MealSupper,
}

// Macros holds the per-serving macro-nutrient profile of a recipe.
type Macros struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	FiberG   float64 `json:"fiber_g"`
	SodiumMg float64 `json:"sodium_mg"`
}

// Recipe is a candidate supplied by the catalog. It is immutable for
// the duration of an optimization run.
type Recipe struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Macros          Macros     `json:"macros_per_serving"`
	MealTimes       []MealType `json:"eligible_meal_times"`
	PrepTimeMinutes int        `json:"prep_time_minutes"`
	DietTags        []string   `json:"dietary_tags,omitempty"`
	AllergenTags    []string   `json:"allergen_tags,omitempty"`

	// Objective scores supplied by the pool adapter. InventoryScore is
	// the fraction of the recipe's ingredients already on hand;
	// GoalScore is how well the recipe matches the user's stated goal.
	InventoryScore float64 `json:"inventory_score,omitempty"`
	GoalScore      float64 `json:"goal_score,omitempty"`
}

// EligibleFor reports whether the recipe may be assigned to a slot of
// the given meal type.
func (r Recipe) EligibleFor(mt MealType) bool {
	for _, t := range r.MealTimes {
		if t == mt {
			return true
		}
	}
	return false
}

// HasAnyTag reports whether any of the recipe's dietary or allergen
// tags appears in the given set.
func (r Recipe) HasAnyTag(tags map[string]struct{}) bool {
	for _, t := range r.DietTags {
		if _, ok := tags[t]; ok {
			return true
		}
	}
	for _, t := range r.AllergenTags {
		if _, ok := tags[t]; ok {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants of a single recipe.
func (r Recipe) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("recipe has an empty id")
	}
	for name, v := range map[string]float64{
		"calories":  r.Macros.Calories,
		"protein_g": r.Macros.ProteinG,
		"carbs_g":   r.Macros.CarbsG,
		"fat_g":     r.Macros.FatG,
		"fiber_g":   r.Macros.FiberG,
		"sodium_mg": r.Macros.SodiumMg,
	} {
		if v < 0 {
			return fmt.Errorf("recipe %s: %s must not be negative, got %v", r.ID, name, v)
		}
	}
	if r.PrepTimeMinutes < 0 {
		return fmt.Errorf("recipe %s: prep time must not be negative", r.ID)
	}
	if r.InventoryScore < 0 || r.InventoryScore > 1 {
		return fmt.Errorf("recipe %s: inventory score must be in [0,1], got %v", r.ID, r.InventoryScore)
	}
	if r.GoalScore < 0 || r.GoalScore > 1 {
		return fmt.Errorf("recipe %s: goal score must be in [0,1], got %v", r.ID, r.GoalScore)
	}
	return nil
}

// ValidatePool validates every recipe in a candidate pool and checks
// identifier uniqueness. Pool order is significant (it fixes variable
// creation order downstream), so validation never reorders.
func ValidatePool(pool []Recipe) error {
	if len(pool) == 0 {
		return fmt.Errorf("candidate pool is empty")
	}
	seen := make(map[string]struct{}, len(pool))
	for i, r := range pool {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("pool entry %d: %w", i, err)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("pool entry %d: duplicate recipe id %s", i, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}
