package planner

import (
	"errors"
	"fmt"

	"mealplan-optimizer/internal/recipe"
)

// Errors surfaced by the planner. Solver-level infeasibility and
// timeouts are not here: they are recovered internally by falling back
// to the genetic path and only show up in SolveMeta.

var (
	// ErrFallbackExhausted is returned when the genetic fallback also
	// fails to produce an acceptable plan within its generation budget.
	ErrFallbackExhausted = errors.New("fallback optimizer exhausted its budget without an acceptable plan")
)

// ConfigurationError reports malformed constraints, weights, or
// request parameters. It is detected before any solve attempt and is
// never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// StructuralInfeasibilityError reports a slot with zero eligible
// recipes, detected during model construction. No plan can fill it, so
// the whole call fails rather than returning a silently empty slot.
type StructuralInfeasibilityError struct {
	Day  int
	Slot recipe.MealType
}

func (e *StructuralInfeasibilityError) Error() string {
	return fmt.Sprintf("no eligible recipe for day %d slot %s", e.Day, e.Slot)
}
