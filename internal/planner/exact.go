package planner

import (
	"context"
	"fmt"
	"time"

	"mealplan-optimizer/internal/milp"
	"mealplan-optimizer/internal/recipe"
	"mealplan-optimizer/internal/shared"
)

// varKey addresses the decision variable "recipe fills this day/slot".
// A structured key instead of a composed name string: no parsing, no
// collisions.
type varKey struct {
	RecipeID string
	Day      int
	Slot     recipe.MealType
}

type exactResult struct {
	Assignment Assignment
	Status     milp.Status
	Meta       shared.SolveMeta
}

// runExact builds the MILP formulation and solves it under the
// configured wall-clock limit.
//
// Variables exist only for eligible (recipe, day, slot) triples, so an
// ineligible recipe can structurally never be chosen. eligBySlot is
// indexed by slot position and must be non-empty per slot; the caller
// has already raised StructuralInfeasibilityError otherwise.
func (p *Planner) runExact(
	ctx context.Context,
	req Request,
	eligBySlot [][]recipe.Recipe,
) (exactResult, error) {
	start := time.Now()
	slots := req.Constraints.SlotTypes()
	b := milp.NewBuilder()

	// Decision variables, created in day -> slot -> pool order for
	// determinism.
	vars := make(map[varKey]milp.VarID)
	for day := 0; day < req.HorizonDays; day++ {
		for si, slot := range slots {
			for _, r := range eligBySlot[si] {
				vars[varKey{r.ID, day, slot}] = b.AddBinary()
			}
		}
	}

	// Exactly one recipe per slot.
	for day := 0; day < req.HorizonDays; day++ {
		for si, slot := range slots {
			terms := make([]milp.Term, 0, len(eligBySlot[si]))
			for _, r := range eligBySlot[si] {
				terms = append(terms, milp.Term{Var: vars[varKey{r.ID, day, slot}], Coef: 1})
			}
			if err := b.AddConstraint(milp.Constraint{Terms: terms, Sense: milp.Equal, RHS: 1}); err != nil {
				return exactResult{}, fmt.Errorf("slot constraint day %d slot %s: %w", day, slot, err)
			}
		}
	}

	// Daily nutrient bounds, linear in the decision variables with the
	// per-serving value as coefficient.
	for day := 0; day < req.HorizonDays; day++ {
		dayTerms := func(value func(recipe.Macros) float64) []milp.Term {
			var terms []milp.Term
			for si, slot := range slots {
				for _, r := range eligBySlot[si] {
					if v := value(r.Macros); v != 0 {
						terms = append(terms, milp.Term{Var: vars[varKey{r.ID, day, slot}], Coef: v})
					}
				}
			}
			return terms
		}
		bounds := []struct {
			value    func(recipe.Macros) float64
			min, max float64
			enabled  bool
		}{
			{func(m recipe.Macros) float64 { return m.Calories }, req.Constraints.CaloriesMin, req.Constraints.CaloriesMax, true},
			{func(m recipe.Macros) float64 { return m.ProteinG }, req.Constraints.ProteinMin, req.Constraints.ProteinMax, true},
			{func(m recipe.Macros) float64 { return m.CarbsG }, req.Constraints.CarbsMin, req.Constraints.CarbsMax, req.Constraints.CarbsBounded()},
			{func(m recipe.Macros) float64 { return m.FatG }, req.Constraints.FatMin, req.Constraints.FatMax, req.Constraints.FatBounded()},
			{func(m recipe.Macros) float64 { return m.FiberG }, req.Constraints.FiberMinG, 0, req.Constraints.FiberMinG > 0},
		}
		for _, bd := range bounds {
			if !bd.enabled {
				continue
			}
			terms := dayTerms(bd.value)
			if len(terms) == 0 {
				continue
			}
			if bd.min > 0 {
				if err := b.AddConstraint(milp.Constraint{Terms: terms, Sense: milp.GreaterEq, RHS: bd.min}); err != nil {
					return exactResult{}, err
				}
			}
			if bd.max > 0 {
				if err := b.AddConstraint(milp.Constraint{Terms: terms, Sense: milp.LessEq, RHS: bd.max}); err != nil {
					return exactResult{}, err
				}
			}
		}
	}

	// Weekly repeat cap per recipe. Recipes are visited in pool order
	// so constraint rows land in the same order on every call.
	recipeTerms := make(map[string][]milp.Term)
	var recipeOrder []string
	for day := 0; day < req.HorizonDays; day++ {
		for si, slot := range slots {
			for _, r := range eligBySlot[si] {
				if _, seen := recipeTerms[r.ID]; !seen {
					recipeOrder = append(recipeOrder, r.ID)
				}
				recipeTerms[r.ID] = append(recipeTerms[r.ID], milp.Term{Var: vars[varKey{r.ID, day, slot}], Coef: 1})
			}
		}
	}
	for _, rid := range recipeOrder {
		if err := b.AddConstraint(milp.Constraint{
			Terms: recipeTerms[rid],
			Sense: milp.LessEq,
			RHS:   float64(req.Constraints.MaxWeeklyRepeats),
		}); err != nil {
			return exactResult{}, fmt.Errorf("repeat cap for %s: %w", rid, err)
		}
	}

	// Consecutive-day repeat penalty: one auxiliary AND variable per
	// (recipe, slot, day >= 1), forced to prev AND curr by the
	// BooleanAnd linearization, then charged in the objective.
	for day := 1; day < req.HorizonDays; day++ {
		for si, slot := range slots {
			for _, r := range eligBySlot[si] {
				rep := b.AddBinary()
				prev := vars[varKey{r.ID, day - 1, slot}]
				curr := vars[varKey{r.ID, day, slot}]
				if err := b.AddConstraints(milp.BooleanAnd(prev, curr, rep)); err != nil {
					return exactResult{}, err
				}
				b.AddObjectiveTerm(rep, p.opts.ConsecutivePenalty)
			}
		}
	}

	// Linear objective hooks: reward on-hand inventory and goal
	// alignment. Macro deviation stays a fallback-only term until a
	// piecewise-linear deviation formulation is added here.
	for day := 0; day < req.HorizonDays; day++ {
		for si, slot := range slots {
			for _, r := range eligBySlot[si] {
				bonus := req.Weights.InventoryUsage*r.InventoryScore + req.Weights.GoalAlignment*r.GoalScore
				if bonus != 0 {
					b.AddObjectiveTerm(vars[varKey{r.ID, day, slot}], -bonus)
				}
			}
		}
	}

	model, err := b.Build()
	if err != nil {
		return exactResult{}, fmt.Errorf("building exact model: %w", err)
	}

	sol, err := milp.Solve(ctx, model, milp.Options{TimeLimit: p.opts.SolveTimeLimit})
	if err != nil {
		return exactResult{}, fmt.Errorf("exact solve: %w", err)
	}

	res := exactResult{
		Status: sol.Status,
		Meta: shared.SolveMeta{
			Stage:     string(StrategyExact),
			Status:    sol.Status.String(),
			Latency:   time.Since(start),
			Nodes:     sol.Nodes,
			Objective: sol.Objective,
		},
	}
	if !sol.Status.Succeeded() {
		return res, nil
	}

	asg := make(Assignment, req.HorizonDays)
	for day := 0; day < req.HorizonDays; day++ {
		asg[day] = make(map[recipe.MealType]string, len(slots))
	}
	for k, id := range vars {
		if sol.Values[id] > 0.5 {
			asg[k.Day][k.Slot] = k.RecipeID
		}
	}
	res.Assignment = asg
	return res, nil
}
