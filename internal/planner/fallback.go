package planner

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/MaxHalford/eaopt"

	"mealplan-optimizer/internal/recipe"
	"mealplan-optimizer/internal/shared"
)

// hardViolationPenalty dominates every soft objective term so the GA
// always prefers a bound-respecting plan when one is reachable.
const hardViolationPenalty = 100.0

// gaProblem is the shared, read-only search space description. Genomes
// reference it instead of copying it on every Clone.
type gaProblem struct {
	horizon            int
	slots              []recipe.MealType
	elig               [][]recipe.Recipe // indexed by slot position
	cs                 ConstraintSet
	weights            ObjectiveWeights
	consecutivePenalty float64
}

func (pr *gaProblem) geneCount() int { return pr.horizon * len(pr.slots) }

func (pr *gaProblem) recipeAt(gene, idx int) recipe.Recipe {
	return pr.elig[gene%len(pr.slots)][idx]
}

// planGenome encodes one full-horizon plan: one eligible-recipe index
// per (day, slot), flattened day-major.
type planGenome struct {
	problem *gaProblem
	genes   []int
}

func newPlanGenome(pr *gaProblem, rng *rand.Rand) *planGenome {
	genes := make([]int, pr.geneCount())
	for i := range genes {
		genes[i] = rng.Intn(len(pr.elig[i%len(pr.slots)]))
	}
	return &planGenome{problem: pr, genes: genes}
}

// Evaluate implements eaopt.Genome. Lower is better.
func (g *planGenome) Evaluate() (float64, error) {
	return hardViolationPenalty*g.violation() + g.softScore(), nil
}

// Mutate implements eaopt.Genome: resample one or two random slots
// from their eligible sets.
func (g *planGenome) Mutate(rng *rand.Rand) {
	for n := 1 + rng.Intn(2); n > 0; n-- {
		i := rng.Intn(len(g.genes))
		g.genes[i] = rng.Intn(len(g.problem.elig[i%len(g.problem.slots)]))
	}
}

// Crossover implements eaopt.Genome: uniform day-level recombination,
// swapping whole days between the two parents.
func (g *planGenome) Crossover(mate eaopt.Genome, rng *rand.Rand) {
	other, ok := mate.(*planGenome)
	if !ok {
		return
	}
	perDay := len(g.problem.slots)
	for day := 0; day < g.problem.horizon; day++ {
		if rng.Float64() >= 0.5 {
			continue
		}
		for si := 0; si < perDay; si++ {
			i := day*perDay + si
			g.genes[i], other.genes[i] = other.genes[i], g.genes[i]
		}
	}
}

// Clone implements eaopt.Genome.
func (g *planGenome) Clone() eaopt.Genome {
	genes := make([]int, len(g.genes))
	copy(genes, g.genes)
	return &planGenome{problem: g.problem, genes: genes}
}

// violation sums the relative magnitudes of hard-bound violations:
// daily nutrient bounds plus the weekly repeat cap. Zero means the
// plan would also be accepted by the exact path's constraints.
func (g *planGenome) violation() float64 {
	pr := g.problem
	var total float64
	for day := 0; day < pr.horizon; day++ {
		t := g.dayTotals(day)
		total += relViolation(t.Calories, pr.cs.CaloriesMin, pr.cs.CaloriesMax)
		total += relViolation(t.ProteinG, pr.cs.ProteinMin, pr.cs.ProteinMax)
		if pr.cs.CarbsBounded() {
			total += relViolation(t.CarbsG, pr.cs.CarbsMin, pr.cs.CarbsMax)
		}
		if pr.cs.FatBounded() {
			total += relViolation(t.FatG, pr.cs.FatMin, pr.cs.FatMax)
		}
		if pr.cs.FiberMinG > 0 {
			total += relViolation(t.FiberG, pr.cs.FiberMinG, 0)
		}
	}
	counts := g.recipeCounts()
	repeatCap := float64(pr.cs.MaxWeeklyRepeats)
	for _, n := range counts {
		if excess := float64(n) - repeatCap; excess > 0 {
			total += excess / repeatCap
		}
	}
	return total
}

// softScore combines the weighted objective terms: macro deviation
// from bound midpoints, variety, consecutive-day repeats, and the
// inventory/goal bonuses.
func (g *planGenome) softScore() float64 {
	pr := g.problem
	var macroDev float64
	for day := 0; day < pr.horizon; day++ {
		t := g.dayTotals(day)
		macroDev += midpointDeviation(t.Calories, pr.cs.CaloriesMin, pr.cs.CaloriesMax)
		macroDev += midpointDeviation(t.ProteinG, pr.cs.ProteinMin, pr.cs.ProteinMax)
	}
	macroDev /= float64(2 * pr.horizon)

	counts := g.recipeCounts()
	slotsTotal := float64(pr.geneCount())
	varietyPenalty := 1 - float64(len(counts))/slotsTotal

	consecutive := 0
	perDay := len(pr.slots)
	for day := 1; day < pr.horizon; day++ {
		for si := 0; si < perDay; si++ {
			prev := pr.elig[si][g.genes[(day-1)*perDay+si]].ID
			curr := pr.elig[si][g.genes[day*perDay+si]].ID
			if prev == curr {
				consecutive++
			}
		}
	}

	var invSum, goalSum float64
	for i, gene := range g.genes {
		r := pr.recipeAt(i, gene)
		invSum += r.InventoryScore
		goalSum += r.GoalScore
	}

	return pr.weights.MacroDeviation*macroDev +
		pr.weights.Variety*varietyPenalty +
		pr.consecutivePenalty*float64(consecutive) -
		pr.weights.InventoryUsage*invSum/slotsTotal -
		pr.weights.GoalAlignment*goalSum/slotsTotal
}

func (g *planGenome) dayTotals(day int) NutrientTotals {
	pr := g.problem
	var t NutrientTotals
	perDay := len(pr.slots)
	for si := 0; si < perDay; si++ {
		m := pr.elig[si][g.genes[day*perDay+si]].Macros
		t.Calories += m.Calories
		t.ProteinG += m.ProteinG
		t.CarbsG += m.CarbsG
		t.FatG += m.FatG
		t.FiberG += m.FiberG
		t.SodiumMg += m.SodiumMg
	}
	return t
}

func (g *planGenome) recipeCounts() map[string]int {
	counts := make(map[string]int)
	for i, gene := range g.genes {
		counts[g.problem.recipeAt(i, gene).ID]++
	}
	return counts
}

func (g *planGenome) assignment() Assignment {
	pr := g.problem
	asg := make(Assignment, pr.horizon)
	perDay := len(pr.slots)
	for day := 0; day < pr.horizon; day++ {
		meals := make(map[recipe.MealType]string, perDay)
		for si, slot := range pr.slots {
			meals[slot] = pr.elig[si][g.genes[day*perDay+si]].ID
		}
		asg[day] = meals
	}
	return asg
}

// relViolation is the relative magnitude by which v falls outside
// [min, max]; max == 0 means unbounded above.
func relViolation(v, min, max float64) float64 {
	if min > 0 && v < min {
		return (min - v) / min
	}
	if max > 0 && v > max {
		return (v - max) / max
	}
	return 0
}

// midpointDeviation measures distance from the center of [min, max],
// normalized by the half-range.
func midpointDeviation(v, min, max float64) float64 {
	if max <= min {
		return 0
	}
	mid := (min + max) / 2
	half := (max - min) / 2
	d := v - mid
	if d < 0 {
		d = -d
	}
	return d / half
}

// runFallback runs the genetic search. It accepts the same constraint
// and objective inputs as the exact path and produces the same
// assignment shape, so the caller can switch paths transparently.
// Soft-bound violations in the winner are tolerated here and surfaced
// as warnings during assembly, never hidden.
func (p *Planner) runFallback(
	ctx context.Context,
	req Request,
	eligBySlot [][]recipe.Recipe,
) (Assignment, shared.SolveMeta, error) {
	start := time.Now()
	problem := &gaProblem{
		horizon:            req.HorizonDays,
		slots:              req.Constraints.SlotTypes(),
		elig:               eligBySlot,
		cs:                 req.Constraints,
		weights:            req.Weights,
		consecutivePenalty: p.opts.ConsecutivePenalty,
	}

	seed := p.opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	generations := 0
	plateau := 0
	lastBest := 0.0

	cfg := eaopt.NewDefaultGAConfig()
	cfg.NPops = 1
	cfg.PopSize = uint(p.opts.PopulationSize)
	cfg.NGenerations = uint(p.opts.Generations)
	cfg.HofSize = 1
	cfg.Model = eaopt.ModGenerational{
		Selector:  eaopt.SelTournament{NContestants: 3},
		MutRate:   p.opts.MutationRate,
		CrossRate: p.opts.CrossoverRate,
	}
	cfg.RNG = rand.New(rand.NewSource(seed))
	cfg.Callback = func(ga *eaopt.GA) {
		generations++
		best := ga.HallOfFame[0].Fitness
		if generations == 1 || best < lastBest {
			lastBest = best
			plateau = 0
			return
		}
		plateau++
	}
	cfg.EarlyStop = func(ga *eaopt.GA) bool {
		if ctx.Err() != nil {
			return true
		}
		return plateau >= p.opts.PlateauWindow
	}

	ga, err := cfg.NewGA()
	if err != nil {
		return nil, shared.SolveMeta{}, fmt.Errorf("configuring genetic search: %w", err)
	}
	if err := ga.Minimize(func(rng *rand.Rand) eaopt.Genome {
		return newPlanGenome(problem, rng)
	}); err != nil {
		return nil, shared.SolveMeta{}, fmt.Errorf("genetic search: %w", err)
	}

	best, ok := ga.HallOfFame[0].Genome.(*planGenome)
	if !ok {
		return nil, shared.SolveMeta{}, fmt.Errorf("genetic search returned unexpected genome type %T", ga.HallOfFame[0].Genome)
	}

	meta := shared.SolveMeta{
		Stage:       string(StrategyGenetic),
		Latency:     time.Since(start),
		Generations: generations,
		Objective:   ga.HallOfFame[0].Fitness,
	}

	if v := best.violation(); v > p.opts.MaxSoftViolation {
		meta.Status = "exhausted"
		return nil, meta, fmt.Errorf("best plan violates bounds by %.2f (ceiling %.2f): %w",
			v, p.opts.MaxSoftViolation, ErrFallbackExhausted)
	}

	meta.Status = "accepted"
	return best.assignment(), meta, nil
}
