package milp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Status is the outcome of a solve.
type Status int

const (
	// StatusOptimal means the search tree was exhausted and the
	// incumbent is proved optimal.
	StatusOptimal Status = iota
	// StatusFeasible means the time budget ran out but an integer
	// incumbent was found.
	StatusFeasible
	// StatusInfeasible means no integer assignment satisfies the
	// constraints.
	StatusInfeasible
	// StatusTimeout means the time budget ran out with no incumbent.
	StatusTimeout
	// StatusUnbounded means the relaxation is unbounded below.
	StatusUnbounded
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusInfeasible:
		return "infeasible"
	case StatusTimeout:
		return "timeout"
	case StatusUnbounded:
		return "unbounded"
	}
	return "unknown"
}

// Succeeded reports whether the status carries a usable assignment.
func (s Status) Succeeded() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Solution is the result of Solve. Values is indexed by VarID and is
// only meaningful when Status.Succeeded().
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Nodes     int
}

// Options controls the branch-and-bound search.
type Options struct {
	// TimeLimit bounds the wall-clock solve time. It must be positive:
	// integer programs can run indefinitely on adversarial inputs, so
	// an unbounded solve is never allowed.
	TimeLimit time.Duration
	// IntTol is the integrality tolerance; 0 means 1e-6.
	IntTol float64
}

const objectiveCutoffTol = 1e-9

type node struct {
	fixed map[VarID]float64
}

// Solve runs branch-and-bound on the model, solving LP relaxations
// with gonum's simplex. Binary branching fixes the most fractional
// integer variable, exploring the 1-branch first so that incumbents
// appear early in assignment-style problems.
func Solve(ctx context.Context, m *Model, opts Options) (Solution, error) {
	if opts.TimeLimit <= 0 {
		return Solution{}, fmt.Errorf("milp: time limit must be positive")
	}
	intTol := opts.IntTol
	if intTol == 0 {
		intTol = 1e-6
	}
	deadline := time.Now().Add(opts.TimeLimit)

	var (
		bestObj  = math.Inf(1)
		bestVals []float64
		nodes    int
		timedOut bool
	)

	stack := []node{{fixed: map[VarID]float64{}}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			timedOut = true
			break
		}
		if time.Now().After(deadline) {
			timedOut = true
			break
		}

		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		obj, vals, err := solveRelaxation(m, nd.fixed)
		switch {
		case errors.Is(err, lp.ErrInfeasible):
			continue
		case errors.Is(err, lp.ErrUnbounded):
			if nodes == 1 {
				return Solution{Status: StatusUnbounded, Nodes: nodes}, nil
			}
			continue
		case err != nil:
			return Solution{}, fmt.Errorf("milp: relaxation at node %d: %w", nodes, err)
		}

		if obj >= bestObj-objectiveCutoffTol {
			continue
		}

		branch, ok := mostFractional(m, vals, intTol)
		if !ok {
			// Integral: new incumbent.
			bestObj = obj
			bestVals = roundIntegers(m, vals)
			continue
		}

		zero := copyFixed(nd.fixed)
		zero[branch] = 0
		one := copyFixed(nd.fixed)
		one[branch] = 1
		stack = append(stack, node{fixed: zero}, node{fixed: one})
	}

	switch {
	case timedOut && bestVals != nil:
		return Solution{Status: StatusFeasible, Objective: bestObj, Values: bestVals, Nodes: nodes}, nil
	case timedOut:
		return Solution{Status: StatusTimeout, Nodes: nodes}, nil
	case bestVals != nil:
		return Solution{Status: StatusOptimal, Objective: bestObj, Values: bestVals, Nodes: nodes}, nil
	default:
		return Solution{Status: StatusInfeasible, Nodes: nodes}, nil
	}
}

// solveRelaxation solves the LP relaxation of m with the given
// variables fixed, in simplex standard form (minimize c'x subject to
// Ax = b, x >= 0). Inequalities gain a slack column; upper bounds
// become rows of their own; fixed variables become equality rows and
// drop their bound row.
func solveRelaxation(m *Model, fixed map[VarID]float64) (float64, []float64, error) {
	type row struct {
		terms []Term
		rhs   float64
		slack float64 // +1 for <=, -1 for >=, 0 for equality
	}

	rows := make([]row, 0, len(m.cons)+len(m.vars))
	for _, c := range m.cons {
		r := row{terms: c.Terms, rhs: c.RHS}
		switch c.Sense {
		case LessEq:
			r.slack = 1
		case GreaterEq:
			r.slack = -1
		}
		rows = append(rows, r)
	}
	for i, v := range m.vars {
		id := VarID(i)
		if val, ok := fixed[id]; ok {
			rows = append(rows, row{terms: []Term{{Var: id, Coef: 1}}, rhs: val})
			continue
		}
		rows = append(rows, row{terms: []Term{{Var: id, Coef: 1}}, rhs: v.Upper, slack: 1})
	}

	nOrig := len(m.vars)
	nSlack := 0
	for _, r := range rows {
		if r.slack != 0 {
			nSlack++
		}
	}
	cols := nOrig + nSlack

	a := mat.NewDense(len(rows), cols, nil)
	b := make([]float64, len(rows))
	slackCol := nOrig
	for i, r := range rows {
		for _, t := range r.terms {
			a.Set(i, int(t.Var), a.At(i, int(t.Var))+t.Coef)
		}
		if r.slack != 0 {
			a.Set(i, slackCol, r.slack)
			slackCol++
		}
		b[i] = r.rhs
	}

	c := make([]float64, cols)
	for _, t := range m.obj {
		c[t.Var] += t.Coef
	}

	obj, x, err := lp.Simplex(c, a, b, 0, nil)
	if err != nil {
		return 0, nil, err
	}
	return obj, x[:nOrig], nil
}

// mostFractional picks the integer variable whose value is farthest
// from integral. Returns false when every integer variable is within
// tol of an integer.
func mostFractional(m *Model, vals []float64, tol float64) (VarID, bool) {
	best := VarID(-1)
	bestDist := tol
	for i, v := range m.vars {
		if !v.Integer {
			continue
		}
		f := vals[i] - math.Floor(vals[i])
		dist := math.Min(f, 1-f)
		if dist > bestDist {
			best = VarID(i)
			bestDist = dist
		}
	}
	return best, best >= 0
}

func roundIntegers(m *Model, vals []float64) []float64 {
	out := make([]float64, len(vals))
	copy(out, vals)
	for i, v := range m.vars {
		if v.Integer {
			out[i] = math.Round(out[i])
		}
	}
	return out
}

func copyFixed(fixed map[VarID]float64) map[VarID]float64 {
	out := make(map[VarID]float64, len(fixed)+1)
	for k, v := range fixed {
		out[k] = v
	}
	return out
}
