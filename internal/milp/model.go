// Package milp provides a small mixed-integer linear programming
// layer: an immutable model built through a builder, and a
// branch-and-bound solver whose LP relaxations are handed to gonum's
// simplex implementation.
//
// All variables are non-negative with a finite upper bound; binary
// variables are the common case. Constraints and the objective are
// accumulated in a Builder and frozen by Build, so a half-constructed
// model can never reach the solver.
package milp

import (
	"fmt"
	"math"
)

// VarID indexes a variable within a model. IDs are assigned densely in
// creation order, which makes variable ordering deterministic.
type VarID int

// Sense is the comparison direction of a linear constraint.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

// Term is a single coefficient in a linear expression.
type Term struct {
	Var  VarID
	Coef float64
}

// Constraint is a linear constraint: sum(Terms) Sense RHS.
type Constraint struct {
	Terms []Term
	Sense Sense
	RHS   float64
}

// Variable describes one decision variable. Lower is always 0.
type Variable struct {
	Upper   float64
	Integer bool
}

// Model is an immutable optimization model: minimize the objective
// subject to the constraints, with every variable in [0, Upper].
type Model struct {
	vars []Variable
	cons []Constraint
	obj  []Term
}

// NumVars returns the number of variables in the model.
func (m *Model) NumVars() int { return len(m.vars) }

// NumConstraints returns the number of constraints in the model.
func (m *Model) NumConstraints() int { return len(m.cons) }

// Builder accumulates variables, constraints, and objective terms.
// The zero value is not usable; call NewBuilder.
type Builder struct {
	vars  []Variable
	cons  []Constraint
	obj   map[VarID]float64
	built bool
}

// NewBuilder returns an empty model builder.
func NewBuilder() *Builder {
	return &Builder{obj: make(map[VarID]float64)}
}

// AddBinary adds a binary (0/1 integer) variable and returns its ID.
func (b *Builder) AddBinary() VarID {
	b.vars = append(b.vars, Variable{Upper: 1, Integer: true})
	return VarID(len(b.vars) - 1)
}

// AddContinuous adds a continuous variable in [0, upper].
func (b *Builder) AddContinuous(upper float64) VarID {
	b.vars = append(b.vars, Variable{Upper: upper})
	return VarID(len(b.vars) - 1)
}

// AddConstraint appends a constraint. Constraints with no terms are
// rejected because they would produce an empty simplex row.
func (b *Builder) AddConstraint(c Constraint) error {
	if len(c.Terms) == 0 {
		return fmt.Errorf("constraint has no terms")
	}
	for _, t := range c.Terms {
		if int(t.Var) < 0 || int(t.Var) >= len(b.vars) {
			return fmt.Errorf("constraint references unknown variable %d", t.Var)
		}
	}
	b.cons = append(b.cons, c)
	return nil
}

// AddConstraints appends several constraints, stopping at the first
// invalid one.
func (b *Builder) AddConstraints(cs []Constraint) error {
	for _, c := range cs {
		if err := b.AddConstraint(c); err != nil {
			return err
		}
	}
	return nil
}

// AddObjectiveTerm adds coef*v to the minimized objective. Repeated
// calls for the same variable accumulate.
func (b *Builder) AddObjectiveTerm(v VarID, coef float64) {
	b.obj[v] += coef
}

// Build freezes the accumulated model. The builder must not be reused
// afterwards.
func (b *Builder) Build() (*Model, error) {
	if b.built {
		return nil, fmt.Errorf("builder already consumed")
	}
	if len(b.vars) == 0 {
		return nil, fmt.Errorf("model has no variables")
	}
	for i, v := range b.vars {
		if v.Upper <= 0 || math.IsInf(v.Upper, 1) || math.IsNaN(v.Upper) {
			return nil, fmt.Errorf("variable %d has invalid upper bound %v", i, v.Upper)
		}
	}
	b.built = true
	obj := make([]Term, 0, len(b.obj))
	for v := VarID(0); int(v) < len(b.vars); v++ {
		if c, ok := b.obj[v]; ok && c != 0 {
			obj = append(obj, Term{Var: v, Coef: c})
		}
	}
	return &Model{vars: b.vars, cons: b.cons, obj: obj}, nil
}

// BooleanAnd returns the three linear constraints forcing and = a AND b
// for binary a, b, and:
//
//	and >= a + b - 1
//	and <= a
//	and <= b
//
// The relationship holds exactly for any feasible binary assignment,
// independent of the objective.
func BooleanAnd(a, b, and VarID) []Constraint {
	return []Constraint{
		{
			Terms: []Term{{Var: and, Coef: 1}, {Var: a, Coef: -1}, {Var: b, Coef: -1}},
			Sense: GreaterEq,
			RHS:   -1,
		},
		{
			Terms: []Term{{Var: and, Coef: 1}, {Var: a, Coef: -1}},
			Sense: LessEq,
			RHS:   0,
		},
		{
			Terms: []Term{{Var: and, Coef: 1}, {Var: b, Coef: -1}},
			Sense: LessEq,
			RHS:   0,
		},
	}
}
