package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/mgdispatch/core/model"
)

// Outcome is the tagged result of a solve: optimal with an assignment,
// infeasible, or a solver error with a message.
type Outcome struct {
	Status    model.Status
	Objective float64
	X         []float64
	Message   string
}

// Optimal returns an optimal outcome.
func Optimal(objective float64, x []float64) Outcome {
	return Outcome{Status: model.StatusOptimal, Objective: objective, X: x}
}

// Infeasible returns an infeasible outcome.
func Infeasible(msg string) Outcome {
	return Outcome{Status: model.StatusInfeasible, Message: msg}
}

// SolverFailure returns a solver error outcome.
func SolverFailure(msg string) Outcome {
	return Outcome{Status: model.StatusSolverError, Message: msg}
}

// Solver solves an assembled model. Implementations must return an
// assignment satisfying every row within their numerical tolerance, or a
// non-optimal outcome.
type Solver interface {
	Solve(ctx context.Context, m *Model) Outcome
}

// NewSolver returns the solver selected by cfg.Method.
func NewSolver(cfg Config) Solver {
	if cfg.Method == MethodGonum {
		return NewSimplexSolver(cfg)
	}
	return NewBoundedSimplex(cfg)
}

// lpSimplex points to the function used to solve the standard form LP. It
// can be overridden in tests to simulate solver failures.
var lpSimplex = lp.Simplex

// SimplexSolver solves models with the gonum simplex implementation. Finite
// variable bounds become rows, so it suits short horizons only.
type SimplexSolver struct {
	Tolerance            float64
	FeasibilityTolerance float64
	TimeLimit            time.Duration
}

// NewSimplexSolver returns a solver configured from cfg.
func NewSimplexSolver(cfg Config) *SimplexSolver {
	cfg.SetDefaults()
	return &SimplexSolver{
		Tolerance:            cfg.Tolerance,
		FeasibilityTolerance: cfg.FeasibilityTolerance,
		TimeLimit:            cfg.TimeLimit(),
	}
}

type simplexResult struct {
	x   []float64
	err error
}

// Solve runs the simplex method on m. The call returns early with a solver
// error when ctx is done or the time limit elapses; the abandoned
// computation finishes in the background and its answer is discarded.
func (s *SimplexSolver) Solve(ctx context.Context, m *Model) Outcome {
	c, a, b := standardForm(m)
	basis := crashBasis(m, a, b)
	simplex := lpSimplex

	done := make(chan simplexResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- simplexResult{err: fmt.Errorf("simplex panic: %v", r)}
			}
		}()
		_, x, err := simplex(c, a, b, s.Tolerance, basis)
		done <- simplexResult{x: x, err: err}
	}()

	var timeout <-chan time.Time
	if s.TimeLimit > 0 {
		timer := time.NewTimer(s.TimeLimit)
		defer timer.Stop()
		timeout = timer.C
	}

	var res simplexResult
	select {
	case res = <-done:
	case <-timeout:
		return SolverFailure(fmt.Sprintf("time limit %s exceeded", s.TimeLimit))
	case <-ctx.Done():
		return SolverFailure(fmt.Sprintf("solve aborted: %v", ctx.Err()))
	}

	switch {
	case errors.Is(res.err, lp.ErrInfeasible):
		return Infeasible(res.err.Error())
	case errors.Is(res.err, lp.ErrUnbounded):
		return SolverFailure("objective is unbounded")
	case res.err != nil:
		return SolverFailure(res.err.Error())
	}
	if len(res.x) < m.NumVars() {
		return SolverFailure(fmt.Sprintf("solver returned %d values for %d variables", len(res.x), m.NumVars()))
	}

	return finish(m, res.x[:m.NumVars()], s.FeasibilityTolerance)
}

// finish clamps round-off at the variable bounds and rejects assignments
// violating any row by more than tol.
func finish(m *Model, sol []float64, tol float64) Outcome {
	x := make([]float64, m.NumVars())
	copy(x, sol)
	for j, v := range x {
		switch {
		case v < 0 && v >= -tol:
			x[j] = 0
		case v > m.Upper[j] && v <= m.Upper[j]+tol:
			x[j] = m.Upper[j]
		}
	}
	if worst := m.MaxViolation(x); worst.Amount > tol {
		return SolverFailure(fmt.Sprintf("assignment violates %s by %g", worst.Name, worst.Amount))
	}
	return Optimal(m.Evaluate(x), x)
}

// standardForm rewrites m as min cᵀz s.t. A z = b, z >= 0. Finite bounds
// are appended to the inequalities, then one slack column per inequality
// row. Rows with a negative right hand side are negated.
func standardForm(m *Model) (c []float64, a *mat.Dense, b []float64) {
	n := m.NumVars()
	ineq := append(append([]Row(nil), m.Inequalities...), m.BoundRows()...)
	nIneq := len(ineq)
	rows := nIneq + len(m.Equalities)
	cols := n + nIneq

	c = make([]float64, cols)
	copy(c, m.Objective)
	a = mat.NewDense(rows, cols, nil)
	b = make([]float64, rows)

	fill := func(i int, r Row) {
		for _, tm := range r.Terms {
			a.Set(i, tm.Col, a.At(i, tm.Col)+tm.Coef)
		}
		b[i] = r.RHS
	}
	for i, r := range ineq {
		fill(i, r)
		a.Set(i, n+i, 1)
	}
	for j, r := range m.Equalities {
		fill(nIneq+j, r)
	}
	for i := range b {
		if b[i] < 0 {
			b[i] = -b[i]
			floats.Scale(-1, a.RawRowView(i))
		}
	}
	return c, a, b
}

// crashBasis returns a feasible starting basis for the standard form: every
// slack, the state of charge of each hour held by the recurrence, and one
// source covering each power balance. It returns nil when that guess is not
// feasible, leaving gonum to search for a basis itself.
func crashBasis(m *Model, a *mat.Dense, b []float64) []int {
	rows, _ := a.Dims()
	n := m.NumVars()
	nIneq := rows - len(m.Equalities)
	basis := make([]int, 0, rows)
	for i := 0; i < nIneq; i++ {
		basis = append(basis, n+i)
	}
	for t := 0; t < m.T; t++ {
		basis = append(basis, m.Index(VarSoC, t))
		net := 0.0
		if r, ok := powerBalance(m, t); ok {
			net = r.RHS
		}
		col := -1
		if net >= 0 {
			for _, k := range []VarKind{VarGridBuy, VarDG1, VarDG2} {
				if m.Upper[m.Index(k, t)] >= net {
					col = m.Index(k, t)
					break
				}
			}
		} else if m.Upper[m.Index(VarGridSell, t)] >= -net {
			col = m.Index(VarGridSell, t)
		}
		if col < 0 {
			return nil
		}
		basis = append(basis, col)
	}
	if len(basis) != rows {
		return nil
	}

	ab := mat.NewDense(rows, rows, nil)
	for k, j := range basis {
		for i := 0; i < rows; i++ {
			ab.Set(i, k, a.At(i, j))
		}
	}
	var xb mat.VecDense
	if err := xb.SolveVec(ab, mat.NewVecDense(rows, b)); err != nil {
		return nil
	}
	for i := 0; i < rows; i++ {
		// lp.Simplex rejects an initial basis below -1e-13.
		if xb.AtVec(i) < -1e-13 {
			return nil
		}
	}
	return basis
}

func powerBalance(m *Model, t int) (Row, bool) {
	name := fmt.Sprintf("power_balance[%d]", t)
	for _, r := range m.Equalities {
		if r.Name == name {
			return r, true
		}
	}
	return Row{}, false
}
