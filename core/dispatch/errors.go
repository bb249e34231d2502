package dispatch

import (
	"errors"

	"github.com/kilianp07/mgdispatch/core/model"
)

// ErrInvalidParameters mirrors model.ErrInvalidParameters for callers that
// only import this package.
var ErrInvalidParameters = model.ErrInvalidParameters

// ErrInfeasible indicates no assignment satisfies every constraint.
var ErrInfeasible = errors.New("dispatch problem is infeasible")

// ErrNoSolution is returned when results are requested from an outcome that
// is not optimal.
var ErrNoSolution = errors.New("no solution")

// SolverError reports a solver failure unrelated to feasibility: numerical
// trouble, an unbounded objective, a time limit or an aborted context.
type SolverError struct {
	Message string
}

func (e *SolverError) Error() string { return "solver error: " + e.Message }
