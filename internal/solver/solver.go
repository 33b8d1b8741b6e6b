// Package solver defines a small categorical constraint model and the
// interface a solving backend implements. LocalSearch is the built-in
// backend; CachedSolver replays earlier solutions of identical models.
package solver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Status is the outcome of a solve
type Status string

const (
	StatusOptimal    Status = "optimal"    // Objective reached the upper bound
	StatusFeasible   Status = "feasible"   // Valid assignment, not proven best
	StatusInfeasible Status = "infeasible" // Required variables cannot all be placed
	StatusUnknown    Status = "unknown"    // Stopped before any assignment was found
)

// ErrNoSolution is returned with StatusUnknown solutions
var ErrNoSolution = errors.New("no solution found")

// Params tune one solve
type Params struct {
	TimeLimit time.Duration `json:"time_limit"`
	Workers   int           `json:"workers"`
	Seed      int64         `json:"seed"`
	Patience  int           `json:"patience"` // Perturbations without improvement before a worker gives up

	Logger *zap.Logger `json:"-"`
}

func (p Params) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// Solution is a solver outcome. Values has one entry per model variable.
type Solution struct {
	Status    Status        `json:"status"`
	Values    []int         `json:"values"`
	Objective int64         `json:"objective"`
	Bound     int64         `json:"bound"`
	Elapsed   time.Duration `json:"elapsed"`
	TimedOut  bool          `json:"timed_out"`
	Worker    int           `json:"worker"` // Portfolio member that produced Values
	Cached    bool          `json:"cached,omitempty"`
}

// Solver is any backend able to solve a Model
type Solver interface {
	Solve(ctx context.Context, m *Model, params Params) (*Solution, error)
}

// unassignedSolution leaves every variable without a value
func unassignedSolution(m *Model, status Status) *Solution {
	values := make([]int, len(m.Vars))
	for i := range values {
		values[i] = Unassigned
	}
	return &Solution{
		Status: status,
		Values: values,
		Bound:  m.UpperBound(),
	}
}
