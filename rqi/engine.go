// Package rqi refines a single eigenpair of a linear operator by
// Rayleigh quotient iteration: repeated shift-and-invert steps with the
// shift updated to the Rayleigh quotient of the current eigenvector
// estimate. Convergence is local and cubic for self-adjoint operators
// (quadratic otherwise); the TwoSided engine recovers cubic convergence
// for non-self-adjoint operators.
package rqi

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/gonum/matrix/mat64"
	"github.com/op/go-logging"

	"bitbucket.org/Davydov/rayleigh/operator"
)

// log is the global logging variable.
var log = logging.MustGetLogger("rqi")

const (
	// DefaultTol is the default convergence tolerance.
	DefaultTol = 1e-10
	// DefaultMaxIter is the default iteration limit.
	DefaultMaxIter = 50
)

// Engine is the one-sided Rayleigh quotient iteration.
type Engine struct {
	a operator.Operator
	// Tol is the convergence tolerance on the residual.
	Tol float64
	// MaxIter is the iteration limit.
	MaxIter int
	// Quiet disables the iteration table on standard output.
	Quiet bool
	// OnIteration, if set, is called after every completed iteration;
	// drivers use it for checkpointing.
	OnIteration func(iter int, lambda, residual float64)

	repPeriod int
	sig       chan os.Signal
	i         int
}

// New creates a one-sided engine for the operator a.
func New(a operator.Operator) *Engine {
	return &Engine{
		a:         a,
		Tol:       DefaultTol,
		MaxIter:   DefaultMaxIter,
		repPeriod: 1,
	}
}

// SetReportPeriod sets the number of iterations between printed lines.
func (e *Engine) SetReportPeriod(period int) {
	e.repPeriod = period
}

// WatchSignals causes the iteration to stop on a signal. The signal is
// only polled between iterations; an in-flight solve is never
// interrupted.
func (e *Engine) WatchSignals(sigs ...os.Signal) {
	e.sig = make(chan os.Signal, 1)
	signal.Notify(e.sig, sigs...)
}

// Run iterates from the initial eigenvalue guess lambda0 and the
// initial vector guess u0 (normalized internally, must be nonzero).
// On success the returned eigenvector has unit norm and the eigenvalue
// is its Rayleigh quotient. On failure the result carries the last
// valid eigenpair and the partial residual history together with the
// error.
func (e *Engine) Run(lambda0 float64, u0 *mat64.Vector) (*Result, error) {
	u, err := prepareVector(e.a.Dim(), u0)
	if err != nil {
		return nil, err
	}
	lambda := lambda0
	mon := NewMonitor(e.Tol)
	mon.Append(e.residual(lambda, u))
	e.PrintHeader()
	if mon.Converged() {
		return result(lambda, u, nil, mon), nil
	}
	for e.i = 1; e.i <= e.MaxIter; e.i++ {
		u2, err := invertStep(e.a.ShiftedBy(lambda), u)
		if err != nil {
			return result(lambda, u, nil, mon),
				fmt.Errorf("iteration %d: %w", e.i, err)
		}
		u = u2
		lambda = e.rayleigh(u)
		r := e.residual(lambda, u)
		mon.Append(r)
		log.Debugf("%d: lambda=%g, residual=%g", e.i, lambda, r)
		e.PrintLine(lambda, r)
		if e.OnIteration != nil {
			e.OnIteration(e.i, lambda, r)
		}
		if mon.Converged() {
			log.Infof("Converged after %d iterations, lambda=%g", e.i, lambda)
			return result(lambda, u, nil, mon), nil
		}
		if e.interrupted() {
			break
		}
	}
	return result(lambda, u, nil, mon),
		fmt.Errorf("%w: residual %g after %d iterations",
			ErrConvergenceFailure, mon.Last(), mon.Len()-1)
}

// PrintHeader prints the iteration table header.
func (e *Engine) PrintHeader() {
	if !e.Quiet {
		fmt.Printf("iteration\teigenvalue\tresidual\n")
	}
}

// PrintLine prints a single line of the iteration table.
func (e *Engine) PrintLine(lambda, r float64) {
	if !e.Quiet && e.repPeriod > 0 && e.i%e.repPeriod == 0 {
		fmt.Printf("%d\t%g\t%g\n", e.i, lambda, r)
	}
}

// rayleigh returns the Rayleigh quotient uᵀ·A·u for unit-norm u.
func (e *Engine) rayleigh(u *mat64.Vector) float64 {
	var w mat64.Vector
	e.a.Apply(&w, u)
	return operator.Dot(u, &w)
}

// residual returns ‖A·u − λ·u‖₂/‖A·u‖₂ plus the operator's boundary
// condition residual (zero for matrices). The two terms are combined by
// plain addition; the boundary term is not normalized.
func (e *Engine) residual(lambda float64, u *mat64.Vector) float64 {
	var w, diff mat64.Vector
	e.a.Apply(&w, u)
	diff.AddScaledVec(&w, -lambda, u)
	r := operator.Norm2(&diff)
	if nw := operator.Norm2(&w); nw > 0 {
		r /= nw
	}
	return r + e.a.BoundaryResidual(u)
}

// interrupted polls the signal channel between iterations.
func (e *Engine) interrupted() bool {
	select {
	case s := <-e.sig:
		log.Warningf("Received signal %v, exiting.", s)
		return true
	default:
	}
	return false
}

// invertStep performs one shift-and-invert step: it solves
// shifted·u′ = b and normalizes the solution. A near-singular shifted
// system is expected near convergence and handled by the operator's
// regularized solve.
func invertStep(shifted operator.Operator, b *mat64.Vector) (*mat64.Vector, error) {
	u := new(mat64.Vector)
	if err := shifted.Solve(u, b); err != nil {
		return nil, err
	}
	if _, err := operator.Normalize(u); err != nil {
		return nil, fmt.Errorf("%w: shifted solve returned a zero vector",
			ErrSingularSystem)
	}
	return u, nil
}

// prepareVector validates the initial guess and returns a normalized
// private copy.
func prepareVector(dim int, u0 *mat64.Vector) (*mat64.Vector, error) {
	if u0 == nil {
		return nil, fmt.Errorf("%w: nil initial vector", ErrInvalidInput)
	}
	if u0.Len() != dim {
		return nil, fmt.Errorf("%w: vector length %d doesn't match operator dimension %d",
			ErrInvalidInput, u0.Len(), dim)
	}
	u := new(mat64.Vector)
	u.CloneVec(u0)
	if _, err := operator.Normalize(u); err != nil {
		return nil, err
	}
	return u, nil
}

// result packs the current state into a Result.
func result(lambda float64, u, v *mat64.Vector, mon *Monitor) *Result {
	return &Result{
		Lambda:     lambda,
		U:          u,
		V:          v,
		History:    mon.History(),
		Iterations: mon.Len() - 1,
	}
}
