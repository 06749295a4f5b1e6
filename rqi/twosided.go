package rqi

import (
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/rayleigh/operator"
)

// quotientTol is the threshold on |vᵀ·u| below which the generalized
// Rayleigh quotient is considered ill-conditioned.
const quotientTol = 1e-14

// TwoSided is the two-sided Rayleigh quotient iteration. It carries a
// left eigenvector estimate driven by the adjoint operator in addition
// to the right one, which recovers cubic convergence for
// non-self-adjoint operators. For a self-adjoint operator it is
// equivalent to the one-sided engine.
type TwoSided struct {
	Engine
}

// NewTwoSided creates a two-sided engine for the operator a.
func NewTwoSided(a operator.Operator) *TwoSided {
	return &TwoSided{Engine: *New(a)}
}

// Run iterates from the initial eigenvalue guess lambda0 and the
// initial right and left vector guesses u0 and v0 (both normalized
// internally, must be nonzero; v0 need not relate to u0). The residual
// and the stopping test are measured against the right eigenvector
// only.
func (t *TwoSided) Run(lambda0 float64, u0, v0 *mat64.Vector) (*Result, error) {
	u, err := prepareVector(t.a.Dim(), u0)
	if err != nil {
		return nil, err
	}
	v, err := prepareVector(t.a.Dim(), v0)
	if err != nil {
		return nil, err
	}
	lambda := lambda0
	mon := NewMonitor(t.Tol)
	mon.Append(t.residual(lambda, u))
	t.PrintHeader()
	if mon.Converged() {
		return result(lambda, u, v, mon), nil
	}
	for t.i = 1; t.i <= t.MaxIter; t.i++ {
		shifted := t.a.ShiftedBy(lambda)
		// The two solves are independent within a step; both must
		// complete before the eigenvalue update.
		u2, err := invertStep(shifted, u)
		if err != nil {
			return result(lambda, u, v, mon),
				fmt.Errorf("iteration %d: %w", t.i, err)
		}
		v2, err := invertStep(shifted.Adjoint(), v)
		if err != nil {
			return result(lambda, u, v, mon),
				fmt.Errorf("iteration %d (adjoint): %w", t.i, err)
		}
		u, v = u2, v2
		lambda2, err := t.generalizedRayleigh(u, v)
		if err != nil {
			return result(lambda, u, v, mon),
				fmt.Errorf("iteration %d: %w", t.i, err)
		}
		lambda = lambda2
		r := t.residual(lambda, u)
		mon.Append(r)
		log.Debugf("%d: lambda=%g, residual=%g", t.i, lambda, r)
		t.PrintLine(lambda, r)
		if t.OnIteration != nil {
			t.OnIteration(t.i, lambda, r)
		}
		if mon.Converged() {
			log.Infof("Converged after %d iterations, lambda=%g", t.i, lambda)
			return result(lambda, u, v, mon), nil
		}
		if t.interrupted() {
			break
		}
	}
	return result(lambda, u, v, mon),
		fmt.Errorf("%w: residual %g after %d iterations",
			ErrConvergenceFailure, mon.Last(), mon.Len()-1)
}

// generalizedRayleigh returns (vᵀ·A·u)/(vᵀ·u) for unit-norm u and v.
// When the estimates become near-orthogonal the quotient is
// ill-conditioned and ErrSingularSystem is returned instead of
// dividing.
func (t *TwoSided) generalizedRayleigh(u, v *mat64.Vector) (float64, error) {
	den := operator.Dot(v, u)
	if math.Abs(den) < quotientTol {
		return 0, fmt.Errorf("%w: left and right estimates are near-orthogonal (|vᵀu|=%g)",
			ErrSingularSystem, math.Abs(den))
	}
	var w mat64.Vector
	t.a.Apply(&w, u)
	return operator.Dot(v, &w) / den, nil
}
