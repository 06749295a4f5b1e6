package rqi

import (
	"errors"

	"bitbucket.org/Davydov/rayleigh/operator"
)

var (
	// ErrInvalidInput is returned before any iteration for a zero-norm
	// initial vector, mismatched dimensions or a malformed operator
	// specification.
	ErrInvalidInput = operator.ErrInvalidInput
	// ErrSingularSystem is returned when the shifted solve is singular
	// beyond regularization, or when the two-sided quotient denominator
	// collapses. The result still carries the last valid eigenpair and
	// the partial residual history.
	ErrSingularSystem = operator.ErrSingular
	// ErrConvergenceFailure is returned when the residual has not
	// reached the tolerance within the iteration limit. The result
	// carries the best eigenpair found and the full residual history.
	ErrConvergenceFailure = errors.New("tolerance not reached within the iteration limit")
)
