// Package operator provides the linear operator abstraction used by the
// Rayleigh quotient iteration engines. An operator may be backed by a dense
// matrix or by a discretized differential expression; the engines only ever
// see the capability set below.
package operator

import (
	"errors"

	"github.com/gonum/matrix/mat64"
	"github.com/op/go-logging"
)

// log is the global logging variable.
var log = logging.MustGetLogger("operator")

var (
	// ErrInvalidInput is returned for malformed construction input:
	// non-square data, mismatched dimensions or a zero-norm vector.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSingular is returned when a linear system cannot be solved
	// even after regularization.
	ErrSingular = errors.New("singular system")
)

// Operator is a square linear operator. Implementations are immutable:
// ShiftedBy and Adjoint return new operator values and never modify the
// receiver.
type Operator interface {
	// Dim returns the dimension of the operator.
	Dim() int
	// Apply computes dst = A·x.
	Apply(dst, x *mat64.Vector)
	// ShiftedBy returns a new operator representing A − λI.
	ShiftedBy(lambda float64) Operator
	// Solve solves A·dst = b. Near-singular systems are solved with a
	// regularized fallback; ErrSingular is returned only when that
	// fails too.
	Solve(dst, b *mat64.Vector) error
	// Adjoint returns the adjoint operator (transpose for matrices,
	// formal adjoint for differential operators).
	Adjoint() Operator
	// BoundaryResidual measures how far x violates the operator's
	// boundary conditions; it is zero for matrix operators.
	BoundaryResidual(x *mat64.Vector) float64
}
