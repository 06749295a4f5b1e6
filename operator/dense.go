package operator

import (
	"fmt"
	"math"

	"github.com/gonum/matrix"
	"github.com/gonum/matrix/mat64"
)

// regScale controls the diagonal perturbation used for the regularized
// solve fallback; the actual perturbation is regScale*max(1, ‖A‖∞).
const regScale = 1e-14

// Dense is a finite-dimensional operator backed by a square dense matrix.
type Dense struct {
	m         *mat64.Dense
	n         int
	symmetric bool
}

// NewDense creates a matrix operator from row-major data of an n×n
// matrix. The data is copied. The symmetric flag declares the matrix
// self-adjoint, which allows Adjoint to avoid a transpose.
func NewDense(data []float64, n int, symmetric bool) (*Dense, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: matrix dimension should be > 0", ErrInvalidInput)
	}
	if len(data) != n*n {
		return nil, fmt.Errorf("%w: matrix dimensions don't match slice size", ErrInvalidInput)
	}
	d := make([]float64, len(data))
	copy(d, data)
	return &Dense{m: mat64.NewDense(n, n, d), n: n, symmetric: symmetric}, nil
}

// FromMatrix creates a matrix operator from an existing dense matrix.
// The matrix is copied, so later modifications of m do not affect the
// operator.
func FromMatrix(m *mat64.Dense, symmetric bool) (*Dense, error) {
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: matrix is not square (%dx%d)", ErrInvalidInput, r, c)
	}
	cp := mat64.NewDense(r, c, nil)
	cp.Copy(m)
	return &Dense{m: cp, n: r, symmetric: symmetric}, nil
}

// Dim returns the matrix dimension.
func (d *Dense) Dim() int {
	return d.n
}

// Symmetric returns true if the matrix was declared self-adjoint.
func (d *Dense) Symmetric() bool {
	return d.symmetric
}

// At returns the matrix element at row i, column j.
func (d *Dense) At(i, j int) float64 {
	return d.m.At(i, j)
}

// Apply computes dst = A·x.
func (d *Dense) Apply(dst, x *mat64.Vector) {
	dst.MulVec(d.m, x)
}

// ShiftedBy returns a new operator for A − λI.
func (d *Dense) ShiftedBy(lambda float64) Operator {
	s := mat64.NewDense(d.n, d.n, nil)
	s.Copy(d.m)
	for i := 0; i < d.n; i++ {
		s.Set(i, i, s.At(i, i)-lambda)
	}
	return &Dense{m: s, n: d.n, symmetric: d.symmetric}
}

// Adjoint returns the transposed operator. For a symmetric matrix the
// adjoint is the matrix itself.
func (d *Dense) Adjoint() Operator {
	if d.symmetric {
		return d
	}
	t := mat64.NewDense(d.n, d.n, nil)
	t.Copy(d.m.T())
	return &Dense{m: t, n: d.n, symmetric: false}
}

// Solve solves A·dst = b.
func (d *Dense) Solve(dst, b *mat64.Vector) error {
	if b.Len() != d.n {
		return fmt.Errorf("%w: vector length %d doesn't match operator dimension %d",
			ErrInvalidInput, b.Len(), d.n)
	}
	return SolveLinear(dst, d.m, b)
}

// BoundaryResidual is always zero for matrix operators.
func (d *Dense) BoundaryResidual(x *mat64.Vector) float64 {
	return 0
}

// SolveLinear solves the dense system a·dst = b. An ill-conditioned
// system is expected during shift-and-invert as the shift approaches an
// eigenvalue, so a near-singular solve is not an error: if the direct
// solution is finite it is accepted, otherwise the system is solved
// again with a small diagonal perturbation (Tikhonov regularization),
// which yields a usable direction for the iteration. ErrSingular is
// returned only when the regularized solve fails as well.
func SolveLinear(dst *mat64.Vector, a *mat64.Dense, b *mat64.Vector) error {
	err := dst.SolveVec(a, b)
	if err == nil {
		return nil
	}
	if _, ok := err.(matrix.Condition); !ok {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	// An exactly singular factorization may leave the solution zero
	// instead of non-finite; both need the regularized retry.
	if finite(dst) && Norm2(dst) > 0 {
		log.Debugf("accepting ill-conditioned solve (%v)", err)
		return nil
	}
	n, _ := a.Dims()
	eps := regScale * math.Max(1, mat64.Norm(a, math.Inf(1)))
	reg := mat64.NewDense(n, n, nil)
	reg.Copy(a)
	for i := 0; i < n; i++ {
		reg.Set(i, i, reg.At(i, i)+eps)
	}
	log.Debugf("singular system, retrying with regularization eps=%g", eps)
	err = dst.SolveVec(reg, b)
	if err != nil {
		if _, ok := err.(matrix.Condition); !ok {
			return fmt.Errorf("%w: %v", ErrSingular, err)
		}
	}
	if !finite(dst) || Norm2(dst) == 0 {
		return fmt.Errorf("%w: regularized solve failed", ErrSingular)
	}
	return nil
}
