// Package diffop implements the operator capability set for a linear
// differential expression with Dirichlet boundary conditions,
// discretized by second-order finite differences on a uniform grid.
// The engines interact with it only through the operator.Operator
// interface; the discretization is an implementation detail.
package diffop

import (
	"fmt"
	"math"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/rayleigh/operator"
)

// minPoints is the smallest grid supporting the second-order one-sided
// stencils at the interval endpoints.
const minPoints = 4

// Diff is the operator L[u] = c2·u″ + c1·u′ + c0·u on [a, b] with
// Dirichlet boundary conditions u(a)=bcA, u(b)=bcB, discretized on n
// uniformly spaced grid points (endpoints included).
type Diff struct {
	c2, c1, c0 float64
	a, b       float64
	bcA, bcB   float64
	n          int
	h          float64

	// stencil holds the differential stencil at every node (one-sided
	// at the endpoints); it is what Apply computes with.
	stencil *mat64.Dense
	// system is stencil with the endpoint rows replaced by boundary
	// condition rows; it is what Solve solves with.
	system *mat64.Dense
}

// New creates a differential operator from the expression coefficients,
// the domain interval, the Dirichlet boundary values and the number of
// grid points.
func New(c2, c1, c0, a, b, bcA, bcB float64, n int) (*Diff, error) {
	if n < minPoints {
		return nil, fmt.Errorf("%w: need at least %d grid points, got %d",
			operator.ErrInvalidInput, minPoints, n)
	}
	if !(b > a) {
		return nil, fmt.Errorf("%w: domain interval [%v, %v] is empty",
			operator.ErrInvalidInput, a, b)
	}
	if c2 == 0 && c1 == 0 {
		return nil, fmt.Errorf("%w: expression has no derivative terms",
			operator.ErrInvalidInput)
	}
	return newDiff(c2, c1, c0, a, b, bcA, bcB, n), nil
}

// newDiff builds the operator without validation; used internally for
// shifted and adjoint variants which are valid by construction.
func newDiff(c2, c1, c0, a, b, bcA, bcB float64, n int) *Diff {
	d := &Diff{
		c2: c2, c1: c1, c0: c0,
		a: a, b: b,
		bcA: bcA, bcB: bcB,
		n: n,
		h: (b - a) / float64(n-1),
	}
	d.discretize()
	return d
}

// discretize fills the stencil and system matrices. Interior nodes use
// central differences; the endpoints use the second-order one-sided
// formulas u′(x₀) ≈ (−3u₀+4u₁−u₂)/2h and
// u″(x₀) ≈ (2u₀−5u₁+4u₂−u₃)/h² (mirrored at the right end).
func (d *Diff) discretize() {
	n, h := d.n, d.h
	hh := h * h
	d.stencil = mat64.NewDense(n, n, nil)
	for i := 1; i < n-1; i++ {
		d.stencil.Set(i, i-1, d.c2/hh-d.c1/(2*h))
		d.stencil.Set(i, i, -2*d.c2/hh+d.c0)
		d.stencil.Set(i, i+1, d.c2/hh+d.c1/(2*h))
	}
	d.stencil.Set(0, 0, 2*d.c2/hh-3*d.c1/(2*h)+d.c0)
	d.stencil.Set(0, 1, -5*d.c2/hh+4*d.c1/(2*h))
	d.stencil.Set(0, 2, 4*d.c2/hh-d.c1/(2*h))
	d.stencil.Set(0, 3, -d.c2/hh)
	d.stencil.Set(n-1, n-1, 2*d.c2/hh+3*d.c1/(2*h)+d.c0)
	d.stencil.Set(n-1, n-2, -5*d.c2/hh-4*d.c1/(2*h))
	d.stencil.Set(n-1, n-3, 4*d.c2/hh+d.c1/(2*h))
	d.stencil.Set(n-1, n-4, -d.c2/hh)

	d.system = mat64.NewDense(n, n, nil)
	d.system.Copy(d.stencil)
	for j := 0; j < n; j++ {
		d.system.Set(0, j, 0)
		d.system.Set(n-1, j, 0)
	}
	d.system.Set(0, 0, 1)
	d.system.Set(n-1, n-1, 1)
}

// Dim returns the number of grid points.
func (d *Diff) Dim() int {
	return d.n
}

// Grid returns the i-th grid point.
func (d *Diff) Grid(i int) float64 {
	return d.a + float64(i)*d.h
}

// Apply computes dst = L[x] at every grid node.
func (d *Diff) Apply(dst, x *mat64.Vector) {
	dst.MulVec(d.stencil, x)
}

// ShiftedBy returns the operator for the expression with −λu added and
// the same boundary conditions reattached; the boundary condition rows
// of the solve system are not shifted.
func (d *Diff) ShiftedBy(lambda float64) operator.Operator {
	return newDiff(d.c2, d.c1, d.c0-lambda, d.a, d.b, d.bcA, d.bcB, d.n)
}

// Adjoint returns the formal adjoint operator. For constant
// coefficients the formal adjoint flips the sign of the odd-order
// term:
//
//	L*[v] = c2·v″ − c1·v′ + c0·v
//
// with the same Dirichlet conditions. This transformation rule is
// applied to the expression coefficients explicitly; it is not inferred
// from the discretized matrix.
func (d *Diff) Adjoint() operator.Operator {
	return newDiff(d.c2, -d.c1, d.c0, d.a, d.b, d.bcA, d.bcB, d.n)
}

// Solve solves L[dst] = b subject to the boundary conditions: the
// endpoint entries of the right-hand side are replaced by the boundary
// values, so the returned grid function satisfies them up to solver
// accuracy.
func (d *Diff) Solve(dst, b *mat64.Vector) error {
	if b.Len() != d.n {
		return fmt.Errorf("%w: vector length %d doesn't match grid size %d",
			operator.ErrInvalidInput, b.Len(), d.n)
	}
	rhs := mat64.NewVector(d.n, nil)
	rhs.CloneVec(b)
	rhs.SetVec(0, d.bcA)
	rhs.SetVec(d.n-1, d.bcB)
	return operator.SolveLinear(dst, d.system, rhs)
}

// BoundaryResidual returns |x(a)−bcA| + |x(b)−bcB|, the amount by which
// x violates the boundary conditions.
func (d *Diff) BoundaryResidual(x *mat64.Vector) float64 {
	return math.Abs(x.At(0, 0)-d.bcA) + math.Abs(x.At(d.n-1, 0)-d.bcB)
}
