package rqi

import "github.com/gonum/matrix/mat64"

// Result holds the outcome of a run. On success U (and V in two-sided
// mode) has unit norm and Lambda is the (generalized) Rayleigh quotient
// of the final vectors. On failure it holds the last valid eigenpair
// and whatever residual history was accumulated.
type Result struct {
	// Lambda is the eigenvalue estimate.
	Lambda float64
	// U is the right eigenvector estimate.
	U *mat64.Vector
	// V is the left eigenvector estimate (two-sided mode only).
	V *mat64.Vector
	// History is the ordered residual sequence, one entry for the
	// initial guess plus one per completed iteration.
	History []float64
	// Iterations is the number of completed iterations.
	Iterations int
}
