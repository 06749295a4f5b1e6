package operator

import (
	"fmt"
	"math"

	"github.com/gonum/blas/blas64"
	"github.com/gonum/matrix/mat64"
)

// Norm2 returns the Euclidean norm of v.
func Norm2(v *mat64.Vector) float64 {
	return blas64.Nrm2(v.Len(), v.RawVector())
}

// Dot returns the inner product of x and y.
func Dot(x, y *mat64.Vector) float64 {
	return blas64.Dot(x.Len(), x.RawVector(), y.RawVector())
}

// Normalize scales v to unit Euclidean norm in place and returns the
// original norm. A zero-norm vector cannot be normalized and is reported
// as ErrInvalidInput.
func Normalize(v *mat64.Vector) (float64, error) {
	n := Norm2(v)
	if n == 0 {
		return 0, fmt.Errorf("%w: zero-norm vector", ErrInvalidInput)
	}
	blas64.Scal(v.Len(), 1/n, v.RawVector())
	return n, nil
}

// finite returns true if all elements of v are finite.
func finite(v *mat64.Vector) bool {
	rv := v.RawVector()
	for i := 0; i < v.Len(); i++ {
		x := rv.Data[i*rv.Inc]
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
