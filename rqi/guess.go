package rqi

import (
	"math/rand"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/rayleigh/operator"
)

// RandomUnitVector returns a unit-norm vector of length n with
// directions distributed uniformly on the sphere. The generator is
// passed explicitly; global random state is never touched.
func RandomUnitVector(rng *rand.Rand, n int) *mat64.Vector {
	v := mat64.NewVector(n, nil)
	for {
		for i := 0; i < n; i++ {
			v.SetVec(i, rng.NormFloat64())
		}
		if _, err := operator.Normalize(v); err == nil {
			return v
		}
	}
}

// RandomMatrix returns an n×n matrix with standard normal entries; if
// symmetric is true the matrix is symmetrized as (M+Mᵀ)/2.
func RandomMatrix(rng *rand.Rand, n int, symmetric bool) *mat64.Dense {
	m := mat64.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			m.Set(i, j, rng.NormFloat64())
		}
	}
	if symmetric {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				x := (m.At(i, j) + m.At(j, i)) / 2
				m.Set(i, j, x)
				m.Set(j, i, x)
			}
		}
	}
	return m
}
