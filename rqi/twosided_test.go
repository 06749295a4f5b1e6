package rqi

import (
	"errors"
	"testing"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/rayleigh/operator"
)

// Left and right estimates that become orthogonal make the generalized
// Rayleigh quotient ill-conditioned; this is reported as a singular
// system, not silently divided through.
func TestDegenerateQuotient(tst *testing.T) {
	a, err := operator.NewDense([]float64{1, 0, 0, 2}, 2, true)
	if err != nil {
		tst.Fatal("Error creating operator:", err)
	}
	e := NewTwoSided(a)
	e.Quiet = true

	// The shift 1.5 is equidistant from both eigenvalues, so e1 and
	// e2 stay orthogonal after the first pair of solves.
	u0 := mat64.NewVector(2, []float64{1, 0})
	v0 := mat64.NewVector(2, []float64{0, 1})
	res, err := e.Run(1.5, u0, v0)
	if !errors.Is(err, ErrSingularSystem) {
		tst.Error("Expected singular system error, got:", err)
	}
	if res == nil {
		tst.Fatal("Failed run should still return the last valid state")
	}
	if len(res.History) < 1 {
		tst.Error("Missing partial residual history")
	}
	if res.U == nil || res.V == nil {
		tst.Error("Missing eigenvector estimates in the failed result")
	}
}

func TestTwoSidedInvalidGuess(tst *testing.T) {
	a, err := operator.NewDense([]float64{1, 0, 0, 2}, 2, true)
	if err != nil {
		tst.Fatal("Error creating operator:", err)
	}
	e := NewTwoSided(a)
	e.Quiet = true

	u0 := mat64.NewVector(2, []float64{1, 0})
	if _, err := e.Run(1, u0, mat64.NewVector(2, nil)); !errors.Is(err, ErrInvalidInput) {
		tst.Error("Expected invalid input error for a zero left vector, got:", err)
	}
	if _, err := e.Run(1, mat64.NewVector(2, nil), u0); !errors.Is(err, ErrInvalidInput) {
		tst.Error("Expected invalid input error for a zero right vector, got:", err)
	}
}
