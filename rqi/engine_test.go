package rqi

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/rayleigh/operator"
)

const testDim = 10

// testOperator builds a fixed 10x10 test matrix: a well-separated
// diagonal 1..10 plus a small seeded perturbation, optionally
// symmetrized.
func testOperator(tst *testing.T, symmetric bool) *operator.Dense {
	rng := rand.New(rand.NewSource(42))
	m := mat64.NewDense(testDim, testDim, nil)
	for i := 0; i < testDim; i++ {
		for j := 0; j < testDim; j++ {
			x := rng.NormFloat64() * 0.02
			if i == j {
				x += float64(i + 1)
			}
			m.Set(i, j, x)
		}
	}
	if symmetric {
		for i := 0; i < testDim; i++ {
			for j := i + 1; j < testDim; j++ {
				x := (m.At(i, j) + m.At(j, i)) / 2
				m.Set(i, j, x)
				m.Set(j, i, x)
			}
		}
	}
	a, err := operator.FromMatrix(m, symmetric)
	if err != nil {
		tst.Fatal("Error creating operator:", err)
	}
	return a
}

// testGuess is the fixed initial vector guess.
func testGuess() *mat64.Vector {
	d := make([]float64, testDim)
	for i := range d {
		d[i] = 1
	}
	return mat64.NewVector(testDim, d)
}

// checkEigenpair recomputes the relative residual of (lambda, u)
// independently of the engine.
func checkEigenpair(tst *testing.T, a operator.Operator, res *Result, tol float64) {
	if math.Abs(operator.Norm2(res.U)-1) > 1e-10 {
		tst.Error("Eigenvector is not unit norm:", operator.Norm2(res.U))
	}
	var w, diff mat64.Vector
	a.Apply(&w, res.U)
	diff.AddScaledVec(&w, -res.Lambda, res.U)
	r := operator.Norm2(&diff) / operator.Norm2(&w)
	if r > 2*tol {
		tst.Error("Recomputed residual too large:", r)
	}
}

func TestSymmetricConvergence(tst *testing.T) {
	a := testOperator(tst, true)
	e := New(a)
	e.Quiet = true

	res, err := e.Run(a.At(testDim-1, testDim-1), testGuess())
	if err != nil {
		tst.Fatal("Error:", err)
	}
	if res.Iterations > 6 {
		tst.Error("Too many iterations for the symmetric case:", res.Iterations)
	}
	if last := res.History[len(res.History)-1]; last > e.Tol {
		tst.Error("Final residual above tolerance:", last)
	}
	if len(res.History) != res.Iterations+1 {
		tst.Error("History length doesn't match iteration count:",
			len(res.History), res.Iterations)
	}
	checkEigenpair(tst, a, res, e.Tol)
}

// The nonsymmetric matrix converges with the one-sided engine, but not
// faster than the symmetric one (quadratic vs cubic order); the
// two-sided engine restores fast convergence.
func TestNonsymmetricModes(tst *testing.T) {
	sym := testOperator(tst, true)
	ns := testOperator(tst, false)

	es := New(sym)
	es.Quiet = true
	resSym, err := es.Run(sym.At(testDim-1, testDim-1), testGuess())
	if err != nil {
		tst.Fatal("Error (symmetric):", err)
	}

	en := New(ns)
	en.Quiet = true
	resNS, err := en.Run(ns.At(testDim-1, testDim-1), testGuess())
	if err != nil {
		tst.Fatal("Error (nonsymmetric one-sided):", err)
	}
	checkEigenpair(tst, ns, resNS, en.Tol)

	et := NewTwoSided(ns)
	et.Quiet = true
	resTS, err := et.Run(ns.At(testDim-1, testDim-1), testGuess(), testGuess())
	if err != nil {
		tst.Fatal("Error (nonsymmetric two-sided):", err)
	}
	checkEigenpair(tst, ns, resTS, et.Tol)

	if resNS.Iterations < resSym.Iterations {
		tst.Error("One-sided nonsymmetric iteration converged faster than symmetric:",
			resNS.Iterations, "<", resSym.Iterations)
	}
	if resTS.Iterations > resNS.Iterations {
		tst.Error("Two-sided iteration slower than one-sided on a nonsymmetric matrix:",
			resTS.Iterations, ">", resNS.Iterations)
	}
}

// For a self-adjoint operator the two engines should agree.
func TestTwoSidedEquivalence(tst *testing.T) {
	a := testOperator(tst, true)

	e1 := New(a)
	e1.Quiet = true
	res1, err := e1.Run(a.At(testDim-1, testDim-1), testGuess())
	if err != nil {
		tst.Fatal("Error (one-sided):", err)
	}

	e2 := NewTwoSided(a)
	e2.Quiet = true
	res2, err := e2.Run(a.At(testDim-1, testDim-1), testGuess(), testGuess())
	if err != nil {
		tst.Fatal("Error (two-sided):", err)
	}

	if math.Abs(res1.Lambda-res2.Lambda) > 1e-8 {
		tst.Error("Engines disagree on a self-adjoint operator:",
			res1.Lambda, res2.Lambda)
	}
}

func TestInvalidGuess(tst *testing.T) {
	a := testOperator(tst, true)
	e := New(a)
	e.Quiet = true

	if _, err := e.Run(1, mat64.NewVector(testDim, nil)); !errors.Is(err, ErrInvalidInput) {
		tst.Error("Expected invalid input error for a zero vector, got:", err)
	}
	if _, err := e.Run(1, nil); !errors.Is(err, ErrInvalidInput) {
		tst.Error("Expected invalid input error for a nil vector, got:", err)
	}
	if _, err := e.Run(1, mat64.NewVector(3, []float64{1, 2, 3})); !errors.Is(err, ErrInvalidInput) {
		tst.Error("Expected invalid input error for a length mismatch, got:", err)
	}
}

func TestMaxIterFailure(tst *testing.T) {
	a := testOperator(tst, true)
	e := New(a)
	e.Quiet = true
	e.Tol = 1e-30
	e.MaxIter = 2

	res, err := e.Run(a.At(testDim-1, testDim-1), testGuess())
	if !errors.Is(err, ErrConvergenceFailure) {
		tst.Error("Expected convergence failure, got:", err)
	}
	if res == nil {
		tst.Fatal("Failed run should still return the best eigenpair")
	}
	if len(res.History) != 3 {
		tst.Error("Expected initial + 2 iteration residuals, got:", len(res.History))
	}
	if math.Abs(operator.Norm2(res.U)-1) > 1e-10 {
		tst.Error("Eigenvector is not unit norm after failure")
	}
}

// A start orthogonal to the target eigenvector is not an input error;
// the iteration simply converges to a different eigenpair.
func TestOrthogonalStart(tst *testing.T) {
	a, err := operator.NewDense([]float64{1, 0, 0, 0, 2, 0, 0, 0, 3}, 3, true)
	if err != nil {
		tst.Fatal("Error creating operator:", err)
	}
	e := New(a)
	e.Quiet = true

	res, err := e.Run(3, mat64.NewVector(3, []float64{1, 0, 0}))
	if err != nil && !errors.Is(err, ErrConvergenceFailure) {
		tst.Error("Unexpected error kind:", err)
	}
	if err == nil && math.Abs(res.Lambda-1) > 1e-10 {
		tst.Error("Expected convergence to the eigenvalue 1, got:", res.Lambda)
	}
}

// An initial shift equal to an exact eigenvalue drives the very first
// solve singular; the regularized fallback should convert that into
// immediate convergence instead of an error.
func TestExactShift(tst *testing.T) {
	a, err := operator.NewDense([]float64{1, 0, 0, 0, 2, 0, 0, 0, 3}, 3, true)
	if err != nil {
		tst.Fatal("Error creating operator:", err)
	}
	e := New(a)
	e.Quiet = true

	res, err := e.Run(2, mat64.NewVector(3, []float64{1, 1, 1}))
	if err != nil {
		tst.Fatal("Error:", err)
	}
	if math.Abs(res.Lambda-2) > 1e-9 {
		tst.Error("Wrong eigenvalue:", res.Lambda)
	}
}

func BenchmarkSymmetric(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	m := RandomMatrix(rng, 50, true)
	a, err := operator.FromMatrix(m, true)
	if err != nil {
		b.Fatal(err)
	}
	u0 := RandomUnitVector(rng, 50)
	lambda0 := m.At(49, 49)
	for i := 0; i < b.N; i++ {
		e := New(a)
		e.Quiet = true
		e.Run(lambda0, u0)
	}
}
