/*

Rayleigh refines a single eigenpair of a linear operator using Rayleigh
quotient iteration. The operator is either a random dense matrix or a
linear differential expression with Dirichlet boundary conditions.

The basic usage of rayleigh looks like this:

	rayleigh

, this will refine an eigenpair of a random symmetric 10x10 matrix with
the one-sided iteration.

You can switch to a nonsymmetric matrix and the two-sided iteration:

	rayleigh -nonsymmetric -twosided

, or to a differential operator (−u″ on [0, pi] by default):

	rayleigh -operator diff

To see all the options run:

	rayleigh -h

*/
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/rayleigh/checkpoint"
	"bitbucket.org/Davydov/rayleigh/diffop"
	"bitbucket.org/Davydov/rayleigh/operator"
	"bitbucket.org/Davydov/rayleigh/rqi"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("rayleigh")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("rayleigh", "single eigenpair refinement by Rayleigh quotient iteration").Version(version)

	// operator
	operatorKind = app.Flag("operator", "operator kind (matrix or diff)").
			Default("matrix").Enum("matrix", "diff")
	size         = app.Flag("n", "matrix size").Default("10").Int()
	nonsymmetric = app.Flag("nonsymmetric", "don't symmetrize the random matrix").Bool()

	// differential operator parameters
	c2   = app.Flag("c2", "second derivative coefficient").Default("-1").Float64()
	c1   = app.Flag("c1", "first derivative coefficient").Default("0").Float64()
	c0   = app.Flag("c0", "zero order coefficient").Default("0").Float64()
	xa   = app.Flag("xa", "left end of the domain interval").Default("0").Float64()
	xb   = app.Flag("xb", "right end of the domain interval").Default("3.141592653589793").Float64()
	grid = app.Flag("grid", "number of grid points").Default("201").Int()

	// iteration parameters
	twoSided = app.Flag("twosided", "use the two-sided iteration (cubic convergence "+
		"for non-self-adjoint operators)").Bool()
	shift   = app.Flag("shift", "initial eigenvalue guess (default: bottom-right matrix entry or 1 for diff)").Default("NaN").Float64()
	tol     = app.Flag("tol", "convergence tolerance").Default("1e-10").Float64()
	maxIter = app.Flag("maxiter", "maximum number of iterations").Default("50").Int()
	report  = app.Flag("report", "report every N iterations").Default("1").Int()

	// technical
	seed = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()

	// input/output
	checkpointF       = app.Flag("checkpoint", "checkpoint file name").String()
	checkpointSeconds = app.Flag("cseconds", "checkpoint period in seconds").Default("1").Float64()
	plotF             = app.Flag("plot", "write residual history plot (png) to a file").String()
	outLogF           = app.Flag("log", "write log to a file").String()
	logLevel          = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()
)

// RunSummary is storing rayleigh run summary information.
type RunSummary struct {
	// Version stores rayleigh version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// Operator is the operator kind (matrix or diff).
	Operator string `json:"operator"`
	// TwoSided is true for the two-sided iteration.
	TwoSided bool `json:"twoSided"`
	// Eigenvalue is the final eigenvalue estimate.
	Eigenvalue float64 `json:"eigenvalue"`
	// Residual is the final residual.
	Residual float64 `json:"residual"`
	// Iterations is the number of completed iterations.
	Iterations int `json:"iterations"`
	// History is the residual history, one value per iteration plus
	// the initial guess.
	History []float64 `json:"history"`
	// Converged is true if the tolerance was reached.
	Converged bool `json:"converged"`
	// Error is the failure kind for unconverged runs.
	Error string `json:"error,omitempty"`
	// Time is the computations time in seconds.
	Time float64 `json:"time"`
}

// makeOperator creates the operator selected on the command line.
func makeOperator(rng *rand.Rand) (operator.Operator, error) {
	switch *operatorKind {
	case "diff":
		log.Infof("Using operator %v*u'' + %v*u' + %v*u on [%v, %v], %d grid points",
			*c2, *c1, *c0, *xa, *xb, *grid)
		return diffop.New(*c2, *c1, *c0, *xa, *xb, 0, 0, *grid)
	}
	log.Infof("Using a random %dx%d matrix (symmetric=%v)", *size, *size, !*nonsymmetric)
	m := rqi.RandomMatrix(rng, *size, !*nonsymmetric)
	return operator.FromMatrix(m, !*nonsymmetric)
}

// initialShift returns the initial eigenvalue guess.
func initialShift(a operator.Operator) float64 {
	if !math.IsNaN(*shift) {
		return *shift
	}
	if d, ok := a.(*operator.Dense); ok {
		n := d.Dim()
		return d.At(n-1, n-1)
	}
	return 1
}

func run() (summary *RunSummary) {
	startTime := time.Now()
	summary = &RunSummary{Operator: *operatorKind, TwoSided: *twoSided}

	rng := rand.New(rand.NewSource(*seed))
	a, err := makeOperator(rng)
	if err != nil {
		log.Fatal(err)
	}

	lambda0 := initialShift(a)
	u0 := rqi.RandomUnitVector(rng, a.Dim())
	log.Infof("Initial eigenvalue guess: %v", lambda0)

	var ckp *checkpoint.CheckpointIO
	if *checkpointF != "" {
		db, err := bolt.Open(*checkpointF, 0666, nil)
		if err != nil {
			log.Fatal("Error opening checkpoint file:", err)
		}
		defer db.Close()
		ckp = checkpoint.NewCheckpointIO(db, []byte("rqi"), *checkpointSeconds)
	}

	var res *rqi.Result
	if *twoSided {
		e := rqi.NewTwoSided(a)
		e.Tol = *tol
		e.MaxIter = *maxIter
		e.SetReportPeriod(*report)
		e.WatchSignals(os.Interrupt)
		e.OnIteration = makeCheckpointHook(ckp)
		v0 := rqi.RandomUnitVector(rng, a.Dim())
		res, err = e.Run(lambda0, u0, v0)
	} else {
		e := rqi.New(a)
		e.Tol = *tol
		e.MaxIter = *maxIter
		e.SetReportPeriod(*report)
		e.WatchSignals(os.Interrupt)
		e.OnIteration = makeCheckpointHook(ckp)
		res, err = e.Run(lambda0, u0)
	}

	switch {
	case err == nil:
		summary.Converged = true
		log.Noticef("Converged: lambda=%v, %d iterations", res.Lambda, res.Iterations)
	case errors.Is(err, rqi.ErrConvergenceFailure):
		summary.Error = "convergence failure"
		log.Error(err)
	case errors.Is(err, rqi.ErrSingularSystem):
		summary.Error = "singular system"
		log.Error(err)
	default:
		log.Fatal(err)
	}

	summary.Eigenvalue = res.Lambda
	summary.Iterations = res.Iterations
	summary.History = res.History
	summary.Residual = res.History[len(res.History)-1]

	if ckp != nil {
		ckp.Save(&checkpoint.CheckpointData{
			Lambda:   res.Lambda,
			Residual: summary.Residual,
			History:  res.History,
			Iter:     res.Iterations,
			Final:    true,
		})
	}

	if *plotF != "" {
		if err := plotResiduals(res.History, *plotF); err != nil {
			log.Error("Error plotting residuals:", err)
		}
	}

	endTime := time.Now()

	deltaT := endTime.Sub(startTime)
	log.Noticef("Running time: %v", deltaT)
	summary.Time = deltaT.Seconds()

	return
}

// makeCheckpointHook returns a per-iteration callback saving the
// iteration state if the last checkpoint is old enough.
func makeCheckpointHook(ckp *checkpoint.CheckpointIO) func(int, float64, float64) {
	if ckp == nil {
		return nil
	}
	return func(iter int, lambda, residual float64) {
		if !ckp.Old() {
			return
		}
		ckp.Save(&checkpoint.CheckpointData{
			Lambda:   lambda,
			Residual: residual,
			Iter:     iter,
		})
	}
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logging.SetLevel(level, "rayleigh")
	logging.SetLevel(level, "rqi")
	logging.SetLevel(level, "operator")
	logging.SetLevel(level, "checkpoint")

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)

	summary := run()
	summary.Version = version
	summary.CommandLine = os.Args
	summary.Seed = *seed

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}
