// Package qp solves the convex quadratic subproblems assembled by the
// cutting-plane direction computation. The primal subproblem
//
//	min over d of max_i { b_i + <g_i, d> } + 1/(2s)*||d||^2
//
// is attacked through its dual: with G = [g_1 ... g_k] and omega on the unit
// simplex,
//
//	min over omega of (s/2)*||G*omega||^2 - <b, omega>
//
// solved by projected gradient with simplex projection. The primal step is
// recovered as d = -s*G*omega. The dual multipliers omega are exposed
// positionally: omega[i] belongs to cut i of the most recently set
// collection.
package qp

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Status is the terminal state of a solve.
type Status int

const (
	// StatusUnsolved means no solve has completed since the last data change.
	StatusUnsolved Status = iota
	// StatusSuccess means the dual KKT residual met the tolerance.
	StatusSuccess
	// StatusIterationLimit means the solver stopped on its iteration budget
	// before meeting the tolerance.
	StatusIterationLimit
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusIterationLimit:
		return "IterationLimit"
	default:
		return "Unsolved"
	}
}

// kktFloor is the tightest dual residual the solver will chase.
const kktFloor = 1e-12

// inexactFactor scales the caller-supplied tolerance into a dual residual
// allowance.
const inexactFactor = 1e-8

// DualSolver holds the subproblem data and solver workspace. Cold solves
// start from the uniform multiplier vector; warm solves continue from the
// previous multipliers, padded with zeros for incrementally appended cuts.
type DualSolver struct {
	n             int
	scalar        float64
	tol           float64
	maxIterations int

	coeffs [][]float64
	biases []float64

	omega       []float64
	combination []float64 // G*omega
	primal      []float64
	grad        []float64

	status     Status
	iterations int
	kktError   float64
}

// NewDualSolver returns a solver for n-variable subproblems. maxIterations
// bounds the projected-gradient iterations per solve; a non-positive value
// selects the default of 500.
func NewDualSolver(n, maxIterations int) *DualSolver {
	if maxIterations <= 0 {
		maxIterations = 500
	}
	return &DualSolver{
		n:             n,
		scalar:        1,
		maxIterations: maxIterations,
		combination:   make([]float64, n),
		primal:        make([]float64, n),
	}
}

// SetScalar sets the proximal scalar s of the subproblem.
func (s *DualSolver) SetScalar(scalar float64) { s.scalar = scalar }

// SetTolerance sets the inexactness tolerance. Larger values allow a looser
// dual residual at termination.
func (s *DualSolver) SetTolerance(tol float64) { s.tol = tol }

// SetCuts replaces the cut collection for a cold solve. The coefficient
// slices are referenced, not copied; they must stay unchanged until the next
// data change.
func (s *DualSolver) SetCuts(coeffs [][]float64, biases []float64) {
	s.coeffs = append(s.coeffs[:0], coeffs...)
	s.biases = append(s.biases[:0], biases...)
	s.omega = s.omega[:0]
	s.status = StatusUnsolved
}

// AppendCuts adds cuts incrementally for a warm solve. Their multipliers
// start at zero.
func (s *DualSolver) AppendCuts(coeffs [][]float64, biases []float64) {
	s.coeffs = append(s.coeffs, coeffs...)
	s.biases = append(s.biases, biases...)
	for range coeffs {
		s.omega = append(s.omega, 0)
	}
	s.status = StatusUnsolved
}

// CutCount returns the number of cuts currently held.
func (s *DualSolver) CutCount() int { return len(s.coeffs) }

// Solve runs a cold solve from the uniform multiplier vector.
func (s *DualSolver) Solve() {
	k := len(s.coeffs)
	s.omega = resize(s.omega, k)
	for i := range s.omega {
		s.omega[i] = 1 / float64(k)
	}
	s.run()
}

// SolveWarm continues from the previous multipliers. It is consistent only
// with cuts added through AppendCuts since the last solve.
func (s *DualSolver) SolveWarm() {
	if len(s.omega) != len(s.coeffs) {
		// Data was replaced without a cold solve; recover with one.
		s.Solve()
		return
	}
	s.run()
}

func (s *DualSolver) run() {
	k := len(s.coeffs)
	s.iterations = 0
	s.kktError = 0
	if k == 0 {
		zero(s.combination)
		zero(s.primal)
		s.status = StatusSuccess
		return
	}

	s.grad = resize(s.grad, k)
	next := make([]float64, k)

	// Fixed stepsize from the Lipschitz bound s*trace(G'G).
	lip := 0.0
	for _, c := range s.coeffs {
		lip += floats.Dot(c, c)
	}
	lip *= s.scalar
	step := 1.0
	if lip > 0 {
		step = 1 / lip
	}

	tol := math.Max(kktFloor, s.tol*inexactFactor)
	s.status = StatusIterationLimit

	for it := 1; it <= s.maxIterations; it++ {
		s.iterations = it
		s.applyCombination()
		for i, c := range s.coeffs {
			s.grad[i] = s.scalar*floats.Dot(c, s.combination) - s.biases[i]
		}
		for i := range next {
			next[i] = s.omega[i] - step*s.grad[i]
		}
		projectSimplex(next)

		residual := 0.0
		for i := range next {
			residual = math.Max(residual, math.Abs(next[i]-s.omega[i]))
		}
		residual /= step
		s.kktError = residual

		copy(s.omega, next)
		if residual <= tol {
			s.status = StatusSuccess
			break
		}
	}

	s.applyCombination()
	for i := range s.primal {
		s.primal[i] = -s.scalar * s.combination[i]
	}
}

// applyCombination recomputes G*omega into the combination workspace.
func (s *DualSolver) applyCombination() {
	zero(s.combination)
	for i, c := range s.coeffs {
		floats.AddScaled(s.combination, s.omega[i], c)
	}
}

// Status returns the state of the last solve.
func (s *DualSolver) Status() Status { return s.status }

// Succeeded reports whether the last solve met its tolerance.
func (s *DualSolver) Succeeded() bool { return s.status == StatusSuccess }

// Iterations returns the projected-gradient iterations of the last solve.
func (s *DualSolver) Iterations() int { return s.iterations }

// KKTError returns the dual residual at termination of the last solve.
func (s *DualSolver) KKTError() float64 { return s.kktError }

// ZeroPrimal clears the primal solution.
func (s *DualSolver) ZeroPrimal() { zero(s.primal) }

// Primal returns the primal step d = -s*G*omega. The slice is owned by the
// solver and overwritten by the next solve.
func (s *DualSolver) Primal() []float64 { return s.primal }

// PrimalNormInf returns the infinity norm of the primal step.
func (s *DualSolver) PrimalNormInf() float64 {
	return floats.Norm(s.primal, math.Inf(1))
}

// PrimalNorm2Sq returns the squared 2-norm of the primal step.
func (s *DualSolver) PrimalNorm2Sq() float64 {
	nrm := floats.Norm(s.primal, 2)
	return nrm * nrm
}

// DualObjective returns the quadratic part of the dual objective,
// (s/2)*||G*omega||^2.
func (s *DualSolver) DualObjective() float64 {
	return 0.5 * s.scalar * s.CombinationNorm2Sq()
}

// CombinationNorm2Sq returns ||G*omega||^2 for the current multipliers.
func (s *DualSolver) CombinationNorm2Sq() float64 {
	nrm := floats.Norm(s.combination, 2)
	return nrm * nrm
}

// Multipliers returns the dual multiplier vector as a borrowed view, valid
// until the next data change or solve. Its length always equals CutCount
// after a solve.
func (s *DualSolver) Multipliers() []float64 { return s.omega }

// MultiplierLen returns the length of the dual multiplier vector.
func (s *DualSolver) MultiplierLen() int { return len(s.omega) }

// projectSimplex projects v in place onto the unit simplex
// {w : w >= 0, sum(w) = 1} with the sort-based algorithm.
func projectSimplex(v []float64) {
	u := append([]float64(nil), v...)
	sort.Sort(sort.Reverse(sort.Float64Slice(u)))

	cum := 0.0
	theta := 0.0
	for j, uj := range u {
		cum += uj
		t := (cum - 1) / float64(j+1)
		if uj-t > 0 {
			theta = t
		}
	}
	for i := range v {
		v[i] = math.Max(v[i]-theta, 0)
	}
}

func resize(s []float64, n int) []float64 {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]float64, n)
}

func zero(s []float64) {
	for i := range s {
		s[i] = 0
	}
}
