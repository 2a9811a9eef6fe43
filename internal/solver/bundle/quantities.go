package bundle

import (
	"time"

	"gonum.org/v1/gonum/floats"
)

// Quantities holds the shared algorithmic state the direction computation
// reads and writes: the current and trial iterate slots, the point bundle,
// the radii, the shared direction vector, the iteration counters and the
// time budget. It is exclusively owned by the single calling goroutine.
type Quantities struct {
	n  int
	ev Evaluator

	current *Iterate
	trial   *Iterate
	points  *PointSet

	direction []float64

	stationarityRadius float64
	trustRegionRadius  float64

	evaluateJointly bool

	innerIterations int
	qpIterations    int

	totalInnerIterations int
	totalQPIterations    int

	startTime time.Time
	cpuBudget time.Duration
}

// NewQuantities builds the shared state for an n-variable problem starting
// at x0. A zero cpuBudget means no time limit.
func NewQuantities(n int, ev Evaluator, x0 []float64, cpuBudget time.Duration) *Quantities {
	start := make([]float64, n)
	copy(start, x0)
	return &Quantities{
		n:               n,
		ev:              ev,
		current:         NewIterate(start),
		points:          NewPointSet(),
		direction:       make([]float64, n),
		evaluateJointly: ev.Joint(),
		startTime:       time.Now(),
		cpuBudget:       cpuBudget,
	}
}

// NumberOfVariables returns the problem dimension.
func (q *Quantities) NumberOfVariables() int { return q.n }

// Evaluator returns the objective callbacks.
func (q *Quantities) Evaluator() Evaluator { return q.ev }

// EvaluateJointly reports whether objective and gradient are evaluated in a
// single call.
func (q *Quantities) EvaluateJointly() bool { return q.evaluateJointly }

// CurrentIterate returns the current iterate slot.
func (q *Quantities) CurrentIterate() *Iterate { return q.current }

// TrialIterate returns the trial iterate slot.
func (q *Quantities) TrialIterate() *Iterate { return q.trial }

// PointSet returns the bundle of sampled points.
func (q *Quantities) PointSet() *PointSet { return q.points }

// Direction returns the shared direction vector, overwritten with the QP
// primal solution after every solve.
func (q *Quantities) Direction() []float64 { return q.direction }

// StationarityRadius returns the radius selecting trustworthy bundle points.
func (q *Quantities) StationarityRadius() float64 { return q.stationarityRadius }

// SetStationarityRadius overwrites the stationarity radius.
func (q *Quantities) SetStationarityRadius(r float64) { q.stationarityRadius = r }

// TrustRegionRadius returns the trust-region scalar handed to the QP solver.
func (q *Quantities) TrustRegionRadius() float64 { return q.trustRegionRadius }

// SetTrustRegionRadius overwrites the trust-region radius.
func (q *Quantities) SetTrustRegionRadius(r float64) { q.trustRegionRadius = r }

// SetTrialToCurrent resets the trial slot to the current iterate.
func (q *Quantities) SetTrialToCurrent() { q.trial = q.current }

// SetTrialToStep sets the trial slot to current + stepsize*direction as a
// fresh, unevaluated iterate.
func (q *Quantities) SetTrialToStep(stepsize float64) {
	x := make([]float64, q.n)
	copy(x, q.current.Vector())
	floats.AddScaled(x, stepsize, q.direction)
	q.trial = NewIterate(x)
}

// SetTrialIterate replaces the trial slot.
func (q *Quantities) SetTrialIterate(it *Iterate) { q.trial = it }

// AcceptTrial promotes the trial iterate to current.
func (q *Quantities) AcceptTrial() { q.current = q.trial }

// InnerIterations returns the inner-iteration count of the current call.
func (q *Quantities) InnerIterations() int { return q.innerIterations }

// QPIterations returns the accumulated QP iteration count of the current call.
func (q *Quantities) QPIterations() int { return q.qpIterations }

// IncrementInnerIterations adds k to the inner-iteration counter.
func (q *Quantities) IncrementInnerIterations(k int) { q.innerIterations += k }

// IncrementQPIterations adds k to the QP iteration counter.
func (q *Quantities) IncrementQPIterations(k int) { q.qpIterations += k }

// ResetCounters zeroes the per-call iteration counters.
func (q *Quantities) ResetCounters() {
	q.innerIterations = 0
	q.qpIterations = 0
}

// AccumulateTotals folds the per-call counters into the running totals.
func (q *Quantities) AccumulateTotals() {
	q.totalInnerIterations += q.innerIterations
	q.totalQPIterations += q.qpIterations
}

// TotalInnerIterations returns the inner iterations across all calls.
func (q *Quantities) TotalInnerIterations() int { return q.totalInnerIterations }

// TotalQPIterations returns the QP iterations across all calls.
func (q *Quantities) TotalQPIterations() int { return q.totalQPIterations }

// StartTime returns the clock start of the enclosing solve.
func (q *Quantities) StartTime() time.Time { return q.startTime }

// CPUBudget returns the wall-clock budget, zero meaning unlimited.
func (q *Quantities) CPUBudget() time.Duration { return q.cpuBudget }

// BudgetExceeded reports whether the time budget has run out.
func (q *Quantities) BudgetExceeded() bool {
	return q.cpuBudget > 0 && time.Since(q.startTime) >= q.cpuBudget
}

// evaluateTrialObjective evaluates the trial iterate's objective following
// the joint-evaluation policy. It reports success.
func (q *Quantities) evaluateTrialObjective() bool {
	if q.evaluateJointly {
		return q.trial.EvaluateObjectiveAndGradient(q.ev)
	}
	return q.trial.EvaluateObjective(q.ev)
}

// evaluateTrialGradient completes the trial iterate's gradient when the
// policy evaluates quantities separately.
func (q *Quantities) evaluateTrialGradient() bool {
	if q.evaluateJointly {
		return true
	}
	return q.trial.EvaluateGradient(q.ev)
}
