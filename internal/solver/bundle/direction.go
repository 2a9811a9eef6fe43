package bundle

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/SCREE/internal/solver/qp"
)

// QPSolver is the subproblem collaborator contract. After any SetCuts or
// AppendCuts call the solver's internal cut count equals the length of the
// collection handed to it; the dual multiplier at position i belongs to cut
// i. A warm solve is consistent only with cuts added through AppendCuts
// since the last solve.
type QPSolver interface {
	SetScalar(float64)
	SetTolerance(float64)
	SetCuts(coeffs [][]float64, biases []float64)
	AppendCuts(coeffs [][]float64, biases []float64)
	Solve()
	SolveWarm()
	Status() qp.Status
	Succeeded() bool
	ZeroPrimal()
	Primal() []float64
	PrimalNormInf() float64
	PrimalNorm2Sq() float64
	DualObjective() float64
	CombinationNorm2Sq() float64
	Multipliers() []float64
	MultiplierLen() int
	Iterations() int
	CutCount() int
	KKTError() float64
}

// Terminator is the radius-update collaborator: a side-effecting check that
// may adjust the radii held by Quantities, and a query reporting whether the
// last check did, which forces step acceptance.
type Terminator interface {
	CheckDirectionComputation(q *Quantities, s QPSolver)
	RadiiUpdated() bool
}

// DirectionComputer computes a descent step per outer iteration by solving
// cutting-plane subproblems over the point bundle.
type DirectionComputer struct {
	opts Options
	qp   QPSolver
	term Terminator
	rep  *Reporter
	log  *zap.Logger
}

// NewDirectionComputer validates the options and wires the collaborators.
func NewDirectionComputer(opts Options, solver QPSolver, term Terminator, rep *Reporter, log *zap.Logger) (*DirectionComputer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if rep == nil {
		rep = NewReporter(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DirectionComputer{
		opts: opts,
		qp:   solver,
		term: term,
		rep:  rep,
		log:  log,
	}, nil
}

// Compute runs one direction computation: it overwrites the shared direction
// vector and the trial iterate slot and returns the terminal outcome. On any
// outcome other than OutcomeSuccess the direction and trial iterate retain
// their last-computed values and must not be trusted without checking the
// outcome first.
func (dc *DirectionComputer) Compute(q *Quantities) Outcome {
	dc.qp.ZeroPrimal()
	q.ResetCounters()
	q.SetTrialToCurrent()

	outcome := dc.compute(q)

	dc.reportIteration(q)
	dc.rep.Flush()
	q.AccumulateTotals()
	dc.log.Debug("direction computation finished",
		zap.String("outcome", outcome.String()),
		zap.Int("inner_iterations", q.InnerIterations()),
		zap.Int("qp_iterations", q.QPIterations()),
		zap.Int("bundle_size", q.PointSet().Len()))
	return outcome
}

// compute is the single dispatch point for terminal conditions: every return
// below maps one-to-one onto an outcome, replacing the nested-loop unwinding
// a caller might otherwise need.
func (dc *DirectionComputer) compute(q *Quantities) Outcome {
	cur := q.CurrentIterate()
	ev := q.Evaluator()

	// Current objective and gradient, per the evaluation policy. A failure
	// here is fatal: no subproblem can be built without the current cut.
	if q.EvaluateJointly() {
		if !cur.EvaluateObjectiveAndGradient(ev) {
			return OutcomeEvaluationFailure
		}
	} else {
		if !cur.EvaluateObjective(ev) {
			return OutcomeEvaluationFailure
		}
		if !cur.EvaluateGradient(ev) {
			return OutcomeEvaluationFailure
		}
	}

	dc.qp.SetScalar(q.TrustRegionRadius())
	dc.qp.SetTolerance(q.StationarityRadius())

	full := NewCutCollection(OwnedCut(cur.Gradient(), cur.Objective()))

	// A trivial gradient step may already satisfy the decrease test, in
	// which case the full subproblem is bypassed entirely.
	if dc.opts.TryGradientStep {
		dc.setAndSolve(q, full)
		q.SetTrialToStep(dc.opts.GradientStepsize)
		ok := q.evaluateTrialObjective()
		dc.term.CheckDirectionComputation(q, dc.qp)
		if ok && (dc.sufficientDecrease(q, dc.opts.GradientStepsize) || dc.term.RadiiUpdated()) {
			return OutcomeSuccess
		}
	}

	// Full cut set: one cut per bundle point within the stationarity radius.
	// Points that fail to evaluate contribute no cut.
	for i := 0; i < q.PointSet().Len(); i++ {
		p := q.PointSet().At(i)
		if floats.Distance(cur.Vector(), p.Vector(), math.Inf(1)) > q.StationarityRadius() {
			continue
		}
		var ok bool
		if q.EvaluateJointly() {
			ok = p.EvaluateObjectiveAndGradient(ev)
		} else {
			ok = p.EvaluateObjective(ev) && p.EvaluateGradient(ev)
		}
		if !ok {
			continue
		}
		full.Append(PointCut(i, downshiftBias(cur, p, dc.opts.DownshiftConstant)))
	}

	dc.setAndSolve(q, full)
	if !dc.qp.Succeeded() {
		if dc.opts.FailOnQPFailure {
			return OutcomeQPFailure
		}
		dc.fallbackToSingleCut(q, full)
	}

	switchedToFull := false
	aggregated := NewCutCollection()
	aggregated.CopyFrom(full)

	for {
		dc.rep.Flush()

		// Trial evaluation. Only the very first evaluation of the call is
		// fatal (handled above); a failure here just blocks acceptance.
		ok := q.evaluateTrialObjective()
		dc.term.CheckDirectionComputation(q, dc.qp)
		if ok && (dc.sufficientDecrease(q, 1) || dc.term.RadiiUpdated()) {
			return OutcomeSuccess
		}

		if q.InnerIterations() > dc.opts.InnerIterationLimit {
			if dc.opts.FailOnIterationLimit {
				return OutcomeIterationLimit
			}
			// Exhaustion counts as success: the last computed step stands.
			return OutcomeSuccess
		}
		if q.BudgetExceeded() {
			return OutcomeCPUTimeLimit
		}

		aggregating := dc.opts.TryAggregation && !switchedToFull
		if aggregating {
			dc.compressAggregated(q, cur, aggregated)
		}

		newCuts := NewCutCollection()

		// New cut from the full-step trial point, unless it landed outside
		// the stationarity radius and far points are not admitted.
		if ok && (dc.opts.AddFarPoints || dc.qp.PrimalNormInf() <= q.StationarityRadius()) {
			if q.evaluateTrialGradient() {
				dc.appendTrialCut(q, full, aggregated, newCuts, aggregating)
			}
		}

		if dc.opts.TryShortenedStep {
			if out, accepted := dc.tryShortenedStep(q, full, aggregated, newCuts, aggregating); accepted {
				return out
			}
		}

		dc.reportIteration(q)
		dc.rep.Printf("\n")

		// Resolve. Aggregation cold-solves the compressed collection until
		// the bundle outgrows the threshold, then switches to the full set
		// for the remainder of the call; otherwise the full subproblem is
		// warm-solved with only the newly appended cuts.
		threshold := int(dc.opts.AggregationSizeThreshold * float64(q.NumberOfVariables()))
		switch {
		case aggregating && q.PointSet().Len() < threshold:
			dc.setAndSolve(q, aggregated)
		case aggregating:
			dc.setAndSolve(q, full)
			switchedToFull = true
		default:
			dc.qp.AppendCuts(newCuts.Coefficients(q.PointSet()), newCuts.Biases())
			dc.qp.SolveWarm()
			dc.convertSolutionToStep(q)
		}

		if !dc.qp.Succeeded() {
			if dc.opts.FailOnQPFailure {
				return OutcomeQPFailure
			}
			dc.fallbackToSingleCut(q, full)
			aggregated.CopyFrom(full)
		}
	}
}

// tryShortenedStep evaluates one extra candidate at a stepsize shortened to
// the stationarity radius, acceptance-checking it like the full step and
// turning it into a cut when not accepted. The boolean reports acceptance.
func (dc *DirectionComputer) tryShortenedStep(q *Quantities, full, aggregated, newCuts *CutCollection, aggregating bool) (Outcome, bool) {
	normInf := dc.qp.PrimalNormInf()
	if normInf <= 0 {
		return OutcomeUnset, false
	}
	stepsize := dc.opts.ShortenedStepsize * math.Min(q.StationarityRadius(), normInf) / normInf
	q.SetTrialToStep(stepsize)
	ok := q.evaluateTrialObjective()
	dc.term.CheckDirectionComputation(q, dc.qp)
	if ok && (dc.sufficientDecrease(q, stepsize) || dc.term.RadiiUpdated()) {
		return OutcomeSuccess, true
	}
	if ok && q.evaluateTrialGradient() {
		dc.appendTrialCut(q, full, aggregated, newCuts, aggregating)
	}
	return OutcomeUnset, false
}

// sufficientDecrease is the multi-tier acceptance test. The model decrease is
// min(dual objective, max(combination norm^2, primal norm^2)); the gradient
// and shortened variants additionally scale by their stepsize, the full-step
// variant passes 1.
func (dc *DirectionComputer) sufficientDecrease(q *Quantities, stepsize float64) bool {
	model := math.Min(dc.qp.DualObjective(),
		math.Max(dc.qp.CombinationNorm2Sq(), dc.qp.PrimalNorm2Sq()))
	decrease := q.TrialIterate().Objective() - q.CurrentIterate().Objective()
	return decrease < -dc.opts.StepAcceptanceTolerance*stepsize*model
}

// compressAggregated replaces the aggregated collection with exactly two
// cuts: the current-gradient cut and the multiplier-weighted combination of
// the previous collection. The multipliers come from the last solve and
// correspond positionally to the previous collection.
func (dc *DirectionComputer) compressAggregated(q *Quantities, cur *Iterate, aggregated *CutCollection) {
	omega := dc.qp.Multipliers()
	coeff := make([]float64, q.NumberOfVariables())
	bias := 0.0
	for i := 0; i < dc.qp.MultiplierLen(); i++ {
		c := aggregated.At(i)
		floats.AddScaled(coeff, omega[i], c.Coefficient(q.PointSet()))
		bias += omega[i] * c.Bias()
	}
	aggregated.Reset(
		OwnedCut(cur.Gradient(), cur.Objective()),
		OwnedCut(coeff, bias),
	)
}

// appendTrialCut retains the trial iterate in the bundle and appends its cut
// to every active collection.
func (dc *DirectionComputer) appendTrialCut(q *Quantities, full, aggregated, newCuts *CutCollection, aggregating bool) {
	trial := q.TrialIterate()
	idx := q.PointSet().Append(trial)
	cut := PointCut(idx, downshiftBias(q.CurrentIterate(), trial, dc.opts.DownshiftConstant))
	newCuts.Append(cut)
	full.Append(cut)
	if aggregating {
		aggregated.Append(cut)
	}
}

// fallbackToSingleCut rebuilds the subproblem from the current-gradient cut
// alone and cold-solves it, trading bundle completeness for robustness.
func (dc *DirectionComputer) fallbackToSingleCut(q *Quantities, full *CutCollection) {
	cur := q.CurrentIterate()
	full.Reset(OwnedCut(cur.Gradient(), cur.Objective()))
	dc.setAndSolve(q, full)
}

// setAndSolve hands a collection to the QP solver, cold-solves and converts.
func (dc *DirectionComputer) setAndSolve(q *Quantities, cc *CutCollection) {
	dc.qp.SetCuts(cc.Coefficients(q.PointSet()), cc.Biases())
	dc.qp.Solve()
	dc.convertSolutionToStep(q)
}

// convertSolutionToStep is the bookkeeping run after every solve: counter
// updates, primal copy into the shared direction vector, trial recompute at
// the unit step. No decision logic lives here.
func (dc *DirectionComputer) convertSolutionToStep(q *Quantities) {
	q.IncrementQPIterations(dc.qp.Iterations())
	q.IncrementInnerIterations(1)
	copy(q.Direction(), dc.qp.Primal())
	q.SetTrialToStep(1)
}

// reportIteration appends the per-iteration progress columns.
func (dc *DirectionComputer) reportIteration(q *Quantities) {
	dc.rep.Printf(" %8d %8d %8d %2d %+.2e %+.2e %+.2e",
		q.InnerIterations(), dc.qp.CutCount(), q.QPIterations(),
		int(dc.qp.Status()), dc.qp.KKTError(), dc.qp.PrimalNormInf(),
		dc.qp.DualObjective())
}
