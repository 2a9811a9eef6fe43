package solver

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/SCREE/internal/solver/bundle"
)

// Backtracking controls for the post-direction line search.
const (
	lineSearchReduction   = 0.5
	lineSearchStepsizeMin = 1e-4
	lineSearchDecreaseTol = 1e-8
)

// lineSearch probes decreasing stepsizes along the computed direction and
// swaps a better trial into the quantities when one is found. The direction
// computation may have accepted a conservative gradient or shortened step; a
// full or near-full step along the same direction frequently reduces the
// objective far more. The trial chosen by the direction computation stands
// when no probe beats both it and the sufficient decrease line, as long as it
// improves on the current iterate at all: a trial that does not — the
// computation accepts one on inner-limit exhaustion and on a forced radius
// update — is turned into a null step instead, so the cuts gathered while
// computing it enrich the next subproblem from an unmoved iterate.
func (e *Engine) lineSearch(q *bundle.Quantities) {
	cur := q.CurrentIterate()
	d := q.Direction()
	dNorm2 := floats.Dot(d, d)
	f0 := cur.Objective()

	bestF := math.Inf(1)
	if q.TrialIterate().EvaluateObjective(q.Evaluator()) {
		bestF = q.TrialIterate().Objective()
	}

	if dNorm2 > 0 {
		for stepsize := 1.0; stepsize >= lineSearchStepsizeMin; stepsize *= lineSearchReduction {
			x := append([]float64(nil), cur.Vector()...)
			floats.AddScaled(x, stepsize, d)
			cand := bundle.NewIterate(x)
			if !cand.EvaluateObjective(q.Evaluator()) {
				continue
			}
			if cand.Objective() < f0-lineSearchDecreaseTol*stepsize*dNorm2 && cand.Objective() < bestF {
				q.SetTrialIterate(cand)
				return
			}
		}
	}

	if bestF >= f0 {
		q.SetTrialToCurrent()
	}
}
