// Package bundle implements the cutting-plane direction computation at the
// heart of the SCREE nonsmooth solver. Each call assembles a convex quadratic
// subproblem from linearizations ("cuts") of the objective gathered at
// sampled points, solves it through the QP collaborator, and drives an inner
// loop of trial-step evaluation, cut aggregation and acceptance checks until
// a descent step is found or a limit is hit.
package bundle

// Evaluator bundles the objective callbacks an Iterate evaluates against.
// FuncGrad is optional; when present it is used for joint evaluation.
type Evaluator struct {
	Func     func(x []float64) (float64, error)
	Grad     func(x, grad []float64) error
	FuncGrad func(x, grad []float64) (float64, error)
}

// Joint reports whether the evaluator supports joint objective/gradient
// evaluation.
func (ev Evaluator) Joint() bool { return ev.FuncGrad != nil }

// Iterate is a point in variable space with lazily evaluated objective and
// gradient caches. Evaluation happens at most once per quantity: repeated
// calls return the cached result, including a cached failure. Iterates
// retained in the point bundle serve as sampled points for future cuts.
type Iterate struct {
	x []float64
	f float64
	g []float64

	fEvaluated, fOK bool
	gEvaluated, gOK bool
}

// NewIterate wraps x as an unevaluated iterate. The slice is retained, not
// copied.
func NewIterate(x []float64) *Iterate {
	return &Iterate{x: x}
}

// Vector returns the position of the iterate.
func (it *Iterate) Vector() []float64 { return it.x }

// Objective returns the cached objective value. Only meaningful after a
// successful EvaluateObjective.
func (it *Iterate) Objective() float64 { return it.f }

// Gradient returns the cached gradient. Only meaningful after a successful
// EvaluateGradient.
func (it *Iterate) Gradient() []float64 { return it.g }

// EvaluateObjective evaluates the objective at the iterate, caching the
// result. It reports whether the evaluation succeeded.
func (it *Iterate) EvaluateObjective(ev Evaluator) bool {
	if it.fEvaluated {
		return it.fOK
	}
	it.fEvaluated = true
	f, err := ev.Func(it.x)
	if err != nil {
		return false
	}
	it.f = f
	it.fOK = true
	return true
}

// EvaluateGradient evaluates the gradient at the iterate, caching the result.
func (it *Iterate) EvaluateGradient(ev Evaluator) bool {
	if it.gEvaluated {
		return it.gOK
	}
	it.gEvaluated = true
	g := make([]float64, len(it.x))
	if err := ev.Grad(it.x, g); err != nil {
		return false
	}
	it.g = g
	it.gOK = true
	return true
}

// EvaluateObjectiveAndGradient evaluates both quantities in one call when the
// evaluator supports it, falling back to separate evaluations otherwise.
func (it *Iterate) EvaluateObjectiveAndGradient(ev Evaluator) bool {
	if ev.FuncGrad == nil {
		return it.EvaluateObjective(ev) && it.EvaluateGradient(ev)
	}
	if it.fEvaluated || it.gEvaluated {
		// Partially cached: fill in whatever is missing separately.
		return it.EvaluateObjective(ev) && it.EvaluateGradient(ev)
	}
	it.fEvaluated, it.gEvaluated = true, true
	g := make([]float64, len(it.x))
	f, err := ev.FuncGrad(it.x, g)
	if err != nil {
		return false
	}
	it.f, it.g = f, g
	it.fOK, it.gOK = true, true
	return true
}
