package solver

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copyleftdev/SCREE/internal/solver/bundle"
)

func absValueProblem(dim int, init []float64) Problem {
	return Problem{
		Name: "absvalue",
		Dim:  dim,
		Init: init,
		Func: func(x []float64) (float64, error) {
			f := 0.0
			for _, xi := range x {
				f += math.Abs(xi)
			}
			return f, nil
		},
		Grad: func(x, grad []float64) error {
			for i, xi := range x {
				if xi >= 0 {
					grad[i] = 1
				} else {
					grad[i] = -1
				}
			}
			return nil
		},
	}
}

func maxQProblem(init []float64) Problem {
	argmax := func(x []float64) int {
		best := 0
		for i, xi := range x {
			if xi*xi > x[best]*x[best] {
				best = i
			}
		}
		return best
	}
	return Problem{
		Name: "maxq",
		Dim:  len(init),
		Init: init,
		Func: func(x []float64) (float64, error) {
			j := argmax(x)
			return x[j] * x[j], nil
		},
		Grad: func(x, grad []float64) error {
			for i := range grad {
				grad[i] = 0
			}
			j := argmax(x)
			grad[j] = 2 * x[j]
			return nil
		},
	}
}

func TestEngineSolvesAbsoluteValue(t *testing.T) {
	init := []float64{1, 1, 1, 1, 1}
	engine, err := NewEngine(absValueProblem(5, init), DefaultOptions(), nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Converged, result.Status)
	assert.True(t, result.Status.Success())
	assert.LessOrEqual(t, result.Objective, 1e-2)
	for i, xi := range result.X {
		assert.LessOrEqualf(t, math.Abs(xi), 1e-2, "coordinate %d", i)
	}
	assert.Greater(t, result.OuterIterations, 0)
	assert.Greater(t, result.InnerIterations, 0)
	assert.Greater(t, result.Runtime, time.Duration(0))
}

func TestEngineSolvesMaxQ(t *testing.T) {
	engine, err := NewEngine(maxQProblem([]float64{1, -2}), DefaultOptions(), nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Status.Success(), "status %v", result.Status)
	assert.LessOrEqual(t, result.Objective, 1e-3)
}

func TestLineSearchExtendsConservativeStep(t *testing.T) {
	engine, err := NewEngine(absValueProblem(1, []float64{1}), DefaultOptions(), nil)
	require.NoError(t, err)
	q := engine.quantities
	require.True(t, q.CurrentIterate().EvaluateObjective(q.Evaluator()))

	// A tiny accepted step along a descent direction is extended to the full
	// step, which lands on the minimizer.
	q.Direction()[0] = -1
	q.SetTrialToStep(1e-4)

	engine.lineSearch(q)
	assert.InDelta(t, 0, q.TrialIterate().Vector()[0], 1e-12)
	assert.InDelta(t, 0, q.TrialIterate().Objective(), 1e-12)
}

func TestLineSearchKeepsImprovingTrial(t *testing.T) {
	engine, err := NewEngine(absValueProblem(1, []float64{0.1}), DefaultOptions(), nil)
	require.NoError(t, err)
	q := engine.quantities
	require.True(t, q.CurrentIterate().EvaluateObjective(q.Evaluator()))

	// No probe along an ascent direction qualifies, but the trial improves on
	// the current iterate and stands.
	q.Direction()[0] = 1
	q.SetTrialIterate(bundle.NewIterate([]float64{0.05}))

	engine.lineSearch(q)
	assert.InDelta(t, 0.05, q.TrialIterate().Vector()[0], 1e-12)
}

func TestLineSearchNullStepOnAscentTrial(t *testing.T) {
	engine, err := NewEngine(absValueProblem(1, []float64{1}), DefaultOptions(), nil)
	require.NoError(t, err)
	q := engine.quantities
	require.True(t, q.CurrentIterate().EvaluateObjective(q.Evaluator()))

	// A trial above the current objective with no qualifying probe becomes a
	// null step: the iterate must not move uphill.
	q.Direction()[0] = 1
	q.SetTrialIterate(bundle.NewIterate([]float64{2}))

	engine.lineSearch(q)
	assert.Same(t, q.CurrentIterate(), q.TrialIterate())
}

func TestEngineExhaustionKeepsBestIterate(t *testing.T) {
	opts := DefaultOptions()
	opts.Direction.TryGradientStep = false
	opts.Direction.TryShortenedStep = false
	opts.Direction.InnerIterationLimit = 0
	opts.OuterIterationLimit = 5

	// Starting at the minimizer, every inner loop exhausts its limit at once
	// and hands back an uphill trial; none of them may move the iterate.
	engine, err := NewEngine(absValueProblem(1, nil), opts, nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, MaxOuterIterations, result.Status)
	assert.Equal(t, 0.0, result.Objective)
	assert.Equal(t, 0.0, result.X[0])
}

func TestEngineTimeLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.TimeLimit = time.Nanosecond

	engine, err := NewEngine(absValueProblem(1, nil), opts, nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.ErrorIs(t, err, ErrTimeLimit)
	assert.Equal(t, TimeLimitReached, result.Status)
	assert.False(t, result.Status.Success())
}

func TestEngineEvaluationError(t *testing.T) {
	problem := Problem{
		Name: "failing",
		Dim:  1,
		Func: func([]float64) (float64, error) { return 0, errors.New("no value here") },
		Grad: func(_, _ []float64) error { return nil },
	}
	engine, err := NewEngine(problem, DefaultOptions(), nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.ErrorIs(t, err, ErrEvaluation)
	assert.Equal(t, EvaluationError, result.Status)
	assert.Equal(t, 1, result.OuterIterations)
}

func TestEngineInnerIterationError(t *testing.T) {
	opts := DefaultOptions()
	opts.Direction.TryGradientStep = false
	opts.Direction.TryShortenedStep = false
	opts.Direction.InnerIterationLimit = 0
	opts.Direction.FailOnIterationLimit = true

	// Starting at the minimizer, no step offers a decrease, so the first
	// inner loop already exhausts the limit.
	engine, err := NewEngine(absValueProblem(1, nil), opts, nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background())
	require.ErrorIs(t, err, ErrIterationLimit)
	assert.Equal(t, InnerIterationError, result.Status)
}

func TestEngineCancelledContext(t *testing.T) {
	engine, err := NewEngine(absValueProblem(2, nil), DefaultOptions(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := engine.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Cancelled, result.Status)
	assert.Equal(t, 0, result.OuterIterations)
}

func TestNewEngineValidation(t *testing.T) {
	t.Run("bad problem", func(t *testing.T) {
		problem := absValueProblem(2, nil)
		problem.Func = nil
		_, err := NewEngine(problem, DefaultOptions(), nil)
		assert.Error(t, err)
	})

	t.Run("bad options", func(t *testing.T) {
		opts := DefaultOptions()
		opts.OuterIterationLimit = 0
		_, err := NewEngine(absValueProblem(2, nil), opts, nil)
		assert.Error(t, err)
	})

	t.Run("mismatched initial point", func(t *testing.T) {
		problem := absValueProblem(2, []float64{1})
		_, err := NewEngine(problem, DefaultOptions(), nil)
		assert.Error(t, err)
	})
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "Converged", Converged.String())
	assert.Equal(t, "TimeLimitReached", TimeLimitReached.String())
	assert.Equal(t, "UnregisteredStatus", Status(42).String())
	assert.True(t, Converged.Success())
	assert.False(t, Continue.Success())
	assert.False(t, QPError.Success())
}
