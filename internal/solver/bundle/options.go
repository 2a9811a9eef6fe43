package bundle

import "errors"

// Options configures the direction computation.
type Options struct {
	// AddFarPoints adds trial points outside the stationarity radius to the
	// cut set during the subproblem solve.
	AddFarPoints bool
	// FailOnIterationLimit makes exceeding the inner iteration limit a
	// failure instead of exhaustion-success.
	FailOnIterationLimit bool
	// FailOnQPFailure makes any QP solver failure fatal instead of falling
	// back to the single-gradient-cut subproblem.
	FailOnQPFailure bool
	// TryAggregation compresses the cut set through dual multipliers to
	// bound subproblem growth.
	TryAggregation bool
	// TryGradientStep checks a plain gradient step before assembling the
	// full cutting-plane subproblem.
	TryGradientStep bool
	// TryShortenedStep considers a shortened step whenever the full QP step
	// does not offer the desired objective reduction.
	TryShortenedStep bool

	// AggregationSizeThreshold scales the variable count into the bundle
	// size at which aggregation permanently switches to the full cut set.
	AggregationSizeThreshold float64
	// DownshiftConstant scales the squared distance term of the downshifted
	// cut bias.
	DownshiftConstant float64
	// GradientStepsize is the fixed stepsize of the gradient-step check.
	GradientStepsize float64
	// ShortenedStepsize scales the shortened step
	// min(stationarity radius, |d|_inf)/|d|_inf.
	ShortenedStepsize float64
	// StepAcceptanceTolerance is the sufficient-decrease tolerance in [0,1].
	StepAcceptanceTolerance float64
	// InnerIterationLimit bounds the inner iterations per call.
	InnerIterationLimit int
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		TryGradientStep:          true,
		TryShortenedStep:         true,
		AggregationSizeThreshold: 1e1,
		DownshiftConstant:        1e-2,
		GradientStepsize:         1e-4,
		ShortenedStepsize:        1e-2,
		StepAcceptanceTolerance:  1e-8,
		InnerIterationLimit:      20,
	}
}

// Validate checks the numeric ranges.
func (o Options) Validate() error {
	switch {
	case o.AggregationSizeThreshold < 0:
		return errors.New("aggregation size threshold must not be negative")
	case o.DownshiftConstant < 0:
		return errors.New("downshift constant must not be negative")
	case o.GradientStepsize < 0:
		return errors.New("gradient stepsize must not be negative")
	case o.ShortenedStepsize < 0:
		return errors.New("shortened stepsize must not be negative")
	case o.StepAcceptanceTolerance < 0 || o.StepAcceptanceTolerance > 1:
		return errors.New("step acceptance tolerance must be in [0,1]")
	case o.InnerIterationLimit < 0:
		return errors.New("inner iteration limit must not be negative")
	}
	return nil
}
