package solver

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/copyleftdev/SCREE/internal/solver/bundle"
	"github.com/copyleftdev/SCREE/internal/solver/qp"
	"github.com/copyleftdev/SCREE/internal/solver/termination"
)

// Sentinel errors matching the failure statuses.
var (
	ErrEvaluation     = errors.New("objective evaluation failed")
	ErrQPFailure      = errors.New("qp solver failed")
	ErrIterationLimit = errors.New("inner iteration limit exceeded")
	ErrTimeLimit      = errors.New("time limit reached")
)

// Result is the outcome of an outer solve. X and Objective hold the final
// iterate; on a failure status they retain the last accepted values and
// Status must be consulted before trusting them.
type Result struct {
	X         []float64
	Objective float64
	Status    Status

	OuterIterations int
	InnerIterations int
	QPIterations    int
	BundleSize      int
	Runtime         time.Duration
}

// Engine is the outer driving loop: it repeatedly runs the cutting-plane
// direction computation, accepts the trial step on success and stops once
// the stationarity radius has shrunk to tolerance or a limit is reached.
type Engine struct {
	problem Problem
	opts    Options
	log     *zap.Logger

	quantities *bundle.Quantities
	direction  *bundle.DirectionComputer
}

// NewEngine validates the problem and options and wires the collaborators.
func NewEngine(problem Problem, opts Options, log *zap.Logger) (*Engine, error) {
	if err := problem.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	x0 := problem.Init
	if x0 == nil {
		x0 = make([]float64, problem.Dim)
	}

	quantities := bundle.NewQuantities(problem.Dim, problem.evaluator(), x0, opts.TimeLimit)
	quantities.SetStationarityRadius(opts.InitialStationarityRadius)
	quantities.SetTrustRegionRadius(opts.InitialTrustRegionRadius)

	solver := qp.NewDualSolver(problem.Dim, opts.QPIterationLimit)
	updater, err := termination.NewRadiusUpdater(opts.Termination, log)
	if err != nil {
		return nil, err
	}
	reporter := bundle.NewReporter(log)
	direction, err := bundle.NewDirectionComputer(opts.Direction, solver, updater, reporter, log)
	if err != nil {
		return nil, err
	}

	return &Engine{
		problem:    problem,
		opts:       opts,
		log:        log.With(zap.String("problem", problem.Name)),
		quantities: quantities,
		direction:  direction,
	}, nil
}

// Run drives the solve to termination. The returned error is non-nil for
// failure statuses and context cancellation; the result is returned in
// either case.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	q := e.quantities

	status := Continue
	outer := 0

	for outer < e.opts.OuterIterationLimit {
		select {
		case <-ctx.Done():
			status = Cancelled
		default:
		}
		if status != Continue {
			break
		}

		outcome := e.direction.Compute(q)
		outer++

		switch outcome {
		case bundle.OutcomeSuccess:
			e.lineSearch(q)
			prev := q.CurrentIterate()
			q.AcceptTrial()
			if q.CurrentIterate() != prev {
				q.PointSet().Append(prev)
			}
			e.pruneBundle(q)
		case bundle.OutcomeCPUTimeLimit:
			status = TimeLimitReached
		case bundle.OutcomeEvaluationFailure:
			status = EvaluationError
		case bundle.OutcomeIterationLimit:
			status = InnerIterationError
		case bundle.OutcomeQPFailure:
			status = QPError
		}
		if status != Continue {
			break
		}

		e.log.Debug("outer iteration",
			zap.Int("iteration", outer),
			zap.Float64("objective", q.CurrentIterate().Objective()),
			zap.Float64("stationarity_radius", q.StationarityRadius()))

		if q.StationarityRadius() <= e.opts.StationarityTolerance {
			status = Converged
			break
		}
	}
	if status == Continue {
		status = MaxOuterIterations
	}

	result := &Result{
		X:               append([]float64(nil), q.CurrentIterate().Vector()...),
		Objective:       q.CurrentIterate().Objective(),
		Status:          status,
		OuterIterations: outer,
		InnerIterations: q.TotalInnerIterations(),
		QPIterations:    q.TotalQPIterations(),
		BundleSize:      q.PointSet().Len(),
		Runtime:         time.Since(start),
	}

	e.log.Info("solve finished",
		zap.String("status", status.String()),
		zap.Float64("objective", result.Objective),
		zap.Int("outer_iterations", outer),
		zap.Duration("runtime", result.Runtime))

	return result, e.statusError(ctx, status)
}

func (e *Engine) statusError(ctx context.Context, status Status) error {
	switch status {
	case EvaluationError:
		return ErrEvaluation
	case QPError:
		return ErrQPFailure
	case InnerIterationError:
		return ErrIterationLimit
	case TimeLimitReached:
		return ErrTimeLimit
	case Cancelled:
		return ctx.Err()
	}
	return nil
}

// pruneBundle caps the bundle between direction computations. Points far
// from the new current iterate contribute no trustworthy cut and go first;
// when everything is close, the oldest points go until the cap holds.
func (e *Engine) pruneBundle(q *bundle.Quantities) {
	maxSize := e.opts.PointSetSizeMaximum
	if maxSize == 0 || q.PointSet().Len() <= maxSize {
		return
	}
	cur := q.CurrentIterate().Vector()
	radius := q.StationarityRadius()
	q.PointSet().Retain(func(p *bundle.Iterate) bool {
		return floats.Distance(cur, p.Vector(), math.Inf(1)) <= radius
	})
	if drop := q.PointSet().Len() - maxSize; drop > 0 {
		seen := 0
		q.PointSet().Retain(func(*bundle.Iterate) bool {
			seen++
			return seen > drop
		})
	}
}
