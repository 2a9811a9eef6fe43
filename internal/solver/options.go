package solver

import (
	"errors"
	"time"

	"github.com/copyleftdev/SCREE/internal/solver/bundle"
	"github.com/copyleftdev/SCREE/internal/solver/termination"
)

// Options configures an outer solve.
type Options struct {
	// Direction configures the cutting-plane direction computation.
	Direction bundle.Options
	// Termination configures the radius-update collaborator.
	Termination termination.Options

	// InitialStationarityRadius selects which bundle points may contribute
	// a cut at the start of the solve.
	InitialStationarityRadius float64
	// InitialTrustRegionRadius is the initial proximal scalar of the QP.
	InitialTrustRegionRadius float64
	// StationarityTolerance stops the outer loop once the stationarity
	// radius has shrunk to it.
	StationarityTolerance float64

	// OuterIterationLimit bounds the outer iterations.
	OuterIterationLimit int
	// QPIterationLimit bounds the QP solver iterations per subproblem.
	QPIterationLimit int
	// PointSetSizeMaximum caps the bundle between outer iterations; zero
	// disables pruning.
	PointSetSizeMaximum int
	// TimeLimit is the wall-clock budget for the whole solve; zero means
	// unlimited.
	TimeLimit time.Duration
}

// DefaultOptions returns the stock solver configuration.
func DefaultOptions() Options {
	return Options{
		Direction:                 bundle.DefaultOptions(),
		Termination:               termination.DefaultOptions(),
		InitialStationarityRadius: 1e0,
		InitialTrustRegionRadius:  1e0,
		StationarityTolerance:     1e-6,
		OuterIterationLimit:       1000,
		QPIterationLimit:          500,
		PointSetSizeMaximum:       250,
	}
}

// Validate checks the numeric ranges, including the nested option blocks.
func (o Options) Validate() error {
	if err := o.Direction.Validate(); err != nil {
		return err
	}
	if err := o.Termination.Validate(); err != nil {
		return err
	}
	switch {
	case o.InitialStationarityRadius <= 0:
		return errors.New("initial stationarity radius must be positive")
	case o.InitialTrustRegionRadius <= 0:
		return errors.New("initial trust region radius must be positive")
	case o.StationarityTolerance <= 0:
		return errors.New("stationarity tolerance must be positive")
	case o.OuterIterationLimit <= 0:
		return errors.New("outer iteration limit must be positive")
	case o.QPIterationLimit <= 0:
		return errors.New("qp iteration limit must be positive")
	case o.PointSetSizeMaximum < 0:
		return errors.New("point set size maximum must not be negative")
	case o.TimeLimit < 0:
		return errors.New("time limit must not be negative")
	}
	return nil
}
