// Package termination implements the radius-update collaborator consulted by
// the direction computation. Each check may shrink the stationarity and
// trust-region radii when the subproblem signals near-stationarity at the
// current scale; a shrink forces acceptance of the pending trial step.
package termination

import (
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/copyleftdev/SCREE/internal/solver/bundle"
)

// Options configures the radius-update rule.
type Options struct {
	// StationarityFactor scales the stationarity radius into the threshold
	// under which the dual stationarity measure triggers a radius update.
	StationarityFactor float64
	// DecreaseFactor multiplies both radii on an update.
	DecreaseFactor float64
	// RadiusMinimum is the floor below which radii are not decreased.
	RadiusMinimum float64
}

// DefaultOptions returns the stock radius-update configuration.
func DefaultOptions() Options {
	return Options{
		StationarityFactor: 2.5e-1,
		DecreaseFactor:     1e-1,
		RadiusMinimum:      1e-12,
	}
}

// Validate checks the numeric ranges.
func (o Options) Validate() error {
	switch {
	case o.StationarityFactor <= 0:
		return errors.New("stationarity factor must be positive")
	case o.DecreaseFactor <= 0 || o.DecreaseFactor >= 1:
		return errors.New("decrease factor must be in (0,1)")
	case o.RadiusMinimum < 0:
		return errors.New("radius minimum must not be negative")
	}
	return nil
}

// RadiusUpdater adjusts the radii held by Quantities and remembers whether
// the last check did so.
type RadiusUpdater struct {
	opts    Options
	log     *zap.Logger
	updated bool
}

// NewRadiusUpdater validates the options and builds the collaborator.
func NewRadiusUpdater(opts Options, log *zap.Logger) (*RadiusUpdater, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RadiusUpdater{opts: opts, log: log}, nil
}

// CheckDirectionComputation shrinks both radii when the stationarity measure
// max(|d|_inf, ||G*omega||) of the last solve falls under the scaled
// stationarity radius. The result is queryable through RadiiUpdated until
// the next check.
func (t *RadiusUpdater) CheckDirectionComputation(q *bundle.Quantities, s bundle.QPSolver) {
	t.updated = false

	radius := q.StationarityRadius()
	if radius <= t.opts.RadiusMinimum {
		return
	}
	measure := math.Max(s.PrimalNormInf(), math.Sqrt(s.CombinationNorm2Sq()))
	if measure > t.opts.StationarityFactor*radius {
		return
	}

	q.SetStationarityRadius(math.Max(t.opts.RadiusMinimum, radius*t.opts.DecreaseFactor))
	q.SetTrustRegionRadius(math.Max(t.opts.RadiusMinimum, q.TrustRegionRadius()*t.opts.DecreaseFactor))
	t.updated = true
	t.log.Debug("radii updated",
		zap.Float64("measure", measure),
		zap.Float64("stationarity_radius", q.StationarityRadius()),
		zap.Float64("trust_region_radius", q.TrustRegionRadius()))
}

// RadiiUpdated reports whether the last check adjusted the radii, which
// forces acceptance of the pending trial step.
func (t *RadiusUpdater) RadiiUpdated() bool { return t.updated }
