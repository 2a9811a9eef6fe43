package termination

import (
	"math"
	"testing"

	"github.com/copyleftdev/SCREE/internal/solver/bundle"
	"github.com/copyleftdev/SCREE/internal/solver/qp"
)

// solvedQP returns a dual solver whose primal step and combination norm both
// equal measure.
func solvedQP(t *testing.T, measure float64) *qp.DualSolver {
	t.Helper()
	s := qp.NewDualSolver(1, 0)
	s.SetScalar(1)
	s.SetCuts([][]float64{{measure}}, []float64{0})
	s.Solve()
	if !s.Succeeded() {
		t.Fatalf("fixture solve failed with status %v", s.Status())
	}
	return s
}

func newQuantities(stationarity, trust float64) *bundle.Quantities {
	ev := bundle.Evaluator{
		Func: func([]float64) (float64, error) { return 0, nil },
		Grad: func(_, _ []float64) error { return nil },
	}
	q := bundle.NewQuantities(1, ev, []float64{0}, 0)
	q.SetStationarityRadius(stationarity)
	q.SetTrustRegionRadius(trust)
	return q
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Options) {}},
		{name: "zero stationarity factor", mutate: func(o *Options) { o.StationarityFactor = 0 }, wantErr: true},
		{name: "decrease factor one", mutate: func(o *Options) { o.DecreaseFactor = 1 }, wantErr: true},
		{name: "negative radius minimum", mutate: func(o *Options) { o.RadiusMinimum = -1 }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckDirectionComputation(t *testing.T) {
	tests := []struct {
		name         string
		measure      float64
		stationarity float64
		trust        float64
		wantUpdate   bool
		wantRadius   float64
	}{
		{
			name:         "measure above threshold",
			measure:      0.5,
			stationarity: 1,
			trust:        1,
			wantUpdate:   false,
			wantRadius:   1,
		},
		{
			name:         "measure under threshold",
			measure:      0.2,
			stationarity: 1,
			trust:        1,
			wantUpdate:   true,
			wantRadius:   0.1,
		},
		{
			name:         "shrink clamped at the floor",
			measure:      1e-13,
			stationarity: 5e-12,
			trust:        5e-12,
			wantUpdate:   true,
			wantRadius:   1e-12,
		},
		{
			name:         "radius already at the floor",
			measure:      0,
			stationarity: 1e-12,
			trust:        1e-12,
			wantUpdate:   false,
			wantRadius:   1e-12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updater, err := NewRadiusUpdater(DefaultOptions(), nil)
			if err != nil {
				t.Fatalf("NewRadiusUpdater: %v", err)
			}
			q := newQuantities(tt.stationarity, tt.trust)
			s := solvedQP(t, tt.measure)

			updater.CheckDirectionComputation(q, s)

			if updater.RadiiUpdated() != tt.wantUpdate {
				t.Errorf("RadiiUpdated = %v, want %v", updater.RadiiUpdated(), tt.wantUpdate)
			}
			if got := q.StationarityRadius(); math.Abs(got-tt.wantRadius) > 1e-18 {
				t.Errorf("stationarity radius = %v, want %v", got, tt.wantRadius)
			}
			if got := q.TrustRegionRadius(); math.Abs(got-tt.wantRadius) > 1e-18 {
				t.Errorf("trust region radius = %v, want %v", got, tt.wantRadius)
			}
		})
	}
}

func TestCheckResetsBetweenCalls(t *testing.T) {
	updater, err := NewRadiusUpdater(DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("NewRadiusUpdater: %v", err)
	}
	q := newQuantities(1, 1)

	updater.CheckDirectionComputation(q, solvedQP(t, 0.1))
	if !updater.RadiiUpdated() {
		t.Fatal("expected an update for a near-stationary measure")
	}

	// Radius is now 0.1: the same measure no longer clears the threshold and
	// the sticky flag must drop.
	updater.CheckDirectionComputation(q, solvedQP(t, 0.1))
	if updater.RadiiUpdated() {
		t.Error("RadiiUpdated stayed true after a non-updating check")
	}
}
