package qp

import (
	"math"
	"testing"
)

func TestProjectSimplex(t *testing.T) {
	tests := []struct {
		name     string
		v        []float64
		expected []float64
	}{
		{
			name:     "already on simplex",
			v:        []float64{0.3, 0.7},
			expected: []float64{0.3, 0.7},
		},
		{
			name:     "vertex overshoot",
			v:        []float64{2.0, 0.0},
			expected: []float64{1.0, 0.0},
		},
		{
			name:     "uniform overshoot",
			v:        []float64{1.0, 1.0},
			expected: []float64{0.5, 0.5},
		},
		{
			name:     "negative component clipped",
			v:        []float64{1.5, -0.5},
			expected: []float64{1.0, 0.0},
		},
		{
			name:     "three components",
			v:        []float64{0.5, 0.5, 0.5},
			expected: []float64{1.0 / 3, 1.0 / 3, 1.0 / 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := append([]float64(nil), tt.v...)
			projectSimplex(v)

			sum := 0.0
			for i := range v {
				if math.Abs(v[i]-tt.expected[i]) > 1e-12 {
					t.Errorf("component %d: expected %v, got %v", i, tt.expected[i], v[i])
				}
				if v[i] < 0 {
					t.Errorf("component %d is negative: %v", i, v[i])
				}
				sum += v[i]
			}
			if math.Abs(sum-1) > 1e-12 {
				t.Errorf("components sum to %v, want 1", sum)
			}
		})
	}
}

func TestSolveSingleCut(t *testing.T) {
	s := NewDualSolver(2, 0)
	s.SetScalar(2)
	s.SetTolerance(1e-6)
	s.SetCuts([][]float64{{1, 2}}, []float64{0})
	s.Solve()

	if !s.Succeeded() {
		t.Fatalf("solve failed with status %v", s.Status())
	}
	// The simplex pins omega to 1, so d = -s*g.
	want := []float64{-2, -4}
	for i, di := range s.Primal() {
		if math.Abs(di-want[i]) > 1e-10 {
			t.Errorf("primal[%d] = %v, want %v", i, di, want[i])
		}
	}
	if got := s.PrimalNormInf(); math.Abs(got-4) > 1e-10 {
		t.Errorf("PrimalNormInf = %v, want 4", got)
	}
	if got := s.DualObjective(); math.Abs(got-5) > 1e-10 {
		t.Errorf("DualObjective = %v, want 5", got)
	}
	if s.MultiplierLen() != s.CutCount() {
		t.Errorf("multiplier length %d does not match cut count %d", s.MultiplierLen(), s.CutCount())
	}
}

func TestSolveOpposingCuts(t *testing.T) {
	// Two opposing unit cuts with biases 0.5 and 0. The dual reduces to the
	// scalar problem min over a of (2a-1)^2/2 - a/2 with omega = (a, 1-a),
	// minimized at a = 0.625 with combination 0.25.
	s := NewDualSolver(1, 0)
	s.SetScalar(1)
	s.SetTolerance(0)
	s.SetCuts([][]float64{{1}, {-1}}, []float64{0.5, 0})
	s.Solve()

	if !s.Succeeded() {
		t.Fatalf("solve failed with status %v", s.Status())
	}
	omega := s.Multipliers()
	if math.Abs(omega[0]-0.625) > 1e-6 || math.Abs(omega[1]-0.375) > 1e-6 {
		t.Errorf("multipliers = %v, want [0.625 0.375]", omega)
	}
	if got := s.Primal()[0]; math.Abs(got+0.25) > 1e-6 {
		t.Errorf("primal = %v, want -0.25", got)
	}
	if got := s.CombinationNorm2Sq(); math.Abs(got-0.0625) > 1e-6 {
		t.Errorf("CombinationNorm2Sq = %v, want 0.0625", got)
	}
}

func TestSolveWarmMatchesCold(t *testing.T) {
	coeffs := [][]float64{{1}, {-1}}
	biases := []float64{0.5, 0}

	cold := NewDualSolver(1, 0)
	cold.SetScalar(1)
	cold.SetCuts(coeffs, biases)
	cold.Solve()

	warm := NewDualSolver(1, 0)
	warm.SetScalar(1)
	warm.SetCuts(coeffs[:1], biases[:1])
	warm.Solve()
	warm.AppendCuts(coeffs[1:], biases[1:])
	warm.SolveWarm()

	if !cold.Succeeded() || !warm.Succeeded() {
		t.Fatalf("statuses: cold %v, warm %v", cold.Status(), warm.Status())
	}
	if warm.MultiplierLen() != warm.CutCount() {
		t.Fatalf("warm multiplier length %d does not match cut count %d", warm.MultiplierLen(), warm.CutCount())
	}
	for i := range cold.Multipliers() {
		if math.Abs(cold.Multipliers()[i]-warm.Multipliers()[i]) > 1e-6 {
			t.Errorf("multiplier %d: cold %v, warm %v", i, cold.Multipliers()[i], warm.Multipliers()[i])
		}
	}
	if math.Abs(cold.Primal()[0]-warm.Primal()[0]) > 1e-6 {
		t.Errorf("primal: cold %v, warm %v", cold.Primal()[0], warm.Primal()[0])
	}
}

func TestSolveWarmAfterDataReplacement(t *testing.T) {
	s := NewDualSolver(1, 0)
	s.SetCuts([][]float64{{1}, {-1}}, []float64{0, 0})
	// No cold solve in between, so the multipliers are stale and the warm
	// solve must recover with a cold start.
	s.SolveWarm()

	if !s.Succeeded() {
		t.Fatalf("solve failed with status %v", s.Status())
	}
	if s.MultiplierLen() != 2 {
		t.Fatalf("multiplier length %d, want 2", s.MultiplierLen())
	}
	if got := math.Abs(s.Primal()[0]); got > 1e-6 {
		t.Errorf("primal = %v, want 0", s.Primal()[0])
	}
}

func TestSolveNoCuts(t *testing.T) {
	s := NewDualSolver(3, 0)
	s.Solve()

	if !s.Succeeded() {
		t.Fatalf("solve failed with status %v", s.Status())
	}
	if got := s.PrimalNormInf(); got != 0 {
		t.Errorf("PrimalNormInf = %v, want 0", got)
	}
}

func TestSolveIterationLimit(t *testing.T) {
	s := NewDualSolver(1, 1)
	s.SetScalar(1)
	s.SetTolerance(0)
	s.SetCuts([][]float64{{1}, {-1}}, []float64{0.5, 0})
	s.Solve()

	if s.Status() != StatusIterationLimit {
		t.Fatalf("status %v, want %v", s.Status(), StatusIterationLimit)
	}
	if s.Succeeded() {
		t.Error("Succeeded reported true on an iteration-limited solve")
	}
	if s.Iterations() != 1 {
		t.Errorf("Iterations = %d, want 1", s.Iterations())
	}
}
