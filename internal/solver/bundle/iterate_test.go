package bundle

import (
	"errors"
	"testing"
)

func TestIterateCachesEvaluations(t *testing.T) {
	funcCalls, gradCalls := 0, 0
	ev := Evaluator{
		Func: func(x []float64) (float64, error) {
			funcCalls++
			return x[0] * x[0], nil
		},
		Grad: func(x, grad []float64) error {
			gradCalls++
			grad[0] = 2 * x[0]
			return nil
		},
	}

	it := NewIterate([]float64{3})
	for i := 0; i < 3; i++ {
		if !it.EvaluateObjective(ev) {
			t.Fatal("objective evaluation failed")
		}
		if !it.EvaluateGradient(ev) {
			t.Fatal("gradient evaluation failed")
		}
	}

	if funcCalls != 1 || gradCalls != 1 {
		t.Errorf("callback calls: func %d, grad %d, want 1 each", funcCalls, gradCalls)
	}
	if it.Objective() != 9 {
		t.Errorf("Objective = %v, want 9", it.Objective())
	}
	if it.Gradient()[0] != 6 {
		t.Errorf("Gradient = %v, want [6]", it.Gradient())
	}
}

func TestIterateCachesFailure(t *testing.T) {
	calls := 0
	ev := Evaluator{
		Func: func([]float64) (float64, error) {
			calls++
			return 0, errors.New("domain error")
		},
	}

	it := NewIterate([]float64{1})
	if it.EvaluateObjective(ev) {
		t.Fatal("evaluation reported success for a failing callback")
	}
	if it.EvaluateObjective(ev) {
		t.Fatal("cached failure reported success")
	}
	if calls != 1 {
		t.Errorf("callback called %d times, want 1", calls)
	}
}

func TestIterateJointEvaluation(t *testing.T) {
	jointCalls, funcCalls, gradCalls := 0, 0, 0
	ev := Evaluator{
		Func: func(x []float64) (float64, error) {
			funcCalls++
			return x[0], nil
		},
		Grad: func(_, grad []float64) error {
			gradCalls++
			grad[0] = 1
			return nil
		},
		FuncGrad: func(x, grad []float64) (float64, error) {
			jointCalls++
			grad[0] = 1
			return x[0], nil
		},
	}
	if !ev.Joint() {
		t.Fatal("Joint reported false with FuncGrad set")
	}

	it := NewIterate([]float64{2})
	if !it.EvaluateObjectiveAndGradient(ev) {
		t.Fatal("joint evaluation failed")
	}
	if jointCalls != 1 || funcCalls != 0 || gradCalls != 0 {
		t.Errorf("calls: joint %d, func %d, grad %d, want joint only", jointCalls, funcCalls, gradCalls)
	}
	if it.Objective() != 2 || it.Gradient()[0] != 1 {
		t.Errorf("cached f=%v g=%v, want 2 and [1]", it.Objective(), it.Gradient())
	}

	// A partially cached iterate falls back to separate evaluation for the
	// missing quantity.
	it2 := NewIterate([]float64{2})
	if !it2.EvaluateObjective(ev) {
		t.Fatal("objective evaluation failed")
	}
	if !it2.EvaluateObjectiveAndGradient(ev) {
		t.Fatal("joint evaluation failed on a partially cached iterate")
	}
	if jointCalls != 1 {
		t.Errorf("joint callback reached on a partially cached iterate")
	}
	if gradCalls != 1 {
		t.Errorf("gradient callback called %d times, want 1", gradCalls)
	}
}
