// Package solver ties the SCREE components into a nonsmooth optimization
// engine: problem and option types, the outer driving loop, and the outcome
// mapping exposed to callers.
package solver

import (
	"errors"

	"github.com/copyleftdev/SCREE/internal/solver/bundle"
)

// ObjectiveFunc evaluates the objective at x.
type ObjectiveFunc func(x []float64) (float64, error)

// GradientFunc writes a (sub)gradient of the objective at x into grad.
type GradientFunc func(x, grad []float64) error

// ObjectiveGradientFunc evaluates objective and gradient jointly.
type ObjectiveGradientFunc func(x, grad []float64) (float64, error)

// Problem describes the function to be minimized. FuncGrad is optional; when
// set, the engine evaluates objective and gradient in a single call.
type Problem struct {
	Name string
	Dim  int
	Init []float64

	Func     ObjectiveFunc
	Grad     GradientFunc
	FuncGrad ObjectiveGradientFunc
}

// Validate checks the problem is well formed.
func (p *Problem) Validate() error {
	switch {
	case p.Dim <= 0:
		return errors.New("problem dimension must be positive")
	case p.Func == nil:
		return errors.New("objective function is required")
	case p.Grad == nil:
		return errors.New("gradient function is required")
	case p.Init != nil && len(p.Init) != p.Dim:
		return errors.New("initial point length must match the dimension")
	}
	return nil
}

func (p *Problem) evaluator() bundle.Evaluator {
	return bundle.Evaluator{
		Func:     p.Func,
		Grad:     p.Grad,
		FuncGrad: p.FuncGrad,
	}
}
