// Package problems provides the named nonsmooth test objectives served by
// the solve API and exercised by the tests. Every objective is convex or
// piecewise smooth with a known minimizer, and every gradient callback
// returns a subgradient at kink points.
package problems

import (
	"fmt"
	"math"
	"sort"

	"github.com/copyleftdev/SCREE/internal/solver"
)

// Builder constructs a problem instance of the given dimension.
type Builder func(dim int) (solver.Problem, error)

var registry = map[string]Builder{
	"absvalue":  AbsValue,
	"maxq":      MaxQ,
	"mxhilb":    MXHILB,
	"chainedlq": ChainedLQ,
}

// Names lists the registered problem names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName builds the named problem at the given dimension.
func ByName(name string, dim int) (solver.Problem, error) {
	build, ok := registry[name]
	if !ok {
		return solver.Problem{}, fmt.Errorf("unknown problem %q", name)
	}
	return build(dim)
}

// AbsValue is f(x) = sum |x_i|, minimized at the origin.
func AbsValue(dim int) (solver.Problem, error) {
	if dim < 1 {
		return solver.Problem{}, fmt.Errorf("absvalue needs dim >= 1, got %d", dim)
	}
	init := make([]float64, dim)
	for i := range init {
		init[i] = 1
	}
	return solver.Problem{
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
	}, nil
}

// MaxQ is f(x) = max_i x_i^2, minimized at the origin.
func MaxQ(dim int) (solver.Problem, error) {
	if dim < 1 {
		return solver.Problem{}, fmt.Errorf("maxq needs dim >= 1, got %d", dim)
	}
	init := make([]float64, dim)
	for i := range init {
		if i < dim/2 {
			init[i] = float64(i + 1)
		} else {
			init[i] = -float64(i + 1)
		}
	}
	argmax := func(x []float64) int {
		best := 0
		for i, xi := range x {
			if xi*xi > x[best]*x[best] {
				best = i
			}
		}
		return best
	}
	return solver.Problem{
		Name: "maxq",
		Dim:  dim,
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
	}, nil
}

// MXHILB is f(x) = max_i |sum_j x_j/(i+j-1)|, the nonsmooth Hilbert test
// function, minimized at the origin.
func MXHILB(dim int) (solver.Problem, error) {
	if dim < 1 {
		return solver.Problem{}, fmt.Errorf("mxhilb needs dim >= 1, got %d", dim)
	}
	init := make([]float64, dim)
	for i := range init {
		init[i] = 1
	}
	residuals := func(x []float64) (int, float64) {
		best, bestAbs, bestR := 0, -1.0, 0.0
		for i := range x {
			r := 0.0
			for j, xj := range x {
				r += xj / float64(i+j+1)
			}
			if math.Abs(r) > bestAbs {
				best, bestAbs, bestR = i, math.Abs(r), r
			}
		}
		return best, bestR
	}
	return solver.Problem{
		Name: "mxhilb",
		Dim:  dim,
		Init: init,
		Func: func(x []float64) (float64, error) {
			_, r := residuals(x)
			return math.Abs(r), nil
		},
		Grad: func(x, grad []float64) error {
			i, r := residuals(x)
			sign := 1.0
			if r < 0 {
				sign = -1
			}
			for j := range grad {
				grad[j] = sign / float64(i+j+1)
			}
			return nil
		},
	}, nil
}

// ChainedLQ is f(x) = sum_{i<n} max(-x_i - x_{i+1},
// -x_i - x_{i+1} + x_i^2 + x_{i+1}^2 - 1), minimized with
// f* = -(n-1)*sqrt(2) at x_i = 1/sqrt(2).
func ChainedLQ(dim int) (solver.Problem, error) {
	if dim < 2 {
		return solver.Problem{}, fmt.Errorf("chainedlq needs dim >= 2, got %d", dim)
	}
	init := make([]float64, dim)
	for i := range init {
		init[i] = -0.5
	}
	return solver.Problem{
		Name: "chainedlq",
		Dim:  dim,
		Init: init,
		Func: func(x []float64) (float64, error) {
			f := 0.0
			for i := 0; i+1 < len(x); i++ {
				linear := -x[i] - x[i+1]
				quad := linear + x[i]*x[i] + x[i+1]*x[i+1] - 1
				f += math.Max(linear, quad)
			}
			return f, nil
		},
		Grad: func(x, grad []float64) error {
			for i := range grad {
				grad[i] = 0
			}
			for i := 0; i+1 < len(x); i++ {
				linear := -x[i] - x[i+1]
				quad := linear + x[i]*x[i] + x[i+1]*x[i+1] - 1
				grad[i]--
				grad[i+1]--
				if quad >= linear {
					grad[i] += 2 * x[i]
					grad[i+1] += 2 * x[i+1]
				}
			}
			return nil
		},
	}, nil
}
