package bundle

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Cut is an affine minorant of the objective: a linear coefficient paired
// with a scalar bias. A cut derived from a sampled point references that
// point's gradient through its bundle index; aggregated and current-gradient
// cuts carry their own coefficient vector.
type Cut struct {
	bias  float64
	point int       // bundle index of the coefficient owner, or -1
	coeff []float64 // coefficient vector when point < 0
}

// OwnedCut builds a cut whose coefficient vector is held directly.
func OwnedCut(coeff []float64, bias float64) Cut {
	return Cut{bias: bias, point: -1, coeff: coeff}
}

// PointCut builds a cut whose coefficient is the gradient of bundle point i.
// The point's gradient must already be evaluated.
func PointCut(i int, bias float64) Cut {
	return Cut{bias: bias, point: i}
}

// Coefficient resolves the cut's coefficient vector against the point set.
func (c Cut) Coefficient(ps *PointSet) []float64 {
	if c.point >= 0 {
		return ps.At(c.point).Gradient()
	}
	return c.coeff
}

// Bias returns the cut's scalar bias.
func (c Cut) Bias() float64 { return c.bias }

// downshiftBias computes the bias for a cut generated at sampled point p
// relative to the current iterate: the minimum of the linearization value
// f(p) + <grad(p), x-p> and the downshifted value f(x) - const*||x-p||^2.
// The minimum keeps the cut a safe minorant near the current iterate.
func downshiftBias(current, p *Iterate, downshiftConst float64) float64 {
	linearization := p.Objective() +
		floats.Dot(p.Gradient(), current.Vector()) -
		floats.Dot(p.Gradient(), p.Vector())
	dist := floats.Distance(current.Vector(), p.Vector(), 2)
	downshifted := current.Objective() - downshiftConst*dist*dist
	return math.Min(linearization, downshifted)
}

// CutCollection is an ordered sequence of cuts. Its order must always match
// the QP collaborator's internal cut order: the dual multiplier at position i
// belongs to the cut at position i.
type CutCollection struct {
	cuts []Cut
}

// NewCutCollection returns a collection holding the given cuts.
func NewCutCollection(cuts ...Cut) *CutCollection {
	return &CutCollection{cuts: append([]Cut(nil), cuts...)}
}

// Append adds cuts at the end of the collection.
func (cc *CutCollection) Append(cuts ...Cut) {
	cc.cuts = append(cc.cuts, cuts...)
}

// Reset replaces the collection's contents.
func (cc *CutCollection) Reset(cuts ...Cut) {
	cc.cuts = append(cc.cuts[:0], cuts...)
}

// CopyFrom makes the collection an element-wise copy of other.
func (cc *CutCollection) CopyFrom(other *CutCollection) {
	cc.cuts = append(cc.cuts[:0], other.cuts...)
}

// Len returns the number of cuts.
func (cc *CutCollection) Len() int { return len(cc.cuts) }

// At returns the cut at position i.
func (cc *CutCollection) At(i int) Cut { return cc.cuts[i] }

// Coefficients resolves every cut's coefficient vector, in order.
func (cc *CutCollection) Coefficients(ps *PointSet) [][]float64 {
	coeffs := make([][]float64, len(cc.cuts))
	for i, c := range cc.cuts {
		coeffs[i] = c.Coefficient(ps)
	}
	return coeffs
}

// Biases returns every cut's bias, in order.
func (cc *CutCollection) Biases() []float64 {
	biases := make([]float64, len(cc.cuts))
	for i, c := range cc.cuts {
		biases[i] = c.Bias()
	}
	return biases
}
