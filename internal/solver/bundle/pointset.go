package bundle

// PointSet is the bundle of sampled points: an append-only arena of iterates
// addressed by stable indices. Cuts derived from a sampled point hold its
// index rather than a gradient alias, so the set can grow without
// invalidating them. The direction computation only ever appends; pruning
// between outer iterations is the owner's business.
type PointSet struct {
	points []*Iterate
}

// NewPointSet returns an empty point set.
func NewPointSet() *PointSet {
	return &PointSet{}
}

// Append adds a sampled point and returns its stable index.
func (ps *PointSet) Append(it *Iterate) int {
	ps.points = append(ps.points, it)
	return len(ps.points) - 1
}

// At returns the point stored at index i.
func (ps *PointSet) At(i int) *Iterate { return ps.points[i] }

// Len returns the number of sampled points.
func (ps *PointSet) Len() int { return len(ps.points) }

// Retain keeps only the points for which keep returns true. Indices held by
// cuts are invalidated, so this must not be called while a direction
// computation is in flight.
func (ps *PointSet) Retain(keep func(*Iterate) bool) {
	kept := ps.points[:0]
	for _, p := range ps.points {
		if keep(p) {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(ps.points); i++ {
		ps.points[i] = nil
	}
	ps.points = kept
}
