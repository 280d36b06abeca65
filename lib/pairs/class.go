package pairs

/* class.go chooses the inner-loop strategy from the particle count and the
cell occupancy. */

import (
	"fmt"
)

// SystemClass selects the inner-loop strategy of the traversal along two
// axes: sparse or dense cells (whether axis-projection pruning pays off) and
// tiny, medium, or large particle counts (whether parallel batching pays
// off).
type SystemClass int

const (
	// ClassAuto lets Classify pick from the data.
	ClassAuto SystemClass = iota
	Tiny
	MediumSparse
	MediumDense
	LargeSparse
	LargeDense
)

const (
	// tinyLimit and largeLimit split the particle-count axis.
	tinyLimit = 500
	largeLimit = 100_000
	// denseOccupancy is the mean records-per-cell at or above which cells
	// count as dense.
	denseOccupancy = 7
	// minProjected is the aggregate size of a cell pair at or above which
	// the dense classes sort and prune by axis projection.
	minProjected = 10
)

// Classify picks a SystemClass from the number of original particles, the
// number of records, and the number of occupied cells.
func Classify(nreal, ncp, ncwp int) SystemClass {
	if nreal < tinyLimit {
		return Tiny
	}

	dense := ncwp > 0 && ncp >= denseOccupancy*ncwp
	switch {
	case nreal < largeLimit && dense:
		return MediumDense
	case nreal < largeLimit:
		return MediumSparse
	case dense:
		return LargeDense
	default:
		return LargeSparse
	}
}

// Dense returns true if the class uses axis-projection pruning for large
// cell pairs.
func (c SystemClass) Dense() bool {
	return c == MediumDense || c == LargeDense
}

// ParallelOK returns true if the class is large enough for parallel batching
// to pay off.
func (c SystemClass) ParallelOK() bool {
	return c != Tiny
}

func (c SystemClass) String() string {
	switch c {
	case ClassAuto: return "Auto"
	case Tiny: return "Tiny"
	case MediumSparse: return "MediumSparse"
	case MediumDense: return "MediumDense"
	case LargeSparse: return "LargeSparse"
	case LargeDense: return "LargeDense"
	}
	return fmt.Sprintf("SystemClass(%d)", int(c))
}
