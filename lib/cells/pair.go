package cells

/* pair.go contains the two-set variant of the cell list: the smaller set is
kept as a flat array and the larger one is hashed. */

import (
	"github.com/chemicalfiend/cellpairs/lib/geom"
	"github.com/chemicalfiend/cellpairs/lib/particles"
)

// Pair holds the data structure for pair traversal between two disjoint
// particle sets. Only the larger set is hashed; periodic coverage comes from
// its image copies, so the small set needs none.
type Pair struct {
	Small *particles.Positions
	Large *CellList
	// Swap records that the caller's (x, y) ordering was reversed to keep
	// the smaller set flat. Callbacks see the original ordering.
	Swap bool
}

// NewPair builds a Pair from the two particle sets x and y. The set with
// fewer particles stays flat; the other is hashed into a CellList.
func NewPair(x, y *particles.Positions, box *geom.Box, opts *Options) (*Pair, error) {
	small, large, swap := x, y, false
	if y.Len() < x.Len() {
		small, large, swap = y, x, true
	}

	cl, err := New(large, box, opts)
	if err != nil {
		return nil, err
	}

	if small.Len() > 0 && small.NDim() != box.NDim {
		return nil, geom.ErrDimensionMismatch
	}

	return &Pair{ Small: small, Large: cl, Swap: swap }, nil
}
