/*package neighbor builds explicit neighbor lists on top of the pair
traversal. It is the simplest callback instantiation of the engine and a
convenient surface for callers who just want the pairs.*/
package neighbor

import (
	"math"
	"sort"

	"github.com/chemicalfiend/cellpairs/lib/cells"
	"github.com/chemicalfiend/cellpairs/lib/pairs"
	"github.com/chemicalfiend/cellpairs/lib/particles"
	"github.com/chemicalfiend/cellpairs/lib/geom"
)

// Pair is one entry of a neighbor list: the 1-based indices of the two
// particles and their distance.
type Pair struct {
	I, J int
	D float64
}

// List returns every pair of distinct particles in p closer than the box
// cutoff, sorted by (I, J).
func List(p *particles.Positions, box *geom.Box, opts *cells.Options) ([]Pair, error) {
	cl, err := cells.New(p, box, opts)
	if err != nil {
		return nil, err
	}

	out, err := pairs.MapPairwise(appendPairSym, []Pair{ }, cl, listOptions())
	if err != nil {
		return nil, err
	}
	sortPairs(out)
	return out, nil
}

// ListCross returns every pair between the sets x and y closer than the box
// cutoff, with I indexing x and J indexing y, sorted by (I, J).
func ListCross(x, y *particles.Positions, box *geom.Box, opts *cells.Options) ([]Pair, error) {
	pr, err := cells.NewPair(x, y, box, opts)
	if err != nil {
		return nil, err
	}

	out, err := pairs.MapPairwiseCross(appendPair, []Pair{ }, pr, listOptions())
	if err != nil {
		return nil, err
	}
	sortPairs(out)
	return out, nil
}

func appendPair(x, y []float64, i, j int, d2 float64, acc []Pair) []Pair {
	return append(acc, Pair{ i, j, math.Sqrt(d2) })
}

// appendPairSym normalizes the index order: within a single set the pair
// (i, j) is unordered.
func appendPairSym(x, y []float64, i, j int, d2 float64, acc []Pair) []Pair {
	if j < i {
		i, j = j, i
	}
	return append(acc, Pair{ i, j, math.Sqrt(d2) })
}

// listOptions supplies the append-flavored replica pair: batches start
// empty and reduction concatenates. The final sort restores a stable order.
func listOptions() *pairs.Options[[]Pair] {
	return &pairs.Options[[]Pair]{
		Copy: func(x []Pair) []Pair {
			c := make([]Pair, len(x))
			copy(c, x)
			return c
		},
		Reduce: func(a, b []Pair) []Pair { return append(a, b...) },
	}
}

func sortPairs(x []Pair) {
	sort.Slice(x, func(i, j int) bool {
		if x[i].I != x[j].I { return x[i].I < x[j].I }
		return x[i].J < x[j].J
	})
}
