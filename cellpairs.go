/*package cellpairs computes arbitrary reductions over all pairs of points in
N-dimensional space closer than a cutoff, with or without general periodic
boundary conditions. It is a thin façade over the packages in lib/: geom for
box geometry, cells for the spatial hash, and pairs for the traversal and
its parallel driver.

The shape of a computation is always the same: build a Box from the unit
cell and the cutoff, hash positions into a CellList, and fold a callback
over the in-range pairs with MapPairwise.

	box, _ := cellpairs.NewBoxOrtho([]float64{ 250, 250, 250 }, 10, nil)
	pos, _ := cellpairs.Positions(x, 3)
	cl, _ := cellpairs.NewCellList(pos, box, nil)
	u, _ := cellpairs.MapPairwise(
		func(x, y []float64, i, j int, d2 float64, acc float64) float64 {
			return acc + 1/d2
		}, 0.0, cl, nil)
*/
package cellpairs

import (
	"github.com/chemicalfiend/cellpairs/lib/cells"
	"github.com/chemicalfiend/cellpairs/lib/geom"
	"github.com/chemicalfiend/cellpairs/lib/pairs"
	"github.com/chemicalfiend/cellpairs/lib/particles"
)

// Re-exported core types. See the lib packages for documentation.
type (
	Box = geom.Box
	BoxOptions = geom.Options
	CellList = cells.CellList
	CellListPair = cells.Pair
	CellOptions = cells.Options
	Aux = cells.Aux
	SystemClass = pairs.SystemClass
)

// NewBox creates a Box from the row-major n x n unit cell matrix whose
// columns are the lattice vectors.
func NewBox(n int, unit []float64, cutoff float64, opts *BoxOptions) (*Box, error) {
	return geom.New(n, unit, cutoff, opts)
}

// NewBoxOrtho creates an orthorhombic Box from its side lengths.
func NewBoxOrtho(sides []float64, cutoff float64, opts *BoxOptions) (*Box, error) {
	return geom.NewOrtho(sides, cutoff, opts)
}

// NewBoxNoPBC creates a non-periodic Box covering the given limits.
func NewBoxNoPBC(limits []float64, cutoff float64, opts *BoxOptions) (*Box, error) {
	return geom.NewNoPBC(limits, cutoff, opts)
}

// Positions converts [][]float64, [][3]float64, or flat column-major
// []float64 input (with dimension n) into the canonical internal layout.
func Positions(x interface{}, n int) (*particles.Positions, error) {
	return particles.Generic(x, n)
}

// NewCellList hashes positions into the cells of box.
func NewCellList(p *particles.Positions, box *Box, opts *CellOptions) (*CellList, error) {
	return cells.New(p, box, opts)
}

// NewCellListPair builds the two-set structure: the smaller of x and y stays
// flat, the larger is hashed.
func NewCellListPair(x, y *particles.Positions, box *Box, opts *CellOptions) (*CellListPair, error) {
	return cells.NewPair(x, y, box, opts)
}

// MapPairwise folds f over every in-range pair of a single particle set.
func MapPairwise[T any](f pairs.Func[T], out T, cl *CellList, opts *pairs.Options[T]) (T, error) {
	return pairs.MapPairwise(f, out, cl, opts)
}

// MapPairwiseCross folds f over every in-range pair between two disjoint
// particle sets.
func MapPairwiseCross[T any](f pairs.Func[T], out T, pr *CellListPair, opts *pairs.Options[T]) (T, error) {
	return pairs.MapPairwiseCross(f, out, pr, opts)
}
