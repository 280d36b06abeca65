/*package cells contains the spatial hash at the center of the pair engine: a
grid of cutoff-sized cells, each holding a singly-linked chain of the
particles (and periodic image copies) that fall inside it.*/
package cells

import (
	"fmt"

	"github.com/chemicalfiend/cellpairs/lib/geom"
	"github.com/chemicalfiend/cellpairs/lib/particles"
)

// Cell describes one non-empty grid cell.
type Cell struct {
	// Linear is the linear index of the cell in the grid.
	Linear int
	// Cart is its Cartesian index and Center its axis-aligned center. Both
	// are views into internal arrays.
	Cart []int
	Center []float64
}

// CellList is a spatial hash over the expanded box of a geom.Box. Particle
// records live in 1-based slots: slot 0 is the chain terminator. Records
// whose Orig entry is negative are periodic image copies of the particle
// with the negated index.
type CellList struct {
	Box *geom.Box
	// NDim is the spatial dimension, NReal the number of original particles.
	NDim, NReal int
	// Ncwp is the number of cells with particles and Ncp the number of
	// particle records, image copies included.
	Ncwp, Ncp int

	// Fp holds the head slot of each cell's chain (0 when empty), Np the
	// next slot of each record (0 terminates), and NpCell the record count
	// of each cell. Fp and NpCell are indexed by linear cell index, Np by
	// slot.
	Fp, Np, NpCell []int
	// Orig holds the signed original index of each slot and Pos its
	// coordinates, flattened with stride NDim.
	Orig []int
	Pos []float64
	// MaxOcc is the largest per-cell record count, which sizes the
	// projection scratch used by dense-cell traversal.
	MaxOcc int
	// MapBatches is the map batch count requested at construction, used by
	// the traversal when its own options leave the count unset.
	MapBatches int

	cwpLinear []int
	cwpCart []int
	cwpCenter []float64

	scr scratch
}

// scratch holds the per-insertion buffers so that neither build nor update
// allocates per particle.
type scratch struct {
	w, t, p []float64
	r, cart []int
}

func newScratch(n int) scratch {
	return scratch{
		w: make([]float64, n), t: make([]float64, n), p: make([]float64, n),
		r: make([]int, n), cart: make([]int, n),
	}
}

// Options contains optional CellList parameters. The zero value gives the
// defaults.
type Options struct {
	// Parallel enables multi-threaded construction.
	Parallel bool
	// NBatches holds the build and map batch counts, in that order. Zero
	// entries mean "choose from the thread count".
	NBatches [2]int
}

// New builds a CellList containing every particle of p, wrapped into the
// unit cell of box, plus every periodic image copy that lands within a
// cutoff of it.
func New(p *particles.Positions, box *geom.Box, opts *Options) (*CellList, error) {
	if p.Len() > 0 && p.NDim() != box.NDim {
		return nil, fmt.Errorf("%w: positions are %d-dimensional, but the "+
			"box is %d-dimensional.", geom.ErrDimensionMismatch,
			p.NDim(), box.NDim)
	}

	n := box.NDim
	cl := &CellList{
		Box: box, NDim: n,
		Fp: make([]int, box.Grid.Len),
		NpCell: make([]int, box.Grid.Len),
		Np: make([]int, 1, p.Len()+1),
		Orig: make([]int, 1, p.Len()+1),
		Pos: make([]float64, n, (p.Len()+1)*n),
		scr: newScratch(n),
	}

	if opts != nil {
		cl.MapBatches = opts.NBatches[1]
	}
	if opts != nil && opts.Parallel {
		aux := NewAux(cl, batchCount(opts.NBatches[0]))
		cl.insertAllParallel(p, aux)
	} else {
		cl.insertAll(p, 0, p.Len())
	}
	return cl, nil
}

// Cell returns the i'th non-empty cell, for i in [0, Ncwp).
func (cl *CellList) Cell(i int) Cell {
	n := cl.NDim
	return Cell{
		Linear: cl.cwpLinear[i],
		Cart: cl.cwpCart[i*n : (i+1)*n],
		Center: cl.cwpCenter[i*n : (i+1)*n],
	}
}

// Position returns the coordinates of the record in the given slot as a view
// into the internal array.
func (cl *CellList) Position(slot int) []float64 {
	return cl.Pos[slot*cl.NDim : (slot+1)*cl.NDim]
}

// insertAll inserts the particles of p with indices in [lo, hi), together
// with their periodic image copies.
func (cl *CellList) insertAll(p *particles.Positions, lo, hi int) {
	if hi > cl.NReal { cl.NReal = hi }
	for i := lo; i < hi; i++ {
		cl.insert(p.At(i), i+1)
	}
}

// insert wraps one particle into the unit cell and adds it plus every image
// copy that lands inside the expanded box. Original indices are 1-based;
// image copies store the negated index.
func (cl *CellList) insert(pos []float64, orig int) {
	box, s, n := cl.Box, &cl.scr, cl.NDim
	box.Wrap(pos, s.w)

	for a := 0; a < n; a++ {
		s.r[a] = box.ImageMin[a]
	}
	for {
		zero := true
		for a := 0; a < n; a++ {
			if s.r[a] != 0 {
				zero = false
				break
			}
		}

		if zero {
			cl.addWrapped(s.w, orig)
		} else {
			box.ImageTranslation(s.r, s.t)
			for a := 0; a < n; a++ {
				s.p[a] = s.w[a] + s.t[a]
			}
			if box.InExpanded(s.p) {
				cl.addWrapped(s.p, -orig)
			}
		}

		a := 0
		for a < n {
			s.r[a]++
			if s.r[a] <= box.ImageMax[a] { break }
			s.r[a] = box.ImageMin[a]
			a++
		}
		if a == n { break }
	}
}

// addWrapped appends a record for an already wrapped or translated position
// and pushes it onto its cell's chain.
func (cl *CellList) addWrapped(pos []float64, orig int) {
	box, n := cl.Box, cl.NDim
	box.CellOf(pos, cl.scr.cart)
	c := box.Grid.Idx(cl.scr.cart)

	slot := len(cl.Orig)
	cl.Orig = append(cl.Orig, orig)
	cl.Pos = append(cl.Pos, pos...)

	if cl.NpCell[c] == 0 {
		cl.cwpLinear = append(cl.cwpLinear, c)
		cl.cwpCart = append(cl.cwpCart, cl.scr.cart...)
		center := make([]float64, n)
		box.CellCenter(cl.scr.cart, center)
		cl.cwpCenter = append(cl.cwpCenter, center...)
		cl.Ncwp++
	}

	cl.Np = append(cl.Np, cl.Fp[c])
	cl.Fp[c] = slot
	cl.NpCell[c]++
	if cl.NpCell[c] > cl.MaxOcc { cl.MaxOcc = cl.NpCell[c] }
	cl.Ncp++
}
