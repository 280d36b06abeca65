package cells

/* update.go contains the in-place refresh of a CellList from new coordinates
and the multi-threaded construction path. */

import (
	"runtime"
	"sync"

	"github.com/chemicalfiend/cellpairs/lib/geom"
	"github.com/chemicalfiend/cellpairs/lib/particles"
)

// Aux holds per-worker partial cell lists so that repeated parallel builds
// and updates do not reallocate them.
type Aux struct {
	lists []*CellList
}

// NewAux creates build scratch for nw workers compatible with cl.
func NewAux(cl *CellList, nw int) *Aux {
	aux := &Aux{ lists: make([]*CellList, nw) }
	for i := range aux.lists {
		aux.lists[i] = &CellList{
			Box: cl.Box, NDim: cl.NDim,
			Fp: make([]int, cl.Box.Grid.Len),
			NpCell: make([]int, cl.Box.Grid.Len),
			Np: make([]int, 1),
			Orig: make([]int, 1),
			Pos: make([]float64, cl.NDim),
			scr: newScratch(cl.NDim),
		}
	}
	return aux
}

// Update refreshes cl in place from new positions, which may have a
// different count than the previous ones. A nil box keeps the current
// geometry; a different box rebuilds the grid, reusing the old arrays when
// they are large enough. A non-nil aux parallelizes the refresh.
func (cl *CellList) Update(p *particles.Positions, box *geom.Box, aux *Aux) error {
	if box == nil {
		box = cl.Box
	}
	if box.NDim != cl.NDim || (p.Len() > 0 && p.NDim() != box.NDim) {
		return geom.ErrDimensionMismatch
	}

	cl.reset(box)
	if aux != nil {
		cl.insertAllParallel(p, aux)
	} else {
		cl.insertAll(p, 0, p.Len())
	}
	return nil
}

// reset clears the chains of the previously occupied cells only, so a
// refresh costs O(ncwp) rather than O(grid size), and swaps in the new box.
func (cl *CellList) reset(box *geom.Box) {
	for k := 0; k < cl.Ncwp; k++ {
		c := cl.cwpLinear[k]
		cl.Fp[c] = 0
		cl.NpCell[c] = 0
	}

	if box != cl.Box {
		if box.Grid.Len > cap(cl.Fp) {
			cl.Fp = make([]int, box.Grid.Len)
			cl.NpCell = make([]int, box.Grid.Len)
		} else {
			// The tail beyond the new grid is already zero: only occupied
			// cells were ever touched and they were cleared above.
			cl.Fp = cl.Fp[:box.Grid.Len]
			cl.NpCell = cl.NpCell[:box.Grid.Len]
		}
		cl.Box = box
	}

	cl.Ncwp, cl.Ncp, cl.NReal, cl.MaxOcc = 0, 0, 0, 0
	cl.cwpLinear = cl.cwpLinear[:0]
	cl.cwpCart = cl.cwpCart[:0]
	cl.cwpCenter = cl.cwpCenter[:0]
	cl.Np = cl.Np[:1]
	cl.Orig = cl.Orig[:1]
	cl.Pos = cl.Pos[:cl.NDim]
}

// insertAllParallel splits the particles across the aux workers, builds a
// private partial cell list per worker, and merges the partial chains
// cell by cell. The order of records within a merged chain is
// implementation-defined; traversal does not depend on it.
func (cl *CellList) insertAllParallel(p *particles.Positions, aux *Aux) {
	nw := len(aux.lists)
	m := p.Len()
	if nw <= 1 || m < 2*nw {
		cl.insertAll(p, 0, m)
		return
	}

	wg := &sync.WaitGroup{}
	for w := 0; w < nw; w++ {
		pl := aux.lists[w]
		pl.reset(cl.Box)
		lo, hi := w*m/nw, (w+1)*m/nw

		wg.Add(1)
		go func(pl *CellList, lo, hi int) {
			defer wg.Done()
			pl.insertAll(p, lo, hi)
		}(pl, lo, hi)
	}
	wg.Wait()

	for w := 0; w < nw; w++ {
		cl.merge(aux.lists[w])
	}
	cl.NReal = m
}

// merge splices the chains of a partial cell list into cl by concatenation.
func (cl *CellList) merge(pl *CellList) {
	for k := 0; k < pl.Ncwp; k++ {
		c := pl.cwpLinear[k]
		for slot := pl.Fp[c]; slot != 0; slot = pl.Np[slot] {
			cl.addWrapped(pl.Position(slot), pl.Orig[slot])
		}
	}
}

// batchCount resolves a requested batch count, with 0 meaning one batch per
// logical core.
func batchCount(req int) int {
	if req > 0 {
		return req
	}
	return runtime.GOMAXPROCS(0)
}
