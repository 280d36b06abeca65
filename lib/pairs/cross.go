package pairs

/* cross.go contains the traversal between two disjoint particle sets. The
small set drives the iteration, so no pair can be visited twice and no
dedup rules are needed; periodic coverage comes from the image copies of
the hashed large set. */

import (
	"github.com/chemicalfiend/cellpairs/lib/cells"
	"github.com/chemicalfiend/cellpairs/lib/geom"
)

// MapPairwiseCross folds f over every pair between the two sets of pr that
// is closer than the cutoff. The callback sees positions and indices in the
// caller's original (x, y) ordering even when the sets were swapped
// internally.
func MapPairwiseCross[T any](f Func[T], out T, pr *cells.Pair, opts *Options[T]) (T, error) {
	var o Options[T]
	if opts != nil { o = *opts }

	class := o.Class
	if class == ClassAuto {
		class = Classify(pr.Small.Len()+pr.Large.NReal,
			pr.Large.Ncp, pr.Large.Ncwp)
	}

	req := o.NBatches
	if req == 0 {
		req = pr.Large.MapBatches
	}
	nb := mapBatches(req, pr.Small.Len())
	if o.Sched == Serial || (o.Sched == Auto && !class.ParallelOK()) || nb == 1 {
		w := newCrossWorker(f, out, pr)
		if err := runGuarded(0, 1, func() { w.run(0, 1) }); err != nil {
			var zero T
			return zero, err
		}
		return w.out, nil
	}

	return reduceBatches(out, &o, nb, func(b int, acc T) T {
		w := newCrossWorker(f, acc, pr)
		w.run(b, nb)
		return w.out
	})
}

// crossWorker holds the per-batch state of a two-set traversal.
type crossWorker[T any] struct {
	pr *cells.Pair
	cl *cells.CellList
	box *geom.Box
	f Func[T]
	out T
	n int

	w []float64
	cart, cartB []int
}

func newCrossWorker[T any](f Func[T], out T, pr *cells.Pair) *crossWorker[T] {
	n := pr.Large.NDim
	return &crossWorker[T]{
		pr: pr, cl: pr.Large, box: pr.Large.Box, f: f, out: out, n: n,
		w: make([]float64, n),
		cart: make([]int, n),
		cartB: make([]int, n),
	}
}

// run processes every nb'th small-set particle, starting at b.
func (cw *crossWorker[T]) run(b, nb int) {
	for k := b; k < cw.pr.Small.Len(); k += nb {
		cw.processPoint(k)
	}
}

// processPoint wraps one small-set particle, locates its cell, and tests it
// against the chains of every cell in reach. Symmetry is not available
// here, so the full stencil is walked, backward neighbors included.
func (cw *crossWorker[T]) processPoint(k int) {
	cl, box := cw.cl, cw.box
	box.Wrap(cw.pr.Small.At(k), cw.w)
	box.CellOf(cw.w, cw.cart)

	g := box.Grid
	for i := 0; i < g.NFull; i++ {
		off := g.FullOffset(i)
		for a := 0; a < cw.n; a++ {
			cw.cartB[a] = cw.cart[a] + off[a]
		}
		cB, ok := g.IdxCheck(cw.cartB)
		if !ok || cl.NpCell[cB] == 0 { continue }

		for v := cl.Fp[cB]; v != 0; v = cl.Np[v] {
			xv := cl.Position(v)
			d2 := 0.0
			for a := 0; a < cw.n; a++ {
				d := cw.w[a] - xv[a]
				d2 += d * d
			}
			if d2 > box.CutoffSq { continue }

			j := cl.Orig[v]
			if j < 0 { j = -j }
			if cw.pr.Swap {
				cw.out = cw.f(xv, cw.w, j, k+1, d2, cw.out)
			} else {
				cw.out = cw.f(cw.w, xv, k+1, j, d2, cw.out)
			}
		}
	}
}
