/*package pairs computes reductions over all particle pairs closer than a
cutoff, using the cell lists of the cells package. The per-pair callback is
the extension point: everything from force sums to histograms to neighbor
lists is a choice of callback and accumulator.*/
package pairs

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/chemicalfiend/cellpairs/lib/cells"
	"github.com/chemicalfiend/cellpairs/lib/geom"
)

var (
	// ErrTraversalAborted is wrapped by errors caused by a fault in the
	// user callback. It is returned after every worker has drained.
	ErrTraversalAborted = errors.New("traversal aborted")
	// ErrInvalidReducer is wrapped by errors caused by accumulator types
	// with no default copy or reduction when none was supplied.
	ErrInvalidReducer = errors.New("invalid reducer")
)

// Func is the per-pair callback. x and y are the image-adjusted coordinates,
// so x - y is the minimum-image displacement and d2 its squared norm. i and
// j are the 1-based original particle indices. The callback returns the next
// accumulator value; it may mutate acc in place only because each batch owns
// a private replica. x and y are views into internal arrays and must not be
// retained.
type Func[T any] func(x, y []float64, i, j int, d2 float64, acc T) T

// Sched chooses between serial and batched-parallel execution.
type Sched int

const (
	// Auto runs in parallel whenever the system class allows it.
	Auto Sched = iota
	Serial
	Parallel
)

// Options contains optional traversal parameters. The zero value gives the
// defaults.
type Options[T any] struct {
	Sched Sched
	// NBatches is the number of map batches. Zero uses the cell list's
	// MapBatches, and when that is zero too picks min(threads, work/64),
	// where work is the number of occupied cells for a single set and the
	// number of small-set particles for two sets.
	NBatches int
	// Class overrides the automatic system classification.
	Class SystemClass
	// Copy deep-copies an accumulator for a batch replica and Reduce folds
	// two accumulators together. Defaults exist for float64, float32, int,
	// []float64, [][]float64, and [][3]float64 (elementwise sums); any other
	// accumulator type must supply both to run in parallel.
	Copy func(T) T
	Reduce func(a, b T) T
}

// MapPairwise folds f over every pair of distinct particles in cl that are
// closer than the cutoff, visiting each unordered pair exactly once, and
// returns the final accumulator. out should be the identity of the
// reduction: in parallel each batch starts from a copy of it.
func MapPairwise[T any](f Func[T], out T, cl *cells.CellList, opts *Options[T]) (T, error) {
	var o Options[T]
	if opts != nil { o = *opts }

	class := o.Class
	if class == ClassAuto {
		class = Classify(cl.NReal, cl.Ncp, cl.Ncwp)
	}

	req := o.NBatches
	if req == 0 {
		req = cl.MapBatches
	}
	nb := mapBatches(req, cl.Ncwp)
	if o.Sched == Serial || (o.Sched == Auto && !class.ParallelOK()) || nb == 1 {
		w := newWorker(f, out, cl, class)
		if err := runGuarded(0, 1, func() { w.run(0, 1) }); err != nil {
			var zero T
			return zero, err
		}
		return w.out, nil
	}

	return reduceBatches(out, &o, nb, func(b int, acc T) T {
		w := newWorker(f, acc, cl, class)
		w.run(b, nb)
		return w.out
	})
}

// worker holds the per-batch state of a single-set traversal: the output
// replica and the projection scratch.
type worker[T any] struct {
	cl *cells.CellList
	box *geom.Box
	f Func[T]
	out T
	class SystemClass
	n int

	cartB []int
	centerB, ax []float64
	projA, projB []projRec
}

// projRec is the scratch record of dense-cell traversal: a slot and its
// coordinate along the cell-center axis.
type projRec struct {
	slot int
	x float64
}

func newWorker[T any](f Func[T], out T, cl *cells.CellList, class SystemClass) *worker[T] {
	n := cl.NDim
	return &worker[T]{
		cl: cl, box: cl.Box, f: f, out: out, class: class, n: n,
		cartB: make([]int, n),
		centerB: make([]float64, n),
		ax: make([]float64, n),
		projA: make([]projRec, 0, cl.MaxOcc),
		projB: make([]projRec, 0, cl.MaxOcc),
	}
}

// run processes the cells of batch b out of nb: every nb'th non-empty cell,
// starting at b. The batch composition depends only on (ncwp, nb), so the
// set of visited pairs is a pure function of the input and the batch count.
func (w *worker[T]) run(b, nb int) {
	for k := b; k < w.cl.Ncwp; k += nb {
		w.processCell(k)
	}
}

// processCell visits the pairs inside cell k and between cell k and each of
// its forward neighbors. The forward relation is antisymmetric, so every
// unordered cell pair is visited exactly once across all batches.
func (w *worker[T]) processCell(k int) {
	cl := w.cl
	cell := cl.Cell(k)
	cA := cell.Linear

	if w.class.Dense() && 2*cl.NpCell[cA] >= minProjected {
		w.selfProjected(cA)
	} else {
		for u := cl.Fp[cA]; u != 0; u = cl.Np[u] {
			for v := cl.Np[u]; v != 0; v = cl.Np[v] {
				w.visit(u, v)
			}
		}
	}

	g := w.box.Grid
	for i := 0; i < g.NForward; i++ {
		off := g.ForwardOffset(i)
		for a := 0; a < w.n; a++ {
			w.cartB[a] = cell.Cart[a] + off[a]
		}
		cB, ok := g.IdxCheck(w.cartB)
		if !ok || cl.NpCell[cB] == 0 { continue }

		if w.class.Dense() && cl.NpCell[cA]+cl.NpCell[cB] >= minProjected {
			w.crossProjected(cA, cB, cell.Center)
		} else {
			for u := cl.Fp[cA]; u != 0; u = cl.Np[u] {
				for v := cl.Fp[cB]; v != 0; v = cl.Np[v] {
					w.visit(u, v)
				}
			}
		}
	}
}

// visit tests one record pair against the cutoff and the image rules and
// hands it to the callback if it survives.
//
// A pair that crosses the boundary appears twice in the expanded box, once
// with each member as the image copy. Keeping only the realization whose
// real member has the smaller original index reports it exactly once, no
// matter which cells the two realizations landed in.
func (w *worker[T]) visit(u, v int) {
	cl := w.cl
	uo, vo := cl.Orig[u], cl.Orig[v]
	if uo < 0 && vo < 0 { return }

	ui, vi := uo, vo
	if ui < 0 { ui = -ui }
	if vi < 0 { vi = -vi }
	if ui == vi { return }
	if uo < 0 && ui < vi { return }
	if vo < 0 && vi < ui { return }

	xu, xv := cl.Position(u), cl.Position(v)
	d2 := 0.0
	for a := 0; a < w.n; a++ {
		d := xu[a] - xv[a]
		d2 += d * d
	}
	if d2 > w.box.CutoffSq { return }

	w.out = w.f(xu, xv, ui, vi, d2, w.out)
}

// project copies the records of cell c into buf with their coordinate along
// ax and sorts them by it.
func (w *worker[T]) project(c int, buf []projRec) []projRec {
	cl := w.cl
	buf = buf[:0]
	for u := cl.Fp[c]; u != 0; u = cl.Np[u] {
		p := cl.Position(u)
		s := 0.0
		for a := 0; a < w.n; a++ {
			s += p[a] * w.ax[a]
		}
		buf = append(buf, projRec{ u, s })
	}

	sort.Slice(buf, func(i, j int) bool { return buf[i].x < buf[j].x })
	return buf
}

// crossProjected visits the pairs between cells cA and cB by sorting cB's
// records along the center-to-center axis and sliding a window of width
// 2*cutoff over them. Pairs further apart than the cutoff along the axis
// are further apart in space, so none are lost.
func (w *worker[T]) crossProjected(cA, cB int, centerA []float64) {
	cl, box := w.cl, w.box
	box.CellCenter(w.cartB, w.centerB)

	norm := 0.0
	for a := 0; a < w.n; a++ {
		w.ax[a] = w.centerB[a] - centerA[a]
		norm += w.ax[a] * w.ax[a]
	}
	norm = math.Sqrt(norm)
	for a := 0; a < w.n; a++ {
		w.ax[a] /= norm
	}

	w.projB = w.project(cB, w.projB)
	cutoff := box.Cutoff
	for u := cl.Fp[cA]; u != 0; u = cl.Np[u] {
		p := cl.Position(u)
		pu := 0.0
		for a := 0; a < w.n; a++ {
			pu += p[a] * w.ax[a]
		}

		lo := sort.Search(len(w.projB), func(i int) bool {
			return w.projB[i].x >= pu-cutoff
		})
		for j := lo; j < len(w.projB) && w.projB[j].x <= pu+cutoff; j++ {
			w.visit(u, w.projB[j].slot)
		}
	}
}

// selfProjected visits the pairs inside one dense cell by sorting its
// records along the first axis and pairing each record only with the ones
// inside its cutoff window.
func (w *worker[T]) selfProjected(cA int) {
	for a := range w.ax {
		w.ax[a] = 0
	}
	w.ax[0] = 1

	w.projA = w.project(cA, w.projA)
	cutoff := w.box.Cutoff
	for i := range w.projA {
		for j := i + 1; j < len(w.projA); j++ {
			if w.projA[j].x > w.projA[i].x+cutoff { break }
			w.visit(w.projA[i].slot, w.projA[j].slot)
		}
	}
}

// mapBatches resolves the map batch count.
func mapBatches(req, ncwp int) int {
	if req > 0 {
		return req
	}

	nb := ncwp / 64
	if t := runtime.GOMAXPROCS(0); nb > t { nb = t }
	if nb < 1 { nb = 1 }
	return nb
}

// runGuarded converts a panic in the user callback into an
// ErrTraversalAborted with batch provenance.
func runGuarded(b, nb int, body func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: user callback faulted in batch %d of %d: %v",
				ErrTraversalAborted, b, nb, r)
		}
	}()
	body()
	return nil
}
