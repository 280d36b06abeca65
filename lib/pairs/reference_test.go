package pairs

/* reference_test.go contains the naive O(m^2) reference traversal that the
cell-list results are checked against, and a callback that records the pair
multiset. */

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/chemicalfiend/cellpairs/lib/geom"
	"github.com/chemicalfiend/cellpairs/lib/particles"
)

type pairKey struct {
	i, j int
}

// collector records the multiset of reported pairs. dups counts pairs that
// were reported more than once, which must never happen.
type collector struct {
	pairs map[pairKey]float64
	dups int
}

func newCollector() *collector {
	return &collector{ pairs: map[pairKey]float64{ } }
}

// collect is the recording callback for single-set traversal: keys are
// normalized so (i, j) and (j, i) are the same pair.
func collect(x, y []float64, i, j int, d2 float64, c *collector) *collector {
	k := pairKey{ i, j }
	if j < i {
		k = pairKey{ j, i }
	}
	if _, ok := c.pairs[k]; ok {
		c.dups++
	}
	c.pairs[k] = d2
	return c
}

// collectCross is the recording callback for two-set traversal: the index
// spaces are independent, so keys are not normalized.
func collectCross(x, y []float64, i, j int, d2 float64, c *collector) *collector {
	k := pairKey{ i, j }
	if _, ok := c.pairs[k]; ok {
		c.dups++
	}
	c.pairs[k] = d2
	return c
}

// collectOptions supplies the replica pair for parallel collection: batches
// start empty and reduction merges, still counting duplicates.
func collectOptions(sched Sched, nb int) *Options[*collector] {
	return &Options[*collector]{
		Sched: sched,
		NBatches: nb,
		Copy: func(*collector) *collector { return newCollector() },
		Reduce: func(a, b *collector) *collector {
			for k, d2 := range b.pairs {
				if _, ok := a.pairs[k]; ok {
					a.dups++
				}
				a.pairs[k] = d2
			}
			a.dups += b.dups
			return a
		},
	}
}

// imageTranslations enumerates every image translation of the box, the zero
// translation included.
func imageTranslations(box *geom.Box) [][]float64 {
	n := box.NDim
	r := make([]int, n)
	for a := 0; a < n; a++ {
		r[a] = box.ImageMin[a]
	}

	out := [][]float64{ }
	for {
		t := make([]float64, n)
		box.ImageTranslation(r, t)
		out = append(out, t)

		a := 0
		for a < n {
			r[a]++
			if r[a] <= box.ImageMax[a] { break }
			r[a] = box.ImageMin[a]
			a++
		}
		if a == n { break }
	}
	return out
}

// naivePairs returns the reference pair multiset: for every unordered pair
// of distinct particles, the minimum-image squared distance, if it is
// within the cutoff.
func naivePairs(p *particles.Positions, box *geom.Box) map[pairKey]float64 {
	m, n := p.Len(), box.NDim
	w := wrapAll(p, box)
	trans := imageTranslations(box)

	out := map[pairKey]float64{ }
	for i := 0; i < m; i++ {
		for j := i + 1; j < m; j++ {
			best := math.Inf(1)
			for _, t := range trans {
				d2 := 0.0
				for a := 0; a < n; a++ {
					d := w[i][a] - (w[j][a] + t[a])
					d2 += d * d
				}
				if d2 < best {
					best = d2
				}
			}
			if best <= box.CutoffSq {
				out[pairKey{ i + 1, j + 1 }] = best
			}
		}
	}
	return out
}

// naiveCross returns the reference pair multiset between two sets, indexed
// in the caller's (x, y) ordering.
func naiveCross(x, y *particles.Positions, box *geom.Box) map[pairKey]float64 {
	n := box.NDim
	wx, wy := wrapAll(x, box), wrapAll(y, box)
	trans := imageTranslations(box)

	out := map[pairKey]float64{ }
	for i := range wx {
		for j := range wy {
			best := math.Inf(1)
			for _, t := range trans {
				d2 := 0.0
				for a := 0; a < n; a++ {
					d := wx[i][a] - (wy[j][a] + t[a])
					d2 += d * d
				}
				if d2 < best {
					best = d2
				}
			}
			if best <= box.CutoffSq {
				out[pairKey{ i + 1, j + 1 }] = best
			}
		}
	}
	return out
}

func wrapAll(p *particles.Positions, box *geom.Box) [][]float64 {
	w := make([][]float64, p.Len())
	for i := range w {
		w[i] = make([]float64, box.NDim)
		box.Wrap(p.At(i), w[i])
	}
	return w
}

// randomPositions generates m points in [lo, hi)^n with a fixed seed.
func randomPositions(n, m int, lo, hi float64, seed uint64) *particles.Positions {
	rng := rand.New(rand.NewSource(seed))
	vecs := make([][]float64, m)
	for i := range vecs {
		vecs[i] = make([]float64, n)
		for a := 0; a < n; a++ {
			vecs[i][a] = lo + rng.Float64()*(hi-lo)
		}
	}

	p, err := particles.FromVecs(vecs)
	if err != nil {
		panic(err.Error())
	}
	return p
}

// clusteredPositions generates m points packed against the x = 0 face of an
// L-sided box, the pathological case for image handling and dense cells.
func clusteredPositions(n, m int, L, depth float64, seed uint64) *particles.Positions {
	rng := rand.New(rand.NewSource(seed))
	vecs := make([][]float64, m)
	for i := range vecs {
		vecs[i] = make([]float64, n)
		vecs[i][0] = rng.Float64() * depth
		for a := 1; a < n; a++ {
			vecs[i][a] = rng.Float64() * L
		}
	}

	p, err := particles.FromVecs(vecs)
	if err != nil {
		panic(err.Error())
	}
	return p
}
