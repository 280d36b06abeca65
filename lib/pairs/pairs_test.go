package pairs

import (
	"errors"
	"math"
	"testing"

	"github.com/chemicalfiend/cellpairs/lib/cells"
	"github.com/chemicalfiend/cellpairs/lib/eq"
	"github.com/chemicalfiend/cellpairs/lib/geom"
	"github.com/chemicalfiend/cellpairs/lib/particles"
)

// checkAgainstNaive runs a serial traversal and compares the pair multiset
// against the naive reference, element for element.
func checkAgainstNaive(t *testing.T, p *particles.Positions, box *geom.Box) {
	t.Helper()

	cl, err := cells.New(p, box, nil)
	if err != nil {
		t.Fatalf("Expected a valid cell list, got error: %v", err)
	}

	got, err := MapPairwise(collect, newCollector(), cl,
		&Options[*collector]{ Sched: Serial })
	if err != nil {
		t.Fatalf("Traversal failed: %v", err)
	}
	if got.dups != 0 {
		t.Errorf("%d pairs were reported more than once.", got.dups)
	}

	want := naivePairs(p, box)
	if len(got.pairs) != len(want) {
		t.Errorf("Expected %d pairs, got %d.", len(want), len(got.pairs))
	}
	for k, d2 := range want {
		gd2, ok := got.pairs[k]
		if !ok {
			t.Errorf("Pair (%d, %d) with d2 = %g is missing.", k.i, k.j, d2)
			continue
		}
		if math.Abs(gd2-d2) > 1e-9*(1+d2) {
			t.Errorf("Pair (%d, %d) has d2 = %g, expected %g.",
				k.i, k.j, gd2, d2)
		}
	}
	for k := range got.pairs {
		if _, ok := want[k]; !ok {
			t.Errorf("Pair (%d, %d) was reported but is out of range or "+
				"a duplicate image.", k.i, k.j)
		}
	}
}

func TestSingleSetVsNaiveOrtho(t *testing.T) {
	for _, lcell := range []int{ 1, 2, 3, 5 } {
		p := randomPositions(3, 250, -40, 80, uint64(lcell))
		box, err := geom.NewOrtho([]float64{ 40, 40, 40 }, 5,
			&geom.Options{ LCell: lcell })
		if err != nil {
			t.Fatalf("lcell = %d: expected a valid box, got error: %v",
				lcell, err)
		}
		checkAgainstNaive(t, p, box)
	}
}

func TestSingleSetVsNaiveTriclinic(t *testing.T) {
	unit := []float64{
		40, 0, 4,
		4, 40, 0,
		0, 0, 40,
	}
	box, err := geom.New(3, unit, 5, nil)
	if err != nil {
		t.Fatalf("Expected a valid box, got error: %v", err)
	}

	p := randomPositions(3, 250, -20, 60, 17)
	checkAgainstNaive(t, p, box)
}

func TestSingleSetVsNaiveLowDim(t *testing.T) {
	p2 := randomPositions(2, 300, 0, 30, 5)
	box2, err := geom.NewOrtho([]float64{ 30, 30 }, 3, nil)
	if err != nil {
		t.Fatalf("Expected a valid box, got error: %v", err)
	}
	checkAgainstNaive(t, p2, box2)

	p1 := randomPositions(1, 200, 0, 100, 6)
	box1, err := geom.NewOrtho([]float64{ 100 }, 4, nil)
	if err != nil {
		t.Fatalf("Expected a valid box, got error: %v", err)
	}
	checkAgainstNaive(t, p1, box1)
}

func TestSingleSetVsNaiveNoPBC(t *testing.T) {
	p := randomPositions(3, 300, 0, 50, 8)
	lim := []float64{ 55, 55, 55 }
	box, err := geom.NewNoPBC(lim, 5, nil)
	if err != nil {
		t.Fatalf("Expected a valid box, got error: %v", err)
	}
	checkAgainstNaive(t, p, box)
}

func TestClusteredHistogram(t *testing.T) {
	// Coordinates packed against a face of the box, so most of the action
	// crosses the boundary.
	p := clusteredPositions(3, 700, 100, 3, 23)
	box, err := geom.NewOrtho([]float64{ 100, 100, 100 }, 10, nil)
	if err != nil {
		t.Fatalf("Expected a valid box, got error: %v", err)
	}
	cl, err := cells.New(p, box, nil)
	if err != nil {
		t.Fatalf("Expected a valid cell list, got error: %v", err)
	}

	hist := func(x, y []float64, i, j int, d2 float64, acc []float64) []float64 {
		b := int(math.Sqrt(d2))
		if b >= len(acc) {
			b = len(acc) - 1
		}
		acc[b]++
		return acc
	}

	got, err := MapPairwise(hist, make([]float64, 10), cl, nil)
	if err != nil {
		t.Fatalf("Traversal failed: %v", err)
	}

	want := make([]float64, 10)
	for _, d2 := range naivePairs(p, box) {
		b := int(math.Sqrt(d2))
		if b >= len(want) {
			b = len(want) - 1
		}
		want[b]++
	}

	if !eq.Float64s(got, want) {
		t.Errorf("Expected histogram %v, got %v", want, got)
	}
}

func TestMatrixInputEquivalence(t *testing.T) {
	p := randomPositions(3, 200, 0, 40, 31)
	flat := make([]float64, 0, 3*p.Len())
	for i := 0; i < p.Len(); i++ {
		flat = append(flat, p.At(i)...)
	}
	pm, err := particles.FromMatrix(3, flat)
	if err != nil {
		t.Fatalf("Expected valid matrix input, got error: %v", err)
	}

	box, err := geom.NewOrtho([]float64{ 40, 40, 40 }, 5, nil)
	if err != nil {
		t.Fatalf("Expected a valid box, got error: %v", err)
	}

	run := func(p *particles.Positions) *collector {
		cl, err := cells.New(p, box, nil)
		if err != nil {
			t.Fatalf("Expected a valid cell list, got error: %v", err)
		}
		c, err := MapPairwise(collect, newCollector(), cl,
			&Options[*collector]{ Sched: Serial })
		if err != nil {
			t.Fatalf("Traversal failed: %v", err)
		}
		return c
	}

	cv, cm := run(p), run(pm)
	if len(cv.pairs) != len(cm.pairs) {
		t.Fatalf("Vector input gives %d pairs, matrix input gives %d.",
			len(cv.pairs), len(cm.pairs))
	}
	for k, d2 := range cv.pairs {
		if cm.pairs[k] != d2 {
			t.Errorf("Pair (%d, %d) differs between input layouts.",
				k.i, k.j)
		}
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	p := randomPositions(3, 600, 0, 50, 41)
	box, err := geom.NewOrtho([]float64{ 50, 50, 50 }, 6, nil)
	if err != nil {
		t.Fatalf("Expected a valid box, got error: %v", err)
	}
	cl, err := cells.New(p, box, nil)
	if err != nil {
		t.Fatalf("Expected a valid cell list, got error: %v", err)
	}

	serial, err := MapPairwise(collect, newCollector(), cl,
		&Options[*collector]{ Sched: Serial })
	if err != nil {
		t.Fatalf("Serial traversal failed: %v", err)
	}

	for _, nb := range []int{ 2, 3, 7, 16 } {
		par, err := MapPairwise(collect, newCollector(), cl,
			collectOptions(Parallel, nb))
		if err != nil {
			t.Fatalf("nbatches = %d: traversal failed: %v", nb, err)
		}
		if par.dups != 0 {
			t.Errorf("nbatches = %d: %d duplicate pairs.", nb, par.dups)
		}
		if len(par.pairs) != len(serial.pairs) {
			t.Errorf("nbatches = %d: expected %d pairs, got %d.",
				nb, len(serial.pairs), len(par.pairs))
			continue
		}
		for k, d2 := range serial.pairs {
			if par.pairs[k] != d2 {
				t.Errorf("nbatches = %d: pair (%d, %d) differs.",
					nb, k.i, k.j)
			}
		}
	}
}

func TestNBatchesInvariance(t *testing.T) {
	p := randomPositions(3, 500, 0, 50, 43)
	box, err := geom.NewOrtho([]float64{ 50, 50, 50 }, 6, nil)
	if err != nil {
		t.Fatalf("Expected a valid box, got error: %v", err)
	}
	cl, err := cells.New(p, box, nil)
	if err != nil {
		t.Fatalf("Expected a valid cell list, got error: %v", err)
	}

	potential := func(x, y []float64, i, j int, d2 float64, acc float64) float64 {
		return acc + 1/(1+d2)
	}

	want := 0.0
	for _, d2 := range naivePairs(p, box) {
		want += 1 / (1 + d2)
	}

	for _, nb := range []int{ 1, 3, 5, 7, 13, 17 } {
		got, err := MapPairwise(potential, 0.0, cl,
			&Options[float64]{ Sched: Parallel, NBatches: nb })
		if err != nil {
			t.Fatalf("nbatches = %d: traversal failed: %v", nb, err)
		}
		if math.Abs(got-want) > 1e-9*math.Abs(want) {
			t.Errorf("nbatches = %d: expected potential %g, got %g.",
				nb, want, got)
		}
	}
}

func TestForcesTriclinic(t *testing.T) {
	unit := []float64{
		250, 0, 10,
		10, 250, 0,
		0, 0, 250,
	}
	box, err := geom.New(3, unit, 10, nil)
	if err != nil {
		t.Fatalf("Expected a valid box, got error: %v", err)
	}

	p := randomPositions(3, 800, 0, 250, 47)
	mass := make([]float64, p.Len()+1)
	for i := 1; i <= p.Len(); i++ {
		mass[i] = 5 * p.At(i-1)[1]
	}

	force := func(x, y []float64, i, j int, d2 float64, acc [][]float64) [][]float64 {
		c := mass[i] * mass[j] / (d2 * math.Sqrt(d2))
		for a := 0; a < 3; a++ {
			df := c * (y[a] - x[a])
			acc[i-1][a] += df
			acc[j-1][a] -= df
		}
		return acc
	}

	zero := func() [][]float64 {
		f := make([][]float64, p.Len())
		for i := range f {
			f[i] = make([]float64, 3)
		}
		return f
	}

	cl, err := cells.New(p, box, nil)
	if err != nil {
		t.Fatalf("Expected a valid cell list, got error: %v", err)
	}

	serial, err := MapPairwise(force, zero(), cl,
		&Options[[][]float64]{ Sched: Serial })
	if err != nil {
		t.Fatalf("Serial traversal failed: %v", err)
	}
	par, err := MapPairwise(force, zero(), cl,
		&Options[[][]float64]{ Sched: Parallel, NBatches: 5 })
	if err != nil {
		t.Fatalf("Parallel traversal failed: %v", err)
	}

	// The naive reference, using the same minimum-image displacements.
	want := zero()
	w := wrapAll(p, box)
	trans := imageTranslations(box)
	for i := 0; i < p.Len(); i++ {
		for j := i + 1; j < p.Len(); j++ {
			best, bt := math.Inf(1), 0
			for ti, tv := range trans {
				d2 := 0.0
				for a := 0; a < 3; a++ {
					d := w[i][a] - (w[j][a] + tv[a])
					d2 += d * d
				}
				if d2 < best {
					best, bt = d2, ti
				}
			}
			if best > box.CutoffSq { continue }

			c := mass[i+1] * mass[j+1] / (best * math.Sqrt(best))
			for a := 0; a < 3; a++ {
				df := c * ((w[j][a] + trans[bt][a]) - w[i][a])
				want[i][a] += df
				want[j][a] -= df
			}
		}
	}

	for i := range want {
		if !eq.Float64sApprox(serial[i], want[i], 1e-8) {
			t.Errorf("Serial force on particle %d is %v, expected %v",
				i+1, serial[i], want[i])
			break
		}
	}
	for i := range want {
		if !eq.Float64sApprox(par[i], serial[i], 1e-10) {
			t.Errorf("Parallel force on particle %d is %v, but the serial "+
				"force is %v", i+1, par[i], serial[i])
			break
		}
	}
}

func TestDensePruningMatchesNaive(t *testing.T) {
	// Everything packed into a handful of cells, so the projection path
	// actually runs.
	p := clusteredPositions(3, 400, 12, 12, 53)
	box, err := geom.NewOrtho([]float64{ 60, 60, 60 }, 6, nil)
	if err != nil {
		t.Fatalf("Expected a valid box, got error: %v", err)
	}
	cl, err := cells.New(p, box, nil)
	if err != nil {
		t.Fatalf("Expected a valid cell list, got error: %v", err)
	}

	for _, class := range []SystemClass{ MediumDense, LargeDense } {
		got, err := MapPairwise(collect, newCollector(), cl,
			&Options[*collector]{ Sched: Serial, Class: class })
		if err != nil {
			t.Fatalf("%v: traversal failed: %v", class, err)
		}
		if got.dups != 0 {
			t.Errorf("%v: %d duplicate pairs.", class, got.dups)
		}

		want := naivePairs(p, box)
		if len(got.pairs) != len(want) {
			t.Errorf("%v: expected %d pairs, got %d.",
				class, len(want), len(got.pairs))
		}
		for k := range want {
			if _, ok := got.pairs[k]; !ok {
				t.Errorf("%v: pair (%d, %d) is missing.", class, k.i, k.j)
			}
		}
	}
}

func TestTraversalAborted(t *testing.T) {
	p := randomPositions(3, 100, 0, 20, 61)
	box, err := geom.NewOrtho([]float64{ 20, 20, 20 }, 2, nil)
	if err != nil {
		t.Fatalf("Expected a valid box, got error: %v", err)
	}
	cl, err := cells.New(p, box, nil)
	if err != nil {
		t.Fatalf("Expected a valid cell list, got error: %v", err)
	}

	boom := func(x, y []float64, i, j int, d2 float64, acc float64) float64 {
		panic("kernel blew up")
	}

	if _, err := MapPairwise(boom, 0.0, cl,
		&Options[float64]{ Sched: Serial }); !errors.Is(err, ErrTraversalAborted) {
		t.Errorf("Serial: expected ErrTraversalAborted, got %v", err)
	}
	if _, err := MapPairwise(boom, 0.0, cl,
		&Options[float64]{ Sched: Parallel, NBatches: 3 }); !errors.Is(err, ErrTraversalAborted) {
		t.Errorf("Parallel: expected ErrTraversalAborted, got %v", err)
	}
}

func TestInvalidReducer(t *testing.T) {
	p := randomPositions(3, 600, 0, 50, 67)
	box, err := geom.NewOrtho([]float64{ 50, 50, 50 }, 6, nil)
	if err != nil {
		t.Fatalf("Expected a valid box, got error: %v", err)
	}
	cl, err := cells.New(p, box, nil)
	if err != nil {
		t.Fatalf("Expected a valid cell list, got error: %v", err)
	}

	f := func(x, y []float64, i, j int, d2 float64, acc string) string {
		return acc
	}
	if _, err := MapPairwise(f, "", cl,
		&Options[string]{ Sched: Parallel, NBatches: 2 }); !errors.Is(err, ErrInvalidReducer) {
		t.Errorf("Expected ErrInvalidReducer for a string accumulator, "+
			"got %v", err)
	}

	// Serial traversal has no replicas, so any accumulator type works.
	if _, err := MapPairwise(f, "", cl,
		&Options[string]{ Sched: Serial }); err != nil {
		t.Errorf("Expected serial traversal to accept any accumulator, "+
			"got %v", err)
	}
}

func TestRefreshEquivalence(t *testing.T) {
	p1 := randomPositions(3, 300, 0, 40, 71)
	box1, err := geom.NewOrtho([]float64{ 40, 40, 40 }, 5, nil)
	if err != nil {
		t.Fatalf("Expected a valid box, got error: %v", err)
	}
	cl, err := cells.New(p1, box1, nil)
	if err != nil {
		t.Fatalf("Expected a valid cell list, got error: %v", err)
	}

	// Update to more particles in a larger box, then compare against a
	// fresh build.
	p2 := randomPositions(3, 900, 0, 70, 72)
	box2, err := geom.NewOrtho([]float64{ 70, 70, 70 }, 5, nil)
	if err != nil {
		t.Fatalf("Expected a valid box, got error: %v", err)
	}
	if err := cl.Update(p2, box2, nil); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fresh, err := cells.New(p2, box2, nil)
	if err != nil {
		t.Fatalf("Expected a valid cell list, got error: %v", err)
	}

	got, err := MapPairwise(collect, newCollector(), cl,
		&Options[*collector]{ Sched: Serial })
	if err != nil {
		t.Fatalf("Traversal of the updated list failed: %v", err)
	}
	want, err := MapPairwise(collect, newCollector(), fresh,
		&Options[*collector]{ Sched: Serial })
	if err != nil {
		t.Fatalf("Traversal of the fresh list failed: %v", err)
	}

	if len(got.pairs) != len(want.pairs) {
		t.Fatalf("Updated list gives %d pairs, fresh build gives %d.",
			len(got.pairs), len(want.pairs))
	}
	for k, d2 := range want.pairs {
		if got.pairs[k] != d2 {
			t.Errorf("Pair (%d, %d) differs between update and fresh "+
				"build.", k.i, k.j)
		}
	}
}
