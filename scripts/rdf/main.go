/*rdf computes the radial distribution function of a set of coordinates read
from a text file (optionally zstd-compressed) under orthorhombic periodic
boundary conditions.

	rdf -file coords.txt.zst -sides 250,250,250 -cutoff 10 -bins 100
*/
package main

import (
	"flag"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chemicalfiend/cellpairs/lib/catio"
	"github.com/chemicalfiend/cellpairs/lib/cells"
	"github.com/chemicalfiend/cellpairs/lib/error"
	"github.com/chemicalfiend/cellpairs/lib/pairs"
	"github.com/chemicalfiend/cellpairs/lib/geom"
	"github.com/chemicalfiend/cellpairs/lib/thread"

	"gonum.org/v1/gonum/floats"
)

func main() {
	file := flag.String("file", "", "coordinate file (text, .zst supported)")
	sides := flag.String("sides", "", "comma-separated box side lengths")
	cutoff := flag.Float64("cutoff", 10, "maximum pair distance")
	bins := flag.Int("bins", 100, "number of histogram bins")
	threads := flag.Int("threads", -1, "threads to use, -1 for all")
	flag.Parse()

	if *file == "" {
		error.External("No coordinate file given. Use -file.")
	}
	thread.Set(*threads)

	p, err := catio.Read(*file)
	if err != nil {
		error.External("Could not read '%s': %v", *file, err)
	}

	L := parseSides(*sides, p.NDim())
	box, err := geom.NewOrtho(L, *cutoff, nil)
	if err != nil {
		error.External("Could not build the box: %v", err)
	}

	cl, err := cells.New(p, box, &cells.Options{ Parallel: true })
	if err != nil {
		error.External("Could not build the cell list: %v", err)
	}

	hist := make([]float64, *bins)
	dr := *cutoff / float64(*bins)
	hist, err = pairs.MapPairwise(
		func(x, y []float64, i, j int, d2 float64, acc []float64) []float64 {
			b := int(math.Sqrt(d2) / dr)
			if b >= len(acc) { b = len(acc) - 1 }
			acc[b]++
			return acc
		}, hist, cl, nil,
	)
	if err != nil {
		error.External("Traversal failed: %v", err)
	}

	// Normalize by the ideal-gas expectation for each shell.
	vol := 1.0
	for _, l := range L {
		vol *= l
	}
	rho := float64(p.Len()) / vol
	npairs := float64(p.Len()) * rho / 2

	fmt.Printf("# n = %d, total pairs in range = %g\n",
		p.Len(), floats.Sum(hist))
	fmt.Println("# r g(r)")
	for b := range hist {
		r0, r1 := float64(b)*dr, float64(b+1)*dr
		shell := 4 * math.Pi / 3 * (r1*r1*r1 - r0*r0*r0)
		fmt.Printf("%.6g %.6g\n", (r0+r1)/2, hist[b]/(npairs*shell))
	}
}

// parseSides parses a comma-separated side list and checks it against the
// coordinate dimension.
func parseSides(s string, n int) []float64 {
	if s == "" {
		error.External("No box sides given. Use -sides.")
	}

	parts := strings.Split(s, ",")
	if len(parts) != n {
		error.External("-sides has %d values, but the coordinates are "+
			"%d-dimensional.", len(parts), n)
	}

	L := make([]float64, len(parts))
	for i := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil {
			error.External("Could not parse side '%s' as a float.", parts[i])
		}
		L[i] = v
	}
	return L
}
