/*neighbors prints the neighbor list of a coordinate file: one "i j d" line
per pair closer than the cutoff. With -y a second file is given and pairs
are computed between the two sets instead.

	neighbors -file x.txt -cutoff 0.1
	neighbors -file x.txt -y y.txt -cutoff 0.1
*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/chemicalfiend/cellpairs/lib/catio"
	"github.com/chemicalfiend/cellpairs/lib/error"
	"github.com/chemicalfiend/cellpairs/lib/geom"
	"github.com/chemicalfiend/cellpairs/lib/neighbor"
	"github.com/chemicalfiend/cellpairs/lib/particles"
	"github.com/chemicalfiend/cellpairs/lib/thread"
)

func main() {
	file := flag.String("file", "", "coordinate file (text, .zst supported)")
	yFile := flag.String("y", "", "optional second set for two-set mode")
	cutoff := flag.Float64("cutoff", 10, "maximum pair distance")
	threads := flag.Int("threads", -1, "threads to use, -1 for all")
	flag.Parse()

	if *file == "" {
		error.External("No coordinate file given. Use -file.")
	}
	thread.Set(*threads)

	x, err := catio.Read(*file)
	if err != nil {
		error.External("Could not read '%s': %v", *file, err)
	}

	var list []neighbor.Pair
	if *yFile == "" {
		box := noPBCBox(x, nil, *cutoff)
		list, err = neighbor.List(x, box, nil)
	} else {
		var y *particles.Positions
		y, err = catio.Read(*yFile)
		if err != nil {
			error.External("Could not read '%s': %v", *yFile, err)
		}
		box := noPBCBox(x, y, *cutoff)
		list, err = neighbor.ListCross(x, y, box, nil)
	}
	if err != nil {
		error.External("Could not build the neighbor list: %v", err)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()
	for _, p := range list {
		fmt.Fprintf(out, "%d %d %.8g\n", p.I, p.J, p.D)
	}
}

// noPBCBox builds a non-periodic box just large enough for every point of
// one or two coordinate sets.
func noPBCBox(x, y *particles.Positions, cutoff float64) *geom.Box {
	n := x.NDim()
	lim := make([]float64, n)
	for _, p := range []*particles.Positions{ x, y } {
		if p == nil { continue }
		for i := 0; i < p.Len(); i++ {
			v := p.At(i)
			for a := 0; a < n; a++ {
				if v[a] > lim[a] { lim[a] = v[a] }
			}
		}
	}
	for a := 0; a < n; a++ {
		lim[a] += cutoff
	}

	box, err := geom.NewNoPBC(lim, cutoff, nil)
	if err != nil {
		error.External("Could not build the box: %v", err)
	}
	return box
}
