/*package geom contains routines for dealing with the geometry of periodic
simulation cells: wrapping coordinates into the unit cell, subdividing the
cell into a cutoff-sized grid, and enumerating the periodic images that can
reach back into that grid.*/
package geom

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInvalidBox is wrapped by errors caused by degenerate unit cells:
	// non-square matrices, negative entries, or triclinic cells too skewed
	// for floor-based wrapping.
	ErrInvalidBox = errors.New("invalid box")
	// ErrInvalidCutoff is wrapped by errors caused by non-positive cutoffs or
	// cutoffs too large for unambiguous wrapping.
	ErrInvalidCutoff = errors.New("invalid cutoff")
	// ErrDimensionMismatch is wrapped by errors caused by position data whose
	// dimension differs from the box's.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)

// Box describes a simulation cell subdivided into a grid of cutoff-sized
// cells. It is immutable after construction.
type Box struct {
	// NDim is the spatial dimension of the cell.
	NDim int
	// Unit is the row-major n x n matrix whose columns are the lattice
	// vectors of the cell. Inv is its inverse.
	Unit, Inv []float64
	// UnitMax is the sum of the lattice vectors, the upper corner of the
	// cell in axis-aligned coordinates.
	UnitMax []float64
	// Cutoff is the maximum distance at which pairs are reported and
	// CutoffSq is its square.
	Cutoff, CutoffSq float64
	// LCell is the number of grid cells per cutoff length, and CellSide is
	// the resulting cell edge, Cutoff / LCell.
	LCell int
	CellSide float64
	// NC is the per-axis cell count of the grid covering
	// [-Cutoff, UnitMax + Cutoff].
	NC []int
	// ImageMin and ImageMax give, per lattice vector, the integer range of
	// periodic images whose translations can intersect the expanded grid.
	ImageMin, ImageMax []int
	// Periodic is false for boxes built with NewNoPBC, in which case no
	// images are generated and Wrap is the identity.
	Periodic bool

	// Grid converts between Cartesian and linear cell indices.
	Grid *Grid

	diag bool
}

// Options contains optional Box parameters. The zero value gives the
// defaults.
type Options struct {
	// LCell is the number of cell subdivisions per cutoff length. Values
	// below 1 mean the default of 1.
	LCell int
}

// New creates a Box from the row-major n x n matrix unit, whose columns are
// the lattice vectors, and an interaction cutoff.
func New(n int, unit []float64, cutoff float64, opts *Options) (*Box, error) {
	return newBox(n, unit, cutoff, opts, true)
}

func newBox(n int, unit []float64, cutoff float64, opts *Options, periodic bool) (*Box, error) {
	if n < 1 || len(unit) != n*n {
		return nil, fmt.Errorf("%w: unit cell matrix has %d values, but a "+
			"square %d-dimensional matrix needs %d.",
			ErrInvalidBox, len(unit), n, n*n)
	}

	b := &Box{ NDim: n, Periodic: periodic }
	b.Unit = make([]float64, n*n)
	copy(b.Unit, unit)

	if err := b.validateUnit(); err != nil {
		return nil, err
	}
	if err := b.setCutoff(cutoff, opts); err != nil {
		return nil, err
	}

	inv, err := invert(n, b.Unit)
	if err != nil {
		return nil, fmt.Errorf("%w: unit cell matrix is singular.",
			ErrInvalidBox)
	}
	b.Inv = inv

	b.initGrid()
	b.initImages()
	return b, nil
}

// NewOrtho creates an orthorhombic Box with the given side lengths. It is
// shorthand for New with a diagonal matrix.
func NewOrtho(sides []float64, cutoff float64, opts *Options) (*Box, error) {
	n := len(sides)
	unit := make([]float64, n*n)
	for i := range sides {
		unit[i*n+i] = sides[i]
	}
	return New(n, unit, cutoff, opts)
}

// NewNoPBC creates a non-periodic Box covering the given axis-aligned limits.
// The limits must contain every coordinate that will be handed to the cell
// list (padded below by at most a cutoff); LimitsFromPositions computes
// them. Without periodicity the half-cell cutoff restriction does not
// apply.
func NewNoPBC(limits []float64, cutoff float64, opts *Options) (*Box, error) {
	n := len(limits)
	unit := make([]float64, n*n)
	for i := range limits {
		unit[i*n+i] = limits[i]
	}

	b, err := newBox(n, unit, cutoff, opts, false)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		b.ImageMin[i], b.ImageMax[i] = 0, 0
	}
	return b, nil
}

// LimitsFromPositions returns per-axis upper limits that contain every one of
// the m points in the flat, stride-n array x, padded by pad on each axis.
// It is the standard way to size a NewNoPBC box around raw data.
func LimitsFromPositions(n int, x []float64, pad float64) ([]float64, error) {
	if len(x) == 0 || len(x)%n != 0 {
		return nil, fmt.Errorf("%w: position array has %d values, which "+
			"cannot hold %d-dimensional points.", ErrDimensionMismatch,
			len(x), n)
	}

	lim := make([]float64, n)
	for i := 0; i < len(x); i += n {
		for a := 0; a < n; a++ {
			if v := x[i+a]; v > lim[a] {
				lim[a] = v
			}
		}
	}
	for a := 0; a < n; a++ {
		lim[a] += pad
	}
	return lim, nil
}

func (b *Box) validateUnit() error {
	n := b.NDim
	b.diag = true
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := b.Unit[i*n+j]
			if v < 0 {
				return fmt.Errorf("%w: unit cell entry (%d, %d) = %g is "+
					"negative.", ErrInvalidBox, i, j, v)
			}
			if i == j { continue }
			if v != 0 { b.diag = false }
			if v >= b.Unit[j*n+j] {
				return fmt.Errorf("%w: off-diagonal entry (%d, %d) = %g is "+
					"not smaller than the diagonal entry %g, so floor-based "+
					"wrapping would not land in a bounded image range.",
					ErrInvalidBox, i, j, v, b.Unit[j*n+j])
			}
		}
		if b.Unit[i*n+i] <= 0 {
			return fmt.Errorf("%w: diagonal entry %d = %g is not positive.",
				ErrInvalidBox, i, b.Unit[i*n+i])
		}
	}

	b.UnitMax = make([]float64, n)
	for a := 0; a < n; a++ {
		for j := 0; j < n; j++ {
			b.UnitMax[a] += b.Unit[a*n+j]
		}
	}
	return nil
}

func (b *Box) setCutoff(cutoff float64, opts *Options) error {
	if cutoff <= 0 {
		return fmt.Errorf("%w: cutoff = %g, but it must be positive.",
			ErrInvalidCutoff, cutoff)
	}
	n := b.NDim
	if b.Periodic {
		for i := 0; i < n; i++ {
			if d := b.Unit[i*n+i]; cutoff > d/2 {
				return fmt.Errorf("%w: cutoff = %g is larger than half the "+
					"smallest cell vector projection, %g, so wrapping would "+
					"be ambiguous.", ErrInvalidCutoff, cutoff, d/2)
			}
		}
	}

	lcell := 1
	if opts != nil && opts.LCell > 1 {
		lcell = opts.LCell
	}
	b.Cutoff = cutoff
	b.CutoffSq = cutoff * cutoff
	b.LCell = lcell
	b.CellSide = cutoff / float64(lcell)
	return nil
}

func (b *Box) initGrid() {
	n := b.NDim
	b.NC = make([]int, n)
	for a := 0; a < n; a++ {
		v := (b.UnitMax[a] + 2*b.Cutoff) / b.CellSide
		if v < 1 { v = 1 }
		b.NC[a] = int(math.Ceil(v))
	}
	b.Grid = NewGrid(b.NC, b.LCell)
}

func (b *Box) initImages() {
	n := b.NDim
	b.ImageMin = make([]int, n)
	b.ImageMax = make([]int, n)
	for k := 0; k < n; k++ {
		off := 0.0
		for i := 0; i < n; i++ {
			if i != k { off += b.Unit[i*n+k] }
		}
		r := int(math.Ceil((b.Cutoff + off) / b.Unit[k*n+k]))
		if r < 1 { r = 1 }
		b.ImageMin[k], b.ImageMax[k] = -r, r
	}
}

// Wrap reduces the point p into the primary unit cell and writes the result
// to out. p and out may alias.
func (b *Box) Wrap(p, out []float64) {
	n := b.NDim
	if !b.Periodic {
		copy(out, p[:n])
		return
	}

	if b.diag {
		for a := 0; a < n; a++ {
			L := b.Unit[a*n+a]
			f := p[a] / L
			out[a] = (f - math.Floor(f)) * L
		}
		return
	}

	// frac = Inv p, then fold the fractional part back through Unit.
	var frac [maxStackDim]float64
	var g []float64
	if n > maxStackDim {
		g = make([]float64, n)
	} else {
		g = frac[:n]
	}
	for a := 0; a < n; a++ {
		s := 0.0
		for j := 0; j < n; j++ {
			s += b.Inv[a*n+j] * p[j]
		}
		g[a] = s - math.Floor(s)
	}
	for a := 0; a < n; a++ {
		s := 0.0
		for j := 0; j < n; j++ {
			s += b.Unit[a*n+j] * g[j]
		}
		out[a] = s
	}
}

// CellOf writes the Cartesian grid cell of the (already wrapped or
// translated) point p to out. The origin cell spans
// [-Cutoff, -Cutoff + CellSide) on each axis.
func (b *Box) CellOf(p []float64, out []int) {
	for a := 0; a < b.NDim; a++ {
		c := int(math.Floor((p[a] + b.Cutoff) / b.CellSide))
		if c < 0 { c = 0 }
		if c >= b.NC[a] { c = b.NC[a] - 1 }
		out[a] = c
	}
}

// CellCenter writes the axis-aligned center of the cell with Cartesian index
// cart to out.
func (b *Box) CellCenter(cart []int, out []float64) {
	for a := 0; a < b.NDim; a++ {
		out[a] = -b.Cutoff + (float64(cart[a])+0.5)*b.CellSide
	}
}

// ImageTranslation writes the translation of the periodic image r, the linear
// combination of lattice vectors with the integer coefficients r, to out.
func (b *Box) ImageTranslation(r []int, out []float64) {
	n := b.NDim
	for a := 0; a < n; a++ {
		s := 0.0
		for k := 0; k < n; k++ {
			s += float64(r[k]) * b.Unit[a*n+k]
		}
		out[a] = s
	}
}

// InExpanded returns true if the point p lies inside the expanded region
// [-Cutoff, UnitMax + Cutoff] on every axis.
func (b *Box) InExpanded(p []float64) bool {
	for a := 0; a < b.NDim; a++ {
		if p[a] < -b.Cutoff || p[a] > b.UnitMax[a]+b.Cutoff {
			return false
		}
	}
	return true
}

// maxStackDim is the largest dimension served by stack scratch in the hot
// wrap path.
const maxStackDim = 8

// invert returns the inverse of the row-major n x n matrix m.
func invert(n int, m []float64) ([]float64, error) {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			d.Set(i, j, m[i*n+j])
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(d); err != nil {
		return nil, err
	}

	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[i*n+j] = inv.At(i, j)
		}
	}
	return out, nil
}
