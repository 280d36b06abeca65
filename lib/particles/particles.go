/*package particles contains functions for handling particle coordinate input
in the different layouts users supply it in.*/
package particles

import (
	"fmt"
)

// Positions is the canonical internal layout for particle coordinates: a flat
// array with one particle every n values. Both vector-of-vectors input and
// column-major n x m matrix input map onto this layout, so the rest of the
// code never branches on how the caller stored their data.
type Positions struct {
	n, m int
	data []float64
}

// NDim returns the number of coordinates per particle.
func (p *Positions) NDim() int { return p.n }

// Len returns the number of particles.
func (p *Positions) Len() int { return p.m }

// At returns the coordinates of particle i as a subslice of the underlying
// array. The slice is a view, so please treat it kindly.
func (p *Positions) At(i int) []float64 {
	return p.data[i*p.n : (i+1)*p.n]
}

// FromVecs creates Positions from an array of length-n coordinate vectors. All
// vectors must have the same length.
func FromVecs(x [][]float64) (*Positions, error) {
	if len(x) == 0 {
		return &Positions{ }, nil
	}

	n := len(x[0])
	if n == 0 {
		return nil, fmt.Errorf("Position vectors have zero dimensions.")
	}

	data := make([]float64, n*len(x))
	for i := range x {
		if len(x[i]) != n {
			return nil, fmt.Errorf("Position vector %d has %d dimensions, "+
				"but vector 0 has %d.", i, len(x[i]), n)
		}
		copy(data[i*n:(i+1)*n], x[i])
	}

	return &Positions{ n, len(x), data }, nil
}

// FromVec3s creates Positions from an array of 3-vectors.
func FromVec3s(x [][3]float64) *Positions {
	data := make([]float64, 3*len(x))
	for i := range x {
		data[3*i], data[3*i+1], data[3*i+2] = x[i][0], x[i][1], x[i][2]
	}
	return &Positions{ 3, len(x), data }
}

// FromMatrix creates Positions from a column-major n x m matrix, i.e. the
// flat array (x0[0], ..., x0[n-1], x1[0], ...). The array is aliased, not
// copied.
func FromMatrix(n int, data []float64) (*Positions, error) {
	if n < 1 {
		return nil, fmt.Errorf("Matrix input must have n >= 1, got n = %d.", n)
	}
	if len(data)%n != 0 {
		return nil, fmt.Errorf("Matrix input has %d values, which is not a "+
			"multiple of the dimension n = %d.", len(data), n)
	}

	return &Positions{ n, len(data) / n, data }, nil
}

// Generic creates Positions from any of the supported input layouts:
// [][]float64, [][3]float64, or a flat column-major []float64 together with
// the dimension n. The n argument is ignored for the first two layouts.
func Generic(x interface{}, n int) (*Positions, error) {
	switch xx := x.(type) {
	case [][]float64:
		return FromVecs(xx)
	case [][3]float64:
		return FromVec3s(xx), nil
	case []float64:
		return FromMatrix(n, xx)
	case *Positions:
		return xx, nil
	default:
		return nil, fmt.Errorf("Positions can only be created from "+
			"[][]float64, [][3]float64, or flat []float64 data, got %T.", x)
	}
}
