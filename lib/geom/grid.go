package geom

/* grid.go provides an interface for reasoning over a 1D slice as if it were
an n-dimensional grid, and enumerates the neighbor-cell stencils used by the
pair traversal. */

// Grid converts between linear and Cartesian cell indices for a grid with
// the given per-axis span.
type Grid struct {
	// NDim is the number of grid axes and Span the cell count per axis.
	NDim int
	Span []int
	// Len is the total number of cells.
	Len int

	strides []int

	// Forward is the list of neighbor-cell offsets that come strictly after
	// the zero offset in lexicographic order, flattened with stride NDim.
	// Full is the complete stencil, zero offset included. Both extend
	// lcell+1 steps per axis.
	Forward, Full []int
	// NForward and NFull are the offset counts of the two stencils.
	NForward, NFull int
}

// NewGrid returns a new Grid with the given span whose neighbor stencils
// extend lcell+1 steps along each axis.
func NewGrid(span []int, lcell int) *Grid {
	n := len(span)
	g := &Grid{ NDim: n, Span: make([]int, n), strides: make([]int, n) }
	copy(g.Span, span)

	g.Len = 1
	for a := 0; a < n; a++ {
		g.strides[a] = g.Len
		g.Len *= span[a]
	}

	g.initStencils(lcell + 1)
	return g
}

// Idx returns the linear index of the cell with Cartesian index cart.
func (g *Grid) Idx(cart []int) int {
	idx := 0
	for a := 0; a < g.NDim; a++ {
		idx += cart[a] * g.strides[a]
	}
	return idx
}

// IdxCheck returns the linear index of cart and true if cart lies within the
// grid, and -1 and false otherwise.
func (g *Grid) IdxCheck(cart []int) (idx int, ok bool) {
	idx = 0
	for a := 0; a < g.NDim; a++ {
		if cart[a] < 0 || cart[a] >= g.Span[a] {
			return -1, false
		}
		idx += cart[a] * g.strides[a]
	}
	return idx, true
}

// Coords writes the Cartesian index of the cell with linear index idx to out.
func (g *Grid) Coords(idx int, out []int) {
	for a := 0; a < g.NDim; a++ {
		out[a] = idx % g.Span[a]
		idx /= g.Span[a]
	}
}

// initStencils enumerates every offset within reach steps per axis. An offset
// is "forward" if its last nonzero component is positive under the same
// component order used by the linear index, which makes the relation
// antisymmetric: exactly one of o and -o is forward for every nonzero o.
func (g *Grid) initStencils(reach int) {
	n := g.NDim
	o := make([]int, n)
	for a := range o {
		o[a] = -reach
	}

	for {
		g.Full = append(g.Full, o...)
		g.NFull++
		if forwardOffset(o) {
			g.Forward = append(g.Forward, o...)
			g.NForward++
		}

		a := 0
		for a < n {
			o[a]++
			if o[a] <= reach { break }
			o[a] = -reach
			a++
		}
		if a == n { break }
	}
}

// ForwardOffset returns the i'th forward offset as a view into the stencil
// array.
func (g *Grid) ForwardOffset(i int) []int {
	return g.Forward[i*g.NDim : (i+1)*g.NDim]
}

// FullOffset returns the i'th offset of the complete stencil as a view into
// the stencil array.
func (g *Grid) FullOffset(i int) []int {
	return g.Full[i*g.NDim : (i+1)*g.NDim]
}

func forwardOffset(o []int) bool {
	for a := len(o) - 1; a >= 0; a-- {
		if o[a] > 0 { return true }
		if o[a] < 0 { return false }
	}
	return false
}
