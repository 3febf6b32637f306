package fluid

// Grid describes a regular 2D or 3D lattice with a one-cell border on every
// simulated axis. All fields on a grid are flat slices in row-major order.
type Grid struct {
	dims   int
	size   [3]int // interior extent
	padded [3]int
	stride [3]int
	cells  int
}

func NewGrid2D(width, height int) Grid {
	return newGrid(2, [3]int{width, height, 1})
}

func NewGrid3D(width, height, depth int) Grid {
	return newGrid(3, [3]int{width, height, depth})
}

func newGrid(dims int, size [3]int) Grid {
	g := Grid{dims: dims, size: size}
	g.padded = [3]int{1, 1, 1}
	for a := 0; a < dims; a++ {
		g.padded[a] = size[a] + 2
	}
	g.stride = [3]int{1, g.padded[0], g.padded[0] * g.padded[1]}
	g.cells = g.padded[0] * g.padded[1] * g.padded[2]
	return g
}

func (g Grid) Dims() int { return g.dims }

// Size returns the interior extent. The third component is 1 for 2D grids.
func (g Grid) Size() [3]int { return g.size }

// Cells is the length of every field slice on this grid.
func (g Grid) Cells() int { return g.cells }

// Resolution is the largest interior extent; the grid spacing is 1/Resolution.
func (g Grid) Resolution() int {
	n := g.size[0]
	for a := 1; a < g.dims; a++ {
		n = max(n, g.size[a])
	}
	return n
}

func (g Grid) valid() bool {
	for a := 0; a < g.dims; a++ {
		if g.size[a] < 1 {
			return false
		}
	}
	return g.dims == 2 || g.dims == 3
}

// index maps padded coordinates to a flat offset.
func (g Grid) index(c [3]int) int {
	return c[0] + c[1]*g.stride[1] + c[2]*g.stride[2]
}

// interiorIndex maps interior coordinates to a flat offset. ok is false when
// the coordinate lies outside the interior.
func (g Grid) interiorIndex(c Coord) (int, bool) {
	p := [3]int{c.X, c.Y, c.Z}
	for a := 0; a < 3; a++ {
		if a >= g.dims {
			if p[a] != 0 {
				return 0, false
			}
			continue
		}
		if p[a] < 0 || p[a] >= g.size[a] {
			return 0, false
		}
		p[a]++
	}
	return g.index(p), true
}

// rows is the number of interior x-rows, the unit of parallel work.
func (g Grid) rows() int {
	if g.dims == 2 {
		return g.size[1]
	}
	return g.size[1] * g.size[2]
}

// rowStart returns the flat offset of the first interior cell of row r.
func (g Grid) rowStart(r int) int {
	y := r%g.size[1] + 1
	z := 0
	if g.dims == 3 {
		z = r/g.size[1] + 1
	}
	return 1 + y*g.stride[1] + z*g.stride[2]
}

// coords recovers padded coordinates from a flat offset.
func (g Grid) coords(i int) [3]int {
	z := i / g.stride[2]
	i -= z * g.stride[2]
	y := i / g.stride[1]
	return [3]int{i - y*g.stride[1], y, z}
}

// forEachInterior calls fn for every interior cell, fanning rows out across
// CPUs. fn must only write to cell i.
func (g Grid) forEachInterior(fn func(i int)) {
	nx := g.size[0]
	parallelRange(0, g.rows(), func(r int) {
		start := g.rowStart(r)
		for i := start; i < start+nx; i++ {
			fn(i)
		}
	})
}
