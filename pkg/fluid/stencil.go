package fluid

// lattice indexes the unknowns of a linear system: the interior cells of a
// grid, or an aggregated coarse version of them, without a border.
type lattice struct {
	dims   int
	n      [3]int
	stride [3]int
	len    int
}

func newLattice(dims int, n [3]int) lattice {
	l := lattice{dims: dims, n: n}
	if dims == 2 {
		l.n[2] = 1
	}
	l.stride = [3]int{1, l.n[0], l.n[0] * l.n[1]}
	l.len = l.n[0] * l.n[1] * l.n[2]
	return l
}

func (l lattice) coords(k int) [3]int {
	z := k / l.stride[2]
	k -= z * l.stride[2]
	y := k / l.stride[1]
	return [3]int{k - y*l.stride[1], y, z}
}

func (l lattice) index(c [3]int) int {
	return c[0] + c[1]*l.stride[1] + c[2]*l.stride[2]
}

func (l lattice) rows() int { return l.n[1] * l.n[2] }

// stencil is a symmetric operator on a lattice:
//
//	(A x)_k = diag_k x_k - sum over neighbours j of off_kj x_j
//
// off[a][k] holds the coupling between k and k+stride[a]. It is zero on the
// upper face of axis a, which lets lookups at k-stride[a] skip bounds checks
// on the axis being crossed.
type stencil struct {
	lat  lattice
	diag []float64
	off  [3][]float64
}

func newStencil(lat lattice) *stencil {
	s := &stencil{lat: lat, diag: make([]float64, lat.len)}
	for a := 0; a < lat.dims; a++ {
		s.off[a] = make([]float64, lat.len)
	}
	return s
}

// constantStencil builds the uniform operator a0 x_k - a1 sum(neighbours).
func constantStencil(lat lattice, a0, a1 float64) *stencil {
	s := newStencil(lat)
	for k := range s.diag {
		s.diag[k] = a0
		c := lat.coords(k)
		for a := 0; a < lat.dims; a++ {
			if c[a] < lat.n[a]-1 {
				s.off[a][k] = a1
			}
		}
	}
	return s
}

func (s *stencil) neighbourSum(x []float64, k int) float64 {
	var sum float64
	for a := 0; a < s.lat.dims; a++ {
		st := s.lat.stride[a]
		if c := s.off[a][k]; c != 0 {
			sum += c * x[k+st]
		}
		if k >= st {
			if c := s.off[a][k-st]; c != 0 {
				sum += c * x[k-st]
			}
		}
	}
	return sum
}

// apply computes dst = A src.
func (s *stencil) apply(dst, src []float64) {
	nx := s.lat.n[0]
	parallelRange(0, s.lat.rows(), func(r int) {
		for k := r * nx; k < (r+1)*nx; k++ {
			dst[k] = s.diag[k]*src[k] - s.neighbourSum(src, k)
		}
	})
}

// residual computes r = b - A x.
func (s *stencil) residual(r, b, x []float64) {
	nx := s.lat.n[0]
	parallelRange(0, s.lat.rows(), func(row int) {
		for k := row * nx; k < (row+1)*nx; k++ {
			r[k] = b[k] - s.diag[k]*x[k] + s.neighbourSum(x, k)
		}
	})
}

// sweep performs one lexicographic successive over-relaxation pass.
func (s *stencil) sweep(x, b []float64, omega float64) {
	for k := range x {
		gs := (b[k] + s.neighbourSum(x, k)) / s.diag[k]
		x[k] += omega * (gs - x[k])
	}
}
