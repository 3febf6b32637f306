package fluid

import "gonum.org/v1/gonum/floats"

const (
	preSmoothSweeps  = 3
	postSmoothSweeps = 3
	coarseSweeps     = 40
	coarseRelaxation = 1.6
	maxLevels        = 10
	minCoarseCells   = 64
)

// hierarchy is a stack of Galerkin operators built by aggregating 2^dims
// blocks of cells. agg[l] maps a cell of level l to its aggregate on l+1.
type hierarchy struct {
	levels []*stencil
	agg    [][]int32
}

func buildHierarchy(fine *stencil) *hierarchy {
	h := &hierarchy{levels: []*stencil{fine}}
	for len(h.levels) < maxLevels {
		cur := h.levels[len(h.levels)-1]
		if cur.lat.len <= minCoarseCells {
			break
		}
		var n [3]int
		for a := 0; a < 3; a++ {
			n[a] = cur.lat.n[a]
			if a < cur.lat.dims {
				n[a] = (n[a] + 1) / 2
			}
		}
		coarse := newLattice(cur.lat.dims, n)
		if coarse.len == cur.lat.len {
			break
		}
		op, agg := galerkin(cur, coarse)
		h.levels = append(h.levels, op)
		h.agg = append(h.agg, agg)
	}
	return h
}

// galerkin forms P^T A P for piecewise-constant prolongation P.
func galerkin(fine *stencil, coarse lattice) (*stencil, []int32) {
	op := newStencil(coarse)
	agg := make([]int32, fine.lat.len)
	for k := 0; k < fine.lat.len; k++ {
		c := fine.lat.coords(k)
		var cc [3]int
		for a := 0; a < 3; a++ {
			cc[a] = c[a]
			if a < fine.lat.dims {
				cc[a] /= 2
			}
		}
		K := coarse.index(cc)
		agg[k] = int32(K)
		op.diag[K] += fine.diag[k]
		for a := 0; a < fine.lat.dims; a++ {
			w := fine.off[a][k]
			if w == 0 {
				continue
			}
			if (c[a]+1)/2 == cc[a] {
				// both cells fall in the same aggregate
				op.diag[K] -= 2 * w
			} else {
				op.off[a][K] += w
			}
		}
	}
	return op, agg
}

type mgScratch struct {
	x, b, r [][]float64
}

func (h *hierarchy) scratch() *mgScratch {
	sc := &mgScratch{}
	for _, st := range h.levels {
		sc.x = append(sc.x, make([]float64, st.lat.len))
		sc.b = append(sc.b, make([]float64, st.lat.len))
		sc.r = append(sc.r, make([]float64, st.lat.len))
	}
	return sc
}

func (h *hierarchy) cycle(sc *mgScratch, l int, x, b []float64) {
	st := h.levels[l]
	if l == len(h.levels)-1 {
		for i := 0; i < coarseSweeps; i++ {
			st.sweep(x, b, coarseRelaxation)
		}
		return
	}
	for i := 0; i < preSmoothSweeps; i++ {
		st.sweep(x, b, 1)
	}

	r := sc.r[l]
	st.residual(r, b, x)
	cb, cx := sc.b[l+1], sc.x[l+1]
	clear(cb)
	clear(cx)
	agg := h.agg[l]
	for k, K := range agg {
		cb[K] += r[k]
	}
	h.cycle(sc, l+1, cx, cb)
	for k, K := range agg {
		x[k] += cx[K]
	}

	for i := 0; i < postSmoothSweeps; i++ {
		st.sweep(x, b, 1)
	}
}

// multigrid iterates V-cycles on the gathered system.
func (s *PoissonSolver) multigrid(h *hierarchy) SolveResult {
	fine := h.levels[0]
	bNorm := floats.Norm(s.b, 2)
	target := s.tolerance * bNorm

	fine.residual(s.r, s.b, s.x)
	rNorm := floats.Norm(s.r, 2)
	sc := h.scratch()
	it := 0
	for rNorm > target && it < s.maxIterations {
		h.cycle(sc, 0, s.x, s.b)
		fine.residual(s.r, s.b, s.x)
		rNorm = floats.Norm(s.r, 2)
		it++
	}
	return SolveResult{Method: MethodMultigrid, Iterations: it, Residual: rNorm / bNorm, Converged: rNorm <= target}
}
