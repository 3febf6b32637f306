package fluid

// projector removes the divergent part of a velocity field (Helmholtz-Hodge).
// It keeps the right-hand side and the potential between calls; the
// potential of the last projection doubles as the pressure view.
type projector struct {
	grid Grid
	delW []float64
	q    []float64
}

func newProjector(g Grid) *projector {
	return &projector{
		grid: g,
		delW: make([]float64, g.cells),
		q:    make([]float64, g.cells),
	}
}

// project solves lap(q) = div(w) and subtracts grad(q) from w in place.
func (p *projector) project(s *PoissonSolver, m *PreparedMatrix, vel [][]float64, method Method) SolveResult {
	g := p.grid
	h := 1 / float64(g.Resolution())
	delW, q := p.delW, p.q

	g.forEachInterior(func(i int) {
		delW[i] = -h * divergence(g, vel, i)
	})
	smearBorder(g, delW)

	clear(q)
	res := s.Solve(q, m, delW, method)
	smearBorder(g, q)

	scale := 0.5 / h
	for a, comp := range vel {
		st := g.stride[a]
		g.forEachInterior(func(i int) {
			comp[i] -= scale * (q[i+st] - q[i-st])
		})
	}
	return res
}

// divergence is the central-difference divergence at interior cell i, in
// cell units.
func divergence(g Grid, vel [][]float64, i int) float64 {
	var div float64
	for a, comp := range vel {
		st := g.stride[a]
		div += comp[i+st] - comp[i-st]
	}
	return 0.5 * div
}
