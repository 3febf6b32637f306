package fluid

// diffusionCache keeps the implicit diffusion operator of one quantity,
// keyed by the coefficient dt*rate it was built for.
type diffusionCache struct {
	quantity    string
	coefficient float64
	matrix      *PreparedMatrix
	builds      int
}

// prepare returns the operator for coefficient k, rebuilding it only when k
// differs from the cached value.
func (c *diffusionCache) prepare(s *PoissonSolver, k float64, method Method) *PreparedMatrix {
	if c.matrix == nil || c.coefficient != k {
		dims := float64(s.grid.dims)
		c.matrix = s.PrepareDiffusionMatrix(1+2*dims*k, k, method)
		c.coefficient = k
		c.builds++
	}
	return c.matrix
}

// diffuse solves (I - k lap) x = field in place.
func (c *diffusionCache) diffuse(s *PoissonSolver, field []float64, k float64, method Method) SolveResult {
	m := c.prepare(s, k, method)
	return s.Solve(field, m, field, method)
}
