package fluid

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Method selects the algorithm used to solve a prepared linear system.
type Method int

const (
	MethodCG Method = iota
	MethodPreconCG
	MethodGaussSeidel
	MethodMultigrid
	MethodDirect
)

var methodNames = [...]string{
	MethodCG:          "cg",
	MethodPreconCG:    "precon-cg",
	MethodGaussSeidel: "gauss-seidel",
	MethodMultigrid:   "multigrid",
	MethodDirect:      "direct",
}

func (m Method) String() string {
	if m.valid() {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

func (m Method) valid() bool { return m >= 0 && int(m) < len(methodNames) }

// ParseMethod accepts the names printed by Method.String.
func ParseMethod(s string) (Method, error) {
	for i, name := range methodNames {
		if strings.EqualFold(s, name) {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("unknown solver method %q", s)
}

const (
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 500

	// Relaxation is the over-relaxation factor of the Gauss-Seidel method.
	Relaxation = 1.9

	// maxDirectUnknowns bounds the dense factorization used by MethodDirect.
	maxDirectUnknowns = 4096
)

// SolveResult describes how a Solve call went. Residual is relative to the
// norm of the right-hand side.
type SolveResult struct {
	Method     Method
	Iterations int
	Residual   float64
	Converged  bool
}

type matrixKind int

const (
	diffusionMatrix matrixKind = iota
	divergenceMatrix
)

// PreparedMatrix is an immutable operator over the interior cells of a grid.
// Preconditioner, multigrid hierarchy and dense factor are built on first use.
type PreparedMatrix struct {
	grid   Grid
	kind   matrixKind
	a0, a1 float64
	st     *stencil
	// border is the coupling to border cells, whose values are moved to the
	// right-hand side.
	border float64

	precOnce sync.Once
	prec     []float64

	mgOnce sync.Once
	mg     *hierarchy

	cholOnce sync.Once
	chol     *mat.Cholesky
}

func (m *PreparedMatrix) Grid() Grid { return m.grid }

// Coefficients returns the diagonal and neighbour weights of the stencil.
func (m *PreparedMatrix) Coefficients() (a0, a1 float64) { return m.a0, m.a1 }

// Unknowns is the number of interior cells the matrix acts on.
func (m *PreparedMatrix) Unknowns() int { return m.st.lat.len }

// Dense expands the operator into a dense symmetric matrix over the interior
// cells in row-major order.
func (m *PreparedMatrix) Dense() *mat.SymDense {
	lat := m.st.lat
	d := mat.NewSymDense(lat.len, nil)
	for k := 0; k < lat.len; k++ {
		d.SetSym(k, k, m.st.diag[k])
		for a := 0; a < lat.dims; a++ {
			if c := m.st.off[a][k]; c != 0 {
				d.SetSym(k, k+lat.stride[a], -c)
			}
		}
	}
	return d
}

func (m *PreparedMatrix) preconditioner() []float64 {
	m.precOnce.Do(func() { m.prec = buildMIC(m.st) })
	return m.prec
}

func (m *PreparedMatrix) hierarchy() *hierarchy {
	m.mgOnce.Do(func() { m.mg = buildHierarchy(m.st) })
	return m.mg
}

func (m *PreparedMatrix) cholesky() *mat.Cholesky {
	m.cholOnce.Do(func() {
		if m.Unknowns() > maxDirectUnknowns {
			return
		}
		var c mat.Cholesky
		if c.Factorize(m.Dense()) {
			m.chol = &c
		}
	})
	return m.chol
}

// warm builds whatever method needs ahead of the first solve.
func (m *PreparedMatrix) warm(method Method) {
	switch method {
	case MethodPreconCG:
		m.preconditioner()
	case MethodMultigrid:
		m.hierarchy()
	case MethodDirect:
		m.cholesky()
	}
}

// PoissonSolver builds and solves the sparse systems of one grid. It owns
// scratch vectors, so a solver must not be used from two goroutines at once.
type PoissonSolver struct {
	grid          Grid
	lat           lattice
	tolerance     float64
	maxIterations int

	b, x, r, z, p, q []float64
}

type PoissonOption func(*PoissonSolver)

// WithSolveTolerance sets the relative residual at which iteration stops.
func WithSolveTolerance(tol float64) PoissonOption {
	return func(s *PoissonSolver) { s.tolerance = tol }
}

func WithSolveIterations(n int) PoissonOption {
	return func(s *PoissonSolver) { s.maxIterations = n }
}

func NewPoissonSolver(g Grid, opts ...PoissonOption) *PoissonSolver {
	lat := newLattice(g.dims, g.size)
	s := &PoissonSolver{
		grid:          g,
		lat:           lat,
		tolerance:     DefaultTolerance,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, v := range []*[]float64{&s.b, &s.x, &s.r, &s.z, &s.p, &s.q} {
		*v = make([]float64, lat.len)
	}
	return s
}

// PrepareDiffusionMatrix returns the implicit diffusion operator
// a0 x_i - a1 sum(neighbours), usually with a0 = 1 + 2*dims*k and a1 = k.
func (s *PoissonSolver) PrepareDiffusionMatrix(a0, a1 float64, method Method) *PreparedMatrix {
	m := &PreparedMatrix{
		grid:   s.grid,
		kind:   diffusionMatrix,
		a0:     a0,
		a1:     a1,
		st:     constantStencil(s.lat, a0, a1),
		border: a1,
	}
	m.warm(method)
	return m
}

// PrepareDivergenceMatrix returns the negated compact Laplacian used to solve
// for the projection potential.
func (s *PoissonSolver) PrepareDivergenceMatrix(method Method) *PreparedMatrix {
	a0 := float64(2 * s.grid.dims)
	m := &PreparedMatrix{
		grid:   s.grid,
		kind:   divergenceMatrix,
		a0:     a0,
		a1:     1,
		st:     constantStencil(s.lat, a0, 1),
		border: 1,
	}
	m.warm(method)
	return m
}

// Solve solves matrix * dest = source over the interior cells of dest. The
// border of dest is treated as known boundary data and left untouched; its
// interior is the initial guess. dest and source may be the same slice.
func (s *PoissonSolver) Solve(dest []float64, m *PreparedMatrix, source []float64, method Method) SolveResult {
	if m.grid != s.grid {
		panic(fmt.Sprintf("fluid: matrix for grid %v used with solver for grid %v", m.grid.size, s.grid.size))
	}
	if len(dest) != s.grid.cells || len(source) != s.grid.cells {
		panic(fmt.Sprintf("fluid: field lengths %d/%d do not match grid size %d", len(dest), len(source), s.grid.cells))
	}
	if !method.valid() {
		panic(fmt.Sprintf("fluid: invalid solver method %d", int(method)))
	}

	s.gather(dest, source, m.border)

	var res SolveResult
	if floats.Norm(s.b, 2) == 0 {
		clear(s.x)
		res = SolveResult{Method: method, Converged: true}
	} else {
		res = s.dispatch(m, method)
	}

	s.scatter(dest)
	return res
}

func (s *PoissonSolver) dispatch(m *PreparedMatrix, method Method) SolveResult {
	switch method {
	case MethodPreconCG:
		prec := m.preconditioner()
		return s.conjugateGradient(m.st, method, func(z, r []float64) {
			applyMIC(m.st, prec, z, r)
		})
	case MethodGaussSeidel:
		return s.gaussSeidel(m.st, Relaxation)
	case MethodMultigrid:
		return s.multigrid(m.hierarchy())
	case MethodDirect:
		if chol := m.cholesky(); chol != nil {
			return s.direct(m.st, chol)
		}
		return s.dispatch(m, MethodPreconCG)
	}
	return s.conjugateGradient(m.st, MethodCG, nil)
}

// gather loads the right-hand side and initial guess into compact vectors.
func (s *PoissonSolver) gather(dest, source []float64, border float64) {
	g := s.grid
	nx := g.size[0]
	parallelRange(0, g.rows(), func(r int) {
		start := g.rowStart(r)
		c := g.coords(start)
		for x := 0; x < nx; x++ {
			i := start + x
			k := r*nx + x
			bv := source[i]
			if border != 0 {
				c[0] = x + 1
				bv += border * s.borderSum(dest, i, c)
			}
			s.b[k] = bv
			s.x[k] = dest[i]
		}
	})
}

// borderSum adds up the border neighbours of interior cell i at padded coords c.
func (s *PoissonSolver) borderSum(f []float64, i int, c [3]int) float64 {
	var sum float64
	for a := 0; a < s.grid.dims; a++ {
		st := s.grid.stride[a]
		if c[a] == 1 {
			sum += f[i-st]
		}
		if c[a] == s.grid.size[a] {
			sum += f[i+st]
		}
	}
	return sum
}

func (s *PoissonSolver) scatter(dest []float64) {
	g := s.grid
	nx := g.size[0]
	parallelRange(0, g.rows(), func(r int) {
		copy(dest[g.rowStart(r):][:nx], s.x[r*nx:][:nx])
	})
}

// conjugateGradient runs (preconditioned) CG on the gathered system. A nil
// precond gives plain CG.
func (s *PoissonSolver) conjugateGradient(st *stencil, method Method, precond func(z, r []float64)) SolveResult {
	bNorm := floats.Norm(s.b, 2)
	target := s.tolerance * bNorm

	st.residual(s.r, s.b, s.x)
	rNorm := floats.Norm(s.r, 2)
	if rNorm <= target {
		return SolveResult{Method: method, Residual: rNorm / bNorm, Converged: true}
	}

	z := s.r
	if precond != nil {
		z = s.z
		precond(z, s.r)
	}
	copy(s.p, z)
	rz := floats.Dot(s.r, z)

	for it := 1; it <= s.maxIterations; it++ {
		st.apply(s.q, s.p)
		pq := floats.Dot(s.p, s.q)
		if !(pq > 0) || math.IsInf(pq, 0) {
			return SolveResult{Method: method, Iterations: it - 1, Residual: rNorm / bNorm}
		}
		alpha := rz / pq
		floats.AddScaled(s.x, alpha, s.p)
		floats.AddScaled(s.r, -alpha, s.q)

		rNorm = floats.Norm(s.r, 2)
		if rNorm <= target {
			return SolveResult{Method: method, Iterations: it, Residual: rNorm / bNorm, Converged: true}
		}

		if precond != nil {
			precond(z, s.r)
		}
		rzNext := floats.Dot(s.r, z)
		beta := rzNext / rz
		rz = rzNext
		floats.Scale(beta, s.p)
		floats.Add(s.p, z)
	}
	return SolveResult{Method: method, Iterations: s.maxIterations, Residual: rNorm / bNorm}
}

func (s *PoissonSolver) gaussSeidel(st *stencil, omega float64) SolveResult {
	bNorm := floats.Norm(s.b, 2)
	target := s.tolerance * bNorm

	st.residual(s.r, s.b, s.x)
	rNorm := floats.Norm(s.r, 2)
	it := 0
	for rNorm > target && it < s.maxIterations {
		st.sweep(s.x, s.b, omega)
		st.residual(s.r, s.b, s.x)
		rNorm = floats.Norm(s.r, 2)
		it++
	}
	return SolveResult{Method: MethodGaussSeidel, Iterations: it, Residual: rNorm / bNorm, Converged: rNorm <= target}
}

func (s *PoissonSolver) direct(st *stencil, chol *mat.Cholesky) SolveResult {
	n := s.lat.len
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, mat.NewVecDense(n, s.b)); err != nil {
		// ill-conditioned; iterate from the current guess instead
		return s.conjugateGradient(st, MethodCG, nil)
	}
	copy(s.x, x.RawVector().Data)

	st.residual(s.r, s.b, s.x)
	res := floats.Norm(s.r, 2) / floats.Norm(s.b, 2)
	return SolveResult{Method: MethodDirect, Iterations: 1, Residual: res, Converged: res <= s.tolerance}
}
