package fluid

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"
)

var allMethods = []Method{MethodCG, MethodPreconCG, MethodGaussSeidel, MethodMultigrid, MethodDirect}

func randomField(g Grid, rng *rand.Rand) []float64 {
	f := make([]float64, g.Cells())
	for i := range f {
		f[i] = rng.Float64()*2 - 1
	}
	return f
}

// denseSolve solves the same system as PoissonSolver.Solve with gonum's dense
// LU, folding the border of dest into the right-hand side.
func denseSolve(t *testing.T, g Grid, m *PreparedMatrix, dest, source []float64) []float64 {
	t.Helper()
	_, a1 := m.Coefficients()
	n := m.Unknowns()
	b := mat.NewVecDense(n, nil)
	k := 0
	g.walkInterior(func(i int) {
		c := g.coords(i)
		v := source[i]
		for a := 0; a < g.Dims(); a++ {
			if c[a] == 1 {
				v += a1 * dest[i-g.stride[a]]
			}
			if c[a] == g.size[a] {
				v += a1 * dest[i+g.stride[a]]
			}
		}
		b.SetVec(k, v)
		k++
	})
	var x mat.VecDense
	if err := x.SolveVec(m.Dense(), b); err != nil {
		t.Fatalf("dense solve: %v", err)
	}
	out := make([]float64, n)
	for k := range out {
		out[k] = x.AtVec(k)
	}
	return out
}

func checkAgainstDense(t *testing.T, g Grid, prepare func(*PoissonSolver, Method) *PreparedMatrix) {
	for _, method := range allMethods {
		t.Run(method.String(), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(7, 11))
			s := NewPoissonSolver(g, WithSolveTolerance(1e-10), WithSolveIterations(2000))
			m := prepare(s, method)
			source := randomField(g, rng)
			dest := randomField(g, rng)
			want := denseSolve(t, g, m, dest, source)

			border := make([]float64, len(dest))
			copy(border, dest)

			res := s.Solve(dest, m, source, method)
			if !res.Converged {
				t.Fatalf("%s did not converge: %+v", method, res)
			}
			if res.Method != method {
				t.Errorf("reported method %s, want %s", res.Method, method)
			}

			k := 0
			g.walkInterior(func(i int) {
				if d := math.Abs(dest[i] - want[k]); d > 1e-6 {
					t.Errorf("cell %v: got %g, want %g", g.coords(i), dest[i], want[k])
				}
				k++
			})
			g.walkBorder(func(p, _ int, _ [3]bool) {
				if dest[p] != border[p] {
					t.Errorf("border cell %v changed from %g to %g", g.coords(p), border[p], dest[p])
				}
			})
		})
	}
}

func TestSolveDiffusionMatchesDense(t *testing.T) {
	g := NewGrid2D(7, 5)
	checkAgainstDense(t, g, func(s *PoissonSolver, m Method) *PreparedMatrix {
		k := 0.8
		return s.PrepareDiffusionMatrix(1+4*k, k, m)
	})
}

func TestSolveDivergenceMatchesDense(t *testing.T) {
	g := NewGrid2D(6, 9)
	checkAgainstDense(t, g, func(s *PoissonSolver, m Method) *PreparedMatrix {
		return s.PrepareDivergenceMatrix(m)
	})
}

func TestSolve3DMatchesDense(t *testing.T) {
	g := NewGrid3D(4, 3, 5)
	checkAgainstDense(t, g, func(s *PoissonSolver, m Method) *PreparedMatrix {
		return s.PrepareDivergenceMatrix(m)
	})
}

func TestSolveZeroRightHandSide(t *testing.T) {
	g := NewGrid2D(8, 8)
	s := NewPoissonSolver(g)
	m := s.PrepareDivergenceMatrix(MethodPreconCG)
	dest := make([]float64, g.Cells())
	g.walkInterior(func(i int) { dest[i] = 3 })

	res := s.Solve(dest, m, make([]float64, g.Cells()), MethodPreconCG)
	if !res.Converged || res.Iterations != 0 {
		t.Fatalf("expected immediate convergence, got %+v", res)
	}
	for i, v := range dest {
		if v != 0 {
			t.Fatalf("cell %v = %g, want 0", g.coords(i), v)
		}
	}
}

func TestSolveAliasedDestination(t *testing.T) {
	g := NewGrid2D(10, 6)
	rng := rand.New(rand.NewPCG(3, 5))
	s := NewPoissonSolver(g)
	m := s.PrepareDiffusionMatrix(1+4*0.3, 0.3, MethodCG)

	field := randomField(g, rng)
	dest := make([]float64, len(field))
	copy(dest, field)
	source := make([]float64, len(field))
	copy(source, field)

	s.Solve(dest, m, source, MethodCG)
	s.Solve(field, m, field, MethodCG)
	for i := range field {
		if math.Abs(field[i]-dest[i]) > 1e-12 {
			t.Fatalf("aliased solve differs at %v: %g vs %g", g.coords(i), field[i], dest[i])
		}
	}
}

func TestSolveDirectFallsBackOnLargeGrids(t *testing.T) {
	g := NewGrid2D(70, 70)
	s := NewPoissonSolver(g)
	m := s.PrepareDivergenceMatrix(MethodDirect)
	rng := rand.New(rand.NewPCG(1, 2))
	res := s.Solve(make([]float64, g.Cells()), m, randomField(g, rng), MethodDirect)
	if res.Method != MethodPreconCG {
		t.Fatalf("expected fallback to %s, got %s", MethodPreconCG, res.Method)
	}
	if !res.Converged {
		t.Fatalf("fallback did not converge: %+v", res)
	}
}

func TestSolveReportsNonConvergence(t *testing.T) {
	g := NewGrid2D(32, 32)
	s := NewPoissonSolver(g, WithSolveIterations(2))
	m := s.PrepareDivergenceMatrix(MethodCG)
	rng := rand.New(rand.NewPCG(9, 9))
	res := s.Solve(make([]float64, g.Cells()), m, randomField(g, rng), MethodCG)
	if res.Converged {
		t.Fatalf("two CG iterations should not converge on 32x32: %+v", res)
	}
	if res.Iterations != 2 {
		t.Errorf("iterations = %d, want 2", res.Iterations)
	}
}

func TestSolvePanicsOnGridMismatch(t *testing.T) {
	a := NewPoissonSolver(NewGrid2D(4, 4))
	b := NewPoissonSolver(NewGrid2D(5, 4))
	m := b.PrepareDivergenceMatrix(MethodCG)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	f := make([]float64, a.grid.Cells())
	a.Solve(f, m, f, MethodCG)
}

func TestParseMethod(t *testing.T) {
	for _, m := range allMethods {
		got, err := ParseMethod(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMethod(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMethod("jacobi"); err == nil {
		t.Error("expected error for unknown method")
	}
}
