package fluid

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestDiffusionZeroCoefficientIsIdentity(t *testing.T) {
	g := NewGrid2D(12, 9)
	rng := rand.New(rand.NewPCG(4, 4))
	field := randomField(g, rng)
	want := append([]float64(nil), field...)

	var cache diffusionCache
	s := NewPoissonSolver(g)
	for _, method := range allMethods {
		res := cache.diffuse(s, field, 0, method)
		if !res.Converged {
			t.Fatalf("%s: %+v", method, res)
		}
		g.walkInterior(func(i int) {
			if math.Abs(field[i]-want[i]) > 1e-12 {
				t.Errorf("%s: cell %v = %g, want %g", method, g.coords(i), field[i], want[i])
			}
		})
	}
}

func TestDiffusionCacheRebuildsOnlyOnChange(t *testing.T) {
	g := NewGrid2D(8, 8)
	s := NewPoissonSolver(g)
	cache := diffusionCache{quantity: "density"}

	first := cache.prepare(s, 0.01, MethodCG)
	if again := cache.prepare(s, 0.01, MethodCG); again != first {
		t.Error("same coefficient rebuilt the matrix")
	}
	if cache.builds != 1 {
		t.Fatalf("builds = %d, want 1", cache.builds)
	}
	other := cache.prepare(s, 0.02, MethodCG)
	if other == first || cache.builds != 2 {
		t.Errorf("changed coefficient did not rebuild (builds = %d)", cache.builds)
	}
	a0, a1 := other.Coefficients()
	if a0 != 1+4*0.02 || a1 != 0.02 {
		t.Errorf("coefficients = (%g, %g)", a0, a1)
	}
}

// Diffusion spreads a spike into its neighbours and lowers its peak.
func TestDiffusionSpreads(t *testing.T) {
	g := NewGrid2D(9, 9)
	s := NewPoissonSolver(g)
	f := NewScalarField(g)
	f.Write(Coord{X: 4, Y: 4}, 10)

	var cache diffusionCache
	cache.diffuse(s, f.values, 0.5, MethodPreconCG)

	centre := f.Load(Coord{X: 4, Y: 4})
	if centre >= 10 || centre <= 0 {
		t.Errorf("centre = %g, want in (0, 10)", centre)
	}
	for _, c := range []Coord{{X: 3, Y: 4}, {X: 5, Y: 4}, {X: 4, Y: 3}, {X: 4, Y: 5}} {
		if v := f.Load(c); v <= 0 || v >= centre {
			t.Errorf("neighbour %v = %g, want in (0, %g)", c, v, centre)
		}
	}
}
