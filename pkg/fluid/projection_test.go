package fluid

import (
	"math"
	"testing"
)

// gradientField fills vel, border included, with the gradient of a Gaussian
// bump centred on the grid: a smooth, strongly divergent field.
func gradientField(g Grid, amplitude, sigma float64) [][]float64 {
	vel := make([][]float64, g.Dims())
	for a := range vel {
		vel[a] = make([]float64, g.Cells())
	}
	var centre [3]float64
	for a := 0; a < g.Dims(); a++ {
		centre[a] = float64(g.size[a]+1) / 2
	}
	for i := 0; i < g.Cells(); i++ {
		c := g.coords(i)
		var d [3]float64
		var r2 float64
		for a := 0; a < g.Dims(); a++ {
			d[a] = float64(c[a]) - centre[a]
			r2 += d[a] * d[a]
		}
		phi := amplitude * math.Exp(-r2/(2*sigma*sigma))
		for a := 0; a < g.Dims(); a++ {
			vel[a][i] = -d[a] / (sigma * sigma) * phi
		}
	}
	return vel
}

func TestProjectionRemovesDivergence(t *testing.T) {
	for _, method := range allMethods {
		t.Run(method.String(), func(t *testing.T) {
			g := NewGrid2D(32, 32)
			vel := gradientField(g, 0.5, 4)
			before := meanAbsDivergence(g, vel)
			if before < 1e-3 {
				t.Fatalf("test field is not divergent enough: %g", before)
			}

			s := NewPoissonSolver(g)
			m := s.PrepareDivergenceMatrix(method)
			res := newProjector(g).project(s, m, vel, method)
			if !res.Converged {
				t.Fatalf("projection solve did not converge: %+v", res)
			}
			reflectVelocity(g, vel)

			after := meanAbsDivergence(g, vel)
			if after >= 1e-3 {
				t.Errorf("mean |div| after projection = %g, want < 1e-3", after)
			}
			if after >= 0.1*before {
				t.Errorf("divergence only fell from %g to %g", before, after)
			}
		})
	}
}

func TestProjection3D(t *testing.T) {
	g := NewGrid3D(16, 16, 16)
	vel := gradientField(g, 0.5, 3)
	before := meanAbsDivergence(g, vel)

	s := NewPoissonSolver(g)
	m := s.PrepareDivergenceMatrix(MethodPreconCG)
	newProjector(g).project(s, m, vel, MethodPreconCG)
	reflectVelocity(g, vel)

	if after := meanAbsDivergence(g, vel); after >= 0.1*before || after >= 1e-3 {
		t.Errorf("mean |div| went from %g to %g", before, after)
	}
}

func TestProjectionOfDivergenceFreeFieldIsNoop(t *testing.T) {
	g := NewGrid2D(16, 16)
	vel := [][]float64{make([]float64, g.Cells()), make([]float64, g.Cells())}
	for i := range vel[0] {
		vel[0][i] = 0.3
	}
	s := NewPoissonSolver(g)
	m := s.PrepareDivergenceMatrix(MethodCG)
	res := newProjector(g).project(s, m, vel, MethodCG)
	if res.Iterations != 0 {
		t.Errorf("uniform flow needed %d iterations", res.Iterations)
	}
	g.walkInterior(func(i int) {
		if vel[0][i] != 0.3 || vel[1][i] != 0 {
			t.Fatalf("cell %v changed to (%g, %g)", g.coords(i), vel[0][i], vel[1][i])
		}
	})
}
