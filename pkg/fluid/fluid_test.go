package fluid

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestNewSolverRejectsBadDimensions(t *testing.T) {
	if _, err := NewSolver2D(0, 4); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("NewSolver2D(0, 4) error = %v", err)
	}
	if _, err := NewSolver3D(4, 4, -1); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("NewSolver3D(4, 4, -1) error = %v", err)
	}
	s, err := NewSolver2D(5, 3)
	if err != nil {
		t.Fatal(err)
	}
	if w, h := s.Dimensions(); w != 5 || h != 3 {
		t.Errorf("Dimensions() = %d, %d", w, h)
	}
}

func TestAddSourcesAccumulate(t *testing.T) {
	s, _ := NewSolver2D(8, 8)
	s.AddDensity(2, 3, 1.5)
	s.AddDensity(2, 3, 2)
	s.AddTemperature(2, 3, 0.25)
	s.AddVelocity(2, 3, 1, -1)
	s.AddVelocity(2, 3, 0.5, 0)

	i, _ := s.grid.interiorIndex(Coord{X: 2, Y: 3})
	if s.densitySrc[i] != 3.5 {
		t.Errorf("density source = %g, want 3.5", s.densitySrc[i])
	}
	if s.temperatureSrc[i] != 0.25 {
		t.Errorf("temperature source = %g, want 0.25", s.temperatureSrc[i])
	}
	if s.velSrc[0][i] != 1.5 || s.velSrc[1][i] != -1 {
		t.Errorf("velocity source = (%g, %g), want (1.5, -1)", s.velSrc[0][i], s.velSrc[1][i])
	}

	// out of range is dropped
	s.AddDensity(8, 0, 1)
	s.AddDensity(-1, 0, 1)
	s.AddVelocity(0, 9, 1, 1)
	var total float64
	for _, v := range s.densitySrc {
		total += v
	}
	if total != 3.5 {
		t.Errorf("out-of-range writes changed the source: total %g", total)
	}
}

func TestAddDuringTickPanics(t *testing.T) {
	s, _ := NewSolver2D(4, 4)
	s.state = Ticking
	defer func() {
		if recover() == nil {
			t.Fatal("AddDensity during a tick should panic")
		}
	}()
	s.AddDensity(1, 1, 1)
}

func TestTickRejectsInvalidSettings(t *testing.T) {
	s, _ := NewSolver2D(4, 4)
	cases := map[string]func(*Settings){
		"negative viscosity": func(st *Settings) { st.Viscosity = -1 },
		"nan diffusion":      func(st *Settings) { st.DiffusionRate = math.NaN() },
		"bad method":         func(st *Settings) { st.DiffusionMethod = Method(42) },
		"bad advection":      func(st *Settings) { st.AdvectionMethod = AdvectionMethod(-1) },
		"too many steps":     func(st *Settings) { st.AdvectionSteps = maxAdvectionSteps + 1 },
		"overflowing rate":   func(st *Settings) { st.Viscosity = math.MaxFloat64 },
	}
	for name, mutate := range cases {
		st := DefaultSettings()
		mutate(&st)
		dt := 1.0 / 60
		if name == "overflowing rate" {
			dt = 10
		}
		if _, err := s.Tick(dt, st); !errors.Is(err, ErrInvalidSettings) {
			t.Errorf("%s: error = %v, want ErrInvalidSettings", name, err)
		}
	}
	if _, err := s.Tick(math.Inf(1), DefaultSettings()); !errors.Is(err, ErrInvalidSettings) {
		t.Errorf("infinite dt: error = %v", err)
	}
	if s.State() != Idle {
		t.Errorf("state after rejected ticks = %s", s.State())
	}
	if s.Stats().Ticks != 0 {
		t.Errorf("rejected ticks were counted")
	}
}

// A single puff of density in a still 32x32 box spreads to its neighbours
// and keeps its mass.
func TestTickSpreadsDensity(t *testing.T) {
	s, err := NewSolver2D(32, 32, WithTolerance(1e-10))
	if err != nil {
		t.Fatal(err)
	}
	settings := DefaultSettings()
	s.AddDensity(16, 16, 100)

	report, err := s.Tick(settings.DeltaTime, settings)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Converged() {
		t.Fatalf("unconverged solves: %+v", report.Unconverged())
	}

	d := s.Density()
	centre := d.Load(Coord{X: 16, Y: 16})
	if centre <= 0 || centre >= 100 {
		t.Errorf("centre density = %g", centre)
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			v := d.Load(Coord{X: 16 + dx, Y: 16 + dy})
			if v <= 0 || v >= centre {
				t.Errorf("neighbour (%d, %d) = %g, want in (0, %g)", dx, dy, v, centre)
			}
		}
	}
	want := 100 * settings.DeltaTime
	if sum := d.Sum(); math.Abs(sum-want) > 0.01*want {
		t.Errorf("total density = %g, want %g within 1%%", sum, want)
	}
}

func TestTickAccumulatesSources(t *testing.T) {
	a, _ := NewSolver2D(16, 16)
	b, _ := NewSolver2D(16, 16)
	a.AddDensity(5, 5, 1)
	a.AddDensity(5, 5, 2)
	a.AddVelocity(5, 5, 1, 0)
	a.AddVelocity(5, 5, 1, 0)
	b.AddDensity(5, 5, 3)
	b.AddVelocity(5, 5, 2, 0)

	settings := DefaultSettings()
	for _, s := range []*Solver2D{a, b} {
		if _, err := s.Step(settings); err != nil {
			t.Fatal(err)
		}
	}
	da, db := a.Density().Values(), b.Density().Values()
	for i := range da {
		if da[i] != db[i] {
			t.Fatalf("density differs at %v: %g vs %g", a.grid.coords(i), da[i], db[i])
		}
	}
}

func TestTickClearsSourcesAndReports(t *testing.T) {
	s, _ := NewSolver2D(12, 10)
	s.AddDensity(3, 3, 1)
	s.AddTemperature(3, 3, 1)
	s.AddVelocity(3, 3, 1, 1)

	report, err := s.Step(DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	for _, buf := range [][]float64{s.densitySrc, s.temperatureSrc, s.velSrc[0], s.velSrc[1]} {
		for i, v := range buf {
			if v != 0 {
				t.Fatalf("source not cleared at %v: %g", s.grid.coords(i), v)
			}
		}
	}
	if s.State() != Idle {
		t.Errorf("state = %s after Tick", s.State())
	}

	var stages []Stage
	for _, r := range report.Solves {
		stages = append(stages, r.Stage)
	}
	want := []Stage{StageVelocityDiffusion, StageVelocityDiffusion, StageProjection, StageDensityDiffusion, StageTemperatureDiffusion}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage %d = %s, want %s", i, stages[i], want[i])
		}
	}
	if report.AdvectionSteps != DefaultSettings().AdvectionSteps {
		t.Errorf("advection steps = %d", report.AdvectionSteps)
	}
}

func TestTickReusesMatrices(t *testing.T) {
	s, _ := NewSolver2D(10, 10)
	settings := DefaultSettings()
	for i := 0; i < 2; i++ {
		if _, err := s.Tick(0.02, settings); err != nil {
			t.Fatal(err)
		}
	}
	st := s.Stats()
	if st.VelocityMatrixBuilds != 1 || st.DensityMatrixBuilds != 1 || st.TemperatureMatrixBuilds != 1 {
		t.Fatalf("same dt rebuilt matrices: %+v", st)
	}

	if _, err := s.Tick(0.03, settings); err != nil {
		t.Fatal(err)
	}
	st = s.Stats()
	if st.VelocityMatrixBuilds != 2 || st.DensityMatrixBuilds != 2 || st.TemperatureMatrixBuilds != 2 {
		t.Errorf("new dt did not rebuild every matrix: %+v", st)
	}
	if st.Ticks != 3 || st.Solves != 15 {
		t.Errorf("ticks = %d, solves = %d", st.Ticks, st.Solves)
	}
}

func TestTickAutomaticSubsteps(t *testing.T) {
	s, _ := NewSolver2D(8, 8)
	settings := DefaultSettings()
	settings.AdvectionSteps = 0
	report, err := s.Step(settings)
	if err != nil {
		t.Fatal(err)
	}
	if report.AdvectionSteps != 1 {
		t.Errorf("still fluid used %d sub-steps", report.AdvectionSteps)
	}
}

func TestTickDetectsNonFiniteValues(t *testing.T) {
	s, _ := NewSolver2D(8, 8)
	s.AddDensity(4, 4, math.Inf(1))
	_, err := s.Step(DefaultSettings())
	if !errors.Is(err, ErrNonFinite) {
		t.Fatalf("error = %v, want ErrNonFinite", err)
	}
	if !strings.Contains(err.Error(), "density") {
		t.Errorf("error %q does not name the quantity", err)
	}
}

// Hot fluid rises, which is towards negative v.
func TestBuoyancyLiftsHotFluid(t *testing.T) {
	s, _ := NewSolver2D(16, 16)
	settings := DefaultSettings()
	settings.VorticityConfinement = 0
	s.AddTemperature(8, 8, 50)
	for i := 0; i < 2; i++ {
		if _, err := s.Step(settings); err != nil {
			t.Fatal(err)
		}
	}
	if v := s.Velocity().Load(Coord{X: 8, Y: 8}); v.Y >= 0 {
		t.Errorf("v at the heat source = %g, want < 0", v.Y)
	}
}

func TestHeatTo(t *testing.T) {
	s, _ := NewSolver2D(4, 4)
	s.HeatTo(2, 2, 10)
	s.HeatTo(2, 2, 10)
	temp := s.Temperature()
	if got := temp.Load(Coord{X: 2, Y: 2}); got != 7.5 {
		t.Errorf("temperature = %g, want 7.5", got)
	}
	s.HeatTo(2, 2, 1)
	if got := temp.Load(Coord{X: 2, Y: 2}); got != 7.5 {
		t.Errorf("HeatTo cooled the cell to %g", got)
	}
}

func TestSplatDensity(t *testing.T) {
	s, _ := NewSolver2D(16, 16)
	s.SplatDensity(8, 8, 3, 2)

	at := func(x, y int) float64 {
		i, _ := s.grid.interiorIndex(Coord{X: x, Y: y})
		return s.densitySrc[i]
	}
	if got := at(8, 8); got != 2 {
		t.Errorf("centre = %g, want 2", got)
	}
	if got, want := at(11, 8), 2*math.Exp(-3); math.Abs(got-want) > 1e-12 {
		t.Errorf("rim = %g, want %g", got, want)
	}
	if got := at(12, 8); got != 0 {
		t.Errorf("outside radius = %g", got)
	}
	if at(9, 8) <= at(10, 8) {
		t.Error("falloff is not monotonic")
	}

	// splats clip at the walls
	s.SplatVelocity(0, 0, 2, 1, 0)
}

func TestReset(t *testing.T) {
	s, _ := NewSolver2D(8, 8)
	s.AddDensity(4, 4, 1)
	s.AddVelocity(4, 4, 1, 1)
	if _, err := s.Step(DefaultSettings()); err != nil {
		t.Fatal(err)
	}
	s.Reset()
	for _, f := range []ScalarField{s.Density(), s.Temperature(), s.Pressure(), s.Velocity().Component(0)} {
		for _, v := range f.Values() {
			if v != 0 {
				t.Fatal("Reset left a non-zero value")
			}
		}
	}
	if s.Stats().VelocityMatrixBuilds != 1 {
		t.Error("Reset dropped the cached matrices")
	}
}

func TestDiagnostics(t *testing.T) {
	s, _ := NewSolver2D(16, 16)
	copy(s.velT1[0], vortexField(s.grid)[0])
	copy(s.velT1[1], vortexField(s.grid)[1])

	w := s.Vorticity()
	if c := w.Load(Coord{X: 7, Y: 7}); c <= 0 {
		t.Errorf("counter-clockwise vortex has curl %g at its centre", c)
	}
	speed := s.VelocityMagnitude()
	_, hi := speed.Range()
	if math.Abs(hi-s.MaxSpeed()) > 1e-12 {
		t.Errorf("max of magnitude field %g != MaxSpeed %g", hi, s.MaxSpeed())
	}
	if s.MaxDivergence() < s.MeanAbsDivergence() {
		t.Error("max divergence below the mean")
	}
}

func TestSolver3D(t *testing.T) {
	s, err := NewSolver3D(8, 6, 7)
	if err != nil {
		t.Fatal(err)
	}
	if w, h, d := s.Dimensions(); w != 8 || h != 6 || d != 7 {
		t.Fatalf("Dimensions() = %d, %d, %d", w, h, d)
	}
	s.AddDensity(4, 3, 3, 10)
	s.SplatVelocity(4, 3, 3, 2, Vector{Z: 1})

	report, err := s.Step(DefaultSettings())
	if err != nil {
		t.Fatal(err)
	}
	var velocitySolves int
	for _, r := range report.Solves {
		switch r.Stage {
		case StageVelocityDiffusion:
			velocitySolves++
		case StageTemperatureDiffusion:
			t.Error("3D solver diffused temperature")
		}
	}
	if velocitySolves != 3 {
		t.Errorf("velocity solves = %d, want 3", velocitySolves)
	}
	if _, hi := s.Density().Range(); hi <= 0 {
		t.Error("density vanished")
	}
	if v := s.Velocity().Load(Coord{X: 4, Y: 3, Z: 3}); v.Z <= 0 {
		t.Errorf("w at the splat = %g, want > 0", v.Z)
	}
}
