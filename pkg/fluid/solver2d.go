package fluid

// Solver2D simulates smoke on a 2D grid: density, velocity and temperature,
// with buoyancy driven by the latter.
type Solver2D struct {
	*core
}

// NewSolver2D returns an idle solver with zeroed fields.
func NewSolver2D(width, height int, opts ...Option) (*Solver2D, error) {
	c, err := newCore(NewGrid2D(width, height), true, opts)
	if err != nil {
		return nil, err
	}
	return &Solver2D{core: c}, nil
}

func (s *Solver2D) Dimensions() (width, height int) {
	return s.grid.size[0], s.grid.size[1]
}

// AddDensity accumulates into the density source for the next Tick.
// Coordinates outside the grid are ignored.
func (s *Solver2D) AddDensity(x, y int, amount float64) {
	s.addScalar(s.densitySrc, Coord{X: x, Y: y}, amount)
}

func (s *Solver2D) AddTemperature(x, y int, amount float64) {
	s.addScalar(s.temperatureSrc, Coord{X: x, Y: y}, amount)
}

func (s *Solver2D) AddVelocity(x, y int, u, v float64) {
	s.addVelocity(Coord{X: x, Y: y}, Vector{X: u, Y: v})
}

// HeatTo moves the current temperature at (x, y) halfway toward target. It
// only ever heats.
func (s *Solver2D) HeatTo(x, y int, target float64) {
	s.heatTo(Coord{X: x, Y: y}, target)
}

// SplatDensity adds amount around (x, y) with a Gaussian falloff.
func (s *Solver2D) SplatDensity(x, y, radius int, amount float64) {
	s.splatScalar(s.densitySrc, Coord{X: x, Y: y}, radius, amount)
}

func (s *Solver2D) SplatTemperature(x, y, radius int, amount float64) {
	s.splatScalar(s.temperatureSrc, Coord{X: x, Y: y}, radius, amount)
}

func (s *Solver2D) SplatVelocity(x, y, radius int, u, v float64) {
	s.splatVelocity(Coord{X: x, Y: y}, radius, Vector{X: u, Y: v})
}

// Tick advances the simulation by dt, consuming everything added since the
// previous Tick.
func (s *Solver2D) Tick(dt float64, settings Settings) (TickReport, error) {
	return s.tick(dt, settings)
}

// Step is Tick with settings.DeltaTime.
func (s *Solver2D) Step(settings Settings) (TickReport, error) {
	return s.tick(settings.DeltaTime, settings)
}

func (s *Solver2D) Temperature() ScalarField {
	return ScalarField{grid: s.grid, values: s.temperature}
}
