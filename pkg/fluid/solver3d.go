package fluid

// Solver3D simulates density and velocity on a 3D grid. It has no
// temperature and no buoyancy.
type Solver3D struct {
	*core
}

func NewSolver3D(width, height, depth int, opts ...Option) (*Solver3D, error) {
	c, err := newCore(NewGrid3D(width, height, depth), false, opts)
	if err != nil {
		return nil, err
	}
	return &Solver3D{core: c}, nil
}

func (s *Solver3D) Dimensions() (width, height, depth int) {
	return s.grid.size[0], s.grid.size[1], s.grid.size[2]
}

func (s *Solver3D) AddDensity(x, y, z int, amount float64) {
	s.addScalar(s.densitySrc, Coord{X: x, Y: y, Z: z}, amount)
}

func (s *Solver3D) AddVelocity(x, y, z int, v Vector) {
	s.addVelocity(Coord{X: x, Y: y, Z: z}, v)
}

func (s *Solver3D) SplatDensity(x, y, z, radius int, amount float64) {
	s.splatScalar(s.densitySrc, Coord{X: x, Y: y, Z: z}, radius, amount)
}

func (s *Solver3D) SplatVelocity(x, y, z, radius int, v Vector) {
	s.splatVelocity(Coord{X: x, Y: y, Z: z}, radius, v)
}

func (s *Solver3D) Tick(dt float64, settings Settings) (TickReport, error) {
	return s.tick(dt, settings)
}

func (s *Solver3D) Step(settings Settings) (TickReport, error) {
	return s.tick(settings.DeltaTime, settings)
}
