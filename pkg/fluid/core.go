package fluid

import (
	"fmt"
	"io"
	"log/slog"

	"gonum.org/v1/gonum/floats"
)

// State reports whether a solver is between ticks or inside one.
type State int

const (
	Idle State = iota
	Ticking
)

func (s State) String() string {
	if s == Ticking {
		return "ticking"
	}
	return "idle"
}

// Stage names the pipeline step a linear solve belongs to.
type Stage string

const (
	StageVelocityDiffusion    Stage = "velocity-diffusion"
	StageProjection           Stage = "projection"
	StageDensityDiffusion     Stage = "density-diffusion"
	StageTemperatureDiffusion Stage = "temperature-diffusion"
)

// SolveReport is one linear solve of a tick. Component is the velocity axis
// for velocity diffusion and -1 otherwise.
type SolveReport struct {
	Stage     Stage
	Component int
	SolveResult
}

type TickReport struct {
	Solves         []SolveReport
	AdvectionSteps int
}

// Converged reports whether every solve of the tick reached its tolerance.
func (r TickReport) Converged() bool {
	return len(r.Unconverged()) == 0
}

func (r TickReport) Unconverged() []SolveReport {
	var out []SolveReport
	for _, s := range r.Solves {
		if !s.Converged {
			out = append(out, s)
		}
	}
	return out
}

// Stats counts work done since construction. Matrix builds are tracked per
// quantity; velocity components share one matrix.
type Stats struct {
	VelocityMatrixBuilds    int
	DensityMatrixBuilds     int
	TemperatureMatrixBuilds int
	Solves                  int
	Ticks                   int
}

type options struct {
	logger        *slog.Logger
	tolerance     float64
	maxIterations int
}

type Option func(*options)

// WithLogger sets the sink for per-solve diagnostics. Solves are logged at
// debug level, unconverged solves at warn.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTolerance sets the relative residual at which linear solves stop.
func WithTolerance(tol float64) Option {
	return func(o *options) { o.tolerance = tol }
}

func WithMaxIterations(n int) Option {
	return func(o *options) { o.maxIterations = n }
}

// core is the state and pipeline shared by the 2D and 3D solvers.
type core struct {
	grid   Grid
	logger *slog.Logger

	poisson           *PoissonSolver
	incompressibility *PreparedMatrix

	velT0, velT1, velSrc [][]float64
	density, densitySrc  []float64
	// nil on 3D grids
	temperature, temperatureSrc []float64

	velocityCache    diffusionCache
	densityCache     diffusionCache
	temperatureCache diffusionCache

	adv  *advector
	proj *projector
	conf *confiner

	state State
	stats Stats
}

func newCore(g Grid, withTemperature bool, opts []Option) (*core, error) {
	if !g.valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDimensions, g.size[:g.dims])
	}
	o := options{
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		tolerance:     DefaultTolerance,
		maxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &core{
		grid:             g,
		logger:           o.logger,
		poisson:          NewPoissonSolver(g, WithSolveTolerance(o.tolerance), WithSolveIterations(o.maxIterations)),
		velocityCache:    diffusionCache{quantity: "velocity"},
		densityCache:     diffusionCache{quantity: "density"},
		temperatureCache: diffusionCache{quantity: "temperature"},
		adv:              newAdvector(g),
		proj:             newProjector(g),
		conf:             newConfiner(g),
	}
	c.incompressibility = c.poisson.PrepareDivergenceMatrix(MethodPreconCG)

	alloc := func() []float64 { return make([]float64, g.cells) }
	for a := 0; a < g.dims; a++ {
		c.velT0 = append(c.velT0, alloc())
		c.velT1 = append(c.velT1, alloc())
		c.velSrc = append(c.velSrc, alloc())
	}
	c.density, c.densitySrc = alloc(), alloc()
	if withTemperature {
		c.temperature, c.temperatureSrc = alloc(), alloc()
	}
	return c, nil
}

func (c *core) State() State { return c.state }

func (c *core) Stats() Stats {
	s := c.stats
	s.VelocityMatrixBuilds = c.velocityCache.builds
	s.DensityMatrixBuilds = c.densityCache.builds
	s.TemperatureMatrixBuilds = c.temperatureCache.builds
	return s
}

// Reset zeroes every field. Cached matrices are kept.
func (c *core) Reset() {
	c.mustBeIdle("Reset")
	for _, set := range [][][]float64{c.velT0, c.velT1, c.velSrc} {
		for _, comp := range set {
			clear(comp)
		}
	}
	clear(c.density)
	clear(c.densitySrc)
	clear(c.temperature)
	clear(c.temperatureSrc)
	clear(c.proj.q)
}

func (c *core) mustBeIdle(op string) {
	if c.state != Idle {
		panic("fluid: " + op + " called during Tick")
	}
}

func (c *core) addScalar(buf []float64, at Coord, amount float64) {
	c.mustBeIdle("add source")
	if i, ok := c.grid.interiorIndex(at); ok {
		buf[i] += amount
	}
}

func (c *core) addVelocity(at Coord, v Vector) {
	c.mustBeIdle("AddVelocity")
	if i, ok := c.grid.interiorIndex(at); ok {
		for a, comp := range c.velSrc {
			comp[i] += v.component(a)
		}
	}
}

func (c *core) record(report *TickReport, stage Stage, component int, res SolveResult) {
	c.stats.Solves++
	report.Solves = append(report.Solves, SolveReport{Stage: stage, Component: component, SolveResult: res})
	attrs := []any{
		"stage", stage,
		"method", res.Method,
		"iterations", res.Iterations,
		"residual", res.Residual,
	}
	if component >= 0 {
		attrs = append(attrs, "component", component)
	}
	if !res.Converged {
		c.logger.Warn("linear solve did not converge", attrs...)
		return
	}
	c.logger.Debug("linear solve", attrs...)
}

func (c *core) diffuse(report *TickReport, stage Stage, component int, cache *diffusionCache, field []float64, k float64, method Method) {
	builds := cache.builds
	res := cache.diffuse(c.poisson, field, k, method)
	if cache.builds != builds {
		c.logger.Debug("diffusion matrix rebuilt", "quantity", cache.quantity, "coefficient", k)
	}
	c.record(report, stage, component, res)
}

// tick runs the full pipeline. Src buffers double as working buffers.
func (c *core) tick(dt float64, s Settings) (TickReport, error) {
	if err := s.Validate(dt); err != nil {
		return TickReport{}, err
	}
	c.mustBeIdle("Tick")
	c.state = Ticking
	defer func() { c.state = Idle }()

	g := c.grid
	var report TickReport

	c.conf.confine(c.velSrc, c.velT1, s.VorticityConfinement, dt)
	if c.temperature != nil {
		c.buoyancy(s.BuoyancyAlpha, s.BuoyancyBeta)
	}

	for a := range c.velT1 {
		copy(c.velT0[a], c.velT1[a])
		floats.AddScaledTo(c.velSrc[a], c.velT1[a], dt, c.velSrc[a])
	}
	floats.AddScaledTo(c.densitySrc, c.density, dt, c.densitySrc)
	if c.temperature != nil {
		floats.AddScaledTo(c.temperatureSrc, c.temperature, dt, c.temperatureSrc)
	}

	visc := dt * s.Viscosity
	for a, comp := range c.velSrc {
		c.diffuse(&report, StageVelocityDiffusion, a, &c.velocityCache, comp, visc, s.DiffusionMethod)
	}
	reflectVelocity(g, c.velSrc)

	adv := s.advection()
	if adv.Steps == 0 {
		adv.Steps = cflSteps(g, c.velT0, c.velSrc, dt)
	}
	report.AdvectionSteps = adv.Steps
	c.adv.advect(c.velT1, c.velSrc, c.velT0, c.velSrc, dt, adv)
	reflectVelocity(g, c.velT1)

	c.record(&report, StageProjection, -1,
		c.proj.project(c.poisson, c.incompressibility, c.velT1, s.IncompressibilityMethod))
	reflectVelocity(g, c.velT1)

	c.transport(&report, StageDensityDiffusion, &c.densityCache, c.density, c.densitySrc,
		dt*s.DiffusionRate, s.DiffusionMethod, adv, dt)
	if c.temperature != nil {
		c.transport(&report, StageTemperatureDiffusion, &c.temperatureCache, c.temperature, c.temperatureSrc,
			dt*s.TempDiffusionRate, s.DiffusionMethod, adv, dt)
	}

	for _, comp := range c.velSrc {
		clear(comp)
	}
	clear(c.densitySrc)
	clear(c.temperatureSrc)
	c.stats.Ticks++

	return report, c.checkFinite()
}

// transport diffuses a scalar's working buffer and advects it into current.
func (c *core) transport(report *TickReport, stage Stage, cache *diffusionCache, current, working []float64, k float64, method Method, adv AdvectionSettings, dt float64) {
	c.diffuse(report, stage, -1, cache, working, k, method)
	smearBorder(c.grid, working)
	c.adv.advect([][]float64{current}, [][]float64{working}, c.velT0, c.velT1, dt, adv)
	smearBorder(c.grid, current)
}

// buoyancy pushes the v source by density (down) and temperature (up).
// Upwards is negative v.
func (c *core) buoyancy(alpha, beta float64) {
	if alpha == 0 && beta == 0 {
		return
	}
	vSrc := c.velSrc[1]
	c.grid.forEachInterior(func(i int) {
		vSrc[i] += alpha*c.density[i] - beta*c.temperature[i]
	})
}

func (c *core) checkFinite() error {
	check := func(name string, f []float64) error {
		for _, v := range f {
			if !finite(v) {
				return fmt.Errorf("%w: %s", ErrNonFinite, name)
			}
		}
		return nil
	}
	for a, comp := range c.velT1 {
		if err := check(fmt.Sprintf("velocity[%d]", a), comp); err != nil {
			return err
		}
	}
	if err := check("density", c.density); err != nil {
		return err
	}
	if c.temperature != nil {
		return check("temperature", c.temperature)
	}
	return nil
}
