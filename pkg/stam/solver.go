package stam

import (
	"fmt"

	"github.com/TheFellow/fluid/pkg/fluid"
)

// Solver is the reference 2D solver. Temperature is carried as a passive
// scalar diffused at TempDiffusionRate; there is no buoyancy or vorticity
// confinement.
type Solver struct {
	grid fluid.Grid
	lat  lattice

	vel, velPrev fluid.VectorField
	density      fluid.ScalarField
	densityPrev  fluid.ScalarField
	temp         fluid.ScalarField
	tempPrev     fluid.ScalarField
}

var _ fluid.Simulation2D = (*Solver)(nil)

func New(width, height int) (*Solver, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", fluid.ErrInvalidDimensions, width, height)
	}
	g := fluid.NewGrid2D(width, height)
	return &Solver{
		grid:        g,
		lat:         lattice{w: width, h: height, n: float64(g.Resolution())},
		vel:         fluid.NewVectorField(g),
		velPrev:     fluid.NewVectorField(g),
		density:     fluid.NewScalarField(g),
		densityPrev: fluid.NewScalarField(g),
		temp:        fluid.NewScalarField(g),
		tempPrev:    fluid.NewScalarField(g),
	}, nil
}

func (s *Solver) Dimensions() (width, height int) {
	return s.lat.w, s.lat.h
}

func (s *Solver) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < s.lat.w && y < s.lat.h
}

func (s *Solver) AddDensity(x, y int, amount float64) {
	if s.inside(x, y) {
		s.densityPrev.Values()[s.lat.ix(x+1, y+1)] += amount
	}
}

func (s *Solver) AddTemperature(x, y int, amount float64) {
	if s.inside(x, y) {
		s.tempPrev.Values()[s.lat.ix(x+1, y+1)] += amount
	}
}

func (s *Solver) AddVelocity(x, y int, u, v float64) {
	if s.inside(x, y) {
		i := s.lat.ix(x+1, y+1)
		s.velPrev.Component(0).Values()[i] += u
		s.velPrev.Component(1).Values()[i] += v
	}
}

// Tick runs one velocity step and one scalar step per carried quantity. Only
// the viscosity and diffusion rates are read from settings.
func (s *Solver) Tick(dt float64, settings fluid.Settings) (fluid.TickReport, error) {
	if err := settings.Validate(dt); err != nil {
		return fluid.TickReport{}, err
	}
	u, v := s.vel.Component(0).Values(), s.vel.Component(1).Values()
	u0, v0 := s.velPrev.Component(0).Values(), s.velPrev.Component(1).Values()

	velStep(s.lat, u, v, u0, v0, settings.Viscosity, dt)
	densStep(s.lat, s.density.Values(), s.densityPrev.Values(), u, v, settings.DiffusionRate, dt)
	densStep(s.lat, s.temp.Values(), s.tempPrev.Values(), u, v, settings.TempDiffusionRate, dt)

	for _, f := range [][]float64{u0, v0, s.densityPrev.Values(), s.tempPrev.Values()} {
		clear(f)
	}
	return fluid.TickReport{AdvectionSteps: 1}, nil
}

func (s *Solver) Density() fluid.ScalarField     { return s.density }
func (s *Solver) Temperature() fluid.ScalarField { return s.temp }
func (s *Solver) Velocity() fluid.VectorField    { return s.vel }
