// Package fluid simulates incompressible flow on regular 2D and 3D grids with
// Stam's stable-fluids scheme: implicit diffusion, semi-Lagrangian advection
// with optional error compensation, pressure projection and vorticity
// confinement. Density, velocity and (in 2D) temperature are carried on
// cell-centred fields with a one-cell border.
package fluid

// Simulation2D is the external contract of a 2D smoke solver.
type Simulation2D interface {
	Dimensions() (width, height int)
	AddDensity(x, y int, amount float64)
	AddTemperature(x, y int, amount float64)
	AddVelocity(x, y int, u, v float64)
	Tick(dt float64, settings Settings) (TickReport, error)
	Density() ScalarField
	Temperature() ScalarField
	Velocity() VectorField
}

// Simulation3D is the external contract of a 3D smoke solver.
type Simulation3D interface {
	Dimensions() (width, height, depth int)
	AddDensity(x, y, z int, amount float64)
	AddVelocity(x, y, z int, v Vector)
	Tick(dt float64, settings Settings) (TickReport, error)
	Density() ScalarField
	Velocity() VectorField
}

var (
	_ Simulation2D = (*Solver2D)(nil)
	_ Simulation3D = (*Solver3D)(nil)
)
