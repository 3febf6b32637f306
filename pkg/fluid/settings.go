package fluid

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidDimensions = errors.New("invalid grid dimensions")
	ErrInvalidSettings   = errors.New("invalid settings")
	ErrNonFinite         = errors.New("non-finite value in field")
)

// Settings configures one tick. It is read once at the start of Tick.
type Settings struct {
	DeltaTime float64

	Viscosity         float64
	DiffusionRate     float64
	TempDiffusionRate float64 // 2D only

	DiffusionMethod         Method
	AdvectionMethod         AdvectionMethod
	InterpolationMethod     InterpolationMethod
	AdvectionSteps          int
	IncompressibilityMethod Method

	BuoyancyAlpha        float64 // weight of density pulling down, 2D only
	BuoyancyBeta         float64 // weight of temperature pushing up, 2D only
	VorticityConfinement float64

	// Injection magnitudes suggested to callers of AddDensity/AddTemperature.
	AddDensity     float64
	AddTemperature float64
}

func DefaultSettings() Settings {
	return Settings{
		DeltaTime:               1.0 / 60.0,
		Viscosity:               0.05,
		DiffusionRate:           0.05,
		TempDiffusionRate:       2,
		DiffusionMethod:         MethodCG,
		AdvectionMethod:         AdvectMacCormack,
		InterpolationMethod:     InterpolateLinear,
		AdvectionSteps:          4,
		IncompressibilityMethod: MethodPreconCG,
		BuoyancyAlpha:           2,
		BuoyancyBeta:            2.2,
		VorticityConfinement:    0.75,
		AddDensity:              1,
		AddTemperature:          0.25,
	}
}

func (s Settings) advection() AdvectionSettings {
	return AdvectionSettings{
		Method:        s.AdvectionMethod,
		Interpolation: s.InterpolationMethod,
		Steps:         s.AdvectionSteps,
	}
}

// Validate checks s for a step of length dt.
func (s Settings) Validate(dt float64) error {
	if !finite(dt) || dt < 0 {
		return fmt.Errorf("%w: delta time %v", ErrInvalidSettings, dt)
	}
	coefficients := []struct {
		name  string
		value float64
	}{
		{"viscosity", s.Viscosity},
		{"diffusion rate", s.DiffusionRate},
		{"temperature diffusion rate", s.TempDiffusionRate},
		{"buoyancy alpha", s.BuoyancyAlpha},
		{"buoyancy beta", s.BuoyancyBeta},
		{"vorticity confinement", s.VorticityConfinement},
	}
	for _, c := range coefficients {
		if !finite(c.value) || c.value < 0 {
			return fmt.Errorf("%w: %s %v", ErrInvalidSettings, c.name, c.value)
		}
		if !finite(c.value * dt) {
			return fmt.Errorf("%w: %s %v overflows over %v", ErrInvalidSettings, c.name, c.value, dt)
		}
	}
	if !s.DiffusionMethod.valid() {
		return fmt.Errorf("%w: diffusion method %v", ErrInvalidSettings, s.DiffusionMethod)
	}
	if !s.IncompressibilityMethod.valid() {
		return fmt.Errorf("%w: incompressibility method %v", ErrInvalidSettings, s.IncompressibilityMethod)
	}
	if !s.AdvectionMethod.valid() {
		return fmt.Errorf("%w: advection method %v", ErrInvalidSettings, s.AdvectionMethod)
	}
	if !s.InterpolationMethod.valid() {
		return fmt.Errorf("%w: interpolation method %v", ErrInvalidSettings, s.InterpolationMethod)
	}
	if s.AdvectionSteps < 0 || s.AdvectionSteps > maxAdvectionSteps {
		return fmt.Errorf("%w: advection steps %d outside 0..%d", ErrInvalidSettings, s.AdvectionSteps, maxAdvectionSteps)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
