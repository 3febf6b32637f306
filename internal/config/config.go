// Package config loads simulation runs from HCL files. A file describes the
// grid, overrides for the solver settings, the run itself with its emitters,
// and logging. Every attribute is optional and falls back to Default().
//
// Expressions may refer to the built-in settings through the `defaults`
// object (for example `viscosity = defaults.viscosity * 2`) and may call
// min, max, abs, floor and ceil.
package config

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/TheFellow/fluid/pkg/fluid"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is a fully resolved run description.
type Config struct {
	Width, Height int
	// Depth is zero for 2D runs.
	Depth int

	Settings fluid.Settings
	Run      Run
	Log      Log
}

// Is3D reports whether the grid has a depth.
func (c Config) Is3D() bool { return c.Depth > 0 }

type Run struct {
	Ticks         int
	Output        string
	SnapshotEvery int
	// Reference also runs the legacy solver and logs how far it drifts.
	Reference bool
	Emitters  []Emitter
}

// Emitter injects sources around a cell before every tick.
type Emitter struct {
	Name        string
	X, Y, Z     int
	Radius      int
	Density     float64
	Temperature float64
	Velocity    fluid.Vector
}

type Log struct {
	Level  string
	Format string
}

func Default() Config {
	return Config{
		Width:    128,
		Height:   128,
		Settings: fluid.DefaultSettings(),
		Run: Run{
			Ticks:         240,
			Output:        "out",
			SnapshotEvery: 60,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

type fileSchema struct {
	Grid     *gridBlock     `hcl:"grid,block"`
	Settings *settingsBlock `hcl:"settings,block"`
	Run      *runBlock      `hcl:"run,block"`
	Log      *logBlock      `hcl:"log,block"`
}

type gridBlock struct {
	Width  *int `hcl:"width,optional"`
	Height *int `hcl:"height,optional"`
	Depth  *int `hcl:"depth,optional"`
}

type settingsBlock struct {
	DeltaTime               *float64 `hcl:"delta_time,optional"`
	Viscosity               *float64 `hcl:"viscosity,optional"`
	DiffusionRate           *float64 `hcl:"diffusion_rate,optional"`
	TempDiffusionRate       *float64 `hcl:"temp_diffusion_rate,optional"`
	DiffusionMethod         *string  `hcl:"diffusion_method,optional"`
	AdvectionMethod         *string  `hcl:"advection_method,optional"`
	InterpolationMethod     *string  `hcl:"interpolation_method,optional"`
	AdvectionSteps          *int     `hcl:"advection_steps,optional"`
	IncompressibilityMethod *string  `hcl:"incompressibility_method,optional"`
	BuoyancyAlpha           *float64 `hcl:"buoyancy_alpha,optional"`
	BuoyancyBeta            *float64 `hcl:"buoyancy_beta,optional"`
	VorticityConfinement    *float64 `hcl:"vorticity_confinement,optional"`
	AddDensity              *float64 `hcl:"add_density,optional"`
	AddTemperature          *float64 `hcl:"add_temperature,optional"`
}

type runBlock struct {
	Ticks         *int            `hcl:"ticks,optional"`
	Output        *string         `hcl:"output,optional"`
	SnapshotEvery *int            `hcl:"snapshot_every,optional"`
	Reference     *bool           `hcl:"reference,optional"`
	Emitters      []*emitterBlock `hcl:"emitter,block"`
}

type emitterBlock struct {
	Name        string    `hcl:"name,label"`
	X           int       `hcl:"x"`
	Y           int       `hcl:"y"`
	Z           *int      `hcl:"z,optional"`
	Radius      *int      `hcl:"radius,optional"`
	Density     *float64  `hcl:"density,optional"`
	Temperature *float64  `hcl:"temperature,optional"`
	Velocity    []float64 `hcl:"velocity,optional"`
}

type logBlock struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

// Load parses and resolves the HCL file at path.
func Load(path string) (Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}
	return decode(file.Body, path)
}

// Parse resolves HCL source held in memory; filename is used in diagnostics.
func Parse(src []byte, filename string) (Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	return decode(file.Body, filename)
}

func decode(body hcl.Body, filename string) (Config, error) {
	var schema fileSchema
	if diags := gohcl.DecodeBody(body, evalContext(), &schema); diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	cfg := Default()
	schema.Grid.apply(&cfg)
	if err := schema.Settings.apply(&cfg.Settings); err != nil {
		return Config{}, fmt.Errorf("%s: %w", filename, err)
	}
	if err := schema.Run.apply(&cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", filename, err)
	}
	schema.Log.apply(&cfg.Log)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// Validate checks the resolved configuration.
func (c Config) Validate() error {
	if c.Width < 1 || c.Height < 1 || c.Depth < 0 {
		return fmt.Errorf("%w: grid %dx%dx%d", ErrInvalidConfig, c.Width, c.Height, c.Depth)
	}
	if c.Run.Ticks < 0 {
		return fmt.Errorf("%w: negative tick count %d", ErrInvalidConfig, c.Run.Ticks)
	}
	if c.Run.SnapshotEvery < 0 {
		return fmt.Errorf("%w: negative snapshot interval %d", ErrInvalidConfig, c.Run.SnapshotEvery)
	}
	if err := c.Settings.Validate(c.Settings.DeltaTime); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Run.Reference && c.Is3D() {
		return fmt.Errorf("%w: the reference solver is 2D only", ErrInvalidConfig)
	}
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (b *gridBlock) apply(cfg *Config) {
	if b == nil {
		return
	}
	set(&cfg.Width, b.Width)
	set(&cfg.Height, b.Height)
	set(&cfg.Depth, b.Depth)
}

func (b *settingsBlock) apply(s *fluid.Settings) error {
	if b == nil {
		return nil
	}
	set(&s.DeltaTime, b.DeltaTime)
	set(&s.Viscosity, b.Viscosity)
	set(&s.DiffusionRate, b.DiffusionRate)
	set(&s.TempDiffusionRate, b.TempDiffusionRate)
	set(&s.AdvectionSteps, b.AdvectionSteps)
	set(&s.BuoyancyAlpha, b.BuoyancyAlpha)
	set(&s.BuoyancyBeta, b.BuoyancyBeta)
	set(&s.VorticityConfinement, b.VorticityConfinement)
	set(&s.AddDensity, b.AddDensity)
	set(&s.AddTemperature, b.AddTemperature)

	var err error
	if b.DiffusionMethod != nil {
		if s.DiffusionMethod, err = fluid.ParseMethod(*b.DiffusionMethod); err != nil {
			return fmt.Errorf("%w: diffusion_method: %w", ErrInvalidConfig, err)
		}
	}
	if b.IncompressibilityMethod != nil {
		if s.IncompressibilityMethod, err = fluid.ParseMethod(*b.IncompressibilityMethod); err != nil {
			return fmt.Errorf("%w: incompressibility_method: %w", ErrInvalidConfig, err)
		}
	}
	if b.AdvectionMethod != nil {
		if s.AdvectionMethod, err = fluid.ParseAdvectionMethod(*b.AdvectionMethod); err != nil {
			return fmt.Errorf("%w: advection_method: %w", ErrInvalidConfig, err)
		}
	}
	if b.InterpolationMethod != nil {
		if s.InterpolationMethod, err = fluid.ParseInterpolationMethod(*b.InterpolationMethod); err != nil {
			return fmt.Errorf("%w: interpolation_method: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (b *runBlock) apply(cfg *Config) error {
	if b == nil {
		return nil
	}
	set(&cfg.Run.Ticks, b.Ticks)
	set(&cfg.Run.Output, b.Output)
	set(&cfg.Run.SnapshotEvery, b.SnapshotEvery)
	set(&cfg.Run.Reference, b.Reference)

	for _, e := range b.Emitters {
		em := Emitter{
			Name:        e.Name,
			X:           e.X,
			Y:           e.Y,
			Density:     cfg.Settings.AddDensity,
			Temperature: cfg.Settings.AddTemperature,
		}
		set(&em.Z, e.Z)
		set(&em.Radius, e.Radius)
		set(&em.Density, e.Density)
		set(&em.Temperature, e.Temperature)
		if len(e.Velocity) > 3 {
			return fmt.Errorf("%w: emitter %q velocity has %d components", ErrInvalidConfig, e.Name, len(e.Velocity))
		}
		v := [3]float64{}
		copy(v[:], e.Velocity)
		em.Velocity = fluid.Vector{X: v[0], Y: v[1], Z: v[2]}
		cfg.Run.Emitters = append(cfg.Run.Emitters, em)
	}
	return nil
}

func (b *logBlock) apply(l *Log) {
	if b == nil {
		return
	}
	set(&l.Level, b.Level)
	set(&l.Format, b.Format)
}
