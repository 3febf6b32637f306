package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"github.com/TheFellow/fluid/internal/config"
	"github.com/TheFellow/fluid/internal/snapshot"
	"github.com/TheFellow/fluid/pkg/fluid"
	"github.com/TheFellow/fluid/pkg/stam"
)

type offset struct {
	dx, dy, dz int
}

// footprint lists the cells within radius of the origin; a disc in 2D and a
// ball in 3D.
func footprint(radius int, is3D bool) []offset {
	if radius < 0 {
		radius = 0
	}
	zr := 0
	if is3D {
		zr = radius
	}
	r2 := radius * radius
	var out []offset
	for z := -zr; z <= zr; z++ {
		for y := -radius; y <= radius; y++ {
			for x := -radius; x <= radius; x++ {
				if x*x+y*y+z*z <= r2 {
					out = append(out, offset{dx: x, dy: y, dz: z})
				}
			}
		}
	}
	return out
}

func emit2D(sim fluid.Simulation2D, e config.Emitter) {
	for _, o := range footprint(e.Radius, false) {
		x, y := e.X+o.dx, e.Y+o.dy
		sim.AddDensity(x, y, e.Density)
		sim.AddTemperature(x, y, e.Temperature)
		if e.Velocity != (fluid.Vector{}) {
			sim.AddVelocity(x, y, e.Velocity.X, e.Velocity.Y)
		}
	}
}

func emit3D(sim fluid.Simulation3D, e config.Emitter) {
	for _, o := range footprint(e.Radius, true) {
		x, y, z := e.X+o.dx, e.Y+o.dy, e.Z+o.dz
		sim.AddDensity(x, y, z, e.Density)
		if e.Velocity != (fluid.Vector{}) {
			sim.AddVelocity(x, y, z, e.Velocity)
		}
	}
}

// simulation hides whether a run is 2D or 3D from the driver loop.
type simulation interface {
	emit(e config.Emitter)
	tick(s fluid.Settings) (fluid.TickReport, error)
	density() fluid.ScalarField
	fields() []namedField
	stats() fluid.Stats
	maxDivergence() float64
}

type namedField struct {
	name  string
	field fluid.ScalarField
}

type sim2D struct{ *fluid.Solver2D }

func (s sim2D) emit(e config.Emitter) { emit2D(s.Solver2D, e) }
func (s sim2D) tick(st fluid.Settings) (fluid.TickReport, error) { return s.Step(st) }
func (s sim2D) density() fluid.ScalarField { return s.Density() }
func (s sim2D) stats() fluid.Stats { return s.Stats() }
func (s sim2D) maxDivergence() float64 { return s.MaxDivergence() }
func (s sim2D) fields() []namedField {
	return []namedField{
		{"density", s.Density()},
		{"temperature", s.Temperature()},
		{"speed", s.VelocityMagnitude()},
		{"vorticity", s.Vorticity()},
	}
}

type sim3D struct{ *fluid.Solver3D }

func (s sim3D) emit(e config.Emitter) { emit3D(s.Solver3D, e) }
func (s sim3D) tick(st fluid.Settings) (fluid.TickReport, error) { return s.Step(st) }
func (s sim3D) density() fluid.ScalarField { return s.Density() }
func (s sim3D) stats() fluid.Stats { return s.Stats() }
func (s sim3D) maxDivergence() float64 { return s.MaxDivergence() }
func (s sim3D) fields() []namedField {
	return []namedField{
		{"density", s.Density()},
		{"speed", s.VelocityMagnitude()},
		{"vorticity", s.Vorticity()},
	}
}

func newSimulation(cfg config.Config, logger *slog.Logger) (simulation, error) {
	opts := []fluid.Option{fluid.WithLogger(logger)}
	if cfg.Is3D() {
		s, err := fluid.NewSolver3D(cfg.Width, cfg.Height, cfg.Depth, opts...)
		if err != nil {
			return nil, err
		}
		return sim3D{s}, nil
	}
	s, err := fluid.NewSolver2D(cfg.Width, cfg.Height, opts...)
	if err != nil {
		return nil, err
	}
	return sim2D{s}, nil
}

// simulate runs cfg.Run.Ticks ticks, writing snapshots every
// cfg.Run.SnapshotEvery ticks and after the last one.
func simulate(ctx context.Context, logger *slog.Logger, cfg config.Config) error {
	sim, err := newSimulation(cfg, logger)
	if err != nil {
		return err
	}
	var ref *stam.Solver
	if cfg.Run.Reference {
		if ref, err = stam.New(cfg.Width, cfg.Height); err != nil {
			return err
		}
	}

	logger.Info("Starting run.",
		"width", cfg.Width, "height", cfg.Height, "depth", cfg.Depth,
		"ticks", cfg.Run.Ticks, "emitters", len(cfg.Run.Emitters),
		"advection", cfg.Settings.AdvectionMethod, "diffusion", cfg.Settings.DiffusionMethod,
		"incompressibility", cfg.Settings.IncompressibilityMethod)

	var worstDrift float64
	for t := 1; t <= cfg.Run.Ticks; t++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run interrupted at tick %d: %w", t, err)
		}
		for _, e := range cfg.Run.Emitters {
			sim.emit(e)
			if ref != nil {
				emit2D(ref, e)
			}
		}
		report, err := sim.tick(cfg.Settings)
		if err != nil {
			return fmt.Errorf("tick %d: %w", t, err)
		}

		if ref != nil {
			if _, err := ref.Tick(cfg.Settings.DeltaTime, cfg.Settings); err != nil {
				return fmt.Errorf("reference tick %d: %w", t, err)
			}
			drift := floats.Distance(sim.density().Values(), ref.Density().Values(), math.Inf(1))
			worstDrift = max(worstDrift, drift)
			logger.Debug("Reference comparison.", "tick", t, "max_density_difference", drift)
		}

		last := t == cfg.Run.Ticks
		if (cfg.Run.SnapshotEvery > 0 && t%cfg.Run.SnapshotEvery == 0) || last {
			if err := writeSnapshots(cfg.Run.Output, t, sim.fields()); err != nil {
				return err
			}
			logger.Info("Tick complete.",
				"tick", t,
				"advection_steps", report.AdvectionSteps,
				"converged", report.Converged(),
				"max_divergence", sim.maxDivergence())
		}
	}

	st := sim.stats()
	attrs := []any{
		"ticks", st.Ticks, "solves", st.Solves,
		"velocity_matrix_builds", st.VelocityMatrixBuilds,
		"density_matrix_builds", st.DensityMatrixBuilds,
	}
	if ref != nil {
		attrs = append(attrs, "max_reference_drift", worstDrift)
	}
	logger.Info("Run finished.", attrs...)
	return nil
}

func writeSnapshots(dir string, tick int, fields []namedField) error {
	for _, f := range fields {
		path := filepath.Join(dir, fmt.Sprintf("%s_t%06d.png", f.name, tick))
		title := fmt.Sprintf("%s, tick %d", f.name, tick)
		if err := snapshot.WriteFile(path, f.field, title); err != nil {
			return fmt.Errorf("snapshot %s: %w", path, err)
		}
	}
	return nil
}
