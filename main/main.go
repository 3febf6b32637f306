package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/TheFellow/fluid/internal/config"
	"github.com/TheFellow/fluid/internal/logging"
	"github.com/TheFellow/fluid/pkg/fluid"
)

const (
	screenWidth  = 800
	screenHeight = 480
	fluidWidth   = 200
	fluidHeight  = 120

	brushRadius = 4
	dragForce   = 40 // velocity per cell of mouse travel
	heatTarget  = 5
)

var (
	configFlag   = flag.String("config", "", "HCL run description supplying settings (grid size is fixed by the window)")
	logLevelFlag = flag.String("log-level", "warn", "logging level: debug, info, warn or error")
)

type view int

const (
	viewDensity view = iota
	viewTemperature
	viewSpeed
	viewVorticity
	viewPressure
	viewCount
)

func (v view) String() string {
	return [...]string{"density", "temperature", "speed", "vorticity", "pressure"}[v]
}

type Game struct {
	solver   *fluid.Solver2D
	settings fluid.Settings
	logger   *slog.Logger

	view   view
	paused bool
	pixels []byte

	lastX, lastY int
	report       fluid.TickReport
	err          error
}

func NewGame(settings fluid.Settings, logger *slog.Logger) (*Game, error) {
	s, err := fluid.NewSolver2D(fluidWidth, fluidHeight, fluid.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &Game{
		solver:   s,
		settings: settings,
		logger:   logger,
		pixels:   make([]byte, fluidWidth*fluidHeight*4),
	}, nil
}

func (g *Game) handleInput() {
	if inpututil.IsKeyJustPressed(ebiten.KeyV) {
		g.view = (g.view + 1) % viewCount
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.solver.Reset()
		g.err = nil
	}

	x, y := ebiten.CursorPosition()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.lastX, g.lastY = x, y
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		g.solver.SplatDensity(x, y, brushRadius, g.settings.AddDensity)
		g.solver.SplatTemperature(x, y, brushRadius, g.settings.AddTemperature)
		dx, dy := float64(x-g.lastX), float64(y-g.lastY)
		if dx != 0 || dy != 0 {
			g.solver.SplatVelocity(x, y, brushRadius, dx*dragForce, dy*dragForce)
		}
		g.lastX, g.lastY = x, y
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		g.solver.HeatTo(x, y, heatTarget)
	}
}

func (g *Game) Update() error {
	g.handleInput()
	if g.paused || g.err != nil {
		return nil
	}
	g.report, g.err = g.solver.Step(g.settings)
	if g.err != nil {
		g.logger.Error("Simulation stopped.", "error", g.err)
	}
	return nil
}

func (g *Game) field() fluid.ScalarField {
	switch g.view {
	case viewTemperature:
		return g.solver.Temperature()
	case viewSpeed:
		return g.solver.VelocityMagnitude()
	case viewVorticity:
		return g.solver.Vorticity()
	case viewPressure:
		return g.solver.Pressure()
	}
	return g.solver.Density()
}

func (g *Game) Draw(screen *ebiten.Image) {
	f := g.field()
	lo, hi := f.Range()
	fillPixels(g.pixels, f.Values(), fluidWidth, fluidHeight, lo, hi)
	screen.WritePixels(g.pixels)

	status := "running"
	switch {
	case g.err != nil:
		status = "stopped (R to reset)"
	case g.paused:
		status = "paused"
	}
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"FluidSim [%s] %s\nFPS: %0.2f  ticks: %d\nrange: %.3g..%.3g  max speed: %.3g\nsolves converged: %t\nV view  SPACE pause  R reset  RMB heat",
		g.view, status, ebiten.ActualFPS(), g.solver.Stats().Ticks,
		lo, hi, g.solver.MaxSpeed(), g.report.Converged()))
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (w, h int) {
	return fluidWidth, fluidHeight
}

func main() {
	flag.Parse()
	logger := logging.New(*logLevelFlag, "text", os.Stderr)

	settings := fluid.DefaultSettings()
	if *configFlag != "" {
		cfg, err := config.Load(*configFlag)
		if err != nil {
			logger.Error("Failed to load config.", "error", err)
			os.Exit(2)
		}
		settings = cfg.Settings
	}

	game, err := NewGame(settings, logger)
	if err != nil {
		logger.Error("Failed to create solver.", "error", err)
		os.Exit(1)
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("FluidSim")
	if err := ebiten.RunGame(game); err != nil {
		logger.Error("Game loop failed.", "error", err)
		os.Exit(1)
	}
}
