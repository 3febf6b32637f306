package fluid

import (
	"fmt"
	"math"
	"strings"
)

// AdvectionMethod selects how quantities are traced through the velocity field.
type AdvectionMethod int

const (
	AdvectSemiLagrangian AdvectionMethod = iota
	AdvectRungeKutta
	AdvectBFECC
	AdvectMacCormack
)

var advectionNames = [...]string{
	AdvectSemiLagrangian: "semi-lagrangian",
	AdvectRungeKutta:     "runge-kutta",
	AdvectBFECC:          "bfecc",
	AdvectMacCormack:     "maccormack",
}

func (m AdvectionMethod) String() string {
	if m.valid() {
		return advectionNames[m]
	}
	return fmt.Sprintf("AdvectionMethod(%d)", int(m))
}

func (m AdvectionMethod) valid() bool { return m >= 0 && int(m) < len(advectionNames) }

func ParseAdvectionMethod(s string) (AdvectionMethod, error) {
	for i, name := range advectionNames {
		if strings.EqualFold(s, name) {
			return AdvectionMethod(i), nil
		}
	}
	return 0, fmt.Errorf("unknown advection method %q", s)
}

const maxAdvectionSteps = 16

type AdvectionSettings struct {
	Method        AdvectionMethod
	Interpolation InterpolationMethod
	// Steps splits the time step into sub-steps. Zero picks a count from the
	// CFL number of the velocity field.
	Steps int
}

// AdvectScalar transports src through the velocity field, which varies
// linearly from vel0 at the start of the step to vel1 at the end, and writes
// the interior of dest. dest must not share storage with src.
func AdvectScalar(dest, src ScalarField, vel0, vel1 VectorField, dt float64, s AdvectionSettings) {
	a := newAdvector(dest.grid)
	a.advect([][]float64{dest.values}, [][]float64{src.values}, vel0.slices(), vel1.slices(), dt, s)
}

// AdvectVector is AdvectScalar applied to every component of src.
func AdvectVector(dest, src VectorField, vel0, vel1 VectorField, dt float64, s AdvectionSettings) {
	a := newAdvector(dest.grid)
	a.advect(dest.slices(), src.slices(), vel0.slices(), vel1.slices(), dt, s)
}

// advector holds the backtraced positions and intermediate fields of the
// error-correcting schemes so a solver can reuse them every tick.
type advector struct {
	grid Grid
	fwd  [3][]float64
	rev  [3][]float64
	tmp  [][]float64
	corr [][]float64
}

func newAdvector(g Grid) *advector {
	a := &advector{grid: g}
	for ax := 0; ax < g.dims; ax++ {
		a.fwd[ax] = make([]float64, g.cells)
	}
	return a
}

func (a *advector) buffers(components int) {
	if a.rev[0] == nil {
		for ax := 0; ax < a.grid.dims; ax++ {
			a.rev[ax] = make([]float64, a.grid.cells)
		}
	}
	for len(a.tmp) < components {
		a.tmp = append(a.tmp, make([]float64, a.grid.cells))
		a.corr = append(a.corr, make([]float64, a.grid.cells))
	}
}

func (a *advector) advect(dst, src, vel0, vel1 [][]float64, dt float64, s AdvectionSettings) {
	steps := s.Steps
	if steps <= 0 {
		steps = cflSteps(a.grid, vel0, vel1, dt)
	}
	steps = min(steps, maxAdvectionSteps)
	rk := s.Method == AdvectRungeKutta

	a.trace(a.fwd, vel0, vel1, dt, steps, rk)
	switch s.Method {
	case AdvectBFECC, AdvectMacCormack:
		a.buffers(len(src))
	default:
		a.gather(dst, src, a.fwd, s.Interpolation)
		return
	}

	// forward, then back again along the reversed flow
	fwd, back := a.tmp[:len(src)], a.corr[:len(src)]
	a.gather(fwd, src, a.fwd, s.Interpolation)
	for c := range fwd {
		copyBorder(a.grid, fwd[c], src[c])
	}
	a.trace(a.rev, vel1, vel0, -dt, steps, rk)
	a.gather(back, fwd, a.rev, s.Interpolation)

	g := a.grid
	if s.Method == AdvectMacCormack {
		for c := range dst {
			d, f, b, o := dst[c], fwd[c], back[c], src[c]
			g.forEachInterior(func(i int) {
				v := f[i] + 0.5*(o[i]-b[i])
				lo, hi := cornerRange(g, o, a.point(a.fwd, i))
				d[i] = min(max(v, lo), hi)
			})
		}
		return
	}

	// BFECC: correct the source, clamp to its neighbourhood, advect again.
	offsets := g.neighbourOffsets()
	for c := range src {
		b, o := back[c], src[c]
		g.forEachInterior(func(i int) {
			v := o[i] + 0.5*(o[i]-b[i])
			lo, hi := neighbourRange(o, i, offsets)
			b[i] = min(max(v, lo), hi)
		})
		copyBorder(g, b, o)
	}
	a.gather(dst, back, a.fwd, s.Interpolation)
}

// trace fills pos with the padded-space point each interior cell came from,
// integrating backwards from the end of the step (vel1) to its start (vel0).
func (a *advector) trace(pos [3][]float64, vel0, vel1 [][]float64, dt float64, steps int, midpoint bool) {
	g := a.grid
	scale := dt * float64(g.Resolution()) / float64(steps)
	g.forEachInterior(func(i int) {
		c := g.coords(i)
		var p [3]float64
		for ax := 0; ax < g.dims; ax++ {
			p[ax] = float64(c[ax])
		}
		for s := 0; s < steps; s++ {
			t0 := 1 - float64(s)/float64(steps)
			t1 := 1 - float64(s+1)/float64(steps)
			if midpoint {
				v := velocityAt(g, vel0, vel1, p, t0)
				var mid [3]float64
				for ax := 0; ax < g.dims; ax++ {
					mid[ax] = p[ax] - 0.5*scale*v[ax]
				}
				v = velocityAt(g, vel0, vel1, mid, 0.5*(t0+t1))
				for ax := 0; ax < g.dims; ax++ {
					p[ax] -= scale * v[ax]
				}
			} else {
				v := velocityAt(g, vel0, vel1, p, 0.5*(t0+t1))
				for ax := 0; ax < g.dims; ax++ {
					p[ax] -= scale * v[ax]
				}
			}
			for ax := 0; ax < g.dims; ax++ {
				p[ax] = min(max(p[ax], 0.5), float64(g.size[ax])+0.5)
			}
		}
		for ax := 0; ax < g.dims; ax++ {
			pos[ax][i] = p[ax]
		}
	})
}

func (a *advector) point(pos [3][]float64, i int) [3]float64 {
	var p [3]float64
	for ax := 0; ax < a.grid.dims; ax++ {
		p[ax] = pos[ax][i]
	}
	return p
}

func (a *advector) gather(dst, src [][]float64, pos [3][]float64, m InterpolationMethod) {
	g := a.grid
	for c := range dst {
		d, s := dst[c], src[c]
		g.forEachInterior(func(i int) {
			d[i] = sample(g, s, a.point(pos, i), m)
		})
	}
}

// velocityAt samples the velocity at p, blended in time between vel0 (t=0)
// and vel1 (t=1).
func velocityAt(g Grid, vel0, vel1 [][]float64, p [3]float64, t float64) [3]float64 {
	var v [3]float64
	for ax := 0; ax < g.dims; ax++ {
		v0 := sampleLinear(g, vel0[ax], p)
		if t == 0 || &vel0[ax][0] == &vel1[ax][0] {
			v[ax] = v0
			continue
		}
		v[ax] = v0 + t*(sampleLinear(g, vel1[ax], p)-v0)
	}
	return v
}

// neighbourOffsets lists the flat offsets of the 3^dims block around a cell.
func (g Grid) neighbourOffsets() []int {
	offsets := []int{0}
	for ax := 0; ax < g.dims; ax++ {
		st := g.stride[ax]
		for _, o := range offsets[:len(offsets):len(offsets)] {
			offsets = append(offsets, o-st, o+st)
		}
	}
	return offsets
}

func neighbourRange(f []float64, i int, offsets []int) (lo, hi float64) {
	lo, hi = f[i], f[i]
	for _, o := range offsets {
		lo = min(lo, f[i+o])
		hi = max(hi, f[i+o])
	}
	return lo, hi
}

// cflSteps picks enough sub-steps that no sub-step moves more than one cell.
func cflSteps(g Grid, vel0, vel1 [][]float64, dt float64) int {
	speed := max(maxSpeed(g, vel0), maxSpeed(g, vel1))
	cells := speed * math.Abs(dt) * float64(g.Resolution())
	return min(max(int(math.Ceil(cells)), 1), maxAdvectionSteps)
}

func maxSpeed(g Grid, vel [][]float64) float64 {
	var best float64
	g.walkInterior(func(i int) {
		var s2 float64
		for _, comp := range vel {
			s2 += comp[i] * comp[i]
		}
		best = max(best, s2)
	})
	return math.Sqrt(best)
}

// walkInterior visits interior cells sequentially, for reductions.
func (g Grid) walkInterior(fn func(i int)) {
	nx := g.size[0]
	for r := 0; r < g.rows(); r++ {
		start := g.rowStart(r)
		for i := start; i < start+nx; i++ {
			fn(i)
		}
	}
}
