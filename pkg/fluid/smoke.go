package fluid

import "math"

// Density is the current smoke density, valid until the next Tick.
func (c *core) Density() ScalarField {
	return ScalarField{grid: c.grid, values: c.density}
}

// splat calls fn for every interior cell within radius of center, weighted by
// a Gaussian falloff exp(-3 d²/r²) so the rim receives about 5%. A radius of
// zero or less touches only the center cell.
func (c *core) splat(center Coord, radius int, fn func(i int, weight float64)) {
	if radius <= 0 {
		if i, ok := c.grid.interiorIndex(center); ok {
			fn(i, 1)
		}
		return
	}
	zr := 0
	if c.grid.dims == 3 {
		zr = radius
	}
	r2 := float64(radius * radius)
	for z := center.Z - zr; z <= center.Z+zr; z++ {
		for y := center.Y - radius; y <= center.Y+radius; y++ {
			for x := center.X - radius; x <= center.X+radius; x++ {
				i, ok := c.grid.interiorIndex(Coord{X: x, Y: y, Z: z})
				if !ok {
					continue
				}
				dx, dy, dz := float64(x-center.X), float64(y-center.Y), float64(z-center.Z)
				d2 := dx*dx + dy*dy + dz*dz
				if d2 > r2 {
					continue
				}
				fn(i, math.Exp(-3*d2/r2))
			}
		}
	}
}

func (c *core) splatScalar(buf []float64, center Coord, radius int, amount float64) {
	c.mustBeIdle("splat")
	c.splat(center, radius, func(i int, w float64) {
		buf[i] += amount * w
	})
}

func (c *core) splatVelocity(center Coord, radius int, v Vector) {
	c.mustBeIdle("SplatVelocity")
	c.splat(center, radius, func(i int, w float64) {
		for a, comp := range c.velSrc {
			comp[i] += v.component(a) * w
		}
	})
}

// heatTo raises the current temperature toward target, never lowering it.
func (c *core) heatTo(at Coord, target float64) {
	c.mustBeIdle("HeatTo")
	if i, ok := c.grid.interiorIndex(at); ok {
		old := c.temperature[i]
		c.temperature[i] = max(old, old+(target-old)*0.5)
	}
}
