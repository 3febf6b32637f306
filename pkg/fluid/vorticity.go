package fluid

import "math"

// confinementThreshold is the squared gradient magnitude below which no force
// is applied.
const confinementThreshold = 1e-10

// confiner computes vorticity confinement forces. curl holds one buffer per
// curl component: one in 2D, three in 3D.
type confiner struct {
	grid Grid
	curl [][]float64
	mag  []float64
}

func newConfiner(g Grid) *confiner {
	c := &confiner{grid: g, mag: make([]float64, g.cells)}
	n := 1
	if g.dims == 3 {
		n = 3
	}
	for i := 0; i < n; i++ {
		c.curl = append(c.curl, make([]float64, g.cells))
	}
	return c
}

// computeCurl fills c.curl and c.mag from vel, with smeared borders.
func (c *confiner) computeCurl(vel [][]float64) {
	g := c.grid
	sx, sy := g.stride[0], g.stride[1]
	if g.dims == 2 {
		u, v := vel[0], vel[1]
		w := c.curl[0]
		g.forEachInterior(func(i int) {
			w[i] = 0.5*(v[i+sx]-v[i-sx]) - 0.5*(u[i+sy]-u[i-sy])
			c.mag[i] = math.Abs(w[i])
		})
	} else {
		sz := g.stride[2]
		u, v, w := vel[0], vel[1], vel[2]
		cx, cy, cz := c.curl[0], c.curl[1], c.curl[2]
		g.forEachInterior(func(i int) {
			cx[i] = 0.5*(w[i+sy]-w[i-sy]) - 0.5*(v[i+sz]-v[i-sz])
			cy[i] = 0.5*(u[i+sz]-u[i-sz]) - 0.5*(w[i+sx]-w[i-sx])
			cz[i] = 0.5*(v[i+sx]-v[i-sx]) - 0.5*(u[i+sy]-u[i-sy])
			c.mag[i] = math.Sqrt(cx[i]*cx[i] + cy[i]*cy[i] + cz[i]*cz[i])
		})
	}
	for _, comp := range c.curl {
		smearBorder(g, comp)
	}
	smearBorder(g, c.mag)
}

// confine adds dt*strength*N * (n x omega) to out, where n is the normalized
// gradient of |omega| computed from vel.
func (c *confiner) confine(out, vel [][]float64, strength, dt float64) {
	if strength == 0 {
		return
	}
	c.computeCurl(vel)

	g := c.grid
	s := dt * strength * float64(g.Resolution())
	mag := c.mag
	g.forEachInterior(func(i int) {
		var n [3]float64
		var n2 float64
		for a := 0; a < g.dims; a++ {
			st := g.stride[a]
			n[a] = 0.5 * (mag[i+st] - mag[i-st])
			n2 += n[a] * n[a]
		}
		if n2 <= confinementThreshold {
			return
		}
		inv := 1 / math.Sqrt(n2)
		for a := 0; a < g.dims; a++ {
			n[a] *= inv
		}
		if g.dims == 2 {
			w := c.curl[0][i]
			out[0][i] += s * n[1] * w
			out[1][i] -= s * n[0] * w
			return
		}
		wx, wy, wz := c.curl[0][i], c.curl[1][i], c.curl[2][i]
		out[0][i] += s * (n[1]*wz - n[2]*wy)
		out[1][i] += s * (n[2]*wx - n[0]*wz)
		out[2][i] += s * (n[0]*wy - n[1]*wx)
	})
}

// Vorticity returns the curl of the current velocity in a new field: the
// signed z component in 2D, the curl magnitude in 3D.
func (c *core) Vorticity() ScalarField {
	c.conf.computeCurl(c.velT1)
	src := c.conf.mag
	if c.grid.dims == 2 {
		src = c.conf.curl[0]
	}
	out := NewScalarField(c.grid)
	copy(out.values, src)
	return out
}
