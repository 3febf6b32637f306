package fluid

import "math"

// Pressure is the potential removed by the most recent projection.
func (c *core) Pressure() ScalarField {
	return ScalarField{grid: c.grid, values: c.proj.q}
}

// MaxDivergence returns the largest absolute central-difference divergence
// over the interior, in cell units.
func (c *core) MaxDivergence() float64 {
	var worst float64
	c.grid.walkInterior(func(i int) {
		worst = max(worst, math.Abs(divergence(c.grid, c.velT1, i)))
	})
	return worst
}

// MeanAbsDivergence averages |div v| over the interior.
func (c *core) MeanAbsDivergence() float64 {
	return meanAbsDivergence(c.grid, c.velT1)
}

func meanAbsDivergence(g Grid, vel [][]float64) float64 {
	var sum float64
	n := 0
	g.walkInterior(func(i int) {
		sum += math.Abs(divergence(g, vel, i))
		n++
	})
	return sum / float64(n)
}
