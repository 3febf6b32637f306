package fluid

// walkBorder visits every border cell p together with the interior cell q it
// is clamped to. moved[a] reports whether p lies outside the interior on axis a.
func (g Grid) walkBorder(fn func(p, q int, moved [3]bool)) {
	var c [3]int
	for c[2] = 0; c[2] < g.padded[2]; c[2]++ {
		for c[1] = 0; c[1] < g.padded[1]; c[1]++ {
			// rows inside the interior only touch their two end cells
			step := 1
			if g.innerOn(c, 1) {
				step = g.padded[0] - 1
			}
			for c[0] = 0; c[0] < g.padded[0]; c[0] += step {
				q := c
				var moved [3]bool
				for a := 0; a < g.dims; a++ {
					q[a] = min(max(c[a], 1), g.size[a])
					moved[a] = q[a] != c[a]
				}
				fn(g.index(c), g.index(q), moved)
			}
		}
	}
}

// innerOn reports whether c is inside the interior on every axis from `from` up.
func (g Grid) innerOn(c [3]int, from int) bool {
	for a := from; a < g.dims; a++ {
		if c[a] < 1 || c[a] > g.size[a] {
			return false
		}
	}
	return true
}

// smearBorder copies the innermost layer outwards, a zero-gradient condition.
func smearBorder(g Grid, f []float64) {
	g.walkBorder(func(p, q int, _ [3]bool) {
		f[p] = f[q]
	})
}

// reflectBorder is smearBorder with the value negated across walls normal to
// axis, so the velocity component along axis vanishes at those walls.
func reflectBorder(g Grid, f []float64, axis int) {
	g.walkBorder(func(p, q int, moved [3]bool) {
		if moved[axis] {
			f[p] = -f[q]
			return
		}
		f[p] = f[q]
	})
}

// copyBorder overwrites the border of dst with the border of src.
func copyBorder(g Grid, dst, src []float64) {
	g.walkBorder(func(p, _ int, _ [3]bool) {
		dst[p] = src[p]
	})
}

func reflectVelocity(g Grid, vel [][]float64) {
	for a, comp := range vel {
		reflectBorder(g, comp, a)
	}
}
