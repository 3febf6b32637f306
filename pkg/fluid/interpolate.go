package fluid

import (
	"fmt"
	"math"
	"strings"
)

// InterpolationMethod selects the kernel used to sample advected quantities.
type InterpolationMethod int

const (
	InterpolateLinear InterpolationMethod = iota
	// InterpolateMonotonicCubic is Catmull-Rom clamped to the enclosing
	// linear samples, so it never creates new extrema.
	InterpolateMonotonicCubic
)

var interpolationNames = [...]string{
	InterpolateLinear:         "linear",
	InterpolateMonotonicCubic: "monotonic-cubic",
}

func (m InterpolationMethod) String() string {
	if m.valid() {
		return interpolationNames[m]
	}
	return fmt.Sprintf("InterpolationMethod(%d)", int(m))
}

func (m InterpolationMethod) valid() bool {
	return m >= 0 && int(m) < len(interpolationNames)
}

func ParseInterpolationMethod(s string) (InterpolationMethod, error) {
	for i, name := range interpolationNames {
		if strings.EqualFold(s, name) {
			return InterpolationMethod(i), nil
		}
	}
	return 0, fmt.Errorf("unknown interpolation method %q", s)
}

// cellOf splits padded-space position p into a base cell and fractions,
// keeping base+1 inside the padded grid.
func (g Grid) cellOf(p [3]float64) (base [3]int, t [3]float64) {
	for a := 0; a < g.dims; a++ {
		f := math.Floor(p[a])
		base[a], t[a] = int(f), p[a]-f
		if base[a] < 0 {
			base[a], t[a] = 0, 0
		}
		if hi := g.padded[a] - 2; base[a] > hi {
			base[a], t[a] = hi, 1
		}
	}
	return base, t
}

// sampleLinear interpolates f at padded-space position p.
func sampleLinear(g Grid, f []float64, p [3]float64) float64 {
	base, t := g.cellOf(p)
	var sum float64
	for corner := 0; corner < 1<<g.dims; corner++ {
		w := 1.0
		idx := 0
		for a := 0; a < g.dims; a++ {
			c := base[a]
			if corner>>a&1 == 1 {
				c++
				w *= t[a]
			} else {
				w *= 1 - t[a]
			}
			idx += c * g.stride[a]
		}
		if w != 0 {
			sum += w * f[idx]
		}
	}
	return sum
}

// cornerRange returns the extremes of the 2^dims samples enclosing p.
func cornerRange(g Grid, f []float64, p [3]float64) (lo, hi float64) {
	base, _ := g.cellOf(p)
	lo, hi = math.Inf(1), math.Inf(-1)
	for corner := 0; corner < 1<<g.dims; corner++ {
		idx := 0
		for a := 0; a < g.dims; a++ {
			idx += (base[a] + corner>>a&1) * g.stride[a]
		}
		lo = min(lo, f[idx])
		hi = max(hi, f[idx])
	}
	return lo, hi
}

func catmullRom(t float64) [4]float64 {
	t2 := t * t
	t3 := t2 * t
	return [4]float64{
		-0.5*t3 + t2 - 0.5*t,
		1.5*t3 - 2.5*t2 + 1,
		-1.5*t3 + 2*t2 + 0.5*t,
		0.5*t3 - 0.5*t2,
	}
}

// sampleCubic is tensor-product Catmull-Rom, clamped to the linear corners.
func sampleCubic(g Grid, f []float64, p [3]float64) float64 {
	base, t := g.cellOf(p)
	var w [3][4]float64
	for a := 0; a < g.dims; a++ {
		w[a] = catmullRom(t[a])
	}
	taps := 1
	for a := 0; a < g.dims; a++ {
		taps *= 4
	}
	var sum float64
	for tap := 0; tap < taps; tap++ {
		weight := 1.0
		idx := 0
		digits := tap
		for a := 0; a < g.dims; a++ {
			d := digits & 3
			digits >>= 2
			weight *= w[a][d]
			c := min(max(base[a]+d-1, 0), g.padded[a]-1)
			idx += c * g.stride[a]
		}
		if weight != 0 {
			sum += weight * f[idx]
		}
	}
	lo, hi := cornerRange(g, f, p)
	return min(max(sum, lo), hi)
}

func sample(g Grid, f []float64, p [3]float64, m InterpolationMethod) float64 {
	if m == InterpolateMonotonicCubic {
		return sampleCubic(g, f, p)
	}
	return sampleLinear(g, f, p)
}
