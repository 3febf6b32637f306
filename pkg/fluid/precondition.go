package fluid

import "math"

const (
	micTuning = 0.97
	micSafety = 0.25
)

// buildMIC computes the modified incomplete Cholesky factor of s, stored as
// the reciprocal square roots of its diagonal (Bridson, "Fluid Simulation for
// Computer Graphics", ch. 4).
func buildMIC(s *stencil) []float64 {
	lat := s.lat
	prec := make([]float64, lat.len)
	for k := range prec {
		diag := s.diag[k]
		e := diag
		for a := 0; a < lat.dims; a++ {
			st := lat.stride[a]
			if k < st {
				continue
			}
			c := s.off[a][k-st]
			if c == 0 {
				continue
			}
			pj := prec[k-st]
			e -= c * c * pj * pj
			var rest float64
			for b := 0; b < lat.dims; b++ {
				if b != a {
					rest += s.off[b][k-st]
				}
			}
			e -= micTuning * c * rest * pj * pj
		}
		if e < micSafety*diag {
			e = diag
		}
		prec[k] = 1 / math.Sqrt(e)
	}
	return prec
}

// applyMIC solves L L^T z = r with the factor from buildMIC.
func applyMIC(s *stencil, prec, z, r []float64) {
	lat := s.lat
	for k := range z {
		t := r[k]
		for a := 0; a < lat.dims; a++ {
			st := lat.stride[a]
			if k >= st {
				if c := s.off[a][k-st]; c != 0 {
					t += c * prec[k-st] * z[k-st]
				}
			}
		}
		z[k] = t * prec[k]
	}
	for k := len(z) - 1; k >= 0; k-- {
		t := z[k]
		for a := 0; a < lat.dims; a++ {
			if c := s.off[a][k]; c != 0 {
				t += c * prec[k] * z[k+lat.stride[a]]
			}
		}
		z[k] = t * prec[k]
	}
}
