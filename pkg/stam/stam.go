// Package stam is a direct rendition of Jos Stam's "Real-Time Fluid Dynamics
// for Games" solver, kept as a baseline for the operator-based solver in
// package fluid. It uses fixed Gauss-Seidel iteration counts, plain
// semi-Lagrangian advection and no temperature coupling.
package stam

import "gonum.org/v1/gonum/floats"

// relaxIterations is the fixed Gauss-Seidel sweep count of every linear solve.
const relaxIterations = 20

// Boundary kinds for setBnd.
const (
	bndScalar = iota
	bndU
	bndV
)

type lattice struct {
	w, h int
	n    float64 // resolution, 1/h
}

func (l lattice) ix(i, j int) int { return i + (l.w+2)*j }

func addSource(x, s []float64, dt float64) {
	floats.AddScaled(x, dt, s)
}

// setBnd fills the border of x: copies for scalars, negated copies of the
// normal component for velocities. Corners average their two neighbours.
func setBnd(l lattice, b int, x []float64) {
	w, h := l.w, l.h
	for i := 1; i <= w; i++ {
		s := 1.0
		if b == bndV {
			s = -1
		}
		x[l.ix(i, 0)] = s * x[l.ix(i, 1)]
		x[l.ix(i, h+1)] = s * x[l.ix(i, h)]
	}
	for j := 1; j <= h; j++ {
		s := 1.0
		if b == bndU {
			s = -1
		}
		x[l.ix(0, j)] = s * x[l.ix(1, j)]
		x[l.ix(w+1, j)] = s * x[l.ix(w, j)]
	}
	x[l.ix(0, 0)] = 0.5 * (x[l.ix(1, 0)] + x[l.ix(0, 1)])
	x[l.ix(0, h+1)] = 0.5 * (x[l.ix(1, h+1)] + x[l.ix(0, h)])
	x[l.ix(w+1, 0)] = 0.5 * (x[l.ix(w, 0)] + x[l.ix(w+1, 1)])
	x[l.ix(w+1, h+1)] = 0.5 * (x[l.ix(w, h+1)] + x[l.ix(w+1, h)])
}

func linSolve(l lattice, b int, x, x0 []float64, a, c float64) {
	for k := 0; k < relaxIterations; k++ {
		for j := 1; j <= l.h; j++ {
			for i := 1; i <= l.w; i++ {
				p := l.ix(i, j)
				x[p] = (x0[p] + a*(x[p-1]+x[p+1]+x[l.ix(i, j-1)]+x[l.ix(i, j+1)])) / c
			}
		}
		setBnd(l, b, x)
	}
}

// diffuse takes a in cell units: a = dt * rate.
func diffuse(l lattice, b int, x, x0 []float64, diff, dt float64) {
	a := dt * diff
	linSolve(l, b, x, x0, a, 1+4*a)
}

func advect(l lattice, b int, d, d0, u, v []float64, dt float64) {
	dt0 := dt * l.n
	for j := 1; j <= l.h; j++ {
		for i := 1; i <= l.w; i++ {
			p := l.ix(i, j)
			x := min(max(float64(i)-dt0*u[p], 0.5), float64(l.w)+0.5)
			y := min(max(float64(j)-dt0*v[p], 0.5), float64(l.h)+0.5)
			i0, j0 := int(x), int(y)
			s1, t1 := x-float64(i0), y-float64(j0)
			s0, t0 := 1-s1, 1-t1
			d[p] = s0*(t0*d0[l.ix(i0, j0)]+t1*d0[l.ix(i0, j0+1)]) +
				s1*(t0*d0[l.ix(i0+1, j0)]+t1*d0[l.ix(i0+1, j0+1)])
		}
	}
	setBnd(l, b, d)
}

func project(l lattice, u, v, p, div []float64) {
	h := 1 / l.n
	for j := 1; j <= l.h; j++ {
		for i := 1; i <= l.w; i++ {
			k := l.ix(i, j)
			div[k] = -0.5 * h * (u[k+1] - u[k-1] + v[l.ix(i, j+1)] - v[l.ix(i, j-1)])
			p[k] = 0
		}
	}
	setBnd(l, bndScalar, div)
	setBnd(l, bndScalar, p)

	linSolve(l, bndScalar, p, div, 1, 4)

	for j := 1; j <= l.h; j++ {
		for i := 1; i <= l.w; i++ {
			k := l.ix(i, j)
			u[k] -= 0.5 * (p[k+1] - p[k-1]) / h
			v[k] -= 0.5 * (p[l.ix(i, j+1)] - p[l.ix(i, j-1)]) / h
		}
	}
	setBnd(l, bndU, u)
	setBnd(l, bndV, v)
}

// densStep leaves the new scalar in x; x0 holds the sources on entry and is
// scratch afterwards.
func densStep(l lattice, x, x0, u, v []float64, diff, dt float64) {
	addSource(x, x0, dt)
	x0, x = x, x0
	diffuse(l, bndScalar, x, x0, diff, dt)
	x0, x = x, x0
	advect(l, bndScalar, x, x0, u, v, dt)
}

// velStep leaves the new velocity in u and v; u0 and v0 hold the sources on
// entry and are scratch afterwards.
func velStep(l lattice, u, v, u0, v0 []float64, visc, dt float64) {
	addSource(u, u0, dt)
	addSource(v, v0, dt)
	u0, u = u, u0
	diffuse(l, bndU, u, u0, visc, dt)
	v0, v = v, v0
	diffuse(l, bndV, v, v0, visc, dt)
	project(l, u, v, u0, v0)
	u0, u = u, u0
	v0, v = v, v0
	advect(l, bndU, u, u0, u0, v0, dt)
	advect(l, bndV, v, v0, u0, v0, dt)
	project(l, u, v, u0, v0)
}
