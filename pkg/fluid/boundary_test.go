package fluid

import "testing"

func TestCopyBorder(t *testing.T) {
	g := NewGrid2D(3, 3) // 5x5 with border
	src := make([]float64, g.Cells())
	for i := range src {
		src[i] = float64(i + 1) // unique value for each cell
	}
	dst := make([]float64, g.Cells())

	copyBorder(g, dst, src)

	for i := range dst {
		c := g.coords(i)
		border := c[0] == 0 || c[1] == 0 || c[0] == 4 || c[1] == 4
		if border && dst[i] != src[i] {
			t.Errorf("border mismatch at %v", c)
		}
		if !border && dst[i] != 0 {
			t.Errorf("interior cell %v was written", c)
		}
	}
}

func TestSmearBorder(t *testing.T) {
	for _, g := range []Grid{NewGrid2D(4, 3), NewGrid3D(3, 2, 4)} {
		f := make([]float64, g.Cells())
		g.walkInterior(func(i int) { f[i] = float64(i) })
		smearBorder(g, f)

		g.walkBorder(func(p, q int, _ [3]bool) {
			if f[p] != f[q] {
				t.Errorf("%dD: border %v = %g, want %g from %v", g.Dims(), g.coords(p), f[p], f[q], g.coords(q))
			}
		})
	}
}

func TestReflectBorder(t *testing.T) {
	g := NewGrid2D(4, 4)
	u := make([]float64, g.Cells())
	g.walkInterior(func(i int) { u[i] = 1 })
	reflectBorder(g, u, 0)

	left, _ := g.interiorIndex(Coord{X: 0, Y: 2})
	top, _ := g.interiorIndex(Coord{X: 2, Y: 0})
	if got := u[left-1]; got != -1 {
		t.Errorf("left wall u = %g, want -1", got)
	}
	if got := u[top-g.stride[1]]; got != 1 {
		t.Errorf("top wall u = %g, want 1", got)
	}
	// corner cells sit outside on both axes and take the negated value
	if got := u[0]; got != -1 {
		t.Errorf("corner u = %g, want -1", got)
	}
}

func TestWalkBorderVisitsEveryBorderCellOnce(t *testing.T) {
	for _, g := range []Grid{NewGrid2D(5, 3), NewGrid3D(2, 3, 4)} {
		seen := make([]int, g.Cells())
		g.walkBorder(func(p, _ int, _ [3]bool) { seen[p]++ })
		interior := make([]bool, g.Cells())
		g.walkInterior(func(i int) { interior[i] = true })

		for i, n := range seen {
			want := 1
			if interior[i] {
				want = 0
			}
			if n != want {
				t.Errorf("%dD: cell %v visited %d times, want %d", g.Dims(), g.coords(i), n, want)
			}
		}
	}
}

func TestInteriorIndex(t *testing.T) {
	g := NewGrid2D(4, 3)
	i, ok := g.interiorIndex(Coord{X: 0, Y: 0})
	if !ok || i != 1+g.stride[1] {
		t.Errorf("origin maps to %d, %v", i, ok)
	}
	for _, c := range []Coord{{X: -1}, {X: 4}, {Y: 3}, {X: 1, Y: 1, Z: 1}} {
		if _, ok := g.interiorIndex(c); ok {
			t.Errorf("%v should be outside a 4x3 grid", c)
		}
	}
	if n := g.Resolution(); n != 4 {
		t.Errorf("Resolution() = %d, want 4", n)
	}
}
