package fluid

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Coord addresses an interior cell. Z is ignored (and must be 0) on 2D grids.
type Coord struct {
	X, Y, Z int
}

// ScalarField is a view over one flat field buffer. Views share storage with
// the solver that produced them and are only valid until its next Tick.
type ScalarField struct {
	grid   Grid
	values []float64
}

// NewScalarField allocates a zeroed field on g.
func NewScalarField(g Grid) ScalarField {
	return ScalarField{grid: g, values: make([]float64, g.Cells())}
}

func (s ScalarField) Grid() Grid { return s.grid }

// Load reads an interior cell. The coordinate must be valid.
func (s ScalarField) Load(c Coord) float64 {
	i, _ := s.grid.interiorIndex(c)
	return s.values[i]
}

// Write stores into an interior cell. The coordinate must be valid.
func (s ScalarField) Write(c Coord, v float64) {
	i, _ := s.grid.interiorIndex(c)
	s.values[i] = v
}

// Value is the bounds-checked form of Load.
func (s ScalarField) Value(c Coord) (float64, error) {
	i, ok := s.grid.interiorIndex(c)
	if !ok {
		return 0, fmt.Errorf("coordinate %v outside interior %v", c, s.grid.size)
	}
	return s.values[i], nil
}

// Range returns the minimum and maximum over interior cells.
func (s ScalarField) Range() (lo, hi float64) {
	nx := s.grid.size[0]
	for r := 0; r < s.grid.rows(); r++ {
		row := s.values[s.grid.rowStart(r):][:nx]
		if r == 0 {
			lo, hi = floats.Min(row), floats.Max(row)
			continue
		}
		lo = min(lo, floats.Min(row))
		hi = max(hi, floats.Max(row))
	}
	return lo, hi
}

// Sum adds up the interior cells.
func (s ScalarField) Sum() float64 {
	nx := s.grid.size[0]
	var total float64
	for r := 0; r < s.grid.rows(); r++ {
		total += floats.Sum(s.values[s.grid.rowStart(r):][:nx])
	}
	return total
}

// Values exposes the raw padded buffer, border included.
func (s ScalarField) Values() []float64 { return s.values }
