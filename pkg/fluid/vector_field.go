package fluid

import (
	"fmt"
	"math"
)

// Vector is a velocity sample. Z is unused on 2D grids.
type Vector struct {
	X, Y, Z float64
}

func (v Vector) component(a int) float64 {
	switch a {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

func (v Vector) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// VectorField is a view over one buffer per velocity component.
type VectorField struct {
	grid       Grid
	components [3][]float64
}

// NewVectorField allocates a zeroed field on g.
func NewVectorField(g Grid) VectorField {
	v := VectorField{grid: g}
	for a := 0; a < g.dims; a++ {
		v.components[a] = make([]float64, g.Cells())
	}
	return v
}

func (v VectorField) Grid() Grid { return v.grid }

func (v VectorField) Load(c Coord) Vector {
	i, _ := v.grid.interiorIndex(c)
	return v.at(i)
}

func (v VectorField) Write(c Coord, val Vector) {
	i, _ := v.grid.interiorIndex(c)
	for a := 0; a < v.grid.dims; a++ {
		v.components[a][i] = val.component(a)
	}
}

// Value is the bounds-checked form of Load.
func (v VectorField) Value(c Coord) (Vector, error) {
	i, ok := v.grid.interiorIndex(c)
	if !ok {
		return Vector{}, fmt.Errorf("coordinate %v outside interior %v", c, v.grid.size)
	}
	return v.at(i), nil
}

// Component returns the scalar view of one axis.
func (v VectorField) Component(axis int) ScalarField {
	return ScalarField{grid: v.grid, values: v.components[axis]}
}

func (v VectorField) at(i int) Vector {
	var out Vector
	out.X = v.components[0][i]
	out.Y = v.components[1][i]
	if v.grid.dims == 3 {
		out.Z = v.components[2][i]
	}
	return out
}

func (v VectorField) slices() [][]float64 {
	return v.components[:v.grid.dims]
}
