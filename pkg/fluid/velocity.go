package fluid

// Velocity is a view of the current velocity. It shares storage with the
// solver and is valid until the next Tick.
func (c *core) Velocity() VectorField {
	v := VectorField{grid: c.grid}
	copy(v.components[:], c.velT1)
	return v
}

// VelocityMagnitude returns |v| for every interior cell in a new field.
func (c *core) VelocityMagnitude() ScalarField {
	out := NewScalarField(c.grid)
	vel := c.Velocity()
	c.grid.forEachInterior(func(i int) {
		out.values[i] = vel.at(i).Length()
	})
	return out
}

// MaxSpeed is the largest velocity magnitude over the interior.
func (c *core) MaxSpeed() float64 {
	return maxSpeed(c.grid, c.velT1)
}
