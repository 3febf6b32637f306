package main

import (
	"image/color"
	"math"
)

// sciColor maps val within [lo, hi] onto a blue-cyan-green-yellow-red ramp.
// A flat range renders as green.
func sciColor(val, lo, hi float64) color.RGBA {
	d := hi - lo
	if d <= 1e-12 {
		val = 0.5
	} else {
		val = min(max((val-lo)/d, 0), 0.9999)
	}
	const m = 0.25
	num := math.Floor(val / m)
	s := (val - num*m) / m
	var r, g, b float64

	switch num {
	case 0:
		r = 0.0
		g = s
		b = 1.0
	case 1:
		r = 0.0
		g = 1.0
		b = 1.0 - s
	case 2:
		r = s
		g = 1.0
		b = 0.0
	case 3:
		r = 1.0
		g = 1.0 - s
		b = 0.0
	}

	return color.RGBA{
		R: uint8(255 * r),
		G: uint8(255 * g),
		B: uint8(255 * b),
		A: 0xff,
	}
}

// fillPixels writes one RGBA pixel per interior cell of a w×h field whose
// raw buffer is values (border included).
func fillPixels(pixels []byte, values []float64, w, h int, lo, hi float64) {
	stride := w + 2
	for y := 0; y < h; y++ {
		row := values[(y+1)*stride+1:][:w]
		for x, v := range row {
			c := sciColor(v, lo, hi)
			p := (y*w + x) * 4
			pixels[p] = c.R
			pixels[p+1] = c.G
			pixels[p+2] = c.B
			pixels[p+3] = c.A
		}
	}
}
