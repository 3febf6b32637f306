package main

import (
	"image/color"
	"testing"
)

func TestSciColor(t *testing.T) {
	cases := []struct {
		val, lo, hi float64
		want        color.RGBA
	}{
		{0, 0, 1, color.RGBA{B: 255, A: 255}},
		{-5, 0, 1, color.RGBA{B: 255, A: 255}},
		{0.5, 0, 1, color.RGBA{G: 255, A: 255}},
		{3, 3, 3, color.RGBA{G: 255, A: 255}},
		{2, 0, 1, color.RGBA{R: 255, A: 255}},
	}
	for _, tc := range cases {
		if got := sciColor(tc.val, tc.lo, tc.hi); got != tc.want {
			t.Fatalf("sciColor(%v, %v, %v) = %v, want %v", tc.val, tc.lo, tc.hi, got, tc.want)
		}
	}
}

func TestFillPixels(t *testing.T) {
	w, h := 3, 2
	values := make([]float64, (w+2)*(h+2))
	values[(1+1)*(w+2)+2] = 1 // interior (1, 1)
	pixels := make([]byte, w*h*4)

	fillPixels(pixels, values, w, h, 0, 1)

	hot := (1*w + 1) * 4
	if pixels[hot] != 255 || pixels[hot+2] != 0 {
		t.Fatalf("hot pixel = %v, want red", pixels[hot:hot+4])
	}
	if pixels[0] != 0 || pixels[2] != 255 {
		t.Fatalf("cold pixel = %v, want blue", pixels[0:4])
	}
}
