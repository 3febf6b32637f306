// Package snapshot renders scalar fields as PNG heat maps.
package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/TheFellow/fluid/pkg/fluid"
)

const (
	width  = 6 * vg.Inch
	height = 6 * vg.Inch
)

// sliceGrid exposes the interior of one z-slice of a field as a GridXYZ.
type sliceGrid struct {
	field fluid.ScalarField
	w, h  int
	z     int
}

func newSliceGrid(field fluid.ScalarField) sliceGrid {
	g := field.Grid()
	size := g.Size()
	s := sliceGrid{field: field, w: size[0], h: size[1]}
	if g.Dims() == 3 {
		s.z = size[2] / 2
	}
	return s
}

func (s sliceGrid) Dims() (c, r int) { return s.w, s.h }
func (s sliceGrid) Z(c, r int) float64 {
	return s.field.Load(fluid.Coord{X: c, Y: r, Z: s.z})
}
func (s sliceGrid) X(c int) float64 { return float64(c) }
func (s sliceGrid) Y(r int) float64 { return float64(r) }

func (s sliceGrid) bounds() (lo, hi float64) {
	lo, hi = s.Z(0, 0), s.Z(0, 0)
	for r := 0; r < s.h; r++ {
		for c := 0; c < s.w; c++ {
			v := s.Z(c, r)
			lo, hi = min(lo, v), max(hi, v)
		}
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}

// Plot builds the heat map plot of field. 3D fields are cut through their
// middle z-slice. The y axis points down, matching screen space.
func Plot(field fluid.ScalarField, title string) *plot.Plot {
	g := newSliceGrid(field)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}

	hm := plotter.NewHeatMap(g, moreland.Kindlmann().Palette(255))
	hm.Min, hm.Max = g.bounds()
	p.Add(hm)
	return p
}

// Write renders field as a PNG into w.
func Write(w io.Writer, field fluid.ScalarField, title string) error {
	c := vgimg.New(width, height)
	Plot(field, title).Draw(draw.New(c))

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}

// WriteFile renders field into path, creating parent directories.
func WriteFile(path string, field fluid.ScalarField, title string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := Write(bw, field, title); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("cannot write png: %w", err)
	}
	return f.Close()
}
