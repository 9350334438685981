package visualiser

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	latticeColor    = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	centerlineColor = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	costColor       = color.RGBA{R: 230, G: 140, B: 30, A: 255}
	obstacleColor   = color.RGBA{R: 200, G: 40, B: 40, A: 120}
	trajectoryColor = color.RGBA{R: 30, G: 90, B: 220, A: 255}
)

func toXYs(points []r2.Vec) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, p := range points {
		xys[i] = plotter.XY{X: p.X, Y: p.Y}
	}
	return xys
}

// newPlot draws the lattice rows, centerline, costly cells, obstacles and
// trajectory.
func newPlot(s Scene) (*plot.Plot, error) {
	if s.Matrix == nil {
		return nil, ErrNoMatrix
	}
	m := s.Matrix

	p := plot.New()
	p.Title.Text = s.Title
	if p.Title.Text == "" {
		p.Title.Text = "Road matrix"
	}
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	// Lattice rows run along the road, one per lateral cell boundary.
	stride := m.Length() + 1
	points := m.Points()
	for row := 0; row+stride <= len(points); row += stride {
		l, err := plotter.NewLine(toXYs(points[row : row+stride]))
		if err != nil {
			return nil, fmt.Errorf("lattice row: %w", err)
		}
		l.Color = latticeColor
		l.Width = vg.Points(0.5)
		p.Add(l)
	}

	center, err := plotter.NewLine(toXYs(m.Centerline()))
	if err != nil {
		return nil, fmt.Errorf("centerline: %w", err)
	}
	center.Color = centerlineColor
	center.Width = vg.Points(1)
	center.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(center)
	p.Legend.Add("centerline", center)

	samples, _ := s.cellSamples()
	var costly plotter.XYs
	for _, c := range samples {
		if c.Badness > 0 {
			costly = append(costly, plotter.XY{X: c.X, Y: c.Y})
		}
	}
	if len(costly) > 0 {
		sc, err := plotter.NewScatter(costly)
		if err != nil {
			return nil, fmt.Errorf("cost cells: %w", err)
		}
		sc.GlyphStyle.Color = costColor
		sc.GlyphStyle.Shape = draw.BoxGlyph{}
		sc.GlyphStyle.Radius = vg.Points(2)
		p.Add(sc)
		p.Legend.Add("cost > 0", sc)
	}

	for _, o := range s.Obstacles {
		poly, err := plotter.NewPolygon(toXYs(o.Box.Corners[:]))
		if err != nil {
			return nil, fmt.Errorf("obstacle: %w", err)
		}
		poly.Color = obstacleColor
		poly.LineStyle.Color = obstacleColor
		p.Add(poly)
	}

	if len(s.Trajectory) > 0 {
		pts := make([]r2.Vec, len(s.Trajectory))
		for i, tp := range s.Trajectory {
			pts[i] = tp.Position
		}
		line, scatter, err := plotter.NewLinePoints(toXYs(pts))
		if err != nil {
			return nil, fmt.Errorf("trajectory: %w", err)
		}
		line.Color = trajectoryColor
		line.Width = vg.Points(1.5)
		scatter.GlyphStyle.Color = trajectoryColor
		scatter.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(line, scatter)
		p.Legend.Add("trajectory", line, scatter)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// SavePNG renders s to a PNG file at path.
func SavePNG(s Scene, path string) error {
	p, err := newPlot(s)
	if err != nil {
		return err
	}
	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// WritePNG renders s as PNG to w.
func WritePNG(w io.Writer, s Scene) error {
	p, err := newPlot(s)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(10*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("png writer: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}
