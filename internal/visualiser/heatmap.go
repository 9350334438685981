package visualiser

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// WriteHeatmapHTML renders cell badness as a colour-mapped scatter of cell
// centroids, with the trajectory overlaid, as a standalone HTML page.
// Trajectory points are drawn at the top of the colour scale.
func WriteHeatmapHTML(w io.Writer, s Scene) error {
	if s.Matrix == nil {
		return ErrNoMatrix
	}
	samples, worst := s.cellSamples()
	if worst == 0 {
		worst = 1
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	cells := make([]opts.ScatterData, 0, len(samples))
	for _, c := range samples {
		minX, maxX = math.Min(minX, c.X), math.Max(maxX, c.X)
		minY, maxY = math.Min(minY, c.Y), math.Max(maxY, c.Y)
		cells = append(cells, opts.ScatterData{Value: []interface{}{c.X, c.Y, c.Badness}})
	}
	path := make([]opts.ScatterData, 0, len(s.Trajectory))
	for _, tp := range s.Trajectory {
		path = append(path, opts.ScatterData{Value: []interface{}{tp.Position.X, tp.Position.Y, worst}})
	}

	// Equal padding on both axes keeps cells roughly square.
	pad := 0.05*math.Max(maxX-minX, maxY-minY) + s.Matrix.CellWidth()

	title := s.Title
	if title == "" {
		title = "Road matrix cost"
	}
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "1000px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("grid=%dx%d cells=%d points=%d", s.Matrix.Length(), s.Matrix.Width(), len(cells), len(path))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: minX - pad, Max: maxX + pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: minY - pad, Max: maxY + pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(worst),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("cost", cells, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	if len(path) > 0 {
		scatter.AddSeries("trajectory", path, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}))
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
