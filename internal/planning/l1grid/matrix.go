package l1grid

import (
	"errors"
	"fmt"

	"github.com/banshee-data/roadmatrix/internal/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	// ErrConfiguration marks invalid grid parameters.
	ErrConfiguration = errors.New("configuration error")
	// ErrEmptyGrid is returned when the centerline is shorter than one
	// cell and no usable grid can be built.
	ErrEmptyGrid = fmt.Errorf("%w: centerline shorter than one cell, grid is empty", ErrConfiguration)
)

// RoadMatrix is a grid of cells spanning the drivable width around a
// centerline. Cells are indexed (x, y) with x longitudinal in
// [0, Length()) and y lateral in [0, Width()); y = 0 is the leftmost
// column when looking along the direction of travel.
type RoadMatrix struct {
	width        int
	length       int
	cellsPerLane int
	cellWidth    float64

	centerline geom.Polyline // resampled at cellWidth
	points     []r2.Vec      // lattice, row-major by lateral offset
	cells      [][]Cell      // [x][y]
}

// AroundLine builds a RoadMatrix around line with the given lane width
// and lateral resolution.
func AroundLine(line geom.Polyline, laneWidth float64, cellsPerLane int) (*RoadMatrix, error) {
	return Build(line, GridConfig{LaneWidth: laneWidth, CellsPerLane: cellsPerLane})
}

// Build tessellates the road surface around line. The centerline is
// resampled at cellWidth = LaneWidth/CellsPerLane, then offset
// perpendicular to its tangent by cellWidth*i for i in
// [-CellsPerLane, CellsPerLane]; the offset curves form the corner lattice.
func Build(line geom.Polyline, cfg GridConfig) (*RoadMatrix, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cellWidth := cfg.CellWidth()

	scaled, err := line.WithSpacing(cellWidth)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmptyGrid, err)
	}
	if cfg.MaxLengthCells > 0 && len(scaled) > cfg.MaxLengthCells+1 {
		scaled = scaled[:cfg.MaxLengthCells+1]
	}
	if len(scaled) < 2 {
		return nil, ErrEmptyGrid
	}

	m := &RoadMatrix{
		width:        2 * cfg.CellsPerLane,
		length:       len(scaled) - 1,
		cellsPerLane: cfg.CellsPerLane,
		cellWidth:    cellWidth,
		centerline:   scaled,
		points:       make([]r2.Vec, 0, len(scaled)*(2*cfg.CellsPerLane+1)),
	}

	for i := -cfg.CellsPerLane; i <= cfg.CellsPerLane; i++ {
		row, err := scaled.MoveOrthogonal(cellWidth * float64(i))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmptyGrid, err)
		}
		m.points = append(m.points, row...)
	}

	m.initCells()
	return m, nil
}

// initCells assigns each cell the lattice indices of its corners.
func (m *RoadMatrix) initCells() {
	stride := m.length + 1
	m.cells = make([][]Cell, m.length)
	for x := 0; x < m.length; x++ {
		m.cells[x] = make([]Cell, m.width)
		for y := 0; y < m.width; y++ {
			m.cells[x][y] = Cell{
				X: x,
				Y: y,
				corners: [4]int{
					x + stride*y,
					x + 1 + stride*y,
					x + 1 + stride*(y+1),
					x + stride*(y+1),
				},
				lattice: m.points,
			}
		}
	}
}

// Width returns the number of lateral cells (2 * cells per lane).
func (m *RoadMatrix) Width() int { return m.width }

// Length returns the number of longitudinal cells.
func (m *RoadMatrix) Length() int { return m.length }

// CellsPerLane returns the lateral resolution per half-lane.
func (m *RoadMatrix) CellsPerLane() int { return m.cellsPerLane }

// CellWidth returns the edge length of one cell in metres.
func (m *RoadMatrix) CellWidth() float64 { return m.cellWidth }

// Cell returns the cell at longitudinal index x and lateral index y.
// It panics if the indices are out of range, like a slice access.
func (m *RoadMatrix) Cell(x, y int) *Cell {
	return &m.cells[x][y]
}

// Row returns the cells at longitudinal index x, ordered left to right.
func (m *RoadMatrix) Row(x int) []Cell {
	return m.cells[x]
}

// Points returns the shared corner lattice. Callers must not modify it.
func (m *RoadMatrix) Points() []r2.Vec {
	return m.points
}

// Centerline returns the resampled centerline the grid was built around.
func (m *RoadMatrix) Centerline() geom.Polyline {
	return m.centerline
}

// Tangent returns the unit direction of the centerline at longitudinal
// index x.
func (m *RoadMatrix) Tangent(x int) r2.Vec {
	t, err := m.centerline.Tangent(x)
	if err != nil {
		return r2.Vec{X: 1}
	}
	return t
}

// LateralOffset converts a lateral lattice position (in cells, measured
// from the leftmost edge) into a signed distance from the centerline in
// metres; positive is right of centre.
func (m *RoadMatrix) LateralOffset(cells float64) float64 {
	return (cells - float64(m.cellsPerLane)) * m.cellWidth
}

// CellCenterOffset returns the signed lateral distance of column y's
// centre from the centerline.
func (m *RoadMatrix) CellCenterOffset(y int) float64 {
	return m.LateralOffset(float64(y) + 0.5)
}

// Locate returns the first cell containing p, scanning in index order.
func (m *RoadMatrix) Locate(p r2.Vec) (*Cell, bool) {
	for x := range m.cells {
		for y := range m.cells[x] {
			if m.cells[x][y].Contains(p) {
				return &m.cells[x][y], true
			}
		}
	}
	return nil, false
}

// ForEach calls fn for every cell in (x, y) order.
func (m *RoadMatrix) ForEach(fn func(c *Cell)) {
	for x := range m.cells {
		for y := range m.cells[x] {
			fn(&m.cells[x][y])
		}
	}
}
