package l3pieces

import (
	"errors"
	"fmt"

	"github.com/banshee-data/roadmatrix/internal/planning/l1grid"
)

// ErrInfeasibleGrid is returned when the vehicle does not fit the grid,
// leaving no candidate piece at some longitudinal index.
var ErrInfeasibleGrid = errors.New("infeasible grid: vehicle wider than road matrix")

// LanePiece is a vehicle-wide run of laterally contiguous cells at one
// longitudinal index, with its aggregated cost.
type LanePiece struct {
	X      int // longitudinal index
	Offset int // lateral index of the leftmost covered cell
	Cells  []*l1grid.Cell
	Value  int

	// CenterHalfCells is twice the signed lateral offset of the piece
	// centre from the centerline, in cells; 0 means centred.
	CenterHalfCells int
}

// Width returns the number of cells the piece covers.
func (p LanePiece) Width() int {
	return len(p.Cells)
}

// Matrix holds, for each longitudinal index, every valid piece placement
// ordered by lateral offset. It is the search space for L4.
type Matrix [][]LanePiece

// Length returns the number of longitudinal steps.
func (pm Matrix) Length() int {
	return len(pm)
}

// Build enumerates every piece of vehicleWidth cells at every longitudinal
// index of m, scoring each with value. A nil value uses Sum.
func Build(m *l1grid.RoadMatrix, vehicleWidth int, value ValueFunc) (Matrix, error) {
	if m == nil || m.Length() == 0 {
		return nil, l1grid.ErrEmptyGrid
	}
	if vehicleWidth < 1 {
		return nil, fmt.Errorf("%w: vehicle width must be at least 1 cell, got %d", l1grid.ErrConfiguration, vehicleWidth)
	}
	if vehicleWidth > m.Width() {
		return nil, fmt.Errorf("%w: vehicle %d cells, matrix %d cells", ErrInfeasibleGrid, vehicleWidth, m.Width())
	}
	if value == nil {
		value = Sum
	}

	options := m.Width() - vehicleWidth + 1
	pm := make(Matrix, m.Length())
	for x := 0; x < m.Length(); x++ {
		row := m.Row(x)
		pm[x] = make([]LanePiece, 0, options)
		for o := 0; o+vehicleWidth <= m.Width(); o++ {
			cells := make([]*l1grid.Cell, vehicleWidth)
			for i := range cells {
				cells[i] = &row[o+i]
			}
			pm[x] = append(pm[x], LanePiece{
				X:               x,
				Offset:          o,
				Cells:           cells,
				Value:           value(cells),
				CenterHalfCells: 2*o + vehicleWidth - 2*m.CellsPerLane(),
			})
		}
	}
	return pm, nil
}

// Validate checks that every step has at least one candidate.
func (pm Matrix) Validate() error {
	if len(pm) == 0 {
		return fmt.Errorf("%w: no longitudinal steps", ErrInfeasibleGrid)
	}
	for x, step := range pm {
		if len(step) == 0 {
			return fmt.Errorf("%w: no candidate piece at step %d", ErrInfeasibleGrid, x)
		}
	}
	return nil
}

// Trajectory is the chosen sequence of exactly one piece per
// longitudinal index.
type Trajectory []LanePiece

// Value returns the summed piece values of the trajectory, saturating
// instead of wrapping.
func (t Trajectory) Value() int {
	var v float64
	for _, p := range t {
		v += float64(p.Value)
	}
	return saturate(v)
}
