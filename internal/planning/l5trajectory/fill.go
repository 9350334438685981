package l5trajectory

import (
	"errors"
	"fmt"

	"github.com/banshee-data/roadmatrix/internal/environment"
	"github.com/banshee-data/roadmatrix/internal/planning/l1grid"
	"github.com/banshee-data/roadmatrix/internal/planning/l3pieces"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrEmptyInput is returned when there is no piece to reconstruct from.
var ErrEmptyInput = errors.New("empty lane-piece trajectory")

// Fill appends one point per piece to traj and reports whether anything
// was written. Points are built first and appended together, so on error
// traj is left untouched. A nil velocity uses the default cruise speed.
//
// Each point sits at the midpoint of the piece's near (lower x) edge,
// heads along the centerline tangent at that step and carries the signed
// lateral distance of the piece midpoint from the centerline.
func Fill(m *l1grid.RoadMatrix, pieces l3pieces.Trajectory, traj *environment.Trajectory, velocity VelocityFunc) (bool, error) {
	if len(pieces) == 0 {
		return false, ErrEmptyInput
	}
	if m == nil {
		return false, l1grid.ErrEmptyGrid
	}
	if traj == nil {
		return false, fmt.Errorf("%w: nil trajectory", l1grid.ErrConfiguration)
	}
	if velocity == nil {
		velocity = ConstantVelocity(DefaultVelocityConfig().Cruise)
	}

	points := make([]environment.TrajectoryPoint, 0, len(pieces))
	for i, p := range pieces {
		if p.Width() == 0 || p.X < 0 || p.X >= m.Length() {
			return false, fmt.Errorf("%w: piece %d at step %d does not fit the matrix", l1grid.ErrConfiguration, i, p.X)
		}
		near := p.Cells[0].Corners()[l1grid.BottomLeft]
		far := p.Cells[p.Width()-1].Corners()[l1grid.TopLeft]

		pt := environment.TrajectoryPoint{
			Position:             r2.Scale(0.5, r2.Add(near, far)),
			Direction:            m.Tangent(p.X),
			DistanceToMiddleLane: m.LateralOffset(float64(p.Offset) + float64(p.Width())/2),
		}
		pt.Velocity = velocity(pt, float64(p.X)*m.CellWidth())
		points = append(points, pt)
	}

	traj.Append(points...)
	return true, nil
}
