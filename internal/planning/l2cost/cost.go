package l2cost

import (
	"math"

	"github.com/banshee-data/roadmatrix/internal/config"
	"github.com/banshee-data/roadmatrix/internal/environment"
	"github.com/banshee-data/roadmatrix/internal/planning/l1grid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/spatial/r2"
)

// Writer writes badness into the cells of a RoadMatrix.
type Writer interface {
	WriteCost(m *l1grid.RoadMatrix)
}

// WriterFunc adapts a plain function to the Writer interface.
type WriterFunc func(m *l1grid.RoadMatrix)

// WriteCost calls f(m).
func (f WriterFunc) WriteCost(m *l1grid.RoadMatrix) { f(m) }

// Reset zeroes every cell so no cost from an earlier cycle is read.
func Reset(m *l1grid.RoadMatrix) {
	m.ForEach(func(c *l1grid.Cell) { c.SetBadness(0) })
}

// Apply resets m and then runs each writer in order.
func Apply(m *l1grid.RoadMatrix, writers ...Writer) {
	Reset(m)
	for _, w := range writers {
		if w != nil {
			w.WriteCost(m)
		}
	}
}

// CostConfig holds the tunables for the built-in writers.
type CostConfig struct {
	ObstacleBadness     float64
	ObstacleMargin      float64
	LaneDeviationWeight float64
}

// CostConfigFromTuning builds a CostConfig from a loaded PlannerConfig.
func CostConfigFromTuning(cfg *config.PlannerConfig) CostConfig {
	return CostConfig{
		ObstacleBadness:     cfg.GetObstacleBadness(),
		ObstacleMargin:      cfg.GetObstacleMargin(),
		LaneDeviationWeight: cfg.GetLaneDeviationWeight(),
	}
}

// Writers returns the built-in writers for obstacles, in the order they
// should run.
func (c CostConfig) Writers(obstacles []environment.Obstacle) []Writer {
	var ws []Writer
	if c.LaneDeviationWeight > 0 {
		ws = append(ws, LaneDeviation{Weight: c.LaneDeviationWeight})
	}
	if len(obstacles) > 0 {
		ws = append(ws, NewObstacleMarker(obstacles, c.ObstacleBadness, c.ObstacleMargin))
	}
	return ws
}

// ObstacleMarker raises the badness of every cell that overlaps an
// obstacle footprint. A cell overlaps when its centroid lies inside the
// grown footprint or a footprint corner lies inside the cell.
type ObstacleMarker struct {
	Badness    float64
	footprints []orb.Polygon
	bounds     []orb.Bound
}

// NewObstacleMarker builds a marker for obstacles whose bounding boxes
// are grown by margin metres on every side.
func NewObstacleMarker(obstacles []environment.Obstacle, badness, margin float64) *ObstacleMarker {
	om := &ObstacleMarker{Badness: badness}
	for _, o := range obstacles {
		poly := o.Box.Polygon(margin)
		om.footprints = append(om.footprints, poly)
		om.bounds = append(om.bounds, poly.Bound())
	}
	return om
}

// WriteCost marks overlapping cells. Existing badness is kept if higher.
func (om *ObstacleMarker) WriteCost(m *l1grid.RoadMatrix) {
	m.ForEach(func(c *l1grid.Cell) {
		if om.overlaps(c) && c.Badness() < om.Badness {
			c.SetBadness(om.Badness)
		}
	})
}

func (om *ObstacleMarker) overlaps(c *l1grid.Cell) bool {
	corners := c.Corners()
	cellBound := orb.MultiPoint{
		toOrb(corners[0]), toOrb(corners[1]), toOrb(corners[2]), toOrb(corners[3]),
	}.Bound()
	centroid := toOrb(c.Centroid())

	for i, fp := range om.footprints {
		if !om.bounds[i].Intersects(cellBound) {
			continue
		}
		if planar.PolygonContains(fp, centroid) {
			return true
		}
		for _, p := range fp[0] {
			if c.Contains(r2.Vec{X: p[0], Y: p[1]}) {
				return true
			}
		}
	}
	return false
}

func toOrb(v r2.Vec) orb.Point {
	return orb.Point{v.X, v.Y}
}

// LaneDeviation adds Weight times the absolute lateral distance of each
// cell centre from the centerline, biasing the search toward the centre.
type LaneDeviation struct {
	Weight float64
}

// WriteCost adds the deviation term to every cell.
func (ld LaneDeviation) WriteCost(m *l1grid.RoadMatrix) {
	m.ForEach(func(c *l1grid.Cell) {
		c.SetBadness(c.Badness() + ld.Weight*math.Abs(m.CellCenterOffset(c.Y)))
	})
}

// Rect returns a writer that sets badness on the cells with longitudinal
// index in [x0, x1] and lateral index in [y0, y1].
func Rect(x0, x1, y0, y1 int, badness float64) Writer {
	return WriterFunc(func(m *l1grid.RoadMatrix) {
		for x := max(x0, 0); x <= x1 && x < m.Length(); x++ {
			for y := max(y0, 0); y <= y1 && y < m.Width(); y++ {
				m.Cell(x, y).SetBadness(badness)
			}
		}
	})
}
