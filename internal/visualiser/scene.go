package visualiser

import (
	"errors"

	"github.com/banshee-data/roadmatrix/internal/environment"
	"github.com/banshee-data/roadmatrix/internal/planning/l1grid"
	"github.com/banshee-data/roadmatrix/internal/planning/pipeline"
)

// ErrNoMatrix is returned when a scene has nothing to draw.
var ErrNoMatrix = errors.New("visualiser: scene has no road matrix")

// Scene is everything drawn for one planning cycle.
type Scene struct {
	Title      string
	Matrix     *l1grid.RoadMatrix
	Trajectory environment.Trajectory
	Obstacles  []environment.Obstacle
}

// SceneFromResult builds a scene from a pipeline result. env may be nil.
func SceneFromResult(title string, res *pipeline.Result, env *environment.Environment) Scene {
	s := Scene{Title: title}
	if res != nil {
		s.Matrix = res.Matrix
		s.Trajectory = environment.Trajectory(res.Points)
	}
	if env != nil {
		s.Obstacles = env.Obstacles()
	}
	return s
}

type cellSample struct {
	X, Y, Badness float64
}

// cellSamples returns every cell centroid with its badness, and the
// largest badness seen.
func (s Scene) cellSamples() ([]cellSample, float64) {
	samples := make([]cellSample, 0, s.Matrix.Length()*s.Matrix.Width())
	var worst float64
	s.Matrix.ForEach(func(c *l1grid.Cell) {
		p := c.Centroid()
		samples = append(samples, cellSample{X: p.X, Y: p.Y, Badness: c.Badness()})
		if c.Badness() > worst {
			worst = c.Badness()
		}
	})
	return samples, worst
}
