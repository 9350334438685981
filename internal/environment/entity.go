package environment

import (
	"fmt"

	"github.com/banshee-data/roadmatrix/internal/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultMatchThreshold is the distance in metres under which two
// observations of an obstacle are considered the same object.
const DefaultMatchThreshold = 0.3

// Kind tags an Entity variant.
type Kind int

const (
	KindLane Kind = iota
	KindObstacle
	KindTrajectory
	KindRoadStates
)

func (k Kind) String() string {
	switch k {
	case KindLane:
		return "lane"
	case KindObstacle:
		return "obstacle"
	case KindTrajectory:
		return "trajectory"
	case KindRoadStates:
		return "road_states"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Entity is a closed set of environment objects: Lane, Obstacle,
// Trajectory and RoadStates. The unexported method seals the interface.
type Entity interface {
	Kind() Kind
	entity()
}

func (Lane) Kind() Kind       { return KindLane }
func (Obstacle) Kind() Kind   { return KindObstacle }
func (Trajectory) Kind() Kind { return KindTrajectory }
func (RoadStates) Kind() Kind { return KindRoadStates }

func (Lane) entity()       {}
func (Obstacle) entity()   {}
func (Trajectory) entity() {}
func (RoadStates) entity() {}

// LaneType says which lane line a Lane describes.
type LaneType int

const (
	LaneLeft LaneType = iota
	LaneMiddle
	LaneRight
)

func (t LaneType) String() string {
	switch t {
	case LaneLeft:
		return "left"
	case LaneMiddle:
		return "middle"
	case LaneRight:
		return "right"
	default:
		return fmt.Sprintf("LaneType(%d)", int(t))
	}
}

// Lane is a detected lane line.
type Lane struct {
	Type   LaneType
	Points geom.Polyline
}

// Obstacle is a static obstacle footprint.
type Obstacle struct {
	Position r2.Vec
	Box      geom.BoundingBox
}

// NewObstacle builds an obstacle from the points observed on it; the
// position is the centre of their bounding box.
func NewObstacle(points []r2.Vec) Obstacle {
	box := geom.NewBoundingBox(points)
	return Obstacle{Position: box.Center(), Box: box}
}

// Match reports whether a and b describe the same object within threshold
// metres. Entities of different kinds never match.
func Match(a, b Entity, threshold float64) bool {
	if a == nil || b == nil || a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Obstacle:
		bv := b.(Obstacle)
		return geom.Near(av.Position, bv.Position, threshold)
	case Lane:
		bv := b.(Lane)
		return av.Type == bv.Type && polylinesNear(av.Points, bv.Points, threshold)
	case Trajectory:
		bv := b.(Trajectory)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !geom.Near(av[i].Position, bv[i].Position, threshold) {
				return false
			}
		}
		return true
	case RoadStates:
		bv := b.(RoadStates)
		return av.MostProbableState().Type == bv.MostProbableState().Type
	}
	return false
}

func polylinesNear(a, b geom.Polyline, threshold float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !geom.Near(a[i], b[i], threshold) {
			return false
		}
	}
	return true
}

// Environment is the set of entities known for one planning cycle.
type Environment struct {
	Entities []Entity
}

// Add appends entities to the environment.
func (e *Environment) Add(entities ...Entity) {
	e.Entities = append(e.Entities, entities...)
}

// Obstacles returns every Obstacle in the environment.
func (e *Environment) Obstacles() []Obstacle {
	var out []Obstacle
	for _, ent := range e.Entities {
		if o, ok := ent.(Obstacle); ok {
			out = append(out, o)
		}
	}
	return out
}

// Lane returns the first lane of type t.
func (e *Environment) Lane(t LaneType) (Lane, bool) {
	for _, ent := range e.Entities {
		if l, ok := ent.(Lane); ok && l.Type == t {
			return l, true
		}
	}
	return Lane{}, false
}

// RoadStates returns the first road-state classification, or an empty set.
func (e *Environment) RoadStates() RoadStates {
	for _, ent := range e.Entities {
		if rs, ok := ent.(RoadStates); ok {
			return rs
		}
	}
	return RoadStates{}
}
