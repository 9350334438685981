package environment

import "gonum.org/v1/gonum/spatial/r2"

// TrajectoryPoint is one annotated sample of a planned path.
type TrajectoryPoint struct {
	Position             r2.Vec
	Direction            r2.Vec // unit forward vector
	Velocity             float64
	DistanceToMiddleLane float64 // signed; positive is right of centre
}

// NewTrajectoryPoint returns a point at the origin heading along +X.
func NewTrajectoryPoint() TrajectoryPoint {
	return TrajectoryPoint{Direction: r2.Vec{X: 1}}
}

// IsRight reports whether the point lies right of the road centre.
func (p TrajectoryPoint) IsRight() bool {
	return p.DistanceToMiddleLane > 0
}

// Trajectory is an ordered sequence of points. It is only ever extended;
// callers that want a fresh path start from an empty Trajectory.
type Trajectory []TrajectoryPoint

// Append adds points to the end of the trajectory.
func (t *Trajectory) Append(points ...TrajectoryPoint) {
	*t = append(*t, points...)
}

// Len returns the number of points.
func (t Trajectory) Len() int {
	return len(t)
}
