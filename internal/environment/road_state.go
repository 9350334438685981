// Package environment defines the plain data types exchanged between the
// planner and its collaborators: road-state classifications, lanes,
// obstacles and trajectories, plus the Entity sum type over them.
package environment

import "fmt"

// RoadStateType classifies a longitudinal stretch of road.
type RoadStateType int

const (
	RoadStateUnknown RoadStateType = iota
	RoadStateStraight
	RoadStateStraightCurve
	RoadStateCurve
)

func (t RoadStateType) String() string {
	switch t {
	case RoadStateUnknown:
		return "unknown"
	case RoadStateStraight:
		return "straight"
	case RoadStateStraightCurve:
		return "straight_curve"
	case RoadStateCurve:
		return "curve"
	default:
		return fmt.Sprintf("RoadStateType(%d)", int(t))
	}
}

// RoadState is one classified stretch of road produced by an external
// curvature classifier.
type RoadState struct {
	Type          RoadStateType
	StartDistance float64 // tangential distance to the start of the state
	EndDistance   float64 // tangential distance to the end of the state
	Probability   float64
	Curvature     float64 // signed
}

// UnknownRoadState returns the zero-probability unknown state.
func UnknownRoadState() RoadState {
	return RoadState{Type: RoadStateUnknown, Curvature: 1}
}

// Covers reports whether tangential distance d falls inside the state.
func (s RoadState) Covers(d float64) bool {
	return d >= s.StartDistance && d <= s.EndDistance
}

// RoadStates is the full classification for the road ahead.
type RoadStates struct {
	States []RoadState
}

// MostProbableState returns the state with the highest probability, or the
// unknown state with probability 0 when the set is empty or all-zero.
// On equal probabilities the earliest state wins.
func (rs RoadStates) MostProbableState() RoadState {
	r := UnknownRoadState()
	for _, s := range rs.States {
		if s.Probability > r.Probability {
			r = s
		}
	}
	return r
}

// StateAt returns the most probable state covering tangential distance d.
// ok is false if no state with positive probability covers d.
func (rs RoadStates) StateAt(d float64) (state RoadState, ok bool) {
	state = UnknownRoadState()
	for _, s := range rs.States {
		if s.Covers(d) && s.Probability > state.Probability {
			state = s
			ok = true
		}
	}
	return state, ok
}
