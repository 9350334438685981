package l5trajectory

import (
	"math"

	"github.com/banshee-data/roadmatrix/internal/config"
	"github.com/banshee-data/roadmatrix/internal/environment"
)

// VelocityFunc returns the target velocity in m/s for a point at
// tangentialDistance metres along the centerline.
type VelocityFunc func(p environment.TrajectoryPoint, tangentialDistance float64) float64

// ConstantVelocity returns a policy that always answers v.
func ConstantVelocity(v float64) VelocityFunc {
	return func(environment.TrajectoryPoint, float64) float64 { return v }
}

// VelocityConfig holds the per-road-state target velocities in m/s.
type VelocityConfig struct {
	Cruise        float64
	StraightCurve float64
	Curve         float64
}

// DefaultVelocityConfig returns the built-in velocities.
func DefaultVelocityConfig() VelocityConfig {
	vc, _ := VelocityConfigFromTuning(config.EmptyPlannerConfig())
	return vc
}

// VelocityConfigFromTuning converts the configured velocities to m/s.
func VelocityConfigFromTuning(cfg *config.PlannerConfig) (VelocityConfig, error) {
	cruise, straightCurve, curve, err := cfg.VelocitiesMPS()
	if err != nil {
		return VelocityConfig{}, err
	}
	return VelocityConfig{Cruise: cruise, StraightCurve: straightCurve, Curve: curve}, nil
}

// RoadStateVelocity slows the vehicle down according to the road state
// covering each point. Where no state covers the point the most probable
// state is used. Curve speed shrinks with 1/|curvature| and never exceeds
// the straight-into-curve speed; a curve without a curvature estimate
// gets the curve speed.
func RoadStateVelocity(states environment.RoadStates, vc VelocityConfig) VelocityFunc {
	fallback := states.MostProbableState()
	return func(_ environment.TrajectoryPoint, d float64) float64 {
		s, ok := states.StateAt(d)
		if !ok {
			s = fallback
		}
		return vc.forState(s)
	}
}

func (vc VelocityConfig) forState(s environment.RoadState) float64 {
	switch s.Type {
	case environment.RoadStateStraight:
		return vc.Cruise
	case environment.RoadStateCurve:
		k := math.Abs(s.Curvature)
		if k == 0 {
			return vc.Curve
		}
		return math.Min(vc.Curve/k, vc.StraightCurve)
	default:
		// straight-into-curve and unknown both get the cautious speed
		return vc.StraightCurve
	}
}
