// Package l5trajectory owns Layer 5 (Trajectory) of the planning data model.
//
// Responsibilities: turning the chosen lane-piece sequence back into
// continuous, annotated trajectory points (position, heading, target
// velocity, signed lateral offset) and appending them to a caller-owned
// environment.Trajectory.
// Key types: VelocityFunc, VelocityConfig.
//
// Dependency rule: L5 may depend on L1-L4, but never on the pipeline or
// on persistence/rendering packages.
package l5trajectory
