// Package l2cost owns Layer 2 (Cost) of the planning data model.
//
// Responsibilities: filling the per-cell badness slots of a RoadMatrix
// before a search runs. The grid itself never computes cost; writers here
// translate obstacle footprints and lane geometry into badness.
// Key types: Writer, ObstacleMarker, LaneDeviation.
//
// Dependency rule: L2 may depend on L1, but never on L3+.
package l2cost
