// Package l3pieces owns Layer 3 (Lane pieces) of the planning data model.
//
// Responsibilities: grouping laterally contiguous cells into vehicle-wide
// lane pieces for every longitudinal index and scoring each piece with a
// pluggable value function.
// Key types: LanePiece, Matrix, ValueFunc.
//
// Dependency rule: L3 may depend on L1-L2, but never on L4+.
package l3pieces
