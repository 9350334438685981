// Package l4search owns Layer 4 (Search) of the planning data model.
//
// Responsibilities: choosing one lane piece per longitudinal step so that
// the summed piece cost plus a lateral-transition penalty is minimal.
// The search is a forward dynamic program over the layered graph of
// (step, piece) nodes, O(length * pieces^2) time and O(length * pieces)
// space, so its run time is bounded by the grid dimensions.
// Key types: Result, SearchConfig.
//
// Dependency rule: L4 may depend on L1-L3, but never on L5+.
package l4search
