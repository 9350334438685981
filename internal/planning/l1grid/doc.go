// Package l1grid owns Layer 1 (Grid) of the planning data model.
//
// Responsibilities: tessellating the road surface around a centerline into
// a lattice of quadrilateral cells and exposing per-cell cost slots.
// Key types: RoadMatrix, Cell.
//
// Dependency rule: L1 depends only on geometry and config, never on L2+.
// No SQL, HTTP or rendering code is allowed in this package.
package l1grid
