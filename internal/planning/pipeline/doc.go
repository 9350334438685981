// Package pipeline provides orchestration for one planning cycle.
//
// It wires the layer packages (l1grid, l2cost, l3pieces, l4search,
// l5trajectory) into a single Grid -> Cost -> Pieces -> Search ->
// Reconstruct flow and hands successful results to optional sinks
// (persistence, debug publishing). The pipeline does not own domain
// logic; it delegates to layer packages and adapters.
//
// This package is the composition root: it imports every layer package,
// but none of those packages import pipeline/.
package pipeline
