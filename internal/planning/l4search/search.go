package l4search

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/roadmatrix/internal/config"
	"github.com/banshee-data/roadmatrix/internal/planning/l3pieces"
)

// costEpsilon is the tolerance under which two cumulative costs tie.
const costEpsilon = 1e-9

// ErrInfeasiblePath is returned when some step has no candidate piece.
var ErrInfeasiblePath = errors.New("infeasible path")

// SearchConfig holds the search tunables.
type SearchConfig struct {
	// TransitionPenalty is charged per cell of lateral start-offset change
	// between consecutive steps.
	TransitionPenalty float64
}

// DefaultSearchConfig returns the built-in search tunables.
func DefaultSearchConfig() SearchConfig {
	return SearchConfigFromTuning(config.EmptyPlannerConfig())
}

// SearchConfigFromTuning builds a SearchConfig from a loaded PlannerConfig.
func SearchConfigFromTuning(cfg *config.PlannerConfig) SearchConfig {
	return SearchConfig{TransitionPenalty: cfg.GetTransitionPenalty()}
}

// Result is the outcome of a search.
type Result struct {
	Pieces         l3pieces.Trajectory
	TotalCost      float64 // PieceCost + TransitionCost
	PieceCost      int
	TransitionCost float64
}

// node is the DP state for one (step, option) pair.
type node struct {
	cost float64
	prev int // option index at the previous step, -1 at step 0
}

// Search returns the minimum-cost trajectory through pm.
//
// Each step's nodes take the cheapest predecessor from the step before.
// Ties prefer the predecessor with the smaller lateral-offset change, then
// the one closer to the centerline, then the lower option index. The final
// node is the cheapest terminal node, ties broken by distance from the
// centerline, then index. The result is therefore deterministic.
func Search(pm l3pieces.Matrix, cfg SearchConfig) (Result, error) {
	if err := pm.Validate(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInfeasiblePath, err)
	}

	nodes := make([][]node, len(pm))
	nodes[0] = make([]node, len(pm[0]))
	for j, p := range pm[0] {
		nodes[0][j] = node{cost: float64(p.Value), prev: -1}
	}

	for x := 1; x < len(pm); x++ {
		prevStep, step := pm[x-1], pm[x]
		nodes[x] = make([]node, len(step))
		for j, p := range step {
			best := -1
			bestCost := math.Inf(1)
			for i, q := range prevStep {
				c := nodes[x-1][i].cost + cfg.TransitionPenalty*float64(absInt(p.Offset-q.Offset))
				if best < 0 || c < bestCost-costEpsilon ||
					(c <= bestCost+costEpsilon && preferPredecessor(p, q, prevStep[best])) {
					best, bestCost = i, c
				}
			}
			nodes[x][j] = node{cost: bestCost + float64(p.Value), prev: best}
		}
	}

	last := len(pm) - 1
	end := 0
	for j := 1; j < len(pm[last]); j++ {
		c, bc := nodes[last][j].cost, nodes[last][end].cost
		if c < bc-costEpsilon ||
			(c <= bc+costEpsilon && absInt(pm[last][j].CenterHalfCells) < absInt(pm[last][end].CenterHalfCells)) {
			end = j
		}
	}

	pieces := make(l3pieces.Trajectory, len(pm))
	for x, j := last, end; x >= 0; x-- {
		pieces[x] = pm[x][j]
		j = nodes[x][j].prev
	}

	pieceCost, transitionCost := PathCost(pieces, cfg.TransitionPenalty)
	return Result{
		Pieces:         pieces,
		TotalCost:      float64(pieceCost) + transitionCost,
		PieceCost:      pieceCost,
		TransitionCost: transitionCost,
	}, nil
}

// preferPredecessor reports whether candidate should replace current as
// the predecessor of p when both give the same cumulative cost. Options
// are scanned in index order, so an exact tie keeps the lower index.
func preferPredecessor(p, candidate, current l3pieces.LanePiece) bool {
	dc, dr := absInt(p.Offset-candidate.Offset), absInt(p.Offset-current.Offset)
	if dc != dr {
		return dc < dr
	}
	return absInt(candidate.CenterHalfCells) < absInt(current.CenterHalfCells)
}

// OptimalTrajectory runs Search with the default tunables and returns only
// the chosen pieces.
func OptimalTrajectory(pm l3pieces.Matrix) (l3pieces.Trajectory, error) {
	res, err := Search(pm, DefaultSearchConfig())
	if err != nil {
		return nil, err
	}
	return res.Pieces, nil
}

// PathCost evaluates any piece sequence under the search cost model.
func PathCost(pieces l3pieces.Trajectory, transitionPenalty float64) (pieceCost int, transitionCost float64) {
	for i := 1; i < len(pieces); i++ {
		transitionCost += transitionPenalty * float64(absInt(pieces[i].Offset-pieces[i-1].Offset))
	}
	return pieces.Value(), transitionCost
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
