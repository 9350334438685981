package pipeline

import (
	"fmt"

	"github.com/banshee-data/roadmatrix/internal/planning/l1grid"
	"github.com/banshee-data/roadmatrix/internal/planning/l3pieces"
	"github.com/banshee-data/roadmatrix/internal/planning/l4search"
	"github.com/banshee-data/roadmatrix/internal/planning/l5trajectory"
)

// Error kinds a planning cycle can report. Match them with errors.Is.
var (
	ErrConfiguration  = l1grid.ErrConfiguration
	ErrEmptyGrid      = l1grid.ErrEmptyGrid
	ErrInfeasibleGrid = l3pieces.ErrInfeasibleGrid
	ErrInfeasiblePath = l4search.ErrInfeasiblePath
	ErrEmptyInput     = l5trajectory.ErrEmptyInput
)

// Stage names one step of the planning cycle.
type Stage string

const (
	StageGrid        Stage = "grid"
	StageCost        Stage = "cost"
	StagePieces      Stage = "pieces"
	StageSearch      Stage = "search"
	StageReconstruct Stage = "reconstruct"
)

// PlanError records the stage at which a cycle failed.
type PlanError struct {
	Stage Stage
	Err   error
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("plan %s: %v", e.Stage, e.Err)
}

func (e *PlanError) Unwrap() error { return e.Err }

func stageErr(s Stage, err error) error {
	return &PlanError{Stage: s, Err: err}
}
