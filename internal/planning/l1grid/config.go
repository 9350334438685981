package l1grid

import (
	"fmt"

	"github.com/banshee-data/roadmatrix/internal/config"
)

// GridConfig controls how a RoadMatrix is tessellated.
type GridConfig struct {
	LaneWidth      float64 // metres across one full lane
	CellsPerLane   int     // lateral cells per half-lane (>= 1)
	MaxLengthCells int     // cap on longitudinal cells; 0 means no cap
}

// GridConfigFromTuning builds a GridConfig from a loaded PlannerConfig.
func GridConfigFromTuning(cfg *config.PlannerConfig) GridConfig {
	return GridConfig{
		LaneWidth:      cfg.GetLaneWidth(),
		CellsPerLane:   cfg.GetCellsPerLane(),
		MaxLengthCells: cfg.GetMaxLengthCells(),
	}
}

// CellWidth is the edge length of one cell, laterally and longitudinally.
func (c GridConfig) CellWidth() float64 {
	return c.LaneWidth / float64(c.CellsPerLane)
}

// Validate reports configuration errors wrapped in ErrConfiguration.
func (c GridConfig) Validate() error {
	if c.CellsPerLane < 1 {
		return fmt.Errorf("%w: cells per lane must be at least 1, got %d", ErrConfiguration, c.CellsPerLane)
	}
	if c.LaneWidth <= 0 {
		return fmt.Errorf("%w: lane width must be positive, got %f", ErrConfiguration, c.LaneWidth)
	}
	if c.MaxLengthCells < 0 {
		return fmt.Errorf("%w: max length must be non-negative, got %d", ErrConfiguration, c.MaxLengthCells)
	}
	return nil
}
