package pipeline

import (
	"fmt"

	"github.com/banshee-data/roadmatrix/internal/config"
	"github.com/banshee-data/roadmatrix/internal/planning/l1grid"
	"github.com/banshee-data/roadmatrix/internal/planning/l2cost"
	"github.com/banshee-data/roadmatrix/internal/planning/l3pieces"
	"github.com/banshee-data/roadmatrix/internal/planning/l4search"
	"github.com/banshee-data/roadmatrix/internal/planning/l5trajectory"
)

// Config gathers the per-layer configuration for a Planner.
type Config struct {
	Grid         l1grid.GridConfig
	Cost         l2cost.CostConfig
	VehicleWidth int // cells
	Aggregation  string
	Value        l3pieces.ValueFunc `json:"-"`
	Search       l4search.SearchConfig
	Velocity     l5trajectory.VelocityConfig
}

// ConfigFromTuning validates cfg and derives every layer's configuration
// from it.
func ConfigFromTuning(cfg *config.PlannerConfig) (Config, error) {
	if cfg == nil {
		cfg = config.EmptyPlannerConfig()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	value, err := l3pieces.ValueFuncByName(cfg.GetAggregation())
	if err != nil {
		return Config{}, err
	}
	velocity, err := l5trajectory.VelocityConfigFromTuning(cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return Config{
		Grid:         l1grid.GridConfigFromTuning(cfg),
		Cost:         l2cost.CostConfigFromTuning(cfg),
		VehicleWidth: cfg.GetVehicleWidthCells(),
		Aggregation:  cfg.GetAggregation(),
		Value:        value,
		Search:       l4search.SearchConfigFromTuning(cfg),
		Velocity:     velocity,
	}, nil
}

// DefaultConfig returns the configuration built from the built-in
// defaults.
func DefaultConfig() Config {
	c, err := ConfigFromTuning(config.EmptyPlannerConfig())
	if err != nil {
		panic(fmt.Sprintf("pipeline: invalid built-in defaults: %v", err))
	}
	return c
}
