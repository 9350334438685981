package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/banshee-data/roadmatrix/internal/units"
)

// DefaultConfigPath is the path to the canonical planner defaults file.
const DefaultConfigPath = "config/planner.defaults.json"

// MaxObstacleBadness bounds obstacle_badness, keeping marked pieces far
// below the lane-piece value ceiling.
const MaxObstacleBadness = 1e6

// Aggregation policies for lane-piece cost.
const (
	AggregateSum  = "sum"
	AggregateMax  = "max"
	AggregateMean = "mean"
)

// PlannerConfig is the root configuration for one planner instance.
// Every field is optional; the Get* accessors supply defaults for fields
// that are absent from the JSON document, so partial configs are safe.
type PlannerConfig struct {
	// Grid params
	LaneWidth      *float64 `json:"lane_width,omitempty"`       // metres across one full lane
	CellsPerLane   *int     `json:"cells_per_lane,omitempty"`   // lateral cells per half-lane
	MaxLengthCells *int     `json:"max_length_cells,omitempty"` // longitudinal bound per cycle, 0 = unbounded

	// Lane-piece params
	VehicleWidthCells *int    `json:"vehicle_width_cells,omitempty"`
	Aggregation       *string `json:"aggregation,omitempty"` // "sum", "max" or "mean"

	// Search params
	TransitionPenalty *float64 `json:"transition_penalty,omitempty"` // cost per cell of lateral shift

	// Cost params
	ObstacleBadness     *float64 `json:"obstacle_badness,omitempty"`
	ObstacleMargin      *float64 `json:"obstacle_margin,omitempty"` // metres grown around each footprint
	LaneDeviationWeight *float64 `json:"lane_deviation_weight,omitempty"`

	// Velocity params, expressed in VelocityUnit
	VelocityUnit          *string  `json:"velocity_unit,omitempty"`
	CruiseVelocity        *float64 `json:"cruise_velocity,omitempty"`
	StraightCurveVelocity *float64 `json:"straight_curve_velocity,omitempty"`
	CurveVelocity         *float64 `json:"curve_velocity,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyPlannerConfig returns a PlannerConfig with all fields set to nil.
func EmptyPlannerConfig() *PlannerConfig {
	return &PlannerConfig{}
}

// DefaultPlannerConfig returns a PlannerConfig with every field populated
// from the built-in defaults.
func DefaultPlannerConfig() *PlannerConfig {
	c := EmptyPlannerConfig()
	return &PlannerConfig{
		LaneWidth:             ptrFloat64(c.GetLaneWidth()),
		CellsPerLane:          ptrInt(c.GetCellsPerLane()),
		MaxLengthCells:        ptrInt(c.GetMaxLengthCells()),
		VehicleWidthCells:     ptrInt(c.GetVehicleWidthCells()),
		Aggregation:           ptrString(c.GetAggregation()),
		TransitionPenalty:     ptrFloat64(c.GetTransitionPenalty()),
		ObstacleBadness:       ptrFloat64(c.GetObstacleBadness()),
		ObstacleMargin:        ptrFloat64(c.GetObstacleMargin()),
		LaneDeviationWeight:   ptrFloat64(c.GetLaneDeviationWeight()),
		VelocityUnit:          ptrString(c.GetVelocityUnit()),
		CruiseVelocity:        ptrFloat64(c.GetCruiseVelocity()),
		StraightCurveVelocity: ptrFloat64(c.GetStraightCurveVelocity()),
		CurveVelocity:         ptrFloat64(c.GetCurveVelocity()),
	}
}

// LoadPlannerConfig loads a PlannerConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadPlannerConfig(path string) (*PlannerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPlannerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *PlannerConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadPlannerConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// JSON returns the config serialised as it would appear on disk.
func (c *PlannerConfig) JSON() string {
	data, err := json.Marshal(c)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Validate checks that the configuration values are valid.
func (c *PlannerConfig) Validate() error {
	if c.LaneWidth != nil && *c.LaneWidth <= 0 {
		return fmt.Errorf("lane_width must be positive, got %f", *c.LaneWidth)
	}
	if c.CellsPerLane != nil && *c.CellsPerLane < 1 {
		return fmt.Errorf("cells_per_lane must be at least 1, got %d", *c.CellsPerLane)
	}
	if c.MaxLengthCells != nil && *c.MaxLengthCells < 0 {
		return fmt.Errorf("max_length_cells must be non-negative, got %d", *c.MaxLengthCells)
	}
	if c.VehicleWidthCells != nil && *c.VehicleWidthCells < 1 {
		return fmt.Errorf("vehicle_width_cells must be at least 1, got %d", *c.VehicleWidthCells)
	}
	if c.Aggregation != nil {
		switch *c.Aggregation {
		case AggregateSum, AggregateMax, AggregateMean:
		default:
			return fmt.Errorf("aggregation must be one of sum, max, mean; got %q", *c.Aggregation)
		}
	}
	if c.TransitionPenalty != nil && *c.TransitionPenalty < 0 {
		return fmt.Errorf("transition_penalty must be non-negative, got %f", *c.TransitionPenalty)
	}
	if c.ObstacleBadness != nil {
		if b := *c.ObstacleBadness; math.IsNaN(b) || b < 0 || b > MaxObstacleBadness {
			return fmt.Errorf("obstacle_badness must be in [0, %g], got %f", float64(MaxObstacleBadness), b)
		}
	}
	if c.ObstacleMargin != nil && *c.ObstacleMargin < 0 {
		return fmt.Errorf("obstacle_margin must be non-negative, got %f", *c.ObstacleMargin)
	}
	if c.LaneDeviationWeight != nil && *c.LaneDeviationWeight < 0 {
		return fmt.Errorf("lane_deviation_weight must be non-negative, got %f", *c.LaneDeviationWeight)
	}
	if c.VelocityUnit != nil && !units.IsValid(*c.VelocityUnit) {
		return fmt.Errorf("velocity_unit must be one of %s, got %q", units.GetValidUnitsString(), *c.VelocityUnit)
	}
	for name, v := range map[string]*float64{
		"cruise_velocity":         c.CruiseVelocity,
		"straight_curve_velocity": c.StraightCurveVelocity,
		"curve_velocity":          c.CurveVelocity,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s must be non-negative, got %f", name, *v)
		}
	}
	return nil
}

// GetLaneWidth returns the lane_width value or the default.
func (c *PlannerConfig) GetLaneWidth() float64 {
	if c.LaneWidth == nil {
		return 0.8
	}
	return *c.LaneWidth
}

// GetCellsPerLane returns the cells_per_lane value or the default.
func (c *PlannerConfig) GetCellsPerLane() int {
	if c.CellsPerLane == nil {
		return 4
	}
	return *c.CellsPerLane
}

// GetMaxLengthCells returns the max_length_cells value or the default (unbounded).
func (c *PlannerConfig) GetMaxLengthCells() int {
	if c.MaxLengthCells == nil {
		return 0
	}
	return *c.MaxLengthCells
}

// GetVehicleWidthCells returns the vehicle_width_cells value or the default.
func (c *PlannerConfig) GetVehicleWidthCells() int {
	if c.VehicleWidthCells == nil {
		return 4
	}
	return *c.VehicleWidthCells
}

// GetAggregation returns the aggregation policy name or the default.
func (c *PlannerConfig) GetAggregation() string {
	if c.Aggregation == nil || *c.Aggregation == "" {
		return AggregateSum
	}
	return *c.Aggregation
}

// GetTransitionPenalty returns the transition_penalty value or the default.
func (c *PlannerConfig) GetTransitionPenalty() float64 {
	if c.TransitionPenalty == nil {
		return 1.0
	}
	return *c.TransitionPenalty
}

// GetObstacleBadness returns the obstacle_badness value or the default.
func (c *PlannerConfig) GetObstacleBadness() float64 {
	if c.ObstacleBadness == nil {
		return 100
	}
	return *c.ObstacleBadness
}

// GetObstacleMargin returns the obstacle_margin value or the default.
func (c *PlannerConfig) GetObstacleMargin() float64 {
	if c.ObstacleMargin == nil {
		return 0.05
	}
	return *c.ObstacleMargin
}

// GetLaneDeviationWeight returns the lane_deviation_weight value or the default.
func (c *PlannerConfig) GetLaneDeviationWeight() float64 {
	if c.LaneDeviationWeight == nil {
		return 10
	}
	return *c.LaneDeviationWeight
}

// GetVelocityUnit returns the velocity_unit value or the default.
func (c *PlannerConfig) GetVelocityUnit() string {
	if c.VelocityUnit == nil || *c.VelocityUnit == "" {
		return units.MPS
	}
	return *c.VelocityUnit
}

// GetCruiseVelocity returns the cruise_velocity value (in VelocityUnit) or the default.
func (c *PlannerConfig) GetCruiseVelocity() float64 {
	if c.CruiseVelocity == nil {
		return 2.0
	}
	return *c.CruiseVelocity
}

// GetStraightCurveVelocity returns the straight_curve_velocity value or the default.
func (c *PlannerConfig) GetStraightCurveVelocity() float64 {
	if c.StraightCurveVelocity == nil {
		return 1.5
	}
	return *c.StraightCurveVelocity
}

// GetCurveVelocity returns the curve_velocity value or the default.
func (c *PlannerConfig) GetCurveVelocity() float64 {
	if c.CurveVelocity == nil {
		return 1.0
	}
	return *c.CurveVelocity
}

// VelocitiesMPS returns cruise, straight-curve and curve velocities
// converted to metres per second.
func (c *PlannerConfig) VelocitiesMPS() (cruise, straightCurve, curve float64, err error) {
	unit := c.GetVelocityUnit()
	if cruise, err = units.ToMPS(c.GetCruiseVelocity(), unit); err != nil {
		return 0, 0, 0, err
	}
	if straightCurve, err = units.ToMPS(c.GetStraightCurveVelocity(), unit); err != nil {
		return 0, 0, 0, err
	}
	if curve, err = units.ToMPS(c.GetCurveVelocity(), unit); err != nil {
		return 0, 0, 0, err
	}
	return cruise, straightCurve, curve, nil
}
