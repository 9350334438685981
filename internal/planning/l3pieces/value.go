package l3pieces

import (
	"fmt"
	"math"

	"github.com/banshee-data/roadmatrix/internal/config"
	"github.com/banshee-data/roadmatrix/internal/planning/l1grid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MaxValue is the ceiling of a piece value. Aggregated badness at or above
// it, including +Inf and NaN, scores exactly MaxValue.
const MaxValue = math.MaxInt32

// ValueFunc aggregates the badness of a piece's cells into one integer
// cost. Higher is worse.
type ValueFunc func(cells []*l1grid.Cell) int

// ToValue rounds an aggregated badness to a piece value, saturating at
// +/-MaxValue.
func ToValue(f float64) int {
	switch {
	case math.IsNaN(f) || f >= MaxValue:
		return MaxValue
	case f <= -MaxValue:
		return -MaxValue
	}
	return int(math.Round(f))
}

// saturate converts a sum of piece values back to int without wrapping.
func saturate(f float64) int {
	switch {
	case math.IsNaN(f) || f >= math.MaxInt:
		return math.MaxInt
	case f <= math.MinInt:
		return math.MinInt
	}
	return int(f)
}

func badness(cells []*l1grid.Cell) []float64 {
	b := make([]float64, len(cells))
	for i, c := range cells {
		b[i] = c.Badness()
	}
	return b
}

// Sum scores a piece by its total exposure.
func Sum(cells []*l1grid.Cell) int {
	if len(cells) == 0 {
		return 0
	}
	return ToValue(floats.Sum(badness(cells)))
}

// Max scores a piece by its worst cell.
func Max(cells []*l1grid.Cell) int {
	if len(cells) == 0 {
		return 0
	}
	return ToValue(floats.Max(badness(cells)))
}

// Mean scores a piece by its average cell badness.
func Mean(cells []*l1grid.Cell) int {
	if len(cells) == 0 {
		return 0
	}
	return ToValue(stat.Mean(badness(cells), nil))
}

// ValueFuncByName resolves an aggregation policy name from configuration.
func ValueFuncByName(name string) (ValueFunc, error) {
	switch name {
	case config.AggregateSum, "":
		return Sum, nil
	case config.AggregateMax:
		return Max, nil
	case config.AggregateMean:
		return Mean, nil
	default:
		return nil, fmt.Errorf("%w: unknown aggregation %q", l1grid.ErrConfiguration, name)
	}
}
