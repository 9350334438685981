package l3pieces

import (
	"math"
	"testing"

	"github.com/banshee-data/roadmatrix/internal/geom"
	"github.com/banshee-data/roadmatrix/internal/planning/l1grid"
	"github.com/banshee-data/roadmatrix/internal/planning/l2cost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func newMatrix(t *testing.T, cellsPerLane int) *l1grid.RoadMatrix {
	t.Helper()
	line := make(geom.Polyline, 10)
	for i := range line {
		line[i] = r2.Vec{X: float64(i)}
	}
	m, err := l1grid.AroundLine(line, 2, cellsPerLane)
	require.NoError(t, err)
	return m
}

func TestBuild_Enumeration(t *testing.T) {
	m := newMatrix(t, 2) // 9 x 4

	pm, err := Build(m, 2, nil)
	require.NoError(t, err)
	require.Equal(t, 9, pm.Length())
	require.NoError(t, pm.Validate())

	for x, step := range pm {
		require.Len(t, step, 3, "step %d", x)
		for o, p := range step {
			assert.Equal(t, x, p.X)
			assert.Equal(t, o, p.Offset)
			require.Equal(t, 2, p.Width())
			assert.Same(t, m.Cell(x, o), p.Cells[0])
			assert.Same(t, m.Cell(x, o+1), p.Cells[1])
		}
	}
	assert.Equal(t, []int{-2, 0, 2}, []int{pm[0][0].CenterHalfCells, pm[0][1].CenterHalfCells, pm[0][2].CenterHalfCells})
}

func TestBuild_FullWidthVehicle(t *testing.T) {
	m := newMatrix(t, 2)
	pm, err := Build(m, 4, nil)
	require.NoError(t, err)
	for _, step := range pm {
		require.Len(t, step, 1)
		assert.Zero(t, step[0].CenterHalfCells)
	}
}

func TestBuild_OddWidthCentre(t *testing.T) {
	m := newMatrix(t, 2)
	pm, err := Build(m, 3, nil)
	require.NoError(t, err)
	require.Len(t, pm[0], 2)
	assert.Equal(t, -1, pm[0][0].CenterHalfCells)
	assert.Equal(t, 1, pm[0][1].CenterHalfCells)
}

func TestBuild_Infeasible(t *testing.T) {
	m := newMatrix(t, 2)

	pm, err := Build(m, 5, nil)
	assert.ErrorIs(t, err, ErrInfeasibleGrid)
	assert.Nil(t, pm)

	_, err = Build(m, 0, nil)
	assert.ErrorIs(t, err, l1grid.ErrConfiguration)

	_, err = Build(nil, 2, nil)
	assert.ErrorIs(t, err, l1grid.ErrEmptyGrid)
}

func TestMatrixValidate(t *testing.T) {
	assert.ErrorIs(t, Matrix{}.Validate(), ErrInfeasibleGrid)
	assert.ErrorIs(t, Matrix{{{X: 0}}, {}}.Validate(), ErrInfeasibleGrid)
	assert.NoError(t, Matrix{{{X: 0}}, {{X: 1}}}.Validate())
}

func TestValueFuncs(t *testing.T) {
	m := newMatrix(t, 2)
	l2cost.Apply(m,
		l2cost.Rect(0, 0, 0, 0, 1.2),
		l2cost.Rect(0, 0, 1, 1, 3.4),
		l2cost.Rect(0, 0, 2, 2, 10),
	)
	cells := []*l1grid.Cell{m.Cell(0, 0), m.Cell(0, 1), m.Cell(0, 2)}

	assert.Equal(t, 15, Sum(cells))
	assert.Equal(t, 10, Max(cells))
	assert.Equal(t, 5, Mean(cells))

	assert.Zero(t, Sum(nil))
	assert.Zero(t, Max(nil))
	assert.Zero(t, Mean(nil))
}

func TestToValue_Saturates(t *testing.T) {
	assert.Equal(t, 3, ToValue(2.6))
	assert.Equal(t, -2, ToValue(-2.4))
	assert.Equal(t, MaxValue, ToValue(1e19))
	assert.Equal(t, MaxValue, ToValue(math.Inf(1)))
	assert.Equal(t, MaxValue, ToValue(math.NaN()))
	assert.Equal(t, -MaxValue, ToValue(math.Inf(-1)))

	m := newMatrix(t, 2)
	l2cost.Apply(m, l2cost.Rect(0, 0, 0, 1, math.Inf(1)))
	cells := []*l1grid.Cell{m.Cell(0, 0), m.Cell(0, 1)}
	assert.Equal(t, MaxValue, Sum(cells))
	assert.Equal(t, MaxValue, Max(cells))
	assert.Equal(t, MaxValue, Mean(cells))
}

func TestTrajectoryValue_DoesNotWrap(t *testing.T) {
	tr := Trajectory{{Value: MaxValue}, {Value: MaxValue}, {Value: 1}}
	assert.Equal(t, 2*MaxValue+1, tr.Value())

	huge := Trajectory{{Value: math.MaxInt}, {Value: math.MaxInt}}
	assert.Equal(t, math.MaxInt, huge.Value())
	assert.Zero(t, Trajectory{}.Value())
}

func TestBuild_UsesValueFunc(t *testing.T) {
	m := newMatrix(t, 2)
	l2cost.Apply(m, l2cost.Rect(3, 3, 1, 2, 100))

	sum, err := Build(m, 2, Sum)
	require.NoError(t, err)
	worst, err := Build(m, 2, Max)
	require.NoError(t, err)

	assert.Equal(t, 200, sum[3][1].Value)
	assert.Equal(t, 100, worst[3][1].Value)
	assert.Equal(t, 100, sum[3][0].Value)
	assert.Equal(t, 0, sum[2][1].Value)
}

func TestValueFuncByName(t *testing.T) {
	for _, name := range []string{"", "sum", "max", "mean"} {
		f, err := ValueFuncByName(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}
	_, err := ValueFuncByName("median")
	assert.ErrorIs(t, err, l1grid.ErrConfiguration)
}
