package geom

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func straightLine(n int, step float64) Polyline {
	pl := make(Polyline, n)
	for i := range pl {
		pl[i] = r2.Vec{X: float64(i) * step}
	}
	return pl
}

func TestWithSpacing(t *testing.T) {
	t.Run("exact multiple keeps every step", func(t *testing.T) {
		pl := Polyline{{X: 0}, {X: 9}}
		got, err := pl.WithSpacing(1)
		require.NoError(t, err)
		require.Len(t, got, 10)
		for i, p := range got {
			assert.InDelta(t, float64(i), p.X, 1e-9)
			assert.InDelta(t, 0, p.Y, 1e-9)
		}
	})

	t.Run("trailing remainder is dropped", func(t *testing.T) {
		pl := Polyline{{X: 0}, {X: 2.5}}
		got, err := pl.WithSpacing(1)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("spacing follows corners", func(t *testing.T) {
		pl := Polyline{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 2}}
		got, err := pl.WithSpacing(0.5)
		require.NoError(t, err)
		require.Len(t, got, 7)
		assert.InDelta(t, 1, got[2].X, 1e-9)
		assert.InDelta(t, 0.5, got[3].Y, 1e-9)
		assert.InDelta(t, 2, got[6].Y, 1e-9)
	})

	t.Run("shorter than spacing", func(t *testing.T) {
		pl := Polyline{{X: 0}, {X: 0.3}}
		got, err := pl.WithSpacing(1)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("invalid input", func(t *testing.T) {
		_, err := Polyline{}.WithSpacing(1)
		assert.ErrorIs(t, err, ErrDegenerate)
		_, err = straightLine(3, 1).WithSpacing(0)
		assert.Error(t, err)
	})
}

func TestMoveOrthogonal(t *testing.T) {
	pl := straightLine(4, 1)

	right, err := pl.MoveOrthogonal(0.5)
	require.NoError(t, err)
	for i, p := range right {
		assert.InDelta(t, float64(i), p.X, 1e-9)
		// Travelling along +X, right is -Y.
		assert.InDelta(t, -0.5, p.Y, 1e-9)
	}

	left, err := pl.MoveOrthogonal(-1)
	require.NoError(t, err)
	assert.InDelta(t, 1, left[2].Y, 1e-9)

	_, err = Polyline{{X: 1}}.MoveOrthogonal(1)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestTangent(t *testing.T) {
	pl := Polyline{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}
	first, err := pl.Tangent(0)
	require.NoError(t, err)
	assert.Equal(t, r2.Vec{X: 1, Y: 0}, first)

	mid, err := pl.Tangent(1)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2/2, mid.X, 1e-9)
	assert.InDelta(t, math.Sqrt2/2, mid.Y, 1e-9)

	_, err = pl.Tangent(3)
	assert.Error(t, err)
}

func TestLengthAndLineString(t *testing.T) {
	pl := Polyline{{X: 0, Y: 0}, {X: 3, Y: 4}, {X: 3, Y: 6}}
	assert.InDelta(t, 7, pl.Length(), 1e-9)
	assert.Equal(t, pl, FromLineString(pl.LineString()))
	assert.Zero(t, Polyline{{X: 1}}.Length())
}

func TestPointInTriangle(t *testing.T) {
	a, b, c := r2.Vec{X: 0, Y: 0}, r2.Vec{X: 2, Y: 0}, r2.Vec{X: 0, Y: 2}
	tests := []struct {
		name string
		p    r2.Vec
		want bool
	}{
		{"inside", r2.Vec{X: 0.5, Y: 0.5}, true},
		{"on edge", r2.Vec{X: 1, Y: 0}, true},
		{"vertex", a, true},
		{"outside hypotenuse", r2.Vec{X: 1.5, Y: 1.5}, false},
		{"outside negative", r2.Vec{X: -0.1, Y: 0.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PointInTriangle(tt.p, a, b, c))
			// Winding must not matter.
			assert.Equal(t, tt.want, PointInTriangle(tt.p, a, c, b))
		})
	}
}

func TestQuadArea(t *testing.T) {
	q := [4]r2.Vec{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 1}, {X: 0, Y: 1}}
	assert.InDelta(t, 2, QuadArea(q), 1e-9)
}

func TestBoundingBox(t *testing.T) {
	bb := NewBoundingBox([]r2.Vec{{X: 1, Y: 2}, {X: 3, Y: -1}, {X: 2, Y: 4}})
	assert.Equal(t, r2.Vec{X: 1, Y: -1}, bb.Corners[0])
	assert.Equal(t, r2.Vec{X: 1, Y: 4}, bb.Corners[1])
	assert.Equal(t, r2.Vec{X: 3, Y: 4}, bb.Corners[2])
	assert.Equal(t, r2.Vec{X: 3, Y: -1}, bb.Corners[3])
	assert.Equal(t, r2.Vec{X: 2, Y: 1.5}, bb.Center())

	poly := bb.Polygon(0.5)
	assert.True(t, planar.PolygonContains(poly, orb.Point{0.6, 0}))
	assert.False(t, planar.PolygonContains(poly, orb.Point{0.4, 0}))

	assert.Equal(t, BoundingBox{}, NewBoundingBox(nil))
}
