package geom

import (
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r2"
)

// PointInTriangle reports whether p lies inside or on the edge of the
// triangle (a, b, c), using the sign of the cross product against each edge.
// Works for either winding.
func PointInTriangle(p, a, b, c r2.Vec) bool {
	d1 := r2.Cross(r2.Sub(p, b), r2.Sub(a, b))
	d2 := r2.Cross(r2.Sub(p, c), r2.Sub(b, c))
	d3 := r2.Cross(r2.Sub(p, a), r2.Sub(c, a))

	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

// QuadArea returns the unsigned area of the quadrilateral with corners in
// order (shoelace formula).
func QuadArea(q [4]r2.Vec) float64 {
	var s float64
	for i := range q {
		j := (i + 1) % len(q)
		s += r2.Cross(q[i], q[j])
	}
	return math.Abs(s) / 2
}

// BoundingBox is an axis-aligned box given by its four corners, clockwise
// starting at the minimum-x, minimum-y corner.
type BoundingBox struct {
	Corners [4]r2.Vec
}

// NewBoundingBox computes the bounding box of a point cloud. An empty cloud
// yields a zero box.
func NewBoundingBox(points []r2.Vec) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return BoundingBox{Corners: [4]r2.Vec{
		{X: minX, Y: minY},
		{X: minX, Y: maxY},
		{X: maxX, Y: maxY},
		{X: maxX, Y: minY},
	}}
}

// Center returns the centre of the box.
func (b BoundingBox) Center() r2.Vec {
	return r2.Scale(0.5, r2.Add(b.Corners[0], b.Corners[2]))
}

// Polygon converts the box into a closed orb polygon grown by margin on
// every side.
func (b BoundingBox) Polygon(margin float64) orb.Polygon {
	bound := orb.Bound{
		Min: orb.Point{b.Corners[0].X, b.Corners[0].Y},
		Max: orb.Point{b.Corners[2].X, b.Corners[2].Y},
	}.Pad(margin)
	return bound.ToPolygon()
}
