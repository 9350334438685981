package l1grid

import (
	"github.com/banshee-data/roadmatrix/internal/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

// Corner positions within Cell.CornerIndices.
const (
	BottomLeft = iota
	BottomRight
	TopRight
	TopLeft
)

// Cell is one quadrilateral of the road matrix. Its corners are indices
// into the matrix lattice, so adjacent cells share corner points rather
// than copying them. Badness is the per-cell cost slot written by cost
// collaborators; it defaults to 0.
type Cell struct {
	X, Y    int // longitudinal, lateral index
	corners [4]int
	lattice []r2.Vec
	badness float64
}

// CornerIndices returns the lattice indices of the corners in
// (bottom-left, bottom-right, top-right, top-left) order.
func (c *Cell) CornerIndices() [4]int {
	return c.corners
}

// Corners returns the corner points in (bottom-left, bottom-right,
// top-right, top-left) order.
func (c *Cell) Corners() [4]r2.Vec {
	var q [4]r2.Vec
	for i, idx := range c.corners {
		q[i] = c.lattice[idx]
	}
	return q
}

// Contains reports whether p lies inside the cell, testing the two
// triangles either side of the bottom-left/top-right diagonal.
func (c *Cell) Contains(p r2.Vec) bool {
	q := c.Corners()
	return geom.PointInTriangle(p, q[BottomLeft], q[BottomRight], q[TopRight]) ||
		geom.PointInTriangle(p, q[BottomLeft], q[TopRight], q[TopLeft])
}

// Centroid returns the mean of the four corners.
func (c *Cell) Centroid() r2.Vec {
	var sum r2.Vec
	for _, p := range c.Corners() {
		sum = r2.Add(sum, p)
	}
	return r2.Scale(0.25, sum)
}

// Area returns the cell area.
func (c *Cell) Area() float64 {
	return geom.QuadArea(c.Corners())
}

// Badness returns the last value set with SetBadness, or 0.
func (c *Cell) Badness() float64 {
	return c.badness
}

// SetBadness sets the cell cost. Higher is worse.
func (c *Cell) SetBadness(b float64) {
	c.badness = b
}
