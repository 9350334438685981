// Package geom holds the 2D primitives the planner layers build on:
// polylines, fixed-spacing resampling, orthogonal offsetting, triangle
// containment and bounding boxes. Vector arithmetic is gonum's r2.Vec;
// interchange with GIS-style geometry goes through orb.
package geom

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gonum.org/v1/gonum/spatial/r2"
)

// lengthEpsilon absorbs float error when deciding how many whole spacing
// steps fit along a polyline.
const lengthEpsilon = 1e-9

// ErrDegenerate is returned when a polyline has too few distinct points
// to define a direction.
var ErrDegenerate = errors.New("degenerate polyline")

// Polyline is an ordered, open sequence of 2D points.
type Polyline []r2.Vec

// FromLineString converts an orb line string into a Polyline.
func FromLineString(ls orb.LineString) Polyline {
	out := make(Polyline, len(ls))
	for i, p := range ls {
		out[i] = r2.Vec{X: p[0], Y: p[1]}
	}
	return out
}

// LineString converts the polyline into an orb line string.
func (pl Polyline) LineString() orb.LineString {
	ls := make(orb.LineString, len(pl))
	for i, p := range pl {
		ls[i] = orb.Point{p.X, p.Y}
	}
	return ls
}

// Length returns the arc length of the polyline.
func (pl Polyline) Length() float64 {
	if len(pl) < 2 {
		return 0
	}
	return planar.Length(pl.LineString())
}

// WithSpacing resamples the polyline so consecutive points are exactly
// spacing apart along the arc. The first point is kept; a trailing piece
// shorter than spacing is dropped, so the result has floor(L/spacing)+1
// points. A polyline shorter than spacing yields a single point.
func (pl Polyline) WithSpacing(spacing float64) (Polyline, error) {
	if spacing <= 0 {
		return nil, errors.New("spacing must be positive")
	}
	if len(pl) == 0 {
		return nil, ErrDegenerate
	}

	total := pl.Length()
	n := int(math.Floor(total/spacing + lengthEpsilon))
	out := make(Polyline, 0, n+1)
	out = append(out, pl[0])

	seg := 0
	segStart := 0.0 // arc length at pl[seg]
	for k := 1; k <= n; k++ {
		target := float64(k) * spacing
		for seg < len(pl)-2 {
			segLen := r2.Norm(r2.Sub(pl[seg+1], pl[seg]))
			if segStart+segLen >= target {
				break
			}
			segStart += segLen
			seg++
		}
		a, b := pl[seg], pl[seg+1]
		segLen := r2.Norm(r2.Sub(b, a))
		t := 1.0
		if segLen > 0 {
			t = math.Min((target-segStart)/segLen, 1)
		}
		out = append(out, r2.Add(a, r2.Scale(t, r2.Sub(b, a))))
	}
	return out, nil
}

// Tangent returns the unit direction of the polyline at point i, estimated
// from the neighbouring points (one-sided at the ends).
func (pl Polyline) Tangent(i int) (r2.Vec, error) {
	if len(pl) < 2 || i < 0 || i >= len(pl) {
		return r2.Vec{}, ErrDegenerate
	}
	prev, next := i-1, i+1
	if prev < 0 {
		prev = 0
	}
	if next >= len(pl) {
		next = len(pl) - 1
	}
	d := r2.Sub(pl[next], pl[prev])
	if r2.Norm(d) == 0 {
		return r2.Vec{}, ErrDegenerate
	}
	return r2.Unit(d), nil
}

// RightNormal returns the unit normal pointing to the right of travel
// direction t.
func RightNormal(t r2.Vec) r2.Vec {
	return r2.Vec{X: t.Y, Y: -t.X}
}

// MoveOrthogonal shifts every point by distance along its local right
// normal. Positive distances move to the right of travel direction.
func (pl Polyline) MoveOrthogonal(distance float64) (Polyline, error) {
	out := make(Polyline, len(pl))
	for i := range pl {
		t, err := pl.Tangent(i)
		if err != nil {
			return nil, err
		}
		out[i] = r2.Add(pl[i], r2.Scale(distance, RightNormal(t)))
	}
	return out, nil
}

// Near reports whether a and b are within threshold of each other.
func Near(a, b r2.Vec, threshold float64) bool {
	return r2.Norm(r2.Sub(a, b)) < threshold
}
