// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
)

// Segment is a beveled line segment shape. Adjacent segments
// forming a polyline can be linked through their neighbor tangents
// so that objects slide smoothly across the joints.
type Segment struct {
	*Shape

	a, b, n    Vect // Endpoints and normal in body local coordinates.
	ta, tb, tn Vect // Cached world coordinates.
	r          float64

	aTangent, bTangent Vect // Neighbor tangents for endcap rejection.
}

func segmentMassInfo(mass float64, a, b Vect, r float64) ShapeMassInfo {

	return ShapeMassInfo{
		Mass: mass,
		// The moment of a box is close enough for a thin segment.
		Moment: MomentForBox(1, a.Dist(b)+2.0*r, 2.0*r),
		Cog:    a.Lerp(b, 0.5),
		Area:   AreaForSegment(a, b, r),
	}
}

// NewSegment creates and returns a new segment shape attached to
// the given body, running from a to b in body local coordinates
// with thickness radius r.
func NewSegment(body *Body, a, b Vect, r float64) *Shape {

	segment := &Segment{
		a: a,
		b: b,
		n: b.Sub(a).Normalize().RPerp(),
		r: r,
	}
	segment.Shape = newShape(segment, body, segmentMassInfo(0, a, b, r))
	return segment.Shape
}

// EndpointA returns the first endpoint in body local coordinates.
func (segment *Segment) EndpointA() Vect {

	return segment.a
}

// EndpointB returns the second endpoint in body local coordinates.
func (segment *Segment) EndpointB() Vect {

	return segment.b
}

// Normal returns the segment normal in body local coordinates.
func (segment *Segment) Normal() Vect {

	return segment.n
}

// Radius returns the thickness radius of the segment.
func (segment *Segment) Radius() float64 {

	return segment.r
}

// SetNeighbors tells the segment which points its neighbors in a
// polyline connect to, suppressing collisions against its endcaps
// so objects do not catch on the seams.
func (segment *Segment) SetNeighbors(prev, next Vect) {

	segment.aTangent = prev.Sub(segment.a)
	segment.bTangent = next.Sub(segment.b)
}

// SetEndpoints changes the endpoints of the segment. This bypasses
// the space: the shape must be reindexed before the next step or
// query.
func (segment *Segment) SetEndpoints(a, b Vect) {

	segment.a = a
	segment.b = b
	segment.n = b.Sub(a).Normalize().RPerp()

	mass := segment.massInfo.Mass
	segment.massInfo = segmentMassInfo(mass, a, b, segment.r)
	if mass > 0 {
		segment.body.AccumulateMassFromShapes()
	}
}

// SetRadius changes the thickness radius of the segment. This
// bypasses the space: the shape must be reindexed before the next
// step or query.
func (segment *Segment) SetRadius(radius float64) {

	segment.r = radius

	mass := segment.massInfo.Mass
	segment.massInfo = segmentMassInfo(mass, segment.a, segment.b, radius)
	if mass > 0 {
		segment.body.AccumulateMassFromShapes()
	}
}

func (segment *Segment) shapeType() shapeType {

	return shapeTypeSegment
}

func (segment *Segment) cacheData(transform math2d.Transform) math2d.BB {

	segment.ta = transform.Point(segment.a)
	segment.tb = transform.Point(segment.b)
	segment.tn = transform.Vect(segment.n)

	var l, r, b, t float64
	if segment.ta.X < segment.tb.X {
		l = segment.ta.X
		r = segment.tb.X
	} else {
		l = segment.tb.X
		r = segment.ta.X
	}
	if segment.ta.Y < segment.tb.Y {
		b = segment.ta.Y
		t = segment.tb.Y
	} else {
		b = segment.tb.Y
		t = segment.ta.Y
	}

	rad := segment.r
	return math2d.NewBB(l-rad, b-rad, r+rad, t+rad)
}

func (segment *Segment) pointQuery(p Vect, info *PointQueryInfo) {

	closest := math2d.ClosestPointOnSegment(p, segment.ta, segment.tb)

	delta := p.Sub(closest)
	d := delta.Length()
	r := segment.r
	g := delta.Mult(1.0 / d)

	info.Shape = segment.Shape
	if d != 0 {
		info.Point = closest.Add(g.Mult(r))
	} else {
		info.Point = closest
	}
	info.Distance = d - r

	// Use the segment's normal when the point is on the spine.
	if d > magicEpsilon {
		info.Gradient = g
	} else {
		info.Gradient = segment.tn
	}
}

func (segment *Segment) segmentQuery(a, b Vect, r2 float64, info *SegmentQueryInfo) {

	n := segment.tn
	d := segment.ta.Sub(a).Dot(n)
	r := segment.r + r2

	flippedN := n
	if d > 0 {
		flippedN = n.Neg()
	}
	segOffset := flippedN.Mult(r).Sub(a)

	// Make the endpoints relative to a and move them by the
	// thickness of the segment.
	segA := segment.ta.Add(segOffset)
	segB := segment.tb.Add(segOffset)
	delta := b.Sub(a)

	if delta.Cross(segA)*delta.Cross(segB) <= 0 {
		dOffset := d
		if d > 0 {
			dOffset -= r
		} else {
			dOffset += r
		}
		ad := -dOffset
		bd := delta.Dot(n) - dOffset

		if ad*bd < 0 {
			t := ad / (ad - bd)

			info.Shape = segment.Shape
			info.Point = a.Lerp(b, t).Sub(flippedN.Mult(r2))
			info.Normal = flippedN
			info.Alpha = t
		}
	} else if r != 0 {
		info1 := SegmentQueryInfo{Point: b, Alpha: 1.0}
		info2 := SegmentQueryInfo{Point: b, Alpha: 1.0}
		circleSegmentQuery(segment.Shape, segment.ta, segment.r, a, b, r2, &info1)
		circleSegmentQuery(segment.Shape, segment.tb, segment.r, a, b, r2, &info2)

		if info1.Alpha < info2.Alpha {
			*info = info1
		} else {
			*info = info2
		}
	}
}
