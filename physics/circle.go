// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
)

// Circle is a circle shape with a body local center offset.
type Circle struct {
	*Shape

	c, tc Vect // Center in body local and world coordinates.
	r     float64
}

func circleMassInfo(mass, radius float64, offset Vect) ShapeMassInfo {

	return ShapeMassInfo{
		Mass:   mass,
		Moment: MomentForCircle(1, 0, radius, Vect{}),
		Cog:    offset,
		Area:   AreaForCircle(0, radius),
	}
}

// NewCircle creates and returns a new circle shape attached to the
// given body, with its center at offset in body local coordinates.
func NewCircle(body *Body, radius float64, offset Vect) *Shape {

	circle := &Circle{c: offset, r: radius}
	circle.Shape = newShape(circle, body, circleMassInfo(0, radius, offset))
	return circle.Shape
}

// Offset returns the center of the circle in body local coordinates.
func (circle *Circle) Offset() Vect {

	return circle.c
}

// Radius returns the radius of the circle.
func (circle *Circle) Radius() float64 {

	return circle.r
}

// TransformedCenter returns the cached world space center.
func (circle *Circle) TransformedCenter() Vect {

	return circle.tc
}

// SetRadius changes the radius of the circle. This bypasses the
// space: the shape must be reindexed before the next step or query.
func (circle *Circle) SetRadius(radius float64) {

	circle.r = radius

	mass := circle.massInfo.Mass
	circle.massInfo = circleMassInfo(mass, circle.r, circle.c)
	if mass > 0 {
		circle.body.AccumulateMassFromShapes()
	}
}

// SetOffset changes the center offset of the circle. This bypasses
// the space: the shape must be reindexed before the next step or
// query.
func (circle *Circle) SetOffset(offset Vect) {

	circle.c = offset

	mass := circle.massInfo.Mass
	circle.massInfo = circleMassInfo(mass, circle.r, circle.c)
	if mass > 0 {
		circle.body.AccumulateMassFromShapes()
	}
}

func (circle *Circle) shapeType() shapeType {

	return shapeTypeCircle
}

func (circle *Circle) cacheData(transform math2d.Transform) math2d.BB {

	circle.tc = transform.Point(circle.c)
	return math2d.NewBBForCircle(circle.tc, circle.r)
}

func (circle *Circle) pointQuery(p Vect, info *PointQueryInfo) {

	delta := p.Sub(circle.tc)
	d := delta.Length()
	r := circle.r

	info.Shape = circle.Shape
	info.Point = circle.tc.Add(delta.Mult(r / d))
	info.Distance = d - r

	// Use up as the gradient when the point coincides with the
	// center.
	if d > magicEpsilon {
		info.Gradient = delta.Mult(1.0 / d)
	} else {
		info.Gradient = math2d.Vect(0, 1)
	}
}

func (circle *Circle) segmentQuery(a, b Vect, radius float64, info *SegmentQueryInfo) {

	circleSegmentQuery(circle.Shape, circle.tc, circle.r, a, b, radius, info)
}

// circleSegmentQuery intersects the segment from a to b, fattened
// by r2, against the circle with center c and radius r1.
func circleSegmentQuery(shape *Shape, center Vect, r1 float64, a, b Vect, r2 float64, info *SegmentQueryInfo) {

	da := a.Sub(center)
	db := b.Sub(center)
	rsum := r1 + r2

	qa := da.Dot(da) - 2.0*da.Dot(db) + db.Dot(db)
	qb := da.Dot(db) - da.Dot(da)
	det := qb*qb - qa*(da.Dot(da)-rsum*rsum)

	if det < 0 {
		return
	}

	t := (-qb - math2d.Sqrt(det)) / qa
	if 0 <= t && t <= 1 {
		n := da.Lerp(db, t).Normalize()

		info.Shape = shape
		info.Point = a.Lerp(b, t).Sub(n.Mult(r2))
		info.Normal = n
		info.Alpha = t
	}
}
