// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
)

// splittingPlane is a polygon edge plane: the vertex ending the
// edge and the edge's outward unit normal.
type splittingPlane struct {
	v0 Vect
	n  Vect
}

// Poly is a convex polygon shape with an optional rounding radius
// applied to its corners.
type Poly struct {
	*Shape

	r     float64
	count int

	// The world space planes come first, the untransformed planes
	// are appended at the tail so both fit in one allocation.
	planes []splittingPlane
}

func polyMassInfo(mass float64, verts []Vect, radius float64) ShapeMassInfo {

	centroid := CentroidForPoly(verts)
	return ShapeMassInfo{
		Mass: mass,
		// The moment is slightly approximate for a nonzero radius.
		Moment: MomentForPoly(1, verts, centroid.Neg(), radius),
		Cog:    centroid,
		Area:   AreaForPoly(verts, radius),
	}
}

// validatePolyVerts reports whether the vertexes form a strictly
// convex counter-clockwise loop.
func validatePolyVerts(verts []Vect) bool {

	count := len(verts)
	for i := 0; i < count; i++ {
		a := verts[i]
		b := verts[(i+1)%count]
		c := verts[(i+2)%count]

		if b.Sub(a).Cross(c.Sub(a)) <= 0 {
			return false
		}
	}
	return true
}

// NewPoly creates and returns a new polygon shape attached to the
// given body. The vertexes are transformed by transform, and the
// convex hull of the result is used, so any point cloud with a
// counter-clockwise hull is acceptable. radius rounds the corners.
func NewPoly(body *Body, verts []Vect, transform math2d.Transform, radius float64) *Shape {

	hullVerts := make([]Vect, len(verts))
	for i, v := range verts {
		hullVerts[i] = transform.Point(v)
	}
	hull := math2d.ConvexHull(hullVerts, nil, 0)
	return NewPolyRaw(body, hull, radius)
}

// NewPolyRaw creates a polygon shape directly from vertexes that
// are already a strictly convex counter-clockwise loop.
func NewPolyRaw(body *Body, verts []Vect, radius float64) *Shape {

	poly := &Poly{r: radius}
	poly.Shape = newShape(poly, body, polyMassInfo(0, verts, radius))
	poly.setVertsRaw(verts)
	return poly.Shape
}

// NewBox creates a box shaped polygon centered on the body's
// origin.
func NewBox(body *Body, width, height, radius float64) *Shape {

	hw := width / 2.0
	hh := height / 2.0
	return NewBoxBB(body, math2d.NewBB(-hw, -hh, hw, hh), radius)
}

// NewBoxBB creates a box shaped polygon from a bounding box in body
// local coordinates.
func NewBoxBB(body *Body, box math2d.BB, radius float64) *Shape {

	verts := []Vect{
		math2d.Vect(box.R, box.B),
		math2d.Vect(box.R, box.T),
		math2d.Vect(box.L, box.T),
		math2d.Vect(box.L, box.B),
	}
	return NewPolyRaw(body, verts, radius)
}

// Count returns the number of vertexes of the polygon.
func (poly *Poly) Count() int {

	return poly.count
}

// Vert returns the i-th vertex in body local coordinates.
func (poly *Poly) Vert(i int) Vect {

	assert(0 <= i && i < poly.count, "polygon vertex index out of range")
	return poly.planes[i+poly.count].v0
}

// TransformedVert returns the i-th vertex in world coordinates as
// of the last cache update.
func (poly *Poly) TransformedVert(i int) Vect {

	assert(0 <= i && i < poly.count, "polygon vertex index out of range")
	return poly.planes[i].v0
}

// Radius returns the corner rounding radius of the polygon.
func (poly *Poly) Radius() float64 {

	return poly.r
}

// SetRadius changes the rounding radius. This bypasses the space:
// the shape must be reindexed before the next step or query.
func (poly *Poly) SetRadius(radius float64) {

	poly.r = radius

	mass := poly.massInfo.Mass
	poly.massInfo = polyMassInfo(mass, poly.localVerts(), radius)
	if mass > 0 {
		poly.body.AccumulateMassFromShapes()
	}
}

// SetVerts replaces the polygon's vertexes with the convex hull of
// the given points transformed by transform. This bypasses the
// space: the shape must be reindexed before the next step or query.
func (poly *Poly) SetVerts(verts []Vect, transform math2d.Transform) {

	hullVerts := make([]Vect, len(verts))
	for i, v := range verts {
		hullVerts[i] = transform.Point(v)
	}
	hull := math2d.ConvexHull(hullVerts, nil, 0)
	poly.setVertsRaw(hull)

	mass := poly.massInfo.Mass
	poly.massInfo = polyMassInfo(mass, hull, poly.r)
	if mass > 0 {
		poly.body.AccumulateMassFromShapes()
	}
}

func (poly *Poly) localVerts() []Vect {

	verts := make([]Vect, poly.count)
	for i := 0; i < poly.count; i++ {
		verts[i] = poly.planes[i+poly.count].v0
	}
	return verts
}

func (poly *Poly) setVertsRaw(verts []Vect) {

	// Hulled point clouds may degenerate to a point or a segment;
	// anything bigger must be strictly convex and wound CCW.
	assert(len(verts) < 3 || validatePolyVerts(verts),
		"polygon vertexes must form a strictly convex counter-clockwise loop")

	count := len(verts)
	poly.count = count
	poly.planes = make([]splittingPlane, count*2)

	for i := 0; i < count; i++ {
		a := verts[(i-1+count)%count]
		b := verts[i]
		n := b.Sub(a).RPerp().Normalize()

		poly.planes[i+count].v0 = b
		poly.planes[i+count].n = n
	}
}

func (poly *Poly) shapeType() shapeType {

	return shapeTypePoly
}

func (poly *Poly) cacheData(transform math2d.Transform) math2d.BB {

	count := poly.count
	dst := poly.planes[0:count]
	src := poly.planes[count:]

	l := math2d.Infinity
	b := math2d.Infinity
	r := -math2d.Infinity
	t := -math2d.Infinity

	for i := 0; i < count; i++ {
		v := transform.Point(src[i].v0)
		n := transform.Vect(src[i].n)

		dst[i].v0 = v
		dst[i].n = n

		l = math2d.Min(l, v.X)
		r = math2d.Max(r, v.X)
		b = math2d.Min(b, v.Y)
		t = math2d.Max(t, v.Y)
	}

	radius := poly.r
	return math2d.NewBB(l-radius, b-radius, r+radius, t+radius)
}

func (poly *Poly) pointQuery(p Vect, info *PointQueryInfo) {

	count := poly.count
	planes := poly.planes[0:count]
	r := poly.r

	v0 := planes[count-1].v0
	minDist := math2d.Infinity
	closestPoint := Vect{}
	closestNormal := Vect{}
	outside := false

	for i := 0; i < count; i++ {
		v1 := planes[i].v0
		outside = outside || planes[i].n.Dot(p.Sub(v1)) > 0

		closest := math2d.ClosestPointOnSegment(p, v0, v1)

		dist := p.Dist(closest)
		if dist < minDist {
			minDist = dist
			closestPoint = closest
			closestNormal = planes[i].n
		}

		v0 = v1
	}

	dist := minDist
	if !outside {
		dist = -minDist
	}
	g := p.Sub(closestPoint).Mult(1.0 / dist)

	info.Shape = poly.Shape
	info.Point = closestPoint.Add(g.Mult(r))
	info.Distance = dist - r

	// Use the normal of the closest edge when the distance is tiny.
	if minDist > magicEpsilon {
		info.Gradient = g
	} else {
		info.Gradient = closestNormal
	}
}

func (poly *Poly) segmentQuery(a, b Vect, r2 float64, info *SegmentQueryInfo) {

	count := poly.count
	planes := poly.planes[0:count]
	r := poly.r
	rsum := r + r2

	for i := 0; i < count; i++ {
		n := planes[i].n
		an := a.Dot(n)
		d := an - planes[i].v0.Dot(n) - rsum
		if d < 0 {
			continue
		}

		bn := b.Dot(n)
		t := d / (an - bn)
		if t < 0 || 1 < t {
			continue
		}

		point := a.Lerp(b, t)
		dt := n.Cross(point)
		dtMin := n.Cross(planes[(i-1+count)%count].v0)
		dtMax := n.Cross(planes[i].v0)

		if dtMin <= dt && dt <= dtMax {
			info.Shape = poly.Shape
			info.Point = point.Sub(n.Mult(r2))
			info.Normal = n
			info.Alpha = t
		}
	}

	// Also check against the beveled corners.
	if rsum > 0 {
		for i := 0; i < count; i++ {
			circleInfo := SegmentQueryInfo{Point: b, Alpha: 1.0}
			circleSegmentQuery(poly.Shape, planes[i].v0, r, a, b, r2, &circleInfo)
			if circleInfo.Alpha < info.Alpha {
				*info = circleInfo
			}
		}
	}
}
