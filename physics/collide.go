// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"math"

	"github.com/impulse2d/engine/math2d"
)

// The narrow phase handles the trivial cases (circle-circle,
// circle-segment) with closed forms and everything else with a
// single pipeline: GJK finds the closest points between the two
// shapes, EPA takes over when they overlap, and the support edges
// most anti-parallel to the collision normal are clipped against
// each other to produce up to two contact points.

const (
	maxGJKIterations = 30
	maxEPAIterations = 30
)

// contact is a single persistent contact point between two shapes.
type contact struct {
	r1, r2 Vect // Contact offsets from each body's center of gravity.

	nMass, tMass float64 // Effective masses along the normal and tangent.
	bounce       float64 // Target restitution velocity.

	jnAcc, jtAcc float64 // Accumulated normal and friction impulses.
	jBias        float64 // Accumulated position correction impulse.
	bias         float64 // Target bias velocity.

	hash HashValue // Feature id used for warm start matching.
}

// collisionInfo accumulates the output of a narrow phase collision.
type collisionInfo struct {
	a, b        *Shape
	collisionID uint32

	n     Vect // Collision normal, pointing from a to b.
	count int
	arr   []contact
}

// pushContact records a contact. p1 and p2 are the contact points
// on the surfaces of a and b in world coordinates; they are
// converted to body relative offsets when the arbiter takes over.
func (info *collisionInfo) pushContact(p1, p2 Vect, hash HashValue) {

	assertSoft(info.count < maxContactsPerArbiter, "tried to push too many contacts")

	con := &info.arr[info.count]
	con.r1 = p1
	con.r2 = p2
	con.hash = hash

	info.count++
}

// Support points and edges.

type supportPoint struct {
	p Vect
	// The index of the feature the point came from, kept for
	// contact ids.
	index uint32
}

type supportPointFunc func(shape *Shape, n Vect) supportPoint

func circleSupportPoint(shape *Shape, n Vect) supportPoint {

	circle := shape.class.(*Circle)
	return supportPoint{circle.tc, 0}
}

func segmentSupportPoint(shape *Shape, n Vect) supportPoint {

	seg := shape.class.(*Segment)
	if seg.ta.Dot(n) > seg.tb.Dot(n) {
		return supportPoint{seg.ta, 0}
	}
	return supportPoint{seg.tb, 1}
}

// mod2pi wraps an angle into [0, 2pi).
func mod2pi(a float64) float64 {

	a = math.Mod(a, 2*math2d.Pi)
	if a < 0 {
		a += 2 * math2d.Pi
	}
	return a
}

// polySupportPointIndex finds the vertex of a convex polygon
// furthest in direction n with a binary search over the edge-normal
// fan. The planes' normals wind counter-clockwise exactly once, so
// their angles relative to the first normal increase monotonically
// with the index, and the support vertex is the last one whose
// incoming edge normal is still behind the query direction.
func polySupportPointIndex(planes []splittingPlane, n Vect) int {

	ang0 := planes[0].n.ToAngle()
	target := mod2pi(n.ToAngle() - ang0)

	lo := 0
	hi := len(planes) - 1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if mod2pi(planes[mid].n.ToAngle()-ang0) <= target {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

func polySupportPoint(shape *Shape, n Vect) supportPoint {

	poly := shape.class.(*Poly)
	planes := poly.planes[0:poly.count]
	i := polySupportPointIndex(planes, n)
	return supportPoint{planes[i].v0, uint32(i)}
}

// shapePoint retrieves a support point by its cached feature index,
// used to restart GJK from the previous step's answer.
func shapePoint(shape *Shape, i uint32) supportPoint {

	switch class := shape.class.(type) {
	case *Circle:
		return supportPoint{class.tc, 0}
	case *Segment:
		if i == 0 {
			return supportPoint{class.ta, 0}
		}
		return supportPoint{class.tb, 1}
	case *Poly:
		// Poly shapes may change vertex count.
		index := int(i)
		if index >= class.count {
			index = 0
		}
		return supportPoint{class.planes[index].v0, uint32(index)}
	default:
		return supportPoint{}
	}
}

// minkowskiPoint is a point on the surface of the Minkowski
// difference of two shapes.
type minkowskiPoint struct {
	a, b Vect // The original support points.
	ab   Vect // b - a: the point on the difference.
	id   uint32
}

func newMinkowskiPoint(a, b supportPoint) minkowskiPoint {

	return minkowskiPoint{a.p, b.p, b.p.Sub(a.p), (a.index&0xff)<<8 | (b.index & 0xff)}
}

type supportContext struct {
	shape1, shape2 *Shape
	func1, func2   supportPointFunc
}

// support returns the support point of the Minkowski difference in
// direction n.
func (ctx *supportContext) support(n Vect) minkowskiPoint {

	a := ctx.func1(ctx.shape1, n.Neg())
	b := ctx.func2(ctx.shape2, n)
	return newMinkowskiPoint(a, b)
}

// closestT returns the closest point on the segment ab to the
// origin as a lerp value in [-1, 1] centered on the midpoint.
func closestT(a, b Vect) float64 {

	delta := b.Sub(a)
	return -math2d.Clamp(delta.Dot(a.Add(b))/(delta.LengthSq()+math2d.MinNormal), -1.0, 1.0)
}

// lerpT interpolates using a closestT style lerp value.
func lerpT(a, b Vect, t float64) Vect {

	ht := 0.5 * t
	return a.Mult(0.5 - ht).Add(b.Mult(0.5 + ht))
}

// closestDist returns the squared distance of the segment to the
// origin.
func closestDist(v0, v1 Vect) float64 {

	return lerpT(v0, v1, closestT(v0, v1)).LengthSq()
}

// closestPoints holds the result of GJK/EPA: the closest points on
// the two shapes, the separating normal (or minimum translation
// normal when penetrating), and the signed distance between the
// shapes.
type closestPoints struct {
	a, b Vect
	n    Vect
	d    float64
	id   uint32
}

func newClosestPoints(v0, v1 minkowskiPoint) closestPoints {

	t := closestT(v0.ab, v1.ab)
	p := lerpT(v0.ab, v1.ab, t)

	pa := lerpT(v0.a, v1.a, t)
	pb := lerpT(v0.b, v1.b, t)
	id := (v0.id&0xffff)<<16 | (v1.id & 0xffff)

	delta := v1.ab.Sub(v0.ab)
	n := delta.RPerp().Normalize()
	d := n.Dot(p)

	if d <= 0 || (-1.0 < t && t < 1.0) {
		// The segment spans the origin or penetration was found.
		return closestPoints{pa, pb, n, d, id}
	}

	// The origin is beyond an endpoint of the segment.
	d2 := p.Length()
	n2 := p.Mult(1.0 / (d2 + math2d.MinNormal))
	return closestPoints{pa, pb, n2, d2, id}
}

// GJK

func gjkRecurse(ctx *supportContext, v0, v1 minkowskiPoint, iteration int) closestPoints {

	if iteration > maxGJKIterations {
		return newClosestPoints(v0, v1)
	}

	delta := v1.ab.Sub(v0.ab)
	if delta.Cross(v0.ab.Add(v1.ab)) > 0 {
		// The origin is behind the axis. Flip and try again.
		return gjkRecurse(ctx, v1, v0, iteration)
	}

	t := closestT(v0.ab, v1.ab)
	var n Vect
	if -1.0 < t && t < 1.0 {
		n = delta.Perp()
	} else {
		n = lerpT(v0.ab, v1.ab, t).Neg()
	}
	p := ctx.support(n)

	if v1.ab.Sub(p.ab).Cross(v1.ab.Add(p.ab)) > 0 && v0.ab.Sub(p.ab).Cross(v0.ab.Add(p.ab)) < 0 {
		// The origin is inside the triangle v0, p, v1. The shapes
		// overlap; switch to EPA for the penetration vector.
		return epa(ctx, v0, p, v1)
	}

	if p.ab.Dot(n) <= math2d.Max(v0.ab.Dot(n), v1.ab.Dot(n)) {
		// The new point did not improve the simplex. Converged.
		return newClosestPoints(v0, v1)
	}

	if closestDist(v0.ab, p.ab) < closestDist(p.ab, v1.ab) {
		return gjkRecurse(ctx, v0, p, iteration+1)
	}
	return gjkRecurse(ctx, p, v1, iteration+1)
}

func gjk(ctx *supportContext, id *uint32) closestPoints {

	var v0, v1 minkowskiPoint
	if *id != 0 {
		// Resume from the last step's closest feature indexes.
		v0 = newMinkowskiPoint(shapePoint(ctx.shape1, (*id>>24)&0xff), shapePoint(ctx.shape2, (*id>>16)&0xff))
		v1 = newMinkowskiPoint(shapePoint(ctx.shape1, (*id>>8)&0xff), shapePoint(ctx.shape2, (*id)&0xff))
	} else {
		// No cached indexes. Use the line between the bounding box
		// centers as a starting axis.
		axis := ctx.shape1.bb.Center().Sub(ctx.shape2.bb.Center()).Perp()
		v0 = ctx.support(axis)
		v1 = ctx.support(axis.Neg())
	}

	points := gjkRecurse(ctx, v0, v1, 1)
	*id = points.id
	return points
}

// EPA

func epaRecurse(ctx *supportContext, hull []minkowskiPoint, iteration int) closestPoints {

	count := len(hull)
	mini := 0
	minDist := math2d.Infinity

	// Find the edge of the hull closest to the origin.
	for j, i := 0, count-1; j < count; i, j = j, j+1 {
		d := closestDist(hull[i].ab, hull[j].ab)
		if d < minDist {
			minDist = d
			mini = i
		}
	}

	v0 := hull[mini]
	v1 := hull[(mini+1)%count]
	assertSoft(!v0.ab.Equal(v1.ab), "EPA vertexes are the same (%d and %d)", mini, (mini+1)%count)

	// Split the closest edge by its furthest support point.
	p := ctx.support(v1.ab.Sub(v0.ab).Perp())

	area2x := v1.ab.Sub(v0.ab).Cross(p.ab.Sub(v0.ab).Add(p.ab.Sub(v1.ab)))
	if area2x > 0 && iteration < maxEPAIterations {
		// Rebuild the hull with p inserted, dropping any points no
		// longer on it.
		hull2 := make([]minkowskiPoint, 1, count+1)
		hull2[0] = p

		for i := 0; i < count; i++ {
			index := (mini + 1 + i) % count

			h0 := hull2[len(hull2)-1].ab
			h1 := hull[index].ab
			var h2 Vect
			if i+1 < count {
				h2 = hull[(index+1)%count].ab
			} else {
				h2 = p.ab
			}

			if h2.Sub(h0).Cross(h1.Sub(h0).Add(h1.Sub(h2))) > 0 {
				hull2 = append(hull2, hull[index])
			}
		}

		return epaRecurse(ctx, hull2, iteration+1)
	}

	// The closest edge cannot be pushed out any further: it is the
	// minimum translation edge.
	return newClosestPoints(v0, v1)
}

// epa finds the minimum penetration vector given a triangle on the
// Minkowski difference that contains the origin.
func epa(ctx *supportContext, v0, v1, v2 minkowskiPoint) closestPoints {

	hull := []minkowskiPoint{v0, v1, v2}
	return epaRecurse(ctx, hull, 1)
}

// Contact clipping.

type edgePoint struct {
	p Vect
	// Feature hash of the vertex, for contact ids.
	hash HashValue
}

type edge struct {
	a, b edgePoint
	r    float64
	n    Vect
}

func supportEdgeForPoly(poly *Poly, n Vect) edge {

	count := poly.count
	planes := poly.planes[0:count]
	i1 := polySupportPointIndex(planes, n)

	i0 := (i1 - 1 + count) % count
	i2 := (i1 + 1) % count

	hashid := poly.hashid
	if n.Dot(planes[i1].n) > n.Dot(planes[i2].n) {
		// The incoming edge of the support vertex faces n best.
		return edge{
			a: edgePoint{planes[i0].v0, hashPair(hashid, HashValue(i0))},
			b: edgePoint{planes[i1].v0, hashPair(hashid, HashValue(i1))},
			r: poly.r,
			n: planes[i1].n,
		}
	}
	return edge{
		a: edgePoint{planes[i1].v0, hashPair(hashid, HashValue(i1))},
		b: edgePoint{planes[i2].v0, hashPair(hashid, HashValue(i2))},
		r: poly.r,
		n: planes[i2].n,
	}
}

func supportEdgeForSegment(seg *Segment, n Vect) edge {

	hashid := seg.hashid
	if seg.tn.Dot(n) > 0 {
		return edge{
			a: edgePoint{seg.ta, hashPair(hashid, 0)},
			b: edgePoint{seg.tb, hashPair(hashid, 1)},
			r: seg.r,
			n: seg.tn,
		}
	}
	return edge{
		a: edgePoint{seg.tb, hashPair(hashid, 1)},
		b: edgePoint{seg.ta, hashPair(hashid, 0)},
		r: seg.r,
		n: seg.tn.Neg(),
	}
}

// contactPoints clips the two support edges against each other and
// keeps the points that overlap along the collision normal.
func contactPoints(e1, e2 edge, points closestPoints, info *collisionInfo) {

	minDist := e1.r + e2.r
	if points.d > minDist {
		return
	}

	n := points.n
	info.n = n

	// Distances along the axis perpendicular to n.
	dE1A := e1.a.p.Cross(n)
	dE1B := e1.b.p.Cross(n)
	dE2A := e2.a.p.Cross(n)
	dE2B := e2.b.p.Cross(n)

	e1Denom := 1.0 / (dE1B - dE1A + math2d.MinNormal)
	e2Denom := 1.0 / (dE2B - dE2A + math2d.MinNormal)

	// Project the endpoints of the two edges onto the opposing
	// edge, clamping them as necessary, and keep the projected
	// points that still overlap along the collision normal.
	{
		p1 := n.Mult(e1.r).Add(e1.a.p.Lerp(e1.b.p, math2d.Clamp01((dE2B-dE1A)*e1Denom)))
		p2 := n.Mult(-e2.r).Add(e2.a.p.Lerp(e2.b.p, math2d.Clamp01((dE1A-dE2A)*e2Denom)))
		dist := p2.Sub(p1).Dot(n)
		if dist <= 0 {
			info.pushContact(p1, p2, hashPair(e1.a.hash, e2.b.hash))
		}
	}
	{
		p1 := n.Mult(e1.r).Add(e1.a.p.Lerp(e1.b.p, math2d.Clamp01((dE2A-dE1A)*e1Denom)))
		p2 := n.Mult(-e2.r).Add(e2.a.p.Lerp(e2.b.p, math2d.Clamp01((dE1B-dE2A)*e2Denom)))
		dist := p2.Sub(p1).Dot(n)
		if dist <= 0 {
			info.pushContact(p1, p2, hashPair(e1.b.hash, e2.a.hash))
		}
	}
}

// Collision functions for each shape type pair.

func circleToCircle(a, b *Shape, info *collisionInfo) {

	c1 := a.class.(*Circle)
	c2 := b.class.(*Circle)

	mindist := c1.r + c2.r
	delta := c2.tc.Sub(c1.tc)
	distsq := delta.LengthSq()

	// Exactly touching circles produce a contact of depth zero.
	if distsq <= mindist*mindist {
		dist := math2d.Sqrt(distsq)
		n := math2d.Vect(1, 0)
		if dist != 0 {
			n = delta.Mult(1.0 / dist)
		}
		info.n = n
		info.pushContact(c1.tc.Add(n.Mult(c1.r)), c2.tc.Add(n.Mult(-c2.r)), 0)
	}
}

func circleToSegment(a, b *Shape, info *collisionInfo) {

	circle := a.class.(*Circle)
	segment := b.class.(*Segment)

	segA := segment.ta
	segB := segment.tb
	center := circle.tc

	segDelta := segB.Sub(segA)
	tClosest := math2d.Clamp01(segDelta.Dot(center.Sub(segA)) / segDelta.LengthSq())
	closest := segA.Add(segDelta.Mult(tClosest))

	mindist := circle.r + segment.r
	delta := closest.Sub(center)
	distsq := delta.LengthSq()
	if distsq >= mindist*mindist {
		return
	}

	dist := math2d.Sqrt(distsq)
	// Use the segment's normal for coincident shapes.
	n := segment.tn
	if dist != 0 {
		n = delta.Mult(1.0 / dist)
	}
	info.n = n

	// Reject endcap collisions if neighbor tangents say the
	// adjacent segment owns them.
	rot := segment.body.Rotation()
	if (tClosest != 0 || n.Dot(segment.aTangent.Rotate(rot)) >= 0) &&
		(tClosest != 1 || n.Dot(segment.bTangent.Rotate(rot)) >= 0) {
		info.pushContact(center.Add(n.Mult(circle.r)), closest.Add(n.Mult(-segment.r)), 0)
	}
}

func circleToPoly(a, b *Shape, info *collisionInfo) {

	circle := a.class.(*Circle)
	poly := b.class.(*Poly)

	ctx := supportContext{a, b, circleSupportPoint, polySupportPoint}
	points := gjk(&ctx, &info.collisionID)

	if points.d <= circle.r+poly.r {
		info.n = points.n
		info.pushContact(points.a.Add(points.n.Mult(circle.r)), points.b.Add(points.n.Mult(-poly.r)), 0)
	}
}

func segmentToSegment(a, b *Shape, info *collisionInfo) {

	seg1 := a.class.(*Segment)
	seg2 := b.class.(*Segment)

	ctx := supportContext{a, b, segmentSupportPoint, segmentSupportPoint}
	points := gjk(&ctx, &info.collisionID)

	n := points.n
	rot1 := seg1.body.Rotation()
	rot2 := seg2.body.Rotation()

	if points.d > seg1.r+seg2.r {
		return
	}
	if (!points.a.Equal(seg1.ta) || n.Dot(seg1.aTangent.Rotate(rot1)) <= 0) &&
		(!points.a.Equal(seg1.tb) || n.Dot(seg1.bTangent.Rotate(rot1)) <= 0) &&
		(!points.b.Equal(seg2.ta) || n.Dot(seg2.aTangent.Rotate(rot2)) >= 0) &&
		(!points.b.Equal(seg2.tb) || n.Dot(seg2.bTangent.Rotate(rot2)) >= 0) {
		contactPoints(supportEdgeForSegment(seg1, n), supportEdgeForSegment(seg2, n.Neg()), points, info)
	}
}

func segmentToPoly(a, b *Shape, info *collisionInfo) {

	seg := a.class.(*Segment)
	poly := b.class.(*Poly)

	ctx := supportContext{a, b, segmentSupportPoint, polySupportPoint}
	points := gjk(&ctx, &info.collisionID)

	n := points.n
	rot := seg.body.Rotation()

	if points.d-seg.r-poly.r > 0 {
		return
	}
	if (!points.a.Equal(seg.ta) || n.Dot(seg.aTangent.Rotate(rot)) <= 0) &&
		(!points.a.Equal(seg.tb) || n.Dot(seg.bTangent.Rotate(rot)) <= 0) {
		contactPoints(supportEdgeForSegment(seg, n), supportEdgeForPoly(poly, n.Neg()), points, info)
	}
}

func polyToPoly(a, b *Shape, info *collisionInfo) {

	poly1 := a.class.(*Poly)
	poly2 := b.class.(*Poly)

	ctx := supportContext{a, b, polySupportPoint, polySupportPoint}
	points := gjk(&ctx, &info.collisionID)

	if points.d-poly1.r-poly2.r <= 0 {
		contactPoints(supportEdgeForPoly(poly1, points.n), supportEdgeForPoly(poly2, points.n.Neg()), points, info)
	}
}

type collisionFunc func(a, b *Shape, info *collisionInfo)

// The dispatch table is indexed by (typeA*3 + typeB) after ordering
// the pair so that typeA <= typeB; the lower triangle is
// unreachable.
var collisionFuncs = [shapeTypeCount * shapeTypeCount]collisionFunc{
	circleToCircle, circleToSegment, circleToPoly,
	nil, segmentToSegment, segmentToPoly,
	nil, nil, polyToPoly,
}

// collide runs narrow phase collision detection between two shapes,
// reordering the pair as required by the dispatch table.
func collide(a, b *Shape, id uint32, contacts []contact) collisionInfo {

	info := collisionInfo{a: a, b: b, collisionID: id, arr: contacts}

	if a.class.shapeType() > b.class.shapeType() {
		info.a = b
		info.b = a
	}

	collisionFuncs[int(info.a.class.shapeType())*int(shapeTypeCount)+int(info.b.class.shapeType())](info.a, info.b, &info)
	return info
}

// CollideShapes runs narrow phase collision detection between two
// shapes whose world geometry is up to date and returns the contact
// point set. Useful for one-off overlap tests outside of a space.
func CollideShapes(a, b *Shape) ContactPointSet {

	contacts := make([]contact, maxContactsPerArbiter)
	info := collide(a, b, 0, contacts)

	var set ContactPointSet
	set.Count = info.count

	// The points in info are swapped to dispatch order; flip the
	// set back to the caller's order if needed.
	swapped := info.a != a
	n := info.n
	if swapped {
		n = n.Neg()
	}
	set.Normal = n

	for i := 0; i < info.count; i++ {
		p1 := info.arr[i].r1
		p2 := info.arr[i].r2

		if swapped {
			p1, p2 = p2, p1
		}
		set.Points[i].PointA = p1
		set.Points[i].PointB = p2
		set.Points[i].Distance = p2.Sub(p1).Dot(n)
	}

	return set
}
