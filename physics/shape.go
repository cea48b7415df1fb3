// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
)

// shapeType orders the collision dispatch table. The narrow phase
// only implements the upper triangle of the type pair matrix and
// swaps shapes as needed before dispatching.
type shapeType int

const (
	shapeTypeCircle = shapeType(iota)
	shapeTypeSegment
	shapeTypePoly
	shapeTypeCount
)

// shapeClass is the per-variant behavior of a shape.
type shapeClass interface {
	shapeType() shapeType

	// cacheData recomputes the shape's world geometry for the given
	// body transform and returns the new bounding box.
	cacheData(transform math2d.Transform) math2d.BB

	pointQuery(p Vect, info *PointQueryInfo)
	segmentQuery(a, b Vect, radius float64, info *SegmentQueryInfo)
}

// ShapeMassInfo describes the mass properties a shape contributes
// to its body. Moment is given for a unit mass.
type ShapeMassInfo struct {
	Mass   float64
	Moment float64
	Cog    Vect
	Area   float64
}

// PointQueryInfo is the result of a nearest point query. The
// distance is negative when the queried point lies inside the
// shape.
type PointQueryInfo struct {
	// Shape is the nearest shape, or nil if nothing was within range.
	Shape *Shape
	// Point is the closest point on the shape's surface.
	Point Vect
	// Distance is the signed distance to the point.
	Distance float64
	// Gradient is the unit direction from Point towards the queried
	// point, or the nearest surface normal when the two coincide.
	Gradient Vect
}

// SegmentQueryInfo is the result of a segment (raycast) query.
type SegmentQueryInfo struct {
	// Shape is the shape that was hit, or nil for a miss.
	Shape *Shape
	// Point is the point of impact.
	Point Vect
	// Normal is the surface normal at the point of impact.
	Normal Vect
	// Alpha is the normalized position of the hit along the query
	// segment.
	Alpha float64
}

// Shape is the collision geometry attached to a body. The concrete
// geometry is one of Circle, Segment or Poly.
type Shape struct {
	class shapeClass

	space *Space
	body  *Body

	massInfo ShapeMassInfo
	bb       math2d.BB

	sensor bool

	e        float64 // Restitution.
	u        float64 // Friction.
	surfaceV Vect    // Surface velocity used by the contact solver.

	collisionType CollisionType
	filter        ShapeFilter

	userData interface{}

	hashid HashValue
}

func newShape(class shapeClass, body *Body, massInfo ShapeMassInfo) *Shape {

	return &Shape{
		class:    class,
		body:     body,
		massInfo: massInfo,
		filter:   ShapeFilterAll,
	}
}

// Body returns the body the shape is attached to.
func (shape *Shape) Body() *Body {

	return shape.body
}

// SetBody attaches the shape to a different body. The shape must
// not currently be added to a space.
func (shape *Shape) SetBody(body *Body) {

	assert(shape.space == nil, "cannot change the body of a shape while it is added to a space")
	shape.body = body
}

// Space returns the space the shape has been added to, or nil.
func (shape *Shape) Space() *Space {

	return shape.space
}

// BB returns the bounding box of the shape as computed by the most
// recent Update or CacheBB call.
func (shape *Shape) BB() math2d.BB {

	return shape.bb
}

// Update recomputes the shape's world geometry and bounding box
// using the given transform.
func (shape *Shape) Update(transform math2d.Transform) math2d.BB {

	shape.bb = shape.class.cacheData(transform)
	return shape.bb
}

// CacheBB recomputes the shape's world geometry and bounding box
// using its body's current transform.
func (shape *Shape) CacheBB() math2d.BB {

	return shape.Update(shape.body.transform)
}

// Sensor reports whether the shape is a sensor. Sensors report
// collisions through handlers but never generate impulses.
func (shape *Shape) Sensor() bool {

	return shape.sensor
}

// SetSensor sets the shape's sensor flag.
func (shape *Shape) SetSensor(sensor bool) {

	shape.body.Activate()
	shape.sensor = sensor
}

// Elasticity returns the restitution of the shape.
func (shape *Shape) Elasticity() float64 {

	return shape.e
}

// SetElasticity sets the restitution of the shape in [0, 1]. The
// restitution of a collision is the product of the values of the
// two shapes.
func (shape *Shape) SetElasticity(e float64) {

	assert(e >= 0, "elasticity must be non-negative")
	shape.body.Activate()
	shape.e = e
}

// Friction returns the friction coefficient of the shape.
func (shape *Shape) Friction() float64 {

	return shape.u
}

// SetFriction sets the friction coefficient of the shape. The
// friction of a collision is the geometric mean of the values of
// the two shapes.
func (shape *Shape) SetFriction(u float64) {

	assert(u >= 0, "friction must be non-negative")
	shape.body.Activate()
	shape.u = u
}

// SurfaceVelocity returns the surface velocity of the shape.
func (shape *Shape) SurfaceVelocity() Vect {

	return shape.surfaceV
}

// SetSurfaceVelocity sets the surface velocity of the shape, used
// by the contact solver for conveyor belt style effects.
func (shape *Shape) SetSurfaceVelocity(v Vect) {

	shape.body.Activate()
	shape.surfaceV = v
}

// CollisionType returns the collision type tag of the shape.
func (shape *Shape) CollisionType() CollisionType {

	return shape.collisionType
}

// SetCollisionType sets the collision type tag used to match
// collision handlers.
func (shape *Shape) SetCollisionType(t CollisionType) {

	shape.body.Activate()
	shape.collisionType = t
}

// Filter returns the collision filter of the shape.
func (shape *Shape) Filter() ShapeFilter {

	return shape.filter
}

// SetFilter sets the collision filter of the shape.
func (shape *Shape) SetFilter(filter ShapeFilter) {

	shape.body.Activate()
	shape.filter = filter
}

// UserData returns the user data pointer of the shape.
func (shape *Shape) UserData() interface{} {

	return shape.userData
}

// SetUserData sets the user data pointer of the shape.
func (shape *Shape) SetUserData(data interface{}) {

	shape.userData = data
}

// HashID returns the id the shape was assigned when it was added to
// a space. Contact hashes are derived from it.
func (shape *Shape) HashID() HashValue {

	return shape.hashid
}

// Mass returns the mass the shape contributes to its body.
func (shape *Shape) Mass() float64 {

	return shape.massInfo.Mass
}

// SetMass makes the shape contribute the given mass to its body.
// The body's mass, moment and center of gravity are recalculated
// from all of its shapes.
func (shape *Shape) SetMass(mass float64) {

	shape.body.Activate()
	shape.massInfo.Mass = mass
	shape.body.AccumulateMassFromShapes()
}

// Density returns the density of the shape.
func (shape *Shape) Density() float64 {

	return shape.massInfo.Mass / shape.massInfo.Area
}

// SetDensity sets the mass of the shape from a density.
func (shape *Shape) SetDensity(density float64) {

	shape.SetMass(density * shape.massInfo.Area)
}

// Area returns the area of the shape.
func (shape *Shape) Area() float64 {

	return shape.massInfo.Area
}

// CenterOfGravity returns the centroid of the shape in body local
// coordinates.
func (shape *Shape) CenterOfGravity() Vect {

	return shape.massInfo.Cog
}

// PointQuery finds the point on the shape's surface closest to p.
func (shape *Shape) PointQuery(p Vect) PointQueryInfo {

	info := PointQueryInfo{Distance: math2d.Infinity}
	shape.class.pointQuery(p, &info)
	return info
}

// SegmentQuery performs a directed segment query against the shape,
// with the segment fattened by the given radius. It returns true on
// a hit and fills info if non-nil.
func (shape *Shape) SegmentQuery(a, b Vect, radius float64, info *SegmentQueryInfo) bool {

	blank := SegmentQueryInfo{Point: b, Alpha: 1.0}
	if info == nil {
		info = &blank
	} else {
		*info = blank
	}

	var nearest PointQueryInfo
	shape.class.pointQuery(a, &nearest)
	if nearest.Distance <= radius {
		// The query starts inside of the fattened shape.
		info.Shape = shape
		info.Alpha = 0
		info.Normal = a.Sub(nearest.Point).Normalize()
	} else {
		shape.class.segmentQuery(a, b, radius, info)
	}

	return info.Shape != nil
}
