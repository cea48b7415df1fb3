// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package physics implements a 2D rigid body physics engine: bodies
// carrying circle, segment and polygon shapes collide and interact
// under gravity, damping, joints and motors inside a Space that is
// advanced with a fixed or variable timestep.
package physics

import (
	"fmt"

	"github.com/impulse2d/engine/math2d"
	"github.com/impulse2d/engine/spatial"
	"github.com/impulse2d/engine/util/logger"
)

// Vect is the vector type used throughout the engine.
type Vect = math2d.Vector2

// HashValue is the id type used for shapes and contact hashes.
type HashValue = spatial.HashValue

// CollisionType is a user definable tag for a shape, used to match
// collision handlers to collision pairs.
type CollisionType uint

// Group is a shape filter group. Shapes in the same nonzero group
// never collide with each other.
type Group uint

// Bitmask is a shape filter category bitmask.
type Bitmask uint

const (
	// NoGroup is the default shape filter group.
	NoGroup Group = 0
	// AllCategories matches every filter category.
	AllCategories Bitmask = ^Bitmask(0)
	// WildcardCollisionType matches any collision type when used in
	// a collision handler.
	WildcardCollisionType CollisionType = ^CollisionType(0)
)

// ShapeFilter restricts which pairs of shapes are allowed to collide.
type ShapeFilter struct {
	// Two shapes with the same nonzero Group never collide.
	Group Group
	// Categories is the set of categories this shape belongs to.
	Categories Bitmask
	// Mask is the set of categories this shape collides with.
	Mask Bitmask
}

// ShapeFilterAll is the default filter, colliding with everything.
var ShapeFilterAll = ShapeFilter{NoGroup, AllCategories, AllCategories}

// ShapeFilterNone collides with nothing.
var ShapeFilterNone = ShapeFilter{NoGroup, ^AllCategories, ^AllCategories}

// Reject reports whether the filter pair rejects the collision.
func (a ShapeFilter) Reject(b ShapeFilter) bool {

	return (a.Group != 0 && a.Group == b.Group) ||
		(a.Categories&b.Mask) == 0 ||
		(b.Categories&a.Mask) == 0
}

// hashPair mixes two hash values for the arbiter cache and for
// contact ids. The multiplier is prime.
func hashPair(a, b HashValue) HashValue {

	return a*3344921057 ^ b*3344921057
}

// magicEpsilon is the tolerance below which gradients and normals
// fall back to a cached direction to avoid dividing by ~0.
const magicEpsilon = 1e-5

// assert aborts with a formatted message when a precondition does
// not hold. Precondition violations are programmer errors.
func assert(condition bool, format string, args ...interface{}) {

	if !condition {
		panic(fmt.Sprintf("physics: "+format, args...))
	}
}

// assertSoft logs recoverable internal inconsistencies instead of
// aborting.
func assertSoft(condition bool, format string, args ...interface{}) {

	if !condition {
		logger.Warn("physics: "+format, args...)
	}
}

// MomentForCircle returns the moment of inertia for a hollow circle
// with inner radius r1, outer radius r2 and the given offset from
// the body's center of gravity.
func MomentForCircle(m, r1, r2 float64, offset Vect) float64 {

	return m * (0.5*(r1*r1+r2*r2) + offset.LengthSq())
}

// AreaForCircle returns the area of a hollow circle.
func AreaForCircle(r1, r2 float64) float64 {

	return math2d.Pi * math2d.Abs(r1*r1-r2*r2)
}

// MomentForSegment returns the moment of inertia for a beveled
// segment from a to b with thickness radius r.
func MomentForSegment(m float64, a, b Vect, r float64) float64 {

	offset := a.Lerp(b, 0.5)
	length := b.Dist(a) + 2.0*r
	return m * ((length*length+4.0*r*r)/12.0 + offset.LengthSq())
}

// AreaForSegment returns the area of a beveled segment.
func AreaForSegment(a, b Vect, r float64) float64 {

	return r * (math2d.Pi*r + 2.0*a.Dist(b))
}

// MomentForPoly returns the moment of inertia for a convex polygon
// offset from the body's center of gravity.
func MomentForPoly(m float64, verts []Vect, offset Vect, r float64) float64 {

	if len(verts) == 2 {
		return MomentForSegment(m, verts[0], verts[1], 0.0)
	}

	sum1 := 0.0
	sum2 := 0.0
	for i := range verts {
		v1 := verts[i].Add(offset)
		v2 := verts[(i+1)%len(verts)].Add(offset)

		a := v2.Cross(v1)
		b := v1.Dot(v1) + v1.Dot(v2) + v2.Dot(v2)

		sum1 += a * b
		sum2 += a
	}

	return (m * sum1) / (6.0 * sum2)
}

// AreaForPoly returns the signed area of a polygon with rounding
// radius r. A counter-clockwise winding gives a positive area.
func AreaForPoly(verts []Vect, r float64) float64 {

	area := 0.0
	perimeter := 0.0
	for i := range verts {
		v1 := verts[i]
		v2 := verts[(i+1)%len(verts)]

		area += v1.Cross(v2)
		perimeter += v1.Dist(v2)
	}

	return r*(math2d.Pi*r+perimeter) + area/2.0
}

// CentroidForPoly returns the centroid of a polygon.
func CentroidForPoly(verts []Vect) Vect {

	sum := 0.0
	vsum := Vect{}
	for i := range verts {
		v1 := verts[i]
		v2 := verts[(i+1)%len(verts)]
		cross := v1.Cross(v2)

		sum += cross
		vsum = vsum.Add(v1.Add(v2).Mult(cross))
	}

	return vsum.Mult(1.0 / (3.0 * sum))
}

// MomentForBox returns the moment of inertia for a solid box
// centered on the body's center of gravity.
func MomentForBox(m, width, height float64) float64 {

	return m * (width*width + height*height) / 12.0
}

// MomentForBox2 returns the moment of inertia for a solid box
// described by a bounding box in body-local coordinates.
func MomentForBox2(m float64, box math2d.BB) float64 {

	width := box.R - box.L
	height := box.T - box.B
	offset := math2d.Vect(box.L+box.R, box.B+box.T).Mult(0.5)

	return MomentForBox(m, width, height) + m*offset.LengthSq()
}
