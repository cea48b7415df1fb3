// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math2d

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

func assertVectNear(t *testing.T, expected, actual Vector2, tol float64) {

	t.Helper()
	assert.InDelta(t, expected.X, actual.X, tol)
	assert.InDelta(t, expected.Y, actual.Y, tol)
}

func TestVectorBasics(t *testing.T) {

	a := Vect(3, 4)
	b := Vect(-1, 2)

	assert.Equal(t, Vect(2, 6), a.Add(b))
	assert.Equal(t, Vect(4, 2), a.Sub(b))
	assert.Equal(t, Vect(-3, -4), a.Neg())
	assert.Equal(t, Vect(6, 8), a.Mult(2))
	assert.Equal(t, 5.0, a.Length())
	assert.Equal(t, 25.0, a.LengthSq())
	assert.Equal(t, 3.0*-1+4*2, a.Dot(b))
	assert.Equal(t, 3.0*2-4*-1, a.Cross(b))
	assert.Equal(t, Vect(-4, 3), a.Perp())
	assert.Equal(t, Vect(4, -3), a.RPerp())
}

func TestVectorRotateUnrotateRoundTrip(t *testing.T) {

	v := Vect(3.5, -7.25)
	for _, angle := range []float64{0, 0.1, 1.0, -2.5, Pi, 3 * Pi} {
		r := ForAngle(angle)
		assertVectNear(t, v, v.Rotate(r).Unrotate(r), epsilon)
		assertVectNear(t, v, v.Unrotate(r).Rotate(r), epsilon)
	}
}

func TestVectorRotateMatchesAngleAddition(t *testing.T) {

	a := ForAngle(0.7)
	b := ForAngle(1.1)
	assertVectNear(t, ForAngle(1.8), a.Rotate(b), epsilon)
}

func TestVectorNormalize(t *testing.T) {

	assert.InDelta(t, 1.0, Vect(3, 4).Normalize().Length(), epsilon)

	// The zero vector must normalize to the zero vector.
	assert.Equal(t, Vector2{}, Vector2{}.Normalize())
}

func TestVectorClampAndLerp(t *testing.T) {

	assertVectNear(t, Vect(3, 4), Vect(30, 40).Clamp(5), epsilon)
	assert.Equal(t, Vect(1, 1), Vect(1, 1).Clamp(5))

	assertVectNear(t, Vect(5, 5), Vect(0, 0).Lerp(Vect(10, 10), 0.5), epsilon)
	assertVectNear(t, Vect(1, 0), Vect(0, 0).LerpConst(Vect(10, 0), 1), epsilon)
}

func TestScalarHelpers(t *testing.T) {

	assert.Equal(t, 5.0, Clamp(10, 0, 5))
	assert.Equal(t, 0.0, Clamp(-1, 0, 5))
	assert.Equal(t, 3.0, Clamp(3, 0, 5))
	assert.Equal(t, 0.75, Clamp01(0.75))
	assert.Equal(t, 5.0, Lerp(0, 10, 0.5))
	assert.Equal(t, 1.0, LerpConst(0, 10, 1))
	assert.Equal(t, -2.0, Min(-2, 3))
	assert.Equal(t, 3.0, Max(-2, 3))
}

func TestTransformRigidRoundTrip(t *testing.T) {

	transform := NewTransformRigid(Vect(10, -5), ForAngle(0.6))
	inverse := NewTransformRigidInverse(transform)

	p := Vect(3, 7)
	assertVectNear(t, p, inverse.Point(transform.Point(p)), epsilon)
	assertVectNear(t, p, transform.Point(inverse.Point(p)), epsilon)
}

func TestTransformInverse(t *testing.T) {

	transform := NewTransform(2, 1, 0.5, 3, 4, -2)
	inverse := transform.Inverse()

	p := Vect(-2, 9)
	assertVectNear(t, p, inverse.Point(transform.Point(p)), 1e-9)

	// A singular transform inverts to the identity.
	singular := NewTransform(1, 2, 2, 4, 0, 0)
	assert.Equal(t, TransformIdentity, singular.Inverse())
}

func TestTransformMult(t *testing.T) {

	t1 := NewTransformTranslate(Vect(5, 0))
	t2 := NewTransformRigid(Vect(0, 0), ForAngle(Pi/2))

	p := Vect(1, 0)
	combined := t1.Mult(t2)
	assertVectNear(t, t1.Point(t2.Point(p)), combined.Point(p), epsilon)
}

func TestBBBasics(t *testing.T) {

	bb := NewBB(0, 0, 10, 5)

	assert.True(t, bb.Intersects(NewBB(5, 2, 15, 10)))
	assert.False(t, bb.Intersects(NewBB(11, 0, 12, 5)))
	assert.True(t, bb.Contains(NewBB(1, 1, 9, 4)))
	assert.False(t, bb.Contains(NewBB(1, 1, 11, 4)))
	assert.True(t, bb.ContainsVect(Vect(5, 2.5)))
	assert.False(t, bb.ContainsVect(Vect(-1, 2.5)))

	assert.Equal(t, NewBB(0, 0, 12, 8), bb.Merge(NewBB(4, 4, 12, 8)))
	assert.Equal(t, NewBB(-3, 0, 10, 5), bb.Expand(Vect(-3, 3)))
	assert.Equal(t, Vect(5, 2.5), bb.Center())
	assert.Equal(t, 50.0, bb.Area())
	assert.Equal(t, Vect(10, 4), bb.ClampVect(Vect(15, 4)))
}

func TestBBSegmentQuery(t *testing.T) {

	bb := NewBB(0, 0, 10, 10)

	alpha := bb.SegmentQuery(Vect(-10, 5), Vect(20, 5))
	assert.InDelta(t, 1.0/3.0, alpha, epsilon)

	assert.True(t, bb.IntersectsSegment(Vect(-10, 5), Vect(20, 5)))
	assert.False(t, bb.IntersectsSegment(Vect(-10, 20), Vect(20, 20)))

	// A miss returns +Inf.
	assert.Equal(t, Infinity, bb.SegmentQuery(Vect(-10, 20), Vect(20, 20)))
}

func TestConvexHullSquareWithInteriorPoints(t *testing.T) {

	points := []Vector2{
		{5, 5}, {0, 0}, {10, 0}, {3, 7}, {10, 10}, {0, 10}, {2, 2},
	}
	hull := ConvexHull(points, make([]Vector2, len(points)), 0)

	require.Len(t, hull, 4)

	// The hull must contain exactly the corners, in CCW order
	// starting from the leftmost-lowest point.
	assert.Equal(t, Vector2{0, 0}, hull[0])
	assert.Equal(t, Vector2{10, 0}, hull[1])
	assert.Equal(t, Vector2{10, 10}, hull[2])
	assert.Equal(t, Vector2{0, 10}, hull[3])
}

func TestConvexHullIdempotent(t *testing.T) {

	points := []Vector2{
		{1, 1}, {4, 0}, {6, 2}, {5, 5}, {2, 6}, {0, 3}, {3, 3},
	}
	hull := ConvexHull(points, make([]Vector2, len(points)), 0)
	again := ConvexHull(hull, make([]Vector2, len(hull)), 0)

	assert.Equal(t, hull, again)
}

func TestConvexHullDegenerate(t *testing.T) {

	// All-equal points collapse to a single vertex hull.
	points := []Vector2{{3, 3}, {3, 3}, {3, 3}}
	hull := ConvexHull(points, make([]Vector2, len(points)), 0)

	require.Len(t, hull, 1)
	assert.Equal(t, Vector2{3, 3}, hull[0])
}

func TestConvexHullInPlace(t *testing.T) {

	points := []Vector2{
		{0, 0}, {5, 5}, {10, 0}, {10, 10}, {0, 10},
	}
	hull := ConvexHull(points, nil, 0)

	require.Len(t, hull, 4)
	assert.Equal(t, Vector2{0, 0}, hull[0])
}

func TestConvexHullTolerance(t *testing.T) {

	// The midpoint lies within tolerance of the edge and must be
	// collapsed onto it.
	points := []Vector2{
		{0, 0}, {5, 0.01}, {10, 0}, {10, 10}, {0, 10},
	}
	hull := ConvexHull(points, make([]Vector2, len(points)), 0.1)

	assert.Len(t, hull, 4)
}
