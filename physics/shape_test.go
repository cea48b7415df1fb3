// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"testing"

	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impulse2d/engine/math2d"
)

func TestCircleCacheData(t *testing.T) {

	body := NewBody(1, 1)
	body.SetPosition(math2d.Vect(10, 0))
	shape := NewCircle(body, 5, math2d.Vect(1, 0))

	bb := shape.CacheBB()
	tassert.Equal(t, math2d.NewBB(6, -5, 16, 5), bb)

	// cacheData must be pure in the transform.
	again := shape.Update(body.Transform())
	tassert.Equal(t, bb, again)
}

func TestSegmentCacheData(t *testing.T) {

	body := NewStaticBody()
	shape := NewSegment(body, math2d.Vect(-10, 0), math2d.Vect(10, 0), 2)

	bb := shape.CacheBB()
	tassert.Equal(t, math2d.NewBB(-12, -2, 12, 2), bb)

	seg := shape.class.(*Segment)
	assertVectInDelta(t, math2d.Vect(0, -1), seg.tn, 1e-9)
}

func TestPolyCacheData(t *testing.T) {

	body := NewBody(1, 1)
	shape := NewBox(body, 10, 6, 0)

	bb := shape.CacheBB()
	tassert.Equal(t, math2d.NewBB(-5, -3, 5, 3), bb)

	// Rotating the body by 90 degrees swaps the extents.
	body.SetAngle(math2d.Pi / 2)
	bb = shape.CacheBB()
	tassert.InDelta(t, -3, bb.L, 1e-9)
	tassert.InDelta(t, -5, bb.B, 1e-9)
	tassert.InDelta(t, 3, bb.R, 1e-9)
	tassert.InDelta(t, 5, bb.T, 1e-9)
}

func TestPolyRadiusInflatesBB(t *testing.T) {

	body := NewBody(1, 1)
	shape := NewBox(body, 10, 10, 2)
	bb := shape.CacheBB()

	tassert.Equal(t, math2d.NewBB(-7, -7, 7, 7), bb)
}

func TestCirclePointQuery(t *testing.T) {

	body := NewStaticBody()
	shape := NewCircle(body, 10, Vect{})
	shape.CacheBB()

	outside := shape.PointQuery(math2d.Vect(20, 0))
	tassert.InDelta(t, 10.0, outside.Distance, 1e-9)
	assertVectInDelta(t, math2d.Vect(10, 0), outside.Point, 1e-9)
	assertVectInDelta(t, math2d.Vect(1, 0), outside.Gradient, 1e-9)

	inside := shape.PointQuery(math2d.Vect(5, 0))
	tassert.InDelta(t, -5.0, inside.Distance, 1e-9)
	assertVectInDelta(t, math2d.Vect(1, 0), inside.Gradient, 1e-9)
}

func TestPolyPointQuery(t *testing.T) {

	body := NewStaticBody()
	shape := NewBox(body, 20, 20, 0)
	shape.CacheBB()

	outside := shape.PointQuery(math2d.Vect(15, 0))
	tassert.InDelta(t, 5.0, outside.Distance, 1e-9)
	assertVectInDelta(t, math2d.Vect(10, 0), outside.Point, 1e-9)

	inside := shape.PointQuery(math2d.Vect(8, 0))
	tassert.InDelta(t, -2.0, inside.Distance, 1e-9)
}

func TestSegmentPointQuery(t *testing.T) {

	body := NewStaticBody()
	shape := NewSegment(body, math2d.Vect(-10, 0), math2d.Vect(10, 0), 1)
	shape.CacheBB()

	info := shape.PointQuery(math2d.Vect(0, 5))
	tassert.InDelta(t, 4.0, info.Distance, 1e-9)
	assertVectInDelta(t, math2d.Vect(0, 1), info.Gradient, 1e-9)
}

func TestCircleSegmentQueryHelper(t *testing.T) {

	body := NewStaticBody()
	shape := NewCircle(body, 10, Vect{})
	shape.CacheBB()

	var info SegmentQueryInfo
	hit := shape.SegmentQuery(math2d.Vect(-30, 0), math2d.Vect(30, 0), 0, &info)

	require.True(t, hit)
	tassert.InDelta(t, (30.0-10.0)/60.0, info.Alpha, 1e-9)
	assertVectInDelta(t, math2d.Vect(-10, 0), info.Point, 1e-9)
	assertVectInDelta(t, math2d.Vect(-1, 0), info.Normal, 1e-9)
}

func TestSegmentShapeSegmentQuery(t *testing.T) {

	body := NewStaticBody()
	shape := NewSegment(body, math2d.Vect(-10, 0), math2d.Vect(10, 0), 0)
	shape.CacheBB()

	var info SegmentQueryInfo
	hit := shape.SegmentQuery(math2d.Vect(0, 10), math2d.Vect(0, -10), 0, &info)

	require.True(t, hit)
	tassert.InDelta(t, 0.5, info.Alpha, 1e-9)
	assertVectInDelta(t, math2d.Vect(0, 1), info.Normal, 1e-9)
}

func TestPolySegmentQuery(t *testing.T) {

	body := NewStaticBody()
	shape := NewBox(body, 20, 20, 0)
	shape.CacheBB()

	var info SegmentQueryInfo
	hit := shape.SegmentQuery(math2d.Vect(-30, 0), math2d.Vect(0, 0), 0, &info)

	require.True(t, hit)
	tassert.InDelta(t, 20.0/30.0, info.Alpha, 1e-9)
	assertVectInDelta(t, math2d.Vect(-1, 0), info.Normal, 1e-9)
}

func TestSegmentQueryStartingInside(t *testing.T) {

	body := NewStaticBody()
	shape := NewCircle(body, 10, Vect{})
	shape.CacheBB()

	var info SegmentQueryInfo
	hit := shape.SegmentQuery(math2d.Vect(0, 0), math2d.Vect(30, 0), 0, &info)

	require.True(t, hit)
	tassert.Equal(t, 0.0, info.Alpha)
}

func TestShapeMassInfo(t *testing.T) {

	body := NewBody(1, 1)

	circle := NewCircle(body, 10, Vect{})
	tassert.InDelta(t, math2d.Pi*100, circle.Area(), 1e-9)

	box := NewBox(body, 10, 10, 0)
	tassert.InDelta(t, 100, box.Area(), 1e-9)
	box.SetDensity(2)
	tassert.InDelta(t, 200, box.Mass(), 1e-9)
}

func TestPolyValidation(t *testing.T) {

	body := NewBody(1, 1)

	// Clockwise winding must be rejected.
	cw := []Vect{{X: -5, Y: -5}, {X: -5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: -5}}
	tassert.Panics(t, func() {
		NewPolyRaw(body, cw, 0)
	})

	// The hulled constructor accepts any point cloud.
	tassert.NotPanics(t, func() {
		NewPoly(body, cw, math2d.TransformIdentity, 0)
	})
}

func TestUnsafeShapeMutation(t *testing.T) {

	body := NewBody(1, 1)
	shape := NewCircle(body, 10, Vect{})
	circle := shape.class.(*Circle)

	circle.SetRadius(20)
	tassert.Equal(t, 20.0, circle.Radius())
	tassert.Equal(t, math2d.NewBB(-20, -20, 20, 20), shape.CacheBB())

	seg := NewSegment(body, Vect{}, math2d.Vect(10, 0), 1).class.(*Segment)
	seg.SetEndpoints(math2d.Vect(0, 0), math2d.Vect(0, 10))
	assertVectInDelta(t, math2d.Vect(1, 0), seg.Normal(), 1e-9)
}

func TestShapeFilterReject(t *testing.T) {

	a := ShapeFilter{Group: 1, Categories: AllCategories, Mask: AllCategories}
	b := ShapeFilter{Group: 1, Categories: AllCategories, Mask: AllCategories}
	tassert.True(t, a.Reject(b))

	b.Group = 2
	tassert.False(t, a.Reject(b))

	c := ShapeFilter{Categories: 0b01, Mask: 0b10}
	d := ShapeFilter{Categories: 0b10, Mask: 0b01}
	tassert.False(t, c.Reject(d))

	e := ShapeFilter{Categories: 0b01, Mask: 0b01}
	tassert.True(t, c.Reject(e))
}
