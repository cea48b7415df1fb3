// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
	"github.com/impulse2d/engine/spatial"
)

// Space queries are allowed while the space is locked, so they can
// be used freely from within collision handlers.

// SpacePointQueryFunc is called for every shape found by a point
// query.
type SpacePointQueryFunc func(shape *Shape, point Vect, distance float64, gradient Vect)

// PointQuery calls f for every shape within maxDistance of point
// whose filter accepts the query filter.
func (space *Space) PointQuery(point Vect, maxDistance float64, filter ShapeFilter, f SpacePointQueryFunc) {

	bb := math2d.NewBBForCircle(point, math2d.Max(maxDistance, 0))

	query := func(obj, other interface{}) {
		shape := other.(*Shape)
		if shape.filter.Reject(filter) {
			return
		}
		info := shape.PointQuery(point)
		if info.Shape != nil && info.Distance < maxDistance {
			f(shape, info.Point, info.Distance, info.Gradient)
		}
	}

	space.lock()
	space.dynamicShapes.Query(&point, bb, query)
	space.staticShapes.Query(&point, bb, query)
	space.unlock(true)
}

// PointQueryNearest returns the shape nearest to point within
// maxDistance, ignoring sensors. The result's Shape is nil if
// nothing was in range.
func (space *Space) PointQueryNearest(point Vect, maxDistance float64, filter ShapeFilter) PointQueryInfo {

	out := PointQueryInfo{Distance: maxDistance}
	bb := math2d.NewBBForCircle(point, math2d.Max(maxDistance, 0))

	query := func(obj, other interface{}) {
		shape := other.(*Shape)
		if shape.filter.Reject(filter) || shape.sensor {
			return
		}
		info := shape.PointQuery(point)
		if info.Distance < out.Distance {
			out = info
		}
	}

	space.lock()
	space.dynamicShapes.Query(&point, bb, query)
	space.staticShapes.Query(&point, bb, query)
	space.unlock(true)

	return out
}

// SpaceSegmentQueryFunc is called for every shape hit along a
// segment query.
type SpaceSegmentQueryFunc func(shape *Shape, point, normal Vect, alpha float64)

// SegmentQuery calls f for every shape the fattened segment from
// start to end hits, in no particular order.
func (space *Space) SegmentQuery(start, end Vect, radius float64, filter ShapeFilter, f SpaceSegmentQueryFunc) {

	query := func(obj, other interface{}) float64 {
		shape := other.(*Shape)
		var info SegmentQueryInfo
		if !shape.filter.Reject(filter) && shape.SegmentQuery(start, end, radius, &info) {
			f(shape, info.Point, info.Normal, info.Alpha)
		}
		return 1.0
	}

	space.lock()
	space.dynamicShapes.SegmentQuery(nil, start, end, 1.0, query)
	space.staticShapes.SegmentQuery(nil, start, end, 1.0, query)
	space.unlock(true)
}

// SegmentQueryFirst returns the first shape the fattened segment
// from start to end hits, ignoring sensors. The result's Shape is
// nil for a miss.
func (space *Space) SegmentQueryFirst(start, end Vect, radius float64, filter ShapeFilter) SegmentQueryInfo {

	out := SegmentQueryInfo{Point: end, Alpha: 1.0}

	query := func(obj, other interface{}) float64 {
		shape := other.(*Shape)
		var info SegmentQueryInfo
		if !shape.filter.Reject(filter) && !shape.sensor &&
			shape.SegmentQuery(start, end, radius, &info) && info.Alpha < out.Alpha {
			out = info
		}
		return out.Alpha
	}

	space.lock()
	space.staticShapes.SegmentQuery(nil, start, end, 1.0, query)
	space.dynamicShapes.SegmentQuery(nil, start, end, out.Alpha, query)
	space.unlock(true)

	return out
}

// SpaceBBQueryFunc is called for every shape found by a bounding
// box query.
type SpaceBBQueryFunc func(shape *Shape)

// BBQuery calls f for every shape whose bounding box overlaps the
// query box. No narrow phase test is performed.
func (space *Space) BBQuery(bb math2d.BB, filter ShapeFilter, f SpaceBBQueryFunc) {

	query := func(obj, other interface{}) {
		shape := other.(*Shape)
		if !shape.filter.Reject(filter) && bb.Intersects(shape.bb) {
			f(shape)
		}
	}

	space.lock()
	space.dynamicShapes.Query(&bb, bb, query)
	space.staticShapes.Query(&bb, bb, query)
	space.unlock(true)
}

// SpaceShapeQueryFunc is called for every shape overlapping the
// queried shape.
type SpaceShapeQueryFunc func(shape *Shape, points *ContactPointSet)

// ShapeQuery calls f for every shape in the space that overlaps the
// given shape, which may be free-standing or belong to another
// space. Returns true if the query shape touched any non-sensor
// shape.
func (space *Space) ShapeQuery(shape *Shape, f SpaceShapeQueryFunc) bool {

	var bb math2d.BB
	if shape.body != nil {
		bb = shape.Update(shape.body.transform)
	} else {
		bb = shape.bb
	}

	anyCollision := false

	query := func(obj, other interface{}) {
		b := other.(*Shape)
		if shape.filter.Reject(b.filter) || shape == b {
			return
		}

		set := CollideShapes(shape, b)
		if set.Count > 0 {
			if f != nil {
				f(b, &set)
			}
			if !(shape.sensor || b.sensor) {
				anyCollision = true
			}
		}
	}

	space.lock()
	space.dynamicShapes.Query(shape, bb, query)
	space.staticShapes.Query(shape, bb, query)
	space.unlock(true)

	return anyCollision
}

// PointQueryBB is a convenience wrapper emitting the shapes whose
// bounding boxes contain the point, using the broad phase only.
func (space *Space) PointQueryBB(point Vect, f SpaceBBQueryFunc) {

	query := func(obj, other interface{}) {
		f(other.(*Shape))
	}

	space.lock()
	spatial.PointQuery(space.dynamicShapes, point, query)
	spatial.PointQuery(space.staticShapes, point, query)
	space.unlock(true)
}
