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

func makeCircleAt(t *testing.T, pos Vect, radius float64) *Shape {

	t.Helper()
	body := NewBody(1, 1)
	body.SetPosition(pos)
	shape := NewCircle(body, radius, Vect{})
	shape.CacheBB()
	return shape
}

func makeBoxAt(t *testing.T, pos Vect, w, h float64) *Shape {

	t.Helper()
	body := NewBody(1, 1)
	body.SetPosition(pos)
	shape := NewBox(body, w, h, 0)
	shape.CacheBB()
	return shape
}

func TestCircleCircleOverlap(t *testing.T) {

	a := makeCircleAt(t, Vect{}, 10)
	b := makeCircleAt(t, math2d.Vect(15, 0), 10)

	set := CollideShapes(a, b)
	require.Equal(t, 1, set.Count)

	assertVectInDelta(t, math2d.Vect(1, 0), set.Normal, 1e-9)
	// Overlapping by 5 units.
	tassert.InDelta(t, -5.0, set.Points[0].Distance, 1e-9)
	assertVectInDelta(t, math2d.Vect(10, 0), set.Points[0].PointA, 1e-9)
	assertVectInDelta(t, math2d.Vect(5, 0), set.Points[0].PointB, 1e-9)
}

func TestCircleCircleExactTouch(t *testing.T) {

	// Exactly touching surfaces produce a single contact of depth
	// zero.
	a := makeCircleAt(t, Vect{}, 10)
	b := makeCircleAt(t, math2d.Vect(20, 0), 10)

	set := CollideShapes(a, b)
	require.Equal(t, 1, set.Count)
	tassert.InDelta(t, 0.0, set.Points[0].Distance, 1e-9)
}

func TestCircleCircleMiss(t *testing.T) {

	a := makeCircleAt(t, Vect{}, 10)
	b := makeCircleAt(t, math2d.Vect(25, 0), 10)

	set := CollideShapes(a, b)
	tassert.Equal(t, 0, set.Count)
}

func TestCircleSegmentCollision(t *testing.T) {

	circle := makeCircleAt(t, math2d.Vect(0, 8), 10)

	ground := NewStaticBody()
	segment := NewSegment(ground, math2d.Vect(-50, 0), math2d.Vect(50, 0), 0)
	segment.CacheBB()

	set := CollideShapes(circle, segment)
	require.Equal(t, 1, set.Count)

	// The normal points from the circle towards the segment.
	assertVectInDelta(t, math2d.Vect(0, -1), set.Normal, 1e-9)
	tassert.InDelta(t, -2.0, set.Points[0].Distance, 1e-9)
}

func TestPolyPolyCollisionTwoContacts(t *testing.T) {

	// Two axis aligned boxes overlapping along a face produce two
	// contact points.
	a := makeBoxAt(t, Vect{}, 20, 20)
	b := makeBoxAt(t, math2d.Vect(0, 19), 20, 20)

	set := CollideShapes(a, b)
	require.Equal(t, 2, set.Count)

	assertVectInDelta(t, math2d.Vect(0, 1), set.Normal, 1e-9)
	for i := 0; i < set.Count; i++ {
		tassert.InDelta(t, -1.0, set.Points[i].Distance, 1e-9)
	}
}

func TestPolyPolyMiss(t *testing.T) {

	a := makeBoxAt(t, Vect{}, 20, 20)
	b := makeBoxAt(t, math2d.Vect(50, 0), 20, 20)

	set := CollideShapes(a, b)
	tassert.Equal(t, 0, set.Count)
}

func TestCirclePolyCollision(t *testing.T) {

	circle := makeCircleAt(t, math2d.Vect(0, 12), 5)
	box := makeBoxAt(t, Vect{}, 20, 20)

	set := CollideShapes(circle, box)
	require.Equal(t, 1, set.Count)

	assertVectInDelta(t, math2d.Vect(0, -1), set.Normal, 1e-9)
	tassert.InDelta(t, -3.0, set.Points[0].Distance, 1e-7)
}

func TestSegmentPolyCollision(t *testing.T) {

	ground := NewStaticBody()
	segment := NewSegment(ground, math2d.Vect(-50, 0), math2d.Vect(50, 0), 0)
	segment.CacheBB()

	box := makeBoxAt(t, math2d.Vect(0, 9), 20, 20)

	set := CollideShapes(segment, box)
	require.Equal(t, 2, set.Count)
	assertVectInDelta(t, math2d.Vect(0, 1), set.Normal, 1e-7)
}

func TestCollisionSymmetry(t *testing.T) {

	a := makeBoxAt(t, Vect{}, 20, 20)
	b := makeCircleAt(t, math2d.Vect(11, 0), 2)

	ab := CollideShapes(a, b)
	ba := CollideShapes(b, a)

	require.Equal(t, ab.Count, ba.Count)
	require.Equal(t, 1, ab.Count)

	// Same contact set up to the sign of the normal and the swap of
	// the point pair.
	assertVectInDelta(t, ab.Normal.Neg(), ba.Normal, 1e-9)
	assertVectInDelta(t, ab.Points[0].PointA, ba.Points[0].PointB, 1e-9)
	assertVectInDelta(t, ab.Points[0].PointB, ba.Points[0].PointA, 1e-9)
	tassert.InDelta(t, ab.Points[0].Distance, ba.Points[0].Distance, 1e-9)
}

func TestPolySupportPointIndex(t *testing.T) {

	body := NewBody(1, 1)
	shape := NewBox(body, 20, 20, 0)
	shape.CacheBB()
	poly := shape.class.(*Poly)

	// The support point must maximize the dot product with the
	// query direction for every direction.
	for i := 0; i < 64; i++ {
		n := math2d.ForAngle(2 * math2d.Pi * float64(i) / 64.0)
		support := polySupportPoint(shape, n)

		best := -math2d.Infinity
		for j := 0; j < poly.count; j++ {
			d := poly.planes[j].v0.Dot(n)
			if d > best {
				best = d
			}
		}
		tassert.InDeltaf(t, best, support.p.Dot(n), 1e-9, "direction %v", n)
	}
}

func TestPolySupportPointIndexManyVerts(t *testing.T) {

	// A regular 17-gon exercises the binary search away from the
	// trivial power of two sizes.
	body := NewBody(1, 1)
	count := 17
	verts := make([]Vect, count)
	for i := range verts {
		verts[i] = math2d.ForAngle(2 * math2d.Pi * float64(i) / float64(count)).Mult(10)
	}
	shape := NewPolyRaw(body, verts, 0)
	shape.CacheBB()
	poly := shape.class.(*Poly)

	for i := 0; i < 101; i++ {
		n := math2d.ForAngle(2*math2d.Pi*float64(i)/101.0 + 0.013)
		support := polySupportPoint(shape, n)

		best := -math2d.Infinity
		for j := 0; j < poly.count; j++ {
			d := poly.planes[j].v0.Dot(n)
			if d > best {
				best = d
			}
		}
		tassert.InDeltaf(t, best, support.p.Dot(n), 1e-9, "direction %v", n)
	}
}

func TestSegmentNeighborRejection(t *testing.T) {

	// Two segments forming a polyline: a circle resting on the
	// joint must not catch on the inner endcaps.
	ground := NewStaticBody()

	seg1 := NewSegment(ground, math2d.Vect(-50, 0), math2d.Vect(0, 0), 0)
	seg1.class.(*Segment).SetNeighbors(math2d.Vect(-50, 0), math2d.Vect(50, 0))
	seg1.CacheBB()

	circle := makeCircleAt(t, math2d.Vect(0, 4), 5)

	// The circle is centered over the shared end point, so the
	// contact normal points straight down; it does not oppose the
	// neighbor tangent (50, 0), so the contact is kept.
	set := CollideShapes(circle, seg1)
	require.Equal(t, 1, set.Count)
	assertVectInDelta(t, math2d.Vect(0, -1), set.Normal, 1e-7)
}
