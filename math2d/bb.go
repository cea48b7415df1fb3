// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math2d

import (
	"math"
)

// BB is an axis-aligned bounding box described by its left, bottom,
// right and top extents.
type BB struct {
	L, B, R, T float64
}

// NewBB creates a bounding box from its four extents.
func NewBB(l, b, r, t float64) BB {

	return BB{L: l, B: b, R: r, T: t}
}

// NewBBForExtents creates a bounding box centered on c with the
// given half-width and half-height.
func NewBBForExtents(c Vector2, hw, hh float64) BB {

	return BB{L: c.X - hw, B: c.Y - hh, R: c.X + hw, T: c.Y + hh}
}

// NewBBForCircle creates a bounding box for the circle with center c
// and radius r.
func NewBBForCircle(c Vector2, r float64) BB {

	return NewBBForExtents(c, r, r)
}

// Intersects reports whether the two bounding boxes overlap.
func (bb BB) Intersects(other BB) bool {

	return bb.L <= other.R && other.L <= bb.R && bb.B <= other.T && other.B <= bb.T
}

// Contains reports whether bb completely contains other.
func (bb BB) Contains(other BB) bool {

	return bb.L <= other.L && bb.R >= other.R && bb.B <= other.B && bb.T >= other.T
}

// ContainsVect reports whether bb contains the point v.
func (bb BB) ContainsVect(v Vector2) bool {

	return bb.L <= v.X && bb.R >= v.X && bb.B <= v.Y && bb.T >= v.Y
}

// Merge returns the smallest bounding box containing both bb and other.
func (bb BB) Merge(other BB) BB {

	return BB{
		L: Min(bb.L, other.L),
		B: Min(bb.B, other.B),
		R: Max(bb.R, other.R),
		T: Max(bb.T, other.T),
	}
}

// Expand returns the smallest bounding box containing bb and the point v.
func (bb BB) Expand(v Vector2) BB {

	return BB{
		L: Min(bb.L, v.X),
		B: Min(bb.B, v.Y),
		R: Max(bb.R, v.X),
		T: Max(bb.T, v.Y),
	}
}

// Center returns the center point of bb.
func (bb BB) Center() Vector2 {

	return Vect(bb.L, bb.B).Lerp(Vect(bb.R, bb.T), 0.5)
}

// Area returns the area of bb.
func (bb BB) Area() float64 {

	return (bb.R - bb.L) * (bb.T - bb.B)
}

// MergedArea returns the area of the merged bounding box of bb and
// other. Used as the insertion cost metric by the bounding box tree.
func (bb BB) MergedArea(other BB) float64 {

	return (Max(bb.R, other.R) - Min(bb.L, other.L)) * (Max(bb.T, other.T) - Min(bb.B, other.B))
}

// Proximity returns a Manhattan metric of how close the centers of
// two bounding boxes are. Used as a pairing heuristic by the tree.
func (bb BB) Proximity(other BB) float64 {

	return Abs(bb.L+bb.R-other.L-other.R) + Abs(bb.B+bb.T-other.B-other.T)
}

// SegmentQuery returns the fraction along the segment query (a, b)
// where bb is first hit, or +Inf if it is missed entirely.
func (bb BB) SegmentQuery(a, b Vector2) float64 {

	delta := b.Sub(a)
	tmin, tmax := math.Inf(-1), math.Inf(1)

	if delta.X == 0 {
		if a.X < bb.L || bb.R < a.X {
			return math.Inf(1)
		}
	} else {
		t1 := (bb.L - a.X) / delta.X
		t2 := (bb.R - a.X) / delta.X
		tmin = Max(tmin, Min(t1, t2))
		tmax = Min(tmax, Max(t1, t2))
	}

	if delta.Y == 0 {
		if a.Y < bb.B || bb.T < a.Y {
			return math.Inf(1)
		}
	} else {
		t1 := (bb.B - a.Y) / delta.Y
		t2 := (bb.T - a.Y) / delta.Y
		tmin = Max(tmin, Min(t1, t2))
		tmax = Min(tmax, Max(t1, t2))
	}

	if tmin <= tmax && 0.0 <= tmax && tmin <= 1.0 {
		return Max(tmin, 0.0)
	}
	return math.Inf(1)
}

// IntersectsSegment reports whether the segment (a, b) hits bb.
func (bb BB) IntersectsSegment(a, b Vector2) bool {

	return bb.SegmentQuery(a, b) != math.Inf(1)
}

// ClampVect returns the point v clamped to lie inside bb.
func (bb BB) ClampVect(v Vector2) Vector2 {

	return Vect(Clamp(v.X, bb.L, bb.R), Clamp(v.Y, bb.B, bb.T))
}

// WrapVect wraps the point v around to the opposite side of bb,
// toroidally.
func (bb BB) WrapVect(v Vector2) Vector2 {

	dx := Abs(bb.R - bb.L)
	modx := math.Mod(v.X-bb.L, dx)
	x := modx
	if modx <= 0 {
		x = modx + dx
	}

	dy := Abs(bb.T - bb.B)
	mody := math.Mod(v.Y-bb.B, dy)
	y := mody
	if mody <= 0 {
		y = mody + dy
	}

	return Vect(x+bb.L, y+bb.B)
}

// Offset returns bb translated by v.
func (bb BB) Offset(v Vector2) BB {

	return BB{L: bb.L + v.X, B: bb.B + v.Y, R: bb.R + v.X, T: bb.T + v.Y}
}
