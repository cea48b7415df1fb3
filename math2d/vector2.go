// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math2d

import (
	"math"
)

// Vector2 is a 2D vector/point with X and Y components.
// All methods are pure: they return a new value and never
// mutate the receiver.
type Vector2 struct {
	X float64
	Y float64
}

// Vect is a convenience constructor for Vector2.
func Vect(x, y float64) Vector2 {

	return Vector2{X: x, Y: y}
}

// ForAngle returns the unit length vector for the given angle in radians.
func ForAngle(a float64) Vector2 {

	return Vector2{math.Cos(a), math.Sin(a)}
}

// Equal reports whether v and other are exactly equal.
func (v Vector2) Equal(other Vector2) bool {

	return v.X == other.X && v.Y == other.Y
}

// Add returns the sum of v and other.
func (v Vector2) Add(other Vector2) Vector2 {

	return Vector2{v.X + other.X, v.Y + other.Y}
}

// Sub returns the difference of v and other.
func (v Vector2) Sub(other Vector2) Vector2 {

	return Vector2{v.X - other.X, v.Y - other.Y}
}

// Neg returns the negation of v.
func (v Vector2) Neg() Vector2 {

	return Vector2{-v.X, -v.Y}
}

// Mult returns v scaled by s.
func (v Vector2) Mult(s float64) Vector2 {

	return Vector2{v.X * s, v.Y * s}
}

// Dot returns the dot product of v and other.
func (v Vector2) Dot(other Vector2) float64 {

	return v.X*other.X + v.Y*other.Y
}

// Cross returns the 2D analog of the cross product of v and other:
// the Z component of the 3D cross product of the two vectors
// embedded in the XY plane.
func (v Vector2) Cross(other Vector2) float64 {

	return v.X*other.Y - v.Y*other.X
}

// Perp returns v rotated by 90 degrees counter-clockwise.
func (v Vector2) Perp() Vector2 {

	return Vector2{-v.Y, v.X}
}

// RPerp returns v rotated by 90 degrees clockwise.
func (v Vector2) RPerp() Vector2 {

	return Vector2{v.Y, -v.X}
}

// Project returns v projected onto other.
func (v Vector2) Project(other Vector2) Vector2 {

	return other.Mult(v.Dot(other) / other.Dot(other))
}

// ToAngle returns the angular direction of v in radians.
func (v Vector2) ToAngle() float64 {

	return math.Atan2(v.Y, v.X)
}

// Rotate rotates v by the rotation vector other using complex
// multiplication. If other is unit length this is a pure rotation.
func (v Vector2) Rotate(other Vector2) Vector2 {

	return Vector2{v.X*other.X - v.Y*other.Y, v.X*other.Y + v.Y*other.X}
}

// Unrotate is the inverse of Rotate.
func (v Vector2) Unrotate(other Vector2) Vector2 {

	return Vector2{v.X*other.X + v.Y*other.Y, v.Y*other.X - v.X*other.Y}
}

// LengthSq returns the squared length of v.
// Faster than Length when you only need to compare lengths.
func (v Vector2) LengthSq() float64 {

	return v.Dot(v)
}

// Length returns the length of v.
func (v Vector2) Length() float64 {

	return math.Sqrt(v.Dot(v))
}

// Lerp linearly interpolates between v and other as t goes from 0 to 1.
func (v Vector2) Lerp(other Vector2, t float64) Vector2 {

	return v.Mult(1.0 - t).Add(other.Mult(t))
}

// LerpConst moves v towards other by at most distance d.
func (v Vector2) LerpConst(other Vector2, d float64) Vector2 {

	return v.Add(other.Sub(v).Clamp(d))
}

// SLerp spherically interpolates between v and other.
func (v Vector2) SLerp(other Vector2, t float64) Vector2 {

	dot := v.Normalize().Dot(other.Normalize())
	omega := math.Acos(Clamp(dot, -1, 1))
	if omega < 1e-3 {
		// The angle is tiny, lerp instead to avoid dividing by ~0.
		return v.Lerp(other, t)
	}
	denom := 1.0 / math.Sin(omega)
	return v.Mult(math.Sin((1.0-t)*omega) * denom).Add(other.Mult(math.Sin(t*omega) * denom))
}

// SLerpConst spherically interpolates between v towards other by no
// more than angle a radians.
func (v Vector2) SLerpConst(other Vector2, a float64) Vector2 {

	dot := v.Normalize().Dot(other.Normalize())
	omega := math.Acos(Clamp(dot, -1, 1))
	return v.SLerp(other, Min(a, omega)/omega)
}

// Normalize returns a unit length vector in the direction of v.
// The zero vector normalizes to the zero vector.
func (v Vector2) Normalize() Vector2 {

	// Adding the minimum normalized float avoids a division by zero
	// without introducing a branch.
	return v.Mult(1.0 / (v.Length() + MinNormal))
}

// Clamp returns v clamped to length len.
func (v Vector2) Clamp(len float64) Vector2 {

	if v.Dot(v) > len*len {
		return v.Normalize().Mult(len)
	}
	return v
}

// DistSq returns the squared distance between v and other.
func (v Vector2) DistSq(other Vector2) float64 {

	return v.Sub(other).LengthSq()
}

// Dist returns the distance between v and other.
func (v Vector2) Dist(other Vector2) float64 {

	return v.Sub(other).Length()
}

// Near reports whether the distance between v and other is less than d.
func (v Vector2) Near(other Vector2, d float64) bool {

	return v.DistSq(other) < d*d
}

// CheckVect reports whether both components of v are finite numbers.
func (v Vector2) CheckVect() bool {

	return !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.X) && !math.IsNaN(v.Y)
}

// ClosestPointOnSegment returns the point on segment ab closest to p.
func ClosestPointOnSegment(p, a, b Vector2) Vector2 {

	delta := a.Sub(b)
	t := Clamp01(delta.Dot(p.Sub(b)) / delta.LengthSq())
	return b.Add(delta.Mult(t))
}
