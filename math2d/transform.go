// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math2d

// Transform is a 2D affine transform:
//
//	| A C TX |
//	| B D TY |
//	| 0 0  1 |
type Transform struct {
	A, B, C, D, TX, TY float64
}

// TransformIdentity is the identity transform.
var TransformIdentity = Transform{A: 1, D: 1}

// NewTransform creates a transform from the affine matrix entries
// in column-major order.
func NewTransform(a, b, c, d, tx, ty float64) Transform {

	return Transform{A: a, B: b, C: c, D: d, TX: tx, TY: ty}
}

// NewTransformTranspose creates a transform from the affine matrix
// entries in row-major order.
func NewTransformTranspose(a, c, tx, b, d, ty float64) Transform {

	return Transform{A: a, B: b, C: c, D: d, TX: tx, TY: ty}
}

// NewTransformTranslate creates a translation-only transform.
func NewTransformTranslate(translate Vector2) Transform {

	return NewTransformTranspose(
		1, 0, translate.X,
		0, 1, translate.Y,
	)
}

// NewTransformRigid creates a rigid transform from a translation and
// a unit rotation vector.
func NewTransformRigid(translate, rot Vector2) Transform {

	return NewTransformTranspose(
		rot.X, -rot.Y, translate.X,
		rot.Y, rot.X, translate.Y,
	)
}

// NewTransformRigidInverse creates the inverse of a rigid transform
// without computing a general matrix inverse.
func NewTransformRigidInverse(t Transform) Transform {

	return NewTransformTranspose(
		t.D, -t.C, t.D*-t.TX+t.C*t.TY,
		-t.B, t.A, t.B*t.TX+t.A*-t.TY,
	)
}

// Inverse returns the general inverse of t.
// A transform with zero determinant inverts to the identity.
func (t Transform) Inverse() Transform {

	det := t.A*t.D - t.C*t.B
	if det == 0 {
		return TransformIdentity
	}
	invDet := 1.0 / det
	return NewTransformTranspose(
		t.D*invDet, -t.C*invDet, (t.C*t.TY-t.TX*t.D)*invDet,
		-t.B*invDet, t.A*invDet, (t.TX*t.B-t.A*t.TY)*invDet,
	)
}

// Mult returns the transform composing t then other (t*other).
func (t Transform) Mult(other Transform) Transform {

	return NewTransformTranspose(
		t.A*other.A+t.C*other.B, t.A*other.C+t.C*other.D, t.A*other.TX+t.C*other.TY+t.TX,
		t.B*other.A+t.D*other.B, t.B*other.C+t.D*other.D, t.B*other.TX+t.D*other.TY+t.TY,
	)
}

// Point applies the transform to the point p.
func (t Transform) Point(p Vector2) Vector2 {

	return Vector2{t.A*p.X + t.C*p.Y + t.TX, t.B*p.X + t.D*p.Y + t.TY}
}

// Vect applies the transform to the vector v, ignoring translation.
func (t Transform) Vect(v Vector2) Vector2 {

	return Vector2{t.A*v.X + t.C*v.Y, t.B*v.X + t.D*v.Y}
}

// BB returns the bounding box of bb transformed by t.
func (t Transform) BB(bb BB) BB {

	hw := (bb.R - bb.L) * 0.5
	hh := (bb.T - bb.B) * 0.5

	a := t.A * hw
	b := t.C * hh
	d := t.B * hw
	e := t.D * hh
	hwMax := Max(Abs(a+b), Abs(a-b))
	hhMax := Max(Abs(d+e), Abs(d-e))
	center := t.Point(bb.Center())
	return NewBBForExtents(center, hwMax, hhMax)
}

// NewTransformOrtho returns an orthographic projection transform
// mapping bb onto the unit square.
func NewTransformOrtho(bb BB) Transform {

	return NewTransformTranspose(
		2.0/(bb.R-bb.L), 0.0, -(bb.R+bb.L)/(bb.R-bb.L),
		0.0, 2.0/(bb.T-bb.B), -(bb.T+bb.B)/(bb.T-bb.B),
	)
}

// BoneScale returns a transform mapping the segment (0,0)-(1,0)
// onto the segment v0-v1.
func BoneScale(v0, v1 Vector2) Transform {

	d := v1.Sub(v0)
	return NewTransformTranspose(
		d.X, -d.Y, v0.X,
		d.Y, d.X, v0.Y,
	)
}

// AxialScale returns a transform that scales by the given factor
// along the axis through pivot in direction axis.
func AxialScale(axis, pivot Vector2, scale float64) Transform {

	a := axis.X * axis.Y * (scale - 1.0)
	b := axis.Dot(pivot) * (1.0 - scale)
	return NewTransformTranspose(
		scale*axis.X*axis.X+axis.Y*axis.Y, a, axis.X*b,
		a, axis.X*axis.X+scale*axis.Y*axis.Y, axis.Y*b,
	)
}
