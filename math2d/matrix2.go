// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package math2d

// Matrix2 is a 2x2 matrix used by the constraint solver for
// effective mass tensors. Stored as column vectors.
type Matrix2 struct {
	A, B, C, D float64
}

// NewMatrix2 creates a Matrix2 from the values
//
//	| A C |
//	| B D |
func NewMatrix2(a, b, c, d float64) Matrix2 {

	return Matrix2{A: a, B: b, C: c, D: d}
}

// Transform applies the matrix to v.
func (m Matrix2) Transform(v Vector2) Vector2 {

	return Vector2{v.X*m.A + v.Y*m.C, v.X*m.B + v.Y*m.D}
}
