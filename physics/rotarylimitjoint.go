// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
)

// RotaryLimitJoint constrains the relative angle of two bodies to
// a range.
type RotaryLimitJoint struct {
	*Constraint

	min, max float64

	iSum float64

	bias float64
	jAcc float64
}

// NewRotaryLimitJoint creates a rotary limit joint keeping the
// relative angle between min and max radians.
func NewRotaryLimitJoint(a, b *Body, min, max float64) *Constraint {

	joint := &RotaryLimitJoint{min: min, max: max}
	joint.Constraint = newConstraint(joint, a, b)
	return joint.Constraint
}

// Min returns the minimum relative angle.
func (joint *RotaryLimitJoint) Min() float64 {

	return joint.min
}

// SetMin sets the minimum relative angle.
func (joint *RotaryLimitJoint) SetMin(min float64) {

	joint.ActivateBodies()
	joint.min = min
}

// Max returns the maximum relative angle.
func (joint *RotaryLimitJoint) Max() float64 {

	return joint.max
}

// SetMax sets the maximum relative angle.
func (joint *RotaryLimitJoint) SetMax(max float64) {

	joint.ActivateBodies()
	joint.max = max
}

func (joint *RotaryLimitJoint) preStep(dt float64) {

	a := joint.a
	b := joint.b

	dist := b.a - a.a
	pdist := 0.0
	if dist > joint.max {
		pdist = joint.max - dist
	} else if dist < joint.min {
		pdist = joint.min - dist
	}

	joint.iSum = 1.0 / (a.iInv + b.iInv)

	maxBias := joint.maxBias
	joint.bias = math2d.Clamp(-biasCoef(joint.errorBias, dt)*pdist/dt, -maxBias, maxBias)

	// Not at a limit; don't carry an impulse over.
	if joint.bias == 0 {
		joint.jAcc = 0
	}
}

func (joint *RotaryLimitJoint) applyCachedImpulse(dtCoef float64) {

	j := joint.jAcc * dtCoef
	joint.a.w -= j * joint.a.iInv
	joint.b.w += j * joint.b.iInv
}

func (joint *RotaryLimitJoint) applyImpulse(dt float64) {

	if joint.bias == 0 {
		return
	}

	a := joint.a
	b := joint.b

	wr := b.w - a.w

	jMax := joint.maxForce * dt

	j := -(joint.bias + wr) * joint.iSum
	jOld := joint.jAcc
	if joint.bias < 0 {
		joint.jAcc = math2d.Clamp(jOld+j, 0, jMax)
	} else {
		joint.jAcc = math2d.Clamp(jOld+j, -jMax, 0)
	}
	j = joint.jAcc - jOld

	a.w -= j * a.iInv
	b.w += j * b.iInv
}

func (joint *RotaryLimitJoint) getImpulse() float64 {

	return math2d.Abs(joint.jAcc)
}
