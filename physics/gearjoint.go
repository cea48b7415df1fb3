// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
)

// GearJoint keeps the angular velocity ratio of two bodies
// constant.
type GearJoint struct {
	*Constraint

	phase    float64
	ratio    float64
	ratioInv float64

	iSum float64

	bias float64
	jAcc float64
}

// NewGearJoint creates a gear joint keeping bodyB's angle times
// ratio equal to bodyA's angle plus phase.
func NewGearJoint(a, b *Body, phase, ratio float64) *Constraint {

	joint := &GearJoint{
		phase:    phase,
		ratio:    ratio,
		ratioInv: 1.0 / ratio,
	}
	joint.Constraint = newConstraint(joint, a, b)
	return joint.Constraint
}

// Phase returns the phase offset of the gears.
func (joint *GearJoint) Phase() float64 {

	return joint.phase
}

// SetPhase sets the phase offset of the gears.
func (joint *GearJoint) SetPhase(phase float64) {

	joint.ActivateBodies()
	joint.phase = phase
}

// Ratio returns the gear ratio.
func (joint *GearJoint) Ratio() float64 {

	return joint.ratio
}

// SetRatio sets the gear ratio.
func (joint *GearJoint) SetRatio(ratio float64) {

	joint.ActivateBodies()
	joint.ratio = ratio
	joint.ratioInv = 1.0 / ratio
}

func (joint *GearJoint) preStep(dt float64) {

	a := joint.a
	b := joint.b

	joint.iSum = 1.0 / (a.iInv*joint.ratioInv + joint.ratio*b.iInv)

	maxBias := joint.maxBias
	joint.bias = math2d.Clamp(
		-biasCoef(joint.errorBias, dt)*(b.a*joint.ratio-a.a-joint.phase)/dt,
		-maxBias, maxBias)
}

func (joint *GearJoint) applyCachedImpulse(dtCoef float64) {

	j := joint.jAcc * dtCoef
	joint.a.w -= j * joint.a.iInv * joint.ratioInv
	joint.b.w += j * joint.b.iInv
}

func (joint *GearJoint) applyImpulse(dt float64) {

	a := joint.a
	b := joint.b

	wr := b.w*joint.ratio - a.w

	jMax := joint.maxForce * dt

	j := (joint.bias - wr) * joint.iSum
	jOld := joint.jAcc
	joint.jAcc = math2d.Clamp(jOld+j, -jMax, jMax)
	j = joint.jAcc - jOld

	a.w -= j * a.iInv * joint.ratioInv
	b.w += j * b.iInv
}

func (joint *GearJoint) getImpulse() float64 {

	return math2d.Abs(joint.jAcc)
}
