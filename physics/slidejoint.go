// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
)

// SlideJoint holds the distance between two anchor points inside a
// range, like a pin joint with slack.
type SlideJoint struct {
	*Constraint

	anchorA, anchorB Vect
	min, max         float64

	r1, r2 Vect
	n      Vect
	nMass  float64

	jnAcc float64
	bias  float64
}

// NewSlideJoint creates a slide joint between the two bodies with
// the given body local anchors and distance range.
func NewSlideJoint(a, b *Body, anchorA, anchorB Vect, min, max float64) *Constraint {

	assert(min <= max, "slide joint minimum must not exceed its maximum")

	joint := &SlideJoint{
		anchorA: anchorA,
		anchorB: anchorB,
		min:     min,
		max:     max,
	}
	joint.Constraint = newConstraint(joint, a, b)
	return joint.Constraint
}

// AnchorA returns the anchor on the first body.
func (joint *SlideJoint) AnchorA() Vect {

	return joint.anchorA
}

// SetAnchorA sets the anchor on the first body.
func (joint *SlideJoint) SetAnchorA(anchor Vect) {

	joint.ActivateBodies()
	joint.anchorA = anchor
}

// AnchorB returns the anchor on the second body.
func (joint *SlideJoint) AnchorB() Vect {

	return joint.anchorB
}

// SetAnchorB sets the anchor on the second body.
func (joint *SlideJoint) SetAnchorB(anchor Vect) {

	joint.ActivateBodies()
	joint.anchorB = anchor
}

// Min returns the minimum allowed anchor distance.
func (joint *SlideJoint) Min() float64 {

	return joint.min
}

// SetMin sets the minimum allowed anchor distance.
func (joint *SlideJoint) SetMin(min float64) {

	joint.ActivateBodies()
	joint.min = min
}

// Max returns the maximum allowed anchor distance.
func (joint *SlideJoint) Max() float64 {

	return joint.max
}

// SetMax sets the maximum allowed anchor distance.
func (joint *SlideJoint) SetMax(max float64) {

	joint.ActivateBodies()
	joint.max = max
}

func (joint *SlideJoint) preStep(dt float64) {

	a := joint.a
	b := joint.b

	joint.r1 = a.transform.Vect(joint.anchorA.Sub(a.cog))
	joint.r2 = b.transform.Vect(joint.anchorB.Sub(b.cog))

	delta := b.p.Add(joint.r2).Sub(a.p.Add(joint.r1))
	dist := delta.Length()
	pdist := 0.0
	if dist > joint.max {
		pdist = dist - joint.max
		joint.n = delta.Normalize()
	} else if dist < joint.min {
		pdist = joint.min - dist
		joint.n = delta.Normalize().Neg()
	} else {
		// Inside the allowed range; no constraint force needed.
		joint.n = Vect{}
		joint.jnAcc = 0
	}

	joint.nMass = 1.0 / kScalar(a, b, joint.r1, joint.r2, joint.n)

	maxBias := joint.maxBias
	joint.bias = math2d.Clamp(-biasCoef(joint.errorBias, dt)*pdist/dt, -maxBias, maxBias)
}

func (joint *SlideJoint) applyCachedImpulse(dtCoef float64) {

	j := joint.n.Mult(joint.jnAcc * dtCoef)
	applyImpulses(joint.a, joint.b, joint.r1, joint.r2, j)
}

func (joint *SlideJoint) applyImpulse(dt float64) {

	if joint.n.Equal(Vect{}) {
		return
	}

	a := joint.a
	b := joint.b
	n := joint.n

	vrn := normalRelativeVelocity(a, b, joint.r1, joint.r2, n)

	jn := (joint.bias - vrn) * joint.nMass
	jnOld := joint.jnAcc
	joint.jnAcc = math2d.Clamp(jnOld+jn, -joint.maxForce*dt, 0)
	jn = joint.jnAcc - jnOld

	applyImpulses(a, b, joint.r1, joint.r2, n.Mult(jn))
}

func (joint *SlideJoint) getImpulse() float64 {

	return math2d.Abs(joint.jnAcc)
}
