// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
)

// PinJoint holds two anchor points at a fixed distance from each
// other, like a massless rigid rod between the bodies.
type PinJoint struct {
	*Constraint

	anchorA, anchorB Vect
	dist             float64

	r1, r2 Vect
	n      Vect
	nMass  float64

	jnAcc float64
	bias  float64
}

// NewPinJoint creates a pin joint between the two bodies with the
// given body local anchor points. The rod length is the distance
// between the anchors when the joint is created.
func NewPinJoint(a, b *Body, anchorA, anchorB Vect) *Constraint {

	joint := &PinJoint{anchorA: anchorA, anchorB: anchorB}
	joint.Constraint = newConstraint(joint, a, b)

	joint.dist = b.LocalToWorld(anchorB).Sub(a.LocalToWorld(anchorA)).Length()
	assertSoft(joint.dist > 5.0*magicEpsilon,
		"two bodies were pinned at the same location; consider a pivot joint instead")

	return joint.Constraint
}

// AnchorA returns the anchor on the first body.
func (joint *PinJoint) AnchorA() Vect {

	return joint.anchorA
}

// SetAnchorA sets the anchor on the first body.
func (joint *PinJoint) SetAnchorA(anchor Vect) {

	joint.ActivateBodies()
	joint.anchorA = anchor
}

// AnchorB returns the anchor on the second body.
func (joint *PinJoint) AnchorB() Vect {

	return joint.anchorB
}

// SetAnchorB sets the anchor on the second body.
func (joint *PinJoint) SetAnchorB(anchor Vect) {

	joint.ActivateBodies()
	joint.anchorB = anchor
}

// Dist returns the rod length.
func (joint *PinJoint) Dist() float64 {

	return joint.dist
}

// SetDist sets the rod length.
func (joint *PinJoint) SetDist(dist float64) {

	joint.ActivateBodies()
	joint.dist = dist
}

func (joint *PinJoint) preStep(dt float64) {

	a := joint.a
	b := joint.b

	joint.r1 = a.transform.Vect(joint.anchorA.Sub(a.cog))
	joint.r2 = b.transform.Vect(joint.anchorB.Sub(b.cog))

	delta := b.p.Add(joint.r2).Sub(a.p.Add(joint.r1))
	dist := delta.Length()
	if dist != 0 {
		joint.n = delta.Mult(1.0 / dist)
	} else {
		joint.n = Vect{}
	}

	joint.nMass = 1.0 / kScalar(a, b, joint.r1, joint.r2, joint.n)

	maxBias := joint.maxBias
	joint.bias = math2d.Clamp(-biasCoef(joint.errorBias, dt)*(dist-joint.dist)/dt, -maxBias, maxBias)
}

func (joint *PinJoint) applyCachedImpulse(dtCoef float64) {

	j := joint.n.Mult(joint.jnAcc * dtCoef)
	applyImpulses(joint.a, joint.b, joint.r1, joint.r2, j)
}

func (joint *PinJoint) applyImpulse(dt float64) {

	a := joint.a
	b := joint.b
	n := joint.n

	vrn := normalRelativeVelocity(a, b, joint.r1, joint.r2, n)

	jnMax := joint.maxForce * dt

	jn := (joint.bias - vrn) * joint.nMass
	jnOld := joint.jnAcc
	joint.jnAcc = math2d.Clamp(jnOld+jn, -jnMax, jnMax)
	jn = joint.jnAcc - jnOld

	applyImpulses(a, b, joint.r1, joint.r2, n.Mult(jn))
}

func (joint *PinJoint) getImpulse() float64 {

	return math2d.Abs(joint.jnAcc)
}
