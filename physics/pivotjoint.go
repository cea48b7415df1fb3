// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
)

// PivotJoint holds two anchor points together, allowing the bodies
// to rotate freely around them.
type PivotJoint struct {
	*Constraint

	anchorA, anchorB Vect

	r1, r2 Vect
	k      math2d.Matrix2

	jAcc Vect
	bias Vect
}

// NewPivotJoint creates a pivot joint at the given world point.
func NewPivotJoint(a, b *Body, pivot Vect) *Constraint {

	anchorA := a.WorldToLocal(pivot)
	anchorB := b.WorldToLocal(pivot)
	return NewPivotJoint2(a, b, anchorA, anchorB)
}

// NewPivotJoint2 creates a pivot joint from body local anchors.
func NewPivotJoint2(a, b *Body, anchorA, anchorB Vect) *Constraint {

	joint := &PivotJoint{anchorA: anchorA, anchorB: anchorB}
	joint.Constraint = newConstraint(joint, a, b)
	return joint.Constraint
}

// AnchorA returns the anchor on the first body.
func (joint *PivotJoint) AnchorA() Vect {

	return joint.anchorA
}

// SetAnchorA sets the anchor on the first body.
func (joint *PivotJoint) SetAnchorA(anchor Vect) {

	joint.ActivateBodies()
	joint.anchorA = anchor
}

// AnchorB returns the anchor on the second body.
func (joint *PivotJoint) AnchorB() Vect {

	return joint.anchorB
}

// SetAnchorB sets the anchor on the second body.
func (joint *PivotJoint) SetAnchorB(anchor Vect) {

	joint.ActivateBodies()
	joint.anchorB = anchor
}

func (joint *PivotJoint) preStep(dt float64) {

	a := joint.a
	b := joint.b

	joint.r1 = a.transform.Vect(joint.anchorA.Sub(a.cog))
	joint.r2 = b.transform.Vect(joint.anchorB.Sub(b.cog))

	joint.k = kTensor(a, b, joint.r1, joint.r2)

	delta := b.p.Add(joint.r2).Sub(a.p.Add(joint.r1))
	joint.bias = delta.Mult(-biasCoef(joint.errorBias, dt) / dt).Clamp(joint.maxBias)
}

func (joint *PivotJoint) applyCachedImpulse(dtCoef float64) {

	applyImpulses(joint.a, joint.b, joint.r1, joint.r2, joint.jAcc.Mult(dtCoef))
}

func (joint *PivotJoint) applyImpulse(dt float64) {

	a := joint.a
	b := joint.b

	vr := relativeVelocity(a, b, joint.r1, joint.r2)

	j := joint.k.Transform(joint.bias.Sub(vr))
	jOld := joint.jAcc
	joint.jAcc = jOld.Add(j).Clamp(joint.maxForce * dt)
	j = joint.jAcc.Sub(jOld)

	applyImpulses(a, b, joint.r1, joint.r2, j)
}

func (joint *PivotJoint) getImpulse() float64 {

	return joint.jAcc.Length()
}
