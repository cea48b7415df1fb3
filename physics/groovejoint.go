// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
)

// GrooveJoint pins an anchor on the second body into a groove
// (line segment) on the first.
type GrooveJoint struct {
	*Constraint

	grooveA, grooveB Vect // Groove endpoints on body a, local.
	grooveN          Vect // Groove normal, local to body a.
	anchorB          Vect

	grooveTn Vect
	clamp    float64
	r1, r2   Vect
	k        math2d.Matrix2

	jAcc Vect
	bias Vect
}

// NewGrooveJoint creates a groove joint. The groove runs from
// grooveA to grooveB on the first body, the anchor is on the
// second; all three points are body local.
func NewGrooveJoint(a, b *Body, grooveA, grooveB, anchorB Vect) *Constraint {

	joint := &GrooveJoint{
		grooveA: grooveA,
		grooveB: grooveB,
		grooveN: grooveB.Sub(grooveA).Normalize().Perp(),
		anchorB: anchorB,
	}
	joint.Constraint = newConstraint(joint, a, b)
	return joint.Constraint
}

// GrooveA returns the first groove endpoint.
func (joint *GrooveJoint) GrooveA() Vect {

	return joint.grooveA
}

// SetGrooveA sets the first groove endpoint.
func (joint *GrooveJoint) SetGrooveA(value Vect) {

	joint.grooveA = value
	joint.grooveN = joint.grooveB.Sub(value).Normalize().Perp()
	joint.ActivateBodies()
}

// GrooveB returns the second groove endpoint.
func (joint *GrooveJoint) GrooveB() Vect {

	return joint.grooveB
}

// SetGrooveB sets the second groove endpoint.
func (joint *GrooveJoint) SetGrooveB(value Vect) {

	joint.grooveB = value
	joint.grooveN = value.Sub(joint.grooveA).Normalize().Perp()
	joint.ActivateBodies()
}

// AnchorB returns the anchor on the second body.
func (joint *GrooveJoint) AnchorB() Vect {

	return joint.anchorB
}

// SetAnchorB sets the anchor on the second body.
func (joint *GrooveJoint) SetAnchorB(anchor Vect) {

	joint.ActivateBodies()
	joint.anchorB = anchor
}

func (joint *GrooveJoint) preStep(dt float64) {

	a := joint.a
	b := joint.b

	ta := a.transform.Point(joint.grooveA)
	tb := a.transform.Point(joint.grooveB)

	n := a.transform.Vect(joint.grooveN)
	d := ta.Dot(n)

	joint.grooveTn = n
	joint.r2 = b.transform.Vect(joint.anchorB.Sub(b.cog))

	// Calculate the clamping factor and r1.
	td := b.p.Add(joint.r2).Cross(n)
	if td <= ta.Cross(n) {
		joint.clamp = 1.0
		joint.r1 = ta.Sub(a.p)
	} else if td >= tb.Cross(n) {
		joint.clamp = -1.0
		joint.r1 = tb.Sub(a.p)
	} else {
		joint.clamp = 0.0
		joint.r1 = n.Perp().Mult(-td).Add(n.Mult(d)).Sub(a.p)
	}

	joint.k = kTensor(a, b, joint.r1, joint.r2)

	delta := b.p.Add(joint.r2).Sub(a.p.Add(joint.r1))
	joint.bias = delta.Mult(-biasCoef(joint.errorBias, dt) / dt).Clamp(joint.maxBias)
}

func (joint *GrooveJoint) constrain(j Vect, dt float64) Vect {

	n := joint.grooveTn

	// Clamp the impulse to the side of the groove the pin pushes
	// against, or project it onto the axis if the pin is in the
	// middle.
	var jClamp Vect
	if joint.clamp*j.Cross(n) > 0 {
		jClamp = j
	} else {
		jClamp = j.Project(n)
	}
	return jClamp.Clamp(joint.maxForce * dt)
}

func (joint *GrooveJoint) applyCachedImpulse(dtCoef float64) {

	applyImpulses(joint.a, joint.b, joint.r1, joint.r2, joint.jAcc.Mult(dtCoef))
}

func (joint *GrooveJoint) applyImpulse(dt float64) {

	a := joint.a
	b := joint.b

	vr := relativeVelocity(a, b, joint.r1, joint.r2)

	jOld := joint.jAcc
	j := joint.k.Transform(joint.bias.Sub(vr))
	joint.jAcc = joint.constrain(jOld.Add(j), dt)
	j = joint.jAcc.Sub(jOld)

	applyImpulses(a, b, joint.r1, joint.r2, j)
}

func (joint *GrooveJoint) getImpulse() float64 {

	return joint.jAcc.Length()
}
