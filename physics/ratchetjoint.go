// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"math"

	"github.com/impulse2d/engine/math2d"
)

// RatchetJoint lets the relative angle of two bodies advance freely
// in one direction while catching in clicks of a fixed size in the
// other, like a socket wrench.
type RatchetJoint struct {
	*Constraint

	angle   float64
	phase   float64
	ratchet float64

	iSum float64

	bias float64
	jAcc float64
}

// NewRatchetJoint creates a ratchet joint. ratchet is the click
// angle; phase offsets where the clicks fall.
func NewRatchetJoint(a, b *Body, phase, ratchet float64) *Constraint {

	joint := &RatchetJoint{
		phase:   phase,
		ratchet: ratchet,
		angle:   b.a - a.a,
	}
	joint.Constraint = newConstraint(joint, a, b)
	return joint.Constraint
}

// Angle returns the ratchet's current caught angle.
func (joint *RatchetJoint) Angle() float64 {

	return joint.angle
}

// SetAngle sets the ratchet's caught angle.
func (joint *RatchetJoint) SetAngle(angle float64) {

	joint.ActivateBodies()
	joint.angle = angle
}

// Phase returns the click phase offset.
func (joint *RatchetJoint) Phase() float64 {

	return joint.phase
}

// SetPhase sets the click phase offset.
func (joint *RatchetJoint) SetPhase(phase float64) {

	joint.ActivateBodies()
	joint.phase = phase
}

// Ratchet returns the click angle.
func (joint *RatchetJoint) Ratchet() float64 {

	return joint.ratchet
}

// SetRatchet sets the click angle.
func (joint *RatchetJoint) SetRatchet(ratchet float64) {

	joint.ActivateBodies()
	joint.ratchet = ratchet
}

func (joint *RatchetJoint) preStep(dt float64) {

	a := joint.a
	b := joint.b

	angle := joint.angle
	phase := joint.phase
	ratchet := joint.ratchet

	delta := b.a - a.a
	diff := angle - delta
	pdist := 0.0

	if diff*ratchet > 0 {
		pdist = diff
	} else {
		joint.angle = math.Floor((delta-phase)/ratchet)*ratchet + phase
	}

	joint.iSum = 1.0 / (a.iInv + b.iInv)

	maxBias := joint.maxBias
	joint.bias = math2d.Clamp(-biasCoef(joint.errorBias, dt)*pdist/dt, -maxBias, maxBias)

	// The ratchet is not catching; don't carry an impulse over.
	if joint.bias == 0 {
		joint.jAcc = 0
	}
}

func (joint *RatchetJoint) applyCachedImpulse(dtCoef float64) {

	j := joint.jAcc * dtCoef
	joint.a.w -= j * joint.a.iInv
	joint.b.w += j * joint.b.iInv
}

func (joint *RatchetJoint) applyImpulse(dt float64) {

	if joint.bias == 0 {
		return
	}

	a := joint.a
	b := joint.b

	wr := b.w - a.w
	ratchet := joint.ratchet

	jMax := joint.maxForce * dt

	j := -(joint.bias + wr) * joint.iSum
	jOld := joint.jAcc
	joint.jAcc = math2d.Clamp((jOld+j)*ratchet, 0, jMax*math2d.Abs(ratchet)) / ratchet
	j = joint.jAcc - jOld

	a.w -= j * a.iInv
	b.w += j * b.iInv
}

func (joint *RatchetJoint) getImpulse() float64 {

	return math2d.Abs(joint.jAcc)
}
