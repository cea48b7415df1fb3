// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
)

// SimpleMotor drives the relative angular velocity of two bodies
// towards a constant rate. Cap its force with SetMaxForce to get a
// motor that can stall.
type SimpleMotor struct {
	*Constraint

	rate float64

	iSum float64
	jAcc float64
}

// NewSimpleMotor creates a simple motor spinning bodyA relative to
// bodyB at the given rate in radians per second.
func NewSimpleMotor(a, b *Body, rate float64) *Constraint {

	motor := &SimpleMotor{rate: rate}
	motor.Constraint = newConstraint(motor, a, b)
	return motor.Constraint
}

// Rate returns the target relative angular velocity.
func (motor *SimpleMotor) Rate() float64 {

	return motor.rate
}

// SetRate sets the target relative angular velocity.
func (motor *SimpleMotor) SetRate(rate float64) {

	motor.ActivateBodies()
	motor.rate = rate
}

func (motor *SimpleMotor) preStep(dt float64) {

	motor.iSum = 1.0 / (motor.a.iInv + motor.b.iInv)
}

func (motor *SimpleMotor) applyCachedImpulse(dtCoef float64) {

	j := motor.jAcc * dtCoef
	motor.a.w -= j * motor.a.iInv
	motor.b.w += j * motor.b.iInv
}

func (motor *SimpleMotor) applyImpulse(dt float64) {

	a := motor.a
	b := motor.b

	wr := b.w - a.w + motor.rate

	jMax := motor.maxForce * dt

	j := -wr * motor.iSum
	jOld := motor.jAcc
	motor.jAcc = math2d.Clamp(jOld+j, -jMax, jMax)
	j = motor.jAcc - jOld

	a.w -= j * a.iInv
	b.w += j * b.iInv
}

func (motor *SimpleMotor) getImpulse() float64 {

	return math2d.Abs(motor.jAcc)
}
