// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"math"
)

// DampedRotarySpringTorqueFunc returns the spring torque for a
// given relative angle, replacing the default linear torque.
type DampedRotarySpringTorqueFunc func(spring *DampedRotarySpring, relativeAngle float64) float64

// DampedRotarySpring is the angular analogue of DampedSpring: it
// applies a torque proportional to the angular displacement from a
// rest angle, with damping.
type DampedRotarySpring struct {
	*Constraint

	restAngle float64
	stiffness float64
	damping   float64

	springTorqueFunc DampedRotarySpringTorqueFunc

	targetWrn float64
	wCoef     float64

	iSum float64
	jAcc float64
}

func defaultSpringTorque(spring *DampedRotarySpring, relativeAngle float64) float64 {

	return (relativeAngle - spring.restAngle) * spring.stiffness
}

// NewDampedRotarySpring creates a damped rotary spring between the
// two bodies with the given rest angle, spring constant and damping
// coefficient.
func NewDampedRotarySpring(a, b *Body, restAngle, stiffness, damping float64) *Constraint {

	spring := &DampedRotarySpring{
		restAngle:        restAngle,
		stiffness:        stiffness,
		damping:          damping,
		springTorqueFunc: defaultSpringTorque,
	}
	spring.Constraint = newConstraint(spring, a, b)
	return spring.Constraint
}

// RestAngle returns the rest angle of the spring.
func (spring *DampedRotarySpring) RestAngle() float64 {

	return spring.restAngle
}

// SetRestAngle sets the rest angle of the spring.
func (spring *DampedRotarySpring) SetRestAngle(restAngle float64) {

	spring.ActivateBodies()
	spring.restAngle = restAngle
}

// Stiffness returns the spring constant.
func (spring *DampedRotarySpring) Stiffness() float64 {

	return spring.stiffness
}

// SetStiffness sets the spring constant.
func (spring *DampedRotarySpring) SetStiffness(stiffness float64) {

	spring.ActivateBodies()
	spring.stiffness = stiffness
}

// Damping returns the damping coefficient.
func (spring *DampedRotarySpring) Damping() float64 {

	return spring.damping
}

// SetDamping sets the damping coefficient.
func (spring *DampedRotarySpring) SetDamping(damping float64) {

	spring.ActivateBodies()
	spring.damping = damping
}

// SetSpringTorqueFunc overrides how the spring torque is computed
// from the relative angle. Pass nil to restore the default.
func (spring *DampedRotarySpring) SetSpringTorqueFunc(f DampedRotarySpringTorqueFunc) {

	if f == nil {
		f = defaultSpringTorque
	}
	spring.springTorqueFunc = f
}

func (spring *DampedRotarySpring) preStep(dt float64) {

	a := spring.a
	b := spring.b

	moment := a.iInv + b.iInv
	assertSoft(moment != 0, "unsolvable rotary spring")
	spring.iSum = 1.0 / moment

	spring.wCoef = 1.0 - math.Exp(-spring.damping*dt*moment)
	spring.targetWrn = 0

	// Apply the spring torque directly.
	jSpring := spring.springTorqueFunc(spring, a.a-b.a) * dt
	spring.jAcc = jSpring
	a.w -= jSpring * a.iInv
	b.w += jSpring * b.iInv
}

func (spring *DampedRotarySpring) applyCachedImpulse(dtCoef float64) {

	// Springs recompute their torque from scratch every step.
}

func (spring *DampedRotarySpring) applyImpulse(dt float64) {

	a := spring.a
	b := spring.b

	wrn := a.w - b.w

	// Angular velocity loss from the damper.
	wDamp := (spring.targetWrn - wrn) * spring.wCoef
	spring.targetWrn = wrn + wDamp

	jDamp := wDamp * spring.iSum
	spring.jAcc += jDamp

	a.w += jDamp * a.iInv
	b.w -= jDamp * b.iInv
}

func (spring *DampedRotarySpring) getImpulse() float64 {

	return spring.jAcc
}
