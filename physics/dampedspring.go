// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"math"
)

// DampedSpringForceFunc returns the spring force for a given anchor
// distance, replacing the default Hooke's law.
type DampedSpringForceFunc func(spring *DampedSpring, dist float64) float64

// DampedSpring applies a spring force between two anchor points,
// with a damper in parallel. Unlike the joints, the spring is
// solved mostly by force: it never holds the bodies rigidly.
type DampedSpring struct {
	*Constraint

	anchorA, anchorB Vect

	restLength float64
	stiffness  float64
	damping    float64

	springForceFunc DampedSpringForceFunc

	targetVrn float64
	vCoef     float64

	r1, r2 Vect
	nMass  float64
	n      Vect

	jAcc float64
}

func defaultSpringForce(spring *DampedSpring, dist float64) float64 {

	return (spring.restLength - dist) * spring.stiffness
}

// NewDampedSpring creates a damped spring between the two bodies
// with the given body local anchors, rest length, spring constant
// and damping coefficient.
func NewDampedSpring(a, b *Body, anchorA, anchorB Vect, restLength, stiffness, damping float64) *Constraint {

	spring := &DampedSpring{
		anchorA:         anchorA,
		anchorB:         anchorB,
		restLength:      restLength,
		stiffness:       stiffness,
		damping:         damping,
		springForceFunc: defaultSpringForce,
	}
	spring.Constraint = newConstraint(spring, a, b)
	return spring.Constraint
}

// AnchorA returns the anchor on the first body.
func (spring *DampedSpring) AnchorA() Vect {

	return spring.anchorA
}

// SetAnchorA sets the anchor on the first body.
func (spring *DampedSpring) SetAnchorA(anchor Vect) {

	spring.ActivateBodies()
	spring.anchorA = anchor
}

// AnchorB returns the anchor on the second body.
func (spring *DampedSpring) AnchorB() Vect {

	return spring.anchorB
}

// SetAnchorB sets the anchor on the second body.
func (spring *DampedSpring) SetAnchorB(anchor Vect) {

	spring.ActivateBodies()
	spring.anchorB = anchor
}

// RestLength returns the rest length of the spring.
func (spring *DampedSpring) RestLength() float64 {

	return spring.restLength
}

// SetRestLength sets the rest length of the spring.
func (spring *DampedSpring) SetRestLength(restLength float64) {

	spring.ActivateBodies()
	spring.restLength = restLength
}

// Stiffness returns the spring constant.
func (spring *DampedSpring) Stiffness() float64 {

	return spring.stiffness
}

// SetStiffness sets the spring constant.
func (spring *DampedSpring) SetStiffness(stiffness float64) {

	spring.ActivateBodies()
	spring.stiffness = stiffness
}

// Damping returns the damping coefficient.
func (spring *DampedSpring) Damping() float64 {

	return spring.damping
}

// SetDamping sets the damping coefficient.
func (spring *DampedSpring) SetDamping(damping float64) {

	spring.ActivateBodies()
	spring.damping = damping
}

// SetSpringForceFunc overrides how the spring force is computed
// from the anchor distance. Pass nil to restore Hooke's law.
func (spring *DampedSpring) SetSpringForceFunc(f DampedSpringForceFunc) {

	if f == nil {
		f = defaultSpringForce
	}
	spring.springForceFunc = f
}

func (spring *DampedSpring) preStep(dt float64) {

	a := spring.a
	b := spring.b

	spring.r1 = a.transform.Vect(spring.anchorA.Sub(a.cog))
	spring.r2 = b.transform.Vect(spring.anchorB.Sub(b.cog))

	delta := b.p.Add(spring.r2).Sub(a.p.Add(spring.r1))
	dist := delta.Length()
	if dist != 0 {
		spring.n = delta.Mult(1.0 / dist)
	} else {
		spring.n = Vect{}
	}

	k := kScalar(a, b, spring.r1, spring.r2, spring.n)
	spring.nMass = 1.0 / k

	spring.targetVrn = 0
	spring.vCoef = 1.0 - math.Exp(-spring.damping*dt*k)

	// Apply the spring force directly: it does not need to be
	// iterated.
	fSpring := spring.springForceFunc(spring, dist)
	jSpring := fSpring * dt
	spring.jAcc = jSpring
	applyImpulses(a, b, spring.r1, spring.r2, spring.n.Mult(jSpring))
}

func (spring *DampedSpring) applyCachedImpulse(dtCoef float64) {

	// Springs recompute their force from scratch every step.
}

func (spring *DampedSpring) applyImpulse(dt float64) {

	a := spring.a
	b := spring.b
	n := spring.n

	vrn := normalRelativeVelocity(a, b, spring.r1, spring.r2, n)

	// Velocity loss from the damper.
	vDamp := (spring.targetVrn - vrn) * spring.vCoef
	spring.targetVrn = vrn + vDamp

	jDamp := vDamp * spring.nMass
	spring.jAcc += jDamp
	applyImpulses(a, b, spring.r1, spring.r2, n.Mult(jDamp))
}

func (spring *DampedSpring) getImpulse() float64 {

	return spring.jAcc
}
