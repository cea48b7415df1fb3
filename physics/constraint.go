// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
)

// Solver utilities shared by the contact solver and the constraint
// implementations.

func applyImpulse(body *Body, j, r Vect) {

	body.v = body.v.Add(j.Mult(body.mInv))
	body.w += body.iInv * r.Cross(j)
}

func applyImpulses(a, b *Body, r1, r2, j Vect) {

	applyImpulse(a, j.Neg(), r1)
	applyImpulse(b, j, r2)
}

func applyBiasImpulse(body *Body, j, r Vect) {

	body.vBias = body.vBias.Add(j.Mult(body.mInv))
	body.wBias += body.iInv * r.Cross(j)
}

func applyBiasImpulses(a, b *Body, r1, r2, j Vect) {

	applyBiasImpulse(a, j.Neg(), r1)
	applyBiasImpulse(b, j, r2)
}

func relativeVelocity(a, b *Body, r1, r2 Vect) Vect {

	v1 := a.v.Add(r1.Perp().Mult(a.w))
	v2 := b.v.Add(r2.Perp().Mult(b.w))
	return v2.Sub(v1)
}

func normalRelativeVelocity(a, b *Body, r1, r2, n Vect) float64 {

	return relativeVelocity(a, b, r1, r2).Dot(n)
}

func kScalarBody(body *Body, r, n Vect) float64 {

	rcn := r.Cross(n)
	return body.mInv + body.iInv*rcn*rcn
}

// kScalar returns the effective mass seen along direction n at the
// contact offsets r1 and r2.
func kScalar(a, b *Body, r1, r2, n Vect) float64 {

	value := kScalarBody(a, r1, n) + kScalarBody(b, r2, n)
	assertSoft(value != 0, "unsolvable collision or constraint")
	return value
}

// kTensor returns the inverted 2x2 effective mass tensor for a
// point-to-point style constraint.
func kTensor(a, b *Body, r1, r2 Vect) math2d.Matrix2 {

	mSum := a.mInv + b.mInv

	// Start with Identity*mSum.
	k11 := mSum
	k12 := 0.0
	k21 := 0.0
	k22 := mSum

	// Add the influence from r1.
	aiInv := a.iInv
	r1xsq := r1.X * r1.X * aiInv
	r1ysq := r1.Y * r1.Y * aiInv
	r1nxy := -r1.X * r1.Y * aiInv
	k11 += r1ysq
	k12 += r1nxy
	k21 += r1nxy
	k22 += r1xsq

	// Add the influence from r2.
	biInv := b.iInv
	r2xsq := r2.X * r2.X * biInv
	r2ysq := r2.Y * r2.Y * biInv
	r2nxy := -r2.X * r2.Y * biInv
	k11 += r2ysq
	k12 += r2nxy
	k21 += r2nxy
	k22 += r2xsq

	det := k11*k22 - k12*k21
	assertSoft(det != 0, "unsolvable constraint")

	detInv := 1.0 / det
	return math2d.NewMatrix2(
		k22*detInv, -k21*detInv,
		-k12*detInv, k11*detInv,
	)
}

// biasCoef converts an error bias (remaining error fraction per
// second) to a per-step correction coefficient.
func biasCoef(errorBias, dt float64) float64 {

	return 1.0 - math2d.Pow(errorBias, dt)
}

// constraintClass is the per-variant behavior of a constraint.
type constraintClass interface {
	// preStep computes the per-step constants: anchors, effective
	// masses and position error bias.
	preStep(dt float64)

	// applyCachedImpulse warm starts the constraint with last
	// step's impulse scaled by the timestep ratio.
	applyCachedImpulse(dtCoef float64)

	// applyImpulse runs one solver iteration. The implementation
	// must clamp its total impulse to maxForce*dt.
	applyImpulse(dt float64)

	// getImpulse returns the magnitude of the most recent impulse.
	getImpulse() float64
}

// ConstraintSolveFunc is a pre or post solve callback on a
// constraint.
type ConstraintSolveFunc func(constraint *Constraint, space *Space)

// Constraint is a joint, spring or motor connecting two bodies. The
// concrete behavior is one of PinJoint, SlideJoint, PivotJoint,
// GrooveJoint, DampedSpring, DampedRotarySpring, RotaryLimitJoint,
// RatchetJoint, GearJoint or SimpleMotor.
type Constraint struct {
	class constraintClass

	space *Space

	a, b         *Body
	nextA, nextB *Constraint

	maxForce  float64
	errorBias float64
	maxBias   float64

	collideBodies bool

	preSolve  ConstraintSolveFunc
	postSolve ConstraintSolveFunc

	userData interface{}
}

func newConstraint(class constraintClass, a, b *Body) *Constraint {

	return &Constraint{
		class:         class,
		a:             a,
		b:             b,
		maxForce:      math2d.Infinity,
		errorBias:     math2d.Pow(1.0-0.1, 60.0),
		maxBias:       math2d.Infinity,
		collideBodies: true,
	}
}

// next returns the next constraint in the given body's constraint
// list.
func (constraint *Constraint) next(body *Body) *Constraint {

	if constraint.a == body {
		return constraint.nextA
	}
	return constraint.nextB
}

// Space returns the space the constraint has been added to, or nil.
func (constraint *Constraint) Space() *Space {

	return constraint.space
}

// BodyA returns the first of the two constrained bodies.
func (constraint *Constraint) BodyA() *Body {

	return constraint.a
}

// BodyB returns the second of the two constrained bodies.
func (constraint *Constraint) BodyB() *Body {

	return constraint.b
}

// ActivateBodies wakes the two constrained bodies.
func (constraint *Constraint) ActivateBodies() {

	constraint.a.Activate()
	constraint.b.Activate()
}

// MaxForce returns the maximum force the constraint may apply.
func (constraint *Constraint) MaxForce() float64 {

	return constraint.maxForce
}

// SetMaxForce limits the force the constraint may apply per second.
func (constraint *Constraint) SetMaxForce(force float64) {

	assert(force >= 0, "max force must be non-negative")
	constraint.ActivateBodies()
	constraint.maxForce = force
}

// ErrorBias returns the constraint's position error bias.
func (constraint *Constraint) ErrorBias() float64 {

	return constraint.errorBias
}

// SetErrorBias sets the fraction of the constraint's position error
// that remains unfixed after a second. The default corrects 10% of
// the error every 1/60th of a second.
func (constraint *Constraint) SetErrorBias(bias float64) {

	assert(bias >= 0, "error bias must be non-negative")
	constraint.ActivateBodies()
	constraint.errorBias = bias
}

// MaxBias returns the maximum speed at which position error is
// corrected.
func (constraint *Constraint) MaxBias() float64 {

	return constraint.maxBias
}

// SetMaxBias limits the speed at which position error is corrected.
func (constraint *Constraint) SetMaxBias(bias float64) {

	assert(bias >= 0, "max bias must be non-negative")
	constraint.ActivateBodies()
	constraint.maxBias = bias
}

// CollideBodies reports whether the two constrained bodies still
// collide with each other.
func (constraint *Constraint) CollideBodies() bool {

	return constraint.collideBodies
}

// SetCollideBodies sets whether the two constrained bodies collide
// with each other.
func (constraint *Constraint) SetCollideBodies(collide bool) {

	constraint.ActivateBodies()
	constraint.collideBodies = collide
}

// PreSolveFunc returns the constraint's pre-solve callback.
func (constraint *Constraint) PreSolveFunc() ConstraintSolveFunc {

	return constraint.preSolve
}

// SetPreSolveFunc sets a callback invoked just before the
// constraint is prepared for solving each step.
func (constraint *Constraint) SetPreSolveFunc(f ConstraintSolveFunc) {

	constraint.preSolve = f
}

// PostSolveFunc returns the constraint's post-solve callback.
func (constraint *Constraint) PostSolveFunc() ConstraintSolveFunc {

	return constraint.postSolve
}

// SetPostSolveFunc sets a callback invoked after the solver has run
// each step.
func (constraint *Constraint) SetPostSolveFunc(f ConstraintSolveFunc) {

	constraint.postSolve = f
}

// UserData returns the user data pointer of the constraint.
func (constraint *Constraint) UserData() interface{} {

	return constraint.userData
}

// SetUserData sets the user data pointer of the constraint.
func (constraint *Constraint) SetUserData(data interface{}) {

	constraint.userData = data
}

// GetImpulse returns the magnitude of the impulse the constraint
// applied during the last step, for reading off reaction forces.
func (constraint *Constraint) GetImpulse() float64 {

	return constraint.class.getImpulse()
}

// Class returns the concrete constraint implementation, for use
// with a type switch or assertion.
func (constraint *Constraint) Class() interface{} {

	return constraint.class
}
