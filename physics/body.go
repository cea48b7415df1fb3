// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
)

// BodyType specifies how a body behaves during simulation.
type BodyType int

const (
	// BodyDynamic bodies are fully simulated: they react to forces,
	// collisions and constraints. A dynamic body always has finite,
	// positive mass and moment.
	BodyDynamic = BodyType(iota)

	// BodyKinematic bodies advance under their own velocity but do
	// not respond to collision impulses or forces. The solver treats
	// their mass as infinite.
	BodyKinematic

	// BodyStatic bodies never move during simulation. Moving one
	// manually requires reindexing its shapes.
	BodyStatic
)

// BodyVelocityFunc integrates a body's velocity over dt.
type BodyVelocityFunc func(body *Body, gravity Vect, damping, dt float64)

// BodyPositionFunc integrates a body's position over dt.
type BodyPositionFunc func(body *Body, dt float64)

// Body represents a rigid body: a hunk of mass with a position, an
// orientation and velocities, to which shapes and constraints
// attach.
type Body struct {
	// Integration hooks. Default to BodyUpdateVelocity and
	// BodyUpdatePosition.
	velocityFunc BodyVelocityFunc
	positionFunc BodyPositionFunc

	// Mass and moment with cached inverses.
	m, mInv float64
	i, iInv float64

	cog Vect // Center of gravity in body local coordinates.
	p   Vect // World position of the center of gravity.
	v   Vect // Linear velocity of the center of gravity.
	f   Vect // Force applied to the center of gravity.

	a float64 // Angle in radians.
	w float64 // Angular velocity.
	t float64 // Torque.

	vLimit float64 // Maximum linear speed.
	wLimit float64 // Maximum angular speed.

	// Cached rigid transform mapping body local coordinates to
	// world coordinates. Kept in lock-step with p and a.
	transform math2d.Transform

	userData interface{}

	// Bias velocities used by the solver for position correction.
	// They only ever feed the position integration.
	vBias Vect
	wBias float64

	space *Space

	shapeList      []*Shape
	arbiterList    *Arbiter
	constraintList *Constraint

	sleepingRoot     *Body
	sleepingNext     *Body
	sleepingIdleTime float64
}

// NewBody creates and returns a pointer to a new dynamic body with
// the given mass and moment of inertia. Use the MomentFor* helpers
// to compute a useful moment for a shape.
func NewBody(mass, moment float64) *Body {

	body := &Body{
		transform: math2d.TransformIdentity,
		vLimit:    math2d.Infinity,
		wLimit:    math2d.Infinity,
	}
	body.velocityFunc = BodyUpdateVelocity
	body.positionFunc = BodyUpdatePosition

	body.SetMass(mass)
	body.SetMoment(moment)
	body.SetAngle(0)

	return body
}

// NewKinematicBody creates and returns a pointer to a new kinematic
// body.
func NewKinematicBody() *Body {

	body := NewBody(0, 0)
	body.SetType(BodyKinematic)
	return body
}

// NewStaticBody creates and returns a pointer to a new static body.
func NewStaticBody() *Body {

	body := NewBody(0, 0)
	body.SetType(BodyStatic)
	return body
}

// Type returns the type of the body.
func (body *Body) Type() BodyType {

	if body.sleepingIdleTime == math2d.Infinity {
		return BodyStatic
	}
	if body.mInv == 0 && body.iInv == 0 {
		return BodyKinematic
	}
	return BodyDynamic
}

// SetType converts the body to the given type, moving its shapes
// between the space's dynamic and static indexes as required. Must
// not be called while the space is stepping.
func (body *Body) SetType(newType BodyType) {

	oldType := body.Type()
	if oldType == newType {
		return
	}

	// Static bodies are held with an infinite idle timer so they
	// never participate in sleeping components.
	if newType == BodyStatic {
		body.sleepingIdleTime = math2d.Infinity
	} else {
		body.sleepingIdleTime = 0
	}

	if newType == BodyDynamic {
		body.m = 0
		body.i = 0
		body.mInv = math2d.Infinity
		body.iInv = math2d.Infinity
		body.AccumulateMassFromShapes()
	} else {
		body.m = math2d.Infinity
		body.i = math2d.Infinity
		body.mInv = 0
		body.iInv = 0
		body.v = Vect{}
		body.w = 0
	}

	space := body.space
	if space == nil {
		return
	}
	assert(!space.IsLocked(), "body type changed while the space is stepping: defer to a post-step callback")

	if oldType != BodyStatic {
		body.Activate()
	}

	fromArray := space.arrayForBodyType(oldType)
	toArray := space.arrayForBodyType(newType)
	if fromArray != toArray {
		arrayDelete(fromArray, body)
		*toArray = append(*toArray, body)
	}

	fromIndex := space.indexForBodyType(oldType)
	toIndex := space.indexForBodyType(newType)
	if fromIndex != toIndex {
		for _, shape := range body.shapeList {
			fromIndex.Remove(shape, shape.hashid)
			toIndex.Insert(shape, shape.hashid)
		}
	}
}

// Space returns the space the body has been added to, or nil.
func (body *Body) Space() *Space {

	return body.space
}

// Mass returns the mass of the body.
func (body *Body) Mass() float64 {

	return body.m
}

// SetMass sets the mass of the body.
func (body *Body) SetMass(mass float64) {

	assert(mass >= 0 && mass < math2d.Infinity, "mass must be positive and finite")

	body.Activate()
	body.m = mass
	if mass == 0 {
		body.mInv = math2d.Infinity
	} else {
		body.mInv = 1.0 / mass
	}
}

// Moment returns the moment of inertia of the body.
func (body *Body) Moment() float64 {

	return body.i
}

// SetMoment sets the moment of inertia of the body.
func (body *Body) SetMoment(moment float64) {

	assert(moment >= 0, "moment of inertia must be positive")

	body.Activate()
	body.i = moment
	if moment == 0 {
		body.iInv = math2d.Infinity
	} else {
		body.iInv = 1.0 / moment
	}
}

// AccumulateMassFromShapes recalculates the body's mass, moment and
// center of gravity by summing the mass properties of shapes that
// were given a mass or density of their own.
func (body *Body) AccumulateMassFromShapes() {

	if body == nil || body.Type() != BodyDynamic {
		return
	}

	body.m = 0
	body.i = 0
	body.cog = Vect{}

	// Cache the position to realign the body when the CoG moves.
	pos := body.Position()

	for _, shape := range body.shapeList {
		info := shape.massInfo
		m := info.Mass

		if m > 0 {
			msum := body.m + m
			body.i += m*info.Moment + body.cog.DistSq(info.Cog)*(m*body.m)/msum
			body.cog = body.cog.Lerp(info.Cog, m/msum)
			body.m = msum
		}
	}

	if body.m == 0 {
		body.mInv = math2d.Infinity
	} else {
		body.mInv = 1.0 / body.m
	}
	if body.i == 0 {
		body.iInv = math2d.Infinity
	} else {
		body.iInv = 1.0 / body.i
	}

	body.SetPosition(pos)
}

// setTransform rebuilds the cached local to world transform from
// the CoG position and angle.
func (body *Body) setTransform(p Vect, a float64) {

	rot := math2d.ForAngle(a)
	c := body.cog

	body.transform = math2d.NewTransformTranspose(
		rot.X, -rot.Y, p.X-(c.X*rot.X-c.Y*rot.Y),
		rot.Y, rot.X, p.Y-(c.X*rot.Y+c.Y*rot.X),
	)
}

// Transform returns the body's local to world rigid transform.
func (body *Body) Transform() math2d.Transform {

	return body.transform
}

// Position returns the position of the body's coordinate origin.
func (body *Body) Position() Vect {

	return body.transform.Point(Vect{})
}

// SetPosition moves the body to the given position. If the body is
// in a space, its shapes must be reindexed for queries to see the
// new position before the next step.
func (body *Body) SetPosition(position Vect) {

	body.Activate()
	body.p = body.transform.Vect(body.cog).Add(position)
	body.setTransform(body.p, body.a)
}

// CenterOfGravity returns the body's center of gravity in body
// local coordinates.
func (body *Body) CenterOfGravity() Vect {

	return body.cog
}

// SetCenterOfGravity sets the body's center of gravity in body
// local coordinates.
func (body *Body) SetCenterOfGravity(cog Vect) {

	body.Activate()
	body.cog = cog
	body.setTransform(body.p, body.a)
}

// Angle returns the rotation angle of the body in radians.
func (body *Body) Angle() float64 {

	return body.a
}

// SetAngle sets the rotation angle of the body in radians. The
// angle is not normalized into any particular interval.
func (body *Body) SetAngle(angle float64) {

	body.Activate()
	body.a = angle
	body.setTransform(body.p, angle)
}

// Rotation returns the body's rotation as the unit vector
// (cos(angle), sin(angle)).
func (body *Body) Rotation() Vect {

	return math2d.Vect(body.transform.A, body.transform.B)
}

// Velocity returns the linear velocity of the body's center of
// gravity.
func (body *Body) Velocity() Vect {

	return body.v
}

// SetVelocityVector sets the linear velocity of the body's center
// of gravity.
func (body *Body) SetVelocityVector(velocity Vect) {

	body.Activate()
	body.v = velocity
}

// SetVelocity sets the linear velocity from its components.
func (body *Body) SetVelocity(x, y float64) {

	body.SetVelocityVector(math2d.Vect(x, y))
}

// AngularVelocity returns the angular velocity of the body in
// radians per second.
func (body *Body) AngularVelocity() float64 {

	return body.w
}

// SetAngularVelocity sets the angular velocity of the body in
// radians per second.
func (body *Body) SetAngularVelocity(w float64) {

	body.Activate()
	body.w = w
}

// VelocityLimit returns the body's maximum linear speed.
func (body *Body) VelocityLimit() float64 {

	return body.vLimit
}

// SetVelocityLimit sets the body's maximum linear speed.
func (body *Body) SetVelocityLimit(limit float64) {

	body.vLimit = limit
}

// AngularVelocityLimit returns the body's maximum angular speed.
func (body *Body) AngularVelocityLimit() float64 {

	return body.wLimit
}

// SetAngularVelocityLimit sets the body's maximum angular speed.
func (body *Body) SetAngularVelocityLimit(limit float64) {

	body.wLimit = limit
}

// Force returns the force applied to the body for the next step.
func (body *Body) Force() Vect {

	return body.f
}

// SetForce sets the force applied to the body for the next step.
func (body *Body) SetForce(force Vect) {

	body.Activate()
	body.f = force
}

// Torque returns the torque applied to the body for the next step.
func (body *Body) Torque() float64 {

	return body.t
}

// SetTorque sets the torque applied to the body for the next step.
func (body *Body) SetTorque(torque float64) {

	body.Activate()
	body.t = torque
}

// UserData returns the user data pointer of the body.
func (body *Body) UserData() interface{} {

	return body.userData
}

// SetUserData sets the user data pointer of the body.
func (body *Body) SetUserData(data interface{}) {

	body.userData = data
}

// SetVelocityUpdateFunc overrides how the body's velocity is
// integrated. Pass nil to restore the default.
func (body *Body) SetVelocityUpdateFunc(f BodyVelocityFunc) {

	if f == nil {
		f = BodyUpdateVelocity
	}
	body.velocityFunc = f
}

// SetPositionUpdateFunc overrides how the body's position is
// integrated. Pass nil to restore the default.
func (body *Body) SetPositionUpdateFunc(f BodyPositionFunc) {

	if f == nil {
		f = BodyUpdatePosition
	}
	body.positionFunc = f
}

// LocalToWorld converts from body local coordinates to world
// coordinates.
func (body *Body) LocalToWorld(point Vect) Vect {

	return body.transform.Point(point)
}

// WorldToLocal converts from world coordinates to body local
// coordinates.
func (body *Body) WorldToLocal(point Vect) Vect {

	return math2d.NewTransformRigidInverse(body.transform).Point(point)
}

// KineticEnergy returns the kinetic energy of the body.
func (body *Body) KineticEnergy() float64 {

	// The conditionals avoid 0*INFINITY NaNs for infinite mass
	// bodies at rest.
	vsq := body.v.Dot(body.v)
	wsq := body.w * body.w

	e := 0.0
	if vsq != 0 {
		e += vsq * body.m
	}
	if wsq != 0 {
		e += wsq * body.i
	}
	return e
}

// velocityAt returns the velocity of a point at offset r from the
// center of gravity.
func (body *Body) velocityAt(r Vect) Vect {

	return body.v.Add(r.Perp().Mult(body.w))
}

// VelocityAtWorldPoint returns the velocity of the body at the
// given world point.
func (body *Body) VelocityAtWorldPoint(point Vect) Vect {

	return body.velocityAt(point.Sub(body.p))
}

// VelocityAtLocalPoint returns the velocity of the body at the
// given body local point.
func (body *Body) VelocityAtLocalPoint(point Vect) Vect {

	return body.velocityAt(body.transform.Point(point).Sub(body.p))
}

// ApplyForceAtWorldPoint accumulates the given force applied at a
// world point into the body's force and torque.
func (body *Body) ApplyForceAtWorldPoint(force, point Vect) {

	body.Activate()
	body.f = body.f.Add(force)
	body.t += point.Sub(body.p).Cross(force)
}

// ApplyForceAtLocalPoint accumulates the given body local force
// applied at a body local point.
func (body *Body) ApplyForceAtLocalPoint(force, point Vect) {

	body.ApplyForceAtWorldPoint(body.transform.Vect(force), body.transform.Point(point))
}

// ApplyImpulseAtWorldPoint immediately changes the body's
// velocities by the given impulse applied at a world point.
func (body *Body) ApplyImpulseAtWorldPoint(impulse, point Vect) {

	body.Activate()
	applyImpulse(body, impulse, point.Sub(body.p))
}

// ApplyImpulseAtLocalPoint immediately changes the body's
// velocities by the given body local impulse applied at a body
// local point.
func (body *Body) ApplyImpulseAtLocalPoint(impulse, point Vect) {

	body.ApplyImpulseAtWorldPoint(body.transform.Vect(impulse), body.transform.Point(point))
}

// BodyUpdateVelocity is the default velocity integrator: it applies
// gravity, damping and the accumulated force, then clamps the
// result to the body's velocity limits.
func BodyUpdateVelocity(body *Body, gravity Vect, damping, dt float64) {

	if body.Type() == BodyKinematic {
		return
	}

	assertSoft(body.m > 0 && body.i > 0,
		"body's mass and moment must be positive to simulate (mass: %v moment: %v)", body.m, body.i)

	body.v = body.v.Mult(damping).Add(gravity.Add(body.f.Mult(body.mInv)).Mult(dt)).Clamp(body.vLimit)
	body.w = math2d.Clamp(body.w*damping+body.t*body.iInv*dt, -body.wLimit, body.wLimit)

	body.f = Vect{}
	body.t = 0
}

// BodyUpdatePosition is the default position integrator. It applies
// the body's velocity plus the solver's bias velocity and resets
// the bias.
func BodyUpdatePosition(body *Body, dt float64) {

	body.p = body.p.Add(body.v.Add(body.vBias).Mult(dt))
	body.a = body.a + (body.w+body.wBias)*dt
	body.setTransform(body.p, body.a)

	body.vBias = Vect{}
	body.wBias = 0
}

// EachShape calls f once for every shape attached to the body.
func (body *Body) EachShape(f func(*Shape)) {

	for i := 0; i < len(body.shapeList); i++ {
		f(body.shapeList[i])
	}
}

// EachConstraint calls f once for every constraint attached to the
// body.
func (body *Body) EachConstraint(f func(*Constraint)) {

	constraint := body.constraintList
	for constraint != nil {
		next := constraint.next(body)
		f(constraint)
		constraint = next
	}
}

// EachArbiter calls f once for every collision pair the body is
// currently involved in.
func (body *Body) EachArbiter(f func(*Arbiter)) {

	arb := body.arbiterList
	for arb != nil {
		next := arb.threadForBody(body).next
		f(arb)
		arb = next
	}
}

// arrayDelete removes the first occurrence of body from the array,
// preserving the order of the remaining elements.
func arrayDelete(arr *[]*Body, body *Body) {

	a := *arr
	for pos, current := range a {
		if current == body {
			copy(a[pos:], a[pos+1:])
			a[len(a)-1] = nil
			*arr = a[:len(a)-1]
			return
		}
	}
}
