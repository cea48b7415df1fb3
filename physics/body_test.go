// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"math"
	"testing"

	tassert "github.com/stretchr/testify/assert"

	"github.com/impulse2d/engine/math2d"
)

func assertVectInDelta(t *testing.T, expected, actual Vect, tol float64) {

	t.Helper()
	tassert.InDelta(t, expected.X, actual.X, tol)
	tassert.InDelta(t, expected.Y, actual.Y, tol)
}

func TestBodyMassConsistency(t *testing.T) {

	body := NewBody(4, 10)
	tassert.Equal(t, 4.0, body.Mass())
	tassert.InDelta(t, 1.0, body.Mass()*body.mInv, 1e-12)
	tassert.InDelta(t, 1.0, body.Moment()*body.iInv, 1e-12)

	static := NewStaticBody()
	tassert.Equal(t, 0.0, static.mInv)
	tassert.Equal(t, 0.0, static.iInv)

	kinematic := NewKinematicBody()
	tassert.Equal(t, 0.0, kinematic.mInv)
	tassert.Equal(t, 0.0, kinematic.iInv)
}

func TestBodyTypeTags(t *testing.T) {

	tassert.Equal(t, BodyDynamic, NewBody(1, 1).Type())
	tassert.Equal(t, BodyKinematic, NewKinematicBody().Type())
	tassert.Equal(t, BodyStatic, NewStaticBody().Type())
}

func TestBodyRotationCache(t *testing.T) {

	body := NewBody(1, 1)

	for _, angle := range []float64{0, 0.25, 2.5, -1.5, 7.1, 100} {
		body.SetAngle(angle)
		rot := body.Rotation()

		tassert.InDelta(t, 1.0, rot.LengthSq(), 1e-9)
		tassert.InDelta(t, math.Cos(angle), rot.X, 1e-9)
		tassert.InDelta(t, math.Sin(angle), rot.Y, 1e-9)
		// SetAngle must not normalize the angle.
		tassert.Equal(t, angle, body.Angle())
	}
}

func TestBodyLocalWorldRoundTrip(t *testing.T) {

	body := NewBody(1, 1)
	body.SetPosition(math2d.Vect(10, 20))
	body.SetAngle(0.8)

	p := math2d.Vect(3, -4)
	assertVectInDelta(t, p, body.WorldToLocal(body.LocalToWorld(p)), 1e-9)
}

func TestBodyVelocityAtWorldPoint(t *testing.T) {

	body := NewBody(1, 1)
	body.SetVelocity(5, 0)
	body.SetAngularVelocity(2)

	// A point one unit above the center moves with v + w*perp(r).
	v := body.VelocityAtWorldPoint(math2d.Vect(0, 1))
	assertVectInDelta(t, math2d.Vect(5-2, 0), v, 1e-9)
}

func TestBodyDefaultVelocityIntegration(t *testing.T) {

	body := NewBody(2, 1)
	body.SetForce(math2d.Vect(4, 0))

	gravity := math2d.Vect(0, -10)
	BodyUpdateVelocity(body, gravity, 1.0, 0.5)

	// v += (gravity + f/m) * dt
	assertVectInDelta(t, math2d.Vect(1, -5), body.Velocity(), 1e-9)
	// Forces are cleared after integration.
	tassert.Equal(t, Vect{}, body.Force())
}

func TestBodyVelocityLimit(t *testing.T) {

	body := NewBody(1, 1)
	body.SetVelocityLimit(10)
	body.SetVelocity(100, 0)

	BodyUpdateVelocity(body, Vect{}, 1.0, 1.0/60.0)
	tassert.InDelta(t, 10.0, body.Velocity().Length(), 1e-9)
}

func TestBodyPositionIntegrationClearsBias(t *testing.T) {

	body := NewBody(1, 1)
	body.SetVelocity(10, 0)
	body.vBias = math2d.Vect(0, 6)
	body.wBias = 3

	BodyUpdatePosition(body, 0.5)

	assertVectInDelta(t, math2d.Vect(5, 3), body.Position(), 1e-9)
	tassert.InDelta(t, 1.5, body.Angle(), 1e-9)
	tassert.Equal(t, Vect{}, body.vBias)
	tassert.Equal(t, 0.0, body.wBias)
}

func TestBodyApplyImpulse(t *testing.T) {

	body := NewBody(2, 8)
	body.ApplyImpulseAtWorldPoint(math2d.Vect(0, 4), math2d.Vect(1, 0))

	assertVectInDelta(t, math2d.Vect(0, 2), body.Velocity(), 1e-9)
	// w += cross(r, j) / I = (1*4)/8
	tassert.InDelta(t, 0.5, body.AngularVelocity(), 1e-9)
}

func TestBodyKineticEnergy(t *testing.T) {

	body := NewBody(2, 4)
	body.SetVelocity(3, 0)
	body.SetAngularVelocity(2)

	tassert.InDelta(t, 2*9+4*4, body.KineticEnergy(), 1e-9)

	// Infinite mass bodies at rest must not produce NaNs.
	static := NewStaticBody()
	tassert.Equal(t, 0.0, static.KineticEnergy())
}

func TestBodyAccumulateMassFromShapes(t *testing.T) {

	// Shapes contribute mass to their body once both live in a
	// space, which is what threads the shape onto the body.
	space := NewSpace()
	body := space.AddBody(NewBody(0, 0))
	shape := space.AddShape(NewCircle(body, 10, Vect{}))
	shape.SetMass(3)

	tassert.InDelta(t, 3.0, body.Mass(), 1e-9)
	tassert.InDelta(t, 3*MomentForCircle(1, 0, 10, Vect{}), body.Moment(), 1e-9)
}

func TestMomentHelpers(t *testing.T) {

	tassert.InDelta(t, 0.5*2*100, MomentForCircle(2, 0, 10, Vect{}), 1e-9)
	tassert.InDelta(t, 2*(0.5*100+9), MomentForCircle(2, 0, 10, math2d.Vect(3, 0)), 1e-9)

	tassert.InDelta(t, (100.0+100.0)/12.0, MomentForBox(1, 10, 10), 1e-9)

	// A square polygon must match the box formula.
	square := []Vect{{X: -5, Y: -5}, {X: 5, Y: -5}, {X: 5, Y: 5}, {X: -5, Y: 5}}
	tassert.InDelta(t, MomentForBox(1, 10, 10), MomentForPoly(1, square, Vect{}, 0), 1e-9)

	tassert.InDelta(t, 100.0, AreaForPoly(square, 0), 1e-9)
	assertVectInDelta(t, Vect{}, CentroidForPoly(square), 1e-9)

	tassert.InDelta(t, math2d.Pi*100, AreaForCircle(0, 10), 1e-9)
}
