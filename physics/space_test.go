// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"testing"

	tassert "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/impulse2d/engine/math2d"
)

func stepFor(space *Space, seconds, dt float64) {

	steps := int(seconds/dt + 0.5)
	for i := 0; i < steps; i++ {
		space.Step(dt)
	}
}

func addGround(space *Space, a, b Vect, friction, elasticity float64) *Shape {

	shape := NewSegment(space.StaticBody(), a, b, 0)
	shape.SetFriction(friction)
	shape.SetElasticity(elasticity)
	return space.AddShape(shape)
}

func TestSpaceAddRemove(t *testing.T) {

	space := NewSpace()

	body := NewBody(1, MomentForCircle(1, 0, 10, Vect{}))
	space.AddBody(body)
	shape := space.AddShape(NewCircle(body, 10, Vect{}))

	tassert.True(t, space.ContainsBody(body))
	tassert.True(t, space.ContainsShape(shape))
	tassert.NotZero(t, shape.HashID())

	space.RemoveShape(shape)
	space.RemoveBody(body)

	tassert.False(t, space.ContainsBody(body))
	tassert.False(t, space.ContainsShape(shape))
	tassert.Nil(t, body.Space())
}

func TestSpaceShapeIDsAreMonotonic(t *testing.T) {

	space := NewSpace()
	body := space.StaticBody()

	s1 := space.AddShape(NewCircle(body, 1, Vect{}))
	s2 := space.AddShape(NewCircle(body, 1, Vect{}))
	tassert.Less(t, s1.HashID(), s2.HashID())
}

func TestCircleStack(t *testing.T) {

	space := NewSpace()
	space.SetGravity(math2d.Vect(0, -100))
	space.SetIterations(10)

	addGround(space, math2d.Vect(-320, -240), math2d.Vect(320, -240), 0.8, 0)

	bodies := make([]*Body, 5)
	for i := range bodies {
		body := NewBody(1, MomentForCircle(1, 0, 15, Vect{}))
		body.SetPosition(math2d.Vect(0, float64(i*32)))
		space.AddBody(body)

		shape := NewCircle(body, 15, Vect{})
		shape.SetFriction(0.8)
		space.AddShape(shape)
		bodies[i] = body
	}

	stepFor(space, 5.0, 1.0/60.0)

	bottom := bodies[0].Position().Y
	top := bodies[4].Position().Y

	tassert.InDelta(t, -225.0, bottom, 0.5)
	tassert.InDelta(t, bottom+4*30, top, 1.0)
}

func TestPinJointConservesRadius(t *testing.T) {

	space := NewSpace()

	body := NewBody(1, MomentForCircle(1, 0, 10, Vect{}))
	body.SetPosition(math2d.Vect(100, 0))
	body.SetVelocity(0, 100)
	space.AddBody(body)

	space.AddConstraint(NewPinJoint(space.StaticBody(), body, Vect{}, Vect{}))

	stepFor(space, 1.0, 1.0/60.0)

	radius := body.Position().Length()
	tassert.Greater(t, radius, 99.5)
	tassert.Less(t, radius, 100.5)
}

func TestRestitution(t *testing.T) {

	space := NewSpace()
	space.SetGravity(math2d.Vect(0, -100))

	addGround(space, math2d.Vect(-100, 0), math2d.Vect(100, 0), 0.0, 1.0)

	ball := NewBody(1, MomentForCircle(1, 0, 10, Vect{}))
	ball.SetPosition(math2d.Vect(0, 110))
	space.AddBody(ball)

	shape := NewCircle(ball, 10, Vect{})
	shape.SetElasticity(1.0)
	space.AddShape(shape)

	// Use a fine timestep so the discretization error stays well
	// below the measured tolerance.
	dt := 1.0 / 600.0

	// Fall to the floor.
	bounced := false
	peak := 0.0
	for i := 0; i < 3000; i++ {
		space.Step(dt)
		if ball.Velocity().Y > 0 {
			bounced = true
		}
		if bounced {
			peak = math2d.Max(peak, ball.Position().Y)
			if ball.Velocity().Y < 0 && ball.Position().Y < 50 {
				break
			}
		}
	}

	require.True(t, bounced)
	// The rebound must recover at least 99% of the drop height.
	// Center height: resting at 10, dropped from 110.
	tassert.Greater(t, peak-10, 0.99*100.0)
}

func TestFrictionStopsSlidingBox(t *testing.T) {

	space := NewSpace()
	space.SetGravity(math2d.Vect(0, -100))

	addGround(space, math2d.Vect(-500, 0), math2d.Vect(500, 0), 0.7, 0)

	box := NewBody(1, MomentForBox(1, 10, 10))
	box.SetPosition(math2d.Vect(-100, 5))
	space.AddBody(box)

	shape := NewBox(box, 10, 10, 0)
	shape.SetFriction(0.7)
	space.AddShape(shape)

	// Let it settle onto the floor, then kick it sideways.
	stepFor(space, 0.2, 1.0/60.0)
	box.ApplyImpulseAtWorldPoint(math2d.Vect(50, 0), box.Position())

	stepFor(space, 1.0, 1.0/60.0)

	tassert.LessOrEqual(t, math2d.Abs(box.Velocity().X), 0.1)
}

func TestSolverContactInvariants(t *testing.T) {

	space := NewSpace()
	space.SetGravity(math2d.Vect(0, -100))

	addGround(space, math2d.Vect(-500, 0), math2d.Vect(500, 0), 0.7, 0)

	for i := 0; i < 4; i++ {
		box := NewBody(1, MomentForBox(1, 10, 10))
		box.SetPosition(math2d.Vect(float64(i*12-20), 5+float64(i%2)*12))
		space.AddBody(box)
		shape := NewBox(box, 10, 10, 0)
		shape.SetFriction(0.7)
		space.AddShape(shape)
	}

	for i := 0; i < 120; i++ {
		space.Step(1.0 / 60.0)

		for _, arb := range space.arbiters {
			for j := range arb.contacts {
				con := &arb.contacts[j]

				// Contacts only ever push.
				tassert.GreaterOrEqual(t, con.jnAcc, 0.0)
				// Coulomb cone.
				tassert.LessOrEqual(t, math2d.Abs(con.jtAcc), arb.u*con.jnAcc+1e-9)
			}
		}
	}
}

func TestRestingContactImpulseMatchesWeight(t *testing.T) {

	space := NewSpace()
	space.SetGravity(math2d.Vect(0, -100))

	addGround(space, math2d.Vect(-100, 0), math2d.Vect(100, 0), 0.5, 0)

	ball := NewBody(2, MomentForCircle(2, 0, 10, Vect{}))
	ball.SetPosition(math2d.Vect(0, 10))
	space.AddBody(ball)

	shape := NewCircle(ball, 10, Vect{})
	shape.SetFriction(0.5)
	space.AddShape(shape)

	dt := 1.0 / 60.0
	stepFor(space, 0.5, dt)

	total := Vect{}
	ball.EachArbiter(func(arb *Arbiter) {
		total = total.Add(arb.TotalImpulse())
	})

	// jn/dt must balance m*g within 1%.
	tassert.InDelta(t, 2.0*100.0, total.Length()/dt, 2.0)
}

func TestWarmStartContactHashRetention(t *testing.T) {

	space := NewSpace()
	space.SetGravity(math2d.Vect(0, -100))

	addGround(space, math2d.Vect(-100, 0), math2d.Vect(100, 0), 0.5, 0)

	box := NewBody(1, MomentForBox(1, 10, 10))
	box.SetPosition(math2d.Vect(0, 5))
	space.AddBody(box)
	shape := NewBox(box, 10, 10, 0)
	shape.SetFriction(0.5)
	space.AddShape(shape)

	stepFor(space, 0.5, 1.0/60.0)

	// Capture the contact hashes, step once more at the settled
	// pose and verify the contacts were matched by hash and kept
	// their accumulated impulses.
	hashes := map[HashValue]float64{}
	for _, arb := range space.arbiters {
		for i := range arb.contacts {
			hashes[arb.contacts[i].hash] = arb.contacts[i].jnAcc
		}
	}
	require.NotEmpty(t, hashes)

	space.Step(1.0 / 60.0)

	retained := 0
	total := 0
	for _, arb := range space.arbiters {
		for i := range arb.contacts {
			total++
			if jn, ok := hashes[arb.contacts[i].hash]; ok && jn > 0 {
				retained++
			}
		}
	}
	require.NotZero(t, total)
	tassert.GreaterOrEqual(t, float64(retained)/float64(total), 0.9)
}

func TestSleeping(t *testing.T) {

	space := NewSpace()
	space.SetGravity(math2d.Vect(0, -100))
	space.SetSleepTimeThreshold(0.5)

	addGround(space, math2d.Vect(-500, 0), math2d.Vect(500, 0), 1.0, 0)

	bodies := make([]*Body, 0, 20)
	for i := 0; i < 20; i++ {
		body := NewBody(1, MomentForBox(1, 10, 10))
		x := float64((i%10)*12 - 60)
		y := 5.0 + float64(i/10)*10.5
		body.SetPosition(math2d.Vect(x, y))
		space.AddBody(body)

		shape := NewBox(body, 10, 10, 0)
		shape.SetFriction(1.0)
		space.AddShape(shape)
		bodies = append(bodies, body)
	}

	stepFor(space, 10.0, 1.0/60.0)

	for i, body := range bodies {
		tassert.Truef(t, body.IsSleeping(), "body %d is still awake", i)
	}

	// With everything asleep the dynamic set is empty, which is
	// what makes sleeping steps nearly free.
	tassert.Empty(t, space.dynamicBodies)
	tassert.NotEmpty(t, space.sleepingComponents)
}

func TestSleepingBodiesWakeOnImpact(t *testing.T) {

	space := NewSpace()
	space.SetGravity(math2d.Vect(0, -100))
	space.SetSleepTimeThreshold(0.2)

	addGround(space, math2d.Vect(-500, 0), math2d.Vect(500, 0), 1.0, 0)

	resting := NewBody(1, MomentForBox(1, 10, 10))
	resting.SetPosition(math2d.Vect(0, 5))
	space.AddBody(resting)
	shape := NewBox(resting, 10, 10, 0)
	shape.SetFriction(1.0)
	space.AddShape(shape)

	stepFor(space, 2.0, 1.0/60.0)
	require.True(t, resting.IsSleeping())

	// Drop a ball onto the sleeping box.
	ball := NewBody(1, MomentForCircle(1, 0, 5, Vect{}))
	ball.SetPosition(math2d.Vect(0, 40))
	space.AddBody(ball)
	ballShape := NewCircle(ball, 5, Vect{})
	ballShape.SetFriction(1.0)
	space.AddShape(ballShape)

	stepFor(space, 0.5, 1.0/60.0)
	// The impact must have woken the box at some point; whether it
	// has fallen asleep again, its idle time restarted from the
	// impact.
	tassert.False(t, resting.IsSleeping() && ball.IsSleeping() && ball.Position().Y > 20)
}

func TestBodySleepAndActivate(t *testing.T) {

	space := NewSpace()
	space.SetGravity(math2d.Vect(0, -100))
	space.SetSleepTimeThreshold(10)

	body := NewBody(1, MomentForCircle(1, 0, 10, Vect{}))
	body.SetPosition(math2d.Vect(0, 100))
	space.AddBody(body)
	space.AddShape(NewCircle(body, 10, Vect{}))

	body.Sleep()
	require.True(t, body.IsSleeping())

	// A sleeping body does not fall.
	y := body.Position().Y
	stepFor(space, 0.5, 1.0/60.0)
	tassert.Equal(t, y, body.Position().Y)

	body.Activate()
	require.False(t, body.IsSleeping())
	stepFor(space, 0.5, 1.0/60.0)
	tassert.Less(t, body.Position().Y, y)
}

func TestOneWayPlatform(t *testing.T) {

	const (
		platformType = CollisionType(1)
		ballType     = CollisionType(2)
	)

	space := NewSpace()
	space.SetGravity(math2d.Vect(0, -100))

	platform := NewSegment(space.StaticBody(), math2d.Vect(-160, -100), math2d.Vect(160, -100), 0)
	platform.SetCollisionType(platformType)
	platform.SetFriction(1.0)
	space.AddShape(platform)

	ball := NewBody(1, MomentForCircle(1, 0, 10, Vect{}))
	ball.SetPosition(math2d.Vect(0, -200))
	ball.SetVelocity(0, 170)
	space.AddBody(ball)

	ballShape := NewCircle(ball, 10, Vect{})
	ballShape.SetCollisionType(ballType)
	ballShape.SetFriction(1.0)
	space.AddShape(ballShape)

	handler := space.AddCollisionHandler(platformType, ballType)
	handler.PreSolveFunc = func(arb *Arbiter, space *Space, userData interface{}) bool {
		if arb.Normal().Dot(math2d.Vect(0, 1)) < 0 {
			return arb.Ignore()
		}
		return true
	}

	dt := 1.0 / 60.0
	crossed := false
	for i := 0; i < int(5.0/dt); i++ {
		space.Step(dt)
		if ball.Position().Y > -100 {
			crossed = true
		}
		if crossed {
			// Once above, the ball must never fall back through.
			tassert.Greater(t, ball.Position().Y, -100.0)
		}
	}

	require.True(t, crossed)
	tassert.Greater(t, ball.Position().Y, -100.0)
}

func TestCollisionHandlerLifecycle(t *testing.T) {

	space := NewSpace()
	space.SetGravity(math2d.Vect(0, -100))

	addGround(space, math2d.Vect(-100, 0), math2d.Vect(100, 0), 0.5, 0)

	ball := NewBody(1, MomentForCircle(1, 0, 10, Vect{}))
	ball.SetPosition(math2d.Vect(0, 30))
	ball.SetVelocity(0, 60)
	space.AddBody(ball)
	shape := NewCircle(ball, 10, Vect{})
	shape.SetCollisionType(7)
	space.AddShape(shape)

	begins := 0
	preSolves := 0
	postSolves := 0
	separates := 0

	handler := space.SetDefaultCollisionHandler()
	handler.BeginFunc = func(arb *Arbiter, space *Space, userData interface{}) bool {
		begins++
		return true
	}
	handler.PreSolveFunc = func(arb *Arbiter, space *Space, userData interface{}) bool {
		preSolves++
		return true
	}
	handler.PostSolveFunc = func(arb *Arbiter, space *Space, userData interface{}) {
		postSolves++
	}
	handler.SeparateFunc = func(arb *Arbiter, space *Space, userData interface{}) {
		separates++
	}

	// The ball arcs up, falls onto the floor, and stays there.
	stepFor(space, 3.0, 1.0/60.0)

	tassert.Equal(t, 1, begins)
	tassert.Greater(t, preSolves, 1)
	tassert.Equal(t, preSolves, postSolves)
	tassert.Zero(t, separates)

	// Removing the ball's shape fires separate immediately.
	space.RemoveShape(shape)
	tassert.Equal(t, 1, separates)
}

func TestBeginHandlerRejectsCollision(t *testing.T) {

	space := NewSpace()
	space.SetGravity(math2d.Vect(0, -100))

	ground := addGround(space, math2d.Vect(-100, 0), math2d.Vect(100, 0), 0.5, 0)
	ground.SetCollisionType(1)

	ball := NewBody(1, MomentForCircle(1, 0, 10, Vect{}))
	ball.SetPosition(math2d.Vect(0, 30))
	space.AddBody(ball)
	shape := NewCircle(ball, 10, Vect{})
	shape.SetCollisionType(2)
	space.AddShape(shape)

	handler := space.AddCollisionHandler(1, 2)
	handler.BeginFunc = func(arb *Arbiter, space *Space, userData interface{}) bool {
		return false
	}

	stepFor(space, 2.0, 1.0/60.0)

	// The collision was rejected, so the ball fell through.
	tassert.Less(t, ball.Position().Y, 0.0)
}

func TestSensorReportsButDoesNotCollide(t *testing.T) {

	space := NewSpace()
	space.SetGravity(math2d.Vect(0, -100))

	sensor := NewSegment(space.StaticBody(), math2d.Vect(-100, 0), math2d.Vect(100, 0), 0)
	sensor.SetSensor(true)
	sensor.SetCollisionType(1)
	space.AddShape(sensor)

	ball := NewBody(1, MomentForCircle(1, 0, 10, Vect{}))
	ball.SetPosition(math2d.Vect(0, 30))
	space.AddBody(ball)
	shape := NewCircle(ball, 10, Vect{})
	shape.SetCollisionType(2)
	space.AddShape(shape)

	touched := false
	handler := space.AddCollisionHandler(1, 2)
	handler.BeginFunc = func(arb *Arbiter, space *Space, userData interface{}) bool {
		touched = true
		return true
	}

	stepFor(space, 2.0, 1.0/60.0)

	tassert.True(t, touched)
	tassert.Less(t, ball.Position().Y, -10.0)
}

func TestPostStepCallbackRunsOncePerKey(t *testing.T) {

	space := NewSpace()
	space.SetGravity(math2d.Vect(0, -100))

	ground := addGround(space, math2d.Vect(-100, 0), math2d.Vect(100, 0), 0.5, 0)
	ground.SetCollisionType(1)

	ball := NewBody(1, MomentForCircle(1, 0, 10, Vect{}))
	ball.SetPosition(math2d.Vect(0, 15))
	space.AddBody(ball)
	shape := NewCircle(ball, 10, Vect{})
	shape.SetCollisionType(2)
	space.AddShape(shape)

	removed := 0
	handler := space.AddCollisionHandler(1, 2)
	handler.PreSolveFunc = func(arb *Arbiter, space *Space, userData interface{}) bool {
		// Queue the removal twice; it must only run once.
		space.AddPostStepCallback(func(space *Space, key, data interface{}) {
			space.RemoveShape(key.(*Shape))
			removed++
		}, shape, nil)
		space.AddPostStepCallback(func(space *Space, key, data interface{}) {
			removed++
		}, shape, nil)
		return true
	}

	stepFor(space, 1.0, 1.0/60.0)

	tassert.Equal(t, 1, removed)
	tassert.False(t, space.ContainsShape(shape))
}

func TestConstraintFilteringCollisions(t *testing.T) {

	space := NewSpace()

	a := NewBody(1, MomentForCircle(1, 0, 10, Vect{}))
	a.SetPosition(math2d.Vect(0, 0))
	space.AddBody(a)
	sa := space.AddShape(NewCircle(a, 10, Vect{}))

	b := NewBody(1, MomentForCircle(1, 0, 10, Vect{}))
	b.SetPosition(math2d.Vect(5, 0))
	space.AddBody(b)
	sb := space.AddShape(NewCircle(b, 10, Vect{}))

	joint := NewPivotJoint(a, b, math2d.Vect(2.5, 0))
	joint.SetCollideBodies(false)
	space.AddConstraint(joint)

	space.Step(1.0 / 60.0)

	// The overlapping pair must have been rejected by the joint.
	tassert.Empty(t, space.arbiters)
	_ = sa
	_ = sb
}

func TestSimpleMotorSpinsBody(t *testing.T) {

	space := NewSpace()

	wheel := NewBody(1, 10)
	space.AddBody(wheel)

	space.AddConstraint(NewSimpleMotor(space.StaticBody(), wheel, 2.0))

	stepFor(space, 1.0, 1.0/60.0)

	// The motor drives the relative angular velocity w_b - w_a
	// towards -rate.
	tassert.InDelta(t, -2.0, wheel.AngularVelocity(), 1e-6)
}

func TestDampedSpringApproachesRestLength(t *testing.T) {

	space := NewSpace()

	body := NewBody(1, 10)
	body.SetPosition(math2d.Vect(50, 0))
	space.AddBody(body)

	spring := NewDampedSpring(space.StaticBody(), body, Vect{}, Vect{}, 20, 30, 5)
	space.AddConstraint(spring)

	stepFor(space, 10.0, 1.0/60.0)

	tassert.InDelta(t, 20.0, body.Position().Length(), 0.5)
}

func TestRotaryLimitClampsAngle(t *testing.T) {

	space := NewSpace()

	body := NewBody(1, 10)
	body.SetAngularVelocity(5)
	space.AddBody(body)

	space.AddConstraint(NewRotaryLimitJoint(space.StaticBody(), body, -0.5, 0.5))

	stepFor(space, 2.0, 1.0/60.0)

	tassert.LessOrEqual(t, body.Angle(), 0.6)
}

func TestGearJointLocksRatio(t *testing.T) {

	space := NewSpace()

	a := NewBody(1, 10)
	space.AddBody(a)
	b := NewBody(1, 10)
	space.AddBody(b)

	a.SetAngularVelocity(2)
	space.AddConstraint(NewGearJoint(a, b, 0, 2))

	stepFor(space, 1.0, 1.0/60.0)

	// The gear enforces w_b * ratio == w_a.
	tassert.InDelta(t, a.AngularVelocity(), b.AngularVelocity()*2, 1e-3)
}

func TestKinematicBodyCarriesDynamic(t *testing.T) {

	space := NewSpace()
	space.SetGravity(math2d.Vect(0, -100))

	belt := NewKinematicBody()
	belt.SetPosition(math2d.Vect(0, 0))
	space.AddBody(belt)
	beltShape := NewBox(belt, 100, 10, 0)
	beltShape.SetFriction(1.0)
	space.AddShape(beltShape)

	box := NewBody(1, MomentForBox(1, 10, 10))
	box.SetPosition(math2d.Vect(0, 10))
	space.AddBody(box)
	boxShape := NewBox(box, 10, 10, 0)
	boxShape.SetFriction(1.0)
	space.AddShape(boxShape)

	// The kinematic platform moves sideways and drags the box with
	// it through friction.
	belt.SetVelocity(20, 0)

	stepFor(space, 1.0, 1.0/60.0)

	tassert.Greater(t, box.Velocity().X, 10.0)
	// Kinematic bodies ignore gravity.
	tassert.Equal(t, 0.0, belt.Position().Y)
}

func TestSpaceQueries(t *testing.T) {

	space := NewSpace()

	body := NewBody(1, MomentForCircle(1, 0, 10, Vect{}))
	body.SetPosition(math2d.Vect(50, 0))
	space.AddBody(body)
	shape := space.AddShape(NewCircle(body, 10, Vect{}))

	// Nearest point query.
	info := space.PointQueryNearest(math2d.Vect(80, 0), 100, ShapeFilterAll)
	require.NotNil(t, info.Shape)
	tassert.Equal(t, shape, info.Shape)
	tassert.InDelta(t, 20.0, info.Distance, 1e-9)

	// Out of range.
	miss := space.PointQueryNearest(math2d.Vect(80, 0), 5, ShapeFilterAll)
	tassert.Nil(t, miss.Shape)

	// Segment query first.
	seg := space.SegmentQueryFirst(math2d.Vect(0, 0), math2d.Vect(100, 0), 0, ShapeFilterAll)
	require.NotNil(t, seg.Shape)
	tassert.InDelta(t, 0.4, seg.Alpha, 1e-9)

	// BB query.
	found := 0
	space.BBQuery(math2d.NewBB(30, -20, 70, 20), ShapeFilterAll, func(s *Shape) {
		found++
	})
	tassert.Equal(t, 1, found)

	// Shape query with a free-standing probe shape.
	probeBody := NewBody(1, 1)
	probeBody.SetPosition(math2d.Vect(55, 0))
	probe := NewCircle(probeBody, 10, Vect{})
	probe.CacheBB()

	hit := space.ShapeQuery(probe, nil)
	tassert.True(t, hit)
}
