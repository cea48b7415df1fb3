// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"sort"

	"github.com/impulse2d/engine/math2d"
)

// queryRejectConstraint checks whether a joint between the two
// bodies asked for them not to collide.
func queryRejectConstraint(a, b *Body) bool {

	constraint := a.constraintList
	for constraint != nil {
		if !constraint.collideBodies &&
			((constraint.a == a && constraint.b == b) ||
				(constraint.a == b && constraint.b == a)) {
			return true
		}
		constraint = constraint.next(a)
	}
	return false
}

// queryReject applies the cheap broad phase rejections: bounding
// boxes, same body, filters and non-colliding joints.
func queryReject(a, b *Shape) bool {

	return !a.bb.Intersects(b.bb) ||
		a.body == b.body ||
		a.filter.Reject(b.filter) ||
		queryRejectConstraint(a.body, b.body)
}

// collideShapes is the broad phase callback: it runs the narrow
// phase for a potentially colliding pair and routes the result
// through the arbiter cache and the collision handlers.
func (space *Space) collideShapes(obj, other interface{}) {

	a := obj.(*Shape)
	b := other.(*Shape)

	if queryReject(a, b) {
		return
	}

	// Look up the cached arbiter; the key is ordered by shape id.
	pair := newShapePair(a, b)
	cached := space.cachedArbiters[pair]

	// Resume GJK from the cached feature ids when the pair was seen
	// recently.
	var id uint32
	if cached != nil {
		id = cached.collisionID
	}

	contacts := make([]contact, maxContactsPerArbiter)
	info := collide(a, b, id, contacts)

	if info.count == 0 && cached == nil {
		// Shapes are not colliding and never were.
		return
	}
	if info.count == 0 {
		// Keep the cached arbiter's id warm but don't process it.
		cached.collisionID = info.collisionID
		return
	}

	arb := cached
	if arb == nil {
		arb = space.arbiterFromPool(info.a, info.b)
		space.cachedArbiters[pair] = arb
	}
	arb.update(&info, space)

	handler := arb.handler

	// Call the begin handler the first step the pair touches.
	if arb.state == arbiterStateFirstCollision && !handler.BeginFunc(arb, space, handler.UserData) {
		// Permanently ignore the collision until separation.
		arb.Ignore()
	}

	if arb.state != arbiterStateIgnore &&
		// preSolve may also reject the collision, either by
		// returning false or calling Ignore.
		handler.PreSolveFunc(arb, space, handler.UserData) &&
		arb.state != arbiterStateIgnore &&
		// Sensors report contacts but are never solved.
		!(a.sensor || b.sensor) &&
		// Don't solve collisions between two infinite mass bodies.
		!(a.body.m == math2d.Infinity && b.body.m == math2d.Infinity) {
		space.arbiters = append(space.arbiters, arb)
	} else {
		arb.contacts = nil
		arb.count = 0

		// postSolve is not called for rejected arbiters, so mark
		// the state here.
		if arb.state != arbiterStateIgnore {
			arb.state = arbiterStateNormal
		}
	}

	// Stamp the arbiter as used this step.
	arb.stamp = space.stamp
}

// arbiterSetFilter advances the state of a cached arbiter between
// steps. It fires the separate callback when a pair stops touching
// and reports whether the arbiter should be kept.
func (space *Space) arbiterSetFilter(arb *Arbiter) bool {

	ticks := space.stamp - arb.stamp

	a := arb.bodyA
	b := arb.bodyB

	// Preserve arbiters between sleeping or static bodies as-is;
	// they are reinserted when the bodies wake and must not fire
	// errant separate callbacks in the meantime.
	if (a.Type() == BodyStatic || a.IsSleeping()) &&
		(b.Type() == BodyStatic || b.IsSleeping()) {
		return true
	}

	// Arbiter was used last step, but not this one.
	if ticks >= 1 && arb.state != arbiterStateCached {
		arb.state = arbiterStateCached
		handler := arb.handler
		handler.SeparateFunc(arb, space, handler.UserData)
	}

	if ticks >= space.collisionPersistence {
		arb.contacts = nil
		arb.count = 0

		space.pooledArbiters = append(space.pooledArbiters, arb)
		return false
	}

	return true
}

// filterCachedArbiters runs arbiterSetFilter over the cache in a
// deterministic order.
func (space *Space) filterCachedArbiters() {

	type keyed struct {
		pair shapePair
		arb  *Arbiter
	}

	entries := make([]keyed, 0, len(space.cachedArbiters))
	for pair, arb := range space.cachedArbiters {
		entries = append(entries, keyed{pair, arb})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].pair.a.hashid != entries[j].pair.a.hashid {
			return entries[i].pair.a.hashid < entries[j].pair.a.hashid
		}
		return entries[i].pair.b.hashid < entries[j].pair.b.hashid
	})

	for _, entry := range entries {
		if !space.arbiterSetFilter(entry.arb) {
			delete(space.cachedArbiters, entry.pair)
		}
	}
}

// Step advances the simulation by dt. Use a fixed dt for best
// results.
func (space *Space) Step(dt float64) {

	// Don't step if the timestep is 0!
	if dt == 0 {
		return
	}

	space.stamp++

	prevDt := space.currDt
	space.currDt = dt

	// Reset and empty the arbiter list, unthreading the contact
	// graph so it can be rebuilt from this step's collisions.
	for _, arb := range space.arbiters {
		arb.state = arbiterStateNormal

		// If both bodies are awake, the arbiter will be re-threaded
		// during this step's contact graph pass.
		if !arb.bodyA.IsSleeping() && !arb.bodyB.IsSleeping() {
			arb.unthread()
		}
	}
	space.arbiters = space.arbiters[:0]

	space.lock()
	{
		// Integrate positions.
		for _, body := range space.dynamicBodies {
			body.positionFunc(body, dt)
		}

		// Push new body poses into the shapes and find colliding
		// pairs.
		space.dynamicShapes.Each(func(obj interface{}) {
			shape := obj.(*Shape)
			shape.Update(shape.body.transform)
		})
		space.dynamicShapes.ReindexQuery(space.collideShapes)
	}
	space.unlock(false)

	// Rebuild the contact graph and detect sleeping components.
	space.processComponents(dt)

	space.lock()
	{
		// Clear out old cached arbiters and call separate callbacks.
		space.filterCachedArbiters()

		// Prestep the arbiters and constraints.
		slop := space.collisionSlop
		bias := 1.0 - math2d.Pow(space.collisionBias, dt)
		for _, arb := range space.arbiters {
			arb.preStep(dt, slop, bias)
		}

		for _, constraint := range space.constraints {
			if constraint.preSolve != nil {
				constraint.preSolve(constraint, space)
			}
			constraint.class.preStep(dt)
		}

		// Integrate velocities.
		damping := math2d.Pow(space.damping, dt)
		gravity := space.gravity
		for _, body := range space.dynamicBodies {
			body.velocityFunc(body, gravity, damping, dt)
		}

		// Apply cached impulses to warm start the solver.
		dtCoef := 0.0
		if prevDt != 0 {
			dtCoef = dt / prevDt
		}
		for _, arb := range space.arbiters {
			arb.applyCachedImpulse(dtCoef)
		}

		for _, constraint := range space.constraints {
			constraint.class.applyCachedImpulse(dtCoef)
		}

		// Run the impulse solver.
		for i := 0; i < space.iterations; i++ {
			for _, arb := range space.arbiters {
				arb.applyImpulse()
			}

			for _, constraint := range space.constraints {
				constraint.class.applyImpulse(dt)
			}
		}

		// Run the constraint post-solve callbacks.
		for _, constraint := range space.constraints {
			if constraint.postSolve != nil {
				constraint.postSolve(constraint, space)
			}
		}

		// Run the handler post-solve callbacks.
		for _, arb := range space.arbiters {
			handler := arb.handler
			handler.PostSolveFunc(arb, space, handler.UserData)
		}
	}
	space.unlock(true)
}
