// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
)

// Sleeping groups resting bodies into connected components over the
// contact graph (arbiters plus constraints). When every body in a
// component has been idle long enough, the whole component is taken
// out of the simulation at once: the bodies leave the dynamic
// array, their shapes move to the static index, and only an
// explicit wake up or a new collision puts them back.

func componentRoot(body *Body) *Body {

	if body == nil {
		return nil
	}
	return body.sleepingRoot
}

func componentAdd(root, body *Body) {

	body.sleepingRoot = root

	if body != root {
		body.sleepingNext = root.sleepingNext
		root.sleepingNext = body
	}
}

func componentActive(root *Body, threshold float64) bool {

	body := root
	for body != nil {
		if body.sleepingIdleTime < threshold {
			return true
		}
		body = body.sleepingNext
	}
	return false
}

func floodFillComponent(root, body *Body) {

	// Kinematic bodies cannot sleep and prevent bodies they touch
	// from sleeping. Static bodies are effectively asleep already.
	if body.Type() != BodyDynamic {
		return
	}

	otherRoot := componentRoot(body)
	if otherRoot == nil {
		componentAdd(root, body)

		arb := body.arbiterList
		for arb != nil {
			next := arb.threadForBody(body).next
			if body == arb.bodyA {
				floodFillComponent(root, arb.bodyB)
			} else {
				floodFillComponent(root, arb.bodyA)
			}
			arb = next
		}

		constraint := body.constraintList
		for constraint != nil {
			next := constraint.next(body)
			if body == constraint.a {
				floodFillComponent(root, constraint.b)
			} else {
				floodFillComponent(root, constraint.a)
			}
			constraint = next
		}
	} else {
		assertSoft(otherRoot == root, "inconsistency detected in the contact graph")
	}
}

// IsSleeping reports whether the body is part of a sleeping
// component.
func (body *Body) IsSleeping() bool {

	return body.sleepingRoot != nil
}

// IdleTime returns how long the body has been below the space's
// idle speed threshold.
func (body *Body) IdleTime() float64 {

	return body.sleepingIdleTime
}

// Activate wakes the body and the whole sleeping component it
// belongs to.
func (body *Body) Activate() {

	if body == nil || body.Type() != BodyDynamic {
		return
	}

	body.sleepingIdleTime = 0

	root := componentRoot(body)
	if root != nil && root.IsSleeping() {
		assertSoft(root.Type() == BodyDynamic, "a non-dynamic body ended up rooting a sleeping component")

		space := root.space
		b := root
		for b != nil {
			next := b.sleepingNext

			b.sleepingIdleTime = 0
			b.sleepingRoot = nil
			b.sleepingNext = nil
			space.activateBody(b)

			b = next
		}

		for i, component := range space.sleepingComponents {
			if component == root {
				last := len(space.sleepingComponents) - 1
				copy(space.sleepingComponents[i:], space.sleepingComponents[i+1:])
				space.sleepingComponents[last] = nil
				space.sleepingComponents = space.sleepingComponents[:last]
				break
			}
		}
	}

	arb := body.arbiterList
	for arb != nil {
		next := arb.threadForBody(body).next

		// Reset the idle timer of things the body is touching as
		// well, so they don't fall asleep mid-air when this body
		// slides out from under them.
		other := arb.bodyA
		if other == body {
			other = arb.bodyB
		}
		if other.Type() != BodyStatic {
			other.sleepingIdleTime = 0
		}

		arb = next
	}
}

// ActivateStatic wakes the dynamic bodies touching a static body.
// If filter is non-nil, only bodies touching through that shape are
// woken.
func (body *Body) ActivateStatic(filter *Shape) {

	assert(body.Type() == BodyStatic, "ActivateStatic called on a non-static body")

	arb := body.arbiterList
	for arb != nil {
		next := arb.threadForBody(body).next

		if filter == nil || filter == arb.a || filter == arb.b {
			if arb.bodyA == body {
				arb.bodyB.Activate()
			} else {
				arb.bodyA.Activate()
			}
		}

		arb = next
	}
}

// Sleep forces the body and its component to fall asleep
// immediately.
func (body *Body) Sleep() {

	body.SleepWithGroup(nil)
}

// SleepWithGroup forces the body to fall asleep immediately, in the
// same component as group. Useful to initialize a level with
// stacked objects already asleep as one unit.
func (body *Body) SleepWithGroup(group *Body) {

	assert(body.Type() == BodyDynamic, "only dynamic bodies can be put to sleep")
	assert(group == nil || group.IsSleeping(), "the group body must already be sleeping")

	space := body.space
	assert(space != nil, "the body must be added to a space to sleep")
	assert(!space.IsLocked(), "space is locked: defer Sleep to a post-step callback")
	assert(space.sleepTimeThreshold < math2d.Infinity, "sleeping is disabled on this space")

	body.Activate()

	if group != nil {
		root := componentRoot(group)

		body.sleepingRoot = root
		body.sleepingNext = root.sleepingNext
		body.sleepingIdleTime = 0

		root.sleepingNext = body
	} else {
		body.sleepingRoot = body
		body.sleepingNext = nil
		body.sleepingIdleTime = 0

		space.sleepingComponents = append(space.sleepingComponents, body)
	}

	space.deactivateBody(body)
}

// activateBody puts a woken body back into the simulation, or
// defers until unlock if the space is mid-step.
func (space *Space) activateBody(body *Body) {

	assertSoft(body.Type() == BodyDynamic, "attempted to activate a non-dynamic body")

	if space.IsLocked() {
		// activateBody is called again once the space is unlocked.
		for _, roused := range space.rousedBodies {
			if roused == body {
				return
			}
		}
		space.rousedBodies = append(space.rousedBodies, body)
		return
	}

	assertSoft(body.sleepingRoot == nil && body.sleepingNext == nil, "activated a body that is still tracked as sleeping")

	space.dynamicBodies = append(space.dynamicBodies, body)

	for _, shape := range body.shapeList {
		space.staticShapes.Remove(shape, shape.hashid)
		space.dynamicShapes.Insert(shape, shape.hashid)
	}

	arb := body.arbiterList
	for arb != nil {
		next := arb.threadForBody(body).next

		bodyA := arb.bodyA
		if body == bodyA || bodyA.Type() == BodyStatic {
			// Reinsert the arbiter into the cache so the pair warm
			// starts instead of re-colliding from scratch.
			space.cachedArbiters[newShapePair(arb.a, arb.b)] = arb

			arb.stamp = space.stamp
			arb.handler = space.lookupHandler(arb.a.collisionType, arb.b.collisionType, &space.defaultHandler)
			space.arbiters = append(space.arbiters, arb)
		}

		arb = next
	}

	constraint := body.constraintList
	for constraint != nil {
		next := constraint.next(body)

		bodyA := constraint.a
		if body == bodyA || bodyA.Type() == BodyStatic {
			space.constraints = append(space.constraints, constraint)
		}

		constraint = next
	}
}

// deactivateBody takes a sleeping body out of the simulation.
func (space *Space) deactivateBody(body *Body) {

	assertSoft(body.Type() == BodyDynamic, "attempted to deactivate a non-dynamic body")

	arrayDelete(&space.dynamicBodies, body)

	for _, shape := range body.shapeList {
		space.dynamicShapes.Remove(shape, shape.hashid)
		space.staticShapes.Insert(shape, shape.hashid)
	}

	arb := body.arbiterList
	for arb != nil {
		next := arb.threadForBody(body).next

		bodyA := arb.bodyA
		if body == bodyA || bodyA.Type() == BodyStatic {
			space.uncacheArbiter(arb)

			// Keep the contact values around so the pair can warm
			// start when the component wakes.
			contacts := make([]contact, len(arb.contacts))
			copy(contacts, arb.contacts)
			arb.contacts = contacts
		}

		arb = next
	}

	constraint := body.constraintList
	for constraint != nil {
		next := constraint.next(body)

		bodyA := constraint.a
		if body == bodyA || bodyA.Type() == BodyStatic {
			for i, c := range space.constraints {
				if c == constraint {
					last := len(space.constraints) - 1
					copy(space.constraints[i:], space.constraints[i+1:])
					space.constraints[last] = nil
					space.constraints = space.constraints[:last]
					break
				}
			}
		}

		constraint = next
	}
}

// processComponents updates idle timers, rebuilds the contact graph
// and puts fully idle components to sleep.
func (space *Space) processComponents(dt float64) {

	sleep := space.sleepTimeThreshold != math2d.Infinity

	// Calculate the kinetic energy of all the dynamic bodies.
	if sleep {
		dv := space.idleSpeedThreshold
		dvsq := dv * dv
		if dvsq == 0 {
			dvsq = space.gravity.LengthSq() * dt * dt
		}

		for _, body := range space.dynamicBodies {
			if body.Type() != BodyDynamic {
				continue
			}

			keThreshold := 0.0
			if dvsq != 0 {
				keThreshold = body.m * dvsq
			}
			if body.KineticEnergy() > keThreshold {
				body.sleepingIdleTime = 0
			} else {
				body.sleepingIdleTime += dt
			}
		}
	}

	// Awaken any sleeping bodies found and then push arbiters to
	// the bodies' lists.
	for _, arb := range space.arbiters {
		a := arb.bodyA
		b := arb.bodyB

		if sleep {
			if b.Type() == BodyKinematic || a.IsSleeping() {
				a.Activate()
			}
			if a.Type() == BodyKinematic || b.IsSleeping() {
				b.Activate()
			}
		}

		a.pushArbiter(arb)
		b.pushArbiter(arb)
	}

	if !sleep {
		return
	}

	// Bodies should be held active if connected by a joint to a
	// kinematic body.
	for _, constraint := range space.constraints {
		if constraint.b.Type() == BodyKinematic {
			constraint.a.Activate()
		}
		if constraint.a.Type() == BodyKinematic {
			constraint.b.Activate()
		}
	}

	// Generate components and deactivate sleeping ones.
	for i := 0; i < len(space.dynamicBodies); {
		body := space.dynamicBodies[i]

		if componentRoot(body) == nil {
			// Body not in a component yet. Flood fill the component
			// in the contact graph starting here.
			floodFillComponent(body, body)

			if !componentActive(body, space.sleepTimeThreshold) {
				space.sleepingComponents = append(space.sleepingComponents, body)

				other := body
				for other != nil {
					next := other.sleepingNext
					space.deactivateBody(other)
					other = next
				}

				// deactivateBody removed the current body from the
				// array; don't advance the index.
				continue
			}
		}

		i++

		// Only sleeping bodies retain their component pointers.
		body.sleepingRoot = nil
		body.sleepingNext = nil
	}
}
