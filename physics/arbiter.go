// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
)

// maxContactsPerArbiter bounds the number of contact points a
// single collision pair can produce.
const maxContactsPerArbiter = 2

type arbiterState int

const (
	// The arbiter was created this step; begin handlers fire.
	arbiterStateFirstCollision = arbiterState(iota)
	// The pair collided before and is still colliding.
	arbiterStateNormal
	// A begin handler returned false; the pair is ignored until the
	// shapes separate.
	arbiterStateIgnore
	// The pair stopped colliding but is kept for warm start data.
	arbiterStateCached
	// One of the shapes was removed from the space.
	arbiterStateInvalidated
)

// arbiterThread links an arbiter into one of its bodies' arbiter
// lists.
type arbiterThread struct {
	next, prev *Arbiter
}

// Arbiter tracks a colliding pair of shapes: their contact points,
// the impulses accumulated across steps, and the state of the
// collision handler protocol. Arbiters are created, pooled and
// recycled by the space; never hold on to one outside a callback.
type Arbiter struct {
	e         float64
	u         float64
	surfaceVr Vect

	userData interface{}

	a, b         *Shape
	bodyA, bodyB *Body

	threadA, threadB arbiterThread

	count    int
	contacts []contact
	n        Vect

	// Cached feature ids from the last GJK run, used to restart it
	// near the answer next step.
	collisionID uint32

	handler, handlerA, handlerB *CollisionHandler
	swapped                     bool

	stamp uint
	state arbiterState
}

func (arb *Arbiter) init(a, b *Shape) {

	arb.handler = nil
	arb.swapped = false

	arb.handlerA = nil
	arb.handlerB = nil

	arb.e = 0
	arb.u = 0
	arb.surfaceVr = Vect{}

	arb.count = 0
	arb.contacts = nil
	arb.collisionID = 0

	arb.a = a
	arb.bodyA = a.body
	arb.b = b
	arb.bodyB = b.body

	arb.threadA = arbiterThread{}
	arb.threadB = arbiterThread{}

	arb.stamp = 0
	arb.state = arbiterStateFirstCollision

	arb.userData = nil
}

func (arb *Arbiter) threadForBody(body *Body) *arbiterThread {

	if arb.bodyA == body {
		return &arb.threadA
	}
	return &arb.threadB
}

func (arb *Arbiter) unthreadHelper(body *Body) {

	thread := arb.threadForBody(body)
	prev := thread.prev
	next := thread.next

	if prev != nil {
		prev.threadForBody(body).next = next
	} else if body.arbiterList == arb {
		// The arbiter is at the head of the list. This function may
		// be called for an arbiter that was never in a list, so
		// don't wipe out the head pointer blindly.
		body.arbiterList = next
	}

	if next != nil {
		next.threadForBody(body).prev = prev
	}

	thread.prev = nil
	thread.next = nil
}

// unthread removes the arbiter from both of its bodies' lists.
func (arb *Arbiter) unthread() {

	arb.unthreadHelper(arb.bodyA)
	arb.unthreadHelper(arb.bodyB)
}

func (body *Body) pushArbiter(arb *Arbiter) {

	thread := arb.threadForBody(body)
	assertSoft(thread.next == nil && thread.prev == nil,
		"dangling contact graph pointers detected")

	next := body.arbiterList
	thread.next = next
	if next != nil {
		next.threadForBody(body).prev = arb
	}
	body.arbiterList = arb
}

// update matches the freshly detected contacts against the previous
// step's contacts, inheriting accumulated impulses where the
// feature hashes line up, then re-resolves the collision handlers.
func (arb *Arbiter) update(info *collisionInfo, space *Space) {

	a := info.a
	b := info.b

	// For collisions between two similar primitive types, the order
	// could have been swapped since the last frame.
	arb.a = a
	arb.bodyA = a.body
	arb.b = b
	arb.bodyB = b.body
	arb.collisionID = info.collisionID

	for i := 0; i < info.count; i++ {
		con := &info.arr[i]

		// The narrow phase stored absolute points in r1 and r2.
		// Convert them to offsets relative to the CoGs.
		con.r1 = con.r1.Sub(a.body.p)
		con.r2 = con.r2.Sub(b.body.p)

		con.jnAcc = 0
		con.jtAcc = 0

		for j := 0; j < arb.count; j++ {
			old := &arb.contacts[j]

			// This could match false positives, but that is
			// unlikely and not very harmful.
			if con.hash == old.hash {
				con.jnAcc = old.jnAcc
				con.jtAcc = old.jtAcc
			}
		}
	}

	arb.contacts = info.arr[:info.count]
	arb.count = info.count
	arb.n = info.n

	arb.e = a.e * b.e
	arb.u = math2d.Sqrt(a.u * b.u)

	surfaceVr := b.surfaceV.Sub(a.surfaceV)
	arb.surfaceVr = surfaceVr.Sub(info.n.Mult(surfaceVr.Dot(info.n)))

	typeA := a.collisionType
	typeB := b.collisionType
	handler := space.lookupHandler(typeA, typeB, &space.defaultHandler)
	arb.handler = handler

	// Check if the types match, but don't swap for a default
	// handler that uses the wildcard for type A.
	swapped := typeA != handler.TypeA && handler.TypeA != WildcardCollisionType
	arb.swapped = swapped

	if handler != &space.defaultHandler || space.usesWildcards {
		// The order of the main handler swaps the wildcard handlers
		// too.
		if swapped {
			typeA, typeB = typeB, typeA
		}
		arb.handlerA = space.lookupHandler(typeA, WildcardCollisionType, &collisionHandlerDoNothing)
		arb.handlerB = space.lookupHandler(typeB, WildcardCollisionType, &collisionHandlerDoNothing)
	}

	// Mark it as new if it has been cached.
	if arb.state == arbiterStateCached {
		arb.state = arbiterStateFirstCollision
	}
}

// preStep computes the per-step solver constants for every contact.
func (arb *Arbiter) preStep(dt, slop, bias float64) {

	a := arb.bodyA
	b := arb.bodyB
	n := arb.n
	bodyDelta := b.p.Sub(a.p)

	for i := range arb.contacts {
		con := &arb.contacts[i]

		// Effective masses along the normal and the tangent.
		con.nMass = 1.0 / kScalar(a, b, con.r1, con.r2, n)
		con.tMass = 1.0 / kScalar(a, b, con.r1, con.r2, n.Perp())

		// Penetration distance and the bias velocity that will
		// remove it.
		dist := con.r2.Sub(con.r1).Add(bodyDelta).Dot(n)
		con.bias = -bias * math2d.Min(0, dist+slop) / dt
		con.jBias = 0

		// Restitution target velocity.
		con.bounce = normalRelativeVelocity(a, b, con.r1, con.r2, n) * arb.e
	}
}

// applyCachedImpulse warm starts the solver by reapplying last
// step's accumulated impulses, scaled by the timestep ratio.
func (arb *Arbiter) applyCachedImpulse(dtCoef float64) {

	if arb.IsFirstContact() {
		return
	}

	a := arb.bodyA
	b := arb.bodyB
	n := arb.n

	for i := range arb.contacts {
		con := &arb.contacts[i]
		j := n.Rotate(math2d.Vect(con.jnAcc, con.jtAcc))
		applyImpulses(a, b, con.r1, con.r2, j.Mult(dtCoef))
	}
}

// applyImpulse runs one solver iteration over the arbiter's
// contacts: a bias impulse for position correction, a normal
// impulse for non-penetration and restitution, and a friction
// impulse clamped to the Coulomb cone.
func (arb *Arbiter) applyImpulse() {

	a := arb.bodyA
	b := arb.bodyB
	n := arb.n
	surfaceVr := arb.surfaceVr
	friction := arb.u

	for i := range arb.contacts {
		con := &arb.contacts[i]
		nMass := con.nMass
		r1 := con.r1
		r2 := con.r2

		vb1 := a.vBias.Add(r1.Perp().Mult(a.wBias))
		vb2 := b.vBias.Add(r2.Perp().Mult(b.wBias))
		vr := relativeVelocity(a, b, r1, r2)

		vbn := vb2.Sub(vb1).Dot(n)
		vrn := vr.Dot(n)
		vrt := vr.Add(surfaceVr).Dot(n.Perp())

		// Position correction operates on the bias velocities only.
		jbn := (con.bias - vbn) * nMass
		jbnOld := con.jBias
		con.jBias = math2d.Max(jbnOld+jbn, 0)
		applyBiasImpulses(a, b, r1, r2, n.Mult(con.jBias-jbnOld))

		// Normal impulse. Contacts only ever push.
		jn := -(con.bounce + vrn) * nMass
		jnOld := con.jnAcc
		con.jnAcc = math2d.Max(jnOld+jn, 0)

		// Friction impulse inside the Coulomb cone.
		jtMax := friction * con.jnAcc
		jt := -vrt * con.tMass
		jtOld := con.jtAcc
		con.jtAcc = math2d.Clamp(jtOld+jt, -jtMax, jtMax)

		applyImpulses(a, b, r1, r2, n.Rotate(math2d.Vect(con.jnAcc-jnOld, con.jtAcc-jtOld)))
	}
}

// Ignore marks the collision pair to be ignored until the shapes
// separate. Returns false so it can be tail-called from a begin or
// preSolve handler.
func (arb *Arbiter) Ignore() bool {

	arb.state = arbiterStateIgnore
	return false
}

// Restitution returns the restitution used for this collision pair.
func (arb *Arbiter) Restitution() float64 {

	return arb.e
}

// SetRestitution overrides the restitution for this collision pair.
// Only meaningful from a preSolve handler.
func (arb *Arbiter) SetRestitution(e float64) {

	arb.e = e
}

// Friction returns the friction used for this collision pair.
func (arb *Arbiter) Friction() float64 {

	return arb.u
}

// SetFriction overrides the friction for this collision pair. Only
// meaningful from a preSolve handler.
func (arb *Arbiter) SetFriction(u float64) {

	arb.u = u
}

// SurfaceVelocity returns the relative surface velocity of the two
// colliding shapes.
func (arb *Arbiter) SurfaceVelocity() Vect {

	return arb.surfaceVr
}

// SetSurfaceVelocity overrides the relative surface velocity. Only
// meaningful from a preSolve handler.
func (arb *Arbiter) SetSurfaceVelocity(vr Vect) {

	arb.surfaceVr = vr
}

// UserData returns the user data pointer of the arbiter.
func (arb *Arbiter) UserData() interface{} {

	return arb.userData
}

// SetUserData sets a user data pointer on the arbiter. If the data
// needs cleanup, do it from a separate handler; the arbiter itself
// is recycled.
func (arb *Arbiter) SetUserData(data interface{}) {

	arb.userData = data
}

// TotalImpulse returns the impulse applied this step to resolve the
// collision, including friction.
func (arb *Arbiter) TotalImpulse() Vect {

	n := arb.n
	sum := Vect{}

	for i := 0; i < arb.count; i++ {
		con := &arb.contacts[i]
		sum = sum.Add(n.Rotate(math2d.Vect(con.jnAcc, con.jtAcc)))
	}

	if arb.swapped {
		return sum
	}
	return sum.Neg()
}

// TotalKE returns an estimate of the kinetic energy lost resolving
// the collision.
func (arb *Arbiter) TotalKE() float64 {

	eCoef := (1 - arb.e) / (1 + arb.e)
	sum := 0.0

	for i := 0; i < arb.count; i++ {
		con := &arb.contacts[i]
		sum += eCoef*con.jnAcc*con.jnAcc/con.nMass + con.jtAcc*con.jtAcc/con.tMass
	}

	return sum
}

// Count returns the number of contact points.
func (arb *Arbiter) Count() int {

	// Return 0 contacts while filtering arbiters.
	if arb.state < arbiterStateCached {
		return arb.count
	}
	return 0
}

// Normal returns the collision normal, pointing from the first
// shape towards the second.
func (arb *Arbiter) Normal() Vect {

	if arb.swapped {
		return arb.n.Neg()
	}
	return arb.n
}

// PointA returns the i-th contact point on the surface of the first
// body.
func (arb *Arbiter) PointA(i int) Vect {

	assert(0 <= i && i < arb.Count(), "contact index out of range")
	return arb.bodyA.p.Add(arb.contacts[i].r1)
}

// PointB returns the i-th contact point on the surface of the
// second body.
func (arb *Arbiter) PointB(i int) Vect {

	assert(0 <= i && i < arb.Count(), "contact index out of range")
	return arb.bodyB.p.Add(arb.contacts[i].r2)
}

// Depth returns the penetration depth of the i-th contact point.
func (arb *Arbiter) Depth(i int) float64 {

	assert(0 <= i && i < arb.Count(), "contact index out of range")

	con := &arb.contacts[i]
	return con.r2.Sub(con.r1).Add(arb.bodyB.p.Sub(arb.bodyA.p)).Dot(arb.n)
}

// ContactPointSet returns a copy of the arbiter's contact points in
// the order the shapes were passed to the handler.
func (arb *Arbiter) ContactPointSet() ContactPointSet {

	var set ContactPointSet
	set.Count = arb.count

	swapped := arb.swapped
	n := arb.n
	if swapped {
		set.Normal = n.Neg()
	} else {
		set.Normal = n
	}

	for i := 0; i < set.Count; i++ {
		p1 := arb.bodyA.p.Add(arb.contacts[i].r1)
		p2 := arb.bodyB.p.Add(arb.contacts[i].r2)

		if swapped {
			p1, p2 = p2, p1
		}
		set.Points[i].PointA = p1
		set.Points[i].PointB = p2
		set.Points[i].Distance = p2.Sub(p1).Dot(set.Normal)
	}

	return set
}

// SetContactPointSet replaces the arbiter's contact points. The
// number of points cannot change.
func (arb *Arbiter) SetContactPointSet(set *ContactPointSet) {

	assert(set.Count == arb.count, "the number of contact points cannot be changed")

	swapped := arb.swapped
	if swapped {
		arb.n = set.Normal.Neg()
	} else {
		arb.n = set.Normal
	}

	for i := 0; i < set.Count; i++ {
		p1 := set.Points[i].PointA
		p2 := set.Points[i].PointB

		if swapped {
			p1, p2 = p2, p1
		}
		arb.contacts[i].r1 = p1.Sub(arb.bodyA.p)
		arb.contacts[i].r2 = p2.Sub(arb.bodyB.p)
	}
}

// IsFirstContact reports whether this is the first step the pair
// touched.
func (arb *Arbiter) IsFirstContact() bool {

	return arb.state == arbiterStateFirstCollision
}

// IsRemoval reports whether the separate callback is due to a shape
// being removed from the space rather than the shapes separating.
func (arb *Arbiter) IsRemoval() bool {

	return arb.state == arbiterStateInvalidated
}

// Shapes returns the two colliding shapes in the order matching the
// handler that is being called.
func (arb *Arbiter) Shapes() (*Shape, *Shape) {

	if arb.swapped {
		return arb.b, arb.a
	}
	return arb.a, arb.b
}

// Bodies returns the two colliding bodies in the order matching the
// handler that is being called.
func (arb *Arbiter) Bodies() (*Body, *Body) {

	shapeA, shapeB := arb.Shapes()
	return shapeA.body, shapeB.body
}

// ContactPointSet describes the contact points of a collision.
type ContactPointSet struct {
	Count  int
	Normal Vect
	Points [maxContactsPerArbiter]struct {
		// PointA and PointB lie on the surfaces of the two shapes.
		PointA, PointB Vect
		// Distance is negative when the shapes overlap.
		Distance float64
	}
}

// Wildcard helpers, for composing custom handlers out of the
// registered wildcard handlers.

// CallWildcardBeginA runs the wildcard begin handler for the first
// shape.
func (arb *Arbiter) CallWildcardBeginA(space *Space) bool {

	handler := arb.handlerA
	if handler == nil {
		return true
	}
	return handler.BeginFunc(arb, space, handler.UserData)
}

// CallWildcardBeginB runs the wildcard begin handler for the second
// shape.
func (arb *Arbiter) CallWildcardBeginB(space *Space) bool {

	handler := arb.handlerB
	if handler == nil {
		return true
	}
	arb.swapped = !arb.swapped
	retval := handler.BeginFunc(arb, space, handler.UserData)
	arb.swapped = !arb.swapped
	return retval
}

// CallWildcardPreSolveA runs the wildcard preSolve handler for the
// first shape.
func (arb *Arbiter) CallWildcardPreSolveA(space *Space) bool {

	handler := arb.handlerA
	if handler == nil {
		return true
	}
	return handler.PreSolveFunc(arb, space, handler.UserData)
}

// CallWildcardPreSolveB runs the wildcard preSolve handler for the
// second shape.
func (arb *Arbiter) CallWildcardPreSolveB(space *Space) bool {

	handler := arb.handlerB
	if handler == nil {
		return true
	}
	arb.swapped = !arb.swapped
	retval := handler.PreSolveFunc(arb, space, handler.UserData)
	arb.swapped = !arb.swapped
	return retval
}

// CallWildcardPostSolveA runs the wildcard postSolve handler for
// the first shape.
func (arb *Arbiter) CallWildcardPostSolveA(space *Space) {

	if handler := arb.handlerA; handler != nil {
		handler.PostSolveFunc(arb, space, handler.UserData)
	}
}

// CallWildcardPostSolveB runs the wildcard postSolve handler for
// the second shape.
func (arb *Arbiter) CallWildcardPostSolveB(space *Space) {

	if handler := arb.handlerB; handler != nil {
		arb.swapped = !arb.swapped
		handler.PostSolveFunc(arb, space, handler.UserData)
		arb.swapped = !arb.swapped
	}
}

// CallWildcardSeparateA runs the wildcard separate handler for the
// first shape.
func (arb *Arbiter) CallWildcardSeparateA(space *Space) {

	if handler := arb.handlerA; handler != nil {
		handler.SeparateFunc(arb, space, handler.UserData)
	}
}

// CallWildcardSeparateB runs the wildcard separate handler for the
// second shape.
func (arb *Arbiter) CallWildcardSeparateB(space *Space) {

	if handler := arb.handlerB; handler != nil {
		arb.swapped = !arb.swapped
		handler.SeparateFunc(arb, space, handler.UserData)
		arb.swapped = !arb.swapped
	}
}
