// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"github.com/impulse2d/engine/math2d"
	"github.com/impulse2d/engine/spatial"
)

// CollisionBeginFunc is called when two shapes start touching.
// Returning false ignores the collision until the shapes separate.
type CollisionBeginFunc func(arb *Arbiter, space *Space, userData interface{}) bool

// CollisionPreSolveFunc is called each step before the solver runs
// for a colliding pair. Returning false suppresses this step's
// collision response.
type CollisionPreSolveFunc func(arb *Arbiter, space *Space, userData interface{}) bool

// CollisionPostSolveFunc is called each step after the solver ran
// for a colliding pair.
type CollisionPostSolveFunc func(arb *Arbiter, space *Space, userData interface{})

// CollisionSeparateFunc is called when two shapes stop touching, or
// when one of them is removed from the space.
type CollisionSeparateFunc func(arb *Arbiter, space *Space, userData interface{})

// CollisionHandler holds the callbacks for a pair of collision
// types. Unset callbacks behave as "accept" for begin and preSolve
// and as no-ops for postSolve and separate.
type CollisionHandler struct {
	TypeA, TypeB  CollisionType
	BeginFunc     CollisionBeginFunc
	PreSolveFunc  CollisionPreSolveFunc
	PostSolveFunc CollisionPostSolveFunc
	SeparateFunc  CollisionSeparateFunc
	UserData      interface{}
}

func alwaysCollide(arb *Arbiter, space *Space, userData interface{}) bool { return true }

func doNothing(arb *Arbiter, space *Space, userData interface{}) {}

// The default handler when wildcards are in use composes the two
// wildcard handlers of the colliding types.

func defaultBegin(arb *Arbiter, space *Space, userData interface{}) bool {

	retA := arb.CallWildcardBeginA(space)
	retB := arb.CallWildcardBeginB(space)
	return retA && retB
}

func defaultPreSolve(arb *Arbiter, space *Space, userData interface{}) bool {

	retA := arb.CallWildcardPreSolveA(space)
	retB := arb.CallWildcardPreSolveB(space)
	return retA && retB
}

func defaultPostSolve(arb *Arbiter, space *Space, userData interface{}) {

	arb.CallWildcardPostSolveA(space)
	arb.CallWildcardPostSolveB(space)
}

func defaultSeparate(arb *Arbiter, space *Space, userData interface{}) {

	arb.CallWildcardSeparateA(space)
	arb.CallWildcardSeparateB(space)
}

var collisionHandlerDoNothing = CollisionHandler{
	WildcardCollisionType, WildcardCollisionType,
	alwaysCollide, alwaysCollide, doNothing, doNothing, nil,
}

var collisionHandlerDefault = CollisionHandler{
	WildcardCollisionType, WildcardCollisionType,
	defaultBegin, defaultPreSolve, defaultPostSolve, defaultSeparate, nil,
}

// handlerKey is the unordered pair of collision types a handler is
// registered under.
type handlerKey struct {
	a, b CollisionType
}

func newHandlerKey(a, b CollisionType) handlerKey {

	if a > b {
		a, b = b, a
	}
	return handlerKey{a, b}
}

// shapePair keys the cached arbiter table. The shapes are ordered
// by their space assigned ids so lookups are order independent.
type shapePair struct {
	a, b *Shape
}

func newShapePair(a, b *Shape) shapePair {

	if a.hashid > b.hashid {
		a, b = b, a
	}
	return shapePair{a, b}
}

// PostStepFunc is a deferred callback run when the space step ends.
type PostStepFunc func(space *Space, key, data interface{})

type postStepCallback struct {
	f    PostStepFunc
	key  interface{}
	data interface{}
}

// Space is the basic simulation container: it owns the bodies,
// shapes and constraints added to it and advances them together
// through Step.
type Space struct {
	// Iterations is the number of solver passes per step.
	iterations int

	gravity Vect
	damping float64

	idleSpeedThreshold float64
	sleepTimeThreshold float64

	collisionSlop        float64
	collisionBias        float64
	collisionPersistence uint

	userData interface{}

	stamp  uint
	currDt float64

	dynamicBodies      []*Body
	staticBodies       []*Body
	rousedBodies       []*Body
	sleepingComponents []*Body

	shapeIDCounter HashValue
	staticShapes   spatial.Index
	dynamicShapes  spatial.Index

	constraints []*Constraint

	arbiters       []*Arbiter
	cachedArbiters map[shapePair]*Arbiter
	pooledArbiters []*Arbiter

	lockedDepth  int
	skipPostStep bool

	postStepCallbacks []*postStepCallback

	usesWildcards     bool
	collisionHandlers map[handlerKey]*CollisionHandler
	defaultHandler    CollisionHandler

	staticBody *Body
}

func shapeBBFunc(obj interface{}) math2d.BB {

	return obj.(*Shape).bb
}

func shapeVelocityFunc(obj interface{}) Vect {

	return obj.(*Shape).body.v
}

// NewSpace creates and returns a pointer to a new empty space with
// default settings: gravity off, sleeping disabled, ten solver
// iterations.
func NewSpace() *Space {

	space := &Space{
		iterations: 10,

		damping: 1.0,

		collisionSlop:        0.1,
		collisionBias:        math2d.Pow(1.0-0.1, 60.0),
		collisionPersistence: 3,

		sleepTimeThreshold: math2d.Infinity,

		cachedArbiters:    map[shapePair]*Arbiter{},
		collisionHandlers: map[handlerKey]*CollisionHandler{},
		defaultHandler:    collisionHandlerDoNothing,
	}

	space.staticShapes = spatial.NewBBTree(shapeBBFunc, nil)
	dynamicShapes := spatial.NewBBTree(shapeBBFunc, space.staticShapes)
	dynamicShapes.SetVelocityFunc(shapeVelocityFunc)
	space.dynamicShapes = dynamicShapes

	space.staticBody = NewStaticBody()
	space.staticBody.space = space

	return space
}

// Iterations returns the number of solver iterations per step.
func (space *Space) Iterations() int {

	return space.iterations
}

// SetIterations sets the number of solver iterations per step. More
// iterations give a more accurate but slower solution; 10 to 30 is
// typical.
func (space *Space) SetIterations(iterations int) {

	assert(iterations > 0, "iterations must be positive")
	space.iterations = iterations
}

// Gravity returns the gravity applied to dynamic bodies.
func (space *Space) Gravity() Vect {

	return space.gravity
}

// SetGravity sets the gravity applied to dynamic bodies.
func (space *Space) SetGravity(gravity Vect) {

	space.gravity = gravity

	// Wake up all of the bodies since the gravity changed.
	// Activating a component removes it from the list.
	for len(space.sleepingComponents) > 0 {
		space.sleepingComponents[0].Activate()
	}
}

// Damping returns the portion of velocity a body keeps per second.
func (space *Space) Damping() float64 {

	return space.damping
}

// SetDamping sets the portion of velocity a body keeps per second.
// A value of 0.9 means each body loses 10% of its speed per second.
func (space *Space) SetDamping(damping float64) {

	assert(damping >= 0, "damping must be non-negative")
	space.damping = damping
}

// IdleSpeedThreshold returns the speed below which a body counts as
// idle for sleeping purposes.
func (space *Space) IdleSpeedThreshold() float64 {

	return space.idleSpeedThreshold
}

// SetIdleSpeedThreshold sets the speed below which a body counts as
// idle. Zero lets the space guess a good value from gravity.
func (space *Space) SetIdleSpeedThreshold(threshold float64) {

	space.idleSpeedThreshold = threshold
}

// SleepTimeThreshold returns how long bodies must stay idle before
// their group falls asleep.
func (space *Space) SleepTimeThreshold() float64 {

	return space.sleepTimeThreshold
}

// SetSleepTimeThreshold sets how long bodies must stay idle before
// their group falls asleep. Infinity (the default) disables
// sleeping.
func (space *Space) SetSleepTimeThreshold(threshold float64) {

	space.sleepTimeThreshold = threshold
}

// CollisionSlop returns the allowed penetration depth.
func (space *Space) CollisionSlop() float64 {

	return space.collisionSlop
}

// SetCollisionSlop sets the amount of overlap that is allowed to
// persist between shapes. A small value keeps resting contacts
// stable.
func (space *Space) SetCollisionSlop(slop float64) {

	space.collisionSlop = slop
}

// CollisionBias returns the penetration correction rate.
func (space *Space) CollisionBias() float64 {

	return space.collisionBias
}

// SetCollisionBias sets the fraction of penetration that remains
// uncorrected after one second. The default corrects 10% of the
// overlap every 1/60th of a second.
func (space *Space) SetCollisionBias(bias float64) {

	space.collisionBias = bias
}

// CollisionPersistence returns how many steps collision data is
// kept around after shapes stop touching.
func (space *Space) CollisionPersistence() uint {

	return space.collisionPersistence
}

// SetCollisionPersistence sets how many steps collision data is
// kept around after shapes stop touching. Helps jittering contacts
// warm start properly.
func (space *Space) SetCollisionPersistence(persistence uint) {

	space.collisionPersistence = persistence
}

// UserData returns the user data pointer of the space.
func (space *Space) UserData() interface{} {

	return space.userData
}

// SetUserData sets the user data pointer of the space.
func (space *Space) SetUserData(data interface{}) {

	space.userData = data
}

// StaticBody returns the space's built-in static body, a convenient
// anchor for static shapes and joints to the world.
func (space *Space) StaticBody() *Body {

	return space.staticBody
}

// CurrentTimeStep returns the current or most recent dt, for use
// inside callbacks.
func (space *Space) CurrentTimeStep() float64 {

	return space.currDt
}

// IsLocked reports whether the space is in a step or query and thus
// cannot have topology changed directly.
func (space *Space) IsLocked() bool {

	return space.lockedDepth > 0
}

func (space *Space) lock() {

	space.lockedDepth++
}

func (space *Space) unlock(runPostStep bool) {

	space.lockedDepth--
	assertSoft(space.lockedDepth >= 0, "space lock underflow")

	if space.lockedDepth != 0 {
		return
	}

	waking := space.rousedBodies
	space.rousedBodies = nil
	for _, body := range waking {
		space.activateBody(body)
	}

	if runPostStep && !space.skipPostStep {
		space.skipPostStep = true

		callbacks := space.postStepCallbacks
		space.postStepCallbacks = nil
		for _, callback := range callbacks {
			f := callback.f
			// Clear the func in case the callback schedules more
			// callbacks.
			callback.f = nil
			if f != nil {
				f(space, callback.key, callback.data)
			}
		}

		space.skipPostStep = false
	}
}

func (space *Space) arrayForBodyType(bodyType BodyType) *[]*Body {

	if bodyType == BodyStatic {
		return &space.staticBodies
	}
	return &space.dynamicBodies
}

func (space *Space) indexForBodyType(bodyType BodyType) spatial.Index {

	if bodyType == BodyStatic {
		return space.staticShapes
	}
	return space.dynamicShapes
}

// Handler registry.

func (space *Space) lookupHandler(a, b CollisionType, def *CollisionHandler) *CollisionHandler {

	if handler, ok := space.collisionHandlers[newHandlerKey(a, b)]; ok {
		return handler
	}
	return def
}

// useWildcardDefaultHandler upgrades the default handler to one
// that composes wildcard handlers, the first time wildcards are
// used.
func (space *Space) useWildcardDefaultHandler() {

	if !space.usesWildcards {
		space.usesWildcards = true
		space.defaultHandler = collisionHandlerDefault
	}
}

// SetDefaultCollisionHandler returns the handler invoked for pairs
// with no specific handler, for the caller to fill in callbacks.
func (space *Space) SetDefaultCollisionHandler() *CollisionHandler {

	space.useWildcardDefaultHandler()
	return &space.defaultHandler
}

// AddCollisionHandler returns the handler for the given pair of
// collision types, creating it if needed, for the caller to fill in
// callbacks.
func (space *Space) AddCollisionHandler(a, b CollisionType) *CollisionHandler {

	key := newHandlerKey(a, b)
	if handler, ok := space.collisionHandlers[key]; ok {
		return handler
	}

	handler := &CollisionHandler{a, b, alwaysCollide, alwaysCollide, doNothing, doNothing, nil}
	space.collisionHandlers[key] = handler
	return handler
}

// AddWildcardHandler returns the wildcard handler for the given
// collision type, creating it if needed. A wildcard handler runs
// for every pair the type is part of that has no type-pair handler
// of its own. For a pair with a type-pair handler, the wildcard
// callbacks run only where that handler's callbacks call the
// arbiter's CallWildcard methods.
func (space *Space) AddWildcardHandler(collisionType CollisionType) *CollisionHandler {

	space.useWildcardDefaultHandler()

	key := newHandlerKey(collisionType, WildcardCollisionType)
	if handler, ok := space.collisionHandlers[key]; ok {
		return handler
	}

	handler := &CollisionHandler{
		collisionType, WildcardCollisionType,
		alwaysCollide, alwaysCollide, doNothing, doNothing, nil,
	}
	space.collisionHandlers[key] = handler
	return handler
}

// Add and remove.

// AddBody adds a body to the space. Must not be called during a
// step; use a post-step callback instead.
func (space *Space) AddBody(body *Body) *Body {

	assert(body.space == nil, "the body is already added to a space")
	assert(!space.IsLocked(), "space is locked: defer AddBody to a post-step callback")

	arr := space.arrayForBodyType(body.Type())
	*arr = append(*arr, body)
	body.space = space

	return body
}

// RemoveBody removes a body from the space. The body's shapes and
// constraints must be removed first.
func (space *Space) RemoveBody(body *Body) {

	assert(body != space.staticBody, "cannot remove the space's built-in static body")
	assert(space.ContainsBody(body), "the body was not added to this space")
	assert(len(body.shapeList) == 0, "remove the body's shapes before removing the body")
	assert(body.constraintList == nil, "remove the body's constraints before removing the body")
	assert(!space.IsLocked(), "space is locked: defer RemoveBody to a post-step callback")

	body.Activate()
	arrayDelete(space.arrayForBodyType(body.Type()), body)
	body.space = nil
}

// AddShape adds a shape to the space, assigning it a stable id.
// Must not be called during a step; use a post-step callback
// instead.
func (space *Space) AddShape(shape *Shape) *Shape {

	body := shape.body
	assert(shape.space == nil, "the shape is already added to a space")
	assert(!space.IsLocked(), "space is locked: defer AddShape to a post-step callback")

	isStatic := body.Type() == BodyStatic
	if !isStatic {
		body.Activate()
	}
	body.shapeList = append(body.shapeList, shape)

	space.shapeIDCounter++
	shape.hashid = space.shapeIDCounter

	shape.Update(body.transform)
	space.indexForBodyType(body.Type()).Insert(shape, shape.hashid)
	shape.space = space

	return shape
}

// RemoveShape removes a shape from the space. If the shape is part
// of an active collision, the separate handler fires immediately.
func (space *Space) RemoveShape(shape *Shape) {

	body := shape.body
	assert(space.ContainsShape(shape), "the shape was not added to this space")
	assert(!space.IsLocked(), "space is locked: defer RemoveShape to a post-step callback")

	isStatic := body.Type() == BodyStatic
	if isStatic {
		body.ActivateStatic(shape)
	} else {
		body.Activate()
	}

	for i, s := range body.shapeList {
		if s == shape {
			last := len(body.shapeList) - 1
			copy(body.shapeList[i:], body.shapeList[i+1:])
			body.shapeList[last] = nil
			body.shapeList = body.shapeList[:last]
			break
		}
	}

	space.filterArbiters(body, shape)
	space.indexForBodyType(body.Type()).Remove(shape, shape.hashid)
	shape.space = nil
	shape.hashid = 0
}

// AddConstraint adds a constraint to the space. Must not be called
// during a step; use a post-step callback instead.
func (space *Space) AddConstraint(constraint *Constraint) *Constraint {

	a := constraint.a
	b := constraint.b
	assert(a != nil && b != nil, "the constraint must be attached to two bodies")
	assert(constraint.space == nil, "the constraint is already added to a space")
	assert(!space.IsLocked(), "space is locked: defer AddConstraint to a post-step callback")

	a.Activate()
	b.Activate()
	space.constraints = append(space.constraints, constraint)

	// Push onto the heads of the bodies' constraint lists.
	constraint.nextA = a.constraintList
	a.constraintList = constraint
	constraint.nextB = b.constraintList
	b.constraintList = constraint
	constraint.space = space

	return constraint
}

// RemoveConstraint removes a constraint from the space.
func (space *Space) RemoveConstraint(constraint *Constraint) {

	assert(space.ContainsConstraint(constraint), "the constraint was not added to this space")
	assert(!space.IsLocked(), "space is locked: defer RemoveConstraint to a post-step callback")

	constraint.a.Activate()
	constraint.b.Activate()

	for i, c := range space.constraints {
		if c == constraint {
			last := len(space.constraints) - 1
			copy(space.constraints[i:], space.constraints[i+1:])
			space.constraints[last] = nil
			space.constraints = space.constraints[:last]
			break
		}
	}

	constraint.a.removeConstraint(constraint)
	constraint.b.removeConstraint(constraint)
	constraint.space = nil
}

// removeConstraint unlinks a constraint from the body's list.
func (body *Body) removeConstraint(constraint *Constraint) {

	prev := (*Constraint)(nil)
	node := body.constraintList
	for node != nil {
		next := node.next(body)
		if node == constraint {
			if prev != nil {
				if prev.a == body {
					prev.nextA = next
				} else {
					prev.nextB = next
				}
			} else {
				body.constraintList = next
			}
			if constraint.a == body {
				constraint.nextA = nil
			} else {
				constraint.nextB = nil
			}
			return
		}
		prev = node
		node = next
	}
}

// ContainsBody reports whether the body has been added to the
// space.
func (space *Space) ContainsBody(body *Body) bool {

	return body.space == space
}

// ContainsShape reports whether the shape has been added to the
// space.
func (space *Space) ContainsShape(shape *Shape) bool {

	return shape.space == space
}

// ContainsConstraint reports whether the constraint has been added
// to the space.
func (space *Space) ContainsConstraint(constraint *Constraint) bool {

	return constraint.space == space
}

// AddPostStepCallback schedules f to run when the current step
// finishes, with at most one callback per key. Returns false if a
// callback with the same key was already scheduled.
func (space *Space) AddPostStepCallback(f PostStepFunc, key, data interface{}) bool {

	assertSoft(space.IsLocked(),
		"post-step callbacks are only needed from within a callback during a step")

	for _, callback := range space.postStepCallbacks {
		if callback.key == key {
			return false
		}
	}

	space.postStepCallbacks = append(space.postStepCallbacks, &postStepCallback{f, key, data})
	return true
}

// filterArbiters flushes the arbiters touching the given body. If
// filter is non-nil, only arbiters involving that shape are
// flushed, and their separate handlers fire immediately.
func (space *Space) filterArbiters(body *Body, filter *Shape) {

	space.lock()

	arb := body.arbiterList
	for arb != nil {
		next := arb.threadForBody(body).next

		if (body == arb.bodyA && (filter == arb.a || filter == nil)) ||
			(body == arb.bodyB && (filter == arb.b || filter == nil)) {

			// Call separate when removing shapes.
			if filter != nil && arb.state != arbiterStateCached {
				arb.state = arbiterStateInvalidated
				handler := space.lookupHandler(arb.a.collisionType, arb.b.collisionType, &space.defaultHandler)
				handler.SeparateFunc(arb, space, handler.UserData)
			}

			arb.unthread()
			space.uncacheArbiter(arb)
			space.pooledArbiters = append(space.pooledArbiters, arb)
		}

		arb = next
	}

	space.unlock(true)
}

// uncacheArbiter removes an arbiter from the cache and the current
// step's arbiter array.
func (space *Space) uncacheArbiter(arb *Arbiter) {

	delete(space.cachedArbiters, newShapePair(arb.a, arb.b))

	for i, a := range space.arbiters {
		if a == arb {
			last := len(space.arbiters) - 1
			copy(space.arbiters[i:], space.arbiters[i+1:])
			space.arbiters[last] = nil
			space.arbiters = space.arbiters[:last]
			break
		}
	}
}

// arbiterFromPool fetches a recycled arbiter or allocates one.
func (space *Space) arbiterFromPool(a, b *Shape) *Arbiter {

	count := len(space.pooledArbiters)
	if count > 0 {
		arb := space.pooledArbiters[count-1]
		space.pooledArbiters = space.pooledArbiters[:count-1]
		arb.init(a, b)
		return arb
	}

	arb := &Arbiter{}
	arb.init(a, b)
	return arb
}

// Iteration.

// EachBody calls f once for every body in the space, including the
// sleeping ones.
func (space *Space) EachBody(f func(*Body)) {

	space.lock()

	for _, body := range space.dynamicBodies {
		f(body)
	}
	for _, body := range space.staticBodies {
		f(body)
	}
	for _, root := range space.sleepingComponents {
		body := root
		for body != nil {
			f(body)
			body = body.sleepingNext
		}
	}

	space.unlock(true)
}

// EachShape calls f once for every shape in the space.
func (space *Space) EachShape(f func(*Shape)) {

	space.lock()

	space.dynamicShapes.Each(func(obj interface{}) {
		f(obj.(*Shape))
	})
	space.staticShapes.Each(func(obj interface{}) {
		f(obj.(*Shape))
	})

	space.unlock(true)
}

// EachConstraint calls f once for every constraint in the space.
func (space *Space) EachConstraint(f func(*Constraint)) {

	space.lock()

	for _, constraint := range space.constraints {
		f(constraint)
	}

	space.unlock(true)
}

// Reindexing.

// ReindexStatic updates the cached data of all static shapes after
// moving static bodies manually.
func (space *Space) ReindexStatic() {

	assert(!space.IsLocked(), "cannot reindex while the space is stepping")

	space.staticShapes.Each(func(obj interface{}) {
		shape := obj.(*Shape)
		shape.Update(shape.body.transform)
	})
	space.staticShapes.Reindex()
}

// ReindexShape updates the cached data of a single shape.
func (space *Space) ReindexShape(shape *Shape) {

	assert(!space.IsLocked(), "cannot reindex while the space is stepping")

	shape.CacheBB()

	// Attempt to rehash the shape in both indexes.
	space.dynamicShapes.ReindexObject(shape, shape.hashid)
	space.staticShapes.ReindexObject(shape, shape.hashid)
}

// ReindexShapesForBody updates the cached data of all of a body's
// shapes.
func (space *Space) ReindexShapesForBody(body *Body) {

	for _, shape := range body.shapeList {
		space.ReindexShape(shape)
	}
}

// ResetShapeIDCounter resets the id counter used to assign shape
// ids, so that rebuilding the same scene in the same order yields
// the same ids. Cached collision data keyed on the old ids is
// flushed.
func (space *Space) ResetShapeIDCounter() {

	assert(!space.IsLocked(), "cannot reset shape ids while the space is stepping")

	space.shapeIDCounter = 0
	for pair, arb := range space.cachedArbiters {
		arb.unthread()
		delete(space.cachedArbiters, pair)
	}
	space.arbiters = space.arbiters[:0]
}

// UseSpatialHash switches the space's broad phase to spatial
// hashing with the given cell size and table size. The bounding box
// trees used by default are a better choice unless the simulation
// consists of very many uniformly sized objects.
func (space *Space) UseSpatialHash(dim float64, count int) {

	assert(!space.IsLocked(), "cannot switch the broad phase while the space is stepping")

	staticShapes := spatial.NewSpaceHash(dim, count, shapeBBFunc, nil)
	dynamicShapes := spatial.NewSpaceHash(dim, count, shapeBBFunc, staticShapes)

	space.staticShapes.Each(func(obj interface{}) {
		staticShapes.Insert(obj, obj.(*Shape).hashid)
	})
	space.dynamicShapes.Each(func(obj interface{}) {
		dynamicShapes.Insert(obj, obj.(*Shape).hashid)
	})

	space.staticShapes = staticShapes
	space.dynamicShapes = dynamicShapes
}
