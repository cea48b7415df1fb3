// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

// DebugColor is an RGBA color used by the debug draw interface.
type DebugColor struct {
	R, G, B, A float32
}

// DebugDrawFlags select which parts of the space are drawn.
type DebugDrawFlags int

const (
	// DebugDrawShapes draws the collision shapes.
	DebugDrawShapes = DebugDrawFlags(1 << iota)
	// DebugDrawConstraints draws joints and springs.
	DebugDrawConstraints
	// DebugDrawCollisionPoints draws the current contact points.
	DebugDrawCollisionPoints
)

// DebugDrawOptions supplies the five drawing primitives and the
// colors used by DebugDraw. Any backend that can draw circles,
// segments, polygons and dots can render a space with it.
type DebugDrawOptions struct {
	DrawCircle     func(pos Vect, angle, radius float64, outline, fill DebugColor)
	DrawSegment    func(a, b Vect, color DebugColor)
	DrawFatSegment func(a, b Vect, radius float64, outline, fill DebugColor)
	DrawPolygon    func(verts []Vect, radius float64, outline, fill DebugColor)
	DrawDot        func(size float64, pos Vect, color DebugColor)

	// ColorForShape overrides the fill color per shape; optional.
	ColorForShape func(shape *Shape) DebugColor

	Flags DebugDrawFlags

	ShapeOutlineColor   DebugColor
	ConstraintColor     DebugColor
	CollisionPointColor DebugColor
}

// defaultColorForShape shades shapes by their state: sensors
// translucent white, sleeping shapes dim, idle shapes gray, the rest
// by a hash of their shape id.
func defaultColorForShape(shape *Shape) DebugColor {

	if shape.sensor {
		return DebugColor{1, 1, 1, 0.1}
	}

	body := shape.body
	if body.IsSleeping() {
		return DebugColor{0.2, 0.2, 0.2, 1}
	}
	if body.sleepingIdleTime > 1.0 {
		return DebugColor{0.66, 0.66, 0.66, 1}
	}

	// A cheap integer hash to vary the hue per shape id.
	val := uint64(shape.hashid)
	val = (val + 0x7ed55d16) + (val << 12)
	val = (val ^ 0xc761c23c) ^ (val >> 19)
	val = (val + 0x165667b1) + (val << 5)
	val = (val + 0xd3a2646c) ^ (val << 9)
	val = (val + 0xfd7046c5) + (val << 3)
	val = (val ^ 0xb55a4f09) ^ (val >> 16)

	r := float32((val>>0)&0xff) / 255.0
	g := float32((val>>8)&0xff) / 255.0
	b := float32((val>>16)&0xff) / 255.0
	return DebugColor{r*0.75 + 0.25, g*0.75 + 0.25, b*0.75 + 0.25, 1}
}

func debugDrawShape(shape *Shape, options *DebugDrawOptions) {

	colorForShape := options.ColorForShape
	if colorForShape == nil {
		colorForShape = defaultColorForShape
	}
	fill := colorForShape(shape)
	outline := options.ShapeOutlineColor

	switch class := shape.class.(type) {
	case *Circle:
		options.DrawCircle(class.tc, shape.body.a, class.r, outline, fill)
	case *Segment:
		options.DrawFatSegment(class.ta, class.tb, class.r, outline, fill)
	case *Poly:
		verts := make([]Vect, class.count)
		for i := 0; i < class.count; i++ {
			verts[i] = class.planes[i].v0
		}
		options.DrawPolygon(verts, class.r, outline, fill)
	}
}

func debugDrawConstraint(constraint *Constraint, options *DebugDrawOptions) {

	color := options.ConstraintColor
	bodyA := constraint.a
	bodyB := constraint.b

	switch class := constraint.class.(type) {
	case *PinJoint:
		a := bodyA.transform.Point(class.anchorA)
		b := bodyB.transform.Point(class.anchorB)
		options.DrawDot(5, a, color)
		options.DrawDot(5, b, color)
		options.DrawSegment(a, b, color)
	case *SlideJoint:
		a := bodyA.transform.Point(class.anchorA)
		b := bodyB.transform.Point(class.anchorB)
		options.DrawDot(5, a, color)
		options.DrawDot(5, b, color)
		options.DrawSegment(a, b, color)
	case *PivotJoint:
		a := bodyA.transform.Point(class.anchorA)
		b := bodyB.transform.Point(class.anchorB)
		options.DrawDot(5, a, color)
		options.DrawDot(5, b, color)
	case *GrooveJoint:
		a := bodyA.transform.Point(class.grooveA)
		b := bodyA.transform.Point(class.grooveB)
		c := bodyB.transform.Point(class.anchorB)
		options.DrawSegment(a, b, color)
		options.DrawDot(5, c, color)
	case *DampedSpring:
		a := bodyA.transform.Point(class.anchorA)
		b := bodyB.transform.Point(class.anchorB)
		options.DrawDot(5, a, color)
		options.DrawDot(5, b, color)
		options.DrawSegment(a, b, color)
	}
}

// DebugDraw walks the space and renders it through the drawing
// primitives in options.
func DebugDraw(space *Space, options *DebugDrawOptions) {

	if options.Flags&DebugDrawShapes != 0 {
		space.EachShape(func(shape *Shape) {
			debugDrawShape(shape, options)
		})
	}

	if options.Flags&DebugDrawConstraints != 0 {
		space.EachConstraint(func(constraint *Constraint) {
			debugDrawConstraint(constraint, options)
		})
	}

	if options.Flags&DebugDrawCollisionPoints != 0 {
		for _, arb := range space.arbiters {
			n := arb.n
			for i := 0; i < arb.count; i++ {
				p1 := arb.bodyA.p.Add(arb.contacts[i].r1)
				p2 := arb.bodyB.p.Add(arb.contacts[i].r2)

				a := p1.Add(n.Mult(-2))
				b := p2.Add(n.Mult(2))
				options.DrawSegment(a, b, options.CollisionPointColor)
			}
		}
	}
}
