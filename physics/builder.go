// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package physics

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/impulse2d/engine/math2d"
)

// Builder builds a populated Space from a declarative YAML
// description: solver settings, bodies with their shapes, and
// constraints referencing the bodies by name. Handy for test
// fixtures and data driven scenes.
//
// An example description:
//
//	space:
//	  iterations: 10
//	  gravity: [0, -100]
//	bodies:
//	  - name: ground
//	    type: static
//	    shapes:
//	      - kind: segment
//	        a: [-320, -240]
//	        b: [320, -240]
//	        friction: 1.0
//	  - name: ball
//	    mass: 1
//	    moment: 112.5
//	    position: [0, 100]
//	    shapes:
//	      - kind: circle
//	        radius: 15
//	        friction: 0.7
//	constraints:
//	  - kind: pivot
//	    body_a: static
//	    body_b: ball
//	    pivot: [0, 100]
type Builder struct {
	desc sceneDesc
}

type vec2Desc [2]float64

func (v vec2Desc) vect() Vect {

	return math2d.Vect(v[0], v[1])
}

type sceneDesc struct {
	Space       spaceDesc        `yaml:"space"`
	Bodies      []bodyDesc       `yaml:"bodies"`
	Constraints []constraintDesc `yaml:"constraints"`
}

type spaceDesc struct {
	Iterations           *int      `yaml:"iterations"`
	Gravity              *vec2Desc `yaml:"gravity"`
	Damping              *float64  `yaml:"damping"`
	IdleSpeedThreshold   *float64  `yaml:"idle_speed_threshold"`
	SleepTimeThreshold   *float64  `yaml:"sleep_time_threshold"`
	CollisionSlop        *float64  `yaml:"collision_slop"`
	CollisionBias        *float64  `yaml:"collision_bias"`
	CollisionPersistence *uint     `yaml:"collision_persistence"`
}

type bodyDesc struct {
	Name            string      `yaml:"name"`
	Type            string      `yaml:"type"`
	Mass            float64     `yaml:"mass"`
	Moment          float64     `yaml:"moment"`
	Position        vec2Desc    `yaml:"position"`
	Angle           float64     `yaml:"angle"`
	Velocity        vec2Desc    `yaml:"velocity"`
	AngularVelocity float64     `yaml:"angular_velocity"`
	Shapes          []shapeDesc `yaml:"shapes"`
}

type shapeDesc struct {
	Kind string `yaml:"kind"`

	// Circle.
	Radius float64  `yaml:"radius"`
	Offset vec2Desc `yaml:"offset"`

	// Segment.
	A vec2Desc `yaml:"a"`
	B vec2Desc `yaml:"b"`

	// Box.
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`

	// Polygon.
	Verts []vec2Desc `yaml:"verts"`

	Friction        float64  `yaml:"friction"`
	Elasticity      float64  `yaml:"elasticity"`
	SurfaceVelocity vec2Desc `yaml:"surface_velocity"`
	Sensor          bool     `yaml:"sensor"`
	CollisionType   uint     `yaml:"collision_type"`
	Group           uint     `yaml:"group"`
	Categories      *uint    `yaml:"categories"`
	Mask            *uint    `yaml:"mask"`
	Mass            float64  `yaml:"mass"`
}

type constraintDesc struct {
	Kind  string `yaml:"kind"`
	BodyA string `yaml:"body_a"`
	BodyB string `yaml:"body_b"`

	AnchorA vec2Desc `yaml:"anchor_a"`
	AnchorB vec2Desc `yaml:"anchor_b"`
	Pivot   *vec2Desc `yaml:"pivot"`

	GrooveA vec2Desc `yaml:"groove_a"`
	GrooveB vec2Desc `yaml:"groove_b"`

	Min        float64 `yaml:"min"`
	Max        float64 `yaml:"max"`
	RestLength float64 `yaml:"rest_length"`
	RestAngle  float64 `yaml:"rest_angle"`
	Stiffness  float64 `yaml:"stiffness"`
	Damping    float64 `yaml:"damping"`
	Phase      float64 `yaml:"phase"`
	Ratchet    float64 `yaml:"ratchet"`
	Ratio      float64 `yaml:"ratio"`
	Rate       float64 `yaml:"rate"`

	MaxForce      *float64 `yaml:"max_force"`
	ErrorBias     *float64 `yaml:"error_bias"`
	MaxBias       *float64 `yaml:"max_bias"`
	CollideBodies *bool    `yaml:"collide_bodies"`
}

// NewBuilder creates and returns a pointer to a new empty Builder.
func NewBuilder() *Builder {

	return new(Builder)
}

// ParseString parses a YAML scene description. Unknown fields are
// an error.
func (b *Builder) ParseString(desc string) error {

	return yaml.UnmarshalStrict([]byte(desc), &b.desc)
}

// ParseFile parses a YAML scene description from a file.
func (b *Builder) ParseFile(path string) error {

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, &b.desc)
}

// Build creates a space populated with the parsed description.
func (b *Builder) Build() (*Space, error) {

	space := NewSpace()

	sd := b.desc.Space
	if sd.Iterations != nil {
		space.SetIterations(*sd.Iterations)
	}
	if sd.Gravity != nil {
		space.SetGravity(sd.Gravity.vect())
	}
	if sd.Damping != nil {
		space.SetDamping(*sd.Damping)
	}
	if sd.IdleSpeedThreshold != nil {
		space.SetIdleSpeedThreshold(*sd.IdleSpeedThreshold)
	}
	if sd.SleepTimeThreshold != nil {
		space.SetSleepTimeThreshold(*sd.SleepTimeThreshold)
	}
	if sd.CollisionSlop != nil {
		space.SetCollisionSlop(*sd.CollisionSlop)
	}
	if sd.CollisionBias != nil {
		space.SetCollisionBias(*sd.CollisionBias)
	}
	if sd.CollisionPersistence != nil {
		space.SetCollisionPersistence(*sd.CollisionPersistence)
	}

	bodies := map[string]*Body{"static": space.StaticBody()}

	for i, bd := range b.desc.Bodies {
		body, err := buildBody(space, bd)
		if err != nil {
			return nil, fmt.Errorf("body %d (%q): %w", i, bd.Name, err)
		}
		if bd.Name != "" {
			if _, exists := bodies[bd.Name]; exists {
				return nil, fmt.Errorf("duplicate body name %q", bd.Name)
			}
			bodies[bd.Name] = body
		}
	}

	for i, cd := range b.desc.Constraints {
		if err := buildConstraint(space, bodies, cd); err != nil {
			return nil, fmt.Errorf("constraint %d (%s): %w", i, cd.Kind, err)
		}
	}

	return space, nil
}

func buildBody(space *Space, bd bodyDesc) (*Body, error) {

	var body *Body
	switch bd.Type {
	case "", "dynamic":
		body = NewBody(bd.Mass, bd.Moment)
	case "kinematic":
		body = NewKinematicBody()
	case "static":
		body = NewStaticBody()
	default:
		return nil, fmt.Errorf("unknown body type %q", bd.Type)
	}

	body.SetPosition(bd.Position.vect())
	body.SetAngle(bd.Angle)
	body.SetVelocityVector(bd.Velocity.vect())
	body.SetAngularVelocity(bd.AngularVelocity)
	space.AddBody(body)

	for i, sd := range bd.Shapes {
		shape, err := buildShape(body, sd)
		if err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
		space.AddShape(shape)
	}

	return body, nil
}

func buildShape(body *Body, sd shapeDesc) (*Shape, error) {

	var shape *Shape
	switch sd.Kind {
	case "circle":
		shape = NewCircle(body, sd.Radius, sd.Offset.vect())
	case "segment":
		shape = NewSegment(body, sd.A.vect(), sd.B.vect(), sd.Radius)
	case "box":
		shape = NewBox(body, sd.Width, sd.Height, sd.Radius)
	case "polygon":
		verts := make([]Vect, len(sd.Verts))
		for i, v := range sd.Verts {
			verts[i] = v.vect()
		}
		shape = NewPoly(body, verts, math2d.TransformIdentity, sd.Radius)
	default:
		return nil, fmt.Errorf("unknown shape kind %q", sd.Kind)
	}

	shape.SetFriction(sd.Friction)
	shape.SetElasticity(sd.Elasticity)
	shape.SetSurfaceVelocity(sd.SurfaceVelocity.vect())
	shape.SetSensor(sd.Sensor)
	shape.SetCollisionType(CollisionType(sd.CollisionType))

	filter := ShapeFilterAll
	filter.Group = Group(sd.Group)
	if sd.Categories != nil {
		filter.Categories = Bitmask(*sd.Categories)
	}
	if sd.Mask != nil {
		filter.Mask = Bitmask(*sd.Mask)
	}
	shape.SetFilter(filter)

	if sd.Mass > 0 {
		shape.SetMass(sd.Mass)
	}

	return shape, nil
}

func buildConstraint(space *Space, bodies map[string]*Body, cd constraintDesc) error {

	a, ok := bodies[cd.BodyA]
	if !ok {
		return fmt.Errorf("unknown body %q", cd.BodyA)
	}
	b, ok := bodies[cd.BodyB]
	if !ok {
		return fmt.Errorf("unknown body %q", cd.BodyB)
	}

	var constraint *Constraint
	switch cd.Kind {
	case "pin":
		constraint = NewPinJoint(a, b, cd.AnchorA.vect(), cd.AnchorB.vect())
	case "slide":
		constraint = NewSlideJoint(a, b, cd.AnchorA.vect(), cd.AnchorB.vect(), cd.Min, cd.Max)
	case "pivot":
		if cd.Pivot != nil {
			constraint = NewPivotJoint(a, b, cd.Pivot.vect())
		} else {
			constraint = NewPivotJoint2(a, b, cd.AnchorA.vect(), cd.AnchorB.vect())
		}
	case "groove":
		constraint = NewGrooveJoint(a, b, cd.GrooveA.vect(), cd.GrooveB.vect(), cd.AnchorB.vect())
	case "damped_spring":
		constraint = NewDampedSpring(a, b, cd.AnchorA.vect(), cd.AnchorB.vect(), cd.RestLength, cd.Stiffness, cd.Damping)
	case "damped_rotary_spring":
		constraint = NewDampedRotarySpring(a, b, cd.RestAngle, cd.Stiffness, cd.Damping)
	case "rotary_limit":
		constraint = NewRotaryLimitJoint(a, b, cd.Min, cd.Max)
	case "ratchet":
		constraint = NewRatchetJoint(a, b, cd.Phase, cd.Ratchet)
	case "gear":
		constraint = NewGearJoint(a, b, cd.Phase, cd.Ratio)
	case "simple_motor":
		constraint = NewSimpleMotor(a, b, cd.Rate)
	default:
		return fmt.Errorf("unknown constraint kind %q", cd.Kind)
	}

	if cd.MaxForce != nil {
		constraint.SetMaxForce(*cd.MaxForce)
	}
	if cd.ErrorBias != nil {
		constraint.SetErrorBias(*cd.ErrorBias)
	}
	if cd.MaxBias != nil {
		constraint.SetMaxBias(*cd.MaxBias)
	}
	if cd.CollideBodies != nil {
		constraint.SetCollideBodies(*cd.CollideBodies)
	}

	space.AddConstraint(constraint)
	return nil
}
