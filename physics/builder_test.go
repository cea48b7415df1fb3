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

const ballSceneDesc = `
space:
  iterations: 20
  gravity: [0, -100]
  sleep_time_threshold: 0.5
bodies:
  - name: ground
    type: static
    shapes:
      - kind: segment
        a: [-320, -240]
        b: [320, -240]
        friction: 1.0
  - name: ball
    mass: 1
    moment: 112.5
    position: [0, 0]
    shapes:
      - kind: circle
        radius: 15
        friction: 0.7
`

func TestBuilderBuildsScene(t *testing.T) {

	builder := NewBuilder()
	require.NoError(t, builder.ParseString(ballSceneDesc))

	space, err := builder.Build()
	require.NoError(t, err)

	tassert.Equal(t, 20, space.Iterations())
	tassert.Equal(t, math2d.Vect(0, -100), space.Gravity())
	tassert.Equal(t, 0.5, space.SleepTimeThreshold())

	bodies := 0
	space.EachBody(func(body *Body) {
		bodies++
	})
	tassert.Equal(t, 2, bodies)

	shapes := 0
	space.EachShape(func(shape *Shape) {
		shapes++
	})
	tassert.Equal(t, 2, shapes)

	// The scene must actually simulate: the ball falls to the
	// ground and comes to rest on it.
	var ball *Body
	space.EachBody(func(body *Body) {
		if body.Type() == BodyDynamic {
			ball = body
		}
	})
	require.NotNil(t, ball)

	stepFor(space, 4.0, 1.0/60.0)
	tassert.InDelta(t, -225.0, ball.Position().Y, 0.5)
}

func TestBuilderConstraints(t *testing.T) {

	desc := `
bodies:
  - name: bob
    mass: 1
    moment: 50
    position: [100, 0]
constraints:
  - kind: pin
    body_a: static
    body_b: bob
  - kind: simple_motor
    body_a: static
    body_b: bob
    rate: 1
    max_force: 100
`
	builder := NewBuilder()
	require.NoError(t, builder.ParseString(desc))

	space, err := builder.Build()
	require.NoError(t, err)

	constraints := 0
	var motor *Constraint
	space.EachConstraint(func(constraint *Constraint) {
		constraints++
		if _, ok := constraint.Class().(*SimpleMotor); ok {
			motor = constraint
		}
	})
	tassert.Equal(t, 2, constraints)
	require.NotNil(t, motor)
	tassert.Equal(t, 100.0, motor.MaxForce())
}

func TestBuilderErrors(t *testing.T) {

	// Unknown fields are rejected.
	builder := NewBuilder()
	tassert.Error(t, builder.ParseString("space:\n  gravityy: [0, 0]\n"))

	// Unknown body references are rejected.
	builder = NewBuilder()
	require.NoError(t, builder.ParseString(`
constraints:
  - kind: pin
    body_a: static
    body_b: missing
`))
	_, err := builder.Build()
	tassert.Error(t, err)

	// Unknown shape kinds are rejected.
	builder = NewBuilder()
	require.NoError(t, builder.ParseString(`
bodies:
  - name: x
    mass: 1
    moment: 1
    shapes:
      - kind: blob
`))
	_, err = builder.Build()
	tassert.Error(t, err)
}
