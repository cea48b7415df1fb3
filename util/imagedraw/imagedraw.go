// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package imagedraw renders a physics space into an image using the
// debug draw interface and the x/image scanline rasterizer. It is
// headless: useful for tests, CI captures and tooling that wants a
// picture of a simulation without a window system.
package imagedraw

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/vector"

	"github.com/impulse2d/engine/math2d"
	"github.com/impulse2d/engine/physics"
)

// Canvas is a debug draw target rasterizing into an RGBA image.
// World coordinates are mapped with a uniform scale around a center
// point, with Y pointing up.
type Canvas struct {
	img    *image.RGBA
	scale  float64
	center math2d.Vector2
}

// NewCanvas creates a canvas of the given pixel size. scale is the
// number of pixels per world unit and center the world point mapped
// to the middle of the image.
func NewCanvas(width, height int, scale float64, center math2d.Vector2) *Canvas {

	c := &Canvas{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		scale:  scale,
		center: center,
	}
	c.Clear(color.NRGBA{R: 0x07, G: 0x36, B: 0x42, A: 0xff})
	return c
}

// Image returns the backing image.
func (c *Canvas) Image() *image.RGBA {

	return c.img
}

// Clear fills the canvas with a color.
func (c *Canvas) Clear(fill color.Color) {

	b := c.img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c.img.Set(x, y, fill)
		}
	}
}

// WritePNG writes the canvas to a PNG file.
func (c *Canvas) WritePNG(path string) error {

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, c.img)
}

// toImage maps a world point to image coordinates.
func (c *Canvas) toImage(p math2d.Vector2) (float32, float32) {

	b := c.img.Bounds()
	x := (p.X-c.center.X)*c.scale + float64(b.Dx())/2
	y := float64(b.Dy())/2 - (p.Y-c.center.Y)*c.scale
	return float32(x), float32(y)
}

func toColor(c physics.DebugColor) color.Color {

	return color.NRGBA{
		R: uint8(math2d.Clamp01(float64(c.R)) * 255),
		G: uint8(math2d.Clamp01(float64(c.G)) * 255),
		B: uint8(math2d.Clamp01(float64(c.B)) * 255),
		A: uint8(math2d.Clamp01(float64(c.A)) * 255),
	}
}

// fillLoop rasterizes a closed loop of world points.
func (c *Canvas) fillLoop(points []math2d.Vector2, fill physics.DebugColor) {

	if len(points) < 3 {
		return
	}

	b := c.img.Bounds()
	r := vector.NewRasterizer(b.Dx(), b.Dy())

	x, y := c.toImage(points[0])
	r.MoveTo(x, y)
	for _, p := range points[1:] {
		x, y = c.toImage(p)
		r.LineTo(x, y)
	}
	r.ClosePath()

	r.Draw(c.img, b, image.NewUniform(toColor(fill)), image.Point{})
}

// circleLoop approximates a circle with a polygon loop.
func circleLoop(pos math2d.Vector2, radius float64, segments int) []math2d.Vector2 {

	points := make([]math2d.Vector2, segments)
	for i := range points {
		a := 2 * math.Pi * float64(i) / float64(segments)
		points[i] = pos.Add(math2d.ForAngle(a).Mult(radius))
	}
	return points
}

// capsuleLoop approximates a fattened segment with a polygon loop.
func capsuleLoop(a, b math2d.Vector2, radius float64, capSegments int) []math2d.Vector2 {

	n := b.Sub(a).Normalize().Perp()
	base := n.ToAngle()

	points := make([]math2d.Vector2, 0, 2*capSegments+2)
	for i := 0; i <= capSegments; i++ {
		ang := base + math.Pi*float64(i)/float64(capSegments)
		points = append(points, a.Add(math2d.ForAngle(ang).Mult(radius)))
	}
	for i := 0; i <= capSegments; i++ {
		ang := base + math.Pi + math.Pi*float64(i)/float64(capSegments)
		points = append(points, b.Add(math2d.ForAngle(ang).Mult(radius)))
	}
	return points
}

// DrawCircle renders a filled circle with an orientation tick.
func (c *Canvas) DrawCircle(pos math2d.Vector2, angle, radius float64, outline, fill physics.DebugColor) {

	c.fillLoop(circleLoop(pos, radius, 32), fill)
	c.DrawSegment(pos, pos.Add(math2d.ForAngle(angle).Mult(radius)), outline)
}

// DrawSegment renders a thin line segment.
func (c *Canvas) DrawSegment(a, b math2d.Vector2, col physics.DebugColor) {

	c.DrawFatSegment(a, b, 0.5/c.scale, col, col)
}

// DrawFatSegment renders a segment with thickness and round caps.
func (c *Canvas) DrawFatSegment(a, b math2d.Vector2, radius float64, outline, fill physics.DebugColor) {

	if radius*c.scale < 0.5 {
		radius = 0.5 / c.scale
	}
	c.fillLoop(capsuleLoop(a, b, radius, 8), fill)
}

// DrawPolygon renders a filled polygon. The rounding radius is
// drawn as-is only when it is large enough to matter on screen.
func (c *Canvas) DrawPolygon(verts []math2d.Vector2, radius float64, outline, fill physics.DebugColor) {

	c.fillLoop(verts, fill)

	if radius*c.scale >= 1 {
		count := len(verts)
		for i := 0; i < count; i++ {
			c.DrawFatSegment(verts[i], verts[(i+1)%count], radius, outline, fill)
		}
	}
}

// DrawDot renders a screen-space sized dot at a world position.
func (c *Canvas) DrawDot(size float64, pos math2d.Vector2, col physics.DebugColor) {

	c.fillLoop(circleLoop(pos, size/c.scale, 12), col)
}

// Options returns debug draw options wired to the canvas with a
// reasonable default color scheme.
func (c *Canvas) Options(flags physics.DebugDrawFlags) *physics.DebugDrawOptions {

	return &physics.DebugDrawOptions{
		DrawCircle:     c.DrawCircle,
		DrawSegment:    c.DrawSegment,
		DrawFatSegment: c.DrawFatSegment,
		DrawPolygon:    c.DrawPolygon,
		DrawDot:        c.DrawDot,

		Flags: flags,

		ShapeOutlineColor:   physics.DebugColor{R: 0.93, G: 0.91, B: 0.85, A: 1},
		ConstraintColor:     physics.DebugColor{R: 0, G: 0.75, B: 0, A: 1},
		CollisionPointColor: physics.DebugColor{R: 1, G: 0, B: 0, A: 1},
	}
}

// Render draws the space onto the canvas and returns the canvas for
// chaining.
func (c *Canvas) Render(space *physics.Space, flags physics.DebugDrawFlags) *Canvas {

	physics.DebugDraw(space, c.Options(flags))
	return c
}
