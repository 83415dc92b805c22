package sketchpad

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// viewAnim holds the active tweens of an animated view change.
type viewAnim struct {
	tweenX, tweenY, tweenScale *gween.Tween
	doneX, doneY, doneScale    bool
}

// Viewport maps canvas space to screen space:
//
//	screen = canvas*Scale + Offset
//
// Renderers must apply translate(Offset) then scale(Scale) so that ToCanvas
// and ToScreen stay exact inverses.
type Viewport struct {
	Offset Point
	Scale  float64

	// MinScale and MaxScale clamp Scale when non-zero.
	MinScale, MaxScale float64

	anim     *viewAnim
	onChange func()
}

// NewViewport returns an identity viewport.
func NewViewport() *Viewport {
	return &Viewport{Scale: 1}
}

// ToCanvas converts a screen-space point to canvas space.
func (v *Viewport) ToCanvas(screen Point) Point {
	return Point{
		X: (screen.X - v.Offset.X) / v.Scale,
		Y: (screen.Y - v.Offset.Y) / v.Scale,
	}
}

// ToScreen converts a canvas-space point to screen space.
func (v *Viewport) ToScreen(canvas Point) Point {
	x, y := transformPoint(v.Matrix(), canvas.X, canvas.Y)
	return Point{X: x, Y: y}
}

// Pan moves the view by delta screen pixels.
func (v *Viewport) Pan(delta Point) {
	if delta == (Point{}) || !finite(delta.X) || !finite(delta.Y) {
		return
	}
	v.anim = nil
	v.Offset = v.Offset.Add(delta)
	v.changed()
}

// ZoomBy multiplies the scale by factor. The zoom pivot is the canvas
// origin. Non-positive or non-finite factors are ignored.
func (v *Viewport) ZoomBy(factor float64) {
	if factor <= 0 || !finite(factor) || factor == 1 {
		return
	}
	v.anim = nil
	v.Scale = v.clamp(v.Scale * factor)
	v.changed()
}

// ZoomAt multiplies the scale by factor while keeping the canvas point
// under screen fixed.
func (v *Viewport) ZoomAt(screen Point, factor float64) {
	if factor <= 0 || !finite(factor) || factor == 1 {
		return
	}
	anchor := v.ToCanvas(screen)
	v.anim = nil
	v.Scale = v.clamp(v.Scale * factor)
	v.Offset = Point{
		X: screen.X - anchor.X*v.Scale,
		Y: screen.Y - anchor.Y*v.Scale,
	}
	v.changed()
}

// Matrix returns translate(Offset)·scale(Scale) as [a, b, c, d, tx, ty].
func (v *Viewport) Matrix() [6]float64 {
	return [6]float64{v.Scale, 0, 0, v.Scale, v.Offset.X, v.Offset.Y}
}

// AnimateTo eases the view to the given offset and scale over duration
// seconds. A subsequent Pan or ZoomBy cancels the animation.
func (v *Viewport) AnimateTo(offset Point, scale float64, duration float32, easeFn ease.TweenFunc) {
	if scale <= 0 || !finite(scale) {
		return
	}
	if easeFn == nil {
		easeFn = ease.OutQuad
	}
	scale = v.clamp(scale)
	v.anim = &viewAnim{
		tweenX:     gween.New(float32(v.Offset.X), float32(offset.X), duration, easeFn),
		tweenY:     gween.New(float32(v.Offset.Y), float32(offset.Y), duration, easeFn),
		tweenScale: gween.New(float32(v.Scale), float32(scale), duration, easeFn),
	}
}

// Animating reports whether an AnimateTo transition is in progress.
func (v *Viewport) Animating() bool {
	return v.anim != nil
}

// Update advances an active animation by dt seconds.
func (v *Viewport) Update(dt float32) {
	a := v.anim
	if a == nil {
		return
	}
	if !a.doneX {
		val, done := a.tweenX.Update(dt)
		v.Offset.X = float64(val)
		a.doneX = done
	}
	if !a.doneY {
		val, done := a.tweenY.Update(dt)
		v.Offset.Y = float64(val)
		a.doneY = done
	}
	if !a.doneScale {
		val, done := a.tweenScale.Update(dt)
		v.Scale = float64(val)
		a.doneScale = done
	}
	if a.doneX && a.doneY && a.doneScale {
		v.anim = nil
	}
	v.changed()
}

func (v *Viewport) clamp(scale float64) float64 {
	if v.MinScale > 0 {
		scale = math.Max(scale, v.MinScale)
	}
	if v.MaxScale > 0 {
		scale = math.Min(scale, v.MaxScale)
	}
	return scale
}

func (v *Viewport) changed() {
	if v.onChange != nil {
		v.onChange()
	}
}

// transformPoint applies an affine matrix [a, b, c, d, tx, ty] to (x, y).
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}
