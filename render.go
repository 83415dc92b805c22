package sketchpad

import (
	"image"
	"time"
)

// Surface is a 2D drawing target. Geometry passed after SetTransform is in
// canvas space; the surface applies the matrix.
type Surface interface {
	// Clear erases the whole surface and resets the transform to identity.
	Clear()
	// SetTransform sets the canvas-to-screen matrix [a, b, c, d, tx, ty].
	SetTransform(m [6]float64)
	DrawBitmap(img image.Image, dst Rect)
	DrawPolyline(points []Point)
	DrawText(text string, box Rect)
}

// Frame is everything a redraw depends on.
type Frame struct {
	View      [6]float64
	Lines     []*LineElement
	Images    []*ImageElement
	TextBoxes []*TextBoxElement
	Stroke    []Point
}

// Render clears s and draws f: images, live lines, text boxes, then the
// in-progress stroke on top. Images without a decoded bitmap and
// tombstoned elements are skipped.
func Render(s Surface, f Frame) RenderStats {
	var st RenderStats
	s.Clear()
	s.SetTransform(f.View)

	for _, img := range f.Images {
		if img.Bitmap == nil || img.Status == StatusDeleted {
			continue
		}
		s.DrawBitmap(img.Bitmap, img.Bounds())
		st.Images++
	}
	for _, l := range f.Lines {
		if l.Status == StatusDeleted {
			continue
		}
		s.DrawPolyline(l.Points)
		st.Lines++
	}
	for _, t := range f.TextBoxes {
		if t.Status == StatusDeleted {
			continue
		}
		s.DrawText(t.Text, t.Bounds())
		st.TextBoxes++
	}
	if len(f.Stroke) > 0 {
		s.DrawPolyline(f.Stroke)
		st.StrokePoints = len(f.Stroke)
	}
	return st
}

// RenderLoop redraws at most once per frame, and only when something it
// depends on changed since the last draw.
type RenderLoop struct {
	dirty  bool
	debug  bool
	frames uint64
}

// NewRenderLoop returns a loop that draws on its first frame.
func NewRenderLoop() *RenderLoop {
	return &RenderLoop{dirty: true}
}

// MarkDirty schedules one redraw before the next input is processed.
func (r *RenderLoop) MarkDirty() { r.dirty = true }

// Dirty reports whether a redraw is pending.
func (r *RenderLoop) Dirty() bool { return r.dirty }

// Frames returns the number of redraws performed.
func (r *RenderLoop) Frames() uint64 { return r.frames }

// Draw renders the frame produced by build when dirty. Reports whether a
// redraw happened.
func (r *RenderLoop) Draw(s Surface, build func() Frame) bool {
	if !r.dirty {
		return false
	}
	r.dirty = false
	r.frames++

	var t0 time.Time
	if r.debug {
		t0 = time.Now()
	}
	st := Render(s, build())
	if r.debug {
		st.Elapsed = time.Since(t0)
		r.debugLog(st)
	}
	return true
}
