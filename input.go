package sketchpad

import "slices"

// Device identifies the kind of input that produced a pointer event.
type Device uint8

const (
	DeviceMouse Device = iota
	DevicePen
	DeviceTouch
)

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button (scroll wheel click)
)

// PointerEvent is a raw pointer sample in screen space.
type PointerEvent struct {
	ID     int
	Device Device
	Button MouseButton
	X, Y   float64
}

// Pos returns the event position.
func (e PointerEvent) Pos() Point { return Point{e.X, e.Y} }

// ToolTarget receives single-contact input in canvas space.
type ToolTarget interface {
	ToolDown(p Point)
	ToolMove(p Point)
	ToolUp()
	// ToolCancel abandons an in-progress stroke or drag because a second
	// contact started a pinch.
	ToolCancel()
}

// PinchState tracks a two-contact gesture. Valid is false when fewer than
// two contacts are down.
type PinchState struct {
	Valid        bool
	LastDistance float64
	LastCenter   Point
}

// PointerGestureRecognizer classifies raw pointer input into tool
// dispatch, two-contact pinch-pan-zoom, and middle-button pan.
type PointerGestureRecognizer struct {
	viewport *Viewport
	target   ToolTarget

	contacts map[int]Point
	order    []int // contact ids in press order

	pinch PinchState

	panning    bool
	panPointer int
	panAnchor  Point

	// suppressed blocks tool dispatch after a pinch until every contact
	// has lifted.
	suppressed bool

	wheelFactor float64
}

// NewPointerGestureRecognizer returns a recognizer driving viewport and
// dispatching tool input to target.
func NewPointerGestureRecognizer(viewport *Viewport, target ToolTarget, wheelFactor float64) *PointerGestureRecognizer {
	if wheelFactor <= 0 {
		wheelFactor = DefaultConfig().WheelZoomFactor
	}
	return &PointerGestureRecognizer{
		viewport:    viewport,
		target:      target,
		contacts:    make(map[int]Point),
		wheelFactor: wheelFactor,
	}
}

// ContactCount returns the number of pointers currently down.
func (r *PointerGestureRecognizer) ContactCount() int { return len(r.contacts) }

// Pinch returns the current pinch state.
func (r *PointerGestureRecognizer) Pinch() PinchState { return r.pinch }

// Panning reports whether a middle-button pan is in progress.
func (r *PointerGestureRecognizer) Panning() bool { return r.panning }

// PointerDown handles a press.
func (r *PointerGestureRecognizer) PointerDown(e PointerEvent) {
	pos := e.Pos()
	r.setContact(e.ID, pos)

	if e.Device == DeviceMouse && e.Button == MouseButtonMiddle {
		r.panning = true
		r.panPointer = e.ID
		r.panAnchor = pos
		return
	}

	switch len(r.contacts) {
	case 1:
		r.suppressed = false
		r.target.ToolDown(r.viewport.ToCanvas(pos))
	case 2:
		r.seedPinch()
		if !r.suppressed {
			r.target.ToolCancel()
		}
		r.suppressed = true
	}
}

// PointerMove handles motion. Moves of pointers that are not down are
// ignored.
func (r *PointerGestureRecognizer) PointerMove(e PointerEvent) {
	pos := e.Pos()

	if r.panning && e.ID == r.panPointer {
		r.viewport.Pan(pos.Sub(r.panAnchor))
		r.panAnchor = pos
		r.contacts[e.ID] = pos
		return
	}

	if _, ok := r.contacts[e.ID]; !ok {
		return
	}
	r.contacts[e.ID] = pos

	if len(r.contacts) >= 2 {
		r.movePinch()
		return
	}
	if !r.suppressed {
		r.target.ToolMove(r.viewport.ToCanvas(pos))
	}
}

// movePinch applies the literal pinch algorithm: scale by the distance
// ratio and pan by the midpoint delta. The zoom pivot stays at the canvas
// origin.
func (r *PointerGestureRecognizer) movePinch() {
	p0, p1 := r.firstTwo()
	dist := Distance(p0, p1)
	center := Midpoint(p0, p1)

	if r.pinch.Valid && r.pinch.LastDistance > 0 {
		r.viewport.ZoomBy(dist / r.pinch.LastDistance)
		r.viewport.Pan(center.Sub(r.pinch.LastCenter))
	}
	r.pinch = PinchState{Valid: true, LastDistance: dist, LastCenter: center}
}

// PointerUp handles a release.
func (r *PointerGestureRecognizer) PointerUp(e PointerEvent) {
	_, had := r.contacts[e.ID]
	r.removeContact(e.ID)

	if r.panning && e.ID == r.panPointer {
		r.panning = false
		return
	}
	r.seedPinch()
	if !had {
		return
	}
	if !r.suppressed {
		r.target.ToolUp()
	}
	if len(r.contacts) == 0 {
		r.suppressed = false
	}
}

// PointerLeave is treated as a release.
func (r *PointerGestureRecognizer) PointerLeave(e PointerEvent) {
	r.PointerUp(e)
}

// Wheel zooms in for negative deltaY and out for positive deltaY.
func (r *PointerGestureRecognizer) Wheel(deltaY float64) {
	switch {
	case deltaY < 0:
		r.viewport.ZoomBy(r.wheelFactor)
	case deltaY > 0:
		r.viewport.ZoomBy(1 / r.wheelFactor)
	}
}

// SuppressContextMenu reports that the native context menu must not open
// over the canvas. Hosts with a native menu consult it on right click.
func (r *PointerGestureRecognizer) SuppressContextMenu() bool { return true }

// Reset drops every contact and gesture, e.g. when the window loses focus.
func (r *PointerGestureRecognizer) Reset() {
	clear(r.contacts)
	r.order = r.order[:0]
	r.pinch = PinchState{}
	r.panning = false
	r.suppressed = false
}

func (r *PointerGestureRecognizer) setContact(id int, pos Point) {
	if _, ok := r.contacts[id]; !ok {
		r.order = append(r.order, id)
	}
	r.contacts[id] = pos
}

func (r *PointerGestureRecognizer) removeContact(id int) {
	delete(r.contacts, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

// seedPinch restarts the pinch baseline from the two earliest contacts, so
// a change of pair never produces a jump on the next move.
func (r *PointerGestureRecognizer) seedPinch() {
	if len(r.order) < 2 {
		r.pinch = PinchState{}
		return
	}
	p0, p1 := r.firstTwo()
	r.pinch = PinchState{Valid: true, LastDistance: Distance(p0, p1), LastCenter: Midpoint(p0, p1)}
}

// firstTwo returns the positions of the two earliest contacts still down.
func (r *PointerGestureRecognizer) firstTwo() (Point, Point) {
	return r.contacts[r.order[0]], r.contacts[r.order[1]]
}
