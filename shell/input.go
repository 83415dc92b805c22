package shell

import (
	"io/fs"
	"path"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/sketchpad"
)

// maxTouches bounds tracked touch contacts. Pointer ids 1..maxTouches are
// touch slots; id 0 is the mouse.
const maxTouches = 9

// pointerSink receives classified pointer transitions.
type pointerSink interface {
	PointerDown(sketchpad.PointerEvent)
	PointerMove(sketchpad.PointerEvent)
	PointerUp(sketchpad.PointerEvent)
	PointerLeave(sketchpad.PointerEvent)
}

// mouseState turns polled mouse state into pointer transitions for
// pointer 0. The button pressed first is kept until release.
type mouseState struct {
	down bool
	// latched is set when the cursor leaves with a button held. No press is
	// reported again until every button is released.
	latched bool
	button  sketchpad.MouseButton
	last    sketchpad.Point
}

// step feeds one frame of polled state. Right button presses are dropped:
// the canvas has no context menu and the right button carries no tool.
func (m *mouseState) step(sink pointerSink, pos sketchpad.Point, left, middle, inside bool) {
	pressed := left || middle
	evt := sketchpad.PointerEvent{ID: 0, Device: sketchpad.DeviceMouse, X: pos.X, Y: pos.Y}

	if !pressed {
		m.latched = false
	}

	switch {
	case pressed && !m.down && !m.latched:
		m.button = sketchpad.MouseButtonLeft
		if !left {
			m.button = sketchpad.MouseButtonMiddle
		}
		evt.Button = m.button
		m.down = true
		sink.PointerDown(evt)
	case pressed && m.down:
		evt.Button = m.button
		if !inside {
			m.down = false
			m.latched = true
			sink.PointerLeave(evt)
		} else if pos != m.last {
			sink.PointerMove(evt)
		}
	case !pressed && m.down:
		evt.Button = m.button
		m.down = false
		sink.PointerUp(evt)
	}
	m.last = pos
}

// touchTracker maps ebiten touch ids to stable pointer slots and diffs
// successive frames into down, move and up transitions.
type touchTracker struct {
	slots [maxTouches + 1]struct {
		used bool
		tid  ebiten.TouchID
		pos  sketchpad.Point
	}
	ids []ebiten.TouchID
}

// touchSample is one active touch in a polled frame.
type touchSample struct {
	tid ebiten.TouchID
	pos sketchpad.Point
}

func (t *touchTracker) slot(tid ebiten.TouchID) (int, bool) {
	for i := 1; i <= maxTouches; i++ {
		if t.slots[i].used && t.slots[i].tid == tid {
			return i, false
		}
	}
	for i := 1; i <= maxTouches; i++ {
		if !t.slots[i].used {
			t.slots[i].used = true
			t.slots[i].tid = tid
			return i, true
		}
	}
	return -1, false
}

// step feeds one frame of active touches.
func (t *touchTracker) step(sink pointerSink, active []touchSample) {
	var seen [maxTouches + 1]bool
	for _, a := range active {
		i, fresh := t.slot(a.tid)
		if i < 0 {
			continue
		}
		seen[i] = true
		evt := sketchpad.PointerEvent{ID: i, Device: sketchpad.DeviceTouch, X: a.pos.X, Y: a.pos.Y}
		switch {
		case fresh:
			sink.PointerDown(evt)
		case a.pos != t.slots[i].pos:
			sink.PointerMove(evt)
		}
		t.slots[i].pos = a.pos
	}
	for i := 1; i <= maxTouches; i++ {
		s := &t.slots[i]
		if s.used && !seen[i] {
			sink.PointerUp(sketchpad.PointerEvent{ID: i, Device: sketchpad.DeviceTouch, X: s.pos.X, Y: s.pos.Y})
			s.used = false
		}
	}
}

// poll reads the current touches from ebiten.
func (t *touchTracker) poll() []touchSample {
	t.ids = ebiten.AppendTouchIDs(t.ids[:0])
	out := make([]touchSample, 0, len(t.ids))
	for _, tid := range t.ids {
		x, y := ebiten.TouchPosition(tid)
		out = append(out, touchSample{tid: tid, pos: sketchpad.Point{X: float64(x), Y: float64(y)}})
	}
	return out
}

// pollInput feeds one frame of mouse, touch, wheel and keyboard input to
// the session. Keyboard input goes to the text prompt while it is open.
func (g *Game) pollInput() {
	if !ebiten.IsFocused() {
		if g.focused {
			g.session.Recognizer().Reset()
			g.mouse = mouseState{}
			g.touches = touchTracker{}
		}
		g.focused = false
		return
	}
	g.focused = true

	cx, cy := ebiten.CursorPosition()
	w, h := g.canvasSize()
	inside := cx >= 0 && cy >= 0 && cx < w && cy < h
	g.mouse.step(g.session, sketchpad.Point{X: float64(cx), Y: float64(cy)},
		ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
		ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle),
		inside)

	g.touches.step(g.session, g.touches.poll())

	// ebiten reports positive dy for scrolling up; the session expects
	// browser-style deltas where negative means up.
	if _, dy := ebiten.Wheel(); dy != 0 {
		g.session.Wheel(-dy)
	}

	chars := ebiten.AppendInputChars(g.chars[:0])
	g.chars = chars
	if g.prompt.active() {
		g.prompt.edit(chars,
			inpututil.IsKeyJustPressed(ebiten.KeyBackspace),
			inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadEnter),
			inpututil.IsKeyJustPressed(ebiten.KeyEscape))
		return
	}
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)
	if runCommand(g.session, ctrl,
		inpututil.IsKeyJustPressed(ebiten.KeyS),
		inpututil.IsKeyJustPressed(ebiten.KeyL)) {
		return
	}
	for _, r := range chars {
		g.session.Key(r)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		g.opts.ShowFPS = !g.opts.ShowFPS
	}
}

// commandSink receives the explicit persistence shortcuts.
type commandSink interface {
	Save()
	Load()
}

// runCommand maps Ctrl+S to an immediate save and Ctrl+L to a reload.
// Reports whether a shortcut fired, in which case typed characters are
// not treated as tool keys.
func runCommand(sink commandSink, ctrl, s, l bool) bool {
	if !ctrl {
		return false
	}
	switch {
	case s:
		sink.Save()
	case l:
		sink.Load()
	default:
		return false
	}
	return true
}

// imageExts are the file types accepted from drag and drop.
var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".webp": true,
}

// uploadDropped uploads every image file dropped onto the window.
func (g *Game) uploadDropped() {
	dropped := ebiten.DroppedFiles()
	if dropped == nil {
		return
	}
	err := fs.WalkDir(dropped, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !imageExts[strings.ToLower(path.Ext(p))] {
			return nil
		}
		data, err := fs.ReadFile(dropped, p)
		if err != nil {
			sketchpad.Logger().Warn("read dropped file", "path", p, "error", err)
			return nil
		}
		sketchpad.Logger().Info("uploading dropped image", "name", path.Base(p), "bytes", len(data))
		g.session.UploadImage(path.Base(p), data)
		return nil
	})
	if err != nil {
		sketchpad.Logger().Warn("walk dropped files", "error", err)
	}
}
