package sketchpad

import (
	"context"

	"github.com/tanema/gween/ease"
)

// Session is the top-level object: it owns the viewport, the element
// store, the gesture recognizer and tool state, the render loop and the
// persistence sync. All methods must be called from one goroutine, the
// host's event loop.
type Session struct {
	cfg Config

	viewport   *Viewport
	store      *ElementStore
	recognizer *PointerGestureRecognizer
	drawing    *DrawingEngine
	manip      *ElementManipulator
	render     *RenderLoop
	sync       *PersistenceSync

	tool ToolMode

	injectQueue []injectedEvent
	script      *ScriptRunner
	screenshot  func(label string)
}

// NewSession creates a session with an empty store. Zero Config fields
// take their defaults.
func NewSession(cfg Config) *Session {
	cfg = cfg.withDefaults()
	s := &Session{
		cfg:      cfg,
		viewport: NewViewport(),
		store:    NewElementStore(),
		render:   NewRenderLoop(),
	}
	s.viewport.MinScale = cfg.MinScale
	s.viewport.MaxScale = cfg.MaxScale
	s.viewport.onChange = s.render.MarkDirty
	s.render.debug = cfg.Debug

	s.drawing = NewDrawingEngine(s.store, cfg.EraseThreshold)
	s.drawing.onSample = s.render.MarkDirty
	s.manip = NewElementManipulator(s.store, nil, cfg.TextBoxWidth, cfg.TextBoxHeight)
	s.recognizer = NewPointerGestureRecognizer(s.viewport, s, cfg.WheelZoomFactor)

	s.store.OnChange(s.storeChanged)
	return s
}

func (s *Session) storeChanged(kind ChangeKind) {
	s.render.MarkDirty()
	if kind.Persistent() && s.sync != nil {
		s.sync.Schedule()
	}
}

// SetRemote attaches a snapshot store. bitmaps decodes image references and
// may be nil.
func (s *Session) SetRemote(remote Remote, bitmaps BitmapLoader) {
	if s.sync != nil {
		s.sync.Close()
	}
	if remote == nil {
		s.sync = nil
		return
	}
	s.sync = NewPersistenceSync(s.store, remote, bitmaps, s.cfg.DebounceWindow)
	s.sync.SetUploadPlacement(s.cfg.UploadOrigin, s.cfg.UploadScale)
}

// SetPrompter sets how the text tool asks for content.
func (s *Session) SetPrompter(p Prompter) {
	s.manip.prompter = p
}

// SetScreenshotFunc sets the capture hook used by script screenshot steps.
func (s *Session) SetScreenshotFunc(fn func(label string)) {
	s.screenshot = fn
}

// Viewport returns the session viewport.
func (s *Session) Viewport() *Viewport { return s.viewport }

// Store returns the element store.
func (s *Session) Store() *ElementStore { return s.store }

// Drawing returns the drawing engine.
func (s *Session) Drawing() *DrawingEngine { return s.drawing }

// Manipulator returns the element manipulator.
func (s *Session) Manipulator() *ElementManipulator { return s.manip }

// Recognizer returns the gesture recognizer.
func (s *Session) Recognizer() *PointerGestureRecognizer { return s.recognizer }

// RenderLoop returns the render loop.
func (s *Session) RenderLoop() *RenderLoop { return s.render }

// Sync returns the persistence sync, or nil without a remote.
func (s *Session) Sync() *PersistenceSync { return s.sync }

// Tool returns the active tool.
func (s *Session) Tool() ToolMode { return s.tool }

// SetTool switches tools, finishing any stroke or drag first.
func (s *Session) SetTool(t ToolMode) {
	if t == s.tool {
		return
	}
	s.ToolUp()
	s.tool = t
	Logger().Debug("tool selected", "tool", t)
}

// --- Input entry points ---

// PointerDown forwards a press to the gesture recognizer.
func (s *Session) PointerDown(e PointerEvent) { s.recognizer.PointerDown(e) }

// PointerMove forwards motion to the gesture recognizer.
func (s *Session) PointerMove(e PointerEvent) { s.recognizer.PointerMove(e) }

// PointerUp forwards a release to the gesture recognizer.
func (s *Session) PointerUp(e PointerEvent) { s.recognizer.PointerUp(e) }

// PointerLeave forwards a leave to the gesture recognizer.
func (s *Session) PointerLeave(e PointerEvent) { s.recognizer.PointerLeave(e) }

// Wheel zooms the view.
func (s *Session) Wheel(deltaY float64) { s.recognizer.Wheel(deltaY) }

// Key handles a global shortcut. Reports whether the key was consumed.
func (s *Session) Key(r rune) bool {
	if t, ok := ParseToolKey(r); ok {
		s.SetTool(t)
		return true
	}
	if r == '0' {
		s.ResetView()
		return true
	}
	return false
}

// ResetView eases the view back to the origin at scale 1.
func (s *Session) ResetView() {
	s.viewport.AnimateTo(Point{}, 1, s.cfg.ResetDuration, ease.OutQuad)
}

// --- ToolTarget ---

// ToolDown dispatches a single-contact press to the active tool.
func (s *Session) ToolDown(p Point) {
	switch s.tool {
	case ToolPen:
		s.drawing.Begin(p)
	case ToolEraser:
		s.drawing.EraseAt(p)
	case ToolHandle:
		s.manip.Begin(p)
	case ToolText:
		s.manip.CreateText(p)
	}
}

// ToolMove dispatches single-contact motion to the active tool.
func (s *Session) ToolMove(p Point) {
	switch s.tool {
	case ToolPen:
		s.drawing.Extend(p)
	case ToolEraser:
		s.drawing.EraseAt(p)
	case ToolHandle:
		if err := s.manip.Drag(p); err != nil {
			Logger().Debug("drag rejected", "error", err)
		}
	}
}

// ToolUp finalizes a stroke or drag.
func (s *Session) ToolUp() {
	if s.drawing.Drawing() {
		if _, err := s.drawing.Commit(); err != nil {
			Logger().Warn("commit stroke", "error", err)
		}
	}
	s.manip.Release()
}

// ToolCancel abandons a stroke or drag.
func (s *Session) ToolCancel() {
	s.drawing.Cancel()
	s.manip.Release()
}

// --- Frame ---

// Update advances one frame: view animation, one injected event, the test
// script, and queued network results. dt is in seconds.
func (s *Session) Update(dt float32) {
	s.viewport.Update(dt)
	if s.script != nil {
		s.script.step(s)
	}
	s.processInjectedInput()
	if s.sync != nil {
		s.sync.Poll()
	}
}

// Draw redraws onto surface if anything changed. Reports whether it drew.
func (s *Session) Draw(surface Surface) bool {
	return s.render.Draw(surface, s.frame)
}

func (s *Session) frame() Frame {
	return Frame{
		View:      s.viewport.Matrix(),
		Lines:     s.store.Lines(),
		Images:    s.store.Images(),
		TextBoxes: s.store.TextBoxes(),
		Stroke:    s.drawing.Stroke(),
	}
}

// --- Persistence ---

// Save issues a save right away instead of waiting out the debounce window.
func (s *Session) Save() {
	if s.sync != nil {
		s.sync.SaveNow()
	}
}

// Load starts a background load that replaces the store when it settles.
// It may be called again to retry after a failed load.
func (s *Session) Load() {
	if s.sync != nil {
		s.sync.StartLoad()
	}
}

// UploadImage sends image bytes to the remote; the image appears once the
// upload and decode complete.
func (s *Session) UploadImage(name string, data []byte) {
	if s.sync != nil {
		s.sync.Upload(name, data)
	}
}

// Flush saves immediately and waits for the request to finish. Used on
// shutdown so the last edits are not lost to the debounce window.
func (s *Session) Flush(ctx context.Context) error {
	if s.sync == nil {
		return nil
	}
	s.ToolUp()
	payload := BuildPayload(s.store)
	if err := s.sync.remote.Save(ctx, payload); err != nil {
		return err
	}
	s.store.AckDeleted(payload)
	return nil
}

// Close stops background work.
func (s *Session) Close() {
	if s.sync != nil {
		s.sync.Close()
	}
}
