// Package shell hosts a sketchpad Session in an Ebitengine window: it polls
// mouse, touch, wheel and keyboard input, renders through an ebiten
// Surface, accepts dropped image files and captures screenshots for input
// scripts.
package shell

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/sketchpad"
)

// Options configures the window.
type Options struct {
	Title         string
	Width, Height int
	// ShowFPS starts with the stats overlay visible. F3 toggles it.
	ShowFPS bool
	// ScreenshotDir receives PNGs captured by script screenshot steps.
	ScreenshotDir string
	// Script, when set, is replayed from the first frame.
	Script *sketchpad.ScriptRunner
	// ExitAfterScript terminates the loop once Script has finished.
	ExitAfterScript bool
}

// DefaultOptions returns a 1280x720 window titled "sketchpad".
func DefaultOptions() Options {
	return Options{
		Title:         "sketchpad",
		Width:         1280,
		Height:        720,
		ScreenshotDir: "screenshots",
	}
}

// Game implements ebiten.Game around a Session.
type Game struct {
	session *sketchpad.Session
	opts    Options

	canvas  *ebiten.Image
	surface *Surface

	mouse   mouseState
	touches touchTracker
	chars   []rune
	focused bool
	prompt  textPrompt

	fps         *fpsOverlay
	screenshots []string
}

var _ ebiten.Game = (*Game)(nil)

// NewGame wires session to the window. The session's text prompts and
// screenshot hooks are routed through the game.
func NewGame(session *sketchpad.Session, opts Options) *Game {
	d := DefaultOptions()
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = d.Width, d.Height
	}
	if opts.Title == "" {
		opts.Title = d.Title
	}
	if opts.ScreenshotDir == "" {
		opts.ScreenshotDir = d.ScreenshotDir
	}
	g := &Game{
		session: session,
		opts:    opts,
		focused: true,
		fps:     newFPSOverlay(),
	}
	session.SetPrompter(&g.prompt)
	session.SetScreenshotFunc(g.queueScreenshot)
	if opts.Script != nil {
		session.SetScript(opts.Script)
	}
	return g
}

// Run opens the window and blocks until it closes.
func Run(session *sketchpad.Session, opts Options) error {
	g := NewGame(session, opts)
	ebiten.SetWindowTitle(g.opts.Title)
	ebiten.SetWindowSize(g.opts.Width, g.opts.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	return ebiten.RunGame(g)
}

// Update polls input and advances the session by one tick.
func (g *Game) Update() error {
	dt := 1 / float64(ebiten.TPS())
	g.pollInput()
	g.uploadDropped()
	g.session.Update(float32(dt))

	if g.opts.ShowFPS {
		g.fps.update(dt, g.session.Tool().String(), g.session.RenderLoop().Frames())
	}
	if g.opts.ExitAfterScript && g.opts.Script != nil && g.opts.Script.Done() {
		return ebiten.Termination
	}
	return nil
}

// Draw redraws the canvas when the session is dirty and composites the
// overlays on top every frame.
func (g *Game) Draw(screen *ebiten.Image) {
	g.ensureCanvas(screen.Bounds().Dx(), screen.Bounds().Dy())
	g.session.Draw(g.surface)

	screen.DrawImage(g.canvas, nil)
	g.prompt.draw(screen, g.session.Viewport())
	if g.opts.ShowFPS {
		g.fps.draw(screen)
	}
	g.flushScreenshots(screen)
}

// Layout keeps one screen pixel per window pixel.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// ensureCanvas (re)allocates the offscreen canvas to the screen size. A
// new canvas forces a redraw.
func (g *Game) ensureCanvas(w, h int) {
	if g.canvas != nil {
		b := g.canvas.Bounds()
		if b.Dx() == w && b.Dy() == h {
			return
		}
		g.canvas.Deallocate()
	}
	g.canvas = ebiten.NewImage(w, h)
	if g.surface == nil {
		g.surface = NewSurface(g.canvas)
	} else {
		g.surface.SetTarget(g.canvas)
	}
	g.session.RenderLoop().MarkDirty()
}

func (g *Game) canvasSize() (int, int) {
	if g.canvas == nil {
		return g.opts.Width, g.opts.Height
	}
	b := g.canvas.Bounds()
	return b.Dx(), b.Dy()
}
