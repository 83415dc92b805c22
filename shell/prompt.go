package shell

import (
	"unicode"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/phanxgames/sketchpad"
)

// maxPromptLen caps the runes accepted by the text prompt.
const maxPromptLen = 256

// textPrompt is the inline entry box opened by the text tool. Enter
// confirms, Escape cancels.
type textPrompt struct {
	open bool
	at   sketchpad.Point
	buf  []rune
	done func(string)
}

var _ sketchpad.Prompter = (*textPrompt)(nil)

// Prompt opens the entry box at a canvas point. An already open prompt is
// cancelled first.
func (p *textPrompt) Prompt(at sketchpad.Point, done func(string)) {
	if p.open {
		p.finish("")
	}
	p.open = true
	p.at = at
	p.buf = p.buf[:0]
	p.done = done
}

func (p *textPrompt) active() bool { return p.open }

func (p *textPrompt) text() string { return string(p.buf) }

// edit applies one frame of keyboard input.
func (p *textPrompt) edit(chars []rune, backspace, enter, escape bool) {
	if !p.open {
		return
	}
	switch {
	case escape:
		p.finish("")
		return
	case enter:
		p.finish(string(p.buf))
		return
	}
	if backspace && len(p.buf) > 0 {
		p.buf = p.buf[:len(p.buf)-1]
	}
	for _, r := range chars {
		if !unicode.IsPrint(r) || len(p.buf) >= maxPromptLen {
			continue
		}
		p.buf = append(p.buf, r)
	}
}

func (p *textPrompt) finish(s string) {
	done := p.done
	p.open = false
	p.done = nil
	p.buf = p.buf[:0]
	if done != nil {
		done(s)
	}
}

// draw renders the entry box at the prompt's screen position.
func (p *textPrompt) draw(dst *ebiten.Image, view *sketchpad.Viewport) {
	if !p.open {
		return
	}
	pos := view.ToScreen(p.at)
	x, y := float32(pos.X), float32(pos.Y)
	const w, h = 220, 22
	vector.DrawFilledRect(dst, x, y, w, h, colorBackground, false)
	vector.StrokeRect(dst, x, y, w, h, 1, colorInk, true)

	op := &text.DrawOptions{}
	op.GeoM.Translate(float64(x)+textPadding, float64(y)+4)
	op.ColorScale.ScaleWithColor(colorInk)
	text.Draw(dst, p.text()+"_", textFace, op)
}
