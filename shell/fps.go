package shell

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// fpsRefresh is how often, in seconds, the overlay text is rebuilt.
const fpsRefresh = 0.5

// fpsOverlay shows FPS, TPS, the active tool and the redraw count.
type fpsOverlay struct {
	img     *ebiten.Image
	elapsed float64
	stale   bool
}

func newFPSOverlay() *fpsOverlay {
	return &fpsOverlay{stale: true}
}

func (o *fpsOverlay) update(dt float64, tool string, redraws uint64) {
	o.elapsed += dt
	if !o.stale && o.elapsed < fpsRefresh {
		return
	}
	o.elapsed = 0
	o.stale = false
	if o.img == nil {
		o.img = ebiten.NewImage(120, 64)
	}
	o.img.Fill(color.RGBA{0, 0, 0, 128})
	ebitenutil.DebugPrint(o.img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nTool: %s\nDraws: %d",
		ebiten.ActualFPS(), ebiten.ActualTPS(), tool, redraws))
}

func (o *fpsOverlay) draw(screen *ebiten.Image) {
	if o.img == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(4, 4)
	screen.DrawImage(o.img, op)
}
