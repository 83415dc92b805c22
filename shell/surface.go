package shell

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/phanxgames/sketchpad"
)

// Stroke and text styling in canvas units.
const (
	lineWidth   = 2
	textPadding = 4
)

var (
	colorBackground = color.White
	colorInk        = color.Black
	colorTextBorder = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
)

var textFace = text.NewGoXFace(basicfont.Face7x13)

// Surface draws a sketchpad frame onto an ebiten image. Decoded bitmaps are
// uploaded to the GPU once and evicted when a frame no longer uses them.
type Surface struct {
	dst  *ebiten.Image
	view ebiten.GeoM
	m    [6]float64

	images map[image.Image]*ebiten.Image
	used   map[image.Image]bool
}

var _ sketchpad.Surface = (*Surface)(nil)

// NewSurface returns a surface drawing into dst.
func NewSurface(dst *ebiten.Image) *Surface {
	return &Surface{
		dst:    dst,
		m:      identity,
		images: make(map[image.Image]*ebiten.Image),
		used:   make(map[image.Image]bool),
	}
}

var identity = [6]float64{1, 0, 0, 1, 0, 0}

// SetTarget swaps the destination image, e.g. after a window resize.
func (s *Surface) SetTarget(dst *ebiten.Image) { s.dst = dst }

// Clear fills the target with the background and evicts bitmaps that the
// previous frame did not draw.
func (s *Surface) Clear() {
	for img, eimg := range s.images {
		if !s.used[img] {
			eimg.Deallocate()
			delete(s.images, img)
		}
	}
	clear(s.used)
	s.dst.Fill(colorBackground)
	s.SetTransform(identity)
}

// SetTransform sets the canvas-to-screen matrix.
func (s *Surface) SetTransform(m [6]float64) {
	s.m = m
	s.view = geoMFor(m)
}

// DrawBitmap draws img stretched into dst.
func (s *Surface) DrawBitmap(img image.Image, dst sketchpad.Rect) {
	b := img.Bounds()
	if b.Empty() {
		return
	}
	eimg, ok := s.images[img]
	if !ok {
		eimg = ebiten.NewImageFromImage(img)
		s.images[img] = eimg
	}
	s.used[img] = true

	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	op.GeoM = bitmapGeoM(b, dst, s.view)
	s.dst.DrawImage(eimg, op)
}

// DrawPolyline strokes points with round joins. A single point draws a dot.
func (s *Surface) DrawPolyline(points []sketchpad.Point) {
	if len(points) == 0 {
		return
	}
	w := float32(lineWidth * s.m[0])
	r := w / 2
	prevX, prevY := s.apply(points[0])
	vector.DrawFilledCircle(s.dst, prevX, prevY, r, colorInk, true)
	for _, p := range points[1:] {
		x, y := s.apply(p)
		vector.StrokeLine(s.dst, prevX, prevY, x, y, w, colorInk, true)
		vector.DrawFilledCircle(s.dst, x, y, r, colorInk, true)
		prevX, prevY = x, y
	}
}

// DrawText draws text inside box with a thin border.
func (s *Surface) DrawText(str string, box sketchpad.Rect) {
	x0, y0 := s.apply(sketchpad.Point{X: box.X, Y: box.Y})
	x1, y1 := s.apply(sketchpad.Point{X: box.X + box.Width, Y: box.Y + box.Height})
	vector.StrokeRect(s.dst, x0, y0, x1-x0, y1-y0, 1, colorTextBorder, true)

	op := &text.DrawOptions{}
	op.GeoM.Translate(box.X+textPadding, box.Y+(box.Height-float64(basicfont.Face7x13.Height))/2)
	op.GeoM.Concat(s.view)
	op.ColorScale.ScaleWithColor(colorInk)
	text.Draw(s.dst, str, textFace, op)
}

func (s *Surface) apply(p sketchpad.Point) (float32, float32) {
	x, y := s.view.Apply(p.X, p.Y)
	return float32(x), float32(y)
}

// geoMFor converts [a, b, c, d, tx, ty] to an ebiten.GeoM.
func geoMFor(m [6]float64) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, m[0])
	g.SetElement(1, 0, m[1])
	g.SetElement(0, 1, m[2])
	g.SetElement(1, 1, m[3])
	g.SetElement(0, 2, m[4])
	g.SetElement(1, 2, m[5])
	return g
}

// bitmapGeoM maps a source image of bounds src onto dst in canvas space,
// then through view.
func bitmapGeoM(src image.Rectangle, dst sketchpad.Rect, view ebiten.GeoM) ebiten.GeoM {
	var g ebiten.GeoM
	g.Scale(dst.Width/float64(src.Dx()), dst.Height/float64(src.Dy()))
	g.Translate(dst.X, dst.Y)
	g.Concat(view)
	return g
}
