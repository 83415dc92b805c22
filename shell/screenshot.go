package shell

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/draw"

	"github.com/phanxgames/sketchpad"
)

// queueScreenshot records a label to capture at the end of the next Draw.
func (g *Game) queueScreenshot(label string) {
	g.screenshots = append(g.screenshots, label)
}

// flushScreenshots writes one PNG per queued label into the screenshot
// directory.
func (g *Game) flushScreenshots(screen *ebiten.Image) {
	if len(g.screenshots) == 0 {
		return
	}
	defer func() { g.screenshots = g.screenshots[:0] }()

	if err := os.MkdirAll(g.opts.ScreenshotDir, 0o755); err != nil {
		sketchpad.Logger().Warn("screenshot directory", "dir", g.opts.ScreenshotDir, "error", err)
		return
	}
	data, err := encodePNG(toNRGBA(screen))
	if err != nil {
		sketchpad.Logger().Warn("screenshot", "error", err)
		return
	}
	stamp := time.Now().Format("20060102_150405")
	for _, label := range g.screenshots {
		name := fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label))
		p, err := writeFileAtomic(g.opts.ScreenshotDir, name, data)
		if err != nil {
			sketchpad.Logger().Warn("screenshot", "label", label, "error", err)
			continue
		}
		sketchpad.Logger().Info("screenshot saved", "path", p)
	}
}

// toNRGBA reads the screen back as a straight-alpha image. ebiten pixels
// are premultiplied, which is exactly image.RGBA's layout.
func toNRGBA(screen *ebiten.Image) *image.NRGBA {
	b := screen.Bounds()
	src := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	screen.ReadPixels(src.Pix)
	return straightAlpha(src)
}

func straightAlpha(src *image.RGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	draw.Draw(dst, dst.Rect, src, src.Rect.Min, draw.Src)
	return dst
}

// encodePNG encodes img once so every label of a frame shares the bytes.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// writeFileAtomic writes data to dir/name through a temp file so a partial
// PNG is never left under the final name.
func writeFileAtomic(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, ".shot-*")
	if err != nil {
		return "", err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	p := filepath.Join(dir, name)
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return p, nil
}

// sanitizeLabel makes a label safe for a file name.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, label)
}
