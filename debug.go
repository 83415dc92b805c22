package sketchpad

import (
	"log/slog"
	"time"
)

// RenderStats holds per-frame draw counts and timing. Elapsed is only
// measured in debug mode.
type RenderStats struct {
	Images       int
	Lines        int
	TextBoxes    int
	StrokePoints int
	Elapsed      time.Duration
}

// DrawCalls returns the number of surface draw calls the frame issued.
func (st RenderStats) DrawCalls() int {
	n := st.Images + st.Lines + st.TextBoxes
	if st.StrokePoints > 0 {
		n++
	}
	return n
}

// debugLog writes the frame stats at debug level.
func (r *RenderLoop) debugLog(st RenderStats) {
	if !r.debug {
		return
	}
	Logger().Debug("frame",
		slog.Uint64("frame", r.frames),
		slog.Int("images", st.Images),
		slog.Int("lines", st.Lines),
		slog.Int("text", st.TextBoxes),
		slog.Int("stroke", st.StrokePoints),
		slog.Int("drawCalls", st.DrawCalls()),
		slog.Duration("elapsed", st.Elapsed),
	)
}

// debugStoreThreshold is the element count above which a warning is logged
// once per load, since every frame redraws the full scene.
const debugStoreThreshold = 5000

// debugCheckSceneSize warns when a loaded scene is large enough to make
// full redraws slow.
func debugCheckSceneSize(scene *Scene) {
	if scene == nil {
		return
	}
	n := len(scene.Lines) + len(scene.Images) + len(scene.TextBoxes)
	if n > debugStoreThreshold {
		Logger().Warn("large scene, full redraws may be slow",
			"elements", n, "threshold", debugStoreThreshold)
	}
}
