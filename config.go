package sketchpad

import "time"

// Config holds the tunables of a Session. Start from DefaultConfig and
// override individual fields.
type Config struct {
	// DebounceWindow is the quiet period after the last store mutation
	// before a save is issued.
	DebounceWindow time.Duration
	// EraseThreshold is the canvas-space radius of the eraser.
	EraseThreshold float64
	// WheelZoomFactor is applied per wheel notch (inverted for zoom out).
	WheelZoomFactor float64
	// MinScale and MaxScale bound the viewport scale. Zero leaves that side
	// unbounded.
	MinScale, MaxScale float64

	// TextBoxWidth and TextBoxHeight size new text boxes.
	TextBoxWidth, TextBoxHeight float64

	// UploadOrigin is where freshly uploaded images are placed.
	UploadOrigin Point
	// UploadScale multiplies an uploaded bitmap's pixel size.
	UploadScale float64

	// ResetDuration is the length in seconds of the animated view reset.
	ResetDuration float32

	// Debug enables per-frame render stats at debug level.
	Debug bool
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		DebounceWindow:  time.Second,
		EraseThreshold:  10,
		WheelZoomFactor: 1.1,
		TextBoxWidth:    100,
		TextBoxHeight:   30,
		UploadOrigin:    Point{X: 100, Y: 100},
		UploadScale:     0.5,
		ResetDuration:   0.3,
	}
}

// withDefaults fills zero fields from DefaultConfig. Scale limits are left
// alone because zero is meaningful there.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DebounceWindow <= 0 {
		c.DebounceWindow = d.DebounceWindow
	}
	if c.EraseThreshold <= 0 {
		c.EraseThreshold = d.EraseThreshold
	}
	if c.WheelZoomFactor <= 0 {
		c.WheelZoomFactor = d.WheelZoomFactor
	}
	if c.TextBoxWidth <= 0 {
		c.TextBoxWidth = d.TextBoxWidth
	}
	if c.TextBoxHeight <= 0 {
		c.TextBoxHeight = d.TextBoxHeight
	}
	if c.UploadScale <= 0 {
		c.UploadScale = d.UploadScale
	}
	if c.UploadOrigin == (Point{}) {
		c.UploadOrigin = d.UploadOrigin
	}
	if c.ResetDuration <= 0 {
		c.ResetDuration = d.ResetDuration
	}
	return c
}
