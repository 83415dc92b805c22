package sketchpad

// DrawingEngine captures freehand strokes for the pen tool and performs
// proximity erase for the eraser tool.
type DrawingEngine struct {
	store     *ElementStore
	threshold float64

	stroke  []Point
	drawing bool

	// onSample runs after every appended sample so the unfinished stroke
	// is visible before commit.
	onSample func()
}

// NewDrawingEngine returns an engine that commits into store and erases
// within threshold canvas units.
func NewDrawingEngine(store *ElementStore, threshold float64) *DrawingEngine {
	return &DrawingEngine{store: store, threshold: threshold}
}

// Drawing reports whether a stroke is in progress.
func (d *DrawingEngine) Drawing() bool { return d.drawing }

// Stroke returns the in-progress samples. Must not be mutated.
func (d *DrawingEngine) Stroke() []Point { return d.stroke }

// Begin starts a new stroke at p, discarding any unfinished one.
func (d *DrawingEngine) Begin(p Point) {
	d.stroke = append(d.stroke[:0], p)
	d.drawing = true
	d.sampled()
}

// Extend appends p to the in-progress stroke. No-op when not drawing.
func (d *DrawingEngine) Extend(p Point) {
	if !d.drawing {
		return
	}
	d.stroke = append(d.stroke, p)
	d.sampled()
}

// Commit turns the in-progress stroke into a new line and clears the
// buffer. Returns nil when no stroke was active.
func (d *DrawingEngine) Commit() (*LineElement, error) {
	if !d.drawing {
		return nil, nil
	}
	d.drawing = false
	line, err := d.store.AddLine(d.stroke)
	// AddLine copies, so the buffer can be reused.
	d.stroke = d.stroke[:0]
	return line, err
}

// Cancel drops the in-progress stroke without committing.
func (d *DrawingEngine) Cancel() {
	if !d.drawing {
		return
	}
	d.drawing = false
	d.stroke = d.stroke[:0]
	d.sampled()
}

// EraseAt tombstones every live line passing within the threshold of p.
func (d *DrawingEngine) EraseAt(p Point) int {
	return d.store.EraseNear(p, d.threshold)
}

func (d *DrawingEngine) sampled() {
	if d.onSample != nil {
		d.onSample()
	}
}
