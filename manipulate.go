package sketchpad

// ActiveManipulation identifies the element being dragged by the handle
// tool.
type ActiveManipulation struct {
	Kind  ElementKind
	ID    string
	Index int
}

// Prompter asks the user for text content. done may be called later, from
// the event-processing goroutine, with the entered text; an empty string
// means the prompt was cancelled.
type Prompter interface {
	Prompt(at Point, done func(text string))
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(at Point, done func(text string))

// Prompt calls f(at, done).
func (f PrompterFunc) Prompt(at Point, done func(text string)) { f(at, done) }

// HitTest returns the topmost live image or text box containing p. Images
// are scanned before text boxes, each in reverse insertion order.
func HitTest(store *ElementStore, p Point) *ActiveManipulation {
	images := store.Images()
	for i := len(images) - 1; i >= 0; i-- {
		img := images[i]
		if img.Status != StatusDeleted && img.Bounds().Contains(p) {
			return &ActiveManipulation{Kind: KindImage, ID: img.ID, Index: i}
		}
	}
	boxes := store.TextBoxes()
	for i := len(boxes) - 1; i >= 0; i-- {
		t := boxes[i]
		if t.Status != StatusDeleted && t.Bounds().Contains(p) {
			return &ActiveManipulation{Kind: KindText, ID: t.ID, Index: i}
		}
	}
	return nil
}

// ElementManipulator drives selection, drag-to-move and text creation.
type ElementManipulator struct {
	store    *ElementStore
	prompter Prompter
	boxW     float64
	boxH     float64

	active *ActiveManipulation
}

// NewElementManipulator returns a manipulator over store. prompter may be
// nil, in which case the text tool does nothing.
func NewElementManipulator(store *ElementStore, prompter Prompter, boxW, boxH float64) *ElementManipulator {
	return &ElementManipulator{store: store, prompter: prompter, boxW: boxW, boxH: boxH}
}

// Active returns the current manipulation, or nil.
func (m *ElementManipulator) Active() *ActiveManipulation { return m.active }

// Begin selects the topmost element under p. Reports whether one was hit.
func (m *ElementManipulator) Begin(p Point) bool {
	m.active = HitTest(m.store, p)
	return m.active != nil
}

// Drag moves the selected element's top-left corner to p.
func (m *ElementManipulator) Drag(p Point) error {
	if m.active == nil {
		return nil
	}
	err := m.store.Move(m.active.Kind, m.active.Index, m.active.ID, p)
	if err != nil {
		m.active = nil
	}
	return err
}

// Release clears the manipulation whether or not a drag happened.
func (m *ElementManipulator) Release() {
	m.active = nil
}

// CreateText prompts for text and, if non-empty, adds a default-sized
// text box at p.
func (m *ElementManipulator) CreateText(p Point) {
	if m.prompter == nil {
		return
	}
	m.prompter.Prompt(p, func(text string) {
		if text == "" {
			return
		}
		box := Rect{X: p.X, Y: p.Y, Width: m.boxW, Height: m.boxH}
		if _, err := m.store.AddTextBox(text, box); err != nil {
			Logger().Warn("create text box", "error", err)
		}
	})
}
