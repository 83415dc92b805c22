package sketchpad

import (
	"errors"
	"image"
	"slices"
)

// ErrEmptyLine is returned when committing a stroke with no samples.
var ErrEmptyLine = errors.New("sketchpad: line needs at least one point")

// ChangeKind classifies a store notification.
type ChangeKind uint8

const (
	ChangeAdd     ChangeKind = iota // element created
	ChangeUpdate                    // element moved or edited
	ChangeDelete                    // element tombstoned
	ChangeReplace                   // whole store replaced by a load
	ChangeBitmap                    // a bitmap finished decoding; render-only
)

// Persistent reports whether the change must eventually reach the remote.
func (c ChangeKind) Persistent() bool {
	return c == ChangeAdd || c == ChangeUpdate || c == ChangeDelete
}

// Scene is a detached set of elements, as produced by a load.
type Scene struct {
	Lines     []*LineElement
	Images    []*ImageElement
	TextBoxes []*TextBoxElement
}

// ElementStore is the canonical, lifecycle-tagged element collection.
// It is owned by the event-processing goroutine and is not safe for
// concurrent use.
type ElementStore struct {
	lines     []*LineElement
	images    []*ImageElement
	textBoxes []*TextBoxElement

	version   uint64
	observers []func(ChangeKind)
}

// NewElementStore returns an empty store.
func NewElementStore() *ElementStore {
	return &ElementStore{}
}

// OnChange registers fn to run after every store mutation.
func (s *ElementStore) OnChange(fn func(ChangeKind)) {
	s.observers = append(s.observers, fn)
}

// Version increments on every mutation.
func (s *ElementStore) Version() uint64 { return s.version }

// Lines returns the lines in insertion order, tombstones included.
// The returned slice must not be mutated.
func (s *ElementStore) Lines() []*LineElement { return s.lines }

// Images returns the images in insertion order, tombstones included.
func (s *ElementStore) Images() []*ImageElement { return s.images }

// TextBoxes returns the text boxes in insertion order, tombstones included.
func (s *ElementStore) TextBoxes() []*TextBoxElement { return s.textBoxes }

func (s *ElementStore) notify(kind ChangeKind) {
	s.version++
	for _, fn := range s.observers {
		fn(kind)
	}
}

// AddLine commits a new line. points is copied.
func (s *ElementStore) AddLine(points []Point) (*LineElement, error) {
	if len(points) == 0 {
		return nil, ErrEmptyLine
	}
	l := &LineElement{
		meta:   meta{ID: NewID(), Status: StatusNew},
		Points: slices.Clone(points),
	}
	s.lines = append(s.lines, l)
	s.notify(ChangeAdd)
	return l, nil
}

// AddImage places a new image. bitmap may be nil while decoding.
func (s *ElementStore) AddImage(ref string, box Rect, bitmap image.Image) *ImageElement {
	img := &ImageElement{
		meta:      meta{ID: NewID(), Status: StatusNew},
		SourceRef: ref,
		X:         box.X, Y: box.Y, Width: box.Width, Height: box.Height,
		Bitmap: bitmap,
	}
	s.images = append(s.images, img)
	s.notify(ChangeAdd)
	return img
}

// AddTextBox creates a new text box.
func (s *ElementStore) AddTextBox(text string, box Rect) (*TextBoxElement, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	t := &TextBoxElement{
		meta: meta{ID: NewID(), Status: StatusNew},
		Text: text,
		X:    box.X, Y: box.Y, Width: box.Width, Height: box.Height,
	}
	s.textBoxes = append(s.textBoxes, t)
	s.notify(ChangeAdd)
	return t, nil
}

// Move sets the top-left corner of the image or text box identified by
// kind, index and id. index is a hint; if it is stale the id is searched.
func (s *ElementStore) Move(kind ElementKind, index int, id string, to Point) error {
	var m *meta
	var x, y *float64
	switch kind {
	case KindImage:
		e := findElement(s.images, index, id, func(e *ImageElement) string { return e.ID })
		if e == nil {
			return ErrNotFound
		}
		m, x, y = &e.meta, &e.X, &e.Y
	case KindText:
		e := findElement(s.textBoxes, index, id, func(e *TextBoxElement) string { return e.ID })
		if e == nil {
			return ErrNotFound
		}
		m, x, y = &e.meta, &e.X, &e.Y
	default:
		return ErrNotFound
	}
	if err := m.touch(); err != nil {
		return err
	}
	*x, *y = to.X, to.Y
	s.notify(ChangeUpdate)
	return nil
}

func findElement[E any](list []E, index int, id string, idOf func(E) string) E {
	if index >= 0 && index < len(list) && idOf(list[index]) == id {
		return list[index]
	}
	for _, e := range list {
		if idOf(e) == id {
			return e
		}
	}
	var zero E
	return zero
}

// DeleteLine tombstones the line with the given id.
func (s *ElementStore) DeleteLine(id string) error {
	l := findElement(s.lines, -1, id, func(e *LineElement) string { return e.ID })
	if l == nil {
		return ErrNotFound
	}
	if l.Status == StatusDeleted {
		return ErrDeleted
	}
	l.Status = StatusDeleted
	s.notify(ChangeDelete)
	return nil
}

// EraseNear tombstones every live line with at least one point strictly
// closer than threshold to p. Returns the number of lines erased.
func (s *ElementStore) EraseNear(p Point, threshold float64) int {
	n := 0
	for _, l := range s.lines {
		if l.Status == StatusDeleted {
			continue
		}
		for _, pt := range l.Points {
			if Distance(pt, p) < threshold {
				l.Status = StatusDeleted
				n++
				break
			}
		}
	}
	if n > 0 {
		s.notify(ChangeDelete)
	}
	return n
}

// SetBitmap attaches a decoded bitmap to an image. It does not change the
// element's status because bitmaps are never persisted.
func (s *ElementStore) SetBitmap(id string, bitmap image.Image) error {
	img := findElement(s.images, -1, id, func(e *ImageElement) string { return e.ID })
	if img == nil {
		return ErrNotFound
	}
	img.Bitmap = bitmap
	s.notify(ChangeBitmap)
	return nil
}

// Replace discards local state and adopts scene, tagging every element
// unchanged.
func (s *ElementStore) Replace(scene *Scene) {
	s.lines, s.images, s.textBoxes = nil, nil, nil
	if scene != nil {
		s.lines = scene.Lines
		s.images = scene.Images
		s.textBoxes = scene.TextBoxes
	}
	for _, l := range s.lines {
		l.meta = meta{ID: l.ID, Status: StatusUnchanged}
	}
	for _, img := range s.images {
		img.meta = meta{ID: img.ID, Status: StatusUnchanged}
	}
	for _, t := range s.textBoxes {
		t.meta = meta{ID: t.ID, Status: StatusUnchanged}
	}
	s.notify(ChangeReplace)
}

// AckDeleted marks the listed tombstones as confirmed by the remote so
// they are left out of later payloads.
func (s *ElementStore) AckDeleted(p *SavePayload) {
	ackTombstones(s.lines, p.Delta.Lines.Deleted, func(e *LineElement) *meta { return &e.meta })
	ackTombstones(s.images, p.Delta.Images.Deleted, func(e *ImageElement) *meta { return &e.meta })
	ackTombstones(s.textBoxes, p.Delta.TextBoxes.Deleted, func(e *TextBoxElement) *meta { return &e.meta })
}

func ackTombstones[E any](list []E, ids []string, metaOf func(E) *meta) {
	if len(ids) == 0 {
		return
	}
	for _, e := range list {
		m := metaOf(e)
		if m.Status == StatusDeleted && slices.Contains(ids, m.ID) {
			m.acked = true
		}
	}
}
