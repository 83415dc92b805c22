package sketchpad

import (
	"errors"
	"image"

	"github.com/google/uuid"
)

// Status is the lifecycle tag that drives delta synchronization.
type Status uint8

const (
	StatusUnchanged Status = iota // persisted and untouched since load
	StatusNew                     // created locally, never persisted
	StatusModified                // persisted, then mutated
	StatusDeleted                 // tombstone; terminal
)

var statusNames = [...]string{
	StatusUnchanged: "unchanged",
	StatusNew:       "new",
	StatusModified:  "modified",
	StatusDeleted:   "deleted",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// ParseStatus maps a wire name back to a Status.
func ParseStatus(name string) (Status, bool) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), true
		}
	}
	return StatusUnchanged, false
}

// ElementKind distinguishes the three element families.
type ElementKind uint8

const (
	KindLine ElementKind = iota
	KindImage
	KindText
)

func (k ElementKind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindImage:
		return "image"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

var (
	// ErrDeleted is returned when mutating a tombstoned element.
	ErrDeleted = errors.New("sketchpad: element is deleted")
	// ErrNotFound is returned when an id or index does not resolve.
	ErrNotFound = errors.New("sketchpad: element not found")
	// ErrEmptyText is returned when creating a text box with no content.
	ErrEmptyText = errors.New("sketchpad: empty text")
)

// NewID returns a fresh globally unique element identifier.
func NewID() string {
	return uuid.NewString()
}

// meta is the identity and lifecycle shared by every element.
type meta struct {
	ID     string
	Status Status

	// acked marks a tombstone the remote has confirmed.
	acked bool
}

// touch moves the element to modified. Deleted elements refuse.
func (m *meta) touch() error {
	if m.Status == StatusDeleted {
		return ErrDeleted
	}
	m.Status = StatusModified
	return nil
}

// LineElement is a committed freehand stroke.
type LineElement struct {
	meta
	Points []Point
}

// ImageElement is a placed bitmap. Bitmap is local-only and rebuilt on load;
// nil means the decode has not completed.
type ImageElement struct {
	meta
	SourceRef           string
	X, Y, Width, Height float64
	Bitmap              image.Image
}

// Bounds returns the element's axis-aligned box.
func (e *ImageElement) Bounds() Rect {
	return Rect{e.X, e.Y, e.Width, e.Height}
}

// TextBoxElement is a positioned text label.
type TextBoxElement struct {
	meta
	Text                string
	X, Y, Width, Height float64
}

// Bounds returns the element's axis-aligned box.
func (e *TextBoxElement) Bounds() Rect {
	return Rect{e.X, e.Y, e.Width, e.Height}
}
