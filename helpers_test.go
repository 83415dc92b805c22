package sketchpad

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
)

const epsilon = 1e-9

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func approxPoint(a, b Point) bool {
	return approxEqual(a.X, b.X, 1e-6) && approxEqual(a.Y, b.Y, 1e-6)
}

// --- fake surface ---

type surfaceCall struct {
	op     string
	points int
	text   string
	box    Rect
}

type fakeSurface struct {
	calls     []surfaceCall
	transform [6]float64
}

func (f *fakeSurface) Clear() {
	f.calls = append(f.calls, surfaceCall{op: "clear"})
	f.transform = [6]float64{1, 0, 0, 1, 0, 0}
}

func (f *fakeSurface) SetTransform(m [6]float64) {
	f.calls = append(f.calls, surfaceCall{op: "transform"})
	f.transform = m
}

func (f *fakeSurface) DrawBitmap(_ image.Image, dst Rect) {
	f.calls = append(f.calls, surfaceCall{op: "bitmap", box: dst})
}

func (f *fakeSurface) DrawPolyline(points []Point) {
	f.calls = append(f.calls, surfaceCall{op: "polyline", points: len(points)})
}

func (f *fakeSurface) DrawText(text string, box Rect) {
	f.calls = append(f.calls, surfaceCall{op: "text", text: text, box: box})
}

func (f *fakeSurface) ops() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.op
	}
	return out
}

// --- fake remote ---

var errRemoteDown = errors.New("remote down")

// fakeRemote is an in-memory snapshot store that applies deltas the way a
// real store does.
type fakeRemote struct {
	mu sync.Mutex

	lines  map[string]LineRecord
	images map[string]ImageRecord
	texts  map[string]TextRecord
	order  []string

	saves    []*SavePayload
	saveErr  error
	loadErr  error
	snapshot *Snapshot // when set, Load returns it verbatim

	uploads map[string][]byte
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		lines:   map[string]LineRecord{},
		images:  map[string]ImageRecord{},
		texts:   map[string]TextRecord{},
		uploads: map[string][]byte{},
	}
}

func (r *fakeRemote) Save(_ context.Context, p *SavePayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, p)
	if r.saveErr != nil {
		return r.saveErr
	}
	upsert := func(id string) {
		for _, o := range r.order {
			if o == id {
				return
			}
		}
		r.order = append(r.order, id)
	}
	for _, rec := range append(p.Delta.Lines.New, p.Delta.Lines.Modified...) {
		rec.Status = ""
		r.lines[rec.ID] = rec
		upsert(rec.ID)
	}
	for _, rec := range append(p.Delta.Images.New, p.Delta.Images.Modified...) {
		rec.Status = ""
		r.images[rec.ID] = rec
		upsert(rec.ID)
	}
	for _, rec := range append(p.Delta.TextBoxes.New, p.Delta.TextBoxes.Modified...) {
		rec.Status = ""
		r.texts[rec.ID] = rec
		upsert(rec.ID)
	}
	for _, id := range p.Delta.Lines.Deleted {
		delete(r.lines, id)
	}
	for _, id := range p.Delta.Images.Deleted {
		delete(r.images, id)
	}
	for _, id := range p.Delta.TextBoxes.Deleted {
		delete(r.texts, id)
	}
	return nil
}

func (r *fakeRemote) Load(_ context.Context) (*Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	if r.snapshot != nil {
		return r.snapshot, nil
	}
	snap := &Snapshot{}
	for _, id := range r.order {
		if l, ok := r.lines[id]; ok {
			snap.Lines = append(snap.Lines, l)
		}
		if img, ok := r.images[id]; ok {
			snap.Images = append(snap.Images, img)
		}
		if t, ok := r.texts[id]; ok {
			snap.TextBoxes = append(snap.TextBoxes, t)
		}
	}
	return snap, nil
}

func (r *fakeRemote) UploadImage(_ context.Context, name string, data []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := "mem://" + name
	r.uploads[ref] = data
	return ref, nil
}

func (r *fakeRemote) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func (r *fakeRemote) lastSave() *SavePayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saves) == 0 {
		return nil
	}
	return r.saves[len(r.saves)-1]
}

// fakeBitmaps decodes every ref to a w x h image unless it is listed in
// fail.
type fakeBitmaps struct {
	w, h int
	fail map[string]bool
}

func (b *fakeBitmaps) LoadBitmap(_ context.Context, ref string) (image.Image, error) {
	if b.fail[ref] {
		return nil, fmt.Errorf("decode %s: corrupt", ref)
	}
	return image.NewNRGBA(image.Rect(0, 0, b.w, b.h)), nil
}

// recordingTarget captures ToolTarget calls.
type recordingTarget struct {
	events []string
	points []Point
}

func (t *recordingTarget) ToolDown(p Point) {
	t.events = append(t.events, "down")
	t.points = append(t.points, p)
}

func (t *recordingTarget) ToolMove(p Point) {
	t.events = append(t.events, "move")
	t.points = append(t.points, p)
}

func (t *recordingTarget) ToolUp()     { t.events = append(t.events, "up") }
func (t *recordingTarget) ToolCancel() { t.events = append(t.events, "cancel") }
