package sketchpad

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBuildPayloadPartitions(t *testing.T) {
	s := NewElementStore()
	fresh, _ := s.AddLine([]Point{{0, 0}, {10, 10}})
	kept, _ := s.AddLine([]Point{{1, 1}})
	kept.Status = StatusUnchanged
	gone, _ := s.AddLine([]Point{{2, 2}})
	_ = s.DeleteLine(gone.ID)

	img := s.AddImage("http://host/uploads/a.png", Rect{1, 2, 3, 4}, placeholderBitmap())
	img.Status = StatusUnchanged
	_ = s.Move(KindImage, 0, img.ID, Point{9, 9})

	tb, _ := s.AddTextBox("hi", Rect{0, 0, 100, 30})
	_ = tb

	p := BuildPayload(s)

	if len(p.Lines) != 2 {
		t.Errorf("combined lines = %d, want 2 live", len(p.Lines))
	}
	if got := p.Delta.Lines.New; len(got) != 1 || got[0].ID != fresh.ID || got[0].Status != "new" {
		t.Errorf("lines.new = %+v", got)
	}
	if len(p.Delta.Lines.Modified) != 0 {
		t.Errorf("lines.modified = %+v, want none", p.Delta.Lines.Modified)
	}
	if got := p.Delta.Lines.Deleted; len(got) != 1 || got[0] != gone.ID {
		t.Errorf("lines.deleted = %v, want [%s]", got, gone.ID)
	}
	for _, rec := range p.Lines {
		if rec.ID == kept.ID && rec.Status != "" {
			t.Errorf("unchanged line carries status %q", rec.Status)
		}
	}

	if got := p.Delta.Images.Modified; len(got) != 1 || got[0].X != 9 || got[0].URL != img.SourceRef {
		t.Errorf("images.modified = %+v", got)
	}
	if len(p.Delta.TextBoxes.New) != 1 || p.Delta.TextBoxes.New[0].Text != "hi" {
		t.Errorf("textBoxes.new = %+v", p.Delta.TextBoxes.New)
	}
	if p.Version != s.Version() {
		t.Errorf("Version = %d, want %d", p.Version, s.Version())
	}
}

func TestBuildPayloadOmitsAckedTombstones(t *testing.T) {
	s := NewElementStore()
	l, _ := s.AddLine([]Point{{0, 0}})
	_ = s.DeleteLine(l.ID)

	first := BuildPayload(s)
	s.AckDeleted(first)
	second := BuildPayload(s)

	if len(first.Delta.Lines.Deleted) != 1 {
		t.Fatalf("first save deleted = %v", first.Delta.Lines.Deleted)
	}
	if len(second.Delta.Lines.Deleted) != 0 {
		t.Errorf("acked tombstone resent: %v", second.Delta.Lines.Deleted)
	}
	if !second.Delta.Empty() {
		t.Error("second delta not empty")
	}
	if len(s.Lines()) != 1 || s.Lines()[0].Status != StatusDeleted {
		t.Error("tombstone purged from store")
	}
}

func TestBuildPayloadEmptyStore(t *testing.T) {
	p := BuildPayload(NewElementStore())
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	// combined lists encode as arrays, never null
	for _, want := range []string{`"lines":[]`, `"images":[]`, `"textBoxes":[]`} {
		if !strings.Contains(string(b), want) {
			t.Errorf("payload %s missing %s", b, want)
		}
	}
}

func TestSnapshotDecodeTolerant(t *testing.T) {
	data := `{"lines":[{"id":"l1","points":[{"x":0,"y":0},{"x":10,"y":10}]}],
	          "textBoxes":[{"id":"t1","content":"legacy","x":1,"y":2,"width":100,"height":30}]}`
	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Images != nil {
		t.Errorf("missing images = %v, want nil", snap.Images)
	}
	if len(snap.Lines[0].Points) != 2 || snap.Lines[0].Points[1] != (Point{10, 10}) {
		t.Errorf("points = %v", snap.Lines[0].Points)
	}
	if snap.TextBoxes[0].Body() != "legacy" {
		t.Errorf("Body = %q, want content fallback", snap.TextBoxes[0].Body())
	}
}
