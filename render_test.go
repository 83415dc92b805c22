package sketchpad

import (
	"slices"
	"testing"
)

func TestRenderOrder(t *testing.T) {
	s := NewElementStore()
	s.AddLine([]Point{{0, 0}, {1, 1}})
	s.AddTextBox("note", Rect{0, 0, 100, 30})
	s.AddImage("a.png", Rect{0, 0, 10, 10}, placeholderBitmap())
	s.AddImage("b.png", Rect{0, 0, 10, 10}, nil) // still decoding
	dead, _ := s.AddLine([]Point{{5, 5}})
	_ = s.DeleteLine(dead.ID)

	surf := &fakeSurface{}
	st := Render(surf, Frame{
		View:      [6]float64{2, 0, 0, 2, 10, 20},
		Lines:     s.Lines(),
		Images:    s.Images(),
		TextBoxes: s.TextBoxes(),
		Stroke:    []Point{{0, 0}, {2, 2}, {4, 4}},
	})

	want := []string{"clear", "transform", "bitmap", "polyline", "text", "polyline"}
	if got := surf.ops(); !slices.Equal(got, want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	if surf.transform != [6]float64{2, 0, 0, 2, 10, 20} {
		t.Errorf("transform = %v", surf.transform)
	}
	if surf.calls[5].points != 3 {
		t.Errorf("stroke drawn with %d points, want 3", surf.calls[5].points)
	}
	if st.Images != 1 || st.Lines != 1 || st.TextBoxes != 1 || st.StrokePoints != 3 {
		t.Errorf("stats = %+v", st)
	}
	if st.DrawCalls() != 4 {
		t.Errorf("DrawCalls = %d, want 4", st.DrawCalls())
	}
}

func TestRenderLoopDrawsOnlyWhenDirty(t *testing.T) {
	r := NewRenderLoop()
	surf := &fakeSurface{}
	builds := 0
	build := func() Frame { builds++; return Frame{} }

	if !r.Draw(surf, build) {
		t.Fatal("first frame not drawn")
	}
	if r.Draw(surf, build) {
		t.Error("clean frame redrawn")
	}
	r.MarkDirty()
	r.MarkDirty()
	if !r.Draw(surf, build) {
		t.Error("dirty frame not drawn")
	}
	if builds != 2 || r.Frames() != 2 {
		t.Errorf("builds=%d frames=%d, want 2 2", builds, r.Frames())
	}
	if r.Dirty() {
		t.Error("still dirty after draw")
	}
}

func TestRenderLoopDebugStats(t *testing.T) {
	r := NewRenderLoop()
	r.debug = true
	if !r.Draw(&fakeSurface{}, func() Frame { return Frame{} }) {
		t.Fatal("not drawn")
	}
}
