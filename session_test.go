package sketchpad

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestSession(t *testing.T, remote *fakeRemote) *Session {
	t.Helper()
	s := NewSession(Config{DebounceWindow: 20 * time.Millisecond})
	if remote != nil {
		s.SetRemote(remote, &fakeBitmaps{w: 2, h: 2})
	}
	t.Cleanup(s.Close)
	return s
}

func mouse(x, y float64) PointerEvent { return PointerEvent{ID: 0, X: x, Y: y} }

func TestSessionPenStroke(t *testing.T) {
	s := newTestSession(t, nil)
	s.Viewport().Offset = Point{10, 10}

	s.PointerDown(mouse(10, 10))
	s.PointerMove(mouse(20, 20))
	if got := len(s.Drawing().Stroke()); got != 2 {
		t.Fatalf("stroke = %d samples, want 2", got)
	}
	s.PointerUp(mouse(20, 20))

	lines := s.Store().Lines()
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	if lines[0].Points[0] != (Point{0, 0}) || lines[0].Points[1] != (Point{10, 10}) {
		t.Errorf("points = %v, want canvas space", lines[0].Points)
	}
	if !s.RenderLoop().Dirty() {
		t.Error("commit did not mark dirty")
	}
}

func TestSessionToolKeys(t *testing.T) {
	s := newTestSession(t, nil)
	tests := []struct {
		key  rune
		want ToolMode
	}{
		{'e', ToolEraser},
		{'h', ToolHandle},
		{'t', ToolText},
		{'p', ToolPen},
	}
	for _, tt := range tests {
		if !s.Key(tt.key) {
			t.Errorf("Key(%q) not consumed", tt.key)
		}
		if s.Tool() != tt.want {
			t.Errorf("Key(%q) tool = %v, want %v", tt.key, s.Tool(), tt.want)
		}
	}
	if s.Key('z') {
		t.Error("Key('z') consumed")
	}
}

func TestSessionEraser(t *testing.T) {
	s := newTestSession(t, nil)
	l, _ := s.Store().AddLine([]Point{{5, 5}})
	s.SetTool(ToolEraser)
	s.PointerDown(mouse(100, 100))
	s.PointerMove(mouse(6, 6))
	s.PointerUp(mouse(6, 6))
	if l.Status != StatusDeleted {
		t.Errorf("Status = %v, want deleted", l.Status)
	}
}

func TestSessionSetToolCommitsStroke(t *testing.T) {
	s := newTestSession(t, nil)
	s.PointerDown(mouse(0, 0))
	s.PointerMove(mouse(5, 5))
	s.Key('h')
	if len(s.Store().Lines()) != 1 {
		t.Errorf("lines = %d, want stroke committed on tool switch", len(s.Store().Lines()))
	}
}

func TestSessionPinchCancelsStroke(t *testing.T) {
	s := newTestSession(t, nil)
	s.PointerDown(touch(1, 0, 0))
	s.PointerMove(touch(1, 5, 5))
	s.PointerDown(touch(2, 100, 0))
	s.PointerMove(touch(2, 200, 0))
	s.PointerUp(touch(2, 200, 0))
	s.PointerUp(touch(1, 5, 5))

	if len(s.Store().Lines()) != 0 {
		t.Errorf("lines = %d, want stroke abandoned", len(s.Store().Lines()))
	}
	if s.Viewport().Scale <= 1 {
		t.Errorf("Scale = %f, want zoomed in", s.Viewport().Scale)
	}
}

func TestSessionHandleDrag(t *testing.T) {
	s := newTestSession(t, nil)
	tb, _ := s.Store().AddTextBox("note", Rect{0, 0, 100, 30})
	s.SetTool(ToolHandle)

	s.PointerDown(mouse(10, 10))
	s.PointerMove(mouse(50, 60))
	s.PointerUp(mouse(50, 60))

	if tb.X != 50 || tb.Y != 60 || tb.Status != StatusModified {
		t.Errorf("text box = (%f,%f) %v", tb.X, tb.Y, tb.Status)
	}
	if s.Manipulator().Active() != nil {
		t.Error("manipulation still active")
	}
}

func TestSessionDragOfVanishedElementIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(prev) })

	s := newTestSession(t, nil)
	s.Store().AddTextBox("note", Rect{0, 0, 100, 30})
	s.SetTool(ToolHandle)

	s.PointerDown(mouse(10, 10))
	s.Store().Replace(&Scene{})
	s.PointerMove(mouse(50, 60))

	if s.Manipulator().Active() != nil {
		t.Error("manipulation still active after rejected drag")
	}
	if !strings.Contains(buf.String(), "drag rejected") {
		t.Errorf("log = %q, want drag rejection", buf.String())
	}
}

func TestSessionTextTool(t *testing.T) {
	s := newTestSession(t, nil)
	s.SetPrompter(PrompterFunc(func(_ Point, done func(string)) { done("label") }))
	s.Viewport().Scale = 2
	s.SetTool(ToolText)

	s.PointerDown(mouse(40, 20))
	s.PointerUp(mouse(40, 20))

	boxes := s.Store().TextBoxes()
	if len(boxes) != 1 {
		t.Fatalf("text boxes = %d", len(boxes))
	}
	if boxes[0].Bounds() != (Rect{20, 10, 100, 30}) {
		t.Errorf("Bounds = %v", boxes[0].Bounds())
	}
}

func TestSessionSchedulesSave(t *testing.T) {
	remote := newFakeRemote()
	s := newTestSession(t, remote)

	s.PointerDown(mouse(0, 0))
	s.PointerMove(mouse(1, 1))
	s.PointerUp(mouse(1, 1))

	time.Sleep(150 * time.Millisecond)
	s.Update(0)
	s.Sync().Wait()
	s.Update(0)

	if remote.saveCount() != 1 {
		t.Fatalf("saves = %d, want 1", remote.saveCount())
	}
	if len(remote.lastSave().Delta.Lines.New) != 1 {
		t.Errorf("saved delta = %+v", remote.lastSave().Delta)
	}
}

func TestSessionLoadDoesNotSave(t *testing.T) {
	remote := newFakeRemote()
	remote.snapshot = &Snapshot{
		Lines:  []LineRecord{{ID: "l1", Points: []Point{{0, 0}, {10, 10}}}},
		Images: []ImageRecord{{ID: "i1", URL: "a.png", Width: 10, Height: 10}},
	}
	s := newTestSession(t, remote)

	s.Load()
	s.Sync().Wait()
	s.Update(0)

	if len(s.Store().Lines()) != 1 || s.Store().Lines()[0].Status != StatusUnchanged {
		t.Fatalf("lines = %v", s.Store().Lines())
	}
	if s.Store().Images()[0].Bitmap == nil {
		t.Error("image bitmap not decoded")
	}

	time.Sleep(100 * time.Millisecond)
	s.Update(0)
	s.Sync().Wait()
	if remote.saveCount() != 0 {
		t.Errorf("load triggered %d saves", remote.saveCount())
	}
}

func TestSessionResetView(t *testing.T) {
	s := newTestSession(t, nil)
	s.Viewport().Pan(Point{300, 200})
	s.Viewport().ZoomBy(4)

	s.Key('0')
	for range 60 {
		s.Update(1.0 / 60)
	}
	v := s.Viewport()
	if !approxPoint(v.Offset, Point{}) || !approxEqual(v.Scale, 1, 1e-6) {
		t.Errorf("after reset Offset=%v Scale=%f", v.Offset, v.Scale)
	}
}

func TestSessionDraw(t *testing.T) {
	s := newTestSession(t, nil)
	surf := &fakeSurface{}
	if !s.Draw(surf) {
		t.Fatal("first Draw did nothing")
	}
	if s.Draw(surf) {
		t.Error("idle Draw redrew")
	}
	s.Wheel(-1)
	if !s.Draw(surf) {
		t.Error("zoom did not trigger redraw")
	}
	if !approxEqual(surf.transform[0], 1.1, 1e-9) {
		t.Errorf("transform scale = %f, want 1.1", surf.transform[0])
	}
}

func TestSessionFlush(t *testing.T) {
	remote := newFakeRemote()
	s := newTestSession(t, remote)
	l, _ := s.Store().AddLine([]Point{{0, 0}})
	_ = s.Store().DeleteLine(l.ID)

	if err := s.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if remote.saveCount() != 1 {
		t.Fatalf("saves = %d, want 1", remote.saveCount())
	}
	if got := BuildPayload(s.Store()).Delta.Lines.Deleted; len(got) != 0 {
		t.Errorf("tombstone not acked: %v", got)
	}
}

func TestSessionUpload(t *testing.T) {
	remote := newFakeRemote()
	s := newTestSession(t, remote)
	s.UploadImage("a.png", []byte{1, 2, 3})
	s.Sync().Wait()
	s.Update(0)
	if len(s.Store().Images()) != 1 {
		t.Fatalf("images = %d, want 1", len(s.Store().Images()))
	}
}

func TestSessionManualSave(t *testing.T) {
	remote := newFakeRemote()
	s := newTestSession(t, remote)
	s.Store().AddLine([]Point{{0, 0}, {5, 5}})

	s.Save()
	s.Sync().Wait()
	if remote.saveCount() != 1 {
		t.Fatalf("saves = %d, want 1", remote.saveCount())
	}
	if got := len(remote.lastSave().Delta.Lines.New); got != 1 {
		t.Errorf("saved new lines = %d, want 1", got)
	}
}

func TestSessionLoadRetryAfterFailure(t *testing.T) {
	remote := newFakeRemote()
	remote.loadErr = errRemoteDown
	s := newTestSession(t, remote)
	s.Store().AddLine([]Point{{1, 1}})

	s.Load()
	s.Sync().Wait()
	s.Update(0)
	if len(s.Store().Lines()) != 1 || s.Store().Lines()[0].Status != StatusNew {
		t.Fatalf("failed load touched the store: %v", s.Store().Lines())
	}

	remote.mu.Lock()
	remote.loadErr = nil
	remote.snapshot = &Snapshot{Lines: []LineRecord{{ID: "l1", Points: []Point{{0, 0}, {10, 10}}}}}
	remote.mu.Unlock()

	s.Load()
	s.Sync().Wait()
	s.Update(0)
	lines := s.Store().Lines()
	if len(lines) != 1 || lines[0].ID != "l1" || lines[0].Status != StatusUnchanged {
		t.Errorf("lines after retry = %v", lines)
	}
}
