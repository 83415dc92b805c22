package snapstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/phanxgames/sketchpad"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "canvas.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDriverFor(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"data/canvas.db", "sqlite"},
		{"postgres://u:p@localhost/canvas", "postgres"},
		{"postgresql://localhost/canvas", "postgres"},
		{"host=localhost port=5432 dbname=canvas sslmode=disable", "postgres"},
	}
	for _, tt := range tests {
		if got := driverFor(tt.dsn); got != tt.want {
			t.Errorf("driverFor(%q) = %s, want %s", tt.dsn, got, tt.want)
		}
	}
}

func TestRebindDollar(t *testing.T) {
	got := rebindDollar(`INSERT INTO t (a, b) VALUES (?, ?)`)
	want := `INSERT INTO t (a, b) VALUES ($1, $2)`
	if got != want {
		t.Errorf("rebindDollar = %q, want %q", got, want)
	}
}

func TestSaveLoadDelta(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := &sketchpad.SavePayload{}
	first.Delta.Lines.New = []sketchpad.LineRecord{
		{ID: "a", Points: []sketchpad.Point{{X: 0, Y: 0}, {X: 10, Y: 10}}, Status: "new"},
		{ID: "b", Points: []sketchpad.Point{{X: 5, Y: 5}}, Status: "new"},
	}
	first.Delta.Images.New = []sketchpad.ImageRecord{{ID: "i", URL: "/uploads/x.png", Width: 10, Height: 10, Status: "new"}}
	first.Delta.TextBoxes.New = []sketchpad.TextRecord{{ID: "t", Text: "hi", Width: 100, Height: 30, Status: "new"}}

	res, err := s.Save(ctx, first)
	if err != nil {
		t.Fatal(err)
	}
	if res.Upserted != 4 {
		t.Errorf("Upserted = %d, want 4", res.Upserted)
	}

	second := &sketchpad.SavePayload{}
	second.Delta.TextBoxes.Modified = []sketchpad.TextRecord{{ID: "t", Text: "hi", X: 40, Y: 60, Width: 100, Height: 30, Status: "modified"}}
	second.Delta.Lines.Deleted = []string{"b", "never-stored"}
	res, err = s.Save(ctx, second)
	if err != nil {
		t.Fatal(err)
	}
	if res.Upserted != 1 || res.Deleted != 1 {
		t.Errorf("result = %+v, want 1 upsert 1 delete", res)
	}

	snap, err := s.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Lines) != 1 || snap.Lines[0].ID != "a" || len(snap.Lines[0].Points) != 2 {
		t.Errorf("lines = %+v", snap.Lines)
	}
	if snap.Lines[0].Status != "" {
		t.Errorf("stored status = %q, want none", snap.Lines[0].Status)
	}
	if len(snap.TextBoxes) != 1 || snap.TextBoxes[0].X != 40 {
		t.Errorf("text = %+v", snap.TextBoxes)
	}
	if len(snap.Images) != 1 || snap.Images[0].URL != "/uploads/x.png" {
		t.Errorf("images = %+v", snap.Images)
	}
}

func TestSaveIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	p := &sketchpad.SavePayload{}
	p.Delta.Lines.New = []sketchpad.LineRecord{{ID: "a", Points: []sketchpad.Point{{X: 1, Y: 1}}}}
	p.Delta.Lines.Deleted = []string{"gone"}

	for range 3 {
		if _, err := s.Save(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestSaveKeepsInsertionOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"x", "y", "z"} {
		p := &sketchpad.SavePayload{}
		p.Delta.Lines.New = []sketchpad.LineRecord{{ID: id, Points: []sketchpad.Point{{}}}}
		if _, err := s.Save(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	// modifying x must not move it to the end
	p := &sketchpad.SavePayload{}
	p.Delta.Lines.Modified = []sketchpad.LineRecord{{ID: "x", Points: []sketchpad.Point{{X: 9, Y: 9}}}}
	if _, err := s.Save(ctx, p); err != nil {
		t.Fatal(err)
	}

	snap, _ := s.Load(ctx)
	var ids []string
	for _, l := range snap.Lines {
		ids = append(ids, l.ID)
	}
	if len(ids) != 3 || ids[0] != "x" || ids[1] != "y" || ids[2] != "z" {
		t.Errorf("order = %v, want [x y z]", ids)
	}
	if snap.Lines[0].Points[0] != (sketchpad.Point{X: 9, Y: 9}) {
		t.Errorf("x not updated: %v", snap.Lines[0].Points)
	}
}

func TestSaveCombinedListsOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seed := &sketchpad.SavePayload{}
	seed.Delta.Lines.New = []sketchpad.LineRecord{{ID: "old", Points: []sketchpad.Point{{}}}}
	if _, err := s.Save(ctx, seed); err != nil {
		t.Fatal(err)
	}

	legacy := &sketchpad.SavePayload{
		Lines: []sketchpad.LineRecord{
			{ID: "old", Points: []sketchpad.Point{{}}, Status: "deleted"},
			{ID: "fresh", Points: []sketchpad.Point{{X: 1, Y: 2}}, Status: "new"},
			{ID: "same", Points: []sketchpad.Point{{}}},
		},
	}
	res, err := s.Save(ctx, legacy)
	if err != nil {
		t.Fatal(err)
	}
	if res.Upserted != 1 || res.Deleted != 1 {
		t.Errorf("result = %+v", res)
	}
	snap, _ := s.Load(ctx)
	if len(snap.Lines) != 1 || snap.Lines[0].ID != "fresh" {
		t.Errorf("lines = %+v", snap.Lines)
	}
}

func TestLoadEmpty(t *testing.T) {
	s := openTestStore(t)
	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Lines == nil || snap.Images == nil || snap.TextBoxes == nil {
		t.Error("empty load returned nil arrays")
	}
}

func TestOpenAppliesSQLitePragmas(t *testing.T) {
	s := openTestStore(t)

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatal(err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
	var timeout int
	if err := s.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatal(err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}
}
