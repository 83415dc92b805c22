package sketchpad

import (
	"encoding/json"
	"fmt"
)

// scriptStep is a single action in an input script.
type scriptStep struct {
	Action  string  `json:"action"`
	Label   string  `json:"label,omitempty"`
	Pointer int     `json:"pointer,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	FromX   float64 `json:"fromX,omitempty"`
	FromY   float64 `json:"fromY,omitempty"`
	ToX     float64 `json:"toX,omitempty"`
	ToY     float64 `json:"toY,omitempty"`
	From    float64 `json:"from,omitempty"`
	To      float64 `json:"to,omitempty"`
	DeltaY  float64 `json:"deltaY,omitempty"`
	Key     string  `json:"key,omitempty"`
	Frames  int     `json:"frames,omitempty"`
}

type script struct {
	Steps []scriptStep `json:"steps"`
}

// ScriptRunner replays scripted input across frames, for demos and
// automated visual checks. Attach to a Session via SetScript.
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses a JSON input script:
//
//	{"steps": [
//	  {"action": "key", "key": "p"},
//	  {"action": "drag", "fromX": 10, "fromY": 10, "toX": 200, "toY": 120, "frames": 20},
//	  {"action": "pinch", "x": 400, "y": 300, "from": 100, "to": 200, "frames": 10},
//	  {"action": "wheel", "deltaY": -1},
//	  {"action": "wait", "frames": 5},
//	  {"action": "screenshot", "label": "after-pinch"}
//	]}
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var sc script
	if err := json.Unmarshal(jsonData, &sc); err != nil {
		return nil, fmt.Errorf("parse input script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("parse input script: no steps")
	}
	for i, st := range sc.Steps {
		switch st.Action {
		case "down", "move", "up", "drag", "pinch", "key", "wheel", "wait", "screenshot":
		default:
			return nil, fmt.Errorf("parse input script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: sc.Steps}, nil
}

// SetScript attaches a runner; its steps advance from Session.Update.
func (s *Session) SetScript(r *ScriptRunner) {
	s.script = r
}

// Done reports whether every step has executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// step advances the runner by one frame.
func (r *ScriptRunner) step(s *Session) {
	if r.done {
		return
	}
	// Let queued injections drain before the next step.
	if len(s.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "down":
		s.InjectPress(st.Pointer, st.X, st.Y)
	case "move":
		s.InjectMove(st.Pointer, st.X, st.Y)
	case "up":
		s.InjectRelease(st.Pointer, st.X, st.Y)
	case "drag":
		s.InjectDrag(st.Pointer, st.FromX, st.FromY, st.ToX, st.ToY, st.Frames)
	case "pinch":
		s.InjectPinch(st.X, st.Y, st.From, st.To, st.Frames)
	case "key":
		for _, k := range st.Key {
			s.Key(k)
		}
	case "wheel":
		s.Wheel(st.DeltaY)
	case "screenshot":
		if s.screenshot != nil {
			s.screenshot(st.Label)
		}
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(s.injectQueue) == 0 {
		r.done = true
	}
}
