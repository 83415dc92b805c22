package sketchpad

type injectKind uint8

const (
	injectDown injectKind = iota
	injectMove
	injectUp
)

// injectedEvent is a queued synthetic pointer event in screen space.
type injectedEvent struct {
	kind  injectKind
	event PointerEvent
}

// InjectPress queues a left-button press for pointer id at screen (x, y).
// Injected events are consumed one per Update, in order.
func (s *Session) InjectPress(id int, x, y float64) {
	s.inject(injectDown, id, x, y)
}

// InjectMove queues a move for pointer id.
func (s *Session) InjectMove(id int, x, y float64) {
	s.inject(injectMove, id, x, y)
}

// InjectRelease queues a release for pointer id.
func (s *Session) InjectRelease(id int, x, y float64) {
	s.inject(injectUp, id, x, y)
}

// InjectDrag queues a full drag: press at from, frames-2 interpolated
// moves, and release at to. Minimum frames is 2.
func (s *Session) InjectDrag(id int, fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	s.InjectPress(id, fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		s.InjectMove(id, fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	s.InjectRelease(id, toX, toY)
}

// InjectPinch queues a two-contact pinch around (cx, cy): both contacts
// start fromDist apart horizontally and end toDist apart, spread over
// frames moves of the second contact.
func (s *Session) InjectPinch(cx, cy, fromDist, toDist float64, frames int) {
	if frames < 1 {
		frames = 1
	}
	const a, b = 1, 2
	s.inject(injectDown, a, cx-fromDist/2, cy)
	s.inject(injectDown, b, cx+fromDist/2, cy)
	for i := 1; i <= frames; i++ {
		t := float64(i) / float64(frames)
		d := fromDist + (toDist-fromDist)*t
		s.inject(injectMove, b, cx-fromDist/2+d, cy)
	}
	end := cx - fromDist/2 + toDist
	s.inject(injectUp, b, end, cy)
	s.inject(injectUp, a, cx-fromDist/2, cy)
}

// PendingInjections returns the number of queued synthetic events.
func (s *Session) PendingInjections() int { return len(s.injectQueue) }

func (s *Session) inject(kind injectKind, id int, x, y float64) {
	dev := DeviceMouse
	if id != 0 {
		dev = DeviceTouch
	}
	s.injectQueue = append(s.injectQueue, injectedEvent{
		kind:  kind,
		event: PointerEvent{ID: id, Device: dev, Button: MouseButtonLeft, X: x, Y: y},
	})
}

// processInjectedInput pops one queued event and feeds it through the
// recognizer exactly like real input.
func (s *Session) processInjectedInput() bool {
	if len(s.injectQueue) == 0 {
		return false
	}
	evt := s.injectQueue[0]
	copy(s.injectQueue, s.injectQueue[1:])
	s.injectQueue = s.injectQueue[:len(s.injectQueue)-1]

	switch evt.kind {
	case injectDown:
		s.recognizer.PointerDown(evt.event)
	case injectMove:
		s.recognizer.PointerMove(evt.event)
	case injectUp:
		s.recognizer.PointerUp(evt.event)
	}
	return true
}
