// Package sketchpad is the interaction and state-reconciliation engine of an
// infinite, pannable and zoomable drawing surface.
//
// A [Session] ties together the pieces:
//
//   - [Viewport] maps screen space to canvas space (pan offset + scale).
//   - [PointerGestureRecognizer] turns mouse, pen and touch input into tool
//     dispatch, two-contact pinch-pan-zoom, or middle-button pan.
//   - [DrawingEngine] records freehand strokes and erases lines by proximity.
//   - [ElementStore] holds lines, images and text boxes, each tagged with a
//     lifecycle [Status] that drives delta synchronization.
//   - [ElementManipulator] hit-tests and drags images and text boxes.
//   - [RenderLoop] redraws the scene onto a [Surface] when anything changed.
//   - [PersistenceSync] loads the scene from a [Remote] and saves debounced
//     deltas back to it.
//
// # Quick start
//
//	s := sketchpad.NewSession(sketchpad.DefaultConfig())
//	s.SetRemote(client, client) // e.g. *remote.Client
//	s.Load()
//
//	// per frame, on the host's event loop:
//	s.PointerDown(sketchpad.PointerEvent{ID: 0, X: 10, Y: 10})
//	s.Update(1.0 / 60)
//	s.Draw(surface)
//
// The github.com/phanxgames/sketchpad/shell package hosts a Session in an
// Ebitengine window.
//
// # Threading
//
// Every Session method must be called from one goroutine. Network requests
// and bitmap decodes run elsewhere, and their results are applied to the
// store during [Session.Update].
package sketchpad
