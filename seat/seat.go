// Package seat models a collection of input devices operated by one
// user: input serials, pointer and keyboard focus, and grab
// interception. A grab, while installed, routes seat input through
// itself instead of the normal focus dispatch.
package seat

import (
	"image"

	"deedles.dev/shoji/compositor"
)

// Grab intercepts seat input while installed. All methods run on the
// event loop.
type Grab interface {
	// Motion is called for pointer motion. under is the surface under
	// the pointer, or zero.
	Motion(pt image.Point, under compositor.SurfaceID)

	// Button is called for pointer button events before normal
	// delivery. It returns false to swallow the event.
	Button(btn Button, pressed bool, under compositor.SurfaceID) bool

	// Key is called for keyboard key events before normal delivery.
	// It returns false to swallow the event.
	Key(key uint32, pressed bool) bool

	// Cancel tears the grab down synchronously. It is called when the
	// grab is forcibly replaced or its seat goes away.
	Cancel()
}

// Seat is one user's input state.
type Seat struct {
	Name string

	// OnPointerFocus and OnKeyboardFocus are called when focus moves,
	// with the previous and new focus. Either surface may be zero.
	OnPointerFocus  func(old, new compositor.SurfaceID)
	OnKeyboardFocus func(old, new compositor.SurfaceID)

	// OnButton and OnKey deliver input to the focused surface after
	// any grab has had its say.
	OnButton func(serial uint32, btn Button, pressed bool, focus compositor.SurfaceID)
	OnKey    func(serial uint32, key uint32, pressed bool, focus compositor.SurfaceID)

	serial        uint32
	pointerFocus  compositor.SurfaceID
	keyboardFocus compositor.SurfaceID
	grab          Grab
}

func New(name string) *Seat {
	return &Seat{Name: name}
}

// NextSerial issues a new input serial. Serials accompany
// input-related events and are required to validate grab requests.
func (s *Seat) NextSerial() uint32 {
	s.serial++
	return s.serial
}

// ValidSerial reports whether serial was issued by this seat.
func (s *Seat) ValidSerial(serial uint32) bool {
	return serial != 0 && serial <= s.serial
}

func (s *Seat) PointerFocus() compositor.SurfaceID  { return s.pointerFocus }
func (s *Seat) KeyboardFocus() compositor.SurfaceID { return s.keyboardFocus }

// FocusPointer moves pointer focus, notifying the listener.
func (s *Seat) FocusPointer(id compositor.SurfaceID) {
	if s.pointerFocus == id {
		return
	}
	old := s.pointerFocus
	s.pointerFocus = id
	if s.OnPointerFocus != nil {
		s.OnPointerFocus(old, id)
	}
}

// FocusKeyboard moves keyboard focus, notifying the listener.
func (s *Seat) FocusKeyboard(id compositor.SurfaceID) {
	if s.keyboardFocus == id {
		return
	}
	old := s.keyboardFocus
	s.keyboardFocus = id
	if s.OnKeyboardFocus != nil {
		s.OnKeyboardFocus(old, id)
	}
}

// Grab returns the installed grab, if any.
func (s *Seat) Grab() Grab { return s.grab }

// SetGrab installs g, cancelling any previous grab first.
func (s *Seat) SetGrab(g Grab) {
	if s.grab != nil && s.grab != g {
		s.grab.Cancel()
	}
	s.grab = g
}

// ClearGrab uninstalls the grab without cancelling it. The grab
// itself calls this once it has wound down.
func (s *Seat) ClearGrab(g Grab) {
	if s.grab == g {
		s.grab = nil
	}
}

// CancelGrab forcibly tears down the installed grab, if any. The
// grab must release all held input routing before returning.
func (s *Seat) CancelGrab() {
	if g := s.grab; g != nil {
		s.grab = nil
		g.Cancel()
	}
}

// PointerMotion dispatches pointer motion. under is the surface
// under the pointer in its own coordinates, or zero.
func (s *Seat) PointerMotion(pt image.Point, under compositor.SurfaceID) {
	if s.grab != nil {
		s.grab.Motion(pt, under)
		return
	}
	s.FocusPointer(under)
}

// PointerButton dispatches a pointer button event.
func (s *Seat) PointerButton(btn Button, pressed bool, under compositor.SurfaceID) uint32 {
	serial := s.NextSerial()
	if g := s.grab; g != nil {
		if !g.Button(btn, pressed, under) {
			return serial
		}
	}
	if s.OnButton != nil {
		s.OnButton(serial, btn, pressed, s.pointerFocus)
	}
	return serial
}

// Key dispatches a keyboard key event.
func (s *Seat) Key(key uint32, pressed bool) uint32 {
	serial := s.NextSerial()
	if g := s.grab; g != nil {
		if !g.Key(key, pressed) {
			return serial
		}
	}
	if s.OnKey != nil {
		s.OnKey(serial, key, pressed, s.keyboardFocus)
	}
	return serial
}
