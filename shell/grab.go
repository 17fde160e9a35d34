package shell

import (
	"errors"
	"image"
	"slices"

	"deedles.dev/shoji/compositor"
	"deedles.dev/shoji/seat"
)

var (
	// ErrParentGrabbed means the popup's parent is already held by a
	// different active grab.
	ErrParentGrabbed = errors.New("popup parent already has an active grab")

	// ErrNotTheTopmostPopup means the popup is not the most recently
	// mapped popup in its chain. Grabs must nest outward-in.
	ErrNotTheTopmostPopup = errors.New("popup is not the topmost popup in its chain")

	// ErrInvalidSerial means the input serial presented with the grab
	// request was not issued by the seat.
	ErrInvalidSerial = errors.New("invalid input serial for grab")
)

// UngrabStrategy selects how a grab unwinds when a popup is
// dismissed.
type UngrabStrategy int

const (
	// UngrabAllAbove dismisses the popup and everything stacked above
	// it, in one step. This is mandatory when the dismissed popup is
	// not the topmost: popups must close in strict nesting order.
	UngrabAllAbove UngrabStrategy = iota

	// UngrabTopmostOnly pops exactly one entry. It is only valid for
	// the topmost popup; requesting it lower in the stack is a grab
	// error, not a silent cascade.
	UngrabTopmostOnly
)

// PopupGrab owns the stack of popups grabbed on one seat. It is
// created by PopupManager.GrabPopup and destroys itself when the
// stack empties, restoring whatever focus preceded the grab.
type PopupGrab struct {
	mgr    *PopupManager
	seat   *seat.Seat
	serial uint32

	stack []*Popup // innermost (most recently grabbed) last

	prevPointer  compositor.SurfaceID
	prevKeyboard compositor.SurfaceID
	done         bool
}

// GrabPopup creates or extends the seat's popup grab with p. The
// grab routes the seat's input through itself while active.
func (m *PopupManager) GrabPopup(st *seat.Seat, p *Popup, serial uint32) (*PopupGrab, error) {
	if !st.ValidSerial(serial) {
		return nil, ErrInvalidSerial
	}
	if p.parent == nil {
		return nil, ErrNotTheTopmostPopup
	}

	for other, g := range m.grabs {
		if other != st && g.contains(p.parent.ID()) {
			return nil, ErrParentGrabbed
		}
	}

	g := m.grabs[st]
	if g != nil {
		// Extending the grab still has to pick the most recently
		// mapped popup on the grabbed parent, not an older sibling.
		if g.Current().surface != p.parent || !m.topmostIn(p) {
			return nil, ErrNotTheTopmostPopup
		}
	} else {
		// A fresh grab must start at the bottom of a chain: the popup
		// has to be topmost, and its parent must not itself be a popup
		// still waiting for its own grab.
		if !m.topmostIn(p) || m.Popup(p.parent.ID()) != nil {
			return nil, ErrNotTheTopmostPopup
		}
		g = &PopupGrab{
			mgr:          m,
			seat:         st,
			serial:       serial,
			prevPointer:  st.PointerFocus(),
			prevKeyboard: st.KeyboardFocus(),
		}
		m.grabs[st] = g
		st.SetGrab(g)
	}

	g.stack = append(g.stack, p)
	st.FocusKeyboard(p.surface.ID())
	return g, nil
}

func (g *PopupGrab) Seat() *seat.Seat { return g.seat }
func (g *PopupGrab) Serial() uint32   { return g.serial }

// Current returns the topmost grabbed popup.
func (g *PopupGrab) Current() *Popup {
	if len(g.stack) == 0 {
		return nil
	}
	return g.stack[len(g.stack)-1]
}

// Depth returns the number of popups in the grab stack.
func (g *PopupGrab) Depth() int { return len(g.stack) }

func (g *PopupGrab) contains(id compositor.SurfaceID) bool {
	return slices.ContainsFunc(g.stack, func(p *Popup) bool {
		return p.surface.ID() == id
	})
}

// Dismiss removes p from the grab stack. With UngrabAllAbove,
// everything above p is force-dismissed along with it in one step;
// with UngrabTopmostOnly, p must be the topmost entry. An empty
// stack destroys the grab and restores the focus that preceded it.
func (g *PopupGrab) Dismiss(p *Popup, strategy UngrabStrategy) error {
	i := slices.Index(g.stack, p)
	if i < 0 {
		return nil
	}

	if strategy == UngrabTopmostOnly && i != len(g.stack)-1 {
		return ErrNotTheTopmostPopup
	}

	dismissed := g.stack[i:]
	g.stack = g.stack[:i]

	// Force-dismissed popups above p learn about it via popup_done;
	// p itself initiated the dismissal.
	for j := len(dismissed) - 1; j >= 1; j-- {
		dismissed[j].dismiss()
	}

	if len(g.stack) == 0 {
		g.finish()
	} else {
		g.seat.FocusKeyboard(g.Current().surface.ID())
	}
	return nil
}

// Ungrab force-dismisses the entire stack.
func (g *PopupGrab) Ungrab() {
	stack := g.stack
	g.stack = nil
	for i := len(stack) - 1; i >= 0; i-- {
		stack[i].dismiss()
	}
	g.finish()
}

func (g *PopupGrab) finish() {
	if g.done {
		return
	}
	g.done = true
	delete(g.mgr.grabs, g.seat)
	g.seat.ClearGrab(g)
	g.seat.FocusKeyboard(g.prevKeyboard)
	g.seat.FocusPointer(g.prevPointer)
}

// Motion implements seat.Grab. Pointer focus moves normally between
// the grabbing client's surfaces.
func (g *PopupGrab) Motion(pt image.Point, under compositor.SurfaceID) {
	g.seat.FocusPointer(under)
}

// Button implements seat.Grab. A press outside every grabbed popup
// dismisses the whole grab, per xdg_popup semantics.
func (g *PopupGrab) Button(btn seat.Button, pressed bool, under compositor.SurfaceID) bool {
	if pressed && !g.contains(under) {
		g.Ungrab()
		return false
	}
	return true
}

// Key implements seat.Grab. Keys flow to the keyboard focus, which
// the grab keeps pinned to the topmost popup.
func (g *PopupGrab) Key(key uint32, pressed bool) bool {
	return true
}

// Cancel implements seat.Grab: forced teardown, e.g. on client
// disconnect. All input routing is released synchronously.
func (g *PopupGrab) Cancel() {
	stack := g.stack
	g.stack = nil
	for i := len(stack) - 1; i >= 0; i-- {
		stack[i].dismiss()
	}
	g.finish()
}
