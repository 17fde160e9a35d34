// Package shell implements the window-facing surface roles: the
// Window wrapper over toplevel kinds, xdg popups, and the popup
// input-grab state machine.
package shell

import (
	"image"

	"deedles.dev/shoji/compositor"
	"deedles.dev/shoji/x11"
)

// Window wraps exactly one toplevel-capable surface kind. It is a
// tagged variant: exactly one of the kind fields is non-nil, and
// operations switch over it exhaustively. Operations a kind does not
// support are no-ops, not errors.
type Window struct {
	XDG *Toplevel
	X11 *x11.Window
}

// Surface returns the window's root surface.
func (w *Window) Surface() *compositor.Surface {
	switch {
	case w.XDG != nil:
		return w.XDG.Surface()
	case w.X11 != nil:
		return w.X11.Surface()
	}
	return nil
}

// Geometry returns the window geometry with its origin normalized to
// (0, 0). Size is client-reported; position is assigned by the Space.
func (w *Window) Geometry() image.Rectangle {
	switch {
	case w.XDG != nil:
		geo := w.XDG.Geometry()
		return image.Rect(0, 0, geo.Dx(), geo.Dy())
	case w.X11 != nil:
		geo := w.X11.Geometry()
		return image.Rect(0, 0, geo.Dx(), geo.Dy())
	}
	return image.Rectangle{}
}

// SendConfigure asks the client to take on a new size.
func (w *Window) SendConfigure(serial uint32, size image.Point) {
	switch {
	case w.XDG != nil:
		if w.XDG.OnConfigure != nil {
			w.XDG.OnConfigure(serial, size)
		}
	case w.X11 != nil:
		geo := w.X11.Geometry()
		w.X11.Configure(image.Rectangle{Min: geo.Min, Max: geo.Min.Add(size)})
	}
}

// Close asks the client to close the window.
func (w *Window) Close() {
	switch {
	case w.XDG != nil:
		if w.XDG.OnClose != nil {
			w.XDG.OnClose()
		}
	case w.X11 != nil:
		w.X11.Close()
	}
}

// Mapped reports whether the window currently has committed content.
func (w *Window) Mapped() bool {
	s := w.Surface()
	return s != nil && s.Mapped()
}

// Alive reports whether the window's surface still exists.
func (w *Window) Alive() bool {
	s := w.Surface()
	return s != nil && s.Alive()
}

// SurfaceUnder returns the topmost (sub)surface whose input region
// contains pt, in window-local coordinates, along with pt translated
// into that surface's coordinates. Ties between overlapping
// subsurfaces go to the higher stacking index.
func (w *Window) SurfaceUnder(pt image.Point) (*compositor.Surface, image.Point, bool) {
	root := w.Surface()
	if root == nil {
		return nil, image.Point{}, false
	}

	var (
		found    *compositor.Surface
		foundPos image.Point
	)
	root.Walk(image.Point{}, func(s *compositor.Surface, pos image.Point) bool {
		// Visit order is bottom-to-top, so the last hit wins.
		if s.InputContains(pt.Sub(pos)) {
			found, foundPos = s, pos
		}
		return true
	})
	if found == nil {
		return nil, image.Point{}, false
	}
	return found, pt.Sub(foundPos), true
}
